package dataset

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ConfigError reports invalid reference, gene map, clade or primer configuration.
// It is fatal for a whole batch since every sequence depends on the configuration.
type ConfigError struct {
	Err error // one or more violations combined with multierr
}

func (e *ConfigError) Error() string {
	violations := e.Violations()
	if len(violations) == 1 {
		return "invalid configuration: " + violations[0].Error()
	}
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Error()
	}
	return fmt.Sprintf("invalid configuration (%d problems): %s", len(violations), strings.Join(msgs, "; "))
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Violations returns the individual configuration problems.
func (e *ConfigError) Violations() []error {
	return multierr.Errors(e.Err)
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Err: fmt.Errorf(format, args...)}
}
