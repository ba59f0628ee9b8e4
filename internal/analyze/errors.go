package analyze

import "fmt"

// Stage is a step of the per-sequence analysis state machine:
// idle -> aligning -> calling -> matching -> done, or failed from any step.
type Stage int

// Analysis stages.
const (
	StageIdle Stage = iota
	StageAligning
	StageCalling
	StageMatching
	StageDone
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAligning:
		return "aligning"
	case StageCalling:
		return "calling"
	case StageMatching:
		return "matching"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// AnalysisError reports a sequence that could not be analyzed.
// Stage is the step that failed; later steps were not attempted.
type AnalysisError struct {
	Index   int
	SeqName string
	Stage   Stage
	Err     error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze sequence %q: %s: %v", e.SeqName, e.Stage, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

// InvariantError reports an internal inconsistency, such as an alignment of
// the wrong length. It indicates a bug and aborts the whole batch.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "internal invariant violated: " + e.Message
}

func invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}
