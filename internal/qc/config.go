package qc

// MissingDataConfig configures the missing data rule.
type MissingDataConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Threshold is the number of missing bases above ScoreBias that scores 100.
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	ScoreBias float64 `yaml:"scoreBias" mapstructure:"scoreBias"`
}

// MixedSitesConfig configures the mixed sites rule.
type MixedSitesConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Threshold is the number of ambiguous sites that scores 100.
	Threshold int `yaml:"threshold" mapstructure:"threshold"`
}

// SnpClustersConfig configures the SNP cluster rule.
type SnpClustersConfig struct {
	Enabled       bool    `yaml:"enabled" mapstructure:"enabled"`
	WindowSize    int     `yaml:"windowSize" mapstructure:"windowSize"`
	ClusterCutOff int     `yaml:"clusterCutOff" mapstructure:"clusterCutOff"`
	ScoreWeight   float64 `yaml:"scoreWeight" mapstructure:"scoreWeight"`
}

// Config selects and parameterizes the QC rules.
type Config struct {
	MissingData MissingDataConfig `yaml:"missingData" mapstructure:"missingData"`
	MixedSites  MixedSitesConfig  `yaml:"mixedSites" mapstructure:"mixedSites"`
	SnpClusters SnpClustersConfig `yaml:"snpClusters" mapstructure:"snpClusters"`
}

// DefaultConfig returns the default rule set with every rule enabled.
func DefaultConfig() Config {
	return Config{
		MissingData: MissingDataConfig{Enabled: true, Threshold: 2400, ScoreBias: 300},
		MixedSites:  MixedSitesConfig{Enabled: true, Threshold: 10},
		SnpClusters: SnpClustersConfig{Enabled: true, WindowSize: 100, ClusterCutOff: 6, ScoreWeight: 50},
	}
}
