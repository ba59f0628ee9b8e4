// Package qc scores the quality of an analyzed sequence.
//
// Each rule yields a score where 0 is perfect; scores of 30 and above are
// mediocre and 100 and above bad. The overall score is the sum of squared rule
// scores divided by 100, graded with the same thresholds.
package qc

import "math"

// Status grades a score.
type Status string

// QC statuses.
const (
	StatusGood     Status = "good"
	StatusMediocre Status = "mediocre"
	StatusBad      Status = "bad"
)

// StatusOf grades a rule or overall score.
func StatusOf(score float64) Status {
	switch {
	case score >= 100:
		return StatusBad
	case score >= 30:
		return StatusMediocre
	default:
		return StatusGood
	}
}

// Input is what the rules need to know about one sequence.
type Input struct {
	TotalMissing          int   // N bases plus reference positions not covered by the alignment
	TotalMixedSites       int   // ambiguous bases other than N
	SubstitutionPositions []int // reference positions of nucleotide substitutions
}

// Result holds the outcome of every enabled rule. Disabled rules are nil.
type Result struct {
	OverallScore  float64            `json:"overallScore"`
	OverallStatus Status             `json:"overallStatus"`
	MissingData   *MissingDataResult `json:"missingData,omitempty"`
	MixedSites    *MixedSitesResult  `json:"mixedSites,omitempty"`
	SnpClusters   *SnpClustersResult `json:"snpClusters,omitempty"`
}

// Run evaluates all enabled rules.
func Run(cfg Config, in Input) Result {
	var res Result
	var scores []float64

	if cfg.MissingData.Enabled {
		res.MissingData = ruleMissingData(cfg.MissingData, in)
		scores = append(scores, res.MissingData.Score)
	}
	if cfg.MixedSites.Enabled {
		res.MixedSites = ruleMixedSites(cfg.MixedSites, in)
		scores = append(scores, res.MixedSites.Score)
	}
	if cfg.SnpClusters.Enabled {
		res.SnpClusters = ruleSnpClusters(cfg.SnpClusters, in)
		scores = append(scores, res.SnpClusters.Score)
	}

	for _, s := range scores {
		res.OverallScore += s * s / 100
	}
	res.OverallScore = round2(res.OverallScore)
	res.OverallStatus = StatusOf(res.OverallScore)
	return res
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
