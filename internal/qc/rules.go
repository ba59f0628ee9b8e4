package qc

import (
	"math"
	"sort"
)

// MissingDataResult is the outcome of the missing data rule.
type MissingDataResult struct {
	Score        float64 `json:"score"`
	Status       Status  `json:"status"`
	TotalMissing int     `json:"totalMissing"`
	Threshold    float64 `json:"threshold"`
}

func ruleMissingData(cfg MissingDataConfig, in Input) *MissingDataResult {
	score := 0.0
	if cfg.Threshold > 0 {
		score = math.Max(0, (float64(in.TotalMissing)-cfg.ScoreBias)*100/cfg.Threshold)
	}
	score = round2(score)
	return &MissingDataResult{
		Score:        score,
		Status:       StatusOf(score),
		TotalMissing: in.TotalMissing,
		Threshold:    cfg.Threshold + cfg.ScoreBias,
	}
}

// MixedSitesResult is the outcome of the mixed sites rule.
type MixedSitesResult struct {
	Score           float64 `json:"score"`
	Status          Status  `json:"status"`
	TotalMixedSites int     `json:"totalMixedSites"`
	Threshold       int     `json:"threshold"`
}

func ruleMixedSites(cfg MixedSitesConfig, in Input) *MixedSitesResult {
	score := 0.0
	if cfg.Threshold > 0 {
		score = round2(100 * float64(in.TotalMixedSites) / float64(cfg.Threshold))
	}
	return &MixedSitesResult{
		Score:           score,
		Status:          StatusOf(score),
		TotalMixedSites: in.TotalMixedSites,
		Threshold:       cfg.Threshold,
	}
}

// SnpCluster is a reference window with too many substitutions.
type SnpCluster struct {
	Start        int `json:"start"`
	End          int `json:"end"` // inclusive, position of the last substitution
	NumberOfSNPs int `json:"numberOfSNPs"`
}

// SnpClustersResult is the outcome of the SNP cluster rule.
type SnpClustersResult struct {
	Score         float64      `json:"score"`
	Status        Status       `json:"status"`
	TotalSNPs     int          `json:"totalSNPs"`
	TotalClusters int          `json:"totalClusters"`
	Clusters      []SnpCluster `json:"clusters"`
}

func ruleSnpClusters(cfg SnpClustersConfig, in Input) *SnpClustersResult {
	clusters := FindSnpClusters(in.SubstitutionPositions, cfg.WindowSize, cfg.ClusterCutOff)
	score := round2(float64(len(clusters)) * cfg.ScoreWeight)

	total := 0
	for _, c := range clusters {
		total += c.NumberOfSNPs
	}
	return &SnpClustersResult{
		Score:         score,
		Status:        StatusOf(score),
		TotalSNPs:     total,
		TotalClusters: len(clusters),
		Clusters:      clusters,
	}
}

// FindSnpClusters slides a window of windowSize positions over the sorted
// substitution positions and reports every window holding more than cutOff
// substitutions. Overlapping windows are merged into one cluster.
func FindSnpClusters(positions []int, windowSize, cutOff int) []SnpCluster {
	sorted := append([]int(nil), positions...)
	sort.Ints(sorted)

	var clusters [][]int
	var window []int
	for _, pos := range sorted {
		window = append(window, pos)
		for len(window) > 0 && window[0] < pos-windowSize {
			window = window[1:]
		}
		if len(window) <= cutOff {
			continue
		}

		if n := len(clusters); n > 0 && clusters[n-1][len(clusters[n-1])-1] >= window[0] {
			last := clusters[n-1]
			for _, p := range window {
				if p > last[len(last)-1] {
					last = append(last, p)
				}
			}
			clusters[n-1] = last
		} else {
			clusters = append(clusters, append([]int(nil), window...))
		}
	}

	out := make([]SnpCluster, len(clusters))
	for i, c := range clusters {
		out[i] = SnpCluster{Start: c[0], End: c[len(c)-1], NumberOfSNPs: len(c)}
	}
	return out
}
