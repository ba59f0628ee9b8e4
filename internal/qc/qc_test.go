package qc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusGood, StatusOf(0))
	assert.Equal(t, StatusGood, StatusOf(29.99))
	assert.Equal(t, StatusMediocre, StatusOf(30))
	assert.Equal(t, StatusMediocre, StatusOf(99.9))
	assert.Equal(t, StatusBad, StatusOf(100))
}

func TestRun_Clean(t *testing.T) {
	res := Run(DefaultConfig(), Input{})
	assert.Equal(t, 0.0, res.OverallScore)
	assert.Equal(t, StatusGood, res.OverallStatus)
	require.NotNil(t, res.MissingData)
	require.NotNil(t, res.MixedSites)
	require.NotNil(t, res.SnpClusters)
	assert.Empty(t, res.SnpClusters.Clusters)
}

func TestMissingData(t *testing.T) {
	tests := []struct {
		missing int
		score   float64
		status  Status
	}{
		{0, 0, StatusGood},
		{300, 0, StatusGood},
		{1500, 50, StatusMediocre},
		{2700, 100, StatusBad},
	}
	for _, tt := range tests {
		res := Run(DefaultConfig(), Input{TotalMissing: tt.missing})
		assert.Equal(t, tt.score, res.MissingData.Score, "missing=%d", tt.missing)
		assert.Equal(t, tt.status, res.MissingData.Status, "missing=%d", tt.missing)
	}
}

func TestMixedSites(t *testing.T) {
	res := Run(DefaultConfig(), Input{TotalMixedSites: 4})
	assert.Equal(t, 40.0, res.MixedSites.Score)
	assert.Equal(t, StatusMediocre, res.MixedSites.Status)
	// overall: 40^2/100
	assert.Equal(t, 16.0, res.OverallScore)
	assert.Equal(t, StatusGood, res.OverallStatus)
}

func TestFindSnpClusters(t *testing.T) {
	// 7 substitutions within 100 bases form one cluster, a second dense group
	// overlapping the first window is merged into it.
	positions := []int{10, 20, 30, 40, 50, 60, 70, 80, 500, 900}
	clusters := FindSnpClusters(positions, 100, 6)
	require.Len(t, clusters, 1)
	assert.Equal(t, SnpCluster{Start: 10, End: 80, NumberOfSNPs: 8}, clusters[0])

	assert.Empty(t, FindSnpClusters([]int{1, 2, 3, 4, 5, 6}, 100, 6))

	two := []int{0, 1, 2, 3, 4, 5, 6, 1000, 1001, 1002, 1003, 1004, 1005, 1006}
	clusters = FindSnpClusters(two, 100, 6)
	require.Len(t, clusters, 2)
	assert.Equal(t, 1000, clusters[1].Start)
	assert.Equal(t, 7, clusters[1].NumberOfSNPs)
}

func TestSnpClusters_Score(t *testing.T) {
	positions := []int{0, 1, 2, 3, 4, 5, 6}
	res := Run(DefaultConfig(), Input{SubstitutionPositions: positions})
	assert.Equal(t, 50.0, res.SnpClusters.Score)
	assert.Equal(t, 1, res.SnpClusters.TotalClusters)
	assert.Equal(t, 7, res.SnpClusters.TotalSNPs)
	assert.Equal(t, 25.0, res.OverallScore)
}

func TestRun_DisabledRules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MixedSites.Enabled = false
	cfg.SnpClusters.Enabled = false

	res := Run(cfg, Input{TotalMixedSites: 100, TotalMissing: 2700})
	assert.Nil(t, res.MixedSites)
	assert.Nil(t, res.SnpClusters)
	assert.Equal(t, 100.0, res.OverallScore)
	assert.Equal(t, StatusBad, res.OverallStatus)
}
