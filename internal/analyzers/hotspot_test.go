package analyzers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultHotspotConfig() HotspotConfig {
	return HotspotConfig{
		HotspotCount:     10,
		LargeFile:        1000,
		MultiAuthorCount: 3,
		ExcludePatterns:  []string{"*.md", "package-lock.json"},
		ExcludeDirs:      []string{"node_modules"},
	}
}

func TestRiskScoreWeights(t *testing.T) {
	// All dimensions saturated: 30 + 25 + 20.
	assert.InDelta(t, 75.0, riskScore(10, 1000, 5), 0.001)
	// Half-saturated frequency only.
	assert.InDelta(t, 15.0, riskScore(5, 0, 0), 0.001)
}

func TestAnalyzeHotspotsDropsLowScores(t *testing.T) {
	stats := []FileStat{
		{Path: "calm.go", ModifyCount: 1, Size: 100, Authors: []string{"ada"}},
	}

	hotspots := AnalyzeHotspots(stats, defaultHotspotConfig())

	assert.Empty(t, hotspots)
}

func TestAnalyzeHotspotsTagsAndSuggestion(t *testing.T) {
	stats := []FileStat{
		{Path: "big.java", ModifyCount: 12, Size: 1200, Authors: []string{"a", "b", "c", "d"}},
	}

	hotspots := AnalyzeHotspots(stats, defaultHotspotConfig())

	require.Len(t, hotspots, 1)
	h := hotspots[0]
	assert.Greater(t, h.RiskScore, 40.0)
	assert.Contains(t, h.Tags, TagHighChurn)
	assert.Contains(t, h.Tags, TagLargeFile)
	assert.Contains(t, h.Tags, TagMultiAuthor)
	assert.Contains(t, h.Tags, TagComplexFile)
	assert.Contains(t, h.Suggestion, "Split the file")
}

func TestAnalyzeHotspotsHighChurnSuggestion(t *testing.T) {
	// 30 (frequency saturated) + 15 (600/1000 lines) + 4 (one author)
	// crosses the 40-point display floor.
	stats := []FileStat{
		{Path: "busy.go", ModifyCount: 15, Size: 600, Authors: []string{"ada"}},
	}

	hotspots := AnalyzeHotspots(stats, defaultHotspotConfig())

	require.Len(t, hotspots, 1)
	assert.InDelta(t, 49.0, hotspots[0].RiskScore, 0.001)
	assert.Contains(t, hotspots[0].Suggestion, "Stabilize the interface")
}

func TestAnalyzeHotspotsExclusions(t *testing.T) {
	stats := []FileStat{
		{Path: "README.md", ModifyCount: 20, Size: 2000, Authors: []string{"a", "b", "c"}},
		{Path: "node_modules/pkg/index.js", ModifyCount: 20, Size: 2000, Authors: []string{"a", "b", "c"}},
		{Path: "src/core.java", ModifyCount: 20, Size: 2000, Authors: []string{"a", "b", "c"}},
	}

	hotspots := AnalyzeHotspots(stats, defaultHotspotConfig())

	require.Len(t, hotspots, 1)
	assert.Equal(t, "src/core.java", hotspots[0].Path)
}

func TestAnalyzeHotspotsSortedByScoreDesc(t *testing.T) {
	stats := []FileStat{
		{Path: "medium.go", ModifyCount: 8, Size: 500, Authors: []string{"a", "b"}},
		{Path: "severe.go", ModifyCount: 20, Size: 2000, Authors: []string{"a", "b", "c", "d", "e"}},
	}

	hotspots := AnalyzeHotspots(stats, defaultHotspotConfig())

	require.Len(t, hotspots, 2)
	assert.Equal(t, "severe.go", hotspots[0].Path)
}
