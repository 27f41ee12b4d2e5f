package analyzers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/models"
)

func commitAt(hash, author, path string, added, deleted int, at time.Time) models.Commit {
	return models.Commit{
		Hash:      hash,
		Author:    author,
		Timestamp: at,
		Files:     []models.FileChange{{Path: path, Added: added, Deleted: deleted}},
	}
}

func TestAnalyzeChurnEmptyInput(t *testing.T) {
	res := AnalyzeChurn(nil, 5)

	assert.Empty(t, res.Files)
	assert.Zero(t, res.Rate)
}

func TestAnalyzeChurnFindsFrequentlyModifiedFiles(t *testing.T) {
	base := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	var commits []models.Commit
	for i := 0; i < 5; i++ {
		author := "ada"
		if i%2 == 1 {
			author = "lin"
		}
		commits = append(commits, commitAt(string(rune('a'+i)), author, "hot.go", 10, 2, base.Add(time.Duration(i)*time.Hour)))
	}
	commits = append(commits, commitAt("z", "ada", "calm.go", 3, 0, base))

	stats := BuildFileStats(commits, base.AddDate(0, 0, -3), nil)
	res := AnalyzeChurn(stats, 5)

	require.Len(t, res.Files, 1)
	assert.Equal(t, "hot.go", res.Files[0].Path)
	assert.Equal(t, 5, res.Files[0].Count)
	assert.Equal(t, []string{"ada", "lin"}, res.Files[0].Authors)
	assert.InDelta(t, 50.0, res.Rate, 0.001)
	assert.Equal(t, "high", res.Level(10, 30))
}

func TestAnalyzeChurnSortsByCountDesc(t *testing.T) {
	base := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	var commits []models.Commit
	for i := 0; i < 3; i++ {
		commits = append(commits, commitAt(string(rune('a'+i)), "ada", "three.go", 1, 0, base.Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 4; i++ {
		commits = append(commits, commitAt(string(rune('m'+i)), "ada", "four.go", 1, 0, base.Add(time.Duration(i)*time.Minute)))
	}

	stats := BuildFileStats(commits, base.AddDate(0, 0, -1), nil)
	res := AnalyzeChurn(stats, 3)

	require.Len(t, res.Files, 2)
	assert.Equal(t, "four.go", res.Files[0].Path)
	assert.Equal(t, "three.go", res.Files[1].Path)
}

func TestBuildFileStatsIgnoresCommitsBeforeSince(t *testing.T) {
	base := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	commits := []models.Commit{
		commitAt("a", "ada", "f.go", 10, 0, base),
		commitAt("b", "ada", "f.go", 10, 0, base.AddDate(0, 0, -10)),
	}

	stats := BuildFileStats(commits, base.AddDate(0, 0, -3), nil)

	require.Len(t, stats, 1)
	assert.Equal(t, 1, stats[0].ModifyCount)
}
