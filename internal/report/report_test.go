package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/models"
	"github.com/devpulse/devpulse/internal/providers"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(config.Default(), nil)
	require.NoError(t, err)
	return g
}

func commitOn(hash, author, repo string, at time.Time, added, deleted int) models.Commit {
	return models.Commit{
		Hash:      hash,
		Author:    author,
		RepoName:  repo,
		Message:   "feat: work on " + hash,
		Timestamp: at,
		Files:     []models.FileChange{{Path: "src/" + hash + ".go", Added: added, Deleted: deleted}},
	}
}

func resultOf(commits ...models.Commit) *providers.FetchResult {
	models.SortCommits(commits)
	byRepo := make(map[string][]models.Commit)
	for _, c := range commits {
		byRepo[c.RepoName] = append(byRepo[c.RepoName], c)
	}
	return &providers.FetchResult{Commits: commits, ByRepo: byRepo}
}

func TestCompositeScore(t *testing.T) {
	x := &models.AuthorAggregate{Name: "X", Commits: 10, Added: 2000,
		Repos: map[string]struct{}{"a": {}, "b": {}}}
	y := &models.AuthorAggregate{Name: "Y", Commits: 5, Added: 500,
		Repos: map[string]struct{}{"a": {}}}

	// X holds every maximum; Y has half the commits, a quarter of the
	// added lines, and half the repository spread.
	assert.InDelta(t, 100.0, compositeScore(x, 10, 2000, 2), 1e-9)
	assert.InDelta(t, 37.5, compositeScore(y, 10, 2000, 2), 1e-9)
}

func TestCompositeScoreZeroMaxima(t *testing.T) {
	a := &models.AuthorAggregate{Name: "A"}
	assert.Zero(t, compositeScore(a, 0, 0, 0))
}

func TestDailyReportEmptyWindow(t *testing.T) {
	g := newTestGenerator(t)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	m := g.computeMetrics(models.DayWindow(date), resultOf())
	out := g.renderDaily(date, m)

	// Every section renders even with no data.
	assert.Contains(t, out, "Daily Report 2025-03-10")
	assert.Contains(t, out, "## 📋 Overview")
	assert.Contains(t, out, "| Commits | 0 |")
	assert.Contains(t, out, "No commits today.")
	assert.Contains(t, out, "No abnormal-time commits today. 🎉")
	assert.Contains(t, out, "**100 / 100**")
}

func TestDailyReportSections(t *testing.T) {
	g := newTestGenerator(t)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	at := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	commits := []models.Commit{
		commitOn("aaa", "Ada", "core", at, 120, 20),
		commitOn("bbb", "Ada", "core", at.Add(time.Hour), 30, 5),
		commitOn("ccc", "Lin", "web", at.Add(2*time.Hour), 600, 10),
	}
	m := g.computeMetrics(models.DayWindow(date), resultOf(commits...))
	out := g.renderDaily(date, m)

	assert.Contains(t, out, "| Commits | 3 |")
	assert.Contains(t, out, "| Active developers | 2 |")
	// Ada leads the ranking with two commits.
	assert.Less(t, strings.Index(out, "| 1 | Ada |"), strings.Index(out, "| 2 | Lin |"))
	// The 610-line commit exceeds the 500-line threshold.
	assert.Contains(t, out, "### Large commits")
	assert.Contains(t, out, "### 👤 Ada (2 commits)")
	assert.Contains(t, out, "- [core] 14:30 | +120/-20 (+100)")
}

func TestDailyReportPartialBanner(t *testing.T) {
	g := newTestGenerator(t)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	res := resultOf()
	res.Partial = true
	res.Failed = []string{"legacy-repo"}
	out := g.renderDaily(date, g.computeMetrics(models.DayWindow(date), res))

	assert.Contains(t, out, "Partial report")
	assert.Contains(t, out, "legacy-repo")
}

func TestWeeklyReportRankingMedals(t *testing.T) {
	g := newTestGenerator(t)
	date := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	at := time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC)

	commits := []models.Commit{
		commitOn("a1", "Ada", "core", at, 400, 0),
		commitOn("a2", "Ada", "core", at.Add(time.Hour), 100, 0),
		commitOn("b1", "Lin", "core", at.Add(2*time.Hour), 50, 0),
	}
	m := g.computeMetrics(models.ISOWeekWindow(date), resultOf(commits...))
	out := g.renderWeekly(date, m)

	assert.Contains(t, out, "Weekly Report 2025-W11")
	// Ada holds every maximum; Lin scores 15 + 5 + 20.
	assert.Contains(t, out, "| 🥇 | Ada | 100.0 |")
	assert.Contains(t, out, "| 🥈 | Lin | 40.0 |")
	assert.Contains(t, out, "## ⏰ Commit Time Distribution")
	assert.Contains(t, out, "## 💡 Recommendations")
}

func TestISOWeekLabel(t *testing.T) {
	// 2024-12-30 is a Monday belonging to ISO week 2025-W01.
	assert.Equal(t, "2025-W01", ISOWeekLabel(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-W11", ISOWeekLabel(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)))
}

func TestMonthlyReportTrendAndDistribution(t *testing.T) {
	g := newTestGenerator(t)
	date := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	commits := []models.Commit{
		commitOn("w1", "Ada", "core", time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), 20, 5),
		commitOn("w2", "Ada", "core", time.Date(2025, 3, 11, 10, 0, 0, 0, time.UTC), 100, 10),
		commitOn("w3", "Lin", "core", time.Date(2025, 3, 25, 10, 0, 0, 0, time.UTC), 300, 50),
	}
	m := g.computeMetrics(models.MonthWindow(date), resultOf(commits...))
	out := g.renderMonthly(date, m)

	assert.Contains(t, out, "Monthly Report 2025-03")
	// March 2025 has 21 workdays.
	assert.Contains(t, out, "| Workdays | 21 |")
	assert.Contains(t, out, "| Most active day | 2025-03-03 (1 commits) |")
	// The first trend segment covers the partial week 03/01-03/02.
	assert.Contains(t, out, "| 03/01-03/02 | 0 |")
	assert.Contains(t, out, "| 03/03-03/09 | 1 |")
	// One commit per size band.
	assert.Contains(t, out, "| Small (<50 lines) | 1 | 33.3% |")
	assert.Contains(t, out, "| Medium (50-200 lines) | 1 | 33.3% |")
	assert.Contains(t, out, "| Large (>200 lines) | 1 | 33.3% |")
}

func TestHealthAggregationAcrossRepos(t *testing.T) {
	g := newTestGenerator(t)
	window := models.TimeWindow{
		Start: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	at := window.Start.Add(23 * time.Hour)

	// A late-night large commit contributes to both counters.
	big := commitOn("big", "Ada", "core", at, 700, 100)
	m := g.computeMetrics(window, resultOf(big))

	assert.Equal(t, 1, m.health.LargeCommits)
	assert.Equal(t, 1, m.health.LateNight)
	assert.Zero(t, m.health.Weekend)
}

func TestTruncateHelpers(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "0123456789...", truncate("0123456789abcdef", 10))
	assert.Equal(t, "a/b.go", truncatePath("a/b.go", 20))

	long := "very/deep/nested/path/to/some/file.go"
	got := truncatePath(long, 20)
	assert.Len(t, got, 20)
	assert.True(t, strings.HasPrefix(got, "..."))
	assert.True(t, strings.HasSuffix(got, "file.go"))
}

func TestSignedFormatting(t *testing.T) {
	assert.Equal(t, "+1,234", signed(1234))
	assert.Equal(t, "-1,234", signed(-1234))
	assert.Equal(t, "0", signed(0))
}

func TestLanguageForPath(t *testing.T) {
	lang, ok := languageForPath("src/Main.java")
	assert.True(t, ok)
	assert.Equal(t, "Java", lang)

	_, ok = languageForPath("README.md")
	assert.False(t, ok)
}
