// Package report builds the daily, weekly, and monthly Markdown
// reports from fetched commit sets.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/devpulse/devpulse/internal/analyzers"
	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/models"
	"github.com/devpulse/devpulse/internal/providers"
)

// Generator orchestrates providers and analyzers into rendered
// Markdown. One Generator serves all three report kinds.
type Generator struct {
	cfg        *config.Config
	provider   providers.Provider
	classifier *analyzers.WorkTimeClassifier
}

// NewGenerator wires a generator. The work-time classifier is built
// here so malformed clock strings fail before any fetch.
func NewGenerator(cfg *config.Config, provider providers.Provider) (*Generator, error) {
	classifier, err := analyzers.NewWorkTimeClassifier(cfg.WorkingHours)
	if err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, provider: provider, classifier: classifier}, nil
}

func (g *Generator) fetch(ctx context.Context, window models.TimeWindow) (*providers.FetchResult, error) {
	return providers.FetchAll(ctx, g.provider, window, providers.FetchOptions{
		Workers: g.cfg.Fetch.Workers,
		Timeout: g.cfg.Fetch.Timeout,
	})
}

// windowMetrics carries everything the section builders share.
type windowMetrics struct {
	window   models.TimeWindow
	result   *providers.FetchResult
	authors  map[string]*models.AuthorAggregate
	repos    map[string]*models.RepoAggregate
	health   models.HealthMetrics
	hotspots []analyzers.Hotspot
	classes  map[string]analyzers.WorkTimeClasses
}

// computeMetrics builds all aggregates. Health rates aggregate across
// repositories as the per-repo maximum; counts are summed and message
// quality is the per-repo mean.
func (g *Generator) computeMetrics(window models.TimeWindow, result *providers.FetchResult) *windowMetrics {
	m := &windowMetrics{
		window:  window,
		result:  result,
		authors: models.BuildAuthorAggregates(result.Commits),
		repos:   models.BuildRepoAggregates(result.Commits),
		classes: make(map[string]analyzers.WorkTimeClasses, len(result.Commits)),
	}
	g.annotateLanguages(m)

	th := g.cfg.Thresholds
	m.health.LargeCommits = analyzers.CountLargeCommits(result.Commits, th.LargeCommit)

	var qualitySum float64
	var repoCount int
	churnSince := window.End.AddDate(0, 0, -th.ChurnDays)
	reworkSince := window.End.AddDate(0, 0, -th.ReworkAddDays)
	hotspotSince := window.End.AddDate(0, 0, -th.HotspotDays)

	repoNames := make([]string, 0, len(result.ByRepo))
	for name := range result.ByRepo {
		repoNames = append(repoNames, name)
	}
	sort.Strings(repoNames)

	for _, name := range repoNames {
		commits := result.ByRepo[name]
		if len(commits) == 0 {
			continue
		}
		repoCount++

		stats := analyzers.BuildFileStats(commits, churnSince, nil)
		churn := analyzers.AnalyzeChurn(stats, th.ChurnCount)
		if churn.Rate > m.health.ChurnRate {
			m.health.ChurnRate = churn.Rate
		}

		rework := analyzers.AnalyzeRework(commits, reworkSince, th.ReworkDeleteDays)
		if rework.Rate > m.health.ReworkRate {
			m.health.ReworkRate = rework.Rate
		}

		var messages []string
		for _, c := range commits {
			messages = append(messages, c.Message)
		}
		qualitySum += analyzers.MessageQuality(messages)

		hotspotStats := analyzers.BuildFileStats(commits, hotspotSince, nil)
		m.hotspots = append(m.hotspots, analyzers.AnalyzeHotspots(hotspotStats, analyzers.HotspotConfig{
			HotspotCount:     th.HotspotCount,
			LargeFile:        th.LargeFile,
			MultiAuthorCount: th.MultiAuthorCount,
			ExcludePatterns:  g.cfg.Analysis.ExcludePatterns,
			ExcludeDirs:      g.cfg.Analysis.ExcludeDirs,
		})...)
	}

	if repoCount > 0 {
		m.health.MessageQuality = qualitySum / float64(repoCount)
	} else {
		m.health.MessageQuality = 100
	}
	m.health.HighRiskFiles = len(m.hotspots)

	for _, c := range result.Commits {
		classes := g.classifier.Classify(c.Timestamp)
		m.classes[c.Hash] = classes
		if classes.LateNight {
			m.health.LateNight++
		}
		if classes.Weekend {
			m.health.Weekend++
		}
	}
	return m
}

// annotateLanguages fills each author aggregate's language multiset
// from the file extensions they touched.
func (g *Generator) annotateLanguages(m *windowMetrics) {
	for _, c := range m.result.Commits {
		agg := m.authors[c.Author]
		if agg == nil {
			continue
		}
		for _, f := range c.Files {
			if lang, ok := languageForPath(f.Path); ok {
				agg.Languages[lang]++
			} else if c.RepoType != "" && c.RepoType != models.RepoTypeUnknown {
				agg.Languages[string(c.RepoType)]++
			}
		}
	}
}

// sortedAuthors returns author aggregates ordered by commit count desc,
// ties by name ascending so rankings are deterministic.
func (m *windowMetrics) sortedAuthors() []*models.AuthorAggregate {
	authors := make([]*models.AuthorAggregate, 0, len(m.authors))
	for _, a := range m.authors {
		authors = append(authors, a)
	}
	sort.Slice(authors, func(i, j int) bool {
		if authors[i].Commits == authors[j].Commits {
			return authors[i].Name < authors[j].Name
		}
		return authors[i].Commits > authors[j].Commits
	})
	return authors
}

// sortedRepos returns repo aggregates ordered by net lines desc, ties
// by name.
func (m *windowMetrics) sortedRepos() []*models.RepoAggregate {
	repos := make([]*models.RepoAggregate, 0, len(m.repos))
	for _, r := range m.repos {
		repos = append(repos, r)
	}
	sort.Slice(repos, func(i, j int) bool {
		if repos[i].Net() == repos[j].Net() {
			return repos[i].Name < repos[j].Name
		}
		return repos[i].Net() > repos[j].Net()
	})
	return repos
}

func (m *windowMetrics) totals() (added, deleted int) {
	for _, c := range m.result.Commits {
		added += c.LinesAdded()
		deleted += c.LinesDeleted()
	}
	return added, deleted
}

func (m *windowMetrics) largeCommits(threshold int) []models.Commit {
	var out []models.Commit
	for _, c := range m.result.Commits {
		if c.LinesAdded()+c.LinesDeleted() > threshold {
			out = append(out, c)
		}
	}
	return out
}

func (m *windowMetrics) tinyCommits(threshold int) int {
	n := 0
	for _, c := range m.result.Commits {
		if c.LinesAdded()+c.LinesDeleted() < threshold {
			n++
		}
	}
	return n
}

// comma renders n with thousand separators.
func comma(n int) string {
	return humanize.Comma(int64(n))
}

// signed renders n with thousand separators and an explicit sign for
// positives.
func signed(n int) string {
	if n > 0 {
		return "+" + comma(n)
	}
	return comma(n)
}

// truncate shortens s to max runes, appending an ellipsis marker.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

// truncatePath keeps the tail of long paths, which carries the file
// name.
func truncatePath(path string, max int) string {
	if len(path) <= max {
		return path
	}
	return "..." + path[len(path)-(max-3):]
}

// partialBanner renders the incompleteness notice for deadline-cut or
// partially failed fetches.
func partialBanner(result *providers.FetchResult) string {
	var b strings.Builder
	if result.Partial {
		b.WriteString("> ⚠️ **Partial report**: the fetch deadline interrupted data collection; numbers below may be incomplete.\n\n")
	}
	if len(result.Failed) > 0 {
		b.WriteString(fmt.Sprintf("> ⚠️ Skipped repositories (fetch failed): %s\n\n", strings.Join(result.Failed, ", ")))
	}
	return b.String()
}

func healthEmoji(level string) string {
	switch level {
	case models.LevelExcellent:
		return "🟢"
	case models.LevelGood:
		return "🔵"
	case models.LevelWarning:
		return "🟡"
	default:
		return "🔴"
	}
}

func writeHealthSection(b *strings.Builder, score models.HealthScore) {
	fmt.Fprintf(b, "## 💪 Health Score\n\n")
	fmt.Fprintf(b, "**%d / 100** %s %s\n\n", score.Score, healthEmoji(score.Level), score.Level)
	if len(score.Deductions) > 0 {
		b.WriteString("| Deduction | Points |\n|---|---:|\n")
		for _, d := range score.Deductions {
			fmt.Fprintf(b, "| %s | -%d |\n", d.Reason, d.Points)
		}
		b.WriteString("\n")
	}
}

func formatDay(t time.Time) string { return t.Format("2006-01-02") }
