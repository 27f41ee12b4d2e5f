package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/devpulse/devpulse/internal/analyzers"
	"github.com/devpulse/devpulse/internal/models"
)

// Weekly fetches the ISO week containing date and renders the weekly
// report.
func (g *Generator) Weekly(ctx context.Context, date time.Time) (string, error) {
	window := models.ISOWeekWindow(date)
	result, err := g.fetch(ctx, window)
	if err != nil {
		return "", err
	}
	m := g.computeMetrics(window, result)
	return g.renderWeekly(date, m), nil
}

// ISOWeekLabel renders the "YYYY-Www" identifier used in weekly report
// titles and file names.
func ISOWeekLabel(date time.Time) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (g *Generator) renderWeekly(date time.Time, m *windowMetrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 📈 %s Weekly Report %s (%s - %s)\n\n",
		g.cfg.Project.Name, ISOWeekLabel(date),
		m.window.Start.Format("01/02"), m.window.End.AddDate(0, 0, -1).Format("01/02"))
	b.WriteString(partialBanner(m.result))

	g.writeWeeklyRanking(&b, m)
	g.writeWeeklyTeam(&b, m)
	g.writeDailyRepos(&b, m)
	g.writeWeeklyQuality(&b, m)
	g.writeHotList(&b, m, 10, 57)
	g.writeTimeDistribution(&b, m)

	score := analyzers.CalculateHealthScore(m.health, g.cfg.Thresholds)
	writeHealthSection(&b, score)

	g.writeWeeklyRecommendations(&b, m, score)
	return b.String()
}

// compositeScore ranks a developer against the run maxima on a 0-100
// scale: commit count weighs 30 points, added lines 50, repository
// spread 20.
func compositeScore(a *models.AuthorAggregate, maxCommits, maxAdded, maxRepos int) float64 {
	ratio := func(v, max int) float64 {
		if max == 0 {
			return 0
		}
		return float64(v) / float64(max)
	}
	return 30*ratio(a.Commits, maxCommits) + 50*ratio(a.Added, maxAdded) + 20*ratio(len(a.Repos), maxRepos)
}

func (g *Generator) writeWeeklyRanking(b *strings.Builder, m *windowMetrics) {
	b.WriteString("## 🏆 Developer Ranking\n\n")
	authors := m.sortedAuthors()
	if len(authors) == 0 {
		b.WriteString("No commits this week.\n\n")
		return
	}

	var maxCommits, maxAdded, maxRepos int
	for _, a := range authors {
		if a.Commits > maxCommits {
			maxCommits = a.Commits
		}
		if a.Added > maxAdded {
			maxAdded = a.Added
		}
		if len(a.Repos) > maxRepos {
			maxRepos = len(a.Repos)
		}
	}

	type ranked struct {
		agg   *models.AuthorAggregate
		score float64
	}
	rows := make([]ranked, 0, len(authors))
	for _, a := range authors {
		rows = append(rows, ranked{a, compositeScore(a, maxCommits, maxAdded, maxRepos)})
	}
	// Composite desc, name asc on exact ties.
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].score == rows[j].score {
			return rows[i].agg.Name < rows[j].agg.Name
		}
		return rows[i].score > rows[j].score
	})

	medals := []string{"🥇", "🥈", "🥉"}
	b.WriteString("| Rank | Developer | Score | Commits | Added | Deleted | Net | Files |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---:|---:|\n")
	for i, r := range rows {
		rank := fmt.Sprintf("%d", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		fmt.Fprintf(b, "| %s | %s | %.1f | %d | +%s | -%s | %s | %d |\n",
			rank, r.agg.Name, r.score, r.agg.Commits,
			comma(r.agg.Added), comma(r.agg.Deleted), signed(r.agg.Net()), r.agg.FileCount)
	}
	b.WriteString("\n")
}

func (g *Generator) writeWeeklyTeam(b *strings.Builder, m *windowMetrics) {
	added, deleted := m.totals()
	b.WriteString("## 👥 Team Totals\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(b, "| Commits | %s |\n", comma(len(m.result.Commits)))
	fmt.Fprintf(b, "| Active developers | %s |\n", comma(len(m.authors)))
	fmt.Fprintf(b, "| Active repositories | %s |\n", comma(len(m.repos)))
	fmt.Fprintf(b, "| Lines added | +%s |\n", comma(added))
	fmt.Fprintf(b, "| Lines deleted | -%s |\n", comma(deleted))
	fmt.Fprintf(b, "| Net change | %s |\n\n", signed(added-deleted))
}

func (g *Generator) writeWeeklyQuality(b *strings.Builder, m *windowMetrics) {
	th := g.cfg.Thresholds
	total := len(m.result.Commits)
	large := m.health.LargeCommits
	tiny := m.tinyCommits(th.TinyCommit)

	b.WriteString("## 🔍 Commit Quality\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(b, "| Large commits (>%d lines) | %d |\n", th.LargeCommit, large)
	fmt.Fprintf(b, "| Tiny commits (<%d lines) | %d |\n", th.TinyCommit, tiny)
	fmt.Fprintf(b, "| Message quality | %.0f%% |\n", m.health.MessageQuality)
	fmt.Fprintf(b, "| Churn rate | %.1f%% |\n", m.health.ChurnRate)
	fmt.Fprintf(b, "| Rework rate | %.1f%% |\n", m.health.ReworkRate)
	if total > 0 {
		fmt.Fprintf(b, "| Large commit share | %.1f%% |\n", float64(large)/float64(total)*100)
	}
	b.WriteString("\n")
}

// writeHotList renders the top-n hotspot files with paths truncated to
// pathWidth characters.
func (g *Generator) writeHotList(b *strings.Builder, m *windowMetrics, n, pathWidth int) {
	b.WriteString("## 🔥 File Hot List\n\n")
	if len(m.hotspots) == 0 {
		b.WriteString("No high-risk files. 🎉\n\n")
		return
	}
	b.WriteString("| File | Risk | Modifies | Size | Authors | Tags | Suggestion |\n")
	b.WriteString("|---|---:|---:|---:|---:|---|---|\n")
	for i, h := range m.hotspots {
		if i == n {
			break
		}
		fmt.Fprintf(b, "| `%s` | %.1f | %d | %d | %d | %s | %s |\n",
			truncatePath(h.Path, pathWidth), h.RiskScore, h.ModifyCount,
			h.FileSize, h.AuthorCount, strings.Join(h.Tags, ", "), h.Suggestion)
	}
	b.WriteString("\n")
}

// hourBands partitions the day for the time distribution histogram.
var hourBands = []struct {
	label    string
	from, to int
	abnormal bool
}{
	{"00-06", 0, 6, true},
	{"06-09", 6, 9, false},
	{"09-12", 9, 12, false},
	{"12-14", 12, 14, false},
	{"14-18", 14, 18, false},
	{"18-22", 18, 22, false},
	{"22-24", 22, 24, true},
}

func (g *Generator) writeTimeDistribution(b *strings.Builder, m *windowMetrics) {
	b.WriteString("## ⏰ Commit Time Distribution\n\n")
	total := len(m.result.Commits)
	if total == 0 {
		b.WriteString("No commits.\n\n")
		return
	}

	counts := make([]int, len(hourBands))
	for _, c := range m.result.Commits {
		hour := c.Timestamp.Hour()
		for i, band := range hourBands {
			if hour >= band.from && hour < band.to {
				counts[i]++
				break
			}
		}
	}

	b.WriteString("```\n")
	for i, band := range hourBands {
		pct := float64(counts[i]) / float64(total) * 100
		bar := strings.Repeat("█", int(pct/3))
		flag := ""
		if band.abnormal && pct > 20 {
			flag = " 🔴"
		} else if band.abnormal && pct > 10 {
			flag = " 🟡"
		}
		fmt.Fprintf(b, "%s %-33s %5.1f%% (%d)%s\n", band.label, bar, pct, counts[i], flag)
	}
	b.WriteString("```\n\n")
}

func (g *Generator) writeWeeklyRecommendations(b *strings.Builder, m *windowMetrics, score models.HealthScore) {
	total := len(m.result.Commits)
	var actions, highlights []string

	if total > 0 {
		latePct := float64(m.health.LateNight) / float64(total) * 100
		if latePct > 10 {
			actions = append(actions, fmt.Sprintf("Late-night commits make up %.0f%% of the week; review workload and on-call rotation.", latePct))
		} else {
			highlights = append(highlights, "Late-night activity stayed low.")
		}
		weekendPct := float64(m.health.Weekend) / float64(total) * 100
		if weekendPct > 15 {
			actions = append(actions, fmt.Sprintf("Weekend commits make up %.0f%%; check sprint planning.", weekendPct))
		}
		largePct := float64(m.health.LargeCommits) / float64(total) * 100
		if largePct > 20 {
			actions = append(actions, fmt.Sprintf("%.0f%% of commits exceed %d changed lines; encourage smaller, reviewable commits.", largePct, g.cfg.Thresholds.LargeCommit))
		}
	}
	if m.health.ChurnRate > g.cfg.Thresholds.ChurnRateWarning {
		actions = append(actions, fmt.Sprintf("Churn rate is %.1f%%; recently added code is being modified repeatedly.", m.health.ChurnRate))
	}
	if len(m.hotspots) > 0 {
		actions = append(actions, fmt.Sprintf("%d high-risk files need attention; start with the hot list above.", len(m.hotspots)))
	}
	if m.health.MessageQuality >= 90 {
		highlights = append(highlights, fmt.Sprintf("Message quality is %.0f%%.", m.health.MessageQuality))
	}
	if score.Level == models.LevelExcellent {
		highlights = append(highlights, "Health score is in the excellent band.")
	}

	b.WriteString("## 💡 Recommendations\n\n")
	if len(actions) == 0 {
		b.WriteString("Nothing urgent this week.\n")
	}
	for i, a := range actions {
		if i == 3 {
			break
		}
		fmt.Fprintf(b, "- ⚠️ %s\n", a)
	}
	if len(highlights) > 0 {
		b.WriteString("\n**Highlights**\n\n")
		for _, h := range highlights {
			fmt.Fprintf(b, "- ✨ %s\n", h)
		}
	}
	b.WriteString("\n")
}
