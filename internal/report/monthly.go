package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devpulse/devpulse/internal/analyzers"
	"github.com/devpulse/devpulse/internal/models"
)

// Monthly fetches the calendar month containing date and renders the
// monthly report.
func (g *Generator) Monthly(ctx context.Context, date time.Time) (string, error) {
	window := models.MonthWindow(date)
	result, err := g.fetch(ctx, window)
	if err != nil {
		return "", err
	}
	m := g.computeMetrics(window, result)
	return g.renderMonthly(date, m), nil
}

func (g *Generator) renderMonthly(date time.Time, m *windowMetrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 📅 %s Monthly Report %s\n\n", g.cfg.Project.Name, date.Format("2006-01"))
	b.WriteString(partialBanner(m.result))

	g.writeMonthlyCore(&b, m)
	g.writeMonthlyContributors(&b, m)
	g.writeDailyRepos(&b, m)
	g.writeWeeklyTrend(&b, m)
	g.writeSizeDistribution(&b, m)
	g.writeHotList(&b, m, 10, 47)

	score := analyzers.CalculateHealthScore(m.health, g.cfg.Thresholds)
	writeHealthSection(&b, score)

	g.writeWeeklyRecommendations(&b, m, score)
	return b.String()
}

// workdays counts Monday through Friday dates inside the window.
func workdays(window models.TimeWindow) int {
	n := 0
	for d := window.Start; d.Before(window.End); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			n++
		}
	}
	return n
}

func (g *Generator) writeMonthlyCore(b *strings.Builder, m *windowMetrics) {
	added, deleted := m.totals()
	days := workdays(m.window)

	byDay := make(map[string]int)
	for _, c := range m.result.Commits {
		byDay[formatDay(c.Timestamp)]++
	}
	var busiestDay string
	var busiestCount int
	for day, count := range byDay {
		if count > busiestCount || (count == busiestCount && day < busiestDay) {
			busiestDay, busiestCount = day, count
		}
	}

	b.WriteString("## 📋 Core Metrics\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(b, "| Commits | %s |\n", comma(len(m.result.Commits)))
	fmt.Fprintf(b, "| Active developers | %s |\n", comma(len(m.authors)))
	fmt.Fprintf(b, "| Active repositories | %s |\n", comma(len(m.repos)))
	fmt.Fprintf(b, "| Lines added | +%s |\n", comma(added))
	fmt.Fprintf(b, "| Lines deleted | -%s |\n", comma(deleted))
	fmt.Fprintf(b, "| Net change | %s |\n", signed(added-deleted))
	fmt.Fprintf(b, "| Workdays | %d |\n", days)
	if days > 0 {
		fmt.Fprintf(b, "| Commits per workday | %.1f |\n", float64(len(m.result.Commits))/float64(days))
	}
	if busiestDay != "" {
		fmt.Fprintf(b, "| Most active day | %s (%d commits) |\n", busiestDay, busiestCount)
	}
	b.WriteString("\n")
}

func (g *Generator) writeMonthlyContributors(b *strings.Builder, m *windowMetrics) {
	b.WriteString("## 🏆 Top Contributors\n\n")
	authors := m.sortedAuthors()
	if len(authors) == 0 {
		b.WriteString("No commits this month.\n\n")
		return
	}
	b.WriteString("| # | Developer | Commits | Added | Deleted | Net | Repositories |\n")
	b.WriteString("|---:|---|---:|---:|---:|---:|---|\n")
	for i, a := range authors {
		if i == 10 {
			break
		}
		fmt.Fprintf(b, "| %d | %s | %d | +%s | -%s | %s | %s |\n",
			i+1, a.Name, a.Commits, comma(a.Added), comma(a.Deleted), signed(a.Net()),
			strings.Join(a.RepoNames(), ", "))
	}
	b.WriteString("\n")
}

// writeWeeklyTrend slices the month into Monday-aligned segments and
// tabulates activity per segment. Leading and trailing partial weeks
// are clipped to the month.
func (g *Generator) writeWeeklyTrend(b *strings.Builder, m *windowMetrics) {
	b.WriteString("## 📈 Weekly Trend\n\n")
	if len(m.result.Commits) == 0 {
		b.WriteString("No commits.\n\n")
		return
	}

	type segment struct {
		start, end time.Time
		commits    int
		added      int
		deleted    int
	}
	var segments []segment
	for start := m.window.Start; start.Before(m.window.End); {
		end := models.ISOWeekWindow(start).End
		if end.After(m.window.End) {
			end = m.window.End
		}
		segments = append(segments, segment{start: start, end: end})
		start = end
	}
	for _, c := range m.result.Commits {
		for i := range segments {
			if !c.Timestamp.Before(segments[i].start) && c.Timestamp.Before(segments[i].end) {
				segments[i].commits++
				segments[i].added += c.LinesAdded()
				segments[i].deleted += c.LinesDeleted()
				break
			}
		}
	}

	b.WriteString("| Week | Commits | Added | Deleted | Net |\n|---|---:|---:|---:|---:|\n")
	for _, s := range segments {
		fmt.Fprintf(b, "| %s-%s | %d | +%s | -%s | %s |\n",
			s.start.Format("01/02"), s.end.AddDate(0, 0, -1).Format("01/02"),
			s.commits, comma(s.added), comma(s.deleted), signed(s.added-s.deleted))
	}
	b.WriteString("\n")
}

// Size bands for the commit size distribution.
const (
	sizeSmallCeiling  = 50
	sizeMediumCeiling = 200
)

func (g *Generator) writeSizeDistribution(b *strings.Builder, m *windowMetrics) {
	b.WriteString("## 📏 Commit Size Distribution\n\n")
	total := len(m.result.Commits)
	if total == 0 {
		b.WriteString("No commits.\n\n")
		return
	}

	var small, medium, large int
	for _, c := range m.result.Commits {
		switch lines := c.LinesAdded() + c.LinesDeleted(); {
		case lines < sizeSmallCeiling:
			small++
		case lines <= sizeMediumCeiling:
			medium++
		default:
			large++
		}
	}

	pct := func(n int) float64 { return float64(n) / float64(total) * 100 }
	b.WriteString("| Size | Commits | Share |\n|---|---:|---:|\n")
	fmt.Fprintf(b, "| Small (<%d lines) | %d | %.1f%% |\n", sizeSmallCeiling, small, pct(small))
	fmt.Fprintf(b, "| Medium (%d-%d lines) | %d | %.1f%% |\n", sizeSmallCeiling, sizeMediumCeiling, medium, pct(medium))
	fmt.Fprintf(b, "| Large (>%d lines) | %d | %.1f%% |\n\n", sizeMediumCeiling, large, pct(large))
}

// MonthLabel renders the "YYYY-MM" identifier used in monthly report
// file names.
func MonthLabel(date time.Time) string { return date.Format("2006-01") }
