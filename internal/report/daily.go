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

// Daily fetches one calendar day of activity and renders the daily
// report. The report is always produced, even for an empty day.
func (g *Generator) Daily(ctx context.Context, date time.Time) (string, error) {
	window := models.DayWindow(date)
	result, err := g.fetch(ctx, window)
	if err != nil {
		return "", err
	}
	m := g.computeMetrics(window, result)
	return g.renderDaily(date, m), nil
}

func (g *Generator) renderDaily(date time.Time, m *windowMetrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# 📊 %s Daily Report %s\n\n", g.cfg.Project.Name, formatDay(date))
	b.WriteString(partialBanner(m.result))

	g.writeDailyOverview(&b, m)
	g.writeDailyDevelopers(&b, m)
	g.writeDailyRepos(&b, m)
	g.writeDailyRisks(&b, m)

	abnormal := m.health.LateNight + m.health.Weekend
	score := analyzers.DailyHealthScore(m.health.LargeCommits, m.health.MessageQuality, abnormal, g.cfg.Thresholds)
	writeHealthSection(&b, score)

	g.writeDailyCommitDetails(&b, m)
	return b.String()
}

func (g *Generator) writeDailyOverview(b *strings.Builder, m *windowMetrics) {
	added, deleted := m.totals()
	files := make(map[string]struct{})
	for _, c := range m.result.Commits {
		for _, f := range c.Files {
			files[c.RepoName+"/"+f.Path] = struct{}{}
		}
	}

	b.WriteString("## 📋 Overview\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	fmt.Fprintf(b, "| Commits | %s |\n", comma(len(m.result.Commits)))
	fmt.Fprintf(b, "| Active developers | %s |\n", comma(len(m.authors)))
	fmt.Fprintf(b, "| Active repositories | %s |\n", comma(len(m.repos)))
	fmt.Fprintf(b, "| Files changed | %s |\n", comma(len(files)))
	fmt.Fprintf(b, "| Lines added | +%s |\n", comma(added))
	fmt.Fprintf(b, "| Lines deleted | -%s |\n", comma(deleted))
	fmt.Fprintf(b, "| Net change | %s |\n\n", signed(added-deleted))
}

func (g *Generator) writeDailyDevelopers(b *strings.Builder, m *windowMetrics) {
	b.WriteString("## 👥 Developer Activity\n\n")
	authors := m.sortedAuthors()
	if len(authors) == 0 {
		b.WriteString("No commits today.\n\n")
		return
	}
	b.WriteString("| # | Developer | Commits | Added | Deleted | Net | Languages | Repositories |\n")
	b.WriteString("|---:|---|---:|---:|---:|---:|---|---|\n")
	for i, a := range authors {
		langs := strings.Join(a.TopLanguages(3), ", ")
		if langs == "" {
			langs = "-"
		}
		fmt.Fprintf(b, "| %d | %s | %d | +%s | -%s | %s | %s | %s |\n",
			i+1, a.Name, a.Commits, comma(a.Added), comma(a.Deleted), signed(a.Net()),
			langs, strings.Join(a.RepoNames(), ", "))
	}
	b.WriteString("\n")
}

func (g *Generator) writeDailyRepos(b *strings.Builder, m *windowMetrics) {
	b.WriteString("## 📦 Repository Activity\n\n")
	repos := m.sortedRepos()
	if len(repos) == 0 {
		b.WriteString("No repository activity.\n\n")
		return
	}
	b.WriteString("| Repository | Type | Commits | Developers | Added | Deleted | Net |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|---:|\n")
	for _, r := range repos {
		fmt.Fprintf(b, "| %s | %s | %d | %d | +%s | -%s | %s |\n",
			r.Name, r.Type, r.Commits, len(r.Authors), comma(r.Added), comma(r.Deleted), signed(r.Net()))
	}
	b.WriteString("\n")
}

func (g *Generator) writeDailyRisks(b *strings.Builder, m *windowMetrics) {
	b.WriteString("## ⚠️ Risk Alerts\n\n")

	type riskRow struct {
		label   string
		commits int
		authors map[string]struct{}
	}
	wh := g.cfg.WorkingHours
	rows := []*riskRow{
		{label: fmt.Sprintf("🌙 Overtime (%s-%s)", wh.OvertimeStart, wh.OvertimeEnd), authors: make(map[string]struct{})},
		{label: fmt.Sprintf("🌃 Late night (%s-%s)", wh.LateNightStart, wh.LateNightEnd), authors: make(map[string]struct{})},
		{label: "📅 Weekend", authors: make(map[string]struct{})},
	}
	for _, c := range m.result.Commits {
		classes := m.classes[c.Hash]
		if classes.Overtime {
			rows[0].commits++
			rows[0].authors[c.Author] = struct{}{}
		}
		if classes.LateNight {
			rows[1].commits++
			rows[1].authors[c.Author] = struct{}{}
		}
		if classes.Weekend {
			rows[2].commits++
			rows[2].authors[c.Author] = struct{}{}
		}
	}

	any := false
	for _, r := range rows {
		if r.commits > 0 {
			any = true
		}
	}
	if any {
		b.WriteString("### Work-time risks\n\n")
		b.WriteString("| Class | Commits | Developers |\n|---|---:|---|\n")
		for _, r := range rows {
			if r.commits == 0 {
				continue
			}
			names := make([]string, 0, len(r.authors))
			for name := range r.authors {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(b, "| %s | %d | %s |\n", r.label, r.commits, strings.Join(names, ", "))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No abnormal-time commits today. 🎉\n\n")
	}

	large := m.largeCommits(g.cfg.Thresholds.LargeCommit)
	if len(large) > 0 {
		b.WriteString("### Large commits\n\n")
		b.WriteString("| Repository | Developer | Lines | Message |\n|---|---|---:|---|\n")
		for i, c := range large {
			if i == 5 {
				break
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
				c.RepoName, c.Author, comma(c.LinesAdded()+c.LinesDeleted()), truncate(c.Message, 40))
		}
		b.WriteString("\n")
	}
}

func (g *Generator) writeDailyCommitDetails(b *strings.Builder, m *windowMetrics) {
	b.WriteString("## 📝 Commit Details\n\n")
	authors := m.sortedAuthors()
	if len(authors) == 0 {
		b.WriteString("No commits.\n")
		return
	}
	byAuthor := make(map[string][]models.Commit)
	for _, c := range m.result.Commits {
		byAuthor[c.Author] = append(byAuthor[c.Author], c)
	}
	for _, a := range authors {
		fmt.Fprintf(b, "### 👤 %s (%d commits)\n\n", a.Name, a.Commits)
		for _, c := range byAuthor[a.Name] {
			fmt.Fprintf(b, "- [%s] %s | +%d/-%d (%s) | %s\n",
				c.RepoName, c.Timestamp.Format("15:04"),
				c.LinesAdded(), c.LinesDeleted(), signed(c.LinesNet()),
				truncate(c.Message, 50))
		}
		b.WriteString("\n")
	}
}
