package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/sirupsen/logrus"

	"github.com/devpulse/devpulse/internal/pulseerr"
)

// DayStats is one day's activity as recovered from its daily report.
type DayStats struct {
	Date       string
	Commits    int
	Developers int
	Added      int
	Deleted    int
	Hours      []int
	Authors    []AuthorDay
	Repos      map[string]int
}

// AuthorDay is one developer's row from a daily report table.
type AuthorDay struct {
	Name    string
	Commits int
	Added   int
	Deleted int
}

// Net returns added minus deleted lines.
func (d DayStats) Net() int { return d.Added - d.Deleted }

var (
	overviewRowPattern = regexp.MustCompile(`^\| (Commits|Active developers|Lines added|Lines deleted) \| ([+\-]?[\d,]+) \|$`)
	detailLinePattern  = regexp.MustCompile(`^- \[[^\]]*\] (\d{2}):\d{2} \|`)
	authorRowPattern   = regexp.MustCompile(`^\| \d+ \| ([^|]+) \| (\d+) \| \+([\d,]+) \| -([\d,]+) \|`)
	repoRowPattern     = regexp.MustCompile(`^\| ([^|]+) \| [^|]+ \| (\d+) \| \d+ \| \+[\d,]+ \|`)
)

// ParseDailyReport recovers DayStats from a daily report's Markdown.
// Totals come from the overview table, per-developer and per-repository
// rows from their section tables, commit hours from the detail lines.
func ParseDailyReport(date, md string) DayStats {
	stats := DayStats{Date: date, Repos: make(map[string]int)}
	section := ""
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "## ") {
			section = line
			continue
		}
		if m := overviewRowPattern.FindStringSubmatch(line); m != nil {
			n := parseTableNumber(m[2])
			switch m[1] {
			case "Commits":
				stats.Commits = n
			case "Active developers":
				stats.Developers = n
			case "Lines added":
				stats.Added = n
			case "Lines deleted":
				stats.Deleted = n
			}
			continue
		}
		if strings.Contains(section, "Developer Activity") {
			if m := authorRowPattern.FindStringSubmatch(line); m != nil {
				stats.Authors = append(stats.Authors, AuthorDay{
					Name:    strings.TrimSpace(m[1]),
					Commits: parseTableNumber(m[2]),
					Added:   parseTableNumber(m[3]),
					Deleted: parseTableNumber(m[4]),
				})
				continue
			}
		}
		if strings.Contains(section, "Repository Activity") {
			if m := repoRowPattern.FindStringSubmatch(line); m != nil {
				stats.Repos[strings.TrimSpace(m[1])] += parseTableNumber(m[2])
				continue
			}
		}
		if m := detailLinePattern.FindStringSubmatch(line); m != nil {
			if hour, err := strconv.Atoi(m[1]); err == nil && hour < 24 {
				stats.Hours = append(stats.Hours, hour)
			}
		}
	}
	return stats
}

func parseTableNumber(s string) int {
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, ",", "")
	n, _ := strconv.Atoi(s)
	if n < 0 {
		n = -n
	}
	return n
}

// loadDayStats reads every daily report under reportsDir/daily into
// date-sorted DayStats.
func loadDayStats(reportsDir string) ([]DayStats, error) {
	dir := filepath.Join(reportsDir, "daily")
	labels := listReports(dir, dailyNamePattern)
	stats := make([]DayStats, 0, len(labels))
	for _, label := range labels {
		data, err := os.ReadFile(filepath.Join(dir, label+".md"))
		if err != nil {
			logrus.WithError(err).Warnf("skipping daily report %s", label)
			continue
		}
		stats = append(stats, ParseDailyReport(label, string(data)))
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date < stats[j].Date })
	return stats, nil
}

// Day-level score heuristic for the dashboard trend. The full scoring
// model needs churn and rework context that single-day data lacks, so
// the dashboard approximates.
func dayScore(d DayStats) int {
	if d.Commits == 0 {
		return 70
	}
	score := 80
	if d.Commits > 20 {
		score -= 5
	}
	total := d.Added + d.Deleted
	if total > 0 {
		delShare := float64(d.Deleted) / float64(total)
		if delShare > 0.5 {
			score -= 15
		} else if delShare > 0.3 {
			score -= 10
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Dashboard presets: window length in days mapped to the output file.
var dashboardPresets = []struct {
	days int
	file string
}{
	{7, "index.html"},
	{14, "index-14d.html"},
	{30, "index-30d.html"},
	{60, "index-60d.html"},
	{90, "index-90d.html"},
}

const dashboardAllFile = "index-all.html"

// BuildDashboard renders every preset dashboard page from the daily
// reports on disk. A preset longer than the recorded history redirects
// to the all-time page instead of rendering a mostly empty chart, and
// the range selector only lists the presets that rendered.
func BuildDashboard(reportsDir, dashboardDir, project string, now time.Time) error {
	return buildDashboard(reportsDir, dashboardDir, project, now, 0)
}

// BuildDashboardPreset renders one preset window. days must be one of
// the preset lengths. When the preset redirects, the all-time target is
// rendered too so the redirect resolves.
func BuildDashboardPreset(reportsDir, dashboardDir, project string, now time.Time, days int) error {
	known := false
	for _, preset := range dashboardPresets {
		if preset.days == days {
			known = true
		}
	}
	if !known {
		return pulseerr.Wrap(pulseerr.ErrConfig, "no %d-day dashboard preset", days)
	}
	return buildDashboard(reportsDir, dashboardDir, project, now, days)
}

func buildDashboard(reportsDir, dashboardDir, project string, now time.Time, only int) error {
	all, err := loadDayStats(reportsDir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dashboardDir, 0o755); err != nil {
		return pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "create dashboard dir")
	}

	historyDays := 0
	if len(all) > 0 {
		if start, err := time.Parse("2006-01-02", all[0].Date); err == nil {
			historyDays = int(now.Sub(start).Hours()/24) + 1
		}
	}

	selector := selectorHTML(historyDays)
	footer := footerHTML(reportsDir, dashboardDir)

	needAll := only == 0
	for _, preset := range dashboardPresets {
		if only != 0 && preset.days != only {
			continue
		}
		path := filepath.Join(dashboardDir, preset.file)
		if preset.days > historyDays {
			if err := writeRedirect(path, dashboardAllFile, preset.days); err != nil {
				return err
			}
			needAll = true
			continue
		}
		window := windowStats(all, now, preset.days)
		label := fmt.Sprintf("Last %d days", preset.days)
		if err := renderDashboardPage(path, project, label, selector, footer, window); err != nil {
			return err
		}
	}
	if !needAll {
		return nil
	}
	return renderDashboardPage(filepath.Join(dashboardDir, dashboardAllFile), project, "All time", selector, footer, all)
}

// selectorHTML lists only the ranges that actually render: presets
// within the recorded history, plus the all-time page.
func selectorHTML(historyDays int) string {
	var links []string
	for _, preset := range dashboardPresets {
		if preset.days > historyDays {
			continue
		}
		links = append(links, fmt.Sprintf(`<a href="%s">%dd</a>`, preset.file, preset.days))
	}
	links = append(links, fmt.Sprintf(`<a href="%s">all</a>`, dashboardAllFile))
	return strings.Join(links, " | ")
}

// footerHTML links the latest daily, weekly, and monthly report present
// on disk, relative to the dashboard directory.
func footerHTML(reportsDir, dashboardDir string) string {
	rel, err := filepath.Rel(dashboardDir, reportsDir)
	if err != nil {
		rel = reportsDir
	}

	var links []string
	for _, kind := range []struct {
		name    string
		sub     string
		pattern *regexp.Regexp
	}{
		{"daily", "daily", dailyNamePattern},
		{"weekly", "weekly", weeklyNamePattern},
		{"monthly", "monthly", monthlyNamePattern},
	} {
		labels := listReports(filepath.Join(reportsDir, kind.sub), kind.pattern)
		if len(labels) == 0 {
			continue
		}
		latest := labels[len(labels)-1]
		href := filepath.ToSlash(filepath.Join(rel, kind.sub, latest+".html"))
		links = append(links, fmt.Sprintf(`<a href="%s">Latest %s report (%s)</a>`, href, kind.name, latest))
	}
	if len(links) == 0 {
		return ""
	}
	return fmt.Sprintf(`<div style="font-family:sans-serif;max-width:1200px;margin:0 auto;padding:16px;color:#57606a">
%s
</div>
`, strings.Join(links, " | "))
}

// windowStats keeps the days within the preset window, padding missing
// days with zero-activity entries so gaps show as idle.
func windowStats(all []DayStats, now time.Time, days int) []DayStats {
	byDate := make(map[string]DayStats, len(all))
	for _, d := range all {
		byDate[d.Date] = d
	}
	out := make([]DayStats, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		if d, ok := byDate[date]; ok {
			out = append(out, d)
		} else {
			out = append(out, DayStats{Date: date})
		}
	}
	return out
}

func writeRedirect(path, target string, days int) error {
	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="0; url=%s">
<title>Redirecting</title>
</head>
<body>
<p>Not enough history for the %d-day view yet. <a href="%s">Open the all-time dashboard</a>.</p>
</body>
</html>
`, target, days, target)
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "write redirect")
	}
	return nil
}

func renderDashboardPage(path, project, rangeLabel, selector, footer string, stats []DayStats) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s Dashboard - %s", project, rangeLabel)

	dates := make([]string, len(stats))
	for i, d := range stats {
		dates[i] = d.Date
	}
	authors := authorTotals(stats)

	page.AddCharts(
		healthChart(dates, stats),
		commitsChart(dates, stats),
		linesChart(dates, stats),
		topAuthorsByCommitsChart(authors),
		topAuthorsByNetChart(authors),
		reposChart(stats),
		hoursChart(stats),
	)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return pulseerr.WrapErr(pulseerr.ErrData, err, "render dashboard")
	}
	html := injectHeader(buf.String(), project, rangeLabel, selector, stats)
	if footer != "" {
		html = strings.Replace(html, "</body>", footer+"</body>", 1)
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "write dashboard")
	}
	return nil
}

// injectHeader places the headline counters and range selector at the
// top of the rendered page body.
func injectHeader(html, project, rangeLabel, selector string, stats []DayStats) string {
	var commits, net, scoreSum int
	names := make(map[string]struct{})
	maxDevs := 0
	for _, d := range stats {
		commits += d.Commits
		net += d.Net()
		scoreSum += dayScore(d)
		for _, a := range d.Authors {
			names[a.Name] = struct{}{}
		}
		if d.Developers > maxDevs {
			maxDevs = d.Developers
		}
	}
	// Older reports without developer tables still yield a lower bound.
	activeAuthors := len(names)
	if activeAuthors == 0 {
		activeAuthors = maxDevs
	}
	avgScore := 0
	if len(stats) > 0 {
		avgScore = scoreSum / len(stats)
	}

	header := fmt.Sprintf(`<div style="font-family:sans-serif;max-width:1200px;margin:0 auto;padding:16px">
<h1>%s Dashboard <small>(%s)</small></h1>
<p>%s</p>
<div style="display:flex;gap:24px;flex-wrap:wrap">
<div><b>%d</b> commits</div>
<div><b>%d</b> active authors</div>
<div><b>%+d</b> net lines</div>
<div><b>%d</b> avg health</div>
</div>
</div>
`, project, rangeLabel, selector, commits, activeAuthors, net, avgScore)

	return strings.Replace(html, "<body>", "<body>\n"+header, 1)
}

type authorTotal struct {
	name    string
	commits int
	added   int
	deleted int
}

func (a authorTotal) net() int { return a.added - a.deleted }

// authorTotals sums the per-day developer rows across the window.
func authorTotals(stats []DayStats) []authorTotal {
	byName := make(map[string]*authorTotal)
	for _, d := range stats {
		for _, row := range d.Authors {
			t := byName[row.Name]
			if t == nil {
				t = &authorTotal{name: row.Name}
				byName[row.Name] = t
			}
			t.commits += row.Commits
			t.added += row.Added
			t.deleted += row.Deleted
		}
	}
	out := make([]authorTotal, 0, len(byName))
	for _, t := range byName {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func baseOptions(title, subtitle string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: "1100px", Height: "380px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	}
}

func healthChart(dates []string, stats []DayStats) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(baseOptions("Health Trend", "day-level approximation")...)
	data := make([]opts.LineData, len(stats))
	for i, d := range stats {
		data[i] = opts.LineData{Value: dayScore(d)}
	}
	line.SetXAxis(dates)
	line.AddSeries("Health", data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
		charts.WithMarkLineNameYAxisItemOpts(
			opts.MarkLineNameYAxisItem{Name: "excellent", YAxis: 80},
			opts.MarkLineNameYAxisItem{Name: "good", YAxis: 60},
			opts.MarkLineNameYAxisItem{Name: "warning", YAxis: 40},
		),
	)
	return line
}

func commitsChart(dates []string, stats []DayStats) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(baseOptions("Commits per Day", "")...)
	data := make([]opts.BarData, len(stats))
	for i, d := range stats {
		data[i] = opts.BarData{Value: d.Commits}
	}
	bar.SetXAxis(dates).AddSeries("Commits", data)
	return bar
}

func linesChart(dates []string, stats []DayStats) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(baseOptions("Lines Changed", "added vs deleted")...)
	added := make([]opts.LineData, len(stats))
	deleted := make([]opts.LineData, len(stats))
	for i, d := range stats {
		added[i] = opts.LineData{Value: d.Added}
		deleted[i] = opts.LineData{Value: d.Deleted}
	}
	line.SetXAxis(dates)
	line.AddSeries("Added", added,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#2da44e"}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}),
	)
	line.AddSeries("Deleted", deleted,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#cf222e"}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}),
	)
	return line
}

// topAuthorBars renders a horizontal top-10 bar. Rows are appended in
// reverse so the largest value lands at the top of the category axis.
func topAuthorBars(title string, authors []authorTotal, value func(authorTotal) int, color string) *charts.Bar {
	sorted := make([]authorTotal, len(authors))
	copy(sorted, authors)
	sort.SliceStable(sorted, func(i, j int) bool {
		if value(sorted[i]) == value(sorted[j]) {
			return sorted[i].name < sorted[j].name
		}
		return value(sorted[i]) > value(sorted[j])
	})
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}

	names := make([]string, 0, len(sorted))
	data := make([]opts.BarData, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		names = append(names, sorted[i].name)
		data = append(data, opts.BarData{Value: value(sorted[i])})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(baseOptions(title, "top 10")...)
	bar.SetXAxis(names).AddSeries(title, data, charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
	bar.XYReversal()
	return bar
}

func topAuthorsByCommitsChart(authors []authorTotal) *charts.Bar {
	return topAuthorBars("Commits by Author", authors, func(a authorTotal) int { return a.commits }, "#0969da")
}

func topAuthorsByNetChart(authors []authorTotal) *charts.Bar {
	return topAuthorBars("Net Lines by Author", authors, func(a authorTotal) int { return a.net() }, "#8250df")
}

// reposChart shares commit volume across repositories.
func reposChart(stats []DayStats) *charts.Pie {
	totals := make(map[string]int)
	for _, d := range stats {
		for name, commits := range d.Repos {
			totals[name] += commits
		}
	}
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if totals[names[i]] == totals[names[j]] {
			return names[i] < names[j]
		}
		return totals[names[i]] > totals[names[j]]
	})

	data := make([]opts.PieData, 0, len(names))
	for _, name := range names {
		data = append(data, opts.PieData{Name: name, Value: totals[name]})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(append(baseOptions("Repositories", "commit share"),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}))...)
	pie.AddSeries("Repositories", data)
	return pie
}

// hoursChart plots the commit-hour histogram, with the late-night
// hours as a separately colored series.
func hoursChart(stats []DayStats) *charts.Bar {
	counts := make([]int, 24)
	for _, d := range stats {
		for _, h := range d.Hours {
			counts[h]++
		}
	}

	labels := make([]string, 24)
	normal := make([]opts.BarData, 24)
	late := make([]opts.BarData, 24)
	for h := 0; h < 24; h++ {
		labels[h] = fmt.Sprintf("%02d", h)
		if h >= 22 || h < 6 {
			normal[h] = opts.BarData{Value: 0}
			late[h] = opts.BarData{Value: counts[h]}
		} else {
			normal[h] = opts.BarData{Value: counts[h]}
			late[h] = opts.BarData{Value: 0}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(baseOptions("Commit Hours", "late night highlighted")...)
	bar.SetXAxis(labels).
		AddSeries("Working hours", normal, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#0969da"}), charts.WithBarChartOpts(opts.BarChart{Stack: "hours"})).
		AddSeries("Late night", late, charts.WithItemStyleOpts(opts.ItemStyle{Color: "#cf222e"}), charts.WithBarChartOpts(opts.BarChart{Stack: "hours"}))
	return bar
}
