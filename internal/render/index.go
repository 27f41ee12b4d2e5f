package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/devpulse/devpulse/internal/pulseerr"
)

// Report file name patterns per kind.
var (
	dailyNamePattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.md$`)
	weeklyNamePattern  = regexp.MustCompile(`^(\d{4}-W\d{2})\.md$`)
	monthlyNamePattern = regexp.MustCompile(`^(\d{4}-\d{2})\.md$`)
)

// listReports returns the sorted labels of reports under dir matching
// the pattern.
func listReports(dir string, pattern *regexp.Regexp) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var labels []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if m := pattern.FindStringSubmatch(e.Name()); m != nil {
			labels = append(labels, m[1])
		}
	}
	sort.Strings(labels)
	return labels
}

// BuildIndex writes reportsDir/index.html linking the current month's
// daily reports, the current ISO year's weekly reports, and the
// previous month's report. The output depends only on the directory
// contents and now, so unchanged inputs reproduce the file byte for
// byte.
func BuildIndex(reportsDir, project string, now time.Time) error {
	dailies := listReports(filepath.Join(reportsDir, "daily"), dailyNamePattern)
	weeklies := listReports(filepath.Join(reportsDir, "weekly"), weeklyNamePattern)
	monthlies := listReports(filepath.Join(reportsDir, "monthly"), monthlyNamePattern)

	var b strings.Builder
	fmt.Fprintf(&b, "# 📚 %s Reports\n\n", project)

	b.WriteString("## 📊 At a Glance\n\n")
	b.WriteString("| Kind | Reports | Latest |\n|---|---:|---|\n")
	writeStatRow(&b, "Daily", dailies)
	writeStatRow(&b, "Weekly", weeklies)
	writeStatRow(&b, "Monthly", monthlies)
	b.WriteString("\n")

	monthPrefix := now.Format("2006-01")
	b.WriteString(fmt.Sprintf("## 📅 Daily Reports (%s)\n\n", monthPrefix))
	wrote := false
	for i := len(dailies) - 1; i >= 0; i-- {
		if strings.HasPrefix(dailies[i], monthPrefix) {
			fmt.Fprintf(&b, "- [%s](daily/%s.html)\n", dailies[i], dailies[i])
			wrote = true
		}
	}
	if !wrote {
		b.WriteString("No daily reports this month.\n")
	}
	b.WriteString("\n")

	isoYear, _ := now.ISOWeek()
	yearPrefix := fmt.Sprintf("%d-W", isoYear)
	fmt.Fprintf(&b, "## 📈 Weekly Reports (%d)\n\n", isoYear)
	wrote = false
	for i := len(weeklies) - 1; i >= 0; i-- {
		if strings.HasPrefix(weeklies[i], yearPrefix) {
			fmt.Fprintf(&b, "- [%s](weekly/%s.html)\n", weeklies[i], weeklies[i])
			wrote = true
		}
	}
	if !wrote {
		b.WriteString("No weekly reports this year.\n")
	}
	b.WriteString("\n")

	prevMonth := now.AddDate(0, -1, -now.Day()+1).Format("2006-01")
	b.WriteString("## 📆 Monthly Report\n\n")
	wrote = false
	for i := len(monthlies) - 1; i >= 0; i-- {
		if monthlies[i] == prevMonth {
			fmt.Fprintf(&b, "- [%s](monthly/%s.html)\n", monthlies[i], monthlies[i])
			wrote = true
		}
	}
	if !wrote {
		fmt.Fprintf(&b, "No report for %s yet.\n", prevMonth)
	}
	b.WriteString("\n")

	page, err := ToHTML(b.String(), project+" Reports")
	if err != nil {
		return err
	}
	path := filepath.Join(reportsDir, "index.html")
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "write index")
	}
	return nil
}

func writeStatRow(b *strings.Builder, kind string, labels []string) {
	latest := "-"
	if len(labels) > 0 {
		latest = labels[len(labels)-1]
	}
	fmt.Fprintf(b, "| %s | %d | %s |\n", kind, len(labels), latest)
}
