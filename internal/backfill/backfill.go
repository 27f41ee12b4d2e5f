// Package backfill plans and executes historical report generation.
package backfill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devpulse/devpulse/internal/models"
	"github.com/devpulse/devpulse/internal/pulseerr"
)

// Report kinds produced by a backfill run.
const (
	KindDaily  = "daily"
	KindWeekly = "weekly"
)

// Item is one report the plan would generate.
type Item struct {
	Kind   string
	Label  string
	Date   time.Time
	Path   string
	Exists bool
}

// Options bounds a backfill plan. From and To are inclusive dates.
// DailyOnly and WeeklyOnly restrict the plan to one report kind.
type Options struct {
	From       time.Time
	To         time.Time
	Force      bool
	DailyOnly  bool
	WeeklyOnly bool
}

// Plan lists the daily and weekly reports for the date range. Reports
// already on disk are marked Exists and skipped later unless Force is
// set.
func Plan(reportsDir string, opts Options) ([]Item, error) {
	if opts.From.IsZero() || opts.To.IsZero() {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "backfill needs both start and end dates")
	}
	if opts.DailyOnly && opts.WeeklyOnly {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "--daily-only and --weekly-only are mutually exclusive")
	}
	from := truncateDay(opts.From)
	to := truncateDay(opts.To)
	if to.Before(from) {
		return nil, pulseerr.Wrap(pulseerr.ErrConfig, "backfill end %s precedes start %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	var items []Item
	for d := from; !opts.WeeklyOnly && !d.After(to); d = d.AddDate(0, 0, 1) {
		label := d.Format("2006-01-02")
		path := filepath.Join(reportsDir, KindDaily, label+".md")
		items = append(items, Item{
			Kind:   KindDaily,
			Label:  label,
			Date:   d,
			Path:   path,
			Exists: fileExists(path),
		})
	}

	// One weekly report per ISO week touched by the range, generated
	// for completed weeks only.
	seen := make(map[string]bool)
	for d := from; !opts.DailyOnly && !d.After(to); d = d.AddDate(0, 0, 1) {
		week := models.ISOWeekWindow(d)
		if week.End.After(to.AddDate(0, 0, 1)) {
			continue
		}
		year, wk := d.ISOWeek()
		label := fmt.Sprintf("%d-W%02d", year, wk)
		if seen[label] {
			continue
		}
		seen[label] = true
		path := filepath.Join(reportsDir, KindWeekly, label+".md")
		items = append(items, Item{
			Kind:   KindWeekly,
			Label:  label,
			Date:   d,
			Path:   path,
			Exists: fileExists(path),
		})
	}

	if !opts.Force {
		pending := items[:0]
		for _, item := range items {
			if !item.Exists {
				pending = append(pending, item)
			}
		}
		items = pending
	}
	return items, nil
}

// Preview renders the first few planned items for the dry-run prompt.
func Preview(items []Item) string {
	if len(items) == 0 {
		return "Nothing to generate.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Would generate %d reports:\n", len(items))
	for i, item := range items {
		if i == 5 {
			fmt.Fprintf(&b, "  ... and %d more\n", len(items)-5)
			break
		}
		fmt.Fprintf(&b, "  %s %s\n", item.Kind, item.Label)
	}
	return b.String()
}

// WriteFunc generates and persists one report.
type WriteFunc func(ctx context.Context, item Item) error

// Summary tallies a backfill run.
type Summary struct {
	Generated int
	Skipped   int
	Failed    int
}

// Run executes the plan. Failures are logged and counted, never fatal,
// so one bad day cannot abort a large backfill.
func Run(ctx context.Context, items []Item, write WriteFunc) Summary {
	var s Summary
	for _, item := range items {
		if ctx.Err() != nil {
			s.Skipped += len(items) - s.Generated - s.Failed - s.Skipped
			break
		}
		if err := write(ctx, item); err != nil {
			logrus.WithError(err).Warnf("backfill %s %s failed", item.Kind, item.Label)
			s.Failed++
			continue
		}
		s.Generated++
	}
	return s
}

var dailyReportName = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.md$`)

// EarliestDailyReport returns the date of the oldest daily report on
// disk, used as the default backfill start.
func EarliestDailyReport(reportsDir string) (time.Time, bool) {
	entries, err := os.ReadDir(filepath.Join(reportsDir, KindDaily))
	if err != nil {
		return time.Time{}, false
	}
	earliest := ""
	for _, e := range entries {
		if m := dailyReportName.FindStringSubmatch(e.Name()); m != nil {
			if earliest == "" || m[1] < earliest {
				earliest = m[1]
			}
		}
	}
	if earliest == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", earliest)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
