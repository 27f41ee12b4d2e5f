package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/pulseerr"
	"github.com/devpulse/devpulse/internal/report"
)

var weeklyWeek string

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Generate the weekly report",
	Long:  `Fetch one ISO week of commits and write the weekly Markdown and HTML report.`,
	RunE:  runWeekly,
}

func init() {
	weeklyCmd.Flags().StringVar(&weeklyWeek, "week", "", "ISO week, YYYY-Www (default: current week)")
}

func runWeekly(cmd *cobra.Command, args []string) error {
	date, err := parseWeekFlag(weeklyWeek)
	if err != nil {
		return err
	}

	gen, cleanup, err := newGenerator()
	if err != nil {
		return err
	}
	defer cleanup()

	md, err := gen.Weekly(context.Background(), date)
	if err != nil {
		return finishReportErr(err)
	}
	_, err = writeReport("weekly", report.ISOWeekLabel(date), md)
	return err
}

// parseWeekFlag resolves a "YYYY-Www" label to the Monday of that ISO
// week.
func parseWeekFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	var year, week int
	if _, err := fmt.Sscanf(s, "%d-W%d", &year, &week); err != nil || week < 1 || week > 53 {
		return time.Time{}, pulseerr.Wrap(pulseerr.ErrConfig, "invalid week %q, want YYYY-Www", s)
	}
	// January 4th always falls in ISO week 1.
	jan4 := time.Date(year, 1, 4, 0, 0, 0, 0, time.Local)
	monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	date := monday.AddDate(0, 0, (week-1)*7)
	if gotYear, gotWeek := date.ISOWeek(); gotYear != year || gotWeek != week {
		return time.Time{}, pulseerr.Wrap(pulseerr.ErrConfig, "week %q does not exist", s)
	}
	return date, nil
}
