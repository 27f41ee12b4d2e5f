package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/pulseerr"
)

var dailyDate string

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Generate the daily report",
	Long:  `Fetch one day of commits across all repositories and write the daily Markdown and HTML report.`,
	RunE:  runDaily,
}

func init() {
	dailyCmd.Flags().StringVar(&dailyDate, "date", "", "report date, YYYY-MM-DD (default: today)")
}

func runDaily(cmd *cobra.Command, args []string) error {
	date, err := parseDateFlag(dailyDate)
	if err != nil {
		return err
	}

	gen, cleanup, err := newGenerator()
	if err != nil {
		return err
	}
	defer cleanup()

	md, err := gen.Daily(context.Background(), date)
	if err != nil {
		return finishReportErr(err)
	}
	_, err = writeReport("daily", date.Format("2006-01-02"), md)
	return err
}

func parseDateFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, pulseerr.Wrap(pulseerr.ErrConfig, "invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
