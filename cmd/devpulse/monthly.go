package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/pulseerr"
	"github.com/devpulse/devpulse/internal/report"
)

var monthlyMonth string

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Generate the monthly report",
	Long:  `Fetch one calendar month of commits and write the monthly Markdown and HTML report.`,
	RunE:  runMonthly,
}

func init() {
	monthlyCmd.Flags().StringVar(&monthlyMonth, "month", "", "month, YYYY-MM (default: current month)")
}

func runMonthly(cmd *cobra.Command, args []string) error {
	date, err := parseMonthFlag(monthlyMonth)
	if err != nil {
		return err
	}

	gen, cleanup, err := newGenerator()
	if err != nil {
		return err
	}
	defer cleanup()

	md, err := gen.Monthly(context.Background(), date)
	if err != nil {
		return finishReportErr(err)
	}
	_, err = writeReport("monthly", report.MonthLabel(date), md)
	return err
}

func parseMonthFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.ParseInLocation("2006-01", s, time.Local)
	if err != nil {
		return time.Time{}, pulseerr.Wrap(pulseerr.ErrConfig, "invalid month %q, want YYYY-MM", s)
	}
	return t, nil
}
