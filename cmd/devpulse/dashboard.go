package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/render"
)

var dashboardDays int

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Build the HTML dashboard",
	Long: `Build the chart dashboard from the daily reports on disk. One page is
written per time range (7, 14, 30, 60, 90 days and all time); ranges
without enough history redirect to the all-time page. With --days only
that range is regenerated.`,
	RunE: runDashboard,
}

func init() {
	dashboardCmd.Flags().IntVar(&dashboardDays, "days", 0, "regenerate a single preset (7, 14, 30, 60 or 90 days)")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	var err error
	if dashboardDays > 0 {
		err = render.BuildDashboardPreset(cfg.Output.ReportsDir, cfg.Output.DashboardDir, cfg.Project.Name, time.Now(), dashboardDays)
	} else {
		err = render.BuildDashboard(cfg.Output.ReportsDir, cfg.Output.DashboardDir, cfg.Project.Name, time.Now())
	}
	if err != nil {
		return err
	}
	logrus.Infof("dashboard written to %s", cfg.Output.DashboardDir)
	return nil
}
