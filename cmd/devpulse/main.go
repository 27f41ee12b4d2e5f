package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/providers"
	"github.com/devpulse/devpulse/internal/pulseerr"
	"github.com/devpulse/devpulse/internal/render"
	"github.com/devpulse/devpulse/internal/report"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "devpulse",
	Short: "DevPulse - commit analytics and team activity reports",
	Long: `DevPulse collects commit history across your repositories and turns
it into daily, weekly, and monthly reports with health scoring,
hotspot detection, and an HTML dashboard.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.InfoLevel)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logrus.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: devpulse.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`DevPulse {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(weeklyCmd)
	rootCmd.AddCommand(monthlyCmd)
	rootCmd.AddCommand(htmlCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(backfillCmd)
}

// newGenerator builds the provider and report generator. The returned
// cleanup releases provider resources (clone directories).
func newGenerator() (*report.Generator, func(), error) {
	_, gen, cleanup, err := newProviderGenerator()
	return gen, cleanup, err
}

// newProviderGenerator additionally exposes the provider for verbs that
// query it directly.
func newProviderGenerator() (providers.Provider, *report.Generator, func(), error) {
	provider, err := providers.New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	gen, err := report.NewGenerator(cfg, provider)
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := provider.Cleanup(); err != nil {
			logrus.WithError(err).Warn("provider cleanup failed")
		}
	}
	return provider, gen, cleanup, nil
}

// writeReport persists one report under kind/, renders its HTML twin,
// and refreshes the index.
func writeReport(kind, label, markdown string) (string, error) {
	dir := filepath.Join(cfg.Output.ReportsDir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "create reports dir")
	}
	path := filepath.Join(dir, label+".md")
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "write report")
	}
	if _, err := render.ConvertFile(path); err != nil {
		return "", err
	}
	if err := render.BuildIndex(cfg.Output.ReportsDir, cfg.Project.Name, time.Now()); err != nil {
		return "", err
	}
	logrus.Infof("wrote %s", path)
	return path, nil
}

// finishReportErr maps errors to exit behavior: configuration and
// filesystem problems fail the command, transient fetch problems are
// logged so scheduled runs keep their other reports.
func finishReportErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pulseerr.ErrConfig) || errors.Is(err, pulseerr.ErrFilesystem) {
		return err
	}
	logrus.WithError(err).Error("report generation failed")
	return nil
}
