package main

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/notify"
	"github.com/devpulse/devpulse/internal/pulseerr"
)

var (
	notifyReportFile string
	notifyAt         []string
)

var notifyCmd = &cobra.Command{
	Use:   "notify [daily|weekly|monthly]",
	Short: "Push a report summary to the configured webhook",
	Long: `Extract the key metrics from a generated report and post a digest to
the chat webhook. Without --report-file the latest report of the given
kind is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNotify,
}

func init() {
	notifyCmd.Flags().StringVar(&notifyReportFile, "report-file", "", "path to the Markdown report to summarize (default: latest of the given kind)")
	notifyCmd.Flags().StringSliceVar(&notifyAt, "at", nil, "mobile numbers to @-mention")
}

// reportNamePatterns matches the file labels per report kind.
var reportNamePatterns = map[string]*regexp.Regexp{
	"daily":   regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`),
	"weekly":  regexp.MustCompile(`^\d{4}-W\d{2}\.md$`),
	"monthly": regexp.MustCompile(`^\d{4}-\d{2}\.md$`),
}

// latestReportPath resolves the newest report of a kind under
// reportsDir, by label order.
func latestReportPath(reportsDir, kind string) (string, error) {
	pattern, ok := reportNamePatterns[kind]
	if !ok {
		return "", pulseerr.Wrap(pulseerr.ErrConfig, "unknown report kind %q (want daily, weekly or monthly)", kind)
	}
	dir := filepath.Join(reportsDir, kind)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "read reports dir")
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && pattern.MatchString(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", pulseerr.Wrap(pulseerr.ErrData, "no %s reports under %s", kind, dir)
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

func runNotify(cmd *cobra.Command, args []string) error {
	path := notifyReportFile
	if path == "" {
		if len(args) == 0 {
			return pulseerr.Wrap(pulseerr.ErrConfig, "pass a report kind (daily, weekly or monthly) or --report-file")
		}
		var err error
		if path, err = latestReportPath(cfg.Output.ReportsDir, args[0]); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return pulseerr.WrapErr(pulseerr.ErrFilesystem, err, "read report")
	}
	md := string(data)

	title := cfg.Project.Name + " report"
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(line, "# ") {
			title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
			break
		}
	}

	notifier, err := notify.NewWebhook(cfg.Notify.WebhookURL)
	if err != nil {
		return err
	}
	body := notify.Summary(title, notify.ExtractKeyMetrics(md))
	return notifier.Send(context.Background(), title, body, notifyAt)
}
