package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/render"
)

var htmlCmd = &cobra.Command{
	Use:   "html [dir]",
	Short: "Convert Markdown reports to HTML",
	Long:  `Render every Markdown report under the reports directory (or the given directory) to styled HTML and rebuild the index page.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHTML,
}

func runHTML(cmd *cobra.Command, args []string) error {
	dir := cfg.Output.ReportsDir
	if len(args) == 1 {
		dir = args[0]
	}

	count, err := render.ConvertAll(dir)
	if err != nil {
		return err
	}
	logrus.Infof("converted %d reports", count)

	return render.BuildIndex(cfg.Output.ReportsDir, cfg.Project.Name, time.Now())
}
