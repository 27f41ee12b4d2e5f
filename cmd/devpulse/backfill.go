package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devpulse/devpulse/internal/backfill"
	"github.com/devpulse/devpulse/internal/providers"
	"github.com/devpulse/devpulse/internal/pulseerr"
	"github.com/devpulse/devpulse/internal/render"
)

var (
	backfillFrom       string
	backfillTo         string
	backfillDryRun     bool
	backfillYes        bool
	backfillForce      bool
	backfillDailyOnly  bool
	backfillWeeklyOnly bool
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate historical daily and weekly reports",
	Long: `Generate the missing daily and weekly reports for a date range.
Existing reports are skipped unless --force is set. Weekly reports are
only generated for fully covered ISO weeks.`,
	RunE: runBackfill,
}

func init() {
	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "start date, YYYY-MM-DD (default: earliest daily report, else earliest commit)")
	backfillCmd.Flags().StringVar(&backfillTo, "to", "", "end date, YYYY-MM-DD (default: yesterday)")
	backfillCmd.Flags().BoolVar(&backfillDryRun, "dry-run", false, "show the plan without generating anything")
	backfillCmd.Flags().BoolVarP(&backfillYes, "yes", "y", false, "skip the confirmation prompt")
	backfillCmd.Flags().BoolVar(&backfillForce, "force", false, "regenerate reports that already exist")
	backfillCmd.Flags().BoolVar(&backfillDailyOnly, "daily-only", false, "generate daily reports only")
	backfillCmd.Flags().BoolVar(&backfillWeeklyOnly, "weekly-only", false, "generate weekly reports only")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	provider, gen, cleanup, err := newProviderGenerator()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	opts, err := backfillOptions(ctx, provider)
	if err != nil {
		return err
	}

	items, err := backfill.Plan(cfg.Output.ReportsDir, opts)
	if err != nil {
		return err
	}

	fmt.Print(backfill.Preview(items))
	if backfillDryRun || len(items) == 0 {
		return nil
	}
	if !backfillYes && !confirm() {
		fmt.Println("Aborted.")
		return nil
	}

	summary := backfill.Run(ctx, items, func(ctx context.Context, item backfill.Item) error {
		var md string
		var genErr error
		switch item.Kind {
		case backfill.KindDaily:
			md, genErr = gen.Daily(ctx, item.Date)
		case backfill.KindWeekly:
			md, genErr = gen.Weekly(ctx, item.Date)
		default:
			return pulseerr.Wrap(pulseerr.ErrData, "unknown report kind %q", item.Kind)
		}
		if genErr != nil {
			return genErr
		}
		_, writeErr := writeReport(item.Kind, item.Label, md)
		return writeErr
	})

	logrus.Infof("backfill done: %d generated, %d failed, %d skipped",
		summary.Generated, summary.Failed, summary.Skipped)

	return render.BuildIndex(cfg.Output.ReportsDir, cfg.Project.Name, time.Now())
}

// commitHistorian is implemented by providers that can report the
// oldest commit across the configured repositories.
type commitHistorian interface {
	EarliestCommit(ctx context.Context) (time.Time, error)
}

var _ commitHistorian = (*providers.LocalCloneProvider)(nil)

func backfillOptions(ctx context.Context, provider providers.Provider) (backfill.Options, error) {
	opts := backfill.Options{
		Force:      backfillForce,
		DailyOnly:  backfillDailyOnly,
		WeeklyOnly: backfillWeeklyOnly,
	}

	if backfillFrom != "" {
		from, err := parseDateFlag(backfillFrom)
		if err != nil {
			return opts, err
		}
		opts.From = from
	} else if earliest, ok := backfill.EarliestDailyReport(cfg.Output.ReportsDir); ok {
		opts.From = earliest
	} else if historian, ok := provider.(commitHistorian); ok {
		earliest, err := historian.EarliestCommit(ctx)
		if err != nil {
			return opts, err
		}
		opts.From = earliest
	} else {
		return opts, pulseerr.Wrap(pulseerr.ErrConfig, "no existing reports or commit history to infer a start date, pass --from")
	}

	if backfillTo != "" {
		to, err := parseDateFlag(backfillTo)
		if err != nil {
			return opts, err
		}
		opts.To = to
	} else {
		opts.To = time.Now().AddDate(0, 0, -1)
	}
	return opts, nil
}

func confirm() bool {
	fmt.Print("Continue? [y/N] ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
