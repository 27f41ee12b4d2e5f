package backfill

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPlanListsDaysAndCompletedWeeks(t *testing.T) {
	dir := t.TempDir()

	// 2025-03-10 (Monday) through 2025-03-16 (Sunday): one full ISO week.
	items, err := Plan(dir, Options{From: day(2025, 3, 10), To: day(2025, 3, 16)})
	require.NoError(t, err)

	require.Len(t, items, 8)
	assert.Equal(t, KindDaily, items[0].Kind)
	assert.Equal(t, "2025-03-10", items[0].Label)
	last := items[len(items)-1]
	assert.Equal(t, KindWeekly, last.Kind)
	assert.Equal(t, "2025-W11", last.Label)
}

func TestPlanSkipsIncompleteWeek(t *testing.T) {
	dir := t.TempDir()

	// Ends on Saturday, so the ISO week is not complete.
	items, err := Plan(dir, Options{From: day(2025, 3, 10), To: day(2025, 3, 15)})
	require.NoError(t, err)

	require.Len(t, items, 6)
	for _, item := range items {
		assert.Equal(t, KindDaily, item.Kind)
	}
}

func TestPlanSkipsExistingUnlessForced(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "daily"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "daily", "2025-03-10.md"), []byte("# d\n"), 0o644))

	items, err := Plan(dir, Options{From: day(2025, 3, 10), To: day(2025, 3, 11)})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2025-03-11", items[0].Label)

	forced, err := Plan(dir, Options{From: day(2025, 3, 10), To: day(2025, 3, 11), Force: true})
	require.NoError(t, err)
	assert.Len(t, forced, 2)
	assert.True(t, forced[0].Exists)
}

func TestPlanKindFilters(t *testing.T) {
	dir := t.TempDir()
	opts := Options{From: day(2025, 3, 10), To: day(2025, 3, 16)}

	opts.DailyOnly = true
	daily, err := Plan(dir, opts)
	require.NoError(t, err)
	require.Len(t, daily, 7)
	for _, item := range daily {
		assert.Equal(t, KindDaily, item.Kind)
	}

	opts.DailyOnly, opts.WeeklyOnly = false, true
	weekly, err := Plan(dir, opts)
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, KindWeekly, weekly[0].Kind)
	assert.Equal(t, "2025-W11", weekly[0].Label)
}

func TestPlanRejectsBothKindFilters(t *testing.T) {
	_, err := Plan(t.TempDir(), Options{
		From: day(2025, 3, 10), To: day(2025, 3, 16),
		DailyOnly: true, WeeklyOnly: true,
	})
	assert.Error(t, err)
}

func TestPlanRejectsInvertedRange(t *testing.T) {
	_, err := Plan(t.TempDir(), Options{From: day(2025, 3, 11), To: day(2025, 3, 10)})
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	items := make([]Item, 8)
	for i := range items {
		items[i] = Item{Kind: KindDaily, Label: day(2025, 3, 10+i).Format("2006-01-02")}
	}

	out := Preview(items)

	assert.Contains(t, out, "Would generate 8 reports")
	assert.Contains(t, out, "daily 2025-03-10")
	assert.Contains(t, out, "daily 2025-03-14")
	assert.NotContains(t, out, "2025-03-15")
	assert.Contains(t, out, "and 3 more")

	assert.Equal(t, "Nothing to generate.\n", Preview(nil))
}

func TestRunCountsOutcomes(t *testing.T) {
	items := []Item{
		{Kind: KindDaily, Label: "2025-03-10"},
		{Kind: KindDaily, Label: "2025-03-11"},
		{Kind: KindDaily, Label: "2025-03-12"},
	}

	s := Run(context.Background(), items, func(ctx context.Context, item Item) error {
		if item.Label == "2025-03-11" {
			return errors.New("fetch failed")
		}
		return nil
	})

	assert.Equal(t, 2, s.Generated)
	assert.Equal(t, 1, s.Failed)
	assert.Zero(t, s.Skipped)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := []Item{
		{Label: "2025-03-10"},
		{Label: "2025-03-11"},
		{Label: "2025-03-12"},
	}

	calls := 0
	s := Run(ctx, items, func(ctx context.Context, item Item) error {
		calls++
		cancel()
		return nil
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Generated)
	assert.Equal(t, 2, s.Skipped)
}

func TestEarliestDailyReport(t *testing.T) {
	dir := t.TempDir()
	_, ok := EarliestDailyReport(dir)
	assert.False(t, ok)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "daily"), 0o755))
	for _, name := range []string{"2025-03-12.md", "2025-03-08.md", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "daily", name), []byte("x"), 0o644))
	}

	got, ok := EarliestDailyReport(dir)
	require.True(t, ok)
	assert.Equal(t, day(2025, 3, 8), got.UTC())
}
