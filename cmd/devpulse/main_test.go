package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateFlag(t *testing.T) {
	got, err := parseDateFlag("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 10, got.Day())

	_, err = parseDateFlag("03/10/2025")
	assert.Error(t, err)

	now, err := parseDateFlag("")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now, time.Minute)
}

func TestParseWeekFlag(t *testing.T) {
	got, err := parseWeekFlag("2025-W11")
	require.NoError(t, err)

	year, week := got.ISOWeek()
	assert.Equal(t, 2025, year)
	assert.Equal(t, 11, week)
	assert.Equal(t, time.Monday, got.Weekday())

	// 2025 has 52 ISO weeks.
	_, err = parseWeekFlag("2025-W53")
	assert.Error(t, err)

	_, err = parseWeekFlag("garbage")
	assert.Error(t, err)
}

func TestParseMonthFlag(t *testing.T) {
	got, err := parseMonthFlag("2025-03")
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())

	_, err = parseMonthFlag("March 2025")
	assert.Error(t, err)
}

func TestLatestReportPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "daily"), 0o755))
	for _, name := range []string{"2025-03-08.md", "2025-03-12.md", "2025-03-12.html", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "daily", name), []byte("# d\n"), 0o644))
	}

	got, err := latestReportPath(dir, "daily")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "daily", "2025-03-12.md"), got)

	_, err = latestReportPath(dir, "weekly")
	assert.Error(t, err)
	_, err = latestReportPath(dir, "hourly")
	assert.Error(t, err)
}
