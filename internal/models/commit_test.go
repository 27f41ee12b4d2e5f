package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortCommitsDescendingWithHashTiebreak(t *testing.T) {
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	commits := []Commit{
		{Hash: "bbb", Timestamp: base},
		{Hash: "ccc", Timestamp: base.Add(time.Hour)},
		{Hash: "aaa", Timestamp: base},
	}

	SortCommits(commits)

	assert.Equal(t, "ccc", commits[0].Hash)
	assert.Equal(t, "aaa", commits[1].Hash)
	assert.Equal(t, "bbb", commits[2].Hash)
}

func TestDedupeByHashKeepsFirst(t *testing.T) {
	commits := []Commit{
		{Hash: "a", Message: "first"},
		{Hash: "b"},
		{Hash: "a", Message: "duplicate"},
	}

	out := DedupeByHash(commits)

	assert.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Message)
}

func TestCommitLineTotals(t *testing.T) {
	c := Commit{Files: []FileChange{
		{Path: "a.go", Added: 10, Deleted: 3},
		{Path: "b.go", Added: 5, Deleted: 7},
	}}

	assert.Equal(t, 15, c.LinesAdded())
	assert.Equal(t, 10, c.LinesDeleted())
	assert.Equal(t, 5, c.LinesNet())
}

func TestTimeWindowContains(t *testing.T) {
	w := TimeWindow{
		Start: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, w.Contains(w.Start))
	assert.True(t, w.Contains(w.End.Add(-time.Second)))
	assert.False(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Second)))
}

func TestISOWeekWindowStartsMonday(t *testing.T) {
	// 2025-01-08 is a Wednesday in ISO week 2025-W02.
	w := ISOWeekWindow(time.Date(2025, 1, 8, 15, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Monday, w.Start.Weekday())
	assert.Equal(t, 6, w.Start.Day())
	assert.Equal(t, 13, w.End.Day())
}

func TestMonthWindow(t *testing.T) {
	w := MonthWindow(time.Date(2025, 2, 14, 9, 0, 0, 0, time.UTC))

	assert.Equal(t, 1, w.Start.Day())
	assert.Equal(t, time.February, w.Start.Month())
	assert.Equal(t, time.March, w.End.Month())
}

func TestBuildAuthorAggregatesEmpty(t *testing.T) {
	out := BuildAuthorAggregates(nil)
	assert.Empty(t, out)
}

func TestBuildAuthorAggregates(t *testing.T) {
	commits := []Commit{
		{Hash: "1", Author: "ada", RepoName: "core", Files: []FileChange{{Path: "a.go", Added: 100, Deleted: 20}}},
		{Hash: "2", Author: "ada", RepoName: "web", Files: []FileChange{{Path: "b.ts", Added: 50}}},
		{Hash: "3", Author: "lin", RepoName: "core", Files: []FileChange{{Path: "c.go", Added: 5, Deleted: 5}}},
	}

	out := BuildAuthorAggregates(commits)

	ada := out["ada"]
	assert.Equal(t, 2, ada.Commits)
	assert.Equal(t, 150, ada.Added)
	assert.Equal(t, 130, ada.Net())
	assert.Equal(t, []string{"core", "web"}, ada.RepoNames())
	assert.Equal(t, 1, out["lin"].Commits)
}
