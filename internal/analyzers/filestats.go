// Package analyzers contains the pure metric computations: churn,
// rework, hotspots, health scoring, message quality, and work-time
// classification. Nothing here performs I/O.
package analyzers

import (
	"sort"
	"time"

	"github.com/devpulse/devpulse/internal/models"
)

// FileStat summarizes one file's activity inside an analysis window.
type FileStat struct {
	Path        string
	ModifyCount int
	Authors     []string
	Size        int
	Added       int
	Deleted     int
}

// SizeLookup resolves a file path to its current line count. A nil
// lookup makes BuildFileStats estimate size from cumulative net lines.
type SizeLookup func(path string) int

// BuildFileStats folds a commit set into per-file activity records.
// Only commits with timestamp >= since are counted.
func BuildFileStats(commits []models.Commit, since time.Time, lookup SizeLookup) []FileStat {
	type acc struct {
		count   int
		authors map[string]struct{}
		added   int
		deleted int
	}
	byPath := make(map[string]*acc)
	for _, c := range commits {
		if c.Timestamp.Before(since) {
			continue
		}
		for _, f := range c.Files {
			a, ok := byPath[f.Path]
			if !ok {
				a = &acc{authors: make(map[string]struct{})}
				byPath[f.Path] = a
			}
			a.count++
			a.authors[c.Author] = struct{}{}
			a.added += f.Added
			a.deleted += f.Deleted
		}
	}

	stats := make([]FileStat, 0, len(byPath))
	for path, a := range byPath {
		authors := make([]string, 0, len(a.authors))
		for name := range a.authors {
			authors = append(authors, name)
		}
		sort.Strings(authors)

		size := a.added - a.deleted
		if size < 0 {
			size = 0
		}
		if lookup != nil {
			size = lookup(path)
		}
		stats = append(stats, FileStat{
			Path:        path,
			ModifyCount: a.count,
			Authors:     authors,
			Size:        size,
			Added:       a.added,
			Deleted:     a.deleted,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Path < stats[j].Path })
	return stats
}
