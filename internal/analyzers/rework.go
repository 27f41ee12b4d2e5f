package analyzers

import (
	"sort"
	"time"

	"github.com/devpulse/devpulse/internal/models"
)

// ReworkResult reports how many added lines were deleted again within
// the follow-on window.
type ReworkResult struct {
	ReworkLines int
	TotalAdded  int
	Rate        float64
}

// DisplayRate clamps the rate at 100 for rendering. The min() pairing
// rule can overcount when a file sees many small edits, so the raw rate
// may exceed 100 in pathological histories.
func (r ReworkResult) DisplayRate() float64 {
	if r.Rate > 100 {
		return 100
	}
	return r.Rate
}

// Level classifies the rework rate against the warning/danger thresholds.
func (r ReworkResult) Level(warning, danger float64) string {
	switch {
	case r.Rate > danger:
		return "high"
	case r.Rate > warning:
		return "medium"
	default:
		return "low"
	}
}

type fileEdit struct {
	at      time.Time
	added   int
	deleted int
}

// AnalyzeRework estimates throwaway work: for each file, each addition
// is paired with every deletion occurring within deleteDays after it,
// accumulating min(added, deleted) per pair. Commits before addSince
// are ignored.
func AnalyzeRework(commits []models.Commit, addSince time.Time, deleteDays int) ReworkResult {
	edits := make(map[string][]fileEdit)
	for _, c := range commits {
		if c.Timestamp.Before(addSince) {
			continue
		}
		for _, f := range c.Files {
			edits[f.Path] = append(edits[f.Path], fileEdit{
				at:      c.Timestamp,
				added:   f.Added,
				deleted: f.Deleted,
			})
		}
	}

	var rework, totalAdded int
	for _, changes := range edits {
		sort.Slice(changes, func(i, j int) bool { return changes[i].at.Before(changes[j].at) })
		for i, ci := range changes {
			totalAdded += ci.added
			if ci.added <= 0 {
				continue
			}
			for _, cj := range changes[i+1:] {
				// Whole-day distance, so a deletion 3 days and 20 hours
				// later still counts against a 3-day window.
				if int(cj.at.Sub(ci.at)/(24*time.Hour)) > deleteDays {
					break
				}
				if cj.deleted > 0 {
					rework += min(ci.added, cj.deleted)
				}
			}
		}
	}

	rate := 0.0
	if totalAdded > 0 {
		rate = float64(rework) / float64(totalAdded) * 100
	}
	return ReworkResult{ReworkLines: rework, TotalAdded: totalAdded, Rate: rate}
}
