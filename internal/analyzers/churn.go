package analyzers

import "sort"

// ChurnFile is a file modified at least the churn threshold number of
// times inside the churn window.
type ChurnFile struct {
	Path    string   `json:"file"`
	Count   int      `json:"count"`
	Authors []string `json:"authors"`
	Size    int      `json:"size"`
}

// ChurnResult holds the churn file list, sorted desc by modify count,
// and the churn rate in percent.
type ChurnResult struct {
	Files         []ChurnFile
	Rate          float64
	TotalModified int
}

// Level classifies the churn rate against the warning/danger thresholds.
func (r ChurnResult) Level(warning, danger float64) string {
	switch {
	case r.Rate > danger:
		return "high"
	case r.Rate > warning:
		return "medium"
	default:
		return "low"
	}
}

// AnalyzeChurn finds files whose modify count reaches minCount. The rate
// is churn files over total modified files; an empty stat set yields
// rate 0 and an empty list.
func AnalyzeChurn(stats []FileStat, minCount int) ChurnResult {
	var files []ChurnFile
	for _, s := range stats {
		if s.ModifyCount >= minCount {
			files = append(files, ChurnFile{
				Path:    s.Path,
				Count:   s.ModifyCount,
				Authors: s.Authors,
				Size:    s.Size,
			})
		}
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Count == files[j].Count {
			return files[i].Path < files[j].Path
		}
		return files[i].Count > files[j].Count
	})

	rate := 0.0
	if len(stats) > 0 {
		rate = float64(len(files)) / float64(len(stats)) * 100
	}
	return ChurnResult{Files: files, Rate: rate, TotalModified: len(stats)}
}
