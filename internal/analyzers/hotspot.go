package analyzers

import (
	"math"
	"sort"
	"strings"
)

// HotspotConfig carries the thresholds and path filters applied by
// AnalyzeHotspots.
type HotspotConfig struct {
	HotspotCount     int
	LargeFile        int
	MultiAuthorCount int
	ExcludePatterns  []string
	ExcludeDirs      []string
}

// Risk tags attached to hotspot files.
const (
	TagHighChurn   = "high-churn"
	TagLargeFile   = "large-file"
	TagMultiAuthor = "multi-author"
	TagComplexFile = "complex-file"
)

// Hotspot is a file whose composite risk score crossed the display
// threshold.
type Hotspot struct {
	Path        string   `json:"file"`
	RiskScore   float64  `json:"risk_score"`
	ModifyCount int      `json:"modify_count"`
	FileSize    int      `json:"file_size"`
	AuthorCount int      `json:"author_count"`
	Authors     []string `json:"authors"`
	Tags        []string `json:"tags"`
	Suggestion  string   `json:"suggestion"`
}

// Score weights and normalization caps. Frequency saturates at 10
// modifies, size at 1000 lines, collaboration at 5 authors.
const (
	riskWeightFrequency = 0.30
	riskWeightSize      = 0.25
	riskWeightAuthors   = 0.20
	riskDisplayFloor    = 40.0
)

// AnalyzeHotspots scores every file and keeps those above the display
// floor, sorted desc by score. Excluded paths are filtered before
// scoring.
func AnalyzeHotspots(stats []FileStat, cfg HotspotConfig) []Hotspot {
	var hotspots []Hotspot
	for _, s := range stats {
		if excluded(s.Path, cfg) {
			continue
		}
		score := riskScore(s.ModifyCount, s.Size, len(s.Authors))
		if score <= riskDisplayFloor {
			continue
		}
		tags := riskTags(s, cfg)
		hotspots = append(hotspots, Hotspot{
			Path:        s.Path,
			RiskScore:   score,
			ModifyCount: s.ModifyCount,
			FileSize:    s.Size,
			AuthorCount: len(s.Authors),
			Authors:     s.Authors,
			Tags:        tags,
			Suggestion:  suggestion(tags),
		})
	}
	sort.SliceStable(hotspots, func(i, j int) bool {
		if hotspots[i].RiskScore == hotspots[j].RiskScore {
			return hotspots[i].Path < hotspots[j].Path
		}
		return hotspots[i].RiskScore > hotspots[j].RiskScore
	})
	return hotspots
}

func riskScore(modifyCount, fileSize, authorCount int) float64 {
	freq := math.Min(float64(modifyCount)/10*100, 100)
	size := math.Min(float64(fileSize)/1000*100, 100)
	authors := math.Min(float64(authorCount)/5*100, 100)
	risk := freq*riskWeightFrequency + size*riskWeightSize + authors*riskWeightAuthors
	return math.Round(risk*100) / 100
}

// complexityCeilings maps file extensions to the line count above which
// a file is tagged complex.
var complexityCeilings = []struct {
	suffixes []string
	ceiling  int
}{
	{[]string{".java"}, 800},
	{[]string{".py"}, 500},
	{[]string{".ts", ".tsx", ".js", ".jsx"}, 600},
	{[]string{".vue"}, 500},
}

func riskTags(s FileStat, cfg HotspotConfig) []string {
	var tags []string
	if s.ModifyCount >= cfg.HotspotCount {
		tags = append(tags, TagHighChurn)
	}
	if s.Size >= cfg.LargeFile {
		tags = append(tags, TagLargeFile)
	}
	if len(s.Authors) >= cfg.MultiAuthorCount {
		tags = append(tags, TagMultiAuthor)
	}
	for _, c := range complexityCeilings {
		for _, suffix := range c.suffixes {
			if strings.HasSuffix(s.Path, suffix) && s.Size > c.ceiling {
				tags = append(tags, TagComplexFile)
				return tags
			}
		}
	}
	return tags
}

func suggestion(tags []string) string {
	has := func(tag string) bool {
		for _, t := range tags {
			if t == tag {
				return true
			}
		}
		return false
	}
	switch {
	case has(TagLargeFile) && has(TagComplexFile):
		return "🔴 Split the file and extract shared logic"
	case has(TagHighChurn):
		return "🟠 Stabilize the interface to reduce repeated changes"
	case has(TagMultiAuthor):
		return "🟡 Clarify module ownership to avoid collaboration conflicts"
	default:
		return "🟢 Keep watching"
	}
}

func excluded(path string, cfg HotspotConfig) bool {
	for _, dir := range cfg.ExcludeDirs {
		if strings.Contains(path, dir) {
			return true
		}
	}
	for _, pattern := range cfg.ExcludePatterns {
		if strings.HasPrefix(pattern, "*.") {
			if strings.HasSuffix(path, pattern[1:]) {
				return true
			}
		} else if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}
