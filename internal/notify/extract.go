package notify

import (
	"regexp"
	"strconv"
	"strings"
)

// KeyMetrics is the digest pulled out of a rendered report for chat
// notifications.
type KeyMetrics struct {
	Commits       int
	Developers    int
	Repositories  int
	NetLines      int
	HealthScore   int
	Overtime      int
	LateNight     int
	Weekend       int
	TopDevelopers []string
}

var (
	commitsPattern    = regexp.MustCompile(`\| Commits \| ([\d,]+) \|`)
	developersPattern = regexp.MustCompile(`\| Active developers \| ([\d,]+) \|`)
	reposPattern      = regexp.MustCompile(`\| Active repositories \| ([\d,]+) \|`)
	netPattern        = regexp.MustCompile(`\| Net change \| ([+\-]?[\d,]+) \|`)
	scorePattern      = regexp.MustCompile(`\*\*(\d+) / 100\*\*`)
	overtimePattern   = regexp.MustCompile(`\| 🌙 Overtime [^|]*\| (\d+) \|`)
	lateNightPattern  = regexp.MustCompile(`\| 🌃 Late night [^|]*\| (\d+) \|`)
	weekendPattern    = regexp.MustCompile(`\| 📅 Weekend \| (\d+) \|`)
	authorPattern     = regexp.MustCompile(`### 👤 (.+) \(\d+ commits?\)`)
)

// ExtractKeyMetrics scans a report's Markdown for the headline numbers.
// Missing sections leave their fields zero.
func ExtractKeyMetrics(md string) KeyMetrics {
	m := KeyMetrics{
		Commits:      scanInt(commitsPattern, md),
		Developers:   scanInt(developersPattern, md),
		Repositories: scanInt(reposPattern, md),
		NetLines:     scanSignedInt(netPattern, md),
		HealthScore:  scanInt(scorePattern, md),
		Overtime:     scanInt(overtimePattern, md),
		LateNight:    scanInt(lateNightPattern, md),
		Weekend:      scanInt(weekendPattern, md),
	}
	for _, match := range authorPattern.FindAllStringSubmatch(md, 3) {
		m.TopDevelopers = append(m.TopDevelopers, strings.TrimSpace(match[1]))
	}
	return m
}

func scanInt(pattern *regexp.Regexp, md string) int {
	if match := pattern.FindStringSubmatch(md); match != nil {
		n, _ := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
		return n
	}
	return 0
}

func scanSignedInt(pattern *regexp.Regexp, md string) int {
	if match := pattern.FindStringSubmatch(md); match != nil {
		s := strings.ReplaceAll(match[1], ",", "")
		s = strings.TrimPrefix(s, "+")
		n, _ := strconv.Atoi(s)
		return n
	}
	return 0
}
