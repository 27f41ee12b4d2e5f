package analyzers

import (
	"regexp"
	"unicode/utf8"
)

var conventionalPrefix = regexp.MustCompile(`^(feat|fix|refactor|docs|test|chore|style|perf)(\(.+\))?:`)

// IsGoodMessage reports whether a commit message carries a conventional
// prefix or is at least 10 characters long.
func IsGoodMessage(message string) bool {
	if conventionalPrefix.MatchString(message) {
		return true
	}
	return utf8.RuneCountInString(message) >= 10
}

// MessageQuality returns the percentage of good messages. An empty set
// scores 100.
func MessageQuality(messages []string) float64 {
	if len(messages) == 0 {
		return 100
	}
	good := 0
	for _, m := range messages {
		if IsGoodMessage(m) {
			good++
		}
	}
	return float64(good) / float64(len(messages)) * 100
}
