package analyzers

import (
	"fmt"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/models"
)

const (
	abnormalTimeCap  = 20
	highRiskFileCap  = 15
	perLargeCommit   = 5
	perAbnormal      = 2
	perHighRiskFile  = 3
	messageQualityLo = 60
)

// CountLargeCommits counts commits whose total changed lines exceed the
// threshold.
func CountLargeCommits(commits []models.Commit, threshold int) int {
	n := 0
	for _, c := range commits {
		if c.LinesAdded()+c.LinesDeleted() > threshold {
			n++
		}
	}
	return n
}

// CalculateHealthScore applies the full deduction table used by the
// weekly and monthly reports. The score starts at 100, deductions stack
// additively, and the result is clamped to [0, 100].
func CalculateHealthScore(m models.HealthMetrics, t config.Thresholds) models.HealthScore {
	score := 100
	var deductions []models.Deduction

	apply := func(reason string, points int) {
		score -= points
		deductions = append(deductions, models.Deduction{Reason: reason, Points: points})
	}

	if m.LargeCommits > 0 {
		apply(fmt.Sprintf("%d large commits (>%d changed lines)", m.LargeCommits, t.LargeCommit),
			m.LargeCommits*perLargeCommit)
	}
	if m.ChurnRate > t.ChurnRateDanger {
		apply(fmt.Sprintf("churn rate %.1f%% above %.0f%%", m.ChurnRate, t.ChurnRateDanger), 20)
	} else if m.ChurnRate > t.ChurnRateWarning {
		apply(fmt.Sprintf("churn rate %.1f%% above %.0f%%", m.ChurnRate, t.ChurnRateWarning), 10)
	}
	if m.ReworkRate > t.ReworkRateDanger {
		apply(fmt.Sprintf("rework rate %.1f%% above %.0f%%", m.ReworkRate, t.ReworkRateDanger), 15)
	} else if m.ReworkRate > t.ReworkRateWarning {
		apply(fmt.Sprintf("rework rate %.1f%% above %.0f%%", m.ReworkRate, t.ReworkRateWarning), 8)
	}
	if m.MessageQuality < messageQualityLo {
		apply(fmt.Sprintf("message quality %.0f%% below %d%%", m.MessageQuality, messageQualityLo), 10)
	}
	if abnormal := m.LateNight + m.Weekend; abnormal > 0 {
		points := abnormal * perAbnormal
		if points > abnormalTimeCap {
			points = abnormalTimeCap
		}
		apply(fmt.Sprintf("%d late-night/weekend commits", abnormal), points)
	}
	if m.HighRiskFiles > 0 {
		points := m.HighRiskFiles * perHighRiskFile
		if points > highRiskFileCap {
			points = highRiskFileCap
		}
		apply(fmt.Sprintf("%d high-risk files", m.HighRiskFiles), points)
	}

	return models.HealthScore{
		Score:      clampScore(score),
		Level:      healthLevel(clampScore(score), t),
		Deductions: deductions,
	}
}

// DailyHealthScore applies the simplified daily deduction set: large
// commits and abnormal-time commits deduct without caps, plus the
// message-quality penalty.
func DailyHealthScore(largeCommits int, messageQuality float64, abnormal int, t config.Thresholds) models.HealthScore {
	score := 100
	var deductions []models.Deduction

	if largeCommits > 0 {
		points := largeCommits * perLargeCommit
		score -= points
		deductions = append(deductions, models.Deduction{
			Reason: fmt.Sprintf("%d large commits (>%d changed lines)", largeCommits, t.LargeCommit),
			Points: points,
		})
	}
	if messageQuality < messageQualityLo {
		score -= 10
		deductions = append(deductions, models.Deduction{
			Reason: fmt.Sprintf("message quality %.0f%% below %d%%", messageQuality, messageQualityLo),
			Points: 10,
		})
	}
	if abnormal > 0 {
		points := abnormal * perAbnormal
		score -= points
		deductions = append(deductions, models.Deduction{
			Reason: fmt.Sprintf("%d late-night/weekend commits", abnormal),
			Points: points,
		})
	}

	return models.HealthScore{
		Score:      clampScore(score),
		Level:      healthLevel(clampScore(score), t),
		Deductions: deductions,
	}
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func healthLevel(score int, t config.Thresholds) string {
	switch {
	case score >= t.HealthExcellent:
		return models.LevelExcellent
	case score >= t.HealthGood:
		return models.LevelGood
	case score >= t.HealthWarning:
		return models.LevelWarning
	default:
		return models.LevelDanger
	}
}
