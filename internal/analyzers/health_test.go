package analyzers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/devpulse/devpulse/internal/config"
	"github.com/devpulse/devpulse/internal/models"
)

func TestCountLargeCommits(t *testing.T) {
	at := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	commits := []models.Commit{
		commitAt("a", "ada", "big.go", 600, 0, at),
		commitAt("b", "ada", "small.go", 10, 0, at),
	}

	assert.Equal(t, 1, CountLargeCommits(commits, 500))
}

func TestHealthScorePerfect(t *testing.T) {
	score := CalculateHealthScore(models.HealthMetrics{MessageQuality: 100}, config.Default().Thresholds)

	assert.Equal(t, 100, score.Score)
	assert.Equal(t, models.LevelExcellent, score.Level)
	assert.Empty(t, score.Deductions)
}

func TestHealthScoreSingleLargeCommit(t *testing.T) {
	m := models.HealthMetrics{LargeCommits: 1, MessageQuality: 100}

	score := CalculateHealthScore(m, config.Default().Thresholds)

	assert.Equal(t, 95, score.Score)
	assert.Equal(t, models.LevelExcellent, score.Level)
}

func TestHealthScoreChurnBands(t *testing.T) {
	th := config.Default().Thresholds

	warn := CalculateHealthScore(models.HealthMetrics{ChurnRate: 15, MessageQuality: 100}, th)
	danger := CalculateHealthScore(models.HealthMetrics{ChurnRate: 35, MessageQuality: 100}, th)

	assert.Equal(t, 90, warn.Score)
	assert.Equal(t, 80, danger.Score)
}

func TestHealthScoreAbnormalTimeCap(t *testing.T) {
	m := models.HealthMetrics{LateNight: 30, Weekend: 10, MessageQuality: 100}

	score := CalculateHealthScore(m, config.Default().Thresholds)

	// 40 abnormal commits would deduct 80 uncapped; the cap holds it at 20.
	assert.Equal(t, 80, score.Score)
}

func TestHealthScoreHighRiskFileCap(t *testing.T) {
	m := models.HealthMetrics{HighRiskFiles: 10, MessageQuality: 100}

	score := CalculateHealthScore(m, config.Default().Thresholds)

	assert.Equal(t, 85, score.Score)
}

func TestHealthScoreClampedAtZero(t *testing.T) {
	m := models.HealthMetrics{
		LargeCommits:   30,
		ChurnRate:      50,
		ReworkRate:     50,
		MessageQuality: 10,
		LateNight:      50,
		HighRiskFiles:  20,
	}

	score := CalculateHealthScore(m, config.Default().Thresholds)

	assert.Equal(t, 0, score.Score)
	assert.Equal(t, models.LevelDanger, score.Level)
}

func TestHealthScoreMonotonicWorsening(t *testing.T) {
	th := config.Default().Thresholds
	base := models.HealthMetrics{MessageQuality: 100}
	prev := CalculateHealthScore(base, th).Score

	worse := []models.HealthMetrics{
		{MessageQuality: 100, LargeCommits: 2},
		{MessageQuality: 100, LargeCommits: 2, ChurnRate: 20},
		{MessageQuality: 100, LargeCommits: 2, ChurnRate: 40},
		{MessageQuality: 50, LargeCommits: 2, ChurnRate: 40},
		{MessageQuality: 50, LargeCommits: 2, ChurnRate: 40, ReworkRate: 40},
	}
	for _, m := range worse {
		got := CalculateHealthScore(m, th).Score
		assert.LessOrEqual(t, got, prev)
		prev = got
	}
}

func TestDailyHealthScoreUncappedAbnormal(t *testing.T) {
	score := DailyHealthScore(0, 100, 15, config.Default().Thresholds)

	assert.Equal(t, 70, score.Score)
}

