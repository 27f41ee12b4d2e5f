package analyzers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/config"
)

func newClassifier(t *testing.T) *WorkTimeClassifier {
	t.Helper()
	c, err := NewWorkTimeClassifier(config.Default().WorkingHours)
	require.NoError(t, err)
	return c
}

func TestLateNightCrossesMidnight(t *testing.T) {
	c := newClassifier(t)

	// Window is 22:00-06:00: both sides of midnight are late night.
	assert.True(t, c.IsLateNight(time.Date(2025, 1, 8, 23, 30, 0, 0, time.UTC)))
	assert.True(t, c.IsLateNight(time.Date(2025, 1, 8, 2, 30, 0, 0, time.UTC)))
	assert.False(t, c.IsLateNight(time.Date(2025, 1, 8, 21, 30, 0, 0, time.UTC)))
	assert.False(t, c.IsLateNight(time.Date(2025, 1, 8, 6, 0, 0, 0, time.UTC)))
}

func TestWeekend(t *testing.T) {
	c := newClassifier(t)

	assert.True(t, c.IsWeekend(time.Date(2025, 1, 11, 12, 0, 0, 0, time.UTC)))  // Saturday
	assert.True(t, c.IsWeekend(time.Date(2025, 1, 12, 12, 0, 0, 0, time.UTC)))  // Sunday
	assert.False(t, c.IsWeekend(time.Date(2025, 1, 13, 12, 0, 0, 0, time.UTC))) // Monday
}

func TestOvertimeWindow(t *testing.T) {
	c := newClassifier(t)

	assert.True(t, c.IsOvertime(time.Date(2025, 1, 8, 18, 0, 0, 0, time.UTC)))
	assert.True(t, c.IsOvertime(time.Date(2025, 1, 8, 20, 59, 0, 0, time.UTC)))
	assert.False(t, c.IsOvertime(time.Date(2025, 1, 8, 21, 0, 0, 0, time.UTC)))
	assert.False(t, c.IsOvertime(time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)))
}

func TestClassifySaturdayLateNight(t *testing.T) {
	c := newClassifier(t)

	// Saturday 23:15 is both weekend and late night, not overtime.
	classes := c.Classify(time.Date(2025, 1, 11, 23, 15, 0, 0, time.UTC))

	assert.True(t, classes.LateNight)
	assert.True(t, classes.Weekend)
	assert.False(t, classes.Overtime)
}

func TestMessageQuality(t *testing.T) {
	assert.InDelta(t, 100.0, MessageQuality(nil), 0.001)

	msgs := []string{
		"feat: add login flow",
		"fix(auth): refresh token expiry",
		"a long enough free-form message",
		"wip",
	}
	assert.InDelta(t, 75.0, MessageQuality(msgs), 0.001)
}

func TestIsGoodMessage(t *testing.T) {
	assert.True(t, IsGoodMessage("feat: x"))
	assert.True(t, IsGoodMessage("fix(scope): y"))
	assert.True(t, IsGoodMessage("exactly10c"))
	assert.False(t, IsGoodMessage("short"))
	assert.False(t, IsGoodMessage("update"))
}
