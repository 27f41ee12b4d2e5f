package analyzers

import (
	"time"

	"github.com/devpulse/devpulse/internal/config"
)

// WorkTimeClasses holds the non-exclusive classifications of one commit
// timestamp.
type WorkTimeClasses struct {
	LateNight bool
	Weekend   bool
	Overtime  bool
}

// WorkTimeClassifier classifies timestamps against configured working
// hours.
type WorkTimeClassifier struct {
	overtimeStart config.Clock
	overtimeEnd   config.Clock
	lateStart     config.Clock
	lateEnd       config.Clock
}

// NewWorkTimeClassifier parses the configured clock strings.
func NewWorkTimeClassifier(wh config.WorkingHours) (*WorkTimeClassifier, error) {
	c := &WorkTimeClassifier{}
	var err error
	if c.overtimeStart, err = config.ParseClock(wh.OvertimeStart); err != nil {
		return nil, err
	}
	if c.overtimeEnd, err = config.ParseClock(wh.OvertimeEnd); err != nil {
		return nil, err
	}
	if c.lateStart, err = config.ParseClock(wh.LateNightStart); err != nil {
		return nil, err
	}
	if c.lateEnd, err = config.ParseClock(wh.LateNightEnd); err != nil {
		return nil, err
	}
	return c, nil
}

// IsLateNight tests the hour against the late-night window. The window
// may cross midnight (start hour greater than end hour), so membership
// is modular, not interval-based.
func (c *WorkTimeClassifier) IsLateNight(t time.Time) bool {
	hour := t.Hour()
	start, end := c.lateStart.Hour(), c.lateEnd.Hour()
	if start > end {
		return hour >= start || hour < end
	}
	return hour >= start && hour < end
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func (c *WorkTimeClassifier) IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsOvertime tests minutes-of-day against the overtime window.
func (c *WorkTimeClassifier) IsOvertime(t time.Time) bool {
	minutes := t.Hour()*60 + t.Minute()
	return minutes >= c.overtimeStart.Minutes() && minutes < c.overtimeEnd.Minutes()
}

// Classify returns all classes for t. Classes are not mutually
// exclusive.
func (c *WorkTimeClassifier) Classify(t time.Time) WorkTimeClasses {
	return WorkTimeClasses{
		LateNight: c.IsLateNight(t),
		Weekend:   c.IsWeekend(t),
		Overtime:  c.IsOvertime(t),
	}
}
