package models

// HealthMetrics collects the window-level inputs to health scoring.
// When several repositories contribute, rates are the per-repo maximum
// and message quality the per-repo mean; counts are summed.
type HealthMetrics struct {
	LargeCommits   int
	ChurnRate      float64
	ReworkRate     float64
	MessageQuality float64
	LateNight      int
	Weekend        int
	HighRiskFiles  int
}

// Deduction is one applied penalty with its human-readable reason.
type Deduction struct {
	Reason string
	Points int
}

// Severity levels for a health score.
const (
	LevelExcellent = "excellent"
	LevelGood      = "good"
	LevelWarning   = "warning"
	LevelDanger    = "danger"
)

// HealthScore is the 0-100 composite with its applied deductions, in
// application order.
type HealthScore struct {
	Score      int
	Level      string
	Deductions []Deduction
}
