package usage

import "fmt"

// Alert levels.
const (
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// Alert is a quota advisory shown on the account status view.
type Alert struct {
	Level   string
	Message string
}

// Thresholds are the usage percentages at which alerts fire.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds returns the standard alert levels.
func DefaultThresholds() Thresholds {
	return Thresholds{Warning: 80, Critical: 100}
}

// EvaluateAlert returns at most one alert for the given usage
// percentage. Critical is evaluated first and supersedes warning.
func EvaluateAlert(usagePercent float64, t Thresholds) (Alert, bool) {
	if usagePercent >= t.Critical {
		return Alert{
			Level:   LevelCritical,
			Message: "Monthly quota exhausted. Further requests will be rejected until the next cycle.",
		}, true
	}
	if usagePercent >= t.Warning {
		return Alert{
			Level:   LevelWarning,
			Message: fmt.Sprintf("Monthly usage at %.0f%% of quota.", usagePercent),
		}, true
	}
	return Alert{}, false
}
