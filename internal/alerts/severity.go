package alerts

// Severity levels, highest first.
const (
	LevelCritical = "critical"
	LevelHigh     = "high"
	LevelMedium   = "medium"
	LevelLow      = "low"
)

// SeverityLevel buckets a normalized severity.
func SeverityLevel(severity float64) string {
	switch {
	case severity >= 0.8:
		return LevelCritical
	case severity >= 0.6:
		return LevelHigh
	case severity >= 0.4:
		return LevelMedium
	default:
		return LevelLow
	}
}

// NormalizeSeverity maps the stored 0-100 score to [0,1].
func NormalizeSeverity(score int) float64 {
	switch {
	case score <= 0:
		return 0
	case score >= 100:
		return 1
	}
	return float64(score) / 100
}
