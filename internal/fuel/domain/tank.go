package fuel

// TankStatus classifies a tank level.
type TankStatus string

const (
	TankNormal   TankStatus = "NORMAL"
	TankWarning  TankStatus = "WARNING"
	TankCritical TankStatus = "CRITICAL"
)

// Thresholds are the liter levels at or below which a tank is flagged.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds flag tanks at 100 L and 30 L.
var DefaultThresholds = Thresholds{Warning: 100, Critical: 30}

// Classify returns the status for a liter level.
func (t Thresholds) Classify(liters float64) TankStatus {
	switch {
	case liters <= t.Critical:
		return TankCritical
	case liters <= t.Warning:
		return TankWarning
	default:
		return TankNormal
	}
}
