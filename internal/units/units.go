// Package units provides shared constants and validation for speed units.
// Track logs store speed over ground in knots.
package units

// Unit constants
const (
	KNOTS = "knots"
	MPS   = "mps"
	KPH   = "kph"
	MPH   = "mph"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{KNOTS, MPS, KPH, MPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "knots, mps, kph, mph"
}

// ConvertKnots converts a speed in knots to the target units.
// One international knot is exactly 1852 m per hour.
func ConvertKnots(knots float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return knots * 1852 / 3600
	case KPH:
		return knots * 1.852
	case MPH:
		return knots * 1852 / 1609.344
	default:
		return knots
	}
}
