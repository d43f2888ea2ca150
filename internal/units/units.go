// Package units provides shared constants and validation for voltage units
package units

// Unit constants as they appear in recording metadata
const (
	UV = "uV"
	MV = "mV"
	V  = "V"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{UV, MV, V}

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
	return "uV, mV, V"
}

// ToMicrovolts converts a value in the given unit to microvolts, the
// canonical amplitude scale used throughout the pipeline. Unknown units
// are passed through unchanged.
func ToMicrovolts(value float64, unit string) float64 {
	switch unit {
	case MV:
		return value * 1e3
	case V:
		return value * 1e6
	case UV:
		return value
	default:
		return value // assume already microvolts if unknown
	}
}

// FromMicrovolts converts a microvolt value into the given unit. Unknown
// units are passed through unchanged.
func FromMicrovolts(value float64, unit string) float64 {
	switch unit {
	case MV:
		return value / 1e3
	case V:
		return value / 1e6
	case UV:
		return value
	default:
		return value
	}
}
