// Package units provides shared constants and validation for optical delay units
package units

import "fmt"

// Unit constants
const (
	Seconds      = "s"
	Picoseconds  = "ps"
	Femtoseconds = "fs"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Seconds, Picoseconds, Femtoseconds}

const (
	picosecond  = 1e-12
	femtosecond = 1e-15
)

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
	return "s, ps, fs"
}

// ToSeconds converts a delay expressed in the given unit to seconds.
// Delays are stored internally in seconds.
func ToSeconds(value float64, unit string) float64 {
	switch unit {
	case Picoseconds:
		return value * picosecond
	case Femtoseconds:
		return value * femtosecond
	case Seconds:
		return value
	default:
		return value // default to seconds if unknown unit
	}
}

// FromSeconds converts a delay in seconds to the target unit.
func FromSeconds(seconds float64, targetUnit string) float64 {
	switch targetUnit {
	case Picoseconds:
		return seconds / picosecond
	case Femtoseconds:
		return seconds / femtosecond
	case Seconds:
		return seconds
	default:
		return seconds
	}
}

// FormatDelay renders a delay in seconds as a human-readable picosecond string
// for log lines and CLI output.
func FormatDelay(seconds float64) string {
	return fmt.Sprintf("%.4f ps", FromSeconds(seconds, Picoseconds))
}

// MotorToDelay converts raw motor travel time to effective optical delay for a
// folded delay line. Each bounce doubles the path the pulse covers per unit of
// stage motion.
func MotorToDelay(motorSeconds float64, bounces int) float64 {
	if bounces < 1 {
		bounces = 1
	}
	return motorSeconds * float64(bounces)
}

// DelayToMotor converts an effective optical delay back to raw motor travel
// time. Inverse of MotorToDelay.
func DelayToMotor(delaySeconds float64, bounces int) float64 {
	if bounces < 1 {
		bounces = 1
	}
	return delaySeconds / float64(bounces)
}
