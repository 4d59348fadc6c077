package units

import (
	"math"
	"testing"
)

func TestToSeconds(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		units    string
		expected float64
	}{
		{"1 ps to seconds", 1.0, Picoseconds, 1e-12},
		{"2.5 ps to seconds", 2.5, Picoseconds, 2.5e-12},
		{"100 fs to seconds", 100.0, Femtoseconds, 1e-13},
		{"seconds pass through", 3.0e-12, Seconds, 3.0e-12},
		{"unknown units default to seconds", 4.0e-12, "unknown", 4.0e-12},
		{"zero", 0.0, Picoseconds, 0.0},
		{"negative delay", -1.0, Picoseconds, -1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToSeconds(tt.value, tt.units)
			if math.Abs(result-tt.expected) > 1e-18 {
				t.Errorf("ToSeconds(%g, %s) = %g, want %g", tt.value, tt.units, result, tt.expected)
			}
		})
	}
}

func TestFromSeconds(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		units    string
		expected float64
	}{
		{"1e-12 s to ps", 1e-12, Picoseconds, 1.0},
		{"5e-13 s to fs", 5e-13, Femtoseconds, 500.0},
		{"seconds pass through", 2e-12, Seconds, 2e-12},
		{"unknown units default to seconds", 2e-12, "unknown", 2e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FromSeconds(tt.seconds, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("FromSeconds(%g, %s) = %g, want %g", tt.seconds, tt.units, result, tt.expected)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, unit := range ValidUnits {
		got := FromSeconds(ToSeconds(1.25, unit), unit)
		if math.Abs(got-1.25) > 1e-9 {
			t.Errorf("round trip through %s = %g, want 1.25", unit, got)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid s", Seconds, true},
		{"valid ps", Picoseconds, true},
		{"valid fs", Femtoseconds, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "PS", false},
		{"case sensitive", "Fs", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	expected := "s, ps, fs"
	result := GetValidUnitsString()
	if result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}

func TestFormatDelay(t *testing.T) {
	got := FormatDelay(1.5e-12)
	want := "1.5000 ps"
	if got != want {
		t.Errorf("FormatDelay(1.5e-12) = %q, want %q", got, want)
	}
}

func TestBounceScaling(t *testing.T) {
	tests := []struct {
		name    string
		motor   float64
		bounces int
		delay   float64
	}{
		{"four bounces", 1e-12, 4, 4e-12},
		{"single bounce", 1e-12, 1, 1e-12},
		{"zero bounces clamps to one", 1e-12, 0, 1e-12},
		{"negative bounces clamps to one", 1e-12, -2, 1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MotorToDelay(tt.motor, tt.bounces)
			if math.Abs(got-tt.delay) > 1e-18 {
				t.Errorf("MotorToDelay(%g, %d) = %g, want %g", tt.motor, tt.bounces, got, tt.delay)
			}
			back := DelayToMotor(got, tt.bounces)
			want := tt.motor
			if tt.bounces < 1 {
				want = tt.delay // clamped scale is 1
			}
			if math.Abs(back-want) > 1e-18 {
				t.Errorf("DelayToMotor(%g, %d) = %g, want %g", got, tt.bounces, back, want)
			}
		})
	}
}
