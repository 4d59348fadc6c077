// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta checks that got is within delta of want.
func AssertInDelta(t *testing.T, got, want, delta float64) {
	t.Helper()
	if math.Abs(got-want) > delta {
		t.Errorf("value = %g, want %g (±%g)", got, want, delta)
	}
}

// FlatWaveform returns n samples all at the given amplitude.
func FlatWaveform(n int, amplitude float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude
	}
	return out
}

// PeakedWaveform returns n samples at the baseline amplitude with a single
// triangular peak of the given height centered at mid.
func PeakedWaveform(n int, baseline, height float64) []float64 {
	out := FlatWaveform(n, baseline)
	mid := n / 2
	if mid > 0 {
		out[mid-1] = baseline + height/2
	}
	out[mid] = baseline + height
	if mid+1 < n {
		out[mid+1] = baseline + height/2
	}
	return out
}

// RampWaveform returns n samples rising linearly from lo to hi. The leading
// samples make a usable baseline window only when lo is near zero.
func RampWaveform(n int, lo, hi float64) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
