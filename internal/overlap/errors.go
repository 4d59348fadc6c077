package overlap

import "errors"

// Failure kinds surfaced by the overlap procedure. Acquisition and range
// errors abort the current operation immediately; fit errors are fatal and
// surface to the caller without a re-scan. A failed monitor optimization is
// not an error, it is the optimizer's boolean result.
var (
	// ErrShortWaveform reports a captured waveform with fewer valid samples
	// than the requested useful length.
	ErrShortWaveform = errors.New("waveform shorter than requested length")

	// ErrOutOfRange reports a delay position outside the configured search
	// range.
	ErrOutOfRange = errors.New("delay outside search range")

	// ErrRetriesExhausted reports that monitor optimization failed on every
	// allowed attempt.
	ErrRetriesExhausted = errors.New("unable to optimize monitor signals")

	// ErrFitOutOfRange reports a zero-crossing estimate outside the measured
	// delay span.
	ErrFitOutOfRange = errors.New("zero crossing outside measured range")

	// ErrFitNegative reports a negative zero-crossing estimate.
	ErrFitNegative = errors.New("zero crossing is negative")
)
