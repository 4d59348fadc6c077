package overlap

import (
	"fmt"

	"github.com/slactjohnson/pfts-overlap/internal/monitoring"
	"github.com/slactjohnson/pfts-overlap/internal/units"
)

// OptimizeMonitor searches for a delay at which the averaged monitor waveform
// peaks above threshold. mon selects the monitor channel (0 or 1).
//
// The search starts from the current position and sweeps outward in coarse
// steps, first toward the high bound, then back down toward the low bound.
// At each candidate position navg waveforms are averaged and peak
// tested before any further motion, so a signal that already passes produces
// no movement at all. The sweep stops short of a bound whenever the next
// prospective position would reach it.
//
// Returns true as soon as a passing average is found. If both directions
// exhaust their range, the stage is restored to the starting delay and the
// result is false with no error; failing to find a peak is an expected
// outcome, not a fault.
func (a *Aligner) OptimizeMonitor(mon int, stepSeconds, threshold float64, navg int) (bool, error) {
	if mon < 0 || mon >= len(a.monitors) {
		return false, fmt.Errorf("monitor index %d out of range", mon)
	}
	source := a.monitors[mon]

	start, err := a.stage.Position()
	if err != nil {
		return false, err
	}
	if start <= a.searchLow || start >= a.searchHigh {
		return false, fmt.Errorf("%w: delay %s not inside (%s, %s)", ErrOutOfRange,
			units.FormatDelay(start), units.FormatDelay(a.searchLow), units.FormatDelay(a.searchHigh))
	}
	monitoring.Debugf("optimizing monitor %d from %s", mon+1, units.FormatDelay(start))

	// Forward sweep toward the high bound.
	for {
		pos, err := a.stage.Position()
		if err != nil {
			return false, err
		}
		if pos+stepSeconds >= a.searchHigh {
			break
		}
		avg, err := a.averageSignal(source, navg)
		if err != nil {
			return false, err
		}
		if PeakAbove(avg, threshold) {
			return true, nil
		}
		if err := a.stage.MoveRelative(stepSeconds, true); err != nil {
			return false, err
		}
	}

	// Reverse sweep toward the low bound.
	for {
		pos, err := a.stage.Position()
		if err != nil {
			return false, err
		}
		if pos-stepSeconds <= a.searchLow {
			break
		}
		avg, err := a.averageSignal(source, navg)
		if err != nil {
			return false, err
		}
		if PeakAbove(avg, threshold) {
			return true, nil
		}
		if err := a.stage.MoveRelative(-stepSeconds, true); err != nil {
			return false, err
		}
	}

	// Both directions failed. Return to the starting position.
	monitoring.Logf("monitor %d optimization failed in both directions, restoring %s",
		mon+1, units.FormatDelay(start))
	if err := a.stage.Move(start, true); err != nil {
		return false, err
	}
	return false, nil
}
