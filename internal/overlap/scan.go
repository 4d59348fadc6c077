package overlap

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/slactjohnson/pfts-overlap/internal/monitoring"
	"github.com/slactjohnson/pfts-overlap/internal/units"
)

// Measurement is one point of the error curve: the integrated,
// baseline-subtracted error signal sampled at one delay.
type Measurement struct {
	DelaySec float64
	Error    float64
}

// Curve is an error curve in acquisition order; the delay increases
// monotonically within one scan.
type Curve []Measurement

// Delays returns the delay coordinates of the curve.
func (c Curve) Delays() []float64 {
	out := make([]float64, len(c))
	for i, m := range c {
		out[i] = m.DelaySec
	}
	return out
}

// Errors returns the integrated-error values of the curve.
func (c Curve) Errors() []float64 {
	out := make([]float64, len(c))
	for i, m := range c {
		out[i] = m.Error
	}
	return out
}

// integrateError averages navg error waveforms, subtracts the baseline taken
// as the mean of the first nbaseline samples, and integrates the result by
// the trapezoidal rule at unit sample spacing.
func (a *Aligner) integrateError(nbaseline, navg int) (float64, error) {
	avg, err := a.averageSignal(a.errSig, navg)
	if err != nil {
		return 0, err
	}
	if len(avg) < nbaseline {
		return 0, fmt.Errorf("%w: %d samples cannot carry a %d-sample baseline",
			ErrShortWaveform, len(avg), nbaseline)
	}
	if len(avg) < 2 {
		return 0, fmt.Errorf("%w: %d samples cannot be integrated", ErrShortWaveform, len(avg))
	}

	baseline := stat.Mean(avg[:nbaseline], nil)
	signal := make([]float64, len(avg))
	xs := make([]float64, len(avg))
	for i, v := range avg {
		signal[i] = v - baseline
		xs[i] = float64(i)
	}
	return integrate.Trapezoidal(xs, signal), nil
}

// MeasureErrorCurve records the TCBOC error signal (S-curve) at different
// delays. The TCBOC working range is about 2ps and monitor optimization has
// already landed close-ish to its center, so the scan moves back by the
// configured half-width and then steps forward across the full window,
// recording the delay and integrated error at each position.
func (a *Aligner) MeasureErrorCurve(stepSeconds float64, nbaseline, navg int) (Curve, error) {
	start, err := a.stage.Position()
	if err != nil {
		return nil, err
	}
	halfwidth := units.ToSeconds(a.cfg.GetScanHalfwidthPs(), units.Picoseconds)
	scanStart := start - halfwidth
	scanEnd := scanStart + 2*halfwidth
	monitoring.Logf("scanning error curve from %s to %s",
		units.FormatDelay(scanStart), units.FormatDelay(scanEnd))

	if err := a.stage.Move(scanStart, true); err != nil {
		return nil, err
	}

	var curve Curve
	for {
		pos, err := a.stage.Position()
		if err != nil {
			return nil, err
		}
		if pos >= scanEnd {
			break
		}
		e, err := a.integrateError(nbaseline, navg)
		if err != nil {
			return nil, err
		}
		curve = append(curve, Measurement{DelaySec: pos, Error: e})
		if err := a.stage.MoveRelative(stepSeconds, true); err != nil {
			return nil, err
		}
	}

	if len(curve) == 0 {
		return nil, fmt.Errorf("error-curve scan recorded no points")
	}
	monitoring.Debugf("error curve has %d points", len(curve))
	return curve, nil
}
