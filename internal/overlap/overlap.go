// Package overlap implements the closed-loop auto-overlap procedure for the
// PFTS TCBOC: it aligns two optical pulse trains in time by scanning a
// motorized delay stage and analyzing digitizer waveforms.
//
// The procedure is single-threaded and blocking: every stage move and every
// waveform acquisition completes before the next step runs, and the Aligner
// is the sole writer of the delay position for the duration of a run.
package overlap

import (
	"fmt"
	"math"
	"time"

	"github.com/slactjohnson/pfts-overlap/internal/config"
	"github.com/slactjohnson/pfts-overlap/internal/device"
	"github.com/slactjohnson/pfts-overlap/internal/monitoring"
	"github.com/slactjohnson/pfts-overlap/internal/units"
)

// Aligner sequences the auto-overlap procedure against a delay stage, two
// TCBOC monitor channels, and the TCBOC error channel.
type Aligner struct {
	stage    device.DelayStage
	monitors [2]device.WaveformSource
	errSig   device.WaveformSource
	gauge    device.BufferGauge
	cfg      *config.TuningConfig

	searchLow  float64 // seconds
	searchHigh float64 // seconds

	// sleep is swappable so tests do not pay for real refresh intervals
	sleep func(time.Duration)
}

// NewAligner builds an Aligner. cfg may be nil, in which case every tuning
// parameter takes its default.
func NewAligner(stage device.DelayStage, mon1, mon2, errSig device.WaveformSource, gauge device.BufferGauge, cfg *config.TuningConfig) *Aligner {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	return &Aligner{
		stage:      stage,
		monitors:   [2]device.WaveformSource{mon1, mon2},
		errSig:     errSig,
		gauge:      gauge,
		cfg:        cfg,
		searchLow:  units.ToSeconds(cfg.GetSearchLowPs(), units.Picoseconds),
		searchHigh: units.ToSeconds(cfg.GetSearchHighPs(), units.Picoseconds),
		sleep:      time.Sleep,
	}
}

// averageSignal reads the current useful record length and averages navg
// waveforms from src at it.
func (a *Aligner) averageSignal(src device.WaveformSource, navg int) ([]float64, error) {
	length, err := a.gauge.UsefulLength()
	if err != nil {
		return nil, err
	}
	return Average(src, navg, length, a.cfg.GetRefreshInterval(), a.sleep)
}

// checkSignals verifies that the digitizer channels respond and report a
// usable record length before any motion starts.
func (a *Aligner) checkSignals() error {
	monitoring.Debugf("checking digitizer signal status")
	length, err := a.gauge.UsefulLength()
	if err != nil {
		return fmt.Errorf("buffer length gauge unavailable: %w", err)
	}
	if length < 1 {
		return fmt.Errorf("digitizer reports no valid samples (length %d)", length)
	}
	for i, mon := range a.monitors {
		if _, err := ReadWaveform(mon, length); err != nil {
			return fmt.Errorf("monitor %d unhealthy: %w", i+1, err)
		}
	}
	if _, err := ReadWaveform(a.errSig, length); err != nil {
		return fmt.Errorf("error channel unhealthy: %w", err)
	}
	monitoring.Logf("signal status good")
	return nil
}

// checkMotor verifies that the delay stage responds with a sane position.
func (a *Aligner) checkMotor() error {
	monitoring.Debugf("checking motor status")
	pos, err := a.stage.Position()
	if err != nil {
		return fmt.Errorf("delay stage unhealthy: %w", err)
	}
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		return fmt.Errorf("delay stage reports invalid position %g", pos)
	}
	monitoring.Logf("motor status good")
	return nil
}

// Result captures what a completed run measured and where it parked the
// stage.
type Result struct {
	ZeroSec float64
	Curve   Curve
	Fit     FitResult
}

// Run executes the full auto-overlap procedure and returns the measured
// curve together with the delay the stage was finally commanded to.
//
// The sequence is: health checks, a bounded retry loop that optimizes both
// monitor channels and re-tests their unaveraged readings, an error-curve
// scan across the working range, a zero-crossing fit, and a final absolute
// move to the estimate.
func (a *Aligner) Run() (*Result, error) {
	if err := a.checkSignals(); err != nil {
		return nil, err
	}
	if err := a.checkMotor(); err != nil {
		return nil, err
	}

	threshold := a.cfg.GetMonitorThreshold()
	coarse := units.ToSeconds(a.cfg.GetCoarseStepPs(), units.Picoseconds)
	fine := units.ToSeconds(a.cfg.GetFineStepPs(), units.Picoseconds)
	navg := a.cfg.GetAverageCount()
	maxAttempts := a.cfg.GetMaxAttempts()

	optimized := false
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// The boolean outcomes are advisory; what decides the attempt is
		// the re-test of both channels' current readings below.
		if _, err := a.OptimizeMonitor(0, coarse, threshold, navg); err != nil {
			return nil, err
		}
		if _, err := a.OptimizeMonitor(1, coarse, threshold, navg); err != nil {
			return nil, err
		}

		pass := true
		for i, mon := range a.monitors {
			raw, err := mon.Read()
			if err != nil {
				return nil, fmt.Errorf("monitor %d re-test failed: %w", i+1, err)
			}
			if !PeakAbove(raw, threshold) {
				pass = false
			}
		}
		if pass {
			optimized = true
			break
		}
		monitoring.Logf("monitor optimization attempt %d/%d did not converge", attempt, maxAttempts)
	}
	if !optimized {
		return nil, fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, maxAttempts)
	}

	curve, err := a.MeasureErrorCurve(fine, a.cfg.GetBaselineSamples(), navg)
	if err != nil {
		return nil, err
	}

	fit, err := FitZeroCrossing(curve.Delays(), curve.Errors())
	if err != nil {
		return nil, err
	}
	monitoring.Logf("zero crossing at %s", units.FormatDelay(fit.ZeroSec))

	if err := a.stage.Move(fit.ZeroSec, true); err != nil {
		return nil, fmt.Errorf("final move failed: %w", err)
	}
	return &Result{ZeroSec: fit.ZeroSec, Curve: curve, Fit: fit}, nil
}
