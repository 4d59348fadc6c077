package overlap

import (
	"time"

	"github.com/slactjohnson/pfts-overlap/internal/config"
	"github.com/slactjohnson/pfts-overlap/internal/device"
)

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

// testRig bundles the simulated devices behind an Aligner with sleeping
// disabled so tests do not pay for refresh intervals.
type testRig struct {
	stage   *device.SimStage
	mon1    *device.SimWaveform
	mon2    *device.SimWaveform
	errSig  *device.SimWaveform
	gauge   *device.SimGauge
	aligner *Aligner
}

// newTestRig builds a rig parked at startDelay. Monitors default to flat
// waveforms at monLevel; the error channel defaults to a flat zero signal.
// cfg may be nil for all-default tuning.
func newTestRig(startDelay, monLevel float64, cfg *config.TuningConfig) *testRig {
	const recordLen = 40

	stage := device.NewSimStage(startDelay)
	mon1 := &device.SimWaveform{Stage: stage, Generate: func(float64) []float64 {
		return flat(recordLen, monLevel)
	}}
	mon2 := &device.SimWaveform{Stage: stage, Generate: func(float64) []float64 {
		return flat(recordLen, monLevel)
	}}
	errSig := &device.SimWaveform{Stage: stage, Generate: func(float64) []float64 {
		return flat(recordLen, 0)
	}}
	gauge := &device.SimGauge{Length: recordLen}

	a := NewAligner(stage, mon1, mon2, errSig, gauge, cfg)
	a.sleep = func(time.Duration) {}

	return &testRig{
		stage:   stage,
		mon1:    mon1,
		mon2:    mon2,
		errSig:  errSig,
		gauge:   gauge,
		aligner: a,
	}
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// sCurveSource configures the error channel so its integrated,
// baseline-subtracted error is linear in delay with slope sign k, crossing
// zero at d0 seconds. The first nbaseline samples carry the baseline level so
// subtraction sees a clean zero reference.
func (r *testRig) sCurveSource(k, d0 float64, nbaseline int) {
	const recordLen = 40
	r.errSig.Generate = func(delay float64) []float64 {
		out := make([]float64, recordLen)
		level := k * (delay - d0) * 1e12 // scale ps-sized deltas to O(1) amplitudes
		for i := nbaseline; i < recordLen; i++ {
			out[i] = level
		}
		return out
	}
}
