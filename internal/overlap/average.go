package overlap

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/slactjohnson/pfts-overlap/internal/device"
	"github.com/slactjohnson/pfts-overlap/internal/monitoring"
)

// ReadWaveform captures one waveform and validates it against the useful
// record length. The digitizer returns fixed-capacity arrays no matter the
// configured record length, so the trailing padding is dropped here.
func ReadWaveform(src device.WaveformSource, length int) ([]float64, error) {
	samples, err := src.Read()
	if err != nil {
		return nil, err
	}
	if len(samples) < length {
		return nil, fmt.Errorf("%w: got %d samples, need %d", ErrShortWaveform, len(samples), length)
	}
	return samples[:length], nil
}

// Average captures navg waveforms from src, each validated and truncated to
// length samples, and returns their element-wise mean. Between captures it
// sleeps for interval so consecutive reads see fresh records rather than the
// same one twice; the digitizer refreshes at 10Hz. sleep may be nil, in which
// case time.Sleep is used.
func Average(src device.WaveformSource, navg, length int, interval time.Duration, sleep func(time.Duration)) ([]float64, error) {
	if navg < 1 {
		return nil, fmt.Errorf("average count must be at least 1, got %d", navg)
	}
	if sleep == nil {
		sleep = time.Sleep
	}

	sum := make([]float64, length)
	for i := 0; i < navg; i++ {
		wf, err := ReadWaveform(src, length)
		if err != nil {
			return nil, err
		}
		floats.Add(sum, wf)
		sleep(interval)
	}
	floats.Scale(1/float64(navg), sum)
	return sum, nil
}

// PeakAbove reports whether the maximum sample of a waveform strictly exceeds
// the threshold.
func PeakAbove(samples []float64, threshold float64) bool {
	if len(samples) == 0 {
		return false
	}
	mx := floats.Max(samples)
	monitoring.Debugf("peak test: threshold %g, max %g", threshold, mx)
	return mx > threshold
}
