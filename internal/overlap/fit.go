package overlap

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/slactjohnson/pfts-overlap/internal/monitoring"
)

// fitSpread is how many curve points each side of the steepest-gradient index
// contribute to the local linear fit.
const fitSpread = 3

// FitResult describes the local line fitted through the steepest region of an
// error curve and the delay at which it crosses zero.
type FitResult struct {
	// ZeroSec is the estimated zero-crossing delay in seconds
	ZeroSec float64

	// Intercept and Slope parameterize the fitted line error = Intercept + Slope*delay
	Intercept float64
	Slope     float64

	// WindowStart and WindowEnd bound the curve indices used for the fit
	// (half-open, WindowEnd excluded)
	WindowStart int
	WindowEnd   int
}

// gradient computes the discrete gradient of y at unit spacing: central
// differences in the interior, one-sided differences at the ends.
func gradient(y []float64) []float64 {
	n := len(y)
	g := make([]float64, n)
	if n < 2 {
		return g
	}
	g[0] = y[1] - y[0]
	for i := 1; i < n-1; i++ {
		g[i] = (y[i+1] - y[i-1]) / 2
	}
	g[n-1] = y[n-1] - y[n-2]
	return g
}

// FitZeroCrossing locates the delay at which the error curve crosses zero.
//
// The most sensitive region of the S-curve is where its slope is steepest, so
// the fit centers on the index of maximum gradient and takes a window of up
// to fitSpread points on each side, clipped to the curve bounds. A
// first-degree least-squares fit through that window yields the crossing at
// -intercept/slope.
//
// An estimate outside the measured delay span or below zero indicates an
// unreliable fit and is rejected with ErrFitOutOfRange or ErrFitNegative
// respectively.
func FitZeroCrossing(delays, errs []float64) (FitResult, error) {
	if len(delays) != len(errs) {
		return FitResult{}, fmt.Errorf("delay and error lengths differ: %d vs %d", len(delays), len(errs))
	}
	if len(delays) < 2 {
		return FitResult{}, fmt.Errorf("need at least 2 curve points, got %d", len(delays))
	}

	grad := gradient(errs)
	center := floats.MaxIdx(grad)

	end := center + fitSpread
	if end > len(errs) {
		end = len(errs)
	}
	start := center - fitSpread
	if start < 0 {
		start = 0
	}

	x := delays[start:end]
	y := errs[start:end]
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	zero := -alpha / beta
	monitoring.Debugf("fit window [%d, %d), slope %g, intercept %g", start, end, beta, alpha)

	if zero < delays[0] || zero > delays[len(delays)-1] {
		return FitResult{}, fmt.Errorf("%w: %g", ErrFitOutOfRange, zero)
	}
	if zero < 0 {
		return FitResult{}, fmt.Errorf("%w: %g", ErrFitNegative, zero)
	}

	return FitResult{
		ZeroSec:     zero,
		Intercept:   alpha,
		Slope:       beta,
		WindowStart: start,
		WindowEnd:   end,
	}, nil
}
