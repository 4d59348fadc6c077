package overlap

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/slactjohnson/pfts-overlap/internal/units"
)

// SaveCurvePlot renders the measured error curve and the fitted line to a PNG
// at path. Delays are plotted in picoseconds. Used as a commissioning
// diagnostic after a scan.
func SaveCurvePlot(curve Curve, fit FitResult, path string) error {
	if len(curve) == 0 {
		return fmt.Errorf("cannot plot empty curve")
	}

	p := plot.New()
	p.Title.Text = "TCBOC error curve"
	p.X.Label.Text = "delay (ps)"
	p.Y.Label.Text = "integrated error"

	pts := make(plotter.XYs, len(curve))
	for i, m := range curve {
		pts[i].X = units.FromSeconds(m.DelaySec, units.Picoseconds)
		pts[i].Y = m.Error
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 200, A: 255}

	// Draw the fitted line across the window that produced it. A zero-value
	// window falls back to the full curve.
	lo, hi := fit.WindowStart, fit.WindowEnd
	if hi <= lo || hi > len(curve) {
		lo, hi = 0, len(curve)
	}
	winStart := curve[lo].DelaySec
	winEnd := curve[hi-1].DelaySec
	linePts := plotter.XYs{
		{X: units.FromSeconds(winStart, units.Picoseconds), Y: fit.Intercept + fit.Slope*winStart},
		{X: units.FromSeconds(winEnd, units.Picoseconds), Y: fit.Intercept + fit.Slope*winEnd},
	}
	line, err := plotter.NewLine(linePts)
	if err != nil {
		return fmt.Errorf("failed to build fit line: %w", err)
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{B: 200, A: 255}

	p.Add(scatter, line)
	p.Legend.Add("measured", scatter)
	p.Legend.Add("fit", line)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
