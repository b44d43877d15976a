package rollout

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePlot saves a line plot of the episode returns of r to path. The
// image format is chosen by the extension of path.
func SavePlot(r *Result, title, path string) error {
	if len(r.Returns) == 0 {
		return fmt.Errorf("savePlot: no finished episodes")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Return"

	pts := make(plotter.XYs, len(r.Returns))
	for i, ret := range r.Returns {
		pts[i] = plotter.XY{X: float64(i + 1), Y: ret}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("savePlot: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line, plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("savePlot: %w", err)
	}
	return nil
}
