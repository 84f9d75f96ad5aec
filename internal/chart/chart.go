// Package chart renders the per-epoch training curves.
package chart

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Chart draws labelled series against the epoch axis into an image file. The
// image format follows the extension of Path.
type Chart struct {
	Path   string
	Title  string
	Width  vg.Length
	Height vg.Length
}

// Plot renders series, which must all have the same length, with one legend
// entry per label.
func (c Chart) Plot(labels []string, series [][]float64) error {
	if c.Path == "" {
		return errors.New("chart: no output path")
	}
	if len(labels) != len(series) {
		return fmt.Errorf("chart: %d labels for %d series", len(labels), len(series))
	}
	for i, s := range series {
		if len(s) != len(series[0]) {
			return fmt.Errorf("chart: series %q has %d points, want %d", labels[i], len(s), len(series[0]))
		}
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = "epoch"
	p.Add(plotter.NewGrid())

	args := make([]interface{}, 0, 2*len(series))
	for i, s := range series {
		pts := make(plotter.XYs, len(s))
		for j, v := range s {
			pts[j].X = float64(j + 1)
			pts[j].Y = v
		}
		args = append(args, labels[i], pts)
	}
	if err := plotutil.AddLinePoints(p, args...); err != nil {
		return fmt.Errorf("chart: %w", err)
	}

	width, height := c.Width, c.Height
	if width <= 0 {
		width = 8 * vg.Inch
	}
	if height <= 0 {
		height = 5 * vg.Inch
	}
	if err := p.Save(width, height, c.Path); err != nil {
		return fmt.Errorf("chart: save %s: %w", c.Path, err)
	}
	return nil
}
