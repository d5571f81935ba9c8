package main

import (
	"errors"
	"image/color"
	"math"

	"github.com/bob-anderson-ok/NRMmodel/mask"
	"github.com/bob-anderson-ok/NRMmodel/profile"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// MakeThroughputPlot plots relative weight against wavelength in microns and
// saves it to filename.
func MakeThroughputPlot(spectrum []mask.SpectralSample, source, filename string) error {
	if len(spectrum) == 0 {
		return errors.New("no spectral samples to plot")
	}
	p := plot.New()
	profile.SetLiberationFonts(p)

	p.Title.Text = "Spectral weights from: " + source
	p.X.Label.Text = "Wavelength (microns)"
	p.Y.Label.Text = "Relative weight"

	p.Y.Tick.Marker = profile.StepTicks{Step: 0.1, Format: "%.2f"}
	p.Add(plotter.NewGrid()) // grid + ticks

	p.Y.Min = 0.0
	p.Y.Max = 1.1

	// Find the max weight - we will use that to calculate relative weight
	var maxWeight = 0.0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range spectrum {
		maxWeight = math.Max(maxWeight, s.Weight)
		lo = math.Min(lo, s.Wavelength*1e6)
		hi = math.Max(hi, s.Wavelength*1e6)
	}
	if maxWeight == 0 {
		maxWeight = 1
	}
	if hi > lo {
		p.X.Tick.Marker = profile.StepTicks{Step: (hi - lo) / 10, Format: "%.3f"}
	}

	// Data
	n := len(spectrum)
	pts := make(plotter.XYs, n)
	for i, s := range spectrum {
		pts[i].X = s.Wavelength * 1e6
		pts[i].Y = s.Weight / maxWeight
	}

	linePoints, scatterPoints, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	linePoints.Color = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	linePoints.Width = vg.Points(1)

	scatterPoints.Shape = draw.CircleGlyph{}
	scatterPoints.Radius = vg.Points(2)
	scatterPoints.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}

	p.Add(linePoints, scatterPoints)

	hpts := plotter.XYs{
		{X: pts[0].X, Y: 0.0},
		{X: pts[n-1].X, Y: 0.0},
	}

	hline, err := plotter.NewLine(hpts)
	if err != nil {
		return err
	}

	p.Add(hline)

	hline.Dashes = []vg.Length{
		vg.Points(6), // dash length
		vg.Points(4), // gap length
	}
	hline.Color = color.RGBA{R: 0, G: 0, B: 0, A: 255} // black

	return p.Save(8*vg.Inch, 4*vg.Inch, filename)
}
