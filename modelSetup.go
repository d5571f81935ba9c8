package main

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"github.com/bob-anderson-ok/NRMmodel/analytic"
	"github.com/bob-anderson-ok/NRMmodel/mask"
	"gonum.org/v1/gonum/floats"
)

const degToRad = math.Pi / 180

// buildMask returns the hole geometry selected by the run, rotated by
// mask_rotation_degrees.
func buildMask(run *ModelRun) (mask.Geometry, error) {
	var g mask.Geometry
	switch run.MaskName {
	case "niriss":
		g = mask.NIRISS()
	default:
		var err error
		g, err = mask.FromPairs(run.HoleCenters)
		if err != nil {
			return mask.Geometry{}, err
		}
	}
	if run.MaskRotationDegrees != 0 {
		g = g.Rotate(run.MaskRotationDegrees * degToRad)
	}
	return g, nil
}

// maskSummary names the mask and counts its closure observables.
func maskSummary(name string, holes mask.Geometry) string {
	return fmt.Sprintf("Mask %q: %d holes, %d baselines, %d closure triangles, %d closure quads",
		name, holes.Len(), holes.NumBaselines(), len(holes.Triangles()), len(holes.Quads()))
}

// buildAffine returns the pupil distortion. A non-zero rotation_degrees takes
// precedence over the magnification and shear coefficients.
func buildAffine(run *ModelRun) (affine.Transform, error) {
	a := run.Affine
	if !a.Given {
		return affine.Identity(), nil
	}
	if a.RotationDegrees != 0 {
		return affine.Rotation(a.RotationDegrees * degToRad), nil
	}
	return affine.New(a.Mx, a.My, a.Sx, a.Sy, a.Xo, a.Yo, "Custom")
}

func buildGrid(run *ModelRun) (analytic.GridSpec, error) {
	axes, err := analytic.ParseAxisConvention(run.AxisConvention)
	if err != nil {
		return analytic.GridSpec{}, err
	}
	g := analytic.GridSpec{
		FOV:           run.FOVPixels,
		Oversample:    run.Oversample,
		DetectorPitch: mask.MasToRad(run.PixelScaleMas),
		Offset:        run.PSFOffsetPixels,
		Axes:          axes,
	}
	return g, g.Validate()
}

// normalizeThroughput turns a [wavelength_m, weight] table into spectral
// samples whose weights sum to 1.
func normalizeThroughput(table [][2]float64) ([]mask.SpectralSample, error) {
	if len(table) == 0 {
		return nil, errors.New("throughput table is empty")
	}
	weights := make([]float64, len(table))
	out := make([]mask.SpectralSample, len(table))
	for i, pair := range table {
		if !(pair[0] > 0) {
			return nil, fmt.Errorf("throughput entry %d: wavelength %g is not positive", i, pair[0])
		}
		if pair[1] < 0 || math.IsNaN(pair[1]) {
			return nil, fmt.Errorf("throughput entry %d: weight %g is negative", i, pair[1])
		}
		weights[i] = pair[1]
		out[i].Wavelength = pair[0]
	}
	total := floats.Sum(weights)
	if !(total > 0) {
		return nil, errors.New("throughput weights sum to zero")
	}
	for i := range out {
		out[i].Weight = weights[i] / total
	}
	return out, nil
}

// buildSpectrum picks, in order of precedence, the throughput table, the
// named filter, and finally the single wavelength_m. The returned label
// names the source.
func buildSpectrum(run *ModelRun) ([]mask.SpectralSample, string, error) {
	switch {
	case len(run.Throughput) > 0:
		s, err := normalizeThroughput(run.Throughput)
		return s, run.PathToThroughputTable, err
	case run.Filter != "":
		f, err := mask.NIRISSFilter(run.Filter)
		if err != nil {
			return nil, "", err
		}
		return f.Bandpass(run.NumWavelengths), f.Name, nil
	case run.WavelengthM > 0:
		return mask.TophatBandpass(run.WavelengthM, 0, 1), fmt.Sprintf("%.4g m", run.WavelengthM), nil
	}
	return nil, "", errors.New("no wavelength, filter or throughput table given")
}

// meanWavelength is the weight-averaged wavelength of a spectrum.
func meanWavelength(spectrum []mask.SpectralSample) float64 {
	w := make([]float64, len(spectrum))
	lam := make([]float64, len(spectrum))
	for i, s := range spectrum {
		w[i], lam[i] = s.Weight, s.Wavelength
	}
	total := floats.Sum(w)
	if total == 0 {
		return 0
	}
	return floats.Dot(w, lam) / total
}

// readThroughputTable loads and normalizes the table named by the run.
func readThroughputTable(run *ModelRun) error {
	data, err := os.ReadFile(run.PathToThroughputTable)
	if err != nil {
		return err
	}
	table, err := parseArrayFormat(data)
	if err != nil {
		return err
	}
	if _, err := normalizeThroughput(table); err != nil {
		return err
	}
	run.Throughput = table
	return nil
}
