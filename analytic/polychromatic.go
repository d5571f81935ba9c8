package analytic

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"github.com/bob-anderson-ok/NRMmodel/mask"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Polychromatic returns the weighted sum of monochromatic PSFs over a
// spectrum. Wavelengths are evaluated concurrently but summed in spectrum
// order, so the result does not depend on scheduling.
func (s *Synthesizer) Polychromatic(ctx context.Context, g GridSpec, holes mask.Geometry, diameter float64, spectrum []mask.SpectralSample, pistons []float64, tr affine.Transform, mode PSFMode) (*mat.Dense, error) {
	if len(spectrum) == 0 {
		return nil, ErrEmptySpectrum
	}
	for i, smp := range spectrum {
		if !(smp.Weight >= 0) {
			return nil, fmt.Errorf("%w: sample %d weight %g", ErrInvalidOptics, i, smp.Weight)
		}
	}

	start := time.Now()
	slices := make([]*mat.Dense, len(spectrum))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for i, smp := range spectrum {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := s.PSF(g, holes, diameter, smp.Wavelength, pistons, tr, mode)
			if err != nil {
				return fmt.Errorf("wavelength %g: %w", smp.Wavelength, err)
			}
			slices[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	shape := g.Shape()
	sum := make([]float64, shape.Rows*shape.Cols)
	for i, img := range slices {
		floats.AddScaled(sum, spectrum[i].Weight, img.RawMatrix().Data)
	}
	s.emit(fmt.Sprintf("polychromatic:%d", len(spectrum)), g, spectrum[len(spectrum)/2].Wavelength, holes.Len(), tr, start)
	return mat.NewDense(shape.Rows, shape.Cols, sum), nil
}

// Polychromatic evaluates with the default Synthesizer.
func Polychromatic(ctx context.Context, g GridSpec, holes mask.Geometry, diameter float64, spectrum []mask.SpectralSample, pistons []float64, tr affine.Transform, mode PSFMode) (*mat.Dense, error) {
	return defaultSynthesizer.Polychromatic(ctx, g, holes, diameter, spectrum, pistons, tr, mode)
}
