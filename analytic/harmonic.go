package analytic

import (
	"fmt"
	"math"
	"time"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"github.com/bob-anderson-ok/NRMmodel/mask"
	"gonum.org/v1/gonum/mat"
)

// HarmonicFringes returns the cosine and sine fringe images of one baseline:
//
//	cos = 2 cos(2 pi pitch (u' bx + v' by) / lambda)
//	sin = 2 sin(2 pi pitch (u' bx + v' by) / lambda)
//
// where (u', v') is the affine-distorted grid offset from center and
// (bx, by) the baseline vector in meters.
func HarmonicFringes(s Shape, center Point, baseline [2]float64, wavelength, pitch float64, tr affine.Transform) (cos, sin *mat.Dense) {
	k := 2 * math.Pi * pitch / wavelength
	return SamplePair(s, func(row, col int) (float64, float64) {
		up, vp := tr.DistortForward(float64(row)-center.Row, float64(col)-center.Col)
		sn, cs := math.Sincos(k * (up*baseline[0] + vp*baseline[1]))
		return 2 * cs, 2 * sn
	})
}

// NumBasisTerms is 1 + 2*C(n, 2): the flat term and a cosine/sine pair per
// baseline.
func NumBasisTerms(n int) int {
	return 1 + n*(n-1)
}

// ModelArray returns the envelope intensity |asf|^2 for the aperture shape and
// the fringe basis. The basis starts with a flat image of value N (the number
// of holes) followed by cos, sin for each baseline in mask.Baselines order.
// Fitting code relies on that column order.
func (s *Synthesizer) ModelArray(g GridSpec, holes mask.Geometry, diameter, wavelength float64, shape ApertureShape, tr affine.Transform) (*mat.Dense, []*mat.Dense, error) {
	k, err := s.kernel(shape)
	if err != nil {
		return nil, nil, err
	}
	if err := validate(g, holes, wavelength, tr); err != nil {
		return nil, nil, err
	}
	if !(diameter > 0) {
		return nil, nil, fmt.Errorf("%w: aperture size %g", ErrInvalidOptics, diameter)
	}

	grid, center, pitch := g.Shape(), g.Center(), g.Pitch()

	start := time.Now()
	envelope := intensity(s.evaluate(k, grid, center, diameter, wavelength, pitch, tr))
	s.emit("model envelope:"+shape.String(), g, wavelength, holes.Len(), tr, start)

	start = time.Now()
	basis := make([]*mat.Dense, 0, NumBasisTerms(holes.Len()))
	flat := float64(holes.Len())
	basis = append(basis, SampleReal(grid, func(int, int) float64 { return flat }))
	for _, b := range holes.Baselines() {
		cos, sin := HarmonicFringes(grid, center, b.Vector, wavelength, pitch, tr)
		basis = append(basis, cos, sin)
	}
	s.emit("model basis", g, wavelength, holes.Len(), tr, start)

	return envelope, basis, nil
}

// ModelArray evaluates with the default Synthesizer.
func ModelArray(g GridSpec, holes mask.Geometry, diameter, wavelength float64, shape ApertureShape, tr affine.Transform) (*mat.Dense, []*mat.Dense, error) {
	return defaultSynthesizer.ModelArray(g, holes, diameter, wavelength, shape, tr)
}
