package analytic

import (
	"math"
	"math/cmplx"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"github.com/bob-anderson-ok/NRMmodel/mask"
	"gonum.org/v1/gonum/mat"
)

// Phasor is the image plane contribution of a point source at one hole.
//
// (u, v) is the grid offset from the PSF center in oversampled pixels, hole
// is in meters, piston is optical path in meters and pitch is radians per
// oversampled pixel. The negative exponent and the division by wavelength set
// the fringe orientation and frequency.
func Phasor(u, v float64, hole mask.Hole, wavelength, piston, pitch float64, tr affine.Transform) complex128 {
	up, vp := tr.DistortForward(u, v)
	waves := (pitch*hole.X*up+pitch*hole.Y*vp)/wavelength + piston/wavelength
	return cmplx.Exp(complex(0, -2*math.Pi*waves)) * tr.DistortPhase(u, v)
}

// ComplexFringeField sums the phasors of all holes at every grid point,
// relative to center. pistons has one entry per hole; nil means no piston
// error.
func ComplexFringeField(s Shape, center Point, holes mask.Geometry, pistons []float64, wavelength, pitch float64, tr affine.Transform) *mat.CDense {
	n := holes.Len()
	hs := holes.Holes()
	if pistons == nil {
		pistons = make([]float64, n)
	}
	return SampleComplex(s, func(row, col int) complex128 {
		u := float64(row) - center.Row
		v := float64(col) - center.Col
		var sum complex128
		for i := 0; i < n; i++ {
			sum += Phasor(u, v, hs[i], wavelength, pistons[i], pitch, tr)
		}
		return sum
	})
}
