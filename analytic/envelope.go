package analytic

import (
	"fmt"
	"math"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"gonum.org/v1/gonum/mat"
)

// ApertureShape selects the single-hole diffraction envelope.
type ApertureShape int

const (
	Circle ApertureShape = iota
	Hexagon
)

func (a ApertureShape) String() string {
	switch a {
	case Circle:
		return "circ"
	case Hexagon:
		return "hex"
	}
	return fmt.Sprintf("ApertureShape(%d)", int(a))
}

// ParseApertureShape accepts "circ"/"circle" and "hex"/"hexagon".
func ParseApertureShape(s string) (ApertureShape, error) {
	switch s {
	case "circ", "circle":
		return Circle, nil
	case "hex", "hexagon":
		return Hexagon, nil
	}
	return 0, fmt.Errorf("%w: %q (choices: circ, hex)", ErrUnsupportedApertureShape, s)
}

// ApertureKernel evaluates the complex amplitude of one aperture's
// diffraction pattern over a grid. center is in oversampled pixels, diameter
// and wavelength in meters, pitch in radians per oversampled pixel.
// Implementations must return a matrix of exactly the requested shape.
type ApertureKernel interface {
	Evaluate(s Shape, center Point, diameter, wavelength, pitch float64, tr affine.Transform) *mat.CDense
}

// ApertureKernelFunc adapts a plain function to ApertureKernel.
type ApertureKernelFunc func(s Shape, center Point, diameter, wavelength, pitch float64, tr affine.Transform) *mat.CDense

// Evaluate calls f.
func (f ApertureKernelFunc) Evaluate(s Shape, center Point, diameter, wavelength, pitch float64, tr affine.Transform) *mat.CDense {
	return f(s, center, diameter, wavelength, pitch, tr)
}

// Jinc is 2*J1(rho)/rho with peak value 1 at rho = 0.
func Jinc(rho float64) float64 {
	if rho == 0 {
		return 1
	}
	return 2 * math.J1(rho) / rho
}

// CircularEnvelope returns the Airy amplitude of a circular hole of the given
// diameter, centered on center and distorted by tr. The magnitude is real and
// peaks at exactly 1; the affine phase term is applied so the envelope stays
// phase-consistent with the fringe field.
func CircularEnvelope(s Shape, center Point, diameter, wavelength, pitch float64, tr affine.Transform) *mat.CDense {
	scale := math.Pi * (diameter / wavelength) * pitch
	return SampleComplex(s, func(row, col int) complex128 {
		u := float64(row) - center.Row
		v := float64(col) - center.Col
		up, vp := tr.DistortForward(u, v)
		rho := scale * math.Hypot(up, vp)
		return complex(Jinc(rho), 0) * tr.DistortPhase(u, v)
	})
}

// EnvelopeIntensity is |asf|^2 of a complex envelope.
func EnvelopeIntensity(asf *mat.CDense) *mat.Dense {
	return intensity(asf)
}

func intensity(a *mat.CDense) *mat.Dense {
	r, c := a.Dims()
	raw := a.RawCMatrix()
	data := make([]float64, r*c)
	for i := 0; i < r; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+c]
		for j, z := range row {
			data[i*c+j] = real(z)*real(z) + imag(z)*imag(z)
		}
	}
	return mat.NewDense(r, c, data)
}

// multiplyField returns the element-wise product a*b. Grids combined here are
// always built from the same GridSpec, so differing sizes are a bug.
func multiplyField(a, b *mat.CDense) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		panic(fmt.Errorf("%w: %dx%d vs %dx%d", ErrGridShapeMismatch, ar, ac, br, bc))
	}
	ra, rb := a.RawCMatrix(), b.RawCMatrix()
	data := make([]complex128, ar*ac)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			data[i*ac+j] = ra.Data[i*ra.Stride+j] * rb.Data[i*rb.Stride+j]
		}
	}
	return mat.NewCDense(ar, ac, data)
}
