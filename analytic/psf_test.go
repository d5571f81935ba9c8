package analytic

import (
	"math"
	"testing"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"github.com/bob-anderson-ok/NRMmodel/mask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func threeHoles(t *testing.T) mask.Geometry {
	t.Helper()
	g, err := mask.FromPairs([][2]float64{{0, 0}, {1, 0}, {0, 1}})
	require.NoError(t, err)
	return g
}

func TestPhasorAtOrigin(t *testing.T) {
	h := mask.Hole{X: 1.5, Y: -0.5}
	assert.Equal(t, complex(1, 0), Phasor(0, 0, h, 1e-6, 0, 1e-7, affine.Identity()))

	half := Phasor(0, 0, h, 1e-6, 0.5e-6, 1e-7, affine.Identity())
	assert.InDelta(t, -1.0, real(half), 1e-12)
	assert.InDelta(t, 0.0, imag(half), 1e-12)
}

func TestFringeFieldCenterSumsHoles(t *testing.T) {
	holes := mask.NIRISS()
	g := GridSpec{FOV: 5, Oversample: 1, DetectorPitch: mask.MasToRad(65)}
	field := ComplexFringeField(g.Shape(), g.Center(), holes, make([]float64, holes.Len()), 4.3e-6, g.Pitch(), affine.Identity())
	assert.Equal(t, complex(7, 0), field.At(2, 2))
}

func TestPSFEndToEnd(t *testing.T) {
	g := GridSpec{FOV: 8, Oversample: 1, DetectorPitch: 1e-7}
	img, err := PSF(g, threeHoles(t), 0.5, 1e-6, nil, affine.Identity(), CircleWithFringe)
	require.NoError(t, err)

	r, c := img.Dims()
	require.Equal(t, 8, r)
	require.Equal(t, 8, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.GreaterOrEqual(t, img.At(i, j), 0.0)
		}
	}

	row, col, peak := Peak(img)
	assert.LessOrEqual(t, math.Abs(float64(row-4)), 1.0)
	assert.LessOrEqual(t, math.Abs(float64(col-4)), 1.0)
	assert.LessOrEqual(t, peak, 9.0)
}

func TestPSFCircleOnlyIsEnvelopeIntensity(t *testing.T) {
	g := GridSpec{FOV: 6, Oversample: 2, DetectorPitch: 2e-7, Offset: [2]float64{0.25, -0.5}}
	tr := affine.MustNew(1, 1, 0, 0, 0.1, 0.2, "phase")

	img, err := PSF(g, mask.NIRISS(), 0.8, 3.8e-6, nil, tr, CircleOnly)
	require.NoError(t, err)

	asf, err := New().Envelope(g, Circle, 0.8, 3.8e-6, tr)
	require.NoError(t, err)
	want := EnvelopeIntensity(asf)

	r, c := img.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.GreaterOrEqual(t, img.At(i, j), 0.0)
			z := asf.At(i, j)
			jinc := Jinc(math.Pi * (0.8 / 3.8e-6) * g.Pitch() * math.Hypot(float64(i)-g.Center().Row, float64(j)-g.Center().Col))
			assert.InDelta(t, jinc*jinc, real(z)*real(z)+imag(z)*imag(z), 1e-12)
		}
	}
	assert.True(t, mat.EqualApprox(img, want, 1e-15))
}

func TestPSFIsIdempotent(t *testing.T) {
	g := GridSpec{FOV: 9, Oversample: 2, DetectorPitch: mask.MasToRad(65)}
	tr := affine.Rotation(0.1)
	pistons := []float64{0, 1e-8, -2e-8, 3e-8, 0, 5e-9, -1e-8}

	a, err := PSF(g, mask.NIRISS(), 0.8, 4.3e-6, pistons, tr, HexWithFringe)
	require.NoError(t, err)
	b, err := PSF(g, mask.NIRISS(), 0.8, 4.3e-6, pistons, tr, HexWithFringe)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestZeroPistonsMatchNoPistons(t *testing.T) {
	g := GridSpec{FOV: 7, Oversample: 1, DetectorPitch: mask.MasToRad(65)}
	pistons := []float64{1e-8, 2e-8, 3e-8, 4e-8, 5e-8, 6e-8, 7e-8}
	for i := range pistons {
		pistons[i] *= 0
	}

	a, err := PSF(g, mask.NIRISS(), 0.8, 4.8e-6, nil, affine.Identity(), CircleWithFringe)
	require.NoError(t, err)
	b, err := PSF(g, mask.NIRISS(), 0.8, 4.8e-6, pistons, affine.Identity(), CircleWithFringe)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestPSFRejectsBadInput(t *testing.T) {
	g := GridSpec{FOV: 4, Oversample: 1, DetectorPitch: 1e-7}
	holes := threeHoles(t)

	_, err := PSF(g, holes, 0.5, 1e-6, nil, affine.Identity(), PSFMode(42))
	assert.ErrorIs(t, err, ErrInvalidShapeMode)

	_, err = PSF(g, holes, 0.5, 1e-6, []float64{0, 0}, affine.Identity(), CircleWithFringe)
	assert.ErrorIs(t, err, ErrPistonCount)

	_, err = PSF(g, holes, 0, 1e-6, nil, affine.Identity(), HexOnly)
	assert.ErrorIs(t, err, ErrInvalidOptics)

	_, err = PSF(g, holes, 0, 1e-6, nil, affine.Identity(), FringeOnly)
	assert.NoError(t, err)

	_, err = PSF(g, holes, 0.5, -1e-6, nil, affine.Identity(), FringeOnly)
	assert.ErrorIs(t, err, ErrInvalidOptics)

	_, err = PSF(GridSpec{}, holes, 0.5, 1e-6, nil, affine.Identity(), CircleOnly)
	assert.ErrorIs(t, err, ErrInvalidGrid)

	_, err = PSF(g, mask.Geometry{}, 0.5, 1e-6, nil, affine.Identity(), CircleOnly)
	assert.ErrorIs(t, err, mask.ErrTooFewHoles)
}

func TestParsePSFMode(t *testing.T) {
	for i, name := range []string{"circ", "circonly", "hex", "hexonly", "fringeonly"} {
		m, err := ParsePSFMode(name)
		require.NoError(t, err)
		assert.Equal(t, PSFMode(i), m)
		assert.Equal(t, name, m.String())
	}
	m, err := ParsePSFMode("hex_with_fringe")
	require.NoError(t, err)
	assert.Equal(t, HexWithFringe, m)

	_, err = ParsePSFMode("square")
	assert.ErrorIs(t, err, ErrInvalidShapeMode)
}

func TestObserverAndHexKernelInjection(t *testing.T) {
	var stages []string
	flat := ApertureKernelFunc(func(s Shape, _ Point, _, _, _ float64, _ affine.Transform) *mat.CDense {
		return SampleComplex(s, func(int, int) complex128 { return 1 })
	})
	syn := New(
		WithHexKernel(flat),
		WithObserver(ObserverFunc(func(e Event) { stages = append(stages, e.Stage) })),
	)

	g := GridSpec{FOV: 3, Oversample: 2, DetectorPitch: 1e-7}
	img, err := syn.PSF(g, threeHoles(t), 0.5, 1e-6, nil, affine.Identity(), HexOnly)
	require.NoError(t, err)
	r, c := img.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.Equal(t, 1.0, img.At(i, j))
		}
	}
	assert.Equal(t, []string{"envelope:hex"}, stages)

	stages = nil
	_, err = syn.PSF(g, threeHoles(t), 0.5, 1e-6, nil, affine.Identity(), CircleWithFringe)
	require.NoError(t, err)
	assert.Equal(t, []string{"envelope:circ", "fringe"}, stages)

	assert.Panics(t, func() { WithHexKernel(nil) })
}

func requireShapeMismatchPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, ErrGridShapeMismatch)
	}()
	f()
}

func TestWrongSizedKernelPanics(t *testing.T) {
	tiny := ApertureKernelFunc(func(Shape, Point, float64, float64, float64, affine.Transform) *mat.CDense {
		return mat.NewCDense(2, 2, nil)
	})
	syn := New(WithHexKernel(tiny))
	g := GridSpec{FOV: 4, Oversample: 1, DetectorPitch: 1e-7}

	requireShapeMismatchPanic(t, func() {
		_, _ = syn.PSF(g, mask.NIRISS(), 0.8, 4.3e-6, nil, affine.Identity(), HexOnly)
	})
	requireShapeMismatchPanic(t, func() {
		_, _ = syn.PSF(g, mask.NIRISS(), 0.8, 4.3e-6, nil, affine.Identity(), HexWithFringe)
	})
	requireShapeMismatchPanic(t, func() {
		_, _, _ = syn.ModelArray(g, mask.NIRISS(), 0.8, 4.3e-6, Hexagon, affine.Identity())
	})
	requireShapeMismatchPanic(t, func() {
		_, _ = syn.Envelope(g, Hexagon, 0.8, 4.3e-6, affine.Identity())
	})

	// the circular kernel is unaffected
	img, err := syn.PSF(g, mask.NIRISS(), 0.8, 4.3e-6, nil, affine.Identity(), CircleOnly)
	require.NoError(t, err)
	r, c := img.Dims()
	assert.Equal(t, []int{4, 4}, []int{r, c})
}

func TestFringeFieldNilPistons(t *testing.T) {
	holes := mask.NIRISS()
	g := GridSpec{FOV: 5, Oversample: 1, DetectorPitch: mask.MasToRad(65)}
	zero := ComplexFringeField(g.Shape(), g.Center(), holes, make([]float64, holes.Len()), 4.3e-6, g.Pitch(), affine.Identity())
	none := ComplexFringeField(g.Shape(), g.Center(), holes, nil, 4.3e-6, g.Pitch(), affine.Identity())
	assert.True(t, mat.CEqual(zero, none))
	assert.Equal(t, complex(7, 0), none.At(2, 2))
}

func TestPistonsChangePSF(t *testing.T) {
	g := GridSpec{FOV: 9, Oversample: 1, DetectorPitch: mask.MasToRad(65)}
	pistons := []float64{1e-7, 0, 0, 0, 0, 0, 0}

	clean, err := PSF(g, mask.NIRISS(), 0.8, 4.3e-6, nil, affine.Identity(), HexWithFringe)
	require.NoError(t, err)
	perturbed, err := PSF(g, mask.NIRISS(), 0.8, 4.3e-6, pistons, affine.Identity(), HexWithFringe)
	require.NoError(t, err)

	assert.False(t, mat.EqualApprox(clean, perturbed, 1e-6))
	assert.InDelta(t, 49.0, clean.At(4, 4), 1e-9)
	assert.Less(t, perturbed.At(4, 4), clean.At(4, 4))

	phi := 2 * math.Pi * 1e-7 / 4.3e-6
	want := cmplxAbs2(complex(6+math.Cos(phi), -math.Sin(phi)))
	assert.InDelta(t, want, perturbed.At(4, 4), 1e-9)
}

func TestUniformPistonLeavesPSFUnchanged(t *testing.T) {
	g := GridSpec{FOV: 9, Oversample: 2, DetectorPitch: mask.MasToRad(65), Offset: [2]float64{0.3, -0.2}}
	uniform := make([]float64, 7)
	for i := range uniform {
		uniform[i] = 3.7e-7
	}
	tr := affine.Rotation(0.2)

	clean, err := PSF(g, mask.NIRISS(), 0.8, 4.3e-6, nil, tr, HexWithFringe)
	require.NoError(t, err)
	shifted, err := PSF(g, mask.NIRISS(), 0.8, 4.3e-6, uniform, tr, HexWithFringe)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(clean, shifted, 1e-9))
}

func cmplxAbs2(z complex128) float64 {
	return real(z)*real(z) + imag(z)*imag(z)
}
