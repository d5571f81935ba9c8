package affine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityIsExact(t *testing.T) {
	id := Identity()
	require.True(t, id.Valid())
	assert.Equal(t, 1.0, id.Determinant())

	for _, p := range [][2]float64{{0, 0}, {1, 2}, {-3.5, 7.25}, {1e6, -1e-6}} {
		u, v := id.DistortForward(p[0], p[1])
		assert.Equal(t, p[0], u)
		assert.Equal(t, p[1], v)
		assert.Equal(t, complex(1, 0), id.DistortPhase(p[0], p[1]))
	}
}

func TestDegenerateTransformRejected(t *testing.T) {
	_, err := New(1, 1, 1, 1, 0, 0, "flat")
	require.ErrorIs(t, err, ErrDegenerateTransform)

	_, err = Scale(0, 2)
	require.ErrorIs(t, err, ErrDegenerateTransform)

	assert.Panics(t, func() { MustNew(2, 3, 6, 1, 0, 0, "") })
}

func TestDistortForwardFormula(t *testing.T) {
	tr, err := New(1.1, 0.9, 0.05, -0.02, 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, "Affine", tr.Name())

	delta := 1.1*0.9 - 0.05*-0.02
	u, v := tr.DistortForward(3, -2)
	assert.InDelta(t, (0.9*3-(-0.02)*-2)/delta, u, 1e-15)
	assert.InDelta(t, (-0.05*3+1.1*-2)/delta, v, 1e-15)
}

func TestRotationPreservesLength(t *testing.T) {
	tr := Rotation(0.3)
	assert.InDelta(t, 1.0, tr.Determinant(), 1e-15)
	u, v := tr.DistortForward(3, 4)
	assert.InDelta(t, 5.0, math.Hypot(u, v), 1e-12)

	x, y := tr.Forward(1, 0)
	assert.InDelta(t, math.Cos(0.3), x, 1e-15)
	assert.InDelta(t, math.Sin(0.3), y, 1e-15)
}

func TestForwardReverseRoundTrip(t *testing.T) {
	tr, err := New(1.02, 0.97, 0.01, -0.03, 0.2, -0.1, "pupil")
	require.NoError(t, err)
	x, y := tr.Forward(0.7, -1.3)
	bx, by := tr.Reverse(x, y)
	assert.InDelta(t, 0.7, bx, 1e-12)
	assert.InDelta(t, -1.3, by, 1e-12)
}

func TestDistortPhaseIsUnitMagnitude(t *testing.T) {
	tr, err := New(1, 1, 0, 0, 0.25, 0.5, "offset")
	require.NoError(t, err)
	assert.Equal(t, [2]float64{0.25, 0.5}, tr.PhaseVector())

	p := tr.DistortPhase(1, 0)
	assert.InDelta(t, 1.0, math.Hypot(real(p), imag(p)), 1e-15)
	// quarter turn
	assert.InDelta(t, 0.0, real(p), 1e-15)
	assert.InDelta(t, 1.0, imag(p), 1e-15)
}
