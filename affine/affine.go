// Package affine provides the 2D affine distortion applied to every sampling
// function of the analytic fringe model.
//
// A Transform is defined by its action on transform-domain (image plane)
// coordinates. For pupil coefficients (mx, my, sx, sy) and pupil offset
// (xo, yo) the image plane sees
//
//	u' = ( my*u - sy*v) / Delta
//	v' = (-sx*u + mx*v) / Delta
//
// with Delta = mx*my - sx*sy, multiplied by a unit phase term generated by the
// offset. The identity transform leaves coordinates unchanged and has a phase
// term of exactly 1.
package affine

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Transform is immutable once constructed. The zero value is not usable; build
// transforms with New or one of the named constructors.
type Transform struct {
	mx, my float64 // scale terms
	sx, sy float64 // shear terms
	xo, yo float64 // pupil offset

	delta  float64
	phase  [2]float64
	name   string
	usable bool
}

// New builds a Transform from pupil coefficients and offset.
// It fails with ErrDegenerateTransform when mx*my - sx*sy is zero.
func New(mx, my, sx, sy, xo, yo float64, name string) (Transform, error) {
	delta := mx*my - sx*sy
	if delta == 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return Transform{}, fmt.Errorf("%w: mx=%g my=%g sx=%g sy=%g", ErrDegenerateTransform, mx, my, sx, sy)
	}
	if name == "" {
		name = "Affine"
	}
	return Transform{
		mx: mx, my: my,
		sx: sx, sy: sy,
		xo: xo, yo: yo,
		delta: delta,
		phase: [2]float64{
			(my*xo - sx*yo) / delta,
			(mx*yo - sy*xo) / delta,
		},
		name:   name,
		usable: true,
	}, nil
}

// MustNew is like New but panics on a degenerate transform. Intended for
// package-level presets and tests.
func MustNew(mx, my, sx, sy, xo, yo float64, name string) Transform {
	t, err := New(mx, my, sx, sy, xo, yo, name)
	if err != nil {
		panic(err)
	}
	return t
}

// Identity returns the unit transform.
func Identity() Transform {
	return MustNew(1, 1, 0, 0, 0, 0, "Ideal")
}

// Rotation returns a rotation by theta radians about the origin (CCW for
// positive theta).
func Rotation(theta float64) Transform {
	s, c := math.Sincos(theta)
	return MustNew(c, c, -s, s, 0, 0, fmt.Sprintf("Rot%.4fd", theta*180/math.Pi))
}

// Scale returns an anamorphic magnification transform.
func Scale(mx, my float64) (Transform, error) {
	return New(mx, my, 0, 0, 0, 0, fmt.Sprintf("Mag%.4fx%.4f", mx, my))
}

// Shear returns a pure shear transform.
func Shear(sx, sy float64) (Transform, error) {
	return New(1, 1, sx, sy, 0, 0, fmt.Sprintf("Shear%.4fx%.4f", sx, sy))
}

// Valid reports whether t was produced by a constructor.
func (t Transform) Valid() bool { return t.usable }

// Name is the human-readable label of the transform.
func (t Transform) Name() string { return t.name }

// Determinant returns Delta = mx*my - sx*sy.
func (t Transform) Determinant() float64 { return t.delta }

// Coefficients returns (mx, my, sx, sy, xo, yo).
func (t Transform) Coefficients() (mx, my, sx, sy, xo, yo float64) {
	return t.mx, t.my, t.sx, t.sy, t.xo, t.yo
}

// PhaseVector returns the 2-vector dotted with image plane coordinates to
// form the offset-induced phase.
func (t Transform) PhaseVector() [2]float64 { return t.phase }

// DistortForward maps an image plane coordinate through the inverse linear
// map. This is the coordinate every analytic sampling function evaluates at.
func (t Transform) DistortForward(u, v float64) (float64, float64) {
	return (t.my*u - t.sy*v) / t.delta, (-t.sx*u + t.mx*v) / t.delta
}

// DistortPhase returns the unit-magnitude phase factor at image plane offset
// (u, v).
func (t Transform) DistortPhase(u, v float64) complex128 {
	arg := t.phase[0]*u + t.phase[1]*v
	if arg == 0 {
		return 1
	}
	return cmplx.Exp(complex(0, 2*math.Pi*arg))
}

// Forward maps a pupil point through the transform.
func (t Transform) Forward(x, y float64) (float64, float64) {
	return t.mx*x + t.sx*y + t.xo, t.my*y + t.sy*x + t.yo
}

// Reverse undoes Forward.
func (t Transform) Reverse(x, y float64) (float64, float64) {
	x -= t.xo
	y -= t.yo
	return (t.my*x - t.sx*y) / t.delta, (t.mx*y - t.sy*x) / t.delta
}

func (t Transform) String() string {
	return fmt.Sprintf("%s: mx=%.4f my=%.4f sx=%.4f sy=%.4f xo=%.4f yo=%.4f",
		t.name, t.mx, t.my, t.sx, t.sy, t.xo, t.yo)
}
