package analytic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Shape is the size of an oversampled image plane grid.
type Shape struct {
	Rows, Cols int
}

// Point is a location on the grid in oversampled pixel units, (row, col).
type Point struct {
	Row, Col float64
}

// RealFunc, ComplexFunc and PairFunc are the three payloads a grid can be
// sampled with. Each is called once per (row, col) index.
type (
	RealFunc    func(row, col int) float64
	ComplexFunc func(row, col int) complex128
	PairFunc    func(row, col int) (float64, float64)
)

// SampleReal returns the matrix whose (row, col) element is fn(row, col).
func SampleReal(s Shape, fn RealFunc) *mat.Dense {
	data := make([]float64, s.Rows*s.Cols)
	for r := 0; r < s.Rows; r++ {
		off := r * s.Cols
		for c := 0; c < s.Cols; c++ {
			data[off+c] = fn(r, c)
		}
	}
	return mat.NewDense(s.Rows, s.Cols, data)
}

// SampleComplex returns the complex matrix whose (row, col) element is
// fn(row, col).
func SampleComplex(s Shape, fn ComplexFunc) *mat.CDense {
	data := make([]complex128, s.Rows*s.Cols)
	for r := 0; r < s.Rows; r++ {
		off := r * s.Cols
		for c := 0; c < s.Cols; c++ {
			data[off+c] = fn(r, c)
		}
	}
	return mat.NewCDense(s.Rows, s.Cols, data)
}

// SamplePair evaluates fn once per grid point and splits the two results into
// separate matrices.
func SamplePair(s Shape, fn PairFunc) (*mat.Dense, *mat.Dense) {
	first := make([]float64, s.Rows*s.Cols)
	second := make([]float64, s.Rows*s.Cols)
	for r := 0; r < s.Rows; r++ {
		off := r * s.Cols
		for c := 0; c < s.Cols; c++ {
			first[off+c], second[off+c] = fn(r, c)
		}
	}
	return mat.NewDense(s.Rows, s.Cols, first), mat.NewDense(s.Rows, s.Cols, second)
}

// AxisConvention decides how the (x, y) PSF offset maps onto grid (row, col).
//
// Whatever the convention, the grid offset u = row - center.Row pairs with
// pupil x and v = col - center.Col pairs with pupil y in every sampling
// function (envelope, fringe field and harmonic basis alike).
type AxisConvention int

const (
	// AxesSwapped adds offset y to the row center and offset x to the column
	// center. This reproduces earlier model outputs.
	AxesSwapped AxisConvention = iota
	// AxesDirect adds offset x to the row center and offset y to the column
	// center.
	AxesDirect
)

func (a AxisConvention) String() string {
	switch a {
	case AxesSwapped:
		return "swapped"
	case AxesDirect:
		return "direct"
	}
	return fmt.Sprintf("AxisConvention(%d)", int(a))
}

// ParseAxisConvention accepts "swapped" and "direct"; an empty string selects
// AxesSwapped.
func ParseAxisConvention(s string) (AxisConvention, error) {
	switch s {
	case "", "swapped":
		return AxesSwapped, nil
	case "direct":
		return AxesDirect, nil
	}
	return 0, fmt.Errorf("%w: unknown axis convention %q", ErrInvalidGrid, s)
}

// GridSpec describes the oversampled image plane.
type GridSpec struct {
	FOV           int        // field of view, detector pixels
	Oversample    int        // simulation pixels per detector pixel
	DetectorPitch float64    // detector pixel pitch, radians
	Offset        [2]float64 // PSF center offset (x, y), detector pixels
	Axes          AxisConvention
}

// Validate checks the grid parameters.
func (g GridSpec) Validate() error {
	switch {
	case g.FOV < 1:
		return fmt.Errorf("%w: fov %d", ErrInvalidGrid, g.FOV)
	case g.Oversample < 1:
		return fmt.Errorf("%w: oversample %d", ErrInvalidGrid, g.Oversample)
	case !(g.DetectorPitch > 0) || math.IsInf(g.DetectorPitch, 0):
		return fmt.Errorf("%w: detector pitch %g", ErrInvalidGrid, g.DetectorPitch)
	case math.IsNaN(g.Offset[0]) || math.IsNaN(g.Offset[1]):
		return fmt.Errorf("%w: offset %v", ErrInvalidGrid, g.Offset)
	case g.Axes != AxesSwapped && g.Axes != AxesDirect:
		return fmt.Errorf("%w: %v", ErrInvalidGrid, g.Axes)
	}
	return nil
}

// Shape is the oversampled grid size, (oversample*fov) square.
func (g GridSpec) Shape() Shape {
	n := g.Oversample * g.FOV
	return Shape{Rows: n, Cols: n}
}

// Pitch is the oversampled pixel pitch in radians.
func (g GridSpec) Pitch() float64 {
	return g.DetectorPitch / float64(g.Oversample)
}

// Center is the PSF center in oversampled pixels: the grid center point plus
// the oversampled offset, routed through the axis convention.
func (g GridSpec) Center() Point {
	s := g.Shape()
	base := CenterPoint(s)
	ox := float64(g.Oversample) * g.Offset[0]
	oy := float64(g.Oversample) * g.Offset[1]
	if g.Axes == AxesDirect {
		return Point{Row: base.Row + ox, Col: base.Col + oy}
	}
	return Point{Row: base.Row + oy, Col: base.Col + ox}
}

// CenterPoint is the geometric center of a grid: the central pixel for odd
// sizes, the shared pixel corner for even sizes.
func CenterPoint(s Shape) Point {
	return Point{Row: 0.5*float64(s.Rows) - 0.5, Col: 0.5*float64(s.Cols) - 0.5}
}
