// Package mask describes non-redundant aperture mask geometry: the hole
// centers, and the baselines, closure triangles and closure quads formed from
// them.
package mask

import (
	"fmt"
	"math"
)

// Hole is the center of one sub-aperture in meters, projected on the primary.
type Hole struct {
	X float64
	Y float64
}

// Sub returns the vector h - o.
func (h Hole) Sub(o Hole) [2]float64 {
	return [2]float64{h.X - o.X, h.Y - o.Y}
}

// Geometry is an ordered, read-only set of hole centers.
type Geometry struct {
	holes []Hole
}

// New validates and copies the hole centers.
func New(holes []Hole) (Geometry, error) {
	if len(holes) < 3 {
		return Geometry{}, fmt.Errorf("%w: got %d", ErrTooFewHoles, len(holes))
	}
	for i := range holes {
		if math.IsNaN(holes[i].X) || math.IsNaN(holes[i].Y) ||
			math.IsInf(holes[i].X, 0) || math.IsInf(holes[i].Y, 0) {
			return Geometry{}, fmt.Errorf("%w: hole %d", ErrBadCenter, i)
		}
		for j := 0; j < i; j++ {
			if holes[i] == holes[j] {
				return Geometry{}, fmt.Errorf("%w: holes %d and %d at (%g, %g)",
					ErrDuplicateHole, j, i, holes[i].X, holes[i].Y)
			}
		}
	}
	own := make([]Hole, len(holes))
	copy(own, holes)
	return Geometry{holes: own}, nil
}

// FromPairs builds a Geometry from [x, y] pairs.
func FromPairs(pairs [][2]float64) (Geometry, error) {
	holes := make([]Hole, len(pairs))
	for i, p := range pairs {
		holes[i] = Hole{X: p[0], Y: p[1]}
	}
	return New(holes)
}

// Len is the number of holes.
func (g Geometry) Len() int { return len(g.holes) }

// Hole returns hole i.
func (g Geometry) Hole(i int) Hole { return g.holes[i] }

// Holes returns a copy of the hole centers.
func (g Geometry) Holes() []Hole {
	out := make([]Hole, len(g.holes))
	copy(out, g.holes)
	return out
}

// Rotate returns a copy rotated by theta radians (CCW) about the origin.
func (g Geometry) Rotate(theta float64) Geometry {
	s, c := math.Sincos(theta)
	out := make([]Hole, len(g.holes))
	for i, h := range g.holes {
		out[i] = Hole{X: c*h.X - s*h.Y, Y: s*h.X + c*h.Y}
	}
	return Geometry{holes: out}
}

// NumBaselines is C(N, 2).
func (g Geometry) NumBaselines() int {
	n := len(g.holes)
	return n * (n - 1) / 2
}

// Baseline is one hole pair and the vector between them.
type Baseline struct {
	I, J   int
	Vector [2]float64 // center(I) - center(J), meters
}

// Name is the conventional "i_j" label.
func (b Baseline) Name() string { return fmt.Sprintf("%d_%d", b.I, b.J) }

// Baselines enumerates every unordered hole pair with i as the outer loop and
// j = i+1..N-1 as the inner loop. Downstream fitting depends on this order.
func (g Geometry) Baselines() []Baseline {
	n := len(g.holes)
	out := make([]Baseline, 0, g.NumBaselines())
	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, Baseline{I: i, J: j, Vector: g.holes[i].Sub(g.holes[j])})
		}
	}
	return out
}

// Triangle is a closure triangle i<j<k with its two independent uv vectors.
type Triangle struct {
	I, J, K int
	UV      [2][2]float64
}

// Name is the "i_j_k" label.
func (t Triangle) Name() string { return fmt.Sprintf("%d_%d_%d", t.I, t.J, t.K) }

// Triangles enumerates closure triangles in ascending index order.
func (g Geometry) Triangles() []Triangle {
	n := len(g.holes)
	var out []Triangle
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				out = append(out, Triangle{
					I: i, J: j, K: k,
					UV: [2][2]float64{
						g.holes[i].Sub(g.holes[j]),
						g.holes[j].Sub(g.holes[k]),
					},
				})
			}
		}
	}
	return out
}

// Quad is a closure quad i<j<k<l with its three uvw vectors.
type Quad struct {
	I, J, K, L int
	UVW        [3][2]float64
}

// Name is the "i_j_k_l" label.
func (q Quad) Name() string { return fmt.Sprintf("%d_%d_%d_%d", q.I, q.J, q.K, q.L) }

// Quads enumerates closure quads in ascending index order.
func (g Geometry) Quads() []Quad {
	n := len(g.holes)
	var out []Quad
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				for l := k + 1; l < n; l++ {
					out = append(out, Quad{
						I: i, J: j, K: k, L: l,
						UVW: [3][2]float64{
							g.holes[i].Sub(g.holes[j]),
							g.holes[j].Sub(g.holes[k]),
							g.holes[k].Sub(g.holes[l]),
						},
					})
				}
			}
		}
	}
	return out
}
