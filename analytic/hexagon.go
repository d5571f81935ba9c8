package analytic

import (
	"math"
	"math/cmplx"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"gonum.org/v1/gonum/mat"
)

// HexagonKernel is the built-in hexagonal aperture primitive. The hexagon has
// flat-to-flat size equal to the diameter argument, flats parallel to pupil
// x, and its transform is normalised to a peak of 1 like the circular Jinc.
var HexagonKernel ApertureKernel = ApertureKernelFunc(HexagonalEnvelope)

// HexagonalEnvelope evaluates the closed-form Fourier transform of a regular
// hexagon using the edge sum of a polygon transform:
//
//	F(q) = i/|q|^2 * sum_n (q x e_n) exp(-i q.m_n) sinc(q.e_n / 2)
//
// for edge vectors e_n and edge midpoints m_n taken counter-clockwise.
func HexagonalEnvelope(s Shape, center Point, flatToFlat, wavelength, pitch float64, tr affine.Transform) *mat.CDense {
	edges := hexagonEdges(flatToFlat)
	circumradius := flatToFlat / math.Sqrt(3)
	area := 1.5 * math.Sqrt(3) * circumradius * circumradius
	k := 2 * math.Pi * pitch / wavelength

	return SampleComplex(s, func(row, col int) complex128 {
		u := float64(row) - center.Row
		v := float64(col) - center.Col
		up, vp := tr.DistortForward(u, v)
		qx, qy := k*up, k*vp
		return complex(polygonTransform(qx, qy, edges, circumradius)/area, 0) * tr.DistortPhase(u, v)
	})
}

type polygonEdge struct {
	ex, ey float64 // edge vector
	mx, my float64 // edge midpoint
}

func hexagonEdges(flatToFlat float64) []polygonEdge {
	r := flatToFlat / math.Sqrt(3)
	var vx, vy [6]float64
	for i := 0; i < 6; i++ {
		s, c := math.Sincos(float64(i) * math.Pi / 3)
		vx[i], vy[i] = r*c, r*s
	}
	edges := make([]polygonEdge, 6)
	for i := 0; i < 6; i++ {
		j := (i + 1) % 6
		edges[i] = polygonEdge{
			ex: vx[j] - vx[i], ey: vy[j] - vy[i],
			mx: 0.5 * (vx[i] + vx[j]), my: 0.5 * (vy[i] + vy[j]),
		}
	}
	return edges
}

// polygonTransform returns the (real, for a centro-symmetric polygon)
// transform of the polygon at spatial frequency (qx, qy) in rad/m.
func polygonTransform(qx, qy float64, edges []polygonEdge, circumradius float64) float64 {
	q2 := qx*qx + qy*qy
	area := 1.5 * math.Sqrt(3) * circumradius * circumradius
	if q2 == 0 {
		return area
	}
	// second-moment expansion; the edge sum cancels badly here
	if q2*circumradius*circumradius < 1e-6 {
		return area * (1 - 5.0/48.0*q2*circumradius*circumradius)
	}
	var sum complex128
	for _, e := range edges {
		cross := qx*e.ey - qy*e.ex
		phase := cmplx.Exp(complex(0, -(qx*e.mx + qy*e.my)))
		sum += complex(cross*sinc(0.5*(qx*e.ex+qy*e.ey)), 0) * phase
	}
	return real(complex(0, 1/q2) * sum)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(x) / x
}
