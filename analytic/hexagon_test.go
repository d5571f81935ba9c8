package analytic

import (
	"math"
	"testing"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"github.com/stretchr/testify/assert"
)

func TestPolygonTransformMatchesSquare(t *testing.T) {
	const a = 2.0
	h := a / 2
	vx := []float64{h, -h, -h, h}
	vy := []float64{h, h, -h, -h}
	edges := make([]polygonEdge, 4)
	for i := range edges {
		j := (i + 1) % 4
		edges[i] = polygonEdge{
			ex: vx[j] - vx[i], ey: vy[j] - vy[i],
			mx: 0.5 * (vx[i] + vx[j]), my: 0.5 * (vy[i] + vy[j]),
		}
	}

	for _, q := range [][2]float64{{0.7, 0}, {0.3, 1.1}, {-2.2, 0.4}, {3, -3}} {
		want := a * a * sinc(q[0]*a/2) * sinc(q[1]*a/2)
		got := polygonTransform(q[0], q[1], edges, h*math.Sqrt2)
		assert.InDelta(t, want, got, 1e-12, "q=%v", q)
	}
}

func TestHexagonSymmetry(t *testing.T) {
	const d = 0.8
	edges := hexagonEdges(d)
	r := d / math.Sqrt(3)

	for _, q := range [][2]float64{{1.3, 0.2}, {4.1, -2.5}, {0.05, 7}} {
		f := polygonTransform(q[0], q[1], edges, r)
		s, c := math.Sincos(math.Pi / 3)
		rotated := polygonTransform(c*q[0]-s*q[1], s*q[0]+c*q[1], edges, r)
		assert.InDelta(t, f, rotated, 1e-12)
		assert.InDelta(t, f, polygonTransform(-q[0], -q[1], edges, r), 1e-12)
		assert.InDelta(t, f, polygonTransform(q[0], -q[1], edges, r), 1e-12)
	}
}

func TestHexagonSmallFrequencyIsContinuous(t *testing.T) {
	const d = 0.8
	edges := hexagonEdges(d)
	r := d / math.Sqrt(3)
	area := 1.5 * math.Sqrt(3) * r * r

	q := math.Sqrt(1.01e-6) / r
	exact := polygonTransform(q, 0, edges, r)
	series := area * (1 - 5.0/48.0*q*q*r*r)
	assert.InDelta(t, series, exact, 1e-8*area)
}

func TestHexagonalEnvelopePeak(t *testing.T) {
	g := GridSpec{FOV: 5, Oversample: 3, DetectorPitch: 3e-7}
	asf := HexagonalEnvelope(g.Shape(), g.Center(), 0.8, 2e-6, g.Pitch(), affine.Identity())
	assert.Equal(t, complex(1, 0), asf.At(7, 7))

	r, c := asf.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			assert.LessOrEqual(t, math.Abs(real(asf.At(i, j))), 1.0+1e-12)
		}
	}
}
