package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestStarBrightness(t *testing.T) {
	assert.Equal(t, 1.0, StarBrightness(0, 2, 0.7))
	assert.Equal(t, 0.0, StarBrightness(1, 2, 0.7))
	assert.InDelta(t, 1-0.5*(1-0.8), StarBrightness(0.6, 2, 0.5), 1e-12)
}

func TestBuildStarPsf(t *testing.T) {
	psf, sum := BuildStarPsf(0.1, 10, 0)
	r, c := psf.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 6, c)
	assert.Equal(t, 1.0, sum)
	assert.Equal(t, 1.0, psf.At(3, 3))

	psf, sum = BuildStarPsf(50, 5, 0.6)
	r, _ = psf.Dims()
	assert.Equal(t, 14, r)
	assert.InDelta(t, mat.Sum(psf), sum, 1e-9)
	assert.Equal(t, 1.0, psf.At(7, 7))
	assert.Equal(t, 0.0, psf.At(0, 0))
}

func TestConvolveWithPointKernelIsIdentity(t *testing.T) {
	img := mat.NewDense(5, 7, nil)
	for i := 0; i < 5; i++ {
		for j := 0; j < 7; j++ {
			img.Set(i, j, float64(i*7+j))
		}
	}
	psf, sum := BuildStarPsf(0.1, 10, 0)
	out, err := ConvolvePSFFFT(img, psf, sum, ConvSame, PadZeros, false)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(img, out, 1e-9))
}

func TestConvolvePreservesFlux(t *testing.T) {
	img := mat.NewDense(32, 32, nil)
	img.Set(16, 16, 1)
	psf, sum := BuildStarPsf(30, 5, 0.5)
	out, err := ConvolvePSFFFT(img, psf, sum, ConvSame, PadZeros, false)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mat.Sum(out), 1e-9)
	assert.Less(t, mat.Max(out), 1.0)
}

func TestConvolveModesAndErrors(t *testing.T) {
	img := mat.NewDense(4, 4, nil)
	psf := mat.NewDense(3, 3, nil)
	psf.Set(1, 1, 1)

	full, err := ConvolvePSFFFT(img, psf, 1, ConvFull, PadZeros, true)
	require.NoError(t, err)
	r, c := full.Dims()
	assert.Equal(t, []int{6, 6}, []int{r, c})

	valid, err := ConvolvePSFFFT(img, psf, 1, ConvValid, PadZeros, false)
	require.NoError(t, err)
	r, c = valid.Dims()
	assert.Equal(t, []int{2, 2}, []int{r, c})

	_, err = ConvolvePSFFFT(psf, img, 1, ConvValid, PadZeros, false)
	assert.Error(t, err)
	_, err = ConvolvePSFFFT(img, psf, 0, ConvSame, PadZeros, false)
	assert.Error(t, err)
	_, err = ConvolvePSFFFT(img, psf, 1, ConvMode(9), PadZeros, false)
	assert.Error(t, err)
}

func TestPaddingIndices(t *testing.T) {
	for i, want := range map[int]int{-1: 1, -4: 4, 5: 3, 8: 0, 2: 2} {
		assert.Equal(t, want, reflectIndex(i, 5), "reflect %d", i)
	}
	assert.Equal(t, 4, mod(-1, 5))
	assert.Equal(t, 0, clamp(-3, 0, 4))
	assert.Equal(t, 8, nextPow2(5))

	img := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	assert.Equal(t, 4.0, sample2D(img, 5, 5, PadReplicate))
	assert.Equal(t, 0.0, sample2D(img, 5, 5, PadZeros))
	assert.Equal(t, 4.0, sample2D(img, -1, -1, PadCircular))
}
