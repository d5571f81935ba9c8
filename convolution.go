package main

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

type ConvMode int

const (
	ConvSame ConvMode = iota
	ConvFull
	ConvValid
)

type PaddingMode int

const (
	PadZeros PaddingMode = iota
	PadReflect
	PadReplicate
	PadCircular
)

func StarBrightness(r, starDiam, limbDarkeningCoeff float64) float64 {
	starRadius := starDiam / 2.0
	// x is the distance from the star center expressed as a fraction of the star radius
	x := r / starRadius
	if x >= 1.0 {
		return 0.0
	}

	return 1.0 - limbDarkeningCoeff*(1.0-math.Sqrt(1.0-x*x))
}

// BuildStarPsf samples a limb-darkened stellar disk of diameter starDiamMas on
// a grid of masPerPixel and returns it with the sum of its weights. The
// kernel has even width with the disk center on pixel (width/2, width/2).
func BuildStarPsf(starDiamMas, masPerPixel, limbDarkeningCoeff float64) (*mat.Dense, float64) {
	psfWidthPixels := int(math.Ceil(starDiamMas / masPerPixel))
	if psfWidthPixels%2 != 0 {
		psfWidthPixels++
	}
	// add a border
	psfWidthPixels += 4
	starMatrix := mat.NewDense(psfWidthPixels, psfWidthPixels, nil)
	center := psfWidthPixels / 2
	sumOfWeights := 0.0
	for row := 0; row < psfWidthPixels; row++ {
		for col := 0; col < psfWidthPixels; col++ {
			r := math.Hypot(float64(row-center), float64(col-center)) * masPerPixel
			brightness := StarBrightness(r, starDiamMas, limbDarkeningCoeff)
			sumOfWeights += brightness
			starMatrix.Set(row, col, brightness)
		}
	}
	// a disk narrower than a pixel still lights the center pixel
	if sumOfWeights == 0 {
		starMatrix.Set(center, center, 1)
		sumOfWeights = 1
	}
	return starMatrix, sumOfWeights
}

// ConvolvePSFFFT convolves image with a PSF using 2D FFT.
//
// image: HxW
// psf:   PhxPw
// mode:  Same, Full, Valid
// pad:   Zeros, Reflect, Replicate, Circular
//
// The result is divided by psfSum. When centeredPsf is set the PSF is
// ifftshifted so its middle lands on (0,0).
func ConvolvePSFFFT(image, psf *mat.Dense, psfSum float64, mode ConvMode, pad PaddingMode, centeredPsf bool) (*mat.Dense, error) {
	H, W := image.Dims()
	Ph, Pw := psf.Dims()
	if psfSum == 0 {
		return nil, errors.New("psf weights sum to zero")
	}

	var outH, outW int
	switch mode {
	case ConvSame:
		outH, outW = H, W
	case ConvFull:
		outH, outW = H+Ph-1, W+Pw-1
	case ConvValid:
		outH, outW = H-Ph+1, W-Pw+1
		if outH <= 0 || outW <= 0 {
			return nil, errors.New("valid convolution requested but psf larger than image")
		}
	default:
		return nil, errors.New("unknown ConvMode")
	}

	// FFT grid for linear convolution: at least full size.
	FH := nextPow2(H + Ph - 1)
	FW := nextPow2(W + Pw - 1)

	A := makeComplex2D(FH, FW)
	B := makeComplex2D(FH, FW)

	for y := 0; y < FH; y++ {
		for x := 0; x < FW; x++ {
			A[y][x] = complex(sample2D(image, y, x, pad), 0)
		}
	}

	src := psf
	if centeredPsf {
		src = ifftshift2D(psf)
	}
	for y := 0; y < Ph; y++ {
		for x := 0; x < Pw; x++ {
			B[y][x] = complex(src.At(y, x), 0)
		}
	}

	fft2InPlace(A, true)
	fft2InPlace(B, true)

	for y := 0; y < FH; y++ {
		for x := 0; x < FW; x++ {
			A[y][x] *= B[y][x]
		}
	}

	fft2InPlace(A, false)

	// Gonum transforms are unnormalized: forward then inverse multiplies by N.
	scale := float64(FH*FW) * psfSum

	var offY, offX int
	switch mode {
	case ConvSame:
		offY, offX = Ph/2, Pw/2
	case ConvValid:
		offY, offX = Ph-1, Pw-1
	}

	out := mat.NewDense(outH, outW, nil)
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			out.Set(y, x, real(A[y+offY][x+offX])/scale)
		}
	}
	return out, nil
}

// -------------------- FFT helpers --------------------

func fft2InPlace(a [][]complex128, forward bool) {
	h := len(a)
	w := len(a[0])

	rowFFT := fourier.NewCmplxFFT(w)
	colFFT := fourier.NewCmplxFFT(h)

	for y := 0; y < h; y++ {
		if forward {
			rowFFT.Coefficients(a[y], a[y])
		} else {
			rowFFT.Sequence(a[y], a[y])
		}
	}

	col := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = a[y][x]
		}
		if forward {
			colFFT.Coefficients(col, col)
		} else {
			colFFT.Sequence(col, col)
		}
		for y := 0; y < h; y++ {
			a[y][x] = col[y]
		}
	}
}

// -------------------- Padding + shifting --------------------

func sample2D(img *mat.Dense, y, x int, mode PaddingMode) float64 {
	H, W := img.Dims()

	if 0 <= y && y < H && 0 <= x && x < W {
		return img.At(y, x)
	}

	switch mode {
	case PadReplicate:
		return img.At(clamp(y, 0, H-1), clamp(x, 0, W-1))
	case PadReflect:
		return img.At(reflectIndex(y, H), reflectIndex(x, W))
	case PadCircular:
		return img.At(mod(y, H), mod(x, W))
	}
	return 0
}

// ifftshift: moves the center of a centered PSF to (0,0).
func ifftshift2D(x *mat.Dense) *mat.Dense {
	h, w := x.Dims()
	out := mat.NewDense(h, w, nil)
	shY := h / 2
	shX := w / 2
	for y := 0; y < h; y++ {
		yy := (y + shY) % h
		for x0 := 0; x0 < w; x0++ {
			out.Set(y, x0, x.At(yy, (x0+shX)%w))
		}
	}
	return out
}

// -------------------- utility --------------------

func makeComplex2D(h, w int) [][]complex128 {
	m := make([][]complex128, h)
	for i := range m {
		m[i] = make([]complex128, w)
	}
	return m
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mod(i, n int) int {
	r := i % n
	if r < 0 {
		r += n
	}
	return r
}

// reflectIndex implements "reflect" padding without repeating edge pixels.
// Example for n=5 indices: ... 2 1 0 1 2 3 4 3 2 1 0 1 ...
func reflectIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2*n - 2
	i = mod(i, period)
	if i >= n {
		i = period - i
	}
	return i
}
