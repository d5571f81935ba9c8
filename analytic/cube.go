package analytic

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MultiplyEnvelope returns envelope*term for every basis term, giving the
// model slices a linear fit is run against.
func MultiplyEnvelope(envelope *mat.Dense, basis []*mat.Dense) []*mat.Dense {
	er, ec := envelope.Dims()
	out := make([]*mat.Dense, len(basis))
	for i, term := range basis {
		r, c := term.Dims()
		if r != er || c != ec {
			panic(fmt.Errorf("%w: envelope %dx%d, term %d is %dx%d", ErrGridShapeMismatch, er, ec, i, r, c))
		}
		m := mat.NewDense(r, c, nil)
		m.MulElem(envelope, term)
		out[i] = m
	}
	return out
}

// Rebin sums factor x factor blocks of an oversampled image, returning an
// image at detector resolution.
func Rebin(img *mat.Dense, factor int) (*mat.Dense, error) {
	r, c := img.Dims()
	if factor < 1 || r%factor != 0 || c%factor != 0 {
		return nil, fmt.Errorf("%w: %dx%d by %d", ErrRebinFactor, r, c, factor)
	}
	if factor == 1 {
		return mat.DenseCopyOf(img), nil
	}
	out := mat.NewDense(r/factor, c/factor, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i/factor, j/factor, out.At(i/factor, j/factor)+img.At(i, j))
		}
	}
	return out, nil
}

// Peak returns the location and value of the image maximum. Ties resolve to
// the first in row-major order.
func Peak(img *mat.Dense) (row, col int, value float64) {
	r, _ := img.Dims()
	row, col, value = -1, -1, 0
	for i := 0; i < r; i++ {
		line := img.RawRowView(i)
		j := floats.MaxIdx(line)
		if row < 0 || line[j] > value {
			row, col, value = i, j, line[j]
		}
	}
	return row, col, value
}

// Normalize scales img in place so its elements sum to 1 and returns the
// original sum. A zero-sum image is left unchanged.
func Normalize(img *mat.Dense) float64 {
	r, _ := img.Dims()
	var total float64
	for i := 0; i < r; i++ {
		total += floats.Sum(img.RawRowView(i))
	}
	if total != 0 {
		img.Scale(1/total, img)
	}
	return total
}

// PowerSpectrum returns |FFT2(img)|^2 with zero frequency moved to the array
// center. For a fringe image this shows one splodge per baseline.
func PowerSpectrum(img *mat.Dense) *mat.Dense {
	h, w := img.Dims()
	a := make([][]complex128, h)
	for y := range a {
		a[y] = make([]complex128, w)
		for x := range a[y] {
			a[y][x] = complex(img.At(y, x), 0)
		}
	}
	fft2(a)

	out := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		yy := (y + h/2) % h
		for x := 0; x < w; x++ {
			xx := (x + w/2) % w
			z := a[y][x]
			out.Set(yy, xx, real(z)*real(z)+imag(z)*imag(z))
		}
	}
	return out
}

// fft2 is a forward 2D transform in place: rows, then columns.
func fft2(a [][]complex128) {
	h := len(a)
	w := len(a[0])
	rowFFT := fourier.NewCmplxFFT(w)
	colFFT := fourier.NewCmplxFFT(h)

	for y := 0; y < h; y++ {
		rowFFT.Coefficients(a[y], a[y])
	}
	col := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = a[y][x]
		}
		colFFT.Coefficients(col, col)
		for y := 0; y < h; y++ {
			a[y][x] = col[y]
		}
	}
}
