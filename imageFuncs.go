package main

import (
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"sort"

	"golang.org/x/image/tiff"
	"gonum.org/v1/gonum/mat"
)

// MatrixToGray16Data -------------------- Data image (Gray16, fixed physical scaling) --------------------
// Mapping: Y16 = round(v * scale), clamped to [0, 65535]
func MatrixToGray16Data(m *mat.Dense, scale float64) (*image.Gray16, error) {
	h, w := m.Dims()
	if h == 0 || w == 0 {
		return nil, errors.New("empty matrix")
	}
	if scale <= 0 {
		return nil, errors.New("scale must be > 0")
	}

	img := image.NewGray16(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			v := m.At(y, x)
			i := row + 2*x
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.Pix[i], img.Pix[i+1] = 0, 0
				continue
			}

			u := math.Round(v * scale)
			if u < 0 {
				u = 0
			} else if u > 65535 {
				u = 65535
			}
			y16 := uint16(u)

			// Gray16 Pix is big-endian per pixel: high then low
			img.Pix[i] = uint8(y16 >> 8)
			img.Pix[i+1] = uint8(y16)
		}
	}
	return img, nil
}

// peakScale returns the scale that maps the matrix maximum to 65535.
func peakScale(m *mat.Dense) (float64, error) {
	peak := mat.Max(m)
	if !(peak > 0) || math.IsInf(peak, 0) {
		return 0, errors.New("matrix has no positive finite peak")
	}
	return 65535 / peak, nil
}

// MatrixToGray16Signed maps [-maxAbs, maxAbs] onto [0, 65535] so that zero
// lands on mid-gray. Used for the fringe basis, whose terms go negative.
func MatrixToGray16Signed(m *mat.Dense) (*image.Gray16, float64, error) {
	maxAbs := math.Max(mat.Max(m), -mat.Min(m))
	if maxAbs == 0 {
		maxAbs = 1
	}
	var shifted mat.Dense
	shifted.Apply(func(_, _ int, v float64) float64 { return 0.5 * (v/maxAbs + 1) }, m)
	img, err := MatrixToGray16Data(&shifted, 65535)
	return img, maxAbs, err
}

// MatrixToGrayViewPercentile -------------------- View PNG (Gray8, auto-stretch) --------------------
// Percentile stretch: map pLow to pHigh to 0..255 and clamp.
func MatrixToGrayViewPercentile(m *mat.Dense, pLow, pHigh float64) (*image.Gray, error) {
	h, w := m.Dims()
	if h == 0 || w == 0 {
		return nil, errors.New("empty matrix")
	}
	if !(0 <= pLow && pLow < pHigh && pHigh <= 100) {
		return nil, errors.New("percentiles must satisfy 0 <= pLow < pHigh <= 100")
	}

	// Collect finite values for percentile computation
	vals := make([]float64, 0, h*w)
	for y := 0; y < h; y++ {
		for _, v := range m.RawRowView(y) {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return nil, errors.New("matrix has no finite values")
	}

	sort.Float64s(vals)

	percentile := func(p float64) float64 {
		if p <= 0 {
			return vals[0]
		}
		if p >= 100 {
			return vals[len(vals)-1]
		}
		pos := (p / 100.0) * float64(len(vals)-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i >= len(vals)-1 {
			return vals[len(vals)-1]
		}
		return vals[i]*(1-f) + vals[i+1]*f
	}

	lo := percentile(pLow)
	hi := percentile(pHigh)
	if hi == lo {
		hi = lo + 1 // image becomes mostly constant
	}

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			v := m.At(y, x)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				img.Pix[row+x] = 0
				continue
			}
			t := (v - lo) / (hi - lo)
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			img.Pix[row+x] = uint8(math.Round(t * 255.0))
		}
	}
	return img, nil
}

// logStretch returns log10(1 + v/peak*1e4), which makes faint splodges of a
// power spectrum visible next to the zero-frequency peak.
func logStretch(m *mat.Dense) *mat.Dense {
	peak := mat.Max(m)
	if !(peak > 0) {
		peak = 1
	}
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Log10(1 + math.Max(v, 0)/peak*1e4)
	}, m)
	return &out
}

func SaveGrayPNG(filename string, img *image.Gray) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}

func SaveGray16PNG(filename string, img *image.Gray16) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}

func SaveGray16TIFF(filename string, img *image.Gray16) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
}

// SaveScienceImage writes a 16-bit image as prefix + "." + format, format
// being "png" or "tiff", and returns the file name.
func SaveScienceImage(prefix, format string, img *image.Gray16) (string, error) {
	filename := prefix + "." + format
	if format == "tiff" {
		return filename, SaveGray16TIFF(filename, img)
	}
	return filename, SaveGray16PNG(filename, img)
}
