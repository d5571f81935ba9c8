package mask

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// NIRISSHoleFlatToFlat is the flat-to-flat size of a NIRISS NRM hole
// projected on the primary, meters.
const NIRISSHoleFlatToFlat = 0.80

// NIRISSPixelScaleMas is the NIRISS detector pixel scale in milliarcseconds.
const NIRISSPixelScaleMas = 65.0

var nirissCenters = [][2]float64{
	{0.00000000, -2.64000000},
	{-2.28631000, 0.00000000},
	{2.28631000, -1.32000000},
	{-2.28631000, 1.32000000},
	{-1.14315500, 1.98000000},
	{2.28631000, 1.32000000},
	{1.14315500, 1.98000000},
}

// NIRISS returns the JWST NIRISS 7-hole non-redundant mask.
func NIRISS() Geometry {
	g, err := FromPairs(nirissCenters)
	if err != nil {
		panic(err) // static table
	}
	return g
}

// Filter is a bandpass described by central wavelength and fractional width.
type Filter struct {
	Name       string
	Center     float64 // meters
	Bandwidth  float64 // fraction of Center
	NumSamples int     // default number of wavelength samples across the band
}

var nirissFilters = map[string]Filter{
	"F277W": {Name: "F277W", Center: 2.77e-6, Bandwidth: 0.20, NumSamples: 11},
	"F380M": {Name: "F380M", Center: 3.80e-6, Bandwidth: 0.10, NumSamples: 11},
	"F430M": {Name: "F430M", Center: 4.30e-6, Bandwidth: 0.05, NumSamples: 11},
	"F480M": {Name: "F480M", Center: 4.80e-6, Bandwidth: 0.08, NumSamples: 11},
}

// NIRISSFilter looks up a NIRISS filter by name (case-insensitive).
func NIRISSFilter(name string) (Filter, error) {
	f, ok := nirissFilters[strings.ToUpper(name)]
	if !ok {
		known := make([]string, 0, len(nirissFilters))
		for k := range nirissFilters {
			known = append(known, k)
		}
		sort.Strings(known)
		return Filter{}, fmt.Errorf("%w: %q (choices: %s)", ErrUnknownFilter, name, strings.Join(known, ", "))
	}
	return f, nil
}

// SpectralSample is one (wavelength, weight) pair of a bandpass.
type SpectralSample struct {
	Wavelength float64
	Weight     float64
}

// TophatBandpass samples a flat bandpass of fractional width fracWidth about
// center with n equally weighted wavelengths. Weights sum to 1.
func TophatBandpass(center, fracWidth float64, n int) []SpectralSample {
	if n <= 1 || fracWidth == 0 {
		return []SpectralSample{{Wavelength: center, Weight: 1}}
	}
	lo := center * (1 - fracWidth/2)
	hi := center * (1 + fracWidth/2)
	step := (hi - lo) / float64(n-1)
	out := make([]SpectralSample, n)
	for i := range out {
		out[i] = SpectralSample{Wavelength: lo + float64(i)*step, Weight: 1 / float64(n)}
	}
	return out
}

// Bandpass samples f as a tophat with n wavelengths (f.NumSamples when n<1).
func (f Filter) Bandpass(n int) []SpectralSample {
	if n < 1 {
		n = f.NumSamples
	}
	return TophatBandpass(f.Center, f.Bandwidth, n)
}

// MasToRad converts milliarcseconds to radians.
func MasToRad(mas float64) float64 {
	return mas / (1000 * 3600) * math.Pi / 180
}
