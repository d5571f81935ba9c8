package analytic

import (
	"fmt"
	"time"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"github.com/bob-anderson-ok/NRMmodel/mask"
	"gonum.org/v1/gonum/mat"
)

// PSFMode selects how the amplitude spread function is assembled.
type PSFMode int

const (
	CircleWithFringe PSFMode = iota
	CircleOnly
	HexWithFringe
	HexOnly
	FringeOnly
)

var psfModeNames = [...]string{"circ", "circonly", "hex", "hexonly", "fringeonly"}

func (m PSFMode) String() string {
	if m >= 0 && int(m) < len(psfModeNames) {
		return psfModeNames[m]
	}
	return fmt.Sprintf("PSFMode(%d)", int(m))
}

// ParsePSFMode accepts the short names ("circ", "circonly", "hex",
// "hexonly", "fringeonly") and the long names ("circle_with_fringe",
// "circle_only", "hex_with_fringe", "hex_only", "fringe_only").
func ParsePSFMode(s string) (PSFMode, error) {
	switch s {
	case "circ", "circle_with_fringe":
		return CircleWithFringe, nil
	case "circonly", "circle_only":
		return CircleOnly, nil
	case "hex", "hex_with_fringe":
		return HexWithFringe, nil
	case "hexonly", "hex_only":
		return HexOnly, nil
	case "fringeonly", "fringe_only":
		return FringeOnly, nil
	}
	return 0, fmt.Errorf("%w: %q (choices: circ, circonly, hex, hexonly, fringeonly)", ErrInvalidShapeMode, s)
}

// envelope reports whether the mode uses an aperture envelope and which.
func (m PSFMode) envelope() (ApertureShape, bool) {
	switch m {
	case CircleWithFringe, CircleOnly:
		return Circle, true
	case HexWithFringe, HexOnly:
		return Hexagon, true
	}
	return 0, false
}

func (m PSFMode) fringe() bool {
	return m == CircleWithFringe || m == HexWithFringe || m == FringeOnly
}

// PSF returns the real, non-negative oversampled intensity |asf|^2 of the
// mask at one wavelength. pistons are optical path errors in meters, one per
// hole; nil means no piston error. diameter is the hole diameter (or hexagon
// flat-to-flat size) in meters and is ignored in FringeOnly mode.
func (s *Synthesizer) PSF(g GridSpec, holes mask.Geometry, diameter, wavelength float64, pistons []float64, tr affine.Transform, mode PSFMode) (*mat.Dense, error) {
	if mode < CircleWithFringe || mode > FringeOnly {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShapeMode, mode)
	}
	if err := validate(g, holes, wavelength, tr); err != nil {
		return nil, err
	}
	if _, ok := mode.envelope(); ok && !(diameter > 0) {
		return nil, fmt.Errorf("%w: aperture size %g", ErrInvalidOptics, diameter)
	}
	phi, err := pistonsFor(holes, pistons)
	if err != nil {
		return nil, err
	}

	shape, center, pitch := g.Shape(), g.Center(), g.Pitch()

	var asf *mat.CDense
	if ap, ok := mode.envelope(); ok {
		k, err := s.kernel(ap)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		asf = s.evaluate(k, shape, center, diameter, wavelength, pitch, tr)
		s.emit("envelope:"+ap.String(), g, wavelength, holes.Len(), tr, start)
	}
	if mode.fringe() {
		start := time.Now()
		fringe := ComplexFringeField(shape, center, holes, phi, wavelength, pitch, tr)
		s.emit("fringe", g, wavelength, holes.Len(), tr, start)
		if asf == nil {
			asf = fringe
		} else {
			asf = multiplyField(asf, fringe)
		}
	}
	return intensity(asf), nil
}

// PSF evaluates with the default Synthesizer.
func PSF(g GridSpec, holes mask.Geometry, diameter, wavelength float64, pistons []float64, tr affine.Transform, mode PSFMode) (*mat.Dense, error) {
	return defaultSynthesizer.PSF(g, holes, diameter, wavelength, pistons, tr, mode)
}

// Envelope returns the complex single-hole amplitude for shape on grid g.
func (s *Synthesizer) Envelope(g GridSpec, shape ApertureShape, diameter, wavelength float64, tr affine.Transform) (*mat.CDense, error) {
	k, err := s.kernel(shape)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if !(wavelength > 0) || !(diameter > 0) {
		return nil, fmt.Errorf("%w: wavelength %g, size %g", ErrInvalidOptics, wavelength, diameter)
	}
	if !tr.Valid() {
		return nil, fmt.Errorf("%w: uninitialised transform", affine.ErrDegenerateTransform)
	}
	return s.evaluate(k, g.Shape(), g.Center(), diameter, wavelength, g.Pitch(), tr), nil
}
