// Package analytic synthesizes the monochromatic image of a non-redundant
// aperture mask and the harmonic fringe basis used to fit such images.
//
// Every function samples closed-form diffraction integrals over an
// (oversample*fov) square grid: a single-hole envelope (circular Jinc or
// hexagon), a complex sum of per-hole phasors, and for fitting, one cosine
// and one sine image per baseline. One affine transform distorts all of them
// identically.
//
// Calls are pure. Each allocates and owns its output grids, so independent
// calls (other wavelengths, other piston sets) may run concurrently.
package analytic

import (
	"fmt"
	"time"

	"github.com/bob-anderson-ok/NRMmodel/affine"
	"github.com/bob-anderson-ok/NRMmodel/mask"
	"gonum.org/v1/gonum/mat"
)

// Event describes one evaluated grid. Observers receive one per stage.
type Event struct {
	Stage      string
	Shape      Shape
	Center     Point
	Pitch      float64
	Wavelength float64
	Holes      int
	Transform  string
	Elapsed    time.Duration
}

func (e Event) String() string {
	return fmt.Sprintf("%s %dx%d ctr=(%.3f, %.3f) pitch=%.4g lam=%.4g holes=%d affine=%s took %s",
		e.Stage, e.Shape.Rows, e.Shape.Cols, e.Center.Row, e.Center.Col,
		e.Pitch, e.Wavelength, e.Holes, e.Transform, e.Elapsed)
}

// Observer receives diagnostics. Polychromatic may call it from several
// goroutines at once.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f.
func (f ObserverFunc) Observe(e Event) { f(e) }

// Synthesizer holds the injected collaborators of the engine. It carries no
// state between calls and is safe for concurrent use.
type Synthesizer struct {
	hex      ApertureKernel
	observer Observer
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithHexKernel replaces the built-in hexagonal aperture primitive.
func WithHexKernel(k ApertureKernel) Option {
	if k == nil {
		panic("analytic: WithHexKernel(nil)")
	}
	return func(s *Synthesizer) { s.hex = k }
}

// WithObserver installs a diagnostics observer.
func WithObserver(o Observer) Option {
	return func(s *Synthesizer) { s.observer = o }
}

// New returns a Synthesizer using HexagonKernel unless overridden.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{hex: HexagonKernel}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var defaultSynthesizer = New()

func (s *Synthesizer) kernel(shape ApertureShape) (ApertureKernel, error) {
	switch shape {
	case Circle:
		return ApertureKernelFunc(CircularEnvelope), nil
	case Hexagon:
		return s.hex, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedApertureShape, shape)
}

func (s *Synthesizer) emit(stage string, g GridSpec, wavelength float64, holes int, tr affine.Transform, start time.Time) {
	if s.observer == nil {
		return
	}
	s.observer.Observe(Event{
		Stage:      stage,
		Shape:      g.Shape(),
		Center:     g.Center(),
		Pitch:      g.Pitch(),
		Wavelength: wavelength,
		Holes:      holes,
		Transform:  tr.Name(),
		Elapsed:    time.Since(start),
	})
}

// evaluate runs k over grid and panics with ErrGridShapeMismatch when the
// kernel returns any other size.
func (s *Synthesizer) evaluate(k ApertureKernel, grid Shape, center Point, diameter, wavelength, pitch float64, tr affine.Transform) *mat.CDense {
	asf := k.Evaluate(grid, center, diameter, wavelength, pitch, tr)
	if r, c := asf.Dims(); r != grid.Rows || c != grid.Cols {
		panic(fmt.Errorf("%w: aperture kernel returned %dx%d for a %dx%d grid", ErrGridShapeMismatch, r, c, grid.Rows, grid.Cols))
	}
	return asf
}

// validate checks everything a synthesis call depends on before any grid is
// allocated.
func validate(g GridSpec, holes mask.Geometry, wavelength float64, tr affine.Transform) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if holes.Len() < 3 {
		return fmt.Errorf("%w: got %d", mask.ErrTooFewHoles, holes.Len())
	}
	if !(wavelength > 0) {
		return fmt.Errorf("%w: wavelength %g", ErrInvalidOptics, wavelength)
	}
	if !tr.Valid() {
		return fmt.Errorf("%w: uninitialised transform", affine.ErrDegenerateTransform)
	}
	return nil
}

func pistonsFor(holes mask.Geometry, pistons []float64) ([]float64, error) {
	if pistons == nil {
		return make([]float64, holes.Len()), nil
	}
	if len(pistons) != holes.Len() {
		return nil, fmt.Errorf("%w: %d pistons for %d holes", ErrPistonCount, len(pistons), holes.Len())
	}
	return pistons, nil
}
