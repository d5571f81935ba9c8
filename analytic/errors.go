package analytic

import "errors"

// Errors returned by the synthesis functions. All are raised before any grid
// is evaluated, so a failed call never yields a partial image.
var (
	// ErrUnsupportedApertureShape is returned for an aperture shape outside
	// {circle, hexagon}.
	ErrUnsupportedApertureShape = errors.New("analytic: unsupported aperture shape")

	// ErrInvalidShapeMode is returned for a PSF assembly mode outside the
	// closed PSFMode enumeration.
	ErrInvalidShapeMode = errors.New("analytic: invalid PSF shape mode")

	// ErrInvalidGrid is returned when fov, oversample or pitch are unusable.
	ErrInvalidGrid = errors.New("analytic: invalid grid specification")

	// ErrInvalidOptics is returned for a non-positive wavelength or aperture size.
	ErrInvalidOptics = errors.New("analytic: wavelength and aperture size must be positive")

	// ErrPistonCount is returned when the piston vector length differs from
	// the number of holes.
	ErrPistonCount = errors.New("analytic: piston count does not match hole count")

	// ErrRebinFactor is returned by Rebin when the image does not divide
	// evenly into factor x factor blocks.
	ErrRebinFactor = errors.New("analytic: image size not divisible by rebin factor")

	// ErrEmptySpectrum is returned by Polychromatic for an empty bandpass.
	ErrEmptySpectrum = errors.New("analytic: empty spectrum")
)

// ErrGridShapeMismatch signals that two grids combined pixel by pixel differ
// in size. It is a programming error: functions panic with it and never
// return it.
var ErrGridShapeMismatch = errors.New("analytic: grid shape mismatch")
