package mask

import "errors"

var (
	// ErrTooFewHoles is returned when a mask has fewer than three holes.
	ErrTooFewHoles = errors.New("mask: at least 3 holes required")

	// ErrDuplicateHole is returned when two holes share a center.
	ErrDuplicateHole = errors.New("mask: duplicate hole center")

	// ErrBadCenter is returned for NaN or infinite hole coordinates.
	ErrBadCenter = errors.New("mask: hole center is not finite")

	// ErrUnknownFilter is returned by NIRISSFilter for an unknown name.
	ErrUnknownFilter = errors.New("mask: unknown filter")
)
