package affine

import "errors"

// ErrDegenerateTransform is returned when the linear part of a transform has
// a zero determinant and so no inverse mapping exists.
var ErrDegenerateTransform = errors.New("affine: degenerate transform (zero determinant)")
