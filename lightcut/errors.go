package lightcut

import "errors"

var (
	ErrInvalidConfig     = errors.New("lightcut: invalid selector configuration")
	ErrSurfaceMismatch   = errors.New("lightcut: surface does not match selector configuration")
	ErrQueryPointsTooFew = errors.New("lightcut: query point buffer smaller than the surface")
)
