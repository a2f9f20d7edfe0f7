package renderer

import "errors"

var (
	ErrNoDevices         = errors.New("renderer: no matching devices found")
	ErrNoLightSet        = errors.New("renderer: no light set defined")
	ErrFrameSizeMismatch = errors.New("renderer: query point count does not match frame dimensions")
	ErrInterrupted       = errors.New("renderer: interrupted while rendering")
	ErrTreeNotBuilt      = errors.New("renderer: stage requires a light tree but none was built")
)
