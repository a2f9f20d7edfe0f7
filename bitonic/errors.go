package bitonic

import "errors"

var (
	ErrUnsupportedKeyWidth  = errors.New("bitonic: unsupported key width")
	ErrKeyWidthMismatch     = errors.New("bitonic: buffer element size does not match sorter key width")
	ErrCountExceedsCapacity = errors.New("bitonic: logical element count exceeds buffer capacity")
)
