package morton

import "errors"

var (
	ErrInvalidBits   = errors.New("morton: bits per axis must be in [1, 10]")
	ErrInvalidPrefix = errors.New("morton: prefix length exceeds code width")
)
