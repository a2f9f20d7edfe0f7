package device

import "errors"

var (
	ErrDeviceNotInitialized = errors.New("software device: device not initialized")
	ErrKernelReleased       = errors.New("software device: kernel has been released")
	ErrInvalidWorkSize      = errors.New("software device: invalid work size")
)
