package npy

import "errors"

// Common errors.
var (
	ErrInvalidMagic       = errors.New("npy: invalid magic bytes")
	ErrUnsupportedVersion = errors.New("npy: unsupported format version")
	ErrHeader             = errors.New("npy: malformed header")
	ErrWrongShape         = errors.New("npy: unexpected shape")
	ErrWrongDtype         = errors.New("npy: unsupported dtype")
)
