package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrTooManyTensors     = errors.New("too many tensors in checkpoint")
	ErrParameterCount     = errors.New("parameter count does not match checkpoint")
	ErrInvalidTensorName  = errors.New("invalid tensor name")
	ErrWrongDtype         = errors.New("checkpoint dtype does not match parameters")
)

// ValidationError provides detailed information about validation failures.
type ValidationError struct {
	Type    string // Type of error (e.g., "invalid_name", "duplicate_name")
	Tensor  string // Tensor name involved
	Details string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Unwrap returns the sentinel the failure belongs to.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
