package serialization

import (
	"fmt"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// ValidateTensorName checks tensor names for path traversal and malicious patterns.
// Names become file names inside the checkpoint directory.
func ValidateTensorName(name string) error {
	invalid := func(details string) error {
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: details, Err: ErrInvalidTensorName}
	}
	switch {
	case name == "":
		return invalid("empty name")
	case len(name) > MaxTensorNameLen:
		return invalid(fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen))
	case strings.Contains(name, ".."):
		return invalid("contains '..' (path traversal attempt)")
	case strings.ContainsAny(name, `/\`):
		return invalid(`contains path separator (/ or \)`)
	case strings.Contains(name, "\x00"):
		return invalid("contains null byte")
	}
	return nil
}

// ValidateHeader checks the format version, the tensor count and that every
// tensor has a valid, unique name and file.
func ValidateHeader(h *Header) error {
	if h.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.FormatVersion)
	}
	if len(h.Tensors) > MaxTensorCount {
		return fmt.Errorf("%w: got %d, max %d", ErrTooManyTensors, len(h.Tensors), MaxTensorCount)
	}

	seen := make(map[string]bool, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if t.File != t.Name+tensorExt {
			return &ValidationError{
				Type: "invalid_file", Tensor: t.Name, Err: ErrInvalidTensorName,
				Details: fmt.Sprintf("file %q does not match name", t.File),
			}
		}
		if seen[t.Name] {
			return &ValidationError{Type: "duplicate_name", Tensor: t.Name, Details: "appears twice", Err: ErrInvalidTensorName}
		}
		seen[t.Name] = true
	}
	return nil
}
