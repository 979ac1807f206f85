package npy

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/x448/float16"

	"github.com/born-ml/gradtape/internal/tensor"
)

// Read parses an .npy stream into a buffer of element type T.
//
// If shape is non-nil the file's shape must equal it, otherwise
// ErrWrongShape is returned. Elements are converted from the file dtype to
// T; Fortran-order data is transposed into row-major order.
func Read[T tensor.Float](r io.Reader, shape tensor.Shape) (*tensor.Buffer[T], error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if shape != nil && !h.Shape.Equal(shape) {
		return nil, fmt.Errorf("%w: file has %v, want %v", ErrWrongShape, h.Shape, shape)
	}

	n := h.Shape.NumElements()
	raw := make([]byte, n*h.Dtype.Size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("npy: reading %d elements: %w", n, err)
	}
	values := decode[T](h.Dtype, raw)

	if h.FortranOrder && h.Shape.Rank() > 1 {
		values = fromFortran(h.Shape, values)
	}
	return tensor.New(h.Shape, values)
}

// Load reads the .npy file at path. See Read.
func Load[T tensor.Float](path string, shape tensor.Shape) (*tensor.Buffer[T], error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for data loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	buf, err := Read[T](bufio.NewReader(f), shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// decode converts raw file bytes to T.
func decode[T tensor.Float](d Dtype, raw []byte) []T {
	out := make([]T, len(raw)/d.Size)
	for i := range out {
		b := raw[i*d.Size : (i+1)*d.Size]
		switch d.Size {
		case 2:
			out[i] = T(float16.Frombits(d.Order.Uint16(b)).Float32())
		case 4:
			out[i] = T(math.Float32frombits(d.Order.Uint32(b)))
		case 8:
			out[i] = T(math.Float64frombits(d.Order.Uint64(b)))
		}
	}
	return out
}

// fromFortran reorders column-major values into row-major order by
// visiting the shape and computing each element's column-major offset.
func fromFortran[T tensor.Float](shape tensor.Shape, values []T) []T {
	strides := make([]int, len(shape))
	stride := 1
	for i, dim := range shape {
		strides[i] = stride
		stride *= dim
	}

	out := make([]T, len(values))
	_ = shape.Visit(func(offset int, coords []int) error {
		src := 0
		for i, c := range coords {
			src += c * strides[i]
		}
		out[offset] = values[src]
		return nil
	})
	return out
}
