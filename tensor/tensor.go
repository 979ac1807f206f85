// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the shaped numeric buffers the
// autodiff engine computes with.
//
// The package defines:
//   - Buffer[T]: Fixed-shape, row-major storage for float32 or float64
//   - Shape: Runtime shape descriptor with centralized validation
//   - DataType: Runtime element type information
//
// Example:
//
//	x := tensor.Ones[float64](tensor.Shape{2, 3})
//	y, _ := x.Add(x)
//	z, _ := tensor.MatMul(y, tensor.Ones[float64](tensor.Shape{3, 4}))
package tensor

import (
	"github.com/born-ml/gradtape/internal/tensor"
)

// Float is the constraint for supported element types.
type Float = tensor.Float

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Buffer is a fixed-shape, row-major block of elements.
type Buffer[T Float] = tensor.Buffer[T]

// DataType represents the underlying data type of a buffer.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// MaxRank is the highest supported rank.
const MaxRank = tensor.MaxRank

// Errors returned by shape checks.
var (
	ErrInvalidShape  = tensor.ErrInvalidShape
	ErrShapeMismatch = tensor.ErrShapeMismatch
)

// New creates a buffer holding a copy of data.
func New[T Float](shape Shape, data []T) (*Buffer[T], error) {
	return tensor.New(shape, data)
}

// FromNested creates a buffer from nested slices such as [][]float64.
func FromNested[T Float](shape Shape, values any) (*Buffer[T], error) {
	return tensor.FromNested[T](shape, values)
}

// Zeros creates a buffer filled with zeros.
func Zeros[T Float](shape Shape) *Buffer[T] {
	return tensor.Zeros[T](shape)
}

// Ones creates a buffer filled with ones.
func Ones[T Float](shape Shape) *Buffer[T] {
	return tensor.Ones[T](shape)
}

// Full creates a buffer filled with value.
func Full[T Float](shape Shape, value T) *Buffer[T] {
	return tensor.Full(shape, value)
}

// Scalar creates a rank-0 buffer.
func Scalar[T Float](value T) *Buffer[T] {
	return tensor.Scalar(value)
}

// BroadcastShapes returns the NumPy broadcast of a and b.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// MatMul computes a · b, batched over leading axes.
func MatMul[T Float](a, b *Buffer[T]) (*Buffer[T], error) {
	return tensor.MatMul(a, b)
}

// MatMulTransposed computes a · bᵀ.
func MatMulTransposed[T Float](a, b *Buffer[T]) (*Buffer[T], error) {
	return tensor.MatMulTransposed(a, b)
}

// TransposedMatMul computes aᵀ · b.
func TransposedMatMul[T Float](a, b *Buffer[T]) (*Buffer[T], error) {
	return tensor.TransposedMatMul(a, b)
}
