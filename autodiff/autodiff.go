// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides tape-based reverse-mode automatic differentiation.
//
// Every tensor has an identity. A tensor that owns a tape records each
// operation it takes part in, together with the local derivative of each
// operand, and hands the tape on to the result. Backward replays the tape
// in reverse and returns gradients keyed by identity.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gradtape/autodiff"
//	    "github.com/born-ml/gradtape/tensor"
//	)
//
//	func main() {
//	    x := autodiff.MustNew(tensor.Shape{3}, []float64{1, 2, 3}).Trace()
//	    y, _ := autodiff.Square(x)
//	    loss, _ := autodiff.Sum(y)
//
//	    grads, _ := autodiff.Backward(loss)
//	    grads.Get(x) // [2 4 6]
//	}
package autodiff

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Tensor is a shaped value with an identity and an optional tape.
type Tensor[T tensor.Float] = autodiff.Tensor[T]

// Tape is the append-only log of one computation chain.
type Tape[T tensor.Float] = autodiff.Tape[T]

// Gradients holds the result of Backward, keyed by identity.
type Gradients[T tensor.Float] = autodiff.Gradients[T]

// ID identifies a tensor value across copies that share it.
type ID = autodiff.ID

// Errors returned by tape ownership and backward checks.
var (
	ErrTapeConflict = autodiff.ErrTapeConflict
	ErrTapeConsumed = autodiff.ErrTapeConsumed
	ErrNoTape       = autodiff.ErrNoTape
	ErrNotScalar    = autodiff.ErrNotScalar
)

// New creates a constant tensor from a copy of data.
func New[T tensor.Float](shape tensor.Shape, data []T) (*Tensor[T], error) {
	return autodiff.New(shape, data)
}

// MustNew is like New but panics on error.
func MustNew[T tensor.Float](shape tensor.Shape, data []T) *Tensor[T] {
	return autodiff.MustNew(shape, data)
}

// FromNested creates a constant tensor from nested slices.
func FromNested[T tensor.Float](shape tensor.Shape, values any) (*Tensor[T], error) {
	return autodiff.FromNested[T](shape, values)
}

// FromBuffer creates a constant tensor holding a copy of buf.
func FromBuffer[T tensor.Float](buf *tensor.Buffer[T]) *Tensor[T] {
	return autodiff.FromBuffer(buf)
}

// Zeros creates a constant tensor filled with zeros.
func Zeros[T tensor.Float](shape tensor.Shape) *Tensor[T] {
	return autodiff.Zeros[T](shape)
}

// Ones creates a constant tensor filled with ones.
func Ones[T tensor.Float](shape tensor.Shape) *Tensor[T] {
	return autodiff.Ones[T](shape)
}

// Full creates a constant tensor filled with value.
func Full[T tensor.Float](shape tensor.Shape, value T) *Tensor[T] {
	return autodiff.Full(shape, value)
}

// HandOff moves the tape owned by from to to.
func HandOff[T tensor.Float](from, to *Tensor[T]) error {
	return autodiff.HandOff(from, to)
}

// Backward replays the tape owned by the rank-0 tensor terminal in reverse
// and returns the accumulated gradients. The tape is consumed.
func Backward[T tensor.Float](terminal *Tensor[T]) (*Gradients[T], error) {
	return autodiff.Backward(terminal)
}

// Scalar creates a rank-0 constant tensor.
func Scalar[T tensor.Float](value T) *Tensor[T] {
	return autodiff.Scalar(value)
}
