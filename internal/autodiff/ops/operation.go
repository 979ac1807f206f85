// Package ops implements the differentiable operations of the engine.
//
// Every operation computes its forward value with the tensor package,
// computes the local derivative of each operand when a tape is in scope,
// and hands both to the autodiff recorder. No backward code lives here:
// the backward pass combines the stored derivatives by operation kind.
//
// Supported operations:
//   - Add, Sub, Mul, Div: elementwise with NumPy broadcasting
//   - BroadcastAdd: add a lower-rank tensor replicated along leading axes
//   - MatMul, MatMulTransposed: matrix products (derivatives swapped)
//   - Neg, Scale, AddScalar, Square, Sqrt, Rsqrt, Exp, Log: elementwise math
//   - Tanh, Sigmoid, ReLU, SiLU, Sin, Cos: activations
//   - Sum, Mean, SumAxis, MeanAxis: reductions
//   - Softmax, Reshape
//   - MSE, CrossEntropy: losses composed from the primitives
//
// All operations follow the tape ownership rules: at most one operand may
// own a tape, and the tape moves to the result.
package ops

import (
	"math"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// partial is the local derivative of an elementwise binary function with
// respect to one operand, given both (broadcast) operand values.
type partial[T tensor.Float] func(x, y T) T

// elementwiseBinary records f(lhs, rhs) with NumPy broadcasting. Equal
// shapes record an elementwise operation; otherwise the derivatives are
// stored in the result shape and summed back over the broadcast axes.
func elementwiseBinary[T tensor.Float](
	name string,
	lhs, rhs *autodiff.Tensor[T],
	f func(x, y T) T,
	dl, dr partial[T],
) (*autodiff.Tensor[T], error) {
	kind := autodiff.KindElementwise
	if !lhs.Shape().Equal(rhs.Shape()) {
		kind = autodiff.KindBroadcast
	}

	var a, b *tensor.Buffer[T]
	forward := func() (*tensor.Buffer[T], error) {
		shape, _, err := tensor.BroadcastShapes(lhs.Shape(), rhs.Shape())
		if err != nil {
			return nil, err
		}
		if a, err = lhs.Value().BroadcastTo(shape); err != nil {
			return nil, err
		}
		if b, err = rhs.Value().BroadcastTo(shape); err != nil {
			return nil, err
		}
		return a.Zip(b, f)
	}
	derive := func(*tensor.Buffer[T]) (*tensor.Buffer[T], *tensor.Buffer[T], error) {
		gl, err := a.Zip(b, dl)
		if err != nil {
			return nil, nil, err
		}
		gr, err := a.Zip(b, dr)
		if err != nil {
			return nil, nil, err
		}
		return gl, gr, nil
	}
	return autodiff.RecordBinary(kind, name, lhs, rhs, forward, derive)
}

// elementwiseUnary records f(x). df receives the input and output values.
func elementwiseUnary[T tensor.Float](
	name string,
	x *autodiff.Tensor[T],
	f func(T) T,
	df func(x, y T) T,
) (*autodiff.Tensor[T], error) {
	forward := func() (*tensor.Buffer[T], error) {
		return x.Value().Map(f), nil
	}
	derive := func(out *tensor.Buffer[T]) (*tensor.Buffer[T], error) {
		return x.Value().Zip(out, df)
	}
	return autodiff.RecordUnary(autodiff.KindElementwise, name, x, forward, derive)
}

func one[T tensor.Float](_, _ T) T { return 1 }

// apply lifts a float64 math function to T.
func apply[T tensor.Float](f func(float64) float64) func(T) T {
	return func(v T) T { return T(f(float64(v))) }
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
