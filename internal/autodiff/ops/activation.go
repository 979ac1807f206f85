package ops

import (
	"math"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// ReLU returns max(0, x).
//
// The derivative is 1 where x > 0 and 0 elsewhere, including x = 0.
func ReLU[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("relu", x,
		func(v T) T { return max(v, 0) },
		func(v, _ T) T {
			if v > 0 {
				return 1
			}
			return 0
		})
}

// Sigmoid returns σ(x) = 1 / (1 + exp(-x)). dσ/dx = σ(x)(1 - σ(x)).
func Sigmoid[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("sigmoid", x,
		apply[T](sigmoid),
		func(_, y T) T { return y * (1 - y) })
}

// Tanh returns tanh(x). d tanh/dx = 1 - tanh²(x).
func Tanh[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("tanh", x,
		apply[T](math.Tanh),
		func(_, y T) T { return 1 - y*y })
}

// SiLU returns x·σ(x), also known as Swish.
//
// d SiLU/dx = σ(x) · (1 + x·(1 - σ(x))).
func SiLU[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("silu", x,
		apply[T](func(v float64) float64 { return v * sigmoid(v) }),
		func(v, _ T) T {
			s := T(sigmoid(float64(v)))
			return s * (1 + v*(1-s))
		})
}
