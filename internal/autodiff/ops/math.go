package ops

import (
	"math"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Sqrt returns √x. d√x/dx = 1 / (2√x).
func Sqrt[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("sqrt", x,
		apply[T](math.Sqrt),
		func(_, y T) T { return 0.5 / y })
}

// Rsqrt returns 1/√x. d(x^-1/2)/dx = -x^-3/2 / 2 = -y³/2.
func Rsqrt[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("rsqrt", x,
		apply[T](func(v float64) float64 { return 1 / math.Sqrt(v) }),
		func(_, y T) T { return -0.5 * y * y * y })
}

// Exp returns eˣ. The derivative is the output itself.
func Exp[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("exp", x,
		apply[T](math.Exp),
		func(_, y T) T { return y })
}

// Log returns the natural logarithm. d ln(x)/dx = 1/x.
func Log[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("log", x,
		apply[T](math.Log),
		func(v, _ T) T { return 1 / v })
}

// Sin returns sin(x).
func Sin[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("sin", x,
		apply[T](math.Sin),
		func(v, _ T) T { return T(math.Cos(float64(v))) })
}

// Cos returns cos(x).
func Cos[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("cos", x,
		apply[T](math.Cos),
		func(v, _ T) T { return -T(math.Sin(float64(v))) })
}
