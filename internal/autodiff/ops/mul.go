package ops

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Mul returns lhs * rhs elementwise with NumPy broadcasting.
//
// Local derivatives: d(a*b)/da = b, d(a*b)/db = a, each broadcast to the
// result shape. Mul(x, x) records both and so accumulates 2x.
func Mul[T tensor.Float](lhs, rhs *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseBinary("mul", lhs, rhs,
		func(x, y T) T { return x * y },
		func(_, y T) T { return y },
		func(x, _ T) T { return x })
}

// Scale returns x * c for a constant c.
func Scale[T tensor.Float](x *autodiff.Tensor[T], c T) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("scale", x,
		func(v T) T { return v * c },
		func(_, _ T) T { return c })
}

// Square returns x².
func Square[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("square", x,
		func(v T) T { return v * v },
		func(v, _ T) T { return 2 * v })
}
