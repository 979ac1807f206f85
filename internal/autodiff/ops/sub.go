package ops

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Sub returns lhs - rhs with NumPy broadcasting.
//
// Local derivatives: d(a-b)/da = 1, d(a-b)/db = -1.
func Sub[T tensor.Float](lhs, rhs *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseBinary("sub", lhs, rhs,
		func(x, y T) T { return x - y },
		one[T],
		func(_, _ T) T { return -1 })
}

// Neg returns -x.
func Neg[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("neg", x,
		func(v T) T { return -v },
		func(_, _ T) T { return -1 })
}
