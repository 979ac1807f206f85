package ops

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Div returns lhs / rhs elementwise with NumPy broadcasting.
//
// Local derivatives:
//   - d(a/b)/da = 1/b
//   - d(a/b)/db = -a/b²
func Div[T tensor.Float](lhs, rhs *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseBinary("div", lhs, rhs,
		func(x, y T) T { return x / y },
		func(_, y T) T { return 1 / y },
		func(x, y T) T { return -x / (y * y) })
}
