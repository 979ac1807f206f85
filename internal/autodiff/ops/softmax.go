package ops

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Softmax applies softmax along the last axis.
//
// Forward (for each row):
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// The stored derivative is the output y itself. With upstream g the
// backward pass computes
//
//	∂L/∂x_j = y_j * (g_j - Σ_i g_i * y_i)
func Softmax[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	forward := func() (*tensor.Buffer[T], error) {
		return x.Value().Softmax(), nil
	}
	derive := func(out *tensor.Buffer[T]) (*tensor.Buffer[T], error) {
		return out.Clone(), nil
	}
	return autodiff.RecordUnary(autodiff.KindSoftmax, "softmax", x, forward, derive)
}
