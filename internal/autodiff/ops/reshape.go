package ops

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Reshape reinterprets x with a new shape holding the same number of
// elements. The data order is unchanged.
func Reshape[T tensor.Float](x *autodiff.Tensor[T], shape tensor.Shape) (*autodiff.Tensor[T], error) {
	forward := func() (*tensor.Buffer[T], error) {
		return x.Value().Reshape(shape)
	}
	derive := func(*tensor.Buffer[T]) (*tensor.Buffer[T], error) {
		return tensor.Ones[T](x.Shape()), nil
	}
	return autodiff.RecordUnary(autodiff.KindReshape, "reshape", x, forward, derive)
}
