package ops

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Sum reduces x to a rank-0 tensor holding the sum of all elements.
func Sum[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	forward := func() (*tensor.Buffer[T], error) {
		return tensor.Scalar(x.Value().Sum()), nil
	}
	derive := func(*tensor.Buffer[T]) (*tensor.Buffer[T], error) {
		return tensor.Ones[T](x.Shape()), nil
	}
	return autodiff.RecordUnary(autodiff.KindReduce, "sum", x, forward, derive)
}

// Mean reduces x to a rank-0 tensor holding the mean of all elements.
// Every element's local derivative is 1/N.
func Mean[T tensor.Float](x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	forward := func() (*tensor.Buffer[T], error) {
		return tensor.Scalar(x.Value().Mean()), nil
	}
	derive := func(*tensor.Buffer[T]) (*tensor.Buffer[T], error) {
		return tensor.Full(x.Shape(), 1/T(x.Value().NumElements())), nil
	}
	return autodiff.RecordUnary(autodiff.KindReduce, "mean", x, forward, derive)
}

// SumAxis sums x along axis, keeping the axis with extent 1.
// Negative axes count from the end.
//
// Example: [2, 3] summed along axis -1 -> [2, 1].
func SumAxis[T tensor.Float](x *autodiff.Tensor[T], axis int) (*autodiff.Tensor[T], error) {
	forward := func() (*tensor.Buffer[T], error) {
		return x.Value().SumAxis(axis)
	}
	derive := func(*tensor.Buffer[T]) (*tensor.Buffer[T], error) {
		return tensor.Ones[T](x.Shape()), nil
	}
	return autodiff.RecordUnary(autodiff.KindReduce, "sum_axis", x, forward, derive)
}

// MeanAxis averages x along axis, keeping the axis with extent 1.
func MeanAxis[T tensor.Float](x *autodiff.Tensor[T], axis int) (*autodiff.Tensor[T], error) {
	forward := func() (*tensor.Buffer[T], error) {
		return x.Value().MeanAxis(axis)
	}
	derive := func(out *tensor.Buffer[T]) (*tensor.Buffer[T], error) {
		n := x.Value().NumElements() / out.NumElements()
		return tensor.Full(x.Shape(), 1/T(n)), nil
	}
	return autodiff.RecordUnary(autodiff.KindReduce, "mean_axis", x, forward, derive)
}
