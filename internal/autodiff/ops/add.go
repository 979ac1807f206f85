package ops

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Add returns lhs + rhs with NumPy broadcasting.
//
// Local derivatives: d(a+b)/da = 1, d(a+b)/db = 1.
func Add[T tensor.Float](lhs, rhs *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return elementwiseBinary("add", lhs, rhs,
		func(x, y T) T { return x + y },
		one[T], one[T])
}

// BroadcastAdd returns lhs + rhs where rhs is replicated along the leading
// axes of lhs. rhs's shape must be a proper trailing suffix of lhs's.
//
// Example: lhs [M, N] + rhs [N] -> [M, N], rhs repeated for every row.
//
// Both stored derivatives are ones. The backward pass sums the upstream
// gradient over the M replicated rows before it reaches rhs.
func BroadcastAdd[T tensor.Float](lhs, rhs *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	if rhs.Rank() >= lhs.Rank() || !lhs.Shape().HasSuffix(rhs.Shape()) {
		return nil, fmt.Errorf("broadcast_add: %w: %v is not a trailing suffix of %v",
			tensor.ErrShapeMismatch, rhs.Shape(), lhs.Shape())
	}

	forward := func() (*tensor.Buffer[T], error) {
		expanded, err := rhs.Value().BroadcastTo(lhs.Shape())
		if err != nil {
			return nil, err
		}
		return lhs.Value().Add(expanded)
	}
	derive := func(out *tensor.Buffer[T]) (*tensor.Buffer[T], *tensor.Buffer[T], error) {
		return tensor.Ones[T](out.Shape()), tensor.Ones[T](rhs.Shape()), nil
	}
	return autodiff.RecordBinary(autodiff.KindBroadcast, "broadcast_add", lhs, rhs, forward, derive)
}

// AddScalar returns x + c.
func AddScalar[T tensor.Float](x *autodiff.Tensor[T], c T) (*autodiff.Tensor[T], error) {
	return elementwiseUnary("add_scalar", x,
		func(v T) T { return v + c },
		one[T])
}
