package ops

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// MatMul returns the matrix product lhs · rhs.
//
// Supported shapes follow tensor.MatMul: [m, k]·[k, n], a rank-1 lhs as a
// row vector, and batched rank-3/4 operands with rhs optionally shared
// across the batch.
//
// The derivative stored for lhs is rhs's data and the one stored for rhs
// is lhs's data. The backward pass turns them into
//   - grad_lhs = upstream · rhsᵀ
//   - grad_rhs = lhsᵀ · upstream
func MatMul[T tensor.Float](lhs, rhs *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	forward := func() (*tensor.Buffer[T], error) {
		return tensor.MatMul(lhs.Value(), rhs.Value())
	}
	return autodiff.RecordBinary(autodiff.KindMatMul, "matmul", lhs, rhs, forward, swapped(lhs, rhs))
}

// MatMulTransposed returns lhs · rhsᵀ, transposing the last two axes of rhs.
// It is the natural product for weights stored as [out, in].
//
// Derivatives are swapped as in MatMul. The backward pass computes
//   - grad_lhs = upstream · rhs
//   - grad_rhs = upstreamᵀ · lhs
func MatMulTransposed[T tensor.Float](lhs, rhs *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	forward := func() (*tensor.Buffer[T], error) {
		return tensor.MatMulTransposed(lhs.Value(), rhs.Value())
	}
	return autodiff.RecordBinary(autodiff.KindMatMulTransposed, "matmul_transposed", lhs, rhs, forward, swapped(lhs, rhs))
}

// swapped stores each operand's data as the other operand's derivative.
func swapped[T tensor.Float](lhs, rhs *autodiff.Tensor[T]) autodiff.BinaryDerive[T] {
	return func(*tensor.Buffer[T]) (*tensor.Buffer[T], *tensor.Buffer[T], error) {
		return rhs.Value().Clone(), lhs.Value().Clone(), nil
	}
}
