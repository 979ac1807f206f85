// Package autodiff implements reverse-mode automatic differentiation over a
// Wengert list.
//
// Architecture:
//   - Tensor: a shaped value with an identity and an optional Tape
//   - Tape: the append-only log of one computation chain, owned by exactly
//     one tensor at a time and moved from operand to result
//   - Operation records: UnaryOp and BinaryOp hold slot references and the
//     local derivatives computed during the forward pass
//   - Backward: replays the tape in reverse, combining stored derivatives
//     with upstream gradients by operation kind
//
// Usage:
//
//	w := autodiff.MustNew(tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
//	x := autodiff.MustNew(tensor.Shape{2, 2}, []float32{1, 0, 0, 1}).Trace()
//
//	y, _ := ops.MatMul(x, w) // tape moves from x to y
//	loss, _ := ops.Sum(y)
//
//	grads, _ := autodiff.Backward(loss)
//	grads.Get(w) // d loss / d w
//	grads.Get(x) // d loss / d x
package autodiff
