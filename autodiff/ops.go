// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package autodiff

import (
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Add returns lhs + rhs with NumPy broadcasting.
func Add[T tensor.Float](lhs, rhs *Tensor[T]) (*Tensor[T], error) { return ops.Add(lhs, rhs) }

// Sub returns lhs - rhs with NumPy broadcasting.
func Sub[T tensor.Float](lhs, rhs *Tensor[T]) (*Tensor[T], error) { return ops.Sub(lhs, rhs) }

// Mul returns lhs ⊙ rhs with NumPy broadcasting.
func Mul[T tensor.Float](lhs, rhs *Tensor[T]) (*Tensor[T], error) { return ops.Mul(lhs, rhs) }

// Div returns lhs / rhs with NumPy broadcasting.
func Div[T tensor.Float](lhs, rhs *Tensor[T]) (*Tensor[T], error) { return ops.Div(lhs, rhs) }

// BroadcastAdd adds rhs replicated along the leading axes of lhs.
func BroadcastAdd[T tensor.Float](lhs, rhs *Tensor[T]) (*Tensor[T], error) {
	return ops.BroadcastAdd(lhs, rhs)
}

// MatMul returns lhs · rhs.
func MatMul[T tensor.Float](lhs, rhs *Tensor[T]) (*Tensor[T], error) { return ops.MatMul(lhs, rhs) }

// MatMulTransposed returns lhs · rhsᵀ.
func MatMulTransposed[T tensor.Float](lhs, rhs *Tensor[T]) (*Tensor[T], error) {
	return ops.MatMulTransposed(lhs, rhs)
}

// Neg returns -x.
func Neg[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.Neg(x) }

// Scale returns c · x.
func Scale[T tensor.Float](x *Tensor[T], c T) (*Tensor[T], error) { return ops.Scale(x, c) }

// Square returns x².
func Square[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.Square(x) }

// Exp returns eˣ.
func Exp[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.Exp(x) }

// Log returns ln x.
func Log[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.Log(x) }

// Tanh returns tanh x.
func Tanh[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.Tanh(x) }

// ReLU returns max(0, x).
func ReLU[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.ReLU(x) }

// Sum reduces every element to a rank-0 tensor.
func Sum[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.Sum(x) }

// Mean averages every element to a rank-0 tensor.
func Mean[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.Mean(x) }

// Softmax normalizes along the last axis.
func Softmax[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.Softmax(x) }

// Reshape reinterprets x with a new shape of the same size.
func Reshape[T tensor.Float](x *Tensor[T], shape tensor.Shape) (*Tensor[T], error) {
	return ops.Reshape(x, shape)
}

// Sigmoid returns 1 / (1 + e⁻ˣ).
func Sigmoid[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.Sigmoid(x) }

// Sqrt returns √x.
func Sqrt[T tensor.Float](x *Tensor[T]) (*Tensor[T], error) { return ops.Sqrt(x) }

// MSE returns the mean squared error between pred and target.
func MSE[T tensor.Float](pred, target *Tensor[T]) (*Tensor[T], error) { return ops.MSE(pred, target) }

// CrossEntropy returns the mean cross-entropy of logits against one-hot target rows.
func CrossEntropy[T tensor.Float](logits, target *Tensor[T]) (*Tensor[T], error) {
	return ops.CrossEntropy(logits, target)
}
