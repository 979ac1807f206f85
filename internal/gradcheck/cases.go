// Package gradcheck compares tape gradients against central finite
// differences.
//
// Analytic gradients are computed in the element type under test. The
// numerical reference is always computed in float64 from the same inputs,
// so float32 results are judged against an exact-as-possible baseline.
package gradcheck

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Domain restricts the random inputs of a case.
type Domain int

// Supported input domains.
const (
	Any          Domain = iota // U(-2, 2)
	Positive                   // U(0.5, 2.5)
	AwayFromZero               // |x| in [0.2, 2], for kinks at zero
)

// Case is one operation under test.
type Case struct {
	Name   string
	Shapes []tensor.Shape // one per operand
	Domain Domain
	// Skip lists operand indices whose gradient is not checked, for
	// operands that are not differentiable inputs (targets).
	Skip []int
}

// Suite returns the op-level cases run by the gradcheck command.
func Suite() []Case {
	s23, s3, s32 := tensor.Shape{2, 3}, tensor.Shape{3}, tensor.Shape{3, 2}
	return []Case{
		{Name: "neg", Shapes: []tensor.Shape{s23}},
		{Name: "square", Shapes: []tensor.Shape{s23}},
		{Name: "scale", Shapes: []tensor.Shape{s23}},
		{Name: "add_scalar", Shapes: []tensor.Shape{s23}},
		{Name: "sqrt", Shapes: []tensor.Shape{s23}, Domain: Positive},
		{Name: "rsqrt", Shapes: []tensor.Shape{s23}, Domain: Positive},
		{Name: "exp", Shapes: []tensor.Shape{s23}},
		{Name: "log", Shapes: []tensor.Shape{s23}, Domain: Positive},
		{Name: "sin", Shapes: []tensor.Shape{s23}},
		{Name: "cos", Shapes: []tensor.Shape{s23}},
		{Name: "tanh", Shapes: []tensor.Shape{s23}},
		{Name: "sigmoid", Shapes: []tensor.Shape{s23}},
		{Name: "relu", Shapes: []tensor.Shape{s23}, Domain: AwayFromZero},
		{Name: "silu", Shapes: []tensor.Shape{s23}},
		{Name: "sum", Shapes: []tensor.Shape{s23}},
		{Name: "mean", Shapes: []tensor.Shape{s23}},
		{Name: "sum_axis", Shapes: []tensor.Shape{s23}},
		{Name: "mean_axis", Shapes: []tensor.Shape{s23}},
		{Name: "softmax", Shapes: []tensor.Shape{s23}},
		{Name: "reshape", Shapes: []tensor.Shape{s23}},
		{Name: "add", Shapes: []tensor.Shape{s23, s23}},
		{Name: "add_broadcast", Shapes: []tensor.Shape{s23, s3}},
		{Name: "sub", Shapes: []tensor.Shape{s23, {2, 1}}},
		{Name: "mul", Shapes: []tensor.Shape{s23, s23}},
		{Name: "div", Shapes: []tensor.Shape{s23, s23}, Domain: Positive},
		{Name: "broadcast_add", Shapes: []tensor.Shape{s23, s3}},
		{Name: "matmul", Shapes: []tensor.Shape{s23, s32}},
		{Name: "matmul_batched", Shapes: []tensor.Shape{{2, 2, 3}, s32}},
		{Name: "matmul_transposed", Shapes: []tensor.Shape{s23, {4, 3}}},
		{Name: "mse", Shapes: []tensor.Shape{s23, s23}},
		{Name: "cross_entropy", Shapes: []tensor.Shape{s23, s23}, Domain: Positive, Skip: []int{1}},
	}
}

// Apply evaluates the named operation on in.
func Apply[T tensor.Float](name string, in []*autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	x := in[0]
	switch name {
	case "neg":
		return ops.Neg(x)
	case "square":
		return ops.Square(x)
	case "scale":
		return ops.Scale(x, 1.5)
	case "add_scalar":
		return ops.AddScalar(x, -0.75)
	case "sqrt":
		return ops.Sqrt(x)
	case "rsqrt":
		return ops.Rsqrt(x)
	case "exp":
		return ops.Exp(x)
	case "log":
		return ops.Log(x)
	case "sin":
		return ops.Sin(x)
	case "cos":
		return ops.Cos(x)
	case "tanh":
		return ops.Tanh(x)
	case "sigmoid":
		return ops.Sigmoid(x)
	case "relu":
		return ops.ReLU(x)
	case "silu":
		return ops.SiLU(x)
	case "sum":
		return ops.Sum(x)
	case "mean":
		return ops.Mean(x)
	case "sum_axis":
		return ops.SumAxis(x, 0)
	case "mean_axis":
		return ops.MeanAxis(x, -1)
	case "softmax":
		return ops.Softmax(x)
	case "reshape":
		return ops.Reshape(x, tensor.Shape{3, 2})
	case "add", "add_broadcast":
		return ops.Add(x, in[1])
	case "sub":
		return ops.Sub(x, in[1])
	case "mul":
		return ops.Mul(x, in[1])
	case "div":
		return ops.Div(x, in[1])
	case "broadcast_add":
		return ops.BroadcastAdd(x, in[1])
	case "matmul", "matmul_batched":
		return ops.MatMul(x, in[1])
	case "matmul_transposed":
		return ops.MatMulTransposed(x, in[1])
	case "mse":
		return ops.MSE(x, in[1])
	case "cross_entropy":
		return ops.CrossEntropy(x, in[1])
	default:
		return nil, fmt.Errorf("gradcheck: unknown operation %q", name)
	}
}
