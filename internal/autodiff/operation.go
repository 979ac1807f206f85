package autodiff

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/tensor"
)

// Kind selects how the backward pass combines a stored local derivative
// with the upstream gradient. It never re-derives the math of the
// operation; the derivative values are already on the tape.
type Kind int

// Supported operation kinds.
const (
	// KindElementwise: contribution = upstream ⊙ derivative, all shapes equal.
	KindElementwise Kind = iota

	// KindBroadcast: an operand was replicated to the result shape. The
	// contribution is upstream ⊙ derivative summed over the replicated axes.
	// The derivative is stored either in the result shape or, when it is
	// constant along the replicated axes, in the operand's shape.
	KindBroadcast

	// KindReduce: the result has fewer elements than the operand. The
	// upstream gradient is broadcast back to the operand shape and
	// multiplied by the derivative.
	KindReduce

	// KindReshape: the upstream gradient is reinterpreted in the operand's
	// shape and multiplied by the derivative.
	KindReshape

	// KindSoftmax: the derivative holds the forward output y and the
	// contribution is y ⊙ (g - Σ g⊙y) along the last axis.
	KindSoftmax

	// KindMatMul: out = lhs · rhs. The derivative stored for lhs is rhs's
	// data and the one stored for rhs is lhs's data.
	KindMatMul

	// KindMatMulTransposed: out = lhs · rhsᵀ, derivatives swapped like KindMatMul.
	KindMatMulTransposed
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindElementwise:
		return "elementwise"
	case KindBroadcast:
		return "broadcast"
	case KindReduce:
		return "reduce"
	case KindReshape:
		return "reshape"
	case KindSoftmax:
		return "softmax"
	case KindMatMul:
		return "matmul"
	case KindMatMulTransposed:
		return "matmul_transposed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// SlotRef references a gradient slot or stored derivative on a tape.
// It does not reference the tensor itself, so it stays valid after the
// operation that created it has consumed its operands.
type SlotRef struct {
	ID    ID
	Shape tensor.Shape
}

// Operation is one entry on a tape: either a UnaryOp or a BinaryOp.
type Operation interface {
	// OpKind returns the combination rule for the backward pass.
	OpKind() Kind
	// OpName returns the operation name for diagnostics.
	OpName() string
	// Result returns the gradient slot of the operation's output.
	Result() SlotRef

	operation()
}

// UnaryOp records an operation with one parent.
type UnaryOp struct {
	Kind       Kind
	Name       string
	Parent     SlotRef // gradient slot of the input
	Derivative SlotRef // stored local derivative d(out)/d(input)
	Out        SlotRef // gradient slot of the output
}

// OpKind returns the combination rule.
func (op UnaryOp) OpKind() Kind { return op.Kind }

// OpName returns the operation name.
func (op UnaryOp) OpName() string { return op.Name }

// Result returns the output gradient slot.
func (op UnaryOp) Result() SlotRef { return op.Out }

func (UnaryOp) operation() {}

// BinaryOp records an operation with two parents, lhs first.
type BinaryOp struct {
	Kind        Kind
	Name        string
	Parents     [2]SlotRef // gradient slots of lhs and rhs
	Derivatives [2]SlotRef // stored local derivatives for lhs and rhs
	Out         SlotRef    // gradient slot of the output
}

// OpKind returns the combination rule.
func (op BinaryOp) OpKind() Kind { return op.Kind }

// OpName returns the operation name.
func (op BinaryOp) OpName() string { return op.Name }

// Result returns the output gradient slot.
func (op BinaryOp) Result() SlotRef { return op.Out }

func (BinaryOp) operation() {}
