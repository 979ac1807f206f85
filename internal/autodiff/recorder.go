package autodiff

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/tensor"
)

// UnaryDerive computes the local derivative of a unary operation given its
// forward output. It is called only when a tape is in scope.
type UnaryDerive[T tensor.Float] func(out *tensor.Buffer[T]) (*tensor.Buffer[T], error)

// BinaryDerive computes the local derivatives of a binary operation with
// respect to lhs and rhs. It is called only when a tape is in scope.
type BinaryDerive[T tensor.Float] func(out *tensor.Buffer[T]) (dlhs, drhs *tensor.Buffer[T], err error)

// RecordUnary runs forward, wraps its output in a fresh tensor and, if in
// owns a tape, records the operation and moves the tape to the result.
func RecordUnary[T tensor.Float](
	kind Kind,
	name string,
	in *Tensor[T],
	forward func() (*tensor.Buffer[T], error),
	derive UnaryDerive[T],
) (*Tensor[T], error) {
	tape := in.tape
	if tape != nil && tape.consumed {
		return nil, fmt.Errorf("%s: %w", name, ErrTapeConsumed)
	}

	value, err := forward()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out := newResult(value)
	if tape == nil {
		return out, nil
	}

	deriv, err := derive(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := checkDerivative(kind, 0, in.Shape(), deriv.Shape(), value.Shape()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := tape.checkSlot(in.id, in.Shape()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	parent, err := tape.GradientSlot(in.id, in.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	dref, err := tape.StoreDerivative(deriv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	result, err := tape.GradientSlot(out.id, value.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	op := UnaryOp{Kind: kind, Name: name, Parent: parent, Derivative: dref, Out: result}
	if err := tape.Record(op); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	out.own(in.Detach())
	return out, nil
}

// RecordBinary runs forward, wraps its output in a fresh tensor and, if an
// operand owns a tape, records the operation and moves the tape to the
// result. Two distinct tape owners are rejected before forward runs.
func RecordBinary[T tensor.Float](
	kind Kind,
	name string,
	lhs, rhs *Tensor[T],
	forward func() (*tensor.Buffer[T], error),
	derive BinaryDerive[T],
) (*Tensor[T], error) {
	owner, err := resolveOwner(lhs, rhs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var tape *Tape[T]
	if owner != nil {
		tape = owner.tape
		if tape.consumed {
			return nil, fmt.Errorf("%s: %w", name, ErrTapeConsumed)
		}
	}

	value, err := forward()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	out := newResult(value)
	if tape == nil {
		return out, nil
	}

	dl, dr, err := derive(value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := checkDerivative(kind, 0, lhs.Shape(), dl.Shape(), value.Shape()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := checkDerivative(kind, 1, rhs.Shape(), dr.Shape(), value.Shape()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := tape.checkSlot(lhs.id, lhs.Shape()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := tape.checkSlot(rhs.id, rhs.Shape()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	var op BinaryOp
	op.Kind, op.Name = kind, name
	for i, pair := range [2]struct {
		in    *Tensor[T]
		deriv *tensor.Buffer[T]
	}{{lhs, dl}, {rhs, dr}} {
		if op.Parents[i], err = tape.GradientSlot(pair.in.id, pair.in.Shape()); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if op.Derivatives[i], err = tape.StoreDerivative(pair.deriv); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if op.Out, err = tape.GradientSlot(out.id, value.Shape()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if err := tape.Record(op); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	out.own(owner.Detach())
	return out, nil
}

// resolveOwner returns the operand owning a tape, or nil when neither does.
// The same tensor passed as both operands counts as one owner.
func resolveOwner[T tensor.Float](lhs, rhs *Tensor[T]) (*Tensor[T], error) {
	switch {
	case lhs.tape != nil && rhs.tape != nil && lhs != rhs:
		return nil, ErrTapeConflict
	case lhs.tape != nil:
		return lhs, nil
	case rhs.tape != nil:
		return rhs, nil
	default:
		return nil, nil
	}
}

// checkDerivative validates the shape of the derivative stored for parent
// number idx against what the backward rule for kind expects.
func checkDerivative(kind Kind, idx int, parent, deriv, out tensor.Shape) error {
	var ok bool
	switch kind {
	case KindElementwise, KindSoftmax:
		ok = deriv.Equal(parent) && deriv.Equal(out)
	case KindBroadcast:
		ok = deriv.Equal(out) || deriv.Equal(parent)
	case KindReduce, KindReshape:
		ok = deriv.Equal(parent)
	case KindMatMul:
		// Swapped: the derivative for lhs is rhs and vice versa.
		if idx == 0 {
			_, err := tensor.MatMulTransposedShape(out, deriv)
			ok = err == nil
		} else {
			_, err := tensor.TransposedMatMulShape(deriv, out)
			ok = err == nil
		}
	case KindMatMulTransposed:
		if idx == 0 {
			_, err := tensor.MatMulShape(out, deriv)
			ok = err == nil
		} else {
			_, err := tensor.TransposedMatMulShape(out, deriv)
			ok = err == nil
		}
	default:
		return fmt.Errorf("unknown operation kind %v", kind)
	}
	if !ok {
		return fmt.Errorf("%s derivative %d: %w: derivative %v, parent %v, result %v",
			kind, idx, tensor.ErrShapeMismatch, deriv, parent, out)
	}
	return nil
}
