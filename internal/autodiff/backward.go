package autodiff

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/born-ml/gradtape/internal/tensor"
)

// Backward computes the gradient of the scalar terminal with respect to
// every slot on its tape.
//
// Algorithm:
//  1. Detach the tape from terminal and mark it consumed
//  2. Seed the terminal's slot with 1
//  3. Walk records in reverse, combining each stored derivative with the
//     upstream gradient according to the record's kind
//  4. Add every contribution into the parent's slot
//
// The stored derivatives are released afterwards. Replaying the same tape a
// second time fails with ErrTapeConsumed.
func Backward[T tensor.Float](terminal *Tensor[T]) (*Gradients[T], error) {
	tape := terminal.tape
	if tape == nil {
		return nil, fmt.Errorf("backward: %w", ErrNoTape)
	}
	if tape.consumed {
		return nil, fmt.Errorf("backward: %w", ErrTapeConsumed)
	}
	if terminal.Rank() != 0 {
		return nil, fmt.Errorf("backward: %w: got shape %v", ErrNotScalar, terminal.Shape())
	}

	seed, err := tape.GradientSlot(terminal.id, terminal.Shape())
	if err != nil {
		return nil, fmt.Errorf("backward: %w", err)
	}
	terminal.Detach()
	tape.consumed = true
	tape.gradients[seed.ID].Fill(1)

	klog.V(4).InfoS("Starting backward pass",
		"tape", tape.id, "ops", len(tape.operations), "terminal", terminal.id)

	for i := len(tape.operations) - 1; i >= 0; i-- {
		if err := tape.replay(tape.operations[i]); err != nil {
			return nil, fmt.Errorf("backward: op %d: %w", i, err)
		}
	}

	grads := &Gradients[T]{grads: tape.gradients}
	tape.gradients = nil
	tape.derivatives = nil

	klog.V(4).InfoS("Finished backward pass", "tape", tape.id, "gradients", grads.Len())
	return grads, nil
}

// replay adds the contributions of one record into its parents' slots.
func (t *Tape[T]) replay(op Operation) error {
	upstream, ok := t.gradients[op.Result().ID]
	if !ok {
		return fmt.Errorf("%s: missing result slot %s", op.OpName(), op.Result().ID)
	}

	switch op := op.(type) {
	case UnaryOp:
		return t.accumulate(op.Kind, 0, op.Parent, op.Derivative, upstream)
	case BinaryOp:
		for i := range op.Parents {
			if err := t.accumulate(op.Kind, i, op.Parents[i], op.Derivatives[i], upstream); err != nil {
				return fmt.Errorf("%s: %w", op.Name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown operation %T", op)
	}
}

// accumulate computes one parent's contribution and adds it into its slot.
func (t *Tape[T]) accumulate(kind Kind, idx int, parent, dref SlotRef, upstream *tensor.Buffer[T]) error {
	deriv, ok := t.derivatives[dref.ID]
	if !ok {
		return fmt.Errorf("missing derivative %s", dref.ID)
	}
	contrib, err := contribution(kind, idx, parent.Shape, deriv, upstream)
	if err != nil {
		return err
	}
	return t.gradients[parent.ID].AddInPlace(contrib)
}

// contribution combines a stored derivative with the upstream gradient.
// The derivatives of matrix products are the other operand's data, so the
// product is taken with upstream on the matching side.
func contribution[T tensor.Float](kind Kind, idx int, parent tensor.Shape, deriv, upstream *tensor.Buffer[T]) (*tensor.Buffer[T], error) {
	switch kind {
	case KindElementwise:
		return upstream.Mul(deriv)

	case KindBroadcast:
		if deriv.Shape().Equal(parent) && !deriv.Shape().Equal(upstream.Shape()) {
			summed, err := upstream.SumTo(parent)
			if err != nil {
				return nil, err
			}
			return summed.Mul(deriv)
		}
		prod, err := upstream.Mul(deriv)
		if err != nil {
			return nil, err
		}
		return prod.SumTo(parent)

	case KindReduce:
		expanded, err := upstream.BroadcastTo(parent)
		if err != nil {
			return nil, err
		}
		return expanded.Mul(deriv)

	case KindReshape:
		reshaped, err := upstream.Reshape(parent)
		if err != nil {
			return nil, err
		}
		return reshaped.Mul(deriv)

	case KindSoftmax:
		return softmaxVJP(deriv, upstream)

	case KindMatMul:
		var grad *tensor.Buffer[T]
		var err error
		if idx == 0 {
			grad, err = tensor.MatMulTransposed(upstream, deriv)
		} else {
			grad, err = tensor.TransposedMatMul(deriv, upstream)
		}
		if err != nil {
			return nil, err
		}
		return grad.SumTo(parent)

	case KindMatMulTransposed:
		var grad *tensor.Buffer[T]
		var err error
		if idx == 0 {
			grad, err = tensor.MatMul(upstream, deriv)
		} else {
			grad, err = tensor.TransposedMatMul(upstream, deriv)
		}
		if err != nil {
			return nil, err
		}
		return grad.SumTo(parent)

	default:
		return nil, fmt.Errorf("unknown operation kind %v", kind)
	}
}

// softmaxVJP computes y ⊙ (g - Σ g⊙y) row by row along the last axis.
func softmaxVJP[T tensor.Float](y, g *tensor.Buffer[T]) (*tensor.Buffer[T], error) {
	gy, err := g.Mul(y)
	if err != nil {
		return nil, err
	}
	out := gy.Clone()
	if y.Rank() == 0 {
		// d softmax / dx of a single element is 0.
		out.Fill(0)
		return out, nil
	}
	width := y.Shape()[y.Rank()-1]
	yd, od := y.Data(), out.Data()
	for start := 0; start < len(od); start += width {
		var dot T
		for _, v := range od[start : start+width] {
			dot += v
		}
		for i := start; i < start+width; i++ {
			od[i] -= yd[i] * dot
		}
	}
	return out, nil
}
