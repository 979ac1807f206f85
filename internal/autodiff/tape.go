package autodiff

import (
	"fmt"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/born-ml/gradtape/internal/tensor"
)

// Tape is the append-only log of one computation chain.
//
// Besides the records themselves the tape owns the storage they reference:
// the local derivatives computed during the forward pass and the
// accumulated gradient of every slot that appears in a record. A tape is
// owned by exactly one tensor at a time and is handed from operand to
// result by the operation recorder.
//
// Usage:
//
//	x := autodiff.MustNew(tensor.Shape{3}, []float64{1, 2, 3}).Trace()
//	y, _ := ops.Square(x)
//	loss, _ := ops.Sum(y)
//	grads, _ := autodiff.Backward(loss)
//	grads.Get(x) // [2 4 6]
type Tape[T tensor.Float] struct {
	id          uuid.UUID
	operations  []Operation
	derivatives map[ID]*tensor.Buffer[T]
	gradients   map[ID]*tensor.Buffer[T]
	consumed    bool
	owned       bool // held by a tensor
}

// NewTape creates an empty tape.
func NewTape[T tensor.Float]() *Tape[T] {
	return &Tape[T]{
		id:          uuid.New(),
		operations:  make([]Operation, 0, 16),
		derivatives: make(map[ID]*tensor.Buffer[T]),
		gradients:   make(map[ID]*tensor.Buffer[T]),
	}
}

// ID returns the tape's identifier. It is used only to correlate log lines.
func (t *Tape[T]) ID() uuid.UUID {
	return t.id
}

// Len returns the number of recorded operations.
func (t *Tape[T]) Len() int {
	return len(t.operations)
}

// Operations returns a copy of the recorded operations in forward order.
func (t *Tape[T]) Operations() []Operation {
	out := make([]Operation, len(t.operations))
	copy(out, t.operations)
	return out
}

// Consumed reports whether Backward already replayed this tape.
func (t *Tape[T]) Consumed() bool {
	return t.consumed
}

// Owned reports whether a tensor currently holds the tape.
func (t *Tape[T]) Owned() bool {
	return t.owned
}

// StoreDerivative keeps buf on the tape under a fresh identifier and
// returns its handle. The tape takes ownership of buf.
func (t *Tape[T]) StoreDerivative(buf *tensor.Buffer[T]) (SlotRef, error) {
	if t.consumed {
		return SlotRef{}, ErrTapeConsumed
	}
	id := NextID()
	t.derivatives[id] = buf
	return SlotRef{ID: id, Shape: buf.Shape()}, nil
}

// Derivative returns the stored derivative referenced by ref.
func (t *Tape[T]) Derivative(ref SlotRef) (*tensor.Buffer[T], bool) {
	buf, ok := t.derivatives[ref.ID]
	return buf, ok
}

// GradientSlot returns the handle of the accumulated gradient for id,
// creating a zero-filled buffer of the given shape if absent. A slot that
// already exists with another shape is rejected.
func (t *Tape[T]) GradientSlot(id ID, shape tensor.Shape) (SlotRef, error) {
	if t.consumed {
		return SlotRef{}, ErrTapeConsumed
	}
	if err := t.checkSlot(id, shape); err != nil {
		return SlotRef{}, err
	}
	if _, ok := t.gradients[id]; !ok {
		t.gradients[id] = tensor.Zeros[T](shape)
	}
	return SlotRef{ID: id, Shape: shape.Clone()}, nil
}

// checkSlot verifies that registering id with shape keeps slot shapes consistent.
func (t *Tape[T]) checkSlot(id ID, shape tensor.Shape) error {
	if g, ok := t.gradients[id]; ok && !g.Shape().Equal(shape) {
		return fmt.Errorf("gradient slot %s: %w: registered as %v, got %v",
			id, tensor.ErrShapeMismatch, g.Shape(), shape)
	}
	return nil
}

// Record appends op. Records are never removed or modified.
func (t *Tape[T]) Record(op Operation) error {
	if t.consumed {
		return ErrTapeConsumed
	}
	t.operations = append(t.operations, op)
	klog.V(5).InfoS("Recorded operation",
		"tape", t.id, "index", len(t.operations)-1,
		"op", op.OpName(), "kind", op.OpKind(), "out", op.Result().ID)
	return nil
}

// String returns a short description of the tape.
func (t *Tape[T]) String() string {
	return fmt.Sprintf("Tape(%s, ops=%d, consumed=%t)", t.id, len(t.operations), t.consumed)
}
