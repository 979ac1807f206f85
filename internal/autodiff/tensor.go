package autodiff

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/tensor"
)

// Tensor is a shaped value with an identity and an optional tape.
//
// A tensor without a tape is a constant: it can receive a gradient but does
// not propagate recording into new operations. A tensor with a tape is the
// single owner of its chain's log. The shape never changes after creation.
type Tensor[T tensor.Float] struct {
	id    ID
	value *tensor.Buffer[T]
	tape  *Tape[T]
}

// New creates a constant tensor from a copy of data.
func New[T tensor.Float](shape tensor.Shape, data []T) (*Tensor[T], error) {
	buf, err := tensor.New(shape, data)
	if err != nil {
		return nil, err
	}
	return &Tensor[T]{id: NextID(), value: buf}, nil
}

// MustNew is like New but panics on error.
func MustNew[T tensor.Float](shape tensor.Shape, data []T) *Tensor[T] {
	t, err := New(shape, data)
	if err != nil {
		panic(err)
	}
	return t
}

// FromBuffer creates a constant tensor holding a copy of buf.
func FromBuffer[T tensor.Float](buf *tensor.Buffer[T]) *Tensor[T] {
	return &Tensor[T]{id: NextID(), value: buf.Clone()}
}

// FromNested creates a constant tensor from nested slices matching shape.
func FromNested[T tensor.Float](shape tensor.Shape, values any) (*Tensor[T], error) {
	buf, err := tensor.FromNested[T](shape, values)
	if err != nil {
		return nil, err
	}
	return &Tensor[T]{id: NextID(), value: buf}, nil
}

// Zeros creates a constant tensor filled with zeros.
func Zeros[T tensor.Float](shape tensor.Shape) *Tensor[T] {
	return &Tensor[T]{id: NextID(), value: tensor.Zeros[T](shape)}
}

// Ones creates a constant tensor filled with ones.
func Ones[T tensor.Float](shape tensor.Shape) *Tensor[T] {
	return &Tensor[T]{id: NextID(), value: tensor.Ones[T](shape)}
}

// Full creates a constant tensor filled with value.
func Full[T tensor.Float](shape tensor.Shape, value T) *Tensor[T] {
	return &Tensor[T]{id: NextID(), value: tensor.Full(shape, value)}
}

// Scalar creates a rank-0 constant tensor.
func Scalar[T tensor.Float](value T) *Tensor[T] {
	return &Tensor[T]{id: NextID(), value: tensor.Scalar(value)}
}

// newResult wraps an operation's output under a fresh identifier.
func newResult[T tensor.Float](value *tensor.Buffer[T]) *Tensor[T] {
	return &Tensor[T]{id: NextID(), value: value}
}

// ID returns the tensor's identifier.
func (t *Tensor[T]) ID() ID {
	return t.id
}

// Shape returns the tensor's shape.
func (t *Tensor[T]) Shape() tensor.Shape {
	return t.value.Shape()
}

// Rank returns the number of dimensions.
func (t *Tensor[T]) Rank() int {
	return t.value.Rank()
}

// Value returns the underlying buffer. Callers must not change its data
// while the tensor takes part in a recorded computation.
func (t *Tensor[T]) Value() *tensor.Buffer[T] {
	return t.value
}

// Data returns the flat row-major data.
func (t *Tensor[T]) Data() []T {
	return t.value.Data()
}

// Item returns the single element of a rank-0 or one-element tensor.
func (t *Tensor[T]) Item() T {
	return t.value.Item()
}

// HasTape reports whether the tensor currently owns a tape.
func (t *Tensor[T]) HasTape() bool {
	return t.tape != nil
}

// Tape returns the owned tape or nil.
func (t *Tensor[T]) Tape() *Tape[T] {
	return t.tape
}

// Trace returns a copy of t with the same identifier and a brand new tape.
// This is how a chain starts recording. t itself is left unchanged.
func (t *Tensor[T]) Trace() *Tensor[T] {
	traced := &Tensor[T]{id: t.id, value: t.value.Clone()}
	traced.own(NewTape[T]())
	return traced
}

// own makes t the holder of tape. Callers must have released tape from its
// previous holder.
func (t *Tensor[T]) own(tape *Tape[T]) {
	t.tape = tape
	if tape != nil {
		tape.owned = true
	}
}

// Detach removes and returns the owned tape, leaving t a constant with the
// same identifier and data. It returns nil if t owns no tape.
func (t *Tensor[T]) Detach() *Tape[T] {
	tape := t.tape
	t.tape = nil
	if tape != nil {
		tape.owned = false
	}
	return tape
}

// Attach makes t the owner of tape. It fails with ErrTapeConflict if t
// already owns a tape or another tensor still holds this one, and with
// ErrTapeConsumed if the tape was replayed by Backward. A nil tape is a
// no-op. Only a detached tape can be attached; use HandOff to move a tape
// between tensors directly.
func (t *Tensor[T]) Attach(tape *Tape[T]) error {
	if tape == nil {
		return nil
	}
	if t.tape != nil {
		return fmt.Errorf("attach: %w", ErrTapeConflict)
	}
	if tape.consumed {
		return fmt.Errorf("attach: %w", ErrTapeConsumed)
	}
	if tape.owned {
		return fmt.Errorf("attach: %w: tape is still held by another tensor", ErrTapeConflict)
	}
	t.own(tape)
	return nil
}

// Duplicate copies the data and keeps the identifier, so gradients flowing
// into the duplicate accumulate into the original's slot. The duplicate
// owns no tape.
func (t *Tensor[T]) Duplicate() *Tensor[T] {
	return &Tensor[T]{id: t.id, value: t.value.Clone()}
}

// DuplicateWithTape is Duplicate that also moves t's tape to the duplicate.
func (t *Tensor[T]) DuplicateWithTape() *Tensor[T] {
	d := t.Duplicate()
	d.own(t.Detach())
	return d
}

// Copy returns an independent leaf: the same data under a fresh identifier
// and without a tape.
func (t *Tensor[T]) Copy() *Tensor[T] {
	return &Tensor[T]{id: NextID(), value: t.value.Clone()}
}

// String returns a human-readable description.
func (t *Tensor[T]) String() string {
	return fmt.Sprintf("Tensor(id=%s, tape=%t, %s)", t.id, t.tape != nil, t.value)
}

// HandOff moves the tape owned by from to to. It does nothing if from owns
// no tape, and fails with ErrTapeConflict if to already owns one.
//
// Layers use it to route the single tape of a chain through several
// branches of one computation:
//
//	q, _ := proj.Forward(x)     // tape moves x -> q
//	autodiff.HandOff(q, x)      // tape back on x for the next projection
//	k, _ := proj2.Forward(x)
func HandOff[T tensor.Float](from, to *Tensor[T]) error {
	if from == to || from.tape == nil {
		return nil
	}
	if to.tape != nil {
		return fmt.Errorf("hand off: %w", ErrTapeConflict)
	}
	to.own(from.Detach())
	return nil
}
