package tensor

import (
	"fmt"
)

// Buffer is a fixed-shape, row-major numeric array.
//
// A Buffer exclusively owns its data slice. Every operation that produces
// a new shape or new values allocates a new Buffer; AddInPlace is the only
// mutating primitive and is reserved for gradient accumulation.
type Buffer[T Float] struct {
	shape Shape
	data  []T
}

// New creates a Buffer from a flat row-major slice. The slice is copied.
func New[T Float](shape Shape, data []T) (*Buffer[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}
	b := &Buffer[T]{shape: shape.Clone(), data: make([]T, len(data))}
	copy(b.data, data)
	return b, nil
}

// Zeros creates a zero-filled Buffer.
// Panics if the shape is invalid.
func Zeros[T Float](shape Shape) *Buffer[T] {
	if err := shape.Validate(); err != nil {
		panic(err)
	}
	return &Buffer[T]{shape: shape.Clone(), data: make([]T, shape.NumElements())}
}

// Full creates a Buffer filled with value.
// Panics if the shape is invalid.
func Full[T Float](shape Shape, value T) *Buffer[T] {
	b := Zeros[T](shape)
	for i := range b.data {
		b.data[i] = value
	}
	return b
}

// Ones creates a Buffer filled with ones.
// Panics if the shape is invalid.
func Ones[T Float](shape Shape) *Buffer[T] {
	return Full[T](shape, 1)
}

// Scalar creates a rank-0 Buffer.
func Scalar[T Float](value T) *Buffer[T] {
	return &Buffer[T]{shape: Shape{}, data: []T{value}}
}

// Shape returns the buffer's shape. The returned slice must not be modified.
func (b *Buffer[T]) Shape() Shape {
	return b.shape
}

// Rank returns the number of dimensions.
func (b *Buffer[T]) Rank() int {
	return len(b.shape)
}

// NumElements returns the total number of elements.
func (b *Buffer[T]) NumElements() int {
	return len(b.data)
}

// Data returns the underlying row-major slice (zero-copy).
//
// WARNING: Modifications to the returned slice will modify the buffer.
func (b *Buffer[T]) Data() []T {
	return b.data
}

// Item returns the value of a single-element buffer.
// Panics if the buffer holds more than one element.
func (b *Buffer[T]) Item() T {
	if len(b.data) != 1 {
		panic(fmt.Sprintf("Item() only works for single-element buffers, got shape %v", b.shape))
	}
	return b.data[0]
}

// At returns the element at the given indices.
// Panics if indices are out of bounds.
func (b *Buffer[T]) At(indices ...int) T {
	return b.data[b.offset(indices)]
}

// Set sets the element at the given indices.
// Panics if indices are out of bounds.
func (b *Buffer[T]) Set(value T, indices ...int) {
	b.data[b.offset(indices)] = value
}

func (b *Buffer[T]) offset(indices []int) int {
	if len(indices) != len(b.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(b.shape), len(indices)))
	}
	offset := 0
	strides := b.shape.ComputeStrides()
	for i, idx := range indices {
		if idx < 0 || idx >= b.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, b.shape[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// Clone creates a deep copy of the buffer.
func (b *Buffer[T]) Clone() *Buffer[T] {
	c := &Buffer[T]{shape: b.shape.Clone(), data: make([]T, len(b.data))}
	copy(c.data, b.data)
	return c
}

// Reshape returns a copy of the buffer with a different shape.
// The new shape must have the same number of elements.
func (b *Buffer[T]) Reshape(shape Shape) (*Buffer[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if shape.NumElements() != len(b.data) {
		return nil, mismatch("reshape", b.shape, shape)
	}
	c := b.Clone()
	c.shape = shape.Clone()
	return c, nil
}

// String returns a human-readable representation of the buffer.
func (b *Buffer[T]) String() string {
	return fmt.Sprintf("Buffer[%s]%v", DataTypeOf[T](), b.shape)
}
