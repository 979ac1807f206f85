package tensor

// Map applies f to every element and returns a new buffer.
func (b *Buffer[T]) Map(f func(T) T) *Buffer[T] {
	out := &Buffer[T]{shape: b.shape.Clone(), data: make([]T, len(b.data))}
	for i, v := range b.data {
		out.data[i] = f(v)
	}
	return out
}

// Zip combines two buffers of identical shape elementwise.
func (b *Buffer[T]) Zip(other *Buffer[T], f func(x, y T) T) (*Buffer[T], error) {
	if !b.shape.Equal(other.shape) {
		return nil, mismatch("zip", b.shape, other.shape)
	}
	out := &Buffer[T]{shape: b.shape.Clone(), data: make([]T, len(b.data))}
	for i := range b.data {
		out.data[i] = f(b.data[i], other.data[i])
	}
	return out, nil
}

// Add returns b + other for equal shapes.
func (b *Buffer[T]) Add(other *Buffer[T]) (*Buffer[T], error) {
	return b.Zip(other, func(x, y T) T { return x + y })
}

// Sub returns b - other for equal shapes.
func (b *Buffer[T]) Sub(other *Buffer[T]) (*Buffer[T], error) {
	return b.Zip(other, func(x, y T) T { return x - y })
}

// Mul returns b * other elementwise for equal shapes.
func (b *Buffer[T]) Mul(other *Buffer[T]) (*Buffer[T], error) {
	return b.Zip(other, func(x, y T) T { return x * y })
}

// Div returns b / other elementwise for equal shapes.
func (b *Buffer[T]) Div(other *Buffer[T]) (*Buffer[T], error) {
	return b.Zip(other, func(x, y T) T { return x / y })
}

// Scale returns b * c.
func (b *Buffer[T]) Scale(c T) *Buffer[T] {
	return b.Map(func(x T) T { return x * c })
}

// AddInPlace accumulates other into b. Shapes must be equal; b is left
// untouched on mismatch.
func (b *Buffer[T]) AddInPlace(other *Buffer[T]) error {
	if !b.shape.Equal(other.shape) {
		return mismatch("add_in_place", b.shape, other.shape)
	}
	for i, v := range other.data {
		b.data[i] += v
	}
	return nil
}

// Fill sets every element to value.
func (b *Buffer[T]) Fill(value T) {
	for i := range b.data {
		b.data[i] = value
	}
}

// BroadcastBinary applies f after broadcasting both operands to their
// common NumPy-style shape.
func BroadcastBinary[T Float](a, b *Buffer[T], f func(x, y T) T) (*Buffer[T], error) {
	shape, _, err := BroadcastShapes(a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	ea, err := a.BroadcastTo(shape)
	if err != nil {
		return nil, err
	}
	eb, err := b.BroadcastTo(shape)
	if err != nil {
		return nil, err
	}
	return ea.Zip(eb, f)
}
