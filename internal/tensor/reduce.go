package tensor

import "math"

// Sum returns the sum of all elements.
func (b *Buffer[T]) Sum() T {
	var sum T
	for _, v := range b.data {
		sum += v
	}
	return sum
}

// Mean returns the arithmetic mean of all elements.
func (b *Buffer[T]) Mean() T {
	return b.Sum() / T(len(b.data))
}

// Dot returns the inner product of two buffers of identical shape.
func (b *Buffer[T]) Dot(other *Buffer[T]) (T, error) {
	if !b.shape.Equal(other.shape) {
		return 0, mismatch("dot", b.shape, other.shape)
	}
	var sum T
	for i, v := range b.data {
		sum += v * other.data[i]
	}
	return sum, nil
}

// SumAxis sums along axis. The reduced axis is kept with extent 1, so the
// result always broadcasts back to the input shape.
func (b *Buffer[T]) SumAxis(axis int) (*Buffer[T], error) {
	axis, err := normalizeAxis(axis, len(b.shape))
	if err != nil {
		return nil, err
	}
	target := b.shape.Clone()
	target[axis] = 1
	return b.SumTo(target)
}

// MeanAxis averages along axis, keeping the reduced axis with extent 1.
func (b *Buffer[T]) MeanAxis(axis int) (*Buffer[T], error) {
	axis, err := normalizeAxis(axis, len(b.shape))
	if err != nil {
		return nil, err
	}
	n := b.shape[axis]
	sum, err := b.SumAxis(axis)
	if err != nil {
		return nil, err
	}
	return sum.Scale(1 / T(n)), nil
}

// Softmax applies a numerically stable softmax along the last axis.
// A rank-0 buffer softmaxes to 1.
func (b *Buffer[T]) Softmax() *Buffer[T] {
	out := b.Clone()
	if len(b.shape) == 0 {
		out.data[0] = 1
		return out
	}
	width := b.shape[len(b.shape)-1]
	for start := 0; start < len(out.data); start += width {
		row := out.data[start : start+width]
		maxVal := row[0]
		for _, v := range row[1:] {
			maxVal = max(maxVal, v)
		}
		var sum T
		for i, v := range row {
			e := T(math.Exp(float64(v - maxVal)))
			row[i] = e
			sum += e
		}
		for i := range row {
			row[i] /= sum
		}
	}
	return out
}
