package tensor

// broadcastIndex maps every flat offset of the expanded shape big onto the
// flat offset of small it was replicated from. small must broadcast to big
// under NumPy rules (right-aligned, size-1 or missing axes replicate).
func broadcastIndex(small, big Shape) ([]int, error) {
	shape, _, err := BroadcastShapes(small, big)
	if err != nil || !shape.Equal(big) {
		return nil, mismatch("broadcast", small, big)
	}

	smallStrides := small.ComputeStrides()
	lead := len(big) - len(small)
	index := make([]int, big.NumElements())
	_ = big.Visit(func(offset int, coords []int) error {
		src := 0
		for d := range small {
			if small[d] != 1 {
				src += coords[lead+d] * smallStrides[d]
			}
		}
		index[offset] = src
		return nil
	})
	return index, nil
}

// BroadcastTo expands the buffer to shape using NumPy broadcasting rules.
func (b *Buffer[T]) BroadcastTo(shape Shape) (*Buffer[T], error) {
	if b.shape.Equal(shape) {
		return b.Clone(), nil
	}
	index, err := broadcastIndex(b.shape, shape)
	if err != nil {
		return nil, err
	}
	out := Zeros[T](shape)
	for i, src := range index {
		out.data[i] = b.data[src]
	}
	return out, nil
}

// BroadcastLeading replicates the buffer m times along a new leading axis.
//
// Example: a [3] buffer broadcast with m=2 has shape [2, 3].
func (b *Buffer[T]) BroadcastLeading(m int) (*Buffer[T], error) {
	shape := append(Shape{m}, b.shape...)
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	out := Zeros[T](shape)
	for i := 0; i < m; i++ {
		copy(out.data[i*len(b.data):], b.data)
	}
	return out, nil
}

// SumTo reduces the buffer to shape by summing over every axis that
// broadcasting would have replicated. It is the reverse of BroadcastTo.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func (b *Buffer[T]) SumTo(shape Shape) (*Buffer[T], error) {
	if b.shape.Equal(shape) {
		return b.Clone(), nil
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	index, err := broadcastIndex(shape, b.shape)
	if err != nil {
		return nil, err
	}
	out := Zeros[T](shape)
	for i, dst := range index {
		out.data[dst] += b.data[i]
	}
	return out, nil
}
