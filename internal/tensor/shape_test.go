package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_Validate(t *testing.T) {
	tests := []struct {
		name    string
		shape   Shape
		wantErr bool
	}{
		{"scalar", Shape{}, false},
		{"vector", Shape{3}, false},
		{"rank 4", Shape{1, 2, 3, 4}, false},
		{"rank 5", Shape{1, 1, 1, 1, 1}, true},
		{"zero dim", Shape{2, 0}, true},
		{"negative dim", Shape{-1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.shape.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidShape)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestShape_Basics(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 3, s.Rank())
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())
	assert.True(t, s.HasSuffix(Shape{3, 4}))
	assert.True(t, s.HasSuffix(Shape{}))
	assert.False(t, s.HasSuffix(Shape{2, 4}))
	assert.False(t, Shape{4}.HasSuffix(Shape{3, 4}))

	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0])
}

func TestShape_Visit(t *testing.T) {
	var offsets []int
	var coords [][]int
	err := Shape{2, 3}.Visit(func(offset int, c []int) error {
		offsets = append(offsets, offset)
		coords = append(coords, append([]int(nil), c...))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, offsets)
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}, coords)

	calls := 0
	err = Shape{}.Visit(func(offset int, c []int) error {
		calls++
		assert.Empty(t, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	stop := assert.AnError
	calls = 0
	err = Shape{4}.Visit(func(int, []int) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b    Shape
		want    Shape
		needs   bool
		wantErr bool
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{Shape{5}, Shape{3, 5}, Shape{3, 5}, true, false},
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{Shape{}, Shape{2, 2}, Shape{2, 2}, true, false},
		{Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}

	for _, tt := range tests {
		got, needs, err := BroadcastShapes(tt.a, tt.b)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrShapeMismatch)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.needs, needs)
	}
}

func TestMatMulShapes(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(a, b Shape) (Shape, error)
		a, b    Shape
		want    Shape
		wantErr bool
	}{
		{"matmul", MatMulShape, Shape{2, 3}, Shape{3, 4}, Shape{2, 4}, false},
		{"matmul vector", MatMulShape, Shape{3}, Shape{3, 4}, Shape{4}, false},
		{"matmul batched", MatMulShape, Shape{5, 2, 3}, Shape{5, 3, 4}, Shape{5, 2, 4}, false},
		{"matmul shared", MatMulShape, Shape{6, 5, 2, 3}, Shape{3, 4}, Shape{6, 5, 2, 4}, false},
		{"matmul inner", MatMulShape, Shape{2, 3}, Shape{4, 3}, nil, true},
		{"matmul vector batched", MatMulShape, Shape{3}, Shape{2, 3, 4}, nil, true},
		{"matmul rank 1 rhs", MatMulShape, Shape{2, 3}, Shape{3}, nil, true},
		{"transposed", MatMulTransposedShape, Shape{2, 3}, Shape{4, 3}, Shape{2, 4}, false},
		{"transposed vector", MatMulTransposedShape, Shape{3}, Shape{4, 3}, Shape{4}, false},
		{"transposed inner", MatMulTransposedShape, Shape{2, 3}, Shape{3, 4}, nil, true},
		{"lhs transposed", TransposedMatMulShape, Shape{3, 2}, Shape{3, 4}, Shape{2, 4}, false},
		{"outer product", TransposedMatMulShape, Shape{2}, Shape{4}, Shape{2, 4}, false},
		{"lhs transposed inner", TransposedMatMulShape, Shape{3, 2}, Shape{2, 4}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.a, tt.b)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrShapeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
