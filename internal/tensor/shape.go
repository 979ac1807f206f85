package tensor

import (
	"errors"
	"fmt"
)

// MaxRank is the highest tensor rank supported by the engine.
const MaxRank = 4

// Common errors.
var (
	ErrInvalidShape  = errors.New("invalid shape")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Shape represents the dimensions of a tensor.
// A rank-0 shape (empty slice) describes a scalar.
type Shape []int

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	n := 1 // Scalar has 1 element
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape has at most MaxRank dimensions and
// that every dimension is positive.
//
// All constructors funnel through Validate, so a Buffer never holds an
// invalid shape.
func (s Shape) Validate() error {
	if len(s) > MaxRank {
		return fmt.Errorf("%w: rank %d exceeds maximum rank %d", ErrInvalidShape, len(s), MaxRank)
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("%w: dimension %d is %d (must be > 0)", ErrInvalidShape, i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// HasSuffix reports whether suffix matches the trailing dimensions of s.
func (s Shape) HasSuffix(suffix Shape) bool {
	if len(suffix) > len(s) {
		return false
	}
	return s[len(s)-len(suffix):].Equal(suffix)
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Visit calls fn once per element in row-major order with the flat
// offset and the element coordinates. The coords slice is reused between
// calls and must not be retained. Iteration stops at the first error.
func (s Shape) Visit(fn func(offset int, coords []int) error) error {
	coords := make([]int, len(s))
	n := s.NumElements()
	for offset := 0; offset < n; offset++ {
		if err := fn(offset, coords); err != nil {
			return err
		}
		// Advance the odometer.
		for d := len(s) - 1; d >= 0; d-- {
			coords[d]++
			if coords[d] < s[d] {
				break
			}
			coords[d] = 0
		}
	}
	return nil
}

// normalizeAxis resolves a possibly negative axis against rank.
func normalizeAxis(axis, rank int) (int, error) {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, fmt.Errorf("%w: axis out of range for rank %d", ErrInvalidShape, rank)
	}
	return axis, nil
}

// mismatch builds the error returned by every shape check.
func mismatch(op string, a, b Shape) error {
	return fmt.Errorf("%s: %w: %v vs %v", op, ErrShapeMismatch, a, b)
}

// BroadcastShapes implements NumPy-style broadcasting rules.
//
// Rules:
// 1. Compare shapes element-wise from right to left
// 2. Dimensions are compatible if:
//   - They are equal, OR
//   - One of them is 1
//
// 3. Missing dimensions are treated as 1
//
// Returns the broadcasted shape, a flag indicating if broadcasting is needed, and an error if incompatible.
//
// Examples:
//
//	(3, 1) + (3, 5) → (3, 5), true, nil
//	(5,)   + (3, 5) → (3, 5), true, nil
//	(3, 5) + (3, 5) → (3, 5), false, nil
//	(3, 4) + (3, 5) → nil, false, Error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	maxLen := max(len(a), len(b))
	result := make(Shape, maxLen)
	needsBroadcast := len(a) != len(b)

	for i := 0; i < maxLen; i++ {
		aIdx := len(a) - 1 - i
		bIdx := len(b) - 1 - i

		aDim := 1
		if aIdx >= 0 {
			aDim = a[aIdx]
		}

		bDim := 1
		if bIdx >= 0 {
			bDim = b[bIdx]
		}

		switch {
		case aDim == bDim:
			result[maxLen-1-i] = aDim
		case aDim == 1:
			result[maxLen-1-i] = bDim
			needsBroadcast = true
		case bDim == 1:
			result[maxLen-1-i] = aDim
			needsBroadcast = true
		default:
			return nil, false, fmt.Errorf("broadcast: %w: %v vs %v (dimension %d: %d vs %d)",
				ErrShapeMismatch, a, b, maxLen-1-i, aDim, bDim)
		}
	}

	return result, needsBroadcast, nil
}

// matmulPlan describes a (possibly batched) matrix product as a sequence
// of batch Gemm calls on row-major operands.
type matmulPlan struct {
	batch     int   // number of independent products
	m, k, n   int   // per-product dimensions of the result (m×n) and contraction (k)
	aShared   bool  // a has no batch dimensions and is reused for every product
	bShared   bool  // b has no batch dimensions and is reused for every product
	out       Shape // result shape
	squeezeIn bool  // a was a rank-1 row vector
}

// batchPrefix splits off the leading batch dimensions of a rank >= 2 shape.
func batchPrefix(s Shape) Shape {
	return s[:len(s)-2]
}

// resolveBatch checks the batch dimensions of two matrix operands. Either
// side may be unbatched (rank 2), in which case it is shared across the
// other side's batch.
func resolveBatch(op string, a, b Shape) (Shape, bool, bool, error) {
	ab, bb := batchPrefix(a), batchPrefix(b)
	switch {
	case len(ab) == 0 && len(bb) == 0:
		return Shape{}, true, true, nil
	case len(bb) == 0:
		return ab, false, true, nil
	case len(ab) == 0:
		return bb, true, false, nil
	case ab.Equal(bb):
		return ab, false, false, nil
	default:
		return nil, false, false, mismatch(op, a, b)
	}
}

// promoteRow treats a rank-1 operand as a single-row matrix.
func promoteRow(s Shape) (Shape, bool) {
	if len(s) == 1 {
		return Shape{1, s[0]}, true
	}
	return s, false
}

// MatMulShape returns the result shape of a · b.
//
//   - a [..., m, k] · b [..., k, n] → [..., m, n]
//   - a [k] · b [k, n] → [n]
//   - a [..., m, k] · b [k, n] → [..., m, n] (b shared across the batch)
func MatMulShape(a, b Shape) (Shape, error) {
	plan, err := planMatMul(a, b)
	if err != nil {
		return nil, err
	}
	return plan.out, nil
}

func planMatMul(a, b Shape) (matmulPlan, error) {
	const op = "matmul"
	pa, squeeze := promoteRow(a)
	if len(pa) < 2 || len(b) < 2 {
		return matmulPlan{}, mismatch(op, a, b)
	}
	m, k := pa[len(pa)-2], pa[len(pa)-1]
	kb, n := b[len(b)-2], b[len(b)-1]
	if k != kb {
		return matmulPlan{}, mismatch(op, a, b)
	}
	if squeeze && len(b) != 2 {
		return matmulPlan{}, mismatch(op, a, b)
	}
	batch, aShared, bShared, err := resolveBatch(op, pa, b)
	if err != nil {
		return matmulPlan{}, err
	}
	return newPlan(batch, m, k, n, aShared, bShared, squeeze), nil
}

// MatMulTransposedShape returns the result shape of a · bᵀ where the
// transpose swaps the last two axes of b.
//
//   - a [..., m, k] · b [..., n, k]ᵀ → [..., m, n]
//   - a [k] · b [n, k]ᵀ → [n]
func MatMulTransposedShape(a, b Shape) (Shape, error) {
	plan, err := planMatMulTransposed(a, b)
	if err != nil {
		return nil, err
	}
	return plan.out, nil
}

func planMatMulTransposed(a, b Shape) (matmulPlan, error) {
	const op = "matmul_transposed"
	pa, squeeze := promoteRow(a)
	if len(pa) < 2 || len(b) < 2 {
		return matmulPlan{}, mismatch(op, a, b)
	}
	m, k := pa[len(pa)-2], pa[len(pa)-1]
	n, kb := b[len(b)-2], b[len(b)-1]
	if k != kb {
		return matmulPlan{}, mismatch(op, a, b)
	}
	if squeeze && len(b) != 2 {
		return matmulPlan{}, mismatch(op, a, b)
	}
	batch, aShared, bShared, err := resolveBatch(op, pa, b)
	if err != nil {
		return matmulPlan{}, err
	}
	return newPlan(batch, m, k, n, aShared, bShared, squeeze), nil
}

// TransposedMatMulShape returns the result shape of aᵀ · b where the
// transpose swaps the last two axes of a. Rank-1 operands are promoted to
// single-row matrices, which turns aᵀ · b into an outer product.
//
//   - a [..., k, m]ᵀ · b [..., k, n] → [..., m, n]
//   - a [m]ᵀ · b [n] → [m, n]
func TransposedMatMulShape(a, b Shape) (Shape, error) {
	plan, err := planTransposedMatMul(a, b)
	if err != nil {
		return nil, err
	}
	return plan.out, nil
}

func planTransposedMatMul(a, b Shape) (matmulPlan, error) {
	const op = "transposed_matmul"
	pa, _ := promoteRow(a)
	pb, _ := promoteRow(b)
	if len(pa) < 2 || len(pb) < 2 {
		return matmulPlan{}, mismatch(op, a, b)
	}
	k, m := pa[len(pa)-2], pa[len(pa)-1]
	kb, n := pb[len(pb)-2], pb[len(pb)-1]
	if k != kb {
		return matmulPlan{}, mismatch(op, a, b)
	}
	batch, aShared, bShared, err := resolveBatch(op, pa, pb)
	if err != nil {
		return matmulPlan{}, err
	}
	return newPlan(batch, m, k, n, aShared, bShared, false), nil
}

func newPlan(batch Shape, m, k, n int, aShared, bShared, squeeze bool) matmulPlan {
	out := append(batch.Clone(), m, n)
	if squeeze {
		out = Shape{n}
	}
	return matmulPlan{
		batch:     batch.NumElements(),
		m:         m,
		k:         k,
		n:         n,
		aShared:   aShared,
		bShared:   bShared,
		out:       out,
		squeezeIn: squeeze,
	}
}
