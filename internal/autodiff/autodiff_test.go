package autodiff_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/tensor"
)

func vec(data ...float64) *autodiff.Tensor[float64] {
	return autodiff.MustNew(tensor.Shape{len(data)}, data)
}

func TestNextID_Unique(t *testing.T) {
	const workers, perWorker = 8, 1000

	var mu sync.Mutex
	seen := make(map[autodiff.ID]bool, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]autodiff.ID, perWorker)
			for i := range local {
				local[i] = autodiff.NextID()
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestTensor_Identity(t *testing.T) {
	x := vec(1, 2, 3)

	traced := x.Trace()
	assert.Equal(t, x.ID(), traced.ID())
	assert.True(t, traced.HasTape())
	assert.False(t, x.HasTape(), "Trace must not change the source")

	dup := traced.Duplicate()
	assert.Equal(t, x.ID(), dup.ID())
	assert.False(t, dup.HasTape())
	assert.True(t, traced.HasTape())

	moved := traced.DuplicateWithTape()
	assert.Equal(t, x.ID(), moved.ID())
	assert.True(t, moved.HasTape())
	assert.False(t, traced.HasTape())

	cp := x.Copy()
	assert.NotEqual(t, x.ID(), cp.ID())
	assert.Equal(t, x.Data(), cp.Data())

	// Copies own their data.
	cp.Data()[0] = 42
	assert.Equal(t, 1.0, x.Data()[0])
}

func TestTensor_DetachAttach(t *testing.T) {
	x := vec(1, 2).Trace()
	tape := x.Detach()
	require.NotNil(t, tape)
	assert.False(t, x.HasTape())
	assert.Nil(t, x.Detach())

	y := vec(3, 4)
	require.NoError(t, y.Attach(tape))
	assert.Same(t, tape, y.Tape())

	err := y.Attach(autodiff.NewTape[float64]())
	require.ErrorIs(t, err, autodiff.ErrTapeConflict)
	assert.Same(t, tape, y.Tape())

	require.NoError(t, y.Attach(nil))
}

func TestTensor_AttachRejectsHeldTape(t *testing.T) {
	x := vec(1, 2).Trace()
	y := vec(3, 4)

	err := y.Attach(x.Tape())
	require.ErrorIs(t, err, autodiff.ErrTapeConflict)
	assert.True(t, x.HasTape())
	assert.False(t, y.HasTape())

	// Operations keep a single holder as the tape moves along.
	sq, err := ops.Square(x)
	require.NoError(t, err)
	require.ErrorIs(t, y.Attach(sq.Tape()), autodiff.ErrTapeConflict)
	assert.True(t, sq.Tape().Owned())

	// Once released, the tape can be attached again.
	tape := sq.Detach()
	assert.False(t, tape.Owned())
	require.NoError(t, y.Attach(tape))
	assert.True(t, tape.Owned())
	assert.Same(t, tape, y.Tape())
}

func TestHandOff(t *testing.T) {
	a := vec(1).Trace()
	b := vec(2)
	tape := a.Tape()

	require.NoError(t, autodiff.HandOff(a, b))
	assert.False(t, a.HasTape())
	assert.Same(t, tape, b.Tape())

	// Nothing to move.
	require.NoError(t, autodiff.HandOff(a, b))
	assert.Same(t, tape, b.Tape())

	c := vec(3).Trace()
	require.ErrorIs(t, autodiff.HandOff(c, b), autodiff.ErrTapeConflict)
	assert.True(t, c.HasTape())
}

func TestTape_GradientSlotShapeConflict(t *testing.T) {
	tape := autodiff.NewTape[float64]()
	id := autodiff.NextID()

	ref, err := tape.GradientSlot(id, tensor.Shape{2})
	require.NoError(t, err)
	assert.Equal(t, id, ref.ID)

	_, err = tape.GradientSlot(id, tensor.Shape{2})
	require.NoError(t, err)

	_, err = tape.GradientSlot(id, tensor.Shape{3})
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestRecord_MovesTapeToResult(t *testing.T) {
	x := vec(1, 2, 3).Trace()
	tape := x.Tape()

	y, err := ops.Square(x)
	require.NoError(t, err)

	assert.False(t, x.HasTape())
	assert.Same(t, tape, y.Tape())
	assert.NotEqual(t, x.ID(), y.ID())
	require.Equal(t, 1, tape.Len())

	op, ok := tape.Operations()[0].(autodiff.UnaryOp)
	require.True(t, ok)
	assert.Equal(t, autodiff.KindElementwise, op.Kind)
	assert.Equal(t, "square", op.Name)
	assert.Equal(t, x.ID(), op.Parent.ID)
	assert.Equal(t, y.ID(), op.Out.ID)
	assert.NotEqual(t, x.ID(), op.Derivative.ID)

	deriv, ok := tape.Derivative(op.Derivative)
	require.True(t, ok)
	assert.Equal(t, []float64{2, 4, 6}, deriv.Data())
}

func TestRecord_NoTapeNoRecord(t *testing.T) {
	a, b := vec(1, 2), vec(3, 4)

	y, err := ops.Add(a, b)
	require.NoError(t, err)
	assert.False(t, y.HasTape())
	assert.Equal(t, []float64{4, 6}, y.Data())
}

func TestRecord_TapeConflict(t *testing.T) {
	a, b := vec(1, 2).Trace(), vec(3, 4).Trace()

	_, err := ops.Add(a, b)
	require.ErrorIs(t, err, autodiff.ErrTapeConflict)

	// Nothing moved or recorded.
	assert.True(t, a.HasTape())
	assert.True(t, b.HasTape())
	assert.Zero(t, a.Tape().Len())
	assert.Zero(t, b.Tape().Len())
}

func TestRecord_SameOperandIsOneOwner(t *testing.T) {
	x := vec(3).Trace()

	y, err := ops.Mul(x, x)
	require.NoError(t, err)
	loss, err := ops.Sum(y)
	require.NoError(t, err)

	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, grads.Get(x).Data()[0], 1e-12)
}

func TestRecord_ShapeMismatchLeavesTape(t *testing.T) {
	a := autodiff.Ones[float64](tensor.Shape{2, 3}).Trace()
	b := autodiff.Ones[float64](tensor.Shape{4})
	tape := a.Tape()

	_, err := ops.Add(a, b)
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.Same(t, tape, a.Tape())
	assert.Zero(t, tape.Len())
}

func TestBackward_SimpleMultiplication(t *testing.T) {
	x := vec(2, 3).Trace()
	w := vec(4, 5)

	y, err := ops.Mul(x, w)
	require.NoError(t, err)
	loss, err := ops.Sum(y)
	require.NoError(t, err)

	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)

	assert.Equal(t, []float64{4, 5}, grads.Get(x).Data())
	assert.Equal(t, []float64{2, 3}, grads.Get(w).Data())
	assert.Equal(t, []float64{1, 1}, grads.Get(y).Data())
	assert.Equal(t, 1.0, grads.Get(loss).Item())
}

func TestBackward_ChainRule(t *testing.T) {
	// loss = sum((x + 2) * 3), d loss/dx = 3
	x := vec(5, -1).Trace()

	y, err := ops.AddScalar(x, 2)
	require.NoError(t, err)
	y, err = ops.Scale(y, 3)
	require.NoError(t, err)
	loss, err := ops.Sum(y)
	require.NoError(t, err)
	assert.Equal(t, 24.0, loss.Item())

	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 3}, grads.Get(x).Data())
}

func TestBackward_Diamond(t *testing.T) {
	// x feeds two branches, 3x and x², which are summed.
	// d/dx (3x + x²) = 3 + 2x.
	x := vec(1, 2).Trace()
	branch := x.Duplicate()

	a, err := ops.Scale(x, 3)
	require.NoError(t, err)
	require.NoError(t, autodiff.HandOff(a, branch))
	b, err := ops.Square(branch)
	require.NoError(t, err)

	sum, err := ops.Add(a, b)
	require.NoError(t, err)
	loss, err := ops.Sum(sum)
	require.NoError(t, err)

	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7}, grads.Get(x).Data())
}

func TestBackward_MatMulConvention(t *testing.T) {
	lhs := autodiff.MustNew(tensor.Shape{2, 2}, []float64{1, 2, 3, 4}).Trace()
	rhs := autodiff.MustNew(tensor.Shape{2, 2}, []float64{5, 6, 7, 8})

	y, err := ops.MatMul(lhs, rhs)
	require.NoError(t, err)
	assert.Equal(t, []float64{19, 22, 43, 50}, y.Data())

	tape := y.Tape()
	op, ok := tape.Operations()[0].(autodiff.BinaryOp)
	require.True(t, ok)
	dl, _ := tape.Derivative(op.Derivatives[0])
	dr, _ := tape.Derivative(op.Derivatives[1])
	assert.Equal(t, rhs.Data(), dl.Data(), "derivative for lhs is rhs's data")
	assert.Equal(t, lhs.Data(), dr.Data(), "derivative for rhs is lhs's data")

	loss, err := ops.Sum(y)
	require.NoError(t, err)
	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)

	// ones · rhsᵀ and lhsᵀ · ones.
	assert.Equal(t, []float64{11, 15, 11, 15}, grads.Get(lhs).Data())
	assert.Equal(t, []float64{4, 4, 6, 6}, grads.Get(rhs).Data())
}

func TestBackward_BroadcastAddFixture(t *testing.T) {
	const m, n = 3, 5
	a := autodiff.Ones[float64](tensor.Shape{m, n}).Trace()
	b := autodiff.Ones[float64](tensor.Shape{n})

	r, err := ops.BroadcastAdd(a, b)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{m, n}, r.Shape())
	for _, v := range r.Data() {
		assert.Equal(t, 2.0, v)
	}

	loss, err := ops.Mean(r)
	require.NoError(t, err)
	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)

	for _, v := range grads.Get(a).Data() {
		assert.InDelta(t, 1.0/15, v, 1e-12)
	}
	gb := grads.Get(b)
	assert.Equal(t, tensor.Shape{n}, gb.Shape())
	for _, v := range gb.Data() {
		assert.InDelta(t, 0.2, v, 1e-12)
	}
}

func TestBackward_Float32(t *testing.T) {
	x := autodiff.MustNew(tensor.Shape{3}, []float32{1, -2, 3}).Trace()

	y, err := ops.ReLU(x)
	require.NoError(t, err)
	loss, err := ops.Sum(y)
	require.NoError(t, err)

	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 1}, grads.Get(x).Data())
}

func TestBackward_UntouchedTensorGetsZeros(t *testing.T) {
	frozen := autodiff.Ones[float64](tensor.Shape{2, 3})
	other := autodiff.Ones[float64](tensor.Shape{2, 3})

	// A tape-less operation records nothing.
	_, err := ops.Add(frozen, other)
	require.NoError(t, err)

	x := vec(1, 2).Trace()
	loss, err := ops.Sum(x)
	require.NoError(t, err)
	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)

	assert.False(t, grads.Has(frozen.ID()))
	g := grads.Get(frozen)
	assert.Equal(t, tensor.Shape{2, 3}, g.Shape())
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, g.Data())
}

func TestBackward_Errors(t *testing.T) {
	t.Run("no tape", func(t *testing.T) {
		_, err := autodiff.Backward(autodiff.Scalar(1.0))
		require.ErrorIs(t, err, autodiff.ErrNoTape)
	})

	t.Run("not scalar", func(t *testing.T) {
		x := vec(1, 2).Trace()
		_, err := autodiff.Backward(x)
		require.ErrorIs(t, err, autodiff.ErrNotScalar)
		assert.True(t, x.HasTape(), "failed backward must not consume the tape")
		assert.False(t, x.Tape().Consumed())
	})

	t.Run("consumed", func(t *testing.T) {
		x := vec(1, 2).Trace()
		loss, err := ops.Sum(x)
		require.NoError(t, err)
		tape := loss.Tape()

		_, err = autodiff.Backward(loss)
		require.NoError(t, err)
		assert.True(t, tape.Consumed())
		assert.False(t, loss.HasTape())

		_, err = autodiff.Backward(loss)
		require.ErrorIs(t, err, autodiff.ErrNoTape)

		require.ErrorIs(t, autodiff.Scalar(2.0).Attach(tape), autodiff.ErrTapeConsumed)
		require.ErrorIs(t, tape.Record(autodiff.UnaryOp{}), autodiff.ErrTapeConsumed)
	})
}

func TestGradients_GetReturnsCopy(t *testing.T) {
	x := vec(1, 2).Trace()
	sq, err := ops.Square(x)
	require.NoError(t, err)
	loss, err := ops.Sum(sq)
	require.NoError(t, err)
	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)

	g := grads.Get(x)
	g.Data()[0] = 100
	assert.Equal(t, []float64{2, 4}, grads.Get(x).Data())
	assert.Equal(t, []float64{2, 4}, grads.Lookup(x.ID(), x.Shape()).Data())
}

func TestGradients_IDs(t *testing.T) {
	x := vec(1, 2).Trace()
	w := vec(3, 4)
	y, err := ops.Mul(x, w)
	require.NoError(t, err)
	loss, err := ops.Sum(y)
	require.NoError(t, err)

	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)

	assert.Equal(t, 4, grads.Len())
	ids := grads.IDs()
	require.Len(t, ids, 4)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
	for _, tt := range []*autodiff.Tensor[float64]{x, w, y, loss} {
		assert.True(t, grads.Has(tt.ID()))
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "matmul_transposed", autodiff.KindMatMulTransposed.String())
	assert.Equal(t, "broadcast", autodiff.KindBroadcast.String())
	assert.Equal(t, "Kind(99)", autodiff.Kind(99).String())
}
