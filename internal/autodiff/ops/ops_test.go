package ops_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/tensor"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

func TestForwardValues(t *testing.T) {
	x := autodiff.MustNew(tensor.Shape{2, 2}, []float64{1, 2, 3, 4})

	tests := []struct {
		name string
		fn   unaryFn
		want []float64
	}{
		{"neg", ops.Neg[float64], []float64{-1, -2, -3, -4}},
		{"square", ops.Square[float64], []float64{1, 4, 9, 16}},
		{"sqrt", ops.Sqrt[float64], []float64{1, math.Sqrt2, math.Sqrt(3), 2}},
		{"rsqrt", ops.Rsqrt[float64], []float64{1, 1 / math.Sqrt2, 1 / math.Sqrt(3), 0.5}},
		{"log", ops.Log[float64], []float64{0, math.Ln2, math.Log(3), 2 * math.Ln2}},
		{"sum", ops.Sum[float64], []float64{10}},
		{"mean", ops.Mean[float64], []float64{2.5}},
		{"sum_axis_0", func(x *autodiff.Tensor[float64]) (*autodiff.Tensor[float64], error) { return ops.SumAxis(x, 0) }, []float64{4, 6}},
		{"mean_axis_1", func(x *autodiff.Tensor[float64]) (*autodiff.Tensor[float64], error) { return ops.MeanAxis(x, 1) }, []float64{1.5, 3.5}},
		{"softmax", ops.Softmax[float64], []float64{
			1 / (1 + math.E), math.E / (1 + math.E),
			1 / (1 + math.E), math.E / (1 + math.E),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, err := tt.fn(x)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, y.Data(), approx); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
			}
			assert.False(t, y.HasTape())
		})
	}
}

func TestReLU_ZeroHasZeroGradient(t *testing.T) {
	x := autodiff.MustNew(tensor.Shape{3}, []float64{-1, 0, 2}).Trace()

	y, err := ops.ReLU(x)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 2}, y.Data())

	loss, err := ops.Sum(y)
	require.NoError(t, err)
	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1}, grads.Get(x).Data())
}

func TestMSE(t *testing.T) {
	pred := autodiff.MustNew(tensor.Shape{2}, []float64{1, 3}).Trace()
	target := autodiff.MustNew(tensor.Shape{2}, []float64{0, 1})

	loss, err := ops.MSE(pred, target)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, loss.Item(), 1e-12)

	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)
	// d/dp mean((p-t)²) = (p-t) for N=2.
	assert.Equal(t, []float64{1, 2}, grads.Get(pred).Data())
	assert.Equal(t, []float64{-1, -2}, grads.Get(target).Data())
}

func TestCrossEntropy_Gradient(t *testing.T) {
	logits := autodiff.MustNew(tensor.Shape{2, 3}, []float64{1, 2, 3, 0, 0, 0}).Trace()
	target := autodiff.MustNew(tensor.Shape{2, 3}, []float64{0, 0, 1, 1, 0, 0})

	loss, err := ops.CrossEntropy(logits, target)
	require.NoError(t, err)

	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)

	// (softmax - onehot) / rows
	p := autodiff.MustNew(tensor.Shape{2, 3}, []float64{1, 2, 3, 0, 0, 0}).Value().Softmax().Data()
	want := []float64{
		p[0] / 2, p[1] / 2, (p[2] - 1) / 2,
		(p[3] - 1) / 2, p[4] / 2, p[5] / 2,
	}
	if diff := cmp.Diff(want, grads.Get(logits).Data(), approx); diff != "" {
		t.Errorf("cross entropy gradient mismatch (-want +got):\n%s", diff)
	}
}

// The result shape depends only on the operand shapes.
func TestResultShapeIsPure(t *testing.T) {
	tests := []struct {
		name     string
		fn       binaryFn
		lhs, rhs tensor.Shape
		want     tensor.Shape
	}{
		{"add", ops.Add[float64], tensor.Shape{2, 3}, tensor.Shape{2, 3}, tensor.Shape{2, 3}},
		{"add_broadcast", ops.Add[float64], tensor.Shape{4, 1}, tensor.Shape{3}, tensor.Shape{4, 3}},
		{"div", ops.Div[float64], tensor.Shape{2, 3}, tensor.Shape{1}, tensor.Shape{2, 3}},
		{"broadcast_add", ops.BroadcastAdd[float64], tensor.Shape{2, 4, 3}, tensor.Shape{3}, tensor.Shape{2, 4, 3}},
		{"matmul", ops.MatMul[float64], tensor.Shape{2, 3}, tensor.Shape{3, 5}, tensor.Shape{2, 5}},
		{"matmul_vector", ops.MatMul[float64], tensor.Shape{3}, tensor.Shape{3, 5}, tensor.Shape{5}},
		{"matmul_batched", ops.MatMul[float64], tensor.Shape{4, 2, 3}, tensor.Shape{3, 5}, tensor.Shape{4, 2, 5}},
		{"matmul_transposed", ops.MatMulTransposed[float64], tensor.Shape{2, 3}, tensor.Shape{5, 3}, tensor.Shape{2, 5}},
		{"mse", ops.MSE[float64], tensor.Shape{2, 3}, tensor.Shape{2, 3}, tensor.Shape{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, fill := range []float64{1, 2.5} {
				lhs := autodiff.Full(tt.lhs, fill)
				rhs := autodiff.Full(tt.rhs, fill+1)
				y, err := tt.fn(lhs, rhs)
				require.NoError(t, err)
				assert.Equal(t, tt.want, y.Shape())
			}
		})
	}
}

func TestShapeMismatchRejected(t *testing.T) {
	tests := []struct {
		name     string
		fn       binaryFn
		lhs, rhs tensor.Shape
	}{
		{"add", ops.Add[float64], tensor.Shape{2, 3}, tensor.Shape{2, 4}},
		{"sub", ops.Sub[float64], tensor.Shape{3}, tensor.Shape{4}},
		{"mul", ops.Mul[float64], tensor.Shape{2, 3}, tensor.Shape{3, 2}},
		{"div", ops.Div[float64], tensor.Shape{5}, tensor.Shape{2, 3}},
		{"broadcast_add_not_suffix", ops.BroadcastAdd[float64], tensor.Shape{3, 5}, tensor.Shape{3}},
		{"broadcast_add_not_proper", ops.BroadcastAdd[float64], tensor.Shape{5}, tensor.Shape{5}},
		{"matmul_inner", ops.MatMul[float64], tensor.Shape{2, 3}, tensor.Shape{2, 3}},
		{"matmul_batch", ops.MatMul[float64], tensor.Shape{2, 2, 3}, tensor.Shape{3, 3, 4}},
		{"matmul_transposed", ops.MatMulTransposed[float64], tensor.Shape{2, 3}, tensor.Shape{3, 4}},
		{"mse", ops.MSE[float64], tensor.Shape{2, 3}, tensor.Shape{3, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lhs := autodiff.Ones[float64](tt.lhs).Trace()
			rhs := autodiff.Ones[float64](tt.rhs)
			tape := lhs.Tape()

			_, err := tt.fn(lhs, rhs)
			require.ErrorIs(t, err, tensor.ErrShapeMismatch)
			assert.Same(t, tape, lhs.Tape())
			assert.Zero(t, tape.Len())
		})
	}
}

func TestUnaryShapeErrors(t *testing.T) {
	x := autodiff.Ones[float64](tensor.Shape{2, 3}).Trace()

	_, err := ops.Reshape(x, tensor.Shape{4})
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)

	_, err = ops.SumAxis(x, 2)
	require.ErrorIs(t, err, tensor.ErrInvalidShape)

	_, err = ops.MeanAxis(x, -3)
	require.ErrorIs(t, err, tensor.ErrInvalidShape)

	assert.True(t, x.HasTape())
	assert.Zero(t, x.Tape().Len())
}
