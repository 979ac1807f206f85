package gradcheck

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/parallel"
	"github.com/born-ml/gradtape/internal/tensor"
)

func TestSuite_AllOperationsKnown(t *testing.T) {
	for _, c := range Suite() {
		in, err := tensors[float64](c.Shapes, zerosFor(c.Shapes))
		require.NoError(t, err)
		_, err = Apply(c.Name, in)
		assert.NoError(t, err, c.Name)
	}

	_, err := Apply("nope", []*autodiff.Tensor[float64]{autodiff.Zeros[float64](tensor.Shape{1})})
	assert.Error(t, err)
}

func zerosFor(shapes []tensor.Shape) [][]float64 {
	out := make([][]float64, len(shapes))
	for i, s := range shapes {
		out[i] = make([]float64, s.NumElements())
		for k := range out[i] {
			out[i][k] = 1
		}
	}
	return out
}

func TestRun_Float64(t *testing.T) {
	cfg := parallel.Config{Enabled: true, NumWorkers: 4}
	results, err := Run[float64](context.Background(), cfg, Suite(), Options{Tolerance: 1e-5, Seed: 7})
	require.NoError(t, err)
	require.Len(t, results, len(Suite()))

	for i, r := range results {
		assert.Equal(t, Suite()[i].Name, r.Name)
		assert.Equal(t, tensor.Float64, r.DataType)
		assert.NoError(t, r.Err, r.Name)
		assert.True(t, r.Passed, "%s: max rel error %g", r.Name, r.MaxRelError)
	}
}

func TestRun_Float32(t *testing.T) {
	results, err := Run[float32](context.Background(), parallel.DefaultConfig(), Suite(), Options{Tolerance: 1e-3, Seed: 7})
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, tensor.Float32, r.DataType)
		assert.True(t, r.Passed, "%s: max rel error %g", r.Name, r.MaxRelError)
	}
}

func TestRun_Deterministic(t *testing.T) {
	cases := Suite()[:5]
	a, err := Run[float64](context.Background(), parallel.Config{Enabled: true, NumWorkers: 3}, cases, Options{Tolerance: 1, Seed: 3})
	require.NoError(t, err)
	b, err := Run[float64](context.Background(), parallel.Config{}, cases, Options{Tolerance: 1, Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCheck_ReportsFailure(t *testing.T) {
	c := Case{Name: "exp", Shapes: []tensor.Shape{{4}}}
	r := Check[float64](c, rand.New(rand.NewPCG(1, 1)), 0)
	// A zero tolerance cannot absorb finite-difference truncation.
	assert.False(t, r.Passed)
	assert.Greater(t, r.MaxAbsError, 0.0)

	r = Check[float64](Case{Name: "bogus", Shapes: []tensor.Shape{{2}}}, rand.New(rand.NewPCG(1, 1)), 1)
	assert.False(t, r.Passed)
	assert.Error(t, r.Err)
}
