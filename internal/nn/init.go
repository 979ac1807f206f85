package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Initializer draws reproducible initial parameter values.
type Initializer struct {
	rng *rand.Rand
}

// NewInitializer creates an Initializer seeded with seed.
func NewInitializer(seed int64) *Initializer {
	//nolint:gosec // Using math/rand for weight initialization (not security-critical)
	return &Initializer{rng: rand.New(rand.NewSource(seed))}
}

// uniform returns n values drawn from U(-bound, bound).
func (i *Initializer) uniform(n int, bound float64) []float64 {
	out := make([]float64, n)
	for j := range out {
		out[j] = (i.rng.Float64()*2 - 1) * bound
	}
	return out
}

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This initialization helps maintain variance of activations across layers.
func Xavier[T tensor.Float](init *Initializer, fanIn, fanOut int, shape tensor.Shape) *autodiff.Tensor[T] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	values := init.uniform(shape.NumElements(), bound)

	data := make([]T, len(values))
	for i, v := range values {
		data[i] = T(v)
	}
	return autodiff.MustNew(shape, data)
}

// Zeros creates a constant tensor filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros[T tensor.Float](shape tensor.Shape) *autodiff.Tensor[T] {
	return autodiff.Zeros[T](shape)
}

// Ones creates a constant tensor filled with ones.
func Ones[T tensor.Float](shape tensor.Shape) *autodiff.Tensor[T] {
	return autodiff.Ones[T](shape)
}
