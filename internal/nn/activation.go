package nn

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/tensor"
)

// activation adapts an elementwise op to the Module interface.
type activation[T tensor.Float] struct {
	fn func(*autodiff.Tensor[T]) (*autodiff.Tensor[T], error)
}

// Forward applies the activation elementwise.
func (a *activation[T]) Forward(input *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return a.fn(input)
}

// Parameters returns an empty slice (activations have no trainable parameters).
func (a *activation[T]) Parameters() []*Parameter[T] {
	return nil
}

// ReLU is the Rectified Linear Unit activation: max(0, x).
type ReLU[T tensor.Float] struct{ activation[T] }

// NewReLU creates a new ReLU activation.
func NewReLU[T tensor.Float]() *ReLU[T] {
	return &ReLU[T]{activation[T]{ops.ReLU[T]}}
}

// Sigmoid is the logistic activation: 1 / (1 + exp(-x)).
type Sigmoid[T tensor.Float] struct{ activation[T] }

// NewSigmoid creates a new Sigmoid activation.
func NewSigmoid[T tensor.Float]() *Sigmoid[T] {
	return &Sigmoid[T]{activation[T]{ops.Sigmoid[T]}}
}

// Tanh is the hyperbolic tangent activation.
type Tanh[T tensor.Float] struct{ activation[T] }

// NewTanh creates a new Tanh activation.
func NewTanh[T tensor.Float]() *Tanh[T] {
	return &Tanh[T]{activation[T]{ops.Tanh[T]}}
}

// SiLU is the Sigmoid Linear Unit: x * sigmoid(x).
type SiLU[T tensor.Float] struct{ activation[T] }

// NewSiLU creates a new SiLU activation.
func NewSiLU[T tensor.Float]() *SiLU[T] {
	return &SiLU[T]{activation[T]{ops.SiLU[T]}}
}
