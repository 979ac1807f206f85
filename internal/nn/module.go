// Package nn implements neural network modules on top of the autodiff engine.
//
// This package provides building blocks for constructing networks:
//   - Module interface: Base interface for all NN components
//   - Parameter: Named trainable tensor with a stable identity
//   - Linear: Fully connected layer
//   - Activations: ReLU, Sigmoid, Tanh, SiLU
//   - LayerNorm, RMSNorm
//   - MultiHeadAttention, FFN, TransformerBlock, TransformerEncoder
//   - Sequential: Container for stacking layers
//
// Parameters are constants: they never own a tape, yet every operation that
// reads them records a local derivative, so their gradients are available
// by identity after Backward. The input of Forward carries the chain's tape
// and the output owns it afterwards.
package nn

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential[float32](
//	    nn.NewLinear[float32](4, 16, init),
//	    nn.NewReLU[float32](),
//	    nn.NewLinear[float32](16, 1, init),
//	)
type Module[T tensor.Float] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// If input owns a tape, the returned tensor owns it afterwards.
	Forward(input *autodiff.Tensor[T]) (*autodiff.Tensor[T], error)

	// Parameters returns all trainable parameters of this module.
	//
	// This includes weights, biases, and any nested module parameters.
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*Parameter[T]
}

// Sequential is a container module that chains multiple modules together.
//
// Each module's output becomes the next module's input.
type Sequential[T tensor.Float] struct {
	modules []Module[T]
}

// NewSequential creates a new Sequential container.
func NewSequential[T tensor.Float](modules ...Module[T]) *Sequential[T] {
	return &Sequential[T]{modules: modules}
}

// Forward applies all modules in sequence.
func (s *Sequential[T]) Forward(input *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	output := input
	for _, m := range s.modules {
		var err error
		if output, err = m.Forward(output); err != nil {
			return nil, err
		}
	}
	return output, nil
}

// Parameters returns the parameters of every contained module in order.
func (s *Sequential[T]) Parameters() []*Parameter[T] {
	var params []*Parameter[T]
	for _, m := range s.modules {
		params = append(params, m.Parameters()...)
	}
	return params
}

// Len returns the number of modules.
func (s *Sequential[T]) Len() int {
	return len(s.modules)
}
