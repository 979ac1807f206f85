package nn

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// FFN implements a position-wise Feed-Forward Network.
//
// Architecture:
//
//	FFN(x) = Linear2(ReLU(Linear1(x)))
//
// Where:
//   - Linear1: [embed_dim → ffn_dim] (expansion)
//   - Linear2: [ffn_dim → embed_dim] (projection back)
type FFN[T tensor.Float] struct {
	Linear1    *Linear[T] // [embed_dim → ffn_dim]
	Linear2    *Linear[T] // [ffn_dim → embed_dim]
	Activation Module[T]
}

// NewFFN creates a new Feed-Forward Network with a ReLU activation.
func NewFFN[T tensor.Float](embedDim, ffnDim int, init *Initializer) *FFN[T] {
	return &FFN[T]{
		Linear1:    NewLinear[T](embedDim, ffnDim, init),
		Linear2:    NewLinear[T](ffnDim, embedDim, init),
		Activation: NewReLU[T](),
	}
}

// Forward applies the network position-wise.
func (f *FFN[T]) Forward(x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	h, err := f.Linear1.Forward(x)
	if err != nil {
		return nil, fmt.Errorf("ffn: %w", err)
	}
	if h, err = f.Activation.Forward(h); err != nil {
		return nil, fmt.Errorf("ffn: %w", err)
	}
	if h, err = f.Linear2.Forward(h); err != nil {
		return nil, fmt.Errorf("ffn: %w", err)
	}
	return h, nil
}

// Parameters returns the parameters of both linear layers.
func (f *FFN[T]) Parameters() []*Parameter[T] {
	params := append([]*Parameter[T]{}, f.Linear1.Parameters()...)
	params = append(params, f.Activation.Parameters()...)
	return append(params, f.Linear2.Parameters()...)
}
