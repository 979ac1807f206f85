package nn

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input tensor with shape [..., in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output tensor with shape [..., out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	init := nn.NewInitializer(1)
//	layer := nn.NewLinear[float32](784, 128, init)
//	output, err := layer.Forward(input) // [32, 784] -> [32, 128]
type Linear[T tensor.Float] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[T] // [out_features, in_features]
	bias        *Parameter[T] // [out_features], nil without bias
}

// NewLinear creates a new Linear layer with a bias.
func NewLinear[T tensor.Float](inFeatures, outFeatures int, init *Initializer) *Linear[T] {
	l := NewLinearNoBias[T](inFeatures, outFeatures, init)
	l.bias = NewParameter("bias", Zeros[T](tensor.Shape{outFeatures}))
	return l
}

// NewLinearNoBias creates a new Linear layer without a bias term.
func NewLinearNoBias[T tensor.Float](inFeatures, outFeatures int, init *Initializer) *Linear[T] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("Linear: features must be positive, got in=%d out=%d", inFeatures, outFeatures))
	}
	weightShape := tensor.Shape{outFeatures, inFeatures}
	return &Linear[T]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", Xavier[T](init, inFeatures, outFeatures, weightShape)),
	}
}

// Forward computes x @ W.T + b.
//
// Input shape: [..., in_features]
// Output shape: [..., out_features]
func (l *Linear[T]) Forward(input *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	shape := input.Shape()
	if len(shape) == 0 || shape[len(shape)-1] != l.inFeatures {
		return nil, fmt.Errorf("linear: %w: expected [..., %d], got %v",
			tensor.ErrShapeMismatch, l.inFeatures, shape)
	}

	output, err := ops.MatMulTransposed(input, l.weight.Tensor())
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	if l.bias == nil {
		return output, nil
	}

	if output.Rank() > 1 {
		output, err = ops.BroadcastAdd(output, l.bias.Tensor())
	} else {
		output, err = ops.Add(output, l.bias.Tensor())
	}
	if err != nil {
		return nil, fmt.Errorf("linear: %w", err)
	}
	return output, nil
}

// Parameters returns [weight, bias], or [weight] without a bias.
func (l *Linear[T]) Parameters() []*Parameter[T] {
	if l.bias != nil {
		return []*Parameter[T]{l.weight, l.bias}
	}
	return []*Parameter[T]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[T]) Weight() *Parameter[T] {
	return l.weight
}

// Bias returns the bias parameter, or nil.
func (l *Linear[T]) Bias() *Parameter[T] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[T]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[T]) OutFeatures() int {
	return l.outFeatures
}
