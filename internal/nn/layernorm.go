package nn

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/tensor"
)

// LayerNorm applies Layer Normalization over an input tensor along the last dimension.
//
// Formula: Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// Where:
//   - gamma is the learnable scale parameter [d_model]
//   - beta is the learnable shift parameter [d_model]
//   - mean and variance are computed along the last dimension
//   - eps is a small value to avoid division by zero
//
// Example:
//
//	norm := nn.NewLayerNorm[float32](768, 1e-5)
//	output, err := norm.Forward(hiddenStates) // [..., 768] -> [..., 768]
type LayerNorm[T tensor.Float] struct {
	Gamma   *Parameter[T] // learnable scale [d_model]
	Beta    *Parameter[T] // learnable shift [d_model]
	Epsilon T             // numerical stability constant
}

// NewLayerNorm creates a new LayerNorm layer.
// The gamma parameter is initialized to ones, beta to zeros.
func NewLayerNorm[T tensor.Float](normalizedShape int, epsilon T) *LayerNorm[T] {
	if normalizedShape <= 0 {
		panic(fmt.Sprintf("LayerNorm: normalizedShape must be positive, got %d", normalizedShape))
	}
	return &LayerNorm[T]{
		Gamma:   NewParameter("gamma", Ones[T](tensor.Shape{normalizedShape})),
		Beta:    NewParameter("beta", Zeros[T](tensor.Shape{normalizedShape})),
		Epsilon: epsilon,
	}
}

// Forward applies LayerNorm to the input tensor.
//
// Algorithm:
//  1. Compute mean = mean(x) along last dimension (keepdim)
//  2. Subtract mean: x_centered = x - mean
//  3. Compute variance = mean(x_centered²) along last dimension
//  4. Normalize: x_norm = x_centered * rsqrt(variance + epsilon)
//  5. Scale and shift: output = gamma * x_norm + beta
//
// The tape passes through every step in order. x and x_centered are read a
// second time as constants, which still records their derivatives.
func (l *LayerNorm[T]) Forward(x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	if err := checkFeatures("layernorm", x, l.Gamma.Shape()[0]); err != nil {
		return nil, err
	}

	mean, err := ops.MeanAxis(x, -1)
	if err != nil {
		return nil, fmt.Errorf("layernorm: %w", err)
	}
	centered, err := ops.Sub(x, mean)
	if err != nil {
		return nil, fmt.Errorf("layernorm: %w", err)
	}
	sq, err := ops.Square(centered)
	if err != nil {
		return nil, fmt.Errorf("layernorm: %w", err)
	}
	rstd, err := invStd(sq, l.Epsilon)
	if err != nil {
		return nil, fmt.Errorf("layernorm: %w", err)
	}
	norm, err := ops.Mul(centered, rstd)
	if err != nil {
		return nil, fmt.Errorf("layernorm: %w", err)
	}
	return scaleShift(norm, l.Gamma, l.Beta)
}

// Parameters returns the learnable parameters (gamma and beta).
func (l *LayerNorm[T]) Parameters() []*Parameter[T] {
	return []*Parameter[T]{l.Gamma, l.Beta}
}

// RMSNorm applies Root Mean Square Normalization along the last dimension.
//
// Formula: Y = X / sqrt(mean(X²) + eps) * gamma
//
// RMSNorm skips the mean subtraction of LayerNorm and has no shift.
type RMSNorm[T tensor.Float] struct {
	Gamma   *Parameter[T] // learnable scale [d_model]
	Epsilon T             // numerical stability constant
}

// NewRMSNorm creates a new RMSNorm layer with gamma initialized to ones.
func NewRMSNorm[T tensor.Float](dModel int, epsilon T) *RMSNorm[T] {
	if dModel <= 0 {
		panic(fmt.Sprintf("RMSNorm: dModel must be positive, got %d", dModel))
	}
	return &RMSNorm[T]{
		Gamma:   NewParameter("gamma", Ones[T](tensor.Shape{dModel})),
		Epsilon: epsilon,
	}
}

// Forward applies RMSNorm to the input tensor.
func (r *RMSNorm[T]) Forward(x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	if err := checkFeatures("rmsnorm", x, r.Gamma.Shape()[0]); err != nil {
		return nil, err
	}

	sq, err := ops.Square(x)
	if err != nil {
		return nil, fmt.Errorf("rmsnorm: %w", err)
	}
	rrms, err := invStd(sq, r.Epsilon)
	if err != nil {
		return nil, fmt.Errorf("rmsnorm: %w", err)
	}
	norm, err := ops.Mul(x, rrms)
	if err != nil {
		return nil, fmt.Errorf("rmsnorm: %w", err)
	}
	return scaleShift(norm, r.Gamma, nil)
}

// Parameters returns the learnable scale.
func (r *RMSNorm[T]) Parameters() []*Parameter[T] {
	return []*Parameter[T]{r.Gamma}
}

// invStd returns rsqrt(mean(sq, -1) + eps) with the last axis kept.
func invStd[T tensor.Float](sq *autodiff.Tensor[T], eps T) (*autodiff.Tensor[T], error) {
	v, err := ops.MeanAxis(sq, -1)
	if err != nil {
		return nil, err
	}
	if v, err = ops.AddScalar(v, eps); err != nil {
		return nil, err
	}
	return ops.Rsqrt(v)
}

// scaleShift returns norm * gamma + beta, broadcasting over leading axes.
func scaleShift[T tensor.Float](norm *autodiff.Tensor[T], gamma, beta *Parameter[T]) (*autodiff.Tensor[T], error) {
	out, err := ops.Mul(norm, gamma.Tensor())
	if err != nil {
		return nil, err
	}
	if beta == nil {
		return out, nil
	}
	return ops.Add(out, beta.Tensor())
}

func checkFeatures[T tensor.Float](op string, x *autodiff.Tensor[T], features int) error {
	shape := x.Shape()
	if len(shape) == 0 || shape[len(shape)-1] != features {
		return fmt.Errorf("%s: %w: expected [..., %d], got %v", op, tensor.ErrShapeMismatch, features, shape)
	}
	return nil
}
