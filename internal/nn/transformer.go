package nn

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/tensor"
)

// TransformerConfig defines the configuration for a Transformer Block.
type TransformerConfig struct {
	EmbedDim   int     // d_model: Embedding dimension
	NumHeads   int     // Number of attention heads
	FFNDim     int     // FFN hidden dimension (typically 4 * EmbedDim)
	UseRMSNorm bool    // true = RMSNorm, false = LayerNorm
	NormEps    float64 // Normalization epsilon (1e-5 typical)
}

// Validate checks the configuration and returns a descriptive error.
func (c TransformerConfig) Validate() error {
	switch {
	case c.EmbedDim <= 0:
		return fmt.Errorf("transformer: embedDim must be positive, got %d", c.EmbedDim)
	case c.NumHeads <= 0:
		return fmt.Errorf("transformer: numHeads must be positive, got %d", c.NumHeads)
	case c.EmbedDim%c.NumHeads != 0:
		return fmt.Errorf("transformer: embedDim (%d) must be divisible by numHeads (%d)", c.EmbedDim, c.NumHeads)
	case c.FFNDim <= 0:
		return fmt.Errorf("transformer: ffnDim must be positive, got %d", c.FFNDim)
	case c.NormEps <= 0:
		return fmt.Errorf("transformer: normEps must be positive, got %g", c.NormEps)
	}
	return nil
}

// Normalizer is an interface for normalization layers (LayerNorm and RMSNorm).
type Normalizer[T tensor.Float] interface {
	Module[T]
}

// TransformerBlock implements a post-norm Transformer encoder block.
//
// Architecture:
//
//	x → MHA → + → Norm → FFN → + → Norm → output
//	↑_________|   ↑____________|
//	(residual)     (residual)
//
// Components:
//   - Attention: Multi-Head Self-Attention (see MultiHeadAttention)
//   - AttnNorm: normalization after the attention residual
//   - FFN: Feed-Forward Network (2-layer MLP with ReLU activation)
//   - FFNNorm: normalization after the FFN residual
//
// Example:
//
//	config := nn.TransformerConfig{EmbedDim: 16, NumHeads: 2, FFNDim: 32, NormEps: 1e-5}
//	block, err := nn.NewTransformerBlock[float64](config, init)
//	output, err := block.Forward(x) // [batch, seq, 16] -> [batch, seq, 16]
type TransformerBlock[T tensor.Float] struct {
	Config    TransformerConfig
	Attention *MultiHeadAttention[T]
	AttnNorm  Normalizer[T]
	FFN       *FFN[T]
	FFNNorm   Normalizer[T]
}

// NewTransformerBlock creates a new Transformer Block.
func NewTransformerBlock[T tensor.Float](config TransformerConfig, init *Initializer) (*TransformerBlock[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TransformerBlock[T]{
		Config:    config,
		Attention: NewMultiHeadAttention[T](config.EmbedDim, config.NumHeads, init),
		AttnNorm:  newNormalizer[T](config),
		FFN:       NewFFN[T](config.EmbedDim, config.FFNDim, init),
		FFNNorm:   newNormalizer[T](config),
	}, nil
}

func newNormalizer[T tensor.Float](config TransformerConfig) Normalizer[T] {
	if config.UseRMSNorm {
		return NewRMSNorm(config.EmbedDim, T(config.NormEps))
	}
	return NewLayerNorm(config.EmbedDim, T(config.NormEps))
}

// Forward computes norm2(h + ffn(h)) where h = norm1(x + attn(x)).
func (b *TransformerBlock[T]) Forward(x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	h, err := residual(x, b.Attention, b.AttnNorm)
	if err != nil {
		return nil, fmt.Errorf("transformer block: attention: %w", err)
	}
	out, err := residual(h, b.FFN, b.FFNNorm)
	if err != nil {
		return nil, fmt.Errorf("transformer block: ffn: %w", err)
	}
	return out, nil
}

// residual computes norm(x + sub(x)). The second read of x is recorded as
// a constant operand, so its gradient accumulates under x's identifier.
func residual[T tensor.Float](x *autodiff.Tensor[T], sub, norm Module[T]) (*autodiff.Tensor[T], error) {
	y, err := sub.Forward(x)
	if err != nil {
		return nil, err
	}
	sum, err := ops.Add(x, y)
	if err != nil {
		return nil, err
	}
	return norm.Forward(sum)
}

// Parameters returns all trainable parameters of the block.
func (b *TransformerBlock[T]) Parameters() []*Parameter[T] {
	params := b.Attention.Parameters()
	params = append(params, b.AttnNorm.Parameters()...)
	params = append(params, b.FFN.Parameters()...)
	return append(params, b.FFNNorm.Parameters()...)
}

// TransformerEncoder stacks identical Transformer blocks.
type TransformerEncoder[T tensor.Float] struct {
	Blocks []*TransformerBlock[T]
}

// NewTransformerEncoder creates numLayers blocks sharing config.
func NewTransformerEncoder[T tensor.Float](config TransformerConfig, numLayers int, init *Initializer) (*TransformerEncoder[T], error) {
	if numLayers <= 0 {
		return nil, fmt.Errorf("transformer: numLayers must be positive, got %d", numLayers)
	}
	blocks := make([]*TransformerBlock[T], numLayers)
	for i := range blocks {
		block, err := NewTransformerBlock[T](config, init)
		if err != nil {
			return nil, err
		}
		blocks[i] = block
	}
	return &TransformerEncoder[T]{Blocks: blocks}, nil
}

// Forward applies every block in order.
func (e *TransformerEncoder[T]) Forward(x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	out := x
	for i, block := range e.Blocks {
		var err error
		if out, err = block.Forward(out); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return out, nil
}

// Parameters returns the parameters of every block.
func (e *TransformerEncoder[T]) Parameters() []*Parameter[T] {
	var params []*Parameter[T]
	for _, block := range e.Blocks {
		params = append(params, block.Parameters()...)
	}
	return params
}
