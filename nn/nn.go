// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers built on tape-based autodiff.
//
// Layers implement Module: Forward takes the tensor that owns the chain's
// tape and returns a result that owns it afterwards. Trainable weights are
// Parameters, constant leaves whose gradients are looked up by identity
// once Backward has run.
//
// Example:
//
//	init := nn.NewInitializer(1)
//	block, _ := nn.NewTransformerBlock[float64](nn.TransformerConfig{
//	    EmbedDim: 8, NumHeads: 2, FFNDim: 16,
//	}, init)
//
//	out, _ := block.Forward(x.Trace())
//	loss, _ := nn.NewMSELoss[float64]().Forward(out, target)
//	grads, _ := autodiff.Backward(loss)
package nn

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Core interfaces and containers.
type (
	Module[T tensor.Float]     = nn.Module[T]
	Parameter[T tensor.Float]  = nn.Parameter[T]
	Sequential[T tensor.Float] = nn.Sequential[T]
	Initializer                = nn.Initializer
)

// Layers.
type (
	Linear[T tensor.Float]             = nn.Linear[T]
	ReLU[T tensor.Float]               = nn.ReLU[T]
	Sigmoid[T tensor.Float]            = nn.Sigmoid[T]
	Tanh[T tensor.Float]               = nn.Tanh[T]
	SiLU[T tensor.Float]               = nn.SiLU[T]
	LayerNorm[T tensor.Float]          = nn.LayerNorm[T]
	RMSNorm[T tensor.Float]            = nn.RMSNorm[T]
	MultiHeadAttention[T tensor.Float] = nn.MultiHeadAttention[T]
	AttentionHead[T tensor.Float]      = nn.AttentionHead[T]
	FFN[T tensor.Float]                = nn.FFN[T]
	Normalizer[T tensor.Float]         = nn.Normalizer[T]
	TransformerConfig                  = nn.TransformerConfig
	TransformerBlock[T tensor.Float]   = nn.TransformerBlock[T]
	TransformerEncoder[T tensor.Float] = nn.TransformerEncoder[T]
)

// Losses.
type (
	Loss[T tensor.Float]             = nn.Loss[T]
	MSELoss[T tensor.Float]          = nn.MSELoss[T]
	CrossEntropyLoss[T tensor.Float] = nn.CrossEntropyLoss[T]
)

// NewInitializer creates a seeded weight initializer.
func NewInitializer(seed int64) *Initializer {
	return nn.NewInitializer(seed)
}

// Xavier draws a tensor from the Xavier/Glorot uniform distribution.
func Xavier[T tensor.Float](init *Initializer, fanIn, fanOut int, shape tensor.Shape) *autodiff.Tensor[T] {
	return nn.Xavier[T](init, fanIn, fanOut, shape)
}

// NewParameter wraps a constant tensor as a named trainable parameter.
func NewParameter[T tensor.Float](name string, t *autodiff.Tensor[T]) *Parameter[T] {
	return nn.NewParameter(name, t)
}

// NumParameters counts the scalar weights of m.
func NumParameters[T tensor.Float](m Module[T]) int {
	return nn.NumParameters(m)
}

// NewSequential chains modules in order.
func NewSequential[T tensor.Float](modules ...Module[T]) *Sequential[T] {
	return nn.NewSequential(modules...)
}

// NewLinear creates y = x·Wᵀ + b.
func NewLinear[T tensor.Float](inFeatures, outFeatures int, init *Initializer) *Linear[T] {
	return nn.NewLinear[T](inFeatures, outFeatures, init)
}

// NewLinearNoBias creates y = x·Wᵀ.
func NewLinearNoBias[T tensor.Float](inFeatures, outFeatures int, init *Initializer) *Linear[T] {
	return nn.NewLinearNoBias[T](inFeatures, outFeatures, init)
}

// NewReLU creates a ReLU activation.
func NewReLU[T tensor.Float]() *ReLU[T] { return nn.NewReLU[T]() }

// NewSigmoid creates a sigmoid activation.
func NewSigmoid[T tensor.Float]() *Sigmoid[T] { return nn.NewSigmoid[T]() }

// NewTanh creates a tanh activation.
func NewTanh[T tensor.Float]() *Tanh[T] { return nn.NewTanh[T]() }

// NewSiLU creates a SiLU activation.
func NewSiLU[T tensor.Float]() *SiLU[T] { return nn.NewSiLU[T]() }

// NewLayerNorm creates layer normalization over the last axis.
func NewLayerNorm[T tensor.Float](normalizedShape int, epsilon T) *LayerNorm[T] {
	return nn.NewLayerNorm(normalizedShape, epsilon)
}

// NewRMSNorm creates RMS normalization over the last axis.
func NewRMSNorm[T tensor.Float](dModel int, epsilon T) *RMSNorm[T] {
	return nn.NewRMSNorm(dModel, epsilon)
}

// NewMultiHeadAttention creates self-attention with numHeads heads.
// It panics if embedDim is not divisible by numHeads.
func NewMultiHeadAttention[T tensor.Float](embedDim, numHeads int, init *Initializer) *MultiHeadAttention[T] {
	return nn.NewMultiHeadAttention[T](embedDim, numHeads, init)
}

// NewFFN creates the position-wise feed-forward network.
func NewFFN[T tensor.Float](embedDim, ffnDim int, init *Initializer) *FFN[T] {
	return nn.NewFFN[T](embedDim, ffnDim, init)
}

// NewTransformerBlock creates one post-norm encoder block.
func NewTransformerBlock[T tensor.Float](config TransformerConfig, init *Initializer) (*TransformerBlock[T], error) {
	return nn.NewTransformerBlock[T](config, init)
}

// NewTransformerEncoder stacks numLayers encoder blocks.
func NewTransformerEncoder[T tensor.Float](config TransformerConfig, numLayers int, init *Initializer) (*TransformerEncoder[T], error) {
	return nn.NewTransformerEncoder[T](config, numLayers, init)
}

// NewMSELoss creates the mean squared error loss.
func NewMSELoss[T tensor.Float]() *MSELoss[T] { return nn.NewMSELoss[T]() }

// NewCrossEntropyLoss creates the softmax cross-entropy loss.
func NewCrossEntropyLoss[T tensor.Float]() *CrossEntropyLoss[T] { return nn.NewCrossEntropyLoss[T]() }

// OneHot encodes class labels as a [len(labels), classes] tensor.
func OneHot[T tensor.Float](labels []int, classes int) (*autodiff.Tensor[T], error) {
	return nn.OneHot[T](labels, classes)
}
