// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers that update nn parameters in place
// from the gradients returned by autodiff.Backward.
//
// Example:
//
//	opt := optim.NewAdam(model.Parameters(), optim.AdamConfig{LR: 1e-3})
//	grads, _ := autodiff.Backward(loss)
//	opt.Step(grads)
package optim

import (
	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/optim"
	"github.com/born-ml/gradtape/internal/tensor"
)

type (
	GradientProvider[T tensor.Float] = optim.GradientProvider[T]
	Optimizer[T tensor.Float]        = optim.Optimizer[T]
	Config                           = optim.Config

	SGD[T tensor.Float] = optim.SGD[T]
	SGDConfig           = optim.SGDConfig

	Adam[T tensor.Float] = optim.Adam[T]
	AdamConfig           = optim.AdamConfig
)

// NewSGD creates stochastic gradient descent with optional momentum.
func NewSGD[T tensor.Float](params []*nn.Parameter[T], config SGDConfig) *SGD[T] {
	return optim.NewSGD(params, config)
}

// NewAdam creates the Adam optimizer.
func NewAdam[T tensor.Float](params []*nn.Parameter[T], config AdamConfig) *Adam[T] {
	return optim.NewAdam(params, config)
}
