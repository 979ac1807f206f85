// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Optimizers update parameter values in place. A parameter keeps its
// identifier across steps, so gradients from every Backward call are found
// under the same key.
//
// Example usage:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01})
//
//	for step := range steps {
//	    output, _ := model.Forward(input.Trace())
//	    loss, _ := ops.MSE(output, target)
//	    grads, _ := autodiff.Backward(loss)
//	    optimizer.Step(grads)
//	}
package optim

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/tensor"
)

// GradientProvider looks up the accumulated gradient of a tensor.
// *autodiff.Gradients satisfies it.
type GradientProvider[T tensor.Float] interface {
	Get(t *autodiff.Tensor[T]) *tensor.Buffer[T]
	// Has reports whether a gradient was accumulated for id.
	Has(id autodiff.ID) bool
}

// Optimizer is the base interface for all optimization algorithms.
type Optimizer[T tensor.Float] interface {
	// Step applies gradient updates to all parameters in place.
	//
	// Example:
	//   grads, _ := autodiff.Backward(loss)
	//   optimizer.Step(grads)
	Step(grads GradientProvider[T])

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR updates the learning rate, for scheduling.
	SetLR(lr float64)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// state holds one per-parameter buffer, created lazily with zeros.
type state[T tensor.Float] map[*nn.Parameter[T]]*tensor.Buffer[T]

func (s state[T]) get(p *nn.Parameter[T]) []T {
	buf, ok := s[p]
	if !ok {
		buf = tensor.Zeros[T](p.Shape())
		s[p] = buf
	}
	return buf.Data()
}
