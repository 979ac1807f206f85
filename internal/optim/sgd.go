package optim

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/tensor"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD[T tensor.Float] struct {
	params     []*nn.Parameter[T]
	lr         float64
	momentum   float64
	velocities state[T]
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer.
func NewSGD[T tensor.Float](params []*nn.Parameter[T], config SGDConfig) *SGD[T] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Momentum < 0 || config.Momentum >= 1 {
		panic(fmt.Sprintf("SGD: momentum must be in [0, 1), got %g", config.Momentum))
	}
	return &SGD[T]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(state[T]),
	}
}

// Step performs a single optimization step.
//
// Parameters with no gradient (not in the computation) are skipped, and
// their velocity is left as it was.
func (s *SGD[T]) Step(grads GradientProvider[T]) {
	lr, mu := T(s.lr), T(s.momentum)
	for _, param := range s.params {
		if !grads.Has(param.ID()) {
			continue
		}
		grad := grads.Get(param.Tensor()).Data()
		data := param.Tensor().Data()

		if s.momentum == 0 {
			for i, g := range grad {
				data[i] -= lr * g
			}
			continue
		}

		velocity := s.velocities.get(param)
		for i, g := range grad {
			velocity[i] = mu*velocity[i] + g
			data[i] -= lr * velocity[i]
		}
	}
}

// GetLR returns the current learning rate.
func (s *SGD[T]) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD[T]) SetLR(lr float64) {
	s.lr = lr
}
