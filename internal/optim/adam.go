package optim

import (
	"math"

	"github.com/born-ml/gradtape/internal/nn"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam[T tensor.Float] struct {
	params []*nn.Parameter[T]
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int      // Timestep for bias correction
	m      state[T] // First moment estimates
	v      state[T] // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer, filling in default hyperparameters.
func NewAdam[T tensor.Float](params []*nn.Parameter[T], config AdamConfig) *Adam[T] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas == [2]float64{} {
		config.Betas = [2]float64{0.9, 0.999}
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam[T]{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(state[T]),
		v:      make(state[T]),
	}
}

// Step performs a single optimization step.
//
// Parameters with no gradient are skipped; their moments are not decayed.
func (a *Adam[T]) Step(grads GradientProvider[T]) {
	a.t++
	bc1 := 1 - math.Pow(a.beta1, float64(a.t))
	bc2 := 1 - math.Pow(a.beta2, float64(a.t))

	for _, param := range a.params {
		if !grads.Has(param.ID()) {
			continue
		}
		grad := grads.Get(param.Tensor()).Data()
		data := param.Tensor().Data()
		m, v := a.m.get(param), a.v.get(param)

		for i, g := range grad {
			gf := float64(g)
			mi := a.beta1*float64(m[i]) + (1-a.beta1)*gf
			vi := a.beta2*float64(v[i]) + (1-a.beta2)*gf*gf
			m[i], v[i] = T(mi), T(vi)

			mHat, vHat := mi/bc1, vi/bc2
			data[i] -= T(a.lr * mHat / (math.Sqrt(vHat) + a.eps))
		}
	}
}

// GetLR returns the current learning rate.
func (a *Adam[T]) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam[T]) SetLR(lr float64) {
	a.lr = lr
}

// GetTimestep returns the number of steps taken.
func (a *Adam[T]) GetTimestep() int {
	return a.t
}
