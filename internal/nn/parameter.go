package nn

import (
	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// The wrapped tensor keeps its identifier for the whole life of the
// parameter. Optimizers update its values in place, so gradients from
// every training step are found under the same key.
//
// Example:
//
//	weight := nn.NewParameter("linear1.weight", w)
//	...
//	grads, _ := autodiff.Backward(loss)
//	g := grads.Get(weight.Tensor())
type Parameter[T tensor.Float] struct {
	name   string
	tensor *autodiff.Tensor[T]
}

// NewParameter creates a new trainable parameter. t must not own a tape.
func NewParameter[T tensor.Float](name string, t *autodiff.Tensor[T]) *Parameter[T] {
	if t.HasTape() {
		panic("nn: parameter " + name + " must not own a tape")
	}
	return &Parameter[T]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[T]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[T]) Tensor() *autodiff.Tensor[T] {
	return p.tensor
}

// ID returns the identifier gradients are keyed by.
func (p *Parameter[T]) ID() autodiff.ID {
	return p.tensor.ID()
}

// Shape returns the parameter shape.
func (p *Parameter[T]) Shape() tensor.Shape {
	return p.tensor.Shape()
}

// NumParameters counts the scalar parameters of a module.
func NumParameters[T tensor.Float](m Module[T]) int {
	n := 0
	for _, p := range m.Parameters() {
		n += p.Shape().NumElements()
	}
	return n
}
