package autodiff

import (
	"slices"

	"github.com/born-ml/gradtape/internal/tensor"
)

// Gradients holds the accumulated gradients produced by Backward, keyed
// by tensor identifier.
type Gradients[T tensor.Float] struct {
	grads map[ID]*tensor.Buffer[T]
}

// Get returns a copy of the gradient of t. A tensor that never took part
// in the recorded computation gets zeros of its own shape.
func (g *Gradients[T]) Get(t *Tensor[T]) *tensor.Buffer[T] {
	return g.Lookup(t.id, t.Shape())
}

// Lookup returns a copy of the gradient stored for id, or zeros of shape
// if absent. Changing the result never affects later lookups.
func (g *Gradients[T]) Lookup(id ID, shape tensor.Shape) *tensor.Buffer[T] {
	if buf, ok := g.grads[id]; ok {
		return buf.Clone()
	}
	return tensor.Zeros[T](shape)
}

// Has reports whether a gradient was accumulated for id.
func (g *Gradients[T]) Has(id ID) bool {
	_, ok := g.grads[id]
	return ok
}

// Len returns the number of gradient slots.
func (g *Gradients[T]) Len() int {
	return len(g.grads)
}

// IDs returns the identifiers with a gradient, in ascending order.
func (g *Gradients[T]) IDs() []ID {
	ids := make([]ID, 0, len(g.grads))
	for id := range g.grads {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
