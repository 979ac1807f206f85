package ops

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/tensor"
)

// MSE returns mean((pred - target)²) as a rank-0 tensor.
func MSE[T tensor.Float](pred, target *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	if !pred.Shape().Equal(target.Shape()) {
		return nil, fmt.Errorf("mse: %w: %v vs %v", tensor.ErrShapeMismatch, pred.Shape(), target.Shape())
	}
	diff, err := Sub(pred, target)
	if err != nil {
		return nil, fmt.Errorf("mse: %w", err)
	}
	sq, err := Square(diff)
	if err != nil {
		return nil, fmt.Errorf("mse: %w", err)
	}
	return Mean(sq)
}

// CrossEntropy returns the mean over rows of -Σ target · log(softmax(logits)).
//
// Shapes:
//   - logits: [..., classes]
//   - target: same shape, one-hot or a probability distribution per row
func CrossEntropy[T tensor.Float](logits, target *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	if !logits.Shape().Equal(target.Shape()) || logits.Rank() == 0 {
		return nil, fmt.Errorf("cross_entropy: %w: %v vs %v", tensor.ErrShapeMismatch, logits.Shape(), target.Shape())
	}
	probs, err := Softmax(logits)
	if err != nil {
		return nil, fmt.Errorf("cross_entropy: %w", err)
	}
	logp, err := Log(probs)
	if err != nil {
		return nil, fmt.Errorf("cross_entropy: %w", err)
	}
	weighted, err := Mul(logp, target)
	if err != nil {
		return nil, fmt.Errorf("cross_entropy: %w", err)
	}
	perRow, err := SumAxis(weighted, -1)
	if err != nil {
		return nil, fmt.Errorf("cross_entropy: %w", err)
	}
	mean, err := Mean(perRow)
	if err != nil {
		return nil, fmt.Errorf("cross_entropy: %w", err)
	}
	return Neg(mean)
}
