package nn

import (
	"fmt"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Loss maps predictions and targets to a rank-0 tensor.
type Loss[T tensor.Float] interface {
	Forward(predictions, targets *autodiff.Tensor[T]) (*autodiff.Tensor[T], error)
}

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// Example:
//
//	mse := nn.NewMSELoss[float64]()
//	loss, err := mse.Forward(predictions, targets)
type MSELoss[T tensor.Float] struct{}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss[T tensor.Float]() *MSELoss[T] {
	return &MSELoss[T]{}
}

// Forward computes the MSE loss. Shapes must match.
func (*MSELoss[T]) Forward(predictions, targets *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return ops.MSE(predictions, targets)
}

// CrossEntropyLoss computes softmax cross-entropy for classification.
//
//	Loss = mean over rows of -Σ target · log(softmax(logits))
//
// Targets are one-hot rows (see OneHot) or probability distributions of
// the same shape as the logits.
type CrossEntropyLoss[T tensor.Float] struct{}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss[T tensor.Float]() *CrossEntropyLoss[T] {
	return &CrossEntropyLoss[T]{}
}

// Forward computes the cross-entropy loss.
func (*CrossEntropyLoss[T]) Forward(logits, targets *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	return ops.CrossEntropy(logits, targets)
}

// OneHot converts class indices into a constant [len(labels), classes] tensor.
func OneHot[T tensor.Float](labels []int, classes int) (*autodiff.Tensor[T], error) {
	data := make([]T, len(labels)*classes)
	for i, label := range labels {
		if label < 0 || label >= classes {
			return nil, fmt.Errorf("one hot: label %d out of range [0, %d)", label, classes)
		}
		data[i*classes+label] = 1
	}
	return autodiff.New(tensor.Shape{len(labels), classes}, data)
}
