package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/tensor"
)

// MultiHeadAttention implements multi-head self-attention.
//
// Architecture:
//
//	MHA(x) = Σ_h head_h · W_O_hᵀ + b_O
//	head_h = softmax(x·W_Q_hᵀ · (x·W_K_hᵀ)ᵀ / sqrt(head_dim)) · x·W_V_hᵀ
//
// Each head owns its projections. Summing the per-head output projections
// equals concatenating the heads and applying one [embed_dim, embed_dim]
// output matrix, without a concat primitive.
//
// Example:
//
//	mha := nn.NewMultiHeadAttention[float64](8, 2, init) // 8 dim, 2 heads
//	output, err := mha.Forward(x)                        // [..., seq, 8] -> [..., seq, 8]
type MultiHeadAttention[T tensor.Float] struct {
	Heads    []*AttentionHead[T]
	OutBias  *Parameter[T] // [embed_dim]
	NumHeads int
	HeadDim  int
	EmbedDim int
}

// AttentionHead holds the projections of one head.
type AttentionHead[T tensor.Float] struct {
	WQ *Linear[T] // [head_dim, embed_dim]
	WK *Linear[T] // [head_dim, embed_dim]
	WV *Linear[T] // [head_dim, embed_dim]
	WO *Linear[T] // [embed_dim, head_dim], no bias
}

// NewMultiHeadAttention creates a new multi-head attention module.
//
// The head dimension is computed as embedDim / numHeads.
func NewMultiHeadAttention[T tensor.Float](embedDim, numHeads int, init *Initializer) *MultiHeadAttention[T] {
	if numHeads <= 0 || embedDim%numHeads != 0 {
		panic(fmt.Sprintf("MultiHeadAttention: embed_dim (%d) must be divisible by num_heads (%d)", embedDim, numHeads))
	}
	headDim := embedDim / numHeads

	heads := make([]*AttentionHead[T], numHeads)
	for h := range heads {
		heads[h] = &AttentionHead[T]{
			WQ: NewLinear[T](embedDim, headDim, init),
			WK: NewLinear[T](embedDim, headDim, init),
			WV: NewLinear[T](embedDim, headDim, init),
			WO: NewLinearNoBias[T](headDim, embedDim, init),
		}
	}
	return &MultiHeadAttention[T]{
		Heads:    heads,
		OutBias:  NewParameter("out.bias", Zeros[T](tensor.Shape{embedDim})),
		NumHeads: numHeads,
		HeadDim:  headDim,
		EmbedDim: embedDim,
	}
}

// Forward computes self-attention over x of shape [..., seq, embed_dim].
//
// The chain's tape is routed through every head in turn: it is handed back
// to x after each head, so all projections are recorded on the same tape.
// On return the output owns the tape.
func (m *MultiHeadAttention[T]) Forward(x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	if x.Rank() < 2 {
		return nil, fmt.Errorf("multi-head attention: %w: expected [..., seq, %d], got %v",
			tensor.ErrShapeMismatch, m.EmbedDim, x.Shape())
	}
	if err := checkFeatures("multi-head attention", x, m.EmbedDim); err != nil {
		return nil, err
	}

	var sum *autodiff.Tensor[T]
	for h, head := range m.Heads {
		out, err := m.attend(head, x)
		if err != nil {
			return nil, fmt.Errorf("multi-head attention: head %d: %w", h, err)
		}
		if sum == nil {
			sum = out
		} else if sum, err = ops.Add(sum, out); err != nil {
			return nil, fmt.Errorf("multi-head attention: head %d: %w", h, err)
		}
		if err := autodiff.HandOff(sum, x); err != nil {
			return nil, fmt.Errorf("multi-head attention: %w", err)
		}
	}
	if err := autodiff.HandOff(x, sum); err != nil {
		return nil, fmt.Errorf("multi-head attention: %w", err)
	}

	out, err := ops.BroadcastAdd(sum, m.OutBias.Tensor())
	if err != nil {
		return nil, fmt.Errorf("multi-head attention: %w", err)
	}
	return out, nil
}

// attend runs scaled dot-product attention for one head and applies its
// output projection. If x owns the tape on entry, the result owns it on
// return.
func (m *MultiHeadAttention[T]) attend(head *AttentionHead[T], x *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	q, err := head.WQ.Forward(x)
	if err != nil {
		return nil, err
	}
	if err := autodiff.HandOff(q, x); err != nil {
		return nil, err
	}
	k, err := head.WK.Forward(x)
	if err != nil {
		return nil, err
	}
	if err := autodiff.HandOff(k, x); err != nil {
		return nil, err
	}
	v, err := head.WV.Forward(x)
	if err != nil {
		return nil, err
	}
	// Scores are computed from q, so q resumes the chain.
	if err := autodiff.HandOff(v, q); err != nil {
		return nil, err
	}

	scores, err := ops.MatMulTransposed(q, k) // [..., seq, seq]
	if err != nil {
		return nil, err
	}
	if scores, err = ops.Scale(scores, T(1/math.Sqrt(float64(m.HeadDim)))); err != nil {
		return nil, err
	}
	weights, err := ops.Softmax(scores)
	if err != nil {
		return nil, err
	}
	context, err := ops.MatMul(weights, v) // [..., seq, head_dim]
	if err != nil {
		return nil, err
	}
	return head.WO.Forward(context)
}

// Parameters returns every head's projections followed by the output bias.
func (m *MultiHeadAttention[T]) Parameters() []*Parameter[T] {
	var params []*Parameter[T]
	for _, head := range m.Heads {
		params = append(params, head.WQ.Parameters()...)
		params = append(params, head.WK.Parameters()...)
		params = append(params, head.WV.Parameters()...)
		params = append(params, head.WO.Parameters()...)
	}
	return append(params, m.OutBias)
}
