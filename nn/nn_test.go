// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradtape/autodiff"
	"github.com/born-ml/gradtape/nn"
	"github.com/born-ml/gradtape/tensor"
)

func TestTransformerBlock_PublicAPI(t *testing.T) {
	init := nn.NewInitializer(7)
	block, err := nn.NewTransformerBlock[float64](nn.TransformerConfig{
		EmbedDim: 4, NumHeads: 2, FFNDim: 8, NormEps: 1e-5,
	}, init)
	require.NoError(t, err)

	x := nn.Xavier[float64](init, 4, 4, tensor.Shape{3, 4})
	target := autodiff.Zeros[float64](tensor.Shape{3, 4})

	out, err := block.Forward(x.Trace())
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 4}, out.Shape())

	loss, err := nn.NewMSELoss[float64]().Forward(out, target)
	require.NoError(t, err)
	grads, err := autodiff.Backward(loss)
	require.NoError(t, err)

	for _, p := range block.Parameters() {
		assert.True(t, grads.Has(p.ID()), "missing gradient for %s", p.Name())
	}
	assert.Positive(t, nn.NumParameters[float64](block))
}
