package gradcheck

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"k8s.io/klog/v2"

	"github.com/born-ml/gradtape/internal/autodiff"
	"github.com/born-ml/gradtape/internal/autodiff/ops"
	"github.com/born-ml/gradtape/internal/parallel"
	"github.com/born-ml/gradtape/internal/tensor"
)

// Epsilon is the central-difference step.
const Epsilon = 1e-6

// Options configures a run.
type Options struct {
	Tolerance float64 // relative tolerance, floored at an absolute scale of 1
	Seed      uint64
}

// Result reports the worst deviation found for one case.
type Result struct {
	Name        string
	DataType    tensor.DataType
	MaxAbsError float64
	MaxRelError float64
	Passed      bool
	Err         error
}

// Run checks every case in element type T, one independent chain per
// case. Results are returned in case order.
func Run[T tensor.Float](ctx context.Context, cfg parallel.Config, cases []Case, opts Options) ([]Result, error) {
	results := make([]Result, len(cases))
	err := parallel.RunChains(ctx, cfg, len(cases), func(_ context.Context, i int) error {
		// Each chain draws from its own source so results do not depend on
		// scheduling order.
		rng := rand.New(rand.NewPCG(opts.Seed, uint64(i)))
		results[i] = Check[T](cases[i], rng, opts.Tolerance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Check compares analytic and numerical gradients of c for every operand.
func Check[T tensor.Float](c Case, rng *rand.Rand, tolerance float64) Result {
	res := Result{Name: c.Name, DataType: tensor.DataTypeOf[T](), Passed: true}

	inputs := make([][]float64, len(c.Shapes))
	for i, shape := range c.Shapes {
		inputs[i] = sample(rng, shape.NumElements(), c.Domain)
	}

	for j := range c.Shapes {
		if slices.Contains(c.Skip, j) {
			continue
		}
		got, err := analytic[T](c, inputs, j)
		if err != nil {
			res.Passed, res.Err = false, err
			return res
		}
		want, err := numerical(c, inputs, j)
		if err != nil {
			res.Passed, res.Err = false, err
			return res
		}

		for k := range want {
			abs := math.Abs(want[k] - got[k])
			rel := abs / math.Max(1, math.Abs(want[k]))
			res.MaxAbsError = math.Max(res.MaxAbsError, abs)
			res.MaxRelError = math.Max(res.MaxRelError, rel)
		}
	}
	res.Passed = res.MaxRelError <= tolerance
	klog.V(3).InfoS("Checked operation", "op", c.Name, "dtype", res.DataType,
		"maxAbs", res.MaxAbsError, "maxRel", res.MaxRelError, "passed", res.Passed)
	return res
}

// analytic returns d loss / d operand j computed by Backward in type T.
func analytic[T tensor.Float](c Case, inputs [][]float64, j int) ([]float64, error) {
	in, err := tensors[T](c.Shapes, inputs)
	if err != nil {
		return nil, err
	}
	in[j] = in[j].Trace()

	y, err := Apply(c.Name, in)
	if err != nil {
		return nil, err
	}
	loss, err := weighted(y)
	if err != nil {
		return nil, err
	}
	grads, err := autodiff.Backward(loss)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}

	g := grads.Get(in[j]).Data()
	out := make([]float64, len(g))
	for i, v := range g {
		out[i] = float64(v)
	}
	return out, nil
}

// numerical returns d loss / d operand j by central differences in float64.
func numerical(c Case, inputs [][]float64, j int) ([]float64, error) {
	eval := func() (float64, error) {
		in, err := tensors[float64](c.Shapes, inputs)
		if err != nil {
			return 0, err
		}
		y, err := Apply(c.Name, in)
		if err != nil {
			return 0, err
		}
		loss, err := weighted(y)
		if err != nil {
			return 0, err
		}
		return loss.Item(), nil
	}

	data := inputs[j]
	grad := make([]float64, len(data))
	for i := range data {
		orig := data[i]
		data[i] = orig + Epsilon
		plus, err := eval()
		if err != nil {
			return nil, err
		}
		data[i] = orig - Epsilon
		minus, err := eval()
		data[i] = orig
		if err != nil {
			return nil, err
		}
		grad[i] = (plus - minus) / (2 * Epsilon)
	}
	return grad, nil
}

// weighted reduces y to Σ y_i · w_i with fixed non-uniform weights, so that
// every output element contributes a distinct upstream gradient.
func weighted[T tensor.Float](y *autodiff.Tensor[T]) (*autodiff.Tensor[T], error) {
	n := y.Shape().NumElements()
	w := []float64{1}
	if n > 1 {
		w = floats.Span(make([]float64, n), 1, 2)
	}
	data := make([]T, n)
	for i, v := range w {
		data[i] = T(v)
	}
	weights, err := autodiff.New(y.Shape(), data)
	if err != nil {
		return nil, err
	}
	prod, err := ops.Mul(y, weights)
	if err != nil {
		return nil, err
	}
	return ops.Sum(prod)
}

func tensors[T tensor.Float](shapes []tensor.Shape, inputs [][]float64) ([]*autodiff.Tensor[T], error) {
	out := make([]*autodiff.Tensor[T], len(shapes))
	for i, shape := range shapes {
		data := make([]T, len(inputs[i]))
		for k, v := range inputs[i] {
			data[k] = T(v)
		}
		t, err := autodiff.New(shape, data)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func sample(rng *rand.Rand, n int, d Domain) []float64 {
	out := make([]float64, n)
	for i := range out {
		switch d {
		case Positive:
			out[i] = 0.5 + 2*rng.Float64()
		case AwayFromZero:
			v := 0.2 + 1.8*rng.Float64()
			if rng.IntN(2) == 0 {
				v = -v
			}
			out[i] = v
		default:
			out[i] = 4*rng.Float64() - 2
		}
	}
	return out
}
