package cortex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestXORTraining trains a small dense network on XOR through the public
// API and checks it separates the classes.
func TestXORTraining(t *testing.T) {
	b := Detect()
	model := NewStack(
		Affine(2, 4, b),
		TanH(),
		Affine(4, 1, b),
		Logistic(),
	)
	opt := NewAdam(0.02)

	inputs := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	targets := []float64{0, 1, 1, 0}

	for epoch := 0; epoch < 2000; epoch++ {
		for i, x := range inputs {
			out := model.Forward(x)
			diff := out[0] - targets[i]
			model.Backward(x, []float64{2 * diff})
			model.SetParams(opt.Step(model.Params(), model.Gradients()))
		}
	}

	for i, x := range inputs {
		out := model.Calc(x)
		if targets[i] == 1 {
			require.Greater(t, out[0], 0.7, "input %v", x)
		} else {
			require.Less(t, out[0], 0.3, "input %v", x)
		}
	}
}

// TestConvPoolPipeline runs a convolution, pooling, and dense head end to
// end and checks the gradient plumbing stays shape-consistent.
func TestConvPoolPipeline(t *testing.T) {
	b := Detect()
	convCfg := Config{
		Width: 8, Height: 8,
		KernelWidth: 3, KernelHeight: 3,
		PadX: 1, PadY: 1,
		StrideX: 1, StrideY: 1,
		Channels: 1,
	}
	poolCfg := Config{
		Width: 8, Height: 8,
		KernelWidth: 2, KernelHeight: 2,
		StrideX: 2, StrideY: 2,
		Channels: 2,
	}
	model := NewStack(
		Conv2D(convCfg, 2, b),
		ReLU(0.01),
		MaxPool2D(poolCfg),
		Affine(4*4*2, 3, b),
		Softmax(),
	)

	x := make([]float64, 64)
	for i := range x {
		x[i] = math.Sin(float64(i) * 0.37)
	}

	out := model.Forward(x)
	require.Len(t, out, 3)
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	require.InDelta(t, 1, sum, 1e-9)

	gradIn := model.Backward(x, []float64{0.1, -0.2, 0.1})
	require.Len(t, gradIn, 64)
	require.Len(t, model.Gradients(), len(model.Params()))
}

// TestRegistryFacade builds a layer through the re-exported registry.
func TestRegistryFacade(t *testing.T) {
	r := NewRegistry(Detect())
	l, err := r.Build(Kind("affine"), Options{In: 2, Out: 2})
	require.NoError(t, err)
	require.Len(t, l.Calc([]float64{1, 2}), 2)
}
