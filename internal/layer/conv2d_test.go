package layer

import (
	"testing"

	"github.com/astoeckley/cortex/internal/backend"
	"github.com/astoeckley/cortex/internal/conv"
	"github.com/stretchr/testify/require"
)

func conv3x3cfg() conv.Config {
	return conv.Config{
		Width: 3, Height: 3, KernelWidth: 2, KernelHeight: 2,
		StrideX: 1, StrideY: 1, Channels: 1,
	}
}

// A single identity-corner kernel turns the convolution into a shifted copy
// of the input, pinning down the lowering end to end.
func TestConv2DForwardScenario(t *testing.T) {
	c := NewConv2D(conv3x3cfg(), 1, backend.Detect())
	c.SetParams(make([]float64, 5)) // zero weights and bias
	c.SetWeights([]float64{1, 0, 0, 0})

	x := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}
	out := c.Forward(x)
	// Each output pixel is the top-left corner of its receptive field.
	require.Equal(t, []float64{1, 2, 4, 5}, out)
}

func TestConv2DBiasBroadcast(t *testing.T) {
	c := NewConv2D(conv3x3cfg(), 2, backend.Detect())
	p := make([]float64, len(c.Params()))
	// Weights zero, biases 3 and -1.
	p[len(p)-2] = 3
	p[len(p)-1] = -1
	c.SetParams(p)

	out := c.Forward(make([]float64, 9))
	require.Equal(t, []float64{3, -1, 3, -1, 3, -1, 3, -1}, out)
}

func TestConv2DGradients(t *testing.T) {
	cases := []struct {
		name string
		cfg  conv.Config
		oc   int
	}{
		{"plain", conv3x3cfg(), 2},
		{"padded", conv.Config{
			Width: 4, Height: 4, KernelWidth: 3, KernelHeight: 3,
			PadX: 1, PadY: 1, StrideX: 1, StrideY: 1, Channels: 2,
		}, 3},
		{"strided", conv.Config{
			Width: 5, Height: 5, KernelWidth: 3, KernelHeight: 3,
			PadX: 1, PadY: 1, StrideX: 2, StrideY: 2, Channels: 1,
		}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewConv2D(tc.cfg, tc.oc, backend.Detect())
			x := randVec(tc.cfg.InputSize(), 41)
			outSize := tc.cfg.OutputPixels() * tc.oc
			checkInputGradient(t, c, x, outSize)
			checkParamGradient(t, c, x, outSize)
			checkCalcIdempotent(t, c, x)
		})
	}
}

// Overlapping receptive fields (stride < kernel) must accumulate input
// gradients additively: with a one-hot kernel and all-ones output gradient,
// every input position receives one contribution per window covering it.
func TestConv2DOverlapAccumulation(t *testing.T) {
	c := NewConv2D(conv3x3cfg(), 1, backend.Detect())
	c.SetParams(make([]float64, 5))
	c.SetWeights([]float64{1, 1, 1, 1})

	x := randVec(9, 42)
	c.Forward(x)
	gradIn := c.Backward(x, []float64{1, 1, 1, 1})

	want := []float64{
		1, 2, 1,
		2, 4, 2,
		1, 2, 1,
	}
	for i := range want {
		require.InDelta(t, want[i], gradIn[i], 1e-12)
	}
}

func TestConv2DPathsAgree(t *testing.T) {
	cfg := conv.Config{
		Width: 5, Height: 4, KernelWidth: 3, KernelHeight: 2,
		PadX: 1, PadY: 1, StrideX: 1, StrideY: 1, Channels: 2,
	}
	fast := NewConv2D(cfg, 3, backend.WithBLAS(true))
	slow := NewConv2D(cfg, 3, backend.WithBLAS(false))
	params := randVec(len(fast.Params()), 43)
	fast.SetParams(params)
	slow.SetParams(params)

	x := randVec(cfg.InputSize(), 44)
	outFast := append([]float64(nil), fast.Forward(x)...)
	outSlow := append([]float64(nil), slow.Forward(x)...)
	for i := range outFast {
		require.InDelta(t, outFast[i], outSlow[i], 1e-12)
	}

	grad := randVec(len(outFast), 45)
	inFast := append([]float64(nil), fast.Backward(x, grad)...)
	inSlow := append([]float64(nil), slow.Backward(x, grad)...)
	for i := range inFast {
		require.InDelta(t, inFast[i], inSlow[i], 1e-12)
	}

	gFast := fast.Gradients()
	gSlow := slow.Gradients()
	for i := range gFast {
		require.InDelta(t, gFast[i], gSlow[i], 1e-12)
	}
}

// A 1x1-kernel convolution over a 1-pixel image is an affine layer; its
// output must compose into an Affine without any layout adapter.
func TestConv2DComposesWithAffine(t *testing.T) {
	cfg := conv.Config{
		Width: 2, Height: 2, KernelWidth: 2, KernelHeight: 2,
		StrideX: 1, StrideY: 1, Channels: 1,
	}
	b := backend.Detect()
	c := NewConv2D(cfg, 3, b)
	a := NewAffine(3, 2, b)

	x := randVec(cfg.InputSize(), 46)
	hidden := c.Forward(x)
	require.Len(t, hidden, 3)
	out := a.Forward(hidden)
	require.Len(t, out, 2)
}

func TestConv2DShapeMismatchPanics(t *testing.T) {
	c := NewConv2D(conv3x3cfg(), 1, backend.Detect())
	require.Panics(t, func() { c.Forward(make([]float64, 8)) })
	require.Panics(t, func() { c.Backward(make([]float64, 9), make([]float64, 3)) })
	require.Panics(t, func() { NewConv2D(conv3x3cfg(), 0, backend.Detect()) })
}
