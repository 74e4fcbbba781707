package layer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogisticForward(t *testing.T) {
	l := NewLogistic()
	out := l.Forward([]float64{0, 2, -2})
	require.InDelta(t, 0.5, out[0], 1e-12)
	require.InDelta(t, 1/(1+math.Exp(-2)), out[1], 1e-12)
	require.InDelta(t, 1/(1+math.Exp(2)), out[2], 1e-12)
}

func TestLogisticGradient(t *testing.T) {
	l := NewLogistic()
	x := randVec(6, 1)
	checkInputGradient(t, l, x, 6)
	checkCalcIdempotent(t, l, x)
}

func TestTanHGradient(t *testing.T) {
	l := NewTanH()
	x := randVec(6, 2)
	checkInputGradient(t, l, x, 6)
	checkCalcIdempotent(t, l, x)
}

func TestReLUForward(t *testing.T) {
	r := NewReLU(0.1)
	out := r.Forward([]float64{-2, 0, 3})
	require.Equal(t, []float64{-0.2, 0, 3}, out)

	plain := NewReLU(0)
	out = plain.Forward([]float64{-2, 0, 3})
	require.Equal(t, []float64{0, 0, 3}, out)
}

func TestReLUGradient(t *testing.T) {
	r := NewReLU(0.25)
	// Keep the probe points away from the kink at zero.
	x := []float64{-1.5, -0.7, 0.4, 1.2, 2.1, -2.2}
	checkInputGradient(t, r, x, len(x))
}

func TestSoftmaxForward(t *testing.T) {
	s := NewSoftmax()
	out := s.Forward([]float64{1, 2, 3})
	sum := 0.0
	for _, v := range out {
		sum += v
	}
	require.InDelta(t, 1, sum, 1e-12)
	require.True(t, out[2] > out[1] && out[1] > out[0])

	// Max subtraction keeps large inputs finite.
	out = s.Forward([]float64{1000, 1001, 1002})
	for _, v := range out {
		require.False(t, math.IsNaN(v))
		require.False(t, math.IsInf(v, 0))
	}
	require.InDelta(t, out[0], 1/(1+math.E+math.E*math.E), 1e-9)
}

func TestSoftmaxBackwardPassesThrough(t *testing.T) {
	s := NewSoftmax()
	x := []float64{0.3, -0.1, 0.7}
	s.Forward(x)
	grad := []float64{0.5, -0.25, 0.125}
	got := s.Backward(x, grad)
	require.Equal(t, grad, got)
}

func TestSoftmaxCalcIdempotent(t *testing.T) {
	s := NewSoftmax()
	checkCalcIdempotent(t, s, []float64{0.1, 0.9, -0.4})
}
