package layer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaleForward(t *testing.T) {
	s := NewScale(2, 1)
	out := s.Forward([]float64{0, 1, -3})
	require.Equal(t, []float64{1, 3, -5}, out)
}

func TestScaleFactorOnly(t *testing.T) {
	s := NewScaleFactor(3)
	out := s.Forward([]float64{1, 2})
	require.Equal(t, []float64{3, 6}, out)
}

func TestScaleConstantOnly(t *testing.T) {
	s := NewScaleConstant(-1)
	out := s.Forward([]float64{1, 2})
	require.Equal(t, []float64{0, 1}, out)

	// The constant does not affect the gradient.
	grad := s.Backward([]float64{1, 2}, []float64{5, 7})
	require.Equal(t, []float64{5, 7}, grad)
}

func TestScaleGradient(t *testing.T) {
	s := NewScale(1.5, -0.25)
	x := randVec(5, 4)
	checkInputGradient(t, s, x, 5)
	checkCalcIdempotent(t, s, x)
}
