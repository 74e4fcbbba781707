package layer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	gradEps = 1e-5
	gradTol = 1e-5
)

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func randVec(n int, seed uint64) []float64 {
	rng := NewRNG(seed)
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.RandFloat()*2 - 1
	}
	return out
}

// checkInputGradient compares the analytic input gradient of l against a
// central finite-difference estimate of d(sum(c ⊙ Calc(x)))/dx, where c is
// a random cotangent. The layer must be deterministic through Calc.
func checkInputGradient(t *testing.T, l Layer, x []float64, outSize int) {
	t.Helper()
	c := randVec(outSize, 99)

	l.Forward(x)
	analytic := append([]float64(nil), l.Backward(x, c)...)

	xp := make([]float64, len(x))
	for i := range x {
		copy(xp, x)
		xp[i] = x[i] + gradEps
		plus := dot(l.Calc(xp), c)
		xp[i] = x[i] - gradEps
		minus := dot(l.Calc(xp), c)
		numeric := (plus - minus) / (2 * gradEps)
		require.InDelta(t, numeric, analytic[i], gradTol, "input gradient at %d", i)
	}
}

// checkParamGradient compares the accumulated parameter gradients of l
// against finite differences taken through SetParams.
func checkParamGradient(t *testing.T, l Layer, x []float64, outSize int) {
	t.Helper()
	c := randVec(outSize, 71)
	params := append([]float64(nil), l.Params()...)

	l.SetParams(params) // zero the accumulators
	l.Forward(x)
	l.Backward(x, c)
	analytic := append([]float64(nil), l.Gradients()...)
	require.Len(t, analytic, len(params))

	pp := make([]float64, len(params))
	for i := range params {
		copy(pp, params)
		pp[i] = params[i] + gradEps
		l.SetParams(pp)
		plus := dot(l.Calc(x), c)
		pp[i] = params[i] - gradEps
		l.SetParams(pp)
		minus := dot(l.Calc(x), c)
		numeric := (plus - minus) / (2 * gradEps)
		require.InDelta(t, numeric, analytic[i], gradTol, "parameter gradient at %d", i)
	}
	l.SetParams(params)
}

// checkCalcIdempotent verifies Calc carries no hidden state: two calls with
// the same input must agree exactly.
func checkCalcIdempotent(t *testing.T, l Layer, x []float64) {
	t.Helper()
	first := append([]float64(nil), l.Calc(x)...)
	second := l.Calc(x)
	require.Equal(t, first, second)
}
