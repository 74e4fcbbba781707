package layer

import (
	"math"

	"github.com/astoeckley/cortex/internal/activations"
)

// noParams is embedded by layers with no learnable state.
type noParams struct{}

// Params returns an empty flat view.
func (noParams) Params() []float64 { return nil }

// SetParams is a no-op for parameterless layers.
func (noParams) SetParams(p []float64) {}

// Gradients returns an empty flat view.
func (noParams) Gradients() []float64 { return nil }

// Logistic applies the sigmoid elementwise.
type Logistic struct {
	noParams
	fn     activations.Sigmoid
	output []float64
	gradIn []float64
}

// NewLogistic creates a logistic activation layer.
func NewLogistic() *Logistic { return &Logistic{} }

// Calc computes sigmoid(x).
func (l *Logistic) Calc(x []float64) []float64 {
	l.output = ensure(l.output, len(x))
	for i, v := range x {
		l.output[i] = l.fn.Activate(v)
	}
	return l.output
}

// Forward computes sigmoid(x); the output buffer itself is the recorded state.
func (l *Logistic) Forward(x []float64) []float64 { return l.Calc(x) }

// Backward computes grad * output * (1 - output).
func (l *Logistic) Backward(x, grad []float64) []float64 {
	l.gradIn = ensure(l.gradIn, len(grad))
	for i, g := range grad {
		o := l.output[i]
		l.gradIn[i] = g * o * (1 - o)
	}
	return l.gradIn
}

// TanH applies the hyperbolic tangent elementwise.
type TanH struct {
	noParams
	fn     activations.Tanh
	output []float64
	gradIn []float64
}

// NewTanH creates a tanh activation layer.
func NewTanH() *TanH { return &TanH{} }

// Calc computes tanh(x).
func (t *TanH) Calc(x []float64) []float64 {
	t.output = ensure(t.output, len(x))
	for i, v := range x {
		t.output[i] = t.fn.Activate(v)
	}
	return t.output
}

// Forward computes tanh(x).
func (t *TanH) Forward(x []float64) []float64 { return t.Calc(x) }

// Backward computes grad * (1 - output^2).
func (t *TanH) Backward(x, grad []float64) []float64 {
	t.gradIn = ensure(t.gradIn, len(grad))
	for i, g := range grad {
		o := t.output[i]
		t.gradIn[i] = g * (1 - o*o)
	}
	return t.gradIn
}

// ReLU applies a (leaky) rectified-linear transform: negative inputs are
// scaled by negval, everything else passes through.
type ReLU struct {
	noParams
	fn     *activations.LeakyReLU
	output []float64
	gradIn []float64
}

// NewReLU creates a rectifier with the given negative-side slope.
// A negval of 0 is the plain ReLU.
func NewReLU(negval float64) *ReLU {
	return &ReLU{fn: activations.NewLeakyReLU(negval)}
}

// Calc computes x * (x < 0 ? negval : 1).
func (r *ReLU) Calc(x []float64) []float64 {
	r.output = ensure(r.output, len(x))
	for i, v := range x {
		r.output[i] = r.fn.Activate(v)
	}
	return r.output
}

// Forward computes the rectified output.
func (r *ReLU) Forward(x []float64) []float64 { return r.Calc(x) }

// Backward applies the same negative-side mask to the output gradient.
func (r *ReLU) Backward(x, grad []float64) []float64 {
	r.gradIn = ensure(r.gradIn, len(grad))
	for i, g := range grad {
		r.gradIn[i] = g * r.fn.Derivative(x[i])
	}
	return r.gradIn
}

// Softmax normalizes the input into a probability distribution, subtracting
// the maximum before exponentiation for numerical stability.
type Softmax struct {
	noParams
	output []float64
	gradIn []float64
}

// NewSoftmax creates a softmax layer.
func NewSoftmax() *Softmax { return &Softmax{} }

// Calc computes exp(x - max(x)) / sum(exp(x - max(x))).
func (s *Softmax) Calc(x []float64) []float64 {
	s.output = ensure(s.output, len(x))
	max := math.Inf(-1)
	for _, v := range x {
		if v > max {
			max = v
		}
	}
	sum := 0.0
	for i, v := range x {
		e := math.Exp(v - max)
		s.output[i] = e
		sum += e
	}
	for i := range s.output {
		s.output[i] /= sum
	}
	return s.output
}

// Forward computes the softmax output.
func (s *Softmax) Forward(x []float64) []float64 { return s.Calc(x) }

// Backward passes the output gradient through unchanged. This assumes
// composition with a loss whose own gradient already incorporates the
// softmax Jacobian (cross-entropy over softmax); it is not a general
// softmax derivative.
func (s *Softmax) Backward(x, grad []float64) []float64 {
	s.gradIn = ensure(s.gradIn, len(grad))
	copy(s.gradIn, grad)
	return s.gradIn
}
