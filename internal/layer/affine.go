package layer

import (
	"fmt"
	"math"

	"github.com/astoeckley/cortex/internal/backend"
)

// Affine is a fully connected layer: output = W·x + b.
//
// Weights are stored row-major [out × in]. When the backend reports BLAS
// capability the forward multiply is one gemv with the bias preloaded into
// the output buffer, the weight-gradient accumulation one rank-one update,
// and the input gradient one transposed gemv; otherwise generic loops run.
// Both paths produce identical results up to floating-point rounding.
type Affine struct {
	inSize  int
	outSize int

	weights []float64
	biases  []float64

	gradWeights []float64
	gradBiases  []float64

	output []float64
	gradIn []float64

	backend *backend.Backend
}

// NewAffine creates an affine layer with Xavier-initialized weights,
// reproducible through the deterministic generator.
func NewAffine(in, out int, b *backend.Backend) *Affine {
	if in <= 0 || out <= 0 {
		panic(fmt.Sprintf("affine: invalid dims in=%d out=%d", in, out))
	}
	a := &Affine{
		inSize:      in,
		outSize:     out,
		weights:     make([]float64, out*in),
		biases:      make([]float64, out),
		gradWeights: make([]float64, out*in),
		gradBiases:  make([]float64, out),
		output:      make([]float64, out),
		gradIn:      make([]float64, in),
		backend:     b,
	}
	rng := NewRNG(42)
	scale := math.Sqrt(2 / float64(in+out))
	for i := range a.weights {
		a.weights[i] = rng.RandFloat()*2*scale - scale
	}
	return a
}

func (a *Affine) checkInput(x []float64) {
	if len(x) != a.inSize {
		panic(fmt.Sprintf("affine: input length %d, layer wants %d", len(x), a.inSize))
	}
}

// Calc computes W·x + b.
func (a *Affine) Calc(x []float64) []float64 {
	a.checkInput(x)
	if a.backend.BLAS() {
		copy(a.output, a.biases)
		a.backend.MatVec(a.weights, a.outSize, a.inSize, x, a.output, true)
		return a.output
	}
	for o := 0; o < a.outSize; o++ {
		sum := a.biases[o]
		base := o * a.inSize
		for i, v := range x {
			sum += a.weights[base+i] * v
		}
		a.output[o] = sum
	}
	return a.output
}

// Forward computes W·x + b; no extra state is recorded since Backward
// receives the input.
func (a *Affine) Forward(x []float64) []float64 { return a.Calc(x) }

// Backward accumulates gradWeights += outer(grad, x) and gradBiases += grad,
// and returns Wᵀ·grad.
func (a *Affine) Backward(x, grad []float64) []float64 {
	a.checkInput(x)
	if len(grad) != a.outSize {
		panic(fmt.Sprintf("affine: gradient length %d, layer wants %d", len(grad), a.outSize))
	}
	if a.backend.BLAS() {
		a.backend.RankOne(a.gradWeights, a.outSize, a.inSize, grad, x)
		for o, g := range grad {
			a.gradBiases[o] += g
		}
		a.backend.MatTVec(a.weights, a.outSize, a.inSize, grad, a.gradIn, false)
		return a.gradIn
	}
	zero(a.gradIn)
	for o, g := range grad {
		a.gradBiases[o] += g
		base := o * a.inSize
		for i, v := range x {
			a.gradWeights[base+i] += g * v
			a.gradIn[i] += g * a.weights[base+i]
		}
	}
	return a.gradIn
}

// Params returns weights then biases as one flat view.
func (a *Affine) Params() []float64 {
	params := make([]float64, 0, len(a.weights)+len(a.biases))
	params = append(params, a.weights...)
	params = append(params, a.biases...)
	return params
}

// SetParams overwrites weights and biases from the flat vector and zeroes
// the gradient accumulators.
func (a *Affine) SetParams(p []float64) {
	if len(p) != len(a.weights)+len(a.biases) {
		panic(fmt.Sprintf("affine: parameter vector length %d, layer has %d", len(p), len(a.weights)+len(a.biases)))
	}
	copy(a.weights, p[:len(a.weights)])
	copy(a.biases, p[len(a.weights):])
	zero(a.gradWeights)
	zero(a.gradBiases)
}

// Gradients returns the accumulated weight then bias gradients.
func (a *Affine) Gradients() []float64 {
	grads := make([]float64, 0, len(a.gradWeights)+len(a.gradBiases))
	grads = append(grads, a.gradWeights...)
	grads = append(grads, a.gradBiases...)
	return grads
}

// SetWeight sets a single weight at (row, col). Intended for tests and
// hand-built networks.
func (a *Affine) SetWeight(row, col int, v float64) {
	a.weights[row*a.inSize+col] = v
}

// SetBias sets a single bias.
func (a *Affine) SetBias(idx int, v float64) {
	a.biases[idx] = v
}

// InSize returns the input size of the layer.
func (a *Affine) InSize() int { return a.inSize }

// OutSize returns the output size of the layer.
func (a *Affine) OutSize() int { return a.outSize }
