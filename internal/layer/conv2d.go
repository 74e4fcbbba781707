package layer

import (
	"fmt"
	"math"

	"github.com/astoeckley/cortex/internal/backend"
	"github.com/astoeckley/cortex/internal/conv"
)

// Conv2D is a 2D convolutional layer lowered to a matrix multiply.
//
// Forward gathers every receptive field into one row of the convolution
// matrix (im2col) and computes output = matrix · Wᵀ + bias in a single gemm
// when BLAS is available; each output channel's kernel is one row of W.
// The flattened output is channel-interleaved, the same layout the affine
// layer consumes, so the two compose without adapters.
//
// Backward is the exact adjoint of the lowering: weight and bias gradients
// accumulate over the matrix rows, and the input gradient is scattered
// additively back through the same receptive-field descriptors, overlapping
// fields summing rather than overwriting.
type Conv2D struct {
	cfg         conv.Config
	outChannels int

	lowering *conv.Lowering

	// Weights: [outChannels × kernelHeight*kernelWidth*channels]
	weights []float64
	biases  []float64

	gradWeights []float64
	gradBiases  []float64

	output  []float64
	rowGrad []float64 // per-output-row input-gradient accumulators
	gradIn  []float64

	backend *backend.Backend
}

// NewConv2D creates a convolutional layer for the given geometry with
// He-initialized weights.
func NewConv2D(cfg conv.Config, outChannels int, b *backend.Backend) *Conv2D {
	cfg.Validate()
	if outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output channels %d", outChannels))
	}
	kernel := cfg.KernelSize()
	c := &Conv2D{
		cfg:         cfg,
		outChannels: outChannels,
		lowering:    conv.NewLowering(cfg),
		weights:     make([]float64, outChannels*kernel),
		biases:      make([]float64, outChannels),
		gradWeights: make([]float64, outChannels*kernel),
		gradBiases:  make([]float64, outChannels),
		output:      make([]float64, cfg.OutputPixels()*outChannels),
		rowGrad:     make([]float64, cfg.OutputPixels()*kernel),
		gradIn:      make([]float64, cfg.InputSize()),
		backend:     b,
	}
	rng := NewRNG(42)
	scale := math.Sqrt(2 / float64(kernel))
	for i := range c.weights {
		c.weights[i] = rng.RandFloat()*2*scale - scale
	}
	return c
}

// Config returns the layer geometry.
func (c *Conv2D) Config() conv.Config { return c.cfg }

// OutChannels returns the number of output channels.
func (c *Conv2D) OutChannels() int { return c.outChannels }

// OutSize returns the flat output length.
func (c *Conv2D) OutSize() int { return c.cfg.OutputPixels() * c.outChannels }

// Calc computes the convolution output, channel-interleaved.
func (c *Conv2D) Calc(x []float64) []float64 {
	mat := c.lowering.Gather(x)
	rows, cols := c.lowering.Rows(), c.lowering.Cols()
	// Preload the bias into every output row, then accumulate the multiply.
	for r := 0; r < rows; r++ {
		copy(c.output[r*c.outChannels:(r+1)*c.outChannels], c.biases)
	}
	if c.backend.BLAS() {
		c.backend.Gemm(false, true, mat, rows, cols, c.weights, c.outChannels, cols, 1, c.output)
		return c.output
	}
	for r := 0; r < rows; r++ {
		row := mat[r*cols : (r+1)*cols]
		out := c.output[r*c.outChannels : (r+1)*c.outChannels]
		for oc := 0; oc < c.outChannels; oc++ {
			w := c.weights[oc*cols : (oc+1)*cols]
			sum := 0.0
			for i, v := range row {
				sum += w[i] * v
			}
			out[oc] += sum
		}
	}
	return c.output
}

// Forward computes the convolution. Backward receives the input and
// regathers the receptive fields itself, so no extra state is recorded.
func (c *Conv2D) Forward(x []float64) []float64 { return c.Calc(x) }

// Backward accumulates weight and bias gradients over all output rows and
// scatter-adds the per-row input gradients back through the lowering.
func (c *Conv2D) Backward(x, grad []float64) []float64 {
	if len(grad) != c.OutSize() {
		panic(fmt.Sprintf("conv2d: gradient length %d, layer wants %d", len(grad), c.OutSize()))
	}
	mat := c.lowering.Gather(x)
	rows, cols := c.lowering.Rows(), c.lowering.Cols()

	// gradWeights[oc] += sum over rows of grad[row, oc] * matrixRow;
	// rowGrad[row] = sum over oc of grad[row, oc] * weights[oc].
	if c.backend.BLAS() {
		c.backend.Gemm(true, false, grad, rows, c.outChannels, mat, rows, cols, 1, c.gradWeights)
		c.backend.Gemm(false, false, grad, rows, c.outChannels, c.weights, c.outChannels, cols, 0, c.rowGrad)
	} else {
		for r := 0; r < rows; r++ {
			row := mat[r*cols : (r+1)*cols]
			acc := c.rowGrad[r*cols : (r+1)*cols]
			zero(acc)
			for oc := 0; oc < c.outChannels; oc++ {
				g := grad[r*c.outChannels+oc]
				if g == 0 {
					continue
				}
				w := c.weights[oc*cols : (oc+1)*cols]
				gw := c.gradWeights[oc*cols : (oc+1)*cols]
				for i := range w {
					gw[i] += g * row[i]
					acc[i] += g * w[i]
				}
			}
		}
	}
	for r := 0; r < rows; r++ {
		for oc := 0; oc < c.outChannels; oc++ {
			c.gradBiases[oc] += grad[r*c.outChannels+oc]
		}
	}

	zero(c.gradIn)
	c.lowering.ScatterAdd(c.rowGrad, c.gradIn)
	return c.gradIn
}

// Params returns weights then biases as one flat view.
func (c *Conv2D) Params() []float64 {
	params := make([]float64, 0, len(c.weights)+len(c.biases))
	params = append(params, c.weights...)
	params = append(params, c.biases...)
	return params
}

// SetParams overwrites weights and biases and zeroes the gradient
// accumulators.
func (c *Conv2D) SetParams(p []float64) {
	if len(p) != len(c.weights)+len(c.biases) {
		panic(fmt.Sprintf("conv2d: parameter vector length %d, layer has %d", len(p), len(c.weights)+len(c.biases)))
	}
	copy(c.weights, p[:len(c.weights)])
	copy(c.biases, p[len(c.weights):])
	zero(c.gradWeights)
	zero(c.gradBiases)
}

// Gradients returns the accumulated weight then bias gradients.
func (c *Conv2D) Gradients() []float64 {
	grads := make([]float64, 0, len(c.gradWeights)+len(c.gradBiases))
	grads = append(grads, c.gradWeights...)
	grads = append(grads, c.gradBiases...)
	return grads
}

// SetWeights overwrites the kernel weights directly. Intended for tests and
// hand-built networks.
func (c *Conv2D) SetWeights(w []float64) {
	if len(w) != len(c.weights) {
		panic(fmt.Sprintf("conv2d: weight length %d, layer has %d", len(w), len(c.weights)))
	}
	copy(c.weights, w)
}
