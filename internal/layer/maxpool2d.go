package layer

import (
	"fmt"

	"github.com/astoeckley/cortex/internal/conv"
)

// MaxPool2D implements 2D max pooling over channel-interleaved input.
// Forward records the argmax index of every output position; Backward
// routes each output gradient additively to exactly that position.
//
// Ties break toward the first-scanned offset (strict greater-than).
// The first kernel offset's value seeds the running maximum unconditionally,
// reading zero when that offset lies in the padding: this mirrors the
// historical behavior of the engine this design derives from, so an
// all-negative window under padding pools to 0 with no argmax rather than
// to its largest (negative) element. Kept as-is deliberately; see DESIGN.md.
type MaxPool2D struct {
	noParams
	cfg conv.Config

	output []float64
	argmax []int
	gradIn []float64
}

// NewMaxPool2D creates a max-pooling layer for the given geometry. The
// kernel fields of the config describe the pooling window.
func NewMaxPool2D(cfg conv.Config) *MaxPool2D {
	cfg.Validate()
	outSize := cfg.OutputPixels() * cfg.Channels
	return &MaxPool2D{
		cfg:    cfg,
		output: make([]float64, outSize),
		argmax: make([]int, outSize),
		gradIn: make([]float64, cfg.InputSize()),
	}
}

// Config returns the layer geometry.
func (m *MaxPool2D) Config() conv.Config { return m.cfg }

// OutSize returns the flat output length.
func (m *MaxPool2D) OutSize() int { return m.cfg.OutputPixels() * m.cfg.Channels }

// Calc computes the pooled output without recording argmax indices.
func (m *MaxPool2D) Calc(x []float64) []float64 {
	m.pool(x, false)
	return m.output
}

// Forward computes the pooled output and records the argmax indices.
func (m *MaxPool2D) Forward(x []float64) []float64 {
	m.pool(x, true)
	return m.output
}

func (m *MaxPool2D) pool(x []float64, record bool) {
	if len(x) != m.cfg.InputSize() {
		panic(fmt.Sprintf("maxpool2d: input length %d, geometry wants %d", len(x), m.cfg.InputSize()))
	}
	cfg := m.cfg
	outW, outH := cfg.OutWidth(), cfg.OutHeight()
	ch := cfg.Channels
	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			out := (oy*outW + ox) * ch
			for c := 0; c < ch; c++ {
				maxVal := 0.0
				maxIdx := -1
				first := true
				for kh := 0; kh < cfg.KernelHeight; kh++ {
					iy := oy*cfg.StrideY + kh - cfg.PadY
					for kw := 0; kw < cfg.KernelWidth; kw++ {
						ix := ox*cfg.StrideX + kw - cfg.PadX
						valid := iy >= 0 && iy < cfg.Height && ix >= 0 && ix < cfg.Width
						if first {
							// Unconditional seed: an invalid first offset
							// contributes the padding value, zero.
							first = false
							if valid {
								maxIdx = (iy*cfg.Width+ix)*ch + c
								maxVal = x[maxIdx]
							} else {
								maxVal = 0
							}
							continue
						}
						if !valid {
							continue
						}
						idx := (iy*cfg.Width+ix)*ch + c
						if x[idx] > maxVal {
							maxVal = x[idx]
							maxIdx = idx
						}
					}
				}
				m.output[out+c] = maxVal
				if record {
					m.argmax[out+c] = maxIdx
				}
			}
		}
	}
}

// Backward zeroes the input gradient and routes each output gradient to the
// recorded argmax position. Positions never selected receive zero.
func (m *MaxPool2D) Backward(x, grad []float64) []float64 {
	if len(grad) != m.OutSize() {
		panic(fmt.Sprintf("maxpool2d: gradient length %d, layer wants %d", len(grad), m.OutSize()))
	}
	zero(m.gradIn)
	for i, g := range grad {
		if idx := m.argmax[i]; idx >= 0 {
			m.gradIn[idx] += g
		}
	}
	return m.gradIn
}

// Argmax returns the indices recorded by the last Forward.
func (m *MaxPool2D) Argmax() []int { return m.argmax }
