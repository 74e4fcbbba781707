// Package conv implements the lowering that turns a strided, padded,
// multi-channel 2D convolution into a flat matrix multiply (im2col), and
// the exact adjoint of that lowering for gradient backpropagation.
//
// Data layout is channel-interleaved: element (y, x, c) of an image lives at
// (y*width + x)*channels + c. This matches the flat vector layout the affine
// layer consumes, so convolutional and affine layers compose directly.
package conv

import (
	"fmt"
	"sync"
)

// Config describes the geometry of one convolution or pooling layer.
// It is immutable after construction and comparable, so it doubles as the
// key for the memoized receptive-field descriptors.
type Config struct {
	Width, Height             int
	KernelWidth, KernelHeight int
	PadX, PadY                int
	StrideX, StrideY          int
	Channels                  int
}

// Validate panics when the geometry is not realizable.
func (c Config) Validate() {
	if c.Width <= 0 || c.Height <= 0 || c.Channels <= 0 {
		panic(fmt.Sprintf("conv: invalid input dims %dx%dx%d", c.Width, c.Height, c.Channels))
	}
	if c.KernelWidth <= 0 || c.KernelHeight <= 0 {
		panic(fmt.Sprintf("conv: invalid kernel %dx%d", c.KernelWidth, c.KernelHeight))
	}
	if c.StrideX <= 0 || c.StrideY <= 0 {
		panic(fmt.Sprintf("conv: invalid stride %dx%d", c.StrideX, c.StrideY))
	}
	if c.PadX < 0 || c.PadY < 0 {
		panic(fmt.Sprintf("conv: invalid padding %dx%d", c.PadX, c.PadY))
	}
	if c.OutWidth() <= 0 || c.OutHeight() <= 0 {
		panic(fmt.Sprintf("conv: kernel %dx%d does not fit input %dx%d pad %dx%d",
			c.KernelWidth, c.KernelHeight, c.Width, c.Height, c.PadX, c.PadY))
	}
}

// outputDim is the shared per-axis formula: floor((dim + 2*pad - kernel)/stride) + 1.
func outputDim(dim, kernel, pad, stride int) int {
	return (dim+2*pad-kernel)/stride + 1
}

// OutWidth returns the output width in pixels.
func (c Config) OutWidth() int { return outputDim(c.Width, c.KernelWidth, c.PadX, c.StrideX) }

// OutHeight returns the output height in pixels.
func (c Config) OutHeight() int { return outputDim(c.Height, c.KernelHeight, c.PadY, c.StrideY) }

// InputSize returns the flat input length: width*height*channels.
func (c Config) InputSize() int { return c.Width * c.Height * c.Channels }

// OutputPixels returns the number of output positions (rows of the
// convolution matrix).
func (c Config) OutputPixels() int { return c.OutWidth() * c.OutHeight() }

// KernelRowSize returns the width of one kernel row in the convolution
// matrix: kernelWidth*channels.
func (c Config) KernelRowSize() int { return c.KernelWidth * c.Channels }

// KernelSize returns the full receptive-field length:
// kernelHeight*kernelWidth*channels (columns of the convolution matrix).
func (c Config) KernelSize() int { return c.KernelHeight * c.KernelRowSize() }

// PaddedWidth returns the width of the zero-padded image.
func (c Config) PaddedWidth() int { return c.Width + 2*c.PadX }

// PaddedHeight returns the height of the zero-padded image.
func (c Config) PaddedHeight() int { return c.Height + 2*c.PadY }

// PaddedSize returns the flat length of the zero-padded image.
func (c Config) PaddedSize() int { return c.PaddedWidth() * c.PaddedHeight() * c.Channels }

// FieldRow maps one kernel row of one output pixel onto the input. Src, Col
// and Len are clip-adjusted: they cover only the part of the kernel row that
// overlaps the true input, so a gather never reads out of bounds and the
// clipped convolution-matrix cells stay zero.
type FieldRow struct {
	Row  int // convolution-matrix row (output pixel index, row-major)
	Col  int // column of the kernel row's first element in that matrix row
	Skip int // leading elements clipped away at the left edge
	Src  int // flat input offset of the first valid element
	Pad  int // flat padded-buffer offset of the kernel row's first element
	Len  int // valid element count (clipped kernel width × channels)
}

// fieldRows generates the full descriptor sequence for a config. Kernel rows
// that fall entirely outside the input (pure padding) contribute nothing and
// are pruned here rather than tested on every call.
func fieldRows(c Config) []FieldRow {
	c.Validate()
	outW, outH := c.OutWidth(), c.OutHeight()
	rowSize := c.KernelRowSize()
	rows := make([]FieldRow, 0, outW*outH*c.KernelHeight)
	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			row := oy*outW + ox
			x0 := ox*c.StrideX - c.PadX // leftmost kernel column, input coords
			clipLo := 0
			if x0 < 0 {
				clipLo = -x0
			}
			clipHi := c.KernelWidth
			if x0+clipHi > c.Width {
				clipHi = c.Width - x0
			}
			if clipHi <= clipLo {
				continue
			}
			for k := 0; k < c.KernelHeight; k++ {
				iy := oy*c.StrideY + k - c.PadY
				if iy < 0 || iy >= c.Height {
					continue
				}
				rows = append(rows, FieldRow{
					Row:  row,
					Col:  k * rowSize,
					Skip: clipLo * c.Channels,
					Src:  (iy*c.Width + x0 + clipLo) * c.Channels,
					Pad:  ((iy+c.PadY)*c.PaddedWidth() + ox*c.StrideX) * c.Channels,
					Len:  (clipHi - clipLo) * c.Channels,
				})
			}
		}
	}
	return rows
}

// fieldCache memoizes descriptor sequences by config value. The sequence is
// a pure function of the config, so instances with identical geometry share
// one copy. Callers must treat the returned slice as read-only.
var fieldCache = struct {
	mu sync.Mutex
	m  map[Config][]FieldRow
}{m: make(map[Config][]FieldRow)}

// FieldRows returns the memoized receptive-field descriptors for a config.
func FieldRows(c Config) []FieldRow {
	fieldCache.mu.Lock()
	defer fieldCache.mu.Unlock()
	if rows, ok := fieldCache.m[c]; ok {
		return rows
	}
	rows := fieldRows(c)
	fieldCache.m[c] = rows
	return rows
}
