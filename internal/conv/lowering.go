package conv

import "fmt"

// Lowering owns the scratch state for one layer instance: the convolution
// matrix the forward gather fills (one row per output pixel, each row a
// flattened receptive field) and, when padding is in play, the zero-padded
// backing buffer the backward scatter accumulates into before cropping.
//
// Shapes are invariant for a given Config, so both buffers are allocated
// once and reused across calls. A Lowering is owned by a single layer
// instance and is not safe for concurrent use.
type Lowering struct {
	cfg    Config
	fields []FieldRow
	matrix []float64 // OutputPixels × KernelSize, row-major
	padded []float64 // PaddedSize gradient scratch, lazily allocated
}

// NewLowering builds the lowering state for a config. The receptive-field
// descriptors come from the shared memoized cache.
func NewLowering(cfg Config) *Lowering {
	cfg.Validate()
	return &Lowering{
		cfg:    cfg,
		fields: FieldRows(cfg),
		matrix: make([]float64, cfg.OutputPixels()*cfg.KernelSize()),
	}
}

// Config returns the geometry this lowering was built for.
func (l *Lowering) Config() Config { return l.cfg }

// Matrix returns the convolution matrix filled by the last Gather.
func (l *Lowering) Matrix() []float64 { return l.matrix }

// Rows returns the convolution-matrix row count (output pixels).
func (l *Lowering) Rows() int { return l.cfg.OutputPixels() }

// Cols returns the convolution-matrix column count (receptive-field length).
func (l *Lowering) Cols() int { return l.cfg.KernelSize() }

// Gather performs the im2col forward step: every output pixel's receptive
// field is copied into one row of the convolution matrix. Boundary-clipped
// descriptors copy only their valid sub-range; the clipped cells were zeroed
// at allocation and are never written, so they stay zero across calls.
func (l *Lowering) Gather(input []float64) []float64 {
	if len(input) != l.cfg.InputSize() {
		panic(fmt.Sprintf("conv: gather input length %d, geometry wants %d", len(input), l.cfg.InputSize()))
	}
	cols := l.Cols()
	for _, f := range l.fields {
		dst := f.Row*cols + f.Col + f.Skip
		copy(l.matrix[dst:dst+f.Len], input[f.Src:f.Src+f.Len])
	}
	return l.matrix
}

// ScatterAdd performs the adjoint of Gather: each row of rowGrad (same shape
// as the convolution matrix) is routed back to the receptive-field location
// it was gathered from, accumulating where fields overlap. Contributions to
// padding positions are collected in the padded backing buffer and discarded
// by the crop; dst must be pre-zeroed by the caller and receives the
// gradient with respect to the true input, added in place.
func (l *Lowering) ScatterAdd(rowGrad, dst []float64) {
	if len(rowGrad) != len(l.matrix) {
		panic(fmt.Sprintf("conv: scatter rowGrad length %d, matrix is %d", len(rowGrad), len(l.matrix)))
	}
	if len(dst) != l.cfg.InputSize() {
		panic(fmt.Sprintf("conv: scatter dst length %d, geometry wants %d", len(dst), l.cfg.InputSize()))
	}
	cols := l.Cols()
	if l.cfg.PadX == 0 && l.cfg.PadY == 0 {
		// No padding: every kernel row lands fully inside the input.
		for _, f := range l.fields {
			src := f.Row*cols + f.Col
			row := rowGrad[src : src+f.Len]
			out := dst[f.Src : f.Src+f.Len]
			for i, v := range row {
				out[i] += v
			}
		}
		return
	}
	if l.padded == nil {
		l.padded = make([]float64, l.cfg.PaddedSize())
	} else {
		for i := range l.padded {
			l.padded[i] = 0
		}
	}
	rowSize := l.cfg.KernelRowSize()
	for _, f := range l.fields {
		src := f.Row*cols + f.Col
		row := rowGrad[src : src+rowSize]
		out := l.padded[f.Pad : f.Pad+rowSize]
		for i, v := range row {
			out[i] += v
		}
	}
	l.crop(dst)
}

// crop adds the interior of the padded gradient buffer back onto the true
// input shape, undoing the padding step.
func (l *Lowering) crop(dst []float64) {
	ch := l.cfg.Channels
	rowLen := l.cfg.Width * ch
	for y := 0; y < l.cfg.Height; y++ {
		src := ((y+l.cfg.PadY)*l.cfg.PaddedWidth() + l.cfg.PadX) * ch
		out := dst[y*rowLen : (y+1)*rowLen]
		row := l.padded[src : src+rowLen]
		for i, v := range row {
			out[i] += v
		}
	}
}
