// Package backend adapts the dense-array substrate used by the layers.
//
// Every matrix primitive comes in two flavours: an accelerated path backed
// by gonum's blas64 kernels, and a plain nested-loop fallback. The two are
// numerically equivalent up to floating-point rounding; which one runs is a
// capability decision made once at construction and is invisible to callers.
package backend

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// Capabilities describes what the detected hardware offers.
type Capabilities struct {
	Vendor string
	Brand  string
	// Vector reports whether the CPU exposes SIMD units (AVX on amd64,
	// ASIMD/NEON on arm64). The BLAS kernels only pay off with them.
	Vector bool
	// BLAS reports whether the accelerated matrix path is engaged.
	BLAS bool
}

func (c Capabilities) String() string {
	return fmt.Sprintf("vendor=%s vector=%v blas=%v", c.Vendor, c.Vector, c.BLAS)
}

// Backend executes the matrix primitives the layers need.
type Backend struct {
	caps Capabilities
}

// Detect probes the CPU and returns a backend with the accelerated path
// enabled when vector units are present.
func Detect() *Backend {
	vector := cpuid.CPU.Supports(cpuid.AVX) ||
		cpuid.CPU.Supports(cpuid.ASIMD) ||
		cpuid.CPU.Supports(cpuid.SSE2)
	return &Backend{caps: Capabilities{
		Vendor: cpuid.CPU.VendorID.String(),
		Brand:  cpuid.CPU.BrandName,
		Vector: vector,
		BLAS:   vector,
	}}
}

// WithBLAS returns a backend with the accelerated path forced on or off.
// Used by tests to verify the two paths agree; both are always correct.
func WithBLAS(enabled bool) *Backend {
	b := Detect()
	b.caps.BLAS = enabled
	return b
}

// Capabilities returns what was detected at construction.
func (b *Backend) Capabilities() Capabilities { return b.caps }

// BLAS reports whether the accelerated path is engaged.
func (b *Backend) BLAS() bool { return b.caps.BLAS }

// MatVec computes y = A·x (or y += A·x when accumulate is set) for a
// row-major rows×cols matrix A.
func (b *Backend) MatVec(a []float64, rows, cols int, x, y []float64, accumulate bool) {
	if len(a) != rows*cols || len(x) != cols || len(y) != rows {
		panic(fmt.Sprintf("backend: matvec shape mismatch a=%d rows=%d cols=%d x=%d y=%d",
			len(a), rows, cols, len(x), len(y)))
	}
	if b.caps.BLAS {
		beta := 0.0
		if accumulate {
			beta = 1.0
		}
		blas64.Gemv(blas.NoTrans, 1,
			blas64.General{Rows: rows, Cols: cols, Stride: cols, Data: a},
			blas64.Vector{N: cols, Inc: 1, Data: x},
			beta,
			blas64.Vector{N: rows, Inc: 1, Data: y})
		return
	}
	for r := 0; r < rows; r++ {
		sum := 0.0
		base := r * cols
		for c := 0; c < cols; c++ {
			sum += a[base+c] * x[c]
		}
		if accumulate {
			y[r] += sum
		} else {
			y[r] = sum
		}
	}
}

// MatTVec computes y = Aᵀ·x (or y += Aᵀ·x) for a row-major rows×cols matrix A.
func (b *Backend) MatTVec(a []float64, rows, cols int, x, y []float64, accumulate bool) {
	if len(a) != rows*cols || len(x) != rows || len(y) != cols {
		panic(fmt.Sprintf("backend: mattvec shape mismatch a=%d rows=%d cols=%d x=%d y=%d",
			len(a), rows, cols, len(x), len(y)))
	}
	if b.caps.BLAS {
		beta := 0.0
		if accumulate {
			beta = 1.0
		}
		blas64.Gemv(blas.Trans, 1,
			blas64.General{Rows: rows, Cols: cols, Stride: cols, Data: a},
			blas64.Vector{N: rows, Inc: 1, Data: x},
			beta,
			blas64.Vector{N: cols, Inc: 1, Data: y})
		return
	}
	if !accumulate {
		for c := range y {
			y[c] = 0
		}
	}
	for r := 0; r < rows; r++ {
		xr := x[r]
		base := r * cols
		for c := 0; c < cols; c++ {
			y[c] += a[base+c] * xr
		}
	}
}

// RankOne accumulates the outer product A += x·yᵀ into a row-major
// rows×cols matrix A, with len(x)=rows and len(y)=cols.
func (b *Backend) RankOne(a []float64, rows, cols int, x, y []float64) {
	if len(a) != rows*cols || len(x) != rows || len(y) != cols {
		panic(fmt.Sprintf("backend: rankone shape mismatch a=%d rows=%d cols=%d x=%d y=%d",
			len(a), rows, cols, len(x), len(y)))
	}
	if b.caps.BLAS {
		blas64.Ger(1,
			blas64.Vector{N: rows, Inc: 1, Data: x},
			blas64.Vector{N: cols, Inc: 1, Data: y},
			blas64.General{Rows: rows, Cols: cols, Stride: cols, Data: a})
		return
	}
	for r := 0; r < rows; r++ {
		xr := x[r]
		base := r * cols
		for c := 0; c < cols; c++ {
			a[base+c] += xr * y[c]
		}
	}
}

// Gemm computes C = op(A)·op(B) + beta·C where op transposes when the
// corresponding flag is set. A is stored row-major as ar×ac, B as br×bc;
// C must match the resulting op(A)rows × op(B)cols shape.
func (b *Backend) Gemm(transA, transB bool, a []float64, ar, ac int, bm []float64, br, bc int, beta float64, c []float64) {
	m, ka := ar, ac
	if transA {
		m, ka = ac, ar
	}
	kb, n := br, bc
	if transB {
		kb, n = bc, br
	}
	if ka != kb {
		panic(fmt.Sprintf("backend: gemm inner dimension mismatch %d vs %d", ka, kb))
	}
	if len(a) != ar*ac || len(bm) != br*bc || len(c) != m*n {
		panic(fmt.Sprintf("backend: gemm shape mismatch a=%d b=%d c=%d", len(a), len(bm), len(c)))
	}
	if b.caps.BLAS {
		ta, tb := blas.NoTrans, blas.NoTrans
		if transA {
			ta = blas.Trans
		}
		if transB {
			tb = blas.Trans
		}
		blas64.Gemm(ta, tb, 1,
			blas64.General{Rows: ar, Cols: ac, Stride: ac, Data: a},
			blas64.General{Rows: br, Cols: bc, Stride: bc, Data: bm},
			beta,
			blas64.General{Rows: m, Cols: n, Stride: n, Data: c})
		return
	}
	at := func(i, k int) float64 {
		if transA {
			return a[k*ac+i]
		}
		return a[i*ac+k]
	}
	bt := func(k, j int) float64 {
		if transB {
			return bm[j*bc+k]
		}
		return bm[k*bc+j]
	}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := 0; k < ka; k++ {
				sum += at(i, k) * bt(k, j)
			}
			c[i*n+j] = sum + beta*c[i*n+j]
		}
	}
}
