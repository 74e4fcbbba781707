package backend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func randSlice(n int, seed uint64) []float64 {
	out := make([]float64, n)
	state := seed
	for i := range out {
		state += 0x9e3779b97f4a7c15
		z := state
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		out[i] = float64((z^(z>>31))>>11)/(1<<53)*2 - 1
	}
	return out
}

func TestCapabilities(t *testing.T) {
	b := Detect()
	caps := b.Capabilities()
	require.NotEmpty(t, caps.String())
	require.Equal(t, caps.Vector, caps.BLAS)

	require.True(t, WithBLAS(true).BLAS())
	require.False(t, WithBLAS(false).BLAS())
}

func TestMatVecPathsAgree(t *testing.T) {
	fast := WithBLAS(true)
	slow := WithBLAS(false)

	const rows, cols = 7, 5
	a := randSlice(rows*cols, 1)
	x := randSlice(cols, 2)

	y1 := randSlice(rows, 3)
	y2 := make([]float64, rows)
	copy(y2, y1)

	fast.MatVec(a, rows, cols, x, y1, true)
	slow.MatVec(a, rows, cols, x, y2, true)
	for i := range y1 {
		require.InDelta(t, y1[i], y2[i], 1e-12)
	}

	fast.MatVec(a, rows, cols, x, y1, false)
	slow.MatVec(a, rows, cols, x, y2, false)
	for i := range y1 {
		require.InDelta(t, y1[i], y2[i], 1e-12)
	}
}

func TestMatTVecPathsAgree(t *testing.T) {
	fast := WithBLAS(true)
	slow := WithBLAS(false)

	const rows, cols = 6, 9
	a := randSlice(rows*cols, 4)
	x := randSlice(rows, 5)

	y1 := make([]float64, cols)
	y2 := make([]float64, cols)
	fast.MatTVec(a, rows, cols, x, y1, false)
	slow.MatTVec(a, rows, cols, x, y2, false)
	for i := range y1 {
		require.InDelta(t, y1[i], y2[i], 1e-12)
	}
}

func TestRankOnePathsAgree(t *testing.T) {
	fast := WithBLAS(true)
	slow := WithBLAS(false)

	const rows, cols = 4, 6
	x := randSlice(rows, 6)
	y := randSlice(cols, 7)

	a1 := randSlice(rows*cols, 8)
	a2 := make([]float64, rows*cols)
	copy(a2, a1)

	fast.RankOne(a1, rows, cols, x, y)
	slow.RankOne(a2, rows, cols, x, y)
	for i := range a1 {
		require.InDelta(t, a1[i], a2[i], 1e-12)
	}
}

func TestGemmPathsAgree(t *testing.T) {
	fast := WithBLAS(true)
	slow := WithBLAS(false)

	const m, k, n = 5, 7, 4
	a := randSlice(m*k, 9)
	bmat := randSlice(k*n, 10)

	cases := []struct {
		name           string
		transA, transB bool
		ar, ac, br, bc int
	}{
		{"plain", false, false, m, k, k, n},
		{"transA", true, false, k, m, k, n},
		{"transB", false, true, m, k, n, k},
		{"both", true, true, k, m, n, k},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c1 := randSlice(m*n, 11)
			c2 := make([]float64, m*n)
			copy(c2, c1)
			fast.Gemm(tc.transA, tc.transB, a, tc.ar, tc.ac, bmat, tc.br, tc.bc, 1, c1)
			slow.Gemm(tc.transA, tc.transB, a, tc.ar, tc.ac, bmat, tc.br, tc.bc, 1, c2)
			for i := range c1 {
				require.InDelta(t, c1[i], c2[i], 1e-12)
			}
		})
	}
}

func TestShapeMismatchPanics(t *testing.T) {
	b := WithBLAS(false)
	require.Panics(t, func() {
		b.MatVec(make([]float64, 6), 2, 3, make([]float64, 2), make([]float64, 2), false)
	})
	require.Panics(t, func() {
		b.Gemm(false, false, make([]float64, 6), 2, 3, make([]float64, 6), 2, 3, 0, make([]float64, 4))
	})
}
