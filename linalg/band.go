// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package linalg implements the dense, banded, and sparse matrix kernels
// used by the column solver
package linalg

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// BandMatrix stores a square banded matrix in packed form. Row i occupies
// the slice Data[i*ld : (i+1)*ld] and covers the columns j with
// i-kl <= j <= i+ku; the element (i,j) sits at Data[i*ld + kl + j - i],
// i.e. the main diagonal of every row is at offset kl within the packed row.
// This layout makes a row iterator a simple pointer walk.
type BandMatrix struct {
	N    int       // matrix dimension
	Kl   int       // lower bandwidth
	Ku   int       // upper bandwidth
	Data []float64 // [N*(Kl+Ku+1)] packed band
}

// Init (re)allocates the matrix for the given dimension and bandwidths
func (o *BandMatrix) Init(n, kl, ku int) {
	if n < 1 || kl < 0 || ku < 0 {
		chk.Panic("band matrix: invalid sizes. n=%d kl=%d ku=%d", n, kl, ku)
	}
	o.N, o.Kl, o.Ku = n, kl, ku
	o.Data = make([]float64, n*(kl+ku+1))
}

// Ld returns the packed row length
func (o *BandMatrix) Ld() int { return o.Kl + o.Ku + 1 }

// SetAll sets all entries within the band to val
func (o *BandMatrix) SetAll(val float64) {
	for i := range o.Data {
		o.Data[i] = val
	}
}

// At returns element (i,j). Elements outside the band are zero.
func (o *BandMatrix) At(i, j int) float64 {
	if j < i-o.Kl || j > i+o.Ku {
		return 0
	}
	return o.Data[i*o.Ld()+o.Kl+j-i]
}

// Set assigns element (i,j), which must lie within the band
func (o *BandMatrix) Set(i, j int, val float64) {
	if j < i-o.Kl || j > i+o.Ku {
		chk.Panic("band matrix: element (%d,%d) is outside the band (kl=%d,ku=%d)", i, j, o.Kl, o.Ku)
	}
	o.Data[i*o.Ld()+o.Kl+j-i] = val
}

// Row returns an iterator positioned at row i
func (o *BandMatrix) Row(i int) RowIterator {
	return RowIterator{data: o.Data, ld: o.Ld(), diag: o.Kl, lo: -o.Kl, hi: o.Ku, row: i}
}

// MultiplyVector computes y = alpha*A*x + beta*y
func (o *BandMatrix) MultiplyVector(alpha, beta float64, x, y []float64) {
	ld := o.Ld()
	for i := 0; i < o.N; i++ {
		jlo := i - o.Kl
		if jlo < 0 {
			jlo = 0
		}
		jhi := i + o.Ku
		if jhi > o.N-1 {
			jhi = o.N - 1
		}
		sum := 0.0
		for j := jlo; j <= jhi; j++ {
			sum += o.Data[i*ld+o.Kl+j-i] * x[j]
		}
		y[i] = alpha*sum + beta*y[i]
	}
}

// SubmatrixMultiplyVector computes y = alpha*A[sub]*x + beta*y over the
// rectangular patch with nrows rows starting at rowStart and ncols columns
// starting at diagonal offset diagStart of rowStart (0 = main diagonal of
// rowStart, negative = subdiagonals). Entries of the patch outside the band
// are treated as zero. x has length ncols and y length nrows.
func (o *BandMatrix) SubmatrixMultiplyVector(x []float64, rowStart, diagStart, nrows, ncols int, alpha, beta float64, y []float64) {
	ld := o.Ld()
	for r := 0; r < nrows; r++ {
		i := rowStart + r
		sum := 0.0
		for c := 0; c < ncols; c++ {
			d := diagStart + c - r // diagonal offset of column c in row i
			if d < -o.Kl || d > o.Ku {
				continue
			}
			sum += o.Data[i*ld+o.Kl+d] * x[c]
		}
		y[r] = alpha*sum + beta*y[r]
	}
}

// CopySubmatrixToDense copies the rectangular patch (same addressing as
// SubmatrixMultiplyVector) into the row-major dense buffer out
func (o *BandMatrix) CopySubmatrixToDense(out []float64, rowStart, diagStart, nrows, ncols int) {
	ld := o.Ld()
	for r := 0; r < nrows; r++ {
		i := rowStart + r
		for c := 0; c < ncols; c++ {
			d := diagStart + c - r
			if d < -o.Kl || d > o.Ku {
				out[r*ncols+c] = 0
				continue
			}
			out[r*ncols+c] = o.Data[i*ld+o.Kl+d]
		}
	}
}

// Print outputs the matrix (for debugging)
func (o *BandMatrix) Print(numfmt string) {
	if numfmt == "" {
		numfmt = "%13.6g"
	}
	for i := 0; i < o.N; i++ {
		for j := 0; j < o.N; j++ {
			io.Pf(numfmt, o.At(i, j))
		}
		io.Pf("\n")
	}
}

// FactorizableBandMatrix is a banded matrix with extra superdiagonal storage
// for the fill-in generated by an in-place LU factorization with partial
// pivoting. Before factorization the matrix behaves like a BandMatrix with
// bandwidths (Kl, Ku); the factorization widens the upper bandwidth to
// Kl+Ku. The pivot sequence is kept in Pivot.
type FactorizableBandMatrix struct {
	N     int       // matrix dimension
	Kl    int       // lower bandwidth
	Ku    int       // upper bandwidth (before factorization)
	Data  []float64 // [N*(2*Kl+Ku+1)] packed band incl. fill-in space
	Pivot []int     // [N] row permutation from the factorization
}

// Init (re)allocates the matrix for the given dimension and bandwidths
func (o *FactorizableBandMatrix) Init(n, kl, ku int) {
	if n < 1 || kl < 0 || ku < 0 {
		chk.Panic("factorizable band matrix: invalid sizes. n=%d kl=%d ku=%d", n, kl, ku)
	}
	o.N, o.Kl, o.Ku = n, kl, ku
	o.Data = make([]float64, n*(2*kl+ku+1))
	o.Pivot = make([]int, n)
}

// Ld returns the packed row length (including fill-in columns)
func (o *FactorizableBandMatrix) Ld() int { return 2*o.Kl + o.Ku + 1 }

// kuf is the upper bandwidth after factorization
func (o *FactorizableBandMatrix) kuf() int { return o.Kl + o.Ku }

// SetAll sets all entries (including fill-in storage) to val
func (o *FactorizableBandMatrix) SetAll(val float64) {
	for i := range o.Data {
		o.Data[i] = val
	}
}

// At returns element (i,j) of the (possibly fill-in widened) matrix
func (o *FactorizableBandMatrix) At(i, j int) float64 {
	if j < i-o.Kl || j > i+o.kuf() {
		return 0
	}
	return o.Data[i*o.Ld()+o.Kl+j-i]
}

// Set assigns element (i,j)
func (o *FactorizableBandMatrix) Set(i, j int, val float64) {
	if j < i-o.Kl || j > i+o.kuf() {
		chk.Panic("factorizable band matrix: element (%d,%d) is outside the band", i, j)
	}
	o.Data[i*o.Ld()+o.Kl+j-i] = val
}

// Row returns an iterator positioned at row i. Offset 0 addresses the main
// diagonal; the iterator spans [-Kl, Kl+Ku].
func (o *FactorizableBandMatrix) Row(i int) RowIterator {
	return RowIterator{data: o.Data, ld: o.Ld(), diag: o.Kl, lo: -o.Kl, hi: o.kuf(), row: i}
}

// CopyOver copies the band of bm into this matrix, zeroing the fill-in
// columns. The bandwidths of bm must not exceed (Kl, Ku).
func (o *FactorizableBandMatrix) CopyOver(bm *BandMatrix) {
	if bm.N != o.N || bm.Kl > o.Kl || bm.Ku > o.Ku {
		chk.Panic("copy-over: incompatible band matrices. n=%d/%d kl=%d/%d ku=%d/%d", bm.N, o.N, bm.Kl, o.Kl, bm.Ku, o.Ku)
	}
	ld, lds := o.Ld(), bm.Ld()
	for i := range o.Data {
		o.Data[i] = 0
	}
	for i := 0; i < o.N; i++ {
		for d := -bm.Kl; d <= bm.Ku; d++ {
			o.Data[i*ld+o.Kl+d] = bm.Data[i*lds+bm.Kl+d]
		}
	}
}

// Factorize computes the in-place LU factorization with partial pivoting.
// Returns false on a zero pivot (singular block); the matrix contents are
// then undefined and must be re-assembled before the next attempt.
func (o *FactorizableBandMatrix) Factorize() bool {
	n, kl, kuf, ld := o.N, o.Kl, o.kuf(), o.Ld()
	at := func(i, d int) int { return i*ld + kl + d }
	for k := 0; k < n; k++ {
		// pivot search in column k, rows k..k+kl
		ihi := k + kl
		if ihi > n-1 {
			ihi = n - 1
		}
		p := k
		pmax := math.Abs(o.Data[at(k, 0)])
		for i := k + 1; i <= ihi; i++ {
			v := math.Abs(o.Data[at(i, k-i)])
			if v > pmax {
				pmax, p = v, i
			}
		}
		if pmax == 0 {
			return false
		}
		o.Pivot[k] = p

		// swap active parts of rows k and p (columns k..k+kuf)
		jhi := k + kuf
		if jhi > n-1 {
			jhi = n - 1
		}
		if p != k {
			for j := k; j <= jhi; j++ {
				o.Data[at(k, j-k)], o.Data[at(p, j-p)] = o.Data[at(p, j-p)], o.Data[at(k, j-k)]
			}
		}

		// eliminate column k
		piv := o.Data[at(k, 0)]
		for i := k + 1; i <= ihi; i++ {
			m := o.Data[at(i, k-i)] / piv
			o.Data[at(i, k-i)] = m
			for j := k + 1; j <= jhi; j++ {
				o.Data[at(i, j-i)] -= m * o.Data[at(k, j-k)]
			}
		}
	}
	return true
}

// Solve performs the banded triangular solves against b in place, using the
// factorization computed by Factorize. Returns false if a diagonal entry of
// U vanished.
func (o *FactorizableBandMatrix) Solve(b []float64) bool {
	n, kl, kuf, ld := o.N, o.Kl, o.kuf(), o.Ld()
	at := func(i, d int) int { return i*ld + kl + d }

	// forward substitution with row interchanges: b = L^{-1} P b
	for k := 0; k < n; k++ {
		if p := o.Pivot[k]; p != k {
			b[k], b[p] = b[p], b[k]
		}
		ihi := k + kl
		if ihi > n-1 {
			ihi = n - 1
		}
		for i := k + 1; i <= ihi; i++ {
			b[i] -= o.Data[at(i, k-i)] * b[k]
		}
	}

	// backward substitution: b = U^{-1} b
	for k := n - 1; k >= 0; k-- {
		jhi := k + kuf
		if jhi > n-1 {
			jhi = n - 1
		}
		sum := b[k]
		for j := k + 1; j <= jhi; j++ {
			sum -= o.Data[at(k, j-k)] * b[j]
		}
		d := o.Data[at(k, 0)]
		if d == 0 {
			return false
		}
		b[k] = sum / d
	}
	return true
}

// RowIterator walks the rows of a packed banded matrix. Offset indexing is
// relative to the main diagonal of the current row: At(0) is the diagonal,
// negative offsets address subdiagonals, positive offsets superdiagonals.
type RowIterator struct {
	data   []float64
	ld     int
	diag   int // offset of the diagonal within a packed row
	lo, hi int // valid offset range
	row    int
}

// At returns the entry at diagonal offset d of the current row
func (o *RowIterator) At(d int) float64 { return o.data[o.row*o.ld+o.diag+d] }

// Set assigns the entry at diagonal offset d of the current row
func (o *RowIterator) Set(d int, val float64) { o.data[o.row*o.ld+o.diag+d] = val }

// Add accumulates val onto the entry at diagonal offset d
func (o *RowIterator) Add(d int, val float64) { o.data[o.row*o.ld+o.diag+d] += val }

// Next advances the iterator to the following row
func (o *RowIterator) Next() { o.row++ }

// Advance moves the iterator n rows forward
func (o *RowIterator) Advance(n int) { o.row += n }

// Index returns the current row index
func (o *RowIterator) Index() int { return o.row }

// Span returns the valid offset range of the underlying matrix
func (o *RowIterator) Span() (lo, hi int) { return o.lo, o.hi }

// CopyRowFrom overwrites the current row with the band of the row under
// src, zeroing entries of this row outside the source range
func (o *RowIterator) CopyRowFrom(src *RowIterator) {
	for d := o.lo; d <= o.hi; d++ {
		if d >= src.lo && d <= src.hi {
			o.Set(d, src.At(d))
		} else {
			o.Set(d, 0)
		}
	}
}
