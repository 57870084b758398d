// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import "math"

// DenseView is a small square dense matrix over borrowed storage, with an
// in-place LU factorization. The solver carves these views out of the
// memory of banded matrices that are about to be re-factorized anyway, so
// a view never owns its buffers.
type DenseView struct {
	N     int       // matrix dimension
	Data  []float64 // [N*N] row-major, borrowed
	Pivot []int     // [N] borrowed
}

// NewDenseView returns a view of dimension n over the given buffers
func NewDenseView(n int, data []float64, pivot []int) DenseView {
	return DenseView{N: n, Data: data[:n*n], Pivot: pivot[:n]}
}

// At returns element (i,j)
func (o *DenseView) At(i, j int) float64 { return o.Data[i*o.N+j] }

// Set assigns element (i,j)
func (o *DenseView) Set(i, j int, val float64) { o.Data[i*o.N+j] = val }

// Add accumulates val onto element (i,j)
func (o *DenseView) Add(i, j int, val float64) { o.Data[i*o.N+j] += val }

// SetAll sets all entries to val
func (o *DenseView) SetAll(val float64) {
	for i := range o.Data {
		o.Data[i] = val
	}
}

// Factorize computes the in-place LU factorization with partial pivoting.
// Returns false on a zero pivot.
func (o *DenseView) Factorize() bool {
	n := o.N
	for k := 0; k < n; k++ {
		p := k
		pmax := math.Abs(o.Data[k*n+k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(o.Data[i*n+k]); v > pmax {
				pmax, p = v, i
			}
		}
		if pmax == 0 {
			return false
		}
		o.Pivot[k] = p
		if p != k {
			for j := 0; j < n; j++ {
				o.Data[k*n+j], o.Data[p*n+j] = o.Data[p*n+j], o.Data[k*n+j]
			}
		}
		piv := o.Data[k*n+k]
		for i := k + 1; i < n; i++ {
			m := o.Data[i*n+k] / piv
			o.Data[i*n+k] = m
			for j := k + 1; j < n; j++ {
				o.Data[i*n+j] -= m * o.Data[k*n+j]
			}
		}
	}
	return true
}

// Solve solves A*x = b in place on b, using the factorization
func (o *DenseView) Solve(b []float64) bool {
	n := o.N
	for k := 0; k < n; k++ {
		if p := o.Pivot[k]; p != k {
			b[k], b[p] = b[p], b[k]
		}
		for i := k + 1; i < n; i++ {
			b[i] -= o.Data[i*n+k] * b[k]
		}
	}
	for k := n - 1; k >= 0; k-- {
		sum := b[k]
		for j := k + 1; j < n; j++ {
			sum -= o.Data[k*n+j] * b[j]
		}
		d := o.Data[k*n+k]
		if d == 0 {
			return false
		}
		b[k] = sum / d
	}
	return true
}

// MultiplyVector computes y = alpha*A*x + beta*y (non-factorized contents)
func (o *DenseView) MultiplyVector(alpha, beta float64, x, y []float64) {
	n := o.N
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += o.Data[i*n+j] * x[j]
		}
		y[i] = alpha*sum + beta*y[i]
	}
}
