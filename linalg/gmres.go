// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Gmres return codes
const (
	GmresSuccess   = 0 // converged within tolerance
	GmresMaxIter   = 1 // tolerance not met within the iteration budget
	GmresBreakdown = 2 // Krylov basis could not be extended
)

// MatVec is the matrix-free operator callback z = A*x
type MatVec func(x, z []float64)

// Gmres implements restarted GMRES with modified Gram-Schmidt
// orthogonalization for a matrix-free operator. Convergence is measured in
// the weighted 2-norm induced by a user-supplied weight vector; internally
// the iteration runs on the diagonally scaled system
//     (W A W^{-1}) (W x) = W b,   W = diag(w),
// so that plain 2-norms of the scaled quantities coincide with weighted
// norms of the originals. No further preconditioning is applied at this
// layer; the callers' factorized diagonal blocks already act as an implicit
// preconditioner for the Schur operator.
type Gmres struct {
	MaxKrylov   int // maximum Krylov subspace dimension before a restart
	MaxRestarts int // maximum number of restarts

	// operator
	matvec MatVec

	// workspace
	n    int
	vv   [][]float64 // [MaxKrylov+1][n] Krylov basis
	hh   [][]float64 // [MaxKrylov+1][MaxKrylov] Hessenberg matrix
	gcs  []float64   // Givens cosines
	gsn  []float64   // Givens sines
	rs   []float64   // residual norms vector
	xs   []float64   // scaled iterate
	ws   []float64   // scratch for operator input/output
}

// Init allocates the workspace for systems of dimension n
func (o *Gmres) Init(n, maxKrylov, maxRestarts int) {
	if n < 1 {
		chk.Panic("gmres: invalid system dimension n=%d", n)
	}
	if maxKrylov < 1 {
		maxKrylov = n
	}
	if maxKrylov > n {
		maxKrylov = n
	}
	o.n = n
	o.MaxKrylov = maxKrylov
	o.MaxRestarts = maxRestarts
	o.vv = make([][]float64, maxKrylov+1)
	for i := range o.vv {
		o.vv[i] = make([]float64, n)
	}
	o.hh = make([][]float64, maxKrylov+1)
	for i := range o.hh {
		o.hh[i] = make([]float64, maxKrylov)
	}
	o.gcs = make([]float64, maxKrylov)
	o.gsn = make([]float64, maxKrylov)
	o.rs = make([]float64, maxKrylov+1)
	o.xs = make([]float64, n)
	o.ws = make([]float64, n)
}

// SetOperator installs the matrix-free operator callback
func (o *Gmres) SetOperator(fcn MatVec) { o.matvec = fcn }

// scaledMatVec computes z = W A W^{-1} x using the scratch buffer
func (o *Gmres) scaledMatVec(w, x, z []float64) {
	for i := 0; i < o.n; i++ {
		o.ws[i] = x[i] / w[i]
	}
	o.matvec(o.ws, z)
	// the operator may use o.ws as scratch afterwards; only z matters here
	for i := 0; i < o.n; i++ {
		z[i] *= w[i]
	}
}

// Solve solves A*x = b to the given absolute tolerance in the weighted
// 2-norm. On entry x holds the initial guess; on exit the solution.
// Returns one of the Gmres return codes.
func (o *Gmres) Solve(tol float64, w, x, b []float64) (status int) {
	if o.matvec == nil {
		chk.Panic("gmres: operator callback is not set")
	}
	n, m := o.n, o.MaxKrylov

	// scale iterate: xs = W x
	for i := 0; i < n; i++ {
		o.xs[i] = x[i] * w[i]
	}

	for restart := 0; restart <= o.MaxRestarts; restart++ {

		// residual r0 = W b - (W A W^{-1}) xs
		v0 := o.vv[0]
		o.scaledMatVec(w, o.xs, v0)
		for i := 0; i < n; i++ {
			v0[i] = b[i]*w[i] - v0[i]
		}
		beta := norm2(v0)
		if beta <= tol {
			break
		}
		for i := 0; i < n; i++ {
			v0[i] /= beta
		}
		o.rs[0] = beta

		// Arnoldi process with modified Gram-Schmidt
		var k int
		converged := false
		for k = 0; k < m; k++ {
			vk1 := o.vv[k+1]
			o.scaledMatVec(w, o.vv[k], vk1)
			for j := 0; j <= k; j++ {
				h := dot(o.vv[j], vk1)
				o.hh[j][k] = h
				for i := 0; i < n; i++ {
					vk1[i] -= h * o.vv[j][i]
				}
			}
			hk1 := norm2(vk1)
			o.hh[k+1][k] = hk1

			// apply previous Givens rotations to the new column
			for j := 0; j < k; j++ {
				t := o.gcs[j]*o.hh[j][k] + o.gsn[j]*o.hh[j+1][k]
				o.hh[j+1][k] = -o.gsn[j]*o.hh[j][k] + o.gcs[j]*o.hh[j+1][k]
				o.hh[j][k] = t
			}

			// new rotation annihilating hh[k+1][k]
			den := math.Hypot(o.hh[k][k], hk1)
			if den == 0 {
				return GmresBreakdown
			}
			o.gcs[k] = o.hh[k][k] / den
			o.gsn[k] = hk1 / den
			o.hh[k][k] = den
			o.rs[k+1] = -o.gsn[k] * o.rs[k]
			o.rs[k] = o.gcs[k] * o.rs[k]

			if math.Abs(o.rs[k+1]) <= tol {
				k++
				converged = true
				break
			}
			if hk1 == 0 {
				// lucky breakdown: exact solution in the current subspace
				k++
				converged = true
				break
			}
			for i := 0; i < n; i++ {
				vk1[i] /= hk1
			}
		}

		// solve the triangular system and update xs
		y := o.rs[:k]
		for i := k - 1; i >= 0; i-- {
			sum := y[i]
			for j := i + 1; j < k; j++ {
				sum -= o.hh[i][j] * y[j]
			}
			y[i] = sum / o.hh[i][i]
		}
		for j := 0; j < k; j++ {
			for i := 0; i < n; i++ {
				o.xs[i] += y[j] * o.vv[j][i]
			}
		}

		if converged {
			break
		}
		if restart == o.MaxRestarts {
			status = GmresMaxIter
		}
	}

	// unscale: x = W^{-1} xs
	for i := 0; i < n; i++ {
		x[i] = o.xs[i] / w[i]
	}
	return
}

func norm2(v []float64) (res float64) {
	for _, x := range v {
		res += x * x
	}
	return math.Sqrt(res)
}

func dot(a, b []float64) (res float64) {
	for i := range a {
		res += a[i] * b[i]
	}
	return
}
