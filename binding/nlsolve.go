// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binding

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gochrom/linalg"
)

// nlsMaxIt bounds the Newton iterations of a per-shell algebraic solve
const nlsMaxIt = 50

// SolveAlgebraic drives a damped Newton iteration with an adaptive
// trust-region step limit on the n algebraic equations of one shell.
// x is the initial guess and is updated in place. resfcn fills r with the
// residual at x; jacfcn fills jac with the Jacobian at x. The workspace ws
// must hold at least 3*n entries. Convergence is reached when the max-norm
// of the residual drops below errTol.
func SolveAlgebraic(n int, x []float64, errTol float64, resfcn func(x, r []float64), jacfcn func(x []float64, jac *linalg.DenseView), jac linalg.DenseView, ws []float64) (err error) {

	r := ws[:n]
	dx := ws[n : 2*n]
	xt := ws[2*n : 3*n]

	resfcn(x, r)
	rnorm := normInf(r)
	if rnorm <= errTol {
		return
	}

	radius := math.Inf(1)
	for it := 0; it < nlsMaxIt; it++ {

		// Newton direction
		jacfcn(x, &jac)
		copy(dx, r)
		if !jac.Factorize() {
			return chk.Err("algebraic shell solve: singular Jacobian at iteration %d", it)
		}
		jac.Solve(dx)

		// clip to trust region
		dnorm := normInf(dx)
		if dnorm > radius {
			s := radius / dnorm
			for i := range dx {
				dx[i] *= s
			}
		}

		// damped update: shrink until the residual decreases
		lambda := 1.0
		var rtrial float64
		for {
			for i := 0; i < n; i++ {
				xt[i] = x[i] - lambda*dx[i]
			}
			resfcn(xt, r)
			rtrial = normInf(r)
			if rtrial < rnorm || lambda < 1.0/64.0 {
				break
			}
			lambda *= 0.5
		}
		copy(x, xt)

		// adapt the trust region: grow on full steps, shrink on damped ones
		if lambda == 1.0 {
			if math.IsInf(radius, 1) {
				radius = 4.0 * dnorm
			} else {
				radius *= 2.0
			}
		} else {
			radius = lambda * dnorm
		}

		if rtrial <= errTol {
			return
		}
		if rtrial >= rnorm && lambda < 1.0/64.0 {
			return chk.Err("algebraic shell solve: no progress at iteration %d (residual=%g)", it, rtrial)
		}
		rnorm = rtrial
	}
	return chk.Err("algebraic shell solve: did not converge within %d iterations (residual=%g)", nlsMaxIt, rnorm)
}

func normInf(v []float64) (res float64) {
	for _, x := range v {
		if a := math.Abs(x); a > res {
			res = a
		}
	}
	return
}
