// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sim implements the time integration driver: a variable-order
// variable-step BDF method with a modified-Newton corrector on top of the
// model's Schur-complement linear solver, section handling, and forward
// sensitivity propagation
package sim

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/floats"

	"github.com/cpmech/gochrom/ad"
	"github.com/cpmech/gochrom/grm"
)

// bdf integrates one time section with BDF formulas of order 1 and 2.
// The corrector is a modified Newton iteration: the factorized Jacobian
// blocks are reused across iterations and steps until the leading
// coefficient drifts or convergence degrades.
type bdf struct {
	mdl *grm.Model
	sim *Simulator

	secIdx     int
	timeFactor float64

	// settings
	relTol, absTol float64
	maxSteps       int
	newtonMaxIt    int
	newtonTol      float64

	// state history
	t         float64
	h         float64
	hOld      float64
	order     int
	nGood     int // accepted steps since the last failed attempt
	y         []float64
	yPrev     []float64
	yDot      []float64
	lastAlpha float64

	// coefficients of the last accepted step (reused by the staggered
	// sensitivity solves, which must see the factorized operator)
	accAlpha float64
	accA1    float64
	accA2    float64

	// scratch
	yPred []float64
	psi   []float64
	rhs   []float64
	res   []float64
	w     []float64
	tmp   []float64
}

func newBdf(sim *Simulator, secIdx int, t0, h0 float64) *bdf {
	mdl := sim.Model
	ndof := mdl.NumDofs()
	o := &bdf{
		mdl:         mdl,
		sim:         sim,
		secIdx:      secIdx,
		timeFactor:  1.0,
		relTol:      sim.RelTol,
		absTol:      sim.AbsTol,
		maxSteps:    sim.MaxSteps,
		newtonMaxIt: 8,
		newtonTol:   0.1,
		t:           t0,
		h:           h0,
		order:       1,
		y:           sim.y,
		yDot:        sim.yDot,
		yPrev:       make([]float64, ndof),
		yPred:       make([]float64, ndof),
		psi:         make([]float64, ndof),
		rhs:         make([]float64, ndof),
		res:         make([]float64, ndof),
		w:           make([]float64, ndof),
		tmp:         make([]float64, ndof),
	}
	return o
}

// weights fills the error-weight vector from the current solution
func (o *bdf) weights() {
	for i, v := range o.y {
		o.w[i] = 1.0 / (o.relTol*math.Abs(v)+o.absTol)
	}
}

// wrmsNorm returns the weighted root-mean-square norm of v
func (o *bdf) wrmsNorm(v []float64) float64 {
	sum := 0.0
	for i, x := range v {
		wx := o.w[i] * x
		sum += wx * wx
	}
	return math.Sqrt(sum / float64(len(v)))
}

// coeffs computes the leading coefficient alpha and the history part psi of
// the BDF formula ydot = alpha*y + psi for the current order and step
// sizes. The history weights a1, a2 (divided by h) are returned for reuse
// by the sensitivity systems.
func (o *bdf) coeffs() (alpha, a1h, a2h float64) {
	if o.order == 1 {
		alpha = 1.0 / o.h
		a1h = -1.0 / o.h
		for i := range o.psi {
			o.psi[i] = a1h * o.y[i]
		}
		return
	}
	// variable-step BDF2
	om := o.h / o.hOld
	alpha = (1.0 + 2.0*om) / (1.0 + om) / o.h
	a1h = -(1.0 + om) / o.h
	a2h = om * om / (1.0 + om) / o.h
	for i := range o.psi {
		o.psi[i] = a1h*o.y[i] + a2h*o.yPrev[i]
	}
	return
}

// predict fills yPred by polynomial extrapolation of the history
func (o *bdf) predict() {
	if o.order == 1 || o.nGood == 0 {
		copy(o.yPred, o.y)
		floats.AddScaled(o.yPred, o.h, o.yDot)
		return
	}
	// linear extrapolation through (t-hOld, yPrev) and (t, y)
	om := o.h / o.hOld
	for i := range o.yPred {
		o.yPred[i] = o.y[i] + om*(o.y[i]-o.yPrev[i])
	}
}

// step advances the solution by one accepted BDF step, shrinking h on
// error-test or corrector failures; the step never crosses tEnd
func (o *bdf) step(tEnd float64) (err error) {

	o.weights()

	for try := 0; try < 12; try++ {

		if o.t+o.h > tEnd {
			o.h = tEnd - o.t
		}
		tNew := o.t + o.h

		alpha, a1h, a2h := o.coeffs()
		o.predict()

		// a drifting leading coefficient invalidates the factorization
		needJac := !o.mdl.JacobianUpToDate()
		if o.lastAlpha == 0 || math.Abs(alpha-o.lastAlpha) > 0.3*o.lastAlpha {
			needJac = true
		}

		// modified Newton iteration on the corrector equation
		copy(o.tmp, o.y) // backup to restore on failure
		copy(o.y, o.yPred)
		converged := false
		recoverable := false
		for it := 0; it < o.newtonMaxIt; it++ {

			// ydot from the BDF formula
			for i := range o.yDot {
				o.yDot[i] = alpha*o.y[i] + o.psi[i]
			}

			e := o.mdl.Residual(tNew, o.secIdx, o.timeFactor, o.y, o.yDot, o.res, needJac)
			if e != nil {
				return e
			}
			if needJac {
				o.mdl.InvalidateJacobian()
			}

			copy(o.rhs, o.res)
			status := o.mdl.LinearSolve(tNew, o.timeFactor, alpha, o.newtonTol, o.rhs, o.w, o.y, o.yDot, o.res)
			if status == grm.SolveFatal {
				return chk.Err("time integration: fatal linear solver failure at t=%g", tNew)
			}
			if status == grm.SolveRecoverable {
				if !needJac {
					// retry once with a fresh Jacobian before shrinking
					needJac = true
					continue
				}
				recoverable = true
				break
			}
			if needJac {
				o.lastAlpha = alpha
				needJac = false
			}

			// Newton update y -= dy
			floats.AddScaled(o.y, -1.0, o.rhs)
			if o.wrmsNorm(o.rhs) < o.newtonTol {
				converged = true
				break
			}
		}

		if converged {
			// local error estimate from the predictor-corrector difference
			for i := range o.tmp {
				o.res[i] = o.y[i] - o.yPred[i]
			}
			errNorm := o.wrmsNorm(o.res) / float64(o.order+1)
			if errNorm <= 1.0 {
				// accept
				copy(o.yPrev, o.tmp) // previous solution
				o.accAlpha, o.accA1, o.accA2 = alpha, a1h, a2h
				o.hOld = o.h
				o.t = tNew
				o.nGood++
				if o.order == 1 && o.nGood >= 2 {
					o.order = 2
				}
				fac := 0.9 * math.Pow(errNorm+1e-12, -1.0/float64(o.order+1))
				if fac > 2.0 {
					fac = 2.0
				}
				if fac < 0.2 {
					fac = 0.2
				}
				o.h *= fac
				return
			}
			// error test failed: restore and shrink
			copy(o.y, o.tmp)
			o.nGood = 0
			o.order = 1
			o.h *= 0.5
			continue
		}

		// Newton failed: restore and shrink
		copy(o.y, o.tmp)
		o.nGood = 0
		o.order = 1
		o.h *= 0.25
		o.mdl.InvalidateJacobian()
		if recoverable {
			o.h *= 0.5
		}
	}
	return chk.Err("time integration: step at t=%g failed after repeated reductions", o.t)
}

// propagateSensitivities advances all sensitivity systems over the accepted
// step using the staggered-direct scheme: one linear solve per parameter
// with the Jacobian factorized by the corrector.
func (o *bdf) propagateSensitivities(adRes []ad.Scalar) (err error) {

	nsens := o.mdl.NumSensParams()
	if nsens == 0 {
		return
	}
	if o.accAlpha == 0 {
		return chk.Err("sensitivity propagation requires an accepted step")
	}

	// the corrector may have converged against a stale factorization; the
	// sensitivity systems are solved exactly once, so they need the
	// operator at the accepted leading coefficient
	if o.accAlpha != o.lastAlpha || !o.mdl.JacobianUpToDate() {
		o.mdl.InvalidateJacobian()
		o.lastAlpha = o.accAlpha
	}

	// parameter derivatives at the new solution point
	e := o.mdl.ResidualAD(o.t, o.secIdx, o.timeFactor, o.y, o.yDot, adRes)
	if e != nil {
		return e
	}

	for p := 0; p < nsens; p++ {
		sY := o.sim.sensY[p]
		sYdot := o.sim.sensYdot[p]
		dir := o.sim.sensDirs[p]

		// history part of the accepted BDF formula for this sensitivity
		for i := range o.psi {
			o.psi[i] = o.accA1 * sY[i]
			if o.accA2 != 0 {
				o.psi[i] += o.accA2 * o.sim.sensYprev[p][i]
			}
		}

		// rhs = -dF/dp - (dF/dydot)*psi
		o.mdl.MultiplyDerivativeJacobian(o.timeFactor, o.psi, o.tmp)
		for i := range o.rhs {
			o.rhs[i] = -adRes[i].Deriv(dir) - o.tmp[i]
		}

		status := o.mdl.LinearSolve(o.t, o.timeFactor, o.accAlpha, o.newtonTol, o.rhs, o.w, o.y, o.yDot, o.res)
		if status != grm.SolveOk {
			return chk.Err("sensitivity propagation: linear solve failed (status %d)", status)
		}

		copy(o.sim.sensYprev[p], sY)
		copy(sY, o.rhs)
		for i := range sYdot {
			sYdot[i] = o.accAlpha*sY[i] + o.psi[i]
		}
	}
	return
}
