// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gochrom/linalg"
)

// SolveForFluxes solves the algebraic flux equations
//   j_f - k_f*(c - c_p|outer) == v
// in place, where v is whatever the flux slice of vecState holds on entry
// (zero for plain consistency, -dF/dp for sensitivity systems). The loop is
// strictly serial: all products accumulate onto the same flux slice.
func (o *Model) SolveForFluxes(vecState []float64) {
	idxr := &o.idxr
	jfs := vecState[idxr.OffsetJf():]
	o.jacFC.MultiplySubtract(vecState, jfs)
	for pblk := 0; pblk < o.NCol; pblk++ {
		lo := idxr.OffsetCp(pblk)
		o.jacFP[pblk].MultiplySubtract(vecState[lo:lo+idxr.StrideParBlock()], jfs)
	}
}

// zeroFluxes clears the flux slice of vecState
func (o *Model) zeroFluxes(vecState []float64) {
	for i := o.idxr.OffsetJf(); i < o.idxr.NumDofs(); i++ {
		vecState[i] = 0
	}
}

// ConsistentInitialState updates y so that all algebraic equations of the
// DAE hold: the quasi-stationary isotherm equations are solved per shell by
// the binding model's nonlinear solver, then the (linear) flux equations
// are solved exactly. Binding solver failures are reported but do not
// abort; the outer error test of the integrator catches the inconsistency.
func (o *Model) ConsistentInitialState(t float64, secIdx int, timeFactor float64, y []float64, errTol float64) (err error) {
	o.Timers.ConsistentInit.Start()
	defer o.Timers.ConsistentInit.Stop()

	idxr := &o.idxr
	ss, sl, sb := idxr.StrideParShell(), idxr.StrideParLiquid(), idxr.StrideParBound()

	// ==== step 1a: quasi-stationary binding states
	if o.Binding.HasAlgebraicEquations() {

		// per-worker nonlinear workspace: reuse slices of tempState while it
		// is large enough, otherwise allocate locally for this region
		requiredMem := o.Binding.WorkspaceSize()
		nworkers := o.Exec.Nworkers
		shareTemp := nworkers*requiredMem <= idxr.NumDofs()
		local := make([][]float64, nworkers)

		var bindErr firstError
		o.Exec.Run(o.NCol, func(pblk, worker int) {
			var ws []float64
			if requiredMem > 0 {
				if shareTemp {
					ws = o.tempState[worker*requiredMem : (worker+1)*requiredMem]
				} else {
					if local[worker] == nil {
						local[worker] = make([]float64, requiredMem)
					}
					ws = local[worker]
				}
			}

			// reuse the banded storage as a dense scratch matrix
			fbm := &o.jacPdisc[pblk]
			jac := linalg.NewDenseView(sb, fbm.Data, fbm.Pivot)

			z := (0.5 + float64(pblk)) / float64(o.NCol)
			for shell := 0; shell < o.NPar; shell++ {
				lo := idxr.OffsetCp(pblk) + shell*ss
				cpShell := y[lo : lo+sl]
				qShell := y[lo+sl : lo+ss]
				e := o.Binding.ConsistentInitialState(t, z, o.parCellRadius[shell], secIdx, cpShell, qShell, errTol, ws, jac)
				if e != nil {
					bindErr.record(io.Sf("binding solve failed for par block %d shell %d: %v", pblk, shell, e))
				}
			}
		})
		if bindErr.set {
			io.Pfred("consistent initialization: %s\n", bindErr.msg)
		}

		// the discretized Jacobians served as scratch memory here
		o.factorizeJacobian = true
	}

	// ==== step 1b: fluxes
	o.zeroFluxes(y)
	o.SolveForFluxes(y)
	return
}

// ConsistentInitialTimeDerivative overwrites yDot with consistent time
// derivatives. On entry yDot must hold the residual F(t, y, 0), i.e. the
// residual evaluated without time-derivative contributions (note: the
// un-negated residual; the sign is fixed at the end). y supplies the state
// for the algebraic time-derivative hook and may be nil when no binding
// model reports explicit time dependence.
func (o *Model) ConsistentInitialTimeDerivative(t float64, secIdx int, timeFactor float64, y, yDot []float64) (err error) {
	o.Timers.ConsistentInit.Start()
	defer o.Timers.ConsistentInit.Stop()

	idxr := &o.idxr
	ss, sl, sb := idxr.StrideParShell(), idxr.StrideParLiquid(), idxr.StrideParBound()
	hasAlg := o.Binding.HasAlgebraicEquations()
	algStart, algLen := o.Binding.AlgebraicBlock()
	var parErr firstError

	// ==== step 2a: assemble, factorize, and solve the diagonal blocks of
	// the pure time-derivative system
	o.Exec.RunFused(o.NComp, func(comp, worker int) {
		fbm := &o.jacCdisc[comp]
		fbm.SetAll(0)
		o.addTimeDerivativeToJacobianColumnBlock(fbm, 1.0, timeFactor)
		if !fbm.Factorize() {
			parErr.record(io.Sf("factorize failed for comp %d", comp))
			return
		}
		lo := comp * idxr.StrideColComp()
		if !fbm.Solve(yDot[lo : lo+o.NCol]) {
			parErr.record(io.Sf("solve failed for comp %d", comp))
		}
	}, o.NCol, func(pblk, worker int) {
		fbm := &o.jacPdisc[pblk]
		fbm.SetAll(0)

		z := (0.5 + float64(pblk)) / float64(o.NCol)
		var dFdt []float64
		jac := fbm.Row(0)
		for j := 0; j < o.NPar; j++ {

			// mobile phase
			o.addMobilePhaseTimeDerivative(&jac, 1.0, timeFactor)

			// stationary phase: time-derivative Jacobian first
			bnd := jac
			o.Binding.JacobianAddDiscretized(timeFactor, bnd)

			// overwrite algebraic rows with the state Jacobian rows; the
			// right hand side becomes -dF_alg/dt, which vanishes unless the
			// binding model reports explicit time dependence
			if hasAlg {
				jacAlg := jac
				jacAlg.Advance(algStart)
				origJac := o.jacP[pblk].Row(j*ss + sl + algStart)

				lo := idxr.OffsetCp(pblk) + j*ss
				qShellDot := yDot[lo+sl+algStart : lo+sl+algStart+algLen]
				for algRow := 0; algRow < algLen; algRow++ {
					jacAlg.CopyRowFrom(&origJac)
					qShellDot[algRow] = 0
					jacAlg.Next()
					origJac.Next()
				}
				if y != nil {
					cpShell := y[lo : lo+sl]
					qShell := y[lo+sl : lo+ss]
					if dFdt == nil {
						dFdt = make([]float64, sb)
					}
					if o.Binding.AlgebraicTimeDerivative(t, z, o.parCellRadius[j], secIdx, cpShell, qShell, dFdt) {
						// solved with the positive residual and negated later
						for algRow := 0; algRow < algLen; algRow++ {
							qShellDot[algRow] = dFdt[algStart+algRow]
						}
					}
				}
			}

			// advance over all bound states
			jac.Advance(idxr.StrideParBound())
		}

		if !fbm.Factorize() {
			parErr.record(io.Sf("factorize failed for par block %d", pblk))
			return
		}
		lo := idxr.OffsetCp(pblk)
		if !fbm.Solve(yDot[lo : lo+idxr.StrideParBlock()]) {
			parErr.record(io.Sf("solve failed for par block %d", pblk))
		}
	})
	if parErr.set {
		o.factorizeJacobian = true
		return chk.Err("consistent initialization: %s", parErr.msg)
	}

	// ==== step 2b: fluxes by backward substitution
	o.zeroFluxes(yDot)
	o.SolveForFluxes(yDot)

	// ==== step 2c: change sign of the solution. The linear system was
	// solved against the positive residual; negating the solution fixes it.
	for i := range yDot {
		yDot[i] = -yDot[i]
	}

	// the discretized Jacobians served as scratch memory here
	o.factorizeJacobian = true
	return
}

// ConsistentInitialConditions performs the full consistency pipeline: the
// algebraic state solve, a residual evaluation at (t, y, 0), and the
// time-derivative solve. yDot is fully overwritten.
func (o *Model) ConsistentInitialConditions(t float64, secIdx int, timeFactor float64, y, yDot []float64, errTol float64) (err error) {

	// step 1
	err = o.ConsistentInitialState(t, secIdx, timeFactor, y, errTol)
	if err != nil {
		return
	}

	// right hand side: residual without time-derivative contributions,
	// stored in yDot; refreshes the Jacobian at the new state
	err = o.Residual(t, secIdx, timeFactor, y, nil, yDot, true)
	if err != nil {
		return
	}

	// step 2 (negation happens inside)
	return o.ConsistentInitialTimeDerivative(t, secIdx, timeFactor, y, yDot)
}

// LeanConsistentInitialState is the shortcut variant: the algebraic
// isotherm equations are left untouched and only the (linear) flux
// equations are solved. Intended for warm restarts over section
// transitions that preserve the algebraic invariants.
func (o *Model) LeanConsistentInitialState(t float64, secIdx int, timeFactor float64, y []float64, errTol float64) (err error) {
	if o.HasSectionDependentParTransport() {
		io.Pfyel("lean consistent initialization is not appropriate for section-dependent pore and surface diffusion\n")
	}
	o.Timers.ConsistentInit.Start()
	defer o.Timers.ConsistentInit.Stop()

	o.zeroFluxes(y)
	o.SolveForFluxes(y)
	return
}

// LeanConsistentInitialTimeDerivative fixes only the bulk and flux parts of
// yDot. On entry res must hold the residual F(t, y, 0); its bulk part is
// overwritten during the solve.
func (o *Model) LeanConsistentInitialTimeDerivative(t float64, timeFactor float64, yDot, res []float64) (err error) {
	if o.HasSectionDependentParTransport() {
		io.Pfyel("lean consistent initialization is not appropriate for section-dependent pore and surface diffusion\n")
	}
	o.Timers.ConsistentInit.Start()
	defer o.Timers.ConsistentInit.Stop()

	idxr := &o.idxr
	var parErr firstError

	// ==== step 2a: bulk blocks only
	o.Exec.Run(o.NComp, func(comp, worker int) {
		fbm := &o.jacCdisc[comp]
		fbm.SetAll(0)
		o.addTimeDerivativeToJacobianColumnBlock(fbm, 1.0, timeFactor)
		if !fbm.Factorize() {
			parErr.record(io.Sf("factorize failed for comp %d", comp))
			return
		}
		lo := comp * idxr.StrideColComp()
		resSlice := res[lo : lo+o.NCol]
		if !fbm.Solve(resSlice) {
			parErr.record(io.Sf("solve failed for comp %d", comp))
			return
		}
		// solved against the positive residual; negate
		yDotSlice := yDot[lo : lo+o.NCol]
		for i := range yDotSlice {
			yDotSlice[i] = -resSlice[i]
		}
	})
	if parErr.set {
		o.factorizeJacobian = true
		return chk.Err("lean consistent initialization: %s", parErr.msg)
	}

	// ==== step 2b: fluxes
	o.zeroFluxes(yDot)
	o.SolveForFluxes(yDot)

	// the discretized Jacobians served as scratch memory here
	o.factorizeJacobian = true
	return
}

// LeanConsistentInitialConditions performs the shortcut pipeline
func (o *Model) LeanConsistentInitialConditions(t float64, secIdx int, timeFactor float64, y, yDot []float64, errTol float64) (err error) {

	// step 1
	err = o.LeanConsistentInitialState(t, secIdx, timeFactor, y, errTol)
	if err != nil {
		return
	}

	// residual without time-derivative contributions, in scratch
	err = o.Residual(t, secIdx, timeFactor, y, nil, o.tempState, true)
	if err != nil {
		return
	}

	// step 2
	return o.LeanConsistentInitialTimeDerivative(t, timeFactor, yDot, o.tempState)
}
