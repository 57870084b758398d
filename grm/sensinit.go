// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gochrom/ad"
	"github.com/cpmech/gochrom/linalg"
)

// ConsistentInitialSensitivity initializes the forward-sensitivity
// subsystems
//   (dF/dy) s + (dF/dydot) sdot + dF/dp = 0
// around the consistent pair (y, yDot). adRes must hold the AD residual
// evaluated at (t, y, yDot) with the parameter seeds installed; the columns
// of its derivative part supply dF/dp. The pipeline mirrors the plain
// consistent initialization, linearized: the algebraic blocks are solved by
// dense factorization per shell, the fluxes by the linear reduction, and
// the time derivatives by the pure time-derivative system with right hand
// side -J*s - dF/dp. Requires up-to-date state Jacobians.
func (o *Model) ConsistentInitialSensitivity(t float64, secIdx int, timeFactor float64, y, yDot []float64, sensY, sensYdot [][]float64, adRes []ad.Scalar) (err error) {
	o.Timers.ConsistentInit.Start()
	defer o.Timers.ConsistentInit.Stop()

	idxr := &o.idxr
	ndof := idxr.NumDofs()
	ss, sl, sb := idxr.StrideParShell(), idxr.StrideParLiquid(), idxr.StrideParBound()
	hasAlg := o.Binding.HasAlgebraicEquations()
	algStart, algLen := o.Binding.AlgebraicBlock()

	if len(sensY) != len(o.sensParams) {
		return chk.Err("sensitivity initialization: %d state vectors for %d parameters", len(sensY), len(o.sensParams))
	}

	for param := range sensY {
		sY := sensY[param]
		sYdot := sensYdot[param]
		dir := o.sensParams[param].Dir

		// parameter derivative column from AD, negated
		for i := 0; i < ndof; i++ {
			sYdot[i] = -adRes[i].Deriv(dir)
		}

		// ==== step 1a: algebraic binding states, linearized per shell
		if hasAlg && algLen > 0 {
			var parErr firstError
			o.Exec.Run(o.NCol, func(pblk, worker int) {

				// reuse the banded storage as a dense scratch matrix
				fbm := &o.jacPdisc[pblk]
				jac := linalg.NewDenseView(algLen, fbm.Data, fbm.Pivot)

				for shell := 0; shell < o.NPar; shell++ {
					jacRowOffset := shell*ss + sl
					localCpOffset := idxr.OffsetCp(pblk) + shell*ss
					localOffset := localCpOffset + sl

					qShell := sY[localOffset : localOffset+sb]
					dFdP := sYdot[localOffset : localOffset+sb]
					cpShell := sY[localCpOffset:]

					// the linear system reads
					//   [c_p | q_pre | q_alg | q_post] * s + dF/dp = 0;
					// solve the q_alg block against the remaining columns

					// right hand side: -dF/dp
					copy(qShell[algStart:algStart+algLen], dFdP[algStart:algStart+algLen])

					// subtract [c_p | q_pre] * s
					o.jacP[pblk].SubmatrixMultiplyVector(cpShell, jacRowOffset+algStart, -sl-algStart,
						algLen, sl+algStart, -1.0, 1.0, qShell[algStart:])

					// subtract a trailing differential block behind q_alg
					if algStart+algLen < sb {
						o.jacP[pblk].SubmatrixMultiplyVector(qShell[algStart+algLen:], jacRowOffset+algStart, algLen,
							algLen, sb-algStart-algLen, -1.0, 1.0, qShell[algStart:])
					}

					// dense solve of the main block
					o.jacP[pblk].CopySubmatrixToDense(jac.Data, jacRowOffset+algStart, 0, algLen, algLen)
					if !jac.Factorize() {
						parErr.record(io.Sf("algebraic factorize failed for par block %d shell %d", pblk, shell))
						return
					}
					jac.Solve(qShell[algStart : algStart+algLen])
				}
			})
			if parErr.set {
				o.factorizeJacobian = true
				return chk.Err("sensitivity initialization: %s", parErr.msg)
			}
		}

		// ==== step 1b: fluxes; the right hand side is -dF/dp
		copy(sY[idxr.OffsetJf():], sYdot[idxr.OffsetJf():ndof])
		o.SolveForFluxes(sY)

		// ==== step 2a: right hand side -J*s - dF/dp, then the pure
		// time-derivative system (correctly negated this time)
		o.MultiplyJacobianSubtract(sY, sYdot)

		var parErr firstError
		o.Exec.RunFused(o.NComp, func(comp, worker int) {
			fbm := &o.jacCdisc[comp]
			fbm.SetAll(0)
			o.addTimeDerivativeToJacobianColumnBlock(fbm, 1.0, timeFactor)
			if !fbm.Factorize() {
				parErr.record(io.Sf("factorize failed for comp %d", comp))
				return
			}
			lo := comp * idxr.StrideColComp()
			if !fbm.Solve(sYdot[lo : lo+o.NCol]) {
				parErr.record(io.Sf("solve failed for comp %d", comp))
			}
		}, o.NCol, func(pblk, worker int) {
			fbm := &o.jacPdisc[pblk]
			fbm.SetAll(0)

			jac := fbm.Row(0)
			for j := 0; j < o.NPar; j++ {
				o.addMobilePhaseTimeDerivative(&jac, 1.0, timeFactor)
				bnd := jac
				o.Binding.JacobianAddDiscretized(timeFactor, bnd)

				// algebraic rows: state Jacobian with zero right hand side
				if hasAlg {
					jacAlg := jac
					jacAlg.Advance(algStart)
					origJac := o.jacP[pblk].Row(j*ss + sl + algStart)
					lo := idxr.OffsetCp(pblk) + j*ss
					qShellDot := sYdot[lo+sl+algStart : lo+sl+algStart+algLen]
					for algRow := 0; algRow < algLen; algRow++ {
						jacAlg.CopyRowFrom(&origJac)
						qShellDot[algRow] = 0
						jacAlg.Next()
						origJac.Next()
					}
				}
				jac.Advance(idxr.StrideParBound())
			}

			if !fbm.Factorize() {
				parErr.record(io.Sf("factorize failed for par block %d", pblk))
				return
			}
			lo := idxr.OffsetCp(pblk)
			if !fbm.Solve(sYdot[lo : lo+idxr.StrideParBlock()]) {
				parErr.record(io.Sf("solve failed for par block %d", pblk))
			}
		})
		if parErr.set {
			o.factorizeJacobian = true
			return chk.Err("sensitivity initialization: %s", parErr.msg)
		}

		// ==== step 2b: fluxes; the flux slice already carries the correct
		// right hand side (-dF/dp - J*s cancels to the linear reduction)
		o.SolveForFluxes(sYdot)
	}

	// the discretized Jacobians served as scratch memory here
	o.factorizeJacobian = true
	return
}
