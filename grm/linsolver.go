// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

import (
	"math"

	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gochrom/linalg"
)

// LinearSolve return codes (conventions of the outer time integrator)
const (
	SolveOk          = 0  // success
	SolveFatal       = -1 // non-recoverable failure
	SolveRecoverable = +1 // recoverable failure; retry with a smaller step
)

// InvalidateJacobian forces re-assembly and re-factorization of the
// discretized blocks on the next LinearSolve
func (o *Model) InvalidateJacobian() { o.factorizeJacobian = true }

// JacobianUpToDate reports whether the factorized blocks are still valid
func (o *Model) JacobianUpToDate() bool { return !o.factorizeJacobian }

// LinearSolve solves the time-discretized linear system
//   (dF/dy + alpha*dF/dydot) x = b
// arising in every Newton iteration of the time integrator. On entry rhs
// holds b; on exit it holds x. weight carries the error weights used for
// the inner GMRES stopping test; y, yDot, and res give the linearization
// point (the Jacobian blocks have been assembled there by Residual).
// Returns SolveOk, SolveFatal, or SolveRecoverable.
func (o *Model) LinearSolve(t, timeFactor, alpha, outerTol float64, rhs, weight, y, yDot, res []float64) int {

	idxr := &o.idxr
	nflux := o.NCol * o.NComp
	jf := idxr.OffsetJf()
	var parErr firstError
	o.solveErr = &parErr
	defer func() { o.solveErr = nil }()

	// ==== step 1: factorize diagonal Jacobian blocks (only if required)
	if o.factorizeJacobian {
		o.Timers.Factorize.Start()

		// no re-factorization at the next call without changed Jacobians
		o.factorizeJacobian = false

		o.Exec.RunFused(o.NComp, func(comp, worker int) {
			o.assembleDiscretizedJacobianColumnBlock(comp, alpha, timeFactor)
			if !o.jacCdisc[comp].Factorize() {
				parErr.record(io.Sf("factorize failed for comp %d", comp))
			}
		}, o.NCol, func(pblk, worker int) {
			o.assembleDiscretizedJacobianParticleBlock(pblk, alpha, timeFactor)
			if !o.jacPdisc[pblk].Factorize() {
				parErr.record(io.Sf("factorize failed for par block %d", pblk))
			}
		})

		o.Timers.Factorize.Stop()
		if parErr.set {
			io.Pfred("linear solve: %s\n", parErr.msg)
			o.factorizeJacobian = true
			return SolveRecoverable
		}
	}

	o.Timers.LinearSolve.Start()

	// ==== step 2: forward substitution, y_i = J_i^{-1} b_i in place
	o.Exec.RunFused(o.NComp, func(comp, worker int) {
		lo := comp * idxr.StrideColComp()
		if !o.jacCdisc[comp].Solve(rhs[lo : lo+o.NCol]) {
			parErr.record(io.Sf("solve failed for comp %d", comp))
		}
	}, o.NCol, func(pblk, worker int) {
		lo := idxr.OffsetCp(pblk)
		if !o.jacPdisc[pblk].Solve(rhs[lo : lo+idxr.StrideParBlock()]) {
			parErr.record(io.Sf("solve failed for par block %d", pblk))
		}
	})

	// last row of L by substitution: y_f = b_f - sum_i J_{f,i} y_i.
	// This loop is strictly serial: all products accumulate in place onto
	// the same flux slice of rhs.
	o.jacFC.MultiplySubtract(rhs, rhs[jf:])
	for pblk := 0; pblk < o.NCol; pblk++ {
		lo := idxr.OffsetCp(pblk)
		o.jacFP[pblk].MultiplySubtract(rhs[lo:lo+idxr.StrideParBlock()], rhs[jf:])
	}

	// ==== step 3: Schur complement, x_f = S^{-1} y_f
	// The reduced right hand side y_f in rhs_f doubles as the initial
	// guess; the right hand side moves to the scratch flux slice.
	// The non-flux part of the scratch is zeroed inside the operator.
	if parErr.set {
		io.Pfred("linear solve: %s\n", parErr.msg)
		o.Timers.LinearSolve.Stop()
		return SolveRecoverable
	}
	copy(o.tempState[jf:], rhs[jf:jf+nflux])

	tolerance := math.Sqrt(float64(idxr.NumDofs())) * outerTol * o.SchurSafety
	o.Timers.Gmres.Start()
	gmresResult := o.gmres.Solve(tolerance, weight[jf:], rhs[jf:], o.tempState[jf:])
	o.Timers.Gmres.Stop()

	// remove temporary results left over by the Schur operator
	for i := 0; i < jf; i++ {
		o.tempState[i] = 0
	}

	if parErr.set {
		io.Pfred("linear solve: %s\n", parErr.msg)
		o.Timers.LinearSolve.Stop()
		return SolveRecoverable
	}
	if gmresResult != linalg.GmresSuccess {
		io.Pfred("linear solve: gmres did not converge (status %d)\n", gmresResult)
		o.Timers.LinearSolve.Stop()
		return SolveRecoverable
	}

	// ==== step 4: backward substitution, x_i = y_i - J_i^{-1} J_{i,f} x_f
	o.jacCF.MultiplyAdd(rhs[jf:], o.tempState)

	o.Exec.RunFused(o.NComp, func(comp, worker int) {
		lo := comp * idxr.StrideColComp()
		local := o.tempState[lo : lo+o.NCol]
		if !o.jacCdisc[comp].Solve(local) {
			parErr.record(io.Sf("solve failed for comp %d", comp))
		}
		rhsCol := rhs[lo : lo+o.NCol]
		for i := range rhsCol {
			rhsCol[i] -= local[i]
		}
	}, o.NCol, func(pblk, worker int) {
		lo := idxr.OffsetCp(pblk)
		hi := lo + idxr.StrideParBlock()
		local := o.tempState[lo:hi]
		o.jacPF[pblk].MultiplyAdd(rhs[jf:], local)
		if !o.jacPdisc[pblk].Solve(local) {
			parErr.record(io.Sf("solve failed for par block %d", pblk))
		}
		rhsPar := rhs[lo:hi]
		for i := range rhsPar {
			rhsPar[i] -= local[i]
		}
	})
	o.Timers.LinearSolve.Stop()

	if parErr.set {
		io.Pfred("linear solve: %s\n", parErr.msg)
		return SolveRecoverable
	}
	return SolveOk
}

// recordSolveError stores a failure observed while the Schur operator runs
// inside an active LinearSolve call
func (o *Model) recordSolveError(msg string) {
	if o.solveErr != nil {
		o.solveErr.record(msg)
	}
}

// schurComplementMatrixVector performs the matrix-free product z = S*x with
// the Schur complement
//   S = I - sum_p J_{f,p} J_p^{-1} J_{p,f}
// using the factorized diagonal blocks
func (o *Model) schurComplementMatrixVector(x, z []float64) {
	o.Timers.MatVec.Start()

	idxr := &o.idxr
	nflux := o.NCol * o.NComp
	jf := idxr.OffsetJf()

	// identity part
	copy(z[:nflux], x[:nflux])

	// zero the scratch regions the block solves write into
	for i := 0; i < jf; i++ {
		o.tempState[i] = 0
	}

	// apply J_{0,f}
	o.jacCF.MultiplyAdd(x, o.tempState)

	o.Exec.RunFused(o.NComp, func(comp, worker int) {
		lo := comp * idxr.StrideColComp()
		if !o.jacCdisc[comp].Solve(o.tempState[lo : lo+o.NCol]) {
			o.recordSolveError(io.Sf("schur operator: solve failed for comp %d", comp))
		}
	}, o.NCol, func(pblk, worker int) {
		lo := idxr.OffsetCp(pblk)
		tmp := o.tempState[lo : lo+idxr.StrideParBlock()]
		o.jacPF[pblk].MultiplyAdd(x, tmp)
		if !o.jacPdisc[pblk].Solve(tmp) {
			o.recordSolveError(io.Sf("schur operator: solve failed for par block %d", pblk))
		}
	})

	// subtract J_{f,p} contributions; serial, shared target z
	o.jacFC.MultiplySubtract(o.tempState, z)
	for pblk := 0; pblk < o.NCol; pblk++ {
		lo := idxr.OffsetCp(pblk)
		o.jacFP[pblk].MultiplySubtract(o.tempState[lo:lo+idxr.StrideParBlock()], z)
	}

	o.Timers.MatVec.Stop()
}
