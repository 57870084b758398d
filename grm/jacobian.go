// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

import (
	"github.com/cpmech/gochrom/linalg"
)

// assembleDiscretizedJacobianColumnBlock builds
//   jacCdisc[comp] = jacC[comp] + alpha*timeFactor*dF/dydot
// ready for factorization
func (o *Model) assembleDiscretizedJacobianColumnBlock(comp int, alpha, timeFactor float64) {
	fbm := &o.jacCdisc[comp]
	fbm.CopyOver(&o.jacC[comp])
	o.addTimeDerivativeToJacobianColumnBlock(fbm, alpha, timeFactor)
}

// addTimeDerivativeToJacobianColumnBlock adds alpha*timeFactor to the main
// diagonal (the bulk equations carry a plain dc/dt term)
func (o *Model) addTimeDerivativeToJacobianColumnBlock(fbm *linalg.FactorizableBandMatrix, alpha, timeFactor float64) {
	alpha *= timeFactor
	jac := fbm.Row(0)
	for k := 0; k < o.NCol; k++ {
		jac.Add(0, alpha)
		jac.Next()
	}
}

// assembleDiscretizedJacobianParticleBlock builds
//   jacPdisc[pblk] = jacP[pblk] + alpha*timeFactor*dF/dydot
// ready for factorization
func (o *Model) assembleDiscretizedJacobianParticleBlock(pblk int, alpha, timeFactor float64) {
	fbm := &o.jacPdisc[pblk]
	fbm.CopyOver(&o.jacP[pblk])

	jac := fbm.Row(0)
	for j := 0; j < o.NPar; j++ {
		// mobile phase
		o.addMobilePhaseTimeDerivative(&jac, alpha, timeFactor)
		// stationary phase
		bnd := jac
		o.Binding.JacobianAddDiscretized(alpha*timeFactor, bnd)
		jac.Advance(o.idxr.StrideParBound())
	}
}

// addMobilePhaseTimeDerivative adds alpha*timeFactor*dF/dydot onto the
// liquid rows of one shell. On entry jac points to the first liquid row of
// the shell; on exit it points to the first bound-state row.
func (o *Model) addMobilePhaseTimeDerivative(jac *linalg.RowIterator, alpha, timeFactor float64) {
	alpha *= timeFactor
	sl := o.idxr.StrideParLiquid()
	for comp := 0; comp < o.NComp; comp++ {
		// dc_p/dt
		jac.Add(0, alpha)
		// dq/dt of the bound states of this component
		for b := 0; b < o.NBound[comp]; b++ {
			jac.Add(sl-comp+o.idxr.OffsetBoundComp(comp)+b, alpha*o.invBetaP)
		}
		jac.Next()
	}
}

// MultiplyJacobianSubtract computes y -= J*x with the full system Jacobian
// dF/dy assembled from the current state blocks and couplings
func (o *Model) MultiplyJacobianSubtract(x, y []float64) {
	idxr := &o.idxr
	nflux := o.NCol * o.NComp
	jf := idxr.OffsetJf()
	xf := x[jf : jf+nflux]

	// bulk rows
	for i := 0; i < o.NComp; i++ {
		lo := i * idxr.StrideColComp()
		o.jacC[i].MultiplyVector(-1, 1, x[lo:lo+o.NCol], y[lo:lo+o.NCol])
	}
	o.jacCF.MultiplySubtract(xf, y)

	// particle rows
	for k := 0; k < o.NCol; k++ {
		lo := idxr.OffsetCp(k)
		hi := lo + idxr.StrideParBlock()
		o.jacP[k].MultiplyVector(-1, 1, x[lo:hi], y[lo:hi])
		o.jacPF[k].MultiplySubtract(xf, y[lo:hi])
	}

	// flux rows: identity plus couplings
	yf := y[jf : jf+nflux]
	for f := 0; f < nflux; f++ {
		yf[f] -= xf[f]
	}
	o.jacFC.MultiplySubtract(x, yf)
	for k := 0; k < o.NCol; k++ {
		lo := idxr.OffsetCp(k)
		o.jacFP[k].MultiplySubtract(x[lo:lo+idxr.StrideParBlock()], yf)
	}
}

// MultiplyDerivativeJacobian computes y = timeFactor*(dF/dydot)*x. The flux
// equations and algebraic binding rows carry no time derivatives.
func (o *Model) MultiplyDerivativeJacobian(timeFactor float64, x, y []float64) {
	idxr := &o.idxr
	sl, ss, sb := idxr.StrideParLiquid(), idxr.StrideParShell(), idxr.StrideParBound()
	hasAlg := o.Binding.HasAlgebraicEquations()
	algStart, algLen := o.Binding.AlgebraicBlock()

	// bulk
	for i := 0; i < o.NComp*o.NCol; i++ {
		y[i] = timeFactor * x[i]
	}

	// particles
	for k := 0; k < o.NCol; k++ {
		off := idxr.OffsetCp(k)
		for j := 0; j < o.NPar; j++ {
			shell := off + j*ss
			for comp := 0; comp < o.NComp; comp++ {
				sum := x[shell+comp]
				for b := 0; b < o.NBound[comp]; b++ {
					sum += o.invBetaP * x[shell+sl+idxr.OffsetBoundComp(comp)+b]
				}
				y[shell+comp] = timeFactor * sum
			}
			for b := 0; b < sb; b++ {
				if hasAlg && b >= algStart && b < algStart+algLen {
					y[shell+sl+b] = 0
					continue
				}
				y[shell+sl+b] = timeFactor * x[shell+sl+b]
			}
		}
	}

	// fluxes
	for f := idxr.OffsetJf(); f < idxr.NumDofs(); f++ {
		y[f] = 0
	}
}
