// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binding

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"

	"github.com/cpmech/gochrom/ad"
	"github.com/cpmech/gochrom/linalg"
)

// Linear implements the linear isotherm
//
//   dq_i/dt = ka_i c_{p,i} - kd_i q_i        (kinetic)
//         0 = ka_i c_{p,i} - kd_i q_i        (quasi-stationary)
//
type Linear struct {
	paramSeeds
	nComp   int
	nBound  []int
	stride  int
	bnd2cmp []int
	kinetic bool
	ka, kd  []float64
}

// add model to database
func init() {
	allocators["linear"] = func() Model { return new(Linear) }
}

// Init initialises this structure
func (o *Linear) Init(nComp int, nBound []int, prms dbf.Params) (err error) {
	o.nComp = nComp
	o.nBound = nBound
	o.stride = 0
	o.bnd2cmp = o.bnd2cmp[:0]
	for i, nb := range nBound {
		if nb > 1 {
			return chk.Err("linear binding: at most one bound state per component. nBound[%d]=%d", i, nb)
		}
		if nb == 1 {
			o.bnd2cmp = append(o.bnd2cmp, i)
			o.stride++
		}
	}
	o.kinetic = true
	if p := prms.Find("kinetic"); p != nil {
		o.kinetic = p.V > 0
	}
	o.ka, err = readVec(prms, "ka", nComp)
	if err != nil {
		return
	}
	o.kd, err = readVec(prms, "kd", nComp)
	if err != nil {
		return
	}
	for _, i := range o.bnd2cmp {
		if o.kd[i] == 0 {
			return chk.Err("linear binding: kd%d must be nonzero", i)
		}
	}
	return
}

// NumBound returns the number of bound states per component
func (o *Linear) NumBound() []int { return o.nBound }

// HasAlgebraicEquations tells whether the isotherm is quasi-stationary
func (o *Linear) HasAlgebraicEquations() bool { return !o.kinetic }

// AlgebraicBlock returns the extent of the algebraic sub-block
func (o *Linear) AlgebraicBlock() (start, length int) {
	if o.kinetic {
		return 0, 0
	}
	return 0, o.stride
}

// Residual evaluates the bound-state residual of a single shell
func (o *Linear) Residual(t, z, r float64, secIdx int, cp, q, res []float64) {
	for b, i := range o.bnd2cmp {
		res[b] = o.kd[i]*q[b] - o.ka[i]*cp[i]
	}
}

// ResidualAD is Residual on AD scalars
func (o *Linear) ResidualAD(t, z, r float64, secIdx int, cp, q, res []ad.Scalar) {
	nd := len(res[0].D)
	for b, i := range o.bnd2cmp {
		ka := o.prm("ka", i, o.ka[i], nd)
		kd := o.prm("kd", i, o.kd[i], nd)
		res[b] = ad.Sub(ad.Mul(kd, q[b]), ad.Mul(ka, cp[i]))
	}
}

// Jacobian adds the analytic Jacobian onto the rows spanned by jac
func (o *Linear) Jacobian(t, z, r float64, secIdx int, cp, q []float64, strideLiquid int, jac linalg.RowIterator) {
	for b, i := range o.bnd2cmp {
		jac.Add(0, o.kd[i])                    // dres/dq_b
		jac.Add(i-strideLiquid-b, -o.ka[i])    // dres/dcp_i
		jac.Next()
	}
}

// JacobianAddDiscretized adds factor * dRes/dqDot onto the rows under jac
func (o *Linear) JacobianAddDiscretized(factor float64, jac linalg.RowIterator) {
	if !o.kinetic {
		return
	}
	for b := 0; b < o.stride; b++ {
		jac.Add(0, factor)
		jac.Next()
	}
}

// ConsistentInitialState solves the algebraic equations of one shell. The
// linear isotherm admits the closed form q = ka/kd * cp, so the nonlinear
// driver is bypassed entirely.
func (o *Linear) ConsistentInitialState(t, z, r float64, secIdx int, cp, q []float64, errTol float64, ws []float64, jac linalg.DenseView) error {
	for b, i := range o.bnd2cmp {
		q[b] = o.ka[i] * cp[i] / o.kd[i]
	}
	return nil
}

// WorkspaceSize returns the scratch length per concurrent initialization
func (o *Linear) WorkspaceSize() int { return 0 }

// AlgebraicTimeDerivative reports no explicit time dependence
func (o *Linear) AlgebraicTimeDerivative(t, z, r float64, secIdx int, cp, q, dFdt []float64) bool {
	return false
}

// SetSensParam assigns AD direction dir to a model parameter
func (o *Linear) SetSensParam(name string, comp, dir int) bool {
	switch name {
	case "ka", "kd":
		return o.seed(name, comp, dir)
	}
	return false
}
