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

// Langmuir implements the multi-component Langmuir isotherm
//
//   dq_i/dt = ka_i c_{p,i} qmax_i (1 - sum_j q_j/qmax_j) - kd_i q_i
//
// The model is always kinetic; there are no algebraic equations.
type Langmuir struct {
	paramSeeds
	nComp    int
	nBound   []int
	stride   int
	bnd2cmp  []int
	ka, kd   []float64
	qmax     []float64
}

// add model to database
func init() {
	allocators["langmuir"] = func() Model { return new(Langmuir) }
}

// Init initialises this structure
func (o *Langmuir) Init(nComp int, nBound []int, prms dbf.Params) (err error) {
	o.nComp = nComp
	o.nBound = nBound
	o.stride = 0
	o.bnd2cmp = o.bnd2cmp[:0]
	for i, nb := range nBound {
		if nb > 1 {
			return chk.Err("langmuir binding: at most one bound state per component. nBound[%d]=%d", i, nb)
		}
		if nb == 1 {
			o.bnd2cmp = append(o.bnd2cmp, i)
			o.stride++
		}
	}
	o.ka, err = readVec(prms, "ka", nComp)
	if err != nil {
		return
	}
	o.kd, err = readVec(prms, "kd", nComp)
	if err != nil {
		return
	}
	o.qmax, err = readVec(prms, "qmax", nComp)
	if err != nil {
		return
	}
	for _, i := range o.bnd2cmp {
		if o.qmax[i] <= 0 {
			return chk.Err("langmuir binding: qmax%d must be positive", i)
		}
	}
	return
}

// NumBound returns the number of bound states per component
func (o *Langmuir) NumBound() []int { return o.nBound }

// HasAlgebraicEquations returns false; the model is kinetic
func (o *Langmuir) HasAlgebraicEquations() bool { return false }

// AlgebraicBlock returns the (empty) algebraic sub-block
func (o *Langmuir) AlgebraicBlock() (start, length int) { return 0, 0 }

// Residual evaluates the bound-state residual of a single shell
func (o *Langmuir) Residual(t, z, r float64, secIdx int, cp, q, res []float64) {
	free := 1.0
	for b, i := range o.bnd2cmp {
		free -= q[b] / o.qmax[i]
	}
	for b, i := range o.bnd2cmp {
		res[b] = o.kd[i]*q[b] - o.ka[i]*cp[i]*o.qmax[i]*free
	}
}

// ResidualAD is Residual on AD scalars
func (o *Langmuir) ResidualAD(t, z, r float64, secIdx int, cp, q, res []ad.Scalar) {
	nd := len(res[0].D)
	free := ad.Const(1.0)
	for b, i := range o.bnd2cmp {
		qmax := o.prm("qmax", i, o.qmax[i], nd)
		free = ad.Sub(free, ad.Div(q[b], qmax))
	}
	for b, i := range o.bnd2cmp {
		ka := o.prm("ka", i, o.ka[i], nd)
		kd := o.prm("kd", i, o.kd[i], nd)
		qmax := o.prm("qmax", i, o.qmax[i], nd)
		res[b] = ad.Sub(ad.Mul(kd, q[b]), ad.Mul(ad.Mul(ka, cp[i]), ad.Mul(qmax, free)))
	}
}

// Jacobian adds the analytic Jacobian onto the rows spanned by jac
func (o *Langmuir) Jacobian(t, z, r float64, secIdx int, cp, q []float64, strideLiquid int, jac linalg.RowIterator) {
	free := 1.0
	for b, i := range o.bnd2cmp {
		free -= q[b] / o.qmax[i]
	}
	for b, i := range o.bnd2cmp {
		jac.Add(i-strideLiquid-b, -o.ka[i]*o.qmax[i]*free) // dres/dcp_i
		for bj, j := range o.bnd2cmp {
			v := o.ka[i] * cp[i] * o.qmax[i] / o.qmax[j]
			if bj == b {
				v += o.kd[i]
			}
			jac.Add(bj-b, v) // dres/dq_j
		}
		jac.Next()
	}
}

// JacobianAddDiscretized adds factor * dRes/dqDot onto the rows under jac
func (o *Langmuir) JacobianAddDiscretized(factor float64, jac linalg.RowIterator) {
	for b := 0; b < o.stride; b++ {
		jac.Add(0, factor)
		jac.Next()
	}
}

// ConsistentInitialState has nothing to do for a kinetic model
func (o *Langmuir) ConsistentInitialState(t, z, r float64, secIdx int, cp, q []float64, errTol float64, ws []float64, jac linalg.DenseView) error {
	return nil
}

// WorkspaceSize returns the scratch length per concurrent initialization
func (o *Langmuir) WorkspaceSize() int { return 0 }

// AlgebraicTimeDerivative reports no explicit time dependence
func (o *Langmuir) AlgebraicTimeDerivative(t, z, r float64, secIdx int, cp, q, dFdt []float64) bool {
	return false
}

// SetSensParam assigns AD direction dir to a model parameter
func (o *Langmuir) SetSensParam(name string, comp, dir int) bool {
	switch name {
	case "ka", "kd", "qmax":
		return o.seed(name, comp, dir)
	}
	return false
}
