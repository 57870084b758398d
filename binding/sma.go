// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binding

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"

	"github.com/cpmech/gochrom/ad"
	"github.com/cpmech/gochrom/linalg"
)

// SMA implements the steric mass action isotherm for ion-exchange
// chromatography. Component 0 is the salt; its bound state is always
// algebraic and given by electro-neutrality,
//
//   q_0 = lambda - sum_j nu_j q_j,
//
// while the protein states follow
//
//   dq_i/dt = ka_i c_{p,i} (qbar_0/lambda)^nu_i - kd_i q_i (c_{p,0}/lambda)^nu_i,
//   qbar_0  = lambda - sum_j (nu_j + sigma_j) q_j.
//
// The powers are normalized by the ionic capacity lambda, which keeps the
// residual well scaled for large capacities and steep characteristic
// charges without moving the roots.
//
// In quasi-stationary mode the protein equations are algebraic as well.
type SMA struct {
	paramSeeds
	nComp     int
	nBound    []int
	stride    int
	bnd2cmp   []int
	kinetic   bool
	lambda    float64
	ka, kd    []float64
	nu, sigma []float64
}

// add model to database
func init() {
	allocators["sma"] = func() Model { return new(SMA) }
}

// Init initialises this structure
func (o *SMA) Init(nComp int, nBound []int, prms dbf.Params) (err error) {
	if nComp < 2 {
		return chk.Err("sma binding: at least salt and one protein component are required. nComp=%d", nComp)
	}
	if nBound[0] != 1 {
		return chk.Err("sma binding: the salt component must carry exactly one bound state")
	}
	o.nComp = nComp
	o.nBound = nBound
	o.stride = 0
	o.bnd2cmp = o.bnd2cmp[:0]
	for i, nb := range nBound {
		if nb > 1 {
			return chk.Err("sma binding: at most one bound state per component. nBound[%d]=%d", i, nb)
		}
		if nb == 1 {
			o.bnd2cmp = append(o.bnd2cmp, i)
			o.stride++
		}
	}
	o.kinetic = false
	if p := prms.Find("kinetic"); p != nil {
		o.kinetic = p.V > 0
	}
	p := prms.Find("lambda")
	if p == nil {
		return chk.Err("sma binding: parameter %q is missing", "lambda")
	}
	o.lambda = p.V
	o.ka, err = readVec(prms, "ka", nComp)
	if err != nil {
		return
	}
	o.kd, err = readVec(prms, "kd", nComp)
	if err != nil {
		return
	}
	o.nu, err = readVec(prms, "nu", nComp)
	if err != nil {
		return
	}
	o.sigma, err = readVec(prms, "sigma", nComp)
	if err != nil {
		return
	}
	return
}

// NumBound returns the number of bound states per component
func (o *SMA) NumBound() []int { return o.nBound }

// HasAlgebraicEquations returns true; the salt state is always algebraic
func (o *SMA) HasAlgebraicEquations() bool { return true }

// AlgebraicBlock returns the extent of the algebraic sub-block
func (o *SMA) AlgebraicBlock() (start, length int) {
	if o.kinetic {
		return 0, 1 // only electro-neutrality
	}
	return 0, o.stride
}

// qbar0 computes the number of available salt counter-ions
func (o *SMA) qbar0(q []float64) float64 {
	res := o.lambda
	for b := 1; b < o.stride; b++ {
		i := o.bnd2cmp[b]
		res -= (o.nu[i] + o.sigma[i]) * q[b]
	}
	return res
}

// Residual evaluates the bound-state residual of a single shell
func (o *SMA) Residual(t, z, r float64, secIdx int, cp, q, res []float64) {
	// electro-neutrality
	res[0] = q[0] - o.lambda
	for b := 1; b < o.stride; b++ {
		res[0] += o.nu[o.bnd2cmp[b]] * q[b]
	}
	// proteins
	qb0 := o.qbar0(q) / o.lambda
	cs := cp[0] / o.lambda
	for b := 1; b < o.stride; b++ {
		i := o.bnd2cmp[b]
		res[b] = o.kd[i]*q[b]*math.Pow(cs, o.nu[i]) - o.ka[i]*cp[i]*math.Pow(qb0, o.nu[i])
	}
}

// ResidualAD is Residual on AD scalars
func (o *SMA) ResidualAD(t, z, r float64, secIdx int, cp, q, res []ad.Scalar) {
	nd := len(res[0].D)
	lam := o.prm("lambda", -1, o.lambda, nd)

	res[0] = ad.Sub(q[0], lam)
	qb0 := lam
	for b := 1; b < o.stride; b++ {
		i := o.bnd2cmp[b]
		nu := o.prm("nu", i, o.nu[i], nd)
		sigma := o.prm("sigma", i, o.sigma[i], nd)
		res[0] = ad.Add(res[0], ad.Mul(nu, q[b]))
		qb0 = ad.Sub(qb0, ad.Mul(ad.Add(nu, sigma), q[b]))
	}
	for b := 1; b < o.stride; b++ {
		i := o.bnd2cmp[b]
		ka := o.prm("ka", i, o.ka[i], nd)
		kd := o.prm("kd", i, o.kd[i], nd)
		ads := ad.Mul(ad.Mul(ka, cp[i]), ad.Pow(ad.Div(qb0, lam), o.nu[i]))
		des := ad.Mul(ad.Mul(kd, q[b]), ad.Pow(ad.Div(cp[0], lam), o.nu[i]))
		res[b] = ad.Sub(des, ads)
	}
}

// Jacobian adds the analytic Jacobian onto the rows spanned by jac
func (o *SMA) Jacobian(t, z, r float64, secIdx int, cp, q []float64, strideLiquid int, jac linalg.RowIterator) {

	// electro-neutrality row
	jac.Add(0, 1.0)
	for b := 1; b < o.stride; b++ {
		jac.Add(b, o.nu[o.bnd2cmp[b]])
	}
	jac.Next()

	// protein rows
	qn := o.qbar0(q) / o.lambda
	cs := cp[0] / o.lambda
	for b := 1; b < o.stride; b++ {
		i := o.bnd2cmp[b]
		cps := math.Pow(cs, o.nu[i])
		qbs := math.Pow(qn, o.nu[i])

		// dres/dcp_0 and dres/dcp_i
		jac.Add(0-strideLiquid-b, o.kd[i]*q[b]*o.nu[i]*math.Pow(cs, o.nu[i]-1)/o.lambda)
		jac.Add(i-strideLiquid-b, -o.ka[i]*qbs)

		// dres/dq_j
		dq := o.ka[i] * cp[i] * o.nu[i] * math.Pow(qn, o.nu[i]-1) / o.lambda
		for bj := 1; bj < o.stride; bj++ {
			j := o.bnd2cmp[bj]
			v := dq * (o.nu[j] + o.sigma[j])
			if bj == b {
				v += o.kd[i] * cps
			}
			jac.Add(bj-b, v)
		}
		jac.Next()
	}
}

// JacobianAddDiscretized adds factor * dRes/dqDot onto the rows under jac
func (o *SMA) JacobianAddDiscretized(factor float64, jac linalg.RowIterator) {
	jac.Next() // salt row is algebraic
	if o.kinetic {
		for b := 1; b < o.stride; b++ {
			jac.Add(0, factor)
			jac.Next()
		}
	}
}

// ConsistentInitialState solves the algebraic equations of one shell. The
// protein states are solved by the damped Newton driver; the salt state is
// then evaluated from the electro-neutrality closed form so that the
// invariant holds exactly.
func (o *SMA) ConsistentInitialState(t, z, r float64, secIdx int, cp, q []float64, errTol float64, ws []float64, jac linalg.DenseView) (err error) {

	if !o.kinetic {
		// solve protein states with cp fixed
		np := o.stride - 1
		if np > 0 {
			prot := q[1:o.stride]
			qfull := ws[3*np : 3*np+o.stride]
			cs := cp[0] / o.lambda
			resfcn := func(x, res []float64) {
				qfull[0] = 0
				copy(qfull[1:], x)
				qn := o.qbar0(qfull) / o.lambda
				for b := 1; b < o.stride; b++ {
					i := o.bnd2cmp[b]
					res[b-1] = o.kd[i]*x[b-1]*math.Pow(cs, o.nu[i]) - o.ka[i]*cp[i]*math.Pow(qn, o.nu[i])
				}
			}
			jacfcn := func(x []float64, dj *linalg.DenseView) {
				qfull[0] = 0
				copy(qfull[1:], x)
				qn := o.qbar0(qfull) / o.lambda
				for b := 1; b < o.stride; b++ {
					i := o.bnd2cmp[b]
					dq := o.ka[i] * cp[i] * o.nu[i] * math.Pow(qn, o.nu[i]-1) / o.lambda
					for bj := 1; bj < o.stride; bj++ {
						j := o.bnd2cmp[bj]
						v := dq * (o.nu[j] + o.sigma[j])
						if bj == b {
							v += o.kd[i] * math.Pow(cs, o.nu[i])
						}
						dj.Set(b-1, bj-1, v)
					}
				}
			}
			small := linalg.NewDenseView(np, jac.Data, jac.Pivot)
			err = SolveAlgebraic(np, prot, errTol, resfcn, jacfcn, small, ws)
			if err != nil {
				return
			}
		}
	}

	// electro-neutrality closed form
	q[0] = o.lambda
	for b := 1; b < o.stride; b++ {
		q[0] -= o.nu[o.bnd2cmp[b]] * q[b]
	}
	return
}

// WorkspaceSize returns the scratch length per concurrent initialization
func (o *SMA) WorkspaceSize() int { return 3*(o.stride-1) + o.stride }

// AlgebraicTimeDerivative reports no explicit time dependence
func (o *SMA) AlgebraicTimeDerivative(t, z, r float64, secIdx int, cp, q, dFdt []float64) bool {
	return false
}

// SetSensParam assigns AD direction dir to a model parameter
func (o *SMA) SetSensParam(name string, comp, dir int) bool {
	switch name {
	case "lambda", "ka", "kd", "nu", "sigma":
		return o.seed(name, comp, dir)
	}
	return false
}
