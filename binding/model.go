// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package binding implements adsorption isotherm models. A model owns the
// bound-state equations of one particle shell: their residual, analytic
// Jacobian, time-discretized Jacobian contribution, and the per-shell
// nonlinear solve used by the consistent initialization.
package binding

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"

	"github.com/cpmech/gochrom/ad"
	"github.com/cpmech/gochrom/linalg"
)

// Model defines binding models. Residuals follow the solver convention:
// for a kinetic bound state b the full equation is
//     tau*dq_b/dt + res_b = 0,
// i.e. Residual fills the part without the time derivative; for an
// algebraic (quasi-stationary) state the full equation is res_b = 0.
type Model interface {

	// Init initialises the model for nComp components with nBound bound
	// states per component
	Init(nComp int, nBound []int, prms dbf.Params) error

	// NumBound returns the number of bound states per component
	NumBound() []int

	// HasAlgebraicEquations tells whether some bound states are
	// quasi-stationary
	HasAlgebraicEquations() bool

	// AlgebraicBlock returns the offset and length of the contiguous
	// algebraic sub-block within the bound states of one shell
	AlgebraicBlock() (start, length int)

	// Residual evaluates the bound-state residual of a single shell
	Residual(t, z, r float64, secIdx int, cp, q, res []float64)

	// ResidualAD is Residual on AD scalars; parameter seeds installed via
	// SetSensParam are honoured
	ResidualAD(t, z, r float64, secIdx int, cp, q, res []ad.Scalar)

	// Jacobian adds the analytic Jacobian of the shell residual onto the
	// band rows spanned by jac, which is positioned at the first bound
	// state row of the shell. strideLiquid is the number of liquid DOFs
	// preceding the bound states within the shell.
	Jacobian(t, z, r float64, secIdx int, cp, q []float64, strideLiquid int, jac linalg.RowIterator)

	// JacobianAddDiscretized adds factor * dRes/dqDot onto the rows
	// spanned by jac (factor on the diagonal of kinetic rows, nothing on
	// algebraic rows)
	JacobianAddDiscretized(factor float64, jac linalg.RowIterator)

	// ConsistentInitialState solves the algebraic equations of one shell
	// for the bound states q, given the fixed liquid phase cp. The dense
	// matrix and the workspace ws (length WorkspaceSize) are borrowed.
	ConsistentInitialState(t, z, r float64, secIdx int, cp, q []float64, errTol float64, ws []float64, jac linalg.DenseView) error

	// WorkspaceSize returns the scratch length needed per concurrent call
	// of ConsistentInitialState
	WorkspaceSize() int

	// AlgebraicTimeDerivative fills dFdt with the explicit time derivative
	// of the algebraic residual rows and returns true, or returns false
	// when the residual has no explicit time dependence
	AlgebraicTimeDerivative(t, z, r float64, secIdx int, cp, q, dFdt []float64) bool

	// SetSensParam assigns AD direction dir to the named model parameter;
	// returns false if the parameter is unknown to this model
	SetSensParam(name string, comp, dir int) bool

	// ClearSensParams removes all AD seeds
	ClearSensParams()
}

// New returns a binding model from the database
func New(name string) (model Model, err error) {
	allocator, ok := allocators[name]
	if !ok {
		return nil, chk.Err("binding model %q is not available in database", name)
	}
	return allocator(), nil
}

// allocators holds all available models
var allocators = map[string]func() Model{}

// paramSeeds tracks the AD directions of sensitive model parameters; all
// concrete models embed it
type paramSeeds struct {
	seeds map[string]int // "name/comp" => direction
}

// seed stores the direction assignment; models call it after validating
// the parameter name
func (o *paramSeeds) seed(name string, comp, dir int) bool {
	if o.seeds == nil {
		o.seeds = make(map[string]int)
	}
	o.seeds[seedKey(name, comp)] = dir
	return true
}

func (o *paramSeeds) ClearSensParams() {
	o.seeds = nil
}

// prm returns the parameter (name,comp) with value v as an AD scalar,
// seeded if the parameter is sensitive. nd is the number of directions.
func (o *paramSeeds) prm(name string, comp int, v float64, nd int) ad.Scalar {
	if o.seeds != nil {
		if dir, ok := o.seeds[seedKey(name, comp)]; ok {
			return ad.NewSeed(v, nd, dir)
		}
	}
	return ad.Const(v)
}

func seedKey(name string, comp int) string {
	if comp < 0 {
		return name
	}
	return name + "/" + itoa(comp)
}

// readVec extracts the per-component parameters name0..name{n-1}
func readVec(prms dbf.Params, name string, n int) (vals []float64, err error) {
	vals = make([]float64, n)
	for i := 0; i < n; i++ {
		p := prms.Find(name + itoa(i))
		if p == nil {
			return nil, chk.Err("binding model: parameter %q is missing", name+itoa(i))
		}
		vals[i] = p.V
	}
	return
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i/10) + string(rune('0'+i%10))
}
