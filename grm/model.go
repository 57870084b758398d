// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gochrom/binding"
	"github.com/cpmech/gochrom/linalg"
)

// InletFunc yields the inlet concentration of one component over time. Any
// gosl fun.TimeSpace function satisfies this interface.
type InletFunc interface {
	F(t float64, x []float64) float64
}

// Model holds a configured general rate model of one chromatographic
// column: discretization, transport parameters, the binding model, the
// persistent Jacobian blocks, and the scratch memory of the solver core.
// The time integrator owns the state vectors; the model borrows them per
// call. Concurrent calls into the same model are forbidden.
type Model struct {

	// discretization
	NComp  int   // number of components
	NCol   int   // number of column (axial) cells
	NPar   int   // number of particle (radial) shells
	NBound []int // number of bound states per component

	// column transport
	ColLength     float64   // column length
	Velocity      float64   // interstitial velocity
	ColDispersion []float64 // axial dispersion, per section (length 1 if constant)
	ColPorosity   float64   // column (interstitial) porosity

	// particle geometry and transport
	ParRadius        float64     // particle radius
	ParPorosity      float64     // particle porosity
	FilmDiffusion    [][]float64 // [sec][comp] film diffusion coefficients
	ParDiffusion     [][]float64 // [sec][comp] pore diffusion coefficients
	ParSurfDiffusion [][]float64 // [sec][bound] surface diffusion coefficients

	// inlet profile per component
	Inlet []InletFunc

	// binding model
	Binding binding.Model

	// solver settings
	SchurSafety float64 // safety factor for the inner GMRES tolerance
	MaxKrylov   int     // maximum Krylov subspace size (0 = flux block size)
	MaxRestarts int     // maximum number of GMRES restarts

	// initial values
	InitC     []float64 // [NComp] initial bulk concentrations
	InitCp    []float64 // [NComp] initial particle liquid (defaults to InitC)
	InitQ     []float64 // [strideBound] initial bound states
	InitState []float64 // optional full initial state (len nDof or 2*nDof)

	// derived: indexing and geometry
	idxr          Indexer
	parCellRadius []float64 // [NPar] shell center radii
	parOuterFac   []float64 // [NPar] 3*ro^2/((ro^3-ri^3)*dr)
	parInnerFac   []float64 // [NPar] 3*ri^2/((ro^3-ri^3)*dr)
	fluxFacPar    float64   // 3*rp^2/(eps_p*(ro0^3-ri0^3)); multiplies j_f in shell 0
	colAccel      float64   // 3/rp*(1-eps_c)/eps_c; multiplies j_f in the bulk
	invBetaP      float64   // 1/eps_p - 1

	// jacobian storage
	jacC     []linalg.BandMatrix             // [NComp] bulk convection-dispersion blocks
	jacCdisc []linalg.FactorizableBandMatrix // [NComp] time-discretized + factorized
	jacP     []linalg.BandMatrix             // [NCol] particle blocks
	jacPdisc []linalg.FactorizableBandMatrix // [NCol] time-discretized + factorized
	jacCF    linalg.SparseMatrix             // bulk rows <- flux columns
	jacFC    linalg.SparseMatrix             // flux rows <- bulk columns
	jacPF    []linalg.SparseMatrix           // [NCol] particle rows <- flux columns
	jacFP    []linalg.SparseMatrix           // [NCol] flux rows <- particle columns

	factorizeJacobian bool // discretized blocks must be rebuilt before the next solve

	// solver scratch
	gmres     linalg.Gmres
	tempState []float64

	// parallel execution and timing
	Exec   *Executor
	Timers TimerSet

	// sensitivities
	sensParams []SensParam

	// internal
	solveErr *firstError // error slot of the active LinearSolve call
	bres     []float64   // [strideBound] binding residual scratch
}

// SensParam identifies a sensitive parameter and its AD direction
type SensParam struct {
	Name string // parameter name, e.g. "col_dispersion", "film_diffusion", "ka"
	Comp int    // component index or -1
	Dir  int    // assigned AD direction
}

// Init validates the configuration and allocates all persistent storage.
// The matrices are sized once here; Init must be called again after any
// reconfiguration of the discretization.
func (o *Model) Init(exec *Executor) (err error) {

	// validate
	if o.NComp < 1 || o.NCol < 1 || o.NPar < 1 {
		return chk.Err("model: invalid discretization. nComp=%d nCol=%d nPar=%d", o.NComp, o.NCol, o.NPar)
	}
	if len(o.NBound) != o.NComp {
		return chk.Err("model: NBound must have %d entries. len=%d", o.NComp, len(o.NBound))
	}
	if o.Binding == nil {
		return chk.Err("model: binding model is missing")
	}
	if len(o.Inlet) != o.NComp {
		return chk.Err("model: one inlet function per component is required. %d != %d", len(o.Inlet), o.NComp)
	}
	if o.ColPorosity <= 0 || o.ColPorosity >= 1 || o.ParPorosity <= 0 || o.ParPorosity >= 1 {
		return chk.Err("model: porosities must lie in (0,1). eps_c=%g eps_p=%g", o.ColPorosity, o.ParPorosity)
	}
	if o.ParRadius <= 0 || o.ColLength <= 0 {
		return chk.Err("model: geometry must be positive. length=%g rp=%g", o.ColLength, o.ParRadius)
	}
	if len(o.ColDispersion) < 1 || len(o.FilmDiffusion) < 1 || len(o.ParDiffusion) < 1 {
		return chk.Err("model: transport parameters are missing")
	}
	for _, kf := range o.FilmDiffusion {
		if len(kf) != o.NComp {
			return chk.Err("model: film diffusion needs %d entries per section. len=%d", o.NComp, len(kf))
		}
	}
	for _, dp := range o.ParDiffusion {
		if len(dp) != o.NComp {
			return chk.Err("model: pore diffusion needs %d entries per section. len=%d", o.NComp, len(dp))
		}
	}
	if o.SchurSafety <= 0 {
		o.SchurSafety = 1e-2
	}
	if o.MaxRestarts < 1 {
		o.MaxRestarts = 10
	}

	// indexing
	o.idxr = NewIndexer(o.NComp, o.NCol, o.NPar, o.NBound)
	sb := o.idxr.StrideParBound()
	if len(o.ParSurfDiffusion) < 1 {
		o.ParSurfDiffusion = [][]float64{make([]float64, sb)}
	}
	for _, ds := range o.ParSurfDiffusion {
		if len(ds) != sb {
			return chk.Err("model: surface diffusion needs %d entries per section. len=%d", sb, len(ds))
		}
	}
	if len(o.InitC) > 0 && len(o.InitC) < o.NComp {
		return chk.Err("model: INIT_C does not contain enough values for all components. %d < %d", len(o.InitC), o.NComp)
	}
	if len(o.InitQ) > 0 && len(o.InitQ) < sb {
		return chk.Err("model: INIT_Q does not contain enough values for all bound states. %d < %d", len(o.InitQ), sb)
	}

	// particle geometry: shell 0 is the outermost shell
	dr := o.ParRadius / float64(o.NPar)
	o.parCellRadius = make([]float64, o.NPar)
	o.parOuterFac = make([]float64, o.NPar)
	o.parInnerFac = make([]float64, o.NPar)
	for j := 0; j < o.NPar; j++ {
		ro := o.ParRadius - float64(j)*dr
		ri := ro - dr
		dv := ro*ro*ro - ri*ri*ri
		o.parCellRadius[j] = ro - dr/2.0
		o.parOuterFac[j] = 3.0 * ro * ro / (dv * dr)
		o.parInnerFac[j] = 3.0 * ri * ri / (dv * dr)
	}
	ro0 := o.ParRadius
	ri0 := o.ParRadius - dr
	o.fluxFacPar = 3.0 * ro0 * ro0 / (o.ParPorosity * (ro0*ro0*ro0 - ri0*ri0*ri0))
	o.colAccel = 3.0 / o.ParRadius * (1.0 - o.ColPorosity) / o.ColPorosity
	o.invBetaP = 1.0/o.ParPorosity - 1.0

	// jacobian storage
	ss := o.idxr.StrideParShell()
	o.jacC = make([]linalg.BandMatrix, o.NComp)
	o.jacCdisc = make([]linalg.FactorizableBandMatrix, o.NComp)
	for i := range o.jacC {
		o.jacC[i].Init(o.NCol, 1, 1)
		o.jacCdisc[i].Init(o.NCol, 1, 1)
	}
	o.jacP = make([]linalg.BandMatrix, o.NCol)
	o.jacPdisc = make([]linalg.FactorizableBandMatrix, o.NCol)
	for k := range o.jacP {
		o.jacP[k].Init(o.idxr.StrideParBlock(), ss, ss)
		o.jacPdisc[k].Init(o.idxr.StrideParBlock(), ss, ss)
	}
	o.jacPF = make([]linalg.SparseMatrix, o.NCol)
	o.jacFP = make([]linalg.SparseMatrix, o.NCol)

	// solver scratch
	nflux := o.NCol * o.NComp
	o.tempState = make([]float64, o.idxr.NumDofs())
	o.bres = make([]float64, sb)
	o.gmres.Init(nflux, o.MaxKrylov, o.MaxRestarts)
	o.gmres.SetOperator(o.schurComplementMatrixVector)

	if exec == nil {
		exec = NewExecutor(0)
	}
	o.Exec = exec
	o.factorizeJacobian = true

	// flux couplings of the first section
	o.AssembleFluxJacobians(0)
	return
}

// NumDofs returns the total number of degrees of freedom
func (o *Model) NumDofs() int { return o.idxr.NumDofs() }

// Indexer returns the DOF indexer
func (o *Model) Indexer() *Indexer { return &o.idxr }

// HasSectionDependentParTransport tells whether pore or surface diffusion
// change across sections (which invalidates the lean initialization)
func (o *Model) HasSectionDependentParTransport() bool {
	return len(o.ParDiffusion) > 1 || len(o.ParSurfDiffusion) > 1
}

// secVal picks the entry of a per-section scalar parameter
func secVal(vals []float64, secIdx int) float64 {
	if secIdx >= len(vals) {
		return vals[len(vals)-1]
	}
	return vals[secIdx]
}

// secVec picks the entry of a per-section vector parameter
func secVec(vals [][]float64, secIdx int) []float64 {
	if secIdx >= len(vals) {
		return vals[len(vals)-1]
	}
	return vals[secIdx]
}

// AssembleFluxJacobians rebuilds the sparse coupling blocks for the given
// section. Their sparsity is fixed; only the film coefficients change at
// section transitions.
func (o *Model) AssembleFluxJacobians(secIdx int) {
	kf := secVec(o.FilmDiffusion, secIdx)
	idxr := &o.idxr

	o.jacFC.Reset()
	o.jacCF.Reset()
	for k := range o.jacFP {
		o.jacFP[k].Reset()
		o.jacPF[k].Reset()
	}

	for i := 0; i < o.NComp; i++ {
		for k := 0; k < o.NCol; k++ {
			f := i*o.NCol + k // local flux row

			// flux equation: j_f - k_f*(c - c_p|outer) = 0
			o.jacFC.Add(f, idxr.OffsetC(i, k), -kf[i])
			o.jacFP[k].Add(f, i, kf[i]) // shell 0 liquid DOF i

			// bulk equation: + colAccel * j_f
			o.jacCF.Add(idxr.OffsetC(i, k), f, o.colAccel)

			// outermost shell liquid equation: - fluxFacPar * j_f
			o.jacPF[k].Add(i, f, -o.fluxFacPar)
		}
	}
}

// SetSensitiveParameter registers a sensitive parameter under AD direction
// dir. Transport parameters are matched first; unknown names are forwarded
// to the binding model. Returns an error for a name nobody claims.
func (o *Model) SetSensitiveParameter(name string, comp, dir int) (err error) {
	switch name {
	case "col_dispersion", "velocity", "film_diffusion", "par_diffusion", "par_surfdiffusion":
		o.sensParams = append(o.sensParams, SensParam{Name: name, Comp: comp, Dir: dir})
		return
	}
	if o.Binding.SetSensParam(name, comp, dir) {
		o.sensParams = append(o.sensParams, SensParam{Name: name, Comp: comp, Dir: dir})
		return
	}
	return chk.Err("model: unknown sensitive parameter %q (comp=%d)", name, comp)
}

// ClearSensitiveParameters removes all registered sensitive parameters
func (o *Model) ClearSensitiveParameters() {
	o.sensParams = o.sensParams[:0]
	o.Binding.ClearSensParams()
}

// NumSensParams returns the number of registered sensitive parameters
func (o *Model) NumSensParams() int { return len(o.sensParams) }

// sensDir looks up the AD direction of a transport parameter, or -1
func (o *Model) sensDir(name string, comp int) int {
	for _, sp := range o.sensParams {
		if sp.Name == name && (sp.Comp == comp || sp.Comp < 0) {
			return sp.Dir
		}
	}
	return -1
}

// ApplyInitialCondition fills y (and possibly yDot) from the configured
// initial values. A full InitState vector takes precedence; it may also
// carry the time derivative, in which case skipConsistency is advised.
func (o *Model) ApplyInitialCondition(y, yDot []float64) (err error) {
	idxr := &o.idxr
	ndof := idxr.NumDofs()

	if len(o.InitState) > 0 {
		if len(o.InitState) < ndof {
			return chk.Err("model: INIT_STATE does not contain the full state. %d < %d", len(o.InitState), ndof)
		}
		copy(y, o.InitState[:ndof])
		if len(o.InitState) >= 2*ndof {
			copy(yDot, o.InitState[ndof:2*ndof])
		}
		return
	}
	if len(o.InitC) < o.NComp {
		return chk.Err("model: INIT_C does not contain enough values for all components")
	}
	initCp := o.InitCp
	if len(initCp) == 0 {
		initCp = o.InitC
	}

	// bulk
	for i := 0; i < o.NComp; i++ {
		for k := 0; k < o.NCol; k++ {
			y[idxr.OffsetC(i, k)] = o.InitC[i]
		}
	}

	// particles
	for k := 0; k < o.NCol; k++ {
		for j := 0; j < o.NPar; j++ {
			off := idxr.OffsetCp(k) + j*idxr.StrideParShell()
			for i := 0; i < o.NComp; i++ {
				y[off+i] = initCp[i]
			}
			for b := 0; b < idxr.StrideParBound(); b++ {
				if len(o.InitQ) > 0 {
					y[off+idxr.StrideParLiquid()+b] = o.InitQ[b]
				} else {
					y[off+idxr.StrideParLiquid()+b] = 0
				}
			}
		}
	}

	// fluxes start at zero; the consistent initialization fixes them
	for f := idxr.OffsetJf(); f < ndof; f++ {
		y[f] = 0
	}
	return
}
