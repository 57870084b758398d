// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a (.sim) JSON file
package inp

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gochrom/binding"
	"github.com/cpmech/gochrom/grm"
)

// Data holds global data for simulations
type Data struct {
	Desc    string `json:"desc"`    // description of simulation
	DirOut  string `json:"dirout"`  // directory for output; e.g. /tmp/gochrom
	Encoder string `json:"encoder"` // encoder name; e.g. "json" or "gob"
}

// ColumnData holds the column geometry and bulk transport parameters
type ColumnData struct {
	Length     float64   `json:"length"`     // column length
	Velocity   float64   `json:"velocity"`   // interstitial velocity
	Dispersion []float64 `json:"dispersion"` // axial dispersion (1 entry or one per section)
	Porosity   float64   `json:"porosity"`   // column porosity
	NCells     int       `json:"ncells"`     // number of axial cells
}

// ParticleData holds the bead geometry
type ParticleData struct {
	Radius   float64 `json:"radius"`   // particle radius
	Porosity float64 `json:"porosity"` // particle porosity
	NShells  int     `json:"nshells"`  // number of radial shells
}

// ComponentData holds per-component transport and initial values
type ComponentData struct {
	Name          string    `json:"name"`          // component name
	FilmDiffusion []float64 `json:"kfilm"`         // film diffusion (1 entry or one per section)
	ParDiffusion  []float64 `json:"dpore"`         // pore diffusion (1 entry or one per section)
	SurfDiffusion []float64 `json:"dsurf"`         // surface diffusion per bound state (optional)
	NBound        int       `json:"nbound"`        // number of bound states
	InitC         float64   `json:"initc"`         // initial bulk concentration
	InitCP        *float64  `json:"initcp"`        // initial particle liquid (defaults to initc)
	InitQ         []float64 `json:"initq"`         // initial bound states
	InletFuncs    []string  `json:"inlet"`         // inlet function name per section
}

// BindingData selects and parameterizes the binding model
type BindingData struct {
	Model string   `json:"model"` // model name; e.g. "linear", "langmuir", "sma"
	Prms  fun.Prms `json:"prms"`  // model parameters
}

// TimeData holds sections and output times
type TimeData struct {
	SectionTimes      []float64 `json:"sections"`   // section boundaries
	SectionContinuity []bool    `json:"continuity"` // transition smoothness flags
	SolutionTimes     []float64 `json:"solution"`   // output times
}

// SolverData holds solver settings
type SolverData struct {
	RelTol         float64 `json:"rtol"`        // relative tolerance
	AbsTol         float64 `json:"atol"`        // absolute tolerance
	AlgTol         float64 `json:"algtol"`      // algebraic consistency tolerance
	InitStep       float64 `json:"dt0"`         // initial step size
	MaxSteps       int     `json:"maxsteps"`    // maximum steps per section
	SchurSafety    float64 `json:"schursafety"` // safety factor of the inner GMRES tolerance
	MaxKrylov      int     `json:"maxkrylov"`   // maximum Krylov subspace size
	MaxRestarts    int     `json:"maxrestarts"` // maximum GMRES restarts
	Nthreads       int     `json:"nthreads"`    // worker count (0 = all cores)
	ConsistentInit string  `json:"consistent"`  // "full", "lean", or "none"
}

// SensParamData registers a sensitive parameter
type SensParamData struct {
	Name   string  `json:"name"`   // parameter name
	Comp   int     `json:"comp"`   // component index or -1
	AbsTol float64 `json:"atol"`   // absolute tolerance of the sensitivity system
}

// Simulation holds all simulation data
type Simulation struct {

	// input
	Data          Data            `json:"data"`
	Column        ColumnData      `json:"column"`
	Particle      ParticleData    `json:"particle"`
	Components    []ComponentData `json:"components"`
	Binding       BindingData     `json:"binding"`
	Functions     FuncsData       `json:"functions"`
	Time          TimeData        `json:"time"`
	Solver        SolverData      `json:"solver"`
	Sensitivities []SensParamData `json:"sensitivities"`

	// derived
	Key string // simulation key = filename without path and extension
}

// ReadSim reads a simulation file
func ReadSim(simfilepath string) (o *Simulation, err error) {

	// read file
	b, err := io.ReadFile(simfilepath)
	if err != nil {
		return nil, chk.Err("cannot read simulation file %q:\n%v", simfilepath, err)
	}

	// decode
	o = new(Simulation)
	err = json.Unmarshal(b, o)
	if err != nil {
		return nil, chk.Err("cannot parse simulation file %q:\n%v", simfilepath, err)
	}

	// derived data
	fn := filepath.Base(simfilepath)
	o.Key = strings.TrimSuffix(fn, filepath.Ext(fn))
	if o.Data.DirOut == "" {
		o.Data.DirOut = "/tmp/gochrom"
	}
	if o.Data.Encoder == "" {
		o.Data.Encoder = "json"
	}

	// validate
	if len(o.Components) < 1 {
		return nil, chk.Err("simulation file %q has no components", simfilepath)
	}
	if len(o.Time.SectionTimes) < 2 {
		return nil, chk.Err("simulation file %q needs at least one time section", simfilepath)
	}
	return
}

// nsecOf returns the widest per-section parameter length of the input
func (o *Simulation) nsecOf(get func(c *ComponentData) []float64) (n int) {
	n = 1
	for i := range o.Components {
		if l := len(get(&o.Components[i])); l > n {
			n = l
		}
	}
	return
}

// pick returns the per-section entry of a possibly constant parameter
func pick(vals []float64, sec int) float64 {
	if len(vals) == 0 {
		return 0
	}
	if sec >= len(vals) {
		return vals[len(vals)-1]
	}
	return vals[sec]
}

// MakeModel allocates and configures the column model from the input data
func (o *Simulation) MakeModel() (mdl *grm.Model, err error) {

	ncomp := len(o.Components)
	nsec := len(o.Time.SectionTimes) - 1

	// binding model
	nbound := make([]int, ncomp)
	for i := range o.Components {
		nbound[i] = o.Components[i].NBound
	}
	bnd, err := binding.New(o.Binding.Model)
	if err != nil {
		return
	}
	err = bnd.Init(ncomp, nbound, o.Binding.Prms)
	if err != nil {
		return
	}

	// per-section transport tables
	nkf := o.nsecOf(func(c *ComponentData) []float64 { return c.FilmDiffusion })
	ndp := o.nsecOf(func(c *ComponentData) []float64 { return c.ParDiffusion })
	nds := o.nsecOf(func(c *ComponentData) []float64 { return c.SurfDiffusion })
	kf := make([][]float64, nkf)
	dp := make([][]float64, ndp)
	for s := 0; s < nkf; s++ {
		kf[s] = make([]float64, ncomp)
		for i := range o.Components {
			kf[s][i] = pick(o.Components[i].FilmDiffusion, s)
		}
	}
	for s := 0; s < ndp; s++ {
		dp[s] = make([]float64, ncomp)
		for i := range o.Components {
			dp[s][i] = pick(o.Components[i].ParDiffusion, s)
		}
	}
	sb := 0
	for _, nb := range nbound {
		sb += nb
	}
	ds := make([][]float64, nds)
	for s := 0; s < nds; s++ {
		ds[s] = make([]float64, sb)
		b := 0
		for i := range o.Components {
			for j := 0; j < nbound[i]; j++ {
				ds[s][b] = pick(o.Components[i].SurfDiffusion, s)
				b++
			}
		}
	}

	// inlet functions (switching per section)
	inlet := make([]grm.InletFunc, ncomp)
	for i := range o.Components {
		names := o.Components[i].InletFuncs
		if len(names) == 0 {
			names = []string{"zero"}
		}
		fcns := make([]fun.TimeSpace, 0, nsec)
		for s := 0; s < nsec; s++ {
			name := names[len(names)-1]
			if s < len(names) {
				name = names[s]
			}
			fcn, e := o.Functions.Get(name)
			if e != nil {
				return nil, e
			}
			fcns = append(fcns, fcn)
		}
		inlet[i] = &sectionFunc{times: o.Time.SectionTimes, fcns: fcns}
	}

	// initial values
	initC := make([]float64, ncomp)
	initCp := make([]float64, ncomp)
	initQ := make([]float64, sb)
	b := 0
	for i := range o.Components {
		initC[i] = o.Components[i].InitC
		initCp[i] = o.Components[i].InitC
		if o.Components[i].InitCP != nil {
			initCp[i] = *o.Components[i].InitCP
		}
		for j := 0; j < nbound[i]; j++ {
			if j < len(o.Components[i].InitQ) {
				initQ[b] = o.Components[i].InitQ[j]
			}
			b++
		}
	}

	// model
	mdl = &grm.Model{
		NComp:            ncomp,
		NCol:             o.Column.NCells,
		NPar:             o.Particle.NShells,
		NBound:           nbound,
		ColLength:        o.Column.Length,
		Velocity:         o.Column.Velocity,
		ColDispersion:    o.Column.Dispersion,
		ColPorosity:      o.Column.Porosity,
		ParRadius:        o.Particle.Radius,
		ParPorosity:      o.Particle.Porosity,
		FilmDiffusion:    kf,
		ParDiffusion:     dp,
		ParSurfDiffusion: ds,
		Inlet:            inlet,
		Binding:          bnd,
		SchurSafety:      o.Solver.SchurSafety,
		MaxKrylov:        o.Solver.MaxKrylov,
		MaxRestarts:      o.Solver.MaxRestarts,
		InitC:            initC,
		InitCp:           initCp,
		InitQ:            initQ,
	}
	err = mdl.Init(grm.NewExecutor(o.Solver.Nthreads))
	if err != nil {
		return nil, err
	}
	return
}
