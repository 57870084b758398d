// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"math"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gochrom/ad"
	"github.com/cpmech/gochrom/grm"
)

// Consistent initialization modes at section starts
const (
	InitFull = "full" // solve algebraic equations and time derivatives
	InitLean = "lean" // fix only bulk and flux subsystems
	InitNone = "none" // trust the supplied state and derivative
)

// Recorder receives the solution at every requested solution time. The
// borrowed slices are only valid during the call.
type Recorder interface {
	Solution(t float64, y, yDot []float64)
	Sensitivity(param int, t float64, s, sDot []float64)
}

// Simulator drives the time integration of a configured model over the
// simulation sections. It owns the state vectors and the sensitivity
// subsystem vectors; the model is borrowed.
type Simulator struct {

	// configuration
	Model             *grm.Model
	RelTol            float64   // relative tolerance of the error test
	AbsTol            float64   // absolute tolerance of the error test
	AlgTol            float64   // tolerance of the algebraic consistency solves
	InitStep          float64   // initial step size
	MaxSteps          int       // maximum number of steps per section
	SectionTimes      []float64 // section boundaries (ascending, >= 2 entries)
	SectionContinuity []bool    // [nsec-1] true if the transition is smooth
	SolutionTimes     []float64 // times at which the recorder is invoked
	ConsistentInit    string    // InitFull, InitLean, or InitNone
	ShowMsg           bool      // print progress messages

	// recorder
	recorder Recorder

	// state (owned)
	y    []float64
	yDot []float64

	// sensitivities (owned)
	sensY     [][]float64
	sensYdot  [][]float64
	sensYprev [][]float64
	sensDirs  []int
	absTolS   []float64
	adRes     []ad.Scalar

	skipConsistency bool
	haveState       bool
	lastIntTime     float64
}

// NewSimulator returns a simulator bound to a configured model
func NewSimulator(mdl *grm.Model) *Simulator {
	return &Simulator{
		Model:          mdl,
		RelTol:         1e-6,
		AbsTol:         1e-8,
		AlgTol:         1e-10,
		InitStep:       1e-6,
		MaxSteps:       100000,
		ConsistentInit: InitFull,
	}
}

// ConfigureTimeIntegrator sets the main integration tolerances
func (o *Simulator) ConfigureTimeIntegrator(relTol, absTol, initStep float64, maxSteps int) {
	o.RelTol, o.AbsTol, o.InitStep, o.MaxSteps = relTol, absTol, initStep, maxSteps
}

// SetSolutionRecorder installs the recorder callback
func (o *Simulator) SetSolutionRecorder(rec Recorder) { o.recorder = rec }

// SetSectionTimes sets the section boundaries and their continuity flags
// (continuity may be nil: all transitions are treated as discontinuous)
func (o *Simulator) SetSectionTimes(times []float64, continuity []bool) {
	o.SectionTimes = times
	o.SectionContinuity = continuity
}

// SetSolutionTimes sets the output times
func (o *Simulator) SetSolutionTimes(times []float64) { o.SolutionTimes = times }

// SetInitialCondition supplies the initial state directly. With a non-nil
// yDot0 the consistent initialization of the first section is skipped;
// later discontinuous section transitions are still initialized.
func (o *Simulator) SetInitialCondition(y0, yDot0 []float64) {
	o.allocState()
	copy(o.y, y0)
	o.haveState = true
	if yDot0 != nil {
		copy(o.yDot, yDot0)
		o.skipConsistency = true
	}
}

// SetSensitiveParameter registers a parameter for forward sensitivity
// analysis and assigns it the next AD direction
func (o *Simulator) SetSensitiveParameter(name string, comp int, absTolS float64) (err error) {
	dir := len(o.sensDirs)
	err = o.Model.SetSensitiveParameter(name, comp, dir)
	if err != nil {
		return
	}
	o.sensDirs = append(o.sensDirs, dir)
	o.absTolS = append(o.absTolS, absTolS)
	ndof := o.Model.NumDofs()
	o.sensY = append(o.sensY, make([]float64, ndof))
	o.sensYdot = append(o.sensYdot, make([]float64, ndof))
	o.sensYprev = append(o.sensYprev, make([]float64, ndof))
	return
}

// LastSolution returns the state and its derivative after Integrate
func (o *Simulator) LastSolution() (y, yDot []float64) { return o.y, o.yDot }

// LastSensitivities returns one state vector per registered parameter
func (o *Simulator) LastSensitivities() [][]float64 { return o.sensY }

// LastSimulationDuration returns the wall-clock seconds of the last run
func (o *Simulator) LastSimulationDuration() float64 { return o.lastIntTime }

func (o *Simulator) allocState() {
	if o.y == nil {
		ndof := o.Model.NumDofs()
		o.y = make([]float64, ndof)
		o.yDot = make([]float64, ndof)
	}
}

// Integrate runs the outer time loop over all sections, performing the
// consistent initialization at discontinuous section transitions and
// invoking the recorder at the requested solution times
func (o *Simulator) Integrate() (err error) {

	cputime := time.Now()
	defer func() { o.lastIntTime = time.Since(cputime).Seconds() }()

	mdl := o.Model
	if len(o.SectionTimes) < 2 {
		return chk.Err("simulator: at least one section [t0,t1] is required")
	}
	o.allocState()
	if !o.haveState {
		err = mdl.ApplyInitialCondition(o.y, o.yDot)
		if err != nil {
			return
		}
		o.haveState = true
	}

	nsens := mdl.NumSensParams()
	if nsens > 0 && o.adRes == nil {
		o.adRes = ad.NewVector(mdl.NumDofs(), mdl.NumAdDirs())
	}

	outIdx := 0
	timeFactor := 1.0

	for sec := 0; sec < len(o.SectionTimes)-1; sec++ {
		t0, t1 := o.SectionTimes[sec], o.SectionTimes[sec+1]
		if o.ShowMsg {
			io.Pf("> Section %d: [%g, %g]\n", sec, t0, t1)
		}

		// section-dependent couplings
		mdl.AssembleFluxJacobians(sec)
		mdl.InvalidateJacobian()

		// consistency at the start of a discontinuous section
		discont := sec == 0 || o.SectionContinuity == nil || !o.SectionContinuity[sec-1]
		if discont && !o.skipConsistency {
			err = o.initializeSection(t0, sec, timeFactor, nsens)
			if err != nil {
				return
			}
		}

		// record the section start if requested
		for outIdx < len(o.SolutionTimes) && o.SolutionTimes[outIdx] <= t0+1e-14 {
			o.record(o.SolutionTimes[outIdx])
			outIdx++
		}

		// time loop
		stepper := newBdf(o, sec, t0, o.InitStep)
		nsteps := 0
		for stepper.t < t1-1e-14*math.Max(1.0, t1) {

			// do not step across the next output time
			tTarget := t1
			if outIdx < len(o.SolutionTimes) && o.SolutionTimes[outIdx] < t1 {
				tTarget = o.SolutionTimes[outIdx]
			}

			err = stepper.step(tTarget)
			if err != nil {
				return
			}
			if nsens > 0 {
				err = stepper.propagateSensitivities(o.adRes)
				if err != nil {
					return
				}
			}
			nsteps++
			if nsteps > o.MaxSteps {
				return chk.Err("simulator: maximum number of steps (%d) exceeded in section %d", o.MaxSteps, sec)
			}

			// outputs reached by this step
			for outIdx < len(o.SolutionTimes) && o.SolutionTimes[outIdx] <= stepper.t+1e-14 {
				o.record(o.SolutionTimes[outIdx])
				outIdx++
			}
		}
		o.skipConsistency = false
	}
	return
}

// initializeSection performs the configured consistency procedure and the
// sensitivity initialization at a section start
func (o *Simulator) initializeSection(t0 float64, sec int, timeFactor float64, nsens int) (err error) {
	mdl := o.Model

	switch o.ConsistentInit {
	case InitFull:
		err = mdl.ConsistentInitialConditions(t0, sec, timeFactor, o.y, o.yDot, o.AlgTol)
	case InitLean:
		err = mdl.LeanConsistentInitialConditions(t0, sec, timeFactor, o.y, o.yDot, o.AlgTol)
	case InitNone:
	default:
		err = chk.Err("simulator: unknown consistent initialization mode %q", o.ConsistentInit)
	}
	if err != nil {
		return
	}

	if nsens > 0 {
		// refresh the Jacobians and parameter derivatives at (y, yDot)
		res := make([]float64, mdl.NumDofs())
		err = mdl.Residual(t0, sec, timeFactor, o.y, o.yDot, res, true)
		if err != nil {
			return
		}
		err = mdl.ResidualAD(t0, sec, timeFactor, o.y, o.yDot, o.adRes)
		if err != nil {
			return
		}
		err = mdl.ConsistentInitialSensitivity(t0, sec, timeFactor, o.y, o.yDot, o.sensY, o.sensYdot, o.adRes)
		if err != nil {
			return
		}
		for p := range o.sensYprev {
			copy(o.sensYprev[p], o.sensY[p])
		}
	}
	return
}

// record invokes the recorder (if any)
func (o *Simulator) record(t float64) {
	if o.recorder == nil {
		return
	}
	o.recorder.Solution(t, o.y, o.yDot)
	for p := range o.sensY {
		o.recorder.Sensitivity(p, t, o.sensY[p], o.sensYdot[p])
	}
}

