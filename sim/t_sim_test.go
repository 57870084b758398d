// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gochrom/ana"
	"github.com/cpmech/gochrom/binding"
	"github.com/cpmech/gochrom/grm"
	"github.com/cpmech/gochrom/out"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// cteInlet is a constant inlet profile
type cteInlet struct{ c float64 }

func (o cteInlet) F(t float64, x []float64) float64 { return o.c }

// pulseInlet is a rectangular inlet pulse starting at t=0
type pulseInlet struct {
	c   float64
	dur float64
}

func (o pulseInlet) F(t float64, x []float64) float64 {
	if t < o.dur {
		return o.c
	}
	return 0
}

func prm(n string, v float64) *dbf.P {
	return &dbf.P{N: n, V: v}
}

// newPulseModel builds the two-component linear-isotherm column of the
// regression scenario: 16 cells, 4 shells, kinetic linear binding
func newPulseModel(tst *testing.T, ka0, dax float64) *grm.Model {
	bnd, err := binding.New("linear")
	if err != nil {
		tst.Fatalf("cannot allocate binding model:\n%v", err)
	}
	err = bnd.Init(2, []int{1, 1}, dbf.Params{
		prm("kinetic", 1),
		prm("ka0", ka0), prm("ka1", 2.0),
		prm("kd0", 1.0), prm("kd1", 1.0),
	})
	if err != nil {
		tst.Fatalf("cannot initialise binding model:\n%v", err)
	}
	mdl := &grm.Model{
		NComp:         2,
		NCol:          16,
		NPar:          4,
		NBound:        []int{1, 1},
		ColLength:     1.0,
		Velocity:      1e-3,
		ColDispersion: []float64{dax},
		ColPorosity:   0.4,
		ParRadius:     5e-5,
		ParPorosity:   0.3,
		FilmDiffusion: [][]float64{{1e-3, 1e-3}},
		ParDiffusion:  [][]float64{{1e-10, 1e-10}},
		Inlet:         []grm.InletFunc{cteInlet{1.0}, cteInlet{0.5}},
		Binding:       bnd,
		InitC:         []float64{0, 0},
		InitQ:         []float64{0, 0},
	}
	if err = mdl.Init(grm.NewExecutor(0)); err != nil {
		tst.Fatalf("cannot initialise model:\n%v", err)
	}
	return mdl
}

func Test_sim01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sim01. linear isotherm pulse vs analytic solution")

	mdl := newPulseModel(tst, 2.0, 1e-5)
	simu := NewSimulator(mdl)
	simu.ConfigureTimeIntegrator(1e-7, 1e-9, 1e-2, 500000)

	// 100 s rectangular feed pulse via section switching
	mdl.Inlet = []grm.InletFunc{
		pulseInlet{1.0, 100.0}, pulseInlet{0.5, 100.0},
	}
	tEnd := 8000.0
	simu.SetSectionTimes([]float64{0, 100, tEnd}, []bool{false})
	times := make([]float64, 0, 301)
	for t := 0.0; t <= tEnd; t += 20.0 {
		times = append(times, t)
	}
	simu.SetSolutionTimes(times)

	rec := out.NewResults(2, 16, 0, false)
	simu.SetSolutionRecorder(rec)

	if err := simu.Integrate(); err != nil {
		tst.Errorf("integration failed:\n%v", err)
		return
	}

	// analytic reference: equilibrium-dispersive solution. The first-order
	// upwind discretization acts like additional axial dispersion of
	// u*h/2, which the reference has to carry to be comparable.
	h := mdl.ColLength / float64(mdl.NCol)
	daxEff := 1e-5 + mdl.Velocity*h/2.0
	for comp, cin := range []float64{1.0, 0.5} {
		sol := ana.LinearChromatography{
			Length: 1.0, U: 1e-3, Dax: daxEff,
			EpsC: 0.4, EpsP: 0.3, Keq: 2.0,
			Cin: cin, PulseT: 100.0,
		}
		sol.Init()

		tPeak, cMax := rec.PeakMax(comp)
		io.Pforan("comp %d: peak %g at t=%g (analytic %g at t=%g)\n", comp, cMax, tPeak, sol.PeakMax(), sol.PeakTime())

		// peak height within 10 percent of the dispersion-corrected
		// reference, peak position within one band width
		chk.AnaNum(tst, io.Sf("peak max %d", comp), 0.1*sol.PeakMax(), cMax, sol.PeakMax(), chk.Verbose)
		if math.Abs(tPeak-sol.PeakTime()) > sol.Sigma() {
			tst.Errorf("comp %d: peak at t=%g, expected near t=%g (sigma=%g)", comp, tPeak, sol.PeakTime(), sol.Sigma())
		}

		// retention: the band center (first moment) sits at tR + tp/2
		m0, m1 := 0.0, 0.0
		for n, t := range rec.Times {
			m0 += rec.Outlet[n][comp]
			m1 += rec.Outlet[n][comp] * t
		}
		center := m1 / m0
		chk.AnaNum(tst, io.Sf("band center %d", comp), 0.05*sol.PeakTime(), center, sol.PeakTime(), chk.Verbose)
	}

	// the column must be essentially clean again at the end
	last := rec.Outlet[len(rec.Outlet)-1]
	for comp, c := range last {
		if c > 1e-3 {
			tst.Errorf("comp %d: outlet not cleaned up at the end: %g", comp, c)
		}
	}
}

func Test_sim02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sim02. forward sensitivities vs finite differences")

	tEnd := 10.0
	run := func(ka0, dax float64, sens bool) (y []float64, s [][]float64) {
		mdl := newPulseModel(tst, ka0, dax)
		simu := NewSimulator(mdl)
		simu.ConfigureTimeIntegrator(1e-9, 1e-11, 1e-3, 100000)
		simu.SetSectionTimes([]float64{0, tEnd}, nil)
		simu.SetSolutionTimes([]float64{tEnd})
		if sens {
			if err := simu.SetSensitiveParameter("ka", 0, 1e-10); err != nil {
				tst.Fatalf("cannot register parameter:\n%v", err)
			}
			if err := simu.SetSensitiveParameter("col_dispersion", -1, 1e-10); err != nil {
				tst.Fatalf("cannot register parameter:\n%v", err)
			}
		}
		if err := simu.Integrate(); err != nil {
			tst.Fatalf("integration failed:\n%v", err)
		}
		yy, _ := simu.LastSolution()
		y = make([]float64, len(yy))
		copy(y, yy)
		return y, simu.LastSensitivities()
	}

	// analytic (AD-driven) sensitivities
	_, s := run(2.0, 1e-5, true)

	// central differences in ka of component 0
	dKa := 1e-3
	yp, _ := run(2.0+dKa, 1e-5, false)
	ym, _ := run(2.0-dKa, 1e-5, false)
	for i := range yp {
		fd := (yp[i] - ym[i]) / (2.0 * dKa)
		if diff := math.Abs(fd - s[0][i]); diff > 1e-6+1e-2*math.Abs(fd) {
			tst.Errorf("ka sensitivity mismatch at dof %d: fd=%g ad=%g", i, fd, s[0][i])
			return
		}
	}

	// central differences in the axial dispersion
	dDax := 1e-8
	yp, _ = run(2.0, 1e-5+dDax, false)
	ym, _ = run(2.0, 1e-5-dDax, false)
	for i := range yp {
		fd := (yp[i] - ym[i]) / (2.0 * dDax)
		if diff := math.Abs(fd - s[1][i]); diff > 1e-6+1e-2*math.Abs(fd) {
			tst.Errorf("dax sensitivity mismatch at dof %d: fd=%g ad=%g", i, fd, s[1][i])
			return
		}
	}
}
