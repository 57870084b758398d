// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gochrom/binding"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// cteInlet is a constant inlet profile
type cteInlet struct{ c float64 }

func (o cteInlet) F(t float64, x []float64) float64 { return o.c }

// pulseInlet is a rectangular pulse starting at t=0
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

// newLinearTestModel builds the two-component linear-isotherm column used
// throughout the solver tests (seeds from the regression scenarios)
func newLinearTestModel(tst *testing.T, nCol, nPar int, kinetic bool, nworkers int) *Model {
	kin := 0.0
	if kinetic {
		kin = 1.0
	}
	bnd, err := binding.New("linear")
	if err != nil {
		tst.Fatalf("cannot allocate binding model:\n%v", err)
	}
	err = bnd.Init(2, []int{1, 1}, dbf.Params{
		prm("kinetic", kin),
		prm("ka0", 2.0), prm("ka1", 2.0),
		prm("kd0", 1.0), prm("kd1", 1.0),
	})
	if err != nil {
		tst.Fatalf("cannot initialise binding model:\n%v", err)
	}

	mdl := &Model{
		NComp:         2,
		NCol:          nCol,
		NPar:          nPar,
		NBound:        []int{1, 1},
		ColLength:     0.017,
		Velocity:      1e-3,
		ColDispersion: []float64{1e-5},
		ColPorosity:   0.4,
		ParRadius:     5e-5,
		ParPorosity:   0.3,
		FilmDiffusion: [][]float64{{1e-3, 1e-3}},
		ParDiffusion:  [][]float64{{1e-10, 1e-10}},
		Inlet:         []InletFunc{pulseInlet{1.0, 100.0}, pulseInlet{0.5, 100.0}},
		Binding:       bnd,
		InitC:         []float64{0, 0},
		InitQ:         []float64{0, 0},
	}
	err = mdl.Init(NewExecutor(nworkers))
	if err != nil {
		tst.Fatalf("cannot initialise model:\n%v", err)
	}
	return mdl
}

// newLangmuirTestModel builds a dynamic-Langmuir column in binding
// equilibrium (no algebraic equations)
func newLangmuirTestModel(tst *testing.T, nworkers int) *Model {
	bnd, err := binding.New("langmuir")
	if err != nil {
		tst.Fatalf("cannot allocate binding model:\n%v", err)
	}
	err = bnd.Init(2, []int{1, 1}, dbf.Params{
		prm("ka0", 1.2), prm("ka1", 0.8),
		prm("kd0", 0.5), prm("kd1", 1.5),
		prm("qmax0", 8.0), prm("qmax1", 6.0),
	})
	if err != nil {
		tst.Fatalf("cannot initialise binding model:\n%v", err)
	}

	// an empty column: the particle residual vanishes exactly, so the
	// normal and lean pipelines must coincide bit for bit
	mdl := &Model{
		NComp:         2,
		NCol:          6,
		NPar:          3,
		NBound:        []int{1, 1},
		ColLength:     0.017,
		Velocity:      1e-3,
		ColDispersion: []float64{1e-5},
		ColPorosity:   0.4,
		ParRadius:     5e-5,
		ParPorosity:   0.3,
		FilmDiffusion: [][]float64{{1e-3, 1e-3}},
		ParDiffusion:  [][]float64{{1e-10, 1e-10}},
		Inlet:         []InletFunc{cteInlet{2.0}, cteInlet{0.1}},
		Binding:       bnd,
		InitC:         []float64{0, 0},
		InitQ:         []float64{0, 0},
	}
	err = mdl.Init(NewExecutor(nworkers))
	if err != nil {
		tst.Fatalf("cannot initialise model:\n%v", err)
	}
	return mdl
}

func Test_indexer01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("indexer01. strides and offsets")

	idxr := NewIndexer(2, 16, 4, []int{1, 1})
	chk.IntAssert(idxr.StrideColComp(), 16)
	chk.IntAssert(idxr.StrideParLiquid(), 2)
	chk.IntAssert(idxr.StrideParBound(), 2)
	chk.IntAssert(idxr.StrideParShell(), 4)
	chk.IntAssert(idxr.StrideParBlock(), 16)
	chk.IntAssert(idxr.OffsetC(0, 0), 0)
	chk.IntAssert(idxr.OffsetC(1, 3), 19)
	chk.IntAssert(idxr.OffsetCp(0), 32)
	chk.IntAssert(idxr.OffsetCp(2), 64)
	chk.IntAssert(idxr.OffsetJf(), 32+16*16)
	chk.IntAssert(idxr.NumDofs(), 2*16+16*4*(2+2)+16*2)
	chk.IntAssert(idxr.OffsetBoundComp(0), 0)
	chk.IntAssert(idxr.OffsetBoundComp(1), 1)
}

func Test_executor01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("executor01. fused fork-join covers both loops exactly once")

	exec := NewExecutor(4)
	n1, n2 := 13, 29
	hits1 := make([]int32, n1)
	hits2 := make([]int32, n2)
	exec.RunFused(n1, func(i, worker int) {
		hits1[i]++
	}, n2, func(i, worker int) {
		hits2[i]++
	})
	for i, h := range hits1 {
		if h != 1 {
			tst.Errorf("task %d of loop 1 executed %d times", i, h)
		}
	}
	for i, h := range hits2 {
		if h != 1 {
			tst.Errorf("task %d of loop 2 executed %d times", i, h)
		}
	}
}
