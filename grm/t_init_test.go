// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gochrom/ad"
	"github.com/cpmech/gochrom/binding"
)

// fluxInconsistency returns the max-norm of j_f - k_f*(c - c_p|outer)
func fluxInconsistency(mdl *Model, y []float64) (res float64) {
	idxr := mdl.Indexer()
	kf := mdl.FilmDiffusion[0]
	for i := 0; i < mdl.NComp; i++ {
		for k := 0; k < mdl.NCol; k++ {
			jf := y[idxr.OffsetJf()+i*mdl.NCol+k]
			v := jf - kf[i]*(y[idxr.OffsetC(i, k)]-y[idxr.OffsetCp(k)+i])
			if a := math.Abs(v); a > res {
				res = a
			}
		}
	}
	return
}

func Test_init01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("init01. flux consistency after consistent initialization")

	mdl := newLinearTestModel(tst, 16, 4, false, 2) // quasi-stationary isotherm
	ndof := mdl.NumDofs()
	y := make([]float64, ndof)
	yDot := make([]float64, ndof)

	// a non-trivial state: nonzero bulk, slightly off particle liquid
	idxr := mdl.Indexer()
	for i := 0; i < mdl.NComp; i++ {
		for k := 0; k < mdl.NCol; k++ {
			y[idxr.OffsetC(i, k)] = 1.0 + 0.1*float64(k) + 0.5*float64(i)
		}
	}
	for k := 0; k < mdl.NCol; k++ {
		for j := 0; j < mdl.NPar; j++ {
			off := idxr.OffsetCp(k) + j*idxr.StrideParShell()
			for i := 0; i < mdl.NComp; i++ {
				y[off+i] = 0.8 + 0.05*float64(j) + 0.3*float64(i)
			}
		}
	}

	err := mdl.ConsistentInitialConditions(0, 0, 1.0, y, yDot, 1e-12)
	if err != nil {
		tst.Errorf("consistent initialization failed:\n%v", err)
		return
	}

	// flux invariant
	if inc := fluxInconsistency(mdl, y); inc > 1e-14 {
		tst.Errorf("flux inconsistency too large: %g", inc)
	}

	// algebraic isotherm equations hold
	res := make([]float64, ndof)
	mdl.Residual(0, 0, 1.0, y, yDot, res, false)
	sl := idxr.StrideParLiquid()
	for k := 0; k < mdl.NCol; k++ {
		for j := 0; j < mdl.NPar; j++ {
			off := idxr.OffsetCp(k) + j*idxr.StrideParShell()
			for b := 0; b < idxr.StrideParBound(); b++ {
				if a := math.Abs(res[off+sl+b]); a > 1e-12 {
					tst.Errorf("algebraic residual too large at block %d shell %d: %g", k, j, a)
				}
			}
		}
	}

	// the full residual at (y, yDot) must vanish
	nrm := 0.0
	for _, v := range res {
		if a := math.Abs(v); a > nrm {
			nrm = a
		}
	}
	if nrm > 1e-9 {
		tst.Errorf("residual after consistent initialization too large: %g", nrm)
	}

	// the discretized blocks were used as scratch: flag must be dirty
	if mdl.JacobianUpToDate() {
		tst.Errorf("jacobian must be flagged for re-factorization")
	}
}

func Test_init02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("init02. lean and normal pipelines agree without algebraic equations")

	mdlA := newLangmuirTestModel(tst, 2)
	mdlB := newLangmuirTestModel(tst, 2)
	ndof := mdlA.NumDofs()

	yA := make([]float64, ndof)
	yDotA := make([]float64, ndof)
	yB := make([]float64, ndof)
	yDotB := make([]float64, ndof)
	if e := mdlA.ApplyInitialCondition(yA, yDotA); e != nil {
		tst.Errorf("apply initial condition failed:\n%v", e)
		return
	}
	if e := mdlB.ApplyInitialCondition(yB, yDotB); e != nil {
		tst.Errorf("apply initial condition failed:\n%v", e)
		return
	}

	if e := mdlA.ConsistentInitialConditions(0, 0, 1.0, yA, yDotA, 1e-12); e != nil {
		tst.Errorf("normal initialization failed:\n%v", e)
		return
	}
	if e := mdlB.LeanConsistentInitialConditions(0, 0, 1.0, yB, yDotB, 1e-12); e != nil {
		tst.Errorf("lean initialization failed:\n%v", e)
		return
	}

	// bit-identical states and time derivatives
	chk.Vector(tst, "y", 0, yB, yA)
	chk.Vector(tst, "yDot", 0, yDotB, yDotA)
}

func Test_init03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("init03. sensitivity subsystems satisfy the linearized DAE")

	mdl := newLinearTestModel(tst, 8, 3, false, 2)
	if err := mdl.SetSensitiveParameter("col_dispersion", -1, 0); err != nil {
		tst.Errorf("register failed:\n%v", err)
		return
	}
	if err := mdl.SetSensitiveParameter("ka", 0, 1); err != nil {
		tst.Errorf("register failed:\n%v", err)
		return
	}

	ndof := mdl.NumDofs()
	y := make([]float64, ndof)
	yDot := make([]float64, ndof)
	idxr := mdl.Indexer()
	for i := 0; i < mdl.NComp; i++ {
		for k := 0; k < mdl.NCol; k++ {
			y[idxr.OffsetC(i, k)] = 0.5 + 0.05*float64(k)
		}
	}
	for k := 0; k < mdl.NCol; k++ {
		for j := 0; j < mdl.NPar; j++ {
			off := idxr.OffsetCp(k) + j*idxr.StrideParShell()
			for i := 0; i < mdl.NComp; i++ {
				y[off+i] = 0.4 + 0.02*float64(j)
			}
		}
	}
	if err := mdl.ConsistentInitialConditions(0, 0, 1.0, y, yDot, 1e-12); err != nil {
		tst.Errorf("consistent initialization failed:\n%v", err)
		return
	}

	// refresh jacobians and the AD residual at the consistent point
	res := make([]float64, ndof)
	mdl.Residual(0, 0, 1.0, y, yDot, res, true)
	adRes := ad.NewVector(ndof, mdl.NumAdDirs())
	mdl.ResidualAD(0, 0, 1.0, y, yDot, adRes)

	nsens := mdl.NumSensParams()
	sensY := make([][]float64, nsens)
	sensYdot := make([][]float64, nsens)
	for p := range sensY {
		sensY[p] = make([]float64, ndof)
		sensYdot[p] = make([]float64, ndof)
	}
	if err := mdl.ConsistentInitialSensitivity(0, 0, 1.0, y, yDot, sensY, sensYdot, adRes); err != nil {
		tst.Errorf("sensitivity initialization failed:\n%v", err)
		return
	}

	// residual of the forward-sensitivity DAE:
	//   J*s + (dF/dydot)*sdot + dF/dp = 0
	tmp := make([]float64, ndof)
	for p := 0; p < nsens; p++ {
		r := make([]float64, ndof)
		mdl.MultiplyJacobianSubtract(sensY[p], r) // r = -J*s
		mdl.MultiplyDerivativeJacobian(1.0, sensYdot[p], tmp)
		nrm := 0.0
		for i := 0; i < ndof; i++ {
			v := -r[i] + tmp[i] + adRes[i].Deriv(p)
			if a := math.Abs(v); a > nrm {
				nrm = a
			}
		}
		if nrm > 1e-7 {
			tst.Errorf("sensitivity residual too large for parameter %d: %g", p, nrm)
		}
		io.Pforan("param %d: sensitivity residual = %g\n", p, nrm)
	}
}

func Test_init04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("init04. steric mass action initialization through the model")

	bnd, err := binding.New("sma")
	if err != nil {
		tst.Fatalf("cannot allocate binding model:\n%v", err)
	}
	err = bnd.Init(3, []int{1, 1, 1}, dbf.Params{
		prm("lambda", 1200.0),
		prm("ka0", 0), prm("ka1", 35.5), prm("ka2", 1.59),
		prm("kd0", 0), prm("kd1", 1000.0), prm("kd2", 1000.0),
		prm("nu0", 1.0), prm("nu1", 5.0), prm("nu2", 4.0),
		prm("sigma0", 0.0), prm("sigma1", 11.0), prm("sigma2", 10.0),
	})
	if err != nil {
		tst.Fatalf("cannot initialise binding model:\n%v", err)
	}

	mdl := &Model{
		NComp:         3,
		NCol:          8,
		NPar:          3,
		NBound:        []int{1, 1, 1},
		ColLength:     0.014,
		Velocity:      5.75e-4,
		ColDispersion: []float64{5.75e-8},
		ColPorosity:   0.37,
		ParRadius:     4.5e-5,
		ParPorosity:   0.75,
		FilmDiffusion: [][]float64{{6.9e-6, 6.9e-6, 6.9e-6}},
		ParDiffusion:  [][]float64{{7e-10, 6.07e-11, 6.07e-11}},
		Inlet:         []InletFunc{cteInlet{50.0}, cteInlet{1.0}, cteInlet{1.0}},
		Binding:       bnd,
		InitC:         []float64{50.0, 1.0, 1.0},
		InitQ:         []float64{1200.0, 0.1, 0.1},
	}
	if err = mdl.Init(NewExecutor(2)); err != nil {
		tst.Fatalf("cannot initialise model:\n%v", err)
	}

	ndof := mdl.NumDofs()
	y := make([]float64, ndof)
	yDot := make([]float64, ndof)
	if err = mdl.ApplyInitialCondition(y, yDot); err != nil {
		tst.Errorf("apply initial condition failed:\n%v", err)
		return
	}
	if err = mdl.ConsistentInitialConditions(0, 0, 1.0, y, yDot, 1e-12); err != nil {
		tst.Errorf("consistent initialization failed:\n%v", err)
		return
	}

	// algebraic residual below 1e-9 at every shell and exact
	// electro-neutrality
	idxr := mdl.Indexer()
	sl := idxr.StrideParLiquid()
	res := make([]float64, ndof)
	mdl.Residual(0, 0, 1.0, y, yDot, res, false)
	for k := 0; k < mdl.NCol; k++ {
		for j := 0; j < mdl.NPar; j++ {
			off := idxr.OffsetCp(k) + j*idxr.StrideParShell()
			for b := 0; b < idxr.StrideParBound(); b++ {
				if a := math.Abs(res[off+sl+b]); a > 1e-9 {
					tst.Errorf("algebraic residual too large at block %d shell %d state %d: %g", k, j, b, a)
				}
			}
			q0 := 1200.0 - 5.0*y[off+sl+1] - 4.0*y[off+sl+2]
			chk.Scalar(tst, "electro-neutrality", 0, y[off+sl], q0)
		}
	}

	// flux invariant
	if inc := fluxInconsistency(mdl, y); inc > 1e-12 {
		tst.Errorf("flux inconsistency too large: %g", inc)
	}
}
