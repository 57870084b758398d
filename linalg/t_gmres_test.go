// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_gmres01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("gmres01. nonsymmetric system vs direct solve")

	n := 24
	rnd := lcg{42}
	adata := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := 0.2 * (rnd.next() - 0.5)
			if i == j {
				v += 3.0
			}
			adata[i*n+j] = v
		}
	}
	akeep := make([]float64, n*n)
	copy(akeep, adata)
	piv := make([]int, n)

	b := make([]float64, n)
	for i := range b {
		b[i] = rnd.next()
	}

	// direct reference (DenseView factorization destroys its buffer)
	xref := make([]float64, n)
	copy(xref, b)
	dv := NewDenseView(n, adata, piv)
	if !dv.Factorize() {
		tst.Errorf("dense factorize failed")
		return
	}
	dv.Solve(xref)

	// gmres on the intact copy
	var solver Gmres
	solver.Init(n, n, 4)
	solver.SetOperator(func(x, z []float64) {
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				sum += akeep[i*n+j] * x[j]
			}
			z[i] = sum
		}
	})

	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0
	}
	x := make([]float64, n) // zero initial guess
	status := solver.Solve(1e-12, w, x, b)
	chk.IntAssert(status, GmresSuccess)
	chk.Vector(tst, "x", 1e-10, x, xref)
}

func Test_gmres02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("gmres02. weighted stopping and restarts")

	// diagonal system with widely varying scales: the weighted norm makes
	// every component count equally
	n := 12
	diag := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		diag[i] = float64(i + 1)
		b[i] = float64(n - i)
	}

	var solver Gmres
	solver.Init(n, 4, 20) // small subspace forces restarts
	solver.SetOperator(func(x, z []float64) {
		for i := 0; i < n; i++ {
			z[i] = diag[i] * x[i]
		}
	})

	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / (1e-3 + b[i]/diag[i])
	}
	x := make([]float64, n)
	status := solver.Solve(1e-11, w, x, b)
	chk.IntAssert(status, GmresSuccess)
	for i := 0; i < n; i++ {
		chk.Scalar(tst, "x[i]", 1e-9, x[i], b[i]/diag[i])
	}

	// starving the iteration budget must be reported, not hidden
	var tiny Gmres
	tiny.Init(n, 2, 0)
	tiny.SetOperator(func(x, z []float64) {
		for i := 0; i < n; i++ {
			z[i] = diag[i] * x[i]
		}
	})
	x2 := make([]float64, n)
	status = tiny.Solve(1e-14, w, x2, b)
	chk.IntAssert(status, GmresMaxIter)
}

func Test_sparse01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sparse01. coupling multiply-add and multiply-subtract")

	var sm SparseMatrix
	sm.Add(0, 2, 1.5)
	sm.Add(1, 0, -2.0)
	sm.Add(2, 1, 0.25)
	sm.Add(2, 3, 4.0)
	chk.IntAssert(sm.NumNonZero(), 4)

	x := []float64{1, 2, 3, 4}
	y := []float64{10, 10, 10}
	sm.MultiplyAdd(x, y)
	chk.Vector(tst, "y add", 1e-15, y, []float64{14.5, 8, 26.5})

	sm.MultiplySubtract(x, y)
	chk.Vector(tst, "y sub", 1e-15, y, []float64{10, 10, 10})

	sm.Reset()
	chk.IntAssert(sm.NumNonZero(), 0)
}
