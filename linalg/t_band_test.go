// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"gonum.org/v1/gonum/mat"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

// lcg is a tiny deterministic generator so the seeds below are literal
type lcg struct{ state uint64 }

func (o *lcg) next() float64 {
	o.state = o.state*6364136223846793005 + 1442695040888963407
	return float64(o.state>>11) / float64(1<<53)
}

// fillBand fills bm with deterministic pseudo-random values and a boosted
// diagonal to keep the factorization well-conditioned
func fillBand(bm *BandMatrix, seed uint64) {
	rnd := lcg{seed}
	for i := 0; i < bm.N; i++ {
		for j := 0; j < bm.N; j++ {
			if j < i-bm.Kl || j > i+bm.Ku {
				continue
			}
			v := rnd.next() - 0.5
			if i == j {
				v += 4.0
			}
			bm.Set(i, j, v)
		}
	}
}

func toDense(bm *BandMatrix) *mat.Dense {
	d := mat.NewDense(bm.N, bm.N, nil)
	for i := 0; i < bm.N; i++ {
		for j := 0; j < bm.N; j++ {
			d.Set(i, j, bm.At(i, j))
		}
	}
	return d
}

func Test_band01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("band01. element access and row iterator")

	var bm BandMatrix
	bm.Init(6, 2, 1)
	fillBand(&bm, 123)

	// iterator must agree with At over the whole band
	jac := bm.Row(0)
	for i := 0; i < bm.N; i++ {
		for d := -bm.Kl; d <= bm.Ku; d++ {
			j := i + d
			if j < 0 || j >= bm.N {
				continue
			}
			chk.Scalar(tst, io.Sf("row%d[%d]", i, d), 1e-17, jac.At(d), bm.At(i, j))
		}
		jac.Next()
	}

	// iterator writes land in the right place
	jac = bm.Row(3)
	before := bm.At(3, 3)
	jac.Add(0, 1.5)
	chk.Scalar(tst, "A33", 1e-17, bm.At(3, 3), before+1.5)
}

func Test_band02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("band02. factorize and solve vs dense reference")

	for _, sizes := range [][]int{{8, 1, 1}, {12, 2, 2}, {20, 3, 2}, {9, 2, 4}} {
		n, kl, ku := sizes[0], sizes[1], sizes[2]

		var bm BandMatrix
		bm.Init(n, kl, ku)
		fillBand(&bm, uint64(7*n+kl))

		var fbm FactorizableBandMatrix
		fbm.Init(n, kl, ku)
		fbm.CopyOver(&bm)

		// right hand side
		rnd := lcg{99}
		b := make([]float64, n)
		for i := range b {
			b[i] = rnd.next()
		}

		// banded solve
		x := make([]float64, n)
		copy(x, b)
		if !fbm.Factorize() {
			tst.Errorf("factorize failed for n=%d kl=%d ku=%d", n, kl, ku)
			return
		}
		if !fbm.Solve(x) {
			tst.Errorf("solve failed for n=%d kl=%d ku=%d", n, kl, ku)
			return
		}

		// dense reference
		var lu mat.LU
		lu.Factorize(toDense(&bm))
		xref := mat.NewVecDense(n, nil)
		err := lu.SolveVecTo(xref, false, mat.NewVecDense(n, b))
		if err != nil {
			tst.Errorf("dense reference solve failed: %v", err)
			return
		}
		chk.Vector(tst, io.Sf("x (n=%d kl=%d ku=%d)", n, kl, ku), 1e-12, x, xref.RawVector().Data)

		// factor-then-solve identity: B*(B^{-1} b) == b
		res := make([]float64, n)
		bm.MultiplyVector(1, 0, x, res)
		chk.Vector(tst, "B*x", 1e-12, res, b)
	}
}

func Test_band03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("band03. copy-over, row copy, and singular pivot")

	var bm BandMatrix
	bm.Init(5, 1, 1)
	fillBand(&bm, 5)

	var fbm FactorizableBandMatrix
	fbm.Init(5, 1, 1)
	fbm.CopyOver(&bm)
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			chk.Scalar(tst, io.Sf("copy(%d,%d)", i, j), 1e-17, fbm.At(i, j), bm.At(i, j))
		}
	}

	// row copy from band matrix into factorizable band matrix
	fbm.SetAll(0)
	dst := fbm.Row(2)
	src := bm.Row(2)
	dst.CopyRowFrom(&src)
	for d := -1; d <= 1; d++ {
		chk.Scalar(tst, io.Sf("rowcopy[%d]", d), 1e-17, fbm.At(2, 2+d), bm.At(2, 2+d))
	}

	// a fully zero column produces a zero pivot
	var sing FactorizableBandMatrix
	sing.Init(3, 1, 1)
	sing.Set(0, 0, 1)
	sing.Set(1, 1, 0)
	sing.Set(2, 2, 1)
	if sing.Factorize() {
		tst.Errorf("factorize should have failed on singular matrix")
	}
}

func Test_band04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("band04. submatrix-vector product and dense copy")

	var bm BandMatrix
	bm.Init(10, 3, 3)
	fillBand(&bm, 77)

	// patch: rows 4..6, columns 2..5 => diagStart = 2-4 = -2
	nrows, ncols := 3, 4
	rowStart, diagStart := 4, -2

	x := []float64{1, -2, 0.5, 3}
	y := []float64{10, 20, 30}
	yref := make([]float64, nrows)
	for r := 0; r < nrows; r++ {
		sum := 0.0
		for c := 0; c < ncols; c++ {
			sum += bm.At(rowStart+r, rowStart+diagStart+c) * x[c]
		}
		yref[r] = 2.0*sum + 0.5*y[r]
	}
	bm.SubmatrixMultiplyVector(x, rowStart, diagStart, nrows, ncols, 2.0, 0.5, y)
	chk.Vector(tst, "y", 1e-14, y, yref)

	dense := make([]float64, nrows*ncols)
	bm.CopySubmatrixToDense(dense, rowStart, diagStart, nrows, ncols)
	for r := 0; r < nrows; r++ {
		for c := 0; c < ncols; c++ {
			chk.Scalar(tst, io.Sf("dense(%d,%d)", r, c), 1e-17, dense[r*ncols+c], bm.At(rowStart+r, rowStart+diagStart+c))
		}
	}
}
