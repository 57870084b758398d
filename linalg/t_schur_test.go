// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/mat"
)

func Test_schur01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("schur01. multiply-then-reduce operator vs dense assembly")

	// two random banded diagonal blocks of bandwidth (2,2) coupled to a
	// flux block through sparse matrices with one nonzero per row
	nb, nflux := 8, 6
	rnd := lcg{2024}

	blocks := make([]BandMatrix, 2)
	facs := make([]FactorizableBandMatrix, 2)
	for p := range blocks {
		blocks[p].Init(nb, 2, 2)
		fillBand(&blocks[p], uint64(100+p))
		facs[p].Init(nb, 2, 2)
		facs[p].CopyOver(&blocks[p])
		if !facs[p].Factorize() {
			tst.Fatalf("factorize failed for block %d", p)
		}
	}

	jpf := make([]SparseMatrix, 2) // block rows <- flux columns
	jfp := make([]SparseMatrix, 2) // flux rows <- block columns
	for p := range jpf {
		for r := 0; r < nb; r++ {
			jpf[p].Add(r, int(rnd.next()*float64(nflux)), rnd.next()-0.5)
		}
		for f := 0; f < nflux; f++ {
			jfp[p].Add(f, int(rnd.next()*float64(nb)), rnd.next()-0.5)
		}
	}

	// matrix-free operator: z = x - sum_p Jfp * Jp^{-1} * Jpf * x
	tmp := make([]float64, nb)
	apply := func(x, z []float64) {
		copy(z, x)
		for p := 0; p < 2; p++ {
			for i := range tmp {
				tmp[i] = 0
			}
			jpf[p].MultiplyAdd(x, tmp)
			facs[p].Solve(tmp)
			jfp[p].MultiplySubtract(tmp, z)
		}
	}

	// operator applied to the vector of all ones
	ones := make([]float64, nflux)
	for i := range ones {
		ones[i] = 1
	}
	z := make([]float64, nflux)
	apply(ones, z)

	// dense: S*1 computed block by block
	zref := make([]float64, nflux)
	copy(zref, ones)
	for p := 0; p < 2; p++ {
		v := make([]float64, nb)
		jpf[p].MultiplyAdd(ones, v)
		var lu mat.LU
		lu.Factorize(toDense(&blocks[p]))
		sol := mat.NewVecDense(nb, nil)
		err := lu.SolveVecTo(sol, false, mat.NewVecDense(nb, v))
		if err != nil {
			tst.Fatalf("dense solve failed: %v", err)
		}
		jfp[p].MultiplySubtract(sol.RawVector().Data, zref)
	}

	chk.Vector(tst, "S*1", 1e-12, z, zref)
}
