// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package grm implements the general rate model of column liquid
// chromatography: residual evaluation, the block-structured Jacobian, the
// Schur-complement linear solver, and the consistent initialization of the
// differential-algebraic system
package grm

// Indexer maps (component, cell, shell, bound state) tuples onto flat
// offsets of the global state vector. The global ordering is fixed:
// first the bulk DOFs (component-major, nCol cells per component), then one
// particle block per column cell (nPar shells, each holding the liquid
// concentrations followed by the bound states), and finally the film flux
// DOFs (component-major, like the bulk).
type Indexer struct {
	nComp       int
	nCol        int
	nPar        int
	strideBound int
	boundOffset []int // per component: offset of its bound states within a shell's solid part
}

// NewIndexer builds an indexer for the given discretization
func NewIndexer(nComp, nCol, nPar int, nBound []int) (o Indexer) {
	o.nComp, o.nCol, o.nPar = nComp, nCol, nPar
	o.boundOffset = make([]int, nComp)
	for i, nb := range nBound {
		o.boundOffset[i] = o.strideBound
		o.strideBound += nb
	}
	return
}

// StrideColComp returns the stride between components in the bulk block
func (o *Indexer) StrideColComp() int { return o.nCol }

// StrideParLiquid returns the number of liquid DOFs in one shell
func (o *Indexer) StrideParLiquid() int { return o.nComp }

// StrideParBound returns the number of bound states in one shell
func (o *Indexer) StrideParBound() int { return o.strideBound }

// StrideParShell returns the total number of DOFs in one shell
func (o *Indexer) StrideParShell() int { return o.nComp + o.strideBound }

// StrideParBlock returns the number of DOFs of one particle block
func (o *Indexer) StrideParBlock() int { return o.nPar * o.StrideParShell() }

// OffsetC returns the offset of the bulk DOF (comp,col)
func (o *Indexer) OffsetC(comp, col int) int { return comp*o.nCol + col }

// OffsetCp returns the offset of the particle block of column cell pblk
func (o *Indexer) OffsetCp(pblk int) int {
	return o.nComp*o.nCol + pblk*o.StrideParBlock()
}

// OffsetJf returns the offset of the flux block
func (o *Indexer) OffsetJf() int {
	return o.nComp*o.nCol + o.nCol*o.StrideParBlock()
}

// OffsetBoundComp returns the offset of component comp within the solid
// part of a shell
func (o *Indexer) OffsetBoundComp(comp int) int { return o.boundOffset[comp] }

// NumDofs returns the total number of degrees of freedom
func (o *Indexer) NumDofs() int { return o.OffsetJf() + o.nCol*o.nComp }
