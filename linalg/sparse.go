// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linalg

// SparseMatrix holds a very sparse matrix with a sparsity pattern that is
// fixed after assembly. Only the two accumulate operations needed by the
// coupling blocks of the column solver are provided; there is no general
// linear algebra here.
type SparseMatrix struct {
	entries []sparseEntry
}

type sparseEntry struct {
	row, col int
	val      float64
}

// Reset removes all entries
func (o *SparseMatrix) Reset() {
	o.entries = o.entries[:0]
}

// Add inserts the entry (row,col) with the given value
func (o *SparseMatrix) Add(row, col int, val float64) {
	o.entries = append(o.entries, sparseEntry{row, col, val})
}

// NumNonZero returns the number of stored entries
func (o *SparseMatrix) NumNonZero() int { return len(o.entries) }

// MultiplyAdd computes y += A*x
func (o *SparseMatrix) MultiplyAdd(x, y []float64) {
	for _, e := range o.entries {
		y[e.row] += e.val * x[e.col]
	}
}

// MultiplySubtract computes y -= A*x
func (o *SparseMatrix) MultiplySubtract(x, y []float64) {
	for _, e := range o.entries {
		y[e.row] -= e.val * x[e.col]
	}
}
