// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Executor is a fork-join pool for independent block work. Every call forks
// a fixed set of workers over a shared task counter and joins them before
// returning, so no goroutine outlives a call and results are independent of
// the thread assignment.
type Executor struct {
	Nworkers int // number of workers; 0 means one per hardware core
}

// NewExecutor returns an executor with nworkers workers (0 = all cores)
func NewExecutor(nworkers int) *Executor {
	if nworkers < 1 {
		nworkers = runtime.NumCPU()
	}
	return &Executor{Nworkers: nworkers}
}

// Run executes fcn(i, worker) for i in [0,n) on the pool
func (o *Executor) Run(n int, fcn func(i, worker int)) {
	o.RunFused(n, fcn, 0, nil)
}

// RunFused executes two loops in a single fork-join region: fcn1(i) for i
// in [0,n1) followed by fcn2(i) for i in [0,n2). The loops share one task
// counter, so a worker that finishes the first loop immediately picks up
// work from the second without waiting at a barrier.
func (o *Executor) RunFused(n1 int, fcn1 func(i, worker int), n2 int, fcn2 func(i, worker int)) {
	nw := o.Nworkers
	if nw > n1+n2 {
		nw = n1 + n2
	}
	if nw <= 1 {
		for i := 0; i < n1; i++ {
			fcn1(i, 0)
		}
		for i := 0; i < n2; i++ {
			fcn2(i, 0)
		}
		return
	}
	var next int64
	var wg sync.WaitGroup
	wg.Add(nw)
	for w := 0; w < nw; w++ {
		go func(worker int) {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&next, 1)) - 1
				if i >= n1+n2 {
					return
				}
				if i < n1 {
					fcn1(i, worker)
				} else {
					fcn2(i-n1, worker)
				}
			}
		}(w)
	}
	wg.Wait()
}

// firstError records the first failure observed inside a parallel region.
// Writers race for the slot under a mutex; the first one wins.
type firstError struct {
	mu  sync.Mutex
	msg string
	set bool
}

// record stores msg if no earlier failure was recorded
func (o *firstError) record(msg string) {
	o.mu.Lock()
	if !o.set {
		o.msg = msg
		o.set = true
	}
	o.mu.Unlock()
}
