// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

import (
	"encoding/json"
	"time"
)

// Timer accumulates wall-clock time over repeated start/stop scopes
type Timer struct {
	total time.Duration
	count int
	t0    time.Time
}

// Start begins a scope
func (o *Timer) Start() { o.t0 = time.Now() }

// Stop ends a scope and accumulates its duration
func (o *Timer) Stop() {
	o.total += time.Since(o.t0)
	o.count++
}

// Total returns the accumulated time in seconds
func (o *Timer) Total() float64 { return o.total.Seconds() }

// Count returns the number of completed scopes
func (o *Timer) Count() int { return o.count }

// TimerSet holds the benchmark timers of the solver core. The timers are
// only touched outside parallel regions (or by the issuing goroutine), so
// no synchronization is needed.
type TimerSet struct {
	Factorize      Timer
	LinearSolve    Timer
	Gmres          Timer
	MatVec         Timer
	ConsistentInit Timer
}

// Report returns the accumulated timings as a JSON document
func (o *TimerSet) Report(name string) ([]byte, error) {
	rep := map[string]map[string]float64{
		name: {
			"Factorize":      o.Factorize.Total(),
			"LinearSolve":    o.LinearSolve.Total(),
			"Gmres":          o.Gmres.Total(),
			"MatVec":         o.MatVec.Total(),
			"ConsistentInit": o.ConsistentInit.Total(),
		},
	}
	return json.MarshalIndent(rep, "", "  ")
}
