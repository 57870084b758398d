// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/fun/dbf"
)

// FuncData holds function definition
type FuncData struct {
	Name string     `json:"name"` // name of function. ex: zero, salt_gradient, feed_pulse
	Type string     `json:"type"` // type of function. ex: cte, rmp
	Prms dbf.Params `json:"prms"` // parameters
}

// FuncsData holds functions
type FuncsData []*FuncData

// Get returns function by name
func (o FuncsData) Get(name string) (fcn fun.TimeSpace, err error) {
	if name == "zero" || name == "none" {
		fcn = &fun.Zero
		return
	}
	for _, f := range o {
		if f.Name == name {
			fcn, err = fun.New(f.Type, f.Prms)
			if err != nil {
				err = chk.Err("cannot get function named %q because of the following error:\n%v", name, err)
			}
			return
		}
	}
	err = chk.Err("cannot find function named %q\n", name)
	return
}

// sectionFunc switches between per-section functions of time. Section i is
// active for sectionTimes[i] <= t < sectionTimes[i+1]; the last section
// extends to infinity.
type sectionFunc struct {
	times []float64
	fcns  []fun.TimeSpace
}

// F implements the inlet function interface
func (o *sectionFunc) F(t float64, x []float64) float64 {
	sec := 0
	for sec < len(o.fcns)-1 && t >= o.times[sec+1] {
		sec++
	}
	return o.fcns[sec].F(t, x)
}
