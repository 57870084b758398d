// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

func Test_read01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("read01. linear pulse simulation file")

	sim, err := ReadSim("data/linpulse.sim")
	if err != nil {
		tst.Errorf("cannot read sim file:\n%v", err)
		return
	}
	chk.StrAssert(sim.Key, "linpulse")
	chk.IntAssert(len(sim.Components), 2)
	chk.IntAssert(sim.Column.NCells, 16)
	chk.IntAssert(sim.Particle.NShells, 4)
	chk.Scalar(tst, "length", 1e-17, sim.Column.Length, 0.017)
	chk.Scalar(tst, "rp", 1e-17, sim.Particle.Radius, 5e-5)
	chk.IntAssert(len(sim.Time.SectionTimes), 3)
	chk.StrAssert(sim.Binding.Model, "linear")

	mdl, err := sim.MakeModel()
	if err != nil {
		tst.Errorf("cannot make model:\n%v", err)
		return
	}
	chk.IntAssert(mdl.NComp, 2)
	chk.IntAssert(mdl.NumDofs(), 2*16+16*4*4+16*2)

	// the inlet switches from the feed to zero at the section boundary
	chk.Scalar(tst, "inlet A sec0", 1e-15, mdl.Inlet[0].F(50, nil), 1.0)
	chk.Scalar(tst, "inlet A sec1", 1e-15, mdl.Inlet[0].F(150, nil), 0.0)
	chk.Scalar(tst, "inlet B sec0", 1e-15, mdl.Inlet[1].F(50, nil), 0.5)

	// a missing input file must be rejected
	_, err = ReadSim("data/does_not_exist.sim")
	if err == nil {
		tst.Errorf("reading a missing file must fail")
	}
}
