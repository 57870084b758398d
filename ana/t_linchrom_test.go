// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ana

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

func Test_linchrom01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("linchrom01. retention and pulse shape")

	sol := LinearChromatography{
		Length: 0.017,
		U:      1e-3,
		Dax:    1e-5,
		EpsC:   0.4,
		EpsP:   0.3,
		Keq:    2.0,
		Cin:    1.0,
		PulseT: 100.0,
	}
	sol.Init()

	// kp = (0.6/0.4)*(0.3 + 0.7*2) = 1.5*1.7 = 2.55
	chk.Scalar(tst, "kp", 1e-15, sol.RetentionFactor(), 2.55)
	chk.Scalar(tst, "tR", 1e-12, sol.RetentionTime(), 0.017/1e-3*3.55)

	// outlet must vanish far before and far after the band
	chk.Scalar(tst, "early", 1e-12, sol.OutletConc(sol.RetentionTime()-10*sol.Sigma()), 0)
	chk.Scalar(tst, "late", 1e-12, sol.OutletConc(1e5), 0)

	// the peak is the highest sampled value
	peak := sol.PeakMax()
	for _, t := range []float64{sol.RetentionTime() - 30, sol.RetentionTime() + 130, sol.PeakTime() + 11, sol.PeakTime() - 17} {
		if sol.OutletConc(t) > peak+1e-12 {
			tst.Errorf("outlet at t=%g exceeds the peak maximum", t)
		}
	}

	// electro-neutrality closed form
	q0 := SmaSaltBound(1200.0, []float64{1, 5, 4}, []float64{0, 10, 20})
	chk.Scalar(tst, "q0", 0, q0, 1200.0-5.0*10.0-4.0*20.0)
}
