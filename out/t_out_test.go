// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_out01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("out01. record, save, and reload")

	rec := NewResults(2, 3, 1, false)
	y := []float64{1, 2, 3, 4, 5, 6, 0, 0, 0} // 2 comps x 3 cells + padding
	rec.Solution(0.0, y, nil)
	rec.Sensitivity(0, 0.0, y, nil)
	y[2], y[5] = 30, 60
	rec.Solution(1.0, y, nil)
	rec.Sensitivity(0, 1.0, y, nil)

	chk.IntAssert(len(rec.Times), 2)
	chk.Vector(tst, "outlet0", 1e-17, rec.Outlet[0], []float64{3, 6})
	chk.Vector(tst, "outlet1", 1e-17, rec.Outlet[1], []float64{30, 60})
	chk.Vector(tst, "sens1", 1e-17, rec.Sens[0][1], []float64{30, 60})

	tp, cm := rec.PeakMax(0)
	chk.Scalar(tst, "tPeak", 1e-17, tp, 1.0)
	chk.Scalar(tst, "cMax", 1e-17, cm, 30.0)

	// round trip through both encoders
	for _, enc := range []string{"json", "gob"} {
		err := rec.Save("/tmp/gochrom", "results_"+enc, enc)
		if err != nil {
			tst.Errorf("save failed:\n%v", err)
			return
		}
		var back Results
		err = back.Read("/tmp/gochrom", "results_"+enc, enc)
		if err != nil {
			tst.Errorf("read failed:\n%v", err)
			return
		}
		chk.Vector(tst, "reload times", 1e-17, back.Times, rec.Times)
		chk.Vector(tst, "reload outlet", 1e-17, back.Outlet[1], rec.Outlet[1])
	}
}
