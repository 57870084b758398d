// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package out implements solution recording and result persistence
package out

import (
	"encoding/gob"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/cpmech/gosl/chk"
	gio "github.com/cpmech/gosl/io"
)

// Encoder encodes results
type Encoder interface {
	Encode(e interface{}) error
}

// Decoder decodes results
type Decoder interface {
	Decode(e interface{}) error
}

// GetEncoder returns a new encoder for the given type ("json" or "gob")
func GetEncoder(enctype string, w io.Writer) Encoder {
	if enctype == "gob" {
		return gob.NewEncoder(w)
	}
	return json.NewEncoder(w)
}

// GetDecoder returns a new decoder for the given type ("json" or "gob")
func GetDecoder(enctype string, r io.Reader) Decoder {
	if enctype == "gob" {
		return gob.NewDecoder(r)
	}
	return json.NewDecoder(r)
}

// Results accumulates the recorded time series of a simulation run. It
// implements the simulator's Recorder interface: outlet concentrations are
// kept for every solution time, the full state only when KeepFull is set.
type Results struct {

	// configuration
	NComp    int  // number of components
	NCol     int  // number of column cells
	KeepFull bool // record the full state vectors as well

	// recorded data
	Times  []float64     // output times
	Outlet [][]float64   // [nout][NComp] outlet (last cell) concentrations
	Full   [][]float64   // [nout][ndof] full states (only with KeepFull)
	Sens   [][][]float64 // [nparam][nout][NComp] outlet sensitivities
}

// NewResults returns a recorder for nparam sensitivity parameters
func NewResults(nComp, nCol, nparam int, keepFull bool) (o *Results) {
	o = new(Results)
	o.NComp = nComp
	o.NCol = nCol
	o.KeepFull = keepFull
	o.Sens = make([][][]float64, nparam)
	return
}

// Solution records the state at time t (borrowed slices are copied)
func (o *Results) Solution(t float64, y, yDot []float64) {
	o.Times = append(o.Times, t)
	outlet := make([]float64, o.NComp)
	for i := 0; i < o.NComp; i++ {
		outlet[i] = y[i*o.NCol+o.NCol-1]
	}
	o.Outlet = append(o.Outlet, outlet)
	if o.KeepFull {
		full := make([]float64, len(y))
		copy(full, y)
		o.Full = append(o.Full, full)
	}
}

// Sensitivity records the sensitivity of parameter param at time t
func (o *Results) Sensitivity(param int, t float64, s, sDot []float64) {
	outlet := make([]float64, o.NComp)
	for i := 0; i < o.NComp; i++ {
		outlet[i] = s[i*o.NCol+o.NCol-1]
	}
	o.Sens[param] = append(o.Sens[param], outlet)
}

// Save writes the results to dirout/fnkey.res using the given encoder type
func (o *Results) Save(dirout, fnkey, enctype string) (err error) {
	err = os.MkdirAll(dirout, 0777)
	if err != nil {
		return chk.Err("cannot create output directory %q:\n%v", dirout, err)
	}
	fil, err := os.Create(filepath.Join(dirout, fnkey+".res"))
	if err != nil {
		return chk.Err("cannot create results file:\n%v", err)
	}
	defer fil.Close()
	enc := GetEncoder(enctype, fil)
	err = enc.Encode(o)
	if err != nil {
		return chk.Err("cannot encode results:\n%v", err)
	}
	return
}

// Read loads results from dirout/fnkey.res
func (o *Results) Read(dirout, fnkey, enctype string) (err error) {
	fil, err := os.Open(filepath.Join(dirout, fnkey+".res"))
	if err != nil {
		return chk.Err("cannot open results file:\n%v", err)
	}
	defer fil.Close()
	dec := GetDecoder(enctype, fil)
	err = dec.Decode(o)
	if err != nil {
		return chk.Err("cannot decode results:\n%v", err)
	}
	return
}

// PeakMax returns the maximum outlet concentration of component comp and
// the time at which it occurs
func (o *Results) PeakMax(comp int) (tPeak, cMax float64) {
	for n, t := range o.Times {
		if c := o.Outlet[n][comp]; c > cMax {
			cMax, tPeak = c, t
		}
	}
	return
}

// Report prints a short summary
func (o *Results) Report() {
	if len(o.Times) == 0 {
		gio.Pf("no results recorded\n")
		return
	}
	gio.Pf("recorded %d solution times in [%g, %g]\n", len(o.Times), o.Times[0], o.Times[len(o.Times)-1])
	for i := 0; i < o.NComp; i++ {
		tp, cm := o.PeakMax(i)
		gio.Pf("component %d: peak %g at t=%g\n", i, cm, tp)
	}
}
