// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ana implements analytical solutions used to verify the numerical
// column models
package ana

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// LinearChromatography computes the equilibrium-dispersive solution for one
// component with a linear isotherm under a rectangular inlet pulse:
//
//   c(L,t) = c0/2 * [ erf((t-tR)/(sqrt(2) sig)) - erf((t-tR-tp)/(sqrt(2) sig)) ]
//
// with the retention time tR = L/u*(1+kp) of a retained tracer and the
// Gaussian band broadening sig induced by axial dispersion.
type LinearChromatography struct {
	// input
	Length  float64 // column length
	U       float64 // interstitial velocity
	Dax     float64 // axial dispersion
	EpsC    float64 // column porosity
	EpsP    float64 // particle porosity
	Keq     float64 // linear equilibrium constant ka/kd
	Cin     float64 // pulse height
	PulseT  float64 // pulse duration
	// derived
	kp float64 // retention factor
	tR float64 // retention time
}

// Init initialises the derived quantities
func (o *LinearChromatography) Init() {
	if o.U <= 0 || o.Length <= 0 {
		chk.Panic("linear chromatography solution: velocity and length must be positive. u=%g L=%g", o.U, o.Length)
	}
	phase := (1.0 - o.EpsC) / o.EpsC
	o.kp = phase * (o.EpsP + (1.0-o.EpsP)*o.Keq)
	o.tR = o.Length / o.U * (1.0 + o.kp)
}

// RetentionFactor returns the retention factor kp
func (o *LinearChromatography) RetentionFactor() float64 { return o.kp }

// RetentionTime returns the retention time of the pulse center
func (o *LinearChromatography) RetentionTime() float64 { return o.tR }

// Sigma returns the Gaussian standard deviation of the outlet band
func (o *LinearChromatography) Sigma() float64 {
	// variance of the dispersive band in time units
	t0 := o.Length / o.U
	return math.Sqrt(2.0 * o.Dax / o.U / o.Length * t0 * t0 * (1.0 + o.kp) * (1.0 + o.kp))
}

// OutletConc returns the outlet concentration at time t
func (o *LinearChromatography) OutletConc(t float64) float64 {
	sig := o.Sigma()
	a := (t - o.tR) / (math.Sqrt2 * sig)
	b := (t - o.tR - o.PulseT) / (math.Sqrt2 * sig)
	return o.Cin / 2.0 * (math.Erf(a) - math.Erf(b))
}

// PeakTime returns the time of the outlet maximum (center of the pulse)
func (o *LinearChromatography) PeakTime() float64 { return o.tR + o.PulseT/2.0 }

// PeakMax returns the maximum outlet concentration
func (o *LinearChromatography) PeakMax() float64 {
	return o.OutletConc(o.PeakTime())
}

// SmaSaltBound returns the closed-form electro-neutrality bound salt
//   q0 = lambda - sum_j nu_j q_j
func SmaSaltBound(lambda float64, nu, q []float64) (q0 float64) {
	q0 = lambda
	for j := 1; j < len(q); j++ {
		q0 -= nu[j] * q[j]
	}
	return
}
