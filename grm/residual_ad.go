// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

import (
	"github.com/cpmech/gochrom/ad"
)

// NumAdDirs returns the number of AD directions in use (one per sensitive
// parameter direction; directions are assigned by the driver)
func (o *Model) NumAdDirs() (nd int) {
	for _, sp := range o.sensParams {
		if sp.Dir+1 > nd {
			nd = sp.Dir + 1
		}
	}
	return
}

// adprm wraps a transport parameter value as an AD scalar, seeded if the
// parameter is registered as sensitive
func (o *Model) adprm(name string, comp int, v float64, nd int) ad.Scalar {
	if dir := o.sensDir(name, comp); dir >= 0 {
		return ad.NewSeed(v, nd, dir)
	}
	return ad.Const(v)
}

// ResidualAD evaluates the residual on AD scalars. The state (y, yDot) is
// held fixed (entering as constants); only the registered sensitive
// parameters carry seeds, so the derivative part of res delivers dF/dp for
// every parameter in one sweep. res must be allocated by the caller with
// NumAdDirs derivative slots (see ad.NewVector).
func (o *Model) ResidualAD(t float64, secIdx int, timeFactor float64, y, yDot []float64, res []ad.Scalar) (err error) {

	idxr := &o.idxr
	nd := o.NumAdDirs()
	nc, np, ss, sl, sb := o.NCol, o.NPar, idxr.StrideParShell(), idxr.StrideParLiquid(), idxr.StrideParBound()
	h := o.ColLength / float64(nc)
	hasAlg := o.Binding.HasAlgebraicEquations()
	algStart, algLen := o.Binding.AlgebraicBlock()

	// parameters as AD scalars
	u := o.adprm("velocity", -1, o.Velocity, nd)
	dax := o.adprm("col_dispersion", -1, secVal(o.ColDispersion, secIdx), nd)
	kfv := secVec(o.FilmDiffusion, secIdx)
	dpv := secVec(o.ParDiffusion, secIdx)
	dsv := secVec(o.ParSurfDiffusion, secIdx)
	kf := make([]ad.Scalar, o.NComp)
	dp := make([]ad.Scalar, o.NComp)
	for i := 0; i < o.NComp; i++ {
		kf[i] = o.adprm("film_diffusion", i, kfv[i], nd)
		dp[i] = o.adprm("par_diffusion", i, dpv[i], nd)
	}
	ds := make([]ad.Scalar, sb)
	for b := 0; b < sb; b++ {
		ds[b] = o.adprm("par_surfdiffusion", b, dsv[b], nd)
	}

	ydot := func(i int) float64 {
		if yDot == nil {
			return 0
		}
		return yDot[i]
	}

	// ==== bulk
	for i := 0; i < o.NComp; i++ {
		cin := o.Inlet[i].F(t, nil)
		for k := 0; k < nc; k++ {
			row := idxr.OffsetC(i, k)
			c := y[row]
			cl := cin
			if k > 0 {
				cl = y[row-1]
			}
			val := ad.Const(timeFactor * ydot(row))
			val = ad.Add(val, ad.Mul(u, ad.Const((c-cl)/h)))
			if k > 0 {
				val = ad.Sub(val, ad.Mul(dax, ad.Const((y[row-1]-c)/(h*h))))
			}
			if k < nc-1 {
				val = ad.Sub(val, ad.Mul(dax, ad.Const((y[row+1]-c)/(h*h))))
			}
			val = ad.AddScaled(val, o.colAccel, ad.Const(y[idxr.OffsetJf()+i*nc+k]))
			res[row] = val
		}
	}

	// ==== particles
	adCp := make([]ad.Scalar, sl)
	adQ := make([]ad.Scalar, sb)
	bres := ad.NewVector(sb, nd)
	for k := 0; k < nc; k++ {
		off := idxr.OffsetCp(k)
		z := (0.5 + float64(k)) / float64(nc)
		for j := 0; j < np; j++ {
			shell := off + j*ss
			r := o.parCellRadius[j]
			for i := 0; i < o.NComp; i++ {
				adCp[i] = ad.Const(y[shell+i])
			}
			for b := 0; b < sb; b++ {
				adQ[b] = ad.Const(y[shell+sl+b])
			}

			// liquid phase
			for i := 0; i < o.NComp; i++ {
				row := shell + i
				qdotSum := 0.0
				for b := 0; b < o.NBound[i]; b++ {
					qdotSum += ydot(shell + sl + idxr.OffsetBoundComp(i) + b)
				}
				val := ad.Const(timeFactor * (ydot(row) + o.invBetaP*qdotSum))
				if j > 0 {
					val = ad.Sub(val, ad.Mul(dp[i], ad.Const(o.parOuterFac[j]*(y[row-ss]-y[row]))))
				} else {
					val = ad.AddScaled(val, -o.fluxFacPar, ad.Const(y[idxr.OffsetJf()+i*nc+k]))
				}
				if j < np-1 {
					val = ad.Sub(val, ad.Mul(dp[i], ad.Const(o.parInnerFac[j]*(y[row+ss]-y[row]))))
				}
				res[row] = val
			}

			// bound states
			if sb > 0 {
				o.Binding.ResidualAD(t, z, r, secIdx, adCp, adQ, bres)
			}
			for b := 0; b < sb; b++ {
				row := shell + sl + b
				if hasAlg && b >= algStart && b < algStart+algLen {
					res[row] = bres[b]
					continue
				}
				val := ad.AddScaled(bres[b], timeFactor, ad.Const(ydot(row)))
				if dsv[b] != 0 || o.sensDir("par_surfdiffusion", b) >= 0 {
					if j > 0 {
						val = ad.Sub(val, ad.Mul(ds[b], ad.Const(o.parOuterFac[j]*(y[row-ss]-y[row]))))
					}
					if j < np-1 {
						val = ad.Sub(val, ad.Mul(ds[b], ad.Const(o.parInnerFac[j]*(y[row+ss]-y[row]))))
					}
				}
				res[row] = val
			}
		}
	}

	// ==== fluxes
	for i := 0; i < o.NComp; i++ {
		for k := 0; k < nc; k++ {
			row := idxr.OffsetJf() + i*nc + k
			val := ad.Const(y[row])
			val = ad.Sub(val, ad.Mul(kf[i], ad.Const(y[idxr.OffsetC(i, k)]-y[idxr.OffsetCp(k)+i])))
			res[row] = val
		}
	}
	return
}
