// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grm

// Residual evaluates F(t, y, yDot) into res. A nil yDot stands for zero
// time derivatives (used to obtain the right hand side of the consistent
// initialization). timeFactor scales all time-derivative terms. When
// wantJac is true, the state Jacobian blocks jacC and jacP are reassembled
// at (t, y) as a side effect.
func (o *Model) Residual(t float64, secIdx int, timeFactor float64, y, yDot, res []float64, wantJac bool) (err error) {

	idxr := &o.idxr
	nc, np, ss, sl, sb := o.NCol, o.NPar, idxr.StrideParShell(), idxr.StrideParLiquid(), idxr.StrideParBound()
	h := o.ColLength / float64(nc)
	u := o.Velocity
	dax := secVal(o.ColDispersion, secIdx)
	kf := secVec(o.FilmDiffusion, secIdx)
	dp := secVec(o.ParDiffusion, secIdx)
	dsv := secVec(o.ParSurfDiffusion, secIdx)
	hasAlg := o.Binding.HasAlgebraicEquations()
	algStart, algLen := o.Binding.AlgebraicBlock()

	ydot := func(i int) float64 {
		if yDot == nil {
			return 0
		}
		return yDot[i]
	}

	// ==== bulk: convection-dispersion plus film transfer
	for i := 0; i < o.NComp; i++ {
		cin := o.Inlet[i].F(t, nil)
		for k := 0; k < nc; k++ {
			row := idxr.OffsetC(i, k)
			c := y[row]
			cl := cin
			if k > 0 {
				cl = y[row-1]
			}
			val := timeFactor*ydot(row) + u*(c-cl)/h
			if k > 0 {
				val -= dax * (y[row-1] - c) / (h * h)
			}
			if k < nc-1 {
				val -= dax * (y[row+1] - c) / (h * h)
			}
			val += o.colAccel * y[idxr.OffsetJf()+i*nc+k]
			res[row] = val
		}
		if wantJac {
			jc := &o.jacC[i]
			jc.SetAll(0)
			jac := jc.Row(0)
			for k := 0; k < nc; k++ {
				diag := u / h
				if k > 0 {
					jac.Add(-1, -u/h-dax/(h*h))
					diag += dax / (h * h)
				}
				if k < nc-1 {
					jac.Add(1, -dax/(h*h))
					diag += dax / (h * h)
				}
				jac.Add(0, diag)
				jac.Next()
			}
		}
	}

	// ==== particles: radial pore/surface diffusion plus binding
	bres := o.bres
	for k := 0; k < nc; k++ {
		off := idxr.OffsetCp(k)
		z := (0.5 + float64(k)) / float64(nc)
		if wantJac {
			o.jacP[k].SetAll(0)
		}
		for j := 0; j < np; j++ {
			shell := off + j*ss
			cpShell := y[shell : shell+sl]
			qShell := y[shell+sl : shell+ss]
			r := o.parCellRadius[j]

			// liquid phase
			for i := 0; i < o.NComp; i++ {
				row := shell + i
				qdotSum := 0.0
				for b := 0; b < o.NBound[i]; b++ {
					qdotSum += ydot(shell + sl + idxr.OffsetBoundComp(i) + b)
				}
				val := timeFactor * (ydot(row) + o.invBetaP*qdotSum)
				if j > 0 {
					val -= o.parOuterFac[j] * dp[i] * (y[row-ss] - y[row])
				} else {
					val -= o.fluxFacPar * y[idxr.OffsetJf()+i*nc+k]
				}
				if j < np-1 {
					val -= o.parInnerFac[j] * dp[i] * (y[row+ss] - y[row])
				}
				res[row] = val
			}

			// bound states
			o.Binding.Residual(t, z, r, secIdx, cpShell, qShell, bres)
			for b := 0; b < sb; b++ {
				row := shell + sl + b
				if hasAlg && b >= algStart && b < algStart+algLen {
					res[row] = bres[b]
					continue
				}
				val := timeFactor*ydot(row) + bres[b]
				if ds := dsv[b]; ds != 0 {
					if j > 0 {
						val -= o.parOuterFac[j] * ds * (y[row-ss] - y[row])
					}
					if j < np-1 {
						val -= o.parInnerFac[j] * ds * (y[row+ss] - y[row])
					}
				}
				res[row] = val
			}

			// jacobian of this shell
			if wantJac {
				lr := j * ss
				jp := &o.jacP[k]
				jac := jp.Row(lr)
				for i := 0; i < o.NComp; i++ {
					if j > 0 {
						jac.Add(-ss, -o.parOuterFac[j]*dp[i])
						jac.Add(0, o.parOuterFac[j]*dp[i])
					}
					if j < np-1 {
						jac.Add(ss, -o.parInnerFac[j]*dp[i])
						jac.Add(0, o.parInnerFac[j]*dp[i])
					}
					jac.Next()
				}
				o.Binding.Jacobian(t, z, r, secIdx, cpShell, qShell, sl, jp.Row(lr+sl))
				jac = jp.Row(lr + sl)
				for b := 0; b < sb; b++ {
					if ds := dsv[b]; ds != 0 && !(hasAlg && b >= algStart && b < algStart+algLen) {
						if j > 0 {
							jac.Add(-ss, -o.parOuterFac[j]*ds)
							jac.Add(0, o.parOuterFac[j]*ds)
						}
						if j < np-1 {
							jac.Add(ss, -o.parInnerFac[j]*ds)
							jac.Add(0, o.parInnerFac[j]*ds)
						}
					}
					jac.Next()
				}
			}
		}
	}

	// ==== fluxes: j_f - k_f*(c - c_p|outer) = 0
	for i := 0; i < o.NComp; i++ {
		for k := 0; k < nc; k++ {
			row := idxr.OffsetJf() + i*nc + k
			res[row] = y[row] - kf[i]*(y[idxr.OffsetC(i, k)]-y[idxr.OffsetCp(k)+i])
		}
	}
	return
}
