// Copyright 2016 The Gochrom Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// gochrom simulates chromatographic columns using the general rate model.
//
//	usage: gochrom simfile.sim [verbose] [benchmark]
//
// Exit status: 0 on success, 1 on usage or generic errors, 2 on I/O or
// file-format errors, 3 on solver or integration errors.
package main

import (
	"os"

	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gochrom/inp"
	"github.com/cpmech/gochrom/out"
	"github.com/cpmech/gochrom/sim"
)

// exit codes of the command line driver
const (
	exitOk      = 0
	exitUsage   = 1
	exitIoError = 2
	exitSolver  = 3
)

func main() {
	os.Exit(run())
}

func run() int {

	// input parameters
	simfilepath, fnkOk := io.ArgToFilename(0, "", ".sim", false)
	verbose := io.ArgToBool(1, true)
	benchmark := io.ArgToBool(2, false)
	if !fnkOk {
		io.PfRed("a simulation (.sim) file is required\n")
		io.Pf("usage: gochrom simfile.sim [verbose] [benchmark]\n")
		return exitUsage
	}

	// read input data
	simdata, err := inp.ReadSim(simfilepath)
	if err != nil {
		io.PfRed("cannot read simulation input:\n%v\n", err)
		return exitIoError
	}
	if verbose {
		io.Pf("> Simulation (.sim) file read\n")
		if simdata.Data.Desc != "" {
			io.Pf("> %s\n", simdata.Data.Desc)
		}
	}

	// allocate model
	mdl, err := simdata.MakeModel()
	if err != nil {
		io.PfRed("cannot configure model:\n%v\n", err)
		return exitUsage
	}
	if verbose {
		io.Pf("> Model configured: %d components, %d cells, %d shells, %d DOFs\n",
			mdl.NComp, mdl.NCol, mdl.NPar, mdl.NumDofs())
	}

	// simulator
	simu := sim.NewSimulator(mdl)
	simu.ShowMsg = verbose
	simu.ConfigureTimeIntegrator(simdata.Solver.RelTol, simdata.Solver.AbsTol, simdata.Solver.InitStep, simdata.Solver.MaxSteps)
	if simdata.Solver.AlgTol > 0 {
		simu.AlgTol = simdata.Solver.AlgTol
	}
	if simdata.Solver.ConsistentInit != "" {
		simu.ConsistentInit = simdata.Solver.ConsistentInit
	}
	simu.SetSectionTimes(simdata.Time.SectionTimes, simdata.Time.SectionContinuity)
	simu.SetSolutionTimes(simdata.Time.SolutionTimes)
	for _, sp := range simdata.Sensitivities {
		err = simu.SetSensitiveParameter(sp.Name, sp.Comp, sp.AbsTol)
		if err != nil {
			io.PfRed("cannot register sensitive parameter:\n%v\n", err)
			return exitUsage
		}
	}

	// recorder
	rec := out.NewResults(mdl.NComp, mdl.NCol, len(simdata.Sensitivities), false)
	simu.SetSolutionRecorder(rec)

	// integrate
	if verbose {
		io.Pf("> Running time integration\n")
	}
	err = simu.Integrate()
	if err != nil {
		io.PfRed("integration failed:\n%v\n", err)
		return exitSolver
	}
	if verbose {
		io.PfGreen("> Success\n")
		io.Pf("> CPU time = %v s\n", simu.LastSimulationDuration())
		rec.Report()
	}

	// write results
	err = rec.Save(simdata.Data.DirOut, simdata.Key, simdata.Data.Encoder)
	if err != nil {
		io.PfRed("cannot write results:\n%v\n", err)
		return exitIoError
	}
	if verbose {
		io.Pf("> Results written to %s/%s.res\n", simdata.Data.DirOut, simdata.Key)
	}

	// benchmark timings in JSON format
	if benchmark {
		rep, err := mdl.Timers.Report("GeneralRateModel")
		if err != nil {
			io.PfRed("cannot assemble timing report:\n%v\n", err)
			return exitUsage
		}
		io.Pf("%s\n", string(rep))
	}
	return exitOk
}
