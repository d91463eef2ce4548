// Package opt is the mid-end optimizer: a fixed set of independent passes over
// a verified ir.Function, run in a driver-controlled order. Passes never
// coordinate directly with each other; each reads and rewrites the Function
// through internal/analysis and internal/ir alone, so passes can be reordered,
// disabled, or iterated to a fixed point without one pass needing to know the
// others exist.
package opt

import (
	"github.com/sirupsen/logrus"

	"github.com/anvilcc/anvil/internal/ccapi"
	"github.com/anvilcc/anvil/internal/ir"
)

// Level selects how aggressively the driver runs the optimizer, mirroring the
// Context-level opt_level option from the public API.
type Level byte

const (
	LevelNone Level = iota
	LevelSpeed
	LevelSpeedAndSize
)

// Pass is one independent transform over f. It returns true if it changed
// anything, which the driver uses to decide whether iterating the fixedpoint
// set again is still worthwhile.
type Pass func(f *ir.Function) bool

// fixedpointSet is rerun to a fixed point once at LevelSpeed and twice at
// LevelSpeedAndSize (see Run). Outside the set, SCCP, LICM, AliasRLE and DCE
// run once each and UCE three times; at LevelNone only a single UCE runs.
var fixedpointSet = []Pass{
	InstCombine,
	SimplifyBranches,
	DCE,
	CopyPropagate,
	GVN,
}

const maxFixedpointIterations = 32

// runFixedpoint iterates fixedpointSet over f until no pass reports a change
// or maxFixedpointIterations is reached, logging how many rounds it took.
func runFixedpoint(f *ir.Function, log logrus.FieldLogger) {
	i := 0
	for ; i < maxFixedpointIterations; i++ {
		changed := false
		for _, p := range fixedpointSet {
			if p(f) {
				changed = true
			}
		}
		if !changed {
			i++
			break
		}
	}
	log.WithField("rounds", i).Debug("fixedpoint set converged")
}

// Run executes the mid-end pipeline over f at the given level. Order matters:
// UCE before DCE gives DCE a smaller reachable set to scan; SCCP before the
// fixedpoint set lets instcombine and GVN see folded constants immediately;
// LICM runs once, after the fixedpoint set stabilizes, since it depends on a
// clean DCE'd body to identify genuinely invariant instructions. log may be
// nil, in which case diagnostics are discarded.
func Run(f *ir.Function, level Level, log logrus.FieldLogger) {
	if log == nil {
		log = ccapi.NewLogger()
	}
	log = ccapi.StageLogger(log, "optimize", f.Name)

	if level == LevelNone {
		UCE(f)
		return
	}

	UCE(f)
	SCCP(f)
	UCE(f)

	runFixedpoint(f, log)

	LICM(f)
	AliasRLE(f)
	DCE(f)

	if level == LevelSpeedAndSize {
		runFixedpoint(f, log)
	}
	UCE(f)
}
