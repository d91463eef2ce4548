// Package pipeline drives one Function through every compilation stage in
// order: verify, optimize, lower, register-allocate, emit, finalize. It is
// the one place that sequences internal/analysis, internal/opt,
// internal/isa/arm64, internal/regalloc and internal/machinst together;
// the packages import each other's types and helpers (opt uses analysis,
// arm64 uses machinst and regalloc), but only this driver runs the stages
// in order. Grounded on spec.md
// §4.12/§6's named pipeline stages and on the teacher's
// internal/engine/wazevo frontend/backend compilation driver shape
// (verify-then-lower-then-finish), generalized here into an explicit,
// target-agnostic driver function with the AArch64 backend wired in as
// this module's one implemented target.
package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/anvilcc/anvil/internal/analysis"
	"github.com/anvilcc/anvil/internal/ccapi"
	"github.com/anvilcc/anvil/internal/ir"
	"github.com/anvilcc/anvil/internal/isa/arm64"
	"github.com/anvilcc/anvil/internal/machinst"
	"github.com/anvilcc/anvil/internal/opt"
	"github.com/anvilcc/anvil/internal/regalloc"
)

// optLevel maps the public OptLevel to internal/opt's own Level type, kept
// distinct so internal/opt has no dependency on internal/ccapi's surface
// beyond what Run already imports for its default logger.
func optLevel(o ccapi.OptLevel) opt.Level {
	switch o {
	case ccapi.OptLevelNone:
		return opt.LevelNone
	case ccapi.OptLevelSpeed:
		return opt.LevelSpeed
	default:
		return opt.LevelSpeedAndSize
	}
}

// Compile runs f through every stage and returns the finished machine code
// and its metadata, or the first CompileError any stage raises. log may be
// nil, in which case each stage discards its diagnostics.
func Compile(f *ir.Function, opts ccapi.Options, log logrus.FieldLogger) (*ccapi.CompiledCode, error) {
	if log == nil {
		log = ccapi.NewLogger()
	}

	if opts.EnableVerifier {
		if errs := analysis.Verify(f); len(errs) > 0 {
			return nil, ccapi.Wrap(ccapi.InvalidIR, "verify", f.Name, errs[0])
		}
	}

	opt.Run(f, optLevel(opts.OptLevel), log)

	if opts.EnableVerifier {
		if errs := analysis.Verify(f); len(errs) > 0 {
			return nil, ccapi.Wrap(ccapi.InternalInvariantViolation, "optimize", f.Name, errs[0])
		}
	}

	lowered := arm64.Lower(f)
	vc := lowered.VCode

	intervals, fixed := regalloc.ComputeLiveness(vc)
	result := regalloc.Allocate(intervals, fixed, arm64.RegisterInfo())

	spillLayout := arm64.NewSpillLayout(result.NumSlots)
	frameLayout := arm64.BuildFrameLayout(lowered.ABI, result, spillLayout.TotalSize(), opts.EnableProbestack)

	regalloc.Materialize(vc, result, arm64.NewSpillHooks(vc, spillLayout))
	arm64.InsertPrologueEpilogue(vc, frameLayout)
	elided := regalloc.Coalesce(vc)

	buf := arm64.Emit(vc, elided)
	machinst.Finish(buf, arm64.Resolvers())

	return &ccapi.CompiledCode{
		Code:           buf.Bytes,
		Relocations:    buf.Relocs(),
		Traps:          buf.Traps(),
		StackFrameSize: uint32(frameLayout.TotalFrameSize()),
	}, nil
}
