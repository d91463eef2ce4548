// Package anvil is a retargetable SSA compiler backend: build a Function
// with internal/ir's Builder, compile it against a target with a Context,
// and get back relocatable machine code plus the metadata a linker or JIT
// loader needs to place and unwind through it.
//
// This mirrors the teacher's (tetratelabs/wazero) internal/engine/wazevo
// compiler pipeline shape — SSA builder, optimizer, lowering, register
// allocator, MachBuffer emitter — generalized from a single embedded Wasm
// engine into a standalone library with that pipeline as its public
// surface.
package anvil

import (
	"github.com/sirupsen/logrus"

	"github.com/anvilcc/anvil/internal/ccapi"
	"github.com/anvilcc/anvil/internal/ir"
	"github.com/anvilcc/anvil/internal/pipeline"
)

// ISA names a compilation target. AArch64 is this module's one implemented
// backend; X86_64 is declared for the follow-on named in spec.md §1 and
// rejected by Compile until that backend lands.
type ISA byte

const (
	AArch64 ISA = iota
	X86_64
)

func (t ISA) String() string {
	switch t {
	case AArch64:
		return "arm64"
	case X86_64:
		return "x86_64"
	default:
		return "unknown"
	}
}

// Options configures a Context. See ccapi.Options for field documentation;
// re-exported here so callers need not import internal/ccapi directly.
type Options = ccapi.Options

// DefaultOptions returns the Options a Context uses if none are supplied:
// full optimization, verifier on, probestack and Spectre mitigation on.
func DefaultOptions() Options { return ccapi.DefaultOptions() }

// CompiledCode is the artifact Compile produces for one Function. See
// ccapi.CompiledCode for field documentation; re-exported here for the
// same reason as Options.
type CompiledCode = ccapi.CompiledCode

// CompileError is the one typed error surface Compile returns. See
// ccapi.CompileError for field documentation.
type CompileError = ccapi.CompileError

// Context holds the configuration a series of Compile calls share: target
// ISA, compile options, and an optional logger for pipeline diagnostics.
// Grounded on the teacher's wazevoapi.CompilerOptions/Engine construction
// pattern, narrowed to a single plain struct since this module has no
// Wasm-engine-level state (module cache, host-function table) to carry
// alongside the compiler configuration.
type Context struct {
	ISA     ISA
	Options Options
	Log     logrus.FieldLogger
}

// NewContext returns a Context targeting isa with opts, logging discarded
// unless overridden by setting Context.Log directly afterward.
func NewContext(isa ISA, opts Options) *Context {
	return &Context{ISA: isa, Options: opts, Log: ccapi.NewLogger()}
}

// Compile runs f through verify, optimize, lower, register-allocate, emit
// and finalize in order, per spec.md §6's Context.compile(function, isa,
// options). Only AArch64 is implemented; X86_64 returns an
// UnsupportedOpcode CompileError rather than attempting a lowering this
// module does not yet carry a dispatch table for.
func (c *Context) Compile(f *ir.Function) (*CompiledCode, error) {
	if c.ISA != AArch64 {
		return nil, ccapi.Wrap(ccapi.UnsupportedOpcode, "lower", f.Name,
			errUnimplementedISA(c.ISA))
	}
	return pipeline.Compile(f, c.Options, c.Log)
}

type errUnimplementedISA ISA

func (e errUnimplementedISA) Error() string {
	return "anvil: " + ISA(e).String() + " backend is not yet implemented"
}
