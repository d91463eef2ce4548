package ccapi

import "github.com/pkg/errors"

// ErrorKind taxonomizes why a compilation failed. It is not a type name: a
// CompileError always carries one of these plus the stage that raised it.
type ErrorKind byte

const (
	// InvalidIR is a verifier rejection: dominance violation, type
	// mismatch, missing terminator, block-arg mismatch, cyclic alias.
	InvalidIR ErrorKind = iota
	// UnsupportedOpcode means lowering has no rule for an opcode at the
	// operand types given, raised by the dispatch table's default branch.
	UnsupportedOpcode
	// LoweringFailed means a legal IR construct could not be encoded on
	// the target after all legalization fallbacks were exhausted.
	LoweringFailed
	// RegAllocFailure means the allocator ran out of registers after
	// spill heuristics failed to find a victim. Should not occur for
	// well-formed IR; treated as an implementation limit.
	RegAllocFailure
	// BufferOverflow means the encoded code exceeded an implementation
	// limit (2 GiB).
	BufferOverflow
	// InternalInvariantViolation is fatal and indicates a bug in the
	// compiler itself, not in the input IR.
	InternalInvariantViolation
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidIR:
		return "InvalidIR"
	case UnsupportedOpcode:
		return "UnsupportedOpcode"
	case LoweringFailed:
		return "LoweringFailed"
	case RegAllocFailure:
		return "RegAllocFailure"
	case BufferOverflow:
		return "BufferOverflow"
	case InternalInvariantViolation:
		return "InternalInvariantViolation"
	default:
		return "unknown"
	}
}

// CompileError is the one typed error surface Context.compile returns. Stage
// is the pipeline stage name ("verify", "optimize", "lower", "regalloc",
// "emit") that raised it. Cause is the underlying error, wrapped with
// pkg/errors at the point it crossed the stage boundary so a stack trace
// survives to the caller.
type CompileError struct {
	Kind     ErrorKind
	Stage    string
	Function string
	Cause    error
}

func (e *CompileError) Error() string {
	if e.Function != "" {
		return e.Kind.String() + " in " + e.Stage + " (" + e.Function + "): " + e.Cause.Error()
	}
	return e.Kind.String() + " in " + e.Stage + ": " + e.Cause.Error()
}

func (e *CompileError) Unwrap() error { return e.Cause }

// Wrap builds a CompileError, wrapping cause with errors.WithStack so the
// stack at the call to Wrap is recorded (a new trace is added even if cause
// already carries one).
func Wrap(kind ErrorKind, stage, function string, cause error) *CompileError {
	return &CompileError{Kind: kind, Stage: stage, Function: function, Cause: errors.WithStack(cause)}
}
