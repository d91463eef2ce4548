// Package ccapi holds the types shared across compilation stages: the
// options a Context is configured with, the typed error a failing stage
// reports, and the artifacts a finished compilation produces. Keeping these
// in their own package (rather than in the root anvil package or in
// internal/ir) lets internal/opt, internal/isa/arm64, internal/regalloc and
// internal/pipeline all depend on the same vocabulary without an import
// cycle back to the public API.
package ccapi

// OptLevel selects how much the mid-end optimizer and lowering layer spend
// compile time to improve code quality.
type OptLevel byte

const (
	OptLevelNone OptLevel = iota
	OptLevelSpeed
	OptLevelSpeedAndSize
)

func (l OptLevel) String() string {
	switch l {
	case OptLevelNone:
		return "none"
	case OptLevelSpeed:
		return "speed"
	case OptLevelSpeedAndSize:
		return "speed_and_size"
	default:
		return "unknown"
	}
}

// Options configures a Context. The zero value is not valid; use
// DefaultOptions and override fields as needed.
type Options struct {
	OptLevel                OptLevel
	EnableVerifier           bool
	EnableProbestack         bool
	EnableSpectreMitigation  bool
}

func DefaultOptions() Options {
	return Options{
		OptLevel:                OptLevelSpeedAndSize,
		EnableVerifier:          true,
		EnableProbestack:        true,
		EnableSpectreMitigation: true,
	}
}
