package arm64

import "github.com/anvilcc/anvil/internal/ir"

// cond is an AArch64 condition code, used by conditional branches and
// conditional-select instructions. Grounded directly on
// internal/engine/wazevo/backend/isa/arm64/cond.go, including its naming
// and invert() table.
type cond uint8

const (
	condEQ cond = iota
	condNE
	condHS
	condLO
	condMI
	condPL
	condVS
	condVC
	condHI
	condLS
	condGE
	condLT
	condGT
	condLE
	condAL
)

var condNames = [...]string{"eq", "ne", "hs", "lo", "mi", "pl", "vs", "vc", "hi", "ls", "ge", "lt", "gt", "le", "al"}

func (c cond) String() string { return condNames[c] }

func (c cond) invert() cond {
	switch c {
	case condEQ:
		return condNE
	case condNE:
		return condEQ
	case condHS:
		return condLO
	case condLO:
		return condHS
	case condMI:
		return condPL
	case condPL:
		return condMI
	case condVS:
		return condVC
	case condVC:
		return condVS
	case condHI:
		return condLS
	case condLS:
		return condHI
	case condGE:
		return condLT
	case condLT:
		return condGE
	case condGT:
		return condLE
	case condLE:
		return condGT
	default:
		return condAL
	}
}

// fromCondCode maps an ir.CondCode comparison predicate to the AArch64
// condition code a prior `cmp`/`subs` sets that predicate against, per the
// standard AAPCS64 flag-setting convention (unsigned comparisons use
// HS/LO/HI/LS; signed ones use GE/LT/GT/LE).
func fromCondCode(cc ir.CondCode) cond {
	switch cc {
	case ir.CondEqual:
		return condEQ
	case ir.CondNotEqual:
		return condNE
	case ir.CondUnsignedLessThan:
		return condLO
	case ir.CondUnsignedLessThanOrEqual:
		return condLS
	case ir.CondUnsignedGreaterThan:
		return condHI
	case ir.CondUnsignedGreaterThanOrEqual:
		return condHS
	case ir.CondSignedLessThan:
		return condLT
	case ir.CondSignedLessThanOrEqual:
		return condLE
	case ir.CondSignedGreaterThan:
		return condGT
	case ir.CondSignedGreaterThanOrEqual:
		return condGE
	default:
		return condAL
	}
}
