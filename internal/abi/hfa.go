package abi

import (
	"github.com/anvilcc/anvil/internal/ir"
	"github.com/anvilcc/anvil/internal/machinst"
)

// IsHFAOrHVA reports whether fields describes a homogeneous float aggregate
// (1-4 identical float/double fields) or homogeneous vector aggregate (1-4
// identical vector fields) — spec.md §4.6 and the GLOSSARY's HFA/HVA entry.
// This IR represents an aggregate argument as the caller-supplied flat list
// of its field types (it has no struct Type), so this just checks that
// list directly.
func IsHFAOrHVA(fields []ir.Type) bool {
	if len(fields) == 0 || len(fields) > 4 {
		return false
	}
	first := fields[0]
	if !first.IsFloat() && !first.IsVector() {
		return false
	}
	for _, f := range fields[1:] {
		if f != first {
			return false
		}
	}
	return true
}

// ClassifyHFA assigns fields to consecutive V registers starting at
// floatBase if a complete set is available (spec.md §4.6: "passed in
// consecutive V registers when a complete set is available, else entirely
// on the stack"), and reports whether it succeeded; on failure, callers
// fall back to placing every field on the stack as one contiguous block
// rather than mixing register and stack fields (AAPCS64 never splits an
// HFA/HVA across that boundary).
func ClassifyHFA(fields []ir.Type, floatRegs []machinst.RealReg, floatUsed int) (locs []ArgLoc, ok bool) {
	if floatUsed+len(fields) > len(floatRegs) {
		return nil, false
	}
	for i, f := range fields {
		locs = append(locs, ArgLoc{Kind: ArgKindReg, Reg: floatRegs[floatUsed+i], Type: f})
	}
	return locs, true
}
