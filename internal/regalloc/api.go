// Package regalloc implements the register allocator: liveness analysis and
// linear-scan allocation over a machinst.VCode, tying VRegs to physical
// registers and stack slots per spec.md §4.5.
package regalloc

import "github.com/anvilcc/anvil/internal/machinst"

// RegisterInfo is the ISA-specific register file the allocator works
// against: which physical registers are available for allocation per
// class, which are callee-saved (so using one forces the prologue to save
// it), and which are caller-saved (so a live range spanning a call forces a
// spill or a caller-saved-register exclusion). Grounded on the
// `other_examples` vendored regalloc/api.go's regInfo structure (wazero's
// `regalloc.RegisterInfo`), adapted to this package's concrete
// machinst.VReg/RealReg types rather than that snapshot's own parallel
// types.
type RegisterInfo struct {
	Allocatable  map[machinst.RegClass][]machinst.RealReg
	CalleeSaved  map[machinst.RealReg]bool
	CallerSaved  map[machinst.RealReg]bool
}

// Hooks lets the allocator ask the ISA backend to materialize spill
// stores, reloads, and coalescing moves as concrete MachInsts, since only
// the ISA package knows how to construct a `str`/`ldr`/`mov` for its
// target. Grounded on the vendored regalloc/api.go's
// StoreRegisterBefore/ReloadRegisterBefore/InsertMoveBefore/SwapBefore
// methods of its generic Function interface, narrowed to this package's
// concrete VCode/index addressing instead of that snapshot's
// iterator-cursor addressing.
type Hooks interface {
	// StoreRegisterAfter inserts a spill store for v immediately after
	// the instruction at instIndex (v's definition point) into stack slot
	// slot.
	StoreRegisterAfter(v machinst.VReg, instIndex int, slot int)
	// ReloadRegisterBefore inserts a reload for v from stack slot slot
	// immediately before the instruction at instIndex (one of v's uses).
	ReloadRegisterBefore(v machinst.VReg, instIndex int, slot int)
	// Rematerializable reports whether v is cheap enough to reconstruct
	// that the allocator should prefer emitting that reconstruction over
	// a spill/reload pair (spec.md §4.5: "a per-VReg flag marks
	// rematerializable values"); if true, RematerializeBefore does the
	// reconstruction instead of ReloadRegisterBefore at each use.
	Rematerializable(v machinst.VReg) bool
	RematerializeBefore(v machinst.VReg, instIndex int)
}

// StackSlot identifies one spill slot in the function's spill area, sized
// for one VReg's class.
type StackSlot int

const StackSlotInvalid StackSlot = -1

// Assignment is the allocator's verdict for one VReg: either a RealReg or,
// if it was spilled, a StackSlot (never both — a spilled VReg is reloaded
// into a temporary at each use rather than kept resident).
type Assignment struct {
	Real machinst.RealReg
	Slot StackSlot
}

func (a Assignment) Spilled() bool { return a.Slot != StackSlotInvalid }
