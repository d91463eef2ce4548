package arm64

import (
	"github.com/anvilcc/anvil/internal/abi"
	"github.com/anvilcc/anvil/internal/machinst"
	"github.com/anvilcc/anvil/internal/regalloc"
)

// BuildFrameLayout derives a function's abi.FrameLayout from the
// allocator's verdict: which callee-saved registers it actually handed
// out (a subset of RegisterInfo().CalleeSaved, since only registers the
// allocator uses need saving), the spill area's size, and the function's
// own classified signature (for the incoming-args size, informational
// only — incoming args are addressed relative to the post-prologue SP
// plus the final frame size, not relative to this frame's own layout).
// Clobbered-register membership is checked by iterating the fixed-order
// allocatableInt/allocatableVector slices rather than result.Assignments
// directly, so the output (and therefore the emitted save/restore list)
// is deterministic regardless of map iteration order.
func BuildFrameLayout(info *abi.FunctionABI, result *regalloc.Result, spillSize int64, probestackEnabled bool) *abi.FrameLayout {
	regInfo := RegisterInfo()
	used := map[machinst.RealReg]bool{}
	for _, a := range result.Assignments {
		if !a.Spilled() {
			used[a.Real] = true
		}
	}

	var clobberedInt []machinst.RealReg
	for _, r := range allocatableInt {
		if regInfo.CalleeSaved[r] && used[r] {
			clobberedInt = append(clobberedInt, r)
		}
	}
	var clobberedFloat []machinst.RealReg
	for _, r := range allocatableVector {
		if regInfo.CalleeSaved[r] && used[r] {
			clobberedFloat = append(clobberedFloat, r)
		}
	}

	// Outgoing call-arg stack space is always 0: lowerCall panics on
	// stack-passed call arguments, so no function this backend lowers
	// needs an outgoing area.
	return abi.NewFrameLayout(info.CallConv, clobberedInt, clobberedFloat, spillSize, 0, info.ArgStackSize, probestackEnabled)
}

// InsertPrologueEpilogue splices the prologue (frame-size sub, FP/LR
// save, clobbered-callee-save-register save, optional frame-pointer set)
// at the start of the function, and a mirrored epilogue before every
// kindRet. Resulting layout, highest address first: incoming stack args |
// saved callee-save float regs | saved callee-save int regs | saved FP/LR
// | local spill area | outgoing call-arg area (always empty here). The
// FP/LR pair sits at the bottom of the callee-save area, below the other
// saved registers, not directly under the incoming stack args.
//
// Called after regalloc.Allocate/Materialize have already run: every
// instruction this function inserts carries no VReg operand at all (it
// names real registers directly via Freg), so splicing them in afterward
// cannot invalidate any already-computed Assignment.
func InsertPrologueEpilogue(vc *machinst.VCode, fl *abi.FrameLayout) {
	calleeSaveOff := fl.LocalSize + fl.OutgoingArgsSize
	total := fl.TotalFrameSize()

	at := 0
	at = spliceAt(vc, at, &Instruction{Kind: kindFrameAdjust, Imm: total, Grow: true})
	at = spliceAt(vc, at, &Instruction{Kind: kindSaveReg, Freg: RegX29, Imm: calleeSaveOff, Size: 8})
	at = spliceAt(vc, at, &Instruction{Kind: kindSaveReg, Freg: RegX30, Imm: calleeSaveOff + 8, Size: 8})

	off := calleeSaveOff + 16
	for _, r := range fl.CalleeSavedInt {
		at = spliceAt(vc, at, &Instruction{Kind: kindSaveReg, Freg: r, Imm: off, Size: 8})
		off += 8
	}
	for _, r := range fl.CalleeSavedFloat {
		at = spliceAt(vc, at, &Instruction{Kind: kindSaveReg, Freg: r, Imm: off, Size: 8})
		off += 8
	}
	if fl.NeedsFramePointer {
		spliceAt(vc, at, &Instruction{Kind: kindSetFP})
	}

	insertEpilogues(vc, fl, calleeSaveOff, total)
	FixIncomingFrameOffsets(vc, total)
}

func spliceAt(vc *machinst.VCode, at int, inst *Instruction) int {
	spliceInst(vc, at, inst)
	return at + 1
}

// insertEpilogues mirrors the prologue's saves before every kindRet,
// processing return sites in descending instruction-index order so that
// inserting before a later kindRet never shifts an earlier one still
// awaiting its own epilogue.
func insertEpilogues(vc *machinst.VCode, fl *abi.FrameLayout, calleeSaveOff, total int64) {
	var rets []int
	for i, inst := range vc.Insts {
		if ai, ok := inst.(*Instruction); ok && ai.Kind == kindRet {
			rets = append(rets, i)
		}
	}
	for i := len(rets) - 1; i >= 0; i-- {
		at := rets[i]
		off := calleeSaveOff + 16
		for _, r := range fl.CalleeSavedInt {
			at = spliceAt(vc, at, &Instruction{Kind: kindRestoreReg, Freg: r, Imm: off, Size: 8})
			off += 8
		}
		for _, r := range fl.CalleeSavedFloat {
			at = spliceAt(vc, at, &Instruction{Kind: kindRestoreReg, Freg: r, Imm: off, Size: 8})
			off += 8
		}
		at = spliceAt(vc, at, &Instruction{Kind: kindRestoreReg, Freg: RegX29, Imm: calleeSaveOff, Size: 8})
		at = spliceAt(vc, at, &Instruction{Kind: kindRestoreReg, Freg: RegX30, Imm: calleeSaveOff + 8, Size: 8})
		spliceAt(vc, at, &Instruction{Kind: kindFrameAdjust, Imm: total, Grow: false})
	}
}

// FixIncomingFrameOffsets adds total to every kindLoadSP/kindStoreSP
// instruction addressing the incoming stack-args area (Incoming true):
// lower.go emits those offsets relative to the incoming SP before the
// frame size is known, since that size depends on the allocator's spill
// and clobbered-register counts, computed only after Allocate runs.
func FixIncomingFrameOffsets(vc *machinst.VCode, total int64) {
	for _, inst := range vc.Insts {
		ai, ok := inst.(*Instruction)
		if !ok {
			continue
		}
		if (ai.Kind == kindLoadSP || ai.Kind == kindStoreSP) && ai.Incoming {
			ai.Imm += total
		}
	}
}
