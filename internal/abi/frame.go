package abi

import (
	"github.com/anvilcc/anvil/internal/ir"
	"github.com/anvilcc/anvil/internal/machinst"
)

// stackProbeThreshold is the frame size, in bytes, above which a prologue
// must probe each guard page rather than adjust SP in one step (spec.md
// §4.6: "Frames >4 KB emit a stack probe loop").
const stackProbeThreshold = 4096

// framePointerForcedThreshold is the local-frame size above which frame
// pointer use is mandatory even without dynamic allocation (spec.md §4.6:
// "Frames with dynamic allocations or >512 bytes force frame-pointer
// usage").
const framePointerForcedThreshold = 512

// FrameLayout describes one function's stack frame from highest address to
// lowest, per spec.md §4.6: incoming stack args | saved FP/LR | saved
// callee-save int regs | saved callee-save float regs | local spill area |
// outgoing call-arg area.
type FrameLayout struct {
	CallConv ir.CallConv

	IncomingArgsSize int64
	CalleeSavedInt   []machinst.RealReg
	CalleeSavedFloat []machinst.RealReg
	LocalSize        int64 // spill slots + stack slots, rounded to 16
	OutgoingArgsSize int64 // max over all calls in the function of AlignedArgResultStackSlotSize

	// NeedsStackProbe is true when TotalFrameSize() exceeds
	// stackProbeThreshold and probing is enabled.
	NeedsStackProbe bool
	// NeedsFramePointer is true when the frame exceeds
	// framePointerForcedThreshold or the function makes a dynamic
	// allocation (stack_alloc-style instructions are not yet part of this
	// IR's opcode set, so today this is driven by size alone).
	NeedsFramePointer bool

	// RedZone is true when the convention permits using up to 128 bytes
	// below SP without adjusting SP at all (disabled on Darwin, spec.md
	// §4.6: "Darwin additionally reserves X18 and disables the 128-byte
	// red zone").
	RedZone bool
}

// NewFrameLayout computes a FrameLayout for a function under conv, given
// the set of callee-saved registers actually clobbered (a subset of
// CalleeSaved(conv), since only registers the allocator actually uses
// need saving) and the local/outgoing sizes the allocator and call-lowering
// already determined.
func NewFrameLayout(conv ir.CallConv, clobberedInt, clobberedFloat []machinst.RealReg, localSize, outgoingSize, incomingArgsSize int64, probestackEnabled bool) *FrameLayout {
	f := &FrameLayout{
		CallConv:         conv,
		IncomingArgsSize: incomingArgsSize,
		CalleeSavedInt:   clobberedInt,
		CalleeSavedFloat: clobberedFloat,
		LocalSize:        align16(localSize),
		OutgoingArgsSize: align16(outgoingSize),
		RedZone:          conv != ir.CallConvDarwin,
	}
	total := f.TotalFrameSize()
	f.NeedsStackProbe = probestackEnabled && total > stackProbeThreshold
	f.NeedsFramePointer = f.LocalSize > framePointerForcedThreshold
	return f
}

func align16(n int64) int64 { return (n + 15) &^ 15 }

// CalleeSaveAreaSize is the byte size of the FP/LR pair plus every saved
// callee-save register, each 8 bytes, rounded to 16.
func (f *FrameLayout) CalleeSaveAreaSize() int64 {
	return align16(16 + 8*int64(len(f.CalleeSavedInt)+len(f.CalleeSavedFloat)))
}

// TotalFrameSize is the full allocation the prologue's `sub sp, sp, #n`
// (or probe loop) must carve out below the incoming stack-args boundary,
// rounded to 16 bytes per spec.md §4.6.
func (f *FrameLayout) TotalFrameSize() int64 {
	return align16(f.CalleeSaveAreaSize() + f.LocalSize + f.OutgoingArgsSize)
}

// StpLdpEligible reports whether a callee-save pair's SP-relative
// displacement fits stp/ldp's signed 7-bit-times-8 immediate range
// (spec.md §4.6: "Frames whose callee-save displacement exceeds the
// immediate range of stp/ldp use multiple sub/str pairs").
func StpLdpEligible(displacement int64) bool {
	const maxStpImm = 63 * 8 // 7-bit signed immediate, scaled by 8
	return displacement >= -maxStpImm-8 && displacement <= maxStpImm
}
