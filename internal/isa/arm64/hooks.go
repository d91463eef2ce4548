package arm64

import (
	"github.com/anvilcc/anvil/internal/machinst"
	"github.com/anvilcc/anvil/internal/regalloc"
)

// SpillLayout assigns each register class's spill slots a disjoint byte
// range within the local spill area. regalloc.Result.NumSlots counts
// slots per class independently (linearscan.go's Allocate numbers
// RegClassInt's slot 0 and RegClassFloat's slot 0 separately), so a flat
// slot*8 offset would collide two different-class spills at the same
// address; SpillLayout instead reserves Int's slots first, then Float's,
// then Vector's (16 bytes each, matching sizeForClass).
type SpillLayout struct {
	base map[machinst.RegClass]int64
	size int64
}

// spillClassOrder fixes the layout order so NewSpillLayout's output is
// deterministic regardless of map iteration order.
var spillClassOrder = []machinst.RegClass{machinst.RegClassInt, machinst.RegClassFloat, machinst.RegClassVector}

// NewSpillLayout builds a SpillLayout from the allocator's per-class slot
// counts.
func NewSpillLayout(numSlots map[machinst.RegClass]int) SpillLayout {
	layout := SpillLayout{base: make(map[machinst.RegClass]int64, len(spillClassOrder))}
	offset := int64(0)
	for _, class := range spillClassOrder {
		layout.base[class] = offset
		offset += int64(numSlots[class]) * int64(sizeForClass(class))
	}
	layout.size = offset
	return layout
}

// Offset returns slot's byte offset within the spill area for class.
func (sl SpillLayout) Offset(class machinst.RegClass, slot int) int64 {
	return sl.base[class] + int64(slot)*int64(sizeForClass(class))
}

// TotalSize is the spill area's total byte size, unaligned; the frame
// builder rounds it to 16 as part of the frame's LocalSize.
func (sl SpillLayout) TotalSize() int64 { return sl.size }

// spillHooks implements regalloc.Hooks for this backend: every VReg this
// subset's lowering produces is a plain integer or vector/float value with
// no cheaper reconstruction than a reload, so Rematerializable is always
// false (spec.md §4.5 names rematerialization as a per-VReg flag a target
// may opt a value into; this target opts none in yet).
//
// StoreRegisterAfter/ReloadRegisterBefore splice a kindStoreSP/kindLoadSP
// directly into vc.Insts and vc.Blocks' index lists, addressed against the
// live (post-prologue) SP via layout rather than through a vreg — see
// lower.go's Result doc comment for why a vreg-bound stack pointer isn't
// safe for this.
type spillHooks struct {
	vc     *machinst.VCode
	layout SpillLayout
}

// NewSpillHooks builds the regalloc.Hooks implementation internal/pipeline
// wires into regalloc.Materialize for this backend. layout must be built
// from the same Result.NumSlots the allocator produced.
func NewSpillHooks(vc *machinst.VCode, layout SpillLayout) regalloc.Hooks {
	return &spillHooks{vc: vc, layout: layout}
}

func (h *spillHooks) StoreRegisterAfter(v machinst.VReg, instIndex int, slot int) {
	h.insertAfter(instIndex, &Instruction{
		Kind: kindStoreSP,
		Rd:   v,
		Imm:  h.layout.Offset(v.Class(), slot),
		Size: sizeForClass(v.Class()),
	})
}

func (h *spillHooks) ReloadRegisterBefore(v machinst.VReg, instIndex int, slot int) {
	h.insertBefore(instIndex, &Instruction{
		Kind: kindLoadSP,
		Rd:   v,
		Imm:  h.layout.Offset(v.Class(), slot),
		Size: sizeForClass(v.Class()),
	})
}

func (h *spillHooks) Rematerializable(v machinst.VReg) bool { return false }

func (h *spillHooks) RematerializeBefore(v machinst.VReg, instIndex int) {
	panic("arm64: RematerializeBefore called for a non-rematerializable VReg")
}

func sizeForClass(c machinst.RegClass) uint8 {
	switch c {
	case machinst.RegClassVector:
		return 16
	default:
		return 8
	}
}

func (h *spillHooks) insertAfter(instIndex int, inst *Instruction) {
	spliceInst(h.vc, instIndex+1, inst)
}

func (h *spillHooks) insertBefore(instIndex int, inst *Instruction) {
	spliceInst(h.vc, instIndex, inst)
}
