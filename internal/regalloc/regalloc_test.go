package regalloc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anvilcc/anvil/internal/machinst"
)

// fakeInst is a minimal MachInst for exercising the allocator without a
// real ISA encoder, mirroring how the teacher's own regalloc tests
// (exercised against wazero's ssa/backend test fixtures) drive the
// allocator with synthetic instruction streams rather than real encodings.
type fakeInst struct {
	ops    []machinst.Operand
	copy   bool
	copySrc, copyDst machinst.VReg
	call   bool
}

func (f *fakeInst) Operands(dst []machinst.Operand) []machinst.Operand { return append(dst, f.ops...) }
func (f *fakeInst) AssignReal(index int, real machinst.RealReg) {
	f.ops[index].Reg = f.ops[index].Reg.WithRealReg(real)
	if f.copy {
		if f.ops[index].Reg.ID() == f.copySrc.ID() {
			f.copySrc = f.ops[index].Reg
		}
		if f.ops[index].Reg.ID() == f.copyDst.ID() {
			f.copyDst = f.ops[index].Reg
		}
	}
}
func (f *fakeInst) IsCopy() (machinst.VReg, machinst.VReg, bool) {
	if !f.copy {
		return 0, 0, false
	}
	return f.copySrc, f.copyDst, true
}
func (f *fakeInst) IsCall() bool         { return f.call }
func (f *fakeInst) IsIndirectCall() bool { return false }
func (f *fakeInst) IsReturn() bool       { return false }
func (f *fakeInst) IsTerminator() bool   { return false }
func (f *fakeInst) String() string       { return fmt.Sprintf("%+v", f.ops) }

type fakeHooks struct {
	spilled  []machinst.VRegID
	reloaded []machinst.VRegID
}

func (h *fakeHooks) StoreRegisterAfter(v machinst.VReg, instIndex int, slot int) {
	h.spilled = append(h.spilled, v.ID())
}
func (h *fakeHooks) ReloadRegisterBefore(v machinst.VReg, instIndex int, slot int) {
	h.reloaded = append(h.reloaded, v.ID())
}
func (h *fakeHooks) Rematerializable(v machinst.VReg) bool        { return false }
func (h *fakeHooks) RematerializeBefore(v machinst.VReg, idx int) {}

func twoRegInfo() RegisterInfo {
	return RegisterInfo{
		Allocatable: map[machinst.RegClass][]machinst.RealReg{
			machinst.RegClassInt: {1, 2},
		},
	}
}

func TestAllocate_ReusesExpiredRegisterAcrossNonOverlappingIntervals(t *testing.T) {
	var alloc machinst.VRegAllocator
	a := alloc.Alloc(machinst.RegClassInt)
	b := alloc.Alloc(machinst.RegClassInt)

	vc := machinst.NewVCode("f")
	bi := vc.AppendBlock(machinst.Label(0))
	vc.Emit(bi, &fakeInst{ops: []machinst.Operand{machinst.DefOperand(a)}})
	vc.Emit(bi, &fakeInst{ops: []machinst.Operand{machinst.UseOperand(a)}})
	vc.Emit(bi, &fakeInst{ops: []machinst.Operand{machinst.DefOperand(b)}})
	vc.Emit(bi, &fakeInst{ops: []machinst.Operand{machinst.UseOperand(b)}})

	intervals, fixed := ComputeLiveness(vc)
	require.Len(t, intervals, 2)
	require.Empty(t, fixed)

	result := Allocate(intervals, fixed, twoRegInfo())
	require.False(t, result.Assignments[a.ID()].Spilled())
	require.False(t, result.Assignments[b.ID()].Spilled())
	require.Equal(t, result.Assignments[a.ID()].Real, result.Assignments[b.ID()].Real,
		"a's range ends before b's begins, so b should reuse a's register")
}

func TestAllocate_SpillsWhenMoreLiveThanRegisters(t *testing.T) {
	var alloc machinst.VRegAllocator
	a := alloc.Alloc(machinst.RegClassInt)
	b := alloc.Alloc(machinst.RegClassInt)
	c := alloc.Alloc(machinst.RegClassInt)

	vc := machinst.NewVCode("f")
	bi := vc.AppendBlock(machinst.Label(0))
	vc.Emit(bi, &fakeInst{ops: []machinst.Operand{machinst.DefOperand(a)}})
	vc.Emit(bi, &fakeInst{ops: []machinst.Operand{machinst.DefOperand(b)}})
	vc.Emit(bi, &fakeInst{ops: []machinst.Operand{machinst.DefOperand(c)}})
	vc.Emit(bi, &fakeInst{ops: []machinst.Operand{machinst.UseOperand(a), machinst.UseOperand(b), machinst.UseOperand(c)}})

	intervals, fixed := ComputeLiveness(vc)
	result := Allocate(intervals, fixed, twoRegInfo())

	var spilled int
	for _, id := range []machinst.VRegID{a.ID(), b.ID(), c.ID()} {
		if result.Assignments[id].Spilled() {
			spilled++
		}
	}
	require.Equal(t, 1, spilled, "three simultaneously-live VRegs against a two-register pool must spill exactly one")

	hooks := &fakeHooks{}
	Materialize(vc, result, hooks)
	require.Len(t, hooks.spilled, 1)
	require.Len(t, hooks.reloaded, 1)
}

func TestComputeLiveness_RecordsFixedUseReservation(t *testing.T) {
	var alloc machinst.VRegAllocator
	a := alloc.Alloc(machinst.RegClassInt)

	vc := machinst.NewVCode("f")
	bi := vc.AppendBlock(machinst.Label(0))
	vc.Emit(bi, &fakeInst{ops: []machinst.Operand{machinst.DefOperand(a)}})
	vc.Emit(bi, &fakeInst{ops: []machinst.Operand{machinst.FixedUseOperand(a, 1)}})

	intervals, fixed := ComputeLiveness(vc)
	require.Len(t, fixed, 1)
	require.Equal(t, machinst.RealReg(1), fixed[0].Reg)
}

func TestCoalesce_ElidesSameRegisterMove(t *testing.T) {
	var alloc machinst.VRegAllocator
	a := alloc.Alloc(machinst.RegClassInt).WithRealReg(1)
	b := alloc.Alloc(machinst.RegClassInt).WithRealReg(1)

	vc := machinst.NewVCode("f")
	bi := vc.AppendBlock(machinst.Label(0))
	vc.Emit(bi, &fakeInst{copy: true, copySrc: a, copyDst: b, ops: []machinst.Operand{machinst.UseOperand(a), machinst.DefOperand(b)}})

	elided := Coalesce(vc)
	require.True(t, elided[0])
}
