package regalloc

import "github.com/anvilcc/anvil/internal/machinst"

// Materialize rewrites every operand in vc to its assigned RealReg (via
// MachInst.AssignReal) and, for spilled VRegs, asks hooks to insert a
// spill store after each def and a reload (or rematerialization) before
// each use — spec.md §4.5's "Spill stores are inserted immediately after
// each def; reloads immediately before each use... Reloads may be
// replaced by rematerialization when the value is cheap to reconstruct".
func Materialize(vc *machinst.VCode, result *Result, hooks Hooks) {
	var buf []machinst.Operand
	for idx, inst := range vc.Insts {
		buf = inst.Operands(buf[:0])
		for opIdx, op := range buf {
			switch op.Role {
			case machinst.Def, machinst.Use, machinst.Reuse:
				a, ok := result.Assignments[op.Reg.ID()]
				if !ok {
					continue
				}
				if a.Spilled() {
					if op.Role == machinst.Def {
						hooks.StoreRegisterAfter(op.Reg, idx, int(a.Slot))
					} else if hooks.Rematerializable(op.Reg) {
						hooks.RematerializeBefore(op.Reg, idx)
					} else {
						hooks.ReloadRegisterBefore(op.Reg, idx, int(a.Slot))
					}
					continue
				}
				inst.AssignReal(opIdx, a.Real)
			case machinst.FixedDef, machinst.FixedUse:
				inst.AssignReal(opIdx, op.Fixed)
			}
		}
	}
}
