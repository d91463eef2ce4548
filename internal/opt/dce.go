package opt

import "github.com/anvilcc/anvil/internal/ir"

// DCE is a mark-and-sweep dead code eliminator: side-effecting instructions
// and terminators seed the live set, liveness propagates backward through
// operand chains (an instruction used by a live instruction is itself live),
// and anything left unmarked is removed from Layout.
func DCE(f *ir.Function) bool {
	liveInst := map[ir.Inst]bool{}
	var worklist []ir.Inst

	markInst := func(i ir.Inst) {
		if !liveInst[i] {
			liveInst[i] = true
			worklist = append(worklist, i)
		}
	}

	defOf := map[uint32]ir.Inst{}
	for _, blk := range f.Layout.Blocks() {
		for _, inst := range f.Layout.BlockInsts(blk) {
			data := f.DFG.Inst(inst)
			for _, r := range data.Results() {
				defOf[r.ID()] = inst
			}
			if data.SideEffecting() {
				markInst(inst)
			}
		}
	}

	for len(worklist) > 0 {
		inst := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		data := f.DFG.Inst(inst)
		for _, arg := range data.AllArgs(&f.DFG) {
			resolved := f.DFG.ResolveAlias(arg)
			if def, ok := defOf[resolved.ID()]; ok {
				markInst(def)
			}
		}
	}
	changed := false
	for _, blk := range f.Layout.Blocks() {
		for _, inst := range f.Layout.BlockInsts(blk) {
			if !liveInst[inst] {
				f.Layout.RemoveInst(inst)
				changed = true
			}
		}
	}
	return changed
}
