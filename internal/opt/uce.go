package opt

import (
	"github.com/anvilcc/anvil/internal/analysis"
	"github.com/anvilcc/anvil/internal/ir"
)

// UCE (unreachable code elimination) BFS-reaches every block from the entry
// over the CFG and removes the rest from Layout; within a reachable block it
// also trims any instruction following the first terminator (a block can end
// up with trailing dead instructions after an earlier pass rewrites its
// terminator without truncating the tail).
func UCE(f *ir.Function) bool {
	cfg := analysis.Build(f)
	changed := false
	for _, blk := range f.Layout.Blocks() {
		if !cfg.Reachable(blk) {
			f.Layout.RemoveBlock(blk)
			changed = true
			continue
		}
		seenTerm := false
		for _, inst := range f.Layout.BlockInsts(blk) {
			if seenTerm {
				f.Layout.RemoveInst(inst)
				changed = true
				continue
			}
			if f.DFG.Inst(inst).IsTerminator() {
				seenTerm = true
			}
		}
	}
	return changed
}
