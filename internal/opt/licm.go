package opt

import (
	"github.com/samber/lo"

	"github.com/anvilcc/anvil/internal/analysis"
	"github.com/anvilcc/anvil/internal/ir"
)

// LICM hoists loop-invariant, pure instructions out of natural loops. Rather
// than materializing a dedicated preheader block, an invariant instruction is
// spliced into Layout immediately before the terminator of the loop header's
// immediate dominator: since the idom dominates the header and (for every
// loop this pass touches) sits outside the loop body, that point is reached on
// every path into the loop exactly once, which is what a preheader would give
// for free.
func LICM(f *ir.Function) bool {
	cfg := analysis.Build(f)
	dom := analysis.BuildDominators(cfg)
	lf := analysis.BuildLoopForest(cfg, dom)
	if len(lf.ByHeader) == 0 {
		return false
	}

	changed := false
	for header, loop := range lf.ByHeader {
		idom, ok := dom.IDom(header)
		if !ok || idom == header || loop.Body[idom] {
			continue // no usable hoist point outside the loop (e.g. the entry block is the header)
		}
		insertPoint := f.Layout.LastInst(idom)
		if !insertPoint.Valid() {
			continue
		}

		// Process the loop body in a fixed order so a chain of invariant defs
		// (x invariant, y = x+1 also invariant) hoists correctly in one pass:
		// once x is hoisted above insertPoint, y's operand check still finds x
		// defined outside the loop because definedOutside is a live map,
		// not recomputed from Layout.
		definedOutside := map[ir.Value]bool{}
		for _, blk := range f.Layout.Blocks() {
			if loop.Body[blk] {
				continue
			}
			for _, inst := range f.Layout.BlockInsts(blk) {
				for _, r := range f.DFG.Inst(inst).Results() {
					definedOutside[r] = true
				}
			}
			for _, p := range f.Layout.BlockParams(blk) {
				definedOutside[p] = true
			}
		}

		for _, blk := range orderedLoopBody(f, loop) {
			for _, inst := range f.Layout.BlockInsts(blk) {
				data := f.DFG.Inst(inst)
				if !licmHoistable(data) {
					continue
				}
				operands := make([]ir.Value, data.Arity)
				for i := uint8(0); i < data.Arity; i++ {
					operands[i] = f.DFG.ResolveAlias(data.Args[i])
				}
				if !lo.EveryBy(operands, func(v ir.Value) bool { return definedOutside[v] }) {
					continue
				}
				f.Layout.RemoveInst(inst)
				f.Layout.InsertInstBefore(insertPoint, inst)
				for _, r := range data.Results() {
					definedOutside[r] = true
				}
				changed = true
			}
		}
	}
	return changed
}

// licmHoistable is stricter than GVN's purity test: it additionally excludes
// anything that could trap (division, since a divisor proven nonzero only on
// a path that executes the loop body must not be evaluated speculatively
// above the loop).
func licmHoistable(data *ir.Instruction) bool {
	if data.Opcode.SideEffecting() || len(data.Results()) != 1 {
		return false
	}
	switch data.Opcode {
	case ir.OpcodeUdiv, ir.OpcodeSdiv, ir.OpcodeUrem, ir.OpcodeSrem:
		return false
	}
	return gvnPure(data.Opcode)
}

// orderedLoopBody returns the loop's blocks in program order, so hoisting
// visits a loop-invariant def before the instructions that consume it.
func orderedLoopBody(f *ir.Function, loop *analysis.Loop) []ir.Block {
	out := make([]ir.Block, 0, len(loop.Body))
	for _, blk := range f.Layout.Blocks() {
		if loop.Body[blk] {
			out = append(out, blk)
		}
	}
	return out
}
