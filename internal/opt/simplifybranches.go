package opt

import "github.com/anvilcc/anvil/internal/ir"

// SimplifyBranches folds two redundant branch shapes that earlier passes tend
// to produce: a brif whose condition resolves to a constant (rewritten to an
// unconditional jump to the proven-taken target), and a jump into a
// trampoline block (a block containing nothing but an unconditional jump,
// forwarding its own parameters unchanged) which is retargeted straight to the
// trampoline's destination.
func SimplifyBranches(f *ir.Function) bool {
	changed := false
	for _, blk := range f.Layout.Blocks() {
		term := f.Layout.LastInst(blk)
		data := f.DFG.Inst(term)
		switch data.Opcode {
		case ir.OpcodeBrif:
			if simplifyConstBrif(f, term, data) {
				changed = true
				data = f.DFG.Inst(term)
			}
		}
		if retarget(f, term, data) {
			changed = true
		}
	}
	return changed
}

func simplifyConstBrif(f *ir.Function, term ir.Inst, data *ir.Instruction) bool {
	cond := f.DFG.ResolveAlias(data.Args[0])
	def := f.DFG.ValueDefinition(cond)
	if def.Kind != "result" {
		return false
	}
	condInst := f.DFG.Inst(def.Inst)
	if condInst.Opcode != ir.OpcodeIconst {
		return false
	}
	taken := 0
	if condInst.Imm64 == 0 {
		taken = 1
	}
	target := data.Targets[taken]
	f.Retype(term, ir.OpcodeJump)
	data.Targets[0] = target
	data.Targets[1] = ir.BranchTarget{}
	return true
}

// retarget redirects each of term's branch targets past any trampoline block:
// a block whose only instruction is an unconditional jump forwarding exactly
// its own block parameters, in order, to some other destination.
func retarget(f *ir.Function, term ir.Inst, data *ir.Instruction) bool {
	changed := false
	n := numBranchTargets(data.Opcode)
	for i := 0; i < n; i++ {
		seen := map[ir.Block]bool{}
		target := data.Targets[i]
		for {
			if seen[target.Block] {
				break
			}
			seen[target.Block] = true
			dest, ok := trampolineDest(f, target.Block)
			if !ok {
				break
			}
			target = ir.BranchTarget{Block: dest, Args: target.Args}
			changed = true
		}
		data.Targets[i] = target
	}
	return changed
}

func numBranchTargets(op ir.Opcode) int {
	switch op {
	case ir.OpcodeJump:
		return 1
	case ir.OpcodeBrif:
		return 2
	default:
		return 0
	}
}

// trampolineDest reports the ultimate jump target of blk if blk is a single-
// instruction block that forwards its own parameters unchanged, so that
// retargeting through it preserves whatever arguments the caller already
// computed for the original target's parameters.
func trampolineDest(f *ir.Function, blk ir.Block) (ir.Block, bool) {
	first := f.Layout.FirstInst(blk)
	if !first.Valid() || first != f.Layout.LastInst(blk) {
		return ir.BlockInvalid, false
	}
	data := f.DFG.Inst(first)
	if data.Opcode != ir.OpcodeJump {
		return ir.BlockInvalid, false
	}
	params := f.Layout.BlockParams(blk)
	args := data.ArgsOf(&f.DFG, data.Targets[0])
	if len(args) != len(params) {
		return ir.BlockInvalid, false
	}
	for i, p := range params {
		if f.DFG.ResolveAlias(args[i]) != f.DFG.ResolveAlias(p) {
			return ir.BlockInvalid, false
		}
	}
	if data.Targets[0].Block == blk {
		return ir.BlockInvalid, false
	}
	return data.Targets[0].Block, true
}
