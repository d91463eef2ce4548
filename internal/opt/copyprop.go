package opt

import (
	"github.com/samber/lo"

	"github.com/anvilcc/anvil/internal/ir"
)

// CopyPropagate folds away block-argument copies: when every predecessor of a
// sealed block passes the same Value (after alias resolution) for one of its
// parameters, that parameter is redundant and every use inside the block can
// be rewritten to an alias of the incoming value. This is the block-argument
// analogue of classic phi-node copy propagation, since this IR has no
// standalone phi instructions to fold.
func CopyPropagate(f *ir.Function) bool {
	changed := false
	for _, blk := range f.Layout.Blocks() {
		if !f.Layout.BlockSealed(blk) {
			continue
		}
		params := f.Layout.BlockParams(blk)
		if len(params) == 0 {
			continue
		}
		incoming := make([][]ir.Value, len(params))
		if !collectIncoming(f, blk, params, incoming) {
			continue
		}
		for i, param := range params {
			vals := incoming[i]
			if len(vals) == 0 {
				continue
			}
			same := vals[0]
			uniform := lo.EveryBy(vals, func(v ir.Value) bool { return v == same })
			if uniform && same != param {
				f.DFG.ReplaceWithAlias(param, same)
				changed = true
			}
		}
	}
	return changed
}

// collectIncoming scans every block ending in a branch to blk and gathers, per
// parameter index, the alias-resolved Value each such branch passes. It
// returns false if any branch's argument count doesn't match blk's current
// parameter count (can happen transiently mid-rewrite), in which case the
// caller skips this block rather than risk acting on stale data.
func collectIncoming(f *ir.Function, blk ir.Block, params []ir.Value, incoming [][]ir.Value) bool {
	for _, b := range f.Layout.Blocks() {
		term := f.DFG.Inst(f.Layout.LastInst(b))
		switch term.Opcode {
		case ir.OpcodeJump:
			if term.Targets[0].Block != blk {
				continue
			}
			if !appendIncoming(f, term, 0, params, incoming) {
				return false
			}
		case ir.OpcodeBrif:
			if term.Targets[0].Block == blk {
				if !appendIncoming(f, term, 0, params, incoming) {
					return false
				}
			}
			if term.Targets[1].Block == blk {
				if !appendIncoming(f, term, 1, params, incoming) {
					return false
				}
			}
		}
	}
	return true
}

func appendIncoming(f *ir.Function, term *ir.Instruction, targetIdx int, params []ir.Value, incoming [][]ir.Value) bool {
	args := term.ArgsOf(&f.DFG, term.Targets[targetIdx])
	if len(args) != len(params) {
		return false
	}
	for i, a := range args {
		incoming[i] = append(incoming[i], f.DFG.ResolveAlias(a))
	}
	return true
}
