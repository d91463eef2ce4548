package opt

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/anvilcc/anvil/internal/analysis"
	"github.com/anvilcc/anvil/internal/ir"
)

// gvnPure lists the opcodes GVN is willing to number: single-result,
// side-effect-free instructions whose result depends only on their operands.
// Loads are deliberately excluded here; redundant-load elimination is
// AliasRLE's job since it must additionally prove no intervening store aliases
// the address.
func gvnPure(op ir.Opcode) bool {
	if op.SideEffecting() || op.IsLoad() || op.IsStore() {
		return false
	}
	switch op {
	case ir.OpcodeIconst, ir.OpcodeF32const, ir.OpcodeF64const, ir.OpcodeVconst,
		ir.OpcodeIadd, ir.OpcodeIsub, ir.OpcodeImul, ir.OpcodeUmulhi, ir.OpcodeSmulhi,
		ir.OpcodeBand, ir.OpcodeBor, ir.OpcodeBxor, ir.OpcodeBnot, ir.OpcodeBandNot,
		ir.OpcodeIshl, ir.OpcodeUshr, ir.OpcodeSshr, ir.OpcodeRotl, ir.OpcodeRotr,
		ir.OpcodeClz, ir.OpcodeCtz, ir.OpcodePopcnt, ir.OpcodeBswap,
		ir.OpcodeIcmp, ir.OpcodeFcmp, ir.OpcodeSelect,
		ir.OpcodeFadd, ir.OpcodeFsub, ir.OpcodeFmul, ir.OpcodeFneg, ir.OpcodeFabs,
		ir.OpcodeBitcast, ir.OpcodeIreduce, ir.OpcodeUextend, ir.OpcodeSextend,
		ir.OpcodeFpromote, ir.OpcodeFdemote,
		ir.OpcodeIneg:
		return true
	default:
		return false
	}
}

// commutative reports whether swapping the two fixed operands of op leaves its
// result unchanged, letting GVN canonicalize operand order before hashing.
func commutative(op ir.Opcode) bool {
	switch op {
	case ir.OpcodeIadd, ir.OpcodeImul, ir.OpcodeUmulhi, ir.OpcodeSmulhi,
		ir.OpcodeBand, ir.OpcodeBor, ir.OpcodeBxor,
		ir.OpcodeFadd, ir.OpcodeFmul:
		return true
	default:
		return false
	}
}

// GVN is dominator-scoped global value numbering: it walks the dominator tree
// in preorder, maintaining one hash table of (opcode, type, operands) ->
// canonical Value per path from the entry, pushing a fresh set of table
// entries on block entry and popping them on exit. An instruction whose key
// already has a canonical Value has its result rewritten to an alias of that
// value, matching the "available expressions" scoping rule: a value computed
// in one block is only reusable in blocks it dominates.
func GVN(f *ir.Function) bool {
	cfg := analysis.Build(f)
	dom := analysis.BuildDominators(cfg)
	rpo := cfg.ReversePostOrder()
	if len(rpo) == 0 {
		return false
	}

	// Bucket every non-entry block under its immediate dominator, giving the
	// preorder walk below each idom's children in rpo order without a
	// hand-rolled accumulation loop.
	withIdom := lo.Filter(rpo, func(b ir.Block, _ int) bool {
		idom, ok := dom.IDom(b)
		return ok && idom != b
	})
	children := lo.GroupBy(withIdom, func(b ir.Block) ir.Block {
		idom, _ := dom.IDom(b)
		return idom
	})

	table := map[string]ir.Value{}
	changed := false

	var visit func(b ir.Block)
	visit = func(b ir.Block) {
		var inserted []string
		for _, inst := range f.Layout.BlockInsts(b) {
			data := f.DFG.Inst(inst)
			if !gvnPure(data.Opcode) {
				continue
			}
			key := gvnKey(f, data)
			if canon, ok := table[key]; ok {
				result := data.Result0()
				if result != canon {
					f.DFG.ReplaceWithAlias(result, canon)
					changed = true
				}
				continue
			}
			table[key] = data.Result0()
			inserted = append(inserted, key)
		}
		for _, c := range children[b] {
			visit(c)
		}
		for _, k := range inserted {
			delete(table, k)
		}
	}
	visit(rpo[0])
	return changed
}

func gvnKey(f *ir.Function, data *ir.Instruction) string {
	args := make([]ir.Value, data.Arity)
	for i := uint8(0); i < data.Arity; i++ {
		args[i] = f.DFG.ResolveAlias(data.Args[i])
	}
	if commutative(data.Opcode) && len(args) == 2 && args[1] < args[0] {
		args[0], args[1] = args[1], args[0]
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%d", data.Opcode, data.Type, data.Cond)
	for _, a := range args {
		fmt.Fprintf(&b, "|%d", uint64(a))
	}
	if data.Opcode == ir.OpcodeIconst {
		fmt.Fprintf(&b, "|%d", data.Imm64)
	}
	if data.Opcode == ir.OpcodeF32const || data.Opcode == ir.OpcodeF64const {
		fmt.Fprintf(&b, "|%d", data.FloatBits)
	}
	return b.String()
}
