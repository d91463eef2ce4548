package analysis

import (
	"fmt"

	"github.com/anvilcc/anvil/internal/ir"
)

// VerifyError reports a single invariant violation found by Verify. The
// pipeline driver wraps the first one it sees in a ccapi.InvalidIR error and
// aborts compilation; the verifier itself collects every violation it can so
// that a single bad Function yields one actionable diagnostic, not one bisection
// per invariant.
type VerifyError struct {
	Block ir.Block
	Inst  ir.Inst
	Msg   string
}

func (e VerifyError) Error() string {
	return fmt.Sprintf("block %s inst %s: %s", e.Block, e.Inst, e.Msg)
}

// Verify checks four of the structural invariants a Function must hold at
// every pipeline boundary: SSA dominance across blocks, terminator uniqueness,
// block-arg agreement (count and types), and that the entry block has no
// predecessors. Operand type correctness and alias acyclicity are not checked
// here, and neither is def-before-use order within a single block. It returns
// every violation found, or nil if none was found.
func Verify(f *ir.Function) []VerifyError {
	var errs []VerifyError

	entry := f.Layout.EntryBlock()
	if !entry.Valid() {
		return []VerifyError{{Msg: "function has no blocks"}}
	}
	cfg := Build(f)
	if len(cfg.Preds(entry)) != 0 {
		errs = append(errs, VerifyError{Block: entry, Msg: "entry block has predecessors"})
	}
	dom := BuildDominators(cfg)

	defBlock := map[uint32]ir.Block{}
	defInst := map[uint32]ir.Inst{}
	for _, blk := range f.Layout.Blocks() {
		for _, p := range f.Layout.BlockParams(blk) {
			defBlock[p.ID()] = blk
		}
	}
	for _, blk := range f.Layout.Blocks() {
		insts := f.Layout.BlockInsts(blk)
		for idx, instRef := range insts {
			inst := f.DFG.Inst(instRef)
			isLast := idx == len(insts)-1
			if inst.IsTerminator() && !isLast {
				errs = append(errs, VerifyError{blk, instRef, "terminator is not the last instruction in block"})
			}
			if !inst.IsTerminator() && isLast {
				errs = append(errs, VerifyError{blk, instRef, "block does not end in a terminator"})
			}
			for _, r := range inst.Results() {
				defBlock[r.ID()] = blk
				defInst[r.ID()] = instRef
			}
		}
	}

	// Block-arg agreement: every branch's argument count/types must match the target's params.
	for _, blk := range f.Layout.Blocks() {
		term := f.DFG.Inst(f.Layout.LastInst(blk))
		checkTarget := func(t ir.BranchTarget) {
			if !t.Block.Valid() || !f.Layout.BlockValid(t.Block) {
				return
			}
			params := f.Layout.BlockParams(t.Block)
			args := term.ArgsOf(&f.DFG, t)
			if len(args) != len(params) {
				errs = append(errs, VerifyError{blk, f.Layout.LastInst(blk),
					fmt.Sprintf("branch to %s passes %d args, target expects %d", t.Block, len(args), len(params))})
				return
			}
			for i, a := range args {
				if a.Type() != params[i].Type() {
					errs = append(errs, VerifyError{blk, f.Layout.LastInst(blk),
						fmt.Sprintf("branch to %s arg %d has type %s, param expects %s", t.Block, i, a.Type(), params[i].Type())})
				}
			}
		}
		switch term.Opcode {
		case ir.OpcodeJump:
			checkTarget(term.Targets[0])
		case ir.OpcodeBrif:
			checkTarget(term.Targets[0])
			checkTarget(term.Targets[1])
		}
	}

	// SSA dominance: every operand's definition must dominate its use.
	for _, blk := range f.Layout.Blocks() {
		for _, instRef := range f.Layout.BlockInsts(blk) {
			inst := f.DFG.Inst(instRef)
			for _, arg := range inst.AllArgs(&f.DFG) {
				resolved := f.DFG.ResolveAlias(arg)
				defB, ok := defBlock[resolved.ID()]
				if !ok {
					continue // function parameter or not-yet-tracked external value
				}
				if defB == blk {
					// Same-block order check would need instruction position; the
					// common case (param or earlier-in-block def) is safe since
					// builders only ever append, so skip same-block ordering here.
					continue
				}
				if !dom.Dominates(defB, blk) {
					errs = append(errs, VerifyError{blk, instRef,
						fmt.Sprintf("use of %s not dominated by its definition in %s", arg, defB)})
				}
			}
		}
	}

	return errs
}
