// Package analysis computes the dataflow facts the mid-end optimizer and the
// register allocator share but neither owns outright: the CFG (predecessors,
// successors, reverse-postorder numbering), the dominator tree, the natural
// loop forest, and the SSA-dominance verifier.
package analysis

import "github.com/anvilcc/anvil/internal/ir"

// CFG is the control-flow graph recomputed on demand from a Function's
// terminators; Layout never caches predecessor/successor edges, since they
// are cheap to rebuild and otherwise go stale the moment a pass rewrites a
// branch target.
type CFG struct {
	f *ir.Function

	succs map[ir.Block][]ir.Block
	preds map[ir.Block][]ir.Block

	rpo    []ir.Block
	rpoNum map[ir.Block]int
}

// Build walks every block's terminator and materializes the CFG's edges plus
// a reverse-postorder numbering from the entry block, using the iterative
// three-state (unseen/seen/done) DFS so that pathologically deep CFGs don't
// blow the Go call stack.
func Build(f *ir.Function) *CFG {
	c := &CFG{
		f:      f,
		succs:  make(map[ir.Block][]ir.Block),
		preds:  make(map[ir.Block][]ir.Block),
		rpoNum: make(map[ir.Block]int),
	}
	for _, blk := range f.Layout.Blocks() {
		term := f.DFG.Inst(f.Layout.LastInst(blk))
		for _, t := range term.Targets[:numTargets(term)] {
			c.succs[blk] = append(c.succs[blk], t.Block)
			c.preds[t.Block] = append(c.preds[t.Block], blk)
		}
		if term.Opcode == ir.OpcodeBrTable {
			jt := f.JumpTableData(term.JumpTbl)
			for _, t := range jt.Targets {
				c.succs[blk] = append(c.succs[blk], t)
				c.preds[t] = append(c.preds[t], blk)
			}
		}
	}
	c.computeRPO(f.Layout.EntryBlock())
	return c
}

func numTargets(inst *ir.Instruction) int {
	switch inst.Opcode {
	case ir.OpcodeJump:
		return 1
	case ir.OpcodeBrif:
		return 2
	default:
		return 0
	}
}

const (
	stateUnseen = iota
	stateSeen
	stateDone
)

func (c *CFG) computeRPO(entry ir.Block) {
	state := make(map[ir.Block]int)
	var postorder []ir.Block
	stack := []ir.Block{entry}
	state[entry] = stateSeen
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch state[top] {
		case stateSeen:
			stack = append(stack, top)
			for _, s := range c.succs[top] {
				if state[s] == stateUnseen || state[s] == 0 && s != entry {
					state[s] = stateSeen
					stack = append(stack, s)
				}
			}
			state[top] = stateDone
		case stateDone:
			postorder = append(postorder, top)
		}
	}
	c.rpo = make([]ir.Block, len(postorder))
	for i, blk := range postorder {
		c.rpo[len(postorder)-1-i] = blk
	}
	for i, blk := range c.rpo {
		c.rpoNum[blk] = i
	}
}

func (c *CFG) Succs(b ir.Block) []ir.Block { return c.succs[b] }
func (c *CFG) Preds(b ir.Block) []ir.Block { return c.preds[b] }

// ReversePostOrder returns every block reachable from the entry, in
// reverse-postorder. Blocks not reachable from the entry are omitted; UCE uses
// exactly this set as its "reachable" definition.
func (c *CFG) ReversePostOrder() []ir.Block { return c.rpo }

func (c *CFG) RPONumber(b ir.Block) (int, bool) { n, ok := c.rpoNum[b]; return n, ok }

func (c *CFG) Reachable(b ir.Block) bool { _, ok := c.rpoNum[b]; return ok }
