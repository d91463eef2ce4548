package arm64

import "github.com/anvilcc/anvil/internal/machinst"

// spliceInst inserts inst into vc.Insts at position at, shifting every
// block's Instrs index list that refers to a position at or past the
// splice point. Shared by spillHooks (spill stores/reloads) and the
// prologue/epilogue builder, since machinst.VCode exposes no insertion
// primitive of its own (only the append-only Emit).
func spliceInst(vc *machinst.VCode, at int, inst machinst.MachInst) {
	vc.Insts = append(vc.Insts, nil)
	copy(vc.Insts[at+1:], vc.Insts[at:len(vc.Insts)-1])
	vc.Insts[at] = inst

	for bi := range vc.Blocks {
		blk := &vc.Blocks[bi]
		for ii, idx := range blk.Instrs {
			if idx >= at {
				blk.Instrs[ii] = idx + 1
			}
		}
	}
	// Find the block owning the instruction now at position at+1 (the one
	// the splice was relative to) and insert at's index into its Instrs
	// list at the matching position.
	for bi := range vc.Blocks {
		blk := &vc.Blocks[bi]
		for ii, idx := range blk.Instrs {
			if idx == at+1 {
				blk.Instrs = append(blk.Instrs, 0)
				copy(blk.Instrs[ii+1:], blk.Instrs[ii:len(blk.Instrs)-1])
				blk.Instrs[ii] = at
				return
			}
		}
	}
	// at is past every existing block's last instruction (splicing after
	// the function's final instruction): it belongs to the last block.
	last := &vc.Blocks[len(vc.Blocks)-1]
	last.Instrs = append(last.Instrs, at)
}
