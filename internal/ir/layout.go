package ir

// Layout owns block order and, within each block, instruction order. It is
// represented as two doubly-linked lists implemented over dense side tables
// (rather than pointers embedded in Instruction/blockData) so that DFG entities
// stay layout-agnostic: an instruction can be built, or even removed from
// Layout, without touching the DFG arena that owns it.
//
// The only mutation guaranteed safe while iterating a block's instructions is
// removing the instruction currently being visited; inserting around the cursor
// or removing a different instruction requires restarting the iteration.
type Layout struct {
	blocks    []blockLayout
	blockHead Block
	blockTail Block

	insts []instLayout
}

type blockLayout struct {
	inUse            bool
	prev, next       Block
	instHead, instTail Inst
	params           []Value
	sealed           bool
}

type instLayout struct {
	inLayout   bool
	block      Block
	prev, next Inst
}

func newLayout() Layout {
	return Layout{blockHead: BlockInvalid, blockTail: BlockInvalid}
}

func (l *Layout) reset() {
	l.blocks = l.blocks[:0]
	l.insts = l.insts[:0]
	l.blockHead, l.blockTail = BlockInvalid, BlockInvalid
}

func (l *Layout) growBlocks(n int) {
	for len(l.blocks) <= n {
		l.blocks = append(l.blocks, blockLayout{})
	}
}

func (l *Layout) growInsts(n int) {
	for len(l.insts) <= n {
		l.insts = append(l.insts, instLayout{})
	}
}

// AppendBlock creates a new block at the end of the layout's block order.
func (l *Layout) AppendBlock() Block {
	id := Block(len(l.blocks))
	l.growBlocks(int(id))
	l.blocks[id] = blockLayout{inUse: true, prev: l.blockTail, next: BlockInvalid, instHead: InstInvalid, instTail: InstInvalid}
	if l.blockTail.Valid() {
		l.blocks[l.blockTail].next = id
	} else {
		l.blockHead = id
	}
	l.blockTail = id
	return id
}

// RemoveBlock detaches a block from the layout; its instructions remain in the
// DFG arena but are no longer visited by any Layout walk.
func (l *Layout) RemoveBlock(b Block) {
	bl := &l.blocks[b]
	if !bl.inUse {
		return
	}
	if bl.prev.Valid() {
		l.blocks[bl.prev].next = bl.next
	} else {
		l.blockHead = bl.next
	}
	if bl.next.Valid() {
		l.blocks[bl.next].prev = bl.prev
	} else {
		l.blockTail = bl.prev
	}
	bl.inUse = false
}

// Blocks returns blocks in program order.
func (l *Layout) Blocks() []Block {
	out := make([]Block, 0, len(l.blocks))
	for b := l.blockHead; b.Valid(); b = l.blocks[b].next {
		out = append(out, b)
	}
	return out
}

func (l *Layout) BlockValid(b Block) bool { return int(b) < len(l.blocks) && l.blocks[b].inUse }

func (l *Layout) EntryBlock() Block { return l.blockHead }

func (l *Layout) AddBlockParam(b Block, v Value) {
	l.blocks[b].params = append(l.blocks[b].params, v)
}

func (l *Layout) BlockParams(b Block) []Value { return l.blocks[b].params }

func (l *Layout) SealBlock(b Block)    { l.blocks[b].sealed = true }
func (l *Layout) BlockSealed(b Block) bool { return l.blocks[b].sealed }

// AppendInst appends inst to the end of block b's instruction list.
func (l *Layout) AppendInst(b Block, inst Inst) {
	l.growInsts(int(inst))
	bl := &l.blocks[b]
	il := &l.insts[inst]
	*il = instLayout{inLayout: true, block: b, prev: bl.instTail, next: InstInvalid}
	if bl.instTail.Valid() {
		l.insts[bl.instTail].next = inst
	} else {
		bl.instHead = inst
	}
	bl.instTail = inst
}

// InsertInstBefore inserts inst immediately before at, within at's block.
func (l *Layout) InsertInstBefore(at, inst Inst) {
	l.growInsts(int(inst))
	atL := &l.insts[at]
	b := atL.block
	prev := atL.prev
	il := &l.insts[inst]
	*il = instLayout{inLayout: true, block: b, prev: prev, next: at}
	atL.prev = inst
	if prev.Valid() {
		l.insts[prev].next = inst
	} else {
		l.blocks[b].instHead = inst
	}
}

// RemoveInst detaches inst from Layout; it remains resident in the DFG arena.
func (l *Layout) RemoveInst(inst Inst) {
	il := &l.insts[inst]
	if !il.inLayout {
		return
	}
	b := il.block
	if il.prev.Valid() {
		l.insts[il.prev].next = il.next
	} else {
		l.blocks[b].instHead = il.next
	}
	if il.next.Valid() {
		l.insts[il.next].prev = il.prev
	} else {
		l.blocks[b].instTail = il.prev
	}
	il.inLayout = false
}

// InstBlock returns the block inst currently belongs to in Layout.
func (l *Layout) InstBlock(inst Inst) Block { return l.insts[inst].block }

// InstInLayout reports whether inst is currently placed.
func (l *Layout) InstInLayout(inst Inst) bool {
	return int(inst) < len(l.insts) && l.insts[inst].inLayout
}

// BlockInsts returns the instructions of b in program order.
func (l *Layout) BlockInsts(b Block) []Inst {
	bl := &l.blocks[b]
	out := make([]Inst, 0, 8)
	for i := bl.instHead; i.Valid(); i = l.insts[i].next {
		out = append(out, i)
	}
	return out
}

// LastInst returns the terminator (last instruction) of block b, or InstInvalid
// if b has no instructions yet.
func (l *Layout) LastInst(b Block) Inst { return l.blocks[b].instTail }
func (l *Layout) FirstInst(b Block) Inst { return l.blocks[b].instHead }
