package machinst

// MachInst is one virtual-register machine instruction, as produced by
// lowering and consumed by the register allocator and emitter. Each target
// (internal/isa/arm64, eventually internal/isa/x86) defines a concrete type
// implementing this interface for every instruction shape it lowers to;
// VCode stores them as this interface so regalloc and the emitter driver
// stay ISA-agnostic, matching the split between the teacher's
// backend.Machine interface (ISA-specific) and its ISA-agnostic compiler
// driver (backend/compiler.go).
type MachInst interface {
	// Operands appends this instruction's register operands to dst and
	// returns the result, so callers can reuse a backing slice across
	// instructions without allocating.
	Operands(dst []Operand) []Operand

	// AssignReal rewrites the VReg at the given Operands index to refer to
	// the RealReg the allocator chose, called once per operand after
	// allocation completes.
	AssignReal(index int, real RealReg)

	// IsCopy reports whether this is a register-to-register move; the
	// allocator may coalesce such a move away if its source and
	// destination don't interfere.
	IsCopy() (src, dst VReg, ok bool)

	// IsCall and IsIndirectCall report whether this instruction crosses a
	// call boundary, which forces caller-saved registers live across it to
	// be spilled.
	IsCall() bool
	IsIndirectCall() bool

	// IsReturn reports whether this is the function's return instruction.
	IsReturn() bool

	// IsTerminator reports whether this instruction ends a block (the
	// VCode's block-boundary bookkeeping still tracks boundaries
	// separately, but the emitter and regalloc both need to recognize
	// terminators to reason about fallthrough and block-arg reconciliation).
	IsTerminator() bool

	String() string
}

// Block is one lowered basic block: its VCode instruction range plus
// fields for a CFG view (predecessors/successors, loop header). Lowering
// does not fill those CFG fields, and neither the register allocator nor
// the emitter reads them.
type Block struct {
	Label  Label
	Instrs []int // indices into VCode.Insts belonging to this block, in order
	Preds  []int // block indices, not VCode.Insts indices
	Succs  []int
	LoopHeader bool
}

// VCode is the flat, block-annotated instruction stream handed from
// lowering to regalloc to the emitter: spec.md §4.5's "a flat instruction
// stream tagged with block boundaries".
type VCode struct {
	FuncName string
	Insts    []MachInst
	Blocks   []Block
	VRegs    VRegAllocator
	// EntryBlock is always 0 by construction (lowering visits blocks in
	// reverse-post-order and the entry block is always RPO-first).
}

func NewVCode(funcName string) *VCode {
	return &VCode{FuncName: funcName}
}

// AppendBlock starts a new block and returns its index.
func (v *VCode) AppendBlock(label Label) int {
	v.Blocks = append(v.Blocks, Block{Label: label})
	return len(v.Blocks) - 1
}

// Emit appends inst to block blk's instruction list and the flat stream.
func (v *VCode) Emit(blk int, inst MachInst) {
	idx := len(v.Insts)
	v.Insts = append(v.Insts, inst)
	v.Blocks[blk].Instrs = append(v.Blocks[blk].Instrs, idx)
}
