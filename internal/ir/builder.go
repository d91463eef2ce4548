package ir

import "fmt"

// predEdge records one predecessor of a block during construction: the
// predecessor block and the branch instruction (in that block) which targets
// us. Only tracked until the block is sealed; after sealing, predecessors are
// recomputed on demand by the CFG analysis instead (see internal/analysis).
type predEdge struct {
	block  Block
	branch Inst
}

// Builder is the external IR-construction API described in the spec's builder
// interface: create blocks, declare and define Variables, emit instructions
// into the current block, and seal blocks once all predecessors are known.
// It implements the sealed-block SSA construction algorithm so that callers
// never need to insert block parameters (phis) by hand.
type Builder struct {
	f *Function

	current Block

	varTypes []Type

	lastDefs      map[Block]map[Variable]Value
	unknownValues map[Block]map[Variable]Value
	preds         map[Block][]predEdge
	singlePred    map[Block]Block

	annotations map[uint32]string
}

// NewBuilder creates a Builder targeting a fresh Function with the given name
// and signature.
func NewBuilder(name string, sig Signature) *Builder {
	return &Builder{
		f:             NewFunction(name, sig),
		current:       BlockInvalid,
		lastDefs:      make(map[Block]map[Variable]Value),
		unknownValues: make(map[Block]map[Variable]Value),
		preds:         make(map[Block][]predEdge),
		singlePred:    make(map[Block]Block),
		annotations:   make(map[uint32]string),
	}
}

// Function returns the Function under construction.
func (b *Builder) Function() *Function { return b.f }

// CreateBlock allocates a new, unsealed, empty basic block.
func (b *Builder) CreateBlock() Block {
	blk := b.f.Layout.AppendBlock()
	b.lastDefs[blk] = make(map[Variable]Value)
	b.unknownValues[blk] = make(map[Variable]Value)
	return blk
}

// AppendBlockParam adds an explicit parameter to block (used directly by a
// frontend that already knows its phi set, bypassing Variable-based discovery).
func (b *Builder) AppendBlockParam(block Block, typ Type) Value {
	idx := len(b.f.Layout.BlockParams(block))
	v := b.f.DFG.appendParam(block, idx, typ)
	b.f.Layout.AddBlockParam(block, v)
	return v
}

// SwitchToBlock directs subsequent instruction emission to block.
func (b *Builder) SwitchToBlock(block Block) { b.current = block }

// CurrentBlock returns the block instructions are currently inserted into.
func (b *Builder) CurrentBlock() Block { return b.current }

// DeclareVariable introduces a new Variable of the given type.
func (b *Builder) DeclareVariable(typ Type) Variable {
	v := Variable(len(b.varTypes))
	b.varTypes = append(b.varTypes, typ)
	return v
}

// DefineVariable records that variable's current value, within block, is value.
func (b *Builder) DefineVariable(variable Variable, value Value, block Block) {
	if int(variable) >= len(b.varTypes) || b.varTypes[variable] == TypeInvalid {
		panic(fmt.Sprintf("BUG: variable %s not declared", variable))
	}
	b.lastDefs[block][variable] = value
}

// DefineVariableInCurrentBlock is DefineVariable(variable, value, b.CurrentBlock()).
func (b *Builder) DefineVariableInCurrentBlock(variable Variable, value Value) {
	b.DefineVariable(variable, value, b.current)
}

// FindValue resolves variable's current definition as seen from the current
// block, inserting block parameters (phis) as needed for incoming merges. This
// is the read-side of the Braun et al. sealed-block SSA construction algorithm.
func (b *Builder) FindValue(variable Variable) Value {
	typ := b.varTypes[variable]
	return b.findValue(typ, variable, b.current)
}

func (b *Builder) findValue(typ Type, variable Variable, block Block) Value {
	if val, ok := b.lastDefs[block][variable]; ok {
		return val
	}
	if !b.f.Layout.BlockSealed(block) {
		// Incomplete CFG: this block may still gain predecessors. Stand up a
		// placeholder value now and remember it as unresolved; Seal() will
		// wire it up as a real block parameter once the predecessor set is final.
		v := b.f.DFG.values.alloc(typ)
		b.lastDefs[block][variable] = v
		b.unknownValues[block][variable] = v
		return v
	}
	if single, ok := b.singlePred[block]; ok {
		return b.findValue(typ, variable, single)
	}
	if len(b.preds[block]) == 1 {
		return b.findValue(typ, variable, b.preds[block][0].block)
	}
	// Multiple predecessors: this variable needs a block parameter (phi).
	param := b.AppendBlockParam(block, typ)
	b.lastDefs[block][variable] = param
	for _, pe := range b.preds[block] {
		incoming := b.findValue(typ, variable, pe.block)
		b.addBranchArg(pe.branch, block, incoming)
	}
	return param
}

// Seal declares that all predecessors of block are now known; FindValue will
// no longer accept new incoming edges for it. Any placeholder values created
// while block was unsealed are retroactively turned into real block parameters.
func (b *Builder) Seal(block Block) {
	preds := b.preds[block]
	if len(preds) == 1 {
		b.singlePred[block] = preds[0].block
	}
	b.f.Layout.SealBlock(block)

	for variable, placeholder := range b.unknownValues[block] {
		typ := b.varTypes[variable]
		idx := len(b.f.Layout.BlockParams(block))
		// Reuse the placeholder's id as the block param's value so every earlier
		// reference to it automatically observes the final definition.
		vd := b.f.DFG.values.get(placeholder)
		vd.Kind, vd.Block, vd.ParamIndex = valueKindParam, block, idx
		b.f.Layout.AddBlockParam(block, placeholder)
		for _, pe := range preds {
			incoming := b.findValue(typ, variable, pe.block)
			b.addBranchArg(pe.branch, block, incoming)
		}
	}
}

func (b *Builder) addBranchArg(branch Inst, target Block, v Value) {
	inst := b.f.DFG.Inst(branch)
	for i := range inst.Targets {
		if inst.Targets[i].Block == target {
			args := append(append([]Value(nil), b.f.DFG.lists.get(inst.Targets[i].Args)...), v)
			if inst.Targets[i].Args == ValueListInvalid {
				inst.Targets[i].Args = b.f.DFG.lists.alloc(args)
			} else {
				b.f.DFG.lists.set(inst.Targets[i].Args, args)
			}
			return
		}
	}
}

func (b *Builder) recordPred(target, from Block, branch Inst) {
	b.preds[target] = append(b.preds[target], predEdge{block: from, branch: branch})
}

// AnnotateValue attaches a debug label to v, used only by Function.Format.
func (b *Builder) AnnotateValue(v Value, label string) { b.annotations[v.ID()] = label }

// Finalize asserts the structural invariants a Builder is responsible for
// before handing the Function to the verifier: every block sealed, non-empty,
// and ending in a terminator. A terminator earlier in the block is not
// detected here; the verifier reports that.
func (b *Builder) Finalize() error {
	for _, blk := range b.f.Layout.Blocks() {
		if !b.f.Layout.BlockSealed(blk) {
			return fmt.Errorf("ir: block %s was never sealed", blk)
		}
		last := b.f.Layout.LastInst(blk)
		if !last.Valid() {
			return fmt.Errorf("ir: block %s has no instructions", blk)
		}
		if !b.f.DFG.Inst(last).IsTerminator() {
			return fmt.Errorf("ir: block %s does not end in a terminator", blk)
		}
	}
	return nil
}
