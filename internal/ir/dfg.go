package ir

// DataFlowGraph owns every Instruction and Value belonging to a Function: the
// instruction arena, the value arena, and the pool backing variadic operand
// lists. It has no notion of block order or instruction order within a block —
// that is Layout's job — so a DFG entity can be created, mutated, and queried
// before it is ever placed, and an instruction removed from Layout remains
// resident here for possible reinsertion.
type DataFlowGraph struct {
	insts  pool[Instruction]
	values valueTable
	lists  valueListPool
}

func newDataFlowGraph() DataFlowGraph {
	return DataFlowGraph{
		insts:  newPool[Instruction](),
		values: newValueTable(),
		lists:  newValueListPool(),
	}
}

func (dfg *DataFlowGraph) reset() {
	dfg.insts.reset()
	dfg.values.reset()
	dfg.lists.reset()
}

// Inst returns the Instruction identified by r. Arena indices are dense and
// stable for the Function's lifetime, so this is an O(1) pointer computation.
func (dfg *DataFlowGraph) Inst(r Inst) *Instruction { return dfg.insts.view(int(r)) }

// Value returns the ValueData backing v.
func (dfg *DataFlowGraph) Value(v Value) *ValueData { return dfg.values.get(v) }

// NumInsts returns the number of instructions ever allocated (including removed ones).
func (dfg *DataFlowGraph) NumInsts() int { return dfg.insts.len() }

// makeInst allocates a new Instruction with the given opcode/type and returns
// both its Inst handle and a pointer for the caller to fill in operands.
func (dfg *DataFlowGraph) makeInst(op Opcode, typ Type) (Inst, *Instruction) {
	id := Inst(dfg.insts.allocated)
	raw := dfg.insts.allocate()
	*raw = Instruction{Opcode: op, Type: typ}
	return id, raw
}

// appendResult allocates a fresh Value of type typ as the next result of inst.
func (dfg *DataFlowGraph) appendResult(inst Inst, typ Type) Value {
	data := dfg.Inst(inst)
	idx := int(data.numResults)
	v := dfg.values.alloc(typ)
	vd := dfg.values.get(v)
	vd.Kind, vd.Inst, vd.ResultIndex = valueKindResult, inst, idx
	data.results[idx] = v
	data.numResults++
	if idx == 0 {
		data.Type = typ
	}
	return v
}

// appendParam allocates a fresh block-parameter Value for block at the given index.
func (dfg *DataFlowGraph) appendParam(block Block, idx int, typ Type) Value {
	v := dfg.values.alloc(typ)
	vd := dfg.values.get(v)
	vd.Kind, vd.Block, vd.ParamIndex = valueKindParam, block, idx
	return v
}

// ResolveAliases collapses every alias chain in the DFG to a single hop. The
// pipeline does not call it; passes and the lowering layer resolve aliases per
// value through ResolveAlias.
func (dfg *DataFlowGraph) ResolveAliases() { dfg.values.resolveAliases() }
