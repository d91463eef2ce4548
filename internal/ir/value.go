package ir

// valueKind tags the shape of a ValueData.
type valueKind byte

const (
	valueKindResult valueKind = iota + 1
	valueKindParam
	valueKindAlias
	valueKindUnion
)

// ValueData is the tagged union backing every Value in the DFG's value arena.
// Only the fields relevant to Kind are meaningful; the rest are left zero.
type ValueData struct {
	Kind valueKind
	Type Type

	// Result: the defining instruction and this value's position in its result list.
	Inst        Inst
	ResultIndex int

	// Param: the block this is a parameter of, and its position.
	Block      Block
	ParamIndex int

	// Alias: the value this one has been rewritten to refer to. Alias chains
	// must be acyclic; resolveAliases() collapses multi-hop chains to a single hop.
	AliasTo Value

	// Union: the two candidate definitions of a union value. Nothing in this
	// module creates a union value; the builder's unsealed-block placeholders
	// are plain values that Seal turns into block parameters.
	UnionLeft, UnionRight Value
}

// valueTable is the dense arena of ValueData, indexed by Value.ID().
type valueTable struct {
	data []ValueData
}

func newValueTable() valueTable {
	return valueTable{data: make([]ValueData, 0, 256)}
}

func (t *valueTable) alloc(typ Type) Value {
	id := uint32(len(t.data))
	t.data = append(t.data, ValueData{Type: typ})
	return Value(uint64(id) | uint64(typ)<<32)
}

func (t *valueTable) get(v Value) *ValueData { return &t.data[v.ID()] }

func (t *valueTable) reset() { t.data = t.data[:0] }

// resolveAliases collapses every multi-hop alias chain in the table down to a
// single hop onto a non-alias value, satisfying the alias-acyclicity invariant's
// "no alias points to an alias" normal form.
func (t *valueTable) resolveAliases() {
	for i := range t.data {
		vd := &t.data[i]
		if vd.Kind != valueKindAlias {
			continue
		}
		target := vd.AliasTo
		for {
			td := t.get(target)
			if td.Kind != valueKindAlias {
				break
			}
			target = td.AliasTo
		}
		vd.AliasTo = target
	}
}

// ResolveAlias returns the ultimate non-alias Value that v refers to (itself, if
// v is not an alias at all).
func (dfg *DataFlowGraph) ResolveAlias(v Value) Value {
	vd := dfg.values.get(v)
	for vd.Kind == valueKindAlias {
		v = vd.AliasTo
		vd = dfg.values.get(v)
	}
	return v
}

// ReplaceWithAlias rewrites v's ValueData in place to be an alias of to. Used by
// GVN (redundant computation -> canonical value) and peephole rewrites (instruction
// replaced by a cheaper equivalent value) without needing to touch every use site.
func (dfg *DataFlowGraph) ReplaceWithAlias(v, to Value) {
	vd := dfg.values.get(v)
	*vd = ValueData{Kind: valueKindAlias, Type: vd.Type, AliasTo: to}
}

// ValueDef describes where a Value comes from, for callers that need to branch
// on it (e.g. the lowering driver deciding whether a block param needs a VReg).
type ValueDef struct {
	Kind  string // "result", "param", "alias"
	Inst  Inst
	Block Block
	Index int
}

func (dfg *DataFlowGraph) ValueDefinition(v Value) ValueDef {
	v = dfg.ResolveAlias(v)
	vd := dfg.values.get(v)
	switch vd.Kind {
	case valueKindResult:
		return ValueDef{Kind: "result", Inst: vd.Inst, Index: vd.ResultIndex}
	case valueKindParam:
		return ValueDef{Kind: "param", Block: vd.Block, Index: vd.ParamIndex}
	default:
		return ValueDef{Kind: "alias"}
	}
}
