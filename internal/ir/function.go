package ir

// Function owns every entity belonging to one compilation unit: its DFG, its
// Layout, its own Signature, and the side tables for stack slots, globals, jump
// tables, referenced signatures, and external function references. All of a
// Function's arenas are exclusively owned by it and are released together when
// the Function is dropped (or Reset for reuse by a pooled Context).
type Function struct {
	Name      string
	Signature Signature

	DFG    DataFlowGraph
	Layout Layout

	stackSlots []StackSlotData
	globals    []GlobalValueData
	jumpTables []JumpTableData
	sigs       []Signature
	extFuncs   []ExtFuncData
}

// NewFunction allocates a Function ready for IR construction via a Builder.
func NewFunction(name string, sig Signature) *Function {
	return &Function{
		Name:      name,
		Signature: sig,
		DFG:       newDataFlowGraph(),
		Layout:    newLayout(),
	}
}

// Reset clears a Function's arenas so it can be reused for a different
// compilation without a fresh allocation (the pipeline's Context pools these).
func (f *Function) Reset(name string, sig Signature) {
	f.Name, f.Signature = name, sig
	f.DFG.reset()
	f.Layout.reset()
	f.stackSlots = f.stackSlots[:0]
	f.globals = f.globals[:0]
	f.jumpTables = f.jumpTables[:0]
	f.sigs = f.sigs[:0]
	f.extFuncs = f.extFuncs[:0]
}

func (f *Function) CreateStackSlot(d StackSlotData) StackSlot {
	f.stackSlots = append(f.stackSlots, d)
	return StackSlot(len(f.stackSlots) - 1)
}

func (f *Function) StackSlotData(s StackSlot) *StackSlotData { return &f.stackSlots[s] }
func (f *Function) NumStackSlots() int                       { return len(f.stackSlots) }

func (f *Function) CreateGlobalValue(d GlobalValueData) GlobalValueRef {
	f.globals = append(f.globals, d)
	return GlobalValueRef(len(f.globals) - 1)
}
func (f *Function) GlobalValueData(g GlobalValueRef) *GlobalValueData { return &f.globals[g] }

func (f *Function) CreateJumpTable(d JumpTableData) JumpTable {
	f.jumpTables = append(f.jumpTables, d)
	return JumpTable(len(f.jumpTables) - 1)
}
func (f *Function) JumpTableData(j JumpTable) *JumpTableData { return &f.jumpTables[j] }

func (f *Function) DeclareSignature(s Signature) SigRef {
	s.ID = SigRef(len(f.sigs))
	f.sigs = append(f.sigs, s)
	return s.ID
}
func (f *Function) SignatureData(s SigRef) *Signature { return &f.sigs[s] }
func (f *Function) Signatures() []Signature           { return f.sigs }

func (f *Function) DeclareExtFunc(d ExtFuncData) FuncRef {
	f.extFuncs = append(f.extFuncs, d)
	return FuncRef(len(f.extFuncs) - 1)
}
func (f *Function) ExtFuncData(r FuncRef) *ExtFuncData { return &f.extFuncs[r] }
