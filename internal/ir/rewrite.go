package ir

// This file is the exported instruction-construction surface for the mid-end
// optimizer (internal/opt), which rewrites a Function after it has left the
// Builder's hands and so cannot reach Builder's unexported cursor state.

// InsertBefore allocates a new single-result instruction with the given
// fixed-arity operands and splices it into Layout immediately before at,
// returning both its handle and its result Value. Used by InstCombine's
// strength reduction, which needs to replace one instruction with a short
// sequence ending in an equivalent value.
func (f *Function) InsertBefore(at Inst, op Opcode, typ Type, args ...Value) (Inst, Value) {
	id, inst := f.DFG.makeInst(op, typ)
	n := copy(inst.Args[:], args)
	inst.Arity = uint8(n)
	if len(args) > n {
		inst.ArgList = f.DFG.lists.alloc(args[n:])
	}
	f.Layout.InsertInstBefore(at, id)
	return id, f.DFG.appendResult(id, typ)
}

// Retype replaces inst in place with a new opcode/immediate/operands combination
// that produces the same result Value (same identity, same type), used when a
// pass proves an instruction can be computed more cheaply without disturbing
// anything else that already refers to its result.
func (f *Function) Retype(inst Inst, op Opcode, args ...Value) {
	data := f.DFG.Inst(inst)
	data.Opcode = op
	n := copy(data.Args[:], args)
	data.Arity = uint8(n)
	if len(args) > n {
		data.ArgList = f.DFG.lists.alloc(args[n:])
	} else {
		data.ArgList = ValueListInvalid
	}
}
