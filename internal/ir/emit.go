package ir

// This file holds the per-opcode instruction creators promised by the builder
// API: each takes typed operands, inserts the instruction at the end of the
// current block, and returns its result Value(s). Every creator must be called
// with the insertion cursor positioned in some block (i.e. after SwitchToBlock).

func (b *Builder) insert(op Opcode, typ Type, args ...Value) *Instruction {
	id, inst := b.f.DFG.makeInst(op, typ)
	n := copy(inst.Args[:], args)
	inst.Arity = uint8(n)
	if len(args) > n {
		inst.ArgList = b.f.DFG.lists.alloc(args[n:])
	}
	b.f.Layout.AppendInst(b.current, id)
	return inst
}

func (b *Builder) Iconst(typ Type, imm int64) Value {
	inst := b.insert(OpcodeIconst, typ)
	inst.Imm64 = imm
	return b.f.DFG.appendResult(b.lastInsertedID(), typ)
}

// lastInsertedID recovers the Inst handle of the instruction just appended to
// the current block, so emit helpers can call back into DFG.appendResult.
func (b *Builder) lastInsertedID() Inst { return b.f.Layout.LastInst(b.current) }

func (b *Builder) F64const(bits uint64) Value {
	inst := b.insert(OpcodeF64const, TypeF64)
	inst.FloatBits = bits
	return b.f.DFG.appendResult(b.lastInsertedID(), TypeF64)
}

func (b *Builder) binary(op Opcode, typ Type, x, y Value) Value {
	b.insert(op, typ, x, y)
	return b.f.DFG.appendResult(b.lastInsertedID(), typ)
}

func (b *Builder) Iadd(typ Type, x, y Value) Value { return b.binary(OpcodeIadd, typ, x, y) }
func (b *Builder) Isub(typ Type, x, y Value) Value { return b.binary(OpcodeIsub, typ, x, y) }
func (b *Builder) Imul(typ Type, x, y Value) Value { return b.binary(OpcodeImul, typ, x, y) }
func (b *Builder) Umulhi(typ Type, x, y Value) Value {
	return b.binary(OpcodeUmulhi, typ, x, y)
}
func (b *Builder) Smulhi(typ Type, x, y Value) Value {
	return b.binary(OpcodeSmulhi, typ, x, y)
}
func (b *Builder) Udiv(typ Type, x, y Value) Value { return b.binary(OpcodeUdiv, typ, x, y) }
func (b *Builder) Sdiv(typ Type, x, y Value) Value { return b.binary(OpcodeSdiv, typ, x, y) }
func (b *Builder) Urem(typ Type, x, y Value) Value { return b.binary(OpcodeUrem, typ, x, y) }
func (b *Builder) Srem(typ Type, x, y Value) Value { return b.binary(OpcodeSrem, typ, x, y) }
func (b *Builder) Band(typ Type, x, y Value) Value { return b.binary(OpcodeBand, typ, x, y) }
func (b *Builder) Bor(typ Type, x, y Value) Value  { return b.binary(OpcodeBor, typ, x, y) }
func (b *Builder) Bxor(typ Type, x, y Value) Value { return b.binary(OpcodeBxor, typ, x, y) }
func (b *Builder) Ishl(typ Type, x, y Value) Value { return b.binary(OpcodeIshl, typ, x, y) }
func (b *Builder) Ushr(typ Type, x, y Value) Value { return b.binary(OpcodeUshr, typ, x, y) }
func (b *Builder) Sshr(typ Type, x, y Value) Value { return b.binary(OpcodeSshr, typ, x, y) }
func (b *Builder) Fadd(typ Type, x, y Value) Value { return b.binary(OpcodeFadd, typ, x, y) }
func (b *Builder) Fsub(typ Type, x, y Value) Value { return b.binary(OpcodeFsub, typ, x, y) }
func (b *Builder) Fmul(typ Type, x, y Value) Value { return b.binary(OpcodeFmul, typ, x, y) }
func (b *Builder) Fdiv(typ Type, x, y Value) Value { return b.binary(OpcodeFdiv, typ, x, y) }

func (b *Builder) unary(op Opcode, typ Type, x Value) Value {
	b.insert(op, typ, x)
	return b.f.DFG.appendResult(b.lastInsertedID(), typ)
}

func (b *Builder) Ineg(typ Type, x Value) Value { return b.unary(OpcodeIneg, typ, x) }
func (b *Builder) Bnot(typ Type, x Value) Value { return b.unary(OpcodeBnot, typ, x) }
func (b *Builder) Fneg(typ Type, x Value) Value { return b.unary(OpcodeFneg, typ, x) }
func (b *Builder) Clz(typ Type, x Value) Value  { return b.unary(OpcodeClz, typ, x) }
func (b *Builder) Ctz(typ Type, x Value) Value  { return b.unary(OpcodeCtz, typ, x) }

func (b *Builder) Icmp(cond CondCode, x, y Value) Value {
	inst := b.insert(OpcodeIcmp, TypeI8, x, y)
	inst.Cond = cond
	return b.f.DFG.appendResult(b.lastInsertedID(), TypeI8)
}

func (b *Builder) Fcmp(cond CondCode, x, y Value) Value {
	inst := b.insert(OpcodeFcmp, TypeI8, x, y)
	inst.Cond = cond
	return b.f.DFG.appendResult(b.lastInsertedID(), TypeI8)
}

func (b *Builder) Select(typ Type, cond, x, y Value) Value {
	b.insert(OpcodeSelect, typ, cond, x, y)
	return b.f.DFG.appendResult(b.lastInsertedID(), typ)
}

// Load emits a plain (non-extending) load of typ from addr+offset.
func (b *Builder) Load(typ Type, addr Value, offset int64, flags MemFlags) Value {
	inst := b.insert(OpcodeLoad, typ, addr)
	inst.Imm64, inst.Mem = offset, flags
	return b.f.DFG.appendResult(b.lastInsertedID(), typ)
}

// Store emits a store of val to addr+offset.
func (b *Builder) Store(val, addr Value, offset int64, flags MemFlags) {
	inst := b.insert(OpcodeStore, TypeInvalid, val, addr)
	inst.Imm64, inst.Mem = offset, flags
}

func (b *Builder) StackAddr(slot StackSlot) Value {
	inst := b.insert(OpcodeStackAddr, TypeI64)
	inst.StackSlot = slot
	return b.f.DFG.appendResult(b.lastInsertedID(), TypeI64)
}

// Call emits a direct call to callee with args, returning its result Values.
func (b *Builder) Call(callee FuncRef, sig SigRef, args []Value, results []Type) []Value {
	id, inst := b.f.DFG.makeInst(OpcodeCall, TypeInvalid)
	n := copy(inst.Args[:], args)
	inst.Arity = uint8(n)
	if len(args) > n {
		inst.ArgList = b.f.DFG.lists.alloc(args[n:])
	}
	inst.Func, inst.Sig = callee, sig
	b.f.Layout.AppendInst(b.current, id)
	out := make([]Value, len(results))
	for i, t := range results {
		out[i] = b.f.DFG.appendResult(id, t)
	}
	return out
}

// Jump terminates the current block with an unconditional branch to target,
// passing args as target's block-parameter arguments.
func (b *Builder) Jump(target Block, args []Value) {
	id, inst := b.f.DFG.makeInst(OpcodeJump, TypeInvalid)
	inst.Targets[0] = BranchTarget{Block: target, Args: b.f.DFG.lists.alloc(args)}
	b.f.Layout.AppendInst(b.current, id)
	b.recordPred(target, b.current, id)
}

// Brif terminates the current block with a conditional branch: to thenBlock
// (with thenArgs) if cond is nonzero, else to elseBlock (with elseArgs).
func (b *Builder) Brif(cond Value, thenBlock Block, thenArgs []Value, elseBlock Block, elseArgs []Value) {
	id, inst := b.f.DFG.makeInst(OpcodeBrif, TypeInvalid)
	inst.Args[0] = cond
	inst.Arity = 1
	inst.Targets[0] = BranchTarget{Block: thenBlock, Args: b.f.DFG.lists.alloc(thenArgs)}
	inst.Targets[1] = BranchTarget{Block: elseBlock, Args: b.f.DFG.lists.alloc(elseArgs)}
	b.f.Layout.AppendInst(b.current, id)
	b.recordPred(thenBlock, b.current, id)
	b.recordPred(elseBlock, b.current, id)
}

// BrTable terminates the current block with a bounds-checked indirect branch
// through jt, indexed by x; out-of-range values fall through to def.
func (b *Builder) BrTable(x Value, def Block, jt JumpTable) {
	id, inst := b.f.DFG.makeInst(OpcodeBrTable, TypeInvalid)
	inst.Args[0] = x
	inst.Arity = 1
	inst.JumpTbl = jt
	inst.Targets[0] = BranchTarget{Block: def}
	b.f.Layout.AppendInst(b.current, id)
	b.recordPred(def, b.current, id)
	for _, t := range b.f.JumpTableData(jt).Targets {
		b.recordPred(t, b.current, id)
	}
}

func (b *Builder) Return(vs []Value) {
	id, inst := b.f.DFG.makeInst(OpcodeReturn, TypeInvalid)
	n := copy(inst.Args[:], vs)
	inst.Arity = uint8(n)
	if len(vs) > n {
		inst.ArgList = b.f.DFG.lists.alloc(vs[n:])
	}
	b.f.Layout.AppendInst(b.current, id)
}

func (b *Builder) TrapInst(code TrapCode) {
	id, inst := b.f.DFG.makeInst(OpcodeTrap, TypeInvalid)
	inst.Trap = code
	b.f.Layout.AppendInst(b.current, id)
}
