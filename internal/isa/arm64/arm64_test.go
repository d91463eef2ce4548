package arm64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anvilcc/anvil/internal/ir"
	"github.com/anvilcc/anvil/internal/machinst"
)

func sig(params, results []ir.Type) ir.Signature {
	return ir.Signature{Params: params, Results: results, CallConv: ir.CallConvSystemV}
}

// --- encode.go: bit-accuracy of the highest-confidence encoders ---

func TestEncodeAluRRImm12_AddImmediate(t *testing.T) {
	// add x0, x1, #4
	got := encodeAluRRImm12(aluAdd, true, 0, 1, 4)
	want := uint32(0x91001020)
	require.Equal(t, want, got)
}

func TestEncodeMovz(t *testing.T) {
	// movz x0, #42
	got := encodeMovz(true, 0, 42, 0)
	want := uint32(0xd2800540)
	require.Equal(t, want, got)
}

func TestEncodeRET(t *testing.T) {
	require.Equal(t, uint32(0xd65f03c0), encodeRET())
}

func TestEncodeBUncond(t *testing.T) {
	// b . (offset 0)
	require.Equal(t, uint32(0x14000000), encodeBUncond(0))
	// b +4
	require.Equal(t, uint32(0x14000001), encodeBUncond(4))
}

// --- instr.go: Operands/AssignReal/IsCopy roundtrips across instKind ---

func assignAndCollect(t *testing.T, inst *Instruction, reals []machinst.RealReg) {
	t.Helper()
	ops := inst.Operands(nil)
	require.Len(t, ops, len(reals))
	for i, r := range reals {
		inst.AssignReal(i, r)
	}
	_ = ops
}

func TestInstruction_OperandsAluRRR(t *testing.T) {
	vc := machinst.NewVCode("f")
	rd := vc.VRegs.Alloc(machinst.RegClassInt)
	rn := vc.VRegs.Alloc(machinst.RegClassInt)
	rm := vc.VRegs.Alloc(machinst.RegClassInt)
	inst := &Instruction{Kind: kindAluRRR, Op: aluAdd, Rd: rd, Rn: rn, Rm: rm}

	ops := inst.Operands(nil)
	require.Len(t, ops, 3)
	require.Equal(t, machinst.Def, ops[0].Role)
	require.Equal(t, machinst.Use, ops[1].Role)
	require.Equal(t, machinst.Use, ops[2].Role)

	inst.AssignReal(0, RegX0)
	inst.AssignReal(1, RegX1)
	inst.AssignReal(2, RegX8)
	require.Equal(t, RegX0, inst.Rd.RealReg())
	require.Equal(t, RegX1, inst.Rn.RealReg())
	require.Equal(t, RegX8, inst.Rm.RealReg())
}

func TestInstruction_IsCopy(t *testing.T) {
	vc := machinst.NewVCode("f")
	rd := vc.VRegs.Alloc(machinst.RegClassInt)
	rn := vc.VRegs.Alloc(machinst.RegClassInt)
	mov := &Instruction{Kind: kindMov, Rd: rd, Rn: rn}
	src, dst, ok := mov.IsCopy()
	require.True(t, ok)
	require.Equal(t, rn, src)
	require.Equal(t, rd, dst)

	add := &Instruction{Kind: kindAluRRR}
	_, _, ok = add.IsCopy()
	require.False(t, ok)
}

func TestInstruction_ArgBindRoundtrip(t *testing.T) {
	vc := machinst.NewVCode("f")
	rd := vc.VRegs.Alloc(machinst.RegClassInt)
	inst := &Instruction{Kind: kindArgBind, Rd: rd, Freg: RegX0}

	ops := inst.Operands(nil)
	require.Len(t, ops, 1)
	require.Equal(t, machinst.FixedDef, ops[0].Role)
	require.Equal(t, RegX0, ops[0].Fixed)

	inst.AssignReal(0, RegX0)
	require.Equal(t, RegX0, inst.Rd.RealReg())
}

func TestInstruction_RetBindAndCallArgBindRoundtrip(t *testing.T) {
	vc := machinst.NewVCode("f")
	rn := vc.VRegs.Alloc(machinst.RegClassInt)

	ret := &Instruction{Kind: kindRetBind, Rn: rn, Freg: RegX0}
	ops := ret.Operands(nil)
	require.Len(t, ops, 1)
	require.Equal(t, machinst.FixedUse, ops[0].Role)
	require.Equal(t, RegX0, ops[0].Fixed)

	call := &Instruction{Kind: kindCallArgBind, Rn: rn, Freg: RegX1}
	ops = call.Operands(nil)
	require.Len(t, ops, 1)
	require.Equal(t, machinst.FixedUse, ops[0].Role)
	require.Equal(t, RegX1, ops[0].Fixed)
}

func TestInstruction_IsTerminator(t *testing.T) {
	require.True(t, (&Instruction{Kind: kindRet}).IsTerminator())
	require.True(t, (&Instruction{Kind: kindBr}).IsTerminator())
	require.True(t, (&Instruction{Kind: kindCondBr}).IsTerminator())
	require.False(t, (&Instruction{Kind: kindAluRRR}).IsTerminator())
}

// --- lower.go: end-to-end lowering of representative ir.Functions ---

func TestLower_StraightLineIaddImmediateFuses(t *testing.T) {
	b := ir.NewBuilder("straight", sig([]ir.Type{ir.TypeI32}, []ir.Type{ir.TypeI32}))
	entry := b.CreateBlock()
	p := b.AppendBlockParam(entry, ir.TypeI32)
	b.SwitchToBlock(entry)

	one := b.Iconst(ir.TypeI32, 1)
	sum := b.Iadd(ir.TypeI32, p, one)
	b.Return([]ir.Value{sum})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	res := Lower(b.Function())
	require.NotNil(t, res.VCode)
	require.NotNil(t, res.ABI)

	var sawAluRRImm12, sawRetBind, sawRet bool
	for _, inst := range res.VCode.Insts {
		ai := inst.(*Instruction)
		switch ai.Kind {
		case kindAluRRImm12:
			sawAluRRImm12 = true
			require.Equal(t, aluAdd, ai.Op)
			require.Equal(t, int64(1), ai.Imm)
		case kindRetBind:
			sawRetBind = true
			require.Equal(t, RegX0, ai.Freg)
		case kindRet:
			sawRet = true
		case kindAluRRR:
			t.Fatalf("iadd with an immediate-fitting operand should fuse, not lower to aluRRR")
		}
	}
	require.True(t, sawAluRRImm12, "expected the iadd to fuse into an immediate add")
	require.True(t, sawRetBind)
	require.True(t, sawRet)
}

func TestLower_IaddRegRegDoesNotFuse(t *testing.T) {
	b := ir.NewBuilder("addrr", sig([]ir.Type{ir.TypeI32, ir.TypeI32}, []ir.Type{ir.TypeI32}))
	entry := b.CreateBlock()
	x := b.AppendBlockParam(entry, ir.TypeI32)
	y := b.AppendBlockParam(entry, ir.TypeI32)
	b.SwitchToBlock(entry)

	sum := b.Iadd(ir.TypeI32, x, y)
	b.Return([]ir.Value{sum})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	res := Lower(b.Function())
	var sawAluRRR bool
	for _, inst := range res.VCode.Insts {
		if inst.(*Instruction).Kind == kindAluRRR {
			sawAluRRR = true
		}
	}
	require.True(t, sawAluRRR, "two non-constant operands must lower to register-register add")
}

func TestLower_DiamondBrifProducesEdgeMoves(t *testing.T) {
	b := ir.NewBuilder("diamond", sig([]ir.Type{ir.TypeI32}, []ir.Type{ir.TypeI32}))
	v := b.DeclareVariable(ir.TypeI32)

	entry := b.CreateBlock()
	thenBlk := b.CreateBlock()
	elseBlk := b.CreateBlock()
	merge := b.CreateBlock()

	cond := b.AppendBlockParam(entry, ir.TypeI32)
	b.SwitchToBlock(entry)
	b.Brif(cond, thenBlk, nil, elseBlk, nil)
	b.Seal(thenBlk)
	b.Seal(elseBlk)

	b.SwitchToBlock(thenBlk)
	one := b.Iconst(ir.TypeI32, 1)
	b.DefineVariableInCurrentBlock(v, one)
	b.Jump(merge, nil)

	b.SwitchToBlock(elseBlk)
	two := b.Iconst(ir.TypeI32, 2)
	b.DefineVariableInCurrentBlock(v, two)
	b.Jump(merge, nil)

	b.Seal(merge)
	b.SwitchToBlock(merge)
	result := b.FindValue(v)
	b.Return([]ir.Value{result})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	res := Lower(b.Function())
	require.Len(t, res.VCode.Blocks, 4)

	var sawCondBr, sawBr, sawMov int
	for _, inst := range res.VCode.Insts {
		switch inst.(*Instruction).Kind {
		case kindCondBr:
			sawCondBr++
		case kindBr:
			sawBr++
		case kindMov:
			sawMov++
		}
	}
	require.Equal(t, 1, sawCondBr)
	require.GreaterOrEqual(t, sawBr, 2)
	require.Equal(t, 2, sawMov, "FindValue on the sealed two-predecessor merge adds a block param and one argument on each predecessor jump")
}

func TestLower_ImulLowersToArith2Mul(t *testing.T) {
	b := ir.NewBuilder("mul", sig([]ir.Type{ir.TypeI64, ir.TypeI64}, []ir.Type{ir.TypeI64}))
	entry := b.CreateBlock()
	x := b.AppendBlockParam(entry, ir.TypeI64)
	y := b.AppendBlockParam(entry, ir.TypeI64)
	b.SwitchToBlock(entry)
	prod := b.Imul(ir.TypeI64, x, y)
	b.Return([]ir.Value{prod})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	res := Lower(b.Function())
	var saw bool
	for _, inst := range res.VCode.Insts {
		ai := inst.(*Instruction)
		if ai.Kind == kindArith2RRR {
			saw = true
			require.Equal(t, arith2Mul, ai.Op2)
		}
	}
	require.True(t, saw, "imul must lower to kindArith2RRR/arith2Mul")
}

func TestLower_UdivLowersToArith2Udiv(t *testing.T) {
	b := ir.NewBuilder("udiv", sig([]ir.Type{ir.TypeI64, ir.TypeI64}, []ir.Type{ir.TypeI64}))
	entry := b.CreateBlock()
	x := b.AppendBlockParam(entry, ir.TypeI64)
	y := b.AppendBlockParam(entry, ir.TypeI64)
	b.SwitchToBlock(entry)
	q := b.Udiv(ir.TypeI64, x, y)
	b.Return([]ir.Value{q})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	res := Lower(b.Function())
	var saw bool
	for _, inst := range res.VCode.Insts {
		ai := inst.(*Instruction)
		if ai.Kind == kindArith2RRR && ai.Op2 == arith2Udiv {
			saw = true
		}
	}
	require.True(t, saw, "udiv must lower to kindArith2RRR/arith2Udiv")
}

func TestLower_UmulhiAndIshlAndUshrLowerToArith2(t *testing.T) {
	// Exercises the opcodes spec.md §8's p+i*4 addressing scenario and
	// instcombine.go's udiv-by-constant rewrite need: Ishl for
	// addressing, Umulhi/Ushr for the rewritten division.
	b := ir.NewBuilder("mixed", sig([]ir.Type{ir.TypeI64, ir.TypeI64}, []ir.Type{ir.TypeI64}))
	entry := b.CreateBlock()
	x := b.AppendBlockParam(entry, ir.TypeI64)
	y := b.AppendBlockParam(entry, ir.TypeI64)
	b.SwitchToBlock(entry)
	hi := b.Umulhi(ir.TypeI64, x, y)
	shl := b.Ishl(ir.TypeI64, hi, y)
	shr := b.Ushr(ir.TypeI64, shl, y)
	b.Return([]ir.Value{shr})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	res := Lower(b.Function())
	var sawUmulh, sawLsl, sawLsr bool
	for _, inst := range res.VCode.Insts {
		ai := inst.(*Instruction)
		if ai.Kind != kindArith2RRR {
			continue
		}
		switch ai.Op2 {
		case arith2Umulh:
			sawUmulh = true
		case arith2Lsl:
			sawLsl = true
		case arith2Lsr:
			sawLsr = true
		}
	}
	require.True(t, sawUmulh)
	require.True(t, sawLsl)
	require.True(t, sawLsr)
}

func TestLower_StackArgUsesLoadSPIncoming(t *testing.T) {
	// Nine integer params overflow the eight-register AAPCS64 window, so
	// the ninth classifies as a stack argument addressed via kindLoadSP
	// with Incoming set (lower.go can't yet know the final frame size).
	params := make([]ir.Type, 9)
	for i := range params {
		params[i] = ir.TypeI64
	}
	b := ir.NewBuilder("manyargs", sig(params, []ir.Type{ir.TypeI64}))
	entry := b.CreateBlock()
	var vals []ir.Value
	for range params {
		vals = append(vals, b.AppendBlockParam(entry, ir.TypeI64))
	}
	b.SwitchToBlock(entry)
	b.Return([]ir.Value{vals[8]})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	res := Lower(b.Function())
	var sawStackLoad bool
	for _, inst := range res.VCode.Insts {
		ai := inst.(*Instruction)
		if ai.Kind == kindLoadSP && ai.Incoming {
			sawStackLoad = true
		}
	}
	require.True(t, sawStackLoad, "the 9th integer param must bind via a kindLoadSP against the incoming-args area")
}

func TestLower_CallBindsArgsAndResult(t *testing.T) {
	b := ir.NewBuilder("caller", sig([]ir.Type{ir.TypeI32}, []ir.Type{ir.TypeI32}))
	calleeSig := b.Function().DeclareSignature(sig([]ir.Type{ir.TypeI32}, []ir.Type{ir.TypeI32}))
	callee := b.Function().DeclareExtFunc(ir.ExtFuncData{Name: "callee", Sig: calleeSig})

	entry := b.CreateBlock()
	p := b.AppendBlockParam(entry, ir.TypeI32)
	b.SwitchToBlock(entry)
	results := b.Call(callee, calleeSig, []ir.Value{p}, []ir.Type{ir.TypeI32})
	b.Return(results)
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	res := Lower(b.Function())
	var sawCallArgBind, sawCall, sawArgBindAfterCall bool
	for _, inst := range res.VCode.Insts {
		ai := inst.(*Instruction)
		switch ai.Kind {
		case kindCallArgBind:
			sawCallArgBind = true
			require.Equal(t, RegX0, ai.Freg)
		case kindCall:
			sawCall = true
			require.Equal(t, "callee", ai.Symbol)
		case kindArgBind:
			if sawCall {
				sawArgBindAfterCall = true
			}
		}
	}
	require.True(t, sawCallArgBind)
	require.True(t, sawCall)
	require.True(t, sawArgBindAfterCall, "the call result must be bound out of its fixed return register")
}
