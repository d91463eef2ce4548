package opt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anvilcc/anvil/internal/ir"
)

func sig(params, results []ir.Type) ir.Signature {
	return ir.Signature{Params: params, Results: results}
}

func build(t *testing.T, fn func(b *ir.Builder)) *ir.Function {
	t.Helper()
	b := ir.NewBuilder("t", sig(nil, nil))
	entry := b.CreateBlock()
	b.SwitchToBlock(entry)
	fn(b)
	b.Seal(entry)
	require.NoError(t, b.Finalize())
	return b.Function()
}

func onlyInst(t *testing.T, f *ir.Function, blk ir.Block) []*ir.Instruction {
	t.Helper()
	var out []*ir.Instruction
	for _, inst := range f.Layout.BlockInsts(blk) {
		out = append(out, f.DFG.Inst(inst))
	}
	return out
}

func TestSCCP_FoldsConstantArithmetic(t *testing.T) {
	f := build(t, func(b *ir.Builder) {
		x := b.Iconst(ir.TypeI32, 3)
		y := b.Iconst(ir.TypeI32, 4)
		sum := b.Iadd(ir.TypeI32, x, y)
		b.Return([]ir.Value{sum})
	})

	require.True(t, SCCP(f))
	insts := onlyInst(t, f, f.Layout.EntryBlock())
	require.Len(t, insts, 4) // iconst 3, iconst 4, iadd (now iconst 7), return
	sumInst := insts[2]
	require.Equal(t, ir.OpcodeIconst, sumInst.Opcode)
	require.Equal(t, int64(7), sumInst.Imm64)
}

func TestSCCP_MarksUnreachableBranchTarget(t *testing.T) {
	b := ir.NewBuilder("branch", sig(nil, nil))
	entry := b.CreateBlock()
	dead := b.CreateBlock()
	live := b.CreateBlock()

	b.SwitchToBlock(entry)
	one := b.Iconst(ir.TypeI32, 1)
	b.Brif(one, live, nil, dead, nil)
	b.Seal(entry)
	b.Seal(dead)
	b.Seal(live)

	b.SwitchToBlock(dead)
	b.Return(nil)
	b.SwitchToBlock(live)
	b.Return(nil)

	require.NoError(t, b.Finalize())
	f := b.Function()

	SCCP(f)
	require.True(t, UCE(f), "UCE should remove the block SCCP proved unreachable")
	for _, blk := range f.Layout.Blocks() {
		require.NotEqual(t, dead, blk)
	}
}

func TestDCE_RemovesDeadPureInstruction(t *testing.T) {
	f := build(t, func(b *ir.Builder) {
		b.Iadd(ir.TypeI32, b.Iconst(ir.TypeI32, 1), b.Iconst(ir.TypeI32, 2)) // dead: result unused
		b.Return(nil)
	})
	require.True(t, DCE(f))
	insts := onlyInst(t, f, f.Layout.EntryBlock())
	require.Len(t, insts, 1)
	require.Equal(t, ir.OpcodeReturn, insts[0].Opcode)
}

func TestDCE_KeepsSideEffectingStore(t *testing.T) {
	f := build(t, func(b *ir.Builder) {
		slot := b.Function().CreateStackSlot(ir.StackSlotData{Size: 8, Align: 8})
		addr := b.StackAddr(slot)
		b.Store(b.Iconst(ir.TypeI32, 1), addr, 0, ir.MemFlags{Region: ir.MemRegionStack})
		b.Return(nil)
	})
	require.False(t, DCE(f), "a store must never be eliminated as dead")
}

func TestInstCombine_AddZeroIdentity(t *testing.T) {
	f := build(t, func(b *ir.Builder) {
		x := b.AppendBlockParam(b.CurrentBlock(), ir.TypeI32)
		zero := b.Iconst(ir.TypeI32, 0)
		sum := b.Iadd(ir.TypeI32, x, zero)
		b.Return([]ir.Value{sum})
	})
	require.True(t, InstCombine(f))
	ret := onlyInst(t, f, f.Layout.EntryBlock())
	last := ret[len(ret)-1]
	require.Equal(t, ir.OpcodeReturn, last.Opcode)
	resolved := f.DFG.ResolveAlias(last.Args[0])
	param := f.Layout.BlockParams(f.Layout.EntryBlock())[0]
	require.Equal(t, param, resolved)
}

func TestInstCombine_MulPowerOfTwoBecomesShift(t *testing.T) {
	f := build(t, func(b *ir.Builder) {
		x := b.AppendBlockParam(b.CurrentBlock(), ir.TypeI32)
		eight := b.Iconst(ir.TypeI32, 8)
		prod := b.Imul(ir.TypeI32, x, eight)
		b.Return([]ir.Value{prod})
	})
	require.True(t, InstCombine(f))
	var sawShift bool
	for _, inst := range onlyInst(t, f, f.Layout.EntryBlock()) {
		if inst.Opcode == ir.OpcodeIshl {
			sawShift = true
		}
	}
	require.True(t, sawShift, "multiply by 8 should strength-reduce to a shift by 3")
}

func TestInstCombine_UnsignedDivByConstantExpandsToMagicSequence(t *testing.T) {
	f := build(t, func(b *ir.Builder) {
		x := b.AppendBlockParam(b.CurrentBlock(), ir.TypeI32)
		three := b.Iconst(ir.TypeI32, 3)
		q := b.Udiv(ir.TypeI32, x, three)
		b.Return([]ir.Value{q})
	})
	require.True(t, InstCombine(f))
	var sawUmulhi bool
	for _, inst := range onlyInst(t, f, f.Layout.EntryBlock()) {
		if inst.Opcode == ir.OpcodeUmulhi {
			sawUmulhi = true
		}
		require.NotEqual(t, ir.OpcodeUdiv, inst.Opcode, "udiv by a non-power-of-two constant must be fully eliminated")
	}
	require.True(t, sawUmulhi)
}

func TestGVN_DeduplicatesRedundantComputation(t *testing.T) {
	f := build(t, func(b *ir.Builder) {
		x := b.AppendBlockParam(b.CurrentBlock(), ir.TypeI32)
		y := b.AppendBlockParam(b.CurrentBlock(), ir.TypeI32)
		a := b.Iadd(ir.TypeI32, x, y)
		c := b.Iadd(ir.TypeI32, x, y)
		sum := b.Iadd(ir.TypeI32, a, c)
		b.Return([]ir.Value{sum})
	})
	require.True(t, GVN(f))
	// The second redundant add's result must resolve to the first's.
	var adds []ir.Value
	for _, inst := range onlyInst(t, f, f.Layout.EntryBlock()) {
		if inst.Opcode == ir.OpcodeIadd && inst.Arity == 2 {
			adds = append(adds, inst.Result0())
		}
	}
	require.True(t, len(adds) >= 2)
	require.Equal(t, f.DFG.ResolveAlias(adds[0]), f.DFG.ResolveAlias(adds[1]))
}

func TestLICM_HoistsLoopInvariantComputation(t *testing.T) {
	b := ir.NewBuilder("loop", sig(nil, nil))
	entry := b.CreateBlock()
	header := b.CreateBlock()
	exit := b.CreateBlock()

	b.SwitchToBlock(entry)
	x := b.AppendBlockParam(entry, ir.TypeI32)
	y := b.AppendBlockParam(entry, ir.TypeI32)
	b.Jump(header, nil)
	b.Seal(entry)

	b.SwitchToBlock(header)
	invariant := b.Iadd(ir.TypeI32, x, y) // loop-invariant: operands defined outside the loop
	limit := b.Iconst(ir.TypeI32, 10)
	done := b.Icmp(ir.CondSignedGreaterThanOrEqual, invariant, limit)
	b.Brif(done, exit, nil, header, nil)
	b.Seal(header)

	b.SwitchToBlock(exit)
	b.Seal(exit)
	b.Return(nil)
	require.NoError(t, b.Finalize())
	f := b.Function()

	require.True(t, LICM(f))
	for _, inst := range onlyInst(t, f, header) {
		require.NotEqual(t, ir.OpcodeIadd, inst.Opcode, "the invariant add must have been hoisted out of the header")
	}
	var sawAdd bool
	for _, inst := range onlyInst(t, f, entry) {
		if inst.Opcode == ir.OpcodeIadd {
			sawAdd = true
		}
	}
	require.True(t, sawAdd, "the invariant add should now live in the loop's dominating entry block")
}

func TestCopyPropagate_ForwardsUniformBlockArgument(t *testing.T) {
	b := ir.NewBuilder("copy", sig(nil, nil))
	entry := b.CreateBlock()
	left := b.CreateBlock()
	right := b.CreateBlock()
	merge := b.CreateBlock()

	b.SwitchToBlock(entry)
	cond := b.AppendBlockParam(entry, ir.TypeI32)
	same := b.Iconst(ir.TypeI32, 42)
	b.Brif(cond, left, nil, right, nil)
	b.Seal(left)
	b.Seal(right)

	b.SwitchToBlock(left)
	b.Jump(merge, []ir.Value{same})
	b.SwitchToBlock(right)
	b.Jump(merge, []ir.Value{same})
	b.Seal(merge)
	b.Seal(entry)

	b.SwitchToBlock(merge)
	param := b.AppendBlockParam(merge, ir.TypeI32)
	b.Return([]ir.Value{param})
	require.NoError(t, b.Finalize())
	f := b.Function()

	require.True(t, CopyPropagate(f))
	ret := f.Layout.LastInst(merge)
	retData := f.DFG.Inst(ret)
	require.Equal(t, f.DFG.ResolveAlias(same), f.DFG.ResolveAlias(retData.Args[0]))
}

func TestSimplifyBranches_FoldsConstantBrif(t *testing.T) {
	b := ir.NewBuilder("constbr", sig(nil, nil))
	entry := b.CreateBlock()
	thenB := b.CreateBlock()
	elseB := b.CreateBlock()

	b.SwitchToBlock(entry)
	one := b.Iconst(ir.TypeI32, 1)
	b.Brif(one, thenB, nil, elseB, nil)
	b.Seal(entry)
	b.Seal(thenB)
	b.Seal(elseB)
	b.SwitchToBlock(thenB)
	b.Return(nil)
	b.SwitchToBlock(elseB)
	b.Return(nil)
	require.NoError(t, b.Finalize())
	f := b.Function()

	require.True(t, SimplifyBranches(f))
	term := f.DFG.Inst(f.Layout.LastInst(entry))
	require.Equal(t, ir.OpcodeJump, term.Opcode)
	require.Equal(t, thenB, term.Targets[0].Block)
}

func TestAliasRLE_ForwardsStoredValueThroughBothLoads(t *testing.T) {
	f := build(t, func(b *ir.Builder) {
		slot := b.Function().CreateStackSlot(ir.StackSlotData{Size: 8, Align: 8})
		addr := b.StackAddr(slot)
		stored := b.Iconst(ir.TypeI32, 5)
		b.Store(stored, addr, 0, ir.MemFlags{Region: ir.MemRegionStack})
		first := b.Load(ir.TypeI32, addr, 0, ir.MemFlags{Region: ir.MemRegionStack})
		second := b.Load(ir.TypeI32, addr, 0, ir.MemFlags{Region: ir.MemRegionStack})
		b.Return([]ir.Value{first, second})
	})
	require.True(t, AliasRLE(f))
	for _, inst := range onlyInst(t, f, f.Layout.EntryBlock()) {
		require.NotEqual(t, ir.OpcodeLoad, inst.Opcode, "both loads should forward directly from the preceding store")
	}
	ret := f.DFG.Inst(f.Layout.LastInst(f.Layout.EntryBlock()))
	require.Equal(t, ir.OpcodeIconst, f.DFG.Inst(f.DFG.ValueDefinition(f.DFG.ResolveAlias(ret.Args[0])).Inst).Opcode)
}
