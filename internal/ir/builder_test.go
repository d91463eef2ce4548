package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sig(params, results []Type) Signature {
	return Signature{Params: params, Results: results, CallConv: CallConvSystemV}
}

func TestBuilder_StraightLine(t *testing.T) {
	b := NewBuilder("straight", sig([]Type{TypeI32}, []Type{TypeI32}))
	entry := b.CreateBlock()
	p := b.AppendBlockParam(entry, TypeI32)
	b.SwitchToBlock(entry)

	one := b.Iconst(TypeI32, 1)
	sum := b.Iadd(TypeI32, p, one)
	b.Return([]Value{sum})
	b.Seal(entry)

	require.NoError(t, b.Finalize())
	f := b.Function()
	require.Equal(t, 1, len(f.Layout.Blocks()))
	insts := f.Layout.BlockInsts(entry)
	require.Len(t, insts, 3)
	require.Equal(t, OpcodeReturn, f.DFG.Inst(insts[2]).Opcode)
}

func TestBuilder_DiamondMergeInsertsBlockParam(t *testing.T) {
	b := NewBuilder("diamond", sig([]Type{TypeI32}, []Type{TypeI32}))
	v := b.DeclareVariable(TypeI32)

	entry := b.CreateBlock()
	thenBlk := b.CreateBlock()
	elseBlk := b.CreateBlock()
	merge := b.CreateBlock()

	cond := b.AppendBlockParam(entry, TypeI32)
	b.SwitchToBlock(entry)
	b.Brif(cond, thenBlk, nil, elseBlk, nil)
	b.Seal(thenBlk)
	b.Seal(elseBlk)

	b.SwitchToBlock(thenBlk)
	one := b.Iconst(TypeI32, 1)
	b.DefineVariableInCurrentBlock(v, one)
	b.Jump(merge, nil)

	b.SwitchToBlock(elseBlk)
	two := b.Iconst(TypeI32, 2)
	b.DefineVariableInCurrentBlock(v, two)
	b.Jump(merge, nil)

	b.Seal(merge)
	b.SwitchToBlock(merge)
	result := b.FindValue(v)
	b.Return([]Value{result})
	b.Seal(entry)

	require.NoError(t, b.Finalize())
	f := b.Function()
	require.Len(t, f.Layout.BlockParams(merge), 1, "merge block should gain exactly one block parameter for v")
}

func TestBuilder_LoopSelfReferenceViaUnsealedHeader(t *testing.T) {
	// A loop header is switched to and read from before its back edge exists,
	// exercising the unknownValues placeholder path in findValue/Seal.
	b := NewBuilder("loop", sig(nil, []Type{TypeI32}))
	v := b.DeclareVariable(TypeI32)

	entry := b.CreateBlock()
	header := b.CreateBlock()
	exit := b.CreateBlock()

	b.SwitchToBlock(entry)
	zero := b.Iconst(TypeI32, 0)
	b.DefineVariableInCurrentBlock(v, zero)
	b.Jump(header, nil)
	b.Seal(entry)

	b.SwitchToBlock(header)
	cur := b.FindValue(v) // read before the back edge is recorded
	one := b.Iconst(TypeI32, 1)
	next := b.Iadd(TypeI32, cur, one)
	b.DefineVariableInCurrentBlock(v, next)
	limit := b.Iconst(TypeI32, 10)
	done := b.Icmp(CondSignedGreaterThanOrEqual, next, limit)
	b.Brif(done, exit, nil, header, nil)
	b.Seal(header) // now entry+header->header edges are both known

	b.SwitchToBlock(exit)
	b.Seal(exit)
	final := b.FindValue(v)
	b.Return([]Value{final})

	require.NoError(t, b.Finalize())
	f := b.Function()
	require.Len(t, f.Layout.BlockParams(header), 1, "loop header should gain a block parameter for the induction variable")
}
