package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anvilcc/anvil/internal/ccapi"
	"github.com/anvilcc/anvil/internal/ir"
)

func sig(params, results []ir.Type) ir.Signature {
	return ir.Signature{Params: params, Results: results, CallConv: ir.CallConvSystemV}
}

func TestCompile_StraightLineProducesNonEmptyCode(t *testing.T) {
	b := ir.NewBuilder("addone", sig([]ir.Type{ir.TypeI32}, []ir.Type{ir.TypeI32}))
	entry := b.CreateBlock()
	p := b.AppendBlockParam(entry, ir.TypeI32)
	b.SwitchToBlock(entry)
	one := b.Iconst(ir.TypeI32, 1)
	sum := b.Iadd(ir.TypeI32, p, one)
	b.Return([]ir.Value{sum})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	code, err := Compile(b.Function(), ccapi.DefaultOptions(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, code.Code)
	require.Zero(t, len(code.Code) % 4)
}

func TestCompile_DiamondBranchProducesBranchEncodings(t *testing.T) {
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

	code, err := Compile(b.Function(), ccapi.DefaultOptions(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, code.Code)
}

func TestCompile_OptLevelNoneSkipsOptimizer(t *testing.T) {
	b := ir.NewBuilder("plain", sig([]ir.Type{ir.TypeI32}, []ir.Type{ir.TypeI32}))
	entry := b.CreateBlock()
	p := b.AppendBlockParam(entry, ir.TypeI32)
	b.SwitchToBlock(entry)
	b.Return([]ir.Value{p})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	opts := ccapi.DefaultOptions()
	opts.OptLevel = ccapi.OptLevelNone
	code, err := Compile(b.Function(), opts, nil)
	require.NoError(t, err)
	require.NotEmpty(t, code.Code)
}
