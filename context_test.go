package anvil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anvilcc/anvil/internal/ir"
)

func sig(params, results []ir.Type) ir.Signature {
	return ir.Signature{Params: params, Results: results, CallConv: ir.CallConvSystemV}
}

func TestContext_CompileAArch64(t *testing.T) {
	b := ir.NewBuilder("addone", sig([]ir.Type{ir.TypeI32}, []ir.Type{ir.TypeI32}))
	entry := b.CreateBlock()
	p := b.AppendBlockParam(entry, ir.TypeI32)
	b.SwitchToBlock(entry)
	one := b.Iconst(ir.TypeI32, 1)
	sum := b.Iadd(ir.TypeI32, p, one)
	b.Return([]ir.Value{sum})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	ctx := NewContext(AArch64, DefaultOptions())
	code, err := ctx.Compile(b.Function())
	require.NoError(t, err)
	require.NotEmpty(t, code.Code)
}

func TestContext_CompileUnimplementedISA(t *testing.T) {
	b := ir.NewBuilder("id", sig([]ir.Type{ir.TypeI32}, []ir.Type{ir.TypeI32}))
	entry := b.CreateBlock()
	p := b.AppendBlockParam(entry, ir.TypeI32)
	b.SwitchToBlock(entry)
	b.Return([]ir.Value{p})
	b.Seal(entry)
	require.NoError(t, b.Finalize())

	ctx := NewContext(X86_64, DefaultOptions())
	_, err := ctx.Compile(b.Function())
	require.Error(t, err)

	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	require.Equal(t, "lower", compileErr.Stage)
}
