package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anvilcc/anvil/internal/ir"
)

func sig(params, results []ir.Type) ir.Signature {
	return ir.Signature{Params: params, Results: results}
}

// buildDiamond wires entry -> {left, right} -> merge, returning the builder
// and the four blocks in that order.
func buildDiamond(t *testing.T) (*ir.Builder, ir.Block, ir.Block, ir.Block, ir.Block) {
	t.Helper()
	b := ir.NewBuilder("diamond", sig([]ir.Type{ir.TypeI32}, nil))
	entry := b.CreateBlock()
	left := b.CreateBlock()
	right := b.CreateBlock()
	merge := b.CreateBlock()

	cond := b.AppendBlockParam(entry, ir.TypeI32)
	b.SwitchToBlock(entry)
	b.Brif(cond, left, nil, right, nil)
	b.Seal(left)
	b.Seal(right)

	b.SwitchToBlock(left)
	b.Jump(merge, nil)
	b.SwitchToBlock(right)
	b.Jump(merge, nil)
	b.Seal(merge)
	b.Seal(entry)

	b.SwitchToBlock(merge)
	b.Return(nil)
	require.NoError(t, b.Finalize())
	return b, entry, left, right, merge
}

func TestCFG_DiamondEdges(t *testing.T) {
	b, entry, left, right, merge := buildDiamond(t)
	cfg := Build(b.Function())

	require.ElementsMatch(t, []ir.Block{left, right}, cfg.Succs(entry))
	require.ElementsMatch(t, []ir.Block{entry}, cfg.Preds(left))
	require.ElementsMatch(t, []ir.Block{left, right}, cfg.Preds(merge))
	require.True(t, cfg.Reachable(merge))
}

func TestDominators_DiamondMergeDominatedByEntry(t *testing.T) {
	b, entry, left, right, merge := buildDiamond(t)
	cfg := Build(b.Function())
	dom := BuildDominators(cfg)

	require.True(t, dom.Dominates(entry, merge))
	require.False(t, dom.Dominates(left, merge), "left alone must not dominate merge, since right also reaches it")
	require.False(t, dom.Dominates(right, merge))
	idom, ok := dom.IDom(merge)
	require.True(t, ok)
	require.Equal(t, entry, idom)
}

func buildLoop(t *testing.T) (*ir.Builder, ir.Block, ir.Block, ir.Block) {
	t.Helper()
	b := ir.NewBuilder("loop", sig(nil, nil))
	entry := b.CreateBlock()
	header := b.CreateBlock()
	exit := b.CreateBlock()

	b.SwitchToBlock(entry)
	b.Jump(header, nil)
	b.Seal(entry)

	b.SwitchToBlock(header)
	limit := b.Iconst(ir.TypeI32, 10)
	zero := b.Iconst(ir.TypeI32, 0)
	done := b.Icmp(ir.CondSignedGreaterThanOrEqual, zero, limit)
	b.Brif(done, exit, nil, header, nil)
	b.Seal(header)

	b.SwitchToBlock(exit)
	b.Seal(exit)
	b.Return(nil)
	require.NoError(t, b.Finalize())
	return b, entry, header, exit
}

func TestLoopForest_FindsSingleHeader(t *testing.T) {
	b, _, header, exit := buildLoop(t)
	cfg := Build(b.Function())
	dom := BuildDominators(cfg)
	lf := BuildLoopForest(cfg, dom)

	require.True(t, lf.IsLoopHeader(header))
	require.False(t, lf.IsLoopHeader(exit))
	loop := lf.ByHeader[header]
	require.True(t, loop.Body[header])
	require.Nil(t, lf.Containing[exit])
	require.Same(t, loop, lf.Containing[header])
}

func TestVerify_AcceptsWellFormedFunction(t *testing.T) {
	b, _, _, _, _ := buildDiamond(t)
	errs := Verify(b.Function())
	require.Empty(t, errs)
}
