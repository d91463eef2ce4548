package opt

import (
	"github.com/anvilcc/anvil/internal/analysis"
	"github.com/anvilcc/anvil/internal/ir"
)

// memKey identifies a memory location precisely enough to compare two
// accesses for must-alias: the base address Value (after alias resolution)
// plus the constant byte offset. Two loads/stores with equal memKey and equal
// width touch exactly the same bytes.
type memKey struct {
	base   ir.Value
	offset int64
}

// AliasRLE is a region-partitioned alias analysis driving redundant-load
// elimination and dead-store elimination: it partitions memory into the
// {stack, heap, global, unknown} regions from MemFlags and, within each
// region, tracks the most recent store to each exact address. A store is
// proven dead if a later store to the identical address reaches before any
// intervening load or call could observe it; a load is proven redundant if an
// exact prior store or load to the identical address still reaches it. A
// store, call, or unknown-region access invalidates every tracked address in
// the regions it could touch, since this analysis makes no attempt at
// points-to reasoning beyond address identity.
func AliasRLE(f *ir.Function) bool {
	cfg := analysis.Build(f)
	changed := false
	for _, blk := range cfg.ReversePostOrder() {
		changed = aliasRLEBlock(f, blk) || changed
	}
	return changed
}

type regionState struct {
	lastValue map[memKey]ir.Value // address -> value last stored/loaded there
	lastStore map[memKey]ir.Inst  // address -> the store instruction, for DSE
}

func newRegionState() *regionState {
	return &regionState{lastValue: map[memKey]ir.Value{}, lastStore: map[memKey]ir.Inst{}}
}

func (r *regionState) invalidate() {
	r.lastValue = map[memKey]ir.Value{}
	r.lastStore = map[memKey]ir.Inst{}
}

// aliasRLEBlock runs the analysis within a single block; memory facts don't
// flow between blocks, since merging them soundly across arbitrary control
// flow would need a proper available-expressions dataflow fixpoint this pass
// doesn't implement. Reachable calls and unknown-region accesses invalidate
// every tracked fact in the regions they could write.
func aliasRLEBlock(f *ir.Function, blk ir.Block) bool {
	regions := map[ir.MemRegion]*regionState{
		ir.MemRegionStack:   newRegionState(),
		ir.MemRegionHeap:    newRegionState(),
		ir.MemRegionGlobal:  newRegionState(),
		ir.MemRegionUnknown: newRegionState(),
	}
	changed := false

	for _, inst := range f.Layout.BlockInsts(blk) {
		data := f.DFG.Inst(inst)
		switch {
		case data.Opcode.IsLoad():
			key := memKey{base: f.DFG.ResolveAlias(data.Args[0]), offset: data.Imm64}
			rs := regions[data.Mem.Region]
			if prior, ok := rs.lastValue[key]; ok {
				f.DFG.ReplaceWithAlias(data.Result0(), prior)
				f.Layout.RemoveInst(inst)
				changed = true
				continue
			}
			rs.lastValue[key] = data.Result0()
			for region, other := range regions {
				if region == data.Mem.Region || region == ir.MemRegionUnknown || data.Mem.Region == ir.MemRegionUnknown {
					other.lastStore = map[memKey]ir.Inst{}
				}
			}
		case data.Opcode.IsStore():
			key := memKey{base: f.DFG.ResolveAlias(data.Args[1]), offset: data.Imm64}
			rs := regions[data.Mem.Region]
			if prevStore, ok := rs.lastStore[key]; ok && f.Layout.InstInLayout(prevStore) {
				f.Layout.RemoveInst(prevStore)
				changed = true
			}
			for region, other := range regions {
				if region == data.Mem.Region || region == ir.MemRegionUnknown || data.Mem.Region == ir.MemRegionUnknown {
					other.invalidate()
				}
			}
			rs.lastValue[key] = f.DFG.ResolveAlias(data.Args[0])
			rs.lastStore[key] = inst
		case data.Opcode == ir.OpcodeCall || data.Opcode == ir.OpcodeCallIndirect || data.Opcode == ir.OpcodeFence ||
			data.Opcode == ir.OpcodeAtomicRmw || data.Opcode == ir.OpcodeAtomicCas:
			regions[ir.MemRegionStack].invalidate()
			regions[ir.MemRegionHeap].invalidate()
			regions[ir.MemRegionGlobal].invalidate()
			regions[ir.MemRegionUnknown].invalidate()
		}
	}
	return changed
}
