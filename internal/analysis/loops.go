package analysis

import "github.com/anvilcc/anvil/internal/ir"

// Loop is one natural loop: a header dominating every block in its body,
// discovered from a single back edge pred->header where header dominates pred.
// Loops with multiple back edges to the same header are merged into one Loop
// with a unioned body, matching the usual natural-loop definition.
type Loop struct {
	Header ir.Block
	Body   map[ir.Block]bool
	Parent *Loop
}

// LoopForest is the nesting forest of every natural loop in a function,
// indexed by header block, used by LICM to find or create a preheader and by
// the register allocator's spill-cost heuristics (loop-body defs cost more).
type LoopForest struct {
	ByHeader map[ir.Block]*Loop
	// Containing maps every block to the innermost loop it belongs to, or nil.
	Containing map[ir.Block]*Loop
}

// BuildLoopForest finds every back edge (pred, header) in cfg where dom proves
// header dominates pred, then computes each header's body by walking
// predecessors backward until the header is reached (the standard natural-loop
// body construction).
func BuildLoopForest(cfg *CFG, dom *DomTree) *LoopForest {
	lf := &LoopForest{ByHeader: map[ir.Block]*Loop{}, Containing: map[ir.Block]*Loop{}}

	for _, blk := range cfg.ReversePostOrder() {
		for _, pred := range cfg.Preds(blk) {
			if !cfg.Reachable(pred) {
				continue
			}
			if dom.Dominates(blk, pred) {
				lf.addBackEdge(cfg, blk, pred)
			}
		}
	}

	// Nest loops: a loop's Parent is the innermost *other* loop containing its header.
	for header, loop := range lf.ByHeader {
		for other, cand := range lf.ByHeader {
			if other == header || !cand.Body[header] {
				continue
			}
			if loop.Parent == nil || cand.Body[loop.Parent.Header] {
				loop.Parent = cand
			}
		}
	}

	for _, loop := range lf.ByHeader {
		for blk := range loop.Body {
			if cur := lf.Containing[blk]; cur == nil || len(loop.Body) < len(cur.Body) {
				lf.Containing[blk] = loop
			}
		}
	}
	return lf
}

func (lf *LoopForest) addBackEdge(cfg *CFG, header, latch ir.Block) {
	loop, ok := lf.ByHeader[header]
	if !ok {
		loop = &Loop{Header: header, Body: map[ir.Block]bool{header: true}}
		lf.ByHeader[header] = loop
	}
	if loop.Body[latch] {
		return
	}
	worklist := []ir.Block{latch}
	loop.Body[latch] = true
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, pred := range cfg.Preds(b) {
			if !loop.Body[pred] {
				loop.Body[pred] = true
				worklist = append(worklist, pred)
			}
		}
	}
}

// IsLoopHeader reports whether b is the header of some natural loop.
func (lf *LoopForest) IsLoopHeader(b ir.Block) bool { _, ok := lf.ByHeader[b]; return ok }
