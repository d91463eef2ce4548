package opt

import "github.com/anvilcc/anvil/internal/ir"

// latticeState is a Value's SCCP lattice position: Top (not yet proven
// anything, the optimistic starting point), Constant(k), or Bottom (proven to
// vary at runtime, the conservative fallback).
type latticeState byte

const (
	latticeTop latticeState = iota
	latticeConstant
	latticeBottom
)

type lattice struct {
	state latticeState
	imm   int64
}

// sccpState threads the two worklists and the per-Value lattice map through
// the algorithm without resorting to package-level mutable state, so that two
// Contexts compiling on separate goroutines never share anything.
type sccpState struct {
	f              *ir.Function
	values         map[ir.Value]lattice
	reachableBlock map[ir.Block]bool
	blockWorklist  []ir.Block
	ssaWorklist    []ir.Inst
	users          map[ir.Value][]ir.Inst
}

// SCCP is sparse conditional constant propagation: a CFG-edge worklist drives
// block reachability from the entry, and an SSA-edge worklist re-evaluates
// instructions whose operand lattice values changed, folding arithmetic,
// comparisons, and select() under the meet semantics from the package doc.
// Blocks SCCP proves unreachable are left for UCE to physically remove; values
// it proves Constant(k) are rewritten to iconst k in place.
func SCCP(f *ir.Function) bool {
	entry := f.Layout.EntryBlock()
	if !entry.Valid() {
		return false
	}
	s := &sccpState{
		f:              f,
		values:         map[ir.Value]lattice{},
		reachableBlock: map[ir.Block]bool{entry: true},
		blockWorklist:  []ir.Block{entry},
		users:          map[ir.Value][]ir.Inst{},
	}
	for _, blk := range f.Layout.Blocks() {
		for _, inst := range f.Layout.BlockInsts(blk) {
			for _, a := range f.DFG.Inst(inst).AllArgs(&f.DFG) {
				a = f.DFG.ResolveAlias(a)
				s.users[a] = append(s.users[a], inst)
			}
		}
	}

	for len(s.blockWorklist) > 0 || len(s.ssaWorklist) > 0 {
		for len(s.blockWorklist) > 0 {
			blk := s.blockWorklist[len(s.blockWorklist)-1]
			s.blockWorklist = s.blockWorklist[:len(s.blockWorklist)-1]
			s.ssaWorklist = append(s.ssaWorklist, f.Layout.BlockInsts(blk)...)
		}
		for len(s.ssaWorklist) > 0 {
			inst := s.ssaWorklist[len(s.ssaWorklist)-1]
			s.ssaWorklist = s.ssaWorklist[:len(s.ssaWorklist)-1]
			blk := f.Layout.InstBlock(inst)
			if !f.Layout.InstInLayout(inst) || !s.reachableBlock[blk] {
				continue
			}
			s.visit(inst)
		}
	}

	changed := false
	for v, l := range s.values {
		if l.state != latticeConstant {
			continue
		}
		def := f.DFG.ValueDefinition(v)
		if def.Kind != "result" {
			continue
		}
		inst := f.DFG.Inst(def.Inst)
		if inst.Opcode == ir.OpcodeIconst && inst.Imm64 == l.imm {
			continue
		}
		inst.Opcode, inst.Imm64 = ir.OpcodeIconst, l.imm
		inst.Arity = 0
		changed = true
	}
	for blk := range s.reachableBlock {
		term := f.Layout.LastInst(blk)
		if !term.Valid() || f.DFG.Inst(term).Opcode != ir.OpcodeBrif {
			continue
		}
		data := f.DFG.Inst(term)
		c := s.get(data.Args[0])
		if c.state != latticeConstant {
			continue
		}
		taken := data.Targets[1]
		if c.imm != 0 {
			taken = data.Targets[0]
		}
		f.Retype(term, ir.OpcodeJump)
		data.Targets[0], data.Targets[1] = taken, ir.BranchTarget{}
		changed = true
	}
	return changed
}

func (s *sccpState) get(v ir.Value) lattice {
	if !v.Valid() {
		return lattice{state: latticeBottom}
	}
	v = s.f.DFG.ResolveAlias(v)
	if l, ok := s.values[v]; ok {
		return l
	}
	return lattice{state: latticeTop}
}

func (s *sccpState) set(v ir.Value, newL lattice) {
	v = s.f.DFG.ResolveAlias(v)
	cur, ok := s.values[v]
	if !ok {
		cur = lattice{state: latticeTop}
	}
	var merged lattice
	var changed bool
	switch {
	case cur.state == latticeBottom:
		return
	case newL.state == latticeBottom:
		merged, changed = newL, true
	case cur.state == latticeTop && newL.state != latticeTop:
		merged, changed = newL, true
	case cur.state == latticeConstant && newL.state == latticeConstant && cur.imm != newL.imm:
		merged, changed = lattice{state: latticeBottom}, true
	default:
		return
	}
	s.values[v] = merged
	if changed {
		s.ssaWorklist = append(s.ssaWorklist, s.users[v]...)
	}
}

func (s *sccpState) enqueueBlock(b ir.Block) {
	if s.reachableBlock[b] {
		return
	}
	s.reachableBlock[b] = true
	s.blockWorklist = append(s.blockWorklist, b)
}

func (s *sccpState) evalBinary(op ir.Opcode, a, b lattice) lattice {
	if a.state == latticeBottom || b.state == latticeBottom {
		return lattice{state: latticeBottom}
	}
	if a.state == latticeTop || b.state == latticeTop {
		return lattice{state: latticeTop}
	}
	var r int64
	switch op {
	case ir.OpcodeIadd:
		r = a.imm + b.imm
	case ir.OpcodeIsub:
		r = a.imm - b.imm
	case ir.OpcodeImul:
		r = a.imm * b.imm
	case ir.OpcodeBand:
		r = a.imm & b.imm
	case ir.OpcodeBor:
		r = a.imm | b.imm
	case ir.OpcodeBxor:
		r = a.imm ^ b.imm
	default:
		return lattice{state: latticeBottom}
	}
	return lattice{state: latticeConstant, imm: r}
}

func (s *sccpState) visit(instRef ir.Inst) {
	inst := s.f.DFG.Inst(instRef)
	switch inst.Opcode {
	case ir.OpcodeIconst:
		s.set(inst.Result0(), lattice{state: latticeConstant, imm: inst.Imm64})
	case ir.OpcodeIadd, ir.OpcodeIsub, ir.OpcodeImul, ir.OpcodeBand, ir.OpcodeBor, ir.OpcodeBxor:
		s.set(inst.Result0(), s.evalBinary(inst.Opcode, s.get(inst.Args[0]), s.get(inst.Args[1])))
	case ir.OpcodeIcmp:
		a, b := s.get(inst.Args[0]), s.get(inst.Args[1])
		switch {
		case a.state == latticeBottom || b.state == latticeBottom:
			s.set(inst.Result0(), lattice{state: latticeBottom})
		case a.state == latticeConstant && b.state == latticeConstant:
			s.set(inst.Result0(), lattice{state: latticeConstant, imm: boolImm(evalCmp(inst.Cond, a.imm, b.imm))})
		}
	case ir.OpcodeSelect:
		c := s.get(inst.Args[0])
		switch c.state {
		case latticeConstant:
			if c.imm != 0 {
				s.set(inst.Result0(), s.get(inst.Args[1]))
			} else {
				s.set(inst.Result0(), s.get(inst.Args[2]))
			}
		case latticeBottom:
			x, y := s.get(inst.Args[1]), s.get(inst.Args[2])
			if x.state == latticeConstant && y.state == latticeConstant && x.imm == y.imm {
				s.set(inst.Result0(), x)
			} else {
				s.set(inst.Result0(), lattice{state: latticeBottom})
			}
		}
	case ir.OpcodeBrif:
		c := s.get(inst.Args[0])
		switch c.state {
		case latticeConstant:
			if c.imm != 0 {
				s.enqueueBlock(inst.Targets[0].Block)
			} else {
				s.enqueueBlock(inst.Targets[1].Block)
			}
		case latticeBottom:
			s.enqueueBlock(inst.Targets[0].Block)
			s.enqueueBlock(inst.Targets[1].Block)
		}
	case ir.OpcodeJump:
		s.enqueueBlock(inst.Targets[0].Block)
	default:
		for _, r := range inst.Results() {
			s.set(r, lattice{state: latticeBottom})
		}
	}
}

func evalCmp(cond ir.CondCode, a, b int64) bool {
	switch cond {
	case ir.CondEqual:
		return a == b
	case ir.CondNotEqual:
		return a != b
	case ir.CondSignedLessThan:
		return a < b
	case ir.CondSignedLessThanOrEqual:
		return a <= b
	case ir.CondSignedGreaterThan:
		return a > b
	case ir.CondSignedGreaterThanOrEqual:
		return a >= b
	case ir.CondUnsignedLessThan:
		return uint64(a) < uint64(b)
	case ir.CondUnsignedLessThanOrEqual:
		return uint64(a) <= uint64(b)
	case ir.CondUnsignedGreaterThan:
		return uint64(a) > uint64(b)
	case ir.CondUnsignedGreaterThanOrEqual:
		return uint64(a) >= uint64(b)
	default:
		return false
	}
}

func boolImm(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
