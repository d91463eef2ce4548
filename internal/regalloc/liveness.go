package regalloc

import "github.com/anvilcc/anvil/internal/machinst"

// Interval is one VReg's live range over the flat instruction stream: the
// index of its first reference to its last. A VReg used before any def
// (e.g. an incoming-argument VReg) starts at its first use, so Start is
// never -1. Spec.md
// §4.5: "a VReg's live range is [first def, last use]".
type Interval struct {
	VReg       machinst.VReg
	Start, End int
	Hint       machinst.RealReg // preferred PReg, from a copy's source/dest
	HasHint    bool
}

// FixedRange records that PReg r is unavailable to the allocator over
// [Start, End] because some instruction hardwires a VReg to it there
// (spec.md §4.5: "Fixed-physical constraints induce fixed-def/use ranges
// on the corresponding PRegs").
type FixedRange struct {
	Reg        machinst.RealReg
	Start, End int
}

// ComputeLiveness scans vc's flat instruction stream once, building one
// Interval per VReg actually referenced and one FixedRange per
// FixedDef/FixedUse operand encountered.
func ComputeLiveness(vc *machinst.VCode) (intervals []Interval, fixed []FixedRange) {
	byID := map[machinst.VRegID]*Interval{}
	var order []machinst.VRegID

	var buf []machinst.Operand
	for idx, inst := range vc.Insts {
		buf = inst.Operands(buf[:0])
		for _, op := range buf {
			switch op.Role {
			case machinst.Def, machinst.Reuse:
				iv := intervalFor(byID, &order, op.Reg)
				if iv.Start == -1 || idx < iv.Start {
					iv.Start = idx
				}
				if idx > iv.End {
					iv.End = idx
				}
			case machinst.Use:
				iv := intervalFor(byID, &order, op.Reg)
				if idx > iv.End {
					iv.End = idx
				}
				if iv.Start == -1 {
					iv.Start = idx
				}
			case machinst.FixedDef, machinst.FixedUse:
				fixed = append(fixed, FixedRange{Reg: op.Fixed, Start: idx, End: idx})
				iv := intervalFor(byID, &order, op.Reg)
				if iv.Start == -1 || idx < iv.Start {
					iv.Start = idx
				}
				if idx > iv.End {
					iv.End = idx
				}
				iv.Hint, iv.HasHint = op.Fixed, true
			}
		}
		if src, dst, ok := inst.IsCopy(); ok {
			if ivDst, isKnown := byID[dst.ID()]; isKnown {
				if ivSrc, ok2 := byID[src.ID()]; ok2 && ivSrc.HasHint {
					ivDst.Hint, ivDst.HasHint = ivSrc.Hint, true
				}
			}
		}
	}

	for _, id := range order {
		intervals = append(intervals, *byID[id])
	}
	return intervals, fixed
}

func intervalFor(byID map[machinst.VRegID]*Interval, order *[]machinst.VRegID, v machinst.VReg) *Interval {
	id := v.ID()
	iv, ok := byID[id]
	if !ok {
		iv = &Interval{VReg: v, Start: -1, End: -1}
		byID[id] = iv
		*order = append(*order, id)
	}
	return iv
}
