package regalloc

import (
	"sort"

	"github.com/anvilcc/anvil/internal/machinst"
)

// Result is the allocator's per-VReg verdict plus every spilled VReg's
// assigned stack slot, ready for the ISA backend to materialize spill
// code and rewrite operands via Hooks/MachInst.AssignReal.
type Result struct {
	Assignments map[machinst.VRegID]Assignment
	NumSlots    map[machinst.RegClass]int
}

type active struct {
	Interval
	reg machinst.RealReg
}

// Allocate runs linear-scan register allocation over intervals (sorted by
// Allocate itself) against info's per-class register pools, honoring
// fixed's PReg reservations. Spill victims are chosen by "furthest next
// use" among the active set (approximated, per this package's liveness
// model, by largest interval End) — spec.md §4.5's exact heuristic name.
func Allocate(intervals []Interval, fixed []FixedRange, info RegisterInfo) *Result {
	sorted := append([]Interval(nil), intervals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	reserved := map[machinst.RealReg][]FixedRange{}
	for _, fr := range fixed {
		reserved[fr.Reg] = append(reserved[fr.Reg], fr)
	}

	result := &Result{Assignments: map[machinst.VRegID]Assignment{}, NumSlots: map[machinst.RegClass]int{}}
	activeByClass := map[machinst.RegClass][]*active{}
	freeByClass := map[machinst.RegClass][]machinst.RealReg{}
	for class, regs := range info.Allocatable {
		freeByClass[class] = append([]machinst.RealReg(nil), regs...)
	}
	nextSlot := map[machinst.RegClass]int{}

	for i := range sorted {
		iv := sorted[i]
		class := iv.VReg.Class()

		// Expire active ranges that have ended before this one starts,
		// returning their PRegs to the free pool.
		var stillActive []*active
		for _, a := range activeByClass[class] {
			if a.End < iv.Start {
				freeByClass[class] = append([]machinst.RealReg{a.reg}, freeByClass[class]...)
			} else {
				stillActive = append(stillActive, a)
			}
		}
		activeByClass[class] = stillActive

		reg, ok := pickFree(freeByClass[class], reserved, iv)
		if ok {
			removeFree(&freeByClass[class], reg)
			activeByClass[class] = append(activeByClass[class], &active{Interval: iv, reg: reg})
			result.Assignments[iv.VReg.ID()] = Assignment{Real: reg, Slot: StackSlotInvalid}
			continue
		}

		// No free, unreserved PReg: spill the active interval ending
		// furthest in the future if it ends later than this one (so the
		// newly-arrived interval gets the register instead), otherwise
		// spill the newly-arrived interval itself.
		victimIdx := furthestActive(activeByClass[class])
		if victimIdx >= 0 && activeByClass[class][victimIdx].End > iv.End {
			victim := activeByClass[class][victimIdx]
			slot := nextSlot[class]
			nextSlot[class]++
			result.Assignments[victim.VReg.ID()] = Assignment{Real: 0, Slot: StackSlot(slot)}
			activeByClass[class][victimIdx] = &active{Interval: iv, reg: victim.reg}
			result.Assignments[iv.VReg.ID()] = Assignment{Real: victim.reg, Slot: StackSlotInvalid}
		} else {
			slot := nextSlot[class]
			nextSlot[class]++
			result.Assignments[iv.VReg.ID()] = Assignment{Real: 0, Slot: StackSlot(slot)}
		}
	}

	for class, n := range nextSlot {
		result.NumSlots[class] = n
	}
	return result
}

func pickFree(free []machinst.RealReg, reserved map[machinst.RealReg][]FixedRange, iv Interval) (machinst.RealReg, bool) {
	// Prefer the hinted register if it's free and unreserved, to minimize
	// coalescable copies (spec.md §4.5: "honoring any hint").
	if iv.HasHint {
		for _, r := range free {
			if r == iv.Hint && !overlapsReserved(reserved[r], iv) {
				return r, true
			}
		}
	}
	for _, r := range free {
		if !overlapsReserved(reserved[r], iv) {
			return r, true
		}
	}
	return 0, false
}

func overlapsReserved(ranges []FixedRange, iv Interval) bool {
	for _, r := range ranges {
		if iv.Start <= r.End && r.Start <= iv.End {
			return true
		}
	}
	return false
}

func removeFree(free *[]machinst.RealReg, reg machinst.RealReg) {
	for i, r := range *free {
		if r == reg {
			*free = append((*free)[:i], (*free)[i+1:]...)
			return
		}
	}
}

func furthestActive(actives []*active) int {
	best := -1
	for i, a := range actives {
		if best == -1 || a.End > actives[best].End {
			best = i
		}
	}
	return best
}
