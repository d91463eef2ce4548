// Package arm64 is the AArch64 backend: opcode enumeration, DSL-driven
// lowering, and encoding over internal/machinst,
// internal/abi, and internal/regalloc. Grounded throughout on
// internal/engine/wazevo/backend/isa/arm64/*.go, generalized from wazero's
// single-source-language (WebAssembly) lowering to internal/ir's
// Cranelift-shaped opcode set.
package arm64

import (
	"github.com/anvilcc/anvil/internal/abi"
	"github.com/anvilcc/anvil/internal/machinst"
)

// Real register naming, re-exported from internal/abi so lowering and
// encoding share one register vocabulary with classification and frame
// layout rather than each defining their own numbering (diverging
// deliberately from the teacher, whose backend.RealReg constants are
// private to its arm64 package since it has no separate abi package to
// share them with).
const (
	RegX0  = abi.RegX0
	RegX8  = abi.RegX8
	RegX16 = abi.RegX16 // reserved: intra-procedure-call scratch (branch-island veneers)
	RegX17 = abi.RegX17 // reserved: intra-procedure-call scratch
	RegX27 = abi.RegX27 // reserved: lowering scratch
	RegX29 = abi.RegX29 // frame pointer
	RegX30 = abi.RegX30 // link register
	RegSP  = abi.RegSP
	RegV0  = abi.RegV0
)

var regNames = buildRegNames()

func buildRegNames() map[machinst.RealReg]string {
	names := map[machinst.RealReg]string{RegSP: "sp"}
	for i := machinst.RealReg(0); i < 31; i++ {
		names[abi.RegX0+i] = xName(i)
		names[abi.RegV0+i] = vName(i)
	}
	names[abi.RegV0+31] = vName(31)
	return names
}

func xName(n machinst.RealReg) string {
	switch n {
	case 29:
		return "x29"
	case 30:
		return "x30"
	default:
		return "x" + itoa(int(n))
	}
}

func vName(n machinst.RealReg) string { return "v" + itoa(int(n)) }

// itoa avoids importing strconv for a single-digit-or-two conversion used
// only by disassembly-style String() methods.
func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}

func regName(r machinst.RealReg) string {
	if n, ok := regNames[r]; ok {
		return n
	}
	return "?"
}
