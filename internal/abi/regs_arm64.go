package abi

import (
	"github.com/anvilcc/anvil/internal/ir"
	"github.com/anvilcc/anvil/internal/machinst"
)

// AArch64 general-purpose and vector register numbering. X18 is Darwin's
// platform register; X8 is the indirect-result-location register; X29/X30
// are FP/LR. Grounded directly on
// internal/engine/wazevo/backend/isa/arm64/abi.go's intParamResultRegs /
// floatParamResultRegs tables (X0-X7, V0-V7) and its regInfo's
// CalleeSavedRegisters / CallerSavedRegisters sets.
const (
	RegX0 machinst.RealReg = iota
	RegX1
	RegX2
	RegX3
	RegX4
	RegX5
	RegX6
	RegX7
	RegX8
	RegX9
	RegX10
	RegX11
	RegX12
	RegX13
	RegX14
	RegX15
	RegX16
	RegX17
	RegX18
	RegX19
	RegX20
	RegX21
	RegX22
	RegX23
	RegX24
	RegX25
	RegX26
	RegX27 // reserved as a compiler temporary register by lowering
	RegX28 // reserved, matches the teacher's Go-runtime-compatible reservation
	RegX29 // frame pointer
	RegX30 // link register
	RegSP

	RegV0
	RegV1
	RegV2
	RegV3
	RegV4
	RegV5
	RegV6
	RegV7
	RegV8
	RegV9
	RegV10
	RegV11
	RegV12
	RegV13
	RegV14
	RegV15
	RegV16
	RegV17
	RegV18
	RegV19
	RegV20
	RegV21
	RegV22
	RegV23
	RegV24
	RegV25
	RegV26
	RegV27
	RegV28
	RegV29
	RegV30
	RegV31
)

func regX8() machinst.RealReg { return RegX8 }

// Darwin reserves X18; Fast extends the argument register window through
// X17/V15; Cold is identical to SystemV in register usage (spec.md §4.6).
func paramResultRegs(conv ir.CallConv) (intRegs, floatRegs []machinst.RealReg) {
	switch conv {
	case ir.CallConvFast:
		return []machinst.RealReg{
				RegX0, RegX1, RegX2, RegX3, RegX4, RegX5, RegX6, RegX7,
				RegX9, RegX10, RegX11, RegX12, RegX13, RegX14, RegX15, RegX16, RegX17,
			}, []machinst.RealReg{
				RegV0, RegV1, RegV2, RegV3, RegV4, RegV5, RegV6, RegV7,
				RegV8, RegV9, RegV10, RegV11, RegV12, RegV13, RegV14, RegV15,
			}
	default: // SystemV, Darwin, Cold all share the AAPCS64 argument window.
		return []machinst.RealReg{RegX0, RegX1, RegX2, RegX3, RegX4, RegX5, RegX6, RegX7},
			[]machinst.RealReg{RegV0, RegV1, RegV2, RegV3, RegV4, RegV5, RegV6, RegV7}
	}
}

// CalleeSaved returns the callee-save register set for conv, used by
// internal/abi's frame-layout computation to size the prologue's save
// area. Darwin additionally treats X18 as reserved rather than allocatable
// at all (handled by the register allocator's allocatable-set, not here).
func CalleeSaved(conv ir.CallConv) []machinst.RealReg {
	return []machinst.RealReg{
		RegX19, RegX20, RegX21, RegX22, RegX23, RegX24, RegX25, RegX26, RegX28,
		RegV18, RegV19, RegV20, RegV21, RegV22, RegV23, RegV24, RegV25, RegV26, RegV27, RegV28, RegV29, RegV30, RegV31,
	}
}
