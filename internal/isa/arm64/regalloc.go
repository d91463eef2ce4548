package arm64

import (
	"github.com/anvilcc/anvil/internal/machinst"
	"github.com/anvilcc/anvil/internal/regalloc"
)

// allocatableInt is every general-purpose register lowering may hand to the
// allocator, withholding X16/X17 (IP0/IP1, reserved for veneers), X18
// (platform register), X27 (lowering's own scratch register), X28 (Go
// runtime-compatible reservation per the teacher's own register table),
// X29 (frame pointer), X30 (link register) and SP.
var allocatableInt = []machinst.RealReg{
	RegX0, RegX1, RegX2, RegX3, RegX4, RegX5, RegX6, RegX7,
	RegX8, RegX9, RegX10, RegX11, RegX12, RegX13, RegX14, RegX15,
	RegX19, RegX20, RegX21, RegX22, RegX23, RegX24, RegX25, RegX26,
}

// allocatableVector is every V register, shared by RegClassFloat and
// RegClassVector since AArch64 has one physical V register file.
var allocatableVector = []machinst.RealReg{
	RegV0, RegV1, RegV2, RegV3, RegV4, RegV5, RegV6, RegV7,
	RegV8, RegV9, RegV10, RegV11, RegV12, RegV13, RegV14, RegV15,
	RegV16, RegV17, RegV18, RegV19, RegV20, RegV21, RegV22, RegV23,
	RegV24, RegV25, RegV26, RegV27, RegV28, RegV29, RegV30, RegV31,
}

var calleeSavedInt = map[machinst.RealReg]bool{
	RegX19: true, RegX20: true, RegX21: true, RegX22: true,
	RegX23: true, RegX24: true, RegX25: true, RegX26: true,
}

var calleeSavedVector = map[machinst.RealReg]bool{
	RegV18: true, RegV19: true, RegV20: true, RegV21: true, RegV22: true,
	RegV23: true, RegV24: true, RegV25: true, RegV26: true, RegV27: true,
	RegV28: true, RegV29: true, RegV30: true, RegV31: true,
}

// RegisterInfo is this backend's regalloc.RegisterInfo, grounded on
// internal/abi/regs_arm64.go's CalleeSaved table: every register it names
// callee-saved here is caller-saved by exclusion, matching AAPCS64's
// partition of the AArch64 integer and vector register files.
func RegisterInfo() regalloc.RegisterInfo {
	callerSavedInt := map[machinst.RealReg]bool{}
	for _, r := range allocatableInt {
		if !calleeSavedInt[r] {
			callerSavedInt[r] = true
		}
	}
	callerSavedVector := map[machinst.RealReg]bool{}
	for _, r := range allocatableVector {
		if !calleeSavedVector[r] {
			callerSavedVector[r] = true
		}
	}

	calleeSaved := map[machinst.RealReg]bool{}
	callerSaved := map[machinst.RealReg]bool{}
	for r, v := range calleeSavedInt {
		calleeSaved[r] = v
	}
	for r, v := range calleeSavedVector {
		calleeSaved[r] = v
	}
	for r, v := range callerSavedInt {
		callerSaved[r] = v
	}
	for r, v := range callerSavedVector {
		callerSaved[r] = v
	}

	return regalloc.RegisterInfo{
		Allocatable: map[machinst.RegClass][]machinst.RealReg{
			machinst.RegClassInt:    allocatableInt,
			machinst.RegClassFloat:  allocatableVector,
			machinst.RegClassVector: allocatableVector,
		},
		CalleeSaved: calleeSaved,
		CallerSaved: callerSaved,
	}
}
