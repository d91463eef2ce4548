package arm64

import (
	"fmt"

	"github.com/anvilcc/anvil/internal/ccapi"
	"github.com/anvilcc/anvil/internal/machinst"
)

// regBits returns an operand's 5-bit encoding field: X/SP registers encode
// as their RealReg value directly (RegSP's value of 31 is architecturally
// correct — AArch64 overloads encoding 31 as SP or the zero register
// depending on instruction class), V registers subtract RegV0's base since
// they occupy a disjoint 32-63 RealReg range but a 0-31 encoding field.
func regBits(r machinst.RealReg) uint32 {
	if r >= RegV0 {
		return uint32(r - RegV0)
	}
	return uint32(r)
}

// Emit walks vc in block order and encodes every instruction into a fresh
// MachBuffer, binding one label per block and deferring every branch's
// target immediate to a Fixup resolved by Finish. elided names VCode.Insts
// indices regalloc.Coalesce identified as no-op same-register moves;
// Emit skips them rather than encoding a pointless mov. Panics if vc
// contains an instruction outside this package's kinds, the same contract
// lower.go's default case already applies to unlowered opcodes.
func Emit(vc *machinst.VCode, elided map[int]bool) *machinst.MachBuffer {
	buf := machinst.NewMachBuffer()
	labels := make([]machinst.Label, len(vc.Blocks))
	for i := range vc.Blocks {
		labels[i] = buf.NewLabel()
	}

	for bi, blk := range vc.Blocks {
		buf.BindLabel(labels[bi])
		for _, idx := range blk.Instrs {
			if elided[idx] {
				continue
			}
			emitOne(buf, vc.Insts[idx].(*Instruction), labels)
		}
	}
	return buf
}

// Resolvers returns the FixupKind resolvers Finish needs to patch every
// branch this package emits. Each rewrites only the immediate field of the
// already-encoded word, leaving its fixed opcode/condition bits intact,
// since those were correct at encode time and only the target offset was
// unknown.
func Resolvers() map[machinst.FixupKind]machinst.Resolver {
	return map[machinst.FixupKind]machinst.Resolver{
		machinst.FixupBranch26: func(buf *machinst.MachBuffer, f machinst.Fixup, labelOffset uint32) {
			word := buf.Read4(f.Offset)
			dist := int32(labelOffset) - int32(f.Offset)
			imm26 := uint32(dist/4) & 0x3ffffff
			word = (word &^ 0x3ffffff) | imm26
			buf.Patch4(f.Offset, word)
		},
		machinst.FixupBranch19: func(buf *machinst.MachBuffer, f machinst.Fixup, labelOffset uint32) {
			word := buf.Read4(f.Offset)
			dist := int32(labelOffset) - int32(f.Offset)
			imm19 := uint32(dist/4) & 0x7ffff
			word = (word &^ (0x7ffff << 5)) | (imm19 << 5)
			buf.Patch4(f.Offset, word)
		},
	}
}

func emitOne(buf *machinst.MachBuffer, inst *Instruction, labels []machinst.Label) {
	switch inst.Kind {
	case kindNop, kindArgBind, kindRetBind, kindCallArgBind:
		// Pure regalloc/ABI bookkeeping; no encoding.
	case kindAluRRR:
		buf.Emit4(encodeAluRRR(inst.Op, inst.Is64, regBits(inst.Rd.RealReg()), regBits(inst.Rn.RealReg()), regBits(inst.Rm.RealReg())))
	case kindAluRRImm12:
		buf.Emit4(encodeAluRRImm12(inst.Op, inst.Is64, regBits(inst.Rd.RealReg()), regBits(inst.Rn.RealReg()), uint32(inst.Imm)))
	case kindMovz:
		buf.Emit4(encodeMovz(inst.Is64, regBits(inst.Rd.RealReg()), uint16(inst.Imm), inst.HW))
	case kindMov:
		buf.Emit4(encodeMovReg(inst.Is64, regBits(inst.Rd.RealReg()), regBits(inst.Rn.RealReg())))
	case kindLoad:
		buf.Emit4(encodeLoadStoreUnsignedImm(inst.Size, true, regBits(inst.Rd.RealReg()), regBits(inst.Rn.RealReg()), inst.Imm))
	case kindStore:
		buf.Emit4(encodeLoadStoreUnsignedImm(inst.Size, false, regBits(inst.Rd.RealReg()), regBits(inst.Rn.RealReg()), inst.Imm))
	case kindLoadSP:
		buf.Emit4(encodeLoadStoreUnsignedImm(inst.Size, true, regBits(inst.Rd.RealReg()), regBits(RegSP), inst.Imm))
	case kindStoreSP:
		buf.Emit4(encodeLoadStoreUnsignedImm(inst.Size, false, regBits(inst.Rd.RealReg()), regBits(RegSP), inst.Imm))
	case kindArith2RRR:
		buf.Emit4(encodeArith2(inst.Op2, inst.Is64, regBits(inst.Rd.RealReg()), regBits(inst.Rn.RealReg()), regBits(inst.Rm.RealReg())))
	case kindFrameAdjust:
		for _, w := range encodeFrameAdjust(inst.Grow, inst.Imm) {
			buf.Emit4(w)
		}
	case kindSaveReg:
		buf.Emit4(encodeLoadStoreUnsignedImm(8, false, regBits(inst.Freg), regBits(RegSP), inst.Imm))
	case kindRestoreReg:
		buf.Emit4(encodeLoadStoreUnsignedImm(8, true, regBits(inst.Freg), regBits(RegSP), inst.Imm))
	case kindSetFP:
		// mov x29, sp has no ORR-based encoding (SP is not a valid ORR
		// source register); the architecture's actual alias is
		// ADD x29, sp, #0.
		buf.Emit4(encodeAluRRImm12(aluAdd, true, regBits(RegX29), regBits(RegSP), 0))
	case kindCmpRR:
		buf.Emit4(encodeSubsRR(inst.Is64, regBits(inst.Rn.RealReg()), regBits(inst.Rm.RealReg())))
	case kindCSet:
		buf.Emit4(encodeCSet(inst.Is64, regBits(inst.Rd.RealReg()), inst.Cond))
	case kindCondBr:
		buf.Emit4(encodeBCond(inst.Cond, 0))
		buf.UseLabel(machinst.FixupBranch19, labels[inst.Target])
	case kindBr:
		buf.Emit4(encodeBUncond(0))
		buf.UseLabel(machinst.FixupBranch26, labels[inst.Target])
	case kindCall:
		buf.Emit4(encodeBL(0))
		buf.AddReloc(ccapi.Rel26, inst.Symbol, 0)
	case kindCallInd:
		buf.Emit4(encodeBLR(regBits(inst.Rn.RealReg())))
	case kindRet:
		buf.Emit4(encodeRET())
	default:
		panic(fmt.Sprintf("arm64: emit does not cover instruction kind %d", inst.Kind))
	}
}
