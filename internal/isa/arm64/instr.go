package arm64

import (
	"fmt"

	"github.com/anvilcc/anvil/internal/machinst"
)

// instKind is the per-instruction tag controlling how Instruction's fields
// are interpreted, mirroring the shape (if not the exhaustive opcode list)
// of internal/engine/wazevo/backend/isa/arm64/instr.go's instructionKind.
// This subset covers the operations internal/isa/arm64's lowering driver
// currently emits; wider coverage (FPU, vector, atomics) is left for a
// follow-on pass, same as the teacher's own instr.go leaving most of its
// kinds as `panic("TODO")` in String().
type instKind uint8

const (
	kindNop instKind = iota
	kindAluRRR        // Rd = Rn <op> Rm
	kindAluRRImm12    // Rd = Rn <op> #imm12
	kindMovz          // Rd = #imm16 << (16*hw)
	kindMov           // Rd = Rn (register copy; IsCopy reports this)
	kindLoad          // Rt = [Rn, #imm]
	kindStore         // [Rn, #imm] = Rt
	kindCmpRR         // flags = Rn - Rm (subs xzr, Rn, Rm)
	kindCSet          // Rd = cond ? 1 : 0
	kindCondBr        // b.cond target
	kindBr            // b target
	kindCall          // bl symbol
	kindCallInd       // blr Rn
	kindRet           // ret

	// ABI-binding pseudo-instructions: spec.md's calling-convention rules
	// are expressed as fixed-register operand constraints rather than
	// concrete encodings, grounded on internal/abi's classify.go noting the
	// teacher's abi.go binds args/returns this way in LowerParams/lowerCall.
	kindArgBind     // Rd = value already resident in fixed register Freg at block entry; encodes to nothing
	kindRetBind     // fixed register Freg = Rn, immediately before kindRet
	kindCallArgBind // fixed register Freg = Rn, immediately before kindCall/kindCallInd

	kindArith2RRR // Rd = Rn <op2> Rm (mul/umulh/smulh/udiv/sdiv/lsl/lsr/asr)

	// kindLoadSP/kindStoreSP address relative to the live SP register
	// directly rather than through a VReg, since the value of SP changes
	// at a fixed point (the prologue's frame adjustment) that no VReg can
	// track across: every kindLoadSP/kindStoreSP lowering emits executes
	// after that adjustment has already run, so Imm is always relative to
	// the post-prologue SP. Incoming marks an instruction addressing the
	// caller's incoming stack-argument area (above this frame), whose Imm
	// a frame-building pass bumps by the final frame size once known;
	// local/spill addressing (Incoming false) needs no such fixup.
	kindLoadSP  // Rd = [sp, #Imm]
	kindStoreSP // [sp, #Imm] = Rd

	// Prologue/epilogue instructions. These name real, already-allocated
	// registers directly (Freg, plus Imm for the frame-adjust total)
	// rather than VRegs, so they carry no register-allocator
	// operands at all and are safe to splice into a VCode's instruction
	// list after Allocate/Materialize have already run.
	kindFrameAdjust  // sp = sp -/+ Imm (Grow selects direction; sub on entry, add on exit)
	kindSaveReg      // [sp, #Imm] = Freg
	kindRestoreReg   // Freg = [sp, #Imm]
	kindSetFP        // x29 = sp
)

// arith2Op selects the operation kindArith2RRR encodes: AArch64's
// data-processing (2-source) and (3-source) instruction families, grouped
// into one instKind since they share the identical Rd = Rn <op> Rm operand
// shape and differ only in which encoder emits the word.
type arith2Op byte

const (
	arith2Mul arith2Op = iota
	arith2Umulh
	arith2Smulh
	arith2Udiv
	arith2Sdiv
	arith2Lsl
	arith2Lsr
	arith2Asr
)

var arith2Mnemonics = [...]string{"mul", "umulh", "smulh", "udiv", "sdiv", "lsl", "lsr", "asr"}

// aluOp selects the operation for kindAluRRR/kindAluRRImm12.
type aluOp byte

const (
	aluAdd aluOp = iota
	aluSub
	aluAnd
	aluOrr
	aluEor
)

var aluMnemonics = [...]string{"add", "sub", "and", "orr", "eor"}

// Instruction is one AArch64 MachInst. Only the fields relevant to Kind are
// meaningful, matching the teacher's single-struct-many-kinds layout
// (u1/u2 there; named fields here, since this package's instruction set is
// fixed at compile time rather than derived from a Rust-ported opcode list).
type Instruction struct {
	Kind instKind
	Op   aluOp
	Op2  arith2Op // kindArith2RRR's operation selector

	// Rd, Rn, Rm are reused across kinds rather than named per-kind: Rd is
	// the destination for every def-producing kind and, for kindStore and
	// kindStoreSP, the value register being stored (store has no
	// destination VReg).
	Rd, Rn, Rm machinst.VReg
	Imm        int64 // immediate (imm12, imm16, load/store byte offset, frame-adjust total)
	HW         uint8 // MOVZ shift amount / 16
	Size       uint8 // load/store access size in bytes: 1, 2, 4, 8
	Is64       bool
	Incoming   bool // kindLoadSP/kindStoreSP: Imm addresses the incoming-args area, fixed up once the frame size is known
	Grow       bool // kindFrameAdjust: true shrinks sp (prologue), false grows it back (epilogue)

	Cond   cond
	Target int // target block index within the owning VCode

	Symbol string // call target symbol (kindCall)

	// Freg is a fixed real register: the ABI register for
	// kindArgBind/kindRetBind/kindCallArgBind, or the callee-saved/FP/LR
	// register a kindSaveReg/kindRestoreReg spills or restores.
	Freg machinst.RealReg
}

func (i *Instruction) Operands(dst []machinst.Operand) []machinst.Operand {
	switch i.Kind {
	case kindAluRRR, kindArith2RRR:
		return append(dst, machinst.DefOperand(i.Rd), machinst.UseOperand(i.Rn), machinst.UseOperand(i.Rm))
	case kindAluRRImm12:
		return append(dst, machinst.DefOperand(i.Rd), machinst.UseOperand(i.Rn))
	case kindMovz:
		return append(dst, machinst.DefOperand(i.Rd))
	case kindMov:
		return append(dst, machinst.DefOperand(i.Rd), machinst.UseOperand(i.Rn))
	case kindLoad:
		return append(dst, machinst.DefOperand(i.Rd), machinst.UseOperand(i.Rn))
	case kindStore:
		return append(dst, machinst.UseOperand(i.Rd), machinst.UseOperand(i.Rn))
	case kindLoadSP:
		return append(dst, machinst.DefOperand(i.Rd))
	case kindStoreSP:
		return append(dst, machinst.UseOperand(i.Rd))
	case kindCmpRR:
		return append(dst, machinst.UseOperand(i.Rn), machinst.UseOperand(i.Rm))
	case kindCSet:
		return append(dst, machinst.DefOperand(i.Rd))
	case kindCallInd:
		return append(dst, machinst.UseOperand(i.Rn))
	case kindArgBind:
		return append(dst, machinst.FixedDefOperand(i.Rd, i.Freg))
	case kindRetBind, kindCallArgBind:
		return append(dst, machinst.FixedUseOperand(i.Rn, i.Freg))
	default: // kindNop, kindCondBr, kindBr, kindCall, kindRet, kindFrameAdjust, kindSaveReg, kindRestoreReg, kindSetFP: no VReg operands
		return dst
	}
}

// operandFields returns pointers to this instruction's VReg fields, in the
// same order Operands walks them, so AssignReal can rewrite the one the
// allocator names without a kind-specific switch duplicated a second time.
func (i *Instruction) operandFields() []*machinst.VReg {
	switch i.Kind {
	case kindAluRRR, kindArith2RRR:
		return []*machinst.VReg{&i.Rd, &i.Rn, &i.Rm}
	case kindAluRRImm12, kindMov, kindLoad:
		return []*machinst.VReg{&i.Rd, &i.Rn}
	case kindStore:
		return []*machinst.VReg{&i.Rd, &i.Rn}
	case kindLoadSP, kindStoreSP:
		return []*machinst.VReg{&i.Rd}
	case kindCmpRR:
		return []*machinst.VReg{&i.Rn, &i.Rm}
	case kindMovz, kindCSet:
		return []*machinst.VReg{&i.Rd}
	case kindCallInd:
		return []*machinst.VReg{&i.Rn}
	case kindArgBind:
		return []*machinst.VReg{&i.Rd}
	case kindRetBind, kindCallArgBind:
		return []*machinst.VReg{&i.Rn}
	default:
		return nil
	}
}

func (i *Instruction) AssignReal(index int, real machinst.RealReg) {
	fields := i.operandFields()
	*fields[index] = fields[index].WithRealReg(real)
}

func (i *Instruction) IsCopy() (src, dst machinst.VReg, ok bool) {
	if i.Kind == kindMov {
		return i.Rn, i.Rd, true
	}
	return 0, 0, false
}

func (i *Instruction) IsCall() bool         { return i.Kind == kindCall || i.Kind == kindCallInd }
func (i *Instruction) IsIndirectCall() bool { return i.Kind == kindCallInd }
func (i *Instruction) IsReturn() bool       { return i.Kind == kindRet }
func (i *Instruction) IsTerminator() bool {
	switch i.Kind {
	case kindBr, kindCondBr, kindRet:
		return true
	default:
		return false
	}
}

func (i *Instruction) String() string {
	switch i.Kind {
	case kindNop:
		return "nop"
	case kindAluRRR:
		return fmt.Sprintf("%s %s, %s, %s", aluMnemonics[i.Op], regName(i.Rd.RealReg()), regName(i.Rn.RealReg()), regName(i.Rm.RealReg()))
	case kindAluRRImm12:
		return fmt.Sprintf("%s %s, %s, #%d", aluMnemonics[i.Op], regName(i.Rd.RealReg()), regName(i.Rn.RealReg()), i.Imm)
	case kindMovz:
		return fmt.Sprintf("movz %s, #%d, lsl #%d", regName(i.Rd.RealReg()), i.Imm, i.HW*16)
	case kindMov:
		return fmt.Sprintf("mov %s, %s", regName(i.Rd.RealReg()), regName(i.Rn.RealReg()))
	case kindLoad:
		return fmt.Sprintf("ldr %s, [%s, #%d]", regName(i.Rd.RealReg()), regName(i.Rn.RealReg()), i.Imm)
	case kindStore:
		return fmt.Sprintf("str %s, [%s, #%d]", regName(i.Rd.RealReg()), regName(i.Rn.RealReg()), i.Imm)
	case kindCmpRR:
		return fmt.Sprintf("cmp %s, %s", regName(i.Rn.RealReg()), regName(i.Rm.RealReg()))
	case kindCSet:
		return fmt.Sprintf("cset %s, %s", regName(i.Rd.RealReg()), i.Cond)
	case kindCondBr:
		return fmt.Sprintf("b.%s block%d", i.Cond, i.Target)
	case kindBr:
		return fmt.Sprintf("b block%d", i.Target)
	case kindCall:
		return fmt.Sprintf("bl %s", i.Symbol)
	case kindCallInd:
		return fmt.Sprintf("blr %s", regName(i.Rn.RealReg()))
	case kindRet:
		return "ret"
	case kindArgBind:
		return fmt.Sprintf("%s = argbind %s", regName(i.Rd.RealReg()), regName(i.Freg))
	case kindRetBind:
		return fmt.Sprintf("%s = retbind %s", regName(i.Freg), regName(i.Rn.RealReg()))
	case kindCallArgBind:
		return fmt.Sprintf("%s = callargbind %s", regName(i.Freg), regName(i.Rn.RealReg()))
	case kindArith2RRR:
		return fmt.Sprintf("%s %s, %s, %s", arith2Mnemonics[i.Op2], regName(i.Rd.RealReg()), regName(i.Rn.RealReg()), regName(i.Rm.RealReg()))
	case kindLoadSP:
		return fmt.Sprintf("ldr %s, [sp, #%d]", regName(i.Rd.RealReg()), i.Imm)
	case kindStoreSP:
		return fmt.Sprintf("str %s, [sp, #%d]", regName(i.Rd.RealReg()), i.Imm)
	case kindFrameAdjust:
		if i.Grow {
			return fmt.Sprintf("sub sp, sp, #%d", i.Imm)
		}
		return fmt.Sprintf("add sp, sp, #%d", i.Imm)
	case kindSaveReg:
		return fmt.Sprintf("str %s, [sp, #%d]", regName(i.Freg), i.Imm)
	case kindRestoreReg:
		return fmt.Sprintf("ldr %s, [sp, #%d]", regName(i.Freg), i.Imm)
	case kindSetFP:
		return "mov x29, sp"
	default:
		return "?"
	}
}
