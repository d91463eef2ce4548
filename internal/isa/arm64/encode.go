package arm64

// Bit-field encoders for the AArch64 instruction subset instr.go's kinds
// cover. Layouts follow the Arm Architecture Reference Manual's A64
// encoding tables; grounded on the teacher's instr.go acknowledging the
// same source material (its header credits wasmtime/cranelift's aarch64
// backend for the instructionKind catalog this package's smaller kind set
// is drawn from).

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// encodeAluRRR encodes ADD/SUB/AND/ORR/EOR (shifted register, no shift
// applied) Rd, Rn, Rm.
func encodeAluRRR(op aluOp, is64 bool, rd, rn, rm uint32) uint32 {
	sf := boolBit(is64)
	switch op {
	case aluAdd:
		return sf<<31 | 0<<30 | 0<<29 | 0b01011<<24 | rm<<16 | rn<<5 | rd
	case aluSub:
		return sf<<31 | 1<<30 | 0<<29 | 0b01011<<24 | rm<<16 | rn<<5 | rd
	case aluAnd:
		return sf<<31 | 0b00<<29 | 0b01010<<24 | rm<<16 | rn<<5 | rd
	case aluOrr:
		return sf<<31 | 0b01<<29 | 0b01010<<24 | rm<<16 | rn<<5 | rd
	case aluEor:
		return sf<<31 | 0b10<<29 | 0b01010<<24 | rm<<16 | rn<<5 | rd
	default:
		panic("unknown aluOp")
	}
}

// encodeAluRRImm12 encodes ADD/SUB (immediate) Rd, Rn, #imm12.
func encodeAluRRImm12(op aluOp, is64 bool, rd, rn uint32, imm12 uint32) uint32 {
	return encodeAluRRImm12Sh(op, is64, rd, rn, imm12, false)
}

// encodeAluRRImm12Sh encodes ADD/SUB (immediate) Rd, Rn, #imm12{, LSL #12}.
// shift12 sets bit 22, the architecture's "sh" field selecting whether
// imm12 is pre-shifted left by 12 before being added/subtracted — used by
// frame-size adjustments too large for the bare 12-bit field (up to
// 4095*4096 bytes across the shifted and unshifted halves combined).
func encodeAluRRImm12Sh(op aluOp, is64 bool, rd, rn uint32, imm12 uint32, shift12 bool) uint32 {
	sf := boolBit(is64)
	var opBit uint32
	if op == aluSub {
		opBit = 1
	}
	return sf<<31 | opBit<<30 | 0<<29 | 0b100010<<23 | boolBit(shift12)<<22 | (imm12&0xfff)<<10 | rn<<5 | rd
}

// encodeMovz encodes MOVZ Rd, #imm16, LSL #(hw*16).
func encodeMovz(is64 bool, rd uint32, imm16 uint16, hw uint8) uint32 {
	sf := boolBit(is64)
	return sf<<31 | 0b10<<29 | 0b100101<<23 | uint32(hw&0b11)<<21 | uint32(imm16)<<5 | rd
}

// encodeMovReg encodes MOV Rd, Rn as its canonical ORR Rd, ZR, Rn alias.
func encodeMovReg(is64 bool, rd, rn uint32) uint32 {
	zr := uint32(31)
	return encodeAluRRR(aluOrr, is64, rd, zr, rn)
}

// encodeLoadStoreUnsignedImm encodes LDR/STR (unsigned immediate offset),
// imm scaled by size per the architecture's pos-imm12 addressing mode.
func encodeLoadStoreUnsignedImm(size uint8, isLoad bool, rt, rn uint32, byteOffset int64) uint32 {
	var sizeBits uint32
	switch size {
	case 1:
		sizeBits = 0b00
	case 2:
		sizeBits = 0b01
	case 4:
		sizeBits = 0b10
	case 8:
		sizeBits = 0b11
	default:
		panic("unsupported load/store size")
	}
	opc := uint32(0b00)
	if isLoad {
		opc = 0b01
	}
	scaledImm := uint32(byteOffset) / uint32(size)
	return sizeBits<<30 | 0b111<<27 | 0b01<<24 | opc<<22 | (scaledImm&0xfff)<<10 | rn<<5 | rt
}

// encodeBUncond encodes an unconditional B with a word-aligned byte offset.
func encodeBUncond(byteOffset int32) uint32 {
	imm26 := uint32(byteOffset/4) & 0x3ffffff
	return 0b000101<<26 | imm26
}

// encodeBCond encodes B.cond with a word-aligned byte offset.
func encodeBCond(c cond, byteOffset int32) uint32 {
	imm19 := uint32(byteOffset/4) & 0x7ffff
	return 0b01010100<<24 | imm19<<5 | uint32(c)
}

// encodeBL encodes BL with a word-aligned byte offset.
func encodeBL(byteOffset int32) uint32 {
	imm26 := uint32(byteOffset/4) & 0x3ffffff
	return 0b100101<<26 | imm26
}

// encodeBLR encodes BLR Rn (indirect call).
func encodeBLR(rn uint32) uint32 {
	return 0b1101011<<25 | 0b0001<<21 | 0b11111<<16 | rn<<5
}

// encodeRET encodes RET X30, the only return form this backend emits.
func encodeRET() uint32 {
	const x30 = 30
	return 0b1101011<<25 | 0b0010<<21 | 0b11111<<16 | x30<<5
}

// encodeCSet encodes CSET Rd, cond as its canonical CSINC Rd, ZR, ZR, invert(cond) alias.
func encodeCSet(is64 bool, rd uint32, c cond) uint32 {
	sf := boolBit(is64)
	zr := uint32(31)
	inv := uint32(c.invert())
	return sf<<31 | 0b0<<30 | 0<<29 | 0b11010100<<21 | zr<<16 | inv<<12 | 0b01<<10 | zr<<5 | rd
}

// encodeSubsRR encodes SUBS XZR, Rn, Rm (a register compare).
func encodeSubsRR(is64 bool, rn, rm uint32) uint32 {
	sf := boolBit(is64)
	zr := uint32(31)
	return sf<<31 | 1<<30 | 1<<29 | 0b01011<<24 | rm<<16 | rn<<5 | zr
}

// encodeDP2 encodes the data-processing (2-source) family: UDIV/SDIV/
// LSLV/LSRV/ASRV Rd, Rn, Rm. opcode6 selects the operation per the
// architecture's Data-processing (2 source) encoding table.
func encodeDP2(is64 bool, opcode6 uint32, rd, rn, rm uint32) uint32 {
	sf := boolBit(is64)
	return sf<<31 | 0<<29 | 0b11010110<<21 | rm<<16 | (opcode6&0x3f)<<10 | rn<<5 | rd
}

// encodeDP3 encodes the data-processing (3-source) family: MADD/MSUB and
// the UMULH/SMULH/UMADDL/SMADDL group, Rd = Rn*Rm (+/- Ra) or Rd = high
// bits of Rn*Rm. op31/o0 select the operation, ra the accumulator operand
// (the zero register for a plain multiply or the *ULH forms, which ignore
// Ra at the architectural level but still encode it as 31).
func encodeDP3(is64 bool, op31 uint32, o0 uint32, rd, rn, ra, rm uint32) uint32 {
	sf := boolBit(is64)
	return sf<<31 | 0b0<<30 | 0<<29 | 0b11011<<24 | (op31&0x7)<<21 | rm<<16 | (o0&1)<<15 | ra<<10 | rn<<5 | rd
}

func encodeMul(is64 bool, rd, rn, rm uint32) uint32 {
	zr := uint32(31)
	return encodeDP3(is64, 0b000, 0, rd, rn, zr, rm)
}

// encodeUmulh/encodeSmulh always encode the 64-bit form: UMULH/SMULH only
// exist computing the high 64 bits of a 64x64 multiply, with no 32-bit
// variant in the architecture.
func encodeUmulh(rd, rn, rm uint32) uint32 {
	zr := uint32(31)
	return encodeDP3(true, 0b110, 0, rd, rn, zr, rm)
}

func encodeSmulh(rd, rn, rm uint32) uint32 {
	zr := uint32(31)
	return encodeDP3(true, 0b010, 0, rd, rn, zr, rm)
}

func encodeUdiv(is64 bool, rd, rn, rm uint32) uint32 { return encodeDP2(is64, 0b000010, rd, rn, rm) }
func encodeSdiv(is64 bool, rd, rn, rm uint32) uint32 { return encodeDP2(is64, 0b000011, rd, rn, rm) }
func encodeLslv(is64 bool, rd, rn, rm uint32) uint32 { return encodeDP2(is64, 0b001000, rd, rn, rm) }
func encodeLsrv(is64 bool, rd, rn, rm uint32) uint32 { return encodeDP2(is64, 0b001001, rd, rn, rm) }
func encodeAsrv(is64 bool, rd, rn, rm uint32) uint32 { return encodeDP2(is64, 0b001010, rd, rn, rm) }

// encodeArith2 dispatches kindArith2RRR's Op2 to its encoder.
func encodeArith2(op arith2Op, is64 bool, rd, rn, rm uint32) uint32 {
	switch op {
	case arith2Mul:
		return encodeMul(is64, rd, rn, rm)
	case arith2Umulh:
		return encodeUmulh(rd, rn, rm)
	case arith2Smulh:
		return encodeSmulh(rd, rn, rm)
	case arith2Udiv:
		return encodeUdiv(is64, rd, rn, rm)
	case arith2Sdiv:
		return encodeSdiv(is64, rd, rn, rm)
	case arith2Lsl:
		return encodeLslv(is64, rd, rn, rm)
	case arith2Lsr:
		return encodeLsrv(is64, rd, rn, rm)
	case arith2Asr:
		return encodeAsrv(is64, rd, rn, rm)
	default:
		panic("unknown arith2Op")
	}
}

// encodeFrameAdjust encodes a frame-size SP adjustment as one or two
// ADD/SUB (immediate) words: total's low 12 bits via the plain immediate
// form, and (if total exceeds 4095) its remaining high bits via the LSL
// #12 form, avoiding any need for a scratch register since both operands
// of ADD/SUB (immediate) may be SP. grow selects SUB (prologue, shrinking
// SP) vs ADD (epilogue, restoring it).
func encodeFrameAdjust(grow bool, total int64) []uint32 {
	op := aluAdd
	if grow {
		op = aluSub
	}
	sp := uint32(RegSP)
	lo := uint32(total) & 0xfff
	hi := uint32(total>>12) & 0xfff
	if hi == 0 {
		return []uint32{encodeAluRRImm12Sh(op, true, sp, sp, lo, false)}
	}
	if lo == 0 {
		return []uint32{encodeAluRRImm12Sh(op, true, sp, sp, hi, true)}
	}
	return []uint32{
		encodeAluRRImm12Sh(op, true, sp, sp, hi, true),
		encodeAluRRImm12Sh(op, true, sp, sp, lo, false),
	}
}
