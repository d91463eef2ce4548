package ir

// Opcode identifies the operation an Instruction performs. The numbering and the
// set of opcodes intentionally track the shape of Cranelift's shared instruction
// set (see https://github.com/bytecodealliance/wasmtime/blob/main/cranelift/codegen/meta/src/shared/instructions.rs),
// since it is a well-trodden, target-independent vocabulary for an SSA mid-end.
type Opcode uint32

const (
	OpcodeInvalid Opcode = iota

	// Control flow. Exactly one of these terminates each Block.
	OpcodeJump
	OpcodeBrif // `brif c, then, then_args, else, else_args`
	OpcodeBrTable
	OpcodeReturn
	OpcodeTrap
	OpcodeTrapz // `trapz c, code`: trap if c == 0
	OpcodeTrapnz
	OpcodeReturnCall
	OpcodeReturnCallIndirect

	// Calls.
	OpcodeCall
	OpcodeCallIndirect
	OpcodeTryCall
	OpcodeFuncAddr

	// Constants.
	OpcodeIconst
	OpcodeF32const
	OpcodeF64const
	OpcodeVconst

	OpcodeNop
	OpcodeSelect

	// Comparisons.
	OpcodeIcmp
	OpcodeFcmp

	// Integer arithmetic.
	OpcodeIadd
	OpcodeIsub
	OpcodeIneg
	OpcodeImul
	OpcodeUmulhi
	OpcodeSmulhi
	OpcodeUdiv
	OpcodeSdiv
	OpcodeUrem
	OpcodeSrem
	OpcodeIaddImm
	OpcodeUaddOverflow // (sum, carry) multi-result
	OpcodeSaddOverflow

	// Bitwise / shifts.
	OpcodeBand
	OpcodeBor
	OpcodeBxor
	OpcodeBnot
	OpcodeBandNot // `band x (bnot y)`, fuse target for arm64 BIC
	OpcodeIshl
	OpcodeUshr
	OpcodeSshr
	OpcodeRotl
	OpcodeRotr
	OpcodeClz
	OpcodeCtz
	OpcodePopcnt
	OpcodeBswap

	// Floating point.
	OpcodeFadd
	OpcodeFsub
	OpcodeFmul
	OpcodeFdiv
	OpcodeFneg
	OpcodeFabs
	OpcodeFcopysign
	OpcodeFmin
	OpcodeFmax
	OpcodeSqrt
	OpcodeCeil
	OpcodeFloor
	OpcodeTrunc
	OpcodeNearest
	OpcodeFma

	// Conversions.
	OpcodeBitcast
	OpcodeIreduce
	OpcodeUextend
	OpcodeSextend
	OpcodeFpromote
	OpcodeFdemote
	OpcodeFcvtToUint
	OpcodeFcvtToSint
	OpcodeFcvtFromUint
	OpcodeFcvtFromSint

	// 128-bit integer splitting/joining.
	OpcodeIsplit
	OpcodeIconcat

	// Memory.
	OpcodeLoad
	OpcodeStore
	OpcodeUload8 // extending loads: widen after load, part of the opcode's typing rule
	OpcodeSload8
	OpcodeUload16
	OpcodeSload16
	OpcodeUload32
	OpcodeSload32
	OpcodeIstore8
	OpcodeIstore16
	OpcodeIstore32
	OpcodeStackLoad
	OpcodeStackStore
	OpcodeStackAddr
	OpcodeGlobalValue

	// Atomics.
	OpcodeAtomicRmw
	OpcodeAtomicCas
	OpcodeAtomicLoad
	OpcodeAtomicStore
	OpcodeFence

	// SIMD.
	OpcodeSplat
	OpcodeExtractlane
	OpcodeInsertlane
	OpcodeShuffle
	OpcodeVIadd
	OpcodeVIsub
	OpcodeVImul
	OpcodeVFadd
	OpcodeVFsub
	OpcodeVFmul
	OpcodeVFdiv
	OpcodeVanyTrue
	OpcodeVallTrue

	opcodeCount
)

//go:generate stringer -type=Opcode -output=opcode_string.go

var opcodeNames = [...]string{
	OpcodeInvalid: "invalid", OpcodeJump: "jump", OpcodeBrif: "brif", OpcodeBrTable: "br_table",
	OpcodeReturn: "return", OpcodeTrap: "trap", OpcodeTrapz: "trapz", OpcodeTrapnz: "trapnz",
	OpcodeReturnCall: "return_call", OpcodeReturnCallIndirect: "return_call_indirect",
	OpcodeCall: "call", OpcodeCallIndirect: "call_indirect", OpcodeTryCall: "try_call", OpcodeFuncAddr: "func_addr",
	OpcodeIconst: "iconst", OpcodeF32const: "f32const", OpcodeF64const: "f64const", OpcodeVconst: "vconst",
	OpcodeNop: "nop", OpcodeSelect: "select",
	OpcodeIcmp: "icmp", OpcodeFcmp: "fcmp",
	OpcodeIadd: "iadd", OpcodeIsub: "isub", OpcodeIneg: "ineg", OpcodeImul: "imul",
	OpcodeUmulhi: "umulhi", OpcodeSmulhi: "smulhi", OpcodeUdiv: "udiv", OpcodeSdiv: "sdiv",
	OpcodeUrem: "urem", OpcodeSrem: "srem", OpcodeIaddImm: "iadd_imm",
	OpcodeUaddOverflow: "uadd_overflow", OpcodeSaddOverflow: "sadd_overflow",
	OpcodeBand: "band", OpcodeBor: "bor", OpcodeBxor: "bxor", OpcodeBnot: "bnot", OpcodeBandNot: "band_not",
	OpcodeIshl: "ishl", OpcodeUshr: "ushr", OpcodeSshr: "sshr", OpcodeRotl: "rotl", OpcodeRotr: "rotr",
	OpcodeClz: "clz", OpcodeCtz: "ctz", OpcodePopcnt: "popcnt", OpcodeBswap: "bswap",
	OpcodeFadd: "fadd", OpcodeFsub: "fsub", OpcodeFmul: "fmul", OpcodeFdiv: "fdiv", OpcodeFneg: "fneg",
	OpcodeFabs: "fabs", OpcodeFcopysign: "fcopysign", OpcodeFmin: "fmin", OpcodeFmax: "fmax",
	OpcodeSqrt: "sqrt", OpcodeCeil: "ceil", OpcodeFloor: "floor", OpcodeTrunc: "trunc", OpcodeNearest: "nearest",
	OpcodeFma: "fma",
	OpcodeBitcast: "bitcast", OpcodeIreduce: "ireduce", OpcodeUextend: "uextend", OpcodeSextend: "sextend",
	OpcodeFpromote: "fpromote", OpcodeFdemote: "fdemote",
	OpcodeFcvtToUint: "fcvt_to_uint", OpcodeFcvtToSint: "fcvt_to_sint",
	OpcodeFcvtFromUint: "fcvt_from_uint", OpcodeFcvtFromSint: "fcvt_from_sint",
	OpcodeIsplit: "isplit", OpcodeIconcat: "iconcat",
	OpcodeLoad: "load", OpcodeStore: "store",
	OpcodeUload8: "uload8", OpcodeSload8: "sload8", OpcodeUload16: "uload16", OpcodeSload16: "sload16",
	OpcodeUload32: "uload32", OpcodeSload32: "sload32",
	OpcodeIstore8: "istore8", OpcodeIstore16: "istore16", OpcodeIstore32: "istore32",
	OpcodeStackLoad: "stack_load", OpcodeStackStore: "stack_store", OpcodeStackAddr: "stack_addr",
	OpcodeGlobalValue: "global_value",
	OpcodeAtomicRmw: "atomic_rmw", OpcodeAtomicCas: "atomic_cas", OpcodeAtomicLoad: "atomic_load",
	OpcodeAtomicStore: "atomic_store", OpcodeFence: "fence",
	OpcodeSplat: "splat", OpcodeExtractlane: "extractlane", OpcodeInsertlane: "insertlane", OpcodeShuffle: "shuffle",
	OpcodeVIadd: "vi_add", OpcodeVIsub: "vi_sub", OpcodeVImul: "vi_mul",
	OpcodeVFadd: "vf_add", OpcodeVFsub: "vf_sub", OpcodeVFmul: "vf_mul", OpcodeVFdiv: "vf_div",
	OpcodeVanyTrue: "vany_true", OpcodeVallTrue: "vall_true",
}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) && opcodeNames[o] != "" {
		return opcodeNames[o]
	}
	return "unknown_opcode"
}

// IsTerminator reports whether o must be the last instruction in its block.
func (o Opcode) IsTerminator() bool {
	switch o {
	case OpcodeJump, OpcodeBrif, OpcodeBrTable, OpcodeReturn, OpcodeTrap, OpcodeTrapz, OpcodeTrapnz,
		OpcodeReturnCall, OpcodeReturnCallIndirect:
		return true
	default:
		return false
	}
}

// SideEffecting enumerates opcodes a pure-instruction analysis (GVN, DCE seeding,
// LICM invariance) must treat as having observable effects beyond their result:
// stores, calls, traps, atomics, and all terminators.
func (o Opcode) SideEffecting() bool {
	switch o {
	case OpcodeStore, OpcodeIstore8, OpcodeIstore16, OpcodeIstore32, OpcodeStackStore,
		OpcodeCall, OpcodeCallIndirect, OpcodeTryCall, OpcodeReturnCall, OpcodeReturnCallIndirect,
		OpcodeAtomicRmw, OpcodeAtomicCas, OpcodeAtomicStore, OpcodeFence,
		OpcodeTrap, OpcodeTrapz, OpcodeTrapnz:
		return true
	default:
		return o.IsTerminator()
	}
}

// IsLoad reports whether o reads memory (plain or extending).
func (o Opcode) IsLoad() bool {
	switch o {
	case OpcodeLoad, OpcodeUload8, OpcodeSload8, OpcodeUload16, OpcodeSload16, OpcodeUload32, OpcodeSload32,
		OpcodeStackLoad, OpcodeAtomicLoad:
		return true
	default:
		return false
	}
}

// IsStore reports whether o writes memory.
func (o Opcode) IsStore() bool {
	switch o {
	case OpcodeStore, OpcodeIstore8, OpcodeIstore16, OpcodeIstore32, OpcodeStackStore, OpcodeAtomicStore:
		return true
	default:
		return false
	}
}
