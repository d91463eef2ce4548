package ccapi

import "github.com/anvilcc/anvil/internal/ir"

// RelocKind names one of the relocation shapes the AArch64 emitter can
// produce. Each corresponds to an instruction encoding or pair of encodings
// whose immediate field(s) depend on a symbol address not known until link
// or load time.
type RelocKind byte

const (
	Rel26 RelocKind = iota // AArch64 B/BL, ±128 MB
	AdrpPage21
	AddLo12
	LdLo12
	Abs64
	GotPage21
	GotLo12
	TlsDescAdrPage21
	TlsDescLdLo12
	TlsDescAddLo12
	TlsDescCall
)

// RelocRecord is one fixup the emitter could not resolve internally: the
// byte offset into the code buffer, the relocation shape, the symbol it
// refers to, and an addend applied at link time.
type RelocRecord struct {
	OffsetInCode uint32
	Kind         RelocKind
	Symbol       string
	Addend       int64
}

// TrapRecord maps a code offset to the reason a trap there would fire,
// letting a runtime translate a faulting PC back to a trap code without
// decoding the instruction.
type TrapRecord struct {
	OffsetInCode uint32
	Code         ir.TrapCode
}

// StackMap records, for one call-site PC, which stack slots held live
// reference-typed values at that point, for a caller with a precise GC.
type StackMap struct {
	OffsetInCode uint32
	SlotOffsets  []int32
}

// LandingPad is one row of a function's LSDA (Language-Specific Data Area):
// the PC range of a call site and the PC to resume at if that call raises.
// A zero LandingPadPC means the call site has no handler.
type LandingPad struct {
	BeginPC      uint32
	Length       uint32
	LandingPadPC uint32
	ActionOffset uint32
}

// CompiledCode is the artifact Context.compile produces for one Function:
// the encoded bytes plus every piece of metadata a linker or JIT loader
// needs to place and later unwind through that code.
type CompiledCode struct {
	Code            []byte
	Relocations     []RelocRecord
	Traps           []TrapRecord
	StackMaps       []StackMap
	LandingPads     []LandingPad
	UnwindInfo      []byte
	StackFrameSize  uint32
}
