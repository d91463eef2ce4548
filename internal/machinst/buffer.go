package machinst

import (
	"math"

	"github.com/anvilcc/anvil/internal/ccapi"
	"github.com/anvilcc/anvil/internal/ir"
)

// Label is an opaque reference to a not-yet-bound code offset: a block
// entry, a constant island, or any other forward-reference target the
// emitter needs to patch once its address is known.
type Label uint32

const LabelInvalid Label = math.MaxUint32

// FixupKind names what a pending fixup's encoded bytes mean and therefore
// how to rewrite them once the label resolves.
type FixupKind byte

const (
	// FixupBranch26 is an AArch64 unconditional B/BL, ±128 MB range,
	// 26-bit signed word-offset immediate.
	FixupBranch26 FixupKind = iota
	// FixupBranch19 is an AArch64 conditional/CBZ-style branch, ±1 MB
	// range, 19-bit signed word-offset immediate.
	FixupBranch19
	// FixupPCRelLoad21 is an AArch64 ADR/LDR-literal, ±1 MB range.
	FixupPCRelLoad21
	// FixupAdrp21 is an AArch64 ADRP, ±4 GB page range.
	FixupAdrp21
)

// Fixup is one pending patch: the buffer offset of the encoded instruction
// that needs rewriting, which label it refers to, and how to rewrite it.
// Exported so internal/isa/<target> can resolve fixups with its own
// ISA-specific immediate-encoding logic at Finish time.
type Fixup struct {
	Offset uint32
	Label  Label
	Kind   FixupKind
}

// island is a literal constant pending emission at the next safe point
// (spec.md §4.7's "Constant islands").
type island struct {
	label Label
	bytes []byte
}

// MachBuffer owns the growing byte stream the emitter writes into, plus
// every piece of deferred bookkeeping spec.md §4.7 names: a label→offset
// map, a pending-fixup list, a trap-record list, a relocation list, and a
// pending-constant-island list. Grounded on the teacher's
// backend/isa/arm64 MachBuffer-equivalent (wazero's own buffer type lives
// in its assembler package, not retrieved in this pack's snapshot; the
// structure here follows spec.md §4.7 directly, which names every field
// this type carries).
type MachBuffer struct {
	Bytes []byte

	labelOffsets []uint32 // index by Label; math.MaxUint32 until bound
	pending      []Fixup
	islands      []island
	traps        []ccapi.TrapRecord
	relocs       []ccapi.RelocRecord
}

func NewMachBuffer() *MachBuffer {
	return &MachBuffer{}
}

// NewLabel allocates a fresh, as-yet-unbound label.
func (b *MachBuffer) NewLabel() Label {
	b.labelOffsets = append(b.labelOffsets, math.MaxUint32)
	return Label(len(b.labelOffsets) - 1)
}

// BindLabel records that l resolves to the buffer's current offset. Any
// fixup already issued against l is left in the pending list and patched
// at Finish, which resolves every fixup in one pass once all labels are
// bound.
func (b *MachBuffer) BindLabel(l Label) {
	b.labelOffsets[l] = uint32(len(b.Bytes))
}

// CurrentOffset returns the buffer's current write position.
func (b *MachBuffer) CurrentOffset() uint32 { return uint32(len(b.Bytes)) }

// Emit4 appends one 4-byte (AArch64-width) instruction encoding.
func (b *MachBuffer) Emit4(word uint32) {
	b.Bytes = append(b.Bytes, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
}

// EmitBytes appends raw bytes; FlushIslands uses it for constant-island
// payloads.
func (b *MachBuffer) EmitBytes(bs []byte) { b.Bytes = append(b.Bytes, bs...) }

// UseLabel records a fixup at the instruction just emitted (4 bytes back,
// the AArch64 case) referring to l, resolved at Finish.
func (b *MachBuffer) UseLabel(kind FixupKind, l Label) {
	b.pending = append(b.pending, Fixup{Offset: b.CurrentOffset() - 4, Label: l, Kind: kind})
}

// AddIsland schedules bytes to be emitted, labeled l, at the next call to
// FlushIslands. The arm64 emitter does not call FlushIslands; islands are
// emitted only where a caller flushes them explicitly.
func (b *MachBuffer) AddIsland(l Label, bytes []byte) {
	b.islands = append(b.islands, island{label: l, bytes: bytes})
}

// FlushIslands emits every pending island at the current offset, preceded
// by an unconditional branch over them if flow falls through to this
// point (emitBranchOver is supplied by the caller since the branch
// encoding is ISA-specific).
func (b *MachBuffer) FlushIslands(emitBranchOver func(byteLen int)) {
	if len(b.islands) == 0 {
		return
	}
	total := 0
	for _, isl := range b.islands {
		total += len(isl.bytes)
	}
	if emitBranchOver != nil {
		emitBranchOver(total)
	}
	for _, isl := range b.islands {
		b.BindLabel(isl.label)
		b.EmitBytes(isl.bytes)
	}
	b.islands = nil
}

// AddTrap records that a fault at the buffer's current offset corresponds
// to the given trap code.
func (b *MachBuffer) AddTrap(code ir.TrapCode) {
	b.traps = append(b.traps, ccapi.TrapRecord{OffsetInCode: b.CurrentOffset(), Code: code})
}

// AddReloc records a relocation the linker/loader must resolve.
func (b *MachBuffer) AddReloc(kind ccapi.RelocKind, symbol string, addend int64) {
	b.relocs = append(b.relocs, ccapi.RelocRecord{OffsetInCode: b.CurrentOffset(), Kind: kind, Symbol: symbol, Addend: addend})
}

// Patch4 rewrites 4 bytes at offset in place — used by Finish's fixup
// resolvers.
func (b *MachBuffer) Patch4(offset uint32, word uint32) {
	b.Bytes[offset] = byte(word)
	b.Bytes[offset+1] = byte(word >> 8)
	b.Bytes[offset+2] = byte(word >> 16)
	b.Bytes[offset+3] = byte(word >> 24)
}

// Read4 reads the 4 bytes at offset as a little-endian word, for fixup
// resolvers that need to patch only an immediate field within an
// already-encoded instruction.
func (b *MachBuffer) Read4(offset uint32) uint32 {
	return uint32(b.Bytes[offset]) | uint32(b.Bytes[offset+1])<<8 |
		uint32(b.Bytes[offset+2])<<16 | uint32(b.Bytes[offset+3])<<24
}

// Pending returns the still-unresolved fixups, for Finish-time resolution.
// Returned as a copy so callers can't mutate the buffer's bookkeeping
// directly; resolved fixups are dropped via ClearPending once patched.
func (b *MachBuffer) Pending() []Fixup { return append([]Fixup(nil), b.pending...) }

// LabelOffset returns l's bound offset. ok is false if l hasn't been bound.
func (b *MachBuffer) LabelOffset(l Label) (uint32, bool) {
	off := b.labelOffsets[l]
	return off, off != math.MaxUint32
}

// ClearPending drops every pending fixup; Finish calls it once after its
// single resolution pass has patched them all.
func (b *MachBuffer) ClearPending() { b.pending = nil }

// Traps and Relocs return the accumulated records for CompiledCode assembly.
func (b *MachBuffer) Traps() []ccapi.TrapRecord     { return b.traps }
func (b *MachBuffer) Relocs() []ccapi.RelocRecord   { return b.relocs }
