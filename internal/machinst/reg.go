// Package machinst is the MachInst core: the virtual-register abstraction,
// operand-role tagging, and MachBuffer shared by every target's lowering,
// register allocator, and emitter. It is deliberately ISA-agnostic — nothing
// here knows about AArch64 or x86-64 encodings; internal/isa/<target>
// implements the per-opcode encoders that consume this package's types.
package machinst

import "math"

// RegClass partitions the physical register file into the disjoint classes
// a value's type determines it must live in.
type RegClass byte

const (
	RegClassInt RegClass = iota
	RegClassFloat
	RegClassVector
)

func (c RegClass) String() string {
	switch c {
	case RegClassInt:
		return "int"
	case RegClassFloat:
		return "float"
	case RegClassVector:
		return "vector"
	default:
		return "unknown"
	}
}

// VRegID is the pure identifier half of a VReg, assigned sequentially by the
// lowering pass as it allocates fresh virtual registers.
type VRegID uint32

const vRegIDInvalid VRegID = math.MaxUint32

// RealReg names one physical register. Its numbering and meaning are
// ISA-specific; internal/isa/<target> defines the constants.
type RealReg uint16

const realRegInvalid RealReg = math.MaxUint16

// VReg identifies a virtual register: an ID, a register class, and (once
// the allocator has run) the RealReg it was assigned. Packed into a single
// uint64 so it is cheap to copy and compare, and so instructions can carry
// VRegs inline without pointer indirection — the same shape as the
// teacher's backend.VReg, generalized with an explicit RegClass field
// (the teacher infers class from context at each use site instead).
type VReg uint64

const (
	vregIDShift   = 0
	vregClassShift = 32
	vregRealShift = 40
)

// NewVReg constructs an unassigned VReg of the given class.
func NewVReg(id VRegID, class RegClass) VReg {
	return VReg(uint64(id)<<vregIDShift | uint64(class)<<vregClassShift | uint64(realRegInvalid)<<vregRealShift)
}

func (v VReg) ID() VRegID      { return VRegID(v >> vregIDShift) }
func (v VReg) Class() RegClass { return RegClass((v >> vregClassShift) & 0xff) }
func (v VReg) RealReg() RealReg {
	return RealReg(v >> vregRealShift)
}

// Valid reports whether v has a real (non-sentinel) ID.
func (v VReg) Valid() bool { return v.ID() != vRegIDInvalid }

// Assigned reports whether the allocator has bound v to a physical register.
func (v VReg) Assigned() bool { return v.RealReg() != realRegInvalid }

// WithRealReg returns a copy of v bound to the given physical register,
// leaving its ID and class untouched.
func (v VReg) WithRealReg(r RealReg) VReg {
	return VReg(uint64(r)<<vregRealShift | uint64(v)&((1<<vregRealShift)-1))
}

var VRegInvalid = NewVReg(vRegIDInvalid, RegClassInt)

// VRegAllocator hands out fresh, sequentially-numbered VRegs during lowering.
type VRegAllocator struct {
	next VRegID
}

func (a *VRegAllocator) Alloc(class RegClass) VReg {
	id := a.next
	a.next++
	return NewVReg(id, class)
}

func (a *VRegAllocator) Count() int { return int(a.next) }
