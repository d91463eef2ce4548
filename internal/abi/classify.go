// Package abi classifies function signatures into concrete argument and
// return locations per calling convention, and computes stack frame layout.
// It is target-independent in shape (spec.md §4.6's rules are written
// generically) but its register sets are AArch64's AAPCS64 register file;
// an x86-64 follow-on adds a parallel register table under the same types.
package abi

import (
	"github.com/anvilcc/anvil/internal/ir"
	"github.com/anvilcc/anvil/internal/machinst"
)

// ArgKind says whether a classified argument or return value lives in a
// register or on the stack.
type ArgKind byte

const (
	ArgKindReg ArgKind = iota
	ArgKindStack
)

// ArgLoc is one argument or return value's classified location.
type ArgLoc struct {
	Kind   ArgKind
	Reg    machinst.RealReg
	Type   ir.Type
	Offset int64 // byte offset into the arg/result stack area, if Kind == ArgKindStack
}

// FunctionABI is the fully classified calling-convention view of one
// signature: per-argument and per-return locations plus the aggregate
// stack space they require. Grounded on
// internal/engine/wazevo/backend/isa/arm64/abi.go's ABIArgKindReg /
// ABIArgKindStack split and its caller/callee argument-marshaling use of
// that classification (LowerParams/LowerReturns/lowerCall in that file).
type FunctionABI struct {
	CallConv     ir.CallConv
	Args         []ArgLoc
	Rets         []ArgLoc
	ArgStackSize int64
	RetStackSize int64
}

// AlignedArgResultStackSlotSize rounds the combined argument+return stack
// area up to a 16-byte boundary, matching AAPCS64's stack-alignment rule
// (spec.md §4.6's frame layout: "Total frame size rounded up to 16 bytes").
func (a *FunctionABI) AlignedArgResultStackSlotSize() int64 {
	total := a.ArgStackSize + a.RetStackSize
	return (total + 15) &^ 15
}

// classifier accumulates register/stack assignment state while walking a
// signature's parameter or return list in order.
type classifier struct {
	intRegs, floatRegs []machinst.RealReg
	intUsed, floatUsed int
	stackOffset        int64
}

func newClassifier(conv ir.CallConv) *classifier {
	intRegs, floatRegs := paramResultRegs(conv)
	return &classifier{intRegs: intRegs, floatRegs: floatRegs}
}

// classifyOne assigns loc for one scalar-typed value. HFA/HVA aggregates
// are classified by ClassifyHFA instead; passing their fields through here
// one at a time could split them between registers and the stack.
func (c *classifier) classifyOne(t ir.Type) ArgLoc {
	if t.IsFloat() || t.IsVector() {
		if c.floatUsed < len(c.floatRegs) {
			r := c.floatRegs[c.floatUsed]
			c.floatUsed++
			return ArgLoc{Kind: ArgKindReg, Reg: r, Type: t}
		}
	} else {
		if c.intUsed < len(c.intRegs) {
			r := c.intRegs[c.intUsed]
			c.intUsed++
			return ArgLoc{Kind: ArgKindReg, Reg: r, Type: t}
		}
	}
	// Stack args are 16-byte-slot aligned per value per AAPCS64 (spec.md
	// §4.6: "with overflow to the stack (16-byte aligned)").
	off := c.stackOffset
	c.stackOffset += 16
	return ArgLoc{Kind: ArgKindStack, Type: t, Offset: off}
}

// Classify computes a FunctionABI for sig under conv, per spec.md §4.6's
// classification rules. HFA/HVA aggregates are not expressed in this IR's
// Signature directly (it has no aggregate Type); callers that need HFA
// passing construct the per-field Type list themselves and call
// ClassifyHFA first to determine whether the whole group fits in
// registers before falling back to Classify's one-value-at-a-time rule.
func Classify(sig ir.Signature) *FunctionABI {
	a := &FunctionABI{CallConv: sig.CallConv}

	argC := newClassifier(sig.CallConv)
	for _, t := range sig.Params {
		a.Args = append(a.Args, argC.classifyOne(t))
	}
	a.ArgStackSize = argC.stackOffset

	retC := newClassifier(sig.CallConv)
	// Large aggregate returns (more than the convention's direct-return
	// register budget) are classified as indirect: the caller passes a
	// buffer address in X8 and the callee writes through it. This IR
	// represents that as a Signature whose results exceed the
	// convention's register budget; Classify falls back to the X8
	// indirect-return convention in that case (spec.md §4.6: "large
	// aggregates via caller-provided buffer addressed through X8").
	if indirectReturnRequired(sig.CallConv, sig.Results) {
		a.Rets = append(a.Rets, ArgLoc{Kind: ArgKindReg, Reg: regX8(), Type: ir.TypeI64})
		for _, t := range sig.Results {
			a.Rets = append(a.Rets, retC.classifyOne(t))
		}
	} else {
		for _, t := range sig.Results {
			a.Rets = append(a.Rets, retC.classifyOne(t))
		}
	}
	a.RetStackSize = retC.stackOffset
	return a
}

// indirectReturnRequired reports whether sig's results need the X8
// indirect-return convention: more int results than integer return
// registers, or more float results than float return registers — spec.md
// §4.6's "large aggregates via caller-provided buffer" case, approximated
// here at the per-result-count granularity this IR's flat result list
// supports (it has no aggregate/struct Type to size more precisely).
func indirectReturnRequired(conv ir.CallConv, results []ir.Type) bool {
	intRegs, floatRegs := paramResultRegs(conv)
	var ints, floats int
	for _, t := range results {
		if t.IsFloat() || t.IsVector() {
			floats++
		} else {
			ints++
		}
	}
	return ints > len(intRegs) || floats > len(floatRegs)
}
