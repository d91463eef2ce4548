package opt

import "github.com/anvilcc/anvil/internal/ir"

// InstCombine is the peephole/strength-reduction pass: algebraic identities,
// constant folding left over from instructions SCCP didn't reach (operands
// proven constant only after an earlier fixedpoint-set pass ran), and
// replacing division by a compile-time constant with a multiply-and-shift
// sequence so the backend never has to emit a division instruction for it.
// Of the remainder forms, only unsigned remainder by a power of two is
// rewritten.
func InstCombine(f *ir.Function) bool {
	changed := false
	for _, blk := range f.Layout.Blocks() {
		for _, inst := range f.Layout.BlockInsts(blk) {
			data := f.DFG.Inst(inst)
			if combineOne(f, inst, data) {
				changed = true
			}
		}
	}
	return changed
}

func combineOne(f *ir.Function, inst ir.Inst, data *ir.Instruction) bool {
	resolve := func(v ir.Value) ir.Value { return f.DFG.ResolveAlias(v) }
	constOf := func(v ir.Value) (int64, bool) {
		v = resolve(v)
		def := f.DFG.ValueDefinition(v)
		if def.Kind != "result" {
			return 0, false
		}
		d := f.DFG.Inst(def.Inst)
		if d.Opcode != ir.OpcodeIconst {
			return 0, false
		}
		return d.Imm64, true
	}
	aliasResult := func(to ir.Value) bool {
		f.DFG.ReplaceWithAlias(data.Result0(), to)
		return true
	}

	switch data.Opcode {
	case ir.OpcodeIadd:
		x, y := resolve(data.Args[0]), resolve(data.Args[1])
		if k, ok := constOf(y); ok && k == 0 {
			return aliasResult(x)
		}
		if k, ok := constOf(x); ok && k == 0 {
			return aliasResult(y)
		}
	case ir.OpcodeIsub:
		x, y := resolve(data.Args[0]), resolve(data.Args[1])
		if k, ok := constOf(y); ok && k == 0 {
			return aliasResult(x)
		}
		if x == y {
			f.Retype(inst, ir.OpcodeIconst)
			data.Imm64 = 0
			return true
		}
	case ir.OpcodeImul:
		x, y := resolve(data.Args[0]), resolve(data.Args[1])
		if k, ok := constOf(y); ok {
			switch {
			case k == 0:
				f.Retype(inst, ir.OpcodeIconst)
				data.Imm64 = 0
				return true
			case k == 1:
				return aliasResult(x)
			case isPowerOfTwo(k):
				f.Retype(inst, ir.OpcodeIshl, x, constValue(f, inst, data.Type, log2(k)))
				return true
			}
		}
		if k, ok := constOf(x); ok && k == 1 {
			return aliasResult(y)
		}
	case ir.OpcodeUdiv:
		y := resolve(data.Args[1])
		if k, ok := constOf(y); ok && k > 0 {
			if isPowerOfTwo(k) {
				f.Retype(inst, ir.OpcodeUshr, resolve(data.Args[0]), constValue(f, inst, data.Type, log2(k)))
				return true
			}
			return combineUdivMagic(f, inst, data, uint64(k))
		}
	case ir.OpcodeUrem:
		y := resolve(data.Args[1])
		if k, ok := constOf(y); ok && k > 0 && isPowerOfTwo(k) {
			f.Retype(inst, ir.OpcodeBand, resolve(data.Args[0]), constValue(f, inst, data.Type, k-1))
			return true
		}
	case ir.OpcodeSdiv:
		y := resolve(data.Args[1])
		if k, ok := constOf(y); ok && k != 0 && k != 1 && k != -1 {
			return combineSdivMagic(f, inst, data, k)
		}
	case ir.OpcodeBand:
		x, y := resolve(data.Args[0]), resolve(data.Args[1])
		if x == y {
			return aliasResult(x)
		}
		if k, ok := constOf(y); ok && k == 0 {
			f.Retype(inst, ir.OpcodeIconst)
			data.Imm64 = 0
			return true
		}
	case ir.OpcodeBor:
		x, y := resolve(data.Args[0]), resolve(data.Args[1])
		if x == y {
			return aliasResult(x)
		}
		if k, ok := constOf(y); ok && k == 0 {
			return aliasResult(x)
		}
	case ir.OpcodeBxor:
		x, y := resolve(data.Args[0]), resolve(data.Args[1])
		if x == y {
			f.Retype(inst, ir.OpcodeIconst)
			data.Imm64 = 0
			return true
		}
		if k, ok := constOf(y); ok && k == 0 {
			return aliasResult(x)
		}
	case ir.OpcodeIshl, ir.OpcodeUshr, ir.OpcodeSshr:
		if k, ok := constOf(data.Args[1]); ok && k == 0 {
			return aliasResult(resolve(data.Args[0]))
		}
	case ir.OpcodeSelect:
		x, y := resolve(data.Args[1]), resolve(data.Args[2])
		if x == y {
			return aliasResult(x)
		}
	}
	return false
}

func isPowerOfTwo(k int64) bool { return k > 0 && k&(k-1) == 0 }

func log2(k int64) int64 {
	n := int64(0)
	for k > 1 {
		k >>= 1
		n++
	}
	return n
}

// constValue materializes an iconst of typ/imm immediately before inst and
// returns its result, for strength-reduction rewrites that need a fresh shift
// or mask amount that didn't previously exist in the function.
func constValue(f *ir.Function, before ir.Inst, typ ir.Type, imm int64) ir.Value {
	_, v := f.InsertBefore(before, ir.OpcodeIconst, typ)
	def := f.DFG.ValueDefinition(v)
	f.DFG.Inst(def.Inst).Imm64 = imm
	return v
}

// combineUdivMagic replaces `x udiv k` (k a non-power-of-two positive constant)
// with the unsigned magic-number sequence of Warren, "Hacker's Delight" ch.10:
// a fixed-point reciprocal multiply, optionally followed by a single add and/or
// shift, computed once here at compile time by chooseMultiplierUnsigned.
func combineUdivMagic(f *ir.Function, inst ir.Inst, data *ir.Instruction, d uint64) bool {
	bits := data.Type.Bits()
	m, shift, addBack := chooseMultiplierUnsigned(d, uint(bits))
	x := f.DFG.ResolveAlias(data.Args[0])
	mv := constValue(f, inst, data.Type, int64(m))
	_, hi := f.InsertBefore(inst, ir.OpcodeUmulhi, data.Type, x, mv)
	if addBack {
		_, diff := f.InsertBefore(inst, ir.OpcodeIsub, data.Type, x, hi)
		one := constValue(f, inst, data.Type, 1)
		_, half := f.InsertBefore(inst, ir.OpcodeUshr, data.Type, diff, one)
		_, sum := f.InsertBefore(inst, ir.OpcodeIadd, data.Type, half, hi)
		shv := constValue(f, inst, data.Type, int64(shift-1))
		f.Retype(inst, ir.OpcodeUshr, sum, shv)
		return true
	}
	shv := constValue(f, inst, data.Type, int64(shift))
	f.Retype(inst, ir.OpcodeUshr, hi, shv)
	return true
}

// combineSdivMagic replaces `x sdiv d` with the signed magic-number sequence:
// a multiply-high by the chosen magic constant, a correction add/sub if the
// magic constant and divisor disagree in sign, an arithmetic shift, and a
// final add of the quotient's sign bit to round the result toward zero.
func combineSdivMagic(f *ir.Function, inst ir.Inst, data *ir.Instruction, d int64) bool {
	bits := data.Type.Bits()
	m, shift := chooseMultiplierSigned(d, uint(bits))
	x := f.DFG.ResolveAlias(data.Args[0])
	mv := constValue(f, inst, data.Type, m)
	_, q := f.InsertBefore(inst, ir.OpcodeSmulhi, data.Type, x, mv)
	if d > 0 && m < 0 {
		_, q = f.InsertBefore(inst, ir.OpcodeIadd, data.Type, q, x)
	} else if d < 0 && m > 0 {
		_, q = f.InsertBefore(inst, ir.OpcodeIsub, data.Type, q, x)
	}
	if shift > 0 {
		sv := constValue(f, inst, data.Type, int64(shift))
		_, q = f.InsertBefore(inst, ir.OpcodeSshr, data.Type, q, sv)
	}
	bitsShift := constValue(f, inst, data.Type, int64(bits-1))
	_, signBit := f.InsertBefore(inst, ir.OpcodeUshr, data.Type, q, bitsShift)
	f.Retype(inst, ir.OpcodeIadd, q, signBit)
	return true
}

// chooseMultiplierUnsigned implements Warren's algorithm ("Hacker's Delight"
// ch. 10, magicu) for unsigned division by a constant: returns the multiplier
// m, the final shift amount, and whether an "add back" correction step is
// needed (the ideal multiplier overflowed the machine word, so the runtime
// sequence instead halves an add-back term before the final shift).
func chooseMultiplierUnsigned(d uint64, bits uint) (m uint64, shift uint, addBack bool) {
	mask := ^uint64(0)
	if bits < 64 {
		mask = (uint64(1) << bits) - 1
	}
	half := uint64(1) << (bits - 1)
	nc := mask - (mask-d+1)%d
	p := bits - 1
	q1, r1 := half/nc, half%nc
	top := mask >> 1 // largest representable value, i.e. 2^(bits-1)-1
	q2, r2 := top/d, top%d
	for {
		p++
		if r1 >= nc-r1 {
			q1 = 2*q1 + 1
			r1 = 2*r1 - nc
		} else {
			q1 = 2 * q1
			r1 = 2 * r1
		}
		if r2+1 >= d-r2 {
			if q2 >= top {
				addBack = true
			}
			q2 = 2*q2 + 1
			r2 = 2*r2 + 1 - d
		} else {
			if q2 >= half {
				addBack = true
			}
			q2 = 2 * q2
			r2 = 2*r2 + 1
		}
		delta := d - 1 - r2
		if p < 2*bits && (q1 < delta || (q1 == delta && r1 == 0)) {
			continue
		}
		break
	}
	m = (q2 + 1) & mask
	shift = p - bits
	return
}

// chooseMultiplierSigned implements Warren's algorithm ("Hacker's Delight"
// ch. 10, magic) for signed division by a nonzero constant d (d != 1, -1):
// returns the magic multiplier and the final arithmetic-shift amount.
func chooseMultiplierSigned(d int64, bits uint) (m int64, shift uint) {
	half := uint64(1) << (bits - 1)
	ad := uint64(d)
	if d < 0 {
		ad = uint64(-d)
	}
	t := half
	if d < 0 {
		t++
	}
	anc := t - 1 - t%ad
	p := bits - 1
	q1, r1 := half/anc, half%anc
	q2, r2 := half/ad, half%ad
	for {
		p++
		q1 *= 2
		r1 *= 2
		if r1 >= anc {
			q1++
			r1 -= anc
		}
		q2 *= 2
		r2 *= 2
		if r2 >= ad {
			q2++
			r2 -= ad
		}
		delta := ad - r2
		if q1 < delta || (q1 == delta && r1 == 0) {
			continue
		}
		break
	}
	mag := int64(q2 + 1)
	if d < 0 {
		mag = -mag
	}
	if bits < 64 {
		mag = mag << (64 - bits) >> (64 - bits)
	}
	return mag, p - bits
}
