package machinst

// Resolver rewrites the 4 bytes at the fixup's offset given the now-known
// byte distance from that instruction to its label's bound offset.
// ISA-specific: internal/isa/arm64 supplies one resolver per FixupKind.
type Resolver func(buf *MachBuffer, f Fixup, labelOffset uint32)

// Finish resolves every pending fixup against its now-bound label using
// the supplied per-kind resolvers, then clears the pending list. Every
// label must be bound by this point — spec.md §4.7's "every label is
// bound exactly once" testable property — or Finish panics, since an
// unbound label at Finish time is an internal compiler error (a dangling
// forward reference lowering forgot to bind), not a user-correctable one.
func Finish(buf *MachBuffer, resolvers map[FixupKind]Resolver) {
	for _, f := range buf.Pending() {
		off, ok := buf.LabelOffset(f.Label)
		if !ok {
			panic("machinst: unbound label at Finish")
		}
		resolvers[f.Kind](buf, f, off)
	}
	buf.ClearPending()
}
