package ir

import (
	"fmt"
	"strings"
)

// Format renders the function as debug text, grouped by block in layout order.
// Used by golden-output tests and by diagnostic logging; never consulted by the
// compile pipeline itself.
func (f *Function) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s%s\n", f.Name, sigSuffix(&f.Signature))
	for _, blk := range f.Layout.Blocks() {
		params := f.Layout.BlockParams(blk)
		ps := make([]string, len(params))
		for i, p := range params {
			ps[i] = p.FormatWithType()
		}
		fmt.Fprintf(&b, "%s(%s):\n", blk, strings.Join(ps, ", "))
		for _, inst := range f.Layout.BlockInsts(blk) {
			fmt.Fprintf(&b, "    %s\n", f.DFG.Inst(inst).String())
		}
	}
	return b.String()
}

func sigSuffix(s *Signature) string {
	parts := make([]string, len(s.Params))
	for i, t := range s.Params {
		parts[i] = t.String()
	}
	rs := make([]string, len(s.Results))
	for i, t := range s.Results {
		rs[i] = t.String()
	}
	return fmt.Sprintf("(%s) -> (%s)", strings.Join(parts, ", "), strings.Join(rs, ", "))
}
