package ccapi

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Dumper writes colorized, human-readable traces of intermediate
// compilation state (SSA listings, VCode listings, disassembly) for test
// failures and opt-in debug tracing. Whether colors are written follows
// fatih/color's global NoColor setting, which that package derives from
// standard output, not from w.
type Dumper struct {
	w        io.Writer
	header   *color.Color
	opcode   *color.Color
	value    *color.Color
	comment  *color.Color
}

func NewDumper(w io.Writer) *Dumper {
	return &Dumper{
		w:       w,
		header:  color.New(color.FgCyan, color.Bold),
		opcode:  color.New(color.FgYellow),
		value:   color.New(color.FgGreen),
		comment: color.New(color.FgHiBlack),
	}
}

// Section prints a bold header line, e.g. "-- post-SCCP --".
func (d *Dumper) Section(name string) {
	d.header.Fprintf(d.w, "-- %s --\n", name)
}

// Inst prints one instruction line: an opcode highlighted, the rest plain,
// and an optional trailing comment dimmed.
func (d *Dumper) Inst(indent int, opcode string, rest string, comment string) {
	fmt.Fprint(d.w, strings.Repeat("  ", indent))
	d.opcode.Fprint(d.w, opcode)
	fmt.Fprint(d.w, " "+rest)
	if comment != "" {
		fmt.Fprint(d.w, " ")
		d.comment.Fprintf(d.w, "; %s", comment)
	}
	fmt.Fprintln(d.w)
}

// Value highlights a value/register name inline, e.g. within a line built
// by the caller with fmt.Sprintf before being passed to Inst's rest param.
func (d *Dumper) Value(name string) string {
	return d.value.Sprint(name)
}
