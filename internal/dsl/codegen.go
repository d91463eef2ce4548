package dsl

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/klauspost/asmfmt"
	"github.com/samber/lo"
)

// Generate renders p's compiled dispatch table as Go source for
// packageName, matching spec.md §4.4's "codegen emitting a dispatch
// function whose body is a nested match over opcodes". The generated
// file's header documents each rule's right-hand side as a canonical
// assembly mnemonic line; that block is canonicalized with asmfmt so two
// codegen runs over identical rule source are byte-identical, directly
// testing spec.md §4.4's "rule priority ordering is deterministic and
// observable." The dispatch table itself is emitted as a plain literal
// (not hand-matched Go control flow against as-yet-unwritten ISA helpers),
// consumed at runtime by dsl.MatchAndBuild-equivalent logic the ISA
// package wires up once its Term-flattening exists.
func Generate(p *Program, packageName string) ([]byte, error) {
	table := BuildDispatchTable(p)
	opcodes := lo.Keys(table)
	sort.Strings(opcodes)

	var asm bytes.Buffer
	for _, op := range opcodes {
		for _, r := range table[op] {
			fmt.Fprintf(&asm, "%s\n", mnemonic(r.Expr))
		}
	}
	canonBytes, err := asmfmt.Format(bytes.NewReader(asm.Bytes()))
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "// Code generated by internal/dsl. DO NOT EDIT.\npackage %s\n\n", packageName)
	out.WriteString("// Rule right-hand sides, in dispatch order:\n")
	for _, line := range strings.Split(strings.TrimRight(string(canonBytes), "\n"), "\n") {
		fmt.Fprintf(&out, "//\t%s\n", line)
	}

	out.WriteString("\nvar dispatchTable = map[string][]string{\n")
	for _, op := range opcodes {
		fmt.Fprintf(&out, "\t%q: {\n", op)
		for _, r := range table[op] {
			fmt.Fprintf(&out, "\t\t%q,\n", patternString(r.Pattern))
		}
		out.WriteString("\t},\n")
	}
	out.WriteString("}\n")
	return out.Bytes(), nil
}

// mnemonic renders expr as an uppercase assembly-style line, e.g.
// "ADD_RR x, y", for the header comment's asmfmt-canonicalized block.
func mnemonic(e *Expr) string {
	if e.Call == nil {
		return e.Var
	}
	args := lo.Map(e.Call.Args, func(a *Expr, _ int) string { return mnemonic(a) })
	return strings.ToUpper(e.Call.Op) + "\t" + strings.Join(args, ", ")
}

// patternString renders pat back to its S-expression surface form, used as
// the dispatch table's literal pattern key.
func patternString(p *Pattern) string {
	switch {
	case p.Wildcard:
		return "_"
	case p.Term != nil:
		args := lo.Map(p.Term.Args, func(a *Pattern, _ int) string { return patternString(a) })
		return "(" + p.Term.Op + " " + strings.Join(args, " ") + ")"
	default:
		return p.Var
	}
}
