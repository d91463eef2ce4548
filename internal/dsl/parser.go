package dsl

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

var ruleParser = participle.MustBuild[File](
	participle.Lexer(ruleLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// Parse lexes and parses rule source into a File, the unresolved AST. Sema
// resolution (type/term lookups, arity checks) happens separately in
// Analyze, matching kanso's grammar.ParseFile/sema split.
func Parse(name, src string) (*File, error) {
	f, err := ruleParser.ParseString(name, src)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", describeParseError(src, err))
	}
	return f, nil
}

// describeParseError renders a caret-pointed location for a participle
// parse error, grounded on kanso's grammar.reportParseError.
func describeParseError(src string, err error) string {
	pe, ok := err.(participle.Error)
	if !ok {
		return err.Error()
	}
	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		return fmt.Sprintf("syntax error at unknown location: %s", err)
	}
	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"
	return fmt.Sprintf("%s at line %d, column %d:\n%s\n%s\n%s",
		color.RedString("syntax error"), pos.Line, pos.Column, line, caret, pe.Message())
}
