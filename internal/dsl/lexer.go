package dsl

import "github.com/alecthomas/participle/v2/lexer"

// ruleLexer tokenizes the DSL's S-expression surface, grounded on
// kanso-lang's grammar.KansoLexer but a plain lexer.MustSimple definition
// rather than a stateful one, since the DSL has no nested lexical modes
// (no string interpolation, no doc-comment-vs-comment distinction) to
// justify lexer.MustStateful's state stack.
var ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `;;[^\n]*`},
	{Name: "Int", Pattern: `-?[0-9]+`},
	// Go type references in `type` decls (e.g. ir.TypeI32) need dots, so
	// Ident is widened beyond a bare identifier rather than adding a
	// second token class just for qualified names.
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_.]*`},
	{Name: "Punct", Pattern: `[()]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})
