// Package dsl implements the declarative pattern-matching language lowering
// rules are written in: lex -> parse -> sema -> trie -> codegen, per
// spec.md §4.4. Grounded on kanso-lang's grammar package (the pack's only
// participle/v2-based parser), adapted from its Move-like surface-language
// grammar to this package's S-expression type/decl/rule surface.
package dsl

// File is the parsed top level of a rule source file: a flat sequence of
// type, decl, and rule forms, in declaration order (order matters for
// priority tie-breaking, spec.md §4.4).
type File struct {
	Decls []*Decl `@@*`
}

// Decl is one top-level S-expression form.
type Decl struct {
	Type *TypeDecl `  "(" "type" @@ ")"`
	Term *TermDecl `| "(" "decl" @@ ")"`
	Rule *RuleDecl `| "(" "rule" @@ ")"`
}

// TypeDecl introduces an extern type: `(type I32 ir.TypeI32)`.
type TypeDecl struct {
	Name   string `@Ident`
	GoType string `@Ident`
}

// TermDecl declares a term's arity and signature: `(decl iadd (I32 I32) I32)`.
// Extractors (guard predicates that may bind a value, e.g. imm12_from_value)
// are declared the same way; sema does not distinguish them from ordinary
// constructors, since both are just named terms a pattern or expression may
// apply.
type TermDecl struct {
	Name   string   `@Ident`
	Args   []string `"(" @Ident* ")"`
	Result string   `@Ident`
}

// RuleDecl relates a pattern (LHS) to a rewrite expression (RHS), with an
// optional declared priority (higher runs first): `(rule 10 (iadd x y) (add_rr x y))`.
type RuleDecl struct {
	Priority *int     `[ @Int ]`
	LHS      *Pattern `@@`
	RHS      *Expr    `@@`
}

// Pattern is a DSL left-hand-side node: a wildcard, a bound variable, or a
// term application whose arguments are themselves patterns.
type Pattern struct {
	Wildcard bool         `  @"_"`
	Term     *TermPattern `| @@`
	Var      string       `| @Ident`
}

// TermPattern is `(op pattern...)`: matches a value built by term op whose
// sub-values match each argument pattern in order.
type TermPattern struct {
	Op   string     `"(" @Ident`
	Args []*Pattern `@@* ")"`
}

// Expr is a DSL right-hand-side node: a reference to a pattern-bound
// variable, or a term application building a new value from sub-expressions.
type Expr struct {
	Call *CallExpr `  @@`
	Var  string    `| @Ident`
}

// CallExpr is `(op expr...)`: builds a new value by applying term op to the
// results of each argument expression.
type CallExpr struct {
	Op   string  `"(" @Ident`
	Args []*Expr `@@* ")"`
}
