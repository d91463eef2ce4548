package dsl

import (
	"sort"

	"github.com/samber/lo"
)

// patternSpecificity counts a pattern's term nodes: more term structure
// means a more specific match, so deeper patterns outrank shallower ones
// whatever their declared priority. A bare variable or wildcard
// contributes nothing.
func patternSpecificity(pat *Pattern) int {
	if pat.Term == nil {
		return 0
	}
	n := 1
	for _, arg := range pat.Term.Args {
		n += patternSpecificity(arg)
	}
	return n
}

// BuildDispatchTable groups rules by their pattern's root opcode and
// orders each group so a trie walk (and the generated dispatch function)
// tries the most-specific rule first; among equally specific rules the
// higher declared priority goes first, and remaining ties are broken by
// declaration order — spec.md §4.4: "more-specific patterns take
// precedence; ties broken by declaration order."
func BuildDispatchTable(p *Program) map[string][]*CompiledRule {
	byOp := lo.GroupBy(p.Rules, func(r *CompiledRule) string { return r.Opcode })
	for _, rules := range byOp {
		sort.SliceStable(rules, func(i, j int) bool {
			si, sj := patternSpecificity(rules[i].Pattern), patternSpecificity(rules[j].Pattern)
			if si != sj {
				return si > sj
			}
			if rules[i].Priority != rules[j].Priority {
				return rules[i].Priority > rules[j].Priority
			}
			return rules[i].Declared < rules[j].Declared
		})
	}
	return byOp
}

// Match unifies pattern against term, recording each pattern variable's
// bound sub-term into bindings. A wildcard matches anything without
// binding; a variable matches anything and binds; a term pattern requires
// an equal-arity, equal-op term and recurses over arguments.
func Match(pat *Pattern, term *Term, bindings map[string]*Term) bool {
	switch {
	case pat.Wildcard:
		return true
	case pat.Term != nil:
		if term == nil || term.Op != pat.Term.Op || len(term.Args) != len(pat.Term.Args) {
			return false
		}
		for i, sub := range pat.Term.Args {
			if !Match(sub, term.Args[i], bindings) {
				return false
			}
		}
		return true
	default: // bare variable
		bindings[pat.Var] = term
		return true
	}
}

// Build instantiates expr against bindings, producing the rewritten term a
// matched rule's right-hand side describes.
func Build(expr *Expr, bindings map[string]*Term) *Term {
	if expr.Call == nil {
		return bindings[expr.Var]
	}
	t := &Term{Op: expr.Call.Op}
	for _, arg := range expr.Call.Args {
		t.Args = append(t.Args, Build(arg, bindings))
	}
	return t
}

// Term is the runtime value a Pattern matches against and an Expr builds:
// the ISA backend flattens an ir.Instruction's operand tree into this
// shape before calling MatchAndBuild, and reads the machine-instruction
// template back out of the result the same way.
type Term struct {
	Op   string
	Args []*Term
}

// MatchAndBuild tries table's rules for term's root Op in dispatch order,
// returning the first match's rewritten term. This is the DSL's
// interpreted fast path: internal/isa/arm64 can call it directly against a
// compiled Program without requiring the codegen stage to have run, since
// a one-shot generator per spec.md §9's bootstrap note is explicitly
// optional.
func (p *Program) MatchAndBuild(term *Term) (*Term, *CompiledRule, bool) {
	table := BuildDispatchTable(p)
	for _, r := range table[term.Op] {
		bindings := map[string]*Term{}
		if Match(r.Pattern, term, bindings) {
			return Build(r.Expr, bindings), r, true
		}
	}
	return nil, nil, false
}
