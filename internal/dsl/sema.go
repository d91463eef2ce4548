package dsl

import "github.com/pkg/errors"

// TermSignature is a resolved `decl` form: its declared arity and the
// extern type names of its arguments and result.
type TermSignature struct {
	Name   string
	Args   []string
	Result string
}

// CompiledRule is one validated `rule` form, still carrying its pattern and
// expression ASTs for Match/Build and codegen, plus the derived fields
// BuildDispatchTable orders by.
type CompiledRule struct {
	Priority int
	Opcode   string // LHS's root term op; the dispatch key lowering switches on
	Pattern  *Pattern
	Expr     *Expr
	Declared int // declaration order, for stable priority tie-breaking
}

// Program is a fully analyzed rule set: every type and term resolved, every
// rule's pattern and expression checked against declared term arities.
type Program struct {
	Types map[string]string
	Terms map[string]*TermSignature
	Rules []*CompiledRule
}

// Analyze resolves f's declarations and validates every rule against them,
// matching spec.md §4.4's "semantic analysis (type and term resolution,
// rule validation)" stage.
func Analyze(f *File) (*Program, error) {
	p := &Program{Types: map[string]string{}, Terms: map[string]*TermSignature{}}

	for _, d := range f.Decls {
		switch {
		case d.Type != nil:
			if _, dup := p.Types[d.Type.Name]; dup {
				return nil, errors.Errorf("duplicate type declaration %q", d.Type.Name)
			}
			p.Types[d.Type.Name] = d.Type.GoType
		case d.Term != nil:
			if _, dup := p.Terms[d.Term.Name]; dup {
				return nil, errors.Errorf("duplicate term declaration %q", d.Term.Name)
			}
			p.Terms[d.Term.Name] = &TermSignature{
				Name: d.Term.Name, Args: d.Term.Args, Result: d.Term.Result,
			}
		}
	}

	for _, d := range f.Decls {
		if d.Rule == nil {
			continue
		}
		r := d.Rule
		if r.LHS.Term == nil {
			return nil, errors.New("rule pattern must be a term application, not a bare variable or wildcard")
		}
		if err := validatePattern(p, r.LHS); err != nil {
			return nil, errors.Wrapf(err, "rule for %q", r.LHS.Term.Op)
		}
		if err := validateExpr(p, r.RHS); err != nil {
			return nil, errors.Wrapf(err, "rule for %q", r.LHS.Term.Op)
		}
		priority := 0
		if r.Priority != nil {
			priority = *r.Priority
		}
		p.Rules = append(p.Rules, &CompiledRule{
			Priority: priority,
			Opcode:   r.LHS.Term.Op,
			Pattern:  r.LHS,
			Expr:     r.RHS,
			Declared: len(p.Rules),
		})
	}
	return p, nil
}

func validatePattern(p *Program, pat *Pattern) error {
	if pat.Term == nil {
		return nil
	}
	sig, ok := p.Terms[pat.Term.Op]
	if !ok {
		return errors.Errorf("undeclared term %q", pat.Term.Op)
	}
	if len(sig.Args) != len(pat.Term.Args) {
		return errors.Errorf("term %q applied with %d arguments, declared with %d",
			pat.Term.Op, len(pat.Term.Args), len(sig.Args))
	}
	for _, arg := range pat.Term.Args {
		if err := validatePattern(p, arg); err != nil {
			return err
		}
	}
	return nil
}

func validateExpr(p *Program, e *Expr) error {
	if e.Call == nil {
		return nil
	}
	sig, ok := p.Terms[e.Call.Op]
	if !ok {
		return errors.Errorf("undeclared term %q", e.Call.Op)
	}
	if len(sig.Args) != len(e.Call.Args) {
		return errors.Errorf("term %q applied with %d arguments, declared with %d",
			e.Call.Op, len(e.Call.Args), len(sig.Args))
	}
	for _, arg := range e.Call.Args {
		if err := validateExpr(p, arg); err != nil {
			return err
		}
	}
	return nil
}
