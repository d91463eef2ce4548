package dsl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleSource = `
(type I32 ir.TypeI32)
(decl iadd (I32 I32) I32)
(decl iconst (I32) I32)
(decl imm12_from_value (I32) I32)
(decl add_rr (I32 I32) I32)
(decl add_imm (I32 I32) I32)

(rule 5 (iadd x (iconst (imm12_from_value n))) (add_imm x n))
(rule 10 (iadd x y) (add_rr x y))
`

func parseAndAnalyze(t *testing.T, src string) *Program {
	t.Helper()
	f, err := Parse("sample", src)
	require.NoError(t, err)
	p, err := Analyze(f)
	require.NoError(t, err)
	return p
}

func TestParse_RecognizesTypeDeclTermDeclAndRules(t *testing.T) {
	f, err := Parse("sample", sampleSource)
	require.NoError(t, err)
	require.Len(t, f.Decls, 8)
	require.NotNil(t, f.Decls[0].Type)
	require.Equal(t, "I32", f.Decls[0].Type.Name)
	require.NotNil(t, f.Decls[6].Rule)
}

func TestAnalyze_RejectsUndeclaredTerm(t *testing.T) {
	f, err := Parse("bad", "(rule (foo x) (bar x))")
	require.NoError(t, err) // parses fine, it's sema that rejects it
	_, err = Analyze(f)
	require.Error(t, err)
	require.Contains(t, err.Error(), "undeclared term")
}

func TestAnalyze_RejectsArityMismatch(t *testing.T) {
	f, err := Parse("bad", "(decl iadd (I32 I32) I32)\n(rule (iadd x) (iadd x x))")
	require.NoError(t, err)
	_, err = Analyze(f)
	require.Error(t, err)
	require.Contains(t, err.Error(), "declared with 2")
}

func TestBuildDispatchTable_OrdersBySpecificityThenPriority(t *testing.T) {
	p := parseAndAnalyze(t, sampleSource)
	table := BuildDispatchTable(p)
	rules := table["iadd"]
	require.Len(t, rules, 2)
	// The imm12 rule is more specific (nested iconst/imm12_from_value
	// pattern) so it must be tried first despite its lower declared priority.
	require.Equal(t, "add_imm", rules[0].Expr.Call.Op)
	require.Equal(t, "add_rr", rules[1].Expr.Call.Op)
}

func TestMatchAndBuild_PicksMostSpecificRule(t *testing.T) {
	p := parseAndAnalyze(t, sampleSource)

	genericTerm := &Term{Op: "iadd", Args: []*Term{{Op: "x"}, {Op: "y"}}}
	result, rule, ok := p.MatchAndBuild(genericTerm)
	require.True(t, ok)
	require.Equal(t, "add_rr", rule.Expr.Call.Op)
	require.Equal(t, "add_rr", result.Op)

	imm12Term := &Term{Op: "iadd", Args: []*Term{
		{Op: "x"},
		{Op: "iconst", Args: []*Term{{Op: "imm12_from_value", Args: []*Term{{Op: "n"}}}}},
	}}
	result, rule, ok = p.MatchAndBuild(imm12Term)
	require.True(t, ok)
	require.Equal(t, "add_imm", rule.Expr.Call.Op)
	require.Equal(t, "add_imm", result.Op)
	require.Len(t, result.Args, 2)
}

func TestMatchAndBuild_ReportsNoMatch(t *testing.T) {
	p := parseAndAnalyze(t, sampleSource)
	_, _, ok := p.MatchAndBuild(&Term{Op: "isub"})
	require.False(t, ok)
}

func TestGenerate_IsDeterministicAcrossRuns(t *testing.T) {
	p := parseAndAnalyze(t, sampleSource)
	first, err := Generate(p, "arm64lower")
	require.NoError(t, err)
	second, err := Generate(p, "arm64lower")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Contains(t, string(first), "dispatchTable")
	require.Contains(t, string(first), `"iadd"`)
}
