package arm64

import (
	_ "embed"

	"github.com/anvilcc/anvil/internal/dsl"
)

//go:embed rules.dsl
var ruleSource string

// rules is this backend's compiled pattern program, parsed and analyzed
// once at package init rather than per-lowering. A malformed rules.dsl is
// a programming error caught at startup, the same contract
// regexp.MustCompile gives its callers.
var rules = mustCompileRules()

func mustCompileRules() *dsl.Program {
	f, err := dsl.Parse("rules.dsl", ruleSource)
	if err != nil {
		panic(err)
	}
	p, err := dsl.Analyze(f)
	if err != nil {
		panic(err)
	}
	return p
}
