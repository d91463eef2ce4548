package ir

import "fmt"

// Variable names a source-level local across its possibly many SSA Value
// definitions. A Builder uses Variable to drive the sealed-block SSA
// construction algorithm (Braun, Buchwald, Hack, Leißa, Mehofer, Zwinkau,
// "Simple and Efficient Construction of Static Single Assignment Form", 2013);
// once construction is finished, only the Values it produced remain in the IR.
type Variable uint32

func (v Variable) String() string { return fmt.Sprintf("var%d", v) }
