package compiler

// ---------------------------------------------------------------------------
// Identifiers
// ---------------------------------------------------------------------------

// Ident is a declared variable or constant. Shadowing is threaded through
// Prev: the ident-table index of the binding this one hides, or -1. The live
// binding for a name is tracked by the symbol table; walking Prev from it
// visits every older binding of that name still in scope.
type Ident struct {
	NamedEntity

	Line       int // declaration line
	ScopeLevel int // identifier-stack snapshot of the enclosing scope; equal snapshots mean same scope

	Prev int // ident-table index of the shadowed binding, -1 if none

	SF *SubFunction // owning subfunction, nil for top-level declarations

	SingleAssignment bool // true until the first assignment
	Constant         bool
	StaticConstant   bool
	Private          bool // module-local; pruned at the end of the declaring unit

	LogVarIdx int // frame-state slot assigned by later passes, -1 if none

	Type Type
}

// Assign records an assignment to the identifier. Assigning to a constant is
// a compile error and leaves the identifier untouched.
func (id *Ident) Assign() error {
	if id.Constant {
		return newError(ErrConstAssign, id.Line, "variable %s is constant", id.Name)
	}
	id.SingleAssignment = false
	return nil
}
