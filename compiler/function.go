package compiler

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

// Arg is one formal parameter of a subfunction.
type Arg struct {
	Name string
	Type Type
}

// SubFunction is one concrete body of a function: same name and arity as its
// siblings in the chain, different argument or return types. Chains hold
// either compiler-generated type specializations or, for multimethods,
// user-written dispatch branches.
type SubFunction struct {
	Parent *Function

	Args []Arg
	Body any // AST root; opaque to the symbol table

	SubBytecodeStart int

	Typechecked bool
	ReturnType  Type
}

// Function groups every body declared under one name and arity. Overloads by
// arity hang off Sibf; type variations live in Subf.
type Function struct {
	NamedEntity

	NArgs         int
	BytecodeStart int

	// Subf holds the subfunction chain, most recently added first, so
	// dispatch tries the newest variation before older ones.
	Subf []*SubFunction

	// Sibf is the next function with the same name but a different arity.
	// The chain threads through the function table; the by-name lookup
	// yields the first-declared function and callers walk Sibf for arity.
	Sibf *Function

	// Multimethod marks user-implemented dynamic dispatch. When false the
	// subfunction chain is grown by type specialization instead.
	Multimethod bool

	ScopeLevel int
	RetVals    int

	NCalls int // used by codegen to cull unused functions
}

// NewSubFunction adds a fresh subfunction at the head of the chain and
// returns it.
func (f *Function) NewSubFunction() *SubFunction {
	sf := &SubFunction{Parent: f, ReturnType: BuiltinType(TypeUndefined)}
	f.Subf = append([]*SubFunction{sf}, f.Subf...)
	return sf
}
