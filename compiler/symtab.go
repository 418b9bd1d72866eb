package compiler

// ---------------------------------------------------------------------------
// SymbolTable: the single owner of every named entity in a compilation unit
// ---------------------------------------------------------------------------

// SymbolTable resolves names to compiler entities for one compilation unit.
// The parser drives it: declaring identifiers, record types, fields and
// functions as syntax is recognized and opening/closing scopes around
// blocks. Later passes consult it read-only, by name or by index.
//
// The exported index tables are append-only; an entity's Idx is its position
// in its table and never changes. The per-kind name maps track only the
// currently live bindings. Not safe for concurrent use; a single pipeline
// mutates it.
type SymbolTable struct {
	idents     map[string]int // live identifier bindings, value = IdentTable index
	IdentTable []*Ident
	identStack []*Ident

	structs     map[string]int
	StructTable []*Struct

	fields     map[string]int
	FieldTable []*SharedField

	functions     map[string]int
	FunctionTable []*Function

	FileNames []string

	// scopeLevels snapshots len(identStack) at each ScopeStart; the top
	// snapshot identifies the current scope.
	scopeLevels []int

	withStack       []withEntry
	withStackLevels []int

	UsesFrameState bool
}

// withEntry makes the fields of one record type, reached through one
// identifier, accessible without qualification.
type withEntry struct {
	t  Type
	id *Ident
}

// NewSymbolTable returns an empty table. The caller must open the outermost
// scope with ScopeStart before declaring identifiers.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		idents:    make(map[string]int),
		structs:   make(map[string]int),
		fields:    make(map[string]int),
		functions: make(map[string]int),
	}
}

// ---------------------------------------------------------------------------
// Identifier declaration and lookup
// ---------------------------------------------------------------------------

// DeclareIdent declares name at the current scope and returns its Ident.
//
// With dynScope set, an existing live binding is returned as-is (dynamic
// redeclare-in-place). Otherwise a fresh Ident is created: it is an error if
// the name is implicitly accessible as a with-scope field, or if the live
// binding was declared in the same scope. A live binding from an outer scope
// is shadowed and restored by the matching ScopeEnd.
func (t *SymbolTable) DeclareIdent(name string, line int, dynScope bool, sf *SubFunction) (*Ident, error) {
	prev, exists := t.idents[name]
	if dynScope && exists {
		return t.IdentTable[prev], nil
	}

	fld, _, err := t.ResolveWithField(name)
	if err != nil {
		return nil, err
	}
	if fld != nil {
		return nil, newError(ErrFieldClash, line,
			"cannot define variable with same name as field in this scope: %s", name)
	}

	scope := t.scopeLevels[len(t.scopeLevels)-1]
	if exists && !dynScope && t.IdentTable[prev].ScopeLevel == scope {
		return nil, newError(ErrRedefinition, line, "identifier redefinition: %s", name)
	}

	id := &Ident{
		NamedEntity:      NamedEntity{Name: name, Idx: len(t.IdentTable)},
		Line:             line,
		ScopeLevel:       scope,
		Prev:             -1,
		SF:               sf,
		SingleAssignment: true,
		LogVarIdx:        -1,
		Type:             BuiltinType(TypeUndefined),
	}
	if exists {
		id.Prev = prev
	}
	t.idents[name] = id.Idx
	t.identStack = append(t.identStack, id)
	t.IdentTable = append(t.IdentTable, id)
	return id, nil
}

// LookupIdentMaybe returns the live binding for name, or nil.
func (t *SymbolTable) LookupIdentMaybe(name string) *Ident {
	if i, ok := t.idents[name]; ok {
		return t.IdentTable[i]
	}
	return nil
}

// LookupIdent returns the live binding for name, or an unknown-identifier
// error.
func (t *SymbolTable) LookupIdent(name string, line int) (*Ident, error) {
	id := t.LookupIdentMaybe(name)
	if id == nil {
		return nil, newError(ErrUnknownIdent, line, "unknown identifier: %s", name)
	}
	return id, nil
}

// LookupIdentInFunction finds the unique identifier named idName declared
// inside a function named fnName, or nil if there is no match or the match
// is ambiguous. Full table scan; diagnostics and tooling only.
func (t *SymbolTable) LookupIdentInFunction(idName, fnName string) *Ident {
	var found *Ident
	for _, id := range t.IdentTable {
		if id.Name == idName && id.SF != nil && id.SF.Parent != nil && id.SF.Parent.Name == fnName {
			if found != nil {
				return nil
			}
			found = id
		}
	}
	return found
}

// ---------------------------------------------------------------------------
// Scopes
// ---------------------------------------------------------------------------

// ScopeStart opens a nested scope.
func (t *SymbolTable) ScopeStart() {
	t.scopeLevels = append(t.scopeLevels, len(t.identStack))
	t.withStackLevels = append(t.withStackLevels, len(t.withStack))
}

// ScopeEnd closes the current scope, restoring shadowed bindings and
// dropping the rest. A binding already removed by EndOfInclude is skipped.
// Calling without a matching ScopeStart is a caller bug.
func (t *SymbolTable) ScopeEnd() {
	if len(t.scopeLevels) == 0 {
		panic("compiler: ScopeEnd without matching ScopeStart")
	}
	mark := t.scopeLevels[len(t.scopeLevels)-1]
	for len(t.identStack) > mark {
		id := t.identStack[len(t.identStack)-1]
		if live, ok := t.idents[id.Name]; ok && live == id.Idx {
			if id.Prev >= 0 {
				t.idents[id.Name] = id.Prev
			} else {
				delete(t.idents, id.Name)
			}
		}
		t.identStack = t.identStack[:len(t.identStack)-1]
	}
	t.scopeLevels = t.scopeLevels[:len(t.scopeLevels)-1]

	wmark := t.withStackLevels[len(t.withStackLevels)-1]
	t.withStack = t.withStack[:wmark]
	t.withStackLevels = t.withStackLevels[:len(t.withStackLevels)-1]
}

// EndOfInclude removes every live private binding at the end of a compiled
// include, so module-local names do not leak into the including unit. A
// private identifier shadowing an outer binding violates the declaration
// rules upstream.
func (t *SymbolTable) EndOfInclude() {
	for name, i := range t.idents {
		id := t.IdentTable[i]
		if id.Private {
			if id.Prev >= 0 {
				panic("compiler: private identifier shadows an outer binding")
			}
			delete(t.idents, name)
		}
	}
}

// ---------------------------------------------------------------------------
// With-scopes
// ---------------------------------------------------------------------------

// AddWithScope brings the fields of record type wt, reached through id, into
// unqualified scope until the enclosing scope ends.
func (t *SymbolTable) AddWithScope(wt Type, id *Ident) error {
	for _, w := range t.withStack {
		if w.t.Idx == wt.Idx {
			return newError(ErrWithDuplicate, id.Line,
				"type used twice in the same with scope: %s", t.TypeName(wt))
		}
	}
	if wt.T != TypeStruct || wt.Idx < 0 {
		panic("compiler: with scope over a non-record type")
	}
	t.withStack = append(t.withStack, withEntry{t: wt, id: id})
	return nil
}

// ResolveWithField resolves name as an implicitly accessible field. It
// returns the shared field and the identifier to reach it through, (nil,
// nil) if no with-scope provides the name, and an error if more than one
// does. The whole with-stack is scanned, not just the current scope.
func (t *SymbolTable) ResolveWithField(name string) (*SharedField, *Ident, error) {
	fld := t.LookupField(name)
	if fld == nil {
		return nil, nil, nil
	}
	var id *Ident
	for _, w := range t.withStack {
		if t.StructTable[w.t.Idx].Has(fld) != nil {
			if id != nil {
				return nil, nil, newError(ErrAmbiguousField, 0,
					"access to ambiguous field: %s", fld.Name)
			}
			id = w.id
		}
	}
	if id == nil {
		return nil, nil, nil
	}
	return fld, id, nil
}

// ---------------------------------------------------------------------------
// Record types
// ---------------------------------------------------------------------------

// DeclareStruct declares a new record type. Redeclaring a name is an error.
func (t *SymbolTable) DeclareStruct(name string) (*Struct, error) {
	if _, ok := t.structs[name]; ok {
		return nil, newError(ErrDuplicateType, 0, "double declaration of type: %s", name)
	}
	st := &Struct{
		NamedEntity:   NamedEntity{Name: name, Idx: len(t.StructTable)},
		SuperclassIdx: -1,
	}
	t.structs[name] = st.Idx
	t.StructTable = append(t.StructTable, st)
	return st, nil
}

// UseStruct returns the declared record type named name, or an unknown-type
// error.
func (t *SymbolTable) UseStruct(name string) (*Struct, error) {
	if i, ok := t.structs[name]; ok {
		return t.StructTable[i], nil
	}
	return nil, newError(ErrUnknownType, 0, "unknown type: %s", name)
}

// StructIdx returns the table index and field count of the record type named
// name, or (-1, 0) if there is none. Linear scan over the struct table; used
// by low-frequency data-parsing paths only.
func (t *SymbolTable) StructIdx(name string) (idx, nfields int) {
	for _, st := range t.StructTable {
		if st.Name == name {
			return st.Idx, len(st.Fields)
		}
	}
	return -1, 0
}

// UnregisterStruct removes the record type's live name binding. The binding
// must still exist.
func (t *SymbolTable) UnregisterStruct(st *Struct) {
	if _, ok := t.structs[st.Name]; !ok {
		panic("compiler: unregistering a struct that is not registered")
	}
	delete(t.structs, st.Name)
}

// ---------------------------------------------------------------------------
// Fields
// ---------------------------------------------------------------------------

// DeclareField records that record type st stores a field called name at the
// given slot, creating the cross-struct shared entry on first use.
func (t *SymbolTable) DeclareField(name string, offset int, st *Struct) *SharedField {
	var fld *SharedField
	if i, ok := t.fields[name]; ok {
		fld = t.FieldTable[i]
	} else {
		fld = &SharedField{
			NamedEntity: NamedEntity{Name: name, Idx: len(t.FieldTable)},
			OffsetTable: -1,
		}
		t.fields[name] = fld.Idx
		t.FieldTable = append(t.FieldTable, fld)
	}
	fld.NewFieldUse(FieldOffset{StructIdx: st.Idx, Offset: offset})
	return fld
}

// LookupField returns the shared field named name, or nil.
func (t *SymbolTable) LookupField(name string) *SharedField {
	if i, ok := t.fields[name]; ok {
		return t.FieldTable[i]
	}
	return nil
}

// ---------------------------------------------------------------------------
// Functions
// ---------------------------------------------------------------------------

// DeclareFunction declares a function with the given name and arity.
// Redeclaring an existing name+arity returns the existing Function, so
// repeated declarations accumulate type variations there. A new arity for an
// existing name is linked into the sibling chain; declaring one at a
// different scope level than the first is an error.
func (t *SymbolTable) DeclareFunction(name string, nargs int) (*Function, error) {
	var head *Function
	if i, ok := t.functions[name]; ok {
		head = t.FunctionTable[i]
		if head.ScopeLevel != len(t.scopeLevels) {
			return nil, newError(ErrFunctionScope, 0,
				"cannot define a variation of function %s at a different scope level", name)
		}
		for f := head; f != nil; f = f.Sibf {
			if f.NArgs == nargs {
				return f, nil
			}
		}
	}

	f := &Function{
		NamedEntity: NamedEntity{Name: name, Idx: len(t.FunctionTable)},
		NArgs:       nargs,
		ScopeLevel:  len(t.scopeLevels),
	}
	t.FunctionTable = append(t.FunctionTable, f)

	if head != nil {
		f.Sibf = head.Sibf
		head.Sibf = f
	} else {
		t.functions[name] = f.Idx
	}
	return f, nil
}

// FindFunction returns the first-declared function named name, or nil.
// Callers walk Sibf for the arity they want.
func (t *SymbolTable) FindFunction(name string) *Function {
	if i, ok := t.functions[name]; ok {
		return t.FunctionTable[i]
	}
	return nil
}

// UnregisterFunction removes the function's live name binding if it is still
// present. Idempotent: a sibling cleanup pass may already have removed it.
func (t *SymbolTable) UnregisterFunction(f *Function) {
	delete(t.functions, f.Name)
}

// ---------------------------------------------------------------------------
// Reverse lookup and metadata
// ---------------------------------------------------------------------------
//
// Indices passed here are only ever produced by this table, so out-of-range
// values are driver bugs; the slice bounds check is the assert.

// ReadOnlyIdent reports whether the identifier at index i is a constant.
func (t *SymbolTable) ReadOnlyIdent(i int) bool { return t.IdentTable[i].Constant }

// ReadOnlyType reports whether the record type at index i is read-only.
func (t *SymbolTable) ReadOnlyType(i int) bool { return t.StructTable[i].ReadOnly }

// ReverseLookupIdent returns the name of the identifier at index i.
func (t *SymbolTable) ReverseLookupIdent(i int) string { return t.IdentTable[i].Name }

// ReverseLookupType returns the name of the record type at index i.
func (t *SymbolTable) ReverseLookupType(i int) string { return t.StructTable[i].Name }

// ReverseLookupFunction returns the name of the function at index i.
func (t *SymbolTable) ReverseLookupFunction(i int) string { return t.FunctionTable[i].Name }

// TypeName formats a type tag for display: record types by their declared
// name, everything else by the built-in name table.
func (t *SymbolTable) TypeName(tt Type) string {
	if tt.T == TypeStruct {
		return t.ReverseLookupType(tt.Idx)
	}
	return tt.T.String()
}
