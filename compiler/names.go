package compiler

// NamedEntity is the base of every entity kind the symbol table owns. Idx is
// the entity's position in its owning index table; it is stable for the life
// of the table and doubles as the serialized cross-reference key.
type NamedEntity struct {
	Name string
	Idx  int
}

// LineInfo maps a bytecode offset back to a source position. FileIdx indexes
// the table's file-name list.
type LineInfo struct {
	Line          int `cbor:"line"`
	FileIdx       int `cbor:"file"`
	BytecodeStart int `cbor:"bc"`
}
