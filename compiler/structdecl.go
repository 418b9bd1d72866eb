package compiler

// ---------------------------------------------------------------------------
// Record types
// ---------------------------------------------------------------------------

// Struct is a declared record type. Field offsets are positions in Fields.
// Inheritance is single: Superclass points into the struct table and
// SuperclassIdx carries the same link in serialized form. Cycle prevention
// is the caller's concern; a struct body is only finalized after its named
// superclass has been declared.
type Struct struct {
	NamedEntity

	Fields []UniqueField

	Superclass    *Struct
	SuperclassIdx int // -1 if no superclass

	ReadOnly bool
}

// Has returns the struct's view of the shared field, or nil if this record
// type does not declare it. Linear scan; field lists are short.
func (st *Struct) Has(fld *SharedField) *UniqueField {
	for i := range st.Fields {
		if st.Fields[i].SF == fld {
			return &st.Fields[i]
		}
	}
	return nil
}
