package compiler

// ---------------------------------------------------------------------------
// Shared fields
// ---------------------------------------------------------------------------

// FieldOffset records that one record type stores a shared field at a
// particular slot.
type FieldOffset struct {
	StructIdx int
	Offset    int
}

// SharedField is a field name de-duplicated across all record types that
// declare it. Codegen for field access through a statically unknown record
// type needs to know how many distinct storage offsets exist: one offset
// needs no dispatch, two with an asymmetric occurrence count compile to a
// two-way branch, anything else needs a full offset-by-struct dispatch table.
type SharedField struct {
	NamedEntity

	Offsets   []FieldOffset // one entry per declaring record type, in declaration order
	NumUnique int           // count of distinct Offset values in Offsets

	// Two-offset fast path, filled by CompactOffsets: FO1 is the offset with
	// exactly one occurrence, FON the one all other record types share.
	FO1, FON FieldOffset

	// Bytecode index of the emitted dispatch table, -1 if none. The table
	// itself is emitted by codegen, not here.
	OffsetTable int
}

// NewFieldUse logs that a record type stores this field at the given offset,
// bumping NumUnique only when the offset value has not been seen before.
func (f *SharedField) NewFieldUse(nfo FieldOffset) {
	for _, fo := range f.Offsets {
		if fo.Offset == nfo.Offset {
			f.Offsets = append(f.Offsets, nfo)
			return
		}
	}
	f.NumUnique++
	f.Offsets = append(f.Offsets, nfo)
}

// CompactOffsets computes the two-offset fast path form and reports whether a
// full dispatch table must be emitted instead. With exactly two distinct
// offsets it picks FO1 as the one with a single occurrence; two offsets with
// symmetric occurrence counts fall through to the table case.
func (f *SharedField) CompactOffsets() bool {
	switch f.NumUnique {
	case 0:
		return false
	case 1:
		f.FO1 = f.Offsets[0]
		return false
	case 2:
		a := f.Offsets[0].Offset
		na, nb := 0, 0
		var lastB FieldOffset
		for _, fo := range f.Offsets {
			if fo.Offset == a {
				na++
			} else {
				nb++
				lastB = fo
			}
		}
		if na == 1 {
			f.FO1, f.FON = f.Offsets[0], lastB
			return false
		}
		if nb == 1 {
			f.FO1, f.FON = lastB, f.Offsets[0]
			return false
		}
		return true
	default:
		return true
	}
}

// UniqueField is one record type's view of a shared field: the field's type
// in that record plus the shared name entry. It lives in exactly one
// Struct's field list.
type UniqueField struct {
	Type Type
	SF   *SharedField // shared between all record types declaring this name
}
