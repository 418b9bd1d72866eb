package compiler

import (
	"errors"
	"testing"
)

// declareStructWithFields declares a record type and registers its fields at
// consecutive offsets, the way the parser does while reading a struct body.
func declareStructWithFields(t *testing.T, tab *SymbolTable, name string, fieldNames ...string) *Struct {
	t.Helper()
	st, err := tab.DeclareStruct(name)
	if err != nil {
		t.Fatalf("DeclareStruct(%s) failed: %v", name, err)
	}
	for i, fn := range fieldNames {
		fld := tab.DeclareField(fn, i, st)
		st.Fields = append(st.Fields, UniqueField{Type: BuiltinType(TypeAny), SF: fld})
	}
	return st
}

func TestResolveWithFieldSingleMatch(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	a := declareStructWithFields(t, tab, "Sprite", "x", "y")
	declareStructWithFields(t, tab, "Color", "r", "g", "b")

	idA, _ := tab.DeclareIdent("spr", 1, false, nil)
	idC, _ := tab.DeclareIdent("col", 2, false, nil)
	if err := tab.AddWithScope(StructType(a.Idx), idA); err != nil {
		t.Fatalf("AddWithScope failed: %v", err)
	}
	if err := tab.AddWithScope(StructType(1), idC); err != nil {
		t.Fatalf("AddWithScope failed: %v", err)
	}

	fld, id, err := tab.ResolveWithField("y")
	if err != nil {
		t.Fatalf("ResolveWithField failed: %v", err)
	}
	if fld == nil || fld.Name != "y" {
		t.Fatalf("ResolveWithField returned field %v, want y", fld)
	}
	if id != idA {
		t.Errorf("ResolveWithField returned ident %v, want spr", id)
	}

	// A name that is no field at all resolves to nothing.
	if fld, id, err := tab.ResolveWithField("nothing"); fld != nil || id != nil || err != nil {
		t.Errorf("ResolveWithField for non-field = (%v, %v, %v), want nils", fld, id, err)
	}
}

func TestResolveWithFieldAmbiguous(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	a := declareStructWithFields(t, tab, "Point2D", "x", "y")
	b := declareStructWithFields(t, tab, "Vec3", "z", "x")

	idA, _ := tab.DeclareIdent("p", 1, false, nil)
	idB, _ := tab.DeclareIdent("v", 2, false, nil)
	tab.AddWithScope(StructType(a.Idx), idA)
	tab.AddWithScope(StructType(b.Idx), idB)

	_, _, err := tab.ResolveWithField("x")
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != ErrAmbiguousField {
		t.Fatalf("ResolveWithField over two providers = %v, want ErrAmbiguousField", err)
	}

	// y lives only in Point2D, z only in Vec3; both stay unambiguous.
	if _, id, err := tab.ResolveWithField("y"); err != nil || id != idA {
		t.Errorf("ResolveWithField(y) = (%v, %v), want p", id, err)
	}
	if _, id, err := tab.ResolveWithField("z"); err != nil || id != idB {
		t.Errorf("ResolveWithField(z) = (%v, %v), want v", id, err)
	}
}

func TestAddWithScopeDuplicateType(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	a := declareStructWithFields(t, tab, "Node", "next")
	id, _ := tab.DeclareIdent("n", 1, false, nil)

	if err := tab.AddWithScope(StructType(a.Idx), id); err != nil {
		t.Fatalf("first AddWithScope failed: %v", err)
	}
	err := tab.AddWithScope(StructType(a.Idx), id)
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != ErrWithDuplicate {
		t.Fatalf("duplicate AddWithScope = %v, want ErrWithDuplicate", err)
	}
}

func TestDeclareIdentClashesWithImplicitField(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	a := declareStructWithFields(t, tab, "Rect", "w", "h")
	id, _ := tab.DeclareIdent("r", 1, false, nil)
	tab.AddWithScope(StructType(a.Idx), id)

	_, err := tab.DeclareIdent("w", 2, false, nil)
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != ErrFieldClash {
		t.Fatalf("declaring over implicit field = %v, want ErrFieldClash", err)
	}
}

func TestScopeEndPopsWithScopes(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	a := declareStructWithFields(t, tab, "Box", "w")
	id, _ := tab.DeclareIdent("b", 1, false, nil)

	tab.ScopeStart()
	tab.AddWithScope(StructType(a.Idx), id)
	if fld, _, _ := tab.ResolveWithField("w"); fld == nil {
		t.Fatal("field should be implicitly accessible inside the with scope")
	}
	tab.ScopeEnd()

	if fld, _, _ := tab.ResolveWithField("w"); fld != nil {
		t.Error("with scope should end with its enclosing scope")
	}

	// The type may be used again once the previous with scope is gone.
	if err := tab.AddWithScope(StructType(a.Idx), id); err != nil {
		t.Errorf("AddWithScope after ScopeEnd failed: %v", err)
	}
}
