package compiler

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Identifier declaration and shadowing
// ---------------------------------------------------------------------------

func TestDeclareAndLookup(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	id, err := tab.DeclareIdent("x", 3, false, nil)
	if err != nil {
		t.Fatalf("DeclareIdent failed: %v", err)
	}
	if id.Idx != 0 {
		t.Errorf("first ident Idx = %d, want 0", id.Idx)
	}
	if id.Line != 3 {
		t.Errorf("ident Line = %d, want 3", id.Line)
	}
	if !id.SingleAssignment {
		t.Error("fresh ident should have SingleAssignment set")
	}

	if got := tab.LookupIdentMaybe("x"); got != id {
		t.Errorf("LookupIdentMaybe returned %v, want the declared ident", got)
	}
	if got := tab.LookupIdentMaybe("y"); got != nil {
		t.Errorf("LookupIdentMaybe for unknown name = %v, want nil", got)
	}

	if _, err := tab.LookupIdent("y", 9); err == nil {
		t.Error("LookupIdent for unknown name should fail")
	} else {
		var cerr *Error
		if !errors.As(err, &cerr) || cerr.Kind != ErrUnknownIdent {
			t.Errorf("LookupIdent error = %v, want ErrUnknownIdent", err)
		}
	}
}

func TestRedefinitionSameScope(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	if _, err := tab.DeclareIdent("x", 1, false, nil); err != nil {
		t.Fatalf("first declaration failed: %v", err)
	}
	_, err := tab.DeclareIdent("x", 2, false, nil)
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != ErrRedefinition {
		t.Fatalf("redeclaration error = %v, want ErrRedefinition", err)
	}
	// The failed declaration must not have touched the table.
	if len(tab.IdentTable) != 1 {
		t.Errorf("ident table has %d entries after failed redeclaration, want 1", len(tab.IdentTable))
	}
}

func TestShadowingAndScopeEnd(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	outer, err := tab.DeclareIdent("x", 1, false, nil)
	if err != nil {
		t.Fatalf("outer declaration failed: %v", err)
	}

	tab.ScopeStart()
	inner, err := tab.DeclareIdent("x", 5, false, nil)
	if err != nil {
		t.Fatalf("shadowing declaration failed: %v", err)
	}
	if inner == outer {
		t.Fatal("shadowing declaration returned the outer ident")
	}
	if inner.Prev != outer.Idx {
		t.Errorf("inner.Prev = %d, want %d", inner.Prev, outer.Idx)
	}
	if got := tab.LookupIdentMaybe("x"); got != inner {
		t.Error("inner binding should be live inside the nested scope")
	}

	tab.ScopeEnd()
	if got := tab.LookupIdentMaybe("x"); got != outer {
		t.Error("outer binding should be restored after ScopeEnd")
	}

	tab.ScopeEnd()
	if got := tab.LookupIdentMaybe("x"); got != nil {
		t.Errorf("binding should be gone after outermost ScopeEnd, got %v", got)
	}

	// The index table keeps every ident ever declared.
	if len(tab.IdentTable) != 2 {
		t.Errorf("ident table has %d entries, want 2", len(tab.IdentTable))
	}
}

func TestScopeEndRestoresEveryName(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	a, _ := tab.DeclareIdent("a", 1, false, nil)
	b, _ := tab.DeclareIdent("b", 1, false, nil)

	tab.ScopeStart()
	tab.DeclareIdent("a", 2, false, nil)
	tab.DeclareIdent("c", 2, false, nil)
	tab.DeclareIdent("b", 2, false, nil)
	tab.ScopeEnd()

	if got := tab.LookupIdentMaybe("a"); got != a {
		t.Error("binding for a not restored")
	}
	if got := tab.LookupIdentMaybe("b"); got != b {
		t.Error("binding for b not restored")
	}
	if got := tab.LookupIdentMaybe("c"); got != nil {
		t.Error("binding for c should be gone")
	}
}

func TestDynScopeRedeclareInPlace(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	first, err := tab.DeclareIdent("g", 1, true, nil)
	if err != nil {
		t.Fatalf("dynamic declaration failed: %v", err)
	}
	again, err := tab.DeclareIdent("g", 7, true, nil)
	if err != nil {
		t.Fatalf("dynamic redeclaration failed: %v", err)
	}
	if again != first {
		t.Error("dynamic redeclaration should return the existing binding")
	}
	if len(tab.IdentTable) != 1 {
		t.Errorf("ident table has %d entries, want 1", len(tab.IdentTable))
	}
}

func TestScopeEndWithoutStartPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("ScopeEnd without ScopeStart should panic")
		}
	}()
	NewSymbolTable().ScopeEnd()
}

// ---------------------------------------------------------------------------
// Assignment
// ---------------------------------------------------------------------------

func TestAssign(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()
	id, _ := tab.DeclareIdent("x", 1, false, nil)

	if err := id.Assign(); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if id.SingleAssignment {
		t.Error("SingleAssignment should be cleared after Assign")
	}
	if err := id.Assign(); err != nil {
		t.Fatalf("second Assign failed: %v", err)
	}
	if id.SingleAssignment {
		t.Error("SingleAssignment must stay cleared")
	}
}

func TestAssignToConstant(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()
	id, _ := tab.DeclareIdent("k", 1, false, nil)
	id.Constant = true

	err := id.Assign()
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Kind != ErrConstAssign {
		t.Fatalf("Assign to constant = %v, want ErrConstAssign", err)
	}
	if !id.SingleAssignment {
		t.Error("failed Assign must not mutate the identifier")
	}
}

// ---------------------------------------------------------------------------
// Privacy pruning
// ---------------------------------------------------------------------------

func TestEndOfIncludePrunesPrivates(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	priv, _ := tab.DeclareIdent("helper", 1, false, nil)
	priv.Private = true
	pub, _ := tab.DeclareIdent("api", 2, false, nil)

	tab.EndOfInclude()

	if got := tab.LookupIdentMaybe("helper"); got != nil {
		t.Error("private binding should be pruned at end of include")
	}
	if got := tab.LookupIdentMaybe("api"); got != pub {
		t.Error("public binding must survive end of include")
	}

	// ScopeEnd must tolerate the already pruned binding.
	tab.ScopeEnd()
	if got := tab.LookupIdentMaybe("api"); got != nil {
		t.Error("public binding should be gone after ScopeEnd")
	}
}

func TestEndOfIncludePrivateShadowPanics(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()
	tab.DeclareIdent("x", 1, false, nil)
	tab.ScopeStart()
	inner, _ := tab.DeclareIdent("x", 2, false, nil)
	inner.Private = true

	defer func() {
		if recover() == nil {
			t.Error("EndOfInclude over a private shadow should panic")
		}
	}()
	tab.EndOfInclude()
}

// ---------------------------------------------------------------------------
// Diagnostics lookup
// ---------------------------------------------------------------------------

func TestLookupIdentInFunction(t *testing.T) {
	tab := NewSymbolTable()
	tab.ScopeStart()

	f, err := tab.DeclareFunction("render", 1)
	if err != nil {
		t.Fatalf("DeclareFunction failed: %v", err)
	}
	sf := f.NewSubFunction()

	tab.ScopeStart()
	arg, _ := tab.DeclareIdent("frame", 3, false, sf)
	tab.DeclareIdent("loose", 3, false, nil)
	tab.ScopeEnd()

	if got := tab.LookupIdentInFunction("frame", "render"); got != arg {
		t.Errorf("LookupIdentInFunction = %v, want the declared arg", got)
	}
	if got := tab.LookupIdentInFunction("loose", "render"); got != nil {
		t.Error("ident with no owning subfunction should not match")
	}
	if got := tab.LookupIdentInFunction("frame", "paint"); got != nil {
		t.Error("wrong function name should not match")
	}

	// A second ident of the same name in the same function is ambiguous.
	sf2 := f.NewSubFunction()
	tab.ScopeStart()
	tab.DeclareIdent("frame", 9, false, sf2)
	tab.ScopeEnd()
	if got := tab.LookupIdentInFunction("frame", "render"); got != nil {
		t.Error("ambiguous match should return nil")
	}
}
