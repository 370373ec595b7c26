package scope

import (
	"testing"

	"github.com/loomlang/loom/value"
)

func TestJoinAndLookupWalksChain(t *testing.T) {
	outer := New(KindFunction, nil, nil)
	if err := outer.Join("x", &Symbol{Kind: SymVar, Var: value.NewVar("x", value.VarNormal, value.NewInt(1), nil)}); err != nil {
		t.Fatalf("Join: %v", err)
	}

	inner := New(KindBlock, nil, outer)
	v, ok := inner.LookupVar("x")
	if !ok {
		t.Fatalf("expected inner scope to see outer binding of x")
	}
	if v.Value.Int() != 1 {
		t.Errorf("x = %d, want 1", v.Value.Int())
	}
}

func TestLocalLookupDoesNotCrossFrames(t *testing.T) {
	outer := New(KindFunction, nil, nil)
	outer.Join("x", &Symbol{Kind: SymVar, Var: value.NewVar("x", value.VarNormal, value.NewInt(1), nil)})

	inner := New(KindBlock, nil, outer)
	if _, ok := inner.Lookup("x", true); ok {
		t.Errorf("local lookup should not see bindings from an enclosing frame")
	}
}

func TestJoinDuplicateInSameFrameIsError(t *testing.T) {
	s := New(KindBlock, nil, nil)
	sym := &Symbol{Kind: SymVar, Var: value.NewVar("x", value.VarNormal, value.NewInt(1), nil)}
	if err := s.Join("x", sym); err != nil {
		t.Fatalf("first join: %v", err)
	}
	err := s.Join("x", sym)
	if err == nil {
		t.Fatalf("expected duplicate declaration error")
	}
	if _, ok := err.(*DuplicateDeclarationError); !ok {
		t.Errorf("expected *DuplicateDeclarationError, got %T", err)
	}
}

func TestShadowingAcrossFramesIsAllowed(t *testing.T) {
	outer := New(KindFunction, nil, nil)
	outer.Join("x", &Symbol{Kind: SymVar, Var: value.NewVar("x", value.VarNormal, value.NewInt(1), nil)})

	inner := New(KindBlock, nil, outer)
	if err := inner.Join("x", &Symbol{Kind: SymVar, Var: value.NewVar("x", value.VarNormal, value.NewInt(2), nil)}); err != nil {
		t.Fatalf("shadowing join should succeed: %v", err)
	}
	v, _ := inner.LookupVar("x")
	if v.Value.Int() != 2 {
		t.Errorf("inner x = %d, want 2 (shadowed)", v.Value.Int())
	}
	ov, _ := outer.LookupVar("x")
	if ov.Value.Int() != 1 {
		t.Errorf("outer x = %d, want 1 (unaffected by shadowing)", ov.Value.Int())
	}
}

func TestFindLabelVisibleOnlyWithinFunction(t *testing.T) {
	fn := New(KindFunction, nil, nil)
	block := New(KindBlock, nil, fn)
	if err := fn.Join("done", &Symbol{Kind: SymLabel}); err != nil {
		t.Fatalf("Join label: %v", err)
	}
	if _, ok := block.FindLabel("done"); !ok {
		t.Errorf("expected block scope to find label declared in its enclosing function")
	}

	outer := New(KindFunction, nil, nil)
	if _, ok := outer.FindLabel("done"); ok {
		t.Errorf("label from a different function should not be visible")
	}
}
