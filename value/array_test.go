package value

import "testing"

func TestArrayGetOrNewAutoIndex(t *testing.T) {
	a := NewEmptyArray()
	v1, err := a.GetOrNew(NewInt(0))
	if err != nil {
		t.Fatalf("GetOrNew(0): %v", err)
	}
	v1.SetValue(NewString("x"))

	v2, err := a.GetOrNew(NewString("k"))
	if err != nil {
		t.Fatalf("GetOrNew(k): %v", err)
	}
	v2.SetValue(NewString("y"))

	got1, _ := a.Get(NewInt(0))
	got2, _ := a.Get(NewString("k"))
	if s, _ := got1.ToString(); s != "x" {
		t.Errorf("a[0] = %q, want x", s)
	}
	if s, _ := got2.ToString(); s != "y" {
		t.Errorf(`a["k"] = %q, want y`, s)
	}
	if a.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", a.Len())
	}
}

func TestArrayReadAbsentDoesNotCreate(t *testing.T) {
	a := NewEmptyArray()
	v, err := a.Get(NewInt(5))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !v.IsNil() {
		t.Errorf("reading an absent index should yield nil, got %v", v.Kind())
	}
	if a.Len() != 0 {
		t.Errorf("reading an absent index must not create an entry, len=%d", a.Len())
	}
}

func TestArrayDualViewsStayInSync(t *testing.T) {
	a := NewEmptyArray()
	for i := 0; i < 5; i++ {
		v, err := a.GetOrNew(NewInt(int64(i)))
		if err != nil {
			t.Fatalf("GetOrNew(%d): %v", i, err)
		}
		v.SetValue(NewInt(int64(i * 10)))
	}
	a.Delete(NewInt(2))

	entries := a.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries after delete, got %d", len(entries))
	}
	for _, e := range entries {
		byKey, err := a.Get(e.Key)
		if err != nil {
			t.Fatalf("Get(%v): %v", e.Key, err)
		}
		if !byKey.Equals(e.ValueVar.Value) {
			t.Errorf("integer-indexed and key-indexed views disagree for entry %d", e.Index)
		}
	}
}

func TestArrayDeletePreservesAutoIndex(t *testing.T) {
	a := NewEmptyArray()
	first, _ := a.GetOrNew(Nil)
	first.SetValue(NewInt(1))
	a.Delete(NewInt(0))

	second, _ := a.GetOrNew(Nil)
	second.SetValue(NewInt(2))

	if second.Value.Int() != 2 {
		t.Fatalf("unexpected value")
	}
	entries := a.Entries()
	if len(entries) != 1 || entries[0].Index != 1 {
		t.Errorf("expected the next auto-index to be 1 (not reused), got entries=%+v", entries)
	}
}
