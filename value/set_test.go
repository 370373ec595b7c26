package value

import "testing"

func TestObjectConstructionDeepCopiesMembers(t *testing.T) {
	def := NewSetDef("Point")
	def.AddMember("x", NewVar("x", VarNormal, NewInt(0), nil))
	def.AddMember("y", NewVar("y", VarNormal, NewInt(0), nil))

	a := NewObjectFromSet(def)
	b := NewObjectFromSet(def)

	ax, _ := a.Member("x")
	ax.SetValue(NewInt(3))

	bx, _ := b.Member("x")
	if bx.Value.Int() != 0 {
		t.Errorf("object construction should deep-copy scalar members, got b.x = %d", bx.Value.Int())
	}
	if def.RefCount() != 2 {
		t.Errorf("expected 2 live objects retaining the set template, got refcount %d", def.RefCount())
	}

	a.Release()
	if def.RefCount() != 1 {
		t.Errorf("expected refcount 1 after releasing one object, got %d", def.RefCount())
	}
}

func TestObjectMemberOrderMatchesDeclaration(t *testing.T) {
	def := NewSetDef("S")
	def.AddMember("b", NewVar("b", VarNormal, Nil, nil))
	def.AddMember("a", NewVar("a", VarNormal, Nil, nil))

	obj := NewObjectFromSet(def)
	if len(obj.Order) != 2 || obj.Order[0] != "b" || obj.Order[1] != "a" {
		t.Errorf("expected declaration order [b a], got %v", obj.Order)
	}
}
