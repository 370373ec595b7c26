package value

import "fmt"

// VarKind distinguishes a variable that owns its value slot exclusively
// from one that shares another variable's value.
type VarKind uint8

const (
	// VarNormal variables rebind their slot on assignment.
	VarNormal VarKind = iota
	// VarReference variables are a second owner of a value created
	// elsewhere; assigning through one mutates the shared value in
	// place instead of rebinding.
	VarReference
)

// Variable is a named cell: its kind, its current value, and, when it
// is a set member, a back-pointer to the owning instance. The evaluator
// does not read InSet: `this`-style member lookup resolves through the
// call frame of the running member function.
type Variable struct {
	Name  string
	Kind  VarKind
	Value Value
	InSet *Object
}

// NewVar allocates a named cell, retaining val on its behalf.
func NewVar(name string, kind VarKind, val Value, inSet *Object) *Variable {
	return &Variable{Name: name, Kind: kind, Value: val.Retain(), InSet: inSet}
}

// Free releases the value slot's ownership. The
// Variable itself becomes unusable.
func (v *Variable) Free() {
	v.Value.Release()
	v.Value = Nil
}

// Dup clones the cell: deep-copy scalar payloads, share aggregates.
// Used when duplicating a set template member into a fresh object.
func (v *Variable) Dup(name string, inSet *Object) *Variable {
	return NewVar(name, v.Kind, v.Value.Dup(), inSet)
}

// Convert resolves a reference variable to the
// value it targets. A normal variable converts to itself.
func (v *Variable) Convert() Value {
	return v.Value
}

// Assign writes val through the cell. A VarNormal variable rebinds its slot:
// the previous value is released and val is retained in its place. A
// VarReference variable instead mutates its shared box in place (via
// Value.SetFrom), so every other variable that was bound to the same
// underlying value observes the write. That is what makes it a
// reference rather than a second independent copy.
func (v *Variable) Assign(val Value) {
	if v.Kind == VarReference {
		v.Value.SetFrom(val)
		return
	}
	old := v.Value
	v.Value = val.Retain()
	old.Release()
}

// SetValue writes with value-copy semantics for scalars,
// sharing semantics for aggregates. Used to bind call arguments
// and to populate object members and array entries. Composes with
// Assign, so a reference variable's sharing behavior still applies when
// SetValue is used to write through one.
func (v *Variable) SetValue(val Value) {
	switch val.Kind() {
	case KindObject, KindFunc, KindArray:
		v.Assign(val)
	default:
		v.Assign(val.Dup())
	}
}

func (v *Variable) String() string {
	s, _ := v.Value.ToString()
	return fmt.Sprintf("%s=%s", v.Name, s)
}
