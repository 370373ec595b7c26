package eval

import (
	"github.com/loomlang/loom/ast"
	"github.com/loomlang/loom/scope"
	"github.com/loomlang/loom/value"
)

// targetRef is a resolved assignment target: exactly one of its three
// shapes is populated, matching the three kinds ast.Assign.Target (and
// ast.Unary/PostfixIncDec's ++/-- operand) may take.
type targetRef struct {
	ident  *value.Variable
	arr    *value.Array
	key    value.Value
	obj    *value.Object
	member string
}

func (t *targetRef) get() (value.Value, error) {
	switch {
	case t.ident != nil:
		return t.ident.Value, nil
	case t.arr != nil:
		return t.arr.Get(t.key)
	default:
		m, ok := t.obj.Member(t.member)
		if !ok {
			return value.Nil, &UndefinedSymbolError{Name: t.member}
		}
		return m.Value, nil
	}
}

func (t *targetRef) set(v value.Value) error {
	switch {
	case t.ident != nil:
		// Scalars copy, aggregates share; a reference variable's
		// write-through behavior is preserved because SetValue
		// composes with Assign.
		t.ident.SetValue(v)
		return nil
	case t.arr != nil:
		slot, err := t.arr.GetOrNew(t.key)
		if err != nil {
			return err
		}
		slot.SetValue(v)
		return nil
	default:
		m, ok := t.obj.Member(t.member)
		if !ok {
			return &UndefinedSymbolError{Name: t.member}
		}
		m.SetValue(v)
		return nil
	}
}

// targetChildren returns the sub-expressions that must be evaluated
// before target can be resolved into a targetRef: none for an Ident,
// [X, Key] for an Index, [X] for a Member with an explicit base (a bare
// `.name` `this` access needs nothing).
func targetChildren(target ast.Expr) []ast.Expr {
	switch t := target.(type) {
	case *ast.Index:
		return []ast.Expr{t.X, t.Key}
	case *ast.Member:
		if t.X != nil {
			return []ast.Expr{t.X}
		}
		return nil
	default:
		return nil
	}
}

// resolveTarget builds a targetRef from target plus the values its
// children (per targetChildren) evaluated to. declare controls whether
// an unresolved bare identifier is an undefined-symbol error (reads,
// ++/--) or gets auto-declared in the nearest enclosing function scope (plain `=`
// assignment, which is how this language introduces a new variable;
// there is no separate `var` statement for the non-reference case).
func resolveTarget(j *Job, sc *scope.Scope, target ast.Expr, childResults []value.Value, declare bool) (*targetRef, error) {
	switch t := target.(type) {
	case *ast.Ident:
		v, ok := sc.LookupVar(t.Name)
		if !ok {
			if !declare {
				return nil, &UndefinedSymbolError{Name: t.Name}
			}
			// New names introduced by assignment live for the rest of
			// the enclosing function, not just the control-structure
			// block the assignment sits in, so `if (c) { b = 1; }`
			// leaves b visible after the if. Only `ref` declarations
			// are block-scoped.
			owner := sc.FuncScope()
			if owner == nil {
				owner = sc
			}
			v = value.NewVar(t.Name, value.VarNormal, value.Nil, nil)
			if err := owner.Join(t.Name, &scope.Symbol{Kind: scope.SymVar, Var: v}); err != nil {
				return nil, err
			}
		}
		return &targetRef{ident: v}, nil
	case *ast.Index:
		base := childResults[0]
		if !base.IsArray() {
			return nil, &value.TypeError{Op: "subscript assign", Kind: base.Kind()}
		}
		return &targetRef{arr: base.Array(), key: childResults[1]}, nil
	case *ast.Member:
		if t.X == nil {
			obj := j.currentSelf()
			if obj == nil {
				return nil, &RuntimeError{Msg: "member assignment with no enclosing object"}
			}
			return &targetRef{obj: obj, member: t.Name}, nil
		}
		base := childResults[0]
		if !base.IsObject() {
			return nil, &value.TypeError{Op: "member assign", Kind: base.Kind()}
		}
		return &targetRef{obj: base.Object(), member: t.Name}, nil
	default:
		return nil, &RuntimeError{Msg: "invalid assignment target"}
	}
}
