// Package scope implements loom's lexical scope chain and symbol
// table: lookup walks from the innermost frame outward, a `local` flag
// restricts lookup to the topmost frame (used for declarations and
// parameter binding), and joining a name that already exists in the
// current frame is a duplicate-declaration error.
package scope

import (
	"fmt"

	"github.com/loomlang/loom/ast"
	"github.com/loomlang/loom/value"
)

// Kind tags what opened a Scope: a set body, a function body, or a plain
// lexical block introduced by a control structure.
type Kind uint8

const (
	KindBlock Kind = iota
	KindFunction
	KindSet
)

// SymbolKind is what a Symbol names: a variable, a set template, or a
// goto label.
type SymbolKind uint8

const (
	SymVar SymbolKind = iota
	SymSet
	SymLabel
)

// Symbol is one named entry in a Scope.
type Symbol struct {
	Kind  SymbolKind
	Var   *value.Variable
	Set   *value.SetDef
	Label *ast.Label
}

// DuplicateDeclarationError reports joining a name already bound in the
// same frame.
type DuplicateDeclarationError struct{ Name string }

func (e *DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("duplicate declaration: %q already declared in this scope", e.Name)
}

// UndefinedSymbolError reports a lookup that failed in every enclosing
// scope.
type UndefinedSymbolError struct{ Name string }

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("undefined symbol: %q", e.Name)
}

// Scope is one frame in a job's lexical chain: a symbol table, the kind
// of body that opened it, the AST node responsible, and links to its
// neighbors. The innermost scope always corresponds to the top
// execution-stack node's function or set body, if any.
type Scope struct {
	Kind    Kind
	Node    ast.Node
	Symbols map[string]*Symbol
	Order   []string

	Parent *Scope
	Prev   *Scope
	Next   *Scope
}

// New creates a scope of the given kind, opened by node, chained under
// parent (nil for a job's outermost scope).
func New(kind Kind, node ast.Node, parent *Scope) *Scope {
	s := &Scope{Kind: kind, Node: node, Symbols: make(map[string]*Symbol), Parent: parent}
	if parent != nil {
		s.Prev = parent
		parent.Next = s
	}
	return s
}

// Join inserts a new symbol into this frame. It is an error to join a
// name that already exists in the current frame: lexical shadowing
// across frames is fine, redeclaration within one frame is not.
func (s *Scope) Join(name string, sym *Symbol) error {
	if _, exists := s.Symbols[name]; exists {
		return &DuplicateDeclarationError{Name: name}
	}
	s.Symbols[name] = sym
	s.Order = append(s.Order, name)
	return nil
}

// Lookup walks the chain from s outward. If local is true, only s itself
// is consulted, used for declarations and parameter binding, which must
// never silently shadow an existing binding from the wrong frame.
func (s *Scope) Lookup(name string, local bool) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.Symbols[name]; ok {
			return sym, true
		}
		if local {
			return nil, false
		}
	}
	return nil, false
}

// LookupVar is a convenience wrapper for the common case of resolving a
// name to a variable.
func (s *Scope) LookupVar(name string) (*value.Variable, bool) {
	sym, ok := s.Lookup(name, false)
	if !ok || sym.Kind != SymVar {
		return nil, false
	}
	return sym.Var, true
}

// FuncScope walks outward from s to find the nearest enclosing
// function-body scope, used to place names introduced by assignment
// and to bound label lookup in FindLabel.
func (s *Scope) FuncScope() *Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind == KindFunction {
			return cur
		}
	}
	return nil
}

// FindLabel looks for a goto target within the nearest enclosing
// function body. Labels are only visible within the function they were
// declared in; a goto can never jump across a function boundary.
func (s *Scope) FindLabel(name string) (*ast.Label, bool) {
	fn := s.FuncScope()
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.Symbols[name]; ok && sym.Kind == SymLabel {
			return sym.Label, true
		}
		if cur == fn {
			break
		}
	}
	return nil, false
}
