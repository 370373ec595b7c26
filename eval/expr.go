package eval

import (
	"github.com/loomlang/loom/ast"
	"github.com/loomlang/loom/ops"
	"github.com/loomlang/loom/value"
)

// dispatch routes a frame to its handler by AST node type. Statement
// kinds are handled in stmt.go, expression kinds here.
func dispatch(j *Job, f *Frame) (stepResult, error) {
	switch n := f.Node.(type) {
	// ---- statements ----
	case *ast.Program:
		return stepProgramNode(j, f, n)
	case *ast.Block:
		return stepBlockNode(j, f, n)
	case *ast.If:
		return stepIfNode(j, f, n)
	case *ast.While:
		return stepWhileNode(j, f, n)
	case *ast.For:
		return stepForNode(j, f, n)
	case *ast.Switch:
		return stepSwitchNode(j, f, n)
	case *ast.ExprStmt:
		return stepExprStmtNode(j, f, n)
	case *ast.Assign:
		return stepAssignNode(j, f, n)
	case *ast.VarDecl:
		return stepVarDeclNode(j, f, n)
	case *ast.FuncDecl:
		return stepFuncDeclNode(j, f, n)
	case *ast.SetDecl:
		return stepSetDeclNode(j, f, n)
	case *ast.Return:
		return stepReturnNode(j, f, n)
	case *ast.Break:
		return doneSignal(value.Nil, sigBreak, ""), nil
	case *ast.Continue:
		return doneSignal(value.Nil, sigContinue, ""), nil
	case *ast.Label:
		return done(value.Nil), nil
	case *ast.Goto:
		return doneSignal(value.Nil, sigGoto, n.Name), nil

	// ---- expressions ----
	case *ast.NilLit:
		return done(value.Nil), nil
	case *ast.BoolLit:
		return done(value.NewBool(n.V)), nil
	case *ast.IntLit:
		return done(value.NewInt(n.V)), nil
	case *ast.RealLit:
		return done(value.NewReal(n.V)), nil
	case *ast.StringLit:
		return done(value.NewString(n.V)), nil
	case *ast.Ident:
		return stepIdentNode(j, f, n)
	case *ast.Binary:
		return stepBinaryNode(j, f, n)
	case *ast.Unary:
		return stepUnaryNode(j, f, n)
	case *ast.PostfixIncDec:
		return stepPostfixNode(j, f, n)
	case *ast.Index:
		return stepIndexNode(j, f, n)
	case *ast.Member:
		return stepMemberNode(j, f, n)
	case *ast.Call:
		return stepCallNode(j, f, n)
	case *ast.ArrayLit:
		return stepArrayLitNode(j, f, n)
	}
	return stepResult{}, &RuntimeError{Msg: "unhandled node type in evaluator"}
}

func stepIdentNode(j *Job, f *Frame, n *ast.Ident) (stepResult, error) {
	v, ok := f.Scope.LookupVar(n.Name)
	if !ok {
		return stepResult{}, &UndefinedSymbolError{Name: n.Name}
	}
	return done(v.Value), nil
}

func stepBinaryNode(j *Job, f *Frame, n *ast.Binary) (stepResult, error) {
	doneAll, results := f.nextChild(j, []ast.Expr{n.L, n.R})
	if !doneAll {
		return notDone(), nil
	}
	v, err := ops.Binary(n.Op, results[0], results[1])
	if err != nil {
		return stepResult{}, err
	}
	return done(v), nil
}

func stepUnaryNode(j *Job, f *Frame, n *ast.Unary) (stepResult, error) {
	switch n.Op {
	case "++", "--":
		return stepIncDec(j, f, n.Op, n.X, true)
	default:
		doneAll, results := f.nextChild(j, []ast.Expr{n.X})
		if !doneAll {
			return notDone(), nil
		}
		v, err := ops.Unary(n.Op, results[0])
		if err != nil {
			return stepResult{}, err
		}
		return done(v), nil
	}
}

func stepPostfixNode(j *Job, f *Frame, n *ast.PostfixIncDec) (stepResult, error) {
	return stepIncDec(j, f, n.Op, n.X, false)
}

// stepIncDec resolves x's target, computes the ++/-- result, writes it
// back, and yields the pre- or post-value depending on prefix.
func stepIncDec(j *Job, f *Frame, op string, x ast.Expr, prefix bool) (stepResult, error) {
	doneAll, results := f.nextChild(j, targetChildren(x))
	if !doneAll {
		return notDone(), nil
	}
	target, err := resolveTarget(j, f.Scope, x, results, false)
	if err != nil {
		return stepResult{}, err
	}
	cur, err := target.get()
	if err != nil {
		return stepResult{}, err
	}
	next, err := ops.IncDec(op, cur)
	if err != nil {
		return stepResult{}, err
	}
	if err := target.set(next); err != nil {
		return stepResult{}, err
	}
	if prefix {
		return done(next), nil
	}
	return done(cur), nil
}

func stepIndexNode(j *Job, f *Frame, n *ast.Index) (stepResult, error) {
	doneAll, results := f.nextChild(j, []ast.Expr{n.X, n.Key})
	if !doneAll {
		return notDone(), nil
	}
	if !results[0].IsArray() {
		return stepResult{}, &value.TypeError{Op: "subscript", Kind: results[0].Kind()}
	}
	v, err := results[0].Array().Get(results[1])
	if err != nil {
		return stepResult{}, err
	}
	return done(v), nil
}

func stepMemberNode(j *Job, f *Frame, n *ast.Member) (stepResult, error) {
	if n.X == nil {
		// `this`-style lookup: the member belongs to the object the
		// innermost member-function call was invoked on.
		obj := j.currentSelf()
		if obj == nil {
			return stepResult{}, &RuntimeError{Msg: "member access with no enclosing object"}
		}
		return memberResult(obj, n.Name)
	}
	doneAll, results := f.nextChild(j, []ast.Expr{n.X})
	if !doneAll {
		return notDone(), nil
	}
	if !results[0].IsObject() {
		return stepResult{}, &value.TypeError{Op: "member", Kind: results[0].Kind()}
	}
	return memberResult(results[0].Object(), n.Name)
}

func memberResult(obj *value.Object, name string) (stepResult, error) {
	m, ok := obj.Member(name)
	if !ok {
		return stepResult{}, &UndefinedSymbolError{Name: name}
	}
	return done(m.Value), nil
}

func stepArrayLitNode(j *Job, f *Frame, n *ast.ArrayLit) (stepResult, error) {
	children := make([]ast.Expr, 0, len(n.Elems)*2)
	for _, e := range n.Elems {
		if e.Key != nil {
			children = append(children, e.Key)
		}
		children = append(children, e.Val)
	}
	doneAll, results := f.nextChild(j, children)
	if !doneAll {
		return notDone(), nil
	}
	arr := value.NewEmptyArray()
	i := 0
	for _, e := range n.Elems {
		var key value.Value
		if e.Key != nil {
			key = results[i]
			i++
		} else {
			key = value.Nil
		}
		val := results[i]
		i++
		slot, err := arr.GetOrNew(key)
		if err != nil {
			return stepResult{}, err
		}
		slot.SetValue(val)
	}
	return done(value.NewArray(arr)), nil
}
