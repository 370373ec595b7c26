package eval

import (
	"fmt"

	"github.com/loomlang/loom/ast"
	"github.com/loomlang/loom/scope"
	"github.com/loomlang/loom/value"
)

// callState tracks a Call frame's progress: which callee it resolved to
// (a plain function, a set's member function bound to a receiver, or a
// set template being constructed), its evaluated arguments, and whether
// the eventual invocation is a constructor call (whose own return value
// is discarded in favor of the new object).
type callState struct {
	phase   int
	setDef  *value.SetDef
	self    *value.Object
	fn      *value.Function
	argVals []value.Value
	isCtor  bool
}

const (
	callGotCalleeObj = iota
	callGotCalleeValue
	callArgs
	callInvoke
	callAfterBody
)

// stepCallNode implements Call: resolve the callee,
// evaluate arguments left to right, then either run a host callback
// synchronously or push the external function's body as a fresh frame
// in a new function-kind scope. A callee naming a set template
// constructs an object instead of invoking a plain function; when the
// set declared a same-named constructor function, that function runs
// with the new object bound as `this` and its return value is discarded.
func stepCallNode(j *Job, f *Frame, n *ast.Call) (stepResult, error) {
	st, _ := f.extra.(*callState)
	if st == nil {
		st = &callState{}
		f.extra = st
		switch callee := n.Callee.(type) {
		case *ast.Ident:
			if sym, ok := f.Scope.Lookup(callee.Name, false); ok && sym.Kind == scope.SymSet {
				st.setDef = sym.Set
				st.fn = sym.Set.Ctor()
			} else {
				v, ok2 := f.Scope.LookupVar(callee.Name)
				if !ok2 {
					return stepResult{}, &UndefinedSymbolError{Name: callee.Name}
				}
				if !v.Value.IsFunc() {
					return stepResult{}, &value.TypeError{Op: "call", Kind: v.Value.Kind()}
				}
				st.fn = v.Value.Func()
			}
			st.phase = callArgs
		case *ast.Member:
			if callee.X == nil {
				obj := j.currentSelf()
				if obj == nil {
					return stepResult{}, &RuntimeError{Msg: "method call with no enclosing object"}
				}
				fn, ok := obj.Set.Funcs[callee.Name]
				if !ok {
					return stepResult{}, &UndefinedSymbolError{Name: callee.Name}
				}
				st.self, st.fn = obj, fn
				st.phase = callArgs
			} else {
				st.phase = callGotCalleeObj
				j.push(&Frame{Node: callee.X, Scope: f.Scope})
				return notDone(), nil
			}
		default:
			st.phase = callGotCalleeValue
			j.push(&Frame{Node: n.Callee, Scope: f.Scope})
			return notDone(), nil
		}
	}

	for {
		switch st.phase {
		case callGotCalleeObj:
			if !j.lastValue.IsObject() {
				return stepResult{}, &value.TypeError{Op: "method call", Kind: j.lastValue.Kind()}
			}
			obj := j.lastValue.Object()
			mname := n.Callee.(*ast.Member).Name
			fn, ok := obj.Set.Funcs[mname]
			if !ok {
				return stepResult{}, &UndefinedSymbolError{Name: mname}
			}
			st.self, st.fn = obj, fn
			st.phase = callArgs
		case callGotCalleeValue:
			if !j.lastValue.IsFunc() {
				return stepResult{}, &value.TypeError{Op: "call", Kind: j.lastValue.Kind()}
			}
			st.fn = j.lastValue.Func()
			st.phase = callArgs
		case callArgs:
			doneAll, results := f.nextChild(j, n.Args)
			if !doneAll {
				return notDone(), nil
			}
			st.argVals = results
			st.phase = callInvoke
		case callInvoke:
			if st.setDef != nil {
				obj := value.NewObjectFromSet(st.setDef)
				if st.fn == nil {
					return done(value.NewObject(obj)), nil
				}
				st.self = obj
				st.isCtor = true
			}
			if st.fn.Kind == value.FuncInternal {
				if len(st.fn.Params) != len(st.argVals) {
					return stepResult{}, &ArityError{Func: st.fn.Name, Want: len(st.fn.Params), Got: len(st.argVals)}
				}
				ctx := &internalCallCtx{params: st.fn.Params, args: st.argVals, job: j}
				j.Blocked = false
				result := st.fn.Internal(ctx)
				if j.Blocked {
					// Stay in callInvoke: the next tick re-invokes the
					// same internal function, which is expected to be
					// safe to call again while waiting.
					return notDone(), nil
				}
				if j.Err != nil {
					return stepResult{}, j.Err
				}
				if st.isCtor {
					return done(value.NewObject(st.self)), nil
				}
				return done(result), nil
			}
			if len(st.fn.Params) != len(st.argVals) {
				return stepResult{}, &ArityError{Func: st.fn.Name, Want: len(st.fn.Params), Got: len(st.argVals)}
			}
			fnScope := scope.New(scope.KindFunction, st.fn.Body, j.Global)
			for i, pname := range st.fn.Params {
				v := value.NewVar(pname, value.VarNormal, value.Nil, nil)
				v.SetValue(st.argVals[i])
				if err := fnScope.Join(pname, &scope.Symbol{Kind: scope.SymVar, Var: v}); err != nil {
					return stepResult{}, err
				}
			}
			st.phase = callAfterBody
			j.push(&Frame{Node: st.fn.Body, Scope: fnScope, Self: st.self})
			return notDone(), nil
		case callAfterBody:
			if st.isCtor {
				return done(value.NewObject(st.self)), nil
			}
			switch j.lastSignal {
			case sigReturn:
				return done(j.lastValue), nil
			case sigNone:
				return done(value.Nil), nil
			default:
				return stepResult{}, &RuntimeError{Msg: "invalid control flow escaping function body"}
			}
		}
	}
}

// internalCallCtx adapts one call's bound arguments to value.InternalCtx,
// letting a host callback read them by parameter name without knowing
// anything about the evaluator's stack.
type internalCallCtx struct {
	params []string
	args   []value.Value
	job    *Job
}

func (c *internalCallCtx) Arg(name string) (value.Value, bool) {
	for i, p := range c.params {
		if p == name {
			return c.args[i], true
		}
	}
	return value.Nil, false
}

func (c *internalCallCtx) Errorf(format string, args ...interface{}) {
	c.job.Err = &HostError{Msg: fmt.Sprintf(format, args...)}
}

func (c *internalCallCtx) Block() {
	c.job.Blocked = true
}
