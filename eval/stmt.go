package eval

import (
	"github.com/loomlang/loom/ast"
	"github.com/loomlang/loom/ops"
	"github.com/loomlang/loom/scope"
	"github.com/loomlang/loom/value"
)

func stepProgramNode(j *Job, f *Frame, n *ast.Program) (stepResult, error) {
	for {
		doneAll, sig, label := f.nextStmt(j, n.Stmts)
		if !doneAll {
			return notDone(), nil
		}
		switch sig {
		case sigGoto:
			if idx, ok := findLabel(n.Stmts, label); ok {
				f.seq.i = idx
				j.lastSignal = sigNone
				j.lastLabel = ""
				continue
			}
			return stepResult{}, &UndefinedSymbolError{Name: label}
		case sigBreak:
			return stepResult{}, &RuntimeError{Msg: "break outside a loop or switch"}
		case sigContinue:
			return stepResult{}, &RuntimeError{Msg: "continue outside a loop"}
		}
		return doneSignal(j.lastValue, sig, label), nil
	}
}

func stepBlockNode(j *Job, f *Frame, n *ast.Block) (stepResult, error) {
	if f.blockScope == nil {
		f.blockScope = scope.New(scope.KindBlock, n, f.Scope)
		f.Scope = f.blockScope
	}
	for {
		doneAll, sig, label := f.nextStmt(j, n.Stmts)
		if !doneAll {
			return notDone(), nil
		}
		if sig == sigGoto {
			if idx, ok := findLabel(n.Stmts, label); ok {
				f.seq.i = idx
				j.lastSignal = sigNone
				j.lastLabel = ""
				continue
			}
		}
		// A return propagating out of the block carries its value.
		v := value.Nil
		if sig != sigNone {
			v = j.lastValue
		}
		return doneSignal(v, sig, label), nil
	}
}

// findLabel looks for a Label statement named name directly within
// stmts (a goto only resolves within the same statement list it names;
// one that targets an enclosing block keeps propagating as a signal
// until it reaches the Block or Program that contains that label).
func findLabel(stmts []ast.Stmt, name string) (int, bool) {
	for i, s := range stmts {
		if lbl, ok := s.(*ast.Label); ok && lbl.Name == name {
			return i, true
		}
	}
	return 0, false
}

type ifState struct{ phase int }

const (
	ifPushCond = iota
	ifCheckCond
	ifAfterBranch
)

func stepIfNode(j *Job, f *Frame, n *ast.If) (stepResult, error) {
	st, _ := f.extra.(*ifState)
	if st == nil {
		st = &ifState{phase: ifPushCond}
		f.extra = st
	}
	switch st.phase {
	case ifPushCond:
		st.phase = ifCheckCond
		j.push(&Frame{Node: n.Cond, Scope: f.Scope})
		return notDone(), nil
	case ifCheckCond:
		var branch ast.Stmt
		if j.lastValue.Truthy() {
			branch = n.Then
		} else {
			branch = n.Else
		}
		if branch == nil {
			return done(value.Nil), nil
		}
		st.phase = ifAfterBranch
		j.push(&Frame{Node: branch, Scope: f.Scope})
		return notDone(), nil
	default: // ifAfterBranch
		return doneSignal(j.lastValue, j.lastSignal, j.lastLabel), nil
	}
}

type whileState struct{ phase int }

const (
	whileEvalCond = iota
	whileCheckCond
	whileAfterBody
)

func stepWhileNode(j *Job, f *Frame, n *ast.While) (stepResult, error) {
	st, _ := f.extra.(*whileState)
	if st == nil {
		st = &whileState{phase: whileEvalCond}
		f.extra = st
	}
	for {
		switch st.phase {
		case whileEvalCond:
			st.phase = whileCheckCond
			j.push(&Frame{Node: n.Cond, Scope: f.Scope})
			return notDone(), nil
		case whileCheckCond:
			if !j.lastValue.Truthy() {
				return done(value.Nil), nil
			}
			st.phase = whileAfterBody
			j.push(&Frame{Node: n.Body, Scope: f.Scope})
			return notDone(), nil
		case whileAfterBody:
			switch j.lastSignal {
			case sigBreak:
				return done(value.Nil), nil
			case sigReturn, sigGoto:
				return doneSignal(j.lastValue, j.lastSignal, j.lastLabel), nil
			default:
				st.phase = whileEvalCond
			}
		}
	}
}

type forState struct{ phase int }

const (
	forInit = iota
	forCond
	forCheckCond
	forBody
	forAfterBody
	forStep
	forAfterStep
)

func stepForNode(j *Job, f *Frame, n *ast.For) (stepResult, error) {
	st, _ := f.extra.(*forState)
	if st == nil {
		st = &forState{phase: forInit}
		f.extra = st
	}
	for {
		switch st.phase {
		case forInit:
			if n.Init != nil {
				st.phase = forCond
				j.push(&Frame{Node: n.Init, Scope: f.Scope})
				return notDone(), nil
			}
			st.phase = forCond
		case forCond:
			if n.Cond != nil {
				st.phase = forCheckCond
				j.push(&Frame{Node: n.Cond, Scope: f.Scope})
				return notDone(), nil
			}
			st.phase = forBody
		case forCheckCond:
			if !j.lastValue.Truthy() {
				return done(value.Nil), nil
			}
			st.phase = forBody
		case forBody:
			st.phase = forAfterBody
			j.push(&Frame{Node: n.Body, Scope: f.Scope})
			return notDone(), nil
		case forAfterBody:
			switch j.lastSignal {
			case sigBreak:
				return done(value.Nil), nil
			case sigReturn, sigGoto:
				return doneSignal(j.lastValue, j.lastSignal, j.lastLabel), nil
			default:
				st.phase = forStep
			}
		case forStep:
			if n.Step != nil {
				st.phase = forAfterStep
				j.push(&Frame{Node: n.Step, Scope: f.Scope})
				return notDone(), nil
			}
			st.phase = forCond
		case forAfterStep:
			st.phase = forCond
		}
	}
}

type switchState struct {
	phase      int
	i          int
	disc       value.Value
	defaultIdx int
}

const (
	swPushDisc = iota
	swReadDisc
	swNextCase
	swReadConst
	swAfterBody
)

func stepSwitchNode(j *Job, f *Frame, n *ast.Switch) (stepResult, error) {
	st, _ := f.extra.(*switchState)
	if st == nil {
		st = &switchState{phase: swPushDisc, defaultIdx: -1}
		f.extra = st
	}
	for {
		switch st.phase {
		case swPushDisc:
			st.phase = swReadDisc
			j.push(&Frame{Node: n.Disc, Scope: f.Scope})
			return notDone(), nil
		case swReadDisc:
			st.disc = j.lastValue
			st.phase = swNextCase
		case swNextCase:
			if st.i >= len(n.Cases) {
				if st.defaultIdx >= 0 {
					return enterCaseBody(j, f, n.Cases[st.defaultIdx].Body)
				}
				return done(value.Nil), nil
			}
			c := n.Cases[st.i]
			if c.Const == nil {
				st.defaultIdx = st.i
				st.i++
				continue
			}
			st.phase = swReadConst
			j.push(&Frame{Node: c.Const, Scope: f.Scope})
			return notDone(), nil
		case swReadConst:
			if st.disc.Equals(j.lastValue) {
				return enterCaseBody(j, f, n.Cases[st.i].Body)
			}
			st.i++
			st.phase = swNextCase
		case swAfterBody:
			if j.lastSignal == sigBreak {
				return done(value.Nil), nil
			}
			if j.lastSignal != sigNone {
				return doneSignal(j.lastValue, j.lastSignal, j.lastLabel), nil
			}
			return done(value.Nil), nil
		}
	}
}

// enterCaseBody pushes a matched case's statements as a synthetic block
// (so the arm gets its own scope) and arms the frame to read its
// outcome as swAfterBody on the next step.
func enterCaseBody(j *Job, f *Frame, body []ast.Stmt) (stepResult, error) {
	st := f.extra.(*switchState)
	st.phase = swAfterBody
	j.push(&Frame{Node: &ast.Block{Stmts: body}, Scope: f.Scope})
	return notDone(), nil
}

func stepExprStmtNode(j *Job, f *Frame, n *ast.ExprStmt) (stepResult, error) {
	doneAll, _ := f.nextChild(j, []ast.Expr{n.X})
	if !doneAll {
		return notDone(), nil
	}
	return done(value.Nil), nil
}

func stepAssignNode(j *Job, f *Frame, n *ast.Assign) (stepResult, error) {
	tc := targetChildren(n.Target)
	children := make([]ast.Expr, 0, len(tc)+1)
	children = append(children, tc...)
	children = append(children, n.Value)

	doneAll, results := f.nextChild(j, children)
	if !doneAll {
		return notDone(), nil
	}
	target, err := resolveTarget(j, f.Scope, n.Target, results[:len(tc)], true)
	if err != nil {
		return stepResult{}, err
	}
	rhs := results[len(tc)]

	if n.Op == "=" {
		if err := target.set(rhs); err != nil {
			return stepResult{}, err
		}
		return done(rhs), nil
	}
	binOp, ok := ops.CompoundOp[n.Op]
	if !ok {
		return stepResult{}, &RuntimeError{Msg: "unknown assignment operator " + n.Op}
	}
	cur, err := target.get()
	if err != nil {
		return stepResult{}, err
	}
	next, err := ops.Binary(binOp, cur, rhs)
	if err != nil {
		return stepResult{}, err
	}
	if err := target.set(next); err != nil {
		return stepResult{}, err
	}
	return done(next), nil
}

func stepVarDeclNode(j *Job, f *Frame, n *ast.VarDecl) (stepResult, error) {
	if n.Ref && n.Init == nil {
		return stepResult{}, &MissingReferenceTargetError{Name: n.Name}
	}
	var children []ast.Expr
	if n.Init != nil {
		children = []ast.Expr{n.Init}
	}
	doneAll, results := f.nextChild(j, children)
	if !doneAll {
		return notDone(), nil
	}
	initVal := value.Nil
	if n.Init != nil {
		initVal = results[0]
	}
	kind := value.VarNormal
	if n.Ref {
		kind = value.VarReference
	} else {
		initVal = initVal.Dup()
	}
	v := value.NewVar(n.Name, kind, initVal, nil)
	if err := f.Scope.Join(n.Name, &scope.Symbol{Kind: scope.SymVar, Var: v}); err != nil {
		return stepResult{}, err
	}
	return done(value.Nil), nil
}

func stepFuncDeclNode(j *Job, f *Frame, n *ast.FuncDecl) (stepResult, error) {
	fn := value.NewExternalFunc(n.Name, n.Params, n.Body)
	sym := &scope.Symbol{Kind: scope.SymVar, Var: value.NewVar(n.Name, value.VarNormal, value.NewFunc(fn), nil)}
	if err := f.Scope.Join(n.Name, sym); err != nil {
		return stepResult{}, err
	}
	return done(value.Nil), nil
}

type setBuild struct {
	phase int
	i     int
	def   *value.SetDef
	scope *scope.Scope
}

const (
	sdNext = iota
	sdGotInit
	sdJoin
)

// stepSetDeclNode evaluates a `set` body once at definition time: each
// member's initializer is evaluated against a fresh empty scope (no
// access to the enclosing scope), and member functions
// become the set's methods without ever running yet.
func stepSetDeclNode(j *Job, f *Frame, n *ast.SetDecl) (stepResult, error) {
	st, _ := f.extra.(*setBuild)
	if st == nil {
		st = &setBuild{def: value.NewSetDef(n.Name), scope: scope.New(scope.KindSet, n, nil)}
		f.extra = st
	}
	for {
		switch st.phase {
		case sdNext:
			if st.i >= len(n.Members) {
				st.phase = sdJoin
				continue
			}
			m := n.Members[st.i]
			if m.Func != nil {
				st.def.AddFunc(value.NewExternalFunc(m.Func.Name, m.Func.Params, m.Func.Body))
				st.i++
				continue
			}
			if m.Init == nil {
				st.def.AddMember(m.Name, value.NewVar(m.Name, value.VarNormal, value.Nil, nil))
				st.i++
				continue
			}
			st.phase = sdGotInit
			j.push(&Frame{Node: m.Init, Scope: st.scope})
			return notDone(), nil
		case sdGotInit:
			m := n.Members[st.i]
			st.def.AddMember(m.Name, value.NewVar(m.Name, value.VarNormal, j.lastValue.Dup(), nil))
			st.i++
			st.phase = sdNext
		case sdJoin:
			sym := &scope.Symbol{Kind: scope.SymSet, Set: st.def}
			if err := f.Scope.Join(n.Name, sym); err != nil {
				return stepResult{}, err
			}
			return done(value.Nil), nil
		}
	}
}

func stepReturnNode(j *Job, f *Frame, n *ast.Return) (stepResult, error) {
	var children []ast.Expr
	if n.X != nil {
		children = []ast.Expr{n.X}
	}
	doneAll, results := f.nextChild(j, children)
	if !doneAll {
		return notDone(), nil
	}
	v := value.Nil
	if n.X != nil {
		v = results[0]
	}
	return doneSignal(v, sigReturn, ""), nil
}
