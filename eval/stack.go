// Package eval implements the tree-walking evaluator: a
// resumable, explicit execution stack that never uses the host Go call
// stack for script call depth, so a job's evaluation can be paused at a
// step boundary and resumed on a later scheduler tick with identical
// observable outcome.
package eval

import (
	"github.com/loomlang/loom/ast"
	"github.com/loomlang/loom/scope"
	"github.com/loomlang/loom/value"
)

// ctrlSignal is what a completed Frame hands its parent besides a value:
// a plain fall-through, or an in-progress control transfer that must
// keep unwinding until it reaches the frame that consumes it.
type ctrlSignal uint8

const (
	sigNone ctrlSignal = iota
	sigReturn
	sigBreak
	sigContinue
	sigGoto
)

// seqState is the generic bookkeeping shared by every handler that
// steps through a fixed list of children (statements or
// sub-expressions) one at a time, collecting each child's delivered
// value before moving to the next.
type seqState struct {
	i       int
	results []value.Value
}

// Frame is one stack-node record: the AST node it is executing (whose
// dynamic type selects the handler in dispatch), the scope active while
// it runs, and whatever sub-step bookkeeping its handler needs to
// resume mid-node.
type Frame struct {
	Node  ast.Node
	Scope *scope.Scope

	seq   *seqState
	extra interface{}

	// blockScope, when non-nil, is the scope this frame opened on entry
	// and must close (regardless of how it exits) when it completes.
	blockScope *scope.Scope

	// Self is set on the frame running a set member function's body,
	// naming the object `this`-style member access resolves against.
	Self *value.Object
}

// stepResult is what a handler hands back to the driver: either "not
// done yet" (complete=false, nothing else matters) or a final value
// plus whatever control signal should propagate to the parent frame.
type stepResult struct {
	complete bool
	value    value.Value
	signal   ctrlSignal
	label    string
}

func notDone() stepResult { return stepResult{} }

func done(v value.Value) stepResult { return stepResult{complete: true, value: v} }

func doneSignal(v value.Value, sig ctrlSignal, label string) stepResult {
	return stepResult{complete: true, value: v, signal: sig, label: label}
}

// nextChild drives a fixed sequence of sub-expressions: push the next
// unevaluated child and return "not done", or, once every child has
// delivered a value, return them all. Children never themselves
// signal break/continue/return/goto: the grammar does not allow a
// control statement inside an expression.
func (f *Frame) nextChild(j *Job, children []ast.Expr) (doneAll bool, results []value.Value) {
	if f.seq == nil {
		f.seq = &seqState{}
	}
	if f.seq.i > 0 {
		f.seq.results = append(f.seq.results, j.lastValue)
	}
	if f.seq.i < len(children) {
		child := children[f.seq.i]
		f.seq.i++
		j.push(&Frame{Node: child, Scope: f.Scope})
		return false, nil
	}
	return true, f.seq.results
}

// nextStmt drives a statement sequence (a block body, a case body): run
// each statement in order, stopping early the moment one delivers a
// non-trivial control signal so it can propagate to whatever frame
// consumes it.
func (f *Frame) nextStmt(j *Job, stmts []ast.Stmt) (doneAll bool, sig ctrlSignal, label string) {
	if f.seq == nil {
		f.seq = &seqState{}
	}
	if f.seq.i > 0 && j.lastSignal != sigNone {
		return true, j.lastSignal, j.lastLabel
	}
	if f.seq.i < len(stmts) {
		stmt := stmts[f.seq.i]
		f.seq.i++
		j.push(&Frame{Node: stmt, Scope: f.Scope})
		return false, sigNone, ""
	}
	return true, sigNone, ""
}

// Job is one running script: the explicit evaluation stack plus the
// transient slot each completed frame deposits its result into for its
// parent to read on the next step. Scheduler-level concerns
// (message map, queue linkage, refcount) are layered on top by package
// sched, which embeds *Job.
type Job struct {
	Program *ast.Program
	Global  *scope.Scope

	stack []*Frame

	lastValue  value.Value
	lastSignal ctrlSignal
	lastLabel  string

	Err    error
	Done   bool
	Result value.Value

	// Steps is the remaining step budget for the current tick. Step
	// itself does not touch it; sched.Engine.Tick decrements it by
	// exactly one after each Step call, so each stack-node step
	// consumes exactly one unit of the job's step budget.
	Steps int

	// Blocked is set by an internal function (via InternalCtx.Block)
	// that cannot complete synchronously, e.g. a script-side channel
	// receive with no host value waiting. The call frame that
	// invoked it is left on the stack, in the same phase, so the next
	// Step re-invokes the same internal function instead of resuming
	// mid-expression; package sched checks this flag after every Step
	// and moves the job to its blocked queue as soon as it is set.
	Blocked bool
}

// NewJob builds a job ready to run prog in the given global scope.
func NewJob(prog *ast.Program, global *scope.Scope) *Job {
	j := &Job{Program: prog, Global: global}
	j.push(&Frame{Node: prog, Scope: global})
	return j
}

func (j *Job) push(f *Frame) { j.stack = append(j.stack, f) }

func (j *Job) pop() *Frame {
	n := len(j.stack)
	f := j.stack[n-1]
	j.stack = j.stack[:n-1]
	return f
}

func (j *Job) top() *Frame {
	if len(j.stack) == 0 {
		return nil
	}
	return j.stack[len(j.stack)-1]
}

// Depth reports the current explicit stack depth, for tests and
// diagnostics.
func (j *Job) Depth() int { return len(j.stack) }

// currentSelf finds the nearest enclosing frame naming an object for
// `this`-style member lookup (ast.Member with a nil X), searching from
// the top of the stack outward.
func (j *Job) currentSelf() *value.Object {
	for i := len(j.stack) - 1; i >= 0; i-- {
		if j.stack[i].Self != nil {
			return j.stack[i].Self
		}
	}
	return nil
}

// Step advances the job by exactly one sub-step. It returns
// finished=true once the job's stack has emptied (success) or an error
// has been recorded; the scheduler calls Step in a loop bounded by
// Job.Steps (see sched.Engine.Tick).
func (j *Job) Step() (finished bool, err error) {
	if j.Err != nil {
		return true, j.Err
	}
	f := j.top()
	if f == nil {
		j.Done = true
		return true, nil
	}

	res, stepErr := dispatch(j, f)
	if stepErr != nil {
		j.Err = stepErr
		j.unwind()
		j.Done = true
		return true, stepErr
	}
	if !res.complete {
		return false, nil
	}

	j.pop()
	if f.blockScope != nil {
		f.blockScope = nil // scope is abandoned with the frame; nothing else references it
	}
	j.lastValue = res.value
	j.lastSignal = res.signal
	j.lastLabel = res.label

	if len(j.stack) == 0 {
		j.Done = true
		j.Result = res.value
		return true, nil
	}
	return false, nil
}

// Cancel drops every pending frame, marking the job done without a
// result. Used by the scheduler when the host cancels a job that is
// still mid-evaluation.
func (j *Job) Cancel() {
	j.unwind()
	j.Done = true
}

// unwind drops every remaining frame after an unrecoverable error,
// so no handler ever runs again for this job. Scopes opened by those
// frames are simply
// abandoned; Go's GC reclaims them, there is nothing left to flush.
func (j *Job) unwind() {
	j.stack = nil
}
