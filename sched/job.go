package sched

import (
	"github.com/google/uuid"

	"github.com/loomlang/loom/ast"
	"github.com/loomlang/loom/eval"
	"github.com/loomlang/loom/scope"
	"github.com/loomlang/loom/value"
)

// state is a Job's position among the engine's three queues.
type state uint8

const (
	stateWait state = iota
	stateRun
	stateBlocked
	stateDestroyed
)

func (s state) String() string {
	switch s {
	case stateWait:
		return "wait"
	case stateRun:
		return "run"
	case stateBlocked:
		return "blocked"
	default:
		return "destroyed"
	}
}

// Job is one running script plus the scheduler-level bookkeeping layered
// on top of eval.Job: identity, a host-supplied user data
// handle, the message channel map, and queue linkage. A host embedding
// the engine needs a stable handle to correlate a SubmitJob call with
// later log lines and message traffic, so ID is minted here.
type Job struct {
	*eval.Job

	ID       uuid.UUID
	UserData interface{}

	eng      *Engine
	state    state
	messages map[string]*channel
}

func newJob(eng *Engine, prog *ast.Program, userData interface{}) *Job {
	global := scope.New(scope.KindFunction, prog, nil)
	j := &Job{
		Job:      eval.NewJob(prog, global),
		ID:       uuid.New(),
		UserData: userData,
		eng:      eng,
		state:    stateWait,
		messages: make(map[string]*channel),
	}
	registerBuiltins(j, global)
	return j
}

// State reports which of the engine's queues this job currently sits
// in, for diagnostics and tests.
func (j *Job) State() string { return j.state.String() }

// CreateChannel opens a named
// channel for this job. Creating a channel that already exists is a
// no-op: scripts and host code may race to create the same channel
// without either side needing to check first.
func (j *Job) CreateChannel(name string) {
	if _, ok := j.messages[name]; ok {
		return
	}
	j.messages[name] = newChannel(name)
}

// CloseChannel removes a named channel from the job.
func (j *Job) CloseChannel(name string) {
	delete(j.messages, name)
}

// SetHostHandler registers fn to
// run synchronously whenever the script side of name sends a value.
// Creates the channel if it does not already exist, so a host can
// install a handler before the script gets around to msg_new-ing it.
func (j *Job) SetHostHandler(name string, fn HostHandler) {
	c, ok := j.messages[name]
	if !ok {
		c = newChannel(name)
		j.messages[name] = c
	}
	c.hostHandler = fn
}

// SendFromHost is the host side of a channel send: it deposits v
// in the named channel's host slot. If the job was blocked waiting on
// this channel, it is moved back onto the engine's run queue.
func (j *Job) SendFromHost(name string, v value.Value) error {
	c, ok := j.messages[name]
	if !ok {
		return &UnknownChannelError{Name: name}
	}
	wasWaiting := c.sendFromHost(v)
	if wasWaiting && j.state == stateBlocked {
		j.eng.wake(j)
	}
	return nil
}

// UnknownChannelError reports an operation against a channel name the
// job never created.
type UnknownChannelError struct{ Name string }

func (e *UnknownChannelError) Error() string { return "unknown message channel: " + e.Name }

// RegisterFunction binds a host-provided callback into this job's global
// scope under name, reading its actual arguments by the formal
// parameter names in params (via value.InternalCtx.Arg) the same way a
// script-defined function's body would. Unlike the scheduler's own
// builtins (msg_new/send/recv/msg_close), a duplicate name here is a
// plain error, not a panic: a host registering functions after
// SubmitJob is working against user-controlled data (the script may
// already declare something with that name).
func (j *Job) RegisterFunction(name string, params []string, fn value.InternalFunc) error {
	v := value.NewVar(name, value.VarNormal, value.NewFunc(value.NewInternalFunc(name, params, fn)), nil)
	return j.Global.Join(name, &scope.Symbol{Kind: scope.SymVar, Var: v})
}
