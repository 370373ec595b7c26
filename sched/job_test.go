package sched

import (
	"testing"

	"github.com/loomlang/loom/value"
)

func TestRegisterFunctionIsCallableFromScript(t *testing.T) {
	e := NewEngine()
	j, err := e.SubmitJob(SourceString, `return double(21);`, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := j.RegisterFunction("double", []string{"n"}, func(ctx value.InternalCtx) value.Value {
		n, _ := ctx.Arg("n")
		v, _ := n.ToInt()
		return value.NewInt(v * 2)
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < 100 && !j.Done; i++ {
		e.Tick()
	}
	if j.Err != nil {
		t.Fatalf("job error: %v", j.Err)
	}
	if j.Result.Int() != 42 {
		t.Errorf("result = %d, want 42", j.Result.Int())
	}
}

func TestRegisterFunctionRejectsDuplicateName(t *testing.T) {
	e := NewEngine()
	j, err := e.SubmitJob(SourceString, `return 1;`, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := j.RegisterFunction("msg_new", nil, func(value.InternalCtx) value.Value { return value.Nil }); err == nil {
		t.Fatalf("expected duplicate declaration error registering over a builtin name")
	}
}

func TestHostErrorTerminatesJob(t *testing.T) {
	e := NewEngine()
	j, err := e.SubmitJob(SourceString, `fail(); return 1;`, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := j.RegisterFunction("fail", nil, func(ctx value.InternalCtx) value.Value {
		ctx.Errorf("host refused")
		return value.Nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	for i := 0; i < 100 && !j.Done; i++ {
		e.Tick()
	}
	if j.Err == nil {
		t.Fatalf("expected a host-raised error")
	}
}

func TestUnknownChannelOperationsAreErrors(t *testing.T) {
	e := NewEngine()
	j, err := e.SubmitJob(SourceString, `send("nope", 1);`, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	for i := 0; i < 100 && !j.Done; i++ {
		e.Tick()
	}
	if j.Err == nil {
		t.Fatalf("expected an unknown-channel host error")
	}

	if err := j.SendFromHost("also-nope", value.NewInt(1)); err == nil {
		t.Fatalf("expected SendFromHost to reject an unknown channel")
	}
}
