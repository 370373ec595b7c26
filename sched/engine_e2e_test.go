package sched

import (
	"testing"

	"github.com/loomlang/loom/value"
)

// runToCompletion ticks e until job has left the run/blocked queues or
// the iteration bound is hit, whichever comes first.
func runToCompletion(t *testing.T, e *Engine, j *Job, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		e.Tick()
		if j.Done || j.Err != nil {
			return
		}
	}
	t.Fatalf("job did not complete within %d ticks", maxTicks)
}

func TestE2E_ArithmeticAndReturn(t *testing.T) {
	e := NewEngine()
	j, err := e.SubmitJob(SourceString, `a = 1; b = 2; return a + b;`, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	runToCompletion(t, e, j, 1000)
	if j.Err != nil {
		t.Fatalf("job error: %v", j.Err)
	}
	if j.Result.Int() != 3 {
		t.Errorf("result = %d, want 3", j.Result.Int())
	}
}

func TestE2E_StringCoercion(t *testing.T) {
	e := NewEngine()
	j, err := e.SubmitJob(SourceString, `s = "12"; i = s + 0; return i * 2;`, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	runToCompletion(t, e, j, 1000)
	if j.Result.Int() != 24 {
		t.Errorf("result = %d, want 24", j.Result.Int())
	}
}

func TestE2E_SetConstructionAndMembers(t *testing.T) {
	e := NewEngine()
	src := `
	Set Point { x; y; }
	p = Point();
	p.x = 3;
	p.y = 4;
	return p.x + p.y;
	`
	j, err := e.SubmitJob(SourceString, src, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	runToCompletion(t, e, j, 1000)
	if j.Result.Int() != 7 {
		t.Errorf("result = %d, want 7", j.Result.Int())
	}
}

func TestE2E_ArrayDualIndex(t *testing.T) {
	e := NewEngine()
	src := `a = []; a[0] = "x"; a["k"] = "y"; return a[0] + a["k"];`
	j, err := e.SubmitJob(SourceString, src, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	runToCompletion(t, e, j, 1000)
	if j.Result.Kind() != value.KindString || j.Result.Str() != "xy" {
		t.Errorf("result = %#v, want string xy", j.Result)
	}
}

// TestE2E_MessageRoundTrip: a job sends on a
// channel it owns, a host-side handler echoes val*2 back through the
// same channel's host slot, and the job's recv unblocks with 84.
func TestE2E_MessageRoundTrip(t *testing.T) {
	e := NewEngine()
	src := `msg_new("c"); send("c", 42); result = recv("c"); return result;`
	j, err := e.SubmitJob(SourceString, src, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// A host registers its handler before the engine ever ticks the
	// script, the way an embedder wires up channels it expects a script
	// to use. SetHostHandler creates the channel if the script hasn't
	// called msg_new yet, so registration order relative to the
	// script's own msg_new is not load-bearing.
	j.SetHostHandler("c", func(v value.Value) {
		n, _ := v.ToInt()
		if err := j.SendFromHost("c", value.NewInt(n*2)); err != nil {
			t.Errorf("send from host: %v", err)
		}
	})

	runToCompletion(t, e, j, 1000)
	if j.Err != nil {
		t.Fatalf("job error: %v", j.Err)
	}
	if j.Result.Int() != 84 {
		t.Errorf("result = %d, want 84", j.Result.Int())
	}
}

// TestE2E_CooperativeInterleaving: an infinite
// loop in one job never starves a sibling job of scheduler time, because
// each tick bounds every ready job to Config.DefaultStep steps.
func TestE2E_CooperativeInterleaving(t *testing.T) {
	e := NewEngine(WithConfig(Config{MaxOpenFiles: 67, DefaultStep: 8, HeartbeatMicroseconds: 500000}))

	busy, err := e.SubmitJob(SourceString, `while (1) { }`, nil)
	if err != nil {
		t.Fatalf("submit busy: %v", err)
	}
	quick, err := e.SubmitJob(SourceString, `return 7;`, nil)
	if err != nil {
		t.Fatalf("submit quick: %v", err)
	}

	for i := 0; i < 50 && !quick.Done; i++ {
		e.Tick()
	}
	if !quick.Done {
		t.Fatalf("quick job never completed")
	}
	if quick.Result.Int() != 7 {
		t.Errorf("quick result = %d, want 7", quick.Result.Int())
	}
	if busy.Done {
		t.Errorf("busy job should still be running (it never terminates)")
	}
	wait, run, blocked := e.Stats()
	if run == 0 && wait == 0 {
		t.Errorf("busy job should still occupy a queue, got wait=%d run=%d blocked=%d", wait, run, blocked)
	}
}

func TestE2E_UncaughtErrorDoesNotAffectSiblingJob(t *testing.T) {
	e := NewEngine()
	bad, err := e.SubmitJob(SourceString, `return undeclared;`, nil)
	if err != nil {
		t.Fatalf("submit bad: %v", err)
	}
	good, err := e.SubmitJob(SourceString, `return 5;`, nil)
	if err != nil {
		t.Fatalf("submit good: %v", err)
	}

	for i := 0; i < 50 && (!bad.Done || !good.Done); i++ {
		e.Tick()
	}
	if bad.Err == nil {
		t.Fatalf("expected bad job to record an error")
	}
	if good.Err != nil {
		t.Fatalf("sibling job was affected by bad job's error: %v", good.Err)
	}
	if good.Result.Int() != 5 {
		t.Errorf("good result = %d, want 5", good.Result.Int())
	}
}

func TestE2E_ShutdownCancelsOutstandingJobs(t *testing.T) {
	e := NewEngine()
	j, err := e.SubmitJob(SourceString, `msg_new("c"); recv("c");`, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	e.Tick()
	e.Tick()
	if j.Done {
		t.Fatalf("job should still be blocked on recv")
	}
	if err := e.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if j.State() != "destroyed" {
		t.Errorf("job state = %q, want destroyed", j.State())
	}
	wait, run, blocked := e.Stats()
	if wait != 0 || run != 0 || blocked != 0 {
		t.Errorf("expected all queues empty after shutdown, got wait=%d run=%d blocked=%d", wait, run, blocked)
	}
}
