package sched

import (
	"fmt"
	"os"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/loomlang/loom/parser"
)

// Config is the engine's tunable triple: the per-tick step budget, the
// heartbeat period, and the open-file ceiling a host may lower.
type Config struct {
	MaxOpenFiles          int
	DefaultStep           int
	HeartbeatMicroseconds int
}

// DefaultConfig returns {67, 64, 500000}.
func DefaultConfig() Config {
	return Config{MaxOpenFiles: 67, DefaultStep: 64, HeartbeatMicroseconds: 500000}
}

// SourceKind selects how SubmitJob's source argument is interpreted.
type SourceKind uint8

const (
	// SourceFile treats the submitted source as a file path to read.
	SourceFile SourceKind = iota
	// SourceString treats the submitted source as inline script text.
	SourceString
)

// EngineOption configures a new Engine.
type EngineOption func(*Engine)

// WithConfig overrides the engine's {max_open_files, default_step,
// heartbeat_microseconds} triple.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) { e.cfg = cfg }
}

// WithLogger installs a *zap.Logger for job lifecycle diagnostics. The
// default is zap.NewNop(): a host that never asks for logging pays
// nothing for it, and no logging happens on the per-step hot path in
// any case, only at queue-transition boundaries, so it cannot perturb
// the step budget invariant.
func WithLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// Engine is the cooperative multi-job runtime: three job queues
// (wait, run, blocked) advanced one tick at a time by the host's event
// loop. Queue order matters only within run, which is serviced FIFO per
// tick; wait and blocked are unordered sets of jobs pending a
// state transition, so plain slices serve all three.
type Engine struct {
	cfg Config
	log *zap.Logger

	wait    []*Job
	run     []*Job
	blocked []*Job

	lastHeartbeat time.Time
}

// NewEngine constructs an Engine ready to accept jobs. There is no
// allocator argument (the Go runtime's garbage collector is loom's
// allocator) and no event-loop handle: the host drives the engine by
// calling Tick itself from whatever loop it already runs (see cmd/loomi
// for the simplest possible host).
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{cfg: DefaultConfig(), log: zap.NewNop(), lastHeartbeat: time.Now()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitJob accepts a new script: parse source (a file
// path or inline string per kind) into a Program, build a Job around it,
// and place the job on the wait queue for its first tick.
func (e *Engine) SubmitJob(kind SourceKind, source string, userData interface{}) (*Job, error) {
	var src string
	switch kind {
	case SourceFile:
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("loom: reading script %q: %w", source, err)
		}
		src = string(b)
	case SourceString:
		src = source
	default:
		return nil, fmt.Errorf("loom: unknown source kind %d", kind)
	}

	prog, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("loom: parse error: %w", err)
	}

	j := newJob(e, prog, userData)
	e.wait = append(e.wait, j)
	e.log.Debug("job submitted", zap.String("job", j.ID.String()))
	return j, nil
}

// Tick advances the whole engine by one round: move every waiting job onto
// the run queue, then advance each ready job by up to DefaultStep steps,
// moving it to blocked or dropping it (completed/errored) as its
// outcome dictates. A run-queue job that exhausts its budget without
// finishing or blocking stays on run for the next tick. Returns an
// aggregate of every job's terminal error via go-multierror: a single
// tick failing one job must never stop the others from being serviced.
func (e *Engine) Tick() error {
	if len(e.wait) > 0 {
		starting := e.wait
		e.wait = nil
		for _, j := range starting {
			j.state = stateRun
			e.run = append(e.run, j)
			e.log.Debug("job started", zap.String("job", j.ID.String()))
		}
	}

	// Service a snapshot of the run queue: a host handler fired from a
	// script-side send can wake another blocked job mid-tick, which
	// appends to e.run; the woken job is then serviced on the next
	// tick, never this one.
	running := e.run
	e.run = nil

	var errs error
	for _, j := range running {
		j.Steps = e.cfg.DefaultStep
		for j.Steps > 0 {
			finished, err := j.Step()
			j.Steps--
			if finished {
				j.state = stateDestroyed
				if err != nil {
					e.log.Warn("job failed", zap.String("job", j.ID.String()), zap.Error(err))
					errs = multierror.Append(errs, fmt.Errorf("job %s: %w", j.ID, err))
				} else {
					e.log.Debug("job completed", zap.String("job", j.ID.String()))
				}
				break
			}
			if j.Blocked {
				j.state = stateBlocked
				e.blocked = append(e.blocked, j)
				e.log.Debug("job blocked", zap.String("job", j.ID.String()))
				break
			}
		}
		if j.state == stateRun {
			e.run = append(e.run, j)
		}
	}

	e.checkHeartbeat()
	return errs
}

// checkHeartbeat runs at the end of each tick and fires at most once
// per Config.HeartbeatMicroseconds of wall-clock. loom has no
// timed-callback API of its own yet, so this only logs at Debug; the
// hook exists so a host layering timers on top of Tick has a single
// place to rate-limit against. The heartbeat bounds callback frequency,
// never tick frequency itself.
func (e *Engine) checkHeartbeat() {
	period := time.Duration(e.cfg.HeartbeatMicroseconds) * time.Microsecond
	if time.Since(e.lastHeartbeat) < period {
		return
	}
	e.lastHeartbeat = time.Now()
	e.log.Debug("heartbeat",
		zap.Int("run", len(e.run)),
		zap.Int("blocked", len(e.blocked)),
		zap.Int("wait", len(e.wait)))
}

// wake moves a job from the blocked queue back to run. Called by Job.SendFromHost when a
// host send satisfies a pending script-side receive.
func (e *Engine) wake(j *Job) {
	for i, b := range e.blocked {
		if b == j {
			e.blocked = append(e.blocked[:i], e.blocked[i+1:]...)
			break
		}
	}
	j.state = stateRun
	e.run = append(e.run, j)
	e.log.Debug("job woken", zap.String("job", j.ID.String()))
}

// Cancel implements the host's right to remove a job from any
// queue: the engine unwinds its stack and drops it from
// whichever queue currently holds it. Sibling jobs are unaffected.
// Cancel returns whatever error the job was already carrying (e.g. an
// uncaught runtime error recorded before the host got around to
// canceling it); a job canceled while still healthy returns nil.
func (e *Engine) Cancel(j *Job) error {
	e.run = removeJob(e.run, j)
	e.blocked = removeJob(e.blocked, j)
	e.wait = removeJob(e.wait, j)
	err := j.Err
	j.state = stateDestroyed
	j.Job.Cancel()
	e.log.Debug("job canceled", zap.String("job", j.ID.String()))
	return err
}

func removeJob(jobs []*Job, target *Job) []*Job {
	for i, j := range jobs {
		if j == target {
			return append(jobs[:i], jobs[i+1:]...)
		}
	}
	return jobs
}

// Shutdown cancels every job still on any queue, collecting each job's
// unwind outcome into a single aggregate error.
func (e *Engine) Shutdown() error {
	var errs error
	all := append(append(append([]*Job{}, e.wait...), e.run...), e.blocked...)
	for _, j := range all {
		if err := e.Cancel(j); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("job %s: %w", j.ID, err))
		}
	}
	e.wait, e.run, e.blocked = nil, nil, nil
	return errs
}

// Stats reports the current size of each queue, for hosts that want to
// expose engine health without reaching into package internals.
func (e *Engine) Stats() (wait, run, blocked int) {
	return len(e.wait), len(e.run), len(e.blocked)
}
