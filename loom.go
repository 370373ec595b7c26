// Package loom is the host-facing API of the runtime: engine and job
// lifecycle, value construction, and the message channel facility.
// Everything else (the AST, lexer, parser, value/scope/set model,
// operator tables, the evaluator, and the scheduler) lives in its own
// package and is consumed here, not reimplemented; a host only ever
// needs to import this one package.
package loom

import (
	"github.com/loomlang/loom/sched"
	"github.com/loomlang/loom/value"
)

// Engine is the cooperative multi-job runtime.
type Engine = sched.Engine

// Job is one running script plus its message channels.
type Job = sched.Job

// Config is the engine's {max_open_files, default_step,
// heartbeat_microseconds} triple.
type Config = sched.Config

// SourceKind selects how SubmitJob's source argument is interpreted.
type SourceKind = sched.SourceKind

// EngineOption configures a new Engine; see WithConfig and WithLogger.
type EngineOption = sched.EngineOption

// HostHandler reacts to a script-side channel send without polling.
type HostHandler = sched.HostHandler

// Value is loom's tagged value: the type host code reads
// results from and constructs arguments with.
type Value = value.Value

// InternalCtx is what a host-registered function reads its bound
// arguments from.
type InternalCtx = value.InternalCtx

// InternalFunc is a host callback bound into a job's scope via
// Job.RegisterFunction. It runs synchronously inside one evaluator step
// and must not block.
type InternalFunc = value.InternalFunc

const (
	// SourceFile treats SubmitJob's source argument as a file path.
	SourceFile = sched.SourceFile
	// SourceString treats SubmitJob's source argument as inline script
	// text.
	SourceString = sched.SourceString
)

// NewEngine constructs an Engine ready to accept jobs.
func NewEngine(opts ...EngineOption) *Engine { return sched.NewEngine(opts...) }

// DefaultConfig returns the engine's {67, 64, 500000} defaults.
func DefaultConfig() Config { return sched.DefaultConfig() }

// WithConfig overrides an Engine's step/heartbeat/file-limit triple.
func WithConfig(cfg Config) EngineOption { return sched.WithConfig(cfg) }

// WithLogger installs a *zap.Logger for engine/job lifecycle
// diagnostics; see sched.WithLogger.
var WithLogger = sched.WithLogger

// ---- value construction helpers ----

// Nil returns loom's shared nil value.
func Nil() Value { return value.Nil }

// Bool constructs a bool value.
func Bool(b bool) Value { return value.NewBool(b) }

// Int constructs a 64-bit signed integer value.
func Int(n int64) Value { return value.NewInt(n) }

// Real constructs a double-precision real value.
func Real(r float64) Value { return value.NewReal(r) }

// String constructs an immutable string value.
func String(s string) Value { return value.NewString(s) }

// NewArray constructs an empty dual-indexed array value.
func NewArray() Value { return value.NewArray(value.NewEmptyArray()) }
