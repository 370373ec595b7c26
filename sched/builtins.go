package sched

import (
	"github.com/loomlang/loom/scope"
	"github.com/loomlang/loom/value"
)

// registerBuiltins binds the script-facing message primitives
// (msg_new, send, recv, msg_close) into a fresh job's global scope.
// These are the only scheduler-provided functions a script sees; every
// other host capability (value construction, the host side of a
// channel) is reached through the Go-facing Job/Engine API,
// never from script source.
func registerBuiltins(j *Job, global *scope.Scope) {
	bind(global, "msg_new", []string{"name"}, func(ctx value.InternalCtx) value.Value {
		name, _ := ctx.Arg("name")
		j.CreateChannel(name.Str())
		return value.Nil
	})
	bind(global, "msg_close", []string{"name"}, func(ctx value.InternalCtx) value.Value {
		name, _ := ctx.Arg("name")
		j.CloseChannel(name.Str())
		return value.Nil
	})
	bind(global, "send", []string{"name", "value"}, func(ctx value.InternalCtx) value.Value {
		name, _ := ctx.Arg("name")
		v, _ := ctx.Arg("value")
		c, ok := j.messages[name.Str()]
		if !ok {
			ctx.Errorf("send: unknown message channel %q", name.Str())
			return value.Nil
		}
		c.sendFromScript(v)
		return value.Nil
	})
	bind(global, "recv", []string{"name"}, func(ctx value.InternalCtx) value.Value {
		name, _ := ctx.Arg("name")
		c, ok := j.messages[name.Str()]
		if !ok {
			ctx.Errorf("recv: unknown message channel %q", name.Str())
			return value.Nil
		}
		v, ready := c.tryRecv()
		if !ready {
			ctx.Block()
			return value.Nil
		}
		return v
	})
}

func bind(global *scope.Scope, name string, params []string, fn value.InternalFunc) {
	v := value.NewVar(name, value.VarNormal, value.NewFunc(value.NewInternalFunc(name, params, fn)), nil)
	// Builtins are joined before any script code runs in this scope, so
	// a name collision here is a programming error in the engine, not a
	// user-facing duplicate declaration; ignoring it would hide that.
	if err := global.Join(name, &scope.Symbol{Kind: scope.SymVar, Var: v}); err != nil {
		panic("sched: builtin registration: " + err.Error())
	}
}
