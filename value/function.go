package value

import "github.com/loomlang/loom/ast"

// FuncKind distinguishes an internal (host) function from an external
// (script-defined) one.
type FuncKind uint8

const (
	FuncInternal FuncKind = iota
	FuncExternal
)

// InternalCtx is the minimal surface an internal (host-provided)
// function needs: read its actual arguments by the formal parameter
// name they were bound to. Implemented by eval's call frame context, not
// by this package, so value stays free of any evaluator dependency.
type InternalCtx interface {
	// Arg returns the actual argument bound to the named formal
	// parameter. ok is false if no such parameter was bound.
	Arg(name string) (Value, bool)
	// Errorf attaches a *host-raised error* to the current job,
	// marking it for termination at the next stack unwind.
	Errorf(format string, args ...interface{})
	// Block marks the job as unable to complete this call
	// synchronously: the evaluator re-invokes the same internal function on the
	// job's next step instead of advancing, until a call completes
	// without calling Block again.
	Block()
}

// InternalFunc is a host callback. It runs synchronously inside one
// evaluator step and must not block: it may read the call's arguments
// through ctx and return the function's result, or call ctx.Errorf and
// return Nil to signal a host-raised error.
type InternalFunc func(ctx InternalCtx) Value

// Function is either an internal function (a host callback) or an
// external function (a parameter list plus a statement-tree body parsed
// from script source). Functions are first-class values.
type Function struct {
	Name     string
	Kind     FuncKind
	Params   []string
	Body     *ast.Block
	Internal InternalFunc
}

func NewExternalFunc(name string, params []string, body *ast.Block) *Function {
	return &Function{Name: name, Kind: FuncExternal, Params: params, Body: body}
}

// NewInternalFunc wraps a host callback as a callable Function. params
// names the formal arguments a call binds positionally, the same way
// NewExternalFunc's do, so the callback can read them back by name
// through InternalCtx.Arg.
func NewInternalFunc(name string, params []string, fn InternalFunc) *Function {
	return &Function{Name: name, Kind: FuncInternal, Params: params, Internal: fn}
}
