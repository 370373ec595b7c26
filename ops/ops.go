// Package ops implements the per-type operator dispatch tables: every arithmetic, relational, logical, bitwise and mutation
// operator the evaluator applies to a value.Value pair or single operand.
// An operator is always dispatched on the left (or, for unary, the only)
// operand's kind; a handler that cannot make sense of its operand kind
// returns a *value.TypeError, which the evaluator turns into a runtime
// error on the job.
package ops

import (
	"math"

	"github.com/loomlang/loom/value"
)

// DivisionByZeroError reports integer division or modulo by zero.
// Real division by zero is not an error: it follows IEEE 754 (±Inf/NaN).
type DivisionByZeroError struct{ Op string }

func (e *DivisionByZeroError) Error() string { return "division by zero: " + e.Op }

// Binary applies a two-operand operator. op is the token spelling (e.g.
// "+", "<<", "||", "&" for the compound-assign lowering of `|=`/`&=`/`^=`,
// which have no standalone surface syntax but still need a binary
// computation to implement the compound form).
func Binary(op string, l, r value.Value) (value.Value, error) {
	switch op {
	case "||":
		return value.NewBool(l.Truthy() || r.Truthy()), nil
	case "&&":
		return value.NewBool(l.Truthy() && r.Truthy()), nil
	case "^^":
		return value.NewBool(l.Truthy() != r.Truthy()), nil
	case "==":
		return value.NewBool(l.Equals(r)), nil
	case "!=":
		return value.NewBool(!l.Equals(r)), nil
	case "<", "<=", ">", ">=":
		c, err := l.Compare(r)
		if err != nil {
			return value.Nil, err
		}
		switch op {
		case "<":
			return value.NewBool(c < 0), nil
		case "<=":
			return value.NewBool(c <= 0), nil
		case ">":
			return value.NewBool(c > 0), nil
		default:
			return value.NewBool(c >= 0), nil
		}
	case "<<", ">>", "&", "|", "^":
		return bitwise(op, l, r)
	case "+", "-", "*", "/", "%":
		return arith(op, l, r)
	}
	return value.Nil, &value.TypeError{Op: op, Kind: l.Kind()}
}

// arith dispatches +, -, *, /, % on the left operand's kind. String `+`
// is overloaded: string+string concatenates, string+number coerces the
// string to a number first (so `s = "12"; i = s + 0;` yields the int 12,
// not the string "120").
func arith(op string, l, r value.Value) (value.Value, error) {
	switch l.Kind() {
	case value.KindString:
		if op != "+" {
			return value.Nil, &value.TypeError{Op: op, Kind: l.Kind()}
		}
		if r.Kind() == value.KindString {
			return value.NewString(l.Str() + r.Str()), nil
		}
		a, err := l.ToInt()
		if err != nil {
			return value.Nil, err
		}
		b, err := r.ToInt()
		if err != nil {
			return value.Nil, err
		}
		return value.NewInt(a + b), nil
	case value.KindReal:
		a := l.Real()
		b, err := r.ToReal()
		if err != nil {
			return value.Nil, err
		}
		return arithReal(op, a, b)
	case value.KindInt, value.KindBool:
		if r.Kind() == value.KindReal {
			a, _ := l.ToReal()
			return arithReal(op, a, r.Real())
		}
		a, err := l.ToInt()
		if err != nil {
			return value.Nil, err
		}
		b, err := r.ToInt()
		if err != nil {
			return value.Nil, err
		}
		return arithInt(op, a, b)
	default:
		return value.Nil, &value.TypeError{Op: op, Kind: l.Kind()}
	}
}

// arithInt implements integer arithmetic: overflow wraps modulo
// 2^64 interpreted as signed, which is exactly what Go's int64 already
// does, so no explicit wrapping is needed beyond using int64 throughout.
func arithInt(op string, a, b int64) (value.Value, error) {
	switch op {
	case "+":
		return value.NewInt(a + b), nil
	case "-":
		return value.NewInt(a - b), nil
	case "*":
		return value.NewInt(a * b), nil
	case "/":
		if b == 0 {
			return value.Nil, &DivisionByZeroError{Op: "/"}
		}
		return value.NewInt(a / b), nil
	case "%":
		if b == 0 {
			return value.Nil, &DivisionByZeroError{Op: "%"}
		}
		return value.NewInt(a % b), nil
	}
	return value.Nil, &value.TypeError{Op: op, Kind: value.KindInt}
}

// arithReal implements real arithmetic, which follows IEEE 754 as-is:
// division and modulo by zero produce ±Inf/NaN rather than an error.
func arithReal(op string, a, b float64) (value.Value, error) {
	switch op {
	case "+":
		return value.NewReal(a + b), nil
	case "-":
		return value.NewReal(a - b), nil
	case "*":
		return value.NewReal(a * b), nil
	case "/":
		return value.NewReal(a / b), nil
	case "%":
		return value.NewReal(math.Mod(a, b)), nil
	}
	return value.Nil, &value.TypeError{Op: op, Kind: value.KindReal}
}

// bitwise implements <<, >>, &, |, ^. These only make sense on integral
// operands; the left operand is coerced from bool, the right from
// bool/real/string via the usual ToInt table.
func bitwise(op string, l, r value.Value) (value.Value, error) {
	switch l.Kind() {
	case value.KindInt, value.KindBool:
		a, err := l.ToInt()
		if err != nil {
			return value.Nil, err
		}
		b, err := r.ToInt()
		if err != nil {
			return value.Nil, err
		}
		switch op {
		case "<<":
			return value.NewInt(a << uint64(b)), nil
		case ">>":
			return value.NewInt(a >> uint64(b)), nil
		case "&":
			return value.NewInt(a & b), nil
		case "|":
			return value.NewInt(a | b), nil
		case "^":
			return value.NewInt(a ^ b), nil
		}
	}
	return value.Nil, &value.TypeError{Op: op, Kind: l.Kind()}
}

// Unary applies a prefix operator: -, ~, !, ++, --. ++ and -- return the
// post-increment/decrement value; the evaluator is responsible for
// writing it back into the operand's variable.
func Unary(op string, x value.Value) (value.Value, error) {
	switch op {
	case "!":
		return value.NewBool(!x.Truthy()), nil
	case "-":
		switch x.Kind() {
		case value.KindReal:
			return value.NewReal(-x.Real()), nil
		case value.KindInt, value.KindBool:
			n, err := x.ToInt()
			if err != nil {
				return value.Nil, err
			}
			return value.NewInt(-n), nil
		default:
			return value.Nil, &value.TypeError{Op: op, Kind: x.Kind()}
		}
	case "~":
		n, err := x.ToInt()
		if err != nil {
			return value.Nil, err
		}
		return value.NewInt(^n), nil
	case "++":
		return IncDec("++", x)
	case "--":
		return IncDec("--", x)
	}
	return value.Nil, &value.TypeError{Op: op, Kind: x.Kind()}
}

// IncDec computes the new value for ++/-- on both the prefix and suffix
// forms; the evaluator decides which value (pre or post) the expression
// yields.
func IncDec(op string, x value.Value) (value.Value, error) {
	switch x.Kind() {
	case value.KindReal:
		if op == "++" {
			return value.NewReal(x.Real() + 1), nil
		}
		return value.NewReal(x.Real() - 1), nil
	case value.KindInt, value.KindBool:
		n, err := x.ToInt()
		if err != nil {
			return value.Nil, err
		}
		if op == "++" {
			return value.NewInt(n + 1), nil
		}
		return value.NewInt(n - 1), nil
	default:
		return value.Nil, &value.TypeError{Op: op, Kind: x.Kind()}
	}
}

// CompoundOp maps a compound-assignment token spelling to the binary
// operator it lowers to: `x += y` computes `x + y` and assigns it back.
var CompoundOp = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	"<<=": "<<", ">>=": ">>", "|=": "|", "&=": "&", "^=": "^",
}
