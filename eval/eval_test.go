package eval

import (
	"testing"

	"github.com/loomlang/loom/parser"
	"github.com/loomlang/loom/scope"
	"github.com/loomlang/loom/value"
)

// run parses src and drives a fresh Job to completion in a single call,
// as if an unbounded step budget were available. Tests that care about
// step-by-step suspension call Step themselves instead.
func run(t *testing.T, src string) *Job {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	global := scope.New(scope.KindFunction, prog, nil)
	j := NewJob(prog, global)
	for i := 0; i < 100000; i++ {
		finished, err := j.Step()
		if err != nil {
			t.Fatalf("step error: %v", err)
		}
		if finished {
			return j
		}
	}
	t.Fatalf("job did not finish within step bound")
	return nil
}

func TestArithmeticAndReturn(t *testing.T) {
	j := run(t, `a = 1; b = 2; return a + b * 3;`)
	if j.Result.Int() != 7 {
		t.Errorf("result = %d, want 7", j.Result.Int())
	}
}

func TestStringPlusNumberCoercesStringToInt(t *testing.T) {
	j := run(t, `s = "12"; i = s + 0; return i;`)
	if j.Result.Kind() != value.KindInt || j.Result.Int() != 12 {
		t.Errorf("result = %#v, want int 12", j.Result)
	}
}

func TestIfElseBranches(t *testing.T) {
	j := run(t, `a = 5; if (a < 10) { b = 1; } else { b = 2; } return b;`)
	if j.Result.Int() != 1 {
		t.Errorf("result = %d, want 1", j.Result.Int())
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	j := run(t, `i = 0; sum = 0; while (i < 5) { sum = sum + i; i = i + 1; } return sum;`)
	if j.Result.Int() != 10 {
		t.Errorf("result = %d, want 10", j.Result.Int())
	}
}

func TestForLoopWithBreakAndContinue(t *testing.T) {
	j := run(t, `
	sum = 0;
	for (i = 0; i < 10; i = i + 1) {
		if (i == 5) { break; }
		if (i % 2 == 0) { continue; }
		sum = sum + i;
	}
	return sum;
	`)
	// odd i in 1,3 (5 stops the loop before it is added): 1+3 = 4
	if j.Result.Int() != 4 {
		t.Errorf("result = %d, want 4", j.Result.Int())
	}
}

func TestSwitchFallsThroughToDefault(t *testing.T) {
	j := run(t, `
	a = 9;
	switch (a) {
	case 1:
		b = 1;
	case 2:
		b = 2;
	default:
		b = 3;
	}
	return b;
	`)
	if j.Result.Int() != 3 {
		t.Errorf("result = %d, want 3", j.Result.Int())
	}
}

func TestFunctionCallReturnsValue(t *testing.T) {
	j := run(t, `
	func add(a, b) { return a + b; }
	return add(3, 4);
	`)
	if j.Result.Int() != 7 {
		t.Errorf("result = %d, want 7", j.Result.Int())
	}
}

func TestFunctionArgumentsAreCopiedByValue(t *testing.T) {
	j := run(t, `
	func bump(n) { n = n + 1; return n; }
	x = 1;
	y = bump(x);
	return x + y;
	`)
	// x must be unaffected by bump's local rebind of its copy: 1 + 2 = 3
	if j.Result.Int() != 3 {
		t.Errorf("result = %d, want 3", j.Result.Int())
	}
}

func TestSetConstructionAndMemberAccess(t *testing.T) {
	j := run(t, `
	Set Point {
		x;
		y;
	}
	p = Point();
	p.x = 3;
	p.y = 4;
	return p.x + p.y;
	`)
	if j.Result.Int() != 7 {
		t.Errorf("result = %d, want 7", j.Result.Int())
	}
}

func TestSetConstructorRunsWithThisBound(t *testing.T) {
	j := run(t, `
	Set Counter {
		n;
		func Counter(start) {
			.n = start;
		}
		func bump() {
			.n = .n + 1;
			return .n;
		}
	}
	c = Counter(10);
	a = c.bump();
	b = c.bump();
	return a + b;
	`)
	if j.Result.Int() != 23 {
		t.Errorf("result = %d, want 23 (11 + 12)", j.Result.Int())
	}
}

func TestScriptReferenceVariableSharesWrites(t *testing.T) {
	j := run(t, `x = 1; ref y = x; y = 5; return x + y;`)
	if j.Result.Int() != 10 {
		t.Errorf("result = %d, want 10 (both x and y read 5)", j.Result.Int())
	}
}

func TestScalarAssignmentCopies(t *testing.T) {
	j := run(t, `x = 1; z = x; ref y = x; y = 9; return z;`)
	// z took a copy of x's value before y's write-through, so z is
	// unaffected by the mutation x observes.
	if j.Result.Int() != 1 {
		t.Errorf("result = %d, want 1", j.Result.Int())
	}
}

func TestRecursiveFunctionCall(t *testing.T) {
	j := run(t, `
	func fact(n) {
		if (n < 2) { return 1; }
		return n * fact(n - 1);
	}
	return fact(6);
	`)
	if j.Result.Int() != 720 {
		t.Errorf("result = %d, want 720", j.Result.Int())
	}
}

func TestCompoundAssignAndIncDec(t *testing.T) {
	j := run(t, `x = 1; x += 4; x++; ++x; return x;`)
	if j.Result.Int() != 7 {
		t.Errorf("result = %d, want 7", j.Result.Int())
	}
}

func TestArrayDualKeyAutoAndExplicit(t *testing.T) {
	j := run(t, `
	a = [];
	a[0] = "x";
	a["k"] = "y";
	return a[0] + a["k"];
	`)
	if j.Result.Kind() != value.KindString || j.Result.Str() != "xy" {
		t.Errorf("result = %#v, want string xy", j.Result)
	}
}

func TestGotoLabelWithinFunction(t *testing.T) {
	j := run(t, `
	i = 0;
	loop:
	i = i + 1;
	if (i < 3) { goto loop; }
	return i;
	`)
	if j.Result.Int() != 3 {
		t.Errorf("result = %d, want 3", j.Result.Int())
	}
}

func TestStepBudgetSuspendsMidEvaluation(t *testing.T) {
	prog, err := parser.Parse(`a = 1; b = 2; return a + b;`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	global := scope.New(scope.KindFunction, prog, nil)
	j := NewJob(prog, global)

	finished, err := j.Step()
	if err != nil {
		t.Fatalf("step error: %v", err)
	}
	if finished {
		t.Fatalf("job should not finish after a single step")
	}
	if j.Depth() == 0 {
		t.Fatalf("stack should not be empty mid-evaluation")
	}

	for !finished {
		finished, err = j.Step()
		if err != nil {
			t.Fatalf("step error: %v", err)
		}
	}
	if j.Result.Int() != 3 {
		t.Errorf("result = %d, want 3", j.Result.Int())
	}
}

func TestUndefinedSymbolIsRuntimeError(t *testing.T) {
	prog, err := parser.Parse(`return undeclared;`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	global := scope.New(scope.KindFunction, prog, nil)
	j := NewJob(prog, global)
	var stepErr error
	finished := false
	for !finished {
		finished, stepErr = j.Step()
	}
	if stepErr == nil {
		t.Fatalf("expected an undefined symbol error")
	}
	if _, ok := stepErr.(*UndefinedSymbolError); !ok {
		t.Errorf("error = %#v, want *UndefinedSymbolError", stepErr)
	}
}

func TestRefDeclWithoutInitializerIsRejected(t *testing.T) {
	prog, err := parser.Parse(`ref x; return x;`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	global := scope.New(scope.KindFunction, prog, nil)
	j := NewJob(prog, global)
	var stepErr error
	finished := false
	for !finished {
		finished, stepErr = j.Step()
	}
	if stepErr == nil {
		t.Fatalf("expected a missing-reference-target error")
	}
	if _, ok := stepErr.(*MissingReferenceTargetError); !ok {
		t.Errorf("error = %#v, want *MissingReferenceTargetError", stepErr)
	}
}
