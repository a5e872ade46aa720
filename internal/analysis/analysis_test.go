package analysis

import (
	"testing"

	"github.com/shakfu/cgen-go/internal/core"
	"github.com/shakfu/cgen-go/internal/parser"
	"github.com/shakfu/cgen-go/internal/types"
)

func buildProgram(t *testing.T, src string) *core.Program {
	t.Helper()
	mod, err := parser.ParseModule(src, "test.py")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	env := types.NewTypeEnv()
	ti := types.NewTypeInferencer(env)
	ann, err := ti.InferModule(mod)
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	prog, err := core.NewBuilder(env, ann).BuildModule(mod)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return prog
}

func TestCallGraphFindsRecursiveFactorial(t *testing.T) {
	prog := buildProgram(t, "def f(n: int) -> int:\n    if n <= 1:\n        return 1\n    return n * f(n - 1)\n")
	ctx := &Context{Program: prog, PriorReports: map[string]*Report{}}

	cfReport, err := (&ControlFlowAnalyzer{}).Analyze(ctx)
	if err != nil {
		t.Fatalf("control-flow: %v", err)
	}
	ctx.PriorReports["control-flow"] = cfReport

	cgReport, err := (&CallGraphAnalyzer{}).Analyze(ctx)
	if err != nil {
		t.Fatalf("call-graph: %v", err)
	}
	foundSelfRecursion := false
	for _, fn := range cgReport.Findings {
		if fn.Message != "" && containsAll(fn.Message, "leaf") {
			t.Errorf("f calls itself, should not be reported as a leaf function: %q", fn.Message)
		}
	}
	graph := cgReport.Metadata["graph"].(*CallGraph)
	for _, site := range graph.Sites {
		if site.Context == RecursiveSelf {
			foundSelfRecursion = true
		}
	}
	if !foundSelfRecursion {
		t.Error("expected a recursive-self call site for f calling f")
	}
}

func TestBoundsCheckerClassifiesLoopIndexSafe(t *testing.T) {
	prog := buildProgram(t, "def f(a: list[int]) -> int:\n    s = 0\n    for i in range(len(a)):\n        s += a[i]\n    return s\n")
	ctx := &Context{Program: prog, PriorReports: map[string]*Report{}}
	report, err := (&BoundsChecker{}).Analyze(ctx)
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	obligations := report.Metadata["obligations"].([]Obligation)
	if len(obligations) != 1 {
		t.Fatalf("expected 1 obligation, got %d", len(obligations))
	}
	if obligations[0].Safety != Safe {
		t.Errorf("expected a[i] under for i in range(len(a)) to classify safe, got %s", obligations[0].Safety)
	}
}

func TestBoundsCheckerClassifiesLiteralOutOfRangeUnsafe(t *testing.T) {
	prog := buildProgram(t, "def f() -> int:\n    a = [1, 2, 3]\n    return a[5]\n")
	ctx := &Context{Program: prog, PriorReports: map[string]*Report{}}
	report, err := (&BoundsChecker{}).Analyze(ctx)
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	obligations := report.Metadata["obligations"].([]Obligation)
	if len(obligations) != 1 || obligations[0].Safety != Unsafe {
		t.Fatalf("expected a[5] on a 3-element literal to classify unsafe, got %#v", obligations)
	}
}

func TestSymbolicExecutorFlagsSymbolicDivision(t *testing.T) {
	prog := buildProgram(t, "def div(a: int, b: int) -> int:\n    return a / b\n")
	ctx := &Context{Program: prog, PriorReports: map[string]*Report{}}
	report, err := (&SymbolicExecutor{}).Analyze(ctx)
	if err != nil {
		t.Fatalf("symbolic: %v", err)
	}
	found := false
	for _, f := range report.Findings {
		if f.Severity == "warning" {
			found = true
		}
	}
	if !found {
		t.Error("expected a division-by-symbolic-expression warning")
	}
}

func containsAll(s, sub string) bool {
	return len(s) >= len(sub) && indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
