package verify

import (
	"testing"

	"github.com/shakfu/cgen-go/internal/analysis"
	"github.com/shakfu/cgen-go/internal/core"
	"github.com/shakfu/cgen-go/internal/parser"
	"github.com/shakfu/cgen-go/internal/smt"
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

func runAnalyses(t *testing.T, prog *core.Program) map[string]*analysis.Report {
	t.Helper()
	ctx := &analysis.Context{Program: prog, PriorReports: map[string]*analysis.Report{}}
	cf, err := (&analysis.ControlFlowAnalyzer{}).Analyze(ctx)
	if err != nil {
		t.Fatalf("control-flow: %v", err)
	}
	ctx.PriorReports["control-flow"] = cf
	bounds, err := (&analysis.BoundsChecker{}).Analyze(ctx)
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	ctx.PriorReports["bounds"] = bounds
	cg, err := (&analysis.CallGraphAnalyzer{}).Analyze(ctx)
	if err != nil {
		t.Fatalf("call-graph: %v", err)
	}
	ctx.PriorReports["call-graph"] = cg
	return ctx.PriorReports
}

func TestBoundsProverDegradesToHeuristicUnderMockBackend(t *testing.T) {
	prog := buildProgram(t, "def f() -> int:\n    a = [1, 2, 3]\n    return a[5]\n")
	reports := runAnalyses(t, prog)
	ctx := &Context{Program: prog, AnalysisReports: reports}
	report, err := (&BoundsProver{}).Verify(ctx)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(report.Verdicts) != 1 {
		t.Fatalf("expected 1 verdict, got %d", len(report.Verdicts))
	}
	v := report.Verdicts[0]
	if v.Result != smt.Unknown { // mock backend always answers Unknown
		t.Errorf("expected Unknown result under the mock backend, got %v", v.Result)
	}
	if v.Message == "" {
		t.Error("expected a heuristic fallback message")
	}
}

func TestPerformanceAnalyzerClassifiesLinearRecursion(t *testing.T) {
	prog := buildProgram(t, "def f(n: int) -> int:\n    if n <= 1:\n        return 1\n    return n * f(n - 1)\n")
	reports := runAnalyses(t, prog)
	ctx := &Context{Program: prog, AnalysisReports: reports}
	report, err := (&PerformanceAnalyzer{}).Verify(ctx)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	complexities := report.Metadata["complexity"].([]ComplexityReport)
	if len(complexities) != 1 || complexities[0].Time != ON {
		t.Fatalf("expected single-self-call recursion to classify O(n), got %#v", complexities)
	}
}

func TestPerformanceAnalyzerClassifiesExponentialRecursion(t *testing.T) {
	prog := buildProgram(t, "def fib(n: int) -> int:\n    if n <= 1:\n        return n\n    return fib(n - 1) + fib(n - 2)\n")
	reports := runAnalyses(t, prog)
	ctx := &Context{Program: prog, AnalysisReports: reports}
	report, err := (&PerformanceAnalyzer{}).Verify(ctx)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	complexities := report.Metadata["complexity"].([]ComplexityReport)
	var fib ComplexityReport
	for _, c := range complexities {
		if c.Function == "fib" {
			fib = c
		}
	}
	if fib.Time != O2N {
		t.Errorf("expected double-self-call recursion to classify O(2^n), got %s", fib.Time)
	}
	if len(fib.Suggestions) == 0 {
		t.Error("expected a memoization suggestion for exponential recursion")
	}
}

func TestCorrectnessProverSkipsUnannotatedFunctions(t *testing.T) {
	prog := buildProgram(t, "def f(x: int) -> int:\n    return x + 1\n")
	ctx := &Context{Program: prog, AnalysisReports: map[string]*analysis.Report{}}
	report, err := (&CorrectnessProver{}).Verify(ctx)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(report.Verdicts) != 0 {
		t.Errorf("expected no verdicts for an unannotated function, got %d", len(report.Verdicts))
	}
}
