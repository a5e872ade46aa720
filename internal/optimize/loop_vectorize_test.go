package optimize

import (
	"testing"

	"github.com/shakfu/cgen-go/internal/analysis"
)

func TestLoopAnalyzerClassifiesAccumulatorAndComputesIterationCount(t *testing.T) {
	prog := buildProgram(t, "def f() -> int:\n    s = 0\n    for i in range(0, 8, 1):\n        s += i\n    return s\n")
	ctx := &Context{Program: prog}
	result, err := (&LoopAnalyzer{}).Optimize(ctx)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	loops := result.Metadata["loops"].([]LoopInfo)
	if len(loops) != 1 {
		t.Fatalf("expected 1 loop, got %d", len(loops))
	}
	if loops[0].Kind != Accumulator {
		t.Errorf("expected accumulator classification, got %s", loops[0].Kind)
	}
	if loops[0].IterationCount != 8 {
		t.Errorf("expected iteration count 8, got %d", loops[0].IterationCount)
	}
	foundUnroll := false
	for _, tr := range loops[0].Transforms {
		if tr == "unroll" {
			foundUnroll = true
		}
	}
	if !foundUnroll {
		t.Error("expected unroll suggestion for an 8-iteration counter loop")
	}
}

func TestLoopAnalyzerGainCappedAtFive(t *testing.T) {
	prog := buildProgram(t, "def f(a: list[int], b: list[int]) -> int:\n    s = 0\n    for i in range(0, 4, 1):\n        s = s + a[i] * b[i]\n    return s\n")
	ctx := &Context{Program: prog}
	result, err := (&LoopAnalyzer{}).Optimize(ctx)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if result.PerformanceGainEstimate > 5.0 {
		t.Errorf("expected gain estimate capped at 5x, got %f", result.PerformanceGainEstimate)
	}
}

func TestFunctionSpecializerFindsConstantFoldCandidate(t *testing.T) {
	src := "def pow2(base: int, exp: int) -> int:\n    return base\n" +
		"def a() -> int:\n    return pow2(1, 2)\n" +
		"def b() -> int:\n    return pow2(1, 3)\n" +
		"def c() -> int:\n    return pow2(1, 4)\n"
	prog := buildProgram(t, src)
	ctx := &Context{Program: prog, AnalysisReports: map[string]*analysis.Report{}}
	result, err := (&FunctionSpecializer{}).Optimize(ctx)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	candidates := result.Metadata["candidates"].([]SpecializationCandidate)
	found := false
	for _, c := range candidates {
		if c.Kind == ConstantFoldSpecialization && c.Function == "pow2" && c.Parameter == "base" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a constant-fold candidate for pow2's base parameter (literal 1 at 3 call sites), got %#v", candidates)
	}
}

func TestVectorizationDetectorClassifiesDotProduct(t *testing.T) {
	src := "def dot(a: list[int], b: list[int]) -> int:\n    s = 0\n    for i in range(0, 4, 1):\n        s = s + a[i] * b[i]\n    return s\n"
	prog := buildProgram(t, src)
	ctx := &Context{Program: prog}
	result, err := (&VectorizationDetector{}).Optimize(ctx)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	candidates := result.Metadata["candidates"].([]VectorizationCandidate)
	if len(candidates) == 0 {
		t.Fatal("expected at least one vectorization candidate")
	}
	found := false
	for _, c := range candidates {
		if c.SubKind == DotProduct {
			found = true
		}
	}
	if !found {
		t.Errorf("expected s = s + a[i]*b[i] to classify as dot-product, got %#v", candidates)
	}
}
