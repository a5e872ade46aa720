package emitter

import (
	"testing"

	"github.com/shakfu/cgen-go/internal/hpcl"
	"github.com/shakfu/cgen-go/testutil"
)

func TestEmitFibonacciMatchesGolden(t *testing.T) {
	prog := buildProgram(t, "def fib(n: int) -> int:\n    if n <= 1:\n        return n\n    return fib(n - 1) + fib(n - 2)\n")
	registry := hpcl.NewRegistry()
	hpcl.RegisterFromProgram(prog, registry)

	out, err := Emit(prog, registry, DefaultOptions())
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	testutil.CompareGolden(t, "emitter", "fibonacci", out)
}
