package emitter

import (
	"strings"
	"testing"

	"github.com/shakfu/cgen-go/internal/core"
	"github.com/shakfu/cgen-go/internal/hpcl"
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

func TestValidIdentifierRejectsLeadingDigitAndPunctuation(t *testing.T) {
	cases := map[string]bool{
		"x":       true,
		"_x9":     true,
		"fac_0":   true,
		"9x":      false,
		"x-y":     false,
		"":        false,
		"a.b":     false,
	}
	for name, want := range cases {
		if got := ValidIdentifier(name); got != want {
			t.Errorf("ValidIdentifier(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestEmitFactorialDeclarationOrderAndBody(t *testing.T) {
	prog := buildProgram(t, "def fac(n: int) -> int:\n    if n <= 1:\n        return 1\n    return n * fac(n - 1)\n")
	registry := hpcl.NewRegistry()
	hpcl.RegisterFromProgram(prog, registry)

	out, err := Emit(prog, registry, DefaultOptions())
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	incIdx := strings.Index(out, "#include <stdio.h>")
	sigIdx := strings.Index(out, "int64_t fac(int64_t n);")
	bodyIdx := strings.Index(out, "int64_t fac(int64_t n) {")
	if incIdx == -1 || sigIdx == -1 || bodyIdx == -1 {
		t.Fatalf("expected includes, forward declaration and body all present, got:\n%s", out)
	}
	if !(incIdx < sigIdx && sigIdx < bodyIdx) {
		t.Errorf("expected includes before forward declaration before body, got:\n%s", out)
	}
	if !strings.Contains(out, "if (n <= 1) {") {
		t.Errorf("expected rendered if-condition, got:\n%s", out)
	}
	if !strings.Contains(out, "return n * fac(n - 1);") {
		t.Errorf("expected rendered recursive call, got:\n%s", out)
	}
}

func TestEmitRejectsInvalidIdentifier(t *testing.T) {
	prog := &core.Program{
		Decls: []core.Decl{
			&core.FuncDecl{Name: "9bad", ReturnType: types.VoidTy},
		},
	}
	_, err := Emit(prog, hpcl.NewRegistry(), DefaultOptions())
	if err == nil {
		t.Fatal("expected an error for an invalid C identifier")
	}
}

func TestPointerAlignmentOptionsRenderDeclarations(t *testing.T) {
	e := &Emitter{opts: Options{Pointer: PointerLeft}}
	got := e.declare("s", &types.Prim{Name: "char*"})
	if got != "char* s" {
		t.Errorf("left-aligned pointer: got %q", got)
	}
	e.opts.Pointer = PointerRight
	got = e.declare("s", &types.Prim{Name: "char*"})
	if got != "char *s" {
		t.Errorf("right-aligned pointer: got %q", got)
	}
}

func TestContainerAppendLowersToHPCLPush(t *testing.T) {
	prog := buildProgram(t, "def f() -> None:\n    xs: list[int] = []\n    xs.append(3)\n")
	registry := hpcl.NewRegistry()
	hpcl.RegisterFromProgram(prog, registry)

	out, err := Emit(prog, registry, DefaultOptions())
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !strings.Contains(out, "vec_int64_init(&xs);") {
		t.Errorf("expected container init call, got:\n%s", out)
	}
	if !strings.Contains(out, "vec_int64_push(&xs, 3);") {
		t.Errorf("expected push call for append, got:\n%s", out)
	}
}

func TestOperatorPrecedenceParenthesizesSubExpression(t *testing.T) {
	prog := buildProgram(t, "def f(a: int, b: int, c: int) -> int:\n    return (a + b) * c\n")
	registry := hpcl.NewRegistry()
	out, err := Emit(prog, registry, DefaultOptions())
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !strings.Contains(out, "(a + b) * c") {
		t.Errorf("expected the lower-precedence sub-expression parenthesized, got:\n%s", out)
	}
}

func TestFormatCallRendersAsPrintf(t *testing.T) {
	prog := buildProgram(t, "def f(n: int) -> None:\n    print(f\"n={n}\")\n")
	registry := hpcl.NewRegistry()
	out, err := Emit(prog, registry, DefaultOptions())
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if !strings.Contains(out, "printf(") {
		t.Errorf("expected a printf call, got:\n%s", out)
	}
}
