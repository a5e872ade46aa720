package core

import (
	"reflect"
	"testing"

	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/parser"
	"github.com/shakfu/cgen-go/internal/types"
)

func buildSource(t *testing.T, src string) *Program {
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
	prog, err := NewBuilder(env, ann).BuildModule(mod)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return prog
}

func firstFuncBody(t *testing.T, prog *Program) []Stmt {
	t.Helper()
	for _, d := range prog.Decls {
		if fd, ok := d.(*FuncDecl); ok {
			return fd.Body
		}
	}
	t.Fatal("no function declaration found")
	return nil
}

func TestAugAssignLowersToPlainAssign(t *testing.T) {
	prog := buildSource(t, "def f(x: int) -> int:\n    x += 1\n    return x\n")
	body := firstFuncBody(t, prog)
	if len(body) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(body))
	}
	assign, ok := body[0].(*Assign)
	if !ok {
		t.Fatalf("expected *Assign, got %T", body[0])
	}
	bin, ok := assign.Value.(*BinOp)
	if !ok {
		t.Fatalf("expected assign value to be *BinOp, got %T", assign.Value)
	}
	if bin.Op != "+" {
		t.Errorf("expected op '+', got %q", bin.Op)
	}
	if _, ok := bin.Left.(*Name); !ok {
		t.Errorf("expected BinOp.Left to be *Name (the re-read target), got %T", bin.Left)
	}
}

func TestChainedComparisonExpandsToBoolOp(t *testing.T) {
	prog := buildSource(t, "def f(a: int, b: int, c: int) -> bool:\n    return a < b < c\n")
	body := firstFuncBody(t, prog)
	ret, ok := body[0].(*Return)
	if !ok {
		t.Fatalf("expected *Return, got %T", body[0])
	}
	boolOp, ok := ret.Value.(*BoolOp)
	if !ok {
		t.Fatalf("expected chained comparison to lower to *BoolOp, got %T", ret.Value)
	}
	if boolOp.Op != "and" {
		t.Errorf("expected 'and', got %q", boolOp.Op)
	}
	if len(boolOp.Values) != 2 {
		t.Fatalf("expected 2 pairwise comparisons, got %d", len(boolOp.Values))
	}
	first, ok := boolOp.Values[0].(*Compare)
	if !ok {
		t.Fatalf("expected *Compare, got %T", boolOp.Values[0])
	}
	second, ok := boolOp.Values[1].(*Compare)
	if !ok {
		t.Fatalf("expected *Compare, got %T", boolOp.Values[1])
	}
	if first.Op != "<" || second.Op != "<" {
		t.Errorf("expected both comparisons to be '<', got %q and %q", first.Op, second.Op)
	}
}

func TestSingleComparisonStaysBare(t *testing.T) {
	prog := buildSource(t, "def f(a: int, b: int) -> bool:\n    return a < b\n")
	body := firstFuncBody(t, prog)
	ret := body[0].(*Return)
	if _, ok := ret.Value.(*Compare); !ok {
		t.Fatalf("expected a single comparison to stay a bare *Compare, got %T", ret.Value)
	}
}

func TestListComprehensionHoistsIntoLoop(t *testing.T) {
	prog := buildSource(t, "def f(n: int) -> list[int]:\n    xs = [i * i for i in range(n)]\n    return xs\n")
	body := firstFuncBody(t, prog)
	// Expect: VarDecl(temp), ForContainer(loop over range(n)), Assign(xs = temp), Return(xs)
	if len(body) != 4 {
		t.Fatalf("expected 4 statements after hoisting, got %d: %#v", len(body), body)
	}
	if _, ok := body[0].(*VarDecl); !ok {
		t.Fatalf("expected first hoisted statement to be *VarDecl, got %T", body[0])
	}
	loop, ok := body[1].(*ForContainer)
	if !ok {
		t.Fatalf("expected second hoisted statement to be *ForContainer, got %T", body[1])
	}
	if len(loop.Body) != 1 {
		t.Fatalf("expected loop body to contain exactly the append call, got %d stmts", len(loop.Body))
	}
	appendStmt, ok := loop.Body[0].(*ExprStmt)
	if !ok {
		t.Fatalf("expected loop body statement to be *ExprStmt, got %T", loop.Body[0])
	}
	call, ok := appendStmt.X.(*Call)
	if !ok || call.Method != "append" {
		t.Fatalf("expected an append() call in the loop body, got %#v", appendStmt.X)
	}
	assign, ok := body[2].(*Assign)
	if !ok {
		t.Fatalf("expected third statement to be the assignment to the temp, got %T", body[2])
	}
	if name, ok := assign.Value.(*Name); !ok || name.Value == "" {
		t.Fatalf("expected assignment value to reference the hoisted temp, got %#v", assign.Value)
	}
}

func TestFStringLowersToFormatCall(t *testing.T) {
	prog := buildSource(t, "def f(x: int) -> None:\n    print(f\"value={x}\")\n")
	body := firstFuncBody(t, prog)
	exprStmt, ok := body[0].(*ExprStmt)
	if !ok {
		t.Fatalf("expected *ExprStmt, got %T", body[0])
	}
	call, ok := exprStmt.X.(*Call)
	if !ok {
		t.Fatalf("expected *Call, got %T", exprStmt.X)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected one argument to print, got %d", len(call.Args))
	}
	fc, ok := call.Args[0].(*FormatCall)
	if !ok {
		t.Fatalf("expected f-string argument to lower to *FormatCall, got %T", call.Args[0])
	}
	if fc.Format != "value=%lld" {
		t.Errorf("expected format 'value=%%lld', got %q", fc.Format)
	}
	if len(fc.Args) != 1 {
		t.Fatalf("expected 1 format argument, got %d", len(fc.Args))
	}
}

func TestStructDeclCarriesFieldTypes(t *testing.T) {
	prog := buildSource(t, "class Point:\n    x: int\n    y: int\n\ndef f() -> None:\n    pass\n")
	for _, d := range prog.Decls {
		sd, ok := d.(*StructDecl)
		if !ok {
			continue
		}
		if sd.Name != "Point" {
			t.Errorf("expected struct name 'Point', got %q", sd.Name)
		}
		if len(sd.Fields) != 2 {
			t.Fatalf("expected 2 fields, got %d", len(sd.Fields))
		}
		if !sd.Fields[0].Type.Equals(types.I64) {
			t.Errorf("expected field 'x' to resolve to i64, got %s", sd.Fields[0].Type)
		}
		return
	}
	t.Fatal("no struct declaration found")
}

// TestBuildModuleIsIdempotent covers spec.md §8's round-trip property:
// running the builder twice on the same AST (each against its own fresh
// type environment) yields structurally equal IRs.
func TestBuildModuleIsIdempotent(t *testing.T) {
	src := "def f(n: int) -> int:\n    if n <= 1:\n        return 1\n    return n * f(n - 1)\n"
	first := buildSource(t, src)
	second := buildSource(t, src)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected two builds of the same source to produce structurally equal IRs:\n%#v\n---\n%#v", first, second)
	}
}

func TestPositionIsPreserved(t *testing.T) {
	prog := buildSource(t, "def f() -> None:\n    pass\n")
	fd := prog.Decls[0].(*FuncDecl)
	var pos ast.Pos = fd.Position()
	if pos.Line != 1 {
		t.Errorf("expected function decl at line 1, got %d", pos.Line)
	}
}
