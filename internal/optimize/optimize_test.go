package optimize

import (
	"testing"

	"github.com/shakfu/cgen-go/internal/ast"
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

func firstFuncBody(t *testing.T, prog *core.Program) []core.Stmt {
	t.Helper()
	for _, d := range prog.Decls {
		if fd, ok := d.(*core.FuncDecl); ok {
			return fd.Body
		}
	}
	t.Fatal("no function declaration found")
	return nil
}

func TestConstantFoldingArithmetic(t *testing.T) {
	prog := buildProgram(t, "def f() -> int:\n    return 2 + 3 * 4\n")
	ctx := &Context{Program: prog}
	result, err := (&CompileTimeEvaluator{}).Optimize(ctx)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	folded := result.Metadata["folded_program"].(*core.Program)
	body := firstFuncBody(t, folded)
	ret, ok := body[0].(*core.Return)
	if !ok {
		t.Fatalf("expected a return statement, got %T", body[0])
	}
	lit, ok := ret.Value.(*core.Literal)
	if !ok {
		t.Fatalf("expected 2+3*4 to fold to a literal, got %T", ret.Value)
	}
	if lit.Kind != ast.IntLit || lit.Value.(int64) != 14 {
		t.Errorf("expected folded value 14, got %#v", lit.Value)
	}
}

func TestConstantFoldingDoesNotFoldDivisionByZero(t *testing.T) {
	prog := buildProgram(t, "def f() -> int:\n    return 1 / 0\n")
	ctx := &Context{Program: prog}
	result, err := (&CompileTimeEvaluator{}).Optimize(ctx)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	folded := result.Metadata["folded_program"].(*core.Program)
	body := firstFuncBody(t, folded)
	ret := body[0].(*core.Return)
	if _, ok := ret.Value.(*core.Literal); ok {
		t.Error("division by literal zero must not be folded (would trap)")
	}
}

func TestIdentitySimplificationAddZero(t *testing.T) {
	prog := buildProgram(t, "def f(x: int) -> int:\n    return x + 0\n")
	ctx := &Context{Program: prog}
	result, err := (&CompileTimeEvaluator{}).Optimize(ctx)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	folded := result.Metadata["folded_program"].(*core.Program)
	body := firstFuncBody(t, folded)
	ret := body[0].(*core.Return)
	name, ok := ret.Value.(*core.Name)
	if !ok || name.Value != "x" {
		t.Errorf("expected x+0 to simplify to bare x, got %#v", ret.Value)
	}
}

func TestDeadBranchEliminationKeepsLiveArm(t *testing.T) {
	prog := buildProgram(t, "def f() -> int:\n    if True:\n        return 1\n    else:\n        return 2\n")
	ctx := &Context{Program: prog}
	result, err := (&CompileTimeEvaluator{}).Optimize(ctx)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	folded := result.Metadata["folded_program"].(*core.Program)
	body := firstFuncBody(t, folded)
	blk, ok := body[0].(*core.Block)
	if !ok {
		t.Fatalf("expected dead-branch elimination to splice the live arm's statements, got %T", body[0])
	}
	if len(blk.Stmts) != 1 {
		t.Fatalf("expected exactly 1 statement in the live arm, got %d", len(blk.Stmts))
	}
	ret, ok := blk.Stmts[0].(*core.Return)
	if !ok {
		t.Fatalf("expected a return statement, got %T", blk.Stmts[0])
	}
	lit := ret.Value.(*core.Literal)
	if lit.Value.(int64) != 1 {
		t.Errorf("expected the true-branch's return 1 to survive, got %v", lit.Value)
	}
}

func TestFoldingIsIdempotent(t *testing.T) {
	prog := buildProgram(t, "def f() -> int:\n    return 2 + 3 * 4\n")
	first, err := (&CompileTimeEvaluator{}).Optimize(&Context{Program: prog})
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	folded := first.Metadata["folded_program"].(*core.Program)
	second, err := (&CompileTimeEvaluator{}).Optimize(&Context{Program: folded})
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(second.Transformations) != 0 {
		t.Errorf("expected a second fold of already-folded IR to find nothing left to do, got %d transformations", len(second.Transformations))
	}
}
