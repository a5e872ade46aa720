// Package validator implements the SubsetValidator (spec.md §4.2):
// it classifies every syntactic feature it finds in a parsed module
// into one of four tiers and produces a ValidationReport. Translation
// fails whenever any UNSUPPORTED_* tier is non-empty, unless the
// caller opts into a best-effort stub (pipeline.Options.AllowStubs).
package validator

import (
	"github.com/shakfu/cgen-go/internal/ast"
)

// Tier classifies a syntactic feature's translatability.
type Tier int

const (
	SUPPORTED Tier = iota
	SUPPORTED_WITH_REWRITE
	UNSUPPORTED_STATIC
	UNSUPPORTED_DYNAMIC
)

func (t Tier) String() string {
	switch t {
	case SUPPORTED:
		return "SUPPORTED"
	case SUPPORTED_WITH_REWRITE:
		return "SUPPORTED_WITH_REWRITE"
	case UNSUPPORTED_STATIC:
		return "UNSUPPORTED_STATIC"
	case UNSUPPORTED_DYNAMIC:
		return "UNSUPPORTED_DYNAMIC"
	}
	return "UNKNOWN_TIER"
}

// Occurrence is one instance of a classified feature.
type Occurrence struct {
	Feature string
	Tier    Tier
	Line    int
	Detail  string
}

// Report is the ValidationReport product of Validate.
type Report struct {
	Occurrences []Occurrence
}

// ByTier groups occurrences by tier for reporting.
func (r *Report) ByTier(t Tier) []Occurrence {
	var out []Occurrence
	for _, o := range r.Occurrences {
		if o.Tier == t {
			out = append(out, o)
		}
	}
	return out
}

// HasBlockingIssues reports whether any UNSUPPORTED_* occurrence exists.
func (r *Report) HasBlockingIssues() bool {
	for _, o := range r.Occurrences {
		if o.Tier == UNSUPPORTED_STATIC || o.Tier == UNSUPPORTED_DYNAMIC {
			return true
		}
	}
	return false
}

// staticUnsupportedCalls violate the static-Python rule (spec.md
// §4.2's UNSUPPORTED_STATIC example list: setattr, globals(), etc.).
var staticUnsupportedCalls = map[string]bool{
	"setattr": true, "globals": true, "locals": true, "exec": true, "eval": true,
	"__import__": true, "compile": true,
}

// Validate walks mod and classifies every feature it recognizes.
func Validate(mod *ast.Module) *Report {
	v := &validatorWalk{report: &Report{}}
	for _, d := range mod.Decls {
		v.decl(d)
	}
	return v.report
}

type validatorWalk struct {
	report *Report
}

func (v *validatorWalk) add(feature string, tier Tier, pos ast.Pos, detail string) {
	v.report.Occurrences = append(v.report.Occurrences, Occurrence{
		Feature: feature, Tier: tier, Line: pos.Line, Detail: detail,
	})
}

func (v *validatorWalk) decl(d ast.Decl) {
	switch decl := d.(type) {
	case *ast.FuncDecl:
		v.add("function-def", SUPPORTED, decl.Pos, decl.Name)
		for _, s := range decl.Body {
			v.stmt(s)
		}
	case *ast.StructDecl:
		v.add("class-as-struct", SUPPORTED, decl.Pos, decl.Name)
	case *ast.GlobalDecl:
		v.add("global-constant", SUPPORTED, decl.Pos, decl.Name)
		v.expr(decl.Value)
	case *ast.GlobalStmt:
		v.add("module-level-statement", SUPPORTED, decl.Pos, "")
		v.stmt(decl.Stmt)
	}
}

func (v *validatorWalk) stmt(s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.AssignStmt:
		v.add("assignment", SUPPORTED, stmt.Pos, "")
		v.expr(stmt.Value)
	case *ast.AugAssignStmt:
		v.add("augmented-assignment", SUPPORTED_WITH_REWRITE, stmt.Pos, stmt.Op)
		v.expr(stmt.Value)
	case *ast.IfStmt:
		v.add("conditional", SUPPORTED, stmt.Pos, "")
		v.expr(stmt.Cond)
		for _, th := range stmt.Then {
			v.stmt(th)
		}
		for _, el := range stmt.Else {
			v.stmt(el)
		}
	case *ast.WhileStmt:
		v.add("while-loop", SUPPORTED, stmt.Pos, "")
		for _, st := range stmt.Body {
			v.stmt(st)
		}
	case *ast.ForRangeStmt:
		v.add("for-range-loop", SUPPORTED, stmt.Pos, "")
		for _, st := range stmt.Body {
			v.stmt(st)
		}
	case *ast.ForContainerStmt:
		v.add("for-container-loop", SUPPORTED, stmt.Pos, "")
		for _, st := range stmt.Body {
			v.stmt(st)
		}
	case *ast.ReturnStmt:
		v.add("return", SUPPORTED, stmt.Pos, "")
		if stmt.Value != nil {
			v.expr(stmt.Value)
		}
	case *ast.AssertStmt:
		v.add("assert", SUPPORTED, stmt.Pos, "")
		v.expr(stmt.Cond)
	case *ast.ExprStmt:
		v.add("expression-statement", SUPPORTED, stmt.Pos, "")
		v.expr(stmt.X)
	case *ast.BreakStmt:
		v.add("break", SUPPORTED, stmt.Pos, "")
	case *ast.ContinueStmt:
		v.add("continue", SUPPORTED, stmt.Pos, "")
	case *ast.PassStmt:
		v.add("pass", SUPPORTED, stmt.Pos, "")
	}
}

func (v *validatorWalk) expr(e ast.Expr) {
	switch expr := e.(type) {
	case *ast.Call:
		if name, ok := expr.Func.(*ast.Name); ok {
			if staticUnsupportedCalls[name.Value] {
				v.add("dynamic-call", UNSUPPORTED_STATIC, expr.Pos, name.Value)
			}
		}
		for _, a := range expr.Args {
			v.expr(a)
		}
	case *ast.Comprehension:
		v.add("comprehension", SUPPORTED_WITH_REWRITE, expr.Pos, "")
		v.expr(expr.ValueExpr)
		v.expr(expr.Iter)
	case *ast.BinOp:
		v.expr(expr.Left)
		v.expr(expr.Right)
	case *ast.UnaryOp:
		v.expr(expr.Operand)
	case *ast.Compare:
		v.expr(expr.Left)
		for _, c := range expr.Comparators {
			v.expr(c)
		}
	case *ast.BoolOp:
		for _, val := range expr.Values {
			v.expr(val)
		}
	case *ast.Subscript:
		v.expr(expr.X)
		v.expr(expr.Index)
	case *ast.Slice:
		v.add("slice", SUPPORTED_WITH_REWRITE, expr.Pos, "")
		v.expr(expr.X)
	case *ast.Attribute:
		v.expr(expr.X)
	case *ast.ContainerLiteral:
		for _, el := range expr.Elements {
			v.expr(el)
		}
		for _, k := range expr.Keys {
			v.expr(k)
		}
	case *ast.FString:
		v.add("f-string", SUPPORTED_WITH_REWRITE, expr.Pos, "")
		for _, sub := range expr.Exprs {
			v.expr(sub)
		}
	}
}
