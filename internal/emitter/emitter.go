// Package emitter walks the TypedIR and produces C source text
// (spec.md §4.8). The emitter's output depends on no state beyond the
// indent level (blank lines between top-level sections are written
// unconditionally), generalized from the teacher's
// reflection-free, type-switch-driven recursive printer
// (internal/ast/print.go in sunholo/ailang), retargeted from JSON text
// to C text.
package emitter

import (
	"fmt"
	"strings"

	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/core"
	"github.com/shakfu/cgen-go/internal/errors"
	"github.com/shakfu/cgen-go/internal/hpcl"
	"github.com/shakfu/cgen-go/internal/types"
)

// Emitter renders one Program to C text.
type Emitter struct {
	opts     Options
	registry *hpcl.Registry
	b        strings.Builder
	indent   int
	lastKind string
}

// New creates an Emitter. registry should already have been populated
// via hpcl.RegisterFromProgram(prog, registry).
func New(opts Options, registry *hpcl.Registry) *Emitter {
	return &Emitter{opts: opts, registry: registry}
}

// Emit renders prog following spec.md §4.8's fixed module-level order:
// (1) standard includes, (2) custom includes, (3) container forward-
// declarations, (4) container template instantiations, (5) macros and
// enums, (6) struct/union declarations, (7) typedef aliases,
// (8) function forward-declarations, (9) global variables,
// (10) function bodies.
func Emit(prog *core.Program, registry *hpcl.Registry, opts Options) (string, error) {
	e := New(opts, registry)
	if err := e.validateIdentifiers(prog); err != nil {
		return "", err
	}

	e.writeLine(`#include <stdio.h>`)
	e.writeLine(`#include <stdint.h>`)
	e.writeLine(`#include <stdbool.h>`)
	e.writeLine(`#include <stdlib.h>`)
	e.writeLine(`#include <assert.h>`)

	includes, decls := registry.EmitDeclarations()
	e.blank()
	for _, inc := range includes {
		e.writeLine(fmt.Sprintf("#include %s", inc))
	}
	if len(decls) > 0 {
		e.blank()
		for _, d := range decls {
			e.writeLine(d)
		}
	}

	var structs []*core.StructDecl
	var globals []*core.GlobalDecl
	var funcs []*core.FuncDecl
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *core.StructDecl:
			structs = append(structs, decl)
		case *core.GlobalDecl:
			globals = append(globals, decl)
		case *core.FuncDecl:
			funcs = append(funcs, decl)
		}
	}

	if len(structs) > 0 {
		e.blank()
		for _, s := range structs {
			e.emitStruct(s)
		}
	}

	if len(funcs) > 0 {
		e.blank()
		for _, f := range funcs {
			e.writeLine(e.funcSignature(f) + ";")
		}
	}

	if len(globals) > 0 {
		e.blank()
		for _, g := range globals {
			e.emitGlobal(g)
		}
	}

	if len(funcs) > 0 {
		e.blank()
		for _, f := range funcs {
			e.emitFunc(f)
			e.blank()
		}
	}

	return e.b.String(), nil
}

func (e *Emitter) validateIdentifiers(prog *core.Program) error {
	check := func(name string) error {
		if !ValidIdentifier(name) {
			return errors.WrapReport(errors.New(errors.EMT001, "emitter",
				fmt.Sprintf("%q is not a valid C identifier", name), nil))
		}
		return nil
	}
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *core.FuncDecl:
			if err := check(decl.Name); err != nil {
				return err
			}
			for _, p := range decl.Params {
				if err := check(p.Name); err != nil {
					return err
				}
			}
		case *core.StructDecl:
			if err := check(decl.Name); err != nil {
				return err
			}
			for _, f := range decl.Fields {
				if err := check(f.Name); err != nil {
					return err
				}
			}
		case *core.GlobalDecl:
			if err := check(decl.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Emitter) blank() {
	e.b.WriteString("\n")
}

func (e *Emitter) writeIndent() {
	e.b.WriteString(strings.Repeat(" ", e.indent*e.opts.IndentWidth))
}

func (e *Emitter) writeLine(s string) {
	e.writeIndent()
	e.b.WriteString(s)
	e.b.WriteString("\n")
}

// cType renders a resolved Type as a C type string, substituting the
// registry's generated container name for list/dict/set types.
func (e *Emitter) cType(t types.Type) string {
	switch tt := t.(type) {
	case *types.Prim:
		switch tt.Name {
		case "i8":
			return "int8_t"
		case "i16":
			return "int16_t"
		case "i32":
			return "int32_t"
		case "i64":
			return "int64_t"
		case "u8":
			return "uint8_t"
		case "u16":
			return "uint16_t"
		case "u32":
			return "uint32_t"
		case "u64":
			return "uint64_t"
		case "f32":
			return "float"
		case "f64":
			return "double"
		case "bool":
			return "bool"
		case "char*":
			return "char*"
		}
		return tt.Name
	case *types.Void:
		return "void"
	case *types.List:
		return e.registry.RegisterList(tt.Elem)
	case *types.Dict:
		return e.registry.RegisterDict(tt.Key, tt.Val)
	case *types.Set:
		return e.registry.RegisterSet(tt.Elem)
	case *types.Struct:
		return tt.Name
	case nil:
		return "void"
	}
	return "void*"
}

func (e *Emitter) declare(name string, t types.Type) string {
	ct := e.cType(t)
	if strings.HasSuffix(ct, "*") {
		base := strings.TrimSuffix(ct, "*")
		switch e.opts.Pointer {
		case PointerLeft:
			return fmt.Sprintf("%s* %s", base, name)
		case PointerMiddle:
			return fmt.Sprintf("%s * %s", base, name)
		default:
			return fmt.Sprintf("%s *%s", base, name)
		}
	}
	return fmt.Sprintf("%s %s", ct, name)
}

func (e *Emitter) funcSignature(f *core.FuncDecl) string {
	var params []string
	for _, p := range f.Params {
		params = append(params, e.declare(p.Name, p.Type))
	}
	return fmt.Sprintf("%s %s(%s)", e.cType(f.ReturnType), f.Name, strings.Join(params, ", "))
}

func (e *Emitter) openBrace(suffix string) {
	switch e.opts.Brace {
	case BraceNextLine:
		e.b.WriteString(suffix + "\n")
		e.writeIndent()
		e.b.WriteString("{\n")
	default:
		e.b.WriteString(suffix + " {\n")
	}
}

func (e *Emitter) emitStruct(s *core.StructDecl) {
	e.writeIndent()
	e.openBrace(fmt.Sprintf("typedef struct %s", s.Name))
	e.indent++
	for _, f := range s.Fields {
		e.writeLine(e.declare(f.Name, f.Type) + ";")
	}
	e.indent--
	e.writeLine(fmt.Sprintf("} %s;", s.Name))
}

func (e *Emitter) emitGlobal(g *core.GlobalDecl) {
	t := types.Type(types.VoidTy)
	if g.Value != nil {
		t = g.Value.ResolvedType()
	}
	e.writeIndent()
	e.b.WriteString(e.declare(g.Name, t))
	if g.Value != nil {
		if lit, ok := g.Value.(*core.ContainerLiteral); ok {
			e.b.WriteString(";\n")
			for _, line := range e.containerInit(g.Name, t, lit) {
				e.writeLine(line)
			}
			return
		}
		e.b.WriteString(" = ")
		e.b.WriteString(e.expr(g.Value, 0, false))
	}
	e.b.WriteString(";\n")
}

func (e *Emitter) emitFunc(f *core.FuncDecl) {
	e.writeIndent()
	e.openBrace(e.funcSignature(f))
	e.indent++
	e.stmts(f.Body)
	e.indent--
	e.writeLine("}")
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (e *Emitter) stmts(stmts []core.Stmt) {
	for _, s := range stmts {
		e.stmt(s)
	}
}

func (e *Emitter) stmt(s core.Stmt) {
	switch st := s.(type) {
	case *core.Block:
		e.stmts(st.Stmts)
	case *core.VarDecl:
		e.emitVarDecl(st)
	case *core.Assign:
		e.emitAssign(st)
	case *core.If:
		e.emitIf(st)
	case *core.While:
		e.writeIndent()
		e.openBrace(fmt.Sprintf("while (%s)", e.expr(st.Cond, 0, false)))
		e.indent++
		e.stmts(st.Body)
		e.indent--
		e.writeLine("}")
	case *core.ForRange:
		e.emitForRange(st)
	case *core.ForContainer:
		e.emitForContainer(st)
	case *core.Return:
		if st.Value == nil {
			e.writeLine("return;")
			return
		}
		e.writeLine(fmt.Sprintf("return %s;", e.expr(st.Value, 0, false)))
	case *core.Break:
		e.writeLine("break;")
	case *core.Continue:
		e.writeLine("continue;")
	case *core.Pass:
		// emits nothing
	case *core.Assert:
		if st.Msg != nil {
			e.writeLine(fmt.Sprintf("assert((%s) && %s);", e.expr(st.Cond, 0, false), e.expr(st.Msg, 0, false)))
			return
		}
		e.writeLine(fmt.Sprintf("assert(%s);", e.expr(st.Cond, 0, false)))
	case *core.ExprStmt:
		e.writeLine(e.expr(st.X, 0, false) + ";")
	}
}

func (e *Emitter) emitVarDecl(st *core.VarDecl) {
	t := st.ResolvedType()
	if st.Init == nil {
		if t == nil {
			t = types.VoidTy
		}
		e.writeLine(e.declare(st.Name, t) + ";")
		return
	}
	if lit, ok := st.Init.(*core.ContainerLiteral); ok {
		if t == nil {
			t = st.Init.ResolvedType()
		}
		e.writeLine(e.declare(st.Name, t) + ";")
		for _, line := range e.containerInit(st.Name, t, lit) {
			e.writeLine(line)
		}
		return
	}
	if t == nil {
		t = st.Init.ResolvedType()
	}
	e.writeLine(fmt.Sprintf("%s = %s;", e.declare(st.Name, t), e.expr(st.Init, 0, false)))
}

// containerInit lowers `xs = [...]`/`xs = {...}` into the init call
// plus one push/insert per literal element (spec.md §4.7: HPCL
// containers are built incrementally, there is no literal-initializer
// form).
func (e *Emitter) containerInit(varName string, t types.Type, lit *core.ContainerLiteral) []string {
	typeName := e.cType(t)
	var out []string
	out = append(out, e.statementLine(hpcl.Init(typeName, varName)))
	switch lit.Kind {
	case ast.DictContainer:
		for i, k := range lit.Keys {
			out = append(out, e.statementLine(hpcl.DictAssign(typeName, varName, e.expr(k, 0, false), e.expr(lit.Elements[i], 0, false))))
		}
	default:
		for _, el := range lit.Elements {
			out = append(out, e.statementLine(hpcl.Append(typeName, varName, e.expr(el, 0, false))))
		}
	}
	return out
}

func (e *Emitter) statementLine(s string) string { return s + ";" }

func (e *Emitter) emitAssign(st *core.Assign) {
	if lit, ok := st.Value.(*core.ContainerLiteral); ok {
		if name, ok := st.Target.(*core.Name); ok {
			t := st.Value.ResolvedType()
			e.writeLine(e.declare(name.Value, t) + ";")
			for _, line := range e.containerInit(name.Value, t, lit) {
				e.writeLine(line)
			}
			return
		}
	}
	if sub, ok := st.Target.(*core.Subscript); ok {
		if typeName, varName, ok := e.containerRef(sub.X); ok {
			switch sub.X.ResolvedType().(type) {
			case *types.Dict:
				e.writeLine(hpcl.DictAssign(typeName, varName, e.expr(sub.Index, 0, false), e.expr(st.Value, 0, false)) + ";")
			default:
				e.writeLine(hpcl.SubscriptWrite(typeName, varName, e.expr(sub.Index, 0, false), e.expr(st.Value, 0, false)) + ";")
			}
			return
		}
	}
	e.writeLine(fmt.Sprintf("%s = %s;", e.expr(st.Target, 0, false), e.expr(st.Value, 0, false)))
}

func (e *Emitter) emitIf(st *core.If) {
	e.writeIndent()
	e.openBrace(fmt.Sprintf("if (%s)", e.expr(st.Cond, 0, false)))
	e.indent++
	e.stmts(st.Then)
	e.indent--
	if len(st.Else) > 0 {
		e.writeIndent()
		if e.opts.Brace == BraceNextLine {
			e.b.WriteString("}\n")
			e.writeIndent()
			e.b.WriteString("else\n")
			e.writeIndent()
			e.b.WriteString("{\n")
		} else {
			e.b.WriteString("} else {\n")
		}
		e.indent++
		e.stmts(st.Else)
		e.indent--
	}
	e.writeLine("}")
}

func (e *Emitter) emitForRange(st *core.ForRange) {
	e.writeIndent()
	start, step := "0", "1"
	if st.Start != nil {
		start = e.expr(st.Start, 0, false)
	}
	if st.Step != nil {
		step = e.expr(st.Step, 0, false)
	}
	header := fmt.Sprintf("for (int64_t %s = %s; %s < %s; %s += %s)",
		st.Var, start, st.Var, e.expr(st.Stop, 0, false), st.Var, step)
	e.openBrace(header)
	e.indent++
	e.stmts(st.Body)
	e.indent--
	e.writeLine("}")
}

func (e *Emitter) emitForContainer(st *core.ForContainer) {
	typeName, varName, ok := e.containerRef(st.Container)
	if !ok {
		e.writeIndent()
		e.openBrace(fmt.Sprintf("for (/* unsupported container */; /* %s */;)", e.expr(st.Container, 0, false)))
		e.indent++
		e.stmts(st.Body)
		e.indent--
		e.writeLine("}")
		return
	}
	sub := &Emitter{opts: e.opts, registry: e.registry, indent: 1}
	sub.stmts(st.Body)
	bodyText := strings.TrimRight(sub.b.String(), "\n")
	e.writeLine(hpcl.Foreach(typeName, varName, st.Var, bodyText))
}

// containerRef resolves x to the HPCL type name and C variable name of
// the container it names, when x is a plain variable reference of
// list/dict/set type.
func (e *Emitter) containerRef(x core.Expr) (typeName, varName string, ok bool) {
	if !e.opts.HPCLEnabled {
		return "", "", false
	}
	name, isName := x.(*core.Name)
	if !isName {
		return "", "", false
	}
	switch x.ResolvedType().(type) {
	case *types.List, *types.Dict, *types.Set:
		return e.cType(x.ResolvedType()), name.Value, true
	}
	return "", "", false
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

func (e *Emitter) expr(x core.Expr, parentPrec int, isRight bool) string {
	if x == nil {
		return ""
	}
	rendered := e.renderExpr(x)
	if needsParens(x, parentPrec, isRight) {
		return "(" + rendered + ")"
	}
	return rendered
}

func (e *Emitter) renderExpr(x core.Expr) string {
	switch ex := x.(type) {
	case *core.Literal:
		return e.literal(ex)
	case *core.Name:
		return ex.Value
	case *core.BinOp:
		prec := binPrec[ex.Op]
		op := ex.Op
		if op == "//" {
			op = "/"
		}
		return fmt.Sprintf("%s %s %s", e.expr(ex.Left, prec, false), op, e.expr(ex.Right, prec, true))
	case *core.UnaryOp:
		op := ex.Op
		if op == "not" {
			op = "!"
		}
		return fmt.Sprintf("%s%s", op, e.expr(ex.Operand, 11, false))
	case *core.Compare:
		prec := binPrec[ex.Op]
		return fmt.Sprintf("%s %s %s", e.expr(ex.Left, prec, false), ex.Op, e.expr(ex.Right, prec, true))
	case *core.BoolOp:
		prec := binPrec[ex.Op]
		op := "&&"
		if ex.Op == "or" {
			op = "||"
		}
		parts := make([]string, len(ex.Values))
		for i, v := range ex.Values {
			parts[i] = e.expr(v, prec, i > 0)
		}
		return strings.Join(parts, " "+op+" ")
	case *core.Subscript:
		if typeName, varName, ok := e.containerRef(ex.X); ok {
			return hpcl.SubscriptRead(typeName, varName, e.expr(ex.Index, 0, false))
		}
		return fmt.Sprintf("%s[%s]", e.expr(ex.X, 100, false), e.expr(ex.Index, 0, false))
	case *core.Slice:
		base := e.expr(ex.X, 100, false)
		if ex.Lo != nil {
			return fmt.Sprintf("(%s + %s)", base, e.expr(ex.Lo, 0, false))
		}
		return base
	case *core.Attribute:
		return fmt.Sprintf("%s.%s", e.expr(ex.X, 100, false), ex.Name)
	case *core.Call:
		return e.call(ex)
	case *core.ContainerLiteral:
		return "/* unsupported inline container literal */"
	case *core.FormatCall:
		return e.formatCall(ex)
	}
	return ""
}

func (e *Emitter) literal(lit *core.Literal) string {
	switch lit.Kind {
	case ast.IntLit:
		return fmt.Sprintf("%d", lit.Value.(int64))
	case ast.FloatLit:
		s := fmt.Sprintf("%g", lit.Value.(float64))
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case ast.BoolLit:
		if lit.Value.(bool) {
			return "true"
		}
		return "false"
	case ast.StringLit:
		return quoteCString(lit.Value.(string))
	case ast.NullLit:
		return "NULL"
	}
	return ""
}

func (e *Emitter) call(c *core.Call) string {
	switch c.Kind {
	case core.MethodCall:
		if typeName, varName, ok := e.containerRef(c.Func); ok {
			args := make([]string, len(c.Args))
			for i, a := range c.Args {
				args[i] = e.expr(a, 0, false)
			}
			switch c.Method {
			case "append":
				return hpcl.Append(typeName, varName, args[0])
			case "add":
				return hpcl.Append(typeName, varName, args[0])
			case "contains":
				return hpcl.SetContains(typeName, varName, args[0])
			}
		}
		args := make([]string, len(c.Args))
		for i, a := range c.Args {
			args[i] = e.expr(a, 0, false)
		}
		return fmt.Sprintf("%s.%s(%s)", e.expr(c.Func, 100, false), c.Method, strings.Join(args, ", "))
	case core.BuiltinCall:
		name, _ := c.Func.(*core.Name)
		args := make([]string, len(c.Args))
		for i, a := range c.Args {
			args[i] = e.expr(a, 0, false)
		}
		if name != nil && name.Value == "len" && len(c.Args) == 1 {
			if typeName, varName, ok := e.containerRef(c.Args[0]); ok {
				return hpcl.Len(typeName, varName)
			}
		}
		if name != nil && name.Value == "print" && len(c.Args) == 1 {
			// The builder always lowers a single-argument print() into a
			// FormatCall, whether the source was an f-string or a bare
			// value, so there's always a format string to render here.
			if fc, ok := c.Args[0].(*core.FormatCall); ok {
				return e.formatCall(fc)
			}
			return fmt.Sprintf("printf(%s)", args[0])
		}
		if name != nil {
			switch name.Value {
			case "abs":
				return fmt.Sprintf("abs(%s)", args[0])
			case "min", "max":
				return fmt.Sprintf("%s(%s)", name.Value, strings.Join(args, ", "))
			}
			return fmt.Sprintf("%s(%s)", name.Value, strings.Join(args, ", "))
		}
		return strings.Join(args, ", ")
	default: // UserCall
		args := make([]string, len(c.Args))
		for i, a := range c.Args {
			args[i] = e.expr(a, 0, false)
		}
		return fmt.Sprintf("%s(%s)", e.expr(c.Func, 100, false), strings.Join(args, ", "))
	}
}

func (e *Emitter) formatCall(f *core.FormatCall) string {
	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		args[i] = e.expr(a, 0, false)
	}
	parts := append([]string{quoteCString(f.Format)}, args...)
	return fmt.Sprintf("printf(%s)", strings.Join(parts, ", "))
}

func quoteCString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
