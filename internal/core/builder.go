package core

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/errors"
	"github.com/shakfu/cgen-go/internal/types"
)

// Builder lowers a validated, type-annotated *ast.Module into a
// TypedIR *Program (spec.md §4.3). It performs three normalizations
// so that no Python-specific sugar survives past this point:
//
//   - augmented assignment (`x += e`) becomes `x = x + e`
//   - a chained comparison (`a < b < c`) becomes an explicit
//     `BoolOp("and", [a<b, b<c])`, each operand re-using the shared
//     middle term exactly once
//   - a comprehension is hoisted out of its containing expression
//     into a temporary variable plus an initialize/loop/append (or
//     insert, for dict/set) sequence, and replaced at its original
//     site by a reference to that temporary
//
// Grounded on the teacher's elaborate/elaborate.go single-pass
// AST-to-Core walk (sunholo/ailang): one recursive descent building
// IR bottom-up, threading an explicit environment rather than a
// global symbol table.
type Builder struct {
	env     *types.TypeEnv
	ann     *types.Annotations
	tempSeq int
	pending []Stmt // comprehension-lowering statements hoisted ahead of the current statement
}

// NewBuilder creates a Builder over env/ann, the products of
// validator.Validate and types.TypeInferencer.InferModule.
func NewBuilder(env *types.TypeEnv, ann *types.Annotations) *Builder {
	return &Builder{env: env, ann: ann}
}

// BuildModule lowers mod into a TypedIR Program. Bare module-level
// statements (*ast.GlobalStmt) are gathered in script order and
// synthesized into one EntryPointName FuncDecl appended last, so every
// later pass keyed off *FuncDecl (analyzers, optimizers, the emitter)
// sees them without needing its own module-level-statement case.
func (b *Builder) BuildModule(mod *ast.Module) (*Program, error) {
	prog := &Program{}
	var topLevel []Stmt
	for _, d := range mod.Decls {
		if gs, ok := d.(*ast.GlobalStmt); ok {
			lowered, err := b.buildStmt(gs.Stmt)
			if err != nil {
				return nil, err
			}
			topLevel = append(topLevel, lowered...)
			continue
		}
		decl, err := b.buildDecl(d)
		if err != nil {
			return nil, err
		}
		if decl != nil {
			prog.Decls = append(prog.Decls, decl)
		}
	}
	if len(topLevel) > 0 {
		topLevel = append(topLevel, &Return{
			Base:  Base{Type: types.I32},
			Value: &Literal{Base: Base{Type: types.I32}, Kind: ast.IntLit, Value: int64(0)},
		})
		prog.Decls = append(prog.Decls, &FuncDecl{
			Base:       Base{Type: &types.Func{Return: types.I32}},
			Name:       EntryPointName,
			ReturnType: types.I32,
			Body:       topLevel,
		})
	}
	return prog, nil
}

func (b *Builder) exprType(e ast.Expr) types.Type {
	if t, ok := b.ann.ExprTypes[e]; ok {
		return t
	}
	return &types.Unknown{Reason: "no recorded type"}
}

func (b *Builder) buildDecl(d ast.Decl) (Decl, error) {
	switch decl := d.(type) {
	case *ast.FuncDecl:
		sig := b.ann.FuncSigs[decl.Name]
		fd := &FuncDecl{
			Base:       Base{Pos: decl.Pos, Type: sig},
			Name:       decl.Name,
			ReturnType: sig.Return,
			Requires:   decl.Requires,
			Ensures:    decl.Ensures,
		}
		for i, p := range decl.Params {
			fd.Params = append(fd.Params, Param{Name: p.Name, Type: sig.Params[i]})
		}
		body, err := b.buildStmts(decl.Body)
		if err != nil {
			return nil, err
		}
		fd.Body = body
		return fd, nil
	case *ast.StructDecl:
		st, ok := b.env.LookupStruct(decl.Name)
		if !ok {
			return nil, errors.WrapReport(errors.New(errors.IR001, "lower",
				"struct '"+decl.Name+"' missing from type environment", spanAt(decl.Pos)))
		}
		sd := &StructDecl{Base: Base{Pos: decl.Pos, Type: st}, Name: decl.Name}
		for _, f := range st.Fields {
			sd.Fields = append(sd.Fields, Param{Name: f.Name, Type: f.Type})
		}
		return sd, nil
	case *ast.GlobalDecl:
		val, err := b.buildExpr(decl.Value)
		if err != nil {
			return nil, err
		}
		gt := b.ann.GlobalTypes[decl.Name]
		return &GlobalDecl{Base: Base{Pos: decl.Pos, Type: gt}, Name: decl.Name, Value: val}, nil
	}
	return nil, errors.WrapReport(errors.New(errors.IR001, "lower",
		fmt.Sprintf("unrecognized declaration %T", d), spanAt(d.Position())))
}

func spanAt(p ast.Pos) *ast.Span { return &ast.Span{Start: p, End: p} }

// buildStmts lowers a statement list, flushing any pending hoisted
// statements (from comprehension expansion) ahead of each statement.
func (b *Builder) buildStmts(stmts []ast.Stmt) ([]Stmt, error) {
	var out []Stmt
	for _, s := range stmts {
		lowered, err := b.buildStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	return out, nil
}

// buildStmt lowers one statement, returning possibly more than one IR
// statement (hoisted comprehension setup, then the statement itself).
func (b *Builder) buildStmt(s ast.Stmt) ([]Stmt, error) {
	saved := b.pending
	b.pending = nil
	defer func() { b.pending = saved }()

	built, err := b.buildStmtOne(s)
	if err != nil {
		return nil, err
	}
	out := append([]Stmt{}, b.pending...)
	if built != nil {
		out = append(out, built)
	}
	return out, nil
}

func (b *Builder) buildStmtOne(s ast.Stmt) (Stmt, error) {
	switch stmt := s.(type) {
	case *ast.AssignStmt:
		target, err := b.buildExpr(stmt.Target)
		if err != nil {
			return nil, err
		}
		val, err := b.buildExpr(stmt.Value)
		if err != nil {
			return nil, err
		}
		return &Assign{Base: Base{Pos: stmt.Pos, Type: target.ResolvedType()}, Target: target, Value: val}, nil

	case *ast.AugAssignStmt:
		// Lowering (a): `x op= e` -> `x = x op e`.
		target, err := b.buildExpr(stmt.Target)
		if err != nil {
			return nil, err
		}
		val, err := b.buildExpr(stmt.Value)
		if err != nil {
			return nil, err
		}
		bin := &BinOp{
			Base:  Base{Pos: stmt.Pos, Type: target.ResolvedType()},
			Op:    stmt.Op,
			Left:  target,
			Right: val,
		}
		return &Assign{Base: Base{Pos: stmt.Pos, Type: target.ResolvedType()}, Target: target, Value: bin}, nil

	case *ast.IfStmt:
		cond, err := b.buildExpr(stmt.Cond)
		if err != nil {
			return nil, err
		}
		then, err := b.buildStmts(stmt.Then)
		if err != nil {
			return nil, err
		}
		els, err := b.buildStmts(stmt.Else)
		if err != nil {
			return nil, err
		}
		return &If{Base: Base{Pos: stmt.Pos}, Cond: cond, Then: then, Else: els}, nil

	case *ast.WhileStmt:
		cond, err := b.buildExpr(stmt.Cond)
		if err != nil {
			return nil, err
		}
		body, err := b.buildStmts(stmt.Body)
		if err != nil {
			return nil, err
		}
		return &While{Base: Base{Pos: stmt.Pos}, Cond: cond, Body: body}, nil

	case *ast.ForRangeStmt:
		var start, stop, step Expr
		var err error
		if stmt.Start != nil {
			if start, err = b.buildExpr(stmt.Start); err != nil {
				return nil, err
			}
		}
		if stop, err = b.buildExpr(stmt.Stop); err != nil {
			return nil, err
		}
		if stmt.Step != nil {
			if step, err = b.buildExpr(stmt.Step); err != nil {
				return nil, err
			}
		}
		body, err := b.buildStmts(stmt.Body)
		if err != nil {
			return nil, err
		}
		return &ForRange{Base: Base{Pos: stmt.Pos}, Var: stmt.Var, Start: start, Stop: stop, Step: step, Body: body}, nil

	case *ast.ForContainerStmt:
		container, err := b.buildExpr(stmt.Container)
		if err != nil {
			return nil, err
		}
		elemType := containerElemType(container.ResolvedType())
		body, err := b.buildStmts(stmt.Body)
		if err != nil {
			return nil, err
		}
		return &ForContainer{Base: Base{Pos: stmt.Pos}, Var: stmt.Var, ElemType: elemType, Container: container, Body: body}, nil

	case *ast.ReturnStmt:
		var val Expr
		var err error
		if stmt.Value != nil {
			if val, err = b.buildExpr(stmt.Value); err != nil {
				return nil, err
			}
		}
		return &Return{Base: Base{Pos: stmt.Pos}, Value: val}, nil

	case *ast.BreakStmt:
		return &Break{Base: Base{Pos: stmt.Pos}}, nil
	case *ast.ContinueStmt:
		return &Continue{Base: Base{Pos: stmt.Pos}}, nil
	case *ast.PassStmt:
		return &Pass{Base: Base{Pos: stmt.Pos}}, nil

	case *ast.AssertStmt:
		cond, err := b.buildExpr(stmt.Cond)
		if err != nil {
			return nil, err
		}
		var msg Expr
		if stmt.Msg != nil {
			if msg, err = b.buildExpr(stmt.Msg); err != nil {
				return nil, err
			}
		}
		return &Assert{Base: Base{Pos: stmt.Pos}, Cond: cond, Msg: msg}, nil

	case *ast.ExprStmt:
		x, err := b.buildExpr(stmt.X)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Base: Base{Pos: stmt.Pos}, X: x}, nil
	}
	return nil, errors.WrapReport(errors.New(errors.IR001, "lower",
		fmt.Sprintf("unrecognized statement %T", s), spanAt(s.Position())))
}

func containerElemType(t types.Type) types.Type {
	switch c := t.(type) {
	case *types.List:
		return c.Elem
	case *types.Set:
		return c.Elem
	case *types.Dict:
		return c.Key
	}
	return &types.Unknown{Reason: "iterating non-container"}
}

func (b *Builder) newTemp(prefix string) string {
	b.tempSeq++
	return fmt.Sprintf("__%s_%d", prefix, b.tempSeq)
}

// buildExpr lowers an AST expression into a TypedIR expression. A
// Comprehension is handled by hoisting synthesized statements into
// b.pending and returning a Name referencing the resulting temporary
// (lowering (c), spec.md §4.3).
func (b *Builder) buildExpr(e ast.Expr) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	t := b.exprType(e)
	switch expr := e.(type) {
	case *ast.Literal:
		return &Literal{Base: Base{Pos: expr.Pos, Type: t}, Kind: expr.Kind, Value: expr.Value}, nil

	case *ast.Name:
		return &Name{Base: Base{Pos: expr.Pos, Type: t}, Value: expr.Value}, nil

	case *ast.BinOp:
		left, err := b.buildExpr(expr.Left)
		if err != nil {
			return nil, err
		}
		right, err := b.buildExpr(expr.Right)
		if err != nil {
			return nil, err
		}
		return &BinOp{Base: Base{Pos: expr.Pos, Type: t}, Op: expr.Op, Left: left, Right: right}, nil

	case *ast.UnaryOp:
		operand, err := b.buildExpr(expr.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Base: Base{Pos: expr.Pos, Type: t}, Op: expr.Op, Operand: operand}, nil

	case *ast.Compare:
		// Lowering (b): `a OP1 b OP2 c ...` -> BoolOp("and", [a OP1 b, b OP2 c, ...]).
		// A single comparison (len(Ops)==1) collapses to the bare Compare node.
		left, err := b.buildExpr(expr.Left)
		if err != nil {
			return nil, err
		}
		var comparators []Expr
		for _, c := range expr.Comparators {
			ce, err := b.buildExpr(c)
			if err != nil {
				return nil, err
			}
			comparators = append(comparators, ce)
		}
		if len(expr.Ops) == 1 {
			return &Compare{Base: Base{Pos: expr.Pos, Type: t}, Op: expr.Ops[0], Left: left, Right: comparators[0]}, nil
		}
		var pairs []Expr
		prev := left
		for i, op := range expr.Ops {
			pairs = append(pairs, &Compare{
				Base:  Base{Pos: expr.Pos, Type: types.Bool},
				Op:    op,
				Left:  prev,
				Right: comparators[i],
			})
			prev = comparators[i]
		}
		return &BoolOp{Base: Base{Pos: expr.Pos, Type: types.Bool}, Op: "and", Values: pairs}, nil

	case *ast.BoolOp:
		var values []Expr
		for _, v := range expr.Values {
			ve, err := b.buildExpr(v)
			if err != nil {
				return nil, err
			}
			values = append(values, ve)
		}
		return &BoolOp{Base: Base{Pos: expr.Pos, Type: t}, Op: expr.Op, Values: values}, nil

	case *ast.Subscript:
		x, err := b.buildExpr(expr.X)
		if err != nil {
			return nil, err
		}
		idx, err := b.buildExpr(expr.Index)
		if err != nil {
			return nil, err
		}
		return &Subscript{Base: Base{Pos: expr.Pos, Type: t}, X: x, Index: idx}, nil

	case *ast.Slice:
		x, err := b.buildExpr(expr.X)
		if err != nil {
			return nil, err
		}
		lo, err := b.buildExpr(expr.Lo)
		if err != nil {
			return nil, err
		}
		hi, err := b.buildExpr(expr.Hi)
		if err != nil {
			return nil, err
		}
		step, err := b.buildExpr(expr.Step)
		if err != nil {
			return nil, err
		}
		return &Slice{Base: Base{Pos: expr.Pos, Type: t}, X: x, Lo: lo, Hi: hi, Step: step}, nil

	case *ast.Attribute:
		x, err := b.buildExpr(expr.X)
		if err != nil {
			return nil, err
		}
		return &Attribute{Base: Base{Pos: expr.Pos, Type: t}, X: x, Name: expr.Name}, nil

	case *ast.Call:
		return b.buildCall(expr, t)

	case *ast.ContainerLiteral:
		cl := &ContainerLiteral{Base: Base{Pos: expr.Pos, Type: t}, Kind: expr.Kind}
		for _, el := range expr.Elements {
			ee, err := b.buildExpr(el)
			if err != nil {
				return nil, err
			}
			cl.Elements = append(cl.Elements, ee)
		}
		for _, k := range expr.Keys {
			ke, err := b.buildExpr(k)
			if err != nil {
				return nil, err
			}
			cl.Keys = append(cl.Keys, ke)
		}
		return cl, nil

	case *ast.Comprehension:
		return b.lowerComprehension(expr, t)

	case *ast.FString:
		return b.buildFString(expr, t)
	}
	return nil, errors.WrapReport(errors.New(errors.IR001, "lower",
		fmt.Sprintf("unrecognized expression %T", e), spanAt(e.Position())))
}

func (b *Builder) buildCall(expr *ast.Call, t types.Type) (Expr, error) {
	kind := UserCall
	var funcName string
	if name, ok := expr.Func.(*ast.Name); ok {
		funcName = name.Value
		if isBuiltinName(name.Value) {
			kind = BuiltinCall
		}
	} else if _, ok := expr.Func.(*ast.Attribute); ok {
		kind = MethodCall
	}
	fn, err := b.buildExpr(expr.Func)
	if err != nil {
		return nil, err
	}
	call := &Call{Base: Base{Pos: expr.Pos, Type: t}, Kind: kind, Func: fn}
	if attr, ok := fn.(*Attribute); ok && kind == MethodCall {
		call.Method = attr.Name
		call.Func = attr.X
	}
	for _, a := range expr.Args {
		ae, err := b.buildExpr(a)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, ae)
	}
	if kind == BuiltinCall && funcName == "print" && len(call.Args) == 1 {
		// An f-string argument already decomposed itself into a FormatCall
		// via buildFString; anything else is a single bare value (e.g.
		// print(x[0])), which needs its own one-verb format string the
		// same way CPython's print() renders whatever it's given.
		if _, ok := call.Args[0].(*FormatCall); !ok {
			arg := call.Args[0]
			call.Args[0] = &FormatCall{
				Base:   Base{Pos: expr.Pos, Type: t},
				Format: formatVerbFor(arg.ResolvedType()) + "\n",
				Args:   []Expr{arg},
			}
		}
	}
	return call, nil
}

func isBuiltinName(name string) bool {
	switch name {
	case "len", "abs", "min", "max", "int", "float", "print", "range":
		return true
	}
	return false
}

// lowerComprehension implements lowering (c): a comprehension becomes
// a temporary container declaration plus an explicit loop that
// appends/inserts into it, hoisted into b.pending ahead of the
// enclosing statement. The comprehension's own site is replaced with
// a reference to the temporary.
func (b *Builder) lowerComprehension(expr *ast.Comprehension, resultType types.Type) (Expr, error) {
	temp := b.newTemp("comp")
	tempName := &Name{Base: Base{Pos: expr.Pos, Type: resultType}, Value: temp}

	b.pending = append(b.pending, &VarDecl{
		Base: Base{Pos: expr.Pos, Type: resultType},
		Name: temp,
		Init: &ContainerLiteral{Base: Base{Pos: expr.Pos, Type: resultType}, Kind: compKindToContainerKind(expr.Kind)},
	})

	iter, err := b.buildExpr(expr.Iter)
	if err != nil {
		return nil, err
	}
	elemType := containerElemType(iter.ResolvedType())

	var loopBody []Stmt
	for _, cond := range expr.Conds {
		ce, err := b.buildExpr(cond)
		if err != nil {
			return nil, err
		}
		loopBody = append(loopBody, &If{
			Base: Base{Pos: expr.Pos},
			Cond: &UnaryOp{Base: Base{Pos: expr.Pos, Type: types.Bool}, Op: "not", Operand: ce},
			Then: []Stmt{&Continue{Base: Base{Pos: expr.Pos}}},
		})
	}

	switch expr.Kind {
	case ast.ListComp, ast.SetComp:
		val, err := b.buildExpr(expr.ValueExpr)
		if err != nil {
			return nil, err
		}
		method := "append"
		if expr.Kind == ast.SetComp {
			method = "add"
		}
		loopBody = append(loopBody, &ExprStmt{
			Base: Base{Pos: expr.Pos},
			X: &Call{
				Base:   Base{Pos: expr.Pos, Type: types.VoidTy},
				Kind:   MethodCall,
				Func:   tempName,
				Method: method,
				Args:   []Expr{val},
			},
		})
	case ast.DictComp:
		key, err := b.buildExpr(expr.KeyExpr)
		if err != nil {
			return nil, err
		}
		val, err := b.buildExpr(expr.ValueExpr)
		if err != nil {
			return nil, err
		}
		loopBody = append(loopBody, &ExprStmt{
			Base: Base{Pos: expr.Pos},
			X: &Call{
				Base:   Base{Pos: expr.Pos, Type: types.VoidTy},
				Kind:   MethodCall,
				Func:   tempName,
				Method: "set",
				Args:   []Expr{key, val},
			},
		})
	}

	b.pending = append(b.pending, &ForContainer{
		Base:      Base{Pos: expr.Pos},
		Var:       expr.Var,
		ElemType:  elemType,
		Container: iter,
		Body:      loopBody,
	})

	return tempName, nil
}

func compKindToContainerKind(k ast.CompKind) ast.ContainerKind {
	switch k {
	case ast.ListComp:
		return ast.ListContainer
	case ast.SetComp:
		return ast.SetContainer
	case ast.DictComp:
		return ast.DictContainer
	}
	return ast.ListContainer
}

// buildFString decomposes an f-string into a printf-style format
// string plus argument list (spec.md §4.8), done here rather than at
// emission time so the TypedIR carries no Python-specific sugar.
func (b *Builder) buildFString(expr *ast.FString, t types.Type) (Expr, error) {
	var args []Expr
	var format string
	for i, part := range expr.Parts {
		format += escapePercent(part)
		if i < len(expr.Exprs) {
			arg, err := b.buildExpr(expr.Exprs[i])
			if err != nil {
				return nil, err
			}
			format += formatVerbFor(arg.ResolvedType())
			args = append(args, arg)
		}
	}
	return &FormatCall{Base: Base{Pos: expr.Pos, Type: t}, Format: format, Args: args}, nil
}

func escapePercent(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' {
			out = append(out, '%', '%')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func formatVerbFor(t types.Type) string {
	switch {
	case t.Equals(types.CharP):
		return "%s"
	case types.IsFloat(t):
		return "%g"
	case t.Equals(types.Bool):
		return "%d"
	default:
		return "%lld"
	}
}
