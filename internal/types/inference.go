package types

import (
	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/errors"
)

// Annotations is the TypedAnnotations product of TypeInferencer.InferModule
// (spec.md §4.1): a per-expression type map plus the resolved function
// and global-constant signatures, threaded into the TypedIR builder.
type Annotations struct {
	ExprTypes   map[ast.Expr]Type
	FuncSigs    map[string]*Func
	GlobalTypes map[string]Type
}

func newAnnotations() *Annotations {
	return &Annotations{
		ExprTypes:   map[ast.Expr]Type{},
		FuncSigs:    map[string]*Func{},
		GlobalTypes: map[string]Type{},
	}
}

// TypeInferencer implements spec.md §4.1. Declared annotations are
// authoritative; inference only fills gaps where initializer literals
// or known-signature calls make the type unambiguous.
type TypeInferencer struct {
	env *TypeEnv
	ann *Annotations
}

// NewTypeInferencer creates an inferencer over env, which accumulates
// struct and function signature bindings as InferModule proceeds.
func NewTypeInferencer(env *TypeEnv) *TypeInferencer {
	return &TypeInferencer{env: env, ann: newAnnotations()}
}

// InferModule traverses ast, propagating types bottom-up, and returns
// the resulting annotations or the first hard error encountered.
func (ti *TypeInferencer) InferModule(mod *ast.Module) (*Annotations, error) {
	// Pass 1: register struct and function signatures so forward
	// references (mutual recursion, spec.md scenario 1) resolve.
	for _, d := range mod.Decls {
		switch decl := d.(type) {
		case *ast.StructDecl:
			s := &Struct{Name: decl.Name}
			for _, f := range decl.Fields {
				ft, err := ti.resolveTypeExpr(f.Annotation)
				if err != nil {
					return nil, err
				}
				s.Fields = append(s.Fields, StructField{Name: f.Name, Type: ft})
			}
			ti.env.DefineStruct(s)
		}
	}
	for _, d := range mod.Decls {
		switch decl := d.(type) {
		case *ast.FuncDecl:
			sig := &Func{Return: VoidTy}
			for _, p := range decl.Params {
				if p.Annotation == nil {
					return nil, errors.WrapReport(errors.New(errors.TYP001, "typecheck",
						"parameter '"+p.Name+"' has no type annotation and cannot be inferred", spanAt(p.Pos)))
				}
				pt, err := ti.resolveTypeExpr(p.Annotation)
				if err != nil {
					return nil, err
				}
				sig.Params = append(sig.Params, pt)
			}
			if decl.ReturnType != nil {
				rt, err := ti.resolveTypeExpr(decl.ReturnType)
				if err != nil {
					return nil, err
				}
				sig.Return = rt
			}
			ti.env.DefineFunc(decl.Name, sig)
			ti.ann.FuncSigs[decl.Name] = sig
		case *ast.GlobalDecl:
			var gt Type
			if decl.Annotation != nil {
				t, err := ti.resolveTypeExpr(decl.Annotation)
				if err != nil {
					return nil, err
				}
				gt = t
			} else if decl.Value != nil {
				t, err := ti.inferExpr(decl.Value, ti.env)
				if err != nil {
					return nil, err
				}
				gt = t
			} else {
				return nil, errors.WrapReport(errors.New(errors.TYP001, "typecheck",
					"global '"+decl.Name+"' has no annotation and no initializer to infer from", spanAt(decl.Pos)))
			}
			ti.env.Define(decl.Name, gt)
			ti.ann.GlobalTypes[decl.Name] = gt
		case *ast.GlobalStmt:
			// Module-level statements run in script order against the
			// globals already defined above them, so they're inferred
			// in this same pass rather than deferred to pass 2.
			if err := ti.inferStmt(decl.Stmt, ti.env); err != nil {
				return nil, err
			}
		}
	}

	// Pass 2: infer function bodies in their own child scope.
	for _, d := range mod.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok {
			continue
		}
		scope := ti.env.Child()
		sig := ti.ann.FuncSigs[fd.Name]
		for i, p := range fd.Params {
			scope.Define(p.Name, sig.Params[i])
		}
		if err := ti.inferStmts(fd.Body, scope); err != nil {
			return nil, err
		}
	}

	return ti.ann, nil
}

func spanAt(p ast.Pos) *ast.Span { return &ast.Span{Start: p, End: p} }

func (ti *TypeInferencer) resolveTypeExpr(te ast.TypeExpr) (Type, error) {
	switch t := te.(type) {
	case *ast.NameType:
		if prim, ok := FromToken(t.Name); ok {
			return prim, nil
		}
		if s, ok := ti.env.LookupStruct(t.Name); ok {
			return s, nil
		}
		return nil, errors.WrapReport(errors.New(errors.TYP002, "typecheck",
			"unknown type '"+t.Name+"'", spanAt(t.Pos)))
	case *ast.GenericType:
		switch t.Name {
		case "list":
			elem, err := ti.resolveTypeExpr(t.Args[0])
			if err != nil {
				return nil, err
			}
			return &List{Elem: elem}, nil
		case "dict":
			key, err := ti.resolveTypeExpr(t.Args[0])
			if err != nil {
				return nil, err
			}
			val, err := ti.resolveTypeExpr(t.Args[1])
			if err != nil {
				return nil, err
			}
			return &Dict{Key: key, Val: val}, nil
		case "set":
			elem, err := ti.resolveTypeExpr(t.Args[0])
			if err != nil {
				return nil, err
			}
			return &Set{Elem: elem}, nil
		}
	}
	return nil, errors.WrapReport(errors.New(errors.TYP002, "typecheck", "unrecognized type annotation", spanAt(te.Position())))
}

func (ti *TypeInferencer) inferStmts(stmts []ast.Stmt, env *TypeEnv) error {
	for _, s := range stmts {
		if err := ti.inferStmt(s, env); err != nil {
			return err
		}
	}
	return nil
}

func (ti *TypeInferencer) inferStmt(s ast.Stmt, env *TypeEnv) error {
	switch stmt := s.(type) {
	case *ast.AssignStmt:
		var declared Type
		if stmt.Annotation != nil {
			t, err := ti.resolveTypeExpr(stmt.Annotation)
			if err != nil {
				return err
			}
			declared = t
		}
		valType, err := ti.inferExpr(stmt.Value, env)
		if err != nil {
			return err
		}
		// An empty container literal has no element type of its own; it
		// takes the declared annotation's.
		if lit, ok := stmt.Value.(*ast.ContainerLiteral); ok && declared != nil && len(lit.Elements) == 0 {
			_, dl := declared.(*List)
			_, ds := declared.(*Set)
			_, dd := declared.(*Dict)
			if (lit.Kind == ast.ListContainer && dl) || (lit.Kind == ast.SetContainer && ds) || (lit.Kind == ast.DictContainer && dd) {
				valType = declared
				ti.ann.ExprTypes[stmt.Value] = declared
			}
		}
		finalType := declared
		if finalType == nil {
			if name, ok := stmt.Target.(*ast.Name); ok {
				if existing, ok := env.Lookup(name.Value); ok {
					finalType = existing
				}
			}
			if finalType == nil {
				finalType = valType
			}
		} else if !typeCompatible(declared, valType) {
			return errors.WrapReport(errors.New(errors.TYP002, "typecheck",
				"declared type "+declared.String()+" contradicts assigned value of type "+valType.String(),
				spanAt(stmt.Pos)))
		}
		if name, ok := stmt.Target.(*ast.Name); ok {
			env.Define(name.Value, finalType)
		}
		return nil
	case *ast.AugAssignStmt:
		if name, ok := stmt.Target.(*ast.Name); ok {
			if _, ok := env.Lookup(name.Value); !ok {
				return errors.WrapReport(errors.New(errors.IR002, "typecheck",
					"undefined reference: '"+name.Value+"'", spanAt(stmt.Pos)))
			}
		}
		_, err := ti.inferExpr(stmt.Value, env)
		return err
	case *ast.IfStmt:
		if _, err := ti.inferExpr(stmt.Cond, env); err != nil {
			return err
		}
		if err := ti.inferStmts(stmt.Then, env.Child()); err != nil {
			return err
		}
		return ti.inferStmts(stmt.Else, env.Child())
	case *ast.WhileStmt:
		if _, err := ti.inferExpr(stmt.Cond, env); err != nil {
			return err
		}
		return ti.inferStmts(stmt.Body, env.Child())
	case *ast.ForRangeStmt:
		child := env.Child()
		child.Define(stmt.Var, I64)
		for _, e := range []ast.Expr{stmt.Start, stmt.Stop, stmt.Step} {
			if e == nil {
				continue
			}
			if _, err := ti.inferExpr(e, env); err != nil {
				return err
			}
		}
		return ti.inferStmts(stmt.Body, child)
	case *ast.ForContainerStmt:
		ct, err := ti.inferExpr(stmt.Container, env)
		if err != nil {
			return err
		}
		child := env.Child()
		switch c := ct.(type) {
		case *List:
			child.Define(stmt.Var, c.Elem)
		case *Set:
			child.Define(stmt.Var, c.Elem)
		case *Dict:
			child.Define(stmt.Var, c.Key)
		default:
			child.Define(stmt.Var, &Unknown{Reason: "iterating non-container"})
		}
		return ti.inferStmts(stmt.Body, child)
	case *ast.ReturnStmt:
		if stmt.Value != nil {
			_, err := ti.inferExpr(stmt.Value, env)
			return err
		}
		return nil
	case *ast.AssertStmt:
		_, err := ti.inferExpr(stmt.Cond, env)
		return err
	case *ast.ExprStmt:
		_, err := ti.inferExpr(stmt.X, env)
		return err
	case *ast.BreakStmt, *ast.ContinueStmt, *ast.PassStmt:
		return nil
	}
	return nil
}

func typeCompatible(declared, actual Type) bool {
	if declared.Equals(actual) {
		return true
	}
	if IsNumeric(declared) && IsNumeric(actual) {
		return true // narrowing/widening between numeric annotations is allowed
	}
	if _, ok := actual.(*Unknown); ok {
		return true
	}
	return false
}

// inferExpr resolves and memoizes the type of e, recursing bottom-up.
func (ti *TypeInferencer) inferExpr(e ast.Expr, env *TypeEnv) (Type, error) {
	if t, ok := ti.ann.ExprTypes[e]; ok {
		return t, nil
	}
	t, err := ti.inferExprUncached(e, env)
	if err != nil {
		return nil, err
	}
	ti.ann.ExprTypes[e] = t
	return t, nil
}

func (ti *TypeInferencer) inferExprUncached(e ast.Expr, env *TypeEnv) (Type, error) {
	switch expr := e.(type) {
	case *ast.Literal:
		switch expr.Kind {
		case ast.IntLit:
			return I64, nil // spec.md §9: i64 default for undecorated int literals
		case ast.FloatLit:
			return F64, nil
		case ast.BoolLit:
			return Bool, nil
		case ast.StringLit:
			return CharP, nil
		case ast.NullLit:
			return VoidTy, nil
		}
	case *ast.Name:
		if t, ok := env.Lookup(expr.Value); ok {
			return t, nil
		}
		if sig, ok := env.LookupFunc(expr.Value); ok {
			return sig, nil
		}
		return nil, errors.WrapReport(errors.New(errors.IR002, "typecheck",
			"undefined reference: '"+expr.Value+"'", spanAt(expr.Pos)))
	case *ast.BinOp:
		lt, err := ti.inferExpr(expr.Left, env)
		if err != nil {
			return nil, err
		}
		rt, err := ti.inferExpr(expr.Right, env)
		if err != nil {
			return nil, err
		}
		if lt.Equals(CharP) && rt.Equals(CharP) && expr.Op == "+" {
			return CharP, nil
		}
		result, ok := Promote(lt, rt)
		if !ok {
			return nil, errors.WrapReport(errors.New(errors.TYP003, "typecheck",
				"operator '"+expr.Op+"' not defined for "+lt.String()+" and "+rt.String(), spanAt(expr.Pos)))
		}
		if expr.Op == "/" {
			return F64, nil // Python true-division always yields float
		}
		return result, nil
	case *ast.UnaryOp:
		ot, err := ti.inferExpr(expr.Operand, env)
		if err != nil {
			return nil, err
		}
		if expr.Op == "not" {
			return Bool, nil
		}
		return ot, nil
	case *ast.Compare:
		if _, err := ti.inferExpr(expr.Left, env); err != nil {
			return nil, err
		}
		for _, c := range expr.Comparators {
			if _, err := ti.inferExpr(c, env); err != nil {
				return nil, err
			}
		}
		return Bool, nil
	case *ast.BoolOp:
		for _, v := range expr.Values {
			if _, err := ti.inferExpr(v, env); err != nil {
				return nil, err
			}
		}
		return Bool, nil
	case *ast.Subscript:
		xt, err := ti.inferExpr(expr.X, env)
		if err != nil {
			return nil, err
		}
		if _, err := ti.inferExpr(expr.Index, env); err != nil {
			return nil, err
		}
		switch c := xt.(type) {
		case *List:
			return c.Elem, nil
		case *Dict:
			return c.Val, nil
		default:
			return nil, errors.WrapReport(errors.New(errors.TYP003, "typecheck",
				"subscript on non-container type "+xt.String(), spanAt(expr.Pos)))
		}
	case *ast.Slice:
		xt, err := ti.inferExpr(expr.X, env)
		if err != nil {
			return nil, err
		}
		return xt, nil
	case *ast.Attribute:
		xt, err := ti.inferExpr(expr.X, env)
		if err != nil {
			return nil, err
		}
		st, ok := xt.(*Struct)
		if !ok {
			return nil, errors.WrapReport(errors.New(errors.TYP003, "typecheck",
				"attribute access on non-struct type "+xt.String(), spanAt(expr.Pos)))
		}
		ft, ok := st.FieldType(expr.Name)
		if !ok {
			return nil, errors.WrapReport(errors.New(errors.IR002, "typecheck",
				"struct '"+st.Name+"' has no field '"+expr.Name+"'", spanAt(expr.Pos)))
		}
		return ft, nil
	case *ast.Call:
		return ti.inferCall(expr, env)
	case *ast.ContainerLiteral:
		return ti.inferContainerLiteral(expr, env)
	case *ast.Comprehension:
		return ti.inferComprehension(expr, env)
	case *ast.FString:
		for _, sub := range expr.Exprs {
			if _, err := ti.inferExpr(sub, env); err != nil {
				return nil, err
			}
		}
		return CharP, nil
	}
	return nil, errors.WrapReport(errors.New(errors.TYP001, "typecheck", "cannot infer type of expression", spanAt(e.Position())))
}

func (ti *TypeInferencer) inferCall(expr *ast.Call, env *TypeEnv) (Type, error) {
	name, isName := expr.Func.(*ast.Name)
	for _, a := range expr.Args {
		if _, err := ti.inferExpr(a, env); err != nil {
			return nil, err
		}
	}
	if !isName {
		// method call (recv.method(...)); container methods are
		// resolved by internal/hpcl, not here, from the receiver's
		// type recorded below.
		if attr, ok := expr.Func.(*ast.Attribute); ok {
			if _, err := ti.inferExpr(attr.X, env); err != nil {
				return nil, err
			}
		}
		return &Unknown{Reason: "method call"}, nil
	}
	switch name.Value {
	case "len":
		return I64, nil
	case "abs", "min", "max":
		if len(expr.Args) > 0 {
			return ti.inferExpr(expr.Args[0], env)
		}
		return I64, nil
	case "int":
		return I64, nil
	case "float":
		return F64, nil
	case "print":
		return VoidTy, nil
	case "range":
		return &Unknown{Reason: "range() is only valid as a for-loop iterator"}, nil
	}
	if sig, ok := env.LookupFunc(name.Value); ok {
		if len(sig.Params) != len(expr.Args) {
			return nil, errors.WrapReport(errors.New(errors.TYP004, "typecheck",
				"call to '"+name.Value+"' has wrong argument count", spanAt(expr.Pos)))
		}
		return sig.Return, nil
	}
	return nil, errors.WrapReport(errors.New(errors.IR002, "typecheck",
		"undefined reference: '"+name.Value+"'", spanAt(expr.Pos)))
}

func (ti *TypeInferencer) inferContainerLiteral(expr *ast.ContainerLiteral, env *TypeEnv) (Type, error) {
	switch expr.Kind {
	case ast.ListContainer:
		if len(expr.Elements) == 0 {
			return &List{Elem: &Unknown{Reason: "empty list literal"}}, nil
		}
		elem, err := ti.inferExpr(expr.Elements[0], env)
		if err != nil {
			return nil, err
		}
		for _, el := range expr.Elements[1:] {
			if _, err := ti.inferExpr(el, env); err != nil {
				return nil, err
			}
		}
		return &List{Elem: elem}, nil
	case ast.SetContainer:
		if len(expr.Elements) == 0 {
			return &Set{Elem: &Unknown{Reason: "empty set literal"}}, nil
		}
		elem, err := ti.inferExpr(expr.Elements[0], env)
		if err != nil {
			return nil, err
		}
		return &Set{Elem: elem}, nil
	case ast.DictContainer:
		if len(expr.Keys) == 0 {
			return &Dict{Key: &Unknown{Reason: "empty dict literal"}, Val: &Unknown{Reason: "empty dict literal"}}, nil
		}
		kt, err := ti.inferExpr(expr.Keys[0], env)
		if err != nil {
			return nil, err
		}
		vt, err := ti.inferExpr(expr.Elements[0], env)
		if err != nil {
			return nil, err
		}
		return &Dict{Key: kt, Val: vt}, nil
	}
	return nil, errors.WrapReport(errors.New(errors.TYP001, "typecheck", "cannot infer container literal type", spanAt(expr.Pos)))
}

func (ti *TypeInferencer) inferComprehension(expr *ast.Comprehension, env *TypeEnv) (Type, error) {
	iterType, err := ti.inferExpr(expr.Iter, env)
	if err != nil {
		return nil, err
	}
	child := env.Child()
	switch c := iterType.(type) {
	case *List:
		child.Define(expr.Var, c.Elem)
	case *Set:
		child.Define(expr.Var, c.Elem)
	case *Dict:
		child.Define(expr.Var, c.Key)
	default:
		// range(...) is not a container type; its variable is an i64
		// counter, as in a for-range statement.
		if call, ok := expr.Iter.(*ast.Call); ok {
			if fn, ok := call.Func.(*ast.Name); ok && fn.Value == "range" {
				child.Define(expr.Var, I64)
				break
			}
		}
		child.Define(expr.Var, &Unknown{Reason: "iterating non-container"})
	}
	for _, cond := range expr.Conds {
		if _, err := ti.inferExpr(cond, child); err != nil {
			return nil, err
		}
	}
	valType, err := ti.inferExpr(expr.ValueExpr, child)
	if err != nil {
		return nil, err
	}
	switch expr.Kind {
	case ast.ListComp:
		return &List{Elem: valType}, nil
	case ast.SetComp:
		return &Set{Elem: valType}, nil
	case ast.DictComp:
		keyType, err := ti.inferExpr(expr.KeyExpr, child)
		if err != nil {
			return nil, err
		}
		return &Dict{Key: keyType, Val: valType}, nil
	}
	return nil, errors.WrapReport(errors.New(errors.TYP001, "typecheck", "cannot infer comprehension type", spanAt(expr.Pos)))
}
