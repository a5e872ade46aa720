package analysis

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/core"
)

// Safety classifies a bounds obligation (spec.md §4.4.2).
type Safety int

const (
	Safe Safety = iota
	Unsafe
	UnknownSafety
)

func (s Safety) String() string {
	switch s {
	case Safe:
		return "safe"
	case Unsafe:
		return "unsafe"
	}
	return "unknown"
}

// Obligation is one `0 <= idx < len(arr)` bounds check.
type Obligation struct {
	Function string
	Line     int
	Array    string
	Safety   Safety
}

// region is the per-variable memory-region record spec.md §4.4.2 names.
type region struct {
	size     int
	hasSize  bool
	isParam  bool
}

type loopFrame struct {
	loopVar string
	arr     string
}

// BoundsChecker implements spec.md §4.4.2.
type BoundsChecker struct{}

func (a *BoundsChecker) Name() string { return "bounds" }

func (a *BoundsChecker) Analyze(ctx *Context) (*Report, error) {
	r := newReport(a.Name())
	var all []Obligation

	for _, d := range ctx.Program.Decls {
		fd, ok := d.(*core.FuncDecl)
		if !ok {
			continue
		}
		bc := &boundsWalk{fn: fd.Name, regions: map[string]*region{}}
		for _, p := range fd.Params {
			bc.regions[p.Name] = &region{isParam: true}
		}
		bc.walkStmts(fd.Body)
		all = append(all, bc.obligations...)
	}

	var safe, unsafe, unknown int
	for _, o := range all {
		sev := "info"
		msg := fmt.Sprintf("%s: subscript on '%s' classified %s", o.Function, o.Array, o.Safety)
		switch o.Safety {
		case Safe:
			safe++
		case Unsafe:
			unsafe++
			sev = "error"
		case UnknownSafety:
			unknown++
		}
		r.find(Finding{Severity: sev, Function: o.Function, Line: o.Line, Message: msg,
			Data: map[string]interface{}{"array": o.Array, "safety": o.Safety.String()}})
	}
	total := safe + unsafe + unknown
	pct := 100.0
	if total > 0 {
		pct = float64(safe) / float64(total) * 100
	}
	r.Metadata["safety_percentage"] = pct
	r.Metadata["obligations"] = all
	if unsafe > 0 {
		r.Confidence = 0.5
	}
	return r, nil
}

type boundsWalk struct {
	fn          string
	regions     map[string]*region
	loops       []loopFrame
	obligations []Obligation
}

func (bc *boundsWalk) walkStmts(stmts []core.Stmt) {
	for _, s := range stmts {
		bc.walkStmt(s)
	}
}

func (bc *boundsWalk) walkStmt(s core.Stmt) {
	switch st := s.(type) {
	case *core.Assign:
		bc.walkExpr(st.Value)
		if name, ok := st.Target.(*core.Name); ok {
			if lit, ok := st.Value.(*core.ContainerLiteral); ok && lit.Kind == ast.ListContainer {
				bc.regions[name.Value] = &region{size: len(lit.Elements), hasSize: true}
			}
		}
	case *core.VarDecl:
		if st.Init != nil {
			bc.walkExpr(st.Init)
			if lit, ok := st.Init.(*core.ContainerLiteral); ok && lit.Kind == ast.ListContainer {
				bc.regions[st.Name] = &region{size: len(lit.Elements), hasSize: true}
			}
		}
	case *core.If:
		bc.walkExpr(st.Cond)
		bc.walkStmts(st.Then)
		bc.walkStmts(st.Else)
	case *core.While:
		bc.walkExpr(st.Cond)
		bc.walkStmts(st.Body)
	case *core.ForRange:
		frame := loopFrame{}
		if st.Stop != nil {
			if call, ok := st.Stop.(*core.Call); ok && call.Kind == core.BuiltinCall {
				if name, ok := call.Func.(*core.Name); ok && name.Value == "len" && len(call.Args) == 1 {
					if arrName, ok := call.Args[0].(*core.Name); ok {
						frame = loopFrame{loopVar: st.Var, arr: arrName.Value}
					}
				}
			}
		}
		bc.loops = append(bc.loops, frame)
		bc.walkStmts(st.Body)
		bc.loops = bc.loops[:len(bc.loops)-1]
	case *core.ForContainer:
		bc.walkExpr(st.Container)
		bc.loops = append(bc.loops, loopFrame{})
		bc.walkStmts(st.Body)
		bc.loops = bc.loops[:len(bc.loops)-1]
	case *core.Return:
		bc.walkExpr(st.Value)
	case *core.Assert:
		bc.walkExpr(st.Cond)
		bc.walkExpr(st.Msg)
	case *core.ExprStmt:
		bc.walkExpr(st.X)
	}
}

func (bc *boundsWalk) walkExpr(e core.Expr) {
	if e == nil {
		return
	}
	switch expr := e.(type) {
	case *core.Subscript:
		bc.walkExpr(expr.X)
		bc.walkExpr(expr.Index)
		if arr, ok := expr.X.(*core.Name); ok {
			bc.obligations = append(bc.obligations, Obligation{
				Function: bc.fn, Line: expr.Position().Line, Array: arr.Value,
				Safety: bc.classify(arr.Value, expr.Index),
			})
		}
	case *core.BinOp:
		bc.walkExpr(expr.Left)
		bc.walkExpr(expr.Right)
	case *core.UnaryOp:
		bc.walkExpr(expr.Operand)
	case *core.Compare:
		bc.walkExpr(expr.Left)
		bc.walkExpr(expr.Right)
	case *core.BoolOp:
		for _, v := range expr.Values {
			bc.walkExpr(v)
		}
	case *core.Slice:
		bc.walkExpr(expr.X)
	case *core.Attribute:
		bc.walkExpr(expr.X)
	case *core.Call:
		bc.walkExpr(expr.Func)
		for _, a := range expr.Args {
			bc.walkExpr(a)
		}
	case *core.ContainerLiteral:
		for _, el := range expr.Elements {
			bc.walkExpr(el)
		}
	case *core.FormatCall:
		for _, a := range expr.Args {
			bc.walkExpr(a)
		}
	}
}

func (bc *boundsWalk) classify(arr string, idx core.Expr) Safety {
	reg := bc.regions[arr]

	if lit, ok := idx.(*core.Literal); ok {
		n, ok := asInt(lit.Value)
		if !ok || reg == nil || !reg.hasSize {
			return UnknownSafety
		}
		if n >= 0 && n < reg.size {
			return Safe
		}
		if n < 0 && n >= -reg.size {
			return Safe
		}
		return Unsafe
	}

	if name, ok := idx.(*core.Name); ok {
		for _, f := range bc.loops {
			if f.loopVar == name.Value && f.arr == arr {
				return Safe
			}
		}
	}
	return UnknownSafety
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
