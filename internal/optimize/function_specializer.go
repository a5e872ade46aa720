package optimize

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/analysis"
	"github.com/shakfu/cgen-go/internal/core"
)

const (
	constantFoldMinSites = 3  // spec.md §4.5.3 default N
	inlineMaxNodes       = 12 // spec.md §4.5.3 default M
)

// SpecializationKind is the candidate category spec.md §4.5.3 names.
type SpecializationKind int

const (
	ConstantFoldSpecialization SpecializationKind = iota
	TypeSpecialization
	Inlining
	Memoization
)

func (k SpecializationKind) String() string {
	switch k {
	case ConstantFoldSpecialization:
		return "constant-folding specialization"
	case TypeSpecialization:
		return "type specialization"
	case Inlining:
		return "inlining"
	case Memoization:
		return "memoization"
	}
	return "unknown"
}

// SpecializationCandidate is one proposed directive for the IR
// builder/emitter to realize (spec.md §4.5.3: "emitted as
// transformation directives", not applied by this pass directly).
type SpecializationCandidate struct {
	Function  string
	Kind      SpecializationKind
	Parameter string // set for constant-fold/type specialization
	Detail    string
	Benefit   float64 // call-site-coverage * per-call-speedup
}

// FunctionSpecializer implements spec.md §4.5.3. It counts call sites
// by walking the IR itself; the call-graph analyzer's report is looked
// up but not used.
type FunctionSpecializer struct{}

func (o *FunctionSpecializer) Name() string { return "function-specializer" }

func (o *FunctionSpecializer) Optimize(ctx *Context) (*Result, error) {
	r := newResult(o.Name())

	var graph *analysis.CallGraph
	if report, ok := ctx.analysisReport("call-graph"); ok {
		if g, ok := report.Metadata["graph"].(*analysis.CallGraph); ok {
			graph = g
		}
	}

	funcs := map[string]*core.FuncDecl{}
	for _, d := range ctx.Program.Decls {
		if fd, ok := d.(*core.FuncDecl); ok {
			funcs[fd.Name] = fd
		}
	}

	sites := collectCallSites(ctx.Program)

	var candidates []SpecializationCandidate
	for name, fd := range funcs {
		callSites := sites[name]
		callCount := len(callSites)

		for pi, p := range fd.Params {
			if lits, dominant, ok := dominantLiteralArg(callSites, pi); ok && lits >= constantFoldMinSites {
				coverage := float64(lits) / float64(maxInt(callCount, 1))
				candidates = append(candidates, SpecializationCandidate{
					Function: name, Kind: ConstantFoldSpecialization, Parameter: p.Name,
					Detail:  fmt.Sprintf("parameter %q is the literal constant %v at %d/%d call sites", p.Name, dominant, lits, callCount),
					Benefit: coverage * 1.4,
				})
			}
		}

		if isPureFunction(fd) {
			candidates = append(candidates, SpecializationCandidate{
				Function: name, Kind: Memoization,
				Detail:  fmt.Sprintf("%s has no side effects and hashable parameters", name),
				Benefit: 0.3 * float64(callCount),
			})
		}

		if countNodes(fd.Body) <= inlineMaxNodes && callCount >= 1 {
			candidates = append(candidates, SpecializationCandidate{
				Function: name, Kind: Inlining,
				Detail:  fmt.Sprintf("%s body is <= %d nodes, called %d time(s)", name, inlineMaxNodes, callCount),
				Benefit: 1.0 * float64(callCount),
			})
		}
	}

	sortCandidatesByBenefit(candidates)

	gain := 1.0
	for _, c := range candidates {
		r.Transformations = append(r.Transformations, Transformation{
			Function: c.Function, Description: fmt.Sprintf("%s: %s", c.Kind, c.Detail), Safe: true,
		})
		gain += c.Benefit * 0.1
	}
	r.PerformanceGainEstimate = gain
	r.Metadata["candidates"] = candidates
	_ = graph
	return r, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func sortCandidatesByBenefit(cs []SpecializationCandidate) {
	for i := 1; i < len(cs); i++ {
		for j := i; j > 0 && cs[j].Benefit > cs[j-1].Benefit; j-- {
			cs[j], cs[j-1] = cs[j-1], cs[j]
		}
	}
}

// callRecord is one observed call's argument list, gathered directly
// from the IR (the call-graph's CallSite does not carry arguments).
type callRecord struct {
	Args []core.Expr
}

func collectCallSites(prog *core.Program) map[string][]callRecord {
	out := map[string][]callRecord{}
	userFuncs := map[string]bool{}
	for _, d := range prog.Decls {
		if fd, ok := d.(*core.FuncDecl); ok {
			userFuncs[fd.Name] = true
		}
	}
	var walk func(stmts []core.Stmt)
	var walkExpr func(e core.Expr)
	walkExpr = func(e core.Expr) {
		if e == nil {
			return
		}
		switch expr := e.(type) {
		case *core.Call:
			for _, a := range expr.Args {
				walkExpr(a)
			}
			if expr.Kind == core.UserCall {
				if name, ok := expr.Func.(*core.Name); ok && userFuncs[name.Value] {
					out[name.Value] = append(out[name.Value], callRecord{Args: expr.Args})
				}
			}
		case *core.BinOp:
			walkExpr(expr.Left)
			walkExpr(expr.Right)
		case *core.UnaryOp:
			walkExpr(expr.Operand)
		case *core.Compare:
			walkExpr(expr.Left)
			walkExpr(expr.Right)
		case *core.BoolOp:
			for _, v := range expr.Values {
				walkExpr(v)
			}
		case *core.Subscript:
			walkExpr(expr.X)
			walkExpr(expr.Index)
		case *core.Attribute:
			walkExpr(expr.X)
		case *core.ContainerLiteral:
			for _, el := range expr.Elements {
				walkExpr(el)
			}
		case *core.FormatCall:
			for _, a := range expr.Args {
				walkExpr(a)
			}
		}
	}
	walk = func(stmts []core.Stmt) {
		for _, s := range stmts {
			switch st := s.(type) {
			case *core.Assign:
				walkExpr(st.Value)
			case *core.VarDecl:
				walkExpr(st.Init)
			case *core.If:
				walkExpr(st.Cond)
				walk(st.Then)
				walk(st.Else)
			case *core.While:
				walkExpr(st.Cond)
				walk(st.Body)
			case *core.ForRange:
				walkExpr(st.Start)
				walkExpr(st.Stop)
				walkExpr(st.Step)
				walk(st.Body)
			case *core.ForContainer:
				walkExpr(st.Container)
				walk(st.Body)
			case *core.Return:
				walkExpr(st.Value)
			case *core.Assert:
				walkExpr(st.Cond)
			case *core.ExprStmt:
				walkExpr(st.X)
			}
		}
	}
	for _, d := range prog.Decls {
		if fd, ok := d.(*core.FuncDecl); ok {
			walk(fd.Body)
		}
	}
	return out
}

// dominantLiteralArg reports whether parameter index pi is the same
// literal constant across >= N call sites, and that value.
func dominantLiteralArg(sites []callRecord, pi int) (count int, value interface{}, ok bool) {
	counts := map[interface{}]int{}
	for _, s := range sites {
		if pi >= len(s.Args) {
			continue
		}
		lit, isLit := s.Args[pi].(*core.Literal)
		if !isLit {
			continue
		}
		counts[lit.Value]++
	}
	best := 0
	var bestVal interface{}
	for v, c := range counts {
		if c > best {
			best, bestVal = c, v
		}
	}
	if best == 0 {
		return 0, nil, false
	}
	return best, bestVal, true
}

// isPureFunction is a conservative syntactic approximation: no calls
// to non-builtin functions that could perform I/O, and no global
// mutation (the IR has no global-assignment statement shape at all,
// so any Assign always targets a local).
func isPureFunction(fd *core.FuncDecl) bool {
	pure := true
	var walkExpr func(e core.Expr)
	walkExpr = func(e core.Expr) {
		if e == nil || !pure {
			return
		}
		if call, ok := e.(*core.Call); ok {
			if call.Kind == core.UserCall || call.Kind == core.MethodCall {
				pure = false
				return
			}
		}
		switch expr := e.(type) {
		case *core.Call:
			for _, a := range expr.Args {
				walkExpr(a)
			}
		case *core.BinOp:
			walkExpr(expr.Left)
			walkExpr(expr.Right)
		case *core.UnaryOp:
			walkExpr(expr.Operand)
		case *core.Compare:
			walkExpr(expr.Left)
			walkExpr(expr.Right)
		case *core.BoolOp:
			for _, v := range expr.Values {
				walkExpr(v)
			}
		case *core.Subscript:
			walkExpr(expr.X)
			walkExpr(expr.Index)
		}
	}
	var walk func(stmts []core.Stmt)
	walk = func(stmts []core.Stmt) {
		for _, s := range stmts {
			if !pure {
				return
			}
			switch st := s.(type) {
			case *core.Assign:
				walkExpr(st.Value)
			case *core.VarDecl:
				walkExpr(st.Init)
			case *core.If:
				walkExpr(st.Cond)
				walk(st.Then)
				walk(st.Else)
			case *core.While:
				walkExpr(st.Cond)
				walk(st.Body)
			case *core.ForRange:
				walk(st.Body)
			case *core.ForContainer:
				walk(st.Body)
			case *core.Return:
				walkExpr(st.Value)
			case *core.ExprStmt:
				walkExpr(st.X)
			}
		}
	}
	walk(fd.Body)
	return pure
}

func countNodes(stmts []core.Stmt) int {
	n := 0
	var walkExpr func(e core.Expr) int
	walkExpr = func(e core.Expr) int {
		if e == nil {
			return 0
		}
		c := 1
		switch expr := e.(type) {
		case *core.BinOp:
			c += walkExpr(expr.Left) + walkExpr(expr.Right)
		case *core.UnaryOp:
			c += walkExpr(expr.Operand)
		case *core.Compare:
			c += walkExpr(expr.Left) + walkExpr(expr.Right)
		case *core.BoolOp:
			for _, v := range expr.Values {
				c += walkExpr(v)
			}
		case *core.Call:
			for _, a := range expr.Args {
				c += walkExpr(a)
			}
		case *core.Subscript:
			c += walkExpr(expr.X) + walkExpr(expr.Index)
		}
		return c
	}
	for _, s := range stmts {
		n++
		switch st := s.(type) {
		case *core.Assign:
			n += walkExpr(st.Value)
		case *core.VarDecl:
			n += walkExpr(st.Init)
		case *core.If:
			n += walkExpr(st.Cond)
			n += countNodes(st.Then)
			n += countNodes(st.Else)
		case *core.While:
			n += walkExpr(st.Cond)
			n += countNodes(st.Body)
		case *core.ForRange:
			n += countNodes(st.Body)
		case *core.ForContainer:
			n += countNodes(st.Body)
		case *core.Return:
			n += walkExpr(st.Value)
		case *core.ExprStmt:
			n += walkExpr(st.X)
		}
	}
	return n
}
