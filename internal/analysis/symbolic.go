package analysis

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/core"
	"github.com/shakfu/cgen-go/internal/smt"
)

// defaultPathBound is the per-function exploration cap spec.md §4.4.4
// names ("up to a configurable bound (default 32 paths per function)").
const defaultPathBound = 32

// defaultUnrollDepth bounds loop-header unrolling before widening.
const defaultUnrollDepth = 3

// SymbolicExecutor implements spec.md §4.4.4. It depends on the
// control-flow pass's CFG to compute coverage-percentage.
type SymbolicExecutor struct {
	Backend smt.Backend // nil defaults to smt.MockBackend{}
}

func (a *SymbolicExecutor) Name() string { return "symbolic-execution" }

func (a *SymbolicExecutor) backend() smt.Backend {
	if a.Backend != nil {
		return a.Backend
	}
	return smt.MockBackend{}
}

func (a *SymbolicExecutor) Analyze(ctx *Context) (*Report, error) {
	r := newReport(a.Name())
	backend := a.backend()

	var cfgs map[string]*CFG
	if prior, ok := ctx.PriorReport("control-flow"); ok {
		if m, ok := prior.Metadata["cfgs"].(map[string]*CFG); ok {
			cfgs = m
		}
	}

	for _, d := range ctx.Program.Decls {
		fd, ok := d.(*core.FuncDecl)
		if !ok {
			continue
		}
		se := &symState{
			fn:      fd.Name,
			backend: backend,
			bound:   defaultPathBound,
			report:  r,
		}
		se.explore(fd.Body, nil, 0)

		totalEdges := 0
		if g, ok := cfgs[fd.Name]; ok {
			totalEdges = len(g.Edges)
		}
		coverage := 0.0
		if totalEdges > 0 {
			coverage = float64(len(se.coveredEdges)) / float64(totalEdges) * 100
			if coverage > 100 {
				coverage = 100
			}
		}

		r.find(Finding{
			Severity: "info", Function: fd.Name, Line: fd.Position().Line,
			Message: fmt.Sprintf("%d/%d paths explored, %.1f%% edge coverage", se.completed, se.pathsExplored, coverage),
			Data: map[string]interface{}{
				"paths_explored": se.pathsExplored,
				"completed":      se.completed,
				"coverage_pct":   coverage,
			},
		})
	}
	return r, nil
}

type symState struct {
	fn            string
	backend       smt.Backend
	bound         int
	pathsExplored int
	completed     int
	coveredEdges  map[string]bool
	report        *Report
}

func (se *symState) markEdge(tag string) {
	if se.coveredEdges == nil {
		se.coveredEdges = map[string]bool{}
	}
	se.coveredEdges[tag] = true
}

// explore walks stmts along one symbolic path, forking at each
// conditional. pathCond accumulates the branch predicates taken so
// far (purely for bookkeeping; the mock backend never prunes on it).
func (se *symState) explore(stmts []core.Stmt, pathCond []smt.Formula, unrollDepth int) {
	if se.pathsExplored >= se.bound {
		return
	}
	for i, s := range stmts {
		switch st := s.(type) {
		case *core.If:
			se.checkDivisions(st.Cond)
			se.pathsExplored++
			result, _ := se.backend.Check(smt.Formula{Op: "cond"}, pathCond, 30000)
			if result != smt.Refuted {
				se.markEdge(fmt.Sprintf("%p:true", st))
				se.explore(st.Then, append(pathCond, smt.Formula{Op: "true-branch"}), unrollDepth)
				se.explore(stmts[i+1:], pathCond, unrollDepth)
			}
			if result != smt.Proven {
				se.markEdge(fmt.Sprintf("%p:false", st))
				se.explore(st.Else, append(pathCond, smt.Formula{Op: "false-branch"}), unrollDepth)
				se.explore(stmts[i+1:], pathCond, unrollDepth)
			}
			return
		case *core.While:
			se.checkDivisions(st.Cond)
			se.exploreLoop(st.Body, pathCond, unrollDepth)
		case *core.ForRange:
			for _, e := range []core.Expr{st.Start, st.Stop, st.Step} {
				se.checkDivisions(e)
			}
			se.exploreLoop(st.Body, pathCond, unrollDepth)
		case *core.ForContainer:
			se.exploreLoop(st.Body, pathCond, unrollDepth)
		case *core.Assign:
			se.checkDivisions(st.Value)
		case *core.Return:
			se.checkDivisions(st.Value)
		case *core.ExprStmt:
			se.checkDivisions(st.X)
		}
	}
	se.completed++
}

func (se *symState) exploreLoop(body []core.Stmt, pathCond []smt.Formula, depth int) {
	if depth >= defaultUnrollDepth {
		// Widen: treat one more pass abstractly without re-unrolling
		// further (spec.md §4.4.4's "unrolls up to a fixed depth, then
		// widens").
		se.explore(body, pathCond, depth)
		return
	}
	se.markEdge(fmt.Sprintf("%p:iter%d", &body, depth))
	se.explore(body, pathCond, depth+1)
}

// checkDivisions flags division where the divisor is a symbolic
// (non-literal) expression, per spec.md §4.4.4's potential-
// vulnerabilities: "division by symbolic expression whose equality to
// zero is satisfiable".
func (se *symState) checkDivisions(e core.Expr) {
	if e == nil {
		return
	}
	switch expr := e.(type) {
	case *core.BinOp:
		if expr.Op == "/" || expr.Op == "//" || expr.Op == "%" {
			if _, literal := expr.Right.(*core.Literal); !literal {
				se.report.find(Finding{
					Severity: "warning", Function: se.fn, Line: expr.Position().Line,
					Message: "potential division by zero: divisor is a symbolic expression",
				})
			}
		}
		se.checkDivisions(expr.Left)
		se.checkDivisions(expr.Right)
	case *core.UnaryOp:
		se.checkDivisions(expr.Operand)
	case *core.Compare:
		se.checkDivisions(expr.Left)
		se.checkDivisions(expr.Right)
	case *core.BoolOp:
		for _, v := range expr.Values {
			se.checkDivisions(v)
		}
	case *core.Call:
		for _, a := range expr.Args {
			se.checkDivisions(a)
		}
	case *core.Subscript:
		se.checkDivisions(expr.X)
		se.checkDivisions(expr.Index)
	}
}
