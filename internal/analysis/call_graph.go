package analysis

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/core"
)

// ContextTag classifies the syntactic position of a call site.
type ContextTag int

const (
	Unconditional ContextTag = iota
	InConditional
	InLoop
	RecursiveSelf
)

func (t ContextTag) String() string {
	switch t {
	case InConditional:
		return "in-conditional"
	case InLoop:
		return "in-loop"
	case RecursiveSelf:
		return "recursive"
	}
	return "unconditional"
}

// CallSite is one call-graph edge observation (spec.md §4.4.3).
type CallSite struct {
	Caller  string
	Callee  string
	Line    int
	Context ContextTag
}

// CallGraph is the directed multigraph of CallSites plus the derived
// node table, kept as arena-indexed nodes with integer edges rather
// than owned-pointer links (spec.md §9's cyclic-data-ownership rule).
type CallGraph struct {
	Nodes []string          // function names, index = node id
	index map[string]int
	Sites []CallSite
	adj   map[int][]int
}

func (g *CallGraph) nodeID(name string) int {
	if id, ok := g.index[name]; ok {
		return id
	}
	id := len(g.Nodes)
	g.Nodes = append(g.Nodes, name)
	g.index[name] = id
	return id
}

// FanOut returns the number of distinct callees of fn.
func (g *CallGraph) FanOut(fn string) int {
	id, ok := g.index[fn]
	if !ok {
		return 0
	}
	seen := map[int]bool{}
	for _, to := range g.adj[id] {
		seen[to] = true
	}
	return len(seen)
}

// FanIn returns the number of distinct callers of fn.
func (g *CallGraph) FanIn(fn string) int {
	id, ok := g.index[fn]
	if !ok {
		return 0
	}
	count := 0
	for from, tos := range g.adj {
		for _, to := range tos {
			if to == id {
				count++
				_ = from
				break
			}
		}
	}
	return count
}

// SCCs computes strongly-connected components via iterative Tarjan,
// using an explicit stack rather than recursion (spec.md §9: "cycle
// detection uses iterative DFS... not recursion, to bound stack
// depth"). A component of size > 1, or a single node with a self-edge,
// is a mutual-recursion cycle.
func (g *CallGraph) SCCs() [][]int {
	n := len(g.Nodes)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	var sccs [][]int
	counter := 0

	type frame struct {
		node   int
		edgeAt int
	}

	for start := 0; start < n; start++ {
		if index[start] != -1 {
			continue
		}
		var work []frame
		work = append(work, frame{node: start})
		index[start] = counter
		low[start] = counter
		counter++
		stack = append(stack, start)
		onStack[start] = true

		for len(work) > 0 {
			top := &work[len(work)-1]
			v := top.node
			if top.edgeAt < len(g.adj[v]) {
				w := g.adj[v][top.edgeAt]
				top.edgeAt++
				if index[w] == -1 {
					index[w] = counter
					low[w] = counter
					counter++
					stack = append(stack, w)
					onStack[w] = true
					work = append(work, frame{node: w})
				} else if onStack[w] && low[w] < low[v] {
					low[v] = low[w]
				}
				continue
			}
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := &work[len(work)-1]
				if low[v] < low[parent.node] {
					low[parent.node] = low[v]
				}
			}
			if low[v] == index[v] {
				var comp []int
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp = append(comp, w)
					if w == v {
						break
					}
				}
				sccs = append(sccs, comp)
			}
		}
	}
	return sccs
}

// CallDepth returns the longest call-chain length starting at fn,
// computed with an explicit work-stack (no recursion) over the graph;
// a function already on the current chain is not re-entered, so
// mutual recursion terminates.
func (g *CallGraph) CallDepth(fn string) int {
	start, ok := g.index[fn]
	if !ok {
		return 0
	}
	depth := make([]int, len(g.Nodes))
	for i := range depth {
		depth[i] = -1
	}
	type frame struct {
		node, best int
		onPath     map[int]bool
	}
	var stack []frame
	stack = append(stack, frame{start, 0, map[int]bool{start: true}})
	maxDepth := 0
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.best > maxDepth {
			maxDepth = f.best
		}
		for _, to := range g.adj[f.node] {
			if f.onPath[to] {
				continue // cycle: don't loop forever
			}
			onPath := map[int]bool{to: true}
			for k := range f.onPath {
				onPath[k] = true
			}
			stack = append(stack, frame{to, f.best + 1, onPath})
		}
	}
	return maxDepth
}

// CallGraphAnalyzer implements spec.md §4.4.3.
type CallGraphAnalyzer struct{}

func (a *CallGraphAnalyzer) Name() string { return "call-graph" }

func (a *CallGraphAnalyzer) Analyze(ctx *Context) (*Report, error) {
	r := newReport(a.Name())
	g := &CallGraph{index: map[string]int{}, adj: map[int][]int{}}

	userFuncs := map[string]bool{}
	for _, d := range ctx.Program.Decls {
		if fd, ok := d.(*core.FuncDecl); ok {
			userFuncs[fd.Name] = true
			g.nodeID(fd.Name)
		}
	}

	for _, d := range ctx.Program.Decls {
		fd, ok := d.(*core.FuncDecl)
		if !ok {
			continue
		}
		cw := &callWalk{fn: fd.Name, userFuncs: userFuncs}
		cw.walkStmts(fd.Body, Unconditional)
		for _, site := range cw.sites {
			g.Sites = append(g.Sites, site)
			from := g.nodeID(site.Caller)
			to := g.nodeID(site.Callee)
			g.adj[from] = append(g.adj[from], to)
		}
	}

	for _, comp := range g.SCCs() {
		if len(comp) > 1 {
			var names []string
			for _, id := range comp {
				names = append(names, g.Nodes[id])
			}
			r.find(Finding{Severity: "info", Message: fmt.Sprintf("mutual recursion cycle: %v", names),
				Data: map[string]interface{}{"cycle": names}})
		}
	}

	for _, name := range g.Nodes {
		fanOut := g.FanOut(name)
		fanIn := g.FanIn(name)
		if fanOut == 0 {
			r.find(Finding{Severity: "info", Function: name, Message: "leaf function"})
		}
		if fanIn == 0 && !isEntryCandidate(name) {
			r.find(Finding{Severity: "warning", Function: name, Message: "unreachable function (fan-in 0)"})
		}
	}

	r.Metadata["graph"] = g
	return r, nil
}

func isEntryCandidate(name string) bool {
	return name == "main"
}

type callWalk struct {
	fn        string
	userFuncs map[string]bool
	sites     []CallSite
}

func (cw *callWalk) record(callee string, line int, ctxTag ContextTag) {
	if callee == cw.fn {
		ctxTag = RecursiveSelf
	}
	cw.sites = append(cw.sites, CallSite{Caller: cw.fn, Callee: callee, Line: line, Context: ctxTag})
}

func (cw *callWalk) walkStmts(stmts []core.Stmt, tag ContextTag) {
	for _, s := range stmts {
		cw.walkStmt(s, tag)
	}
}

func (cw *callWalk) walkStmt(s core.Stmt, tag ContextTag) {
	switch st := s.(type) {
	case *core.Assign:
		cw.walkExpr(st.Value, tag)
	case *core.VarDecl:
		cw.walkExpr(st.Init, tag)
	case *core.If:
		cw.walkExpr(st.Cond, tag)
		cw.walkStmts(st.Then, InConditional)
		cw.walkStmts(st.Else, InConditional)
	case *core.While:
		cw.walkExpr(st.Cond, tag)
		cw.walkStmts(st.Body, InLoop)
	case *core.ForRange:
		cw.walkExpr(st.Stop, tag)
		cw.walkStmts(st.Body, InLoop)
	case *core.ForContainer:
		cw.walkExpr(st.Container, tag)
		cw.walkStmts(st.Body, InLoop)
	case *core.Return:
		cw.walkExpr(st.Value, tag)
	case *core.Assert:
		cw.walkExpr(st.Cond, tag)
	case *core.ExprStmt:
		cw.walkExpr(st.X, tag)
	}
}

func (cw *callWalk) walkExpr(e core.Expr, tag ContextTag) {
	if e == nil {
		return
	}
	switch expr := e.(type) {
	case *core.BinOp:
		cw.walkExpr(expr.Left, tag)
		cw.walkExpr(expr.Right, tag)
	case *core.UnaryOp:
		cw.walkExpr(expr.Operand, tag)
	case *core.Compare:
		cw.walkExpr(expr.Left, tag)
		cw.walkExpr(expr.Right, tag)
	case *core.BoolOp:
		for _, v := range expr.Values {
			cw.walkExpr(v, tag)
		}
	case *core.Subscript:
		cw.walkExpr(expr.X, tag)
		cw.walkExpr(expr.Index, tag)
	case *core.Attribute:
		cw.walkExpr(expr.X, tag)
	case *core.Call:
		for _, a := range expr.Args {
			cw.walkExpr(a, tag)
		}
		if expr.Kind == core.UserCall {
			if name, ok := expr.Func.(*core.Name); ok && cw.userFuncs[name.Value] {
				cw.record(name.Value, expr.Position().Line, tag)
			}
		}
	case *core.ContainerLiteral:
		for _, el := range expr.Elements {
			cw.walkExpr(el, tag)
		}
	case *core.FormatCall:
		for _, a := range expr.Args {
			cw.walkExpr(a, tag)
		}
	}
}
