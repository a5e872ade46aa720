package analysis

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/core"
)

// Block is one basic block: a straight-line run of statements with a
// single entry and, apart from its terminating branch, a single exit.
type Block struct {
	ID    int
	Stmts []core.Stmt
}

// Edge connects two blocks, tagged with the branch condition that
// selects it (spec.md §4.4.1: "edges are successors tagged with
// condition (true/false/fall-through)").
type Edge struct {
	From, To int
	Cond     string
}

// CFG is one function's control-flow graph.
type CFG struct {
	Func    string
	Blocks  []*Block
	Edges   []Edge
	Entry   int
}

func (g *CFG) outEdges(id int) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

func (g *CFG) inDegree() map[int]int {
	in := map[int]int{}
	for _, e := range g.Edges {
		in[e.To]++
	}
	return in
}

// CyclomaticComplexity computes E - N + 2, the standard per-function
// formula for a single-entry single-exit CFG.
func (g *CFG) CyclomaticComplexity() int {
	return len(g.Edges) - len(g.Blocks) + 2
}

type cfgBuilder struct {
	blocks []*Block
	edges  []Edge
}

func (cb *cfgBuilder) newBlock() int {
	id := len(cb.blocks)
	cb.blocks = append(cb.blocks, &Block{ID: id})
	return id
}

func (cb *cfgBuilder) addEdge(from, to int, cond string) {
	if from < 0 || to < 0 {
		return
	}
	cb.edges = append(cb.edges, Edge{From: from, To: to, Cond: cond})
}

func (cb *cfgBuilder) emit(block int, s core.Stmt) {
	cb.blocks[block].Stmts = append(cb.blocks[block].Stmts, s)
}

// build lays stmts into the graph starting at block cur, returning the
// block control falls through to afterward, or -1 if every path out of
// stmts terminates (return/break/continue).
func (cb *cfgBuilder) build(stmts []core.Stmt, cur int) int {
	for _, s := range stmts {
		switch st := s.(type) {
		case *core.If:
			cb.emit(cur, st)
			thenID := cb.newBlock()
			cb.addEdge(cur, thenID, "true")
			thenEnd := cb.build(st.Then, thenID)

			var falseTarget int
			if len(st.Else) > 0 {
				elseID := cb.newBlock()
				cb.addEdge(cur, elseID, "false")
				falseTarget = cb.build(st.Else, elseID)
			} else {
				falseTarget = cur
			}

			if thenEnd == -1 && falseTarget == -1 {
				return -1
			}
			merge := cb.newBlock()
			if thenEnd != -1 {
				cb.addEdge(thenEnd, merge, "fallthrough")
			}
			if falseTarget != -1 {
				tag := "fallthrough"
				if falseTarget == cur {
					tag = "false"
				}
				cb.addEdge(falseTarget, merge, tag)
			}
			cur = merge

		case *core.While:
			cb.emit(cur, st)
			header := cb.newBlock()
			cb.addEdge(cur, header, "fallthrough")
			bodyID := cb.newBlock()
			cb.addEdge(header, bodyID, "true")
			bodyEnd := cb.build(st.Body, bodyID)
			if bodyEnd != -1 {
				cb.addEdge(bodyEnd, header, "fallthrough")
			}
			after := cb.newBlock()
			cb.addEdge(header, after, "false")
			cur = after

		case *core.ForRange:
			cb.emit(cur, st)
			header := cb.newBlock()
			cb.addEdge(cur, header, "fallthrough")
			bodyID := cb.newBlock()
			cb.addEdge(header, bodyID, "true")
			bodyEnd := cb.build(st.Body, bodyID)
			if bodyEnd != -1 {
				cb.addEdge(bodyEnd, header, "fallthrough")
			}
			after := cb.newBlock()
			cb.addEdge(header, after, "false")
			cur = after

		case *core.ForContainer:
			cb.emit(cur, st)
			header := cb.newBlock()
			cb.addEdge(cur, header, "fallthrough")
			bodyID := cb.newBlock()
			cb.addEdge(header, bodyID, "true")
			bodyEnd := cb.build(st.Body, bodyID)
			if bodyEnd != -1 {
				cb.addEdge(bodyEnd, header, "fallthrough")
			}
			after := cb.newBlock()
			cb.addEdge(header, after, "false")
			cur = after

		case *core.Return:
			cb.emit(cur, st)
			return -1
		case *core.Break, *core.Continue:
			cb.emit(cur, st)
			return -1

		default:
			cb.emit(cur, s)
		}
	}
	return cur
}

// BuildCFG constructs the control-flow graph for one function body.
func BuildCFG(name string, body []core.Stmt) *CFG {
	cb := &cfgBuilder{}
	entry := cb.newBlock()
	cb.build(body, entry)
	return &CFG{Func: name, Blocks: cb.blocks, Edges: cb.edges, Entry: entry}
}

// ControlFlowAnalyzer implements spec.md §4.4.1.
type ControlFlowAnalyzer struct{}

func (a *ControlFlowAnalyzer) Name() string { return "control-flow" }

func (a *ControlFlowAnalyzer) Analyze(ctx *Context) (*Report, error) {
	r := newReport(a.Name())
	cfgs := map[string]*CFG{}

	for _, d := range ctx.Program.Decls {
		fd, ok := d.(*core.FuncDecl)
		if !ok {
			continue
		}
		g := BuildCFG(fd.Name, fd.Body)
		cfgs[fd.Name] = g

		in := g.inDegree()
		for _, b := range g.Blocks {
			if b.ID == g.Entry {
				continue
			}
			if in[b.ID] == 0 {
				r.warn(fmt.Sprintf("%s: unreachable block (id=%d)", fd.Name, b.ID))
				r.find(Finding{
					Severity: "warning", Function: fd.Name, Line: fd.Position().Line,
					Message: "unreachable code", Data: map[string]interface{}{"block": b.ID},
				})
			}
		}

		complexity := g.CyclomaticComplexity()
		r.find(Finding{
			Severity: "info", Function: fd.Name, Line: fd.Position().Line,
			Message: fmt.Sprintf("cyclomatic complexity %d", complexity),
			Data:    map[string]interface{}{"cyclomatic_complexity": complexity},
		})

		defined := map[string]bool{}
		used := map[string]bool{}
		for _, p := range fd.Params {
			defined[p.Name] = true
		}
		events := collectEvents(fd.Body)
		for _, ev := range events {
			switch ev.kind {
			case evUse:
				if !defined[ev.name] {
					r.find(Finding{
						Severity: "warning", Function: fd.Name, Line: ev.line,
						Message: fmt.Sprintf("'%s' used before definition", ev.name),
					})
				}
				used[ev.name] = true
			case evDef:
				defined[ev.name] = true
			}
		}
		for name := range defined {
			if !used[name] && !isParam(fd, name) {
				r.find(Finding{
					Severity: "warning", Function: fd.Name, Line: fd.Position().Line,
					Message: fmt.Sprintf("'%s' is defined but never used", name),
				})
			}
		}
	}

	r.Metadata["cfgs"] = cfgs
	return r, nil
}

func isParam(fd *core.FuncDecl, name string) bool {
	for _, p := range fd.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}

type eventKind int

const (
	evUse eventKind = iota
	evDef
)

type event struct {
	kind eventKind
	name string
	line int
}

// collectEvents walks a statement list in source order, emitting a use
// event for every variable read and a def event for every binding
// site, skipping function/method names referenced only as call
// targets (those belong to CallGraphAnalyzer, not to variable
// liveness).
func collectEvents(stmts []core.Stmt) []event {
	var out []event
	for _, s := range stmts {
		collectStmtEvents(s, &out)
	}
	return out
}

func collectStmtEvents(s core.Stmt, out *[]event) {
	switch st := s.(type) {
	case *core.Assign:
		collectExprEvents(st.Value, out)
		switch target := st.Target.(type) {
		case *core.Name:
			*out = append(*out, event{evDef, target.Value, target.Position().Line})
		default:
			collectExprEvents(st.Target, out)
		}
	case *core.VarDecl:
		if st.Init != nil {
			collectExprEvents(st.Init, out)
		}
		*out = append(*out, event{evDef, st.Name, st.Position().Line})
	case *core.If:
		collectExprEvents(st.Cond, out)
		collectEventsInto(st.Then, out)
		collectEventsInto(st.Else, out)
	case *core.While:
		collectExprEvents(st.Cond, out)
		collectEventsInto(st.Body, out)
	case *core.ForRange:
		for _, e := range []core.Expr{st.Start, st.Stop, st.Step} {
			if e != nil {
				collectExprEvents(e, out)
			}
		}
		*out = append(*out, event{evDef, st.Var, st.Position().Line})
		collectEventsInto(st.Body, out)
	case *core.ForContainer:
		collectExprEvents(st.Container, out)
		*out = append(*out, event{evDef, st.Var, st.Position().Line})
		collectEventsInto(st.Body, out)
	case *core.Return:
		if st.Value != nil {
			collectExprEvents(st.Value, out)
		}
	case *core.Assert:
		collectExprEvents(st.Cond, out)
		if st.Msg != nil {
			collectExprEvents(st.Msg, out)
		}
	case *core.ExprStmt:
		collectExprEvents(st.X, out)
	}
}

func collectEventsInto(stmts []core.Stmt, out *[]event) {
	for _, s := range stmts {
		collectStmtEvents(s, out)
	}
}

func collectExprEvents(e core.Expr, out *[]event) {
	if e == nil {
		return
	}
	switch expr := e.(type) {
	case *core.Name:
		*out = append(*out, event{evUse, expr.Value, expr.Position().Line})
	case *core.BinOp:
		collectExprEvents(expr.Left, out)
		collectExprEvents(expr.Right, out)
	case *core.UnaryOp:
		collectExprEvents(expr.Operand, out)
	case *core.Compare:
		collectExprEvents(expr.Left, out)
		collectExprEvents(expr.Right, out)
	case *core.BoolOp:
		for _, v := range expr.Values {
			collectExprEvents(v, out)
		}
	case *core.Subscript:
		collectExprEvents(expr.X, out)
		collectExprEvents(expr.Index, out)
	case *core.Slice:
		collectExprEvents(expr.X, out)
		collectExprEvents(expr.Lo, out)
		collectExprEvents(expr.Hi, out)
		collectExprEvents(expr.Step, out)
	case *core.Attribute:
		collectExprEvents(expr.X, out)
	case *core.Call:
		if expr.Kind == core.MethodCall {
			collectExprEvents(expr.Func, out)
		} else if expr.Kind != core.BuiltinCall && expr.Kind != core.UserCall {
			collectExprEvents(expr.Func, out)
		}
		for _, a := range expr.Args {
			collectExprEvents(a, out)
		}
	case *core.ContainerLiteral:
		for _, el := range expr.Elements {
			collectExprEvents(el, out)
		}
		for _, k := range expr.Keys {
			collectExprEvents(k, out)
		}
	case *core.FormatCall:
		for _, a := range expr.Args {
			collectExprEvents(a, out)
		}
	}
}
