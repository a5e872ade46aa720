package verify

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/analysis"
	"github.com/shakfu/cgen-go/internal/core"
	"github.com/shakfu/cgen-go/internal/smt"
)

// Complexity is a rung on the fixed ladder spec.md §4.6.3 names.
type Complexity int

const (
	O1 Complexity = iota
	OLogN
	ON
	ONLogN
	ON2
	ON3
	O2N
	ONFactorial
	OUnknown
)

func (c Complexity) String() string {
	switch c {
	case O1:
		return "O(1)"
	case OLogN:
		return "O(log n)"
	case ON:
		return "O(n)"
	case ONLogN:
		return "O(n log n)"
	case ON2:
		return "O(n^2)"
	case ON3:
		return "O(n^3)"
	case O2N:
		return "O(2^n)"
	case ONFactorial:
		return "O(n!)"
	}
	return "UNKNOWN"
}

// ComplexityReport is one function's classification plus bottlenecks.
type ComplexityReport struct {
	Function     string
	Time         Complexity
	Space        Complexity
	MaxLoopDepth int
	CallDepth    int
	Bottleneck   string
	Suggestions  []string
}

// PerformanceAnalyzer implements spec.md §4.6.3. It depends on the
// control-flow pass's CFGs (for loop-nesting structure via the IR
// directly — loop nesting is cheaper to recover from the statement
// tree than from the flattened CFG) and the call-graph pass (for
// recursion shape and call depth).
type PerformanceAnalyzer struct{}

func (v *PerformanceAnalyzer) Name() string { return "performance-analyzer" }

func (v *PerformanceAnalyzer) Verify(ctx *Context) (*Report, error) {
	r := newReport(v.Name())
	var graph *analysis.CallGraph
	if report, ok := ctx.analysisReport("call-graph"); ok {
		if g, ok := report.Metadata["graph"].(*analysis.CallGraph); ok {
			graph = g
		}
	}

	var reports []ComplexityReport
	for _, d := range ctx.Program.Decls {
		fd, ok := d.(*core.FuncDecl)
		if !ok {
			continue
		}
		cr := classifyFunction(fd, graph)
		reports = append(reports, cr)
		r.Verdicts = append(r.Verdicts, Verdict{
			Function: fd.Name, Property: "time complexity", Result: smt.Unknown,
			Message: fmt.Sprintf("%s: time %s, space %s", fd.Name, cr.Time, cr.Space),
		})
	}
	r.Metadata["complexity"] = reports
	return r, nil
}

func classifyFunction(fd *core.FuncDecl, graph *analysis.CallGraph) ComplexityReport {
	cr := ComplexityReport{Function: fd.Name}
	maxDepth, deepestLine := maxLoopNesting(fd.Body, 0, 0)
	cr.MaxLoopDepth = maxDepth
	if maxDepth > 0 {
		cr.Bottleneck = fmt.Sprintf("deepest nested loop at line %d (depth %d)", deepestLine, maxDepth)
	}

	selfCalls := 0
	if graph != nil {
		for _, site := range graph.Sites {
			if site.Caller == fd.Name && site.Callee == fd.Name {
				selfCalls++
			}
		}
		cr.CallDepth = graph.CallDepth(fd.Name)
	}

	switch {
	case selfCalls >= 2:
		cr.Time = O2N
		cr.Suggestions = append(cr.Suggestions, "consider memoization to collapse repeated subproblems")
	case selfCalls == 1:
		cr.Time = ON
		if cr.CallDepth > 1000 {
			cr.Suggestions = append(cr.Suggestions, "recursion depth is large; consider converting to iteration")
		}
	case maxDepth >= 3:
		cr.Time = ON3
	case maxDepth == 2:
		cr.Time = ON2
	case maxDepth == 1:
		cr.Time = ON
	default:
		cr.Time = O1
	}

	cr.Space = classifySpace(fd.Body)
	return cr
}

// maxLoopNesting returns the deepest loop-nesting depth and the source
// line of the innermost loop achieving it.
func maxLoopNesting(stmts []core.Stmt, depth, bestLine int) (int, int) {
	best := depth
	line := bestLine
	for _, s := range stmts {
		switch st := s.(type) {
		case *core.ForRange:
			d, l := maxLoopNesting(st.Body, depth+1, st.Position().Line)
			if d > best {
				best, line = d, l
			}
		case *core.ForContainer:
			d, l := maxLoopNesting(st.Body, depth+1, st.Position().Line)
			if d > best {
				best, line = d, l
			}
		case *core.While:
			d, l := maxLoopNesting(st.Body, depth+1, st.Position().Line)
			if d > best {
				best, line = d, l
			}
		case *core.If:
			d1, l1 := maxLoopNesting(st.Then, depth, bestLine)
			d2, l2 := maxLoopNesting(st.Else, depth, bestLine)
			if d1 > best {
				best, line = d1, l1
			}
			if d2 > best {
				best, line = d2, l2
			}
		}
	}
	return best, line
}

// classifySpace is a coarse heuristic: a function that introduces a
// new container (list/dict/set literal bound to a local, typically the
// comprehension-lowering temporary the Builder hoists) allocates O(n)
// space; a function with no such allocation is O(1).
func classifySpace(stmts []core.Stmt) Complexity {
	for _, s := range stmts {
		switch st := s.(type) {
		case *core.VarDecl:
			if _, ok := st.Init.(*core.ContainerLiteral); ok {
				return ON
			}
		case *core.If:
			if classifySpace(st.Then) == ON || classifySpace(st.Else) == ON {
				return ON
			}
		case *core.ForRange:
			if classifySpace(st.Body) == ON {
				return ON
			}
		case *core.ForContainer:
			if classifySpace(st.Body) == ON {
				return ON
			}
		case *core.While:
			if classifySpace(st.Body) == ON {
				return ON
			}
		}
	}
	return O1
}
