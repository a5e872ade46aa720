package optimize

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/core"
)

// LoopKind classifies a loop's shape (spec.md §4.5.2).
type LoopKind int

const (
	SimpleCounter LoopKind = iota
	Accumulator
	ElementWiseMap
	NestedIteration
	ComplexLoop
)

func (k LoopKind) String() string {
	switch k {
	case SimpleCounter:
		return "simple-counter"
	case Accumulator:
		return "accumulator"
	case ElementWiseMap:
		return "element-wise-map"
	case NestedIteration:
		return "nested-iteration"
	}
	return "complex"
}

// LoopInfo is one analyzed loop.
type LoopInfo struct {
	Function       string
	Line           int
	Kind           LoopKind
	IterationCount int  // -1 when not statically known
	Parallelizable bool
	Vectorizable   bool
	Transforms     []string
}

// LoopAnalyzer implements spec.md §4.5.2.
type LoopAnalyzer struct{}

func (o *LoopAnalyzer) Name() string { return "loop-analyzer" }

func (o *LoopAnalyzer) Optimize(ctx *Context) (*Result, error) {
	r := newResult(o.Name())
	var loops []LoopInfo
	gain := 1.0
	for _, d := range ctx.Program.Decls {
		fd, ok := d.(*core.FuncDecl)
		if !ok {
			continue
		}
		for _, l := range analyzeLoops(fd.Name, fd.Body, false) {
			loops = append(loops, l)
			factor := loopGainFactor(l)
			gain *= factor
			for _, tr := range l.Transforms {
				r.Transformations = append(r.Transformations, Transformation{
					Function: l.Function, Line: l.Line,
					Description: fmt.Sprintf("%s: %s (%s loop)", tr, l.Kind, tr),
					Safe:        true,
				})
			}
		}
	}
	if gain > 5.0 {
		gain = 5.0
	}
	r.PerformanceGainEstimate = gain
	r.Metadata["loops"] = loops
	return r, nil
}

func loopGainFactor(l LoopInfo) float64 {
	factor := 1.0
	for _, tr := range l.Transforms {
		switch tr {
		case "unroll":
			factor *= 1.3
		case "convert-to-c-for":
			factor *= 1.1
		case "vectorization-prep":
			factor *= 1.5
		}
	}
	return factor
}

// analyzeLoops walks a statement list (recursively, for nested loops)
// collecting one LoopInfo per While/ForRange/ForContainer encountered.
func analyzeLoops(fn string, stmts []core.Stmt, nested bool) []LoopInfo {
	var out []LoopInfo
	for _, s := range stmts {
		switch st := s.(type) {
		case *core.ForRange:
			info := classifyForRange(fn, st, nested)
			out = append(out, info)
			out = append(out, analyzeLoops(fn, st.Body, true)...)
		case *core.ForContainer:
			info := classifyForContainer(fn, st, nested)
			out = append(out, info)
			out = append(out, analyzeLoops(fn, st.Body, true)...)
		case *core.While:
			info := LoopInfo{Function: fn, Line: st.Position().Line, Kind: ComplexLoop, IterationCount: -1}
			if nested {
				info.Kind = NestedIteration
			}
			info.Parallelizable, info.Vectorizable = loopSafety(st.Body)
			info.Transforms = suggestTransforms(info, false)
			out = append(out, info)
			out = append(out, analyzeLoops(fn, st.Body, true)...)
		case *core.If:
			out = append(out, analyzeLoops(fn, st.Then, nested)...)
			out = append(out, analyzeLoops(fn, st.Else, nested)...)
		}
	}
	return out
}

func classifyForRange(fn string, st *core.ForRange, nested bool) LoopInfo {
	info := LoopInfo{Function: fn, Line: st.Position().Line, IterationCount: -1}
	if nested {
		info.Kind = NestedIteration
	} else if isAccumulatorBody(st.Body, st.Var) {
		info.Kind = Accumulator
	} else {
		info.Kind = SimpleCounter
	}
	if startLit, sok := asIntLiteral(st.Start); sok {
		if stopLit, pok := asIntLiteral(st.Stop); pok {
			step := int64(1)
			if st.Step != nil {
				if stepLit, tok := asIntLiteral(st.Step); tok {
					step = stepLit
				}
			}
			if step != 0 {
				n := (stopLit - startLit) / step
				if n < 0 {
					n = 0
				}
				info.IterationCount = int(n)
			}
		}
	}
	info.Parallelizable, info.Vectorizable = loopSafety(st.Body)
	info.Transforms = suggestTransforms(info, true)
	return info
}

func classifyForContainer(fn string, st *core.ForContainer, nested bool) LoopInfo {
	info := LoopInfo{Function: fn, Line: st.Position().Line, IterationCount: -1}
	switch {
	case nested:
		info.Kind = NestedIteration
	case isElementWiseMapBody(st.Body):
		info.Kind = ElementWiseMap
	case isAccumulatorBody(st.Body, st.Var):
		info.Kind = Accumulator
	default:
		info.Kind = ComplexLoop
	}
	info.Parallelizable, info.Vectorizable = loopSafety(st.Body)
	info.Transforms = suggestTransforms(info, false)
	return info
}

// isAccumulatorBody detects a single-statement body that reduces into
// one variable not equal to the loop variable itself.
func isAccumulatorBody(body []core.Stmt, loopVar string) bool {
	if len(body) != 1 {
		return false
	}
	assign, ok := body[0].(*core.Assign)
	if !ok {
		return false
	}
	name, ok := assign.Target.(*core.Name)
	if !ok || name.Value == loopVar {
		return false
	}
	bin, ok := assign.Value.(*core.BinOp)
	if !ok {
		return false
	}
	if left, ok := bin.Left.(*core.Name); ok && left.Value == name.Value {
		return true
	}
	return false
}

// isElementWiseMapBody detects `c[i] = <expr over indexed containers>`.
func isElementWiseMapBody(body []core.Stmt) bool {
	if len(body) != 1 {
		return false
	}
	assign, ok := body[0].(*core.Assign)
	if !ok {
		return false
	}
	_, ok = assign.Target.(*core.Subscript)
	return ok
}

// loopSafety reports (parallelizable, vectorizable) for a body per
// spec.md §4.5.2: no loop-carried dependency across iterations beyond
// a single accumulator, no early exit, no side-effecting call; vector-
// izable additionally requires a straight-line body.
func loopSafety(body []core.Stmt) (bool, bool) {
	straightLine := true
	parallelizable := true
	for _, s := range body {
		switch st := s.(type) {
		case *core.Break, *core.Continue:
			parallelizable = false
			straightLine = false
		case *core.If, *core.While, *core.ForRange, *core.ForContainer:
			straightLine = false
		case *core.ExprStmt:
			if hasUserOrSideEffectingCall(st.X) {
				parallelizable = false
			}
		case *core.Assign:
			if hasUserOrSideEffectingCall(st.Value) {
				parallelizable = false
			}
		}
	}
	return parallelizable, parallelizable && straightLine
}

func hasUserOrSideEffectingCall(e core.Expr) bool {
	switch expr := e.(type) {
	case *core.Call:
		if expr.Kind == core.UserCall {
			return true
		}
		for _, a := range expr.Args {
			if hasUserOrSideEffectingCall(a) {
				return true
			}
		}
	case *core.BinOp:
		return hasUserOrSideEffectingCall(expr.Left) || hasUserOrSideEffectingCall(expr.Right)
	case *core.UnaryOp:
		return hasUserOrSideEffectingCall(expr.Operand)
	}
	return false
}

func suggestTransforms(info LoopInfo, isRange bool) []string {
	var transforms []string
	if info.IterationCount >= 0 && info.IterationCount <= 8 {
		transforms = append(transforms, "unroll")
	}
	if isRange {
		transforms = append(transforms, "convert-to-c-for")
	}
	if info.Vectorizable {
		transforms = append(transforms, "vectorization-prep")
	}
	return transforms
}

func asIntLiteral(e core.Expr) (int64, bool) {
	lit, ok := e.(*core.Literal)
	if !ok {
		return 0, false
	}
	v, ok := lit.Value.(int64)
	return v, ok
}
