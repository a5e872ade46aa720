package optimize

import (
	"fmt"
	"strings"

	"github.com/shakfu/cgen-go/internal/core"
)

// VectorSubKind further classifies a vectorizable loop (spec.md §4.5.4).
type VectorSubKind int

const (
	ElementWise VectorSubKind = iota
	ArrayCopy
	Reduction
	DotProduct
	Strided
)

func (k VectorSubKind) String() string {
	switch k {
	case ArrayCopy:
		return "array-copy"
	case Reduction:
		return "reduction"
	case DotProduct:
		return "dot-product"
	case Strided:
		return "strided"
	}
	return "element-wise"
}

// vectorWidths is the fixed target table spec.md §4.5.4 enumerates.
var vectorWidths = map[string]map[string]int{
	"x86_64": {"SSE": 4, "AVX": 8, "AVX-512": 16},
	"ARM":    {"NEON": 4},
}

// VectorizationCandidate is one SIMD opportunity.
type VectorizationCandidate struct {
	Function      string
	Line          int
	SubKind       VectorSubKind
	Architecture  string
	ISA           string
	VectorWidth   int
	Intrinsic     string
	SpeedupFactor float64
	Constraints   []string
}

// VectorizationDetector specializes LoopAnalyzer for SIMD opportunities
// (spec.md §4.5.4). It re-derives loop classification rather than
// depending on LoopAnalyzer's report, since it needs the raw body
// shape to pick a VectorSubKind.
type VectorizationDetector struct{}

func (o *VectorizationDetector) Name() string { return "vectorization-detector" }

func (o *VectorizationDetector) Optimize(ctx *Context) (*Result, error) {
	r := newResult(o.Name())
	var candidates []VectorizationCandidate

	widths := vectorWidths
	if ctx.TargetArch != "" {
		for arch, isas := range vectorWidths {
			if strings.EqualFold(arch, ctx.TargetArch) {
				widths = map[string]map[string]int{arch: isas}
				break
			}
		}
	}

	for _, d := range ctx.Program.Decls {
		fd, ok := d.(*core.FuncDecl)
		if !ok {
			continue
		}
		for _, l := range analyzeLoops(fd.Name, fd.Body, false) {
			if !l.Vectorizable {
				continue
			}
			body := loopBodyAt(fd.Body, l.Line)
			if body == nil {
				continue
			}
			sub, constraints := classifyVectorSubKind(body)
			for arch, isas := range widths {
				for isa, width := range isas {
					efficiency := 1.0 - 0.2*float64(len(constraints))
					if efficiency < 0.2 {
						efficiency = 0.2
					}
					speedup := float64(width) * efficiency
					c := VectorizationCandidate{
						Function: l.Function, Line: l.Line, SubKind: sub,
						Architecture: arch, ISA: isa, VectorWidth: width,
						Intrinsic:     intrinsicName(arch, isa, sub),
						SpeedupFactor: speedup,
						Constraints:   constraints,
					}
					candidates = append(candidates, c)
					r.Transformations = append(r.Transformations, Transformation{
						Function: l.Function, Line: l.Line,
						Description: fmt.Sprintf("vectorize as %s using %s/%s (width %d, est. %.2fx)", sub, arch, isa, width, speedup),
						Safe:        true,
					})
				}
			}
		}
	}

	best := 1.0
	for _, c := range candidates {
		if c.SpeedupFactor > best {
			best = c.SpeedupFactor
		}
	}
	if best > 5.0 {
		best = 5.0
	}
	r.PerformanceGainEstimate = best
	r.Metadata["candidates"] = candidates
	return r, nil
}

// loopBodyAt finds the first loop body at the given source line,
// searching recursively (mirrors analyzeLoops' traversal).
func loopBodyAt(stmts []core.Stmt, line int) []core.Stmt {
	for _, s := range stmts {
		switch st := s.(type) {
		case *core.ForRange:
			if st.Position().Line == line {
				return st.Body
			}
			if b := loopBodyAt(st.Body, line); b != nil {
				return b
			}
		case *core.ForContainer:
			if st.Position().Line == line {
				return st.Body
			}
			if b := loopBodyAt(st.Body, line); b != nil {
				return b
			}
		case *core.While:
			if st.Position().Line == line {
				return st.Body
			}
			if b := loopBodyAt(st.Body, line); b != nil {
				return b
			}
		case *core.If:
			if b := loopBodyAt(st.Then, line); b != nil {
				return b
			}
			if b := loopBodyAt(st.Else, line); b != nil {
				return b
			}
		}
	}
	return nil
}

func classifyVectorSubKind(body []core.Stmt) (VectorSubKind, []string) {
	var constraints []string
	// A while loop's trailing induction step (`i = i + 1`) is loop
	// control, not part of the vectorized body.
	if len(body) == 2 {
		if step, ok := body[1].(*core.Assign); ok {
			if name, ok := step.Target.(*core.Name); ok {
				if bin, ok := step.Value.(*core.BinOp); ok && bin.Op == "+" {
					if left, ok := bin.Left.(*core.Name); ok && left.Value == name.Value {
						if _, ok := asIntLiteral(bin.Right); ok {
							body = body[:1]
						}
					}
				}
			}
		}
	}
	if len(body) != 1 {
		constraints = append(constraints, "has-control-flow")
		return ElementWise, constraints
	}
	assign, ok := body[0].(*core.Assign)
	if !ok {
		constraints = append(constraints, "has-control-flow")
		return ElementWise, constraints
	}
	if hasUserOrSideEffectingCall(assign.Value) {
		constraints = append(constraints, "has-function-call")
	}

	target, targetIsSub := assign.Target.(*core.Subscript)
	if targetIsSub {
		if name, ok := assign.Value.(*core.Subscript); ok {
			_ = name
			return ArrayCopy, constraints
		}
		if bin, ok := assign.Value.(*core.BinOp); ok {
			_, lok := bin.Left.(*core.Subscript)
			_, rok := bin.Right.(*core.Subscript)
			if lok && rok {
				return ElementWise, constraints
			}
		}
		_ = target
		return Strided, append(constraints, "irregular-access")
	}

	if bin, ok := assign.Value.(*core.BinOp); ok && bin.Op == "+" {
		targetName, isName := assign.Target.(*core.Name)
		if isName {
			if left, ok := bin.Left.(*core.Name); ok && left.Value == targetName.Value {
				if inner, ok := bin.Right.(*core.BinOp); ok && inner.Op == "*" {
					_, lsub := inner.Left.(*core.Subscript)
					_, rsub := inner.Right.(*core.Subscript)
					if lsub && rsub {
						return DotProduct, constraints
					}
				}
				return Reduction, constraints
			}
		}
	}
	return ElementWise, constraints
}

func intrinsicName(arch, isa string, sub VectorSubKind) string {
	prefix := map[string]string{"SSE": "_mm", "AVX": "_mm256", "AVX-512": "_mm512", "NEON": "v"}[isa]
	switch arch {
	case "ARM":
		switch sub {
		case Reduction, DotProduct:
			return "vaddvq_f32"
		default:
			return "vld1q_f32/vst1q_f32"
		}
	default:
		switch sub {
		case Reduction, DotProduct:
			return prefix + "_add_ps (horizontal reduce)"
		default:
			return prefix + "_load_ps/" + prefix + "_store_ps"
		}
	}
}
