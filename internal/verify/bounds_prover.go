package verify

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/analysis"
	"github.com/shakfu/cgen-go/internal/smt"
)

// BoundsProver implements spec.md §4.6.1: for each bounds obligation
// BoundsChecker produced, construct ¬(0 <= idx < size) and ask the
// backend to refute it.
type BoundsProver struct{}

func (v *BoundsProver) Name() string { return "bounds-prover" }

func (v *BoundsProver) Verify(ctx *Context) (*Report, error) {
	r := newReport(v.Name())
	backend := ctx.backend()

	boundsReport, ok := ctx.analysisReport("bounds")
	if !ok {
		return r, nil
	}
	obligations, _ := boundsReport.Metadata["obligations"].([]analysis.Obligation)

	for _, o := range obligations {
		idx := backend.CreateInt(fmt.Sprintf("idx@%s:%d", o.Function, o.Line))
		size := backend.CreateInt(fmt.Sprintf("size@%s:%s", o.Function, o.Array))
		formula := smt.Not(smt.And(smt.Ge(idx, 0), smt.Lt(idx, size)))

		result, model := backend.Check(formula, nil, ctx.timeoutMs())
		verdict := Verdict{Function: o.Function, Property: fmt.Sprintf("%s[%d] in bounds", o.Array, o.Line)}

		switch result {
		case smt.Refuted:
			verdict.Result = smt.Proven
			verdict.Message = fmt.Sprintf("%s access at line %d proven in-bounds", o.Array, o.Line)
		case smt.Proven:
			verdict.Result = smt.Refuted
			verdict.Counterexample = model
			verdict.Message = fmt.Sprintf("%s access at line %d has a reachable out-of-bounds index", o.Array, o.Line)
		default:
			// Backend could not decide; fall back to BoundsChecker's
			// heuristic classification rather than reporting nothing
			// (spec.md §4.6's "degrade to heuristic confidence").
			verdict.Result = smt.Unknown
			switch o.Safety {
			case analysis.Safe:
				verdict.Message = fmt.Sprintf("%s access at line %d heuristically safe (no SMT proof available)", o.Array, o.Line)
			case analysis.Unsafe:
				verdict.Message = fmt.Sprintf("%s access at line %d heuristically unsafe (no SMT proof available)", o.Array, o.Line)
			default:
				verdict.Message = fmt.Sprintf("%s access at line %d bounds-safety undetermined", o.Array, o.Line)
			}
		}
		r.Verdicts = append(r.Verdicts, verdict)
	}
	return r, nil
}
