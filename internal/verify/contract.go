// Package verify implements the SMT-backed proof layer (spec.md
// §4.6): BoundsProver discharges BoundsChecker's obligations,
// CorrectnessProver discharges @requires/@ensures/@invariant pragma
// annotations, PerformanceAnalyzer classifies time/space complexity.
// All three share the smt.Backend abstraction and degrade to
// heuristic confidence when it answers UNKNOWN (the mock backend
// always does, since no pack example ships a real SMT binding).
package verify

import (
	"github.com/shakfu/cgen-go/internal/analysis"
	"github.com/shakfu/cgen-go/internal/core"
	"github.com/shakfu/cgen-go/internal/smt"
)

// Context mirrors analysis.Context/optimize.Context's shape: source
// IR plus prior passes' reports, since every verifier here depends on
// an earlier analyzer.
type Context struct {
	Program         *core.Program
	AnalysisReports map[string]*analysis.Report
	Backend         smt.Backend // nil defaults to smt.MockBackend{}
	// TimeoutMs is the per-query SMT timeout (spec.md §6's
	// smt.timeout_ms option); zero defaults to 5000.
	TimeoutMs int
}

func (c *Context) backend() smt.Backend {
	if c.Backend != nil {
		return c.Backend
	}
	return smt.MockBackend{}
}

func (c *Context) timeoutMs() int {
	if c.TimeoutMs > 0 {
		return c.TimeoutMs
	}
	return 5000
}

func (c *Context) analysisReport(name string) (*analysis.Report, bool) {
	r, ok := c.AnalysisReports[name]
	return r, ok
}

// Verdict is PROVEN / REFUTED / UNKNOWN for one discharged obligation.
type Verdict struct {
	Function       string
	Property       string
	Result         smt.CheckResult
	Counterexample map[string]interface{}
	Message        string
}

// Report is the shared output shape for every verifier in this package.
type Report struct {
	Pass     string
	Verdicts []Verdict
	Metadata map[string]interface{}
}

func newReport(pass string) *Report {
	return &Report{Pass: pass, Metadata: map[string]interface{}{}}
}

// Verifier is the shared interface every pass in this package satisfies.
type Verifier interface {
	Name() string
	Verify(ctx *Context) (*Report, error)
}
