// Package analysis implements the intelligence layer's analyzer passes
// (spec.md §4.4): ControlFlowAnalyzer, BoundsChecker, CallGraphAnalyzer,
// and SymbolicExecutor. Every analyzer shares one contract —
// Analyze(ctx) (*Report, error) — so the pipeline can run them
// interchangeably without a type switch (spec.md §9, "polymorphism over
// analyzers/optimizers... no deep inheritance").
package analysis

import (
	"github.com/shakfu/cgen-go/internal/core"
)

// Depth is the requested analysis thoroughness.
type Depth int

const (
	Basic Depth = iota
	Comprehensive
)

// OptimizationHint biases analyzer heuristics toward the optimization
// level the caller ultimately wants (spec.md §4.4's context knobs).
type OptimizationHint int

const (
	HintNone OptimizationHint = iota
	HintBasic
	HintModerate
	HintAggressive
)

// Context bundles everything an analyzer pass reads: source text, the
// IR root, and prior reports keyed by pass name, plus the two knobs
// spec.md §4.4 names. Passes never mutate another pass's record —
// only read it — per spec.md §5's "no pass mutates another pass's
// records" ordering rule.
type Context struct {
	Source        string
	Program       *core.Program
	PriorReports  map[string]*Report
	AnalysisDepth Depth
	Hint          OptimizationHint
}

// PriorReport looks up a previously-run pass's report by name.
func (c *Context) PriorReport(name string) (*Report, bool) {
	r, ok := c.PriorReports[name]
	return r, ok
}

// Finding is one analyzer observation, good or bad.
type Finding struct {
	Severity string // "info", "warning", "error"
	Message  string
	Function string
	Line     int
	Data     map[string]interface{}
}

// Report is the product every analyzer pass returns.
type Report struct {
	Pass       string
	Success    bool
	Confidence float64 // in [0,1]
	Findings   []Finding
	Warnings   []string
	Metadata   map[string]interface{}
}

func newReport(pass string) *Report {
	return &Report{Pass: pass, Success: true, Confidence: 1.0, Metadata: map[string]interface{}{}}
}

func (r *Report) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *Report) find(f Finding) {
	r.Findings = append(r.Findings, f)
}

// Analyzer is the shared interface every pass in this package satisfies.
type Analyzer interface {
	Name() string
	Analyze(ctx *Context) (*Report, error)
}
