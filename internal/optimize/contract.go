// Package optimize implements the intelligence layer's optimizer
// passes (spec.md §4.5): CompileTimeEvaluator, LoopAnalyzer,
// FunctionSpecializer, VectorizationDetector. They share the analyzer
// passes' context shape but return an OptimizationResult instead of an
// AnalysisReport (spec.md §4.5: "same contract shape as analyzers").
package optimize

import (
	"github.com/shakfu/cgen-go/internal/analysis"
	"github.com/shakfu/cgen-go/internal/core"
)

// Context mirrors analysis.Context: source, IR, and prior reports
// (both optimizer and analyzer reports, so a pass can read earlier
// analyzer output, spec.md §5).
type Context struct {
	Program          *core.Program
	AnalysisReports  map[string]*analysis.Report
	PriorResults     map[string]*Result
	OptimizationHint analysis.OptimizationHint
	// TargetArch narrows VectorizationDetector's candidate search to one
	// architecture ("X86_64" or "ARM", spec.md §6's target.arch option);
	// empty means report candidates for every architecture in the table.
	TargetArch string
}

func (c *Context) analysisReport(name string) (*analysis.Report, bool) {
	r, ok := c.AnalysisReports[name]
	return r, ok
}

// Transformation is one human-readable applied or proposed rewrite.
type Transformation struct {
	Function    string
	Line        int
	Description string
	Safe        bool
}

// Result is the OptimizationResult every pass returns.
type Result struct {
	Pass                    string
	Success                 bool
	PerformanceGainEstimate float64 // multiplicative factor, 1.0 = no change
	Transformations         []Transformation
	Metadata                map[string]interface{}
}

func newResult(pass string) *Result {
	return &Result{Pass: pass, Success: true, PerformanceGainEstimate: 1.0, Metadata: map[string]interface{}{}}
}

// Optimizer is the shared interface every pass in this package satisfies.
type Optimizer interface {
	Name() string
	Optimize(ctx *Context) (*Result, error)
}
