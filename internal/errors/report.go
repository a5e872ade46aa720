// Package errors provides the structured error taxonomy shared by every
// phase of the translator: each fallible operation returns a *Report
// (never a bare string), satisfying the "explicit result types, no
// exceptions for control flow" design note (spec.md §9).
package errors

import (
	"encoding/json"
	"errors"

	"github.com/shakfu/cgen-go/internal/ast"
)

// Report is the canonical structured error/diagnostic type for cgen-go.
type Report struct {
	Schema  string         `json:"schema"`         // Always "cgen.error/v1"
	Code    string         `json:"code"`           // Error code, e.g. "TYP001"
	Phase   string         `json:"phase"`          // "parser", "typecheck", "lower", "emitter", "pipeline"
	Message string         `json:"message"`        // Human-readable message
	Span    *ast.Span      `json:"span,omitempty"` // Source location (optional)
	Data    map[string]any `json:"data,omitempty"` // Structured data (sorted keys on marshal)
	Fix     *Fix           `json:"fix,omitempty"`  // Suggested remediation (optional)
}

// Fix is a suggested remediation attached to a Report (spec.md §7:
// "a hard error produces a diagnostic... and a suggested remediation").
type Fix struct {
	Description string `json:"description"`
	Replacement string `json:"replacement,omitempty"`
}

// ReportError wraps a Report as an error so it survives errors.As()
// unwrapping through ordinary Go error propagation.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a Report from an error chain, if present.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as an error. Call sites should
// `return errors.WrapReport(report)` to preserve structure.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON renders a Report as JSON, compact or indented.
func (r *Report) ToJSON(compact bool) (string, error) {
	if compact {
		data, err := json.Marshal(r)
		return string(data), err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	return string(data), err
}

// NewGeneric wraps an arbitrary Go error as a Report when no more
// specific code applies.
func NewGeneric(phase string, err error) *Report {
	return &Report{
		Schema:  SchemaV1,
		Code:    "RUNTIME",
		Phase:   phase,
		Message: err.Error(),
		Data:    map[string]any{},
	}
}

// New builds a Report with the given code/phase/message, the common case.
func New(code, phase, message string, span *ast.Span) *Report {
	return &Report{
		Schema:  SchemaV1,
		Code:    code,
		Phase:   phase,
		Message: message,
		Span:    span,
		Data:    map[string]any{},
	}
}

// WithData attaches a structured data field and returns the Report for chaining.
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = value
	return r
}

// WithFix attaches a suggested remediation and returns the Report for chaining.
func (r *Report) WithFix(description, replacement string) *Report {
	r.Fix = &Fix{Description: description, Replacement: replacement}
	return r
}
