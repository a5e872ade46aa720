// Package smt defines the SMT backend abstraction spec.md §4.6
// specifies: symbolic value constructors plus a `Check` query that
// answers PROVEN/REFUTED/UNKNOWN. No pack example imports a real SMT
// solver binding (documented in DESIGN.md), so the only Backend
// implementation here is MockBackend, which answers UNKNOWN for every
// query — exactly the degradation path spec.md §4.6 names for when
// "no SMT backend is available".
package smt

import "fmt"

// SymInt, SymReal, and SymBool are opaque symbolic value handles.
type (
	SymInt  struct{ Name string }
	SymReal struct{ Name string }
	SymBool struct{ Name string }
)

// Formula is a symbolic proposition built from the constructors below.
// It carries enough structure for a real backend to translate into its
// own term representation; MockBackend ignores the structure entirely.
type Formula struct {
	Op   string
	Args []interface{}
}

func (f Formula) String() string { return fmt.Sprintf("(%s %v)", f.Op, f.Args) }

func Eq(a, b interface{}) Formula { return Formula{"=", []interface{}{a, b}} }
func Ne(a, b interface{}) Formula { return Formula{"!=", []interface{}{a, b}} }
func Lt(a, b interface{}) Formula { return Formula{"<", []interface{}{a, b}} }
func Le(a, b interface{}) Formula { return Formula{"<=", []interface{}{a, b}} }
func Gt(a, b interface{}) Formula { return Formula{">", []interface{}{a, b}} }
func Ge(a, b interface{}) Formula { return Formula{">=", []interface{}{a, b}} }
func Not(a Formula) Formula       { return Formula{"not", []interface{}{a}} }
func And(fs ...Formula) Formula   { return Formula{"and", toArgs(fs)} }
func Or(fs ...Formula) Formula    { return Formula{"or", toArgs(fs)} }

func toArgs(fs []Formula) []interface{} {
	args := make([]interface{}, len(fs))
	for i, f := range fs {
		args[i] = f
	}
	return args
}

// CheckResult is the three-valued outcome of a Check query.
type CheckResult int

const (
	Unknown CheckResult = iota
	Proven
	Refuted
)

func (r CheckResult) String() string {
	switch r {
	case Proven:
		return "PROVEN"
	case Refuted:
		return "REFUTED"
	}
	return "UNKNOWN"
}

// Backend is the SMT solver facade spec.md §4.6 requires.
type Backend interface {
	CreateInt(name string) SymInt
	CreateReal(name string) SymReal
	CreateBool(name string) SymBool
	Check(formula Formula, assumptions []Formula, timeoutMs int) (CheckResult, map[string]interface{})
}

// MockBackend always answers Unknown; callers degrade to heuristic
// confidence, never to failure (spec.md §4.6).
type MockBackend struct{}

func (MockBackend) CreateInt(name string) SymInt   { return SymInt{Name: name} }
func (MockBackend) CreateReal(name string) SymReal { return SymReal{Name: name} }
func (MockBackend) CreateBool(name string) SymBool { return SymBool{Name: name} }

func (MockBackend) Check(formula Formula, assumptions []Formula, timeoutMs int) (CheckResult, map[string]interface{}) {
	return Unknown, nil
}
