// Package ast defines the abstract syntax tree for the Python subset
// that cgen-go translates. Nodes are created by the parser and consumed
// read-only by the frontend analyzers; none of them are mutated after
// parsing (later passes attach annotations on the TypedIR instead, see
// internal/core).
package ast

import (
	"fmt"
	"strings"
)

// Pos is a source location.
type Pos struct {
	Line   int
	Column int
	File   string
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span is a start/end source range, used by diagnostics that need to
// underline more than a single point (internal/errors.Report.Span).
type Span struct {
	Start Pos
	End   Pos
}

// Node is the base interface satisfied by every AST node.
type Node interface {
	String() string
	Position() Pos
}

// Expr is any expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is any top-level declaration node.
type Decl interface {
	Node
	declNode()
}

// Module is the root of a parsed source unit (spec.md §3, "Source unit").
type Module struct {
	Decls []Decl
	Pos   Pos
}

func (m *Module) Position() Pos { return m.Pos }
func (m *Module) String() string {
	parts := make([]string, len(m.Decls))
	for i, d := range m.Decls {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

// ---------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------

// Param is a function parameter with its declared annotation (if any).
type Param struct {
	Name       string
	Annotation TypeExpr // nil when unannotated
	Pos        Pos
}

// FuncDecl is a `def name(params) -> ret: body` declaration.
type FuncDecl struct {
	Name       string
	Params     []*Param
	ReturnType TypeExpr // nil when unannotated (bare `def f():`)
	Body       []Stmt
	Requires   []string // raw expression text from `# @requires:` pragmas
	Ensures    []string // raw expression text from `# @ensures:` pragmas
	Pos        Pos
}

func (f *FuncDecl) declNode()     {}
func (f *FuncDecl) Position() Pos { return f.Pos }
func (f *FuncDecl) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Name
	}
	return fmt.Sprintf("def %s(%s)", f.Name, strings.Join(params, ", "))
}

// FieldDecl is a struct member.
type FieldDecl struct {
	Name       string
	Annotation TypeExpr
	Pos        Pos
}

// StructDecl is a `class Name:` declaration whose body is only
// annotated field declarations (the supported subset of classes).
type StructDecl struct {
	Name   string
	Fields []*FieldDecl
	Pos    Pos
}

func (s *StructDecl) declNode()      {}
func (s *StructDecl) Position() Pos  { return s.Pos }
func (s *StructDecl) String() string { return fmt.Sprintf("class %s", s.Name) }

// GlobalDecl is a module-level annotated assignment, e.g. `X: int = 1`.
type GlobalDecl struct {
	Name       string
	Annotation TypeExpr
	Value      Expr
	Pos        Pos
}

func (g *GlobalDecl) declNode()      {}
func (g *GlobalDecl) Position() Pos  { return g.Pos }
func (g *GlobalDecl) String() string { return fmt.Sprintf("%s: %s = %s", g.Name, g.Annotation, g.Value) }

// GlobalStmt is a bare module-level statement that isn't an
// annotated/plain assignment, e.g. `x.append(42)` or `print(x[0])`
// following a global declaration. Module-level code runs top to bottom
// the way a script does, so these are collected and emitted into an
// implicit entry point rather than treated as a declaration in their
// own right.
type GlobalStmt struct {
	Stmt Stmt
	Pos  Pos
}

func (g *GlobalStmt) declNode()      {}
func (g *GlobalStmt) Position() Pos  { return g.Pos }
func (g *GlobalStmt) String() string { return g.Stmt.String() }

// ---------------------------------------------------------------------
// Type expressions (as written in source, before internal/types resolves them)
// ---------------------------------------------------------------------

// TypeExpr is a type annotation as written, e.g. `list[int]`.
type TypeExpr interface {
	Node
	typeExprNode()
	String() string
}

// NameType is a bare type name: `int`, `float`, `MyStruct`.
type NameType struct {
	Name string
	Pos  Pos
}

func (t *NameType) typeExprNode()  {}
func (t *NameType) Position() Pos  { return t.Pos }
func (t *NameType) String() string { return t.Name }

// GenericType is a parameterized container type: `list[int]`, `dict[str,int]`.
type GenericType struct {
	Base Pos
	Name string // "list", "dict", "set"
	Args []TypeExpr
	Pos  Pos
}

func (t *GenericType) typeExprNode() {}
func (t *GenericType) Position() Pos { return t.Pos }
func (t *GenericType) String() string {
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s[%s]", t.Name, strings.Join(args, ", "))
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

// AssignStmt is `target = value` (possibly with an annotation: `target: T = value`).
type AssignStmt struct {
	Target     Expr
	Annotation TypeExpr // nil unless this is an annotated assignment
	Value      Expr
	Pos        Pos
}

func (s *AssignStmt) stmtNode()     {}
func (s *AssignStmt) Position() Pos { return s.Pos }
func (s *AssignStmt) String() string {
	return fmt.Sprintf("%s = %s", s.Target, s.Value)
}

// AugAssignStmt is `target op= value`.
type AugAssignStmt struct {
	Target Expr
	Op     string // "+", "-", "*", "/", "//", "%"
	Value  Expr
	Pos    Pos
}

func (s *AugAssignStmt) stmtNode()      {}
func (s *AugAssignStmt) Position() Pos  { return s.Pos }
func (s *AugAssignStmt) String() string { return fmt.Sprintf("%s %s= %s", s.Target, s.Op, s.Value) }

// IfStmt is `if cond: then else: else_`.
type IfStmt struct {
	Cond Expr
	Then []Stmt
	Else []Stmt // nil when absent
	Pos  Pos
}

func (s *IfStmt) stmtNode()      {}
func (s *IfStmt) Position() Pos  { return s.Pos }
func (s *IfStmt) String() string { return fmt.Sprintf("if %s: ...", s.Cond) }

// WhileStmt is `while cond: body`.
type WhileStmt struct {
	Cond Expr
	Body []Stmt
	Pos  Pos
}

func (s *WhileStmt) stmtNode()      {}
func (s *WhileStmt) Position() Pos  { return s.Pos }
func (s *WhileStmt) String() string { return fmt.Sprintf("while %s: ...", s.Cond) }

// ForRangeStmt is `for i in range(...): body` — kept distinct from
// ForContainerStmt because the two emit differently (spec.md §4.3.c).
type ForRangeStmt struct {
	Var   string
	Start Expr // nil => 0
	Stop  Expr
	Step  Expr // nil => 1
	Body  []Stmt
	Pos   Pos
}

func (s *ForRangeStmt) stmtNode()     {}
func (s *ForRangeStmt) Position() Pos { return s.Pos }
func (s *ForRangeStmt) String() string {
	return fmt.Sprintf("for %s in range(...): ...", s.Var)
}

// ForContainerStmt is `for x in container: body`.
type ForContainerStmt struct {
	Var       string
	Container Expr
	Body      []Stmt
	Pos       Pos
}

func (s *ForContainerStmt) stmtNode()     {}
func (s *ForContainerStmt) Position() Pos { return s.Pos }
func (s *ForContainerStmt) String() string {
	return fmt.Sprintf("for %s in %s: ...", s.Var, s.Container)
}

// ReturnStmt is `return value` (Value is nil for bare `return`).
type ReturnStmt struct {
	Value Expr
	Pos   Pos
}

func (s *ReturnStmt) stmtNode()      {}
func (s *ReturnStmt) Position() Pos  { return s.Pos }
func (s *ReturnStmt) String() string { return fmt.Sprintf("return %s", s.Value) }

// BreakStmt is `break`.
type BreakStmt struct{ Pos Pos }

func (s *BreakStmt) stmtNode()      {}
func (s *BreakStmt) Position() Pos  { return s.Pos }
func (s *BreakStmt) String() string { return "break" }

// ContinueStmt is `continue`.
type ContinueStmt struct{ Pos Pos }

func (s *ContinueStmt) stmtNode()      {}
func (s *ContinueStmt) Position() Pos  { return s.Pos }
func (s *ContinueStmt) String() string { return "continue" }

// PassStmt is `pass`.
type PassStmt struct{ Pos Pos }

func (s *PassStmt) stmtNode()      {}
func (s *PassStmt) Position() Pos  { return s.Pos }
func (s *PassStmt) String() string { return "pass" }

// AssertStmt is `assert cond, msg`.
type AssertStmt struct {
	Cond Expr
	Msg  Expr // nil when absent
	Pos  Pos
}

func (s *AssertStmt) stmtNode()      {}
func (s *AssertStmt) Position() Pos  { return s.Pos }
func (s *AssertStmt) String() string { return fmt.Sprintf("assert %s", s.Cond) }

// ExprStmt is an expression evaluated for effect, e.g. a bare call.
type ExprStmt struct {
	X   Expr
	Pos Pos
}

func (s *ExprStmt) stmtNode()      {}
func (s *ExprStmt) Position() Pos  { return s.Pos }
func (s *ExprStmt) String() string { return s.X.String() }

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

// LitKind tags a Literal's payload.
type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	BoolLit
	StringLit
	NullLit
)

// Literal is an int/float/bool/string/null constant.
type Literal struct {
	Kind  LitKind
	Value interface{}
	Pos   Pos
}

func (e *Literal) exprNode()      {}
func (e *Literal) Position() Pos  { return e.Pos }
func (e *Literal) String() string { return fmt.Sprintf("%v", e.Value) }

// Name is a variable or function reference.
type Name struct {
	Value string
	Pos   Pos
}

func (e *Name) exprNode()      {}
func (e *Name) Position() Pos  { return e.Pos }
func (e *Name) String() string { return e.Value }

// BinOp is a binary arithmetic/logical operator expression.
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Pos
}

func (e *BinOp) exprNode()      {}
func (e *BinOp) Position() Pos  { return e.Pos }
func (e *BinOp) String() string { return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right) }

// UnaryOp is `-x`, `+x`, `not x`.
type UnaryOp struct {
	Op      string
	Operand Expr
	Pos     Pos
}

func (e *UnaryOp) exprNode()      {}
func (e *UnaryOp) Position() Pos  { return e.Pos }
func (e *UnaryOp) String() string { return fmt.Sprintf("%s%s", e.Op, e.Operand) }

// Compare is a chain of comparisons: `a < b < c` has two Ops/Comparators.
type Compare struct {
	Left        Expr
	Ops         []string // "<", "<=", ">", ">=", "==", "!="
	Comparators []Expr
	Pos         Pos
}

func (e *Compare) exprNode()     {}
func (e *Compare) Position() Pos { return e.Pos }
func (e *Compare) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", e.Left)
	for i, op := range e.Ops {
		fmt.Fprintf(&b, " %s %s", op, e.Comparators[i])
	}
	return b.String()
}

// BoolOp is `a and b` / `a or b` (short-circuiting, may have >2 operands).
type BoolOp struct {
	Op     string // "and", "or"
	Values []Expr
	Pos    Pos
}

func (e *BoolOp) exprNode()     {}
func (e *BoolOp) Position() Pos { return e.Pos }
func (e *BoolOp) String() string {
	parts := make([]string, len(e.Values))
	for i, v := range e.Values {
		parts[i] = v.String()
	}
	return strings.Join(parts, fmt.Sprintf(" %s ", e.Op))
}

// Subscript is `x[index]`.
type Subscript struct {
	X     Expr
	Index Expr
	Pos   Pos
}

func (e *Subscript) exprNode()      {}
func (e *Subscript) Position() Pos  { return e.Pos }
func (e *Subscript) String() string { return fmt.Sprintf("%s[%s]", e.X, e.Index) }

// Slice is `x[lo:hi:step]`; any of Lo/Hi/Step may be nil.
type Slice struct {
	X    Expr
	Lo   Expr
	Hi   Expr
	Step Expr
	Pos  Pos
}

func (e *Slice) exprNode()     {}
func (e *Slice) Position() Pos { return e.Pos }
func (e *Slice) String() string {
	return fmt.Sprintf("%s[%s:%s:%s]", e.X, e.Lo, e.Hi, e.Step)
}

// Attribute is `x.name`.
type Attribute struct {
	X    Expr
	Name string
	Pos  Pos
}

func (e *Attribute) exprNode()      {}
func (e *Attribute) Position() Pos  { return e.Pos }
func (e *Attribute) String() string { return fmt.Sprintf("%s.%s", e.X, e.Name) }

// Call is `func(args)` or `recv.method(args)`.
type Call struct {
	Func Expr
	Args []Expr
	Pos  Pos
}

func (e *Call) exprNode()     {}
func (e *Call) Position() Pos { return e.Pos }
func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", e.Func, strings.Join(args, ", "))
}

// ContainerKind tags a ContainerLiteral.
type ContainerKind int

const (
	ListContainer ContainerKind = iota
	DictContainer
	SetContainer
)

// ContainerLiteral is `[1,2,3]`, `{1,2}`, or `{"a":1}`.
type ContainerLiteral struct {
	Kind     ContainerKind
	Elements []Expr // list/set elements, or dict values (Elements[i] pairs with Keys[i])
	Keys     []Expr // dict keys (parallel to Elements as values) when Kind==DictContainer
	Pos      Pos
}

func (e *ContainerLiteral) exprNode()      {}
func (e *ContainerLiteral) Position() Pos  { return e.Pos }
func (e *ContainerLiteral) String() string { return "<container-literal>" }

// CompKind tags a Comprehension.
type CompKind int

const (
	ListComp CompKind = iota
	DictComp
	SetComp
)

// Comprehension is `[expr for var in iter if cond]` (dict comps carry
// both KeyExpr and ValueExpr).
type Comprehension struct {
	Kind      CompKind
	ValueExpr Expr
	KeyExpr   Expr // non-nil only for DictComp
	Var       string
	Iter      Expr
	Conds     []Expr
	Pos       Pos
}

func (e *Comprehension) exprNode()      {}
func (e *Comprehension) Position() Pos  { return e.Pos }
func (e *Comprehension) String() string { return "<comprehension>" }

// FString is a pre-decomposed f-string: alternating literal text and
// embedded expressions, e.g. f"{x}/{y}" -> Parts=["","/",""], Exprs=[x,y].
type FString struct {
	Parts []string // len(Parts) == len(Exprs)+1
	Exprs []Expr
	Pos   Pos
}

func (e *FString) exprNode()      {}
func (e *FString) Position() Pos  { return e.Pos }
func (e *FString) String() string { return "<f-string>" }
