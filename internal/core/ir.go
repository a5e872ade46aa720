// Package core implements the TypedIR (spec.md §3-§4.3): a tree of
// nodes each tagged with a node-kind variant, a resolved type, a
// source location, and an annotation bag that later analyzer/optimizer
// passes populate without mutating the node's shape. Node embedding
// mirrors the teacher's CoreNode/CoreExpr pattern (internal/core/core.go
// in sunholo/ailang): a shared base struct plus a closed set of
// concrete node types satisfying a marker interface.
package core

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/types"
)

// Base is embedded in every IR node. Annotations is the per-node bag
// later passes (analyzers, optimizers, verifiers) write into; nothing
// else about a node changes after the Builder creates it (spec.md §3
// lifecycle: "IR nodes are created by the IR Builder and mutated (via
// annotation bag only) by analyzers/optimizers").
type Base struct {
	Pos         ast.Pos
	Type        types.Type
	Annotations map[string]interface{}
}

func (b *Base) Position() ast.Pos { return b.Pos }

// Annotate attaches a key/value pair to the node's annotation bag.
func (b *Base) Annotate(key string, value interface{}) {
	if b.Annotations == nil {
		b.Annotations = map[string]interface{}{}
	}
	b.Annotations[key] = value
}

// Annotation reads a previously-attached annotation.
func (b *Base) Annotation(key string) (interface{}, bool) {
	v, ok := b.Annotations[key]
	return v, ok
}

// Node is the base interface for every IR node.
type Node interface {
	Position() ast.Pos
	String() string
}

// Expr is any IR expression node; every Expr carries a resolved type.
type Expr interface {
	Node
	ResolvedType() types.Type
	exprNode()
}

// Stmt is any IR statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Decl is any top-level IR declaration.
type Decl interface {
	Node
	declNode()
}

func (b *Base) ResolvedType() types.Type { return b.Type }

// ---------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------

// Param is a typed function parameter.
type Param struct {
	Name string
	Type types.Type
}

// FuncDecl is a lowered function declaration: its Body contains no
// Python sugar (spec.md §4.3 invariant).
type FuncDecl struct {
	Base
	Name       string
	Params     []Param
	ReturnType types.Type
	Body       []Stmt
	Requires   []string
	Ensures    []string
}

func (d *FuncDecl) declNode()      {}
func (d *FuncDecl) String() string { return fmt.Sprintf("func %s", d.Name) }

// StructDecl is a lowered struct/record declaration.
type StructDecl struct {
	Base
	Name   string
	Fields []Param
}

func (d *StructDecl) declNode()      {}
func (d *StructDecl) String() string { return fmt.Sprintf("struct %s", d.Name) }

// GlobalDecl is a module-level constant.
type GlobalDecl struct {
	Base
	Name  string
	Value Expr
}

func (d *GlobalDecl) declNode()      {}
func (d *GlobalDecl) String() string { return fmt.Sprintf("global %s", d.Name) }

// EntryPointName is the synthesized C entry point Builder emits to hold
// bare module-level statements (spec.md §8 scenario 2's `x.append(42)`
// / `print(x[0])`), run in script order the way the rest of a module's
// top-level code executes. It's an ordinary *FuncDecl like any other,
// so every analyzer/optimizer/verifier that already walks function
// declarations picks it up for free.
const EntryPointName = "main"

// Program is the TypedIR root (spec.md §3's "tree of nodes").
type Program struct {
	Decls []Decl
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

// Assign is `target = value` (augmented assignment has already been
// lowered into this form by the Builder, per spec.md §4.3(a)).
type Assign struct {
	Base
	Target Expr
	Value  Expr
}

func (s *Assign) stmtNode()      {}
func (s *Assign) String() string { return fmt.Sprintf("%s = %s", s.Target, s.Value) }

// VarDecl introduces a new local, used for the Builder's comprehension
// lowering temporaries (spec.md §4.3(d)) and for first-assignment of an
// inferred-type local.
type VarDecl struct {
	Base
	Name string
	Init Expr // nil for a declaration with no initializer
}

func (s *VarDecl) stmtNode()      {}
func (s *VarDecl) String() string { return fmt.Sprintf("var %s", s.Name) }

// If is a conditional; Else may be nil.
type If struct {
	Base
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (s *If) stmtNode()      {}
func (s *If) String() string { return fmt.Sprintf("if %s", s.Cond) }

// While is a while-loop.
type While struct {
	Base
	Cond Expr
	Body []Stmt
}

func (s *While) stmtNode()      {}
func (s *While) String() string { return fmt.Sprintf("while %s", s.Cond) }

// ForRange is `for i in range(start,stop,step)`, kept distinct from
// ForContainer because the two emit differently (spec.md §3, §4.3(c)).
type ForRange struct {
	Base
	Var         string
	Start, Stop, Step Expr
	Body        []Stmt
}

func (s *ForRange) stmtNode()      {}
func (s *ForRange) String() string { return fmt.Sprintf("for %s in range(...)", s.Var) }

// ForContainer is `for x in container`.
type ForContainer struct {
	Base
	Var       string
	ElemType  types.Type
	Container Expr
	Body      []Stmt
}

func (s *ForContainer) stmtNode()      {}
func (s *ForContainer) String() string { return fmt.Sprintf("for %s in %s", s.Var, s.Container) }

// Return is `return value`; Value is nil for a bare return.
type Return struct {
	Base
	Value Expr
}

func (s *Return) stmtNode()      {}
func (s *Return) String() string { return fmt.Sprintf("return %s", s.Value) }

// Break is `break`.
type Break struct{ Base }

func (s *Break) stmtNode()      {}
func (s *Break) String() string { return "break" }

// Continue is `continue`.
type Continue struct{ Base }

func (s *Continue) stmtNode()      {}
func (s *Continue) String() string { return "continue" }

// Pass is `pass` (always emits as nothing, even when it is a block's
// only statement).
type Pass struct{ Base }

func (s *Pass) stmtNode()      {}
func (s *Pass) String() string { return "pass" }

// Assert is `assert cond, msg`.
type Assert struct {
	Base
	Cond Expr
	Msg  Expr
}

func (s *Assert) stmtNode()      {}
func (s *Assert) String() string { return fmt.Sprintf("assert %s", s.Cond) }

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	Base
	X Expr
}

func (s *ExprStmt) stmtNode()      {}
func (s *ExprStmt) String() string { return s.X.String() }

// Block is a synthetic statement list with no control-flow of its own,
// introduced by optimization passes that splice one surviving sequence
// of statements in place of a larger construct (e.g. dead-branch
// elimination replacing an If whose condition folded to a constant,
// spec.md §4.5.1 rule iii). The emitter flattens it like any other
// statement list; no other pass needs to recognize it specially.
type Block struct {
	Base
	Stmts []Stmt
}

func (s *Block) stmtNode()      {}
func (s *Block) String() string { return "<block>" }

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

// Literal is an int/float/bool/string/null constant.
type Literal struct {
	Base
	Kind  ast.LitKind
	Value interface{}
}

func (e *Literal) exprNode()      {}
func (e *Literal) String() string { return fmt.Sprintf("%v", e.Value) }

// Name is a reference to a local, parameter, global, or function.
type Name struct {
	Base
	Value string
}

func (e *Name) exprNode()      {}
func (e *Name) String() string { return e.Value }

// BinOp is a binary arithmetic expression.
type BinOp struct {
	Base
	Op          string
	Left, Right Expr
}

func (e *BinOp) exprNode()      {}
func (e *BinOp) String() string { return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right) }

// UnaryOp is a unary expression.
type UnaryOp struct {
	Base
	Op      string
	Operand Expr
}

func (e *UnaryOp) exprNode()      {}
func (e *UnaryOp) String() string { return fmt.Sprintf("%s%s", e.Op, e.Operand) }

// Compare is a single pairwise comparison (chained comparisons are
// expanded by the Builder into a BoolOp("and", ...) of these,
// spec.md §4.3(b)).
type Compare struct {
	Base
	Op          string
	Left, Right Expr
}

func (e *Compare) exprNode()      {}
func (e *Compare) String() string { return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right) }

// BoolOp is `a and b` / `a or b` with short-circuit semantics.
type BoolOp struct {
	Base
	Op     string
	Values []Expr
}

func (e *BoolOp) exprNode()      {}
func (e *BoolOp) String() string { return fmt.Sprintf("boolop(%s)", e.Op) }

// Subscript is `x[index]`.
type Subscript struct {
	Base
	X     Expr
	Index Expr
}

func (e *Subscript) exprNode()      {}
func (e *Subscript) String() string { return fmt.Sprintf("%s[%s]", e.X, e.Index) }

// Slice is `x[lo:hi:step]`.
type Slice struct {
	Base
	X, Lo, Hi, Step Expr
}

func (e *Slice) exprNode()      {}
func (e *Slice) String() string { return fmt.Sprintf("%s[slice]", e.X) }

// Attribute is `x.name`.
type Attribute struct {
	Base
	X    Expr
	Name string
}

func (e *Attribute) exprNode()      {}
func (e *Attribute) String() string { return fmt.Sprintf("%s.%s", e.X, e.Name) }

// CallKind distinguishes user-defined, built-in, and container-method
// calls, set by the Builder from the call's shape (attribute receiver
// or plain name) and a fixed list of builtin names (consumed directly
// by CallGraphAnalyzer, spec.md §4.4.3).
type CallKind int

const (
	UserCall CallKind = iota
	BuiltinCall
	MethodCall
)

// Call is a function, builtin, or method invocation.
type Call struct {
	Base
	Kind   CallKind
	Func   Expr
	Method string // set only when Kind == MethodCall
	Args   []Expr
}

func (e *Call) exprNode()      {}
func (e *Call) String() string { return fmt.Sprintf("call(%s)", e.Func) }

// ContainerLiteral is a list/dict/set literal.
type ContainerLiteral struct {
	Base
	Kind     ast.ContainerKind
	Elements []Expr
	Keys     []Expr
}

func (e *ContainerLiteral) exprNode()      {}
func (e *ContainerLiteral) String() string { return "<container>" }

// FormatCall is a decomposed f-string: a printf-style format string
// plus its argument expressions (spec.md §4.8).
type FormatCall struct {
	Base
	Format string
	Args   []Expr
}

func (e *FormatCall) exprNode()      {}
func (e *FormatCall) String() string { return fmt.Sprintf("format(%q)", e.Format) }
