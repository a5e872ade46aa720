package emitter

import "github.com/shakfu/cgen-go/internal/core"

// precedence mirrors C's operator precedence table (higher binds
// tighter). Only the operators the IR can produce are listed.
var binPrec = map[string]int{
	"or": 1, "and": 2,
	"|": 3, "^": 4, "&": 5,
	"==": 6, "!=": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "//": 10, "%": 10,
}

// exprPrecedence returns e's top-level operator precedence, or a high
// sentinel for atoms (names, literals, calls, subscripts) that never
// need outer parens on their own.
func exprPrecedence(e core.Expr) int {
	switch expr := e.(type) {
	case *core.BinOp:
		return binPrec[expr.Op]
	case *core.Compare:
		return binPrec[expr.Op]
	case *core.BoolOp:
		return binPrec[expr.Op]
	case *core.UnaryOp:
		return 11
	}
	return 100 // atom
}

// needsParens reports whether child, rendered inside parent at the
// given operator precedence, needs parentheses. Spec.md §4.8 prefers
// conservative over-parenthesization, so equal precedence on the
// right-hand side of a non-associative/left-associative operator is
// also parenthesized.
func needsParens(child core.Expr, parentPrec int, isRightOperand bool) bool {
	cp := exprPrecedence(child)
	if cp < parentPrec {
		return true
	}
	if cp == parentPrec && isRightOperand {
		return true
	}
	return false
}
