package parser

import (
	"strconv"
	"strings"

	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/lexer"
)

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peek.Kind]; ok {
		return pr
	}
	return LOWEST
}

// parseExpr is the Pratt-parser entry point: dispatch on the current
// token's prefix function, then repeatedly fold in infix operators
// whose precedence exceeds minPrec.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, error) {
	prefix, ok := p.prefixFns[p.cur.Kind]
	if !ok {
		return nil, p.errf("PAR001", "unexpected token in expression: %s %q", p.cur.Kind, p.cur.Literal)
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}
	for !p.curIs(lexer.NEWLINE) && minPrec < p.curPrecedenceForInfix() {
		infix, ok := p.infixFns[p.cur.Kind]
		if !ok {
			break
		}
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (p *Parser) curPrecedenceForInfix() int {
	if pr, ok := precedences[p.cur.Kind]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) parseIdent() (ast.Expr, error) {
	pos := p.curPos()
	name := p.cur.Literal
	if p.curIs(lexer.RANGE) {
		name = "range"
	}
	p.next()
	return &ast.Name{Value: name, Pos: pos}, nil
}

func (p *Parser) parseInt() (ast.Expr, error) {
	pos := p.curPos()
	v, err := strconv.ParseInt(p.cur.Literal, 10, 64)
	if err != nil {
		return nil, p.errf("PAR001", "invalid integer literal %q", p.cur.Literal)
	}
	p.next()
	return &ast.Literal{Kind: ast.IntLit, Value: v, Pos: pos}, nil
}

func (p *Parser) parseFloat() (ast.Expr, error) {
	pos := p.curPos()
	v, err := strconv.ParseFloat(p.cur.Literal, 64)
	if err != nil {
		return nil, p.errf("PAR001", "invalid float literal %q", p.cur.Literal)
	}
	p.next()
	return &ast.Literal{Kind: ast.FloatLit, Value: v, Pos: pos}, nil
}

func (p *Parser) parseString() (ast.Expr, error) {
	pos := p.curPos()
	v := p.cur.Literal
	p.next()
	return &ast.Literal{Kind: ast.StringLit, Value: v, Pos: pos}, nil
}

func (p *Parser) parseBool() (ast.Expr, error) {
	pos := p.curPos()
	v := p.curIs(lexer.TRUE)
	p.next()
	return &ast.Literal{Kind: ast.BoolLit, Value: v, Pos: pos}, nil
}

func (p *Parser) parseNone() (ast.Expr, error) {
	pos := p.curPos()
	p.next()
	return &ast.Literal{Kind: ast.NullLit, Value: nil, Pos: pos}, nil
}

// parseFString decomposes `f"a{x}b{y}c"` into alternating literal
// parts and embedded expressions (spec.md §4.8: "f-strings... are
// decomposed into a printf-style format string plus arguments"; the
// decomposition itself happens here, in the frontend, per spec.md
// §4.3's "no Python-specific sugar survives into TypedIR").
func (p *Parser) parseFString() (ast.Expr, error) {
	pos := p.curPos()
	raw := p.cur.Literal
	p.next()

	var parts []string
	var exprs []ast.Expr
	var cur strings.Builder
	i := 0
	for i < len(raw) {
		ch := raw[i]
		if ch == '{' {
			parts = append(parts, cur.String())
			cur.Reset()
			depth := 1
			start := i + 1
			j := start
			for j < len(raw) && depth > 0 {
				if raw[j] == '{' {
					depth++
				} else if raw[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			sub := raw[start:j]
			subMod, err := ParseModule("_x = "+sub+"\n", p.file)
			if err != nil {
				return nil, err
			}
			gd, ok := subMod.Decls[0].(*ast.GlobalDecl)
			if !ok {
				return nil, p.errf("PAR001", "invalid f-string expression %q", sub)
			}
			exprs = append(exprs, gd.Value)
			i = j + 1
			continue
		}
		cur.WriteByte(ch)
		i++
	}
	parts = append(parts, cur.String())
	return &ast.FString{Parts: parts, Exprs: exprs, Pos: pos}, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	pos := p.curPos()
	op := p.cur.Literal
	if p.curIs(lexer.NOT) {
		op = "not"
	}
	p.next()
	operand, err := p.parseExpr(UNARY)
	if err != nil {
		return nil, err
	}
	return &ast.UnaryOp{Op: op, Operand: operand, Pos: pos}, nil
}

func (p *Parser) parseGroup() (ast.Expr, error) {
	p.next() // consume (
	e, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) parseBinary(left ast.Expr) (ast.Expr, error) {
	pos := p.curPos()
	op := p.cur.Literal
	prec := p.curPrecedenceForInfix()
	p.next()
	right, err := p.parseExpr(prec)
	if err != nil {
		return nil, err
	}
	return &ast.BinOp{Op: op, Left: left, Right: right, Pos: pos}, nil
}

func (p *Parser) parseBoolOp(left ast.Expr) (ast.Expr, error) {
	pos := p.curPos()
	op := p.cur.Literal
	prec := p.curPrecedenceForInfix()
	p.next()
	right, err := p.parseExpr(prec)
	if err != nil {
		return nil, err
	}
	if bo, ok := left.(*ast.BoolOp); ok && bo.Op == op {
		bo.Values = append(bo.Values, right)
		return bo, nil
	}
	return &ast.BoolOp{Op: op, Values: []ast.Expr{left, right}, Pos: pos}, nil
}

// parseCompare builds a Compare node, accumulating a chain like
// `a < b < c` into one node with two operators (spec.md §4.3(b) notes
// this is later expanded to `a<b and b<c` during TypedIR lowering —
// the parser keeps the surface chain intact so that lowering is
// explicit and visible, not re-derived).
func (p *Parser) parseCompare(left ast.Expr) (ast.Expr, error) {
	pos := p.curPos()
	var ops []string
	var comparators []ast.Expr
	for isCompareOp(p.cur.Kind) {
		op := p.cur.Literal
		prec := p.curPrecedenceForInfix()
		p.next()
		right, err := p.parseExpr(prec)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
		comparators = append(comparators, right)
	}
	return &ast.Compare{Left: left, Ops: ops, Comparators: comparators, Pos: pos}, nil
}

func isCompareOp(k lexer.Kind) bool {
	switch k {
	case lexer.LT, lexer.LTE, lexer.GT, lexer.GTE, lexer.EQ, lexer.NEQ:
		return true
	}
	return false
}

func (p *Parser) parseCall(fn ast.Expr) (ast.Expr, error) {
	pos := p.curPos()
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for !p.curIs(lexer.RPAREN) {
		a, err := p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.curIs(lexer.COMMA) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	return &ast.Call{Func: fn, Args: args, Pos: pos}, nil
}

func (p *Parser) parseAttribute(x ast.Expr) (ast.Expr, error) {
	pos := p.curPos()
	p.next() // consume .
	name := p.cur.Literal
	if _, err := p.expect(lexer.IDENT); err != nil {
		return nil, err
	}
	return &ast.Attribute{X: x, Name: name, Pos: pos}, nil
}

// parseSubscriptOrSlice handles both `x[i]` and `x[lo:hi:step]`.
func (p *Parser) parseSubscriptOrSlice(x ast.Expr) (ast.Expr, error) {
	pos := p.curPos()
	p.next() // consume [
	var lo ast.Expr
	var err error
	if !p.curIs(lexer.COLON) {
		lo, err = p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
	}
	if !p.curIs(lexer.COLON) {
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		return &ast.Subscript{X: x, Index: lo, Pos: pos}, nil
	}
	p.next() // consume :
	var hi, step ast.Expr
	if !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.COLON) {
		hi, err = p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
	}
	if p.curIs(lexer.COLON) {
		p.next()
		if !p.curIs(lexer.RBRACKET) {
			step, err = p.parseExpr(LOWEST)
			if err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.Slice{X: x, Lo: lo, Hi: hi, Step: step, Pos: pos}, nil
}

// parseListLiteralOrComp parses `[1,2,3]` or `[expr for v in it if c]`.
func (p *Parser) parseListLiteralOrComp() (ast.Expr, error) {
	pos := p.curPos()
	p.next() // consume [
	if p.curIs(lexer.RBRACKET) {
		p.next()
		return &ast.ContainerLiteral{Kind: ast.ListContainer, Pos: pos}, nil
	}
	first, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.curIs(lexer.FOR) {
		comp, err := p.parseCompTail(ast.ListComp, first, nil, pos)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		return comp, nil
	}
	elems := []ast.Expr{first}
	for p.curIs(lexer.COMMA) {
		p.next()
		if p.curIs(lexer.RBRACKET) {
			break
		}
		e, err := p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.ContainerLiteral{Kind: ast.ListContainer, Elements: elems, Pos: pos}, nil
}

// parseDictOrSetLiteralOrComp parses `{1,2}`, `{"a":1}`, or either's
// comprehension form.
func (p *Parser) parseDictOrSetLiteralOrComp() (ast.Expr, error) {
	pos := p.curPos()
	p.next() // consume {
	if p.curIs(lexer.RBRACE) {
		p.next()
		return &ast.ContainerLiteral{Kind: ast.DictContainer, Pos: pos}, nil
	}
	first, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	if p.curIs(lexer.COLON) {
		p.next()
		val, err := p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
		if p.curIs(lexer.FOR) {
			comp, err := p.parseCompTail(ast.DictComp, val, first, pos)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBRACE); err != nil {
				return nil, err
			}
			return comp, nil
		}
		keys := []ast.Expr{first}
		vals := []ast.Expr{val}
		for p.curIs(lexer.COMMA) {
			p.next()
			if p.curIs(lexer.RBRACE) {
				break
			}
			k, err := p.parseExpr(LOWEST)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.COLON); err != nil {
				return nil, err
			}
			v, err := p.parseExpr(LOWEST)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			vals = append(vals, v)
		}
		if _, err := p.expect(lexer.RBRACE); err != nil {
			return nil, err
		}
		return &ast.ContainerLiteral{Kind: ast.DictContainer, Keys: keys, Elements: vals, Pos: pos}, nil
	}
	if p.curIs(lexer.FOR) {
		comp, err := p.parseCompTail(ast.SetComp, first, nil, pos)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RBRACE); err != nil {
			return nil, err
		}
		return comp, nil
	}
	elems := []ast.Expr{first}
	for p.curIs(lexer.COMMA) {
		p.next()
		if p.curIs(lexer.RBRACE) {
			break
		}
		e, err := p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return &ast.ContainerLiteral{Kind: ast.SetContainer, Elements: elems, Pos: pos}, nil
}

func (p *Parser) parseCompTail(kind ast.CompKind, value, key ast.Expr, pos ast.Pos) (ast.Expr, error) {
	p.next() // consume for
	varName := p.cur.Literal
	if _, err := p.expect(lexer.IDENT); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IN); err != nil {
		return nil, err
	}
	iter, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	var conds []ast.Expr
	for p.curIs(lexer.IF) {
		p.next()
		c, err := p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return &ast.Comprehension{Kind: kind, ValueExpr: value, KeyExpr: key, Var: varName, Iter: iter, Conds: conds, Pos: pos}, nil
}
