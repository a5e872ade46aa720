package parser

import (
	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/lexer"
)

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.cur.Kind {
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.RETURN:
		return p.parseReturn()
	case lexer.BREAK:
		pos := p.curPos()
		p.next()
		return &ast.BreakStmt{Pos: pos}, nil
	case lexer.CONTINUE:
		pos := p.curPos()
		p.next()
		return &ast.ContinueStmt{Pos: pos}, nil
	case lexer.PASS:
		pos := p.curPos()
		p.next()
		return &ast.PassStmt{Pos: pos}, nil
	case lexer.ASSERT:
		return p.parseAssert()
	default:
		return p.parseSimpleOrAssign()
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	pos := p.curPos()
	p.next() // consume if/elif
	cond, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var elseBody []ast.Stmt
	if p.curIs(lexer.ELIF) {
		elifStmt, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		elseBody = []ast.Stmt{elifStmt}
	} else if p.curIs(lexer.ELSE) {
		p.next()
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		elseBody = b
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: elseBody, Pos: pos}, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	pos := p.curPos()
	p.next()
	cond, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{Cond: cond, Body: body, Pos: pos}, nil
}

// parseFor distinguishes `for i in range(...)` (ForRangeStmt) from
// `for x in container` (ForContainerStmt), per spec.md §4.3(c): the
// two are kept as distinct node kinds because they emit differently.
func (p *Parser) parseFor() (ast.Stmt, error) {
	pos := p.curPos()
	p.next() // for
	varName := p.cur.Literal
	if _, err := p.expect(lexer.IDENT); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.IN); err != nil {
		return nil, err
	}
	if p.curIs(lexer.RANGE) {
		p.next()
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		var args []ast.Expr
		for !p.curIs(lexer.RPAREN) {
			e, err := p.parseExpr(LOWEST)
			if err != nil {
				return nil, err
			}
			args = append(args, e)
			if p.curIs(lexer.COMMA) {
				p.next()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		fr := &ast.ForRangeStmt{Var: varName, Body: body, Pos: pos}
		switch len(args) {
		case 1:
			fr.Stop = args[0]
		case 2:
			fr.Start, fr.Stop = args[0], args[1]
		case 3:
			fr.Start, fr.Stop, fr.Step = args[0], args[1], args[2]
		}
		return fr, nil
	}
	container, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.ForContainerStmt{Var: varName, Container: container, Body: body, Pos: pos}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	pos := p.curPos()
	p.next()
	if p.curIs(lexer.NEWLINE) || p.curIs(lexer.DEDENT) || p.curIs(lexer.EOF) {
		return &ast.ReturnStmt{Pos: pos}, nil
	}
	val, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{Value: val, Pos: pos}, nil
}

func (p *Parser) parseAssert() (ast.Stmt, error) {
	pos := p.curPos()
	p.next()
	cond, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	var msg ast.Expr
	if p.curIs(lexer.COMMA) {
		p.next()
		m, err := p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
		msg = m
	}
	return &ast.AssertStmt{Cond: cond, Msg: msg, Pos: pos}, nil
}

// parseSimpleOrAssign parses assignment, augmented assignment,
// annotated assignment, or a bare expression statement — all of which
// begin with an expression in this grammar.
func (p *Parser) parseSimpleOrAssign() (ast.Stmt, error) {
	pos := p.curPos()
	target, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}

	if p.curIs(lexer.COLON) {
		p.next()
		ann, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ASSIGN); err != nil {
			return nil, err
		}
		val, err := p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Target: target, Annotation: ann, Value: val, Pos: pos}, nil
	}

	if p.curIs(lexer.ASSIGN) {
		p.next()
		val, err := p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
		return &ast.AssignStmt{Target: target, Value: val, Pos: pos}, nil
	}

	if op, ok := augOp(p.cur.Kind); ok {
		p.next()
		val, err := p.parseExpr(LOWEST)
		if err != nil {
			return nil, err
		}
		return &ast.AugAssignStmt{Target: target, Op: op, Value: val, Pos: pos}, nil
	}

	return &ast.ExprStmt{X: target, Pos: pos}, nil
}

func augOp(k lexer.Kind) (string, bool) {
	switch k {
	case lexer.PLUSEQ:
		return "+", true
	case lexer.MINUSEQ:
		return "-", true
	case lexer.STAREQ:
		return "*", true
	case lexer.SLASHEQ:
		return "/", true
	case lexer.DSLASHEQ:
		return "//", true
	case lexer.PERCENTEQ:
		return "%", true
	}
	return "", false
}
