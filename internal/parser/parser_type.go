package parser

import (
	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/lexer"
)

// parseTypeExpr parses a type annotation as written in source:
// a bare name (`int`) or a parameterized container (`list[int]`,
// `dict[str,int]`).
func (p *Parser) parseTypeExpr() (ast.TypeExpr, error) {
	pos := p.curPos()
	name := p.cur.Literal
	if !p.curIs(lexer.IDENT) && !p.curIs(lexer.NONE) {
		return nil, p.errf("PAR005", "expected type annotation, got %s %q", p.cur.Kind, p.cur.Literal)
	}
	if p.curIs(lexer.NONE) {
		name = "None"
	}
	p.next()
	if !p.curIs(lexer.LBRACKET) {
		return &ast.NameType{Name: name, Pos: pos}, nil
	}
	p.next() // consume [
	var args []ast.TypeExpr
	for !p.curIs(lexer.RBRACKET) {
		a, err := p.parseTypeExpr()
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
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return &ast.GenericType{Name: name, Args: args, Pos: pos}, nil
}
