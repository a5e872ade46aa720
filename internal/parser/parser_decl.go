package parser

import (
	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/lexer"
)

func (p *Parser) parseDecl() (ast.Decl, error) {
	switch {
	case p.curIs(lexer.DEF):
		return p.parseFuncDecl()
	case p.curIs(lexer.CLASS):
		return p.parseClassDecl()
	case p.curIs(lexer.IDENT):
		// `x: T = expr` / `x = expr` is a GlobalDecl; anything else
		// starting with an identifier (a method call, print(), ...) is
		// a bare module-level statement (spec.md scenario 2's
		// `x.append(42)` / `print(x[0])`), which runs top to bottom the
		// way the rest of a script does.
		if p.peekIs(lexer.COLON) || p.peekIs(lexer.ASSIGN) {
			return p.parseGlobalDecl()
		}
		return p.parseTopLevelStmt()
	default:
		return nil, p.errf("PAR001", "unexpected top-level token %s %q", p.cur.Kind, p.cur.Literal)
	}
}

// parseTopLevelStmt parses one bare module-level statement via the
// same grammar a function body uses, and wraps it as *ast.GlobalStmt
// so module.Decls stays one uniform list.
func (p *Parser) parseTopLevelStmt() (*ast.GlobalStmt, error) {
	pos := p.curPos()
	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &ast.GlobalStmt{Stmt: stmt, Pos: pos}, nil
}

func (p *Parser) parseFuncDecl() (*ast.FuncDecl, error) {
	pos := p.curPos()
	if _, err := p.expect(lexer.DEF); err != nil {
		return nil, err
	}
	name := p.cur.Literal
	if _, err := p.expect(lexer.IDENT); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	var params []*ast.Param
	for !p.curIs(lexer.RPAREN) {
		ppos := p.curPos()
		pname := p.cur.Literal
		if _, err := p.expect(lexer.IDENT); err != nil {
			return nil, err
		}
		var ann ast.TypeExpr
		if p.curIs(lexer.COLON) {
			p.next()
			t, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			ann = t
		}
		params = append(params, &ast.Param{Name: pname, Annotation: ann, Pos: ppos})
		if p.curIs(lexer.COMMA) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	var ret ast.TypeExpr
	if p.curIs(lexer.ARROW) {
		p.next()
		t, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		ret = t
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	body = stripDocstring(body)
	return &ast.FuncDecl{
		Name: name, Params: params, ReturnType: ret, Body: body,
		Requires: p.pragmas.requires[pos.Line],
		Ensures:  p.pragmas.ensures[pos.Line],
		Pos:      pos,
	}, nil
}

// stripDocstring removes a leading bare string-literal expression
// statement, matching the original translator's docstring handling
// (original_source/src/cgen/intelligence/generators/simple_translator.py).
func stripDocstring(body []ast.Stmt) []ast.Stmt {
	if len(body) == 0 {
		return body
	}
	if es, ok := body[0].(*ast.ExprStmt); ok {
		if _, ok := es.X.(*ast.Literal); ok {
			if lit := es.X.(*ast.Literal); lit.Kind == ast.StringLit {
				return body[1:]
			}
		}
	}
	return body
}

func (p *Parser) parseClassDecl() (*ast.StructDecl, error) {
	pos := p.curPos()
	if _, err := p.expect(lexer.CLASS); err != nil {
		return nil, err
	}
	name := p.cur.Literal
	if _, err := p.expect(lexer.IDENT); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.INDENT); err != nil {
		return nil, err
	}
	var fields []*ast.FieldDecl
	for !p.curIs(lexer.DEDENT) {
		fpos := p.curPos()
		fname := p.cur.Literal
		if _, err := p.expect(lexer.IDENT); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON); err != nil {
			return nil, err
		}
		ann, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, &ast.FieldDecl{Name: fname, Annotation: ann, Pos: fpos})
		p.skipNewlines()
	}
	if _, err := p.expect(lexer.DEDENT); err != nil {
		return nil, err
	}
	return &ast.StructDecl{Name: name, Fields: fields, Pos: pos}, nil
}

func (p *Parser) parseGlobalDecl() (*ast.GlobalDecl, error) {
	pos := p.curPos()
	name := p.cur.Literal
	if _, err := p.expect(lexer.IDENT); err != nil {
		return nil, err
	}
	var ann ast.TypeExpr
	if p.curIs(lexer.COLON) {
		p.next()
		t, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		ann = t
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpr(LOWEST)
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	return &ast.GlobalDecl{Name: name, Annotation: ann, Value: val, Pos: pos}, nil
}

// parseBlock parses `: NEWLINE INDENT stmt* DEDENT`.
func (p *Parser) parseBlock() ([]ast.Stmt, error) {
	if _, err := p.expect(lexer.COLON); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.INDENT); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.curIs(lexer.DEDENT) && !p.curIs(lexer.EOF) {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
		p.skipNewlines()
	}
	if _, err := p.expect(lexer.DEDENT); err != nil {
		return nil, err
	}
	return stmts, nil
}
