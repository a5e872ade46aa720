// Package parser implements a recursive-descent, Pratt-style parser
// that turns a lexer.Lexer token stream into an *ast.Module (spec.md
// §3 "Source unit"). Precedence dispatch mirrors the teacher's
// prefix/infix parse-function table (internal/parser/parser.go in
// sunholo/ailang), adapted to the Python subset's grammar.
package parser

import (
	"fmt"

	"github.com/shakfu/cgen-go/internal/ast"
	"github.com/shakfu/cgen-go/internal/errors"
	"github.com/shakfu/cgen-go/internal/lexer"
)

const (
	_ int = iota
	LOWEST
	OR_PREC
	AND_PREC
	NOT_PREC
	COMPARE
	SUM
	PRODUCT
	UNARY
	POSTFIX
)

var precedences = map[lexer.Kind]int{
	lexer.OR:      OR_PREC,
	lexer.AND:     AND_PREC,
	lexer.LT:      COMPARE,
	lexer.LTE:     COMPARE,
	lexer.GT:      COMPARE,
	lexer.GTE:     COMPARE,
	lexer.EQ:      COMPARE,
	lexer.NEQ:     COMPARE,
	lexer.PLUS:    SUM,
	lexer.MINUS:   SUM,
	lexer.STAR:    PRODUCT,
	lexer.SLASH:   PRODUCT,
	lexer.DSLASH:  PRODUCT,
	lexer.PERCENT: PRODUCT,
	lexer.LPAREN:  POSTFIX,
	lexer.LBRACKET: POSTFIX,
	lexer.DOT:     POSTFIX,
}

type (
	prefixParseFn func() (ast.Expr, error)
	infixParseFn  func(ast.Expr) (ast.Expr, error)
)

// Parser holds parsing state: the token stream and one token of lookahead.
type Parser struct {
	l   *lexer.Lexer
	file string

	cur  lexer.Token
	peek lexer.Token

	prefixFns map[lexer.Kind]prefixParseFn
	infixFns  map[lexer.Kind]infixParseFn

	pragmas *pragmas
}

// New creates a Parser over l.
func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{l: l, file: file, pragmas: &pragmas{requires: map[int][]string{}, ensures: map[int][]string{}}}
	p.prefixFns = map[lexer.Kind]prefixParseFn{
		lexer.IDENT:    p.parseIdent,
		lexer.INT:      p.parseInt,
		lexer.FLOAT:    p.parseFloat,
		lexer.STRING:   p.parseString,
		lexer.FSTRING:  p.parseFString,
		lexer.TRUE:     p.parseBool,
		lexer.FALSE:    p.parseBool,
		lexer.NONE:     p.parseNone,
		lexer.MINUS:    p.parseUnary,
		lexer.PLUS:     p.parseUnary,
		lexer.NOT:      p.parseUnary,
		lexer.LPAREN:   p.parseGroup,
		lexer.LBRACKET: p.parseListLiteralOrComp,
		lexer.LBRACE:   p.parseDictOrSetLiteralOrComp,
		lexer.RANGE:    p.parseIdent,
	}
	p.infixFns = map[lexer.Kind]infixParseFn{
		lexer.PLUS: p.parseBinary, lexer.MINUS: p.parseBinary,
		lexer.STAR: p.parseBinary, lexer.SLASH: p.parseBinary,
		lexer.DSLASH: p.parseBinary, lexer.PERCENT: p.parseBinary,
		lexer.AND: p.parseBoolOp, lexer.OR: p.parseBoolOp,
		lexer.LT: p.parseCompare, lexer.LTE: p.parseCompare,
		lexer.GT: p.parseCompare, lexer.GTE: p.parseCompare,
		lexer.EQ: p.parseCompare, lexer.NEQ: p.parseCompare,
		lexer.LPAREN:   p.parseCall,
		lexer.LBRACKET: p.parseSubscriptOrSlice,
		lexer.DOT:      p.parseAttribute,
	}
	p.next()
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curPos() ast.Pos {
	return ast.Pos{Line: p.cur.Line, Column: p.cur.Column, File: p.file}
}

func (p *Parser) curIs(k lexer.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k lexer.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	if !p.curIs(k) {
		return lexer.Token{}, p.errf(errors.PAR001, "expected %s, got %s %q", k, p.cur.Kind, p.cur.Literal)
	}
	tok := p.cur
	p.next()
	return tok, nil
}

func (p *Parser) errf(code, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return errors.WrapReport(errors.New(code, "parser", msg, &ast.Span{Start: p.curPos(), End: p.curPos()}))
}

// skipNewlines consumes any run of NEWLINE tokens (blank logical lines).
func (p *Parser) skipNewlines() {
	for p.curIs(lexer.NEWLINE) {
		p.next()
	}
}

// ParseModule parses a complete source unit.
func ParseModule(source, file string) (*ast.Module, error) {
	norm := lexer.Normalize([]byte(source))
	l := lexer.New(string(norm), file)
	p := New(l, file)
	p.pragmas = scanPragmas(string(norm))
	return p.parseModule()
}

// ParseExpr parses a single standalone expression, used to re-parse
// the raw `@requires`/`@ensures`/`@invariant` pragma text (SPEC_FULL.md
// §12) into an ast.Expr the type inferencer and IR builder can handle
// the same way as any other expression.
func ParseExpr(source, file string) (ast.Expr, error) {
	norm := lexer.Normalize([]byte(source))
	l := lexer.New(string(norm), file)
	p := New(l, file)
	return p.parseExpr(LOWEST)
}

func (p *Parser) parseModule() (*ast.Module, error) {
	mod := &ast.Module{Pos: ast.Pos{Line: 1, Column: 1, File: p.file}}
	p.skipNewlines()
	for !p.curIs(lexer.EOF) {
		d, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		if d != nil {
			mod.Decls = append(mod.Decls, d)
		}
		p.skipNewlines()
	}
	return mod, nil
}
