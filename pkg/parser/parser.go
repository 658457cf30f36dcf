// Package parser implements component P: a standard recursive-descent
// parser over the token stream, building the AST that component E/C/F
// lower to tape instructions (§2). As §1 notes, the front end is not
// where this project's engineering value lives — this parser is a
// conventional precedence-climbing recursive descent, nothing more.
package parser

import (
	"fmt"
	"strconv"

	"byteflow/pkg/ast"
	"byteflow/pkg/errors"
	"byteflow/pkg/lexer"
	"byteflow/pkg/source"
	"byteflow/pkg/token"
	"byteflow/pkg/types"
)

// Parser consumes tokens from a Lexer and produces an *ast.Program.
type Parser struct {
	l     *lexer.Lexer
	src   *source.SourceFile
	diags *errors.Diagnostics

	cur  token.Token
	peek token.Token
}

// New creates a Parser reading from l, reporting syntax errors into diags.
func New(l *lexer.Lexer, src *source.SourceFile, diags *errors.Diagnostics) *Parser {
	p := &Parser{l: l, src: src, diags: diags}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(k token.Kind) bool  { return p.cur.Kind == k }
func (p *Parser) peekIs(k token.Kind) bool { return p.peek.Kind == k }

func (p *Parser) expect(k token.Kind) token.Token {
	if !p.curIs(k) {
		p.errorf(p.cur, "expected %s, got %s (%q)", k, p.cur.Kind, p.cur.Lexeme)
		return p.cur
	}
	tok := p.cur
	p.advance()
	return tok
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	p.diags.Add(&errors.SyntaxError{
		Position: errors.Position{Line: tok.Line, Column: tok.Column, StartPos: tok.StartPos, EndPos: tok.EndPos, Source: p.src},
		Msg:      fmt.Sprintf(format, args...),
	})
}

// isTypeKeyword reports whether kind starts a type in a declaration
// position.
func isTypeKeyword(k token.Kind) bool {
	switch k {
	case token.INT, token.BOOL, token.CHAR, token.VOID:
		return true
	}
	return false
}

func (p *Parser) parseTypeKeyword() types.Type {
	switch p.cur.Kind {
	case token.INT:
		p.advance()
		return types.Int
	case token.BOOL:
		p.advance()
		return types.Bool
	case token.CHAR:
		p.advance()
		return types.Char
	case token.VOID:
		p.advance()
		return types.Void
	default:
		p.errorf(p.cur, "expected a type, got %q", p.cur.Lexeme)
		p.advance()
		return types.Int
	}
}

// ParseProgram parses the whole token stream into a Program of top-level
// declarations (§3 Declarations).
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF) {
		decl := p.parseDeclaration()
		if decl != nil {
			prog.Declarations = append(prog.Declarations, decl)
		}
		if p.curIs(token.ILLEGAL) {
			p.advance() // avoid an infinite loop on unrecoverable input
		}
	}
	return prog
}

func (p *Parser) parseDeclaration() ast.Declaration {
	startTok := p.cur
	typ := p.parseTypeKeyword()
	nameTok := p.expect(token.IDENT)
	name := nameTok.Lexeme

	if p.curIs(token.LPAREN) {
		return p.parseFunction(startTok, typ, name)
	}

	if p.curIs(token.LBRACKET) {
		dims := p.parseArrayDims()
		var init []ast.Expression
		if p.curIs(token.ASSIGN) {
			p.advance()
			init = p.parseArrayInitializer()
		}
		p.expect(token.SEMICOLON)
		return &ast.GlobalArray{Token: startTok, Name: name, Elem: typ, Dims: dims, Init: init}
	}

	var initExpr ast.Expression
	if p.curIs(token.ASSIGN) {
		p.advance()
		initExpr = p.parseExpression(precLowest)
	}
	p.expect(token.SEMICOLON)
	return &ast.GlobalVar{Token: startTok, Name: name, Type: typ, Init: initExpr}
}

func (p *Parser) parseArrayDims() []int {
	var dims []int
	for p.curIs(token.LBRACKET) {
		p.advance()
		tok := p.expect(token.INT_LIT)
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.errorf(tok, "invalid array dimension %q", tok.Lexeme)
			n = 0
		}
		dims = append(dims, int(n))
		p.expect(token.RBRACKET)
	}
	return dims
}

func (p *Parser) parseArrayInitializer() []ast.Expression {
	p.expect(token.LBRACE)
	var vals []ast.Expression
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		vals = append(vals, p.parseExpression(precLowest))
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	return vals
}

func (p *Parser) parseFunction(startTok token.Token, retType types.Type, name string) *ast.Function {
	p.expect(token.LPAREN)
	var params []ast.Param
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		pt := p.parseTypeKeyword()
		pname := p.expect(token.IDENT).Lexeme
		params = append(params, ast.Param{Name: pname, Type: pt})
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RPAREN)
	body := p.parseBlock()
	return &ast.Function{Token: startTok, Name: name, RetType: retType, Params: params, Body: body}
}

func (p *Parser) parseBlock() *ast.Block {
	startTok := p.expect(token.LBRACE)
	blk := &ast.Block{Token: startTok}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		blk.Statements = append(blk.Statements, p.parseStatement())
	}
	p.expect(token.RBRACE)
	return blk
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur.Kind {
	case token.LBRACE:
		return p.parseBlock()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.SWITCH:
		return p.parseSwitch()
	case token.BREAK:
		tok := p.cur
		p.advance()
		p.expect(token.SEMICOLON)
		return &ast.Break{Token: tok}
	case token.RETURN:
		return p.parseReturn()
	default:
		if isTypeKeyword(p.cur.Kind) {
			return p.parseVarDecl()
		}
		return p.parseAssignOrCall()
	}
}

func (p *Parser) parseVarDecl() *ast.VarDecl {
	startTok := p.cur
	typ := p.parseTypeKeyword()
	name := p.expect(token.IDENT).Lexeme
	decl := &ast.VarDecl{Token: startTok, Name: name}
	if p.curIs(token.LBRACKET) {
		decl.Dims = p.parseArrayDims()
		decl.Type = types.NewArray(typ, decl.Dims)
		p.expect(token.SEMICOLON)
		return decl
	}
	decl.Type = typ
	if p.curIs(token.ASSIGN) {
		p.advance()
		decl.Init = p.parseExpression(precLowest)
	}
	p.expect(token.SEMICOLON)
	return decl
}

// parseAssignOrCall disambiguates `ident = expr;`, `ident[idx] = expr;`
// and `ident(args);` which all start the same way.
func (p *Parser) parseAssignOrCall() ast.Statement {
	startTok := p.cur
	nameTok := p.expect(token.IDENT)

	if p.curIs(token.LPAREN) {
		call := p.parseCallExpr(nameTok)
		p.expect(token.SEMICOLON)
		return &ast.Call{Token: startTok, Expr: call}
	}

	var target ast.Expression = &ast.Ident{Token: nameTok, Name: nameTok.Lexeme}
	if p.curIs(token.LBRACKET) {
		p.advance()
		idx := p.parseExpression(precLowest)
		p.expect(token.RBRACKET)
		target = &ast.Index{Token: nameTok, Array: target, Index: idx}
	}
	p.expect(token.ASSIGN)
	val := p.parseExpression(precLowest)
	p.expect(token.SEMICOLON)
	return &ast.Assign{Token: startTok, Target: target, Value: val}
}

func (p *Parser) parseIf() *ast.If {
	startTok := p.expect(token.IF)
	p.expect(token.LPAREN)
	cond := p.parseExpression(precLowest)
	p.expect(token.RPAREN)
	then := p.parseStatement()
	var elseStmt ast.Statement
	if p.curIs(token.ELSE) {
		p.advance()
		elseStmt = p.parseStatement()
	}
	return &ast.If{Token: startTok, Cond: cond, Then: then, Else: elseStmt}
}

func (p *Parser) parseWhile() *ast.While {
	startTok := p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpression(precLowest)
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return &ast.While{Token: startTok, Cond: cond, Body: body}
}

func (p *Parser) parseFor() *ast.For {
	startTok := p.expect(token.FOR)
	p.expect(token.LPAREN)

	var init ast.Statement
	if !p.curIs(token.SEMICOLON) {
		if isTypeKeyword(p.cur.Kind) {
			init = p.parseVarDeclNoSemi()
		} else {
			init = p.parseAssignNoSemi()
		}
	}
	p.expect(token.SEMICOLON)

	cond := p.parseExpression(precLowest)
	p.expect(token.SEMICOLON)

	var step ast.Statement
	if !p.curIs(token.RPAREN) {
		step = p.parseAssignNoSemi()
	}
	p.expect(token.RPAREN)

	body := p.parseStatement()
	return &ast.For{Token: startTok, Init: init, Cond: cond, Step: step, Body: body}
}

// parseVarDeclNoSemi / parseAssignNoSemi parse the init/step clauses of a
// `for (...)` header, which are not terminated by ';' themselves (the
// surrounding for-header syntax supplies the separators).
func (p *Parser) parseVarDeclNoSemi() *ast.VarDecl {
	startTok := p.cur
	typ := p.parseTypeKeyword()
	name := p.expect(token.IDENT).Lexeme
	decl := &ast.VarDecl{Token: startTok, Name: name, Type: typ}
	if p.curIs(token.ASSIGN) {
		p.advance()
		decl.Init = p.parseExpression(precLowest)
	}
	return decl
}

func (p *Parser) parseAssignNoSemi() ast.Statement {
	startTok := p.cur
	nameTok := p.expect(token.IDENT)
	var target ast.Expression = &ast.Ident{Token: nameTok, Name: nameTok.Lexeme}
	if p.curIs(token.LBRACKET) {
		p.advance()
		idx := p.parseExpression(precLowest)
		p.expect(token.RBRACKET)
		target = &ast.Index{Token: nameTok, Array: target, Index: idx}
	}
	p.expect(token.ASSIGN)
	val := p.parseExpression(precLowest)
	return &ast.Assign{Token: startTok, Target: target, Value: val}
}

func (p *Parser) parseSwitch() *ast.Switch {
	startTok := p.expect(token.SWITCH)
	p.expect(token.LPAREN)
	value := p.parseExpression(precLowest)
	p.expect(token.RPAREN)
	p.expect(token.LBRACE)

	sw := &ast.Switch{Token: startTok, Value: value}
	for !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
		var c ast.SwitchCase
		if p.curIs(token.CASE) {
			p.advance()
			c.Value = p.parseExpression(precLowest)
			p.expect(token.COLON)
		} else {
			p.expect(token.DEFAULT)
			c.IsDefault = true
			p.expect(token.COLON)
		}
		for !p.curIs(token.CASE) && !p.curIs(token.DEFAULT) && !p.curIs(token.RBRACE) && !p.curIs(token.EOF) {
			c.Body = append(c.Body, p.parseStatement())
		}
		sw.Cases = append(sw.Cases, c)
	}
	p.expect(token.RBRACE)
	return sw
}

func (p *Parser) parseReturn() *ast.Return {
	startTok := p.expect(token.RETURN)
	ret := &ast.Return{Token: startTok}
	if !p.curIs(token.SEMICOLON) {
		ret.Value = p.parseExpression(precLowest)
	}
	p.expect(token.SEMICOLON)
	return ret
}

// --- Expressions: standard precedence-climbing recursive descent ---

type precedence int

const (
	precLowest precedence = iota
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
)

var precedences = map[token.Kind]precedence{
	token.OR_OR:   precOr,
	token.AND_AND: precAnd,
	token.EQ:      precEquality,
	token.NOT_EQ:  precEquality,
	token.LT:      precRelational,
	token.LT_EQ:   precRelational,
	token.GT:      precRelational,
	token.GT_EQ:   precRelational,
	token.PLUS:    precAdditive,
	token.MINUS:   precAdditive,
	token.STAR:    precMultiplicative,
	token.SLASH:   precMultiplicative,
	token.PERCENT: precMultiplicative,
}

func (p *Parser) peekPrecedence() precedence {
	if pr, ok := precedences[p.cur.Kind]; ok {
		return pr
	}
	return precLowest
}

func (p *Parser) parseExpression(minPrec precedence) ast.Expression {
	left := p.parseUnary()
	for {
		prec, ok := precedences[p.cur.Kind]
		if !ok || prec <= minPrec {
			break
		}
		opTok := p.cur
		op := ast.BinaryOp(opTok.Lexeme)
		p.advance()
		right := p.parseExpression(prec)
		left = &ast.Binary{Token: opTok, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.cur.Kind {
	case token.BANG:
		tok := p.cur
		p.advance()
		return &ast.Unary{Token: tok, Op: ast.UnaryNot, Right: p.parseUnary()}
	case token.MINUS:
		tok := p.cur
		p.advance()
		return &ast.Unary{Token: tok, Op: ast.UnaryNegate, Right: p.parseUnary()}
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.cur
	switch tok.Kind {
	case token.INT_LIT:
		p.advance()
		n, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.errorf(tok, "invalid integer literal %q", tok.Lexeme)
		}
		return &ast.IntLit{Token: tok, Value: n}
	case token.CHAR_LIT:
		p.advance()
		var v byte
		if len(tok.Lexeme) > 0 {
			v = tok.Lexeme[0]
		}
		return &ast.CharLit{Token: tok, Value: v}
	case token.STRING_LIT:
		p.advance()
		return &ast.StringLit{Token: tok, Value: tok.Lexeme}
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Token: tok, Value: true}
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Token: tok, Value: false}
	case token.LPAREN:
		p.advance()
		e := p.parseExpression(precLowest)
		p.expect(token.RPAREN)
		return e
	case token.IDENT:
		p.advance()
		if p.curIs(token.LPAREN) {
			return p.parseCallExpr(tok)
		}
		var e ast.Expression = &ast.Ident{Token: tok, Name: tok.Lexeme}
		for p.curIs(token.LBRACKET) {
			p.advance()
			idx := p.parseExpression(precLowest)
			p.expect(token.RBRACKET)
			e = &ast.Index{Token: tok, Array: e, Index: idx}
		}
		return e
	default:
		p.errorf(tok, "unexpected token %q in expression", tok.Lexeme)
		p.advance()
		return &ast.IntLit{Token: tok, Value: 0}
	}
}

func (p *Parser) parseCallExpr(nameTok token.Token) *ast.CallExpr {
	p.expect(token.LPAREN)
	var args []ast.Expression
	for !p.curIs(token.RPAREN) && !p.curIs(token.EOF) {
		args = append(args, p.parseExpression(precLowest))
		if p.curIs(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RPAREN)
	return &ast.CallExpr{Token: nameTok, Callee: nameTok.Lexeme, Args: args}
}
