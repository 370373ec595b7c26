// Package parser provides parsing for loom script source.
package parser

import (
	"fmt"
	"strconv"

	"github.com/loomlang/loom/ast"
	"github.com/loomlang/loom/lexer"
)

// Precedence levels, one per binary-operator tier (logicLow, logicHigh,
// relative, shift, addsub, muldiv); recorded in ast.Binary.Level.
const (
	LevelLogicLow = iota
	LevelLogicHigh
	LevelRelative
	LevelShift
	LevelAddSub
	LevelMulDiv
)

// Parser turns a token slice into an *ast.Program.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// NewParser creates a Parser over tokens (as produced by lexer.Tokenize).
func NewParser(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens, pos: 0}
}

// Parse reads a complete script and returns its AST. Parse is called once
// per job at submission time; the returned Program is never mutated by
// the evaluator.
func Parse(src string) (*ast.Program, error) {
	toks := lexer.NewLexer(src).Tokenize()
	return NewParser(toks).Parse()
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peekAhead(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return lexer.Token{Type: lexer.TokEOF}
	}
	return p.tokens[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t lexer.TokenType) (lexer.Token, error) {
	tok := p.peek()
	if tok.Type != t {
		return tok, fmt.Errorf("line %d: expected %s, got %s %q", tok.Line, lexer.TokenNames[t], lexer.TokenNames[tok.Type], tok.Value)
	}
	return p.advance(), nil
}

// Parse consumes the whole token stream and returns a Program.
func (p *Parser) Parse() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.peek().Type != lexer.TokEOF {
		if tok := p.peek(); tok.Type == lexer.TokIllegal {
			return nil, fmt.Errorf("line %d: illegal character %q", tok.Line, tok.Value)
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog, nil
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokLBrace:
		return p.parseBlock()
	case lexer.TokIf:
		return p.parseIf()
	case lexer.TokWhile:
		return p.parseWhile()
	case lexer.TokFor:
		return p.parseFor()
	case lexer.TokSwitch:
		return p.parseSwitch()
	case lexer.TokFunc:
		return p.parseFuncDecl()
	case lexer.TokSet:
		return p.parseSetDecl()
	case lexer.TokReturn:
		return p.parseReturn()
	case lexer.TokBreak:
		p.advance()
		if _, err := p.expect(lexer.TokSemi); err != nil {
			return nil, err
		}
		return &ast.Break{Pos: ast.Pos(tok.Line)}, nil
	case lexer.TokContinue:
		p.advance()
		if _, err := p.expect(lexer.TokSemi); err != nil {
			return nil, err
		}
		return &ast.Continue{Pos: ast.Pos(tok.Line)}, nil
	case lexer.TokGoto:
		p.advance()
		name, err := p.expect(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokSemi); err != nil {
			return nil, err
		}
		return &ast.Goto{Pos: ast.Pos(tok.Line), Name: name.Value}, nil
	case lexer.TokRef:
		return p.parseVarDecl(true)
	case lexer.TokIdent:
		if p.peekAhead(1).Type == lexer.TokColon {
			p.advance()
			p.advance()
			return &ast.Label{Pos: ast.Pos(tok.Line), Name: tok.Value}, nil
		}
		return p.parseSimpleStmt()
	default:
		return p.parseSimpleStmt()
	}
}

// parseSimpleStmt parses `Target Op Value;` or a bare expression
// statement `Expr;`.
func (p *Parser) parseSimpleStmt() (ast.Stmt, error) {
	pos := ast.Pos(p.peek().Line)
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if op, ok := assignOp(p.peek().Type); ok {
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokSemi); err != nil {
			return nil, err
		}
		return &ast.Assign{Pos: pos, Target: x, Op: op, Value: val}, nil
	}
	if _, err := p.expect(lexer.TokSemi); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Pos: pos, X: x}, nil
}

func assignOp(t lexer.TokenType) (string, bool) {
	switch t {
	case lexer.TokAssign:
		return "=", true
	case lexer.TokPlusAssign:
		return "+=", true
	case lexer.TokMinusAssign:
		return "-=", true
	case lexer.TokMulAssign:
		return "*=", true
	case lexer.TokDivAssign:
		return "/=", true
	case lexer.TokModAssign:
		return "%=", true
	case lexer.TokShlAssign:
		return "<<=", true
	case lexer.TokShrAssign:
		return ">>=", true
	case lexer.TokOrAssign:
		return "|=", true
	case lexer.TokAndAssign:
		return "&=", true
	case lexer.TokXorAssign:
		return "^=", true
	default:
		return "", false
	}
}

func (p *Parser) parseVarDecl(ref bool) (ast.Stmt, error) {
	pos := ast.Pos(p.peek().Line)
	if ref {
		if _, err := p.expect(lexer.TokRef); err != nil {
			return nil, err
		}
	}
	name, err := p.expect(lexer.TokIdent)
	if err != nil {
		return nil, err
	}
	var init ast.Expr
	if p.peek().Type == lexer.TokAssign {
		p.advance()
		init, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokSemi); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Pos: pos, Name: name.Value, Ref: ref, Init: init}, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	lbrace, err := p.expect(lexer.TokLBrace)
	if err != nil {
		return nil, err
	}
	b := &ast.Block{Pos: ast.Pos(lbrace.Line)}
	for p.peek().Type != lexer.TokRBrace {
		if p.peek().Type == lexer.TokEOF {
			return nil, fmt.Errorf("line %d: unterminated block", lbrace.Line)
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, stmt)
	}
	p.advance()
	return b, nil
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	tok, _ := p.expect(lexer.TokIf)
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	n := &ast.If{Pos: ast.Pos(tok.Line), Cond: cond, Then: then}
	if p.peek().Type == lexer.TokElse {
		p.advance()
		if p.peek().Type == lexer.TokIf {
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			n.Else = elseIf
		} else {
			elseBlock, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			n.Else = elseBlock
		}
	}
	return n, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	tok, _ := p.expect(lexer.TokWhile)
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Pos: ast.Pos(tok.Line), Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	tok, _ := p.expect(lexer.TokFor)
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return nil, err
	}
	var init ast.Stmt
	var err error
	if p.peek().Type != lexer.TokSemi {
		init, err = p.parseSimpleStmt()
		if err != nil {
			return nil, err
		}
	} else {
		p.advance()
	}
	var cond ast.Expr
	if p.peek().Type != lexer.TokSemi {
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokSemi); err != nil {
		return nil, err
	}
	var step ast.Stmt
	if p.peek().Type != lexer.TokRParen {
		step, err = p.parseSimpleStmtNoSemi()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.For{Pos: ast.Pos(tok.Line), Init: init, Cond: cond, Step: step, Body: body}, nil
}

// parseSimpleStmtNoSemi parses a for-loop step clause, which is not
// terminated by a semicolon (the enclosing ')' terminates it instead).
func (p *Parser) parseSimpleStmtNoSemi() (ast.Stmt, error) {
	pos := ast.Pos(p.peek().Line)
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if op, ok := assignOp(p.peek().Type); ok {
		p.advance()
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Pos: pos, Target: x, Op: op, Value: val}, nil
	}
	return &ast.ExprStmt{Pos: pos, X: x}, nil
}

func (p *Parser) parseSwitch() (ast.Stmt, error) {
	tok, _ := p.expect(lexer.TokSwitch)
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return nil, err
	}
	disc, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokLBrace); err != nil {
		return nil, err
	}
	sw := &ast.Switch{Pos: ast.Pos(tok.Line), Disc: disc}
	for p.peek().Type != lexer.TokRBrace {
		var c ast.SwitchCase
		switch p.peek().Type {
		case lexer.TokCase:
			p.advance()
			ce, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			c.Const = ce
		case lexer.TokDefault:
			p.advance()
		default:
			return nil, fmt.Errorf("line %d: expected case or default", p.peek().Line)
		}
		if _, err := p.expect(lexer.TokColon); err != nil {
			return nil, err
		}
		for p.peek().Type != lexer.TokCase && p.peek().Type != lexer.TokDefault && p.peek().Type != lexer.TokRBrace {
			stmt, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, stmt)
		}
		sw.Cases = append(sw.Cases, &c)
	}
	p.advance()
	return sw, nil
}

func (p *Parser) parseFuncDecl() (ast.Stmt, error) {
	tok, _ := p.expect(lexer.TokFunc)
	name, err := p.expect(lexer.TokIdent)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Pos: ast.Pos(tok.Line), Name: name.Value, Params: params, Body: body}, nil
}

func (p *Parser) parseParamList() ([]string, error) {
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return nil, err
	}
	var params []string
	for p.peek().Type != lexer.TokRParen {
		if len(params) > 0 {
			if _, err := p.expect(lexer.TokComma); err != nil {
				return nil, err
			}
		}
		name, err := p.expect(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		params = append(params, name.Value)
	}
	p.advance()
	return params, nil
}

func (p *Parser) parseSetDecl() (ast.Stmt, error) {
	tok, _ := p.expect(lexer.TokSet)
	name, err := p.expect(lexer.TokIdent)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokLBrace); err != nil {
		return nil, err
	}
	sd := &ast.SetDecl{Pos: ast.Pos(tok.Line), Name: name.Value}
	for p.peek().Type != lexer.TokRBrace {
		if p.peek().Type == lexer.TokFunc {
			fn, err := p.parseFuncDecl()
			if err != nil {
				return nil, err
			}
			fd := fn.(*ast.FuncDecl)
			sd.Members = append(sd.Members, &ast.SetMember{Name: fd.Name, Func: fd})
			continue
		}
		memberName, err := p.expect(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		var init ast.Expr
		if p.peek().Type == lexer.TokAssign {
			p.advance()
			init, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(lexer.TokSemi); err != nil {
			return nil, err
		}
		sd.Members = append(sd.Members, &ast.SetMember{Name: memberName.Value, Init: init})
	}
	p.advance()
	return sd, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	tok, _ := p.expect(lexer.TokReturn)
	if p.peek().Type == lexer.TokSemi {
		p.advance()
		return &ast.Return{Pos: ast.Pos(tok.Line)}, nil
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokSemi); err != nil {
		return nil, err
	}
	return &ast.Return{Pos: ast.Pos(tok.Line), X: x}, nil
}

// ---- expressions, by descending precedence ----

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseLogicLow() }

func (p *Parser) parseLogicLow() (ast.Expr, error) {
	return p.parseBinaryLevel(LevelLogicLow, p.parseLogicHigh, lexer.TokOrOr, lexer.TokXorXor)
}

func (p *Parser) parseLogicHigh() (ast.Expr, error) {
	return p.parseBinaryLevel(LevelLogicHigh, p.parseRelative, lexer.TokAndAnd)
}

func (p *Parser) parseRelative() (ast.Expr, error) {
	return p.parseBinaryLevel(LevelRelative, p.parseShift,
		lexer.TokEq, lexer.TokNeq, lexer.TokLt, lexer.TokLe, lexer.TokGt, lexer.TokGe)
}

func (p *Parser) parseShift() (ast.Expr, error) {
	return p.parseBinaryLevel(LevelShift, p.parseAddSub, lexer.TokShl, lexer.TokShr)
}

func (p *Parser) parseAddSub() (ast.Expr, error) {
	return p.parseBinaryLevel(LevelAddSub, p.parseMulDiv, lexer.TokPlus, lexer.TokMinus)
}

func (p *Parser) parseMulDiv() (ast.Expr, error) {
	return p.parseBinaryLevel(LevelMulDiv, p.parseUnary, lexer.TokStar, lexer.TokSlash, lexer.TokPercent)
}

// parseBinaryLevel implements one left-associative precedence level,
// shared by every binary operator tier; each node it builds records its
// tier in ast.Binary.Level.
func (p *Parser) parseBinaryLevel(level int, next func() (ast.Expr, error), ops ...lexer.TokenType) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		matched := false
		for _, op := range ops {
			if tok.Type == op {
				matched = true
				break
			}
		}
		if !matched {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Pos: ast.Pos(tok.Line), Op: tok.Value, Level: level, L: left, R: right}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokMinus, lexer.TokTilde, lexer.TokBang, lexer.TokIncr, lexer.TokDecr:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Pos: ast.Pos(tok.Line), Op: tok.Value, X: x}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.TokLBracket:
			p.advance()
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokRBracket); err != nil {
				return nil, err
			}
			x = &ast.Index{Pos: ast.Pos(tok.Line), X: x, Key: key}
		case lexer.TokDot:
			p.advance()
			name, err := p.expect(lexer.TokIdent)
			if err != nil {
				return nil, err
			}
			x = &ast.Member{Pos: ast.Pos(tok.Line), X: x, Name: name.Value}
		case lexer.TokLParen:
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			x = &ast.Call{Pos: ast.Pos(tok.Line), Callee: x, Args: args}
		case lexer.TokIncr, lexer.TokDecr:
			p.advance()
			x = &ast.PostfixIncDec{Pos: ast.Pos(tok.Line), Op: tok.Value, X: x}
		default:
			return x, nil
		}
	}
}

func (p *Parser) parseArgList() ([]ast.Expr, error) {
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.peek().Type != lexer.TokRParen {
		if len(args) > 0 {
			if _, err := p.expect(lexer.TokComma); err != nil {
				return nil, err
			}
		}
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	p.advance()
	return args, nil
}

func (p *Parser) parseFactor() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid int literal %q", tok.Line, tok.Value)
		}
		return &ast.IntLit{Pos: ast.Pos(tok.Line), V: v}, nil
	case lexer.TokReal:
		p.advance()
		v, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid real literal %q", tok.Line, tok.Value)
		}
		return &ast.RealLit{Pos: ast.Pos(tok.Line), V: v}, nil
	case lexer.TokString:
		p.advance()
		return &ast.StringLit{Pos: ast.Pos(tok.Line), V: tok.Value}, nil
	case lexer.TokTrue:
		p.advance()
		return &ast.BoolLit{Pos: ast.Pos(tok.Line), V: true}, nil
	case lexer.TokFalse:
		p.advance()
		return &ast.BoolLit{Pos: ast.Pos(tok.Line), V: false}, nil
	case lexer.TokNil:
		p.advance()
		return &ast.NilLit{Pos: ast.Pos(tok.Line)}, nil
	case lexer.TokIdent:
		p.advance()
		return &ast.Ident{Pos: ast.Pos(tok.Line), Name: tok.Value}, nil
	case lexer.TokLParen:
		p.advance()
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokRParen); err != nil {
			return nil, err
		}
		return x, nil
	case lexer.TokLBracket:
		return p.parseArrayLit()
	case lexer.TokDot:
		// A bare `.name` refers to a member of the object the
		// enclosing set function was invoked on (there is no `this`
		// keyword; the leading dot itself is the receiver).
		p.advance()
		name, err := p.expect(lexer.TokIdent)
		if err != nil {
			return nil, err
		}
		return &ast.Member{Pos: ast.Pos(tok.Line), Name: name.Value}, nil
	default:
		return nil, fmt.Errorf("line %d: unexpected token %s %q", tok.Line, lexer.TokenNames[tok.Type], tok.Value)
	}
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	tok, _ := p.expect(lexer.TokLBracket)
	lit := &ast.ArrayLit{Pos: ast.Pos(tok.Line)}
	for p.peek().Type != lexer.TokRBracket {
		if len(lit.Elems) > 0 {
			if _, err := p.expect(lexer.TokComma); err != nil {
				return nil, err
			}
		}
		first, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().Type == lexer.TokColon {
			p.advance()
			val, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			lit.Elems = append(lit.Elems, &ast.ArrayElem{Key: first, Val: val})
		} else {
			lit.Elems = append(lit.Elems, &ast.ArrayElem{Val: first})
		}
	}
	p.advance()
	return lit, nil
}
