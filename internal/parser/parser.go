package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"wisp/internal/ast"
	"wisp/internal/lexer"
	"wisp/internal/token"
	"wisp/internal/util"
)

type Parser struct {
	l      *lexer.Lexer
	src    string // source code here
	errors []string
	// errorPositions holds the source offset of each entry in errors
	errorPositions []int

	// incomplete is set when the input ended inside an open form, which lets an
	// interactive front end keep reading instead of reporting an error.
	incomplete bool

	curToken  token.Token
	peekToken token.Token
	// curErr and peekErr hold the lexer's reason for an ILLEGAL token
	curErr  error
	peekErr error
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		src:    l.Input(),
		errors: []string{},
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse is a convenience wrapper lexing and parsing src in one go.
func Parse(src string) (*ast.Program, []string) {
	p := New(lexer.New(src))
	program := p.ParseProgram()
	return program, p.Errors()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.curErr = p.peekErr
	p.peekToken = p.l.NextToken()
	p.peekErr = nil
	if p.peekToken.Type == token.ILLEGAL {
		p.peekErr = p.l.Err()
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) addError(message string, args ...interface{}) {
	line, col := util.GetLineAndColumn(p.src, p.curToken.Position)
	m := fmt.Sprintf(message, args...)
	msg := fmt.Sprintf("[%3d:%2d] %s", line, col, m)
	p.errors = append(p.errors, msg)
	p.errorPositions = append(p.errorPositions, p.curToken.Position)
}

func (p *Parser) Errors() []string {
	return p.errors
}

// ErrorContext renders the source lines leading up to the first error with a
// caret under the offending column. It returns "" when parsing succeeded.
func (p *Parser) ErrorContext() string {
	if len(p.errorPositions) == 0 {
		return ""
	}
	pos := p.errorPositions[0]
	line, col := util.GetLineAndColumn(p.src, pos)
	return util.GetContextLines(p.src, line, col)
}

// Incomplete reports whether parsing stopped because the input ended inside a form.
func (p *Parser) Incomplete() bool {
	return p.incomplete
}

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Forms: []ast.Node{}}

	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.RPAREN) {
			p.addError("unbalanced ')'")
			p.nextToken()
			continue
		}
		form := p.parseForm()
		if form != nil {
			program.Forms = append(program.Forms, form)
		}
		p.nextToken()
	}

	return program
}

// parseForm parses the form starting at curToken and leaves curToken on its last token.
func (p *Parser) parseForm() ast.Node {
	switch p.curToken.Type {
	case token.TICK:
		return p.parseQuoted()
	case token.LPAREN:
		switch p.peekToken.Type {
		case token.FUNCTION:
			return p.parseFunctionLiteral()
		case token.IF:
			return p.parseConditional()
		}
		return p.parseList()
	default:
		return p.parseAtom()
	}
}

func (p *Parser) parseQuoted() ast.Node {
	if p.peekTokenIs(token.EOF) {
		p.incomplete = true
		p.addError("expected a form after quote")
		return nil
	}
	p.nextToken()
	form := p.parseForm()
	if form == nil {
		return nil
	}
	if q, ok := form.(interface{ MarkQuoted() }); ok {
		q.MarkQuoted()
	}
	return form
}

func (p *Parser) parseAtom() ast.Node {
	switch p.curToken.Type {
	case token.NUMBER:
		return p.parseNumberLiteral()
	case token.REAL:
		return p.parseRealLiteral()
	case token.STRING:
		return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
	case token.NIL:
		return &ast.Nil{Token: p.curToken}
	case token.SYMBOL, token.FUNCTION, token.IF:
		return &ast.Symbol{Token: p.curToken, Value: p.curToken.Literal}
	case token.ILLEGAL:
		if errors.Is(p.curErr, lexer.ErrUnterminatedString) {
			p.incomplete = true
		}
		if p.curErr != nil {
			p.addError("illegal token: %v", p.curErr)
		} else {
			p.addError("illegal token: %s", p.curToken.Literal)
		}
		return nil
	case token.RPAREN:
		p.addError("unexpected ')'")
		return nil
	default:
		if token.IsOperator(p.curToken.Type) {
			return &ast.Symbol{Token: p.curToken, Value: p.curToken.Literal}
		}
		p.addError("unexpected token %s", p.curToken.Type)
		return nil
	}
}

func (p *Parser) parseNumberLiteral() ast.Node {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil || value > math.MaxInt32 || value < math.MinInt32 {
		p.addError("could not parse %q as a 32-bit integer", p.curToken.Literal)
		return nil
	}
	return &ast.NumberLiteral{Token: p.curToken, Value: int32(value)}
}

func (p *Parser) parseRealLiteral() ast.Node {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError("could not parse %q as a real number", p.curToken.Literal)
		return nil
	}
	return &ast.RealLiteral{Token: p.curToken, Value: value}
}

// parseElements consumes forms up to the closing ')' and leaves curToken on it.
func (p *Parser) parseElements() ([]ast.Node, bool) {
	elements := []ast.Node{}
	for !p.peekTokenIs(token.RPAREN) {
		if p.peekTokenIs(token.EOF) {
			p.nextToken()
			p.incomplete = true
			p.addError("unbalanced parens: expected ')' before end of input")
			return nil, false
		}
		p.nextToken()
		form := p.parseForm()
		if form == nil {
			if p.incomplete {
				return nil, false
			}
			continue
		}
		elements = append(elements, form)
	}
	p.nextToken()
	return elements, true
}

func (p *Parser) parseList() ast.Node {
	list := &ast.List{Token: p.curToken}
	elements, ok := p.parseElements()
	if !ok {
		return nil
	}
	list.Elements = elements
	return list
}

func (p *Parser) parseFunctionLiteral() ast.Node {
	p.nextToken() // the 'fn' token
	lit := &ast.FunctionLiteral{Token: p.curToken}

	if !p.peekTokenIs(token.LPAREN) {
		p.nextToken()
		p.addError("expected parameter list after 'fn', got %s", p.curToken.Type)
		return nil
	}
	p.nextToken()
	params, ok := p.parseList().(*ast.List)
	if !ok {
		return nil
	}
	for _, param := range params.Elements {
		if _, isSym := param.(*ast.Symbol); !isSym || param.IsQuoted() {
			p.addError("fn parameters must be symbols, got %s", param.String())
			return nil
		}
	}
	lit.Parameters = params

	body, ok := p.parseElements()
	if !ok {
		return nil
	}
	lit.Body = &ast.Program{Forms: body}
	return lit
}

func (p *Parser) parseConditional() ast.Node {
	p.nextToken() // the 'if' token
	cond := &ast.Conditional{Token: p.curToken}

	parts, ok := p.parseElements()
	if !ok {
		return nil
	}
	if len(parts) < 2 || len(parts) > 3 {
		p.addError("if expects a condition, a then branch and an optional else branch, got %d forms", len(parts))
		return nil
	}
	cond.Condition = parts[0]
	cond.Consequence = parts[1]
	if len(parts) == 3 {
		cond.Alternative = parts[2]
	}
	return cond
}
