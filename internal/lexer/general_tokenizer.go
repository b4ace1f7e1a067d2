package lexer

import (
	"fmt"
	"wisp/internal/token"
)

type GeneralTokenizer struct {
	lexer *Lexer
}

func NewGeneralTokenizer(lexer *Lexer) *GeneralTokenizer {
	return &GeneralTokenizer{lexer: lexer}
}

func (g *GeneralTokenizer) NextToken() token.Token {
	var tok token.Token

	g.lexer.skipWhitespace()

	startPosition := g.lexer.position

	switch g.lexer.ch {
	case '+':
		tok = newToken(token.PLUS, g.lexer.ch, startPosition)
	case '-':
		if isDigit(g.lexer.peekChar()) {
			// negative literal: -5 reads as a single number token
			g.lexer.readChar()
			return g.number(startPosition)
		}
		tok = newToken(token.MINUS, g.lexer.ch, startPosition)
	case '*':
		tok = newToken(token.ASTERISK, g.lexer.ch, startPosition)
	case '/':
		tok = g.lexer.handleCompoundToken(token.SLASH, '=', token.NOT_EQ)
	case '=':
		tok = newToken(token.EQ, g.lexer.ch, startPosition)
	case '<':
		tok = g.lexer.handleCompoundToken(token.LT, '=', token.LT_EQ)
	case '>':
		tok = g.lexer.handleCompoundToken(token.GT, '=', token.GT_EQ)
	case '\'':
		tok = newToken(token.TICK, g.lexer.ch, startPosition)
	case '(':
		tok = newToken(token.LPAREN, g.lexer.ch, startPosition)
	case ')':
		tok = newToken(token.RPAREN, g.lexer.ch, startPosition)
	case '"':
		g.lexer.readChar() // consume the opening "
		g.lexer.switchMode(NewStringTokenizer(g.lexer))
		return g.lexer.currentMode.NextToken()
	case 0:
		tok.Literal = ""
		tok.Type = token.EOF
		tok.Position = startPosition
	default:
		if isLetter(g.lexer.ch) {
			tok.Literal = g.lexer.readSymbol()
			tok.Type = token.LookupSymbol(tok.Literal)
			tok.Position = startPosition
			return tok
		} else if isDigit(g.lexer.ch) {
			return g.number(startPosition)
		}
		tok = g.lexer.illegal(fmt.Errorf("unexpected character %q", g.lexer.ch), startPosition)
	}

	g.lexer.readChar()
	return tok
}

func (g *GeneralTokenizer) number(startPosition int) token.Token {
	if _, _, err := g.lexer.readNumber(); err != nil {
		return g.lexer.illegal(err, startPosition)
	}
	literal := g.lexer.input[startPosition:g.lexer.position]
	typ := token.TokenType(token.NUMBER)
	for _, r := range literal {
		if r == '.' {
			typ = token.REAL
			break
		}
	}
	return token.Token{Type: typ, Literal: literal, Position: startPosition}
}
