package lexer

import (
	"errors"
	"unicode"
	"unicode/utf8"
	"wisp/internal/token"
)

var (
	ErrUnterminatedString = errors.New("unterminated string")
	ErrUnknownEscape      = errors.New("unknown escape character")
	ErrMultipleDecimals   = errors.New("multiple decimal points in number literal")
)

type Lexer struct {
	input        string
	position     int       // current byte position in input (points to start of current rune)
	readPosition int       // next byte position in input (start of next rune)
	ch           rune      // current rune under examination; 0 means EOF
	currentMode  Tokenizer // Current tokenizer strategy

	err error // last lexing error, reported alongside an ILLEGAL token
}

type Tokenizer interface {
	NextToken() token.Token
}

func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.switchMode(NewGeneralTokenizer(l))
	l.readChar()
	return l
}

func (l *Lexer) switchMode(mode Tokenizer) {
	l.currentMode = mode
}

func (l *Lexer) NextToken() token.Token {
	return l.currentMode.NextToken()
}

// Err returns the reason behind the most recent ILLEGAL token, if any.
func (l *Lexer) Err() error {
	return l.err
}

// Input returns the source being tokenized.
func (l *Lexer) Input() string {
	return l.input
}

// Tokenize drains the lexer, the trailing EOF token included.
func Tokenize(input string) []token.Token {
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func (l *Lexer) handleCompoundToken(
	t token.TokenType,
	ch1 rune,
	t1 token.TokenType,
) token.Token {
	startPosition := l.position
	if l.peekChar() == ch1 {
		first := l.ch
		l.readChar()
		literal := string(first) + string(l.ch)
		return token.Token{Type: t1, Literal: literal, Position: startPosition}
	}
	return newToken(t, l.ch, startPosition)
}

func (l *Lexer) skipWhitespace() {
	for {
		switch {
		case l.ch == ';':
			l.skipToLineEnd()
		case l.ch != 0 && unicode.IsSpace(l.ch):
			l.readChar()
		default:
			return
		}
	}
}

func (l *Lexer) skipToLineEnd() {
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
}

// readChar advances by one UTF-8 rune, updating byte positions
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += size
}

// peekChar returns the next rune without advancing; returns 0 at EOF
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// readSymbol returns the substring (bytes) covering the symbol runes
func (l *Lexer) readSymbol() string {
	start := l.position
	for isSymbolRune(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber reads digits with at most one decimal point. A second point is an error.
func (l *Lexer) readNumber() (string, bool, error) {
	start := l.position
	isReal := false
	for isDigit(l.ch) || l.ch == '.' {
		if l.ch == '.' {
			if isReal {
				return "", false, ErrMultipleDecimals
			}
			if !isDigit(l.peekChar()) {
				break
			}
			isReal = true
		}
		l.readChar()
	}
	return l.input[start:l.position], isReal, nil
}

func isLetter(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isSymbolRune(ch rune) bool {
	return isLetter(ch) || isDigit(ch) || ch == '-' || ch == '?' || ch == '!'
}

func newToken(tokenType token.TokenType, ch rune, position int) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch), Position: position}
}

func (l *Lexer) illegal(err error, position int) token.Token {
	l.err = err
	return token.Token{Type: token.ILLEGAL, Literal: err.Error(), Position: position}
}
