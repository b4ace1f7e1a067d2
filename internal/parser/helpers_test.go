package parser

import "wisp/internal/lexer"

func lexerFor(input string) *lexer.Lexer {
	return lexer.New(input)
}
