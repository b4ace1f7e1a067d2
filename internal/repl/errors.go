package repl

import (
	"strings"
	"wisp/internal/lexer"
	"wisp/internal/parser"
)

type ParseError struct {
	Messages []string
	Context  string
}

func (e *ParseError) Error() string {
	var out strings.Builder
	out.WriteString("parser errors:\n")
	for _, msg := range e.Messages {
		out.WriteString("\t" + msg + "\n")
	}
	if e.Context != "" {
		out.WriteString(e.Context)
	}
	return strings.TrimRight(out.String(), "\n")
}

func parseError(p *parser.Parser) error {
	return &ParseError{Messages: p.Errors(), Context: p.ErrorContext()}
}

func lexerFor(src string) *lexer.Lexer {
	return lexer.New(src)
}
