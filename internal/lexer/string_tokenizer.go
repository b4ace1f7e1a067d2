package lexer

import (
	"strings"
	"wisp/internal/token"
)

type StringTokenizer struct {
	lexer *Lexer
}

func NewStringTokenizer(lexer *Lexer) *StringTokenizer {
	return &StringTokenizer{lexer: lexer}
}

func (s *StringTokenizer) NextToken() token.Token {
	var result strings.Builder
	startPosition := s.lexer.position

	// the opening `"` has already been read
	for {
		if s.lexer.ch == 0 {
			s.lexer.switchMode(NewGeneralTokenizer(s.lexer))
			return s.lexer.illegal(ErrUnterminatedString, startPosition)
		}

		if s.lexer.ch == '"' {
			s.lexer.readChar() // Consume the closing `"`
			break
		}

		if s.lexer.ch == '\\' {
			s.lexer.readChar() // Move to the escaped character
			switch s.lexer.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case 'r':
				result.WriteRune('\r')
			case 'b':
				result.WriteRune('\b')
			case '\\':
				result.WriteRune('\\')
			case '"':
				result.WriteRune('"')
			case '\'':
				result.WriteRune('\'')
			default:
				s.lexer.switchMode(NewGeneralTokenizer(s.lexer))
				return s.lexer.illegal(ErrUnknownEscape, s.lexer.position)
			}
		} else {
			result.WriteRune(s.lexer.ch)
		}

		s.lexer.readChar()
	}

	// Fall back to the general tokenizer mode after the string ends
	s.lexer.switchMode(NewGeneralTokenizer(s.lexer))

	return token.Token{
		Type:     token.STRING,
		Literal:  result.String(),
		Position: startPosition,
	}
}
