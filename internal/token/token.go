package token

type TokenType string

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Identifiers + literals
	SYMBOL = "SYMBOL" // add, foo-bar, empty?
	NUMBER = "NUMBER" // 1343456
	REAL   = "REAL"   // 3.14
	STRING = "STRING" // "foobar"

	// Operator symbols
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	EQ       = "="
	NOT_EQ   = "/="
	LT       = "<"
	LT_EQ    = "<="
	GT       = ">"
	GT_EQ    = ">="

	// Delimiters
	TICK   = "'"
	LPAREN = "("
	RPAREN = ")"

	// Special form heads
	FUNCTION = "FUNCTION"
	IF       = "IF"
	NIL      = "NIL"
)

type Token struct {
	Type     TokenType
	Literal  string
	Position int // the src index of the token
}

var keywords = map[string]TokenType{
	"fn":  FUNCTION,
	"if":  IF,
	"nil": NIL,
}

func LookupSymbol(sym string) TokenType {
	if tok, ok := keywords[sym]; ok {
		return tok
	}
	return SYMBOL
}

// IsOperator reports whether t is one of the operator symbols, which the parser
// treats exactly like ordinary symbols.
func IsOperator(t TokenType) bool {
	switch t {
	case PLUS, MINUS, ASTERISK, SLASH, EQ, NOT_EQ, LT, LT_EQ, GT, GT_EQ:
		return true
	}
	return false
}
