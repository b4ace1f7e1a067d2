package ast

import (
	"bytes"
	"strconv"
	"strings"
	"wisp/internal/token"
)

// The base Node interface. Nodes are immutable once the parser hands them over;
// evaluation reads them but never rewrites or releases them, so any subtree may
// be evaluated repeatedly (closure bodies are).
type Node interface {
	TokenLiteral() string
	String() string
	// IsQuoted reports whether the node was written under a quote tick and must
	// be rendered as literal data instead of being executed.
	IsQuoted() bool
	// Clone returns a deep copy of the node.
	Clone() Node
}

// Quote is embedded by every node to carry the quote flag set by the parser.
type Quote struct {
	Quoted bool
}

func (q Quote) IsQuoted() bool { return q.Quoted }

func quotePrefix(q Quote) string {
	if q.Quoted {
		return "'"
	}
	return ""
}

// Program is the top-level sequence of forms; closure bodies are wrapped in one too.
type Program struct {
	Quote
	Forms []Node
}

func (p *Program) TokenLiteral() string {
	if len(p.Forms) > 0 {
		return p.Forms[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	return "(" + joinNodes(p.Forms) + ")"
}

func (p *Program) Clone() Node {
	return &Program{Quote: p.Quote, Forms: cloneNodes(p.Forms)}
}

// List is either a call form or, when quoted, list data.
type List struct {
	Quote
	Token    token.Token // the '(' token
	Elements []Node
}

func (l *List) TokenLiteral() string { return l.Token.Literal }
func (l *List) String() string {
	return quotePrefix(l.Quote) + "(" + joinNodes(l.Elements) + ")"
}
func (l *List) Clone() Node {
	return &List{Quote: l.Quote, Token: l.Token, Elements: cloneNodes(l.Elements)}
}

type FunctionLiteral struct {
	Quote
	Token      token.Token // the 'fn' token
	Parameters *List
	Body       *Program
}

func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FunctionLiteral) String() string {
	var out bytes.Buffer
	out.WriteString(quotePrefix(fl.Quote))
	out.WriteString("(fn ")
	out.WriteString(fl.Parameters.String())
	if len(fl.Body.Forms) > 0 {
		out.WriteString(" ")
		out.WriteString(joinNodes(fl.Body.Forms))
	}
	out.WriteString(")")
	return out.String()
}
func (fl *FunctionLiteral) Clone() Node {
	return &FunctionLiteral{
		Quote:      fl.Quote,
		Token:      fl.Token,
		Parameters: fl.Parameters.Clone().(*List),
		Body:       fl.Body.Clone().(*Program),
	}
}

// ParameterNames extracts the parameter symbols in declaration order.
func (fl *FunctionLiteral) ParameterNames() []string {
	names := make([]string, 0, len(fl.Parameters.Elements))
	for _, p := range fl.Parameters.Elements {
		if sym, ok := p.(*Symbol); ok {
			names = append(names, sym.Value)
		}
	}
	return names
}

type Conditional struct {
	Quote
	Token       token.Token // the 'if' token
	Condition   Node
	Consequence Node
	Alternative Node // nil when the else branch is omitted
}

func (c *Conditional) TokenLiteral() string { return c.Token.Literal }
func (c *Conditional) String() string {
	var out bytes.Buffer
	out.WriteString(quotePrefix(c.Quote))
	out.WriteString("(if ")
	out.WriteString(c.Condition.String())
	out.WriteString(" ")
	out.WriteString(c.Consequence.String())
	if c.Alternative != nil {
		out.WriteString(" ")
		out.WriteString(c.Alternative.String())
	}
	out.WriteString(")")
	return out.String()
}
func (c *Conditional) Clone() Node {
	clone := &Conditional{
		Quote:       c.Quote,
		Token:       c.Token,
		Condition:   c.Condition.Clone(),
		Consequence: c.Consequence.Clone(),
	}
	if c.Alternative != nil {
		clone.Alternative = c.Alternative.Clone()
	}
	return clone
}

// NumberLiteral holds the 32-bit payload produced by the parser; evaluation widens it.
type NumberLiteral struct {
	Quote
	Token token.Token
	Value int32
}

func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string {
	return quotePrefix(nl.Quote) + strconv.FormatInt(int64(nl.Value), 10)
}
func (nl *NumberLiteral) Clone() Node { c := *nl; return &c }

type RealLiteral struct {
	Quote
	Token token.Token
	Value float64
}

func (rl *RealLiteral) TokenLiteral() string { return rl.Token.Literal }
func (rl *RealLiteral) String() string {
	return quotePrefix(rl.Quote) + strconv.FormatFloat(rl.Value, 'f', -1, 64)
}
func (rl *RealLiteral) Clone() Node { c := *rl; return &c }

type Symbol struct {
	Quote
	Token token.Token
	Value string
}

func (s *Symbol) TokenLiteral() string { return s.Token.Literal }
func (s *Symbol) String() string       { return quotePrefix(s.Quote) + s.Value }
func (s *Symbol) Clone() Node          { c := *s; return &c }

type StringLiteral struct {
	Quote
	Token token.Token
	Value string
}

func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string {
	return quotePrefix(sl.Quote) + strconv.Quote(sl.Value)
}
func (sl *StringLiteral) Clone() Node { c := *sl; return &c }

type Nil struct {
	Quote
	Token token.Token
}

func (n *Nil) TokenLiteral() string { return n.Token.Literal }
func (n *Nil) String() string       { return quotePrefix(n.Quote) + "nil" }
func (n *Nil) Clone() Node          { c := *n; return &c }

func joinNodes(nodes []Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, n.String())
	}
	return strings.Join(parts, " ")
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

// MarkQuoted is used by the parser when a form follows a quote tick.
func (q *Quote) MarkQuoted() { q.Quoted = true }
