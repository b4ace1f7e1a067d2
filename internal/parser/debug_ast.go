package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"wisp/internal/ast"
)

// WalkAST recursively traverses an AST and serializes it into a map structure for JSON output.
func WalkAST(node ast.Node) interface{} {
	switch n := node.(type) {
	case *ast.Program:
		forms := make([]interface{}, len(n.Forms))
		for i, f := range n.Forms {
			forms[i] = WalkAST(f)
		}
		return map[string]interface{}{
			"0.type":  "Program",
			"1.forms": forms,
		}

	case *ast.List:
		elements := make([]interface{}, len(n.Elements))
		for i, e := range n.Elements {
			elements[i] = WalkAST(e)
		}
		return map[string]interface{}{
			"0.type":     "List",
			"1.position": n.Token.Position,
			"2.quoted":   n.IsQuoted(),
			"3.elements": elements,
		}

	case *ast.FunctionLiteral:
		return map[string]interface{}{
			"0.type":       "FunctionLiteral",
			"1.position":   n.Token.Position,
			"2.quoted":     n.IsQuoted(),
			"3.parameters": n.ParameterNames(),
			"4.body":       WalkAST(n.Body),
		}

	case *ast.Conditional:
		m := map[string]interface{}{
			"0.type":        "Conditional",
			"1.position":    n.Token.Position,
			"2.quoted":      n.IsQuoted(),
			"3.condition":   WalkAST(n.Condition),
			"4.consequence": WalkAST(n.Consequence),
		}
		if n.Alternative != nil {
			m["5.alternative"] = WalkAST(n.Alternative)
		}
		return m

	case *ast.NumberLiteral:
		return map[string]interface{}{
			"0.type":     "NumberLiteral",
			"1.position": n.Token.Position,
			"2.quoted":   n.IsQuoted(),
			"3.value":    n.Value,
		}

	case *ast.RealLiteral:
		return map[string]interface{}{
			"0.type":     "RealLiteral",
			"1.position": n.Token.Position,
			"2.quoted":   n.IsQuoted(),
			"3.value":    n.Value,
		}

	case *ast.Symbol:
		return map[string]interface{}{
			"0.type":     "Symbol",
			"1.position": n.Token.Position,
			"2.quoted":   n.IsQuoted(),
			"3.value":    n.Value,
		}

	case *ast.StringLiteral:
		return map[string]interface{}{
			"0.type":     "StringLiteral",
			"1.position": n.Token.Position,
			"2.quoted":   n.IsQuoted(),
			"3.value":    n.Value,
		}

	case *ast.Nil:
		return map[string]interface{}{
			"0.type":     "Nil",
			"1.position": n.Token.Position,
			"2.quoted":   n.IsQuoted(),
		}

	default:
		return map[string]interface{}{
			"0.type": "Unknown",
			"1.node": fmt.Sprintf("%T", n),
		}
	}
}

func RenderASTAsJSON(node ast.Node) (string, error) {
	astMap := WalkAST(node)

	buf := new(bytes.Buffer)
	encoder := json.NewEncoder(buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(astMap); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.String(), nil
}
