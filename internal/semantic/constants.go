package semantic

import (
	"strconv"
	"strings"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/token"
)

// constantVariables are the variable names that read as compile-time
// constants.
var constantVariables = map[string]any{
	"true":  true,
	"false": false,
	"null":  nil,
}

// IsConstantExpression reports whether expr has a value known at compile
// time: literals, $true/$false/$null, negated numeric constants, array
// literals of constants, and script-block literals (constant as values).
func IsConstantExpression(expr ast.Expression) bool {
	_, ok := ConstantValueOf(expr)
	if ok {
		return true
	}
	_, ok = expr.(*ast.ScriptBlockExpression)
	return ok
}

// ConstantValueOf evaluates a compile-time constant expression.
// The second result is false when the expression is not constant.
func ConstantValueOf(expr ast.Expression) (any, bool) {
	switch e := expr.(type) {
	case *ast.ConstantExpression:
		return e.Value, true
	case *ast.StringConstantExpression:
		return e.Value, true
	case *ast.VariableExpression:
		if v, ok := constantVariables[strings.ToLower(e.Path.Name)]; ok && e.Path.IsUnqualified() {
			return v, true
		}
		return nil, false
	case *ast.ParenExpression:
		if p, ok := e.Pipeline.(*ast.PipelineAst); ok {
			if inner := p.PureExpression(); inner != nil {
				return ConstantValueOf(inner)
			}
		}
		return nil, false
	case *ast.UnaryExpression:
		if e.Operator != token.Minus {
			return nil, false
		}
		v, ok := ConstantValueOf(e.Child)
		if !ok {
			return nil, false
		}
		switch n := v.(type) {
		case int64:
			return -n, true
		case int:
			return -n, true
		case float64:
			return -n, true
		}
		return nil, false
	case *ast.ArrayLiteral:
		out := make([]any, len(e.Elements))
		for i, el := range e.Elements {
			v, ok := ConstantValueOf(el)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	default:
		return nil, false
	}
}

// ConstantKeyString renders a constant hashtable key for duplicate checks;
// ok is false for computed keys.
func ConstantKeyString(expr ast.Expression) (string, bool) {
	v, ok := ConstantValueOf(expr)
	if !ok {
		return "", false
	}
	switch k := v.(type) {
	case string:
		return k, true
	case int64:
		return strconv.FormatInt(k, 10), true
	case int:
		return strconv.Itoa(k), true
	case bool:
		if k {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}
