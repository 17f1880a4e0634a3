package ast

import "github.com/cwbudde/go-psh/internal/source"

// Test helpers for constructing AST nodes concisely. Production callers go
// through the full constructors; these shorthands exist for tests and the
// embedded sample programs, which build trees by hand in lieu of a parser.

// T returns a synthetic extent carrying the given text.
func T(text string) source.Extent { return source.Synthetic(text) }

// Const builds a constant expression with a synthetic extent.
func Const(v any) *ConstantExpression {
	return NewConstantExpression(source.Synthetic(""), v)
}

// Text builds a double-quoted string constant with a synthetic extent.
func Text(s string) *StringConstantExpression {
	return NewStringConstantExpression(source.Synthetic(`"`+s+`"`), s, DoubleQuoted)
}

// Bare builds a bare-word string constant with a synthetic extent.
func Bare(s string) *StringConstantExpression {
	return NewStringConstantExpression(source.Synthetic(s), s, BareWord)
}

// Var builds an unqualified variable reference with a synthetic extent.
func Var(name string) *VariableExpression {
	return NewVariableExpression(source.Synthetic("$"+name), NewVariablePath(name), false)
}

// Stmt wraps an expression as its pipeline statement form.
func Stmt(expr Expression) *PipelineAst {
	return NewExpressionStatement(expr.Extent(), expr)
}

// Block builds a statement block with no traps.
func Block(statements ...Statement) *StatementBlock {
	return NewStatementBlock(source.Synthetic(""), statements, nil)
}

// Script builds a script block whose statements form the implicit end block.
func Script(statements ...Statement) *ScriptBlockAst {
	return NewScriptBlockFromStatements(source.Synthetic(""), statements, nil)
}
