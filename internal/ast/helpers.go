package ast

import "github.com/cwbudde/go-psh/internal/source"

// NewExpressionStatement wraps an expression as a one-element pipeline, the
// form the parser produces for a bare expression statement.
func NewExpressionStatement(extent source.Extent, expr Expression) *PipelineAst {
	element := NewCommandExpressionAst(extent, expr, nil)
	return NewPipelineAst(extent, []PipelineElement{element})
}

// NewScriptBlockFromStatements builds a script block whose statements live
// in an implicit (unnamed) end block, the shape of a script with no explicit
// begin/process/end keywords.
func NewScriptBlockFromStatements(extent source.Extent, statements []Statement, traps []*TrapStatement) *ScriptBlockAst {
	block := NewStatementBlock(extent, statements, traps)
	end := NewNamedBlock(extent, EndBlock, block, true)
	return NewScriptBlockAst(extent, nil, nil, nil, nil, end)
}
