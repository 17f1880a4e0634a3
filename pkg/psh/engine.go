// Package psh is the public facade of the engine core: semantic checking,
// compilation, and invocation of script-block ASTs produced by a parser.
package psh

import (
	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/compiler"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/semantic"
)

// Engine checks, compiles and runs script blocks.
type Engine struct {
	optimize bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithOptimization toggles tuple-slot allocation for user variables.
// It is on by default.
func WithOptimization(enabled bool) Option {
	return func(e *Engine) { e.optimize = enabled }
}

// New creates an engine.
func New(options ...Option) *Engine {
	e := &Engine{optimize: true}
	for _, option := range options {
		option(e)
	}
	return e
}

// Check runs the semantic checker over a script block and returns the
// diagnostic bag. Checking continues past errors so one pass surfaces all
// of them.
func (e *Engine) Check(scriptBlock *ast.ScriptBlockAst) *errors.Bag {
	bag := errors.NewBag()
	semantic.Check(scriptBlock, bag)
	return bag
}

// Compile checks and lowers a script block. Diagnostics, if any, come back
// as the error; the compiled program is returned otherwise.
func (e *Engine) Compile(scriptBlock *ast.ScriptBlockAst) (*compiler.CompiledScriptBlock, error) {
	if !scriptBlock.PostParseChecksPerformed {
		bag := e.Check(scriptBlock)
		if bag.HasErrors() {
			return nil, &CheckError{Bag: bag}
		}
	}
	return compiler.Compile(scriptBlock, compiler.Options{Optimize: e.optimize})
}

// Invoke runs a compiled script block on a fresh default execution context
// and returns its output.
func (e *Engine) Invoke(compiled *compiler.CompiledScriptBlock, input, args []runtime.Value) ([]runtime.Value, error) {
	return e.InvokeWithContext(runtime.NewExecutionContext(), compiled, input, args)
}

// InvokeWithContext runs a compiled script block on a caller-supplied
// execution context.
func (e *Engine) InvokeWithContext(ctx runtime.ExecutionContext, compiled *compiler.CompiledScriptBlock, input, args []runtime.Value) ([]runtime.Value, error) {
	return compiled.InvokePipeline(ctx, nil, input, args)
}

// Run checks, compiles and invokes a script block in one call.
func (e *Engine) Run(scriptBlock *ast.ScriptBlockAst, input, args []runtime.Value) ([]runtime.Value, error) {
	compiled, err := e.Compile(scriptBlock)
	if err != nil {
		return nil, err
	}
	return e.Invoke(compiled, input, args)
}

// CheckError carries the diagnostic bag of a failed check.
type CheckError struct {
	Bag *errors.Bag
}

// Error formats every diagnostic in the bag.
func (e *CheckError) Error() string {
	return e.Bag.Format("", false)
}
