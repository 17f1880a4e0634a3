package compiler

import (
	"os"
	"sync"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
)

// ============================================================================
// Try / catch / finally
// ============================================================================

// catchClauseThunk is one lowered catch clause: its type names resolve
// lazily on first dispatch and cache in place.
type catchClauseThunk struct {
	typeNames []string
	catchAll  bool
	body      actionThunk

	resolveOnce sync.Once
	resolved    []*runtime.TypeRef
}

func (cc *catchClauseThunk) matches(re *errors.RuntimeError) bool {
	if cc.catchAll {
		return true
	}
	cc.resolveOnce.Do(func() {
		cc.resolved = make([]*runtime.TypeRef, 0, len(cc.typeNames))
		for _, name := range cc.typeNames {
			if ref, ok := runtime.LookupType(name); ok && ref.MatchesError != nil {
				cc.resolved = append(cc.resolved, ref)
			}
		}
	})
	for _, ref := range cc.resolved {
		if ref.MatchesError(re) {
			return true
		}
	}
	return false
}

// findMatchingHandler returns the index of the first clause catching the
// error, or -1.
func findMatchingHandler(clauses []*catchClauseThunk, re *errors.RuntimeError) int {
	for i, clause := range clauses {
		if clause.matches(re) {
			return i
		}
	}
	return -1
}

func (c *Compiler) compileTry(s *ast.TryStatement) (actionThunk, error) {
	body, err := c.compileStatementBlock(s.Body)
	if err != nil {
		return nil, err
	}

	clauses := make([]*catchClauseThunk, len(s.CatchClauses))
	for i, clause := range s.CatchClauses {
		clauseBody, err := c.compileStatementBlock(clause.Body)
		if err != nil {
			return nil, err
		}
		thunk := &catchClauseThunk{catchAll: clause.IsCatchAll(), body: clauseBody}
		for _, ct := range clause.CatchTypes {
			thunk.typeNames = append(thunk.typeNames, ct.TypeName.FullName())
		}
		clauses[i] = thunk
	}

	var finallyBody actionThunk
	if s.Finally != nil {
		finallyBody, err = c.compileStatementBlock(s.Finally)
		if err != nil {
			return nil, err
		}
	}

	return func(fc *runtime.FunctionContext) error {
		ctx := fc.Context

		// Exceptions raised in the body must reach this frame rather than
		// being swallowed at inner statement boundaries.
		savedPropagate := ctx.PropagateExceptionsToEnclosingStatementBlock()
		ctx.SetPropagateExceptionsToEnclosingStatementBlock(true)

		err := body(fc)

		ctx.SetPropagateExceptionsToEnclosingStatementBlock(savedPropagate)

		// Pipeline-stopped is never dispatched to user handlers; other flow
		// control passes through untouched.
		if err != nil && !runtime.IsFlowControl(err) {
			if re, ok := err.(*errors.RuntimeError); ok {
				if index := findMatchingHandler(clauses, re); index >= 0 {
					err = runCatchClause(fc, clauses[index], re)
				}
			}
		}

		if finallyBody != nil {
			savedStopping := ctx.SuspendStoppingPipeline()
			finallyErr := finallyBody(fc)
			ctx.RestoreStoppingPipeline(savedStopping)
			if finallyErr != nil {
				return finallyErr
			}
		}
		return err
	}, nil
}

// runCatchClause executes a catch body with the current-exception state and
// $_ saved and restored around it.
func runCatchClause(fc *runtime.FunctionContext, clause *catchClauseThunk, re *errors.RuntimeError) error {
	ctx := fc.Context

	savedException := ctx.CurrentExceptionBeingHandled()
	ctx.SetCurrentExceptionBeingHandled(re)
	savedUnder := fc.Locals.GetSlot(runtime.SlotUnderscore)
	fc.Locals.SetSlot(runtime.SlotUnderscore, runtime.NewErrorRecord(re))

	err := clause.body(fc)

	fc.Locals.SetSlot(runtime.SlotUnderscore, savedUnder)
	ctx.SetCurrentExceptionBeingHandled(savedException)

	if err == nil {
		ctx.SetQuestionMarkVariableValue(true)
	}
	return err
}

// ============================================================================
// Throw / return / exit
// ============================================================================

func (c *Compiler) compileThrow(s *ast.ThrowStatement) (actionThunk, error) {
	extent := s.Extent()
	if s.Pipeline == nil {
		return func(fc *runtime.FunctionContext) error {
			if current := fc.Context.CurrentExceptionBeingHandled(); current != nil {
				return current
			}
			return errors.NewRuntimeError(extent, errors.IDRethrowWithoutException,
				"a throw statement with no operand is only allowed inside a catch block")
		}, nil
	}
	value, err := c.compileStatementValue(s.Pipeline)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) error {
		v, err := value(fc)
		if err != nil {
			return err
		}
		return runtime.ConvertToException(v, extent)
	}, nil
}

func (c *Compiler) compileReturn(s *ast.ReturnStatement) (actionThunk, error) {
	if s.Pipeline == nil {
		return func(*runtime.FunctionContext) error {
			return &runtime.ReturnException{}
		}, nil
	}
	value, err := c.compileStatementValue(s.Pipeline)
	if err != nil {
		return nil, err
	}
	inTrap := c.trapDepth > 0
	return func(fc *runtime.FunctionContext) error {
		v, err := value(fc)
		if err != nil {
			return err
		}
		if inTrap {
			// A trap's return carries its value out to the enclosing
			// function, which writes it when unwinding.
			return &runtime.ReturnException{Value: v}
		}
		writeToPipe(fc, fc.OutputPipe, v)
		return &runtime.ReturnException{}
	}, nil
}

func (c *Compiler) compileExit(s *ast.ExitStatement) (actionThunk, error) {
	if s.Pipeline == nil {
		return func(*runtime.FunctionContext) error {
			return runtime.GetExitException(runtime.Null)
		}, nil
	}
	value, err := c.compileStatementValue(s.Pipeline)
	if err != nil {
		return nil, err
	}
	return func(fc *runtime.FunctionContext) error {
		v, err := value(fc)
		if err != nil {
			return err
		}
		return runtime.GetExitException(v)
	}, nil
}

// ============================================================================
// Data sections
// ============================================================================

func (c *Compiler) compileData(s *ast.DataStatement) (actionThunk, error) {
	body, err := c.compileStatementBlock(s.Body)
	if err != nil {
		return nil, err
	}
	variable := s.Variable
	return func(fc *runtime.FunctionContext) error {
		ctx := fc.Context
		savedMode := ctx.LanguageMode()
		ctx.SetLanguageMode(runtime.RestrictedLanguage)

		out, err := captureOutput(fc, body)

		ctx.SetLanguageMode(savedMode)
		if err != nil {
			return err
		}

		result := runtime.PipelineResult(out)
		if variable != "" {
			if !fc.Locals.SetName(variable, result) {
				ctx.SetVariable(variable, result)
			}
			return nil
		}
		writeToPipe(fc, fc.OutputPipe, result)
		return nil
	}, nil
}

// ============================================================================
// Redirections
// ============================================================================

// filePipe writes pipeline objects to a redirection target file, one line
// per object.
type filePipe struct {
	f *os.File
}

func (p *filePipe) Add(v runtime.Value) {
	p.f.WriteString(runtime.ToString(v) + "\n")
}

func (p *filePipe) NullPipe() bool { return false }

// wrapRedirections scaffolds a pipeline element's redirections: file
// redirections bind first (merging redirections capture the then-current
// output pipe), the body runs, and unbinding happens in reverse order with
// the previous pipe restored even on error.
func (c *Compiler) wrapRedirections(stage pipelineStage, redirections []ast.Redirection) (pipelineStage, error) {
	if len(redirections) == 0 {
		return stage, nil
	}

	type fileRedir struct {
		stream   ast.StreamKind
		appendTo bool
		location valueThunk
	}
	var files []fileRedir
	var merges []*ast.MergingRedirection
	for _, r := range redirections {
		switch redir := r.(type) {
		case *ast.FileRedirection:
			location, err := c.compileExpression(redir.Location)
			if err != nil {
				return nil, err
			}
			files = append(files, fileRedir{stream: redir.Stream, appendTo: redir.Append, location: location})
		case *ast.MergingRedirection:
			merges = append(merges, redir)
		}
	}
	// The single-stream core records merges for the scaffold's ordering
	// contract but has no secondary streams to rewire.
	_ = merges

	return func(fc *runtime.FunctionContext, input []runtime.Value, sink runtime.Pipe) error {
		var opened []*os.File
		effective := sink

		closeAll := func() {
			for i := len(opened) - 1; i >= 0; i-- {
				opened[i].Close()
			}
		}

		for _, redir := range files {
			location, err := redir.location(fc)
			if err != nil {
				closeAll()
				return err
			}
			flags := os.O_CREATE | os.O_WRONLY
			if redir.appendTo {
				flags |= os.O_APPEND
			} else {
				flags |= os.O_TRUNC
			}
			f, err := os.OpenFile(runtime.ToString(location), flags, 0o644)
			if err != nil {
				closeAll()
				return errors.NewWrappedRuntimeError(
					fc.CurrentExtent(), errors.IDFileReadError, err)
			}
			opened = append(opened, f)
			if redir.stream == ast.StreamOutput || redir.stream == ast.StreamAll {
				effective = &filePipe{f: f}
			}
		}

		err := stage(fc, input, effective)
		closeAll()
		return err
	}, nil
}
