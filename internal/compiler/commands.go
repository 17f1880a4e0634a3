package compiler

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// builtinCommand is one engine-provided pipeline command. Full command
// discovery and parameter binding belong to the cmdlet subsystem; the engine
// carries only the commands its own lowering and tests exercise.
type builtinCommand func(fc *runtime.FunctionContext, extent source.Extent, input []runtime.Value, positional []runtime.Value, named map[string]runtime.Value, sink runtime.Pipe) error

var builtinCommands = map[string]builtinCommand{
	"foreach-object":         commandForEachObject,
	"%":                      commandForEachObject,
	"where-object":           commandWhereObject,
	"?":                      commandWhereObject,
	"write-output":           commandWriteOutput,
	"convertfrom-stringdata": commandConvertFromStringData,
}

func lookupBuiltinCommand(name string) (builtinCommand, bool) {
	cmd, ok := builtinCommands[strings.ToLower(name)]
	return cmd, ok
}

func commandForEachObject(fc *runtime.FunctionContext, extent source.Extent, input, positional []runtime.Value, _ map[string]runtime.Value, sink runtime.Pipe) error {
	if len(positional) == 0 {
		return errors.NewRuntimeError(extent, "ParameterBindingException",
			"ForEach-Object requires a script block")
	}
	block, ok := positional[0].(*runtime.ScriptBlockValue)
	if !ok {
		return errors.NewRuntimeError(extent, "ParameterBindingException",
			"the ForEach-Object process argument must be a script block")
	}
	for _, item := range input {
		out, err := block.Invoke(item, []runtime.Value{item}, nil)
		if err != nil {
			return err
		}
		for _, v := range out {
			sink.Add(v)
		}
	}
	return nil
}

func commandWhereObject(fc *runtime.FunctionContext, extent source.Extent, input, positional []runtime.Value, _ map[string]runtime.Value, sink runtime.Pipe) error {
	if len(positional) == 0 {
		return errors.NewRuntimeError(extent, "ParameterBindingException",
			"Where-Object requires a filter script block")
	}
	block, ok := positional[0].(*runtime.ScriptBlockValue)
	if !ok {
		return errors.NewRuntimeError(extent, "ParameterBindingException",
			"the Where-Object filter argument must be a script block")
	}
	for _, item := range input {
		out, err := block.Invoke(item, []runtime.Value{item}, nil)
		if err != nil {
			return err
		}
		if runtime.IsTruthy(runtime.PipelineResult(out)) {
			sink.Add(item)
		}
	}
	return nil
}

func commandWriteOutput(_ *runtime.FunctionContext, _ source.Extent, input, positional []runtime.Value, _ map[string]runtime.Value, sink runtime.Pipe) error {
	for _, v := range positional {
		sink.Add(v)
	}
	for _, v := range input {
		sink.Add(v)
	}
	return nil
}

// commandConvertFromStringData parses "key=value" lines into a hashtable,
// one table per input string.
func commandConvertFromStringData(fc *runtime.FunctionContext, extent source.Extent, input, positional []runtime.Value, named map[string]runtime.Value, sink runtime.Pipe) error {
	sources := input
	if v, ok := named["stringdata"]; ok {
		sources = append(sources, v)
	}
	sources = append(sources, positional...)

	for _, src := range sources {
		table := runtime.NewHashtable(false)
		for _, line := range strings.Split(runtime.ToString(src), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			idx := strings.IndexByte(line, '=')
			if idx < 0 {
				return errors.NewRuntimeError(extent, "InvalidOperation",
					"data line %q is not in the key=value format", line)
			}
			table.Set(strings.TrimSpace(line[:idx]), runtime.Str(strings.TrimSpace(line[idx+1:])))
		}
		sink.Add(table)
	}
	return nil
}

// ============================================================================
// Command lowering
// ============================================================================

func (c *Compiler) compileCommand(cmd *ast.CommandAst) (pipelineStage, error) {
	name := cmd.CommandName()
	if name == "" {
		return nil, compileError(cmd.Extent(), "computed command names are not supported by the engine core")
	}

	type argThunk struct {
		named     string
		value     valueThunk
		splatted  bool
		omitValue bool
	}
	var args []argThunk
	for _, element := range cmd.CommandElements[1:] {
		switch e := element.(type) {
		case *ast.CommandParameterAst:
			arg := argThunk{named: e.ParameterName}
			if e.Argument != nil {
				thunk, err := c.compileExpression(e.Argument)
				if err != nil {
					return nil, err
				}
				arg.value = thunk
			} else {
				arg.omitValue = true
			}
			args = append(args, arg)
		case *ast.VariableExpression:
			thunk, err := c.compileExpression(e)
			if err != nil {
				return nil, err
			}
			args = append(args, argThunk{value: thunk, splatted: e.Splatted})
		default:
			thunk, err := c.compileExpression(e)
			if err != nil {
				return nil, err
			}
			args = append(args, argThunk{value: thunk})
		}
	}

	extent := cmd.Extent()
	return func(fc *runtime.FunctionContext, input []runtime.Value, sink runtime.Pipe) error {
		var positional []runtime.Value
		named := make(map[string]runtime.Value)
		for _, arg := range args {
			if arg.omitValue {
				named[strings.ToLower(arg.named)] = runtime.True
				continue
			}
			v, err := arg.value(fc)
			if err != nil {
				return err
			}
			v = runtime.CheckAutomationNullInCommandArgument(v)
			switch {
			case arg.named != "":
				named[strings.ToLower(arg.named)] = v
			case arg.splatted:
				elements, err := runtime.Enumerate(fc.Context, extent, v)
				if err != nil {
					return err
				}
				positional = append(positional, runtime.CheckAutomationNullInCommandArgumentArray(elements)...)
			default:
				positional = append(positional, v)
			}
		}

		if builtin, ok := lookupBuiltinCommand(name); ok {
			return builtin(fc, extent, input, positional, named, sink)
		}

		if fn, ok := fc.Context.GetVariable("function:" + name); ok {
			if block, ok := fn.(*runtime.ScriptBlockValue); ok {
				out, err := block.Invoke(nil, input, positional)
				if err != nil {
					return err
				}
				for _, v := range out {
					sink.Add(v)
				}
				return nil
			}
		}

		return errors.NewRuntimeError(extent, "CommandNotFoundException",
			"the term %q is not recognized as a name of a cmdlet or function", name).WithTarget(runtime.Str(name))
	}, nil
}
