package operators

import (
	"github.com/dlclark/regexp2"

	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// replaceArgs extracts the pattern and replacement from the right operand of
// -replace: a precompiled regex, a single pattern (empty replacement), or a
// (pattern, replacement) pair.
func replaceArgs(extent source.Extent, right runtime.Value, ignoreCase bool) (*regexp2.Regexp, string, error) {
	var patternValue runtime.Value = right
	replacement := ""

	if arr, ok := right.(*runtime.ArrayValue); ok {
		if len(arr.Elements) > 2 {
			return nil, "", errors.NewRuntimeError(extent, errors.IDBadReplaceArgument,
				"the -replace operator takes at most a pattern and a replacement")
		}
		if len(arr.Elements) > 0 {
			patternValue = arr.Elements[0]
		}
		if len(arr.Elements) > 1 {
			replacement = runtime.ToString(arr.Elements[1])
		}
	}

	if w, ok := patternValue.(*runtime.WrappedValue); ok {
		if re, ok := w.Value.(*regexp2.Regexp); ok {
			return re, replacement, nil
		}
	}

	var options regexp2.RegexOptions
	if ignoreCase {
		options |= regexp2.IgnoreCase
	}
	re, err := CompileRegex(extent, runtime.ToString(patternValue), options)
	if err != nil {
		return nil, "", err
	}
	return re, replacement, nil
}

// Replace implements -replace: per-element replacement when the left operand
// enumerates, a single replacement otherwise.
func Replace(ctx runtime.ExecutionContext, extent source.Extent, left, right runtime.Value, ignoreCase bool) (runtime.Value, error) {
	re, replacement, err := replaceArgs(extent, right, ignoreCase)
	if err != nil {
		return nil, err
	}

	replaceOne := func(s string) (runtime.Value, error) {
		out, err := re.Replace(s, replacement, -1, -1)
		if err != nil {
			return nil, runtime.WrapError(err, extent, errors.IDInvalidRegularExpression)
		}
		return runtime.Str(out), nil
	}

	if enum := runtime.GetEnumerator(left); enum != nil {
		var out []runtime.Value
		for {
			ok, err := runtime.EnumeratorMoveNext(ctx, extent, enum)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			element, err := runtime.EnumeratorCurrent(extent, enum)
			if err != nil {
				return nil, err
			}
			replaced, err := replaceOne(runtime.ToString(element))
			if err != nil {
				return nil, err
			}
			out = append(out, replaced)
		}
		return &runtime.ArrayValue{Elements: out}, nil
	}

	return replaceOne(runtime.ToString(left))
}
