package operators

import (
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// Like implements -like and -notlike. The right operand is coerced to a
// wildcard pattern. For a scalar left operand the result is a boolean;
// for an enumerable left operand the matching elements are returned
// (non-matching for -notlike).
func Like(ctx runtime.ExecutionContext, extent source.Extent, left, right runtime.Value, ignoreCase, negate bool) (runtime.Value, error) {
	pattern, err := NewWildcardPattern(extent, runtime.ToString(right), ignoreCase)
	if err != nil {
		return nil, err
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
			if pattern.IsMatch(runtime.ToString(element)) != negate {
				out = append(out, element)
			}
		}
		return &runtime.ArrayValue{Elements: out}, nil
	}

	return runtime.Bool(pattern.IsMatch(runtime.ToString(left)) != negate), nil
}
