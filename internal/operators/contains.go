package operators

import (
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// Contains implements -contains and -notcontains: the left operand is
// enumerated and each element equality-checked against the right operand
// under the configured case sensitivity and invariant culture.
func Contains(ctx runtime.ExecutionContext, extent source.Extent, left, right runtime.Value, ignoreCase, negate bool) (runtime.Value, error) {
	found, err := sequenceContains(ctx, extent, left, right, ignoreCase)
	if err != nil {
		return nil, err
	}
	return runtime.Bool(found != negate), nil
}

// In implements -in and -notin, the mirrored form: the right operand is
// enumerated and checked against the left.
func In(ctx runtime.ExecutionContext, extent source.Extent, left, right runtime.Value, ignoreCase, negate bool) (runtime.Value, error) {
	found, err := sequenceContains(ctx, extent, right, left, ignoreCase)
	if err != nil {
		return nil, err
	}
	return runtime.Bool(found != negate), nil
}

func sequenceContains(ctx runtime.ExecutionContext, extent source.Extent, sequence, item runtime.Value, ignoreCase bool) (bool, error) {
	enum := runtime.GetEnumerator(sequence)
	if enum == nil {
		return ValuesEqual(sequence, item, ignoreCase), nil
	}
	for {
		ok, err := runtime.EnumeratorMoveNext(ctx, extent, enum)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		element, err := runtime.EnumeratorCurrent(extent, enum)
		if err != nil {
			return false, err
		}
		if ValuesEqual(element, item, ignoreCase) {
			return true, nil
		}
	}
}
