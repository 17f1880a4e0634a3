package operators

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// Invariant-culture collators shared by every string comparison.
var (
	collatorSensitive   = collate.New(language.Und)
	collatorInsensitive = collate.New(language.Und, collate.IgnoreCase)
)

// CompareStrings compares two strings with invariant-culture ordering.
func CompareStrings(a, b string, ignoreCase bool) int {
	if ignoreCase {
		return collatorInsensitive.CompareString(a, b)
	}
	return collatorSensitive.CompareString(a, b)
}

// compareValues orders two scalars: numbers numerically, strings with the
// invariant collator, booleans false-before-true. Mixed operands coerce to
// the left operand's kind; incomparable pairs report an error.
func compareValues(extent source.Extent, left, right runtime.Value, ignoreCase bool) (int, error) {
	if runtime.IsNull(left) && runtime.IsNull(right) {
		return 0, nil
	}

	switch l := left.(type) {
	case *runtime.StringValue:
		return CompareStrings(l.Value, runtime.ToString(right), ignoreCase), nil
	case *runtime.BoolValue:
		lb, rb := l.Value, runtime.IsTruthy(right)
		switch {
		case lb == rb:
			return 0, nil
		case rb:
			return -1, nil
		default:
			return 1, nil
		}
	}

	li, ri, lf, rf, isFloat, ok := numericPair(left, right)
	if ok {
		if isFloat {
			switch {
			case lf < rf:
				return -1, nil
			case lf > rf:
				return 1, nil
			default:
				return 0, nil
			}
		}
		switch {
		case li < ri:
			return -1, nil
		case li > ri:
			return 1, nil
		default:
			return 0, nil
		}
	}

	// IComparable-style fallback: order by invariant string form.
	if _, isWrapped := left.(*runtime.WrappedValue); isWrapped {
		return CompareStrings(runtime.ToString(left), runtime.ToString(right), ignoreCase), nil
	}

	return 0, errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
		"cannot compare %s with %s", left.Type(), right.Type()).WithTarget(left)
}

// ValuesEqual reports scalar equality under the configured case sensitivity
// and invariant culture.
func ValuesEqual(left, right runtime.Value, ignoreCase bool) bool {
	if runtime.IsNull(left) || runtime.IsNull(right) {
		return runtime.IsNull(left) == runtime.IsNull(right)
	}
	if _, ok := left.(*runtime.StringValue); ok {
		return CompareStrings(runtime.ToString(left), runtime.ToString(right), ignoreCase) == 0
	}
	c, err := compareValues(source.EmptyExtent, left, right, ignoreCase)
	if err != nil {
		// Incomparable values are equal only to themselves.
		return left == right
	}
	return c == 0
}

// ComparisonKind selects one of the six ordering comparisons.
type ComparisonKind int

const (
	CompareEq ComparisonKind = iota
	CompareNe
	CompareGt
	CompareGe
	CompareLt
	CompareLe
)

func comparisonHolds(kind ComparisonKind, c int) bool {
	switch kind {
	case CompareEq:
		return c == 0
	case CompareNe:
		return c != 0
	case CompareGt:
		return c > 0
	case CompareGe:
		return c >= 0
	case CompareLt:
		return c < 0
	default:
		return c <= 0
	}
}

// Compare implements eq/ne/gt/ge/lt/le. When the left operand enumerates,
// the comparison maps across it and the filtered sequence is returned;
// otherwise the result is a boolean.
func Compare(ctx runtime.ExecutionContext, extent source.Extent, kind ComparisonKind, left, right runtime.Value, ignoreCase bool) (runtime.Value, error) {
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
			var holds bool
			if kind == CompareEq || kind == CompareNe {
				holds = comparisonHolds(kind, boolToCompare(ValuesEqual(element, right, ignoreCase)))
			} else {
				c, err := compareValues(extent, element, right, ignoreCase)
				if err != nil {
					return nil, err
				}
				holds = comparisonHolds(kind, c)
			}
			if holds {
				out = append(out, element)
			}
		}
		return &runtime.ArrayValue{Elements: out}, nil
	}

	if kind == CompareEq || kind == CompareNe {
		return runtime.Bool(comparisonHolds(kind, boolToCompare(ValuesEqual(left, right, ignoreCase)))), nil
	}
	c, err := compareValues(extent, left, right, ignoreCase)
	if err != nil {
		return nil, err
	}
	return runtime.Bool(comparisonHolds(kind, c)), nil
}

// boolToCompare maps equality to the 0/non-0 convention comparisonHolds uses.
func boolToCompare(equal bool) int {
	if equal {
		return 0
	}
	return 1
}
