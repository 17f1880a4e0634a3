package operators

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
	"github.com/cwbudde/go-psh/internal/token"
)

var testExtent = source.Synthetic("test")

func ctx() runtime.ExecutionContext { return runtime.NewExecutionContext() }

func strArray(ss ...string) *runtime.ArrayValue {
	out := make([]runtime.Value, len(ss))
	for i, s := range ss {
		out[i] = runtime.Str(s)
	}
	return &runtime.ArrayValue{Elements: out}
}

func elementsAsStrings(t *testing.T, v runtime.Value) []string {
	t.Helper()
	arr, ok := v.(*runtime.ArrayValue)
	require.True(t, ok, "expected an array, got %T", v)
	out := make([]string, len(arr.Elements))
	for i, e := range arr.Elements {
		out[i] = runtime.ToString(e)
	}
	return out
}

// ============================================================================
// Split and join
// ============================================================================

func TestSplitBasic(t *testing.T) {
	out, err := Split(ctx(), testExtent, runtime.Str("a,b,c"), runtime.Str(","), SplitRegexMatch|SplitIgnoreCase)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, elementsAsStrings(t, out))
}

func TestSplitNoMatch(t *testing.T) {
	right := &runtime.ArrayValue{Elements: []runtime.Value{runtime.Str("y"), runtime.Int(0)}}
	out, err := Split(ctx(), testExtent, runtime.Str("x"), right, SplitRegexMatch)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, elementsAsStrings(t, out))
}

func TestSplitNegativeLimitMeansNoLimit(t *testing.T) {
	right := &runtime.ArrayValue{Elements: []runtime.Value{runtime.Str(","), runtime.Int(-1)}}
	out, err := Split(ctx(), testExtent, runtime.Str("a,b,c"), right, SplitRegexMatch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, elementsAsStrings(t, out))
}

func TestSplitLimitKeepsTail(t *testing.T) {
	right := &runtime.ArrayValue{Elements: []runtime.Value{runtime.Str(","), runtime.Int(2)}}
	out, err := Split(ctx(), testExtent, runtime.Str("a,b,c"), right, SplitRegexMatch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b,c"}, elementsAsStrings(t, out))
}

func TestSplitSimpleMatchEscapesPattern(t *testing.T) {
	out, err := Split(ctx(), testExtent, runtime.Str("a.b.c"), runtime.Str("."), SplitSimpleMatch)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, elementsAsStrings(t, out))
}

func TestSplitInvalidOptionCombinations(t *testing.T) {
	tests := []SplitOptions{
		SplitSimpleMatch | SplitRegexMatch,
		SplitSimpleMatch | SplitMultiline,
		SplitMultiline | SplitSingleline,
	}
	for _, options := range tests {
		_, err := Split(ctx(), testExtent, runtime.Str("a"), runtime.Str("b"), options)
		require.Error(t, err, "options %b should be rejected", options)
		re, ok := err.(*errors.RuntimeError)
		require.True(t, ok)
		assert.Equal(t, errors.IDInvalidSplitOptionCombination, re.ID)
	}
}

func TestSplitWithPredicate(t *testing.T) {
	predicate := &runtime.ScriptBlockValue{
		Invoke: func(dollarUnder runtime.Value, _, _ []runtime.Value) ([]runtime.Value, error) {
			ch := dollarUnder.(*runtime.CharValue)
			return []runtime.Value{runtime.Bool(ch.Value == ';')}, nil
		},
	}
	out, err := Split(ctx(), testExtent, runtime.Str("a;b;c"), predicate, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, elementsAsStrings(t, out))
}

func TestUnarySplit(t *testing.T) {
	out, err := UnarySplit(ctx(), testExtent, runtime.Str("  a  b\tc "))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, elementsAsStrings(t, out))
}

func TestJoinSplitRoundTrip(t *testing.T) {
	original := "alpha,beta,gamma"
	parts, err := Split(ctx(), testExtent, runtime.Str(original), runtime.Str(","), SplitRegexMatch)
	require.NoError(t, err)
	joined, err := Join(ctx(), testExtent, parts, runtime.Str(","))
	require.NoError(t, err)
	assert.Equal(t, original, runtime.ToString(joined))
}

func TestUnaryJoin(t *testing.T) {
	out, err := UnaryJoin(ctx(), testExtent, strArray("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, "abc", runtime.ToString(out))
}

// ============================================================================
// Replace, like, match
// ============================================================================

func TestReplaceScalar(t *testing.T) {
	right := strArray("b", "BB")
	out, err := Replace(ctx(), testExtent, runtime.Str("abc"), right, true)
	require.NoError(t, err)
	assert.Equal(t, "aBBc", runtime.ToString(out))
}

func TestReplaceSinglePatternDeletes(t *testing.T) {
	out, err := Replace(ctx(), testExtent, runtime.Str("abc"), runtime.Str("b"), true)
	require.NoError(t, err)
	assert.Equal(t, "ac", runtime.ToString(out))
}

func TestReplacePerElement(t *testing.T) {
	out, err := Replace(ctx(), testExtent, strArray("ab", "cb"), strArray("b", "X"), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"aX", "cX"}, elementsAsStrings(t, out))
}

func TestReplaceTooManyArguments(t *testing.T) {
	_, err := Replace(ctx(), testExtent, runtime.Str("abc"), strArray("a", "b", "c"), true)
	require.Error(t, err)
	assert.Equal(t, errors.IDBadReplaceArgument, err.(*errors.RuntimeError).ID)
}

func TestLikeWildcards(t *testing.T) {
	tests := []struct {
		input   string
		pattern string
		want    bool
	}{
		{"abc", "a*c", true},
		{"ab", "a*c", false},
		{"abc", "a?c", true},
		{"abc", "[ab]bc", true},
		{"cbc", "[ab]bc", false},
		{"a*c", "a`*c", true},
		{"abc", "a`*c", false},
	}
	for _, tt := range tests {
		out, err := Like(ctx(), testExtent, runtime.Str(tt.input), runtime.Str(tt.pattern), true, false)
		require.NoError(t, err)
		assert.Equal(t, tt.want, runtime.IsTruthy(out), "%q -like %q", tt.input, tt.pattern)
	}
}

func TestLikeFiltersEnumerable(t *testing.T) {
	out, err := Like(ctx(), testExtent, strArray("apple", "banana", "avocado"), runtime.Str("a*"), true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "avocado"}, elementsAsStrings(t, out))

	out, err = Like(ctx(), testExtent, strArray("apple", "banana"), runtime.Str("a*"), true, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"banana"}, elementsAsStrings(t, out), "-notlike keeps the complement")
}

func TestMatchSetsMatchesTable(t *testing.T) {
	execCtx := runtime.NewExecutionContext()
	out, err := Match(execCtx, testExtent, runtime.Str("john-doe"), runtime.Str(`(?<first>\w+)-(?<last>\w+)`), true, false)
	require.NoError(t, err)
	assert.True(t, runtime.IsTruthy(out))

	matches, ok := execCtx.GetVariable("matches")
	require.True(t, ok, "$matches should be published on a scalar match")
	table := matches.(*runtime.HashtableValue)
	first, _ := table.Get("first")
	assert.Equal(t, "john", runtime.ToString(first))
	whole, _ := table.Get("0")
	assert.Equal(t, "john-doe", runtime.ToString(whole))
}

func TestMatchEnumerableFiltersWithoutMatches(t *testing.T) {
	execCtx := runtime.NewExecutionContext()
	out, err := Match(execCtx, testExtent, strArray("cat", "dog", "cow"), runtime.Str("^c"), true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "cow"}, elementsAsStrings(t, out))

	_, ok := execCtx.GetVariable("matches")
	assert.False(t, ok, "filtering must not publish $matches")
}

// ============================================================================
// Contains, in, comparisons
// ============================================================================

func TestContainsAndIn(t *testing.T) {
	list := strArray("a", "B", "c")

	out, err := Contains(ctx(), testExtent, list, runtime.Str("b"), true, false)
	require.NoError(t, err)
	assert.True(t, runtime.IsTruthy(out), "-contains is case-insensitive by default")

	out, err = Contains(ctx(), testExtent, list, runtime.Str("b"), false, false)
	require.NoError(t, err)
	assert.False(t, runtime.IsTruthy(out), "-ccontains respects case")

	out, err = In(ctx(), testExtent, runtime.Str("c"), list, true, false)
	require.NoError(t, err)
	assert.True(t, runtime.IsTruthy(out))

	out, err = Contains(ctx(), testExtent, list, runtime.Str("z"), true, true)
	require.NoError(t, err)
	assert.True(t, runtime.IsTruthy(out), "-notcontains of a missing element")
}

func TestCompareScalars(t *testing.T) {
	out, err := Compare(ctx(), testExtent, CompareEq, runtime.Str("Abc"), runtime.Str("abc"), true)
	require.NoError(t, err)
	assert.True(t, runtime.IsTruthy(out))

	out, err = Compare(ctx(), testExtent, CompareEq, runtime.Str("Abc"), runtime.Str("abc"), false)
	require.NoError(t, err)
	assert.False(t, runtime.IsTruthy(out))

	out, err = Compare(ctx(), testExtent, CompareLt, runtime.Int(3), runtime.Int(5), true)
	require.NoError(t, err)
	assert.True(t, runtime.IsTruthy(out))

	// Mixed numeric kinds compare numerically.
	out, err = Compare(ctx(), testExtent, CompareGe, runtime.Float(2.5), runtime.Int(2), true)
	require.NoError(t, err)
	assert.True(t, runtime.IsTruthy(out))
}

func TestCompareFiltersEnumerable(t *testing.T) {
	list := &runtime.ArrayValue{Elements: []runtime.Value{
		runtime.Int(1), runtime.Int(2), runtime.Int(1), runtime.Int(3),
	}}
	out, err := Compare(ctx(), testExtent, CompareEq, list, runtime.Int(1), true)
	require.NoError(t, err)
	filtered := out.(*runtime.ArrayValue)
	require.Len(t, filtered.Elements, 2)
	for _, e := range filtered.Elements {
		assert.Equal(t, int64(1), e.(*runtime.IntegerValue).Value,
			"every surviving element satisfies the predicate")
	}

	out, err = Compare(ctx(), testExtent, CompareGt, list, runtime.Int(1), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, elementsAsStrings(t, out))
}

// ============================================================================
// Type operators and range
// ============================================================================

func TestIsOperator(t *testing.T) {
	intType := &runtime.TypeValue{Ref: runtime.TypeInt}

	out, err := Is(ctx(), testExtent, runtime.Int(5), intType, false)
	require.NoError(t, err)
	assert.True(t, runtime.IsTruthy(out))

	out, err = Is(ctx(), testExtent, runtime.Str("5"), intType, false)
	require.NoError(t, err)
	assert.False(t, runtime.IsTruthy(out))

	out, err = Is(ctx(), testExtent, runtime.Str("5"), intType, true)
	require.NoError(t, err)
	assert.True(t, runtime.IsTruthy(out), "-isnot negates")

	_, err = Is(ctx(), testExtent, runtime.Int(5), runtime.Int(5), false)
	require.Error(t, err)
	assert.Equal(t, errors.IDIsOperatorRequiresType, err.(*errors.RuntimeError).ID)
}

func TestAsOperator(t *testing.T) {
	out, err := As(ctx(), testExtent, runtime.Str("42"), &runtime.TypeValue{Ref: runtime.TypeInt})
	require.NoError(t, err)
	assert.Equal(t, int64(42), out.(*runtime.IntegerValue).Value)

	out, err = As(ctx(), testExtent, runtime.Str("nope"), &runtime.TypeValue{Ref: runtime.TypeInt})
	require.NoError(t, err)
	assert.True(t, runtime.IsNull(out), "-as yields null instead of failing")
}

func rangeElements(t *testing.T, lo, hi int64) []string {
	t.Helper()
	out, err := Range(ctx(), testExtent, runtime.Int(lo), runtime.Int(hi))
	require.NoError(t, err)
	elements, err := runtime.Enumerate(ctx(), testExtent, out)
	require.NoError(t, err)
	ss := make([]string, len(elements))
	for i, e := range elements {
		ss[i] = runtime.ToString(e)
	}
	return ss
}

func TestRangeReversal(t *testing.T) {
	forward := rangeElements(t, 1, 4)
	backward := rangeElements(t, 4, 1)
	require.Equal(t, len(forward), len(backward))
	for i := range forward {
		assert.Equal(t, forward[i], backward[len(backward)-1-i], "(a..b) reversed equals (b..a)")
	}
}

// ============================================================================
// Format and logical
// ============================================================================

func TestFormatOperator(t *testing.T) {
	args := &runtime.ArrayValue{Elements: []runtime.Value{runtime.Str("world"), runtime.Int(7)}}
	out, err := Format(ctx(), testExtent, runtime.Str("hello {0}, {1:d3}"), args)
	require.NoError(t, err)
	assert.Equal(t, "hello world, 007", runtime.ToString(out))
}

func TestFormatEscapedBraces(t *testing.T) {
	out, err := Format(ctx(), testExtent, runtime.Str("{{0}}"), strArray("x"))
	require.NoError(t, err)
	assert.Equal(t, "{0}", runtime.ToString(out))
}

func TestDoubleNegation(t *testing.T) {
	for _, v := range []runtime.Value{runtime.Int(0), runtime.Int(3), runtime.Str(""), runtime.Str("x"), runtime.True, runtime.Null} {
		double := Not(Not(v))
		assert.Equal(t, runtime.IsTruthy(v), runtime.IsTruthy(double), "-not -not %s", v)
	}
}

// ============================================================================
// Binary dispatch and arithmetic
// ============================================================================

func TestBinaryOperationDispatch(t *testing.T) {
	tests := []struct {
		op    token.Kind
		left  runtime.Value
		right runtime.Value
		want  string
	}{
		{token.Plus, runtime.Int(2), runtime.Int(3), "5"},
		{token.Plus, runtime.Str("a"), runtime.Int(3), "a3"},
		{token.Minus, runtime.Int(5), runtime.Int(3), "2"},
		{token.Multiply, runtime.Str("ab"), runtime.Int(2), "abab"},
		{token.Divide, runtime.Int(7), runtime.Int(2), "3.5"},
		{token.Rem, runtime.Int(7), runtime.Int(2), "1"},
		{token.Shl, runtime.Int(1), runtime.Int(4), "16"},
		{token.Shr, runtime.Int(16), runtime.Int(2), "4"},
		{token.Band, runtime.Int(6), runtime.Int(3), "2"},
		{token.Bor, runtime.Int(6), runtime.Int(1), "7"},
		{token.Bxor, runtime.Int(6), runtime.Int(3), "5"},
		{token.Format, runtime.Str("n={0}"), runtime.Int(9), "n=9"},
	}
	for _, tt := range tests {
		out, err := BinaryOperation(ctx(), testExtent, tt.op, tt.left, tt.right)
		require.NoError(t, err, "%s", tt.op)
		assert.Equal(t, tt.want, runtime.ToString(out), "%s %s %s", tt.left, tt.op, tt.right)
	}
}

func TestDivideByZero(t *testing.T) {
	_, err := Divide(ctx(), testExtent, runtime.Int(1), runtime.Int(0))
	require.Error(t, err)
	assert.Equal(t, errors.IDDivideByZero, err.(*errors.RuntimeError).ID)
}

func TestArrayAndHashtableAddition(t *testing.T) {
	out, err := Add(ctx(), testExtent, strArray("a"), strArray("b", "c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, elementsAsStrings(t, out))

	left := runtime.NewHashtable(false)
	left.Set("a", runtime.Int(1))
	right := runtime.NewHashtable(false)
	right.Set("b", runtime.Int(2))
	merged, err := Add(ctx(), testExtent, left, right)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.(*runtime.HashtableValue).Len())

	_, err = Add(ctx(), testExtent, left, left)
	require.Error(t, err, "merging hashtables with a duplicate key fails")
}

// ============================================================================
// Regex cache
// ============================================================================

func TestRegexCacheBoundedWithClearOnOverflow(t *testing.T) {
	ResetRegexCache()
	defer ResetRegexCache()

	for i := 0; i < 1000; i++ {
		_, err := NewRegex(testExtent, fmt.Sprintf("pattern%04d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 1000, RegexCacheSize())

	// The next distinct pattern overflows: the cache clears wholesale and
	// restarts with the new entry alone.
	_, err := NewRegex(testExtent, "one-more")
	require.NoError(t, err)
	assert.Equal(t, 1, RegexCacheSize())
	assert.LessOrEqual(t, RegexCacheSize(), 1000, "cache size never exceeds its bound")
}

func TestNewRegexInvalidPattern(t *testing.T) {
	_, err := NewRegex(testExtent, "(unclosed")
	require.Error(t, err)
	assert.Equal(t, errors.IDInvalidRegularExpression, err.(*errors.RuntimeError).ID)
}

// ============================================================================
// Method calls
// ============================================================================

func TestCallMethodOnNull(t *testing.T) {
	_, err := CallMethod(testExtent, runtime.Null, "ToString", nil, nil, false, nil)
	require.Error(t, err)
	assert.Equal(t, errors.IDInvokeMethodOnNull, err.(*errors.RuntimeError).ID)
}

func TestCallMethodNotFound(t *testing.T) {
	_, err := CallMethod(testExtent, runtime.Int(5), "Frobnicate", nil, nil, false, nil)
	require.Error(t, err)
	assert.Equal(t, errors.IDMethodNotFound, err.(*errors.RuntimeError).ID)

	_, err = CallMethod(testExtent, runtime.Str("x"), "Chars", nil, nil, false, runtime.Int(1))
	require.Error(t, err)
	assert.Equal(t, errors.IDParameterizedPropertyAssignmentFailed, err.(*errors.RuntimeError).ID)
}

func TestStringMethods(t *testing.T) {
	out, err := CallMethod(testExtent, runtime.Str("hello"), "ToUpper", nil, nil, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "HELLO", runtime.ToString(out))

	out, err = CallMethod(testExtent, runtime.Str("hello"), "Substring", nil,
		[]runtime.Value{runtime.Int(1), runtime.Int(3)}, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "ell", runtime.ToString(out))

	_, err = CallMethod(testExtent, runtime.Str("hi"), "Substring", nil,
		[]runtime.Value{runtime.Int(99)}, false, nil)
	require.Error(t, err)
}

func TestGetIndexBehaviors(t *testing.T) {
	arr := &runtime.ArrayValue{Elements: []runtime.Value{runtime.Int(10), runtime.Int(20), runtime.Int(30)}}

	v, err := GetIndex(testExtent, arr, runtime.Int(-1))
	require.NoError(t, err)
	assert.Equal(t, int64(30), v.(*runtime.IntegerValue).Value, "negative indexes count from the end")

	v, err = GetIndex(testExtent, arr, runtime.Int(99))
	require.NoError(t, err)
	assert.True(t, runtime.IsNull(v), "out-of-range reads are null")

	multi := &runtime.ArrayValue{Elements: []runtime.Value{runtime.Int(0), runtime.Int(2)}}
	v, err = GetIndex(testExtent, arr, multi)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "30"}, elementsAsStrings(t, v))

	_, err = GetIndex(testExtent, runtime.Null, runtime.Int(0))
	require.Error(t, err)
	assert.Equal(t, errors.IDNullArrayIndex, err.(*errors.RuntimeError).ID)
}
