package operators

import (
	"github.com/dlclark/regexp2"

	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// matchCancelInterval caps cancellation latency while filtering large
// enumerables: the stopping flag is polled every this many elements.
const matchCancelInterval = 1000

// matchRegex extracts or compiles the regex of a -match right operand.
func matchRegex(extent source.Extent, right runtime.Value, ignoreCase bool) (*regexp2.Regexp, error) {
	if w, ok := right.(*runtime.WrappedValue); ok {
		if re, ok := w.Value.(*regexp2.Regexp); ok {
			return re, nil
		}
	}
	var options regexp2.RegexOptions
	if ignoreCase {
		options |= regexp2.IgnoreCase
	}
	return CompileRegex(extent, runtime.ToString(right), options)
}

// buildMatchesTable builds the $matches hashtable from a successful match:
// named groups under their names, numbered groups under their indexes.
func buildMatchesTable(m *regexp2.Match) *runtime.HashtableValue {
	table := runtime.NewHashtable(false)
	for _, g := range m.Groups() {
		if len(g.Captures) == 0 {
			continue
		}
		// Numbered groups carry their index as the name, so one insert
		// covers both the named and the numbered captures.
		table.Set(g.Name, runtime.Str(g.String()))
	}
	return table
}

// Match implements -match and -notmatch. A scalar left operand yields a
// boolean and, on success, publishes $matches through the execution
// context's variable table. An enumerable left operand is filtered and
// $matches is left untouched.
func Match(ctx runtime.ExecutionContext, extent source.Extent, left, right runtime.Value, ignoreCase, negate bool) (runtime.Value, error) {
	re, err := matchRegex(extent, right, ignoreCase)
	if err != nil {
		return nil, err
	}

	if enum := runtime.GetEnumerator(left); enum != nil {
		var out []runtime.Value
		count := 0
		for {
			count++
			if count%matchCancelInterval == 0 {
				if err := runtime.CheckForInterrupts(ctx); err != nil {
					return nil, err
				}
			}
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
			matched, err := re.MatchString(runtime.ToString(element))
			if err != nil {
				return nil, err
			}
			if matched != negate {
				out = append(out, element)
			}
		}
		return &runtime.ArrayValue{Elements: out}, nil
	}

	m, err := re.FindStringMatch(runtime.ToString(left))
	if err != nil {
		return nil, err
	}
	if m != nil {
		ctx.SetVariable("matches", buildMatchesTable(m))
	}
	return runtime.Bool((m != nil) != negate), nil
}
