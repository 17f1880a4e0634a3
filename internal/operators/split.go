package operators

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// SplitOptions are the flags accepted by the -split operator.
type SplitOptions int

const (
	SplitSimpleMatch SplitOptions = 1 << iota
	SplitRegexMatch
	SplitCultureInvariant
	SplitIgnorePatternWhitespace
	SplitMultiline
	SplitSingleline
	SplitIgnoreCase
	SplitExplicitCapture
)

// Has reports whether flag is set.
func (o SplitOptions) Has(flag SplitOptions) bool { return o&flag != 0 }

// ParseSplitOptions parses the comma-separated option names of a -split
// options string.
func ParseSplitOptions(extent source.Extent, s string) (SplitOptions, error) {
	var out SplitOptions
	for _, name := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case "simplematch":
			out |= SplitSimpleMatch
		case "regexmatch":
			out |= SplitRegexMatch
		case "cultureinvariant":
			out |= SplitCultureInvariant
		case "ignorepatternwhitespace":
			out |= SplitIgnorePatternWhitespace
		case "multiline":
			out |= SplitMultiline
		case "singleline":
			out |= SplitSingleline
		case "ignorecase":
			out |= SplitIgnoreCase
		case "explicitcapture":
			out |= SplitExplicitCapture
		default:
			return 0, errors.NewRuntimeError(extent, errors.IDInvalidSplitOptionCombination,
				"%q is not a valid split option", strings.TrimSpace(name))
		}
	}
	return out, nil
}

// validateSplitOptions enforces the flag contract: simple-match and
// regex-match are mutually exclusive, simple-match tolerates only
// ignore-case alongside it, and multiline conflicts with singleline.
func validateSplitOptions(extent source.Extent, options SplitOptions) error {
	if options.Has(SplitSimpleMatch) && options.Has(SplitRegexMatch) {
		return errors.NewRuntimeError(extent, errors.IDInvalidSplitOptionCombination,
			"SimpleMatch and RegexMatch are mutually exclusive")
	}
	if options.Has(SplitSimpleMatch) {
		disallowed := options &^ (SplitSimpleMatch | SplitIgnoreCase)
		if disallowed != 0 {
			return errors.NewRuntimeError(extent, errors.IDInvalidSplitOptionCombination,
				"only IgnoreCase may be combined with SimpleMatch")
		}
	}
	if options.Has(SplitMultiline) && options.Has(SplitSingleline) {
		return errors.NewRuntimeError(extent, errors.IDInvalidSplitOptionCombination,
			"Multiline and Singleline are mutually exclusive")
	}
	return nil
}

// regexOptions derives the regex engine options for a validated flag set.
func (o SplitOptions) regexOptions() regexp2.RegexOptions {
	var out regexp2.RegexOptions
	if o.Has(SplitIgnoreCase) {
		out |= regexp2.IgnoreCase
	}
	if o.Has(SplitMultiline) {
		out |= regexp2.Multiline
	}
	if o.Has(SplitSingleline) {
		out |= regexp2.Singleline
	}
	if o.Has(SplitIgnorePatternWhitespace) {
		out |= regexp2.IgnorePatternWhitespace
	}
	if o.Has(SplitExplicitCapture) {
		out |= regexp2.ExplicitCapture
	}
	return out
}

// regexSplit splits s on matches of re. A limit above zero caps the number
// of produced elements, the final element carrying the unsplit tail.
func regexSplit(re *regexp2.Regexp, s string, limit int) ([]string, error) {
	var out []string
	rest := s
	for {
		if limit > 0 && len(out) == limit-1 {
			break
		}
		m, err := re.FindStringMatch(rest)
		if err != nil {
			return nil, err
		}
		// Stop on no match; a zero-width match would never advance.
		if m == nil || m.Length == 0 {
			break
		}
		out = append(out, rest[:m.Index])
		rest = rest[m.Index+m.Length:]
	}
	out = append(out, rest)
	return out, nil
}

// splitStrings applies a compiled pattern to each element.
func splitStrings(re *regexp2.Regexp, elements []string, limit int) ([]runtime.Value, error) {
	var out []runtime.Value
	for _, s := range elements {
		parts, err := regexSplit(re, s, limit)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			out = append(out, runtime.Str(p))
		}
	}
	return out, nil
}

// splitWithPredicate splits each element wherever the predicate script block
// answers true for a character. The limit is enforced by emitting the
// remaining text as a final tail once one slot remains.
func splitWithPredicate(elements []string, predicate *runtime.ScriptBlockValue, limit int) ([]runtime.Value, error) {
	var out []runtime.Value
	for _, s := range elements {
		var buf strings.Builder
		produced := 0
		tail := false
		for i, ch := range s {
			if limit > 0 && produced == limit-1 {
				out = append(out, runtime.Str(buf.String()+s[i:]))
				buf.Reset()
				tail = true
				break
			}
			result, err := predicate.Invoke(runtime.Char(ch), nil, nil)
			if err != nil {
				return nil, err
			}
			if runtime.IsTruthy(runtime.PipelineResult(result)) {
				out = append(out, runtime.Str(buf.String()))
				buf.Reset()
				produced++
				continue
			}
			buf.WriteRune(ch)
		}
		if !tail {
			out = append(out, runtime.Str(buf.String()))
		}
	}
	return out, nil
}

// coerceToStrings enumerates the left operand and coerces every element to
// its string form.
func coerceToStrings(ctx runtime.ExecutionContext, extent source.Extent, v runtime.Value) ([]string, error) {
	elements, err := runtime.Enumerate(ctx, extent, v)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(elements))
	for i, e := range elements {
		out[i] = runtime.ToString(e)
	}
	return out, nil
}

// Split implements the binary -split operator. The right operand is a
// pattern string, a (pattern, limit[, options]) tuple, or a predicate script
// block. A limit of zero or below means no limit.
func Split(ctx runtime.ExecutionContext, extent source.Extent, left, right runtime.Value, options SplitOptions) (runtime.Value, error) {
	elements, err := coerceToStrings(ctx, extent, left)
	if err != nil {
		return nil, err
	}

	limit := 0
	var pattern string

	switch r := right.(type) {
	case *runtime.ScriptBlockValue:
		if err := validateSplitOptions(extent, options); err != nil {
			return nil, err
		}
		parts, err := splitWithPredicate(elements, r, limit)
		if err != nil {
			return nil, err
		}
		return &runtime.ArrayValue{Elements: parts}, nil

	case *runtime.ArrayValue:
		if len(r.Elements) == 0 || len(r.Elements) > 3 {
			return nil, errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
				"the right operand of -split must be a pattern, a (pattern, limit) pair, or a predicate")
		}
		pattern = runtime.ToString(r.Elements[0])
		if len(r.Elements) > 1 {
			n, _, _, ok := runtime.AsNumber(r.Elements[1])
			if !ok {
				return nil, errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
					"the split limit must be a number")
			}
			limit = int(n)
		}
		if len(r.Elements) > 2 {
			parsed, err := ParseSplitOptions(extent, runtime.ToString(r.Elements[2]))
			if err != nil {
				return nil, err
			}
			options |= parsed
		}

	default:
		pattern = runtime.ToString(right)
	}

	if err := validateSplitOptions(extent, options); err != nil {
		return nil, err
	}
	if options.Has(SplitSimpleMatch) {
		pattern = regexp2.Escape(pattern)
	}

	re, err := CompileRegex(extent, pattern, options.regexOptions())
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		limit = 0
	}
	parts, err := splitStrings(re, elements, limit)
	if err != nil {
		return nil, runtime.WrapError(err, extent, errors.IDInvalidRegularExpression)
	}
	return &runtime.ArrayValue{Elements: parts}, nil
}

// UnarySplit implements unary -split: whitespace splitting with trimmed
// operand elements.
func UnarySplit(ctx runtime.ExecutionContext, extent source.Extent, operand runtime.Value) (runtime.Value, error) {
	elements, err := coerceToStrings(ctx, extent, operand)
	if err != nil {
		return nil, err
	}
	for i, e := range elements {
		elements[i] = strings.TrimSpace(e)
	}
	re, err := CompileRegex(extent, `\s+`, 0)
	if err != nil {
		return nil, err
	}
	parts, err := splitStrings(re, elements, 0)
	if err != nil {
		return nil, err
	}
	return &runtime.ArrayValue{Elements: parts}, nil
}

// Join implements the binary -join operator: the left operand's elements are
// coerced to strings and concatenated with the separator.
func Join(ctx runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	elements, err := coerceToStrings(ctx, extent, left)
	if err != nil {
		return nil, err
	}
	return runtime.Str(strings.Join(elements, runtime.ToString(right))), nil
}

// UnaryJoin implements unary -join, concatenation with no separator.
func UnaryJoin(ctx runtime.ExecutionContext, extent source.Extent, operand runtime.Value) (runtime.Value, error) {
	return Join(ctx, extent, operand, runtime.Str(""))
}
