package operators

import (
	"strconv"
	"strings"

	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// Format implements the -f operator: a {index}-style composite format string
// on the left, applied over the enumerated right operand.
func Format(ctx runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	args, err := runtime.Enumerate(ctx, extent, right)
	if err != nil {
		return nil, err
	}
	out, err := FormatString(extent, runtime.ToString(left), args)
	if err != nil {
		return nil, err
	}
	return runtime.Str(out), nil
}

// FormatString expands {index[,alignment][:format]} holes in format with the
// given arguments. Doubled braces escape literal braces.
func FormatString(extent source.Extent, format string, args []runtime.Value) (string, error) {
	var sb strings.Builder
	runes := []rune(format)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '{':
			if i+1 < len(runes) && runes[i+1] == '{' {
				sb.WriteRune('{')
				i++
				continue
			}
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == '}' {
					end = j
					break
				}
			}
			if end < 0 {
				return "", formatError(extent, format)
			}
			expanded, err := expandHole(extent, string(runes[i+1:end]), args)
			if err != nil {
				return "", err
			}
			sb.WriteString(expanded)
			i = end
		case '}':
			if i+1 < len(runes) && runes[i+1] == '}' {
				sb.WriteRune('}')
				i++
				continue
			}
			return "", formatError(extent, format)
		default:
			sb.WriteRune(c)
		}
	}
	return sb.String(), nil
}

func formatError(extent source.Extent, format string) error {
	return errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
		"error formatting a string: input string %q was not in a correct format", format)
}

// expandHole renders one {index[,alignment][:format]} hole.
func expandHole(extent source.Extent, hole string, args []runtime.Value) (string, error) {
	spec := hole
	formatSpec := ""
	if idx := strings.IndexByte(spec, ':'); idx >= 0 {
		formatSpec = spec[idx+1:]
		spec = spec[:idx]
	}
	alignment := 0
	if idx := strings.IndexByte(spec, ','); idx >= 0 {
		a, err := strconv.Atoi(strings.TrimSpace(spec[idx+1:]))
		if err != nil {
			return "", formatError(extent, hole)
		}
		alignment = a
		spec = spec[:idx]
	}
	index, err := strconv.Atoi(strings.TrimSpace(spec))
	if err != nil || index < 0 || index >= len(args) {
		return "", formatError(extent, hole)
	}

	out := formatArgument(args[index], formatSpec)
	if alignment > len(out) {
		out = strings.Repeat(" ", alignment-len(out)) + out
	} else if alignment < 0 && -alignment > len(out) {
		out = out + strings.Repeat(" ", -alignment-len(out))
	}
	return out, nil
}

// formatArgument applies the subset of format specifiers the engine
// understands: zero-padding (0000, dN), fixed decimals (fN, nN) and
// hexadecimal (xN, XN); anything else falls back to the argument's string
// form.
func formatArgument(v runtime.Value, spec string) string {
	if spec == "" {
		return runtime.ToString(v)
	}
	i, f, isFloat, ok := runtime.AsNumber(v)
	if !ok {
		return runtime.ToString(v)
	}
	lower := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lower, "d"):
		width, err := strconv.Atoi(lower[1:])
		if err != nil {
			return runtime.ToString(v)
		}
		if isFloat {
			i = int64(f)
		}
		return padNumber(strconv.FormatInt(i, 10), width)
	case strings.HasPrefix(lower, "f") || strings.HasPrefix(lower, "n"):
		decimals := 2
		if len(lower) > 1 {
			if d, err := strconv.Atoi(lower[1:]); err == nil {
				decimals = d
			}
		}
		if !isFloat {
			f = float64(i)
		}
		return strconv.FormatFloat(f, 'f', decimals, 64)
	case strings.HasPrefix(lower, "x"):
		if isFloat {
			i = int64(f)
		}
		s := strconv.FormatInt(i, 16)
		if spec[0] == 'X' {
			s = strings.ToUpper(s)
		}
		if len(lower) > 1 {
			if width, err := strconv.Atoi(lower[1:]); err == nil {
				s = padNumber(s, width)
			}
		}
		return s
	case strings.Trim(lower, "0") == "":
		return padNumber(runtime.ToString(v), len(spec))
	default:
		return runtime.ToString(v)
	}
}

func padNumber(s string, width int) string {
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	for len(s) < width {
		s = "0" + s
	}
	if negative {
		return "-" + s
	}
	return s
}
