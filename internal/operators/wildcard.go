package operators

import (
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/cwbudde/go-psh/internal/source"
)

// WildcardPattern matches the glob-style patterns of the -like operator:
// * (any run), ? (any one character), [a-z] character classes, and backtick
// escapes. Implemented by translation to an anchored regex.
type WildcardPattern struct {
	Pattern    string
	IgnoreCase bool
	re         *regexp2.Regexp
}

// NewWildcardPattern translates and compiles a wildcard pattern.
func NewWildcardPattern(extent source.Extent, pattern string, ignoreCase bool) (*WildcardPattern, error) {
	var options regexp2.RegexOptions = regexp2.Singleline
	if ignoreCase {
		options |= regexp2.IgnoreCase
	}
	re, err := CompileRegex(extent, translateWildcard(pattern), options)
	if err != nil {
		return nil, err
	}
	return &WildcardPattern{Pattern: pattern, IgnoreCase: ignoreCase, re: re}, nil
}

// IsMatch reports whether s matches the whole pattern.
func (w *WildcardPattern) IsMatch(s string) bool {
	ok, err := w.re.MatchString(s)
	return err == nil && ok
}

// translateWildcard rewrites a wildcard pattern into an anchored regex.
// Backtick escapes the next wildcard metacharacter; regex metacharacters in
// literal positions are escaped.
func translateWildcard(pattern string) string {
	var sb strings.Builder
	sb.WriteString(`\A`)
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '`':
			if i+1 < len(runes) {
				i++
				sb.WriteString(regexp2.Escape(string(runes[i])))
			}
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			// Pass character classes through unchanged up to the closing
			// bracket; an unterminated class is treated literally.
			end := -1
			for j := i + 1; j < len(runes); j++ {
				if runes[j] == ']' {
					end = j
					break
				}
			}
			if end < 0 {
				sb.WriteString(`\[`)
				break
			}
			sb.WriteString(string(runes[i : end+1]))
			i = end
		default:
			sb.WriteString(regexp2.Escape(string(c)))
		}
	}
	sb.WriteString(`\z`)
	return sb.String()
}
