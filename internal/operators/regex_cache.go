// Package operators implements the semantics of the language's binary and
// unary operators as pure functions. The compiler lowers operator nodes to
// calls into this package; the only hidden state is the bounded regex cache.
package operators

import (
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/source"
)

// regexCacheLimit bounds the case-insensitive pattern cache. On overflow the
// cache is cleared wholesale rather than evicted per-entry; the simplicity is
// deliberate and tests depend on it.
const regexCacheLimit = 1000

var (
	regexCacheMu sync.Mutex
	regexCache   = make(map[string]*regexp2.Regexp)
)

// NewRegex compiles pattern with the case-insensitive option, consulting the
// process-wide cache. Only the ignore-case option is cached; other option
// combinations compile fresh.
func NewRegex(extent source.Extent, pattern string) (*regexp2.Regexp, error) {
	regexCacheMu.Lock()
	if re, ok := regexCache[pattern]; ok {
		regexCacheMu.Unlock()
		return re, nil
	}
	regexCacheMu.Unlock()

	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, errors.NewWrappedRuntimeError(extent, errors.IDInvalidRegularExpression, err)
	}

	regexCacheMu.Lock()
	if len(regexCache) >= regexCacheLimit {
		regexCache = make(map[string]*regexp2.Regexp)
	}
	regexCache[pattern] = re
	regexCacheMu.Unlock()
	return re, nil
}

// CompileRegex compiles pattern with explicit options, bypassing the cache.
func CompileRegex(extent source.Extent, pattern string, options regexp2.RegexOptions) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(pattern, options)
	if err != nil {
		return nil, errors.NewWrappedRuntimeError(extent, errors.IDInvalidRegularExpression, err)
	}
	return re, nil
}

// RegexCacheSize reports the current cache population.
func RegexCacheSize() int {
	regexCacheMu.Lock()
	defer regexCacheMu.Unlock()
	return len(regexCache)
}

// ResetRegexCache empties the cache.
func ResetRegexCache() {
	regexCacheMu.Lock()
	defer regexCacheMu.Unlock()
	regexCache = make(map[string]*regexp2.Regexp)
}
