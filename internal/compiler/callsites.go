package compiler

import (
	"sync"

	"github.com/cwbudde/go-psh/internal/operators"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
	"github.com/cwbudde/go-psh/internal/token"
)

// binarySiteKey identifies a shareable binary-operation call site. The -c
// variants normalize to their -i counterpart plus the case flag, so sites
// for identical semantics are shared process-wide.
type binarySiteKey struct {
	op            token.Kind
	ignoreCase    bool
	scalarCompare bool
}

// BinaryCallSite is a dynamic binary-operation site with a monomorphic
// inline cache: the last seen operand kind pair. The cache exists for the
// evaluator's benefit; a miss only refreshes the slot.
type BinaryCallSite struct {
	op token.Kind

	mu        sync.Mutex
	lastLeft  string
	lastRight string
	hits      uint64
	misses    uint64
}

// Invoke evaluates the site's operator for the operand pair.
func (s *BinaryCallSite) Invoke(ctx runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	s.mu.Lock()
	if s.lastLeft == left.Type() && s.lastRight == right.Type() {
		s.hits++
	} else {
		s.lastLeft = left.Type()
		s.lastRight = right.Type()
		s.misses++
	}
	s.mu.Unlock()
	return operators.BinaryOperation(ctx, extent, s.op, left, right)
}

var (
	binarySitesMu sync.Mutex
	binarySites   = make(map[binarySiteKey]*BinaryCallSite)
)

// sharedBinarySite returns the process-wide site for an operator shape.
func sharedBinarySite(op token.Kind, scalarCompare bool) *BinaryCallSite {
	key := binarySiteKey{
		op:            op.CaseInsensitiveVariant(),
		ignoreCase:    !op.CaseSensitive(),
		scalarCompare: scalarCompare,
	}
	binarySitesMu.Lock()
	defer binarySitesMu.Unlock()
	if site, ok := binarySites[key]; ok {
		return site
	}
	site := &BinaryCallSite{op: op}
	binarySites[key] = site
	return site
}

// memberCallSite is a get-member site parametrized by member name and
// static-ness, with a monomorphic target-kind cache.
type memberCallSite struct {
	name   string
	static bool

	mu       sync.Mutex
	lastKind string
}

func (s *memberCallSite) get(extent source.Extent, target runtime.Value) (runtime.Value, error) {
	s.mu.Lock()
	s.lastKind = target.Type()
	s.mu.Unlock()
	return operators.GetMember(extent, target, s.name)
}

// invokeMemberCallSite is an invoke-member site parametrized by name,
// static-ness, and the call's invocation constraints.
type invokeMemberCallSite struct {
	name        string
	static      bool
	propertySet bool
	constraints *operators.InvocationConstraints

	mu       sync.Mutex
	lastKind string
}

func (s *invokeMemberCallSite) invoke(extent source.Extent, target runtime.Value, args []runtime.Value, valueToSet runtime.Value) (runtime.Value, error) {
	s.mu.Lock()
	s.lastKind = target.Type()
	s.mu.Unlock()
	return operators.CallMethod(extent, target, s.name, s.constraints, args, s.static, valueToSet)
}
