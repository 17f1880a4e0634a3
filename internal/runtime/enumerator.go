package runtime

import (
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/source"
)

// Enumerator steps through an enumerable value. MoveNext advances and
// reports whether an element is available; Current returns it.
type Enumerator interface {
	MoveNext() (bool, error)
	Current() (Value, error)
}

// sliceEnumerator walks a fixed element slice.
type sliceEnumerator struct {
	elements []Value
	index    int
}

func (e *sliceEnumerator) MoveNext() (bool, error) {
	if e.index+1 >= len(e.elements) {
		return false, nil
	}
	e.index++
	return true, nil
}

func (e *sliceEnumerator) Current() (Value, error) {
	if e.index < 0 || e.index >= len(e.elements) {
		return nil, errors.NewRuntimeError(source.EmptyExtent, errors.IDBadEnumeration, "enumeration has not started or has finished")
	}
	return e.elements[e.index], nil
}

// NewSliceEnumerator creates an enumerator over elements.
func NewSliceEnumerator(elements []Value) Enumerator {
	return &sliceEnumerator{elements: elements, index: -1}
}

// RangeEnumerator yields the lazy integer sequence of the .. operator:
// lo to hi inclusive, stepping -1 when lo > hi. The sequence is finite,
// restartable via Reset, and yields at least one element.
type RangeEnumerator struct {
	lo, hi  int64
	step    int64
	current int64
	started bool
	done    bool
}

// NewRangeEnumerator creates the enumerator for lo..hi.
func NewRangeEnumerator(lo, hi int64) *RangeEnumerator {
	step := int64(1)
	if lo > hi {
		step = -1
	}
	return &RangeEnumerator{lo: lo, hi: hi, step: step}
}

// Reset restarts the sequence.
func (e *RangeEnumerator) Reset() {
	e.started = false
	e.done = false
}

func (e *RangeEnumerator) MoveNext() (bool, error) {
	if e.done {
		return false, nil
	}
	if !e.started {
		e.started = true
		e.current = e.lo
		return true, nil
	}
	if e.current == e.hi {
		e.done = true
		return false, nil
	}
	e.current += e.step
	return true, nil
}

func (e *RangeEnumerator) Current() (Value, error) {
	if !e.started || e.done {
		return nil, errors.NewRuntimeError(source.EmptyExtent, errors.IDBadEnumeration, "enumeration has not started or has finished")
	}
	return Int(e.current), nil
}

// GetEnumerator returns an enumerator for v, or nil when v does not
// enumerate. Strings, hashtables and scalars are not enumerable; arrays and
// enumerator-bearing wrapped values are.
func GetEnumerator(v Value) Enumerator {
	switch val := v.(type) {
	case *ArrayValue:
		return NewSliceEnumerator(val.Elements)
	case *WrappedValue:
		if e, ok := val.Value.(Enumerator); ok {
			return e
		}
		return nil
	default:
		return nil
	}
}

// IsEnumerable reports whether v enumerates.
func IsEnumerable(v Value) bool { return GetEnumerator(v) != nil }

// EnumeratorMoveNext advances an enumerator on the evaluator's behalf.
// It polls pipeline cancellation before the underlying call, re-raises
// flow-control and pipeline-stopped signals, runtime errors and call-depth
// errors unchanged, and wraps all other failures as a bad-enumeration runtime
// error at the extent.
func EnumeratorMoveNext(ctx ExecutionContext, extent source.Extent, e Enumerator) (bool, error) {
	if err := CheckForInterrupts(ctx); err != nil {
		return false, err
	}
	ok, err := e.MoveNext()
	if err != nil {
		return false, WrapError(err, extent, errors.IDBadEnumeration)
	}
	return ok, nil
}

// EnumeratorCurrent reads the current element on the evaluator's behalf,
// with the same wrapping policy as EnumeratorMoveNext.
func EnumeratorCurrent(extent source.Extent, e Enumerator) (Value, error) {
	v, err := e.Current()
	if err != nil {
		return nil, WrapError(err, extent, errors.IDBadEnumeration)
	}
	return v, nil
}

// Enumerate collects every element of v. Scalars yield a one-element slice;
// null yields an empty slice.
func Enumerate(ctx ExecutionContext, extent source.Extent, v Value) ([]Value, error) {
	if IsNull(v) {
		return nil, nil
	}
	e := GetEnumerator(v)
	if e == nil {
		return []Value{v}, nil
	}
	var out []Value
	for {
		ok, err := EnumeratorMoveNext(ctx, extent, e)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		cur, err := EnumeratorCurrent(extent, e)
		if err != nil {
			return nil, err
		}
		out = append(out, cur)
	}
}
