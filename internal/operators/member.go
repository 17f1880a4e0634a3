package operators

import (
	"reflect"
	"strings"

	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// GetMember resolves a property read on a target value. Unknown members read
// as null, matching the language's non-strict member semantics; a null
// target also reads as null.
func GetMember(extent source.Extent, target runtime.Value, name string) (runtime.Value, error) {
	if runtime.IsNull(target) {
		return runtime.Null, nil
	}

	switch t := target.(type) {
	case *runtime.StringValue:
		if strings.EqualFold(name, "Length") {
			return runtime.Int(int64(len([]rune(t.Value)))), nil
		}
	case *runtime.ArrayValue:
		if strings.EqualFold(name, "Length") || strings.EqualFold(name, "Count") || strings.EqualFold(name, "LongLength") {
			return runtime.Int(int64(len(t.Elements))), nil
		}
	case *runtime.HashtableValue:
		switch {
		case strings.EqualFold(name, "Count"):
			return runtime.Int(int64(t.Len())), nil
		case strings.EqualFold(name, "Keys"):
			keys := t.Keys()
			out := make([]runtime.Value, len(keys))
			for i, k := range keys {
				out[i] = runtime.Str(k)
			}
			return &runtime.ArrayValue{Elements: out}, nil
		case strings.EqualFold(name, "Values"):
			return &runtime.ArrayValue{Elements: t.Values()}, nil
		default:
			if v, ok := t.Get(name); ok {
				return v, nil
			}
		}
	case *runtime.WrappedValue:
		if v, ok := wrappedMember(t, name); ok {
			return v, nil
		}
	}

	return runtime.Null, nil
}

// wrappedMember resolves members of host objects: error records expose
// Message-shaped properties, anything else goes through reflection over
// exported fields and zero-argument methods.
func wrappedMember(w *runtime.WrappedValue, name string) (runtime.Value, bool) {
	if re, ok := w.Value.(*errors.RuntimeError); ok {
		switch {
		case strings.EqualFold(name, "Message"):
			return runtime.Str(re.Message), true
		case strings.EqualFold(name, "FullyQualifiedErrorId"):
			return runtime.Str(re.ID), true
		case strings.EqualFold(name, "TargetObject"):
			return runtime.FromGo(re.Target), true
		case strings.EqualFold(name, "Exception"):
			return w, true
		}
	}
	if err, ok := w.Value.(error); ok && strings.EqualFold(name, "Message") {
		return runtime.Str(err.Error()), true
	}

	rv := reflect.ValueOf(w.Value)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		elem := rv.Elem()
		if f := fieldByFoldedName(elem, name); f.IsValid() {
			return runtime.FromGo(f.Interface()), true
		}
		rv = elem
	}
	if rv.Kind() == reflect.Struct {
		if f := fieldByFoldedName(rv, name); f.IsValid() {
			return runtime.FromGo(f.Interface()), true
		}
	}
	return nil, false
}

func fieldByFoldedName(rv reflect.Value, name string) reflect.Value {
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return rv.Field(i)
		}
	}
	return reflect.Value{}
}

// SetMember resolves a property write. Hashtable keys are settable; other
// targets report a property-assignment failure.
func SetMember(extent source.Extent, target runtime.Value, name string, value runtime.Value) error {
	if h, ok := target.(*runtime.HashtableValue); ok {
		h.Set(name, value)
		return nil
	}
	return errors.NewRuntimeError(extent, errors.IDPropertyAssignmentNotSupported,
		"the property %q cannot be set on a value of type %s", name, target.Type()).WithTarget(target)
}

// GetIndex resolves target[index]. An array-literal index of two or more
// elements produces one lookup per element; negative array indexes count
// from the end; an out-of-range read is null.
func GetIndex(extent source.Extent, target, index runtime.Value) (runtime.Value, error) {
	if runtime.IsNull(target) {
		return nil, errors.NewRuntimeError(extent, errors.IDNullArrayIndex, "cannot index into a null array")
	}

	if multi, ok := index.(*runtime.ArrayValue); ok && len(multi.Elements) >= 2 {
		out := make([]runtime.Value, len(multi.Elements))
		for i, ix := range multi.Elements {
			v, err := GetIndex(extent, target, ix)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return &runtime.ArrayValue{Elements: out}, nil
	}

	switch t := target.(type) {
	case *runtime.ArrayValue:
		n, _, _, ok := runtime.AsNumber(index)
		if !ok {
			return nil, errors.NewRuntimeError(extent, errors.IDNotIndexable,
				"array index must be numeric").WithTarget(index)
		}
		if n < 0 {
			n += int64(len(t.Elements))
		}
		if n < 0 || n >= int64(len(t.Elements)) {
			return runtime.Null, nil
		}
		return t.Elements[n], nil

	case *runtime.StringValue:
		runes := []rune(t.Value)
		n, _, _, ok := runtime.AsNumber(index)
		if !ok {
			return nil, errors.NewRuntimeError(extent, errors.IDNotIndexable,
				"string index must be numeric").WithTarget(index)
		}
		if n < 0 {
			n += int64(len(runes))
		}
		if n < 0 || n >= int64(len(runes)) {
			return runtime.Null, nil
		}
		return runtime.Char(runes[n]), nil

	case *runtime.HashtableValue:
		if v, ok := t.Get(runtime.ToString(index)); ok {
			return v, nil
		}
		return runtime.Null, nil

	default:
		return nil, errors.NewRuntimeError(extent, errors.IDNotIndexable,
			"cannot index into a value of type %s", target.Type()).WithTarget(target)
	}
}

// SetIndex resolves target[index] = value.
func SetIndex(extent source.Extent, target, index, value runtime.Value) error {
	switch t := target.(type) {
	case *runtime.ArrayValue:
		n, _, _, ok := runtime.AsNumber(index)
		if !ok {
			return errors.NewRuntimeError(extent, errors.IDNotIndexable,
				"array index must be numeric").WithTarget(index)
		}
		if n < 0 {
			n += int64(len(t.Elements))
		}
		if n < 0 || n >= int64(len(t.Elements)) {
			return errors.NewRuntimeError(extent, errors.IDNotIndexable,
				"index %d is outside the bounds of the array", n).WithTarget(target)
		}
		t.Elements[n] = value
		return nil

	case *runtime.HashtableValue:
		t.Set(runtime.ToString(index), value)
		return nil

	default:
		return errors.NewRuntimeError(extent, errors.IDNotIndexable,
			"cannot index into a value of type %s", target.Type()).WithTarget(target)
	}
}
