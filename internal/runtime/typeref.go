package runtime

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/source"
)

// TypeRef is the runtime descriptor behind a type literal. Operators -is,
// -isnot and -as, conversions, and catch-clause dispatch all resolve type
// names to one of these.
type TypeRef struct {
	Name    string
	Aliases []string

	// IsInstance reports whether a value already has this type.
	IsInstance func(v Value) bool

	// Convert coerces a value to this type; nil when the type does not
	// support conversion.
	Convert func(v Value) (Value, error)

	// MatchesError reports whether a raised error is caught by a clause of
	// this type; nil for non-exception types.
	MatchesError func(err error) bool
}

// TypeValue is a type literal in value position.
type TypeValue struct {
	Ref *TypeRef
}

// Type returns "type".
func (t *TypeValue) Type() string { return "type" }

// String returns the bracketed type name.
func (t *TypeValue) String() string { return "[" + t.Ref.Name + "]" }

func convErr(name string, v Value) error {
	return errors.NewRuntimeError(source.EmptyExtent, errors.IDConvertFailed,
		"cannot convert value %q to type [%s]", ToString(v), name).WithTarget(v)
}

var builtinTypes []*TypeRef

func registerType(t *TypeRef) *TypeRef {
	builtinTypes = append(builtinTypes, t)
	return t
}

// The synthetic custom-object type matches any wrapped dynamic object, and
// the wrapper type matches any wrapped value; both documented special cases
// of the -is operator.
var (
	TypeObject = registerType(&TypeRef{
		Name:       "object",
		Aliases:    []string{"System.Object"},
		IsInstance: func(v Value) bool { return !IsNull(v) },
		Convert:    func(v Value) (Value, error) { return v, nil },
	})

	TypeInt = registerType(&TypeRef{
		Name:    "int",
		Aliases: []string{"int32", "int64", "long", "System.Int32", "System.Int64"},
		IsInstance: func(v Value) bool {
			_, ok := v.(*IntegerValue)
			return ok
		},
		Convert: func(v Value) (Value, error) {
			switch val := v.(type) {
			case *IntegerValue:
				return val, nil
			case *FloatValue:
				return Int(int64(val.Value + 0.5)), nil
			case *BoolValue:
				if val.Value {
					return Int(1), nil
				}
				return Int(0), nil
			case *CharValue:
				return Int(int64(val.Value)), nil
			case *NullValue, nil:
				return Int(0), nil
			default:
				if n, err := cast.ToInt64E(ToString(v)); err == nil {
					return Int(n), nil
				}
				return nil, convErr("int", v)
			}
		},
	})

	TypeDouble = registerType(&TypeRef{
		Name:    "double",
		Aliases: []string{"float", "single", "System.Double"},
		IsInstance: func(v Value) bool {
			_, ok := v.(*FloatValue)
			return ok
		},
		Convert: func(v Value) (Value, error) {
			i, f, isFloat, ok := AsNumber(v)
			if !ok {
				return nil, convErr("double", v)
			}
			if isFloat {
				return Float(f), nil
			}
			return Float(float64(i)), nil
		},
	})

	TypeString = registerType(&TypeRef{
		Name:    "string",
		Aliases: []string{"System.String"},
		IsInstance: func(v Value) bool {
			_, ok := v.(*StringValue)
			return ok
		},
		Convert: func(v Value) (Value, error) { return Str(ToString(v)), nil },
	})

	TypeBool = registerType(&TypeRef{
		Name:    "bool",
		Aliases: []string{"boolean", "System.Boolean"},
		IsInstance: func(v Value) bool {
			_, ok := v.(*BoolValue)
			return ok
		},
		Convert: func(v Value) (Value, error) { return Bool(IsTruthy(v)), nil },
	})

	TypeChar = registerType(&TypeRef{
		Name:    "char",
		Aliases: []string{"System.Char"},
		IsInstance: func(v Value) bool {
			_, ok := v.(*CharValue)
			return ok
		},
		Convert: func(v Value) (Value, error) {
			switch val := v.(type) {
			case *CharValue:
				return val, nil
			case *StringValue:
				runes := []rune(val.Value)
				if len(runes) == 1 {
					return Char(runes[0]), nil
				}
				return nil, convErr("char", v)
			case *IntegerValue:
				return Char(rune(val.Value)), nil
			default:
				return nil, convErr("char", v)
			}
		},
	})

	TypeArray = registerType(&TypeRef{
		Name:    "array",
		Aliases: []string{"object[]", "System.Array", "System.Object[]"},
		IsInstance: func(v Value) bool {
			_, ok := v.(*ArrayValue)
			return ok
		},
		Convert: func(v Value) (Value, error) {
			if arr, ok := v.(*ArrayValue); ok {
				return arr, nil
			}
			if IsNull(v) {
				return &ArrayValue{}, nil
			}
			return &ArrayValue{Elements: []Value{v}}, nil
		},
	})

	TypeHashtable = registerType(&TypeRef{
		Name:    "hashtable",
		Aliases: []string{"System.Collections.Hashtable"},
		IsInstance: func(v Value) bool {
			_, ok := v.(*HashtableValue)
			return ok
		},
	})

	TypeOrdered = registerType(&TypeRef{
		Name:    "ordered",
		Aliases: []string{"System.Collections.Specialized.OrderedDictionary"},
		IsInstance: func(v Value) bool {
			h, ok := v.(*HashtableValue)
			return ok && h.Ordered
		},
	})

	TypeScriptBlock = registerType(&TypeRef{
		Name:    "scriptblock",
		Aliases: []string{"System.Management.Automation.ScriptBlock"},
		IsInstance: func(v Value) bool {
			_, ok := v.(*ScriptBlockValue)
			return ok
		},
	})

	TypeVoid = registerType(&TypeRef{
		Name:       "void",
		Aliases:    []string{"System.Void"},
		IsInstance: func(v Value) bool { return false },
		Convert:    func(v Value) (Value, error) { return Null, nil },
	})

	TypeRefWrapper = registerType(&TypeRef{
		Name:       "ref",
		Aliases:    []string{"System.Management.Automation.PSReference"},
		IsInstance: func(v Value) bool { return false },
	})

	TypePSObject = registerType(&TypeRef{
		Name:    "psobject",
		Aliases: []string{"pscustomobject", "System.Management.Automation.PSObject"},
		IsInstance: func(v Value) bool {
			_, ok := v.(*WrappedValue)
			return ok
		},
	})

	TypeException = registerType(&TypeRef{
		Name:    "Exception",
		Aliases: []string{"System.Exception", "RuntimeException", "System.Management.Automation.RuntimeException"},
		IsInstance: func(v Value) bool {
			w, ok := v.(*WrappedValue)
			if !ok {
				return false
			}
			_, ok = w.Value.(error)
			return ok
		},
		MatchesError: func(err error) bool { return true },
	})
)

// LookupType resolves a type literal name to its descriptor; names compare
// case-insensitively across names and aliases. Unknown names resolve to an
// error-id-matching exception descriptor so catch clauses can name specific
// runtime error kinds.
func LookupType(name string) (*TypeRef, bool) {
	trimmed := strings.TrimSuffix(name, "[]")
	for _, t := range builtinTypes {
		if strings.EqualFold(t.Name, trimmed) {
			return t, true
		}
		for _, a := range t.Aliases {
			if strings.EqualFold(a, trimmed) {
				return t, true
			}
		}
	}
	if strings.HasSuffix(strings.ToLower(trimmed), "exception") {
		return ExceptionTypeRef(trimmed), true
	}
	return nil, false
}

// ExceptionTypeRef builds a descriptor matching runtime errors whose id
// equals the leaf of the given exception type name.
func ExceptionTypeRef(name string) *TypeRef {
	leaf := name
	if idx := strings.LastIndexByte(leaf, '.'); idx >= 0 {
		leaf = leaf[idx+1:]
	}
	return &TypeRef{
		Name:       name,
		IsInstance: func(v Value) bool { return false },
		MatchesError: func(err error) bool {
			re, ok := err.(*errors.RuntimeError)
			if !ok {
				return false
			}
			return strings.EqualFold(re.ID, leaf) || strings.EqualFold(re.ID+"Exception", leaf)
		},
	}
}
