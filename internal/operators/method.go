package operators

import (
	"strings"

	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// InvocationConstraints carries the statically known types of a method call:
// the target's declared type and each argument's declared type, so overload
// resolution can prefer type-exact candidates. Entries are nil when the
// static type is unknown.
type InvocationConstraints struct {
	TargetType    *runtime.TypeRef
	ArgumentTypes []*runtime.TypeRef
}

// methodImpl is one built-in instance method.
type methodImpl func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error)

func needArgs(extent source.Extent, name string, args []runtime.Value, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return errors.NewRuntimeError(extent, errors.IDMethodNotFound,
			"cannot find an overload for %q and the argument count %d", name, len(args))
	}
	return nil
}

// commonMethods are available on every value.
var commonMethods = map[string]methodImpl{
	"tostring": func(_ source.Extent, target runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Str(runtime.ToString(target)), nil
	},
	"gettype": func(_ source.Extent, target runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Str(target.Type()), nil
	},
	"equals": func(_ source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if len(args) != 1 {
			return runtime.False, nil
		}
		return runtime.Bool(ValuesEqual(target, args[0], false)), nil
	},
}

var stringMethods = map[string]methodImpl{
	"toupper": func(_ source.Extent, target runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Str(strings.ToUpper(runtime.ToString(target))), nil
	},
	"tolower": func(_ source.Extent, target runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Str(strings.ToLower(runtime.ToString(target))), nil
	},
	"trim": func(_ source.Extent, target runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		return runtime.Str(strings.TrimSpace(runtime.ToString(target))), nil
	},
	"contains": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "Contains", args, 1, 1); err != nil {
			return nil, err
		}
		return runtime.Bool(strings.Contains(runtime.ToString(target), runtime.ToString(args[0]))), nil
	},
	"startswith": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "StartsWith", args, 1, 1); err != nil {
			return nil, err
		}
		return runtime.Bool(strings.HasPrefix(runtime.ToString(target), runtime.ToString(args[0]))), nil
	},
	"endswith": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "EndsWith", args, 1, 1); err != nil {
			return nil, err
		}
		return runtime.Bool(strings.HasSuffix(runtime.ToString(target), runtime.ToString(args[0]))), nil
	},
	"replace": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "Replace", args, 2, 2); err != nil {
			return nil, err
		}
		return runtime.Str(strings.ReplaceAll(runtime.ToString(target),
			runtime.ToString(args[0]), runtime.ToString(args[1]))), nil
	},
	"split": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "Split", args, 1, 1); err != nil {
			return nil, err
		}
		parts := strings.Split(runtime.ToString(target), runtime.ToString(args[0]))
		out := make([]runtime.Value, len(parts))
		for i, p := range parts {
			out[i] = runtime.Str(p)
		}
		return &runtime.ArrayValue{Elements: out}, nil
	},
	"indexof": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "IndexOf", args, 1, 1); err != nil {
			return nil, err
		}
		return runtime.Int(int64(strings.Index(runtime.ToString(target), runtime.ToString(args[0])))), nil
	},
	"substring": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "Substring", args, 1, 2); err != nil {
			return nil, err
		}
		runes := []rune(runtime.ToString(target))
		start, _, _, ok := runtime.AsNumber(args[0])
		if !ok || start < 0 || start > int64(len(runes)) {
			return nil, errors.NewRuntimeError(extent, errors.IDMethodInvocationException,
				"Substring start index is out of range").WithTarget(target)
		}
		if len(args) == 1 {
			return runtime.Str(string(runes[start:])), nil
		}
		length, _, _, ok := runtime.AsNumber(args[1])
		if !ok || length < 0 || start+length > int64(len(runes)) {
			return nil, errors.NewRuntimeError(extent, errors.IDMethodInvocationException,
				"Substring length is out of range").WithTarget(target)
		}
		return runtime.Str(string(runes[start : start+length])), nil
	},
	"padleft": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "PadLeft", args, 1, 1); err != nil {
			return nil, err
		}
		s := runtime.ToString(target)
		width, _, _, _ := runtime.AsNumber(args[0])
		for int64(len(s)) < width {
			s = " " + s
		}
		return runtime.Str(s), nil
	},
	"padright": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "PadRight", args, 1, 1); err != nil {
			return nil, err
		}
		s := runtime.ToString(target)
		width, _, _, _ := runtime.AsNumber(args[0])
		for int64(len(s)) < width {
			s += " "
		}
		return runtime.Str(s), nil
	},
}

var hashtableMethods = map[string]methodImpl{
	"containskey": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "ContainsKey", args, 1, 1); err != nil {
			return nil, err
		}
		h := target.(*runtime.HashtableValue)
		return runtime.Bool(h.Has(runtime.ToString(args[0]))), nil
	},
	"add": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "Add", args, 2, 2); err != nil {
			return nil, err
		}
		h := target.(*runtime.HashtableValue)
		key := runtime.ToString(args[0])
		if h.Has(key) {
			return nil, errors.NewRuntimeError(extent, errors.IDDuplicateKey,
				"item with key %q has already been added", key).WithTarget(target)
		}
		h.Set(key, args[1])
		return runtime.Null, nil
	},
	"remove": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		if err := needArgs(extent, "Remove", args, 1, 1); err != nil {
			return nil, err
		}
		target.(*runtime.HashtableValue).Remove(runtime.ToString(args[0]))
		return runtime.Null, nil
	},
	"clear": func(_ source.Extent, target runtime.Value, _ []runtime.Value) (runtime.Value, error) {
		h := target.(*runtime.HashtableValue)
		for _, k := range h.Keys() {
			h.Remove(k)
		}
		return runtime.Null, nil
	},
}

var scriptBlockMethods = map[string]methodImpl{
	"invoke": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		sb := target.(*runtime.ScriptBlockValue)
		out, err := sb.Invoke(runtime.Null, nil, args)
		if err != nil {
			return nil, err
		}
		return &runtime.ArrayValue{Elements: out}, nil
	},
	"invokereturnasis": func(extent source.Extent, target runtime.Value, args []runtime.Value) (runtime.Value, error) {
		sb := target.(*runtime.ScriptBlockValue)
		out, err := sb.Invoke(runtime.Null, nil, args)
		if err != nil {
			return nil, err
		}
		return runtime.PipelineResult(out), nil
	},
}

// resolveMethod finds a built-in instance method for the target kind.
func resolveMethod(target runtime.Value, name string) (methodImpl, bool) {
	folded := strings.ToLower(name)
	switch target.(type) {
	case *runtime.StringValue:
		if m, ok := stringMethods[folded]; ok {
			return m, true
		}
	case *runtime.HashtableValue:
		if m, ok := hashtableMethods[folded]; ok {
			return m, true
		}
	case *runtime.ScriptBlockValue:
		if m, ok := scriptBlockMethods[folded]; ok {
			return m, true
		}
	}
	m, ok := commonMethods[folded]
	return m, ok
}

// CallMethod invokes a method on a target value. A static call resolves
// against the type object; an instance call resolves against the target's
// member table. Errors raised by the method body are wrapped as
// method-invocation failures unless they already pass through.
func CallMethod(extent source.Extent, target runtime.Value, name string, constraints *InvocationConstraints, args []runtime.Value, static bool, valueToSet runtime.Value) (runtime.Value, error) {
	if runtime.IsNull(target) {
		return nil, errors.NewRuntimeError(extent, errors.IDInvokeMethodOnNull,
			"you cannot call a method on a null-valued expression")
	}

	if static {
		tv, ok := target.(*runtime.TypeValue)
		if !ok {
			return nil, errors.NewRuntimeError(extent, errors.IDMethodNotFound,
				"static member access requires a type, not a value of type %s", target.Type()).WithTarget(target)
		}
		return callStatic(extent, tv, name, args)
	}

	impl, found := resolveMethod(target, name)
	if !found {
		if valueToSet != nil {
			return nil, errors.NewRuntimeError(extent, errors.IDParameterizedPropertyAssignmentFailed,
				"%q is not a settable parameterized property on type %s", name, target.Type()).WithTarget(target)
		}
		return nil, errors.NewRuntimeError(extent, errors.IDMethodNotFound,
			"method %q not found on type %s", name, target.Type()).WithTarget(target)
	}
	if valueToSet != nil {
		return nil, errors.NewRuntimeError(extent, errors.IDParameterizedPropertyAssignmentFailed,
			"%q is not a settable parameterized property on type %s", name, target.Type()).WithTarget(target)
	}

	_ = constraints // built-in members have no overloads to disambiguate

	out, err := impl(extent, target, args)
	if err != nil {
		return nil, runtime.WrapError(err, extent, errors.IDMethodInvocationException)
	}
	return out, nil
}

// callStatic resolves the small static member surface of built-in types:
// [type]::new(...) runs the type's converter over a single argument.
func callStatic(extent source.Extent, tv *runtime.TypeValue, name string, args []runtime.Value) (runtime.Value, error) {
	if strings.EqualFold(name, "new") && tv.Ref.Convert != nil && len(args) == 1 {
		return ConvertTo(extent, tv.Ref, args[0])
	}
	return nil, errors.NewRuntimeError(extent, errors.IDMethodNotFound,
		"method %q not found on type [%s]", name, tv.Ref.Name)
}
