package operators

import (
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

// resolveTypeOperand resolves the right operand of -is/-isnot/-as to a type
// descriptor: a type value directly, or a string naming a type.
func resolveTypeOperand(extent source.Extent, right runtime.Value) (*runtime.TypeRef, error) {
	switch r := right.(type) {
	case *runtime.TypeValue:
		return r.Ref, nil
	case *runtime.StringValue:
		if ref, ok := runtime.LookupType(r.Value); ok {
			return ref, nil
		}
	}
	return nil, errors.NewRuntimeError(extent, errors.IDIsOperatorRequiresType,
		"the right operand of -is, -isnot or -as must be a type").WithTarget(right)
}

// Is implements -is and -isnot.
func Is(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value, negate bool) (runtime.Value, error) {
	ref, err := resolveTypeOperand(extent, right)
	if err != nil {
		return nil, err
	}
	return runtime.Bool(ref.IsInstance(left) != negate), nil
}

// As implements -as: a conversion that yields null instead of failing.
func As(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	ref, err := resolveTypeOperand(extent, right)
	if err != nil {
		return nil, err
	}
	if ref.IsInstance(left) {
		return left, nil
	}
	if ref.Convert == nil {
		return runtime.Null, nil
	}
	converted, err := ref.Convert(left)
	if err != nil {
		return runtime.Null, nil
	}
	return converted, nil
}

// ConvertTo implements cast expressions: unlike -as, a failed conversion is
// an error at the cast's extent.
func ConvertTo(extent source.Extent, ref *runtime.TypeRef, v runtime.Value) (runtime.Value, error) {
	if ref.IsInstance(v) {
		return v, nil
	}
	if ref.Convert == nil {
		return nil, errors.NewRuntimeError(extent, errors.IDConvertFailed,
			"cannot convert value of type %s to [%s]", v.Type(), ref.Name).WithTarget(v)
	}
	converted, err := ref.Convert(v)
	if err != nil {
		return nil, runtime.WrapError(err, extent, errors.IDConvertFailed)
	}
	return converted, nil
}

// Range implements the .. operator, producing the lazy inclusive integer
// sequence from lo to hi.
func Range(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	lo, lf, lFloat, okL := runtime.AsNumber(left)
	hi, hf, rFloat, okR := runtime.AsNumber(right)
	if !okL || !okR {
		return nil, errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
			"the range operator requires numeric bounds")
	}
	if lFloat {
		lo = int64(lf + 0.5)
	}
	if rFloat {
		hi = int64(hf + 0.5)
	}
	return &runtime.WrappedValue{Value: runtime.NewRangeEnumerator(lo, hi)}, nil
}
