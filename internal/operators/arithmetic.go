package operators

import (
	"math"
	"strings"

	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
)

func badOperand(extent source.Extent, op string, left, right runtime.Value) error {
	return errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
		"operator %q is not defined for operands of type %s and %s", op, left.Type(), right.Type()).
		WithTarget(left)
}

// numericPair extracts a common numeric representation of both operands.
func numericPair(left, right runtime.Value) (li, ri int64, lf, rf float64, isFloat, ok bool) {
	il, fl, floatL, okL := runtime.AsNumber(left)
	ir, fr, floatR, okR := runtime.AsNumber(right)
	if !okL || !okR {
		return 0, 0, 0, 0, false, false
	}
	if floatL || floatR {
		if !floatL {
			fl = float64(il)
		}
		if !floatR {
			fr = float64(ir)
		}
		return 0, 0, fl, fr, true, true
	}
	return il, ir, 0, 0, false, true
}

// Add implements the + operator: numeric addition, string concatenation,
// array append, and hashtable merge.
func Add(ctx runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	switch l := left.(type) {
	case *runtime.StringValue:
		return runtime.Str(l.Value + runtime.ToString(right)), nil
	case *runtime.ArrayValue:
		appended, err := runtime.Enumerate(ctx, extent, right)
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, 0, len(l.Elements)+len(appended))
		out = append(out, l.Elements...)
		out = append(out, appended...)
		return &runtime.ArrayValue{Elements: out}, nil
	case *runtime.HashtableValue:
		r, ok := right.(*runtime.HashtableValue)
		if !ok {
			return nil, badOperand(extent, "+", left, right)
		}
		out := runtime.NewHashtable(l.Ordered)
		for _, k := range l.Keys() {
			v, _ := l.Get(k)
			out.Set(k, v)
		}
		for _, k := range r.Keys() {
			if out.Has(k) {
				return nil, errors.NewRuntimeError(extent, errors.IDDuplicateKey,
					"item with key %q has already been added", k)
			}
			v, _ := r.Get(k)
			out.Set(k, v)
		}
		return out, nil
	}

	li, ri, lf, rf, isFloat, ok := numericPair(left, right)
	if !ok {
		return nil, badOperand(extent, "+", left, right)
	}
	if isFloat {
		return runtime.Float(lf + rf), nil
	}
	return runtime.Int(li + ri), nil
}

// Subtract implements the - operator.
func Subtract(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	li, ri, lf, rf, isFloat, ok := numericPair(left, right)
	if !ok {
		return nil, badOperand(extent, "-", left, right)
	}
	if isFloat {
		return runtime.Float(lf - rf), nil
	}
	return runtime.Int(li - ri), nil
}

// Multiply implements the * operator: numeric product, string repetition,
// and array repetition.
func Multiply(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	switch l := left.(type) {
	case *runtime.StringValue:
		n, _, isFloat, ok := runtime.AsNumber(right)
		if !ok || isFloat || n < 0 {
			return nil, badOperand(extent, "*", left, right)
		}
		return runtime.Str(strings.Repeat(l.Value, int(n))), nil
	case *runtime.ArrayValue:
		n, _, isFloat, ok := runtime.AsNumber(right)
		if !ok || isFloat || n < 0 {
			return nil, badOperand(extent, "*", left, right)
		}
		out := make([]runtime.Value, 0, len(l.Elements)*int(n))
		for i := int64(0); i < n; i++ {
			out = append(out, l.Elements...)
		}
		return &runtime.ArrayValue{Elements: out}, nil
	}

	li, ri, lf, rf, isFloat, ok := numericPair(left, right)
	if !ok {
		return nil, badOperand(extent, "*", left, right)
	}
	if isFloat {
		return runtime.Float(lf * rf), nil
	}
	return runtime.Int(li * ri), nil
}

// Divide implements the / operator. Integer division that does not divide
// evenly promotes to float, matching the language's numeric tower.
func Divide(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	li, ri, lf, rf, isFloat, ok := numericPair(left, right)
	if !ok {
		return nil, badOperand(extent, "/", left, right)
	}
	if isFloat {
		if rf == 0 {
			return nil, errors.NewRuntimeError(extent, errors.IDDivideByZero, "attempted to divide by zero")
		}
		return runtime.Float(lf / rf), nil
	}
	if ri == 0 {
		return nil, errors.NewRuntimeError(extent, errors.IDDivideByZero, "attempted to divide by zero")
	}
	if li%ri != 0 {
		return runtime.Float(float64(li) / float64(ri)), nil
	}
	return runtime.Int(li / ri), nil
}

// Remainder implements the % operator.
func Remainder(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	li, ri, lf, rf, isFloat, ok := numericPair(left, right)
	if !ok {
		return nil, badOperand(extent, "%", left, right)
	}
	if isFloat {
		if rf == 0 {
			return nil, errors.NewRuntimeError(extent, errors.IDDivideByZero, "attempted to divide by zero")
		}
		return runtime.Float(math.Mod(lf, rf)), nil
	}
	if ri == 0 {
		return nil, errors.NewRuntimeError(extent, errors.IDDivideByZero, "attempted to divide by zero")
	}
	return runtime.Int(li % ri), nil
}

func integerPair(extent source.Extent, op string, left, right runtime.Value) (int64, int64, error) {
	li, ri, lf, rf, isFloat, ok := numericPair(left, right)
	if !ok {
		return 0, 0, badOperand(extent, op, left, right)
	}
	if isFloat {
		return int64(lf), int64(rf), nil
	}
	return li, ri, nil
}

// ShiftLeft implements -shl.
func ShiftLeft(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	l, r, err := integerPair(extent, "-shl", left, right)
	if err != nil {
		return nil, err
	}
	return runtime.Int(l << uint64(r&0x3f)), nil
}

// ShiftRight implements -shr.
func ShiftRight(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	l, r, err := integerPair(extent, "-shr", left, right)
	if err != nil {
		return nil, err
	}
	return runtime.Int(l >> uint64(r&0x3f)), nil
}

// BitwiseAnd implements -band.
func BitwiseAnd(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	l, r, err := integerPair(extent, "-band", left, right)
	if err != nil {
		return nil, err
	}
	return runtime.Int(l & r), nil
}

// BitwiseOr implements -bor.
func BitwiseOr(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	l, r, err := integerPair(extent, "-bor", left, right)
	if err != nil {
		return nil, err
	}
	return runtime.Int(l | r), nil
}

// BitwiseXor implements -bxor.
func BitwiseXor(_ runtime.ExecutionContext, extent source.Extent, left, right runtime.Value) (runtime.Value, error) {
	l, r, err := integerPair(extent, "-bxor", left, right)
	if err != nil {
		return nil, err
	}
	return runtime.Int(l ^ r), nil
}

// BitwiseNot implements -bnot.
func BitwiseNot(_ runtime.ExecutionContext, extent source.Extent, operand runtime.Value) (runtime.Value, error) {
	i, f, isFloat, ok := runtime.AsNumber(operand)
	if !ok {
		return nil, errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
			"operator %q is not defined for operand of type %s", "-bnot", operand.Type())
	}
	if isFloat {
		i = int64(f)
	}
	return runtime.Int(^i), nil
}

// Negate implements unary -.
func Negate(_ runtime.ExecutionContext, extent source.Extent, operand runtime.Value) (runtime.Value, error) {
	i, f, isFloat, ok := runtime.AsNumber(operand)
	if !ok {
		return nil, errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
			"operator %q is not defined for operand of type %s", "-", operand.Type())
	}
	if isFloat {
		return runtime.Float(-f), nil
	}
	return runtime.Int(-i), nil
}

// UnaryPlus implements unary +, a numeric coercion.
func UnaryPlus(_ runtime.ExecutionContext, extent source.Extent, operand runtime.Value) (runtime.Value, error) {
	i, f, isFloat, ok := runtime.AsNumber(operand)
	if !ok {
		return nil, errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
			"operator %q is not defined for operand of type %s", "+", operand.Type())
	}
	if isFloat {
		return runtime.Float(f), nil
	}
	return runtime.Int(i), nil
}

// Not implements -not / !.
func Not(operand runtime.Value) runtime.Value {
	return runtime.Bool(!runtime.IsTruthy(operand))
}

// Increment returns operand + 1 preserving its numeric kind.
func Increment(_ runtime.ExecutionContext, extent source.Extent, operand runtime.Value) (runtime.Value, error) {
	i, f, isFloat, ok := runtime.AsNumber(operand)
	if !ok {
		return nil, errors.NewRuntimeError(extent, errors.IDOperatorRequiresVariable,
			"value of type %s cannot be incremented", operand.Type())
	}
	if isFloat {
		return runtime.Float(f + 1), nil
	}
	return runtime.Int(i + 1), nil
}

// Decrement returns operand - 1 preserving its numeric kind.
func Decrement(_ runtime.ExecutionContext, extent source.Extent, operand runtime.Value) (runtime.Value, error) {
	i, f, isFloat, ok := runtime.AsNumber(operand)
	if !ok {
		return nil, errors.NewRuntimeError(extent, errors.IDOperatorRequiresVariable,
			"value of type %s cannot be decremented", operand.Type())
	}
	if isFloat {
		return runtime.Float(f - 1), nil
	}
	return runtime.Int(i - 1), nil
}
