package operators

import (
	"github.com/cwbudde/go-psh/internal/errors"
	"github.com/cwbudde/go-psh/internal/runtime"
	"github.com/cwbudde/go-psh/internal/source"
	"github.com/cwbudde/go-psh/internal/token"
)

// BinaryOperation evaluates a binary operator over dynamic operands.
// Call sites bind to this function with the operator kind baked in; the -c
// variants are normalized to their -i counterparts plus a case flag so
// identical sites are shared.
func BinaryOperation(ctx runtime.ExecutionContext, extent source.Extent, op token.Kind, left, right runtime.Value) (runtime.Value, error) {
	ignoreCase := !op.CaseSensitive()
	negate := op.Negated()

	switch op.CaseInsensitiveVariant() {
	case token.Plus:
		return Add(ctx, extent, left, right)
	case token.Minus:
		return Subtract(ctx, extent, left, right)
	case token.Multiply:
		return Multiply(ctx, extent, left, right)
	case token.Divide:
		return Divide(ctx, extent, left, right)
	case token.Rem:
		return Remainder(ctx, extent, left, right)
	case token.Shl:
		return ShiftLeft(ctx, extent, left, right)
	case token.Shr:
		return ShiftRight(ctx, extent, left, right)
	case token.Band:
		return BitwiseAnd(ctx, extent, left, right)
	case token.Bor:
		return BitwiseOr(ctx, extent, left, right)
	case token.Bxor:
		return BitwiseXor(ctx, extent, left, right)
	case token.Xor:
		return runtime.Bool(runtime.IsTruthy(left) != runtime.IsTruthy(right)), nil

	case token.Ieq:
		return Compare(ctx, extent, CompareEq, left, right, ignoreCase)
	case token.Ine:
		return Compare(ctx, extent, CompareNe, left, right, ignoreCase)
	case token.Igt:
		return Compare(ctx, extent, CompareGt, left, right, ignoreCase)
	case token.Ige:
		return Compare(ctx, extent, CompareGe, left, right, ignoreCase)
	case token.Ilt:
		return Compare(ctx, extent, CompareLt, left, right, ignoreCase)
	case token.Ile:
		return Compare(ctx, extent, CompareLe, left, right, ignoreCase)

	case token.Ilike, token.Inotlike:
		return Like(ctx, extent, left, right, ignoreCase, negate)
	case token.Imatch, token.Inotmatch:
		return Match(ctx, extent, left, right, ignoreCase, negate)
	case token.Ireplace:
		return Replace(ctx, extent, left, right, ignoreCase)
	case token.Icontains, token.Inotcontains:
		return Contains(ctx, extent, left, right, ignoreCase, negate)
	case token.Iin, token.Inotin:
		return In(ctx, extent, left, right, ignoreCase, negate)

	case token.Split, token.Isplit:
		options := SplitRegexMatch
		if ignoreCase {
			options |= SplitIgnoreCase
		}
		return Split(ctx, extent, left, right, options)
	case token.Ijoin, token.Join:
		return Join(ctx, extent, left, right)

	case token.Is:
		return Is(ctx, extent, left, right, false)
	case token.IsNot:
		return Is(ctx, extent, left, right, true)
	case token.As:
		return As(ctx, extent, left, right)

	case token.DotDot:
		return Range(ctx, extent, left, right)
	case token.Format:
		return Format(ctx, extent, left, right)
	}

	return nil, errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
		"unsupported operator %q", op.String())
}

// UnaryOperation evaluates a unary operator over a dynamic operand.
// Increment and decrement are not handled here; the compiler decomposes them
// through the assignable-value protocol.
func UnaryOperation(ctx runtime.ExecutionContext, extent source.Extent, op token.Kind, operand runtime.Value) (runtime.Value, error) {
	switch op {
	case token.Not, token.Exclaim:
		return Not(operand), nil
	case token.Bnot:
		return BitwiseNot(ctx, extent, operand)
	case token.Minus:
		return Negate(ctx, extent, operand)
	case token.Plus:
		return UnaryPlus(ctx, extent, operand)
	case token.Join, token.Ijoin, token.Cjoin:
		return UnaryJoin(ctx, extent, operand)
	case token.Split, token.Isplit, token.Csplit:
		return UnarySplit(ctx, extent, operand)
	}
	return nil, errors.NewRuntimeError(extent, errors.IDBadOperatorArgument,
		"unsupported unary operator %q", op.String())
}
