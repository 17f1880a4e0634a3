// Package runtime provides the dynamic value model, flow-control signals,
// and the evaluator-facing contexts consumed by compiled script blocks.
package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/cwbudde/go-psh/internal/ast"
	"github.com/cwbudde/go-psh/internal/errors"
)

// Value represents a dynamic value at runtime.
// All runtime values must implement this interface.
type Value interface {
	// Type returns the language-level type name of the value.
	Type() string
	// String returns the display representation of the value.
	String() string
}

// NullValue represents $null.
type NullValue struct{}

// Type returns "null".
func (n *NullValue) Type() string { return "null" }

// String returns the empty string; $null stringifies to nothing.
func (n *NullValue) String() string { return "" }

// Null is the shared $null instance.
var Null = &NullValue{}

// BoolValue represents $true / $false.
type BoolValue struct {
	Value bool
}

// Type returns "bool".
func (b *BoolValue) Type() string { return "bool" }

// String returns "True" or "False".
func (b *BoolValue) String() string {
	if b.Value {
		return "True"
	}
	return "False"
}

// True and False are the shared boolean instances.
var (
	True  = &BoolValue{Value: true}
	False = &BoolValue{Value: false}
)

// Bool returns the shared boolean instance for v.
func Bool(v bool) *BoolValue {
	if v {
		return True
	}
	return False
}

// IntegerValue represents a signed integer.
type IntegerValue struct {
	Value int64
}

// Type returns "int".
func (i *IntegerValue) Type() string { return "int" }

// String returns the decimal representation.
func (i *IntegerValue) String() string { return strconv.FormatInt(i.Value, 10) }

// FloatValue represents a double-precision float.
type FloatValue struct {
	Value float64
}

// Type returns "double".
func (f *FloatValue) Type() string { return "double" }

// String returns the shortest representation that round-trips.
func (f *FloatValue) String() string { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

// CharValue represents a single character.
type CharValue struct {
	Value rune
}

// Type returns "char".
func (c *CharValue) Type() string { return "char" }

// String returns the character itself.
func (c *CharValue) String() string { return string(c.Value) }

// StringValue represents a string.
type StringValue struct {
	Value string
}

// Type returns "string".
func (s *StringValue) Type() string { return "string" }

// String returns the string value itself.
func (s *StringValue) String() string { return s.Value }

// ArrayValue represents an object array.
type ArrayValue struct {
	Elements []Value
}

// Type returns "object[]".
func (a *ArrayValue) Type() string { return "object[]" }

// String joins the elements with spaces, the way arrays display in output.
func (a *ArrayValue) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

// hashEntry preserves the original key spelling alongside the value.
type hashEntry struct {
	Key   string
	Value Value
}

// HashtableValue represents a hashtable literal. Keys are case-insensitive;
// the original spelling of each key is preserved for display. Ordered marks
// [ordered] literals, which also report a distinct type name.
type HashtableValue struct {
	entries *orderedmap.OrderedMap[string, hashEntry]
	Ordered bool
}

// NewHashtable creates an empty hashtable.
func NewHashtable(ordered bool) *HashtableValue {
	return &HashtableValue{
		entries: orderedmap.New[string, hashEntry](),
		Ordered: ordered,
	}
}

// foldKey normalizes a key for case-insensitive lookup.
func foldKey(key string) string { return strings.ToLower(key) }

// Type returns "hashtable" or "ordered".
func (h *HashtableValue) Type() string {
	if h.Ordered {
		return "ordered"
	}
	return "hashtable"
}

// String renders the literal form.
func (h *HashtableValue) String() string {
	var sb strings.Builder
	sb.WriteString("@{")
	first := true
	for pair := h.entries.Oldest(); pair != nil; pair = pair.Next() {
		if !first {
			sb.WriteString("; ")
		}
		first = false
		sb.WriteString(pair.Value.Key)
		sb.WriteString("=")
		sb.WriteString(pair.Value.Value.String())
	}
	sb.WriteString("}")
	return sb.String()
}

// Set stores value under key, preserving insertion order for new keys.
func (h *HashtableValue) Set(key string, value Value) {
	h.entries.Set(foldKey(key), hashEntry{Key: key, Value: value})
}

// Get returns the value for key, or nil and false.
func (h *HashtableValue) Get(key string) (Value, bool) {
	e, ok := h.entries.Get(foldKey(key))
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Has reports whether key is present.
func (h *HashtableValue) Has(key string) bool {
	_, ok := h.entries.Get(foldKey(key))
	return ok
}

// Remove deletes key if present.
func (h *HashtableValue) Remove(key string) {
	h.entries.Delete(foldKey(key))
}

// Len returns the number of entries.
func (h *HashtableValue) Len() int { return h.entries.Len() }

// Keys returns the keys in insertion order, original spelling.
func (h *HashtableValue) Keys() []string {
	out := make([]string, 0, h.entries.Len())
	for pair := h.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.Key)
	}
	return out
}

// Values returns the values in insertion order.
func (h *HashtableValue) Values() []Value {
	out := make([]Value, 0, h.entries.Len())
	for pair := h.entries.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.Value)
	}
	return out
}

// ScriptBlockValue represents a script-block literal bound to the execution
// context it was created in. Invoke runs the block's entry points with $_
// bound to dollarUnder; compiled entry points are attached by the compiler.
type ScriptBlockValue struct {
	Ast    *ast.ScriptBlockAst
	Invoke func(dollarUnder Value, input []Value, args []Value) ([]Value, error)
}

// Type returns "scriptblock".
func (s *ScriptBlockValue) Type() string { return "scriptblock" }

// String returns the script text.
func (s *ScriptBlockValue) String() string { return s.Ast.Extent().Text }

// WrappedValue carries an arbitrary host object through the engine.
type WrappedValue struct {
	Value any
}

// Type returns "psobject".
func (w *WrappedValue) Type() string { return "psobject" }

// String formats the wrapped value with fmt. Error records display their
// message alone, the way hosts render them.
func (w *WrappedValue) String() string {
	if re, ok := w.Value.(*errors.RuntimeError); ok {
		return re.Message
	}
	return fmt.Sprintf("%v", w.Value)
}

// ============================================================================
// Small-value caches
// ============================================================================

const (
	intCacheMin  = -100
	intCacheMax  = 1000
	charCacheMax = 256
)

var (
	intCache  [intCacheMax - intCacheMin]*IntegerValue
	charCache [charCacheMax]*CharValue
)

func init() {
	for i := range intCache {
		intCache[i] = &IntegerValue{Value: int64(i + intCacheMin)}
	}
	for i := range charCache {
		charCache[i] = &CharValue{Value: rune(i)}
	}
}

// Int returns a boxed integer, shared for values in [-100, 1000).
func Int(v int64) *IntegerValue {
	if v >= intCacheMin && v < intCacheMax {
		return intCache[v-intCacheMin]
	}
	return &IntegerValue{Value: v}
}

// Char returns a boxed character, shared for code points below 256.
func Char(v rune) *CharValue {
	if v >= 0 && v < charCacheMax {
		return charCache[v]
	}
	return &CharValue{Value: v}
}

// Float returns a boxed float.
func Float(v float64) *FloatValue { return &FloatValue{Value: v} }

// Str returns a boxed string.
func Str(v string) *StringValue { return &StringValue{Value: v} }

// ============================================================================
// Conversions
// ============================================================================

// IsNull reports whether v is nil or the null value.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(*NullValue)
	return ok
}

// IsTruthy converts a value to its boolean interpretation: null, zero,
// empty string and empty array are false; a one-element array takes its
// element's truth; everything else is true.
func IsTruthy(v Value) bool {
	switch val := v.(type) {
	case nil, *NullValue:
		return false
	case *BoolValue:
		return val.Value
	case *IntegerValue:
		return val.Value != 0
	case *FloatValue:
		return val.Value != 0
	case *StringValue:
		return val.Value != ""
	case *CharValue:
		return val.Value != 0
	case *ArrayValue:
		if len(val.Elements) == 0 {
			return false
		}
		if len(val.Elements) == 1 {
			return IsTruthy(val.Elements[0])
		}
		return true
	default:
		return true
	}
}

// ToString converts any value to its invariant string form.
func ToString(v Value) string {
	if IsNull(v) {
		return ""
	}
	return v.String()
}

// AsNumber extracts a numeric interpretation of v.
// The third result distinguishes float from integer; ok is false when v has
// no numeric interpretation.
func AsNumber(v Value) (i int64, f float64, isFloat, ok bool) {
	switch val := v.(type) {
	case *IntegerValue:
		return val.Value, 0, false, true
	case *FloatValue:
		return 0, val.Value, true, true
	case *CharValue:
		return int64(val.Value), 0, false, true
	case *BoolValue:
		if val.Value {
			return 1, 0, false, true
		}
		return 0, 0, false, true
	case *NullValue, nil:
		return 0, 0, false, true
	case *StringValue:
		if n, err := cast.ToInt64E(val.Value); err == nil {
			return n, 0, false, true
		}
		if fv, err := cast.ToFloat64E(val.Value); err == nil {
			return 0, fv, true, true
		}
		return 0, 0, false, false
	case *WrappedValue:
		if n, err := cast.ToInt64E(val.Value); err == nil {
			return n, 0, false, true
		}
		if fv, err := cast.ToFloat64E(val.Value); err == nil {
			return 0, fv, true, true
		}
		return 0, 0, false, false
	default:
		return 0, 0, false, false
	}
}

// FromGo boxes a native Go value into the engine's value model.
func FromGo(v any) Value {
	switch val := v.(type) {
	case nil:
		return Null
	case Value:
		return val
	case bool:
		return Bool(val)
	case int:
		return Int(int64(val))
	case int32:
		return Int(int64(val))
	case int64:
		return Int(val)
	case float64:
		return Float(val)
	case float32:
		return Float(float64(val))
	case string:
		return Str(val)
	case []any:
		elems := make([]Value, len(val))
		for i, e := range val {
			elems[i] = FromGo(e)
		}
		return &ArrayValue{Elements: elems}
	default:
		return &WrappedValue{Value: v}
	}
}
