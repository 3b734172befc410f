// Package types defines the dynamic value model used by the fieldexpr
// evaluator: the values field assignments can take (int, string, bytes,
// bool, nested namespace) and the coercion rules between them.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValueType represents the type of a field value.
type ValueType int

const (
	TypeNull   ValueType = iota
	TypeBool             // bool
	TypeInt              // int64
	TypeString           // string
	TypeBytes            // []byte
	TypeMap              // ordered map of string -> Value (enum namespace)
)

// String returns the type name used in error messages.
func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeBytes:
		return "bytes"
	case TypeMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value represents a field value. It uses a tagged union approach so the
// evaluator never needs reflection or open-ended interface dispatch.
type Value struct {
	typ       ValueType
	boolVal   bool
	intVal    int64
	stringVal string
	bytesVal  []byte
	mapVal    *Map
}

// Map maintains insertion order for namespace keys; enum members keep the
// order they were declared in the format description.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMapValue creates a new empty namespace.
func NewMapValue() *Map {
	return &Map{
		keys:   make([]string, 0),
		values: make(map[string]Value),
	}
}

// Get retrieves a value by key. Returns the value and whether it exists.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set adds or updates a key-value pair, preserving insertion order.
func (m *Map) Set(key string, val Value) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = val
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	result := make([]string, len(m.keys))
	copy(result, m.keys)
	return result
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Null is the singleton null value.
var Null = Value{typ: TypeNull}

// NewBool creates a boolean value.
func NewBool(v bool) Value {
	return Value{typ: TypeBool, boolVal: v}
}

// NewInt creates an integer value (64-bit).
func NewInt(v int64) Value {
	return Value{typ: TypeInt, intVal: v}
}

// NewString creates a string value.
func NewString(v string) Value {
	return Value{typ: TypeString, stringVal: v}
}

// NewBytes creates a bytes value.
func NewBytes(v []byte) Value {
	return Value{typ: TypeBytes, bytesVal: v}
}

// NewMap creates a namespace value.
func NewMap(v *Map) Value {
	return Value{typ: TypeMap, mapVal: v}
}

// Type returns the value's type.
func (v Value) Type() ValueType {
	return v.typ
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.typ == TypeNull
}

// AsBool returns the boolean value. Panics if not a bool.
func (v Value) AsBool() bool {
	if v.typ != TypeBool {
		panic(fmt.Sprintf("AsBool called on %s value", v.typ))
	}
	return v.boolVal
}

// AsInt returns the integer value. Panics if not an int.
func (v Value) AsInt() int64 {
	if v.typ != TypeInt {
		panic(fmt.Sprintf("AsInt called on %s value", v.typ))
	}
	return v.intVal
}

// AsString returns the string value. Panics if not a string.
func (v Value) AsString() string {
	if v.typ != TypeString {
		panic(fmt.Sprintf("AsString called on %s value", v.typ))
	}
	return v.stringVal
}

// AsBytes returns the bytes value. Panics if not bytes.
func (v Value) AsBytes() []byte {
	if v.typ != TypeBytes {
		panic(fmt.Sprintf("AsBytes called on %s value", v.typ))
	}
	return v.bytesVal
}

// AsMap returns the namespace value. Panics if not a map.
func (v Value) AsMap() *Map {
	if v.typ != TypeMap {
		panic(fmt.Sprintf("AsMap called on %s value", v.typ))
	}
	return v.mapVal
}

// CoerceInt converts a value to an integer for arithmetic and bitwise
// operators. Integers pass through (bools count as 0/1); strings and bytes
// are read as big-endian unsigned magnitudes (empty is 0, a single unit is
// that unit's numeric value). Anything else is a TypeError.
func (v Value) CoerceInt() (int64, error) {
	switch v.typ {
	case TypeInt:
		return v.intVal, nil
	case TypeBool:
		if v.boolVal {
			return 1, nil
		}
		return 0, nil
	case TypeString:
		return bigEndianInt([]byte(v.stringVal))
	case TypeBytes:
		return bigEndianInt(v.bytesVal)
	default:
		return 0, NewTypeError(fmt.Sprintf("cannot convert %s to an integer", v.typ))
	}
}

// bigEndianInt reads a byte sequence as a big-endian unsigned magnitude.
func bigEndianInt(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) == 1 {
		return int64(b[0]), nil
	}
	var n uint64
	for _, c := range b {
		if n > math.MaxInt64>>8 {
			return 0, NewTypeError(fmt.Sprintf("byte sequence of %d bytes does not fit a 64-bit integer", len(b)))
		}
		n = n<<8 | uint64(c)
	}
	return int64(n), nil
}

// Truthy returns the truthiness of a value: null is false, bools are
// themselves, zero and empty sequences/namespaces are false.
func (v Value) Truthy() bool {
	switch v.typ {
	case TypeNull:
		return false
	case TypeBool:
		return v.boolVal
	case TypeInt:
		return v.intVal != 0
	case TypeString:
		return len(v.stringVal) > 0
	case TypeBytes:
		return len(v.bytesVal) > 0
	case TypeMap:
		return v.mapVal.Len() > 0
	default:
		return false
	}
}

// numeric reports whether the value participates in numeric comparison
// without coercion. Bools count as integers here.
func (v Value) numeric() (int64, bool) {
	switch v.typ {
	case TypeInt:
		return v.intVal, true
	case TypeBool:
		if v.boolVal {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Equal tests equality between two values without coercion. Numeric values
// compare numerically; any other cross-type pairing is unequal.
func (v Value) Equal(other Value) bool {
	if a, ok := v.numeric(); ok {
		if b, ok := other.numeric(); ok {
			return a == b
		}
		return false
	}
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeNull:
		return true
	case TypeString:
		return v.stringVal == other.stringVal
	case TypeBytes:
		return bytes.Equal(v.bytesVal, other.bytesVal)
	case TypeMap:
		if v.mapVal.Len() != other.mapVal.Len() {
			return false
		}
		for _, k := range v.mapVal.Keys() {
			ov, ok := other.mapVal.Get(k)
			if !ok {
				return false
			}
			mv, _ := v.mapVal.Get(k)
			if !mv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// Compare returns negative, zero, or positive for ordering. Values of
// incomparable types produce a TypeError rather than an arbitrary order.
func (v Value) Compare(other Value) (int, error) {
	if a, ok := v.numeric(); ok {
		if b, ok := other.numeric(); ok {
			switch {
			case a < b:
				return -1, nil
			case a > b:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if v.typ == TypeString && other.typ == TypeString {
		return strings.Compare(v.stringVal, other.stringVal), nil
	}
	if v.typ == TypeBytes && other.typ == TypeBytes {
		return bytes.Compare(v.bytesVal, other.bytesVal), nil
	}
	return 0, NewTypeError(fmt.Sprintf("cannot compare %s and %s", v.typ, other.typ))
}

// Add implements the binary + operator: numeric addition for ints, and
// concatenation for matching string/bytes operands. Mixed pairings are a
// TypeError; the other arithmetic operators go through CoerceInt instead.
func (v Value) Add(other Value) (Value, error) {
	if a, ok := v.numeric(); ok {
		if b, ok := other.numeric(); ok {
			return NewInt(a + b), nil
		}
	}
	if v.typ == TypeString && other.typ == TypeString {
		return NewString(v.stringVal + other.stringVal), nil
	}
	if v.typ == TypeBytes && other.typ == TypeBytes {
		joined := make([]byte, 0, len(v.bytesVal)+len(other.bytesVal))
		joined = append(joined, v.bytesVal...)
		joined = append(joined, other.bytesVal...)
		return NewBytes(joined), nil
	}
	return Null, NewTypeError(fmt.Sprintf("unsupported operand types for +: %s and %s", v.typ, other.typ))
}

// String returns a human-readable representation of the value for debugging.
func (v Value) String() string {
	switch v.typ {
	case TypeNull:
		return "null"
	case TypeBool:
		if v.boolVal {
			return "true"
		}
		return "false"
	case TypeInt:
		return fmt.Sprintf("%d", v.intVal)
	case TypeString:
		return v.stringVal
	case TypeBytes:
		return fmt.Sprintf("<bytes len=%d>", len(v.bytesVal))
	case TypeMap:
		parts := make([]string, 0, v.mapVal.Len())
		for _, k := range v.mapVal.Keys() {
			val, _ := v.mapVal.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, val.String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "<unknown>"
}

// MarshalJSON converts a Value to JSON for the evaluation API.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeNull:
		return []byte("null"), nil
	case TypeBool:
		if v.boolVal {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case TypeInt:
		return json.Marshal(v.intVal)
	case TypeString:
		return json.Marshal(v.stringVal)
	case TypeBytes:
		// bytes serialize as their UTF-8 string representation
		return json.Marshal(string(v.bytesVal))
	case TypeMap:
		// ordered iteration
		buf := []byte{'{'}
		for i, k := range v.mapVal.Keys() {
			if i > 0 {
				buf = append(buf, ',')
			}
			keyBytes, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, keyBytes...)
			buf = append(buf, ':')
			val, _ := v.mapVal.Get(k)
			valBytes, err := val.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf = append(buf, valBytes...)
		}
		buf = append(buf, '}')
		return buf, nil
	}
	return nil, fmt.Errorf("cannot marshal unknown type %d", v.typ)
}

// FromGo converts a plain Go value (from YAML or JSON decoding) into a
// Value. Nested maps become namespaces; map keys are sorted for determinism
// since Go map iteration order is random.
func FromGo(v interface{}) (Value, error) {
	if v == nil {
		return Null, nil
	}
	switch val := v.(type) {
	case bool:
		return NewBool(val), nil
	case int:
		return NewInt(int64(val)), nil
	case int64:
		return NewInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return Null, fmt.Errorf("integer %d overflows int64", val)
		}
		return NewInt(int64(val)), nil
	case float64:
		// JSON decodes all numbers as float64
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return Null, fmt.Errorf("non-integer number %v is not a valid field value", val)
		}
		return NewInt(int64(val)), nil
	case string:
		return NewString(val), nil
	case []byte:
		return NewBytes(val), nil
	case map[string]interface{}:
		m := NewMapValue()
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			nested, err := FromGo(val[k])
			if err != nil {
				return Null, fmt.Errorf("key %q: %w", k, err)
			}
			m.Set(k, nested)
		}
		return NewMap(m), nil
	default:
		return Null, fmt.Errorf("unsupported value type %T", v)
	}
}

// ToGo converts a Value to a plain Go interface{} suitable for JSON or YAML
// marshaling.
func (v Value) ToGo() interface{} {
	switch v.typ {
	case TypeNull:
		return nil
	case TypeBool:
		return v.boolVal
	case TypeInt:
		return v.intVal
	case TypeString:
		return v.stringVal
	case TypeBytes:
		return v.bytesVal
	case TypeMap:
		result := make(map[string]interface{}, v.mapVal.Len())
		for _, k := range v.mapVal.Keys() {
			val, _ := v.mapVal.Get(k)
			result[k] = val.ToGo()
		}
		return result
	}
	return nil
}
