// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"bytes"
	"encoding/json"
	"iter"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	intPattern   = regexp.MustCompile(`^-?[0-9]+$`)
	floatPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?([eE][-+]?[0-9]+)?$`)
)

// ValueKind names the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	// KindStructured holds an object or array read from a params file.
	KindStructured
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "structured"}

// String returns the lower-case kind name.
func (k ValueKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

type (
	// Value is a typed parameter value. The zero value is Null.
	Value struct {
		kind       ValueKind
		b          bool
		i          int64
		f          float64
		s          string
		structured any
	}

	// ParameterMap is an insertion-ordered map of parameter names to values.
	// Overwriting a key keeps its original position.
	ParameterMap struct {
		keys   []string
		values map[string]Value
	}
)

func NullValue() Value            { return Value{} }
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value      { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value  { return Value{kind: KindFloat, f: f} }
func StringValue(s string) Value  { return Value{kind: KindString, s: s} }
func StructuredValue(v any) Value { return Value{kind: KindStructured, structured: v} }

// Kind returns the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// Bool returns the boolean held by v (false for other kinds).
func (v Value) Bool() bool { return v.b }

// Int returns the integer held by v (0 for other kinds).
func (v Value) Int() int64 { return v.i }

// Float returns the float held by v (0 for other kinds).
func (v Value) Float() float64 { return v.f }

// Interface returns v as a plain Go value: nil, bool, int64, float64,
// string, or the decoded object/array.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindStructured:
		return v.structured
	default:
		return nil
	}
}

// String formats v the way a shell script sees it: strings verbatim,
// scalars in their canonical text form, objects and arrays as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		data, err := json.Marshal(v.structured)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// Equal reports whether two scalar values hold the same kind and value.
// Structured values compare by their JSON form.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	if v.kind == KindStructured {
		return v.String() == other.String()
	}
	return v.b == other.b && v.i == other.i && v.f == other.f && v.s == other.s
}

// MarshalJSON encodes v as its plain JSON value.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// ParseValue coerces a command line value: nil is Null, "true"/"false" in
// any case are Bool, plain decimal integers are Int, decimal numbers with an
// optional fraction and exponent are Float when finite, and anything else
// (including Go literal forms such as 1_000, 0x1p-2, +7 or .5) stays a String.
func ParseValue(raw *string) Value {
	if raw == nil {
		return NullValue()
	}
	s := *raw

	switch strings.ToLower(s) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}

	if intPattern.MatchString(s) {
		if i, err := strconv.ParseInt(s, 10, 32); err == nil {
			return IntValue(i)
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(i)
		}
	}
	if floatPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return FloatValue(f)
		}
	}
	return StringValue(s)
}

// NewParameterMap returns an empty map.
func NewParameterMap() *ParameterMap {
	return &ParameterMap{values: map[string]Value{}}
}

// Set stores value under key. A new key is appended; an existing one keeps
// its position.
func (m *ParameterMap) Set(key string, value Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *ParameterMap) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of parameters.
func (m *ParameterMap) Len() int { return len(m.keys) }

// Keys returns the parameter names in insertion order.
func (m *ParameterMap) Keys() []string { return slices.Clone(m.keys) }

// All iterates over the parameters in insertion order.
func (m *ParameterMap) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// MarshalJSON encodes the map as a JSON object preserving key order.
func (m *ParameterMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
