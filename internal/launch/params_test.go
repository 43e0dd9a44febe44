// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"slices"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestParseValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input *string
		want  Value
	}{
		{name: "null", input: nil, want: NullValue()},
		{name: "true", input: strPtr("true"), want: BoolValue(true)},
		{name: "FALSE", input: strPtr("FALSE"), want: BoolValue(false)},
		{name: "mixed case", input: strPtr("True"), want: BoolValue(true)},
		{name: "int", input: strPtr("42"), want: IntValue(42)},
		{name: "negative int", input: strPtr("-7"), want: IntValue(-7)},
		{name: "plus sign stays text", input: strPtr("+7"), want: StringValue("+7")},
		{name: "beyond 32 bits", input: strPtr("2147483648"), want: IntValue(2147483648)},
		{name: "beyond 64 bits", input: strPtr("9223372036854775808"), want: FloatValue(9223372036854775808)},
		{name: "float", input: strPtr("3.14"), want: FloatValue(3.14)},
		{name: "exponent", input: strPtr("1e3"), want: FloatValue(1000)},
		{name: "string", input: strPtr("hello"), want: StringValue("hello")},
		{name: "empty string", input: strPtr(""), want: StringValue("")},
		{name: "padded number stays text", input: strPtr(" 42"), want: StringValue(" 42")},
		{name: "NaN stays text", input: strPtr("NaN"), want: StringValue("NaN")},
		{name: "Inf stays text", input: strPtr("Inf"), want: StringValue("Inf")},
		{name: "yes is not a bool", input: strPtr("yes"), want: StringValue("yes")},
		{name: "path", input: strPtr("data/*.csv"), want: StringValue("data/*.csv")},
		{name: "underscore digits", input: strPtr("1_0"), want: StringValue("1_0")},
		{name: "batch id", input: strPtr("2024_01"), want: StringValue("2024_01")},
		{name: "hex float", input: strPtr("0x1p-2"), want: StringValue("0x1p-2")},
		{name: "hex int", input: strPtr("0x10"), want: StringValue("0x10")},
		{name: "trailing dot", input: strPtr("1."), want: StringValue("1.")},
		{name: "leading dot", input: strPtr(".5"), want: StringValue(".5")},
		{name: "negative float", input: strPtr("-2.5e-3"), want: FloatValue(-0.0025)},
		{name: "leading zeros", input: strPtr("007"), want: IntValue(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseValue(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("ParseValue() = %#v (kind %d), want %#v (kind %d)", got.Interface(), got.Kind(), tt.want.Interface(), tt.want.Kind())
			}
		})
	}
}

func TestParseValue_Deterministic(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"true", "42", "3.14", "hello", "-0", "0x10"} {
		first := ParseValue(strPtr(in))
		for range 3 {
			if again := ParseValue(strPtr(in)); !again.Equal(first) {
				t.Errorf("ParseValue(%q) is not deterministic", in)
			}
		}
	}
}

func TestValue_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value Value
		want  string
	}{
		{NullValue(), ""},
		{BoolValue(true), "true"},
		{IntValue(-3), "-3"},
		{FloatValue(0.5), "0.5"},
		{StringValue("a b"), "a b"},
		{StructuredValue(map[string]any{"k": []any{1, "x"}}), `{"k":[1,"x"]}`},
	}

	for _, tt := range tests {
		if got := tt.value.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParameterMap(t *testing.T) {
	t.Parallel()

	m := NewParameterMap()
	m.Set("b", IntValue(1))
	m.Set("a", StringValue("x"))
	m.Set("b", BoolValue(true))
	m.Set("c", NullValue())

	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
	if !slices.Equal(m.Keys(), []string{"b", "a", "c"}) {
		t.Errorf("Keys() = %v", m.Keys())
	}
	if v, ok := m.Get("b"); !ok || !v.Equal(BoolValue(true)) {
		t.Errorf("Get(b) = %v, %v", v.Interface(), ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) should report false")
	}

	var keys []string
	for k := range m.All() {
		keys = append(keys, k)
		if k == "a" {
			break
		}
	}
	if !slices.Equal(keys, []string{"b", "a"}) {
		t.Errorf("All() with break visited %v", keys)
	}

	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(data) != `{"b":true,"a":"x","c":null}` {
		t.Errorf("MarshalJSON() = %s", data)
	}
}

func TestValueKind_String(t *testing.T) {
	t.Parallel()

	tests := map[ValueKind]string{
		KindNull:       "null",
		KindBool:       "bool",
		KindInt:        "int",
		KindFloat:      "float",
		KindString:     "string",
		KindStructured: "structured",
		ValueKind(42):  "unknown",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("ValueKind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}
