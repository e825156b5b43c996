package formatter_test

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/internal/formatter"
	"github.com/KimNorgaard/go-exent/value"
	"github.com/stretchr/testify/require"
)

func format(t *testing.T, v value.Value, indent int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, formatter.New(&buf, indent, nil).Format(v))
	return buf.String()
}

func obj(kv ...any) *value.Object {
	o := value.NewObject()
	for i := 0; i < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1].(value.Value))
	}
	return o
}

// Centralized test cases to be used across different format settings.
var testCases = []struct {
	name             string
	v                value.Value
	expectedCompact  string
	expectedIndented string // 4 spaces
}{
	{
		name:             "Null",
		v:                value.Null{},
		expectedCompact:  "null",
		expectedIndented: "null",
	},
	{
		name:             "Bare string",
		v:                value.String("hello_world"),
		expectedCompact:  "hello_world",
		expectedIndented: "hello_world",
	},
	{
		name:             "Quoted string",
		v:                value.String(`say "hi"\now`),
		expectedCompact:  `"say \"hi\"\\now"`,
		expectedIndented: `"say \"hi\"\\now"`,
	},
	{
		name:             "Multiline string",
		v:                value.String("line one\nline two"),
		expectedCompact:  `"line one\nline two"`,
		expectedIndented: "`line one\nline two`",
	},
	{
		name:             "Multiline string with backtick",
		v:                value.String("a`b\nc"),
		expectedCompact:  "\"a`b\\nc\"",
		expectedIndented: "\"a`b\\nc\"",
	},
	{
		name:             "Empty array",
		v:                value.NewArray(),
		expectedCompact:  "[]",
		expectedIndented: "[]",
	},
	{
		name:             "Array with scalars",
		v:                value.NewArray(value.Int(1), value.String("two words")),
		expectedCompact:  `[ 1, "two words" ]`,
		expectedIndented: "[\n    1,\n    \"two words\"\n]",
	},
	{
		name:             "Empty object",
		v:                value.NewObject(),
		expectedCompact:  "{}",
		expectedIndented: "{}",
	},
	{
		name:             "Object with pairs",
		v:                obj("key1", value.String("value1"), "key 2", value.Bool(true)),
		expectedCompact:  `{ key1: value1, "key 2": true }`,
		expectedIndented: "{\n    key1: value1,\n    \"key 2\": true\n}",
	},
	{
		name: "Nested",
		v: obj(
			"list", value.NewArray(value.Int(1), obj("x", value.Null{})),
			"empty", value.NewObject(),
		),
		expectedCompact:  "{ list: [ 1, { x: null } ], empty: {} }",
		expectedIndented: "{\n    list: [\n        1,\n        {\n            x: null\n        }\n    ],\n    empty: {}\n}",
	},
}

func TestFormat(t *testing.T) {
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expectedCompact, format(t, tc.v, 0), "compact")
			require.Equal(t, tc.expectedIndented, format(t, tc.v, formatter.DefaultIndent), "indented")
		})
	}
}

func TestFormatIndentWidth(t *testing.T) {
	v := value.NewArray(value.NewArray(value.Int(1)))
	require.Equal(t, "[\n  [\n    1\n  ]\n]", format(t, v, 2))
}

func TestFormatScalars(t *testing.T) {
	huge, _ := value.ParseBigInt("12345678901234567890")
	tests := []struct {
		v        value.Value
		expected string
	}{
		{nil, "null"},
		{value.Bool(false), "false"},
		{value.Int(-42), "-42"},
		{huge, "12345678901234567890n"},
		{value.BigIntFromInt64(-3), "-3n"},
		{value.Float(1.5), "1.5"},
		{value.Float(5), "5.0"},
		{value.Float(-0.25), "-0.25"},
		{value.Float(1e21), "1e+21"},
		{value.Float(1.5e-7), "1.5e-07"},
		{value.Decimal(123.45), "123.45d"},
		{value.Decimal(5), "5d"},
		{value.Date(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)), "@2024-01-15T10:30:00.000Z"},
		{value.String(""), `""`},
		{value.String("true"), `"true"`},
		{value.String("null"), `"null"`},
		{value.String("9lives"), `"9lives"`},
		{value.String("_x9"), "_x9"},
		{value.String("tab\there"), `"tab\there"`},
		{value.String("bell\x07"), `"bell\u0007"`},
		{value.String("héllo"), `"héllo"`},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			require.Equal(t, tt.expected, format(t, tt.v, formatter.DefaultIndent))
		})
	}
}

func TestFormatSelfReference(t *testing.T) {
	o := value.NewObject()
	o.Set("self", o)
	require.Equal(t, "&a0 {\n    self: *a0\n}", format(t, o, formatter.DefaultIndent))
	require.Equal(t, "&a0 { self: *a0 }", format(t, o, 0))
}

func TestFormatSharedReference(t *testing.T) {
	admin := obj("name", value.String("admin"))
	guest := obj("name", value.String("guest"))
	users := value.NewArray(
		obj("role", admin),
		obj("role", guest),
		obj("role", admin),
		obj("role", guest),
	)
	out := format(t, users, 0)
	require.Equal(t,
		"[ { role: &a0 { name: admin } }, { role: &a1 { name: guest } }, { role: *a0 }, { role: *a1 } ]",
		out)
	require.Equal(t, 1, strings.Count(out, "&a0"))
	require.Equal(t, 1, strings.Count(out, "*a0"))
}

func TestFormatAnchorNamesFollowRevisitOrder(t *testing.T) {
	first := value.NewArray()
	second := value.NewArray()
	// second is revisited before first.
	v := value.NewArray(first, second, second, first)
	require.Equal(t, "[ &a1 [], &a0 [], *a0, *a1 ]", format(t, v, 0))
}

func TestFormatDoesNotAnchorScalars(t *testing.T) {
	s := value.String("same")
	require.Equal(t, "[ same, same ]", format(t, value.NewArray(s, s), 0))
}

func TestFormatIsRepeatable(t *testing.T) {
	o := value.NewObject()
	o.Set("self", o)
	var buf bytes.Buffer
	f := formatter.New(&buf, 0, nil)
	require.NoError(t, f.Format(o))
	buf.WriteString("|")
	require.NoError(t, f.Format(o))
	require.Equal(t, "&a0 { self: *a0 }|&a0 { self: *a0 }", buf.String())
}

type unknown struct{}

func (unknown) Kind() value.Kind { return value.Kind(99) }

func TestFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
	}{
		{"nan", value.Float(math.NaN())},
		{"inf", value.Float(math.Inf(1))},
		{"decimal inf", value.Decimal(math.Inf(-1))},
		{"unknown type", value.NewArray(unknown{})},
		{"year 12000", value.NewDate(time.Date(12000, 1, 1, 0, 0, 0, 0, time.UTC))},
		{"negative year", value.NewArray(value.NewDate(time.Date(-1, 12, 31, 0, 0, 0, 0, time.UTC)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := formatter.New(&buf, 0, nil).Format(tt.v)
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrUnsupportedValue))
		})
	}
}

func TestFormatStyle(t *testing.T) {
	style := func(e formatter.Element, s string) string {
		switch e {
		case formatter.Key:
			return "<k>" + s + "</k>"
		case formatter.Anchor, formatter.Ref:
			return "<a>" + s + "</a>"
		case formatter.Number:
			return "<n>" + s + "</n>"
		}
		return s
	}
	o := value.NewObject()
	o.Set("n", value.Int(1))
	o.Set("self", o)
	var buf bytes.Buffer
	require.NoError(t, formatter.New(&buf, 0, style).Format(o))
	require.Equal(t, "<a>&a0</a> { <k>n</k>: <n>1</n>, <k>self</k>: <a>*a0</a> }", buf.String())
}

func TestIsBare(t *testing.T) {
	require.True(t, formatter.IsBare("abc_D9"))
	require.False(t, formatter.IsBare("a-b"))
	require.False(t, formatter.IsBare("a.b"))
	require.False(t, formatter.IsBare("false"))
	require.Equal(t, `"a b"`, formatter.FormatKey("a b"))
	require.Equal(t, "ab", formatter.FormatKey("ab"))
}
