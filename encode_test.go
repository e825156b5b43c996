package exent_test

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"testing"
	"time"

	"github.com/KimNorgaard/go-exent"
	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/value"
	"github.com/stretchr/testify/require"
)

func TestMarshal_IndentOption(t *testing.T) {
	type testStruct struct {
		Name string
		Data []int
	}
	v := testStruct{
		Name: "Test",
		Data: []int{1, 2},
	}

	t.Run("Default indentation (4 spaces)", func(t *testing.T) {
		b, err := exent.Marshal(v)
		require.NoError(t, err)
		require.Equal(t, "{\n    Name: Test,\n    Data: [\n        1,\n        2\n    ]\n}", string(b))
	})

	t.Run("Compact output with Indent(0)", func(t *testing.T) {
		b, err := exent.Marshal(v, exent.Indent(0))
		require.NoError(t, err)
		require.Equal(t, "{ Name: Test, Data: [ 1, 2 ] }", string(b))
	})

	t.Run("Custom indentation with Indent(2)", func(t *testing.T) {
		b, err := exent.Marshal(v, exent.Indent(2))
		require.NoError(t, err)
		require.Equal(t, "{\n  Name: Test,\n  Data: [\n    1,\n    2\n  ]\n}", string(b))
	})

	t.Run("Invalid Indent option", func(t *testing.T) {
		_, err := exent.Marshal(v, exent.Indent(-1))
		require.Error(t, err)
		require.Contains(t, err.Error(), "indent spaces cannot be negative")
	})
}

func TestMarshal_Scalars(t *testing.T) {
	when := time.Date(2024, 3, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600))
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"bool", true, "true"},
		{"int", -7, "-7"},
		{"uint8", uint8(200), "200"},
		{"huge uint", uint64(math.MaxUint64), "18446744073709551615n"},
		{"float", 2.5, "2.5"},
		{"whole float", 2.0, "2.0"},
		{"float32", float32(0.5), "0.5"},
		{"bare string", "hello", "hello"},
		{"keyword string", "true", `"true"`},
		{"quoted string", "a b", `"a b"`},
		{"time", when, "@2024-03-01T07:00:00.000Z"},
		{"big.Int", *big.NewInt(5), "5n"},
		{"*big.Int", new(big.Int).Lsh(big.NewInt(1), 70), "1180591620717411303424n"},
		{"nil *big.Int", (*big.Int)(nil), "null"},
		{"value", value.Decimal(1.5), "1.5d"},
		{"nil slice", []int(nil), "null"},
		{"empty slice", []int{}, "[]"},
		{"nil map", map[string]int(nil), "null"},
		{"array", [2]string{"x", "y"}, "[ x, y ]"},
		{"sorted map", map[string]int{"b": 2, "a": 1}, "{ a: 1, b: 2 }"},
		{"nil pointer", (*int)(nil), "null"},
		{"nil func", (func())(nil), "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := exent.Marshal(tt.in, exent.Indent(0))
			require.NoError(t, err)
			require.Equal(t, tt.want, string(b))
		})
	}
}

func TestMarshal_StructTags(t *testing.T) {
	type Item struct {
		ID      int    `exent:"id"`
		Label   string `exent:"label,omitempty"`
		Skipped string `exent:"-"`
		Plain   bool
		hidden  int
	}
	b, err := exent.Marshal(Item{ID: 1, Skipped: "x", Plain: true, hidden: 2}, exent.Indent(0))
	require.NoError(t, err)
	require.Equal(t, "{ id: 1, Plain: true }", string(b))
}

// TestMarshal_OmitEmpty tests the functionality of the ",omitempty" struct tag.
func TestMarshal_OmitEmpty(t *testing.T) {
	type OmitStruct struct {
		String     string         `exent:"string,omitempty"`
		Int        int            `exent:"int,omitempty"`
		Float      float64        `exent:"float,omitempty"`
		Bool       bool           `exent:"bool,omitempty"`
		Slice      []string       `exent:"slice,omitempty"`
		Map        map[string]int `exent:"map,omitempty"`
		Pointer    *int           `exent:"pointer,omitempty"`
		Struct     *OmitStruct    `exent:"struct,omitempty"`
		unexported string         // Unexported fields are always ignored.
	}

	t.Run("All fields are zero-valued and should be omitted", func(t *testing.T) {
		v := OmitStruct{unexported: "should be ignored"}
		b, err := exent.Marshal(v, exent.Indent(0))
		require.NoError(t, err)
		require.Equal(t, "{}", string(b))
	})

	t.Run("All fields have non-zero values and should be included", func(t *testing.T) {
		pointerVal := 123
		v := OmitStruct{
			String:  "hello",
			Int:     1,
			Float:   3.14,
			Bool:    true,
			Slice:   []string{"a"},
			Map:     map[string]int{"b": 2},
			Pointer: &pointerVal,
			Struct:  &OmitStruct{String: "nested"},
		}
		b, err := exent.Marshal(v, exent.Indent(0))
		require.NoError(t, err)
		require.Equal(t,
			"{ string: hello, int: 1, float: 3.14, bool: true, slice: [ a ], map: { b: 2 }, pointer: 123, struct: { string: nested } }",
			string(b))
	})

	t.Run("Zero values without omitempty are kept", func(t *testing.T) {
		type Kept struct {
			N int
			S []int
		}
		b, err := exent.Marshal(Kept{}, exent.Indent(0))
		require.NoError(t, err)
		require.Equal(t, "{ N: 0, S: null }", string(b))
	})
}

// Helper types for custom marshaler tests
type CustomValue struct {
	Value int
}

func (c CustomValue) MarshalEXENT() ([]byte, error) {
	// Note: Produces a quoted key
	return []byte(`{ "custom_value": ` + strconv.Itoa(c.Value) + ` }`), nil
}

type CustomPointer struct {
	Data string
}

func (c *CustomPointer) MarshalEXENT() ([]byte, error) {
	return []byte(`"` + c.Data + ` (custom)"`), nil
}

type CustomError struct{}

func (c CustomError) MarshalEXENT() ([]byte, error) {
	return nil, stderrors.New("custom error")
}

type CustomInvalidEXENT struct{}

func (c CustomInvalidEXENT) MarshalEXENT() ([]byte, error) {
	return []byte(`{ key: "unterminated string }`), nil
}

type CustomEmpty struct{}

func (c CustomEmpty) MarshalEXENT() ([]byte, error) {
	return []byte(""), nil
}

// RGB marshals as text.
type RGB struct{ R, G, B uint8 }

func (c RGB) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)), nil
}

func (c *RGB) UnmarshalText(b []byte) error {
	_, err := fmt.Sscanf(string(b), "#%02x%02x%02x", &c.R, &c.G, &c.B)
	return err
}

func TestMarshal_CustomMarshaler(t *testing.T) {
	t.Run("Marshaler on value", func(t *testing.T) {
		v := CustomValue{Value: 123}
		b, err := exent.Marshal(v, exent.Indent(0))
		require.NoError(t, err)
		require.Equal(t, `{ custom_value: 123 }`, string(b))
	})

	t.Run("Marshaler on pointer", func(t *testing.T) {
		v := &CustomPointer{Data: "hello"}
		b, err := exent.Marshal(v)
		require.NoError(t, err)
		require.Equal(t, `"hello (custom)"`, string(b))
	})

	t.Run("Marshaler on pointer for a non-pointer value", func(t *testing.T) {
		v := CustomPointer{Data: "world"}
		b, err := exent.Marshal(v)
		require.NoError(t, err)
		require.Equal(t, `"world (custom)"`, string(b))
	})

	t.Run("Marshaler inside a struct field", func(t *testing.T) {
		v := struct {
			Inner CustomValue `exent:"inner"`
		}{CustomValue{Value: 7}}
		b, err := exent.Marshal(v, exent.Indent(0))
		require.NoError(t, err)
		require.Equal(t, `{ inner: { custom_value: 7 } }`, string(b))
	})

	t.Run("Marshaler returns an error", func(t *testing.T) {
		_, err := exent.Marshal(CustomError{})
		require.EqualError(t, err, "exent: error calling MarshalEXENT for type exent_test.CustomError: custom error")

		var me *exent.MarshalerError
		require.ErrorAs(t, err, &me)
	})

	t.Run("Marshaler returns invalid EXENT", func(t *testing.T) {
		_, err := exent.Marshal(CustomInvalidEXENT{})
		require.ErrorContains(t, err, "invalid EXENT output")
		require.True(t, errors.Is(err, errors.ErrUnterminatedString))
	})

	t.Run("Marshaler returns nothing", func(t *testing.T) {
		b, err := exent.Marshal(CustomEmpty{})
		require.NoError(t, err)
		require.Equal(t, "null", string(b))
	})

	t.Run("TextMarshaler", func(t *testing.T) {
		b, err := exent.Marshal([]RGB{{R: 255}}, exent.Indent(0))
		require.NoError(t, err)
		require.Equal(t, `[ "#ff0000" ]`, string(b))
	})
}

func TestMarshal_Errors(t *testing.T) {
	_, err := exent.Marshal(map[int]string{1: "a"})
	require.True(t, errors.Is(err, errors.ErrUnsupportedValue), "got %v", err)
	require.ErrorContains(t, err, "exent: map key type must be a string")

	_, err = exent.Marshal(make(chan int))
	require.True(t, errors.Is(err, errors.ErrUnsupportedValue), "got %v", err)

	_, err = exent.Marshal(math.NaN())
	require.True(t, errors.Is(err, errors.ErrUnsupportedValue), "got %v", err)
}

type Node struct {
	Name string
	Next *Node
}

func TestValueOf_Identity(t *testing.T) {
	t.Run("shared struct pointer", func(t *testing.T) {
		type User struct {
			Name string
			Role *Node
		}
		admin := &Node{Name: "admin"}
		users := []User{{"ann", admin}, {"bob", &Node{Name: "admin"}}, {"cid", admin}}

		g, err := exent.ValueOf(users)
		require.NoError(t, err)
		arr := g.(*value.Array)
		require.Same(t, field(t, arr.At(0), "Role"), field(t, arr.At(2), "Role"))
		require.NotSame(t, field(t, arr.At(0), "Role"), field(t, arr.At(1), "Role"))
	})

	t.Run("pointer cycle", func(t *testing.T) {
		n := &Node{Name: "x"}
		n.Next = &Node{Name: "y", Next: n}

		b, err := exent.Marshal(n)
		require.NoError(t, err)
		require.Equal(t, "&a0 {\n    Name: x,\n    Next: {\n        Name: y,\n        Next: *a0\n    }\n}", string(b))
	})

	t.Run("map cycle", func(t *testing.T) {
		m := map[string]any{"name": "loop"}
		m["self"] = m

		b, err := exent.Marshal(m, exent.Indent(0))
		require.NoError(t, err)
		require.Equal(t, "&a0 { name: loop, self: *a0 }", string(b))
	})

	t.Run("slice cycle", func(t *testing.T) {
		s := make([]any, 2)
		s[0] = 1
		s[1] = s

		g, err := exent.ValueOf(s)
		require.NoError(t, err)
		arr := g.(*value.Array)
		require.Same(t, arr, arr.At(1))
	})

	t.Run("sub-slices are distinct", func(t *testing.T) {
		base := []int{1, 2, 3}
		g, err := exent.ValueOf([][]int{base, base[:2], base})
		require.NoError(t, err)
		arr := g.(*value.Array)
		require.Same(t, arr.At(0), arr.At(2))
		require.Equal(t, 2, arr.At(1).(*value.Array).Len())
	})

	t.Run("values embedded in the graph", func(t *testing.T) {
		shared := value.NewArray(value.Int(1))
		g, err := exent.ValueOf(map[string]value.Value{"a": shared, "b": shared})
		require.NoError(t, err)
		require.Same(t, field(t, g, "a"), field(t, g, "b"))
	})
}

func TestEncoder(t *testing.T) {
	v := map[string]any{"n": 1}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, exent.NewEncoder(&buf, exent.Indent(0)).Encode(v))
		require.Equal(t, "{ n: 1 }", buf.String())
	})

	t.Run("binary", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, exent.NewEncoder(&buf, exent.WithFormat(exent.Binary)).Encode(v))
		require.Equal(t, []byte{0x09, 0, 0, 0, 1, 0, 0, 0, 1, 'n', 0x03, 0, 0, 0, 1}, buf.Bytes())
	})

	t.Run("bad option", func(t *testing.T) {
		var buf bytes.Buffer
		err := exent.NewEncoder(&buf, exent.MaxDepth(-1)).Encode(v)
		require.True(t, errors.Is(err, errors.ErrInvalidOption))
		require.Zero(t, buf.Len())
	})
}

func TestFormatString(t *testing.T) {
	require.Equal(t, "text", exent.Text.String())
	require.Equal(t, "binary", exent.Binary.String())
	require.Equal(t, "unknown", exent.Format(9).String())
}
