package value_test

import (
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/KimNorgaard/go-exent/value"
	"github.com/stretchr/testify/require"
)

func TestObjectOrderAndOverwrite(t *testing.T) {
	o := value.NewObject()
	o.Set("b", value.Int(1))
	o.Set("a", value.Int(2))
	o.Set("b", value.Int(3))

	require.Equal(t, []string{"b", "a"}, o.Keys())
	v, ok := o.Get("b")
	require.True(t, ok)
	require.Equal(t, value.Int(3), v)

	var seen []string
	o.Range(func(k string, _ value.Value) bool {
		seen = append(seen, k)
		return true
	})
	require.Equal(t, []string{"b", "a"}, seen)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "decimal", value.DecimalKind.String())
	require.Equal(t, "object", (&value.Object{}).Kind().String())
	require.True(t, value.ArrayKind.IsReference())
	require.False(t, value.DateKind.IsReference())
}

func TestBigInt(t *testing.T) {
	b, ok := value.ParseBigInt("12345678901234567890")
	require.True(t, ok)
	require.Equal(t, "12345678901234567890", b.String())
	require.False(t, b.IsInt64())

	src := big.NewInt(42)
	c := value.NewBigInt(src)
	src.SetInt64(7)
	require.Equal(t, "42", c.String(), "NewBigInt must copy its argument")

	require.Equal(t, int64(0), value.NewBigInt(new(big.Int).Lsh(big.NewInt(1), 64)).Int64())
	neg, _ := value.ParseBigInt("-5")
	require.Equal(t, int64(-5), neg.Int64())
}

func TestDate(t *testing.T) {
	in := time.Date(2024, 1, 15, 12, 30, 0, 123456789, time.FixedZone("x", 3600))
	d := value.NewDate(in)
	require.Equal(t, "2024-01-15T11:30:00.123Z", d.String())
	require.Equal(t, d, value.DateFromUnixMilli(d.UnixMilli()))
	require.True(t, d.InRange())

	require.Equal(t, "0000-01-01T00:00:00.000Z", value.MinDate.String())
	require.Equal(t, "9999-12-31T23:59:59.999Z", value.MaxDate.String())
	require.True(t, value.MinDate.InRange())
	require.True(t, value.MaxDate.InRange())
	require.False(t, value.DateFromUnixMilli(value.MaxDate.UnixMilli()+1).InRange())
	require.False(t, value.DateFromUnixMilli(value.MinDate.UnixMilli()-1).InRange())
}

func TestEqualScalars(t *testing.T) {
	five, _ := value.ParseBigInt("5")
	tests := []struct {
		name string
		a, b value.Value
		want bool
	}{
		{"null", value.Null{}, value.Null{}, true},
		{"nil is null", nil, value.Null{}, true},
		{"int vs bigint", value.Int(5), five, true},
		{"int vs float", value.Int(5), value.Float(5), false},
		{"float vs decimal", value.Float(1.5), value.Decimal(1.5), false},
		{"nan", value.Float(math.NaN()), value.Float(math.NaN()), true},
		{"strings", value.String("a"), value.String("b"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, value.Equal(tt.a, tt.b))
		})
	}
}

func TestEqualTracksIdentity(t *testing.T) {
	shared := value.NewObject()
	shared.Set("name", value.String("admin"))
	a := value.NewArray(shared, shared)

	copy1 := value.NewObject()
	copy1.Set("name", value.String("admin"))
	copy2 := value.NewObject()
	copy2.Set("name", value.String("admin"))

	require.False(t, value.Equal(a, value.NewArray(copy1, copy2)), "sharing lost")
	require.False(t, value.Equal(value.NewArray(copy1, copy2), a), "sharing gained")
	require.True(t, value.Equal(a, value.NewArray(copy1, copy1)))
}

func TestEqualCycles(t *testing.T) {
	mk := func() *value.Object {
		o := value.NewObject()
		o.Set("self", o)
		return o
	}
	require.True(t, value.Equal(mk(), mk()))

	o := value.NewObject()
	inner := value.NewObject()
	inner.Set("self", inner)
	o.Set("self", inner)
	require.False(t, value.Equal(mk(), o))
}
