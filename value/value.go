// Package value defines the in-memory graph that EXENT text and B-EXENT
// bytes decode into and encode from.
//
// Scalars (Null, Bool, Int, BigInt, Float, Decimal, String, Date) are plain
// Go values with no identity. *Array and *Object are reference types: two
// occurrences of the same pointer in a graph are the same node, and the
// codecs preserve that sharing, including cycles.
package value

import (
	"math/big"
	"strconv"
	"time"
)

// Kind identifies the variant of a Value.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	IntKind
	BigIntKind
	FloatKind
	DecimalKind
	StringKind
	DateKind
	ArrayKind
	ObjectKind
)

var kindNames = [...]string{
	NullKind:    "null",
	BoolKind:    "bool",
	IntKind:     "int",
	BigIntKind:  "bigint",
	FloatKind:   "float",
	DecimalKind: "decimal",
	StringKind:  "string",
	DateKind:    "date",
	ArrayKind:   "array",
	ObjectKind:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsReference reports whether values of kind k carry identity.
func (k Kind) IsReference() bool {
	return k == ArrayKind || k == ObjectKind
}

// Value is a node of the value graph.
type Value interface {
	Kind() Kind
}

// Null is the null value.
type Null struct{}

// Bool is a boolean value.
type Bool bool

// Int is a signed integer that fits in 64 bits.
type Int int64

// Float is an IEEE-754 double.
type Float float64

// Decimal is a double tagged with decimal intent. It is written with a d
// suffix in text and with its own tag in binary.
type Decimal float64

// String is a UTF-8 string.
type String string

// BigInt is an arbitrary-precision integer, written with an n suffix in text.
type BigInt struct {
	x *big.Int
}

// Date is an instant with millisecond resolution, normalized to UTC.
type Date time.Time

func (Null) Kind() Kind    { return NullKind }
func (Bool) Kind() Kind    { return BoolKind }
func (Int) Kind() Kind     { return IntKind }
func (BigInt) Kind() Kind  { return BigIntKind }
func (Float) Kind() Kind   { return FloatKind }
func (Decimal) Kind() Kind { return DecimalKind }
func (String) Kind() Kind  { return StringKind }
func (Date) Kind() Kind    { return DateKind }

// NewBigInt returns a BigInt holding a copy of x. A nil x is treated as zero.
func NewBigInt(x *big.Int) BigInt {
	if x == nil {
		return BigInt{x: new(big.Int)}
	}
	return BigInt{x: new(big.Int).Set(x)}
}

// BigIntFromInt64 returns a BigInt holding n.
func BigIntFromInt64(n int64) BigInt {
	return BigInt{x: big.NewInt(n)}
}

// ParseBigInt parses a base-10 integer with an optional leading minus sign.
func ParseBigInt(s string) (BigInt, bool) {
	x, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return BigInt{}, false
	}
	return BigInt{x: x}, true
}

// Big returns a copy of the integer.
func (b BigInt) Big() *big.Int {
	if b.x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.x)
}

// IsInt64 reports whether the integer fits in an int64.
func (b BigInt) IsInt64() bool {
	return b.x == nil || b.x.IsInt64()
}

// Int64 returns the low 64 bits of the integer as a two's complement int64.
func (b BigInt) Int64() int64 {
	if b.x == nil {
		return 0
	}
	if b.x.IsInt64() {
		return b.x.Int64()
	}
	mod := new(big.Int).And(b.x, new(big.Int).SetUint64(^uint64(0)))
	return int64(mod.Uint64())
}

// String returns the decimal digits of the integer.
func (b BigInt) String() string {
	if b.x == nil {
		return "0"
	}
	return b.x.String()
}

// NewDate returns t as a Date truncated to milliseconds in UTC.
func NewDate(t time.Time) Date {
	return Date(t.UTC().Truncate(time.Millisecond))
}

// DateFromUnixMilli returns the Date ms milliseconds after the Unix epoch.
func DateFromUnixMilli(ms int64) Date {
	return Date(time.UnixMilli(ms).UTC())
}

// Dates outside MinDate to MaxDate have no text form.
var (
	MinDate = NewDate(time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC))
	MaxDate = NewDate(time.Date(9999, time.December, 31, 23, 59, 59, 999e6, time.UTC))
)

// InRange reports whether d falls in years 0000 to 9999 UTC.
func (d Date) InRange() bool {
	y := time.Time(d).UTC().Year()
	return y >= 0 && y <= 9999
}

// Time returns the instant as a time.Time in UTC.
func (d Date) Time() time.Time {
	return time.Time(d)
}

// UnixMilli returns the number of milliseconds since the Unix epoch.
func (d Date) UnixMilli() int64 {
	return time.Time(d).UnixMilli()
}

// ISOLayout is the layout used to write dates: always UTC, always milliseconds.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// String returns the ISO-8601 form of the date.
func (d Date) String() string {
	return time.Time(d).UTC().Format(ISOLayout)
}

// Array is an ordered sequence of values.
type Array struct {
	elems []Value
}

// NewArray returns an array holding elems.
func NewArray(elems ...Value) *Array {
	return &Array{elems: elems}
}

func (*Array) Kind() Kind { return ArrayKind }

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.elems) }

// At returns the i'th element.
func (a *Array) At(i int) Value { return a.elems[i] }

// SetAt replaces the i'th element.
func (a *Array) SetAt(i int, v Value) { a.elems[i] = v }

// Append adds v to the end of the array.
func (a *Array) Append(v Value) { a.elems = append(a.elems, v) }

// Elems returns the underlying elements. The slice is shared with the array.
func (a *Array) Elems() []Value { return a.elems }

// Object is an ordered mapping from string keys to values.
// Keys are unique; setting an existing key replaces its value but keeps
// the position of the first insertion.
type Object struct {
	keys   []string
	fields map[string]Value
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{fields: make(map[string]Value)}
}

func (*Object) Kind() Kind { return ObjectKind }

// Len returns the number of fields.
func (o *Object) Len() int { return len(o.keys) }

// Set stores v under key.
func (o *Object) Set(key string, v Value) {
	if o.fields == nil {
		o.fields = make(map[string]Value)
	}
	if _, ok := o.fields[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = v
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.fields[key]
	return v, ok
}

// Keys returns the keys in insertion order. The slice is shared with the object.
func (o *Object) Keys() []string { return o.keys }

// Range calls fn for each field in insertion order until fn returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	for _, k := range o.keys {
		if !fn(k, o.fields[k]) {
			return
		}
	}
}
