package exent

import (
	"cmp"
	"encoding"
	"io"
	"math"
	"math/big"
	"reflect"
	"slices"
	"time"

	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/internal/mapper"
	"github.com/KimNorgaard/go-exent/value"
	crdb "github.com/cockroachdb/errors"
)

// Encoder writes EXENT values to an output stream.
type Encoder struct {
	w    io.Writer
	opts []Option
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer, opts ...Option) *Encoder {
	return &Encoder{w: w, opts: opts}
}

// Encode writes the encoding of v to the stream, in text unless the
// encoder was created with WithFormat(Binary).
func (e *Encoder) Encode(v any) error {
	o, err := newOptions(e.opts)
	if err != nil {
		return err
	}
	b, err := marshal(v, o)
	if err != nil {
		return err
	}
	_, err = e.w.Write(b)
	return err
}

// ValueOf converts a Go value to a value graph.
//
// Values implementing value.Value are used as they are. time.Time becomes
// a Date and big.Int a BigInt. Structs and string-keyed maps become
// objects, struct fields following `exent:"name,omitempty"` tags; map keys
// are sorted. Slices and arrays become arrays. Integers become Int, or
// BigInt when an unsigned value exceeds int64. Marshaler and
// encoding.TextMarshaler are honored.
//
// Pointers to structs, maps and slices keep their identity: reaching the
// same one twice yields the same container, so shared and cyclic Go data
// is written with anchors.
func ValueOf(v any, opts ...Option) (value.Value, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return valueOf(v, o)
}

func valueOf(v any, o *options) (value.Value, error) {
	es := &encodeState{opts: o, seen: make(map[identity]value.Value)}
	g, err := es.marshalValue(reflect.ValueOf(v))
	if err != nil {
		var me *MarshalerError
		if crdb.As(err, &me) {
			return nil, err
		}
		return nil, crdb.WithMessage(err, "exent")
	}
	return g, nil
}

var (
	valueType         = reflect.TypeFor[value.Value]()
	timeType          = reflect.TypeFor[time.Time]()
	bigIntType        = reflect.TypeFor[big.Int]()
	marshalerType     = reflect.TypeFor[Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// identity names a Go container: its address, its type, and for slices
// its length, since slices of one backing array may differ in length.
type identity struct {
	ptr uintptr
	typ reflect.Type
	n   int
}

type encodeState struct {
	opts  *options
	seen  map[identity]value.Value
	depth int
}

func (e *encodeState) marshalCustom(v reflect.Value, u Marshaler) (value.Value, error) {
	b, err := u.MarshalEXENT()
	if err != nil {
		return nil, &MarshalerError{Type: v.Type(), Err: err}
	}

	// The marshaled text is parsed back so it becomes part of the graph
	// being built.
	if len(b) == 0 {
		return value.Null{}, nil
	}
	g, err := parse(b, e.opts)
	if err != nil {
		return nil, &MarshalerError{Type: v.Type(), Err: crdb.Wrap(err, "invalid EXENT output")}
	}
	return g, nil
}

func (e *encodeState) marshalText(v reflect.Value, u encoding.TextMarshaler) (value.Value, error) {
	b, err := u.MarshalText()
	if err != nil {
		return nil, &MarshalerError{Type: v.Type(), Err: err}
	}
	return value.String(b), nil
}

// isEmptyValue reports whether the value v is empty.
func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}

// tryCustomMarshal handles the types with their own conversion. It must
// see v before pointers are followed so pointer receivers are found.
func (e *encodeState) tryCustomMarshal(v reflect.Value) (value.Value, bool, error) {
	t := v.Type()
	if t.Kind() == reflect.Interface || !v.CanInterface() {
		return nil, false, nil
	}
	if t.Implements(valueType) {
		if t.Kind() == reflect.Pointer && v.IsNil() {
			return value.Null{}, true, nil
		}
		return v.Interface().(value.Value), true, nil
	}
	switch t {
	case timeType:
		return value.NewDate(v.Interface().(time.Time)), true, nil
	case bigIntType:
		b := v.Interface().(big.Int)
		return value.NewBigInt(&b), true, nil
	}
	if t.Kind() == reflect.Pointer && t.Elem() == bigIntType {
		if v.IsNil() {
			return value.Null{}, true, nil
		}
		return value.NewBigInt(v.Interface().(*big.Int)), true, nil
	}

	// Check the value itself and a pointer to the value,
	// to handle both value and pointer receivers.
	pv := v
	if v.Kind() != reflect.Pointer {
		if v.CanAddr() {
			pv = v.Addr()
		} else {
			// For non-addressable values (like struct literals),
			// create a pointer to a copy to check for the interface.
			pv = reflect.New(t)
			pv.Elem().Set(v)
		}
	} else if v.IsNil() {
		return nil, false, nil
	}
	for _, c := range []reflect.Value{v, pv} {
		if !c.CanInterface() {
			continue
		}
		if c.Type().Implements(marshalerType) {
			g, err := e.marshalCustom(c, c.Interface().(Marshaler))
			return g, true, err
		}
	}
	for _, c := range []reflect.Value{v, pv} {
		if !c.CanInterface() {
			continue
		}
		if c.Type().Implements(textMarshalerType) {
			g, err := e.marshalText(c, c.Interface().(encoding.TextMarshaler))
			return g, true, err
		}
	}
	return nil, false, nil
}

func (e *encodeState) marshalValue(v reflect.Value) (value.Value, error) { //nolint:gocyclo
	// Handle nil interfaces explicitly to avoid panics.
	if !v.IsValid() {
		return value.Null{}, nil
	}

	if g, ok, err := e.tryCustomMarshal(v); ok || err != nil {
		return g, err
	}

	// Follow pointers and interfaces to find the concrete value. A pointer
	// to a struct is the identity of the object made from it.
	var id identity
	var hops int
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return value.Null{}, nil
		}
		if v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Struct && id.ptr == 0 {
			id = identity{ptr: v.Pointer(), typ: v.Type()}
		}
		if hops++; hops > e.opts.maxDepth {
			return nil, crdb.Wrapf(errors.ErrUnsupportedValue, "pointer chain through %s is too long", v.Type())
		}
		v = v.Elem()
		if g, ok, err := e.tryCustomMarshal(v); ok || err != nil {
			return g, err
		}
	}

	switch v.Kind() {
	case reflect.String:
		return value.String(v.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := v.Uint()
		if n > math.MaxInt64 {
			return value.NewBigInt(new(big.Int).SetUint64(n)), nil
		}
		return value.Int(int64(n)), nil
	case reflect.Float32, reflect.Float64:
		return value.Float(v.Float()), nil
	case reflect.Bool:
		return value.Bool(v.Bool()), nil
	case reflect.Slice:
		if v.IsNil() {
			return value.Null{}, nil
		}
		if v.Len() > 0 {
			id = identity{ptr: v.Pointer(), typ: v.Type(), n: v.Len()}
		}
		return e.marshalArray(v, id)
	case reflect.Array:
		return e.marshalArray(v, identity{})
	case reflect.Map:
		if v.IsNil() {
			return value.Null{}, nil
		}
		if v.Type().Key().Kind() != reflect.String {
			return nil, crdb.Wrapf(errors.ErrUnsupportedValue, "map key type must be a string, got %s", v.Type().Key())
		}
		return e.marshalMap(v, identity{ptr: v.Pointer(), typ: v.Type()})
	case reflect.Struct:
		return e.marshalStruct(v, id)
	default:
		// nil can be a valid value for some kinds (e.g. chan, func)
		if v.IsZero() {
			return value.Null{}, nil
		}
		return nil, crdb.Wrapf(errors.ErrUnsupportedValue, "unsupported type for marshaling: %s", v.Type())
	}
}

// remember returns the container already made for id, or registers c as
// the container for id. A zero id is never remembered.
func (e *encodeState) remember(id identity, c value.Value) (value.Value, bool) {
	if id.ptr == 0 {
		return c, false
	}
	if prev, ok := e.seen[id]; ok {
		return prev, true
	}
	e.seen[id] = c
	return c, false
}

func (e *encodeState) enter() error {
	e.depth++
	if e.depth > e.opts.maxDepth {
		return crdb.Wrapf(errors.ErrMaxDepthExceeded, "limit is %d", e.opts.maxDepth)
	}
	return nil
}

func (e *encodeState) leave() { e.depth-- }

func (e *encodeState) marshalArray(v reflect.Value, id identity) (value.Value, error) {
	arr := value.NewArray()
	if prev, ok := e.remember(id, arr); ok {
		return prev, nil
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()

	for i := 0; i < v.Len(); i++ {
		elem, err := e.marshalValue(v.Index(i))
		if err != nil {
			return nil, err
		}
		arr.Append(elem)
	}
	return arr, nil
}

func (e *encodeState) marshalMap(v reflect.Value, id identity) (value.Value, error) {
	obj := value.NewObject()
	if prev, ok := e.remember(id, obj); ok {
		return prev, nil
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()

	keys := v.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return cmp.Compare(a.String(), b.String())
	})
	for _, key := range keys {
		elem, err := e.marshalValue(v.MapIndex(key))
		if err != nil {
			return nil, err
		}
		obj.Set(key.String(), elem)
	}
	return obj, nil
}

func (e *encodeState) marshalStruct(v reflect.Value, id identity) (value.Value, error) {
	obj := value.NewObject()
	if prev, ok := e.remember(id, obj); ok {
		return prev, nil
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()

	for _, f := range mapper.Fields(v.Type()) {
		fv, err := v.FieldByIndexErr(f.Index)
		if err != nil {
			// Promoted through a nil embedded pointer.
			continue
		}
		if f.OmitEmpty && isEmptyValue(fv) {
			continue
		}
		elem, err := e.marshalValue(fv)
		if err != nil {
			return nil, err
		}
		obj.Set(f.Name, elem)
	}
	return obj, nil
}
