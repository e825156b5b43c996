package exent

import (
	"bytes"
	"encoding"
	"fmt"
	"io"
	"math/big"
	"reflect"

	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/internal/formatter"
	"github.com/KimNorgaard/go-exent/internal/mapper"
	"github.com/KimNorgaard/go-exent/value"
	crdb "github.com/cockroachdb/errors"
)

// Decoder reads and decodes EXENT values from an input stream.
type Decoder struct {
	r    io.Reader
	opts []Option
}

// NewDecoder returns a new decoder that reads from r.
//
// The decoder may buffer data from r as necessary. It is the caller's
// responsibility to call Close on r if required.
//
// Functional options can be provided to configure the decoding process,
// such as setting a maximum decoding depth with the MaxDepth option or
// reading B-EXENT with WithFormat(Binary).
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return &Decoder{r: r, opts: opts}
}

// Decode reads the EXENT-encoded value from its input and stores it in
// the value pointed to by v. If v is nil or not a pointer, Decode returns
// an error.
//
// Note: This is a non-streaming implementation. It reads the entire
// reader into memory first before parsing.
func (d *Decoder) Decode(v any) error {
	if d.r == nil {
		return crdb.New("exent: Decode(nil reader)")
	}
	o, err := newOptions(d.opts)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	return unmarshal(data, v, o)
}

// Decode stores the value graph g in the Go value pointed to by v.
//
// The conversion mirrors ValueOf. Into an empty interface, objects become
// map[string]any (or *value.Object, see Associative), arrays []any,
// integers int64, big integers *big.Int, floats and decimals float64,
// dates time.Time. Targets of type value.Value, or of the exact type of
// the node, receive the node itself.
//
// Identity survives the conversion where Go can express it: a container
// reached twice is decoded once when the target is a pointer, map, slice
// or interface, and later occurrences share that Go value. Cycles decode
// into cyclic Go data.
func Decode(g value.Value, v any, opts ...Option) error {
	o, err := newOptions(opts)
	if err != nil {
		return err
	}
	return decode(g, v, o)
}

func decode(g value.Value, v any, o *options) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return crdb.Newf("exent: Unmarshal(non-pointer %T or nil)", v)
	}
	ds := &decodeState{opts: o, seen: make(map[target]reflect.Value)}
	return ds.mapValue(g, rv.Elem())
}

// target is a container decoded into a Go type.
type target struct {
	node value.Value
	typ  reflect.Type
}

type decodeState struct {
	opts  *options
	seen  map[target]reflect.Value
	depth int
}

var (
	unmarshalerType     = reflect.TypeFor[Unmarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

func isContainer(g value.Value) bool {
	switch c := g.(type) {
	case *value.Array:
		return c != nil
	case *value.Object:
		return c != nil
	}
	return false
}

func isNull(g value.Value) bool {
	switch c := g.(type) {
	case nil, value.Null:
		return true
	case *value.Array:
		return c == nil
	case *value.Object:
		return c == nil
	}
	return false
}

func (ds *decodeState) typeError(g value.Value, rv reflect.Value) error {
	return &UnmarshalTypeError{Value: g.Kind().String(), Type: rv.Type()}
}

func (ds *decodeState) enter() error {
	ds.depth++
	if ds.depth > ds.opts.maxDepth {
		return crdb.Wrapf(errors.ErrMaxDepthExceeded, "exent: decoding deeper than %d", ds.opts.maxDepth)
	}
	return nil
}

func (ds *decodeState) leave() { ds.depth-- }

func (ds *decodeState) mapValue(g value.Value, rv reflect.Value) error { //nolint:gocyclo
	if !rv.CanSet() {
		return fmt.Errorf("exent: cannot set value of type %s", rv.Type())
	}

	// The node itself.
	if rv.Type() == valueType || (g != nil && rv.Type() == reflect.TypeOf(g)) {
		if g == nil {
			g = value.Null{}
		}
		rv.Set(reflect.ValueOf(g))
		return nil
	}

	if isNull(g) {
		switch rv.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
	}

	// Attempt to use a custom unmarshaler if available.
	handled, err := ds.tryCustomUnmarshal(g, rv)
	if err != nil {
		return err
	}
	if handled {
		return nil
	}

	switch rv.Kind() {
	case reflect.Pointer:
		return ds.mapPointer(g, rv)
	case reflect.Interface:
		return ds.mapInterface(g, rv)
	}

	switch x := g.(type) {
	case nil, value.Null:
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	case value.Bool:
		if rv.Kind() != reflect.Bool {
			return ds.typeError(g, rv)
		}
		rv.SetBool(bool(x))
		return nil
	case value.String:
		return ds.mapString(x, rv)
	case value.Int:
		return ds.mapInt(g, big.NewInt(int64(x)), rv)
	case value.BigInt:
		return ds.mapInt(g, x.Big(), rv)
	case value.Float:
		return ds.mapFloat(g, float64(x), rv)
	case value.Decimal:
		return ds.mapFloat(g, float64(x), rv)
	case value.Date:
		return ds.mapDate(x, rv)
	case *value.Array:
		switch rv.Kind() {
		case reflect.Slice:
			return ds.mapSlice(x, rv)
		case reflect.Array:
			return ds.mapArray(x, rv)
		}
		return ds.typeError(g, rv)
	case *value.Object:
		switch rv.Kind() {
		case reflect.Struct:
			return ds.mapStruct(x, rv)
		case reflect.Map:
			return ds.mapMap(x, rv)
		}
		return ds.typeError(g, rv)
	}
	return crdb.Wrapf(errors.ErrUnsupportedValue, "exent: cannot decode %T", g)
}

// tryCustomUnmarshal attempts to use a custom unmarshaler (exent.Unmarshaler
// or encoding.TextUnmarshaler) on the given reflect.Value. It returns true
// if a custom unmarshaler was found and used, in which case the caller
// should not proceed with default unmarshaling.
func (ds *decodeState) tryCustomUnmarshal(g value.Value, rv reflect.Value) (bool, error) {
	if rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface || !rv.CanAddr() {
		return false, nil
	}
	pv := rv.Addr()
	if !pv.CanInterface() {
		return false, nil
	}

	if pv.Type().Implements(unmarshalerType) {
		var buf bytes.Buffer
		if err := formatter.New(&buf, 0, nil).Format(g); err != nil {
			return true, crdb.Wrap(err, "exent: failed to re-marshal value for custom unmarshaler")
		}
		if err := pv.Interface().(Unmarshaler).UnmarshalEXENT(buf.Bytes()); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	if pv.Type().Implements(textUnmarshalerType) {
		s, isString := g.(value.String)
		if !isString {
			// TextUnmarshaler can only be used on string values.
			return false, nil
		}
		if err := pv.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	return false, nil
}

func (ds *decodeState) mapPointer(g value.Value, rv reflect.Value) error {
	key := target{node: g, typ: rv.Type()}
	if isContainer(g) {
		if prev, ok := ds.seen[key]; ok {
			rv.Set(prev)
			return nil
		}
	}
	p := reflect.New(rv.Type().Elem())
	if isContainer(g) {
		ds.seen[key] = p
	}
	if err := ds.mapValue(g, p.Elem()); err != nil {
		return err
	}
	rv.Set(p)
	return nil
}

func (ds *decodeState) mapInterface(g value.Value, rv reflect.Value) error {
	if rv.NumMethod() != 0 {
		// A non-empty interface can only receive a node that implements it.
		if g != nil && reflect.TypeOf(g).Implements(rv.Type()) {
			rv.Set(reflect.ValueOf(g))
			return nil
		}
		return fmt.Errorf("exent: cannot unmarshal into non-empty interface %s", rv.Type())
	}
	var concrete reflect.Value
	switch x := g.(type) {
	case nil, value.Null:
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	case value.Bool:
		concrete = reflect.ValueOf(bool(x))
	case value.String:
		concrete = reflect.ValueOf(string(x))
	case value.Int:
		concrete = reflect.ValueOf(int64(x))
	case value.BigInt:
		concrete = reflect.ValueOf(x.Big())
	case value.Float:
		concrete = reflect.ValueOf(float64(x))
	case value.Decimal:
		concrete = reflect.ValueOf(float64(x))
	case value.Date:
		concrete = reflect.ValueOf(x.Time())
	case *value.Array:
		var a []any
		concrete = reflect.New(reflect.TypeOf(a)).Elem()
		if err := ds.mapValue(g, concrete); err != nil {
			return err
		}
	case *value.Object:
		if !ds.opts.associative {
			concrete = reflect.ValueOf(x)
			break
		}
		var m map[string]any
		concrete = reflect.New(reflect.TypeOf(m)).Elem()
		if err := ds.mapValue(g, concrete); err != nil {
			return err
		}
	default:
		return fmt.Errorf("exent: cannot determine concrete type for interface{} for value %T", g)
	}
	rv.Set(concrete)
	return nil
}

func (ds *decodeState) mapString(s value.String, rv reflect.Value) error {
	switch {
	case rv.Kind() == reflect.String:
		rv.SetString(string(s))
		return nil
	case rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8:
		rv.SetBytes([]byte(s))
		return nil
	}
	return ds.typeError(s, rv)
}

func (ds *decodeState) mapInt(g value.Value, n *big.Int, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !n.IsInt64() || rv.OverflowInt(n.Int64()) {
			return fmt.Errorf("exent: integer value %s overflows Go value of type %s", n, rv.Type())
		}
		rv.SetInt(n.Int64())
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if !n.IsUint64() || rv.OverflowUint(n.Uint64()) {
			return fmt.Errorf("exent: integer value %s overflows Go value of type %s", n, rv.Type())
		}
		rv.SetUint(n.Uint64())
		return nil
	case reflect.Float32, reflect.Float64:
		f, _ := new(big.Float).SetInt(n).Float64()
		rv.SetFloat(f)
		return nil
	case reflect.Struct:
		if rv.Type() == bigIntType {
			rv.Set(reflect.ValueOf(n).Elem())
			return nil
		}
	}
	return ds.typeError(g, rv)
}

func (ds *decodeState) mapFloat(g value.Value, f float64, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		if rv.OverflowFloat(f) {
			return fmt.Errorf("exent: float value %g overflows Go value of type %s", f, rv.Type())
		}
		rv.SetFloat(f)
		return nil
	}
	return ds.typeError(g, rv)
}

func (ds *decodeState) mapDate(d value.Date, rv reflect.Value) error {
	switch {
	case rv.Type() == timeType:
		rv.Set(reflect.ValueOf(d.Time()))
		return nil
	case rv.Kind() == reflect.String:
		rv.SetString(d.String())
		return nil
	case rv.Kind() == reflect.Int64:
		rv.SetInt(d.UnixMilli())
		return nil
	}
	return ds.typeError(d, rv)
}

func (ds *decodeState) mapSlice(a *value.Array, rv reflect.Value) error {
	key := target{node: a, typ: rv.Type()}
	if prev, ok := ds.seen[key]; ok {
		rv.Set(prev)
		return nil
	}
	if err := ds.enter(); err != nil {
		return err
	}
	defer ds.leave()

	newSlice := reflect.MakeSlice(rv.Type(), a.Len(), a.Len())
	ds.seen[key] = newSlice
	for i, elem := range a.Elems() {
		if err := ds.mapValue(elem, newSlice.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(newSlice)
	return nil
}

func (ds *decodeState) mapArray(a *value.Array, rv reflect.Value) error {
	if rv.Len() != a.Len() {
		return fmt.Errorf("exent: cannot unmarshal array of length %d into Go array of length %d", a.Len(), rv.Len())
	}
	if err := ds.enter(); err != nil {
		return err
	}
	defer ds.leave()

	for i, elem := range a.Elems() {
		if err := ds.mapValue(elem, rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (ds *decodeState) mapMap(obj *value.Object, rv reflect.Value) error {
	mapType := rv.Type()
	if mapType.Key().Kind() != reflect.String {
		return fmt.Errorf("exent: cannot unmarshal object into map with non-string key type %s", mapType.Key())
	}
	key := target{node: obj, typ: mapType}
	if prev, ok := ds.seen[key]; ok {
		rv.Set(prev)
		return nil
	}
	if err := ds.enter(); err != nil {
		return err
	}
	defer ds.leave()

	var m reflect.Value
	if rv.IsNil() {
		m = reflect.MakeMap(mapType)
	} else {
		m = reflect.ValueOf(rv.Interface())
		m.Clear()
	}
	ds.seen[key] = m
	rv.Set(m)
	elemType := mapType.Elem()
	var err error
	obj.Range(func(k string, elem value.Value) bool {
		newVal := reflect.New(elemType).Elem()
		if err = ds.mapValue(elem, newVal); err != nil {
			return false
		}
		m.SetMapIndex(reflect.ValueOf(k).Convert(mapType.Key()), newVal)
		return true
	})
	return err
}

func (ds *decodeState) mapStruct(obj *value.Object, rv reflect.Value) error {
	if err := ds.enter(); err != nil {
		return err
	}
	defer ds.leave()

	var err error
	obj.Range(func(k string, elem value.Value) bool {
		f, ok := mapper.Lookup(rv.Type(), k)
		if !ok {
			return true
		}
		fieldVal, ferr := fieldByIndex(rv, f.Index)
		if ferr != nil {
			err = ferr
			return false
		}
		if fieldVal.CanSet() {
			err = ds.mapValue(elem, fieldVal)
		}
		return err == nil
	})
	return err
}

// fieldByIndex is reflect.Value.FieldByIndex, allocating nil embedded
// struct pointers on the way.
func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				if !rv.CanSet() {
					return reflect.Value{}, fmt.Errorf("exent: cannot set embedded pointer to unexported struct: %v", rv.Type().Elem())
				}
				rv.Set(reflect.New(rv.Type().Elem()))
			}
			rv = rv.Elem()
		}
		rv = rv.Field(x)
	}
	return rv, nil
}
