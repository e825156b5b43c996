package exent

import (
	"bytes"
	"strconv"

	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/internal/formatter"
	"github.com/KimNorgaard/go-exent/value"
	"github.com/buger/jsonparser"
	crdb "github.com/cockroachdb/errors"
)

// FromJSON builds a value graph from a JSON document. Integers that do not
// fit in 64 bits become BigInt; other numbers with a fraction or exponent
// become Float. JSON has no sharing, so every container is distinct.
//
// Only whitespace may follow the value, and trailing commas are rejected.
// Honors MaxDepth.
func FromJSON(data []byte, opts ...Option) (value.Value, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	v, dataType, end, err := jsonparser.Get(data)
	if err != nil {
		return nil, invalidJSON(err)
	}
	if rest := bytes.TrimSpace(data[end:]); len(rest) > 0 {
		return nil, crdb.Wrapf(errors.ErrTrailingInput, "exent: %d bytes after JSON value", len(rest))
	}
	j := &jsonState{maxDepth: o.maxDepth}
	return j.parseJSONValue(dataType, v)
}

func invalidJSON(err error) error {
	return crdb.Mark(crdb.Wrap(err, "exent: invalid JSON"), errors.ErrUnexpectedToken)
}

type jsonState struct {
	depth    int
	maxDepth int
}

func (j *jsonState) parseJSONValue(dataType jsonparser.ValueType, data []byte) (value.Value, error) {
	switch dataType {
	case jsonparser.Null:
		return value.Null{}, nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil, invalidJSON(err)
		}
		return value.Bool(b), nil
	case jsonparser.Number:
		i, err := jsonparser.ParseInt(data)
		if err == nil {
			return value.Int(i), nil
		}
		// Too big for an int64: keep every digit of an integer, and
		// parse anything else as a double.
		if !bytes.ContainsAny(data, ".eE") {
			if b, ok := value.ParseBigInt(string(data)); ok {
				return b, nil
			}
		}
		f, err := jsonparser.ParseFloat(data)
		if err != nil {
			return nil, invalidJSON(err)
		}
		return value.Float(f), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return nil, invalidJSON(err)
		}
		return value.String(s), nil
	case jsonparser.Array:
		return j.parseJSONArray(data)
	case jsonparser.Object:
		return j.parseJSONObject(data)
	}
	return nil, invalidJSON(crdb.Newf("unexpected %s value", dataType))
}

// trailingComma reports whether the array or object text c has a comma
// before its closing bracket.
func trailingComma(c []byte) bool {
	body := bytes.TrimSpace(c[:len(c)-1])
	return len(body) > 0 && body[len(body)-1] == ','
}

func (j *jsonState) enter() error {
	j.depth++
	if j.depth > j.maxDepth {
		return crdb.Wrapf(errors.ErrMaxDepthExceeded, "exent: JSON nested deeper than %d", j.maxDepth)
	}
	return nil
}

func (j *jsonState) parseJSONArray(data []byte) (value.Value, error) {
	if err := j.enter(); err != nil {
		return nil, err
	}
	defer func() { j.depth-- }()
	if trailingComma(data) {
		return nil, invalidJSON(crdb.New("trailing comma in array"))
	}

	arr := value.NewArray()
	var err error
	_, perr := jsonparser.ArrayEach(data, func(v []byte, dataType jsonparser.ValueType, _ int, cbErr error) {
		if err != nil {
			return
		}
		if cbErr != nil {
			err = invalidJSON(cbErr)
			return
		}
		var elem value.Value
		if elem, err = j.parseJSONValue(dataType, v); err == nil {
			arr.Append(elem)
		}
	})
	if err != nil {
		return nil, err
	}
	if perr != nil {
		return nil, invalidJSON(perr)
	}
	return arr, nil
}

func (j *jsonState) parseJSONObject(data []byte) (value.Value, error) {
	if err := j.enter(); err != nil {
		return nil, err
	}
	defer func() { j.depth-- }()
	if trailingComma(data) {
		return nil, invalidJSON(crdb.New("trailing comma in object"))
	}

	obj := value.NewObject()
	err := jsonparser.ObjectEach(data, func(key, v []byte, dataType jsonparser.ValueType, _ int) error {
		k, err := jsonparser.ParseString(key)
		if err != nil {
			return invalidJSON(err)
		}
		elem, err := j.parseJSONValue(dataType, v)
		if err != nil {
			return err
		}
		obj.Set(k, elem)
		return nil
	})
	if err != nil {
		if errors.Is(err, errors.ErrMaxDepthExceeded) || errors.Is(err, errors.ErrUnexpectedToken) {
			return nil, err
		}
		return nil, invalidJSON(err)
	}
	return obj, nil
}

// ToJSON returns the JSON text for v. Shared containers are written out
// at every occurrence; a cycle is an error. Big integers and decimals
// become JSON numbers and dates ISO-8601 strings.
func ToJSON(v value.Value) ([]byte, error) {
	j := &jsonWriter{onPath: make(map[value.Value]bool)}
	if err := j.write(v); err != nil {
		return nil, err
	}
	return j.buf.Bytes(), nil
}

type jsonWriter struct {
	buf    bytes.Buffer
	onPath map[value.Value]bool
}

func (j *jsonWriter) write(v value.Value) error { //nolint:gocyclo
	if isContainer(v) {
		if j.onPath[v] {
			return crdb.Wrap(errors.ErrUnsupportedValue, "exent: cannot write a cyclic graph as JSON")
		}
		j.onPath[v] = true
		defer delete(j.onPath, v)
	}

	switch x := v.(type) {
	case nil, value.Null:
		j.buf.WriteString("null")
	case value.Bool:
		j.buf.WriteString(strconv.FormatBool(bool(x)))
	case value.Int:
		j.buf.WriteString(strconv.FormatInt(int64(x), 10))
	case value.BigInt:
		j.buf.WriteString(x.String())
	case value.Float:
		s, err := formatter.FormatFloat(float64(x))
		if err != nil {
			return err
		}
		j.buf.WriteString(s)
	case value.Decimal:
		s, err := formatter.FormatDecimal(float64(x))
		if err != nil {
			return err
		}
		j.buf.WriteString(s[:len(s)-1])
	case value.String:
		j.buf.WriteString(formatter.Quote(string(x)))
	case value.Date:
		j.buf.WriteString(formatter.Quote(x.String()))
	case *value.Array:
		if x == nil {
			j.buf.WriteString("null")
			return nil
		}
		j.buf.WriteByte('[')
		for i, elem := range x.Elems() {
			if i > 0 {
				j.buf.WriteByte(',')
			}
			if err := j.write(elem); err != nil {
				return err
			}
		}
		j.buf.WriteByte(']')
	case *value.Object:
		if x == nil {
			j.buf.WriteString("null")
			return nil
		}
		j.buf.WriteByte('{')
		for i, k := range x.Keys() {
			if i > 0 {
				j.buf.WriteByte(',')
			}
			j.buf.WriteString(formatter.Quote(k))
			j.buf.WriteByte(':')
			elem, _ := x.Get(k)
			if err := j.write(elem); err != nil {
				return err
			}
		}
		j.buf.WriteByte('}')
	default:
		return crdb.Wrapf(errors.ErrUnsupportedValue, "exent: cannot write %T as JSON", v)
	}
	return nil
}
