package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/value"
)

// DefaultMaxDepth is the nesting limit used when none is given.
const DefaultMaxDepth = 200

// Unpack decodes a B-EXENT document. A maxDepth of zero or less selects
// DefaultMaxDepth. Bytes left over after the document are an error.
func Unpack(data []byte, maxDepth int) (value.Value, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	u := unpacker{data: data, maxDepth: maxDepth}
	v, err := u.decode()
	if err != nil {
		return nil, err
	}
	if u.pos != len(u.data) {
		return nil, u.errorf(u.pos, errors.ErrTrailingInput, "%d bytes after document", len(u.data)-u.pos)
	}
	return v, nil
}

type unpacker struct {
	data     []byte
	pos      int
	depth    int
	maxDepth int
	refs     []value.Value
}

func (u *unpacker) decode() (value.Value, error) {
	at := u.pos
	b, err := u.read(1)
	if err != nil {
		return nil, err
	}
	switch tag := Tag(b[0]); tag {
	case TagNull:
		return value.Null{}, nil
	case TagTrue:
		return value.Bool(true), nil
	case TagFalse:
		return value.Bool(false), nil
	case TagInt32:
		n, err := u.readUint32()
		if err != nil {
			return nil, err
		}
		return value.Int(int32(n)), nil
	case TagBigInt64:
		n, err := u.readUint64()
		if err != nil {
			return nil, err
		}
		return value.BigIntFromInt64(int64(n)), nil
	case TagFloat64:
		f, err := u.readFloat64()
		if err != nil {
			return nil, err
		}
		return value.Float(f), nil
	case TagDecimal:
		f, err := u.readFloat64()
		if err != nil {
			return nil, err
		}
		return value.Decimal(f), nil
	case TagDate:
		f, err := u.readFloat64()
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || f < float64(value.MinDate.UnixMilli()) || f > float64(value.MaxDate.UnixMilli()) {
			return nil, u.errorf(at, errors.ErrUnsupportedValue, "date %v ms is outside years 0000-9999", f)
		}
		return value.DateFromUnixMilli(int64(f)), nil
	case TagString:
		s, err := u.readString()
		if err != nil {
			return nil, err
		}
		return value.String(s), nil
	case TagRef:
		id, err := u.readUint32()
		if err != nil {
			return nil, err
		}
		if uint64(id) >= uint64(len(u.refs)) {
			return nil, u.errorf(at, errors.ErrDanglingReference, "index %d, %d containers defined", id, len(u.refs))
		}
		return u.refs[id], nil
	case TagArray:
		return u.decodeArray(at)
	case TagObject:
		return u.decodeObject(at)
	default:
		return nil, u.errorf(at, errors.ErrUnknownTag, "%s", tag)
	}
}

func (u *unpacker) decodeArray(at int) (value.Value, error) {
	n, err := u.readUint32()
	if err != nil {
		return nil, err
	}
	if err := u.enter(at); err != nil {
		return nil, err
	}
	defer u.leave()

	arr := value.NewArray()
	u.refs = append(u.refs, arr)
	for i := uint32(0); i < n; i++ {
		elem, err := u.decode()
		if err != nil {
			return nil, err
		}
		arr.Append(elem)
	}
	return arr, nil
}

func (u *unpacker) decodeObject(at int) (value.Value, error) {
	n, err := u.readUint32()
	if err != nil {
		return nil, err
	}
	if err := u.enter(at); err != nil {
		return nil, err
	}
	defer u.leave()

	obj := value.NewObject()
	u.refs = append(u.refs, obj)
	for i := uint32(0); i < n; i++ {
		key, err := u.readString()
		if err != nil {
			return nil, err
		}
		elem, err := u.decode()
		if err != nil {
			return nil, err
		}
		obj.Set(key, elem)
	}
	return obj, nil
}

func (u *unpacker) enter(at int) error {
	u.depth++
	if u.depth > u.maxDepth {
		return u.errorf(at, errors.ErrMaxDepthExceeded, "limit is %d", u.maxDepth)
	}
	return nil
}

func (u *unpacker) leave() {
	u.depth--
}

func (u *unpacker) read(n int) ([]byte, error) {
	if n < 0 || len(u.data)-u.pos < n {
		return nil, u.errorf(u.pos, errors.ErrTruncated, "need %d bytes, have %d", n, len(u.data)-u.pos)
	}
	b := u.data[u.pos : u.pos+n]
	u.pos += n
	return b, nil
}

func (u *unpacker) readUint32() (uint32, error) {
	b, err := u.read(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (u *unpacker) readUint64() (uint64, error) {
	b, err := u.read(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (u *unpacker) readFloat64() (float64, error) {
	n, err := u.readUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(n), nil
}

func (u *unpacker) readString() (string, error) {
	n, err := u.readUint32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(len(u.data)-u.pos) {
		return "", u.errorf(u.pos, errors.ErrTruncated, "string of %d bytes, have %d", n, len(u.data)-u.pos)
	}
	b, err := u.read(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (u *unpacker) errorf(offset int, kind error, format string, args ...any) error {
	return &errors.DecodeError{Err: kind, Msg: fmt.Sprintf(format, args...), Offset: offset}
}
