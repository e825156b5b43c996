package codec

import (
	"encoding/binary"
	"math"

	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/value"
	crdb "github.com/cockroachdb/errors"
)

// PackOptions tune Pack.
type PackOptions struct {
	// LossyBigInt truncates big integers that do not fit in 64 bits to
	// their low 64 bits instead of failing with ErrPrecisionLoss.
	LossyBigInt bool
}

// Pack encodes v as a B-EXENT document.
func Pack(v value.Value, opts PackOptions) ([]byte, error) {
	return AppendPack(nil, v, opts)
}

// AppendPack appends the encoding of v to dst.
func AppendPack(dst []byte, v value.Value, opts PackOptions) ([]byte, error) {
	p := packer{
		opts: opts,
		refs: make(map[value.Value]uint32),
	}
	return p.encode(dst, v)
}

type packer struct {
	opts PackOptions
	refs map[value.Value]uint32
}

func (p *packer) encode(dst []byte, v value.Value) ([]byte, error) {
	switch x := v.(type) {
	case nil, value.Null:
		return append(dst, byte(TagNull)), nil
	case value.Bool:
		if x {
			return append(dst, byte(TagTrue)), nil
		}
		return append(dst, byte(TagFalse)), nil
	case value.Int:
		return encodeInt(dst, int64(x)), nil
	case value.BigInt:
		if !x.IsInt64() && !p.opts.LossyBigInt {
			return nil, crdb.Wrapf(errors.ErrPrecisionLoss, "cannot pack %sn", x.String())
		}
		dst = append(dst, byte(TagBigInt64))
		return binary.BigEndian.AppendUint64(dst, uint64(x.Int64())), nil
	case value.Float:
		return encodeFloat64(append(dst, byte(TagFloat64)), float64(x)), nil
	case value.Decimal:
		return encodeFloat64(append(dst, byte(TagDecimal)), float64(x)), nil
	case value.String:
		return encodeString(append(dst, byte(TagString)), string(x))
	case value.Date:
		if !x.InRange() {
			return nil, crdb.Wrapf(errors.ErrUnsupportedValue, "cannot pack date %s", x.Time())
		}
		return encodeFloat64(append(dst, byte(TagDate)), float64(x.UnixMilli())), nil
	case *value.Array:
		if x == nil {
			return append(dst, byte(TagNull)), nil
		}
		if dst, ok := p.encodeRef(dst, x); ok {
			return dst, nil
		}
		dst, err := encodeLen(append(dst, byte(TagArray)), x.Len())
		if err != nil {
			return nil, err
		}
		for _, elem := range x.Elems() {
			if dst, err = p.encode(dst, elem); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case *value.Object:
		if x == nil {
			return append(dst, byte(TagNull)), nil
		}
		if dst, ok := p.encodeRef(dst, x); ok {
			return dst, nil
		}
		dst, err := encodeLen(append(dst, byte(TagObject)), x.Len())
		if err != nil {
			return nil, err
		}
		for _, key := range x.Keys() {
			if dst, err = encodeString(dst, key); err != nil {
				return nil, err
			}
			elem, _ := x.Get(key)
			if dst, err = p.encode(dst, elem); err != nil {
				return nil, err
			}
		}
		return dst, nil
	}
	return nil, crdb.Wrapf(errors.ErrUnsupportedValue, "cannot pack %T", v)
}

// encodeRef writes a reference when c was written before. Otherwise it
// numbers c and reports false so the caller writes it in full.
func (p *packer) encodeRef(dst []byte, c value.Value) ([]byte, bool) {
	if id, ok := p.refs[c]; ok {
		dst = append(dst, byte(TagRef))
		return binary.BigEndian.AppendUint32(dst, id), true
	}
	p.refs[c] = uint32(len(p.refs))
	return dst, false
}

func encodeInt(dst []byte, n int64) []byte {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		dst = append(dst, byte(TagInt32))
		return binary.BigEndian.AppendUint32(dst, uint32(int32(n)))
	}
	dst = append(dst, byte(TagBigInt64))
	return binary.BigEndian.AppendUint64(dst, uint64(n))
}

func encodeFloat64(dst []byte, f float64) []byte {
	return binary.BigEndian.AppendUint64(dst, math.Float64bits(f))
}

func encodeLen(dst []byte, n int) ([]byte, error) {
	if uint64(n) > math.MaxUint32 {
		return nil, crdb.Wrapf(errors.ErrUnsupportedValue, "length %d does not fit in 32 bits", n)
	}
	return binary.BigEndian.AppendUint32(dst, uint32(n)), nil
}

func encodeString(dst []byte, s string) ([]byte, error) {
	dst, err := encodeLen(dst, len(s))
	if err != nil {
		return nil, err
	}
	return append(dst, s...), nil
}
