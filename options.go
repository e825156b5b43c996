package exent

import (
	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/internal/formatter"
	crdb "github.com/cockroachdb/errors"
)

const (
	defaultMaxDepth = 200
	defaultIndent   = formatter.DefaultIndent
)

// Format selects the wire form used by Marshal, Unmarshal, Encoder and
// Decoder.
type Format int

const (
	// Text is EXENT, the human-writable notation.
	Text Format = iota
	// Binary is B-EXENT, the tagged binary encoding.
	Binary
)

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case Binary:
		return "binary"
	}
	return "unknown"
}

// Style decorates a piece of text output. See WithStyle.
type Style = formatter.Style

// Element classifies a piece of text output for a Style.
type Element = formatter.Element

// Elements passed to a Style.
const (
	ElementKey    = formatter.Key
	ElementAnchor = formatter.Anchor
	ElementRef    = formatter.Ref
	ElementNull   = formatter.Null
	ElementBool   = formatter.Bool
	ElementNumber = formatter.Number
	ElementString = formatter.String
	ElementDate   = formatter.Date
)

// Option configures parsing, formatting, packing and Go value mapping.
type Option func(*options) error

type options struct {
	maxDepth       int
	indent         int
	associative    bool
	strictComments bool
	lossyBigInt    bool
	format         Format
	style          Style
}

func newOptions(opts []Option) (*options, error) {
	o := &options{
		maxDepth:    defaultMaxDepth,
		indent:      defaultIndent,
		associative: true,
		format:      Text,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// MaxDepth sets the maximum number of arrays and objects that may be
// nested inside each other. Deeper documents fail with
// errors.ErrMaxDepthExceeded. The default is 200.
//
// The depth n must be a positive integer.
func MaxDepth(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return crdb.Wrap(errors.ErrInvalidOption, "exent: max depth must be a positive integer")
		}
		o.maxDepth = n
		return nil
	}
}

// Indent sets the number of spaces used for each nesting level in text
// output. Zero selects the compact single-line form. The default is 4.
func Indent(spaces int) Option {
	return func(o *options) error {
		if spaces < 0 {
			return crdb.Wrap(errors.ErrInvalidOption, "exent: indent spaces cannot be negative")
		}
		o.indent = spaces
		return nil
	}
}

// Associative controls what objects decode to when the Go target is an
// empty interface: map[string]any when true (the default), *value.Object
// when false. The latter keeps key order.
func Associative(on bool) Option {
	return func(o *options) error {
		o.associative = on
		return nil
	}
}

// StrictComments makes an unterminated block comment an error instead of
// a comment running to the end of the input.
func StrictComments() Option {
	return func(o *options) error {
		o.strictComments = true
		return nil
	}
}

// LossyBigInt makes packing keep only the low 64 bits of big integers that
// do not fit the binary 64-bit slot, instead of failing with
// errors.ErrPrecisionLoss.
func LossyBigInt() Option {
	return func(o *options) error {
		o.lossyBigInt = true
		return nil
	}
}

// WithFormat selects text or binary for Marshal, Unmarshal, Encoder and
// Decoder. The default is Text.
func WithFormat(f Format) Option {
	return func(o *options) error {
		if f != Text && f != Binary {
			return crdb.Wrapf(errors.ErrInvalidOption, "exent: unknown format %d", int(f))
		}
		o.format = f
		return nil
	}
}

// WithStyle decorates text output, e.g. with terminal colors.
func WithStyle(s Style) Option {
	return func(o *options) error {
		o.style = s
		return nil
	}
}
