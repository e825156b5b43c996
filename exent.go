package exent

import (
	"strings"

	"github.com/KimNorgaard/go-exent/internal/codec"
	"github.com/KimNorgaard/go-exent/internal/formatter"
	"github.com/KimNorgaard/go-exent/internal/lexer"
	"github.com/KimNorgaard/go-exent/internal/parser"
	"github.com/KimNorgaard/go-exent/token"
	"github.com/KimNorgaard/go-exent/value"
)

// Marshaler is the interface implemented by types that
// can marshal themselves into valid EXENT text.
type Marshaler interface {
	MarshalEXENT() ([]byte, error)
}

// Unmarshaler is the interface implemented by types that can unmarshal
// an EXENT description of themselves. The input is compact EXENT text.
type Unmarshaler interface {
	UnmarshalEXENT([]byte) error
}

// Tokenize splits EXENT text into tokens. Whitespace and comments are
// dropped and no EOF token is included.
//
// Honors StrictComments.
func Tokenize(data []byte, opts ...Option) ([]token.Token, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return lexer.Tokenize(data, o.strictComments)
}

// Parse reads one EXENT value from data. Anchors and references are
// resolved, so a container referenced several times in the text is one
// container in the result.
//
// Honors MaxDepth and StrictComments.
func Parse(data []byte, opts ...Option) (value.Value, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return parse(data, o)
}

func parse(data []byte, o *options) (value.Value, error) {
	toks, err := lexer.Tokenize(data, o.strictComments)
	if err != nil {
		return nil, err
	}
	return parser.Parse(toks, o.maxDepth)
}

// ParseTokens builds a value from tokens returned by Tokenize.
//
// Honors MaxDepth.
func ParseTokens(toks []token.Token, opts ...Option) (value.Value, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return parser.Parse(toks, o.maxDepth)
}

// Stringify returns the EXENT text for v. Containers that occur more than
// once, including through cycles, are written once with an anchor and
// referenced afterwards.
//
// Honors Indent and WithStyle.
func Stringify(v value.Value, opts ...Option) (string, error) {
	o, err := newOptions(opts)
	if err != nil {
		return "", err
	}
	return stringify(v, o)
}

func stringify(v value.Value, o *options) (string, error) {
	var sb strings.Builder
	if err := formatter.New(&sb, o.indent, o.style).Format(v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Pack returns the B-EXENT encoding of v.
//
// Honors LossyBigInt.
func Pack(v value.Value, opts ...Option) ([]byte, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return codec.Pack(v, codec.PackOptions{LossyBigInt: o.lossyBigInt})
}

// Unpack decodes a B-EXENT document.
//
// Honors MaxDepth.
func Unpack(data []byte, opts ...Option) (value.Value, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return codec.Unpack(data, o.maxDepth)
}

// Marshal returns the EXENT encoding of v. Go values are converted as
// described for ValueOf; WithFormat(Binary) selects B-EXENT.
func Marshal(v any, opts ...Option) ([]byte, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return marshal(v, o)
}

func marshal(v any, o *options) ([]byte, error) {
	g, err := valueOf(v, o)
	if err != nil {
		return nil, err
	}
	if o.format == Binary {
		return codec.Pack(g, codec.PackOptions{LossyBigInt: o.lossyBigInt})
	}
	s, err := stringify(g, o)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// Unmarshal parses the EXENT-encoded data and stores the result
// in the value pointed to by v. WithFormat(Binary) reads B-EXENT.
// See Decode for the mapping onto Go values.
func Unmarshal(data []byte, v any, opts ...Option) error {
	o, err := newOptions(opts)
	if err != nil {
		return err
	}
	return unmarshal(data, v, o)
}

func unmarshal(data []byte, v any, o *options) error {
	var g value.Value
	var err error
	if o.format == Binary {
		g, err = codec.Unpack(data, o.maxDepth)
	} else {
		g, err = parse(data, o)
	}
	if err != nil {
		return err
	}
	return decode(g, v, o)
}
