package parser

import (
	"fmt"
	"strconv"
	"time"

	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/token"
	"github.com/KimNorgaard/go-exent/value"
	"github.com/golang-module/carbon/v2"
)

// DefaultMaxDepth is the nesting limit used when none is given.
const DefaultMaxDepth = 200

// Parser holds the state of the parser.
type Parser struct {
	toks     []token.Token
	pos      int
	curToken token.Token

	maxDepth int
	open     []token.Token // '{' and '[' tokens of the containers being parsed
	anchors  map[string]value.Value
}

// New creates a new parser over toks. A maxDepth of zero or less selects
// DefaultMaxDepth.
func New(toks []token.Token, maxDepth int) *Parser {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	p := &Parser{
		toks:     toks,
		pos:      -1,
		maxDepth: maxDepth,
		anchors:  make(map[string]value.Value),
	}
	p.nextToken()
	return p
}

// Parse builds the value described by toks.
func Parse(toks []token.Token, maxDepth int) (value.Value, error) {
	return New(toks, maxDepth).Parse()
}

// Parse parses exactly one value and fails if any token remains after it.
func (p *Parser) Parse() (value.Value, error) {
	if p.curTokenIs(token.EOF) {
		return nil, p.errorf(p.curToken, errors.ErrUnexpectedToken, "empty document")
	}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if !p.curTokenIs(token.EOF) {
		return nil, p.errorf(p.curToken, errors.ErrTrailingInput, "unexpected %s after main value", describe(p.curToken))
	}
	return v, nil
}

func (p *Parser) nextToken() {
	p.pos++
	if p.pos < len(p.toks) {
		p.curToken = p.toks[p.pos]
		return
	}
	p.curToken = token.Token{Type: token.EOF}
	if n := len(p.toks); n > 0 {
		p.curToken.Line = p.toks[n-1].Line
		p.curToken.Column = p.toks[n-1].Column
	} else {
		p.curToken.Line, p.curToken.Column = 1, 1
	}
}

// The contract for all parse functions is that they are entered with
// p.curToken being the first token of the construct, and they return with
// p.curToken pointing to the token after the construct.

func (p *Parser) parseValue() (value.Value, error) {
	var anchor string
	if p.curTokenIs(token.ANCHOR) {
		anchor = p.curToken.Literal
		p.nextToken()
	}

	var v value.Value
	switch p.curToken.Type {
	case token.LBRACE:
		obj := value.NewObject()
		p.define(anchor, obj)
		if err := p.parseObject(obj); err != nil {
			return nil, err
		}
		v = obj
	case token.LBRACK:
		arr := value.NewArray()
		p.define(anchor, arr)
		if err := p.parseArray(arr); err != nil {
			return nil, err
		}
		v = arr
	case token.REF:
		target, ok := p.anchors[p.curToken.Literal]
		if !ok {
			return nil, p.errorf(p.curToken, errors.ErrUndefinedReference, "*%s", p.curToken.Literal)
		}
		v = target
		p.nextToken()
	case token.EOF:
		return nil, p.unexpectedEOF()
	default:
		s, err := p.parseScalar()
		if err != nil {
			return nil, err
		}
		v = s
	}
	p.define(anchor, v)
	return v, nil
}

func (p *Parser) define(anchor string, v value.Value) {
	if anchor != "" {
		p.anchors[anchor] = v
	}
}

func (p *Parser) parseScalar() (value.Value, error) {
	tok := p.curToken
	var v value.Value
	switch tok.Type {
	case token.STRING, token.MULTILINE, token.IDENT:
		v = value.String(tok.Literal)
	case token.TRUE:
		v = value.Bool(true)
	case token.FALSE:
		v = value.Bool(false)
	case token.NULL:
		v = value.Null{}
	case token.INT:
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			// Out of int64 range: a plain integer literal degrades to a double.
			f, _ := strconv.ParseFloat(tok.Literal, 64)
			v = value.Float(f)
		} else {
			v = value.Int(n)
		}
	case token.FLOAT:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil && !isRangeError(err) {
			return nil, p.errorf(tok, errors.ErrUnexpectedToken, "could not parse %q as float", tok.Literal)
		}
		v = value.Float(f)
	case token.DECIMAL:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil && !isRangeError(err) {
			return nil, p.errorf(tok, errors.ErrUnexpectedToken, "could not parse %q as decimal", tok.Literal)
		}
		v = value.Decimal(f)
	case token.BIGINT:
		b, ok := value.ParseBigInt(tok.Literal)
		if !ok {
			return nil, p.errorf(tok, errors.ErrUnexpectedToken, "could not parse %q as big integer", tok.Literal)
		}
		v = b
	case token.DATE:
		t, err := ParseDate(tok.Literal)
		if err != nil {
			return nil, p.errorf(tok, errors.ErrInvalidDate, "@%s", tok.Literal)
		}
		v = value.NewDate(t)
	default:
		return nil, p.errorf(tok, errors.ErrUnexpectedToken, "unexpected %s", describe(tok))
	}
	p.nextToken()
	return v, nil
}

func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// ParseDate parses the text of a date literal. RFC 3339 is tried first;
// anything else goes through carbon's lenient ISO-8601 layouts. The
// instant must fall in years 0000 to 9999 UTC, the range dates are
// written in.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.ErrInvalidDate
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		c := carbon.Parse(s, "UTC")
		if c.Error != nil || c.IsZero() {
			return time.Time{}, errors.ErrInvalidDate
		}
		t = c.ToStdTime()
	}
	t = t.UTC()
	if !value.NewDate(t).InRange() {
		return time.Time{}, errors.ErrInvalidDate
	}
	return t, nil
}

func (p *Parser) parseObject(obj *value.Object) error {
	if err := p.enter(); err != nil {
		return err
	}
	defer p.leave()

	for {
		p.skip(token.COMMA)
		switch p.curToken.Type {
		case token.RBRACE:
			p.nextToken() // consume '}'
			return nil
		case token.EOF:
			return p.unexpectedEOF()
		}

		key, err := p.parseKey()
		if err != nil {
			return err
		}
		if !p.curTokenIs(token.COLON) {
			if p.curTokenIs(token.EOF) {
				return p.unexpectedEOF()
			}
			return p.errorf(p.curToken, errors.ErrUnexpectedToken, "expected ':' after key %q, got %s", key, describe(p.curToken))
		}
		p.nextToken() // consume ':'

		v, err := p.parseValue()
		if err != nil {
			return err
		}
		obj.Set(key, v)
	}
}

func (p *Parser) parseKey() (string, error) {
	switch p.curToken.Type {
	case token.IDENT, token.STRING, token.TRUE, token.FALSE, token.NULL:
		key := p.curToken.Literal
		p.nextToken()
		return key, nil
	}
	return "", p.errorf(p.curToken, errors.ErrUnexpectedToken, "invalid token for object key: %s", describe(p.curToken))
}

func (p *Parser) parseArray(arr *value.Array) error {
	if err := p.enter(); err != nil {
		return err
	}
	defer p.leave()

	for {
		p.skip(token.COMMA)
		switch p.curToken.Type {
		case token.RBRACK:
			p.nextToken() // consume ']'
			return nil
		case token.EOF:
			return p.unexpectedEOF()
		}
		v, err := p.parseValue()
		if err != nil {
			return err
		}
		arr.Append(v)
	}
}

// enter consumes the opening bracket and counts one level of nesting.
func (p *Parser) enter() error {
	if len(p.open) >= p.maxDepth {
		return p.errorf(p.curToken, errors.ErrMaxDepthExceeded, "limit is %d", p.maxDepth)
	}
	p.open = append(p.open, p.curToken)
	p.nextToken()
	return nil
}

func (p *Parser) leave() {
	p.open = p.open[:len(p.open)-1]
}

// unexpectedEOF reports running out of tokens. Inside a container this is
// the innermost container being unterminated.
func (p *Parser) unexpectedEOF() error {
	if len(p.open) == 0 {
		return p.errorf(p.curToken, errors.ErrUnexpectedToken, "unexpected end of input")
	}
	open := p.open[len(p.open)-1]
	if open.Type == token.LBRACE {
		return p.errorf(open, errors.ErrUnterminatedObject, "expected '}'")
	}
	return p.errorf(open, errors.ErrUnterminatedArray, "expected ']'")
}

func (p *Parser) skip(t token.Type) {
	for p.curTokenIs(t) {
		p.nextToken()
	}
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) errorf(at token.Token, kind error, format string, args ...any) error {
	return &errors.ParseError{Err: kind, Msg: fmt.Sprintf(format, args...), Line: at.Line, Column: at.Column}
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.STRING, token.MULTILINE:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	}
	return fmt.Sprintf("%s ('%s')", tok.Type, tok.Literal)
}
