package lexer

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/token"
)

const eof = -1

// Lexer holds the state for tokenizing EXENT source.
type Lexer struct {
	// StrictComments turns an unterminated block comment into an error.
	// By default such a comment silently runs to the end of the input.
	StrictComments bool

	input  []byte
	pos    int  // offset of ch
	width  int  // byte width of ch
	ch     rune // current rune, or eof
	line   int
	column int
	buf    strings.Builder
}

// New creates and returns a new Lexer.
func New(input []byte) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 1,
	}
	l.readRune()
	return l
}

// Tokenize returns every token of input, without the trailing EOF token.
func Tokenize(input []byte, strictComments bool) ([]token.Token, error) {
	l := New(input)
	l.StrictComments = strictComments
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == token.EOF {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

// NextToken scans the input and returns the next token.
func (l *Lexer) NextToken() (token.Token, error) { //nolint:gocognit
	if err := l.skipWhitespace(); err != nil {
		return token.Token{}, err
	}
	tok := token.Token{Line: l.line, Column: l.column}
	switch l.ch {
	case '{', '}', '[', ']', ',', ':':
		tok.Type, _ = token.Delimiter(l.ch)
		tok.Literal = string(l.ch)
		l.advance()
	case '"', '\'':
		lit, err := l.readQuotedString(tok)
		if err != nil {
			return tok, err
		}
		tok.Type = token.STRING
		tok.Literal = lit
	case '`':
		lit, err := l.readMultilineString(tok)
		if err != nil {
			return tok, err
		}
		tok.Type = token.MULTILINE
		tok.Literal = lit
	case '@':
		l.advance() // consume '@'
		tok.Type = token.DATE
		tok.Literal = l.readWhile(isDateChar)
	case '&', '*':
		sigil := l.ch
		l.advance()
		name := l.readWhile(isNameChar)
		if name == "" {
			return tok, l.errorf(tok, errors.ErrUnexpectedToken, "expected a name after %q", sigil)
		}
		tok.Type = token.ANCHOR
		if sigil == '*' {
			tok.Type = token.REF
		}
		tok.Literal = name
	case eof:
		tok.Type = token.EOF
		tok.Literal = ""
	default:
		if !isWordChar(l.ch) {
			if l.ch == utf8.RuneError {
				return tok, l.errorf(tok, errors.ErrUnexpectedToken, "invalid utf-8")
			}
			return tok, l.errorf(tok, errors.ErrUnexpectedToken, "unexpected character %q", l.ch)
		}
		tok.Type, tok.Literal = Classify(l.readWhile(isWordChar))
	}
	return tok, nil
}

func (l *Lexer) readRune() {
	if l.pos >= len(l.input) {
		l.ch = eof
		l.width = 0
		return
	}
	r, w := utf8.DecodeRune(l.input[l.pos:])
	l.ch = r
	l.width = w
}

func (l *Lexer) advance() {
	if l.ch == eof {
		return
	}
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	l.pos += l.width
	l.readRune()
	l.column++
}

func (l *Lexer) peekRune() rune {
	next := l.pos + l.width
	if next >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRune(l.input[next:])
	return r
}

func (l *Lexer) skipWhitespace() error {
	for {
		switch {
		case isSpace(l.ch):
			l.advance()
		case l.ch == '/' && l.peekRune() == '/':
			for l.ch != '\n' && l.ch != eof {
				l.advance()
			}
		case l.ch == '/' && l.peekRune() == '*':
			start := token.Token{Line: l.line, Column: l.column}
			l.advance()
			l.advance()
			for !(l.ch == '*' && l.peekRune() == '/') {
				if l.ch == eof {
					if l.StrictComments {
						return l.errorf(start, errors.ErrUnterminatedComment, "")
					}
					return nil
				}
				l.advance()
			}
			l.advance()
			l.advance()
		default:
			return nil
		}
	}
}

func (l *Lexer) readWhile(accept func(rune) bool) string {
	start := l.pos
	for l.ch != eof && accept(l.ch) {
		l.advance()
	}
	return string(l.input[start:l.pos])
}

func (l *Lexer) readQuotedString(start token.Token) (string, error) {
	quote := l.ch
	l.advance() // consume opening quote
	l.buf.Reset()
	for {
		switch l.ch {
		case eof:
			return "", l.errorf(start, errors.ErrUnterminatedString, "")
		case quote:
			l.advance() // consume closing quote
			return l.buf.String(), nil
		case '\\':
			if err := l.readEscapeSequence(start); err != nil {
				return "", err
			}
		default:
			if l.ch == utf8.RuneError && l.width == 1 {
				// Invalid UTF-8 is kept byte for byte.
				l.buf.WriteByte(l.input[l.pos])
			} else {
				l.buf.WriteRune(l.ch)
			}
			l.advance()
		}
	}
}

// readEscapeSequence is entered on the backslash and leaves the lexer on
// the rune after the escape.
func (l *Lexer) readEscapeSequence(start token.Token) error {
	l.advance() // consume backslash
	switch l.ch {
	case eof:
		return l.errorf(start, errors.ErrUnterminatedString, "")
	case 'u':
		at := token.Token{Line: l.line, Column: l.column - 1}
		r, ok := l.readHex4()
		if !ok {
			return l.errorf(at, errors.ErrInvalidEscape, `\u must be followed by 4 hex digits`)
		}
		if utf16.IsSurrogate(r) && l.ch == '\\' && l.peekRune() == 'u' {
			save := l.mark()
			l.advance()
			if lo, ok := l.readHex4(); ok {
				if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
					l.buf.WriteRune(pair)
					return nil
				}
			}
			l.restore(save)
		}
		l.buf.WriteRune(r)
		return nil
	default:
		l.buf.WriteRune(unescape(l.ch))
		l.advance()
		return nil
	}
}

// position is a snapshot of the scanning state.
type position struct {
	pos, width   int
	ch           rune
	line, column int
}

func (l *Lexer) mark() position {
	return position{pos: l.pos, width: l.width, ch: l.ch, line: l.line, column: l.column}
}

// restore rewinds to an earlier snapshot while keeping the string
// collected so far.
func (l *Lexer) restore(p position) {
	l.pos, l.width, l.ch, l.line, l.column = p.pos, p.width, p.ch, p.line, p.column
}

// readHex4 is entered on the 'u' and consumes it and four hex digits.
func (l *Lexer) readHex4() (rune, bool) {
	var val rune
	for range 4 {
		l.advance()
		var d rune
		switch {
		case '0' <= l.ch && l.ch <= '9':
			d = l.ch - '0'
		case 'a' <= l.ch && l.ch <= 'f':
			d = l.ch - 'a' + 10
		case 'A' <= l.ch && l.ch <= 'F':
			d = l.ch - 'A' + 10
		default:
			return 0, false
		}
		val = val*16 + d
	}
	l.advance()
	return val, true
}

func (l *Lexer) readMultilineString(start token.Token) (string, error) {
	l.advance() // consume opening backtick
	begin := l.pos
	for l.ch != '`' {
		if l.ch == eof {
			return "", l.errorf(start, errors.Refine(errors.ErrUnterminatedMultilineString, errors.ErrUnterminatedString), "")
		}
		l.advance()
	}
	lit := string(l.input[begin:l.pos])
	l.advance() // consume closing backtick
	return lit, nil
}

func (l *Lexer) errorf(at token.Token, kind error, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &errors.ParseError{Err: kind, Msg: msg, Line: at.Line, Column: at.Column}
}

// Classify decides the token type of a bare word. Keywords win, then the
// n and d suffixed literals, then integers, floats, and finally the word
// is an identifier. The returned literal has any suffix removed.
func Classify(word string) (token.Type, string) {
	if typ := token.LookupIdent(word); typ != token.IDENT {
		return typ, word
	}
	if body, ok := strings.CutSuffix(word, "n"); ok && isInteger(body) {
		return token.BIGINT, body
	}
	if body, ok := strings.CutSuffix(word, "d"); ok && isDecimal(body) {
		return token.DECIMAL, body
	}
	if isInteger(word) {
		return token.INT, word
	}
	if isFloat(word) {
		return token.FLOAT, word
	}
	return token.IDENT, word
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isLetter(ch rune) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
}

func isNameChar(ch rune) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '-'
}

func isWordChar(ch rune) bool {
	return isNameChar(ch) || ch == '.' || ch == '+'
}

func isDateChar(ch rune) bool {
	return isDigit(ch) || ch == '-' || ch == 'T' || ch == ':' || ch == 'Z' || ch == '.' || ch == '+'
}

func unescape(ch rune) rune {
	switch ch {
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	}
	return ch
}

func consumeDigits(s string, i int) int {
	for i < len(s) && isDigit(rune(s[i])) {
		i++
	}
	return i
}

// parseMantissa consumes an optional minus sign, an integer part and an
// optional fraction. ok is false when a part has no digits.
func parseMantissa(s string) (i int, hasFraction, ok bool) {
	if i < len(s) && s[i] == '-' {
		i++
	}
	start := i
	i = consumeDigits(s, i)
	if i == start {
		return i, false, false
	}
	if i < len(s) && s[i] == '.' {
		i++
		start = i
		i = consumeDigits(s, i)
		if i == start {
			return i, true, false
		}
		hasFraction = true
	}
	return i, hasFraction, true
}

func isInteger(s string) bool {
	i, hasFraction, ok := parseMantissa(s)
	return ok && !hasFraction && i == len(s)
}

func isDecimal(s string) bool {
	i, _, ok := parseMantissa(s)
	return ok && i == len(s)
}

func isFloat(s string) bool {
	i, _, ok := parseMantissa(s)
	if !ok {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		i = consumeDigits(s, i)
		if i == start {
			return false
		}
	}
	return i == len(s)
}
