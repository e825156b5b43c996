package formatter

import (
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/KimNorgaard/go-exent/errors"
	"github.com/KimNorgaard/go-exent/value"
	crdb "github.com/cockroachdb/errors"
)

// DefaultIndent is the number of spaces per nesting level.
const DefaultIndent = 4

// Element classifies a piece of output for styling.
type Element uint8

const (
	Key Element = iota
	Anchor
	Ref
	Null
	Bool
	Number
	String
	Date
)

// Style decorates s, a piece of output of class e. It must not change the
// meaning of s, e.g. it may wrap it in terminal color codes.
type Style func(e Element, s string) string

// Formatter writes a value graph as EXENT text to an output stream.
type Formatter struct {
	w      io.Writer
	indent string
	depth  int
	style  Style

	anchors map[value.Value]string
	written map[value.Value]bool
}

// New returns a new formatter that writes to w. An indent of zero selects
// the compact single-line form. style may be nil.
func New(w io.Writer, indentSpaces int, style Style) *Formatter {
	var indentStr string
	if indentSpaces > 0 {
		indentStr = strings.Repeat(" ", indentSpaces)
	}
	return &Formatter{w: w, indent: indentStr, style: style}
}

// Format writes the EXENT representation of v to the writer. Containers
// reached more than once are written in full the first time, prefixed
// with an anchor, and as a reference every time after.
func (f *Formatter) Format(v value.Value) error {
	f.anchors = make(map[value.Value]string)
	f.written = make(map[value.Value]bool)
	f.depth = 0
	f.detectAnchors(v, make(map[value.Value]bool))
	return f.writeValue(v)
}

// detectAnchors names every container that is reached a second time, in
// the order those second visits happen.
func (f *Formatter) detectAnchors(v value.Value, seen map[value.Value]bool) {
	if !isContainer(v) {
		return
	}
	if seen[v] {
		if _, ok := f.anchors[v]; !ok {
			f.anchors[v] = "a" + strconv.Itoa(len(f.anchors))
		}
		return
	}
	seen[v] = true
	switch c := v.(type) {
	case *value.Array:
		for _, e := range c.Elems() {
			f.detectAnchors(e, seen)
		}
	case *value.Object:
		c.Range(func(_ string, e value.Value) bool {
			f.detectAnchors(e, seen)
			return true
		})
	}
}

func isContainer(v value.Value) bool {
	switch c := v.(type) {
	case *value.Array:
		return c != nil
	case *value.Object:
		return c != nil
	}
	return false
}

func (f *Formatter) write(s string) error {
	_, err := io.WriteString(f.w, s)
	return err
}

func (f *Formatter) writeStyled(e Element, s string) error {
	if f.style != nil {
		s = f.style(e, s)
	}
	return f.write(s)
}

func (f *Formatter) writeIndent() error {
	if f.indent == "" {
		return nil
	}
	for i := 0; i < f.depth; i++ {
		if err := f.write(f.indent); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) writeValue(v value.Value) error {
	if isContainer(v) {
		if name, ok := f.anchors[v]; ok {
			if f.written[v] {
				return f.writeStyled(Ref, "*"+name)
			}
			f.written[v] = true
			if err := f.writeStyled(Anchor, "&"+name); err != nil {
				return err
			}
			if err := f.write(" "); err != nil {
				return err
			}
		}
	}

	switch x := v.(type) {
	case nil, value.Null:
		return f.writeStyled(Null, "null")
	case value.Bool:
		return f.writeStyled(Bool, strconv.FormatBool(bool(x)))
	case value.Int:
		return f.writeStyled(Number, strconv.FormatInt(int64(x), 10))
	case value.BigInt:
		return f.writeStyled(Number, x.String()+"n")
	case value.Float:
		s, err := FormatFloat(float64(x))
		if err != nil {
			return err
		}
		return f.writeStyled(Number, s)
	case value.Decimal:
		s, err := FormatDecimal(float64(x))
		if err != nil {
			return err
		}
		return f.writeStyled(Number, s)
	case value.String:
		return f.writeStyled(String, f.formatString(string(x)))
	case value.Date:
		s, err := FormatDate(x)
		if err != nil {
			return err
		}
		return f.writeStyled(Date, s)
	case *value.Array:
		if x == nil {
			return f.writeStyled(Null, "null")
		}
		return f.writeArray(x)
	case *value.Object:
		if x == nil {
			return f.writeStyled(Null, "null")
		}
		return f.writeObject(x)
	default:
		return crdb.Wrapf(errors.ErrUnsupportedValue, "cannot format %T", v)
	}
}

func (f *Formatter) writeArray(a *value.Array) error {
	if a.Len() == 0 {
		return f.write("[]")
	}
	if err := f.write("["); err != nil {
		return err
	}
	f.depth++
	for i, elem := range a.Elems() {
		if err := f.writeSeparator(i); err != nil {
			return err
		}
		if err := f.writeValue(elem); err != nil {
			return err
		}
	}
	f.depth--
	if err := f.writeClosingSpace(); err != nil {
		return err
	}
	return f.write("]")
}

func (f *Formatter) writeObject(o *value.Object) error {
	if o.Len() == 0 {
		return f.write("{}")
	}
	if err := f.write("{"); err != nil {
		return err
	}
	f.depth++
	for i, key := range o.Keys() {
		if err := f.writeSeparator(i); err != nil {
			return err
		}
		if err := f.writeStyled(Key, FormatKey(key)); err != nil {
			return err
		}
		if err := f.write(": "); err != nil {
			return err
		}
		v, _ := o.Get(key)
		if err := f.writeValue(v); err != nil {
			return err
		}
	}
	f.depth--
	if err := f.writeClosingSpace(); err != nil {
		return err
	}
	return f.write("}")
}

// writeSeparator writes what goes before the i'th member of a container.
func (f *Formatter) writeSeparator(i int) error {
	if i > 0 {
		if err := f.write(","); err != nil {
			return err
		}
	}
	if f.indent == "" {
		return f.write(" ")
	}
	if err := f.write("\n"); err != nil {
		return err
	}
	return f.writeIndent()
}

func (f *Formatter) writeClosingSpace() error {
	if f.indent == "" {
		return f.write(" ")
	}
	if err := f.write("\n"); err != nil {
		return err
	}
	return f.writeIndent()
}

// formatString writes s bare when it reads back as the same string, as a
// backtick block when it spans lines, and quoted otherwise. Compact output
// never uses backtick blocks.
func (f *Formatter) formatString(s string) string {
	if IsBare(s) {
		return s
	}
	if f.indent != "" && strings.Contains(s, "\n") && !strings.Contains(s, "`") {
		return "`" + s + "`"
	}
	return Quote(s)
}

// FormatKey returns key as it is written before a colon.
func FormatKey(key string) string {
	if IsBare(key) {
		return key
	}
	return Quote(key)
}

// IsBare reports whether s can be written without quotes: an identifier
// that is not one of the literal keywords.
func IsBare(s string) bool {
	if s == "" || s == "true" || s == "false" || s == "null" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Quote returns s in double quotes with backslash, quote and control
// characters escaped. Invalid UTF-8 is copied through unchanged.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		r, w := utf8.DecodeRuneInString(s[i:])
		i += w
		if r == utf8.RuneError && w == 1 {
			b.WriteByte(s[i-1])
			continue
		}
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				b.WriteString(`\u00`)
				b.WriteByte(hex[r>>4])
				b.WriteByte(hex[r&0xf])
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

const hex = "0123456789abcdef"

// FormatFloat returns the text form of a double. The result always has a
// fraction or an exponent so it reads back as a double, not an integer.
func FormatFloat(x float64) (string, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", crdb.Wrapf(errors.ErrUnsupportedValue, "cannot format %v", x)
	}
	if abs := math.Abs(x); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(x, 'e', -1, 64), nil
	}
	s := strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

// FormatDate returns the text form of a date, with its @ sigil.
func FormatDate(d value.Date) (string, error) {
	if !d.InRange() {
		return "", crdb.Wrapf(errors.ErrUnsupportedValue, "cannot format date %s", d.Time())
	}
	return "@" + d.String(), nil
}

// FormatDecimal returns the text form of a decimal, with its d suffix.
func FormatDecimal(x float64) (string, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "", crdb.Wrapf(errors.ErrUnsupportedValue, "cannot format decimal %v", x)
	}
	return strconv.FormatFloat(x, 'f', -1, 64) + "d", nil
}
