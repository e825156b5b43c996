// Package token defines the lexical tokens of EXENT text.
package token

// Type is the type of a token.
type Type uint8

// Token is a lexical token and the position of its first character.
type Token struct {
	Type    Type
	Literal string
	Line    int
	Column  int
}

const (
	ILLEGAL Type = iota
	EOF

	IDENT     // name, snake_case
	INT       // -12345
	FLOAT     // 6.6e-34
	BIGINT    // 12345678901234567890n, literal holds the digits
	DECIMAL   // 123.45d, literal holds the number
	STRING    // "hello" or 'hello'
	MULTILINE // `raw text`
	DATE      // @2024-01-15T10:30:00.000Z, literal holds the timestamp
	ANCHOR    // &name, literal holds the name
	REF       // *name, literal holds the name

	LBRACE
	RBRACE
	LBRACK
	RBRACK
	COMMA
	COLON

	TRUE
	FALSE
	NULL
)

var names = [...]string{
	ILLEGAL:   "ILLEGAL",
	EOF:       "EOF",
	IDENT:     "IDENT",
	INT:       "INT",
	FLOAT:     "FLOAT",
	BIGINT:    "BIGINT",
	DECIMAL:   "DECIMAL",
	STRING:    "STRING",
	MULTILINE: "MULTILINE",
	DATE:      "DATE",
	ANCHOR:    "ANCHOR",
	REF:       "REF",
	LBRACE:    "{",
	RBRACE:    "}",
	LBRACK:    "[",
	RBRACK:    "]",
	COMMA:     ",",
	COLON:     ":",
	TRUE:      "TRUE",
	FALSE:     "FALSE",
	NULL:      "NULL",
}

func (t Type) String() string {
	if int(t) < len(names) {
		return names[t]
	}
	return "ILLEGAL"
}

// Delimiter returns the type of a punctuation character.
func Delimiter(ch rune) (Type, bool) {
	switch ch {
	case '{':
		return LBRACE, true
	case '}':
		return RBRACE, true
	case '[':
		return LBRACK, true
	case ']':
		return RBRACK, true
	case ',':
		return COMMA, true
	case ':':
		return COLON, true
	}
	return ILLEGAL, false
}

// LookupIdent returns the keyword type of ident, or IDENT.
func LookupIdent(ident string) Type {
	switch ident {
	case "true":
		return TRUE
	case "false":
		return FALSE
	case "null":
		return NULL
	}
	return IDENT
}

// IsKeyword reports whether s is one of true, false or null.
func IsKeyword(s string) bool {
	return LookupIdent(s) != IDENT
}

// IsScalar reports whether t starts a scalar value.
func (t Type) IsScalar() bool {
	switch t {
	case IDENT, INT, FLOAT, BIGINT, DECIMAL, STRING, MULTILINE, DATE, TRUE, FALSE, NULL:
		return true
	}
	return false
}
