// Package errors defines the error kinds reported by the EXENT codecs.
//
// Every failure carries one of the Err* kinds below, reachable with Is.
// Text parsing failures are *ParseError values and binary decoding
// failures are *DecodeError values; both unwrap to their kind.
package errors

import (
	stderrors "errors"
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Text errors.
var (
	ErrUnterminatedString          = crdb.New("unterminated string")
	ErrUnterminatedMultilineString = crdb.New("unterminated multiline string")
	ErrUnterminatedComment         = crdb.New("unterminated block comment")
	ErrUnterminatedObject          = crdb.New("unterminated object")
	ErrUnterminatedArray           = crdb.New("unterminated array")
	ErrInvalidEscape               = crdb.New("invalid escape sequence")
	ErrInvalidDate                 = crdb.New("invalid date")
	ErrUndefinedReference          = crdb.New("undefined reference")
	ErrTrailingInput               = crdb.New("trailing input")
	ErrUnexpectedToken             = crdb.New("unexpected token")
)

// Binary errors.
var (
	ErrDanglingReference = crdb.New("dangling reference")
	ErrUnknownTag        = crdb.New("unknown tag")
	ErrTruncated         = crdb.New("truncated input")
)

// Errors shared by both encodings.
var (
	ErrMaxDepthExceeded = crdb.New("maximum nesting depth exceeded")
	ErrUnsupportedValue = crdb.New("unsupported value")
	ErrPrecisionLoss    = crdb.New("integer does not fit in 64 bits")
	ErrInvalidOption    = crdb.New("invalid option")
)

// Is reports whether any error in err's chain matches target, including
// targets attached as marks.
func Is(err, target error) bool {
	return stderrors.Is(err, target) || crdb.Is(err, target)
}

// Refine returns kind as a special case of parent. The result reads as
// kind and matches both kind and parent under Is, including the standard
// library's errors.Is.
func Refine(kind, parent error) error {
	return &refined{kind: kind, parent: parent}
}

type refined struct {
	kind, parent error
}

func (r *refined) Error() string { return r.kind.Error() }

func (r *refined) Unwrap() error { return r.kind }

func (r *refined) Is(target error) bool { return target == r.parent }

// ParseError is a failure in EXENT text, located by line and column.
type ParseError struct {
	Err    error // one of the Err* kinds
	Msg    string
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("exent: parsing error at line %d, column %d: %s", e.Line, e.Column, detail(e.Err, e.Msg))
}

func (e *ParseError) Unwrap() error { return e.Err }

// DecodeError is a failure in B-EXENT bytes, located by byte offset.
type DecodeError struct {
	Err    error // one of the Err* kinds
	Msg    string
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("exent: decoding error at offset %d: %s", e.Offset, detail(e.Err, e.Msg))
}

func (e *DecodeError) Unwrap() error { return e.Err }

func detail(kind error, msg string) string {
	if kind == nil {
		return msg
	}
	if msg == "" {
		return kind.Error()
	}
	return kind.Error() + ": " + msg
}
