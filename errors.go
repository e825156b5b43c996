package exent

import "reflect"

// A MarshalerError represents an error from calling a MarshalEXENT method.
type MarshalerError struct {
	Type reflect.Type
	Err  error
}

func (e *MarshalerError) Error() string {
	return "exent: error calling MarshalEXENT for type " + e.Type.String() + ": " + e.Err.Error()
}

func (e *MarshalerError) Unwrap() error { return e.Err }

// An UnmarshalerError represents an error from calling an UnmarshalEXENT
// or UnmarshalText method.
type UnmarshalerError struct {
	Type reflect.Type
	Err  error
}

func (e *UnmarshalerError) Error() string {
	return "exent: error calling unmarshaler for type " + e.Type.String() + ": " + e.Err.Error()
}

func (e *UnmarshalerError) Unwrap() error { return e.Err }

// An UnmarshalTypeError describes a value that was not appropriate for a
// Go value of a specific type.
type UnmarshalTypeError struct {
	Value string       // kind of the value, e.g. "array"
	Type  reflect.Type // type of the Go value it could not be assigned to
}

func (e *UnmarshalTypeError) Error() string {
	return "exent: cannot unmarshal " + e.Value + " into Go value of type " + e.Type.String()
}
