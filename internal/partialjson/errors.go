package partialjson

import "fmt"

// ErrorKind classifies why a parse stopped. Callers branch on the kind; there is no further detail.
type ErrorKind uint8

const (
	IncompleteString ErrorKind = iota + 1
	IncompleteNumber
	UnexpectedToken
)

func (k ErrorKind) String() string {
	switch k {
	case IncompleteString:
		return "incomplete string"
	case IncompleteNumber:
		return "incomplete number"
	case UnexpectedToken:
		return "unexpected token"
	default:
		return fmt.Sprintf("ErrorKind(%d)", k)
	}
}

// Error is the error reported in an Outcome.
type Error struct {
	Kind ErrorKind
}

func (e *Error) Error() string {
	return e.Kind.String()
}

// Is reports whether target is an *Error of the same kind, so errors.Is(err, &Error{Kind: UnexpectedToken}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// DecodeError is returned by DecodeComplete when the text does not hold a complete value.
type DecodeError struct {
	Kind      ErrorKind
	Remainder string // unconsumed text at the point of failure
}

func (e *DecodeError) Error() string {
	return "partialjson: decode: " + e.Kind.String()
}

func (e *DecodeError) Unwrap() error {
	return &Error{Kind: e.Kind}
}
