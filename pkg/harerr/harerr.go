// Package harerr defines the typed error kinds shared across the core
// packages, following the wrapping style of the teacher's cas.CASError:
// a small struct carrying an Unwrap-able cause plus a stable classifier
// callers can switch on with errors.Is/As instead of string-matching.
package harerr

import "fmt"

// Kind classifies an Error so callers can react to it without parsing
// the message.
type Kind int

const (
	// Unknown is the zero value; never constructed deliberately.
	Unknown Kind = iota
	BadKey
	Auth
	Truncated
	Io
	Http
	NotFound
	DuplicateName
	Parse
	AlreadyInitialized
	BadResult
)

func (k Kind) String() string {
	switch k {
	case BadKey:
		return "BadKey"
	case Auth:
		return "Auth"
	case Truncated:
		return "Truncated"
	case Io:
		return "Io"
	case Http:
		return "Http"
	case NotFound:
		return "NotFound"
	case DuplicateName:
		return "DuplicateName"
	case Parse:
		return "Parse"
	case AlreadyInitialized:
		return "AlreadyInitialized"
	case BadResult:
		return "BadResult"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying cause with a stable Kind and a human message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an Error with no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds an Error with a formatted message and no underlying cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error carrying err as its cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Wrapf builds an Error with a formatted message, carrying err as its cause.
func Wrapf(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Is reports whether err is a *Error of the given Kind, looking through
// the error chain the way errors.Is would.
func Is(err error, kind Kind) bool {
	for err != nil {
		if he, ok := err.(*Error); ok {
			if he.Kind == kind {
				return true
			}
			err = he.Err
			continue
		}
		type unwrapper interface{ Unwrap() error }
		u, ok := err.(unwrapper)
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
