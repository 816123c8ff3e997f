// Package errors gives flowmap failures a machine-readable [Code].
//
// The CLI prints [UserMessage] and the HTTP server maps [KindOf] to a status
// code; neither inspects error strings.
//
//	if _, ok := g.Location(id); !ok {
//	    return errors.New(errors.ErrCodeNotFound, "unknown location %q", id)
//	}
//	...
//	return errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a failure class. Codes starting with INVALID_ describe
// bad user input.
type Code string

const (
	ErrCodeInvalidInput     Code = "INVALID_INPUT"
	ErrCodeInvalidDirection Code = "INVALID_DIRECTION"
	ErrCodeInvalidDisplay   Code = "INVALID_DISPLAY"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"
	ErrCodeInvalidDataset   Code = "INVALID_DATASET"
	ErrCodeInvalidTopology  Code = "INVALID_TOPOLOGY"
	ErrCodeInvalidConfig    Code = "INVALID_CONFIG"

	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Kind groups codes by who has to act on them.
type Kind int

const (
	KindInternal Kind = iota // a bug or an unexpected environment
	KindInvalid              // the caller sent bad input
	KindNotFound             // a named location or file does not exist
	KindUpstream             // a remote input could not be fetched
)

// Kind classifies c. Unknown and empty codes are internal.
func (c Code) Kind() Kind {
	switch {
	case strings.HasPrefix(string(c), "INVALID_"):
		return KindInvalid
	case c == ErrCodeNotFound || c == ErrCodeFileNotFound:
		return KindNotFound
	case c == ErrCodeNetwork:
		return KindUpstream
	}
	return KindInternal
}

// Error carries a code, a message for people and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a Sprintf-formatted message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap is New with a cause kept for errors.Is and errors.As.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// KindOf classifies err by its code; plain errors are internal.
func KindOf(err error) Kind { return GetCode(err).Kind() }

func IsInvalid(err error) bool  { return KindOf(err) == KindInvalid }
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// UserMessage drops the code prefix so the CLI can print
// "unknown location \"Atlantis\"" instead of "NOT_FOUND: unknown ...".
func UserMessage(err error) string {
	e, ok := asError(err)
	if !ok {
		return err.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}
