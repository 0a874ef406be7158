package pkg

import (
	"fmt"
	"strings"
)

// Error is a chain of errors, innermost first. It is used for failures at the
// file boundary where several causes accumulate (a deck that cannot be read
// because no search path entry holds it, for example).
type Error []error

var (
	// ErrReadDeck is returned when a deck file cannot be opened or read.
	ErrReadDeck = MakeErrorf("read deck")
	// ErrWriteDeck is returned when echoed output cannot be written.
	ErrWriteDeck = MakeErrorf("write deck")
	// ErrDeckNotFound is returned when a relative deck path matches no file in
	// the search path.
	ErrDeckNotFound = MakeErrorf("deck not found in search path")
)

// MakeError constructs an Error from errs, flattening any wrapped chains.
// Nil errors are skipped.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf constructs an Error from a formatted message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error joins the chain with ": ".
func (e Error) Error() string {
	parts := make([]string, len(e))
	for i, err := range e {
		parts[i] = err.Error()
	}

	return strings.Join(parts, ": ")
}

// Wrap returns a copy of e with errs appended.
func (e Error) Wrap(errs ...error) Error {
	return append(e[:len(e):len(e)], errs...)
}

// Wrapf returns a copy of e with a formatted error appended.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Unwrap exposes the chain to [errors.Is] and [errors.As].
func (e Error) Unwrap() []error { return e }

// UnwrapErrors flattens the chain rooted at err, innermost first.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	var chain Error

	switch e := err.(type) {
	case interface{ Unwrap() []error }:
		for _, w := range e.Unwrap() {
			chain = append(chain, UnwrapErrors(w)...)
		}

	case interface{ Unwrap() error }:
		chain = append(chain, UnwrapErrors(e.Unwrap())...)
	}

	return append(chain, err)
}

// Is reports whether target is an Error whose innermost cause is part of e,
// so that errors.Is matches a chain against the sentinel it was built from.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok || len(t) == 0 {
		return false
	}

	for _, err := range e {
		if err == t[0] {
			return true
		}
	}

	return false
}
