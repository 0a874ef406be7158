package geom

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrStructure    = NewError("malformed deck")
	ErrLookup       = NewError("entity not found")
	ErrCardinality  = NewError("unsupported mapping cardinality")
	ErrUsage        = NewError("invalid usage")
	ErrNotRotatable = NewError("body cannot be transformed")
	ErrReadInput    = NewError("failed to read input")
	ErrWriteOutput  = NewError("failed to write output")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an Error with the same message, so that
// values derived from a sentinel with Wrap or With still match it.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t.msg == "" {
		return false
	}

	return t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs,
	}
}

// Wrapf wraps a formatted message.
func (e *Error) Wrapf(format string, args ...any) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// ParseError locates a structural failure in a deck.
type ParseError struct {
	Source string // file name, if known
	Line   int    // 1-based physical line number, 0 at end of input
	Text   string // offending physical line
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder

	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteByte(':')
	}

	if e.Line > 0 {
		fmt.Fprintf(&b, "%d: ", e.Line)
	} else {
		b.WriteString("end of input: ")
	}

	b.WriteString(e.Err.Error())

	if t := strings.TrimRight(e.Text, " \t\r\n"); t != "" {
		fmt.Fprintf(&b, "\n\t%s", t)
	}

	return b.String()
}

// Unwrap returns the underlying cause, usually derived from ErrStructure.
func (e *ParseError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Err.Error()),
		slog.String("source", e.Source),
		slog.Int("line", e.Line),
		slog.String("text", strings.TrimSpace(e.Text)),
	)
}

func parseErrorf(line int, text, format string, args ...any) *ParseError {
	return &ParseError{
		Line: line,
		Text: text,
		Err:  ErrStructure.Wrapf(format, args...),
	}
}

// Link names one of the entity classes a transformation can serve.
type Link int

// Link classes.
const (
	LinkBody Link = iota
	LinkLattice
	LinkBin
)

func (l Link) String() string {
	switch l {
	case LinkBody:
		return "body"
	case LinkLattice:
		return "lattice"
	case LinkBin:
		return "usrbin"
	default:
		return "unknown"
	}
}

// ConsistencyWarning reports a transformation serving two link classes.
// It never blocks an operation.
type ConsistencyWarning struct {
	Transform string
	Kinds     [2]Link
}

// Error implements the error interface.
func (w *ConsistencyWarning) Error() string {
	return fmt.Sprintf("transformation %q used by both %s and %s links",
		w.Transform, w.Kinds[0], w.Kinds[1])
}

// LogValue implements slog.LogValuer.
func (w *ConsistencyWarning) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("transform", w.Transform),
		slog.String("first", w.Kinds[0].String()),
		slog.String("second", w.Kinds[1].String()),
	)
}
