package pstream

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrInvalidFormat indicates malformed input. Every *FormatError unwraps to it.
	ErrInvalidFormat = errors.New("pstream: invalid format")

	// ErrUnmatchedBracket indicates input ended inside a (, [ or { group.
	ErrUnmatchedBracket = errors.New("pstream: unmatched bracket")

	// ErrUnterminatedString indicates input ended inside a quoted string.
	ErrUnterminatedString = errors.New("pstream: unterminated string")

	// ErrUnknownTypecode indicates a control byte that is not in the typecode table.
	ErrUnknownTypecode = errors.New("pstream: unknown binary typecode")

	// ErrUndefinedReference indicates a *id back-reference read before *id-> defined it.
	ErrUndefinedReference = errors.New("pstream: reference to undefined object id")

	// ErrRange indicates a number that does not fit the requested type.
	ErrRange = errors.New("pstream: value out of range")

	// ErrUnsupportedType indicates a Go type the stream cannot encode or decode.
	ErrUnsupportedType = errors.New("pstream: unsupported type")
)

// FormatError describes a parse failure with the channel offset where it
// was detected.
type FormatError struct {
	Offset int64  // Input bytes consumed when the error was detected
	Reason string // Human-readable explanation, naming expected and actual input
	Err    error  // Optional more specific sentinel
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("pstream: format error at offset %d: %s", e.Offset, e.Reason)
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidFormat, e.Err}
	}
	return []error{ErrInvalidFormat}
}

func (s *Stream) formatError(kind error, format string, args ...any) error {
	return &FormatError{
		Offset: s.ch.Offset(),
		Reason: fmt.Sprintf(format, args...),
		Err:    kind,
	}
}

// describe renders a byte for error messages.
func describe(c byte) string {
	if c >= 0x20 && c < 0x7f {
		return fmt.Sprintf("%q", rune(c))
	}
	return fmt.Sprintf("0x%02X", c)
}
