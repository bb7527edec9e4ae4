package pstream

import (
	"io"
	"strings"
)

// Separator sets for bare words.
const (
	// RawSeparators ends a word in the raw and pretty modes.
	RawSeparators = " \t\n\r"
	// PlearnSeparators ends a word in the plearn modes.
	PlearnSeparators = " \t\n\r,;:)]}"
)

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// skip consumes bytes while keep reports true. Reaching end of input is not
// an error.
func (s *Stream) skip(keep func(byte) bool) error {
	for {
		c, err := s.peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !keep(c) {
			return nil
		}
		if _, err := s.get(); err != nil {
			return err
		}
	}
}

// SkipBlanks consumes spaces, tabs and line breaks.
func (s *Stream) SkipBlanks() error {
	return s.skip(isBlank)
}

// SkipRestOfLine consumes bytes up to and including the next newline.
func (s *Stream) SkipRestOfLine() error {
	for {
		c, err := s.get()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if c == '\n' {
			return nil
		}
	}
}

func (s *Stream) skipCommented(sep func(byte) bool) error {
	for {
		if err := s.skip(sep); err != nil {
			return err
		}
		c, err := s.peek()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if c != '#' {
			return nil
		}
		if err := s.SkipRestOfLine(); err != nil {
			return err
		}
	}
}

// SkipBlanksAndComments consumes blanks and # comments running to end of line.
func (s *Stream) SkipBlanksAndComments() error {
	return s.skipCommented(isBlank)
}

// SkipBlanksCommentsAndSeparators also consumes ',' and ';'.
func (s *Stream) SkipBlanksCommentsAndSeparators() error {
	return s.skipCommented(func(c byte) bool {
		return isBlank(c) || c == ',' || c == ';'
	})
}

// skipForRead positions the cursor on the next token of the input mode.
// Nothing is skipped in raw_binary and only blanks in raw_ascii.
func (s *Stream) skipForRead() error {
	switch s.inMode {
	case RawBinary:
		return nil
	case RawASCII:
		return s.SkipBlanks()
	default:
		return s.SkipBlanksCommentsAndSeparators()
	}
}

// ReadWord reads bytes up to, but not including, the next byte in
// separators or end of input.
func (s *Stream) ReadWord(separators string) (string, error) {
	var b strings.Builder
	for {
		c, err := s.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return b.String(), err
		}
		if strings.IndexByte(separators, c) >= 0 {
			break
		}
		b.WriteByte(c)
		if _, err := s.get(); err != nil {
			return b.String(), err
		}
	}
	return b.String(), nil
}

var unescapes = [256]byte{
	'n': '\n', 't': '\t', 'r': '\r', '0': 0,
	'a': '\a', 'b': '\b', 'v': '\v', 'f': '\f',
}

var escapes = [256]byte{
	'\n': 'n', '\t': 't', '\r': 'r', 0: '0',
	'\a': 'a', '\b': 'b', '\v': 'v', '\f': 'f',
	'"': '"', '\\': '\\',
}

// readQuoted reads a double quoted string whose opening quote has not been
// consumed yet.
func (s *Stream) readQuoted() (string, error) {
	return s.readDelimited('"')
}

func (s *Stream) readDelimited(quote byte) (string, error) {
	if err := s.expect(quote); err != nil {
		return "", err
	}
	var b strings.Builder
	for {
		c, err := s.get()
		if err == io.EOF {
			return "", s.formatError(ErrUnterminatedString, "end of input inside quoted string")
		}
		if err != nil {
			return "", err
		}
		switch c {
		case quote:
			return b.String(), nil
		case '\\':
			e, err := s.get()
			if err == io.EOF {
				return "", s.formatError(ErrUnterminatedString, "end of input inside quoted string")
			}
			if err != nil {
				return "", err
			}
			if u := unescapes[e]; u != 0 || e == '0' {
				e = u
			}
			b.WriteByte(e)
		default:
			b.WriteByte(c)
		}
	}
}

// appendQuoted appends str enclosed in quote with escapes.
func appendQuoted(dst []byte, str string, quote byte) []byte {
	dst = append(dst, quote)
	for i := 0; i < len(str); i++ {
		c := str[i]
		if e := escapes[c]; e != 0 || c == 0 || c == quote {
			if c == quote {
				e = quote
			}
			dst = append(dst, '\\', e)
			continue
		}
		dst = append(dst, c)
	}
	return append(dst, quote)
}

// copyQuoted copies a quoted section verbatim into acc, escapes included.
// The opening quote has already been consumed and copied.
func (s *Stream) copyQuoted(acc *strings.Builder) error {
	escaped := false
	for {
		c, err := s.get()
		if err == io.EOF {
			return s.formatError(ErrUnterminatedString, "end of input inside quoted string")
		}
		if err != nil {
			return err
		}
		acc.WriteByte(c)
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			return nil
		}
	}
}

// SmartReadUntilNext consumes input up to the first byte of stop found
// outside any bracketed group or quoted string, appending what it skipped
// to acc (the stop byte is consumed and returned but not appended).
//
// Groups opened by (, { and, unless ignoreBrackets is set, [ are copied
// whole including their closers; quoted strings are copied with their
// escapes intact. With skipComments, # comments outside quotes are dropped.
//
// Reaching end of input at top level returns io.EOF with acc holding the
// remainder. End of input inside a group returns ErrUnmatchedBracket, inside
// a string ErrUnterminatedString.
func (s *Stream) SmartReadUntilNext(stop string, acc *strings.Builder, ignoreBrackets, skipComments bool) (byte, error) {
	for {
		c, err := s.get()
		if err != nil {
			return 0, err
		}
		if strings.IndexByte(stop, c) >= 0 {
			return c, nil
		}
		if c == '#' && skipComments {
			if err := s.SkipRestOfLine(); err != nil {
				return 0, err
			}
			continue
		}
		acc.WriteByte(c)

		var closer byte
		switch c {
		case '(':
			closer = ')'
		case '{':
			closer = '}'
		case '[':
			if !ignoreBrackets {
				closer = ']'
			}
		case '"':
			if err := s.copyQuoted(acc); err != nil {
				return 0, err
			}
			continue
		}
		if closer == 0 {
			continue
		}
		if _, err := s.SmartReadUntilNext(string(closer), acc, ignoreBrackets, skipComments); err != nil {
			if err == io.EOF {
				return 0, s.formatError(ErrUnmatchedBracket, "end of input before %s", describe(closer))
			}
			return 0, err
		}
		acc.WriteByte(closer)
	}
}
