package pstream

import (
	"io"
	"strings"
)

// identSeparators ends class and field names.
const identSeparators = " \t\n\r=();,:[]{}\"'*#"

// BeginObject writes the class name and the opening parenthesis of an
// object: Class( name = value; ... ).
func (s *Stream) BeginObject(class string) error {
	if err := s.writeString(class); err != nil {
		return err
	}
	return s.punct("(")
}

// WriteField writes one name = value; entry of an object.
func (s *Stream) WriteField(name string, v any) error {
	eq := "="
	if s.outMode.isASCII() {
		eq = " = "
	}
	if err := s.writeString(name + eq); err != nil {
		return err
	}
	if err := s.Write(v); err != nil {
		return err
	}
	return s.punct(";")
}

// EndObject writes the closing parenthesis of an object.
func (s *Stream) EndObject() error {
	return s.punct(")")
}

func (s *Stream) readIdent(what string) (string, error) {
	name, err := s.ReadWord(identSeparators)
	if err != nil {
		return "", err
	}
	if name == "" {
		c, err := s.peek()
		if err == io.EOF {
			return "", s.formatError(io.ErrUnexpectedEOF, "unexpected end of input, expected %s", what)
		}
		return "", s.formatError(nil, "expected %s, got %s", what, describe(c))
	}
	return name, nil
}

// ReadObjectHeader reads Class( and returns the class name. If class is not
// empty the name read must match it.
func (s *Stream) ReadObjectHeader(class string) (string, error) {
	if err := s.skipForRead(); err != nil {
		return "", err
	}
	if _, err := s.peek(); err != nil {
		return "", err
	}
	name, err := s.readIdent("a class name")
	if err != nil {
		return "", err
	}
	if class != "" && name != class {
		return "", s.formatError(nil, "expected object of class %s, got %s", class, name)
	}
	return name, s.openObject()
}

func (s *Stream) openObject() error {
	if err := s.SkipBlanks(); err != nil {
		return err
	}
	return s.expect('(')
}

// NextField reads the name = part of the next field. It returns false once
// the closing parenthesis has been consumed. The caller must read or skip
// the value before calling NextField again.
func (s *Stream) NextField() (string, bool, error) {
	if err := s.skipForRead(); err != nil {
		return "", false, err
	}
	c, err := s.peek()
	if err != nil {
		return "", false, s.eofInside(err, ')')
	}
	switch c {
	case ')':
		s.get()
		return "", false, nil
	case ';', ',':
		s.get()
		return s.NextField()
	}
	name, err := s.readIdent("a field name")
	if err != nil {
		return "", false, err
	}
	if err := s.SkipBlanks(); err != nil {
		return "", false, err
	}
	if err := s.expect('='); err != nil {
		return "", false, s.eofInside(err, ')')
	}
	return name, true, nil
}

// SkipValue skips one field value of an ascii object, up to the next ; or
// the closing parenthesis, honoring nested groups and strings. Binary
// payloads cannot be skipped.
func (s *Stream) SkipValue() error {
	var acc strings.Builder
	c, err := s.SmartReadUntilNext(";)", &acc, false, true)
	if err != nil {
		return s.eofInside(err, ')')
	}
	s.logger.Debug("value skipped", "value", strings.TrimSpace(acc.String()))
	if c == ')' {
		return s.ch.Putback(c)
	}
	return nil
}
