package pstream

import (
	"encoding/binary"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/plearn/pstream/pkg/typecode"
)

// Char is a single character. It is written with WriteChar, so it stays a
// character instead of becoming a uint8.
type Char byte

// MarshalPStream writes c with WriteChar.
func (c Char) MarshalPStream(s *Stream) error {
	return s.WriteChar(byte(c))
}

// UnmarshalPStream reads a character with ReadChar.
func (c *Char) UnmarshalPStream(s *Stream) error {
	v, err := s.ReadChar()
	*c = Char(v)
	return err
}

// Map is a decoded map that keeps the entries in input order. Keys may be
// of any decoded type.
type Map struct {
	Keys   []any
	Values []any
}

// Len returns the number of entries.
func (m Map) Len() int {
	return len(m.Keys)
}

// Get returns the value stored under key.
func (m Map) Get(key any) (any, bool) {
	for i, k := range m.Keys {
		if reflect.DeepEqual(k, key) {
			return m.Values[i], true
		}
	}
	return nil, false
}

// MarshalPStream writes the entries in order as { k : v , ... }.
func (m Map) MarshalPStream(s *Stream) error {
	return s.writeMapFrame(len(m.Keys), func(i int) error {
		return s.Write(m.Keys[i])
	}, func(i int) error {
		return s.Write(m.Values[i])
	})
}

// UnmarshalPStream reads a map whose keys and values are decoded with
// ReadValue, replacing any previous entries.
func (m *Map) UnmarshalPStream(s *Stream) error {
	m.Keys, m.Values = m.Keys[:0], m.Values[:0]
	return s.readMapFrame(func(colon func() error) error {
		k, err := s.ReadValue()
		if err != nil {
			return err
		}
		if err := colon(); err != nil {
			return err
		}
		v, err := s.ReadValue()
		if err != nil {
			return err
		}
		m.Keys = append(m.Keys, k)
		m.Values = append(m.Values, v)
		return nil
	})
}

// Field is one name = value entry of an Object.
type Field struct {
	Name  string
	Value any
}

// Object is a decoded Class( name = value; ... ) whose class has no Go
// counterpart.
type Object struct {
	Class  string
	Fields []Field
}

// Field returns the value of the named field.
func (o Object) Field(name string) (any, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalPStream writes o as Class( name = value ; ... ).
func (o Object) MarshalPStream(s *Stream) error {
	if err := s.BeginObject(o.Class); err != nil {
		return err
	}
	for _, f := range o.Fields {
		if err := s.WriteField(f.Name, f.Value); err != nil {
			return err
		}
	}
	return s.EndObject()
}

// UnmarshalPStream reads an object of any class, keeping its fields in
// input order.
func (o *Object) UnmarshalPStream(s *Stream) error {
	class, err := s.ReadObjectHeader("")
	if err != nil {
		return err
	}
	o.Class = class
	return s.readFields(o)
}

func (s *Stream) readFields(o *Object) error {
	o.Fields = o.Fields[:0]
	for {
		name, ok, err := s.NextField()
		if err != nil || !ok {
			return err
		}
		v, err := s.ReadValue()
		if err != nil {
			return s.eofInside(err, ')')
		}
		o.Fields = append(o.Fields, Field{Name: name, Value: v})
	}
}

// ReadValue decodes the next value without knowing its type in advance.
// It understands the plearn grammar in every text mode and plearn_binary:
//
//   - a typecode gives the number of that kind (int8 ... float64)
//   - a packed sequence gives a slice of its element kind
//   - other numbers give int64, or uint64 or float64 when they need it
//   - "..." gives a string and 'c' a Char
//   - [ ... ] and N[ ... ] give []any
//   - { k: v } gives a Map, (a, b) a Pair[any, any]
//   - Class( ... ) gives an Object; any other bare word a string
//   - *id-> v gives a *any shared by every later *id; *0 gives nil
//
// raw_binary is not self-describing and returns ErrUnsupportedType. At end
// of input ReadValue returns io.EOF.
func (s *Stream) ReadValue() (any, error) {
	if s.inMode == RawBinary {
		return nil, ErrUnsupportedType
	}
	if err := s.SkipBlanksCommentsAndSeparators(); err != nil {
		return nil, err
	}
	c, err := s.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case c == typecode.TagSeqLE || c == typecode.TagSeqBE:
		return s.readPackedValue()
	case typecode.IsTag(c):
		return s.readTaggedValue(c)
	case c < 0x20:
		s.get()
		return nil, s.formatError(ErrUnknownTypecode, "unknown typecode 0x%02X", c)
	case c == '"':
		return s.readQuoted()
	case c == '\'':
		v, err := s.ReadChar()
		return Char(v), err
	case c == '*':
		v, err := s.readRef(func() any {
			return new(any)
		}, func(p any) error {
			v, err := s.ReadValue()
			*p.(*any) = v
			return err
		})
		if v == nil {
			return nil, err
		}
		return v, err
	case c == '[':
		return s.readListValue()
	case c == '{':
		var m Map
		err := m.UnmarshalPStream(s)
		return m, err
	case c == '(':
		var p Pair[any, any]
		err := s.readPairFrame(false, func() error {
			v, err := s.ReadValue()
			p.First = v
			return err
		}, func() error {
			v, err := s.ReadValue()
			p.Second = v
			return err
		})
		return p, err
	case isDigit(c) || c == '-' || c == '+' || c == '.' || c == '?':
		return s.readNumberValue()
	}
	return s.readWordValue()
}

func (s *Stream) readListValue() (any, error) {
	xs := []any{}
	err := s.readSeqFrame(func(n int) {
		xs = make([]any, 0, n)
	}, func() error {
		v, err := s.ReadValue()
		if err != nil {
			return err
		}
		xs = append(xs, v)
		return nil
	})
	return xs, err
}

func (s *Stream) readTaggedValue(tag byte) (any, error) {
	kind, _, _ := typecode.Lookup(tag)
	switch kind {
	case typecode.Int8:
		return readTagged[int8](s)
	case typecode.Uint8:
		return readTagged[uint8](s)
	case typecode.Int16:
		return readTagged[int16](s)
	case typecode.Uint16:
		return readTagged[uint16](s)
	case typecode.Int32:
		return readTagged[int32](s)
	case typecode.Uint32:
		return readTagged[uint32](s)
	case typecode.Int64:
		return readTagged[int64](s)
	case typecode.Uint64:
		return readTagged[uint64](s)
	case typecode.Float32:
		return readTagged[float32](s)
	default:
		return readTagged[float64](s)
	}
}

func (s *Stream) readPackedValue() (any, error) {
	header, err := s.get()
	if err != nil {
		return nil, err
	}
	order, _ := typecode.LookupSeq(header)
	kind, err := s.readElemTag()
	if err != nil {
		return nil, err
	}
	return readPackedKind(s, kind, order)
}

func readPackedKind(s *Stream, kind typecode.Kind, order binary.ByteOrder) (any, error) {
	switch kind {
	case typecode.Int8:
		return readPackedBody[int8](s, nil, kind, order)
	case typecode.Uint8:
		return readPackedBody[uint8](s, nil, kind, order)
	case typecode.Int16:
		return readPackedBody[int16](s, nil, kind, order)
	case typecode.Uint16:
		return readPackedBody[uint16](s, nil, kind, order)
	case typecode.Int32:
		return readPackedBody[int32](s, nil, kind, order)
	case typecode.Uint32:
		return readPackedBody[uint32](s, nil, kind, order)
	case typecode.Int64:
		return readPackedBody[int64](s, nil, kind, order)
	case typecode.Uint64:
		return readPackedBody[uint64](s, nil, kind, order)
	case typecode.Float32:
		return readPackedBody[float32](s, nil, kind, order)
	default:
		return readPackedBody[float64](s, nil, kind, order)
	}
}

// readNumberValue reads an ascii number, or a counted sequence when the
// digits are directly followed by '['.
func (s *Stream) readNumberValue() (any, error) {
	tok, special, ok, err := s.scanNumber()
	if err != nil {
		return nil, err
	}
	if ok {
		return special, nil
	}
	text := string(tok)

	integer := strings.Trim(text, "+-0123456789") == ""
	if integer && isDigit(text[0]) {
		if c, err := s.peek(); err == nil && c == '[' {
			n, perr := strconv.ParseUint(text, 10, 64)
			if perr != nil {
				return nil, s.formatError(ErrRange, "sequence length %s", text)
			}
			xs := make([]any, 0, min(n, maxPrealloc))
			err := s.readCounted(n, nil, func() error {
				v, err := s.ReadValue()
				if err != nil {
					return err
				}
				xs = append(xs, v)
				return nil
			})
			return xs, err
		}
	}
	if integer {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return v, nil
		}
		if v, err := strconv.ParseUint(strings.TrimPrefix(text, "+"), 10, 64); err == nil {
			return v, nil
		}
	}
	v, perr := strconv.ParseFloat(text, 64)
	if perr != nil && !math.IsInf(v, 0) {
		return nil, s.formatError(nil, "invalid number %q", text)
	}
	return v, nil
}

// readWordValue reads a bare word: nan, inf, an object or a string.
func (s *Stream) readWordValue() (any, error) {
	word, err := s.ReadWord(identSeparators)
	if err != nil {
		return nil, err
	}
	if word == "" {
		c, _ := s.get()
		return nil, s.formatError(nil, "unexpected %s", describe(c))
	}
	switch {
	case strings.EqualFold(word, "nan"):
		return math.NaN(), nil
	case strings.EqualFold(word, "inf"):
		return math.Inf(1), nil
	}
	if err := s.SkipBlanks(); err != nil {
		return nil, err
	}
	if c, err := s.peek(); err == nil && c == '(' {
		s.get()
		o := Object{Class: word}
		return o, s.readFields(&o)
	} else if err != nil && err != io.EOF {
		return nil, err
	}
	return word, nil
}
