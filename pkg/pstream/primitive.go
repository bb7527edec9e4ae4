package pstream

import (
	"encoding/binary"
	"io"
	"math"
	"slices"

	"github.com/plearn/pstream/pkg/typecode"
)

// writeNumber writes v in the output mode: text plus a separator in ascii
// modes, bare bytes in raw_binary, typecode plus bytes in plearn_binary.
func writeNumber[T typecode.Number](s *Stream, v T) error {
	k := typecode.KindOf[T]()
	buf := s.scratch[:0]
	switch s.outMode {
	case RawBinary, PlearnBinary:
		if s.outMode == PlearnBinary {
			buf = append(buf, typecode.Tag(k, s.order))
		}
		off := len(buf)
		buf = slices.Grow(buf, k.Size())[:off+k.Size()]
		typecode.Put(buf[off:], k, s.order, v)
	default:
		buf = appendNumber(s, buf, k, v)
	}
	s.scratch = buf[:0]
	if err := s.write(buf); err != nil {
		return err
	}
	return s.sep()
}

// readNumber reads a T in the input mode. In the plearn modes a typecode
// selects the binary path; the value is converted to T whatever kind it was
// written as.
func readNumber[T typecode.Number](s *Stream) (T, error) {
	k := typecode.KindOf[T]()
	if s.inMode == RawBinary {
		buf, err := s.readFull(k.Size(), k.String())
		if err != nil {
			return 0, err
		}
		return typecode.Get[T](buf, k, s.order), nil
	}
	if err := s.skipForRead(); err != nil {
		return 0, err
	}
	c, err := s.peek()
	if err != nil {
		return 0, err
	}
	if s.inMode.isPlearn() && c < 0x20 {
		return readTagged[T](s)
	}
	return parseASCII[T](s, k)
}

// readTagged reads a typecode and the value after it.
func readTagged[T typecode.Number](s *Stream) (T, error) {
	tag, err := s.mustGet("typecode")
	if err != nil {
		return 0, err
	}
	kind, order, ok := typecode.Lookup(tag)
	if !ok {
		return 0, s.formatError(ErrUnknownTypecode, "unknown typecode 0x%02X", tag)
	}
	buf, err := s.readFull(kind.Size(), kind.String())
	if err != nil {
		return 0, err
	}
	return decodeAs[T](s, buf, kind, order), nil
}

// decodeAs interprets buf, written in order, as kind and converts to T.
func decodeAs[T typecode.Number](s *Stream, buf []byte, kind typecode.Kind, order binary.ByteOrder) T {
	if !typecode.SameOrder(order, s.order) {
		typecode.Swap(buf, kind.Size())
	}
	return typecode.Get[T](buf, kind, s.order)
}

// WriteInt8 writes v.
func (s *Stream) WriteInt8(v int8) error { return writeNumber(s, v) }

// WriteUint8 writes v as a number. Use WriteChar for characters.
func (s *Stream) WriteUint8(v uint8) error { return writeNumber(s, v) }

// WriteInt16 writes v.
func (s *Stream) WriteInt16(v int16) error { return writeNumber(s, v) }

// WriteUint16 writes v.
func (s *Stream) WriteUint16(v uint16) error { return writeNumber(s, v) }

// WriteInt32 writes v.
func (s *Stream) WriteInt32(v int32) error { return writeNumber(s, v) }

// WriteUint32 writes v.
func (s *Stream) WriteUint32(v uint32) error { return writeNumber(s, v) }

// WriteInt64 writes v.
func (s *Stream) WriteInt64(v int64) error { return writeNumber(s, v) }

// WriteUint64 writes v.
func (s *Stream) WriteUint64(v uint64) error { return writeNumber(s, v) }

// WriteInt writes v with the width of the platform int.
func (s *Stream) WriteInt(v int) error { return writeNumber(s, v) }

// WriteUint writes v with the width of the platform uint.
func (s *Stream) WriteUint(v uint) error { return writeNumber(s, v) }

// WriteFloat32 writes v.
func (s *Stream) WriteFloat32(v float32) error { return writeNumber(s, v) }

// WriteFloat64 writes v.
func (s *Stream) WriteFloat64(v float64) error { return writeNumber(s, v) }

// ReadInt8 reads an int8.
func (s *Stream) ReadInt8() (int8, error) { return readNumber[int8](s) }

// ReadUint8 reads a uint8 written as a number.
func (s *Stream) ReadUint8() (uint8, error) { return readNumber[uint8](s) }

// ReadInt16 reads an int16.
func (s *Stream) ReadInt16() (int16, error) { return readNumber[int16](s) }

// ReadUint16 reads a uint16.
func (s *Stream) ReadUint16() (uint16, error) { return readNumber[uint16](s) }

// ReadInt32 reads an int32.
func (s *Stream) ReadInt32() (int32, error) { return readNumber[int32](s) }

// ReadUint32 reads a uint32.
func (s *Stream) ReadUint32() (uint32, error) { return readNumber[uint32](s) }

// ReadInt64 reads an int64.
func (s *Stream) ReadInt64() (int64, error) { return readNumber[int64](s) }

// ReadUint64 reads a uint64.
func (s *Stream) ReadUint64() (uint64, error) { return readNumber[uint64](s) }

// ReadInt reads an int.
func (s *Stream) ReadInt() (int, error) { return readNumber[int](s) }

// ReadUint reads a uint.
func (s *Stream) ReadUint() (uint, error) { return readNumber[uint](s) }

// ReadFloat32 reads a float32. nan, inf and ? are accepted in ascii.
func (s *Stream) ReadFloat32() (float32, error) { return readNumber[float32](s) }

// ReadFloat64 reads a float64. nan, inf and ? are accepted in ascii.
func (s *Stream) ReadFloat64() (float64, error) { return readNumber[float64](s) }

// WriteChar writes a single character: bare in raw and pretty modes, quoted
// as 'c' in plearn_ascii, and as an int8 typecode plus the byte in
// plearn_binary.
//
// No separator follows a bare character, and ReadChar skips blanks in
// raw_ascii and pretty_ascii, so a blank written there does not read back.
func (s *Stream) WriteChar(c byte) error {
	switch s.outMode {
	case RawASCII, PrettyASCII, RawBinary:
		return s.writeByte(c)
	case PlearnBinary:
		return s.write([]byte{typecode.TagInt8, c})
	default:
		buf := appendQuoted(s.scratch[:0], string([]byte{c}), '\'')
		s.scratch = buf[:0]
		if err := s.write(buf); err != nil {
			return err
		}
		return s.sep()
	}
}

// ReadChar reads a character written by WriteChar. In the plearn modes a
// bare character is also accepted.
func (s *Stream) ReadChar() (byte, error) {
	if s.inMode == RawBinary {
		return s.get()
	}
	if err := s.skipForRead(); err != nil {
		return 0, err
	}
	if !s.inMode.isPlearn() {
		return s.get()
	}
	c, err := s.peek()
	if err != nil {
		return 0, err
	}
	switch c {
	case '\'':
		str, err := s.readDelimited('\'')
		if err != nil {
			return 0, err
		}
		if len(str) != 1 {
			return 0, s.formatError(nil, "character literal holds %d bytes", len(str))
		}
		return str[0], nil
	case typecode.TagInt8, typecode.TagUint8:
		s.get()
		return s.mustGet("character")
	}
	return s.get()
}

// WriteBool writes 1 or 0.
func (s *Stream) WriteBool(v bool) error {
	c := byte('0')
	if v {
		c = '1'
	}
	if err := s.writeByte(c); err != nil {
		return err
	}
	return s.sep()
}

// ReadBool reads 0, 1, True or False, spelled with exactly that case.
// raw_binary also accepts the bytes 0 and 1.
func (s *Stream) ReadBool() (bool, error) {
	if err := s.skipForRead(); err != nil {
		return false, err
	}
	c, err := s.get()
	if err != nil {
		return false, err
	}
	switch c {
	case '0':
		return false, nil
	case '1':
		return true, nil
	case 'T':
		return true, s.expectWord("rue")
	case 'F':
		return false, s.expectWord("alse")
	}
	if s.inMode == RawBinary && c <= 1 {
		return c == 1, nil
	}
	return false, s.formatError(nil, "expected a boolean, got %s", describe(c))
}

// WriteString writes str: bare in raw and pretty ascii, length prefixed in
// raw_binary and double quoted with escapes in the plearn modes.
//
// Bare strings only read back if they contain no blanks.
func (s *Stream) WriteString(str string) error {
	switch s.outMode {
	case RawBinary:
		if uint64(len(str)) > math.MaxUint32 {
			return s.formatError(ErrRange, "string of %d bytes", len(str))
		}
		var n [4]byte
		s.order.PutUint32(n[:], uint32(len(str)))
		if err := s.write(n[:]); err != nil {
			return err
		}
		return s.writeString(str)
	case RawASCII, PrettyASCII:
		if err := s.writeString(str); err != nil {
			return err
		}
		return s.sep()
	default:
		buf := appendQuoted(s.scratch[:0], str, '"')
		s.scratch = buf[:0]
		if err := s.write(buf); err != nil {
			return err
		}
		return s.sep()
	}
}

// ReadString reads a string written by WriteString. The plearn modes also
// accept a bare word.
func (s *Stream) ReadString() (string, error) {
	if s.inMode == RawBinary {
		buf, err := s.readFull(4, "string length")
		if err != nil {
			return "", err
		}
		n := s.order.Uint32(buf)
		data, err := s.readFull(int(n), "string")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if err := s.skipForRead(); err != nil {
		return "", err
	}
	c, err := s.peek()
	if err != nil {
		return "", err
	}
	if !s.inMode.isPlearn() {
		return s.ReadWord(RawSeparators)
	}
	if c == '"' {
		return s.readQuoted()
	}
	word, err := s.ReadWord(PlearnSeparators)
	if err != nil {
		return "", err
	}
	if word == "" {
		return "", s.formatError(nil, "expected a string, got %s", describe(c))
	}
	return word, nil
}

// WriteCString writes str as literal text in raw and pretty ascii, NUL
// terminated in raw_binary and quoted in the plearn modes.
func (s *Stream) WriteCString(str string) error {
	switch s.outMode {
	case RawASCII, PrettyASCII:
		return s.writeString(str)
	case RawBinary:
		if err := s.writeString(str); err != nil {
			return err
		}
		return s.writeByte(0)
	default:
		return s.WriteString(str)
	}
}

// ReadCString reads a string written by WriteCString.
func (s *Stream) ReadCString() (string, error) {
	if s.inMode != RawBinary {
		return s.ReadString()
	}
	var buf []byte
	for {
		c, err := s.get()
		if err == io.EOF {
			return "", s.formatError(ErrUnterminatedString, "end of input before NUL terminator")
		}
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(buf), nil
		}
		buf = append(buf, c)
	}
}
