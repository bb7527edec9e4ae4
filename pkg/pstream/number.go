package pstream

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/plearn/pstream/pkg/typecode"
)

// maxNumberToken bounds the length of an ascii float token.
const maxNumberToken = 64

func isNumberByte(c byte) bool {
	return isDigit(c) || c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E'
}

// scanNumber consumes one ascii floating point token. The missing value
// marker ?, nan and [-]inf are recognized case-insensitively and returned in
// special with ok set; anything else is returned as text. A leading blank
// is not skipped.
func (s *Stream) scanNumber() (tok []byte, special float64, ok bool, err error) {
	c, err := s.peek()
	if err != nil {
		return nil, 0, false, err
	}
	tok = s.scratch[:0]
	switch lower(c) {
	case '?':
		s.get()
		return nil, math.NaN(), true, nil
	case 'n':
		if err := s.expectFold("nan"); err != nil {
			return nil, 0, false, err
		}
		return nil, math.NaN(), true, nil
	case 'i':
		if err := s.expectFold("inf"); err != nil {
			return nil, 0, false, err
		}
		return nil, math.Inf(1), true, nil
	case '-':
		s.get()
		next, err := s.peek()
		if err == nil && lower(next) == 'i' {
			if err := s.expectFold("inf"); err != nil {
				return nil, 0, false, err
			}
			return nil, math.Inf(-1), true, nil
		}
		tok = append(tok, '-')
	}
	for {
		c, err := s.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, false, err
		}
		if !isNumberByte(c) {
			break
		}
		if len(tok) == maxNumberToken {
			return nil, 0, false, s.formatError(nil, "number longer than %d bytes", maxNumberToken)
		}
		tok = append(tok, c)
		s.get()
	}
	s.scratch = tok[:0]
	if len(tok) == 0 || (len(tok) == 1 && tok[0] == '-') {
		next, err := s.peek()
		if err == io.EOF {
			return nil, 0, false, s.formatError(io.ErrUnexpectedEOF, "unexpected end of input, expected a number")
		}
		return nil, 0, false, s.formatError(nil, "expected a number, got %s", describe(next))
	}
	return tok, 0, false, nil
}

// readFloatASCII reads an ascii float.
func (s *Stream) readFloatASCII(bits int) (float64, error) {
	tok, special, ok, err := s.scanNumber()
	if err != nil || ok {
		return special, err
	}
	v, perr := strconv.ParseFloat(string(tok), bits)
	if perr != nil {
		if ne, isNum := perr.(*strconv.NumError); isNum && ne.Err == strconv.ErrRange {
			return v, nil
		}
		return 0, s.formatError(nil, "invalid number %q", tok)
	}
	return v, nil
}

// readDigits reads an optional sign and a run of decimal digits. A
// non-digit right after the sign is an error.
func (s *Stream) readDigits() (neg bool, mag uint64, err error) {
	c, err := s.peek()
	if err != nil {
		return false, 0, err
	}
	if c == '+' || c == '-' {
		neg = c == '-'
		s.get()
	}
	n := 0
	overflow := false
	for {
		c, err := s.peek()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, 0, err
		}
		if !isDigit(c) {
			break
		}
		s.get()
		d := uint64(c - '0')
		if mag > (math.MaxUint64-d)/10 {
			overflow = true
		}
		mag = mag*10 + d
		n++
	}
	if n == 0 {
		next, err := s.peek()
		if err == io.EOF {
			return false, 0, s.formatError(io.ErrUnexpectedEOF, "unexpected end of input, expected digits")
		}
		return false, 0, s.formatError(nil, "expected digits, got %s", describe(next))
	}
	if overflow {
		return false, 0, s.formatError(ErrRange, "integer overflows 64 bits")
	}
	return neg, mag, nil
}

// readIntASCII reads a signed decimal integer that must fit in bits.
func (s *Stream) readIntASCII(bits int) (int64, error) {
	neg, mag, err := s.readDigits()
	if err != nil {
		return 0, err
	}
	limit := uint64(1) << (bits - 1)
	if (!neg && mag >= limit) || (neg && mag > limit) {
		return 0, s.formatError(ErrRange, "integer does not fit in int%d", bits)
	}
	if neg {
		return -int64(mag), nil
	}
	return int64(mag), nil
}

// readUintASCII reads an unsigned decimal integer that must fit in bits.
func (s *Stream) readUintASCII(bits int) (uint64, error) {
	neg, mag, err := s.readDigits()
	if err != nil {
		return 0, err
	}
	if neg && mag != 0 {
		return 0, s.formatError(ErrRange, "negative value for uint%d", bits)
	}
	if bits < 64 && mag >= uint64(1)<<bits {
		return 0, s.formatError(ErrRange, "integer does not fit in uint%d", bits)
	}
	return mag, nil
}

// parseASCII reads an ascii number as T. Integer kinds are parsed digit by
// digit and range checked; float kinds accept the nan/inf/? spellings.
func parseASCII[T typecode.Number](s *Stream, k typecode.Kind) (T, error) {
	bits := k.Size() * 8
	switch {
	case k.IsFloat():
		v, err := s.readFloatASCII(bits)
		return T(v), err
	case k.IsSigned():
		v, err := s.readIntASCII(bits)
		return T(v), err
	default:
		v, err := s.readUintASCII(bits)
		return T(v), err
	}
}

// appendFloat formats v for ascii output. Non-finite values are spelled
// nan, inf and -inf in every format.
func (s *Stream) appendFloat(dst []byte, v float64, k typecode.Kind) []byte {
	switch {
	case math.IsNaN(v):
		return append(dst, "nan"...)
	case math.IsInf(v, 1):
		return append(dst, "inf"...)
	case math.IsInf(v, -1):
		return append(dst, "-inf"...)
	}
	if k == typecode.Float32 {
		if s.floatFormat != "" {
			return fmt.Appendf(dst, s.floatFormat, float32(v))
		}
		return strconv.AppendFloat(dst, v, 'g', -1, 32)
	}
	if s.doubleFormat != "" {
		return fmt.Appendf(dst, s.doubleFormat, v)
	}
	return strconv.AppendFloat(dst, v, 'g', -1, 64)
}

// appendNumber formats v as ascii text.
func appendNumber[T typecode.Number](s *Stream, dst []byte, k typecode.Kind, v T) []byte {
	switch {
	case k.IsFloat():
		return s.appendFloat(dst, float64(v), k)
	case k.IsSigned():
		return strconv.AppendInt(dst, int64(v), 10)
	default:
		return strconv.AppendUint(dst, uint64(v), 10)
	}
}
