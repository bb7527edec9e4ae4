package pstream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"runtime"
	"strings"
	"testing"

	"github.com/lmittmann/tint"
	"github.com/plearn/pstream/pkg/bytechan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allModes = []Mode{RawASCII, RawBinary, PrettyASCII, PlearnASCII, PlearnBinary}

func testLogger(t *testing.T) *slog.Logger {
	return slog.New(tint.NewHandler(t.Output(), &tint.Options{Level: slog.LevelDebug, TimeFormat: "15:04:05"}))
}

// encode runs fn against a stream writing mode and returns the bytes.
func encode(t *testing.T, mode Mode, fn func(s *Stream) error, opts ...Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	opts = append([]Option{WithLogger(testLogger(t))}, opts...)
	s := NewStream(bytechan.NewWriter(&buf), append(opts, WithOutputMode(mode))...)
	require.NoError(t, fn(s))
	require.NoError(t, s.Close())
	return buf.Bytes()
}

func decoder(t *testing.T, data []byte, mode Mode, opts ...Option) *Stream {
	opts = append([]Option{WithLogger(testLogger(t))}, opts...)
	s := NewStream(bytechan.NewBytes(data), append(opts, WithInputMode(mode))...)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStream_WriteInt32_Modes(t *testing.T) {
	cases := []struct {
		mode  Mode
		order binary.ByteOrder
		want  string
	}{
		{RawASCII, binary.LittleEndian, "42 "},
		{PrettyASCII, binary.LittleEndian, "42 "},
		{PlearnASCII, binary.LittleEndian, "42 "},
		{RawBinary, binary.LittleEndian, "\x2a\x00\x00\x00"},
		{RawBinary, binary.BigEndian, "\x00\x00\x00\x2a"},
		{PlearnBinary, binary.LittleEndian, "\x07\x2a\x00\x00\x00"},
		{PlearnBinary, binary.BigEndian, "\x08\x00\x00\x00\x2a"},
	}
	for _, tc := range cases {
		got := encode(t, tc.mode, func(s *Stream) error {
			return s.WriteInt32(42)
		}, WithByteOrder(tc.order))
		assert.Equal(t, tc.want, string(got), "%s %s", tc.mode, tc.order)
	}
}

func TestStream_WriteFloat64_Specials(t *testing.T) {
	got := encode(t, PlearnASCII, func(s *Stream) error {
		for _, v := range []float64{0.5, math.NaN(), math.Inf(1), math.Inf(-1), 1e300} {
			if err := s.WriteFloat64(v); err != nil {
				return err
			}
		}
		return nil
	})
	assert.Equal(t, "0.5 nan inf -inf 1e+300 ", string(got))
}

func TestStream_WriteFloat64_Format(t *testing.T) {
	got := encode(t, RawASCII, func(s *Stream) error {
		if err := s.WriteFloat64(1.0 / 3); err != nil {
			return err
		}
		return s.WriteFloat32(0.25)
	}, WithDoubleFormat("%.3f"), WithFloatFormat("%.1e"))
	assert.Equal(t, "0.333 2.5e-01 ", string(got))
}

func TestStream_ReadFloat64_ASCIISpellings(t *testing.T) {
	s := decoder(t, []byte("? nan NaN inf -inf -Inf 2.5e3 -7"), PlearnASCII)
	want := []float64{math.NaN(), math.NaN(), math.NaN(), math.Inf(1), math.Inf(-1), math.Inf(-1), 2500, -7}
	for i, w := range want {
		v, err := s.ReadFloat64()
		require.NoError(t, err, "value %d", i)
		if math.IsNaN(w) {
			assert.True(t, math.IsNaN(v), "value %d", i)
			continue
		}
		assert.Equal(t, w, v, "value %d", i)
	}
	_, err := s.ReadFloat64()
	assert.Equal(t, io.EOF, err)
}

func TestStream_ReadFloat64_Invalid(t *testing.T) {
	s := decoder(t, []byte("nax"), PlearnASCII)
	_, err := s.ReadFloat64()
	require.ErrorIs(t, err, ErrInvalidFormat)

	s = decoder(t, []byte("1.2.3"), RawASCII)
	_, err = s.ReadFloat64()
	require.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), `"1.2.3"`)
}

func TestStream_ReadInt_Range(t *testing.T) {
	s := decoder(t, []byte("127 128"), PlearnASCII)
	v, err := s.ReadInt8()
	require.NoError(t, err)
	assert.Equal(t, int8(127), v)
	_, err = s.ReadInt8()
	require.ErrorIs(t, err, ErrRange)

	s = decoder(t, []byte("-1"), PlearnASCII)
	_, err = s.ReadUint32()
	require.ErrorIs(t, err, ErrRange)

	s = decoder(t, []byte("-9223372036854775808 99999999999999999999"), PlearnASCII)
	i, err := s.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), i)
	_, err = s.ReadUint64()
	require.ErrorIs(t, err, ErrRange)
}

func TestStream_ReadInt_SignWithoutDigits(t *testing.T) {
	s := decoder(t, []byte("-x"), PlearnASCII)
	_, err := s.ReadInt32()
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Reason, "expected digits")
	assert.Equal(t, int64(1), fe.Offset)
}

func TestStream_ReadNumber_TagConversion(t *testing.T) {
	// An int16 written big endian, read as int64 and as float64.
	data := []byte{0x04, 0xFF, 0xFE, 0x04, 0x00, 0x10}
	s := decoder(t, data, PlearnASCII)
	v, err := s.ReadInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v)
	f, err := s.ReadFloat64()
	require.NoError(t, err)
	assert.Equal(t, 16.0, f)
}

func TestStream_ReadNumber_UnknownTypecode(t *testing.T) {
	s := decoder(t, []byte{0x1F, 0, 0}, PlearnBinary)
	_, err := s.ReadInt32()
	require.ErrorIs(t, err, ErrUnknownTypecode)
}

func TestStream_ReadNumber_Truncated(t *testing.T) {
	s := decoder(t, []byte{0x10, 1, 2, 3}, PlearnBinary)
	_, err := s.ReadFloat64()
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestStream_Primitives_RoundTrip(t *testing.T) {
	for _, mode := range allModes {
		t.Run(mode.String(), func(t *testing.T) {
			data := encode(t, mode, func(s *Stream) error {
				return errors.Join(
					s.WriteInt8(-8),
					s.WriteUint8(200),
					s.WriteInt16(-30000),
					s.WriteUint16(60000),
					s.WriteInt32(-2000000000),
					s.WriteUint32(4000000000),
					s.WriteInt64(math.MinInt64),
					s.WriteUint64(math.MaxUint64),
					s.WriteInt(-5),
					s.WriteUint(5),
					s.WriteFloat32(1.25),
					s.WriteFloat64(-0.1),
					s.WriteBool(true),
					s.WriteBool(false),
					s.WriteString("word"),
				)
			})

			s := decoder(t, data, mode)
			i8, err := s.ReadInt8()
			require.NoError(t, err)
			u8, err := s.ReadUint8()
			require.NoError(t, err)
			i16, err := s.ReadInt16()
			require.NoError(t, err)
			u16, err := s.ReadUint16()
			require.NoError(t, err)
			i32, err := s.ReadInt32()
			require.NoError(t, err)
			u32, err := s.ReadUint32()
			require.NoError(t, err)
			i64, err := s.ReadInt64()
			require.NoError(t, err)
			u64, err := s.ReadUint64()
			require.NoError(t, err)
			i, err := s.ReadInt()
			require.NoError(t, err)
			u, err := s.ReadUint()
			require.NoError(t, err)
			f32, err := s.ReadFloat32()
			require.NoError(t, err)
			f64, err := s.ReadFloat64()
			require.NoError(t, err)
			b1, err := s.ReadBool()
			require.NoError(t, err)
			b2, err := s.ReadBool()
			require.NoError(t, err)
			str, err := s.ReadString()
			require.NoError(t, err)

			assert.Equal(t, int8(-8), i8)
			assert.Equal(t, uint8(200), u8)
			assert.Equal(t, int16(-30000), i16)
			assert.Equal(t, uint16(60000), u16)
			assert.Equal(t, int32(-2000000000), i32)
			assert.Equal(t, uint32(4000000000), u32)
			assert.Equal(t, int64(math.MinInt64), i64)
			assert.Equal(t, uint64(math.MaxUint64), u64)
			assert.Equal(t, -5, i)
			assert.Equal(t, uint(5), u)
			assert.Equal(t, float32(1.25), f32)
			assert.Equal(t, -0.1, f64)
			assert.True(t, b1)
			assert.False(t, b2)
			assert.Equal(t, "word", str)
		})
	}
}

func TestStream_WriteChar_Modes(t *testing.T) {
	cases := map[Mode]string{
		RawASCII:     "c",
		RawBinary:    "c",
		PrettyASCII:  "c",
		PlearnASCII:  "'c' ",
		PlearnBinary: "\x01c",
	}
	for mode, want := range cases {
		got := encode(t, mode, func(s *Stream) error { return s.WriteChar('c') })
		assert.Equal(t, want, string(got), "%s", mode)

		c, err := decoder(t, got, mode).ReadChar()
		require.NoError(t, err)
		assert.Equal(t, byte('c'), c)
	}
}

func TestStream_Char_Blanks(t *testing.T) {
	for _, mode := range allModes {
		for _, c := range []byte{' ', '\n'} {
			data := encode(t, mode, func(s *Stream) error { return s.WriteChar(c) })
			got, err := decoder(t, data, mode).ReadChar()
			if mode == RawASCII || mode == PrettyASCII {
				// Blanks are skipped before a bare character.
				assert.Equal(t, io.EOF, err, "%s %q", mode, data)
				continue
			}
			require.NoError(t, err, "%s %q", mode, data)
			assert.Equal(t, c, got, "%s %q", mode, data)
		}
	}
}

func TestStream_Char_Escapes(t *testing.T) {
	for _, c := range []byte{'\'', '\\', '\n', 0, 0xE9} {
		data := encode(t, PlearnASCII, func(s *Stream) error { return s.WriteChar(c) })
		got, err := decoder(t, data, PlearnASCII).ReadChar()
		require.NoError(t, err)
		assert.Equal(t, c, got, "encoded as %q", data)
	}
}

func TestStream_ReadBool_Words(t *testing.T) {
	s := decoder(t, []byte("True False 1 0"), PlearnASCII)
	for _, want := range []bool{true, false, true, false} {
		v, err := s.ReadBool()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	for _, in := range []string{"yes", "TRUE", "TrUe", "FALSE", "false"} {
		_, err := decoder(t, []byte(in), PlearnASCII).ReadBool()
		require.ErrorIs(t, err, ErrInvalidFormat, in)
	}
}

func TestStream_WriteString_Quoting(t *testing.T) {
	got := encode(t, PlearnASCII, func(s *Stream) error {
		return s.WriteString("a \"b\"\n\t\\")
	})
	assert.Equal(t, `"a \"b\"\n\t\\" `, string(got))

	v, err := decoder(t, got, PlearnASCII).ReadString()
	require.NoError(t, err)
	assert.Equal(t, "a \"b\"\n\t\\", v)
}

func TestStream_ReadString_UnknownEscapeIsLiteral(t *testing.T) {
	v, err := decoder(t, []byte(`"\q\0\v"`), PlearnASCII).ReadString()
	require.NoError(t, err)
	assert.Equal(t, "q\x00\v", v)
}

func TestStream_ReadString_Unterminated(t *testing.T) {
	_, err := decoder(t, []byte(`"abc`), PlearnASCII).ReadString()
	require.ErrorIs(t, err, ErrUnterminatedString)
}

func TestStream_ReadString_BareWord(t *testing.T) {
	s := decoder(t, []byte("alpha, beta;gamma]"), PlearnASCII)
	for _, want := range []string{"alpha", "beta", "gamma"} {
		v, err := s.ReadString()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestStream_ReadString_RawStopsAtBlanksOnly(t *testing.T) {
	v, err := decoder(t, []byte("a,b;c d"), RawASCII).ReadString()
	require.NoError(t, err)
	assert.Equal(t, "a,b;c", v)
}

func TestStream_RawBinaryString(t *testing.T) {
	got := encode(t, RawBinary, func(s *Stream) error { return s.WriteString("hi") }, WithByteOrder(binary.BigEndian))
	assert.Equal(t, "\x00\x00\x00\x02hi", string(got))
}

func TestStream_RawBinaryString_Long(t *testing.T) {
	str := strings.Repeat("abc", maxPrealloc)
	data := encode(t, RawBinary, func(s *Stream) error { return s.WriteString(str) })
	v, err := decoder(t, data, RawBinary).ReadString()
	require.NoError(t, err)
	assert.Equal(t, str, v)
}

func TestStream_RawBinaryString_LengthBeyondInput(t *testing.T) {
	s := decoder(t, []byte{0x00, 0x00, 0x00, 0x40, 'x', 'y'}, RawBinary, WithByteOrder(binary.LittleEndian))

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := s.ReadString()
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, ErrInvalidFormat)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
}

func TestStream_CString(t *testing.T) {
	got := encode(t, RawBinary, func(s *Stream) error { return s.WriteCString("abc") })
	assert.Equal(t, "abc\x00", string(got))
	v, err := decoder(t, got, RawBinary).ReadCString()
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	got = encode(t, PrettyASCII, func(s *Stream) error { return s.WriteCString("[ ") })
	assert.Equal(t, "[ ", string(got))

	_, err = decoder(t, []byte("abc"), RawBinary).ReadCString()
	require.ErrorIs(t, err, ErrUnterminatedString)
}

func TestStream_BinaryOrder_Swap(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		data := encode(t, PlearnBinary, func(s *Stream) error {
			return errors.Join(s.WriteFloat64(3.5), s.WriteInt32(-7), s.WriteUint16(513))
		}, WithByteOrder(order))

		for _, readerOrder := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
			s := decoder(t, data, PlearnBinary, WithByteOrder(readerOrder))
			f, err := s.ReadFloat64()
			require.NoError(t, err)
			i, err := s.ReadInt32()
			require.NoError(t, err)
			u, err := s.ReadUint16()
			require.NoError(t, err)
			assert.Equal(t, 3.5, f)
			assert.Equal(t, int32(-7), i)
			assert.Equal(t, uint16(513), u)
		}
	}
}

func TestStream_SetModes(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(bytechan.NewBuffer(&buf), WithLogger(testLogger(t)))
	require.Equal(t, PlearnASCII, s.OutputMode())

	require.NoError(t, s.WriteInt32(1))
	s.SetOutputMode(PlearnBinary)
	require.NoError(t, s.WriteInt32(2))
	s.SetOutputMode(RawASCII)
	require.NoError(t, s.WriteInt32(3))
	require.NoError(t, s.Flush())

	// A plearn reader accepts both ascii and binary tokens.
	for _, want := range []int32{1, 2} {
		v, err := s.ReadInt32()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	s.SetInputMode(RawASCII)
	v, err := s.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)
	require.NoError(t, s.Close())
}

func TestParseMode(t *testing.T) {
	for _, m := range allModes {
		got, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := ParseMode("xml")
	require.Error(t, err)

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("plearn_binary")))
	assert.Equal(t, PlearnBinary, m)
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("float")
	require.NoError(t, err)
	assert.Equal(t, CompressFloat, c)
	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressNone, c)
	_, err = ParseCompression("zip")
	require.Error(t, err)
}
