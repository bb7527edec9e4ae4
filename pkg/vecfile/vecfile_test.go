package vecfile

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/assert"

	"github.com/plearn/pstream/pkg/pstream"
	"github.com/plearn/pstream/pkg/typecode"
)

func header(text string) []byte {
	b := []byte(text + strings.Repeat(" ", HeaderSize-1-len(text)) + "\n")
	return b
}

func matrixFile(t *testing.T) []byte {
	t.Helper()
	data := header("MATRIX 2 3 DOUBLE LITTLE_ENDIAN")
	for _, v := range []float64{1, 2, 3, 4, 5, 6} {
		data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
	}
	require.Len(t, data, HeaderSize+48)
	return data
}

func TestRead_Matrix(t *testing.T) {
	m, err := Read(bytes.NewReader(matrixFile(t)))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 3, m.Cols)
	assert.Equal(t, false, m.Vector)
	assert.Equal(t, 6.0, m.At(1, 2))
	require.Equal(t, []float64{4, 5, 6}, m.Row(1))
}

func TestWrite_ByteIdentical(t *testing.T) {
	in := matrixFile(t)
	m, err := Read(bytes.NewReader(in))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Write(&out, m))
	require.Equal(t, in, out.Bytes())
}

func TestLoadSave_File(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "m.pmat")
	require.NoError(t, os.WriteFile(src, matrixFile(t), 0o644))

	m, err := Load(src)
	require.NoError(t, err)

	dst := filepath.Join(dir, "copy.pmat")
	require.NoError(t, Save(dst, m))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, matrixFile(t), got)
}

func TestLoadSave_Compressed(t *testing.T) {
	for _, ext := range []string{".gz", ".zst"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "v.pvec"+ext)
			v := NewVector([]float64{0.5, -1, 1e300})
			require.NoError(t, Save(path, v))

			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, true, got.Vector)
			require.Equal(t, v.Data, got.Data)
		})
	}
}

func TestRead_FloatBigEndian(t *testing.T) {
	data := header("VECTOR 2 FLOAT BIG_ENDIAN")
	data = binary.BigEndian.AppendUint32(data, math.Float32bits(1.5))
	data = binary.BigEndian.AppendUint32(data, math.Float32bits(-2))

	m, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, true, m.Vector)
	assert.Equal(t, typecode.Float32, m.Elem)
	assert.Equal(t, "BIG_ENDIAN", typecode.OrderName(m.Order))
	require.Equal(t, []float64{1.5, -2}, m.Data)

	var out bytes.Buffer
	require.NoError(t, Write(&out, m))
	require.Equal(t, data, out.Bytes())
}

func TestParseHeader_Malformed(t *testing.T) {
	good := header("VECTOR 3 DOUBLE LITTLE_ENDIAN")
	noNewline := append([]byte(nil), good...)
	noNewline[HeaderSize-1] = ' '

	cases := map[string][]byte{
		"short":          good[:10],
		"no newline":     noNewline,
		"empty":          header(""),
		"unknown kind":   header("TENSOR 3 DOUBLE LITTLE_ENDIAN"),
		"missing dim":    header("MATRIX 3 DOUBLE LITTLE_ENDIAN"),
		"bad dim":        header("VECTOR x DOUBLE LITTLE_ENDIAN"),
		"negative dim":   header("VECTOR -1 DOUBLE LITTLE_ENDIAN"),
		"bad element":    header("VECTOR 3 INT LITTLE_ENDIAN"),
		"bad byte order": header("VECTOR 3 DOUBLE MIDDLE_ENDIAN"),
		"overflow":       header("MATRIX 4294967296 4294967296 DOUBLE LITTLE_ENDIAN"),
		"signed wrap":    header("MATRIX 3037000500 3037000500 DOUBLE LITTLE_ENDIAN"),
		"vector bytes":   header("VECTOR 2305843009213693952 FLOAT LITTLE_ENDIAN"),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHeader(b)
			require.ErrorIs(t, err, ErrInvalidHeader)
		})
	}
}

func TestRead_Truncated(t *testing.T) {
	_, err := Read(bytes.NewReader(matrixFile(t)[:20]))
	require.ErrorIs(t, err, ErrInvalidHeader)

	_, err = Read(bytes.NewReader(matrixFile(t)[:HeaderSize+10]))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidHeader)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestRead_DimensionsBeyondInput(t *testing.T) {
	data := header("MATRIX 100000 100000 DOUBLE LITTLE_ENDIAN")
	data = binary.LittleEndian.AppendUint64(data, math.Float64bits(1))

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := Read(bytes.NewReader(data))
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.NotErrorIs(t, err, ErrInvalidHeader)
	require.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
}

func TestRead_AcrossChunks(t *testing.T) {
	xs := make([]float64, readChunk/8*2+5)
	for i := range xs {
		xs[i] = float64(i) / 4
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewVector(xs)))

	m, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, len(xs), m.Cols)
	require.Equal(t, xs, m.Data)
}

func TestHeader_TooLong(t *testing.T) {
	h := Header{Rows: math.MaxInt64, Cols: math.MaxInt64, Elem: typecode.Float64, Order: binary.LittleEndian}
	_, err := h.Bytes()
	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestMatrix_PStream(t *testing.T) {
	m := NewMatrix(2, 2)
	m.Set(0, 1, 3)
	m.Set(1, 0, -1)

	for _, mode := range []pstream.Mode{pstream.PlearnASCII, pstream.PlearnBinary} {
		t.Run(mode.String(), func(t *testing.T) {
			data, err := pstream.Marshal(m, mode)
			require.NoError(t, err)

			var got *Matrix
			require.NoError(t, pstream.Unmarshal(data, mode, &got))
			require.Equal(t, m.Data, got.Data)
			assert.Equal(t, 2, got.Rows)
			assert.Equal(t, 2, got.Cols)
		})
	}
}

func TestMatrix_PStreamText(t *testing.T) {
	m := NewVector([]float64{1, 2.5})
	data, err := pstream.Marshal(m, pstream.PlearnASCII)
	require.NoError(t, err)
	assert.Equal(t, "*1-> Matrix( rows = 1 ; cols = 2 ; data = 2[ 1 2.5 ] ; ) ", string(data))
}
