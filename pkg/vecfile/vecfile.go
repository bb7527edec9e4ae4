// Package vecfile reads and writes flat numeric vector and matrix files.
//
// A file starts with a 64-byte ascii header, space padded with a newline as
// its last byte:
//
//	VECTOR <n> FLOAT|DOUBLE LITTLE_ENDIAN|BIG_ENDIAN
//	MATRIX <rows> <cols> FLOAT|DOUBLE LITTLE_ENDIAN|BIG_ENDIAN
//
// followed by the elements in row-major order with no padding.
package vecfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/plearn/pstream/pkg/typecode"
)

// HeaderSize is the length of the fixed ascii header.
const HeaderSize = 64

// readChunk is the most data bytes Read requests at a time.
const readChunk = 1 << 16

// ErrInvalidHeader indicates a header that does not follow the format.
var ErrInvalidHeader = errors.New("vecfile: invalid header")

// Header describes the data that follows it.
type Header struct {
	Vector bool // VECTOR rather than MATRIX
	Rows   int
	Cols   int
	Elem   typecode.Kind // Float32 or Float64
	Order  binary.ByteOrder
}

// Len returns the number of elements.
func (h Header) Len() int {
	return h.Rows * h.Cols
}

func elemName(k typecode.Kind) string {
	if k == typecode.Float32 {
		return "FLOAT"
	}
	return "DOUBLE"
}

// String returns the header text without padding.
func (h Header) String() string {
	if h.Vector {
		return fmt.Sprintf("VECTOR %d %s %s", h.Cols, elemName(h.Elem), typecode.OrderName(h.Order))
	}
	return fmt.Sprintf("MATRIX %d %d %s %s", h.Rows, h.Cols, elemName(h.Elem), typecode.OrderName(h.Order))
}

// Bytes returns the padded 64-byte header.
func (h Header) Bytes() ([]byte, error) {
	text := h.String()
	if len(text) >= HeaderSize {
		return nil, fmt.Errorf("%w: %q does not fit in %d bytes", ErrInvalidHeader, text, HeaderSize)
	}
	b := make([]byte, HeaderSize)
	copy(b, text)
	for i := len(text); i < HeaderSize-1; i++ {
		b[i] = ' '
	}
	b[HeaderSize-1] = '\n'
	return b, nil
}

// ParseHeader parses a 64-byte header.
func ParseHeader(b []byte) (Header, error) {
	var h Header
	if len(b) != HeaderSize {
		return h, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(b))
	}
	if b[HeaderSize-1] != '\n' {
		return h, fmt.Errorf("%w: byte %d is 0x%02X, not a newline", ErrInvalidHeader, HeaderSize, b[HeaderSize-1])
	}
	fields := strings.Fields(string(b[:HeaderSize-1]))
	if len(fields) == 0 {
		return h, fmt.Errorf("%w: empty", ErrInvalidHeader)
	}

	var dims []string
	switch fields[0] {
	case "VECTOR":
		if len(fields) != 4 {
			return h, fmt.Errorf("%w: VECTOR wants 3 fields, got %d", ErrInvalidHeader, len(fields)-1)
		}
		h.Vector = true
		h.Rows = 1
		dims = fields[1:2]
	case "MATRIX":
		if len(fields) != 5 {
			return h, fmt.Errorf("%w: MATRIX wants 4 fields, got %d", ErrInvalidHeader, len(fields)-1)
		}
		dims = fields[1:3]
	default:
		return h, fmt.Errorf("%w: unknown kind %q", ErrInvalidHeader, fields[0])
	}

	n := make([]int, len(dims))
	for i, d := range dims {
		v, err := strconv.Atoi(d)
		if err != nil || v < 0 {
			return h, fmt.Errorf("%w: bad dimension %q", ErrInvalidHeader, d)
		}
		n[i] = v
	}
	if h.Vector {
		h.Cols = n[0]
	} else {
		h.Rows, h.Cols = n[0], n[1]
	}

	rest := fields[len(fields)-2:]
	switch rest[0] {
	case "FLOAT":
		h.Elem = typecode.Float32
	case "DOUBLE":
		h.Elem = typecode.Float64
	default:
		return h, fmt.Errorf("%w: unknown element type %q", ErrInvalidHeader, rest[0])
	}
	if h.Cols > 0 && h.Rows > math.MaxInt/h.Elem.Size()/h.Cols {
		return h, fmt.Errorf("%w: %dx%d elements overflow", ErrInvalidHeader, h.Rows, h.Cols)
	}
	switch rest[1] {
	case "LITTLE_ENDIAN":
		h.Order = binary.LittleEndian
	case "BIG_ENDIAN":
		h.Order = binary.BigEndian
	default:
		return h, fmt.Errorf("%w: unknown byte order %q", ErrInvalidHeader, rest[1])
	}
	return h, nil
}

// Matrix is a dense row-major matrix. It remembers the on-disk element
// type and byte order so that writing it back reproduces the input.
type Matrix struct {
	Header
	Data []float64
}

// NewMatrix returns a zero rows x cols matrix stored as native doubles.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{
		Header: Header{Rows: rows, Cols: cols, Elem: typecode.Float64, Order: typecode.Native},
		Data:   make([]float64, rows*cols),
	}
}

// NewVector returns a vector holding a copy of xs stored as native doubles.
func NewVector(xs []float64) *Matrix {
	return &Matrix{
		Header: Header{Vector: true, Rows: 1, Cols: len(xs), Elem: typecode.Float64, Order: typecode.Native},
		Data:   append([]float64(nil), xs...),
	}
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}

// Set stores v at row i, column j.
func (m *Matrix) Set(i, j int, v float64) {
	m.Data[i*m.Cols+j] = v
}

// Row returns row i, sharing storage with m.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Read reads a header and its elements from r.
func Read(r io.Reader) (*Matrix, error) {
	hb := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hb); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: truncated", ErrInvalidHeader)
		}
		return nil, fmt.Errorf("vecfile: read header: %w", err)
	}
	h, err := ParseHeader(hb)
	if err != nil {
		return nil, err
	}
	// The header is untrusted: data grows as it arrives.
	size := h.Elem.Size()
	m := &Matrix{Header: h, Data: make([]float64, 0, min(h.Len(), readChunk/size))}
	buf := make([]byte, min(h.Len()*size, readChunk))
	for n := h.Len(); n > 0; {
		k := min(n, readChunk/size)
		if _, err := io.ReadFull(r, buf[:k*size]); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("vecfile: read %d elements: %w", h.Len(), err)
		}
		off := len(m.Data)
		m.Data = slices.Grow(m.Data, k)[:off+k]
		typecode.Decode(m.Data[off:], buf[:k*size], h.Elem, h.Order)
		n -= k
	}
	return m, nil
}

// Write writes m with its header to w.
func Write(w io.Writer, m *Matrix) error {
	if len(m.Data) != m.Len() {
		return fmt.Errorf("vecfile: %d elements for a %dx%d matrix", len(m.Data), m.Rows, m.Cols)
	}
	hb, err := m.Header.Bytes()
	if err != nil {
		return err
	}
	buf := typecode.Encode(hb, m.Elem, m.Order, m.Data)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("vecfile: write: %w", err)
	}
	return nil
}
