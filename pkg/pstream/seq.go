package pstream

import (
	"encoding/binary"
	"math"
	"slices"
	"strconv"

	"github.com/plearn/pstream/pkg/typecode"
)

// maxPrealloc caps the capacity reserved from an announced element count.
const maxPrealloc = 1 << 16

// punct writes framing punctuation, followed by a blank in ascii modes.
func (s *Stream) punct(p string) error {
	if err := s.writeString(p); err != nil {
		return err
	}
	return s.sep()
}

// writeSeqFrame writes n elements with the framing of the output mode.
func (s *Stream) writeSeqFrame(n int, elem func(i int) error) error {
	switch s.outMode {
	case RawASCII, RawBinary:
		for i := range n {
			if err := elem(i); err != nil {
				return err
			}
		}
		return nil
	case PrettyASCII:
		if err := s.punct("["); err != nil {
			return err
		}
		s.seqDepth++
		err := s.writePrettyElems(n, elem)
		s.seqDepth--
		if err != nil {
			s.held = false
			return err
		}
		return s.punct("]")
	default:
		if err := s.punct(strconv.Itoa(n) + "["); err != nil {
			return err
		}
		for i := range n {
			if err := elem(i); err != nil {
				return err
			}
		}
		return s.punct("]")
	}
}

// writePrettyElems writes elements as "a, b": the blank held after each
// element is dropped in favour of the comma.
func (s *Stream) writePrettyElems(n int, elem func(i int) error) error {
	for i := range n {
		if i > 0 {
			s.held = false
			if err := s.writeString(", "); err != nil {
				return err
			}
		}
		if err := elem(i); err != nil {
			return err
		}
	}
	return nil
}

// readSeqFrame reads a counted N[ ... ] or uncounted [ ... ] sequence,
// calling elem once per element. hint receives the announced count of a
// counted sequence, capped to a sane preallocation.
func (s *Stream) readSeqFrame(hint func(n int), elem func() error) error {
	if err := s.skipForRead(); err != nil {
		return err
	}
	c, err := s.peek()
	if err != nil {
		return err
	}
	switch {
	case isDigit(c):
		n, err := s.readUintASCII(64)
		if err != nil {
			return err
		}
		return s.readCounted(n, hint, elem)
	case c == '[':
		s.get()
		return s.readUncounted(elem)
	case typecode.IsTag(c) || c == typecode.TagSeqLE || c == typecode.TagSeqBE:
		return s.formatError(ErrUnsupportedType, "binary token %s where a framed sequence was expected", describe(c))
	}
	return s.formatError(nil, "expected a sequence, got %s", describe(c))
}

func (s *Stream) readCounted(n uint64, hint func(int), elem func() error) error {
	if err := s.SkipBlanks(); err != nil {
		return err
	}
	if err := s.expect('['); err != nil {
		return s.eofInside(err, ']')
	}
	if hint != nil {
		hint(int(min(n, maxPrealloc)))
	}
	for range n {
		if err := elem(); err != nil {
			return s.eofInside(err, ']')
		}
	}
	if err := s.skipForRead(); err != nil {
		return err
	}
	return s.eofInside(s.expect(']'), ']')
}

func (s *Stream) readUncounted(elem func() error) error {
	for {
		if err := s.skipForRead(); err != nil {
			return err
		}
		c, err := s.peek()
		if err != nil {
			return s.eofInside(err, ']')
		}
		if c == ']' {
			s.get()
			return nil
		}
		if err := elem(); err != nil {
			return s.eofInside(err, ']')
		}
	}
}

// WriteSeq writes xs with the framing of the output mode, using write for
// each element: bare in raw modes, [ a, b ] in pretty_ascii and N[ a b ] in
// the plearn modes.
func WriteSeq[T any](s *Stream, xs []T, write func(*Stream, T) error) error {
	return s.writeSeqFrame(len(xs), func(i int) error {
		return write(s, xs[i])
	})
}

// ReadSeq reads a sequence into dst, reusing its storage. In the raw modes
// exactly len(dst) elements are read; the other modes take the length from
// the input.
func ReadSeq[T any](s *Stream, dst []T, read func(*Stream, *T) error) ([]T, error) {
	if s.inMode == RawASCII || s.inMode == RawBinary {
		for i := range dst {
			if err := read(s, &dst[i]); err != nil {
				return dst[:i], err
			}
		}
		return dst, nil
	}
	dst = dst[:0]
	err := s.readSeqFrame(func(n int) {
		dst = slices.Grow(dst, n)
	}, func() error {
		var v T
		if err := read(s, &v); err != nil {
			return err
		}
		dst = append(dst, v)
		return nil
	})
	return dst, err
}

// WriteNumbers writes a numeric sequence. plearn_binary packs it behind a
// sequence header as elements of the input type, narrowing float64 to
// float32 when float compression is on; raw_binary writes the packed
// elements alone.
func WriteNumbers[T typecode.Number](s *Stream, xs []T) error {
	k := typecode.KindOf[T]()
	switch s.outMode {
	case RawBinary:
		return s.writePacked(typecode.Encode(s.scratch[:0], k, s.order, xs))
	case PlearnBinary:
		if uint64(len(xs)) > math.MaxUint32 {
			return s.formatError(ErrRange, "sequence of %d elements", len(xs))
		}
		if s.compression == CompressFloat && k == typecode.Float64 {
			k = typecode.Float32
		}
		buf := append(s.scratch[:0], typecode.SeqTag(s.order), typecode.Tag(k, s.order), 0, 0, 0, 0)
		s.order.PutUint32(buf[2:], uint32(len(xs)))
		return s.writePacked(typecode.Encode(buf, k, s.order, xs))
	default:
		return WriteSeq(s, xs, writeNumber[T])
	}
}

func (s *Stream) writePacked(buf []byte) error {
	if cap(buf) <= maxPrealloc {
		s.scratch = buf[:0]
	}
	return s.write(buf)
}

// ReadNumbers reads a numeric sequence into dst, reusing its storage. The
// plearn modes accept a packed binary sequence of any element kind as well
// as framed ascii or tagged elements; values are converted to T.
func ReadNumbers[T typecode.Number](s *Stream, dst []T) ([]T, error) {
	k := typecode.KindOf[T]()
	switch s.inMode {
	case RawBinary:
		buf, err := s.readFull(len(dst)*k.Size(), "numeric sequence")
		if err != nil {
			return dst[:0], err
		}
		typecode.Decode(dst, buf, k, s.order)
		return dst, nil
	case PlearnASCII, PlearnBinary:
		if err := s.skipForRead(); err != nil {
			return dst[:0], err
		}
		c, err := s.peek()
		if err != nil {
			return dst[:0], err
		}
		if order, ok := typecode.LookupSeq(c); ok {
			s.get()
			kind, err := s.readElemTag()
			if err != nil {
				return dst[:0], err
			}
			return readPackedBody(s, dst, kind, order)
		}
	}
	return ReadSeq(s, dst, readNumberInto[T])
}

func readNumberInto[T typecode.Number](s *Stream, p *T) error {
	v, err := readNumber[T](s)
	*p = v
	return err
}

// readElemTag reads the element typecode after a sequence header.
func (s *Stream) readElemTag() (typecode.Kind, error) {
	tag, err := s.mustGet("sequence element typecode")
	if err != nil {
		return typecode.Invalid, err
	}
	kind, _, ok := typecode.Lookup(tag)
	if !ok {
		return typecode.Invalid, s.formatError(ErrUnknownTypecode, "unknown sequence element typecode 0x%02X", tag)
	}
	return kind, nil
}

// readPackedBody reads the count and elements of a packed sequence whose
// header and element typecode were written in order.
func readPackedBody[T typecode.Number](s *Stream, dst []T, kind typecode.Kind, order binary.ByteOrder) ([]T, error) {
	swap := !typecode.SameOrder(order, s.order)
	buf, err := s.readFull(4, "sequence length")
	if err != nil {
		return dst[:0], err
	}
	if swap {
		typecode.Swap(buf, 4)
	}
	n := int(s.order.Uint32(buf))

	// The count is untrusted: grow dst as data actually arrives.
	size := kind.Size()
	dst = dst[:0]
	for n > 0 {
		m := min(n, maxPrealloc/size)
		data, err := s.readFull(m*size, "packed sequence")
		if err != nil {
			return dst, err
		}
		if swap {
			typecode.Swap(data, size)
		}
		off := len(dst)
		dst = slices.Grow(dst, m)[:off+m]
		typecode.Decode(dst[off:], data, kind, s.order)
		n -= m
	}
	return dst, nil
}
