package pstream

import (
	"cmp"
	"maps"
	"slices"
)

// writeMapFrame writes { k: v, ... } with n entries. Maps are framed in
// every mode.
func (s *Stream) writeMapFrame(n int, key, val func(i int) error) error {
	if err := s.punct("{"); err != nil {
		return err
	}
	for i := range n {
		if i > 0 {
			if err := s.punct(","); err != nil {
				return err
			}
		}
		if err := key(i); err != nil {
			return err
		}
		if err := s.punct(":"); err != nil {
			return err
		}
		if err := val(i); err != nil {
			return err
		}
	}
	return s.punct("}")
}

// readMapFrame reads { k: v, ... }, calling entry once per pair. entry must
// read the key, then call colon, then read the value.
func (s *Stream) readMapFrame(entry func(colon func() error) error) error {
	if err := s.skipForRead(); err != nil {
		return err
	}
	if err := s.expect('{'); err != nil {
		return err
	}
	colon := func() error {
		if err := s.skipForRead(); err != nil {
			return err
		}
		return s.expect(':')
	}
	for {
		if err := s.skipForRead(); err != nil {
			return err
		}
		c, err := s.peek()
		if err != nil {
			return s.eofInside(err, '}')
		}
		switch c {
		case '}':
			s.get()
			return nil
		case ',':
			s.get()
			continue
		}
		if err := entry(colon); err != nil {
			return s.eofInside(err, '}')
		}
	}
}

// WriteMap writes m with keys in ascending order.
func WriteMap[K cmp.Ordered, V any](s *Stream, m map[K]V, writeKey func(*Stream, K) error, writeVal func(*Stream, V) error) error {
	keys := slices.Sorted(maps.Keys(m))
	return s.writeMapFrame(len(keys), func(i int) error {
		return writeKey(s, keys[i])
	}, func(i int) error {
		return writeVal(s, m[keys[i]])
	})
}

// ReadMap reads entries into m, allocating it if nil. Existing entries with
// other keys are kept.
func ReadMap[K comparable, V any](s *Stream, m map[K]V, readKey func(*Stream, *K) error, readVal func(*Stream, *V) error) (map[K]V, error) {
	if m == nil {
		m = make(map[K]V)
	}
	err := s.readMapFrame(func(colon func() error) error {
		var k K
		var v V
		if err := readKey(s, &k); err != nil {
			return err
		}
		if err := colon(); err != nil {
			return err
		}
		if err := readVal(s, &v); err != nil {
			return err
		}
		m[k] = v
		return nil
	})
	return m, err
}

// Pair is an ordered couple, written (a, b).
type Pair[A, B any] struct {
	First  A
	Second B
}

// MarshalPStream writes p with the reflection codec for both halves.
func (p Pair[A, B]) MarshalPStream(s *Stream) error {
	return WritePair(s, p, writeAny[A], writeAny[B])
}

// UnmarshalPStream reads p with the reflection codec for both halves.
func (p *Pair[A, B]) UnmarshalPStream(s *Stream) error {
	v, err := ReadPair(s, readAny[A], readAny[B])
	*p = v
	return err
}

func writeAny[T any](s *Stream, v T) error {
	return s.Write(v)
}

func readAny[T any](s *Stream, p *T) error {
	return s.Read(p)
}

func (s *Stream) writePairFrame(first, second func() error) error {
	if err := s.punct("("); err != nil {
		return err
	}
	if err := first(); err != nil {
		return err
	}
	if err := s.punct(","); err != nil {
		return err
	}
	if err := second(); err != nil {
		return err
	}
	return s.punct(")")
}

// readPairFrame reads (a, b). When legacy is set, the older a: b form
// without parentheses is accepted too.
func (s *Stream) readPairFrame(legacy bool, first, second func() error) error {
	if err := s.skipForRead(); err != nil {
		return err
	}
	c, err := s.peek()
	if err != nil {
		return err
	}
	if c != '(' {
		if !legacy {
			return s.formatError(nil, "expected '(', got %s", describe(c))
		}
		if err := first(); err != nil {
			return err
		}
		if err := s.skipForRead(); err != nil {
			return err
		}
		if err := s.expect(':'); err != nil {
			return err
		}
		return second()
	}
	s.get()
	if err := first(); err != nil {
		return s.eofInside(err, ')')
	}
	if err := s.skipForRead(); err != nil {
		return err
	}
	if c, err := s.peek(); err == nil && c == ',' {
		s.get()
	}
	if err := second(); err != nil {
		return s.eofInside(err, ')')
	}
	if err := s.skipForRead(); err != nil {
		return err
	}
	return s.eofInside(s.expect(')'), ')')
}

// WritePair writes p as (a, b).
func WritePair[A, B any](s *Stream, p Pair[A, B], writeFirst func(*Stream, A) error, writeSecond func(*Stream, B) error) error {
	return s.writePairFrame(func() error {
		return writeFirst(s, p.First)
	}, func() error {
		return writeSecond(s, p.Second)
	})
}

// ReadPair reads (a, b) or the legacy a: b form.
func ReadPair[A, B any](s *Stream, readFirst func(*Stream, *A) error, readSecond func(*Stream, *B) error) (Pair[A, B], error) {
	var p Pair[A, B]
	err := s.readPairFrame(true, func() error {
		return readFirst(s, &p.First)
	}, func() error {
		return readSecond(s, &p.Second)
	})
	return p, err
}
