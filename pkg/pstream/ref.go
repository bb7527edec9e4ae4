package pstream

import (
	"reflect"
	"strconv"
)

// WriteRef writes the reference framing for pointer p. The first time p is
// seen it is assigned the next id, *id-> is written and body writes the
// pointee; later occurrences write *id only. A nil p writes *0.
//
// Ids persist until ResetReferences.
func (s *Stream) WriteRef(p any, body func() error) error {
	if isNil(p) {
		return s.writeString("*0 ")
	}
	if id, ok := s.outRefs[p]; ok {
		return s.writeString("*" + strconv.Itoa(id) + " ")
	}
	id := len(s.outRefs) + 1
	s.outRefs[p] = id
	s.logger.Debug("object defined", "id", id, "type", reflect.TypeOf(p).String())
	if err := s.writeString("*" + strconv.Itoa(id) + "-> "); err != nil {
		return err
	}
	return body()
}

func isNil(p any) bool {
	if p == nil {
		return true
	}
	rv := reflect.ValueOf(p)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// readRef reads *0, *id or *id-> followed by a definition. For a
// definition, alloc creates the object, which is registered under id before
// fill reads its contents, so the contents may refer back to it.
func (s *Stream) readRef(alloc func() any, fill func(any) error) (any, error) {
	if err := s.skipForRead(); err != nil {
		return nil, err
	}
	if err := s.expect('*'); err != nil {
		return nil, err
	}
	n, err := s.readUintASCII(31)
	if err != nil {
		return nil, err
	}
	id := int(n)
	define := false
	if c, err := s.peek(); err == nil && c == '-' {
		s.get()
		if err := s.expect('>'); err != nil {
			return nil, err
		}
		define = true
	}
	if c, err := s.peek(); err == nil && c == ' ' {
		s.get()
	}

	switch {
	case id == 0 && define:
		return nil, s.formatError(nil, "object id 0 cannot be defined")
	case id == 0:
		return nil, nil
	case define:
		p := alloc()
		s.inRefs[id] = p
		return p, fill(p)
	}
	p, ok := s.inRefs[id]
	if !ok {
		return nil, s.formatError(ErrUndefinedReference, "reference to undefined object *%d", id)
	}
	return p, nil
}

// WritePtr writes p with the reference framing, using write for the pointee
// on its first occurrence.
func WritePtr[T any](s *Stream, p *T, write func(*Stream, *T) error) error {
	if p == nil {
		return s.WriteRef(nil, nil)
	}
	return s.WriteRef(p, func() error {
		return write(s, p)
	})
}

// ReadPtr reads a pointer written by WritePtr. A definition allocates a new
// T and fills it with read; a back-reference returns the object defined
// earlier with the same id.
func ReadPtr[T any](s *Stream, read func(*Stream, *T) error) (*T, error) {
	v, err := s.readRef(func() any {
		return new(T)
	}, func(p any) error {
		return read(s, p.(*T))
	})
	if err != nil || v == nil {
		return nil, err
	}
	p, ok := v.(*T)
	if !ok {
		return nil, s.formatError(ErrUnsupportedType, "object is a %T, not a %T", v, p)
	}
	return p, nil
}
