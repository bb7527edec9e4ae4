package vecfile

import (
	"errors"
	"fmt"

	"github.com/plearn/pstream/pkg/bytechan"
	"github.com/plearn/pstream/pkg/pstream"
	"github.com/plearn/pstream/pkg/typecode"
)

// Load reads a matrix file. Compressed files ending in .gz or .zst are
// decompressed on the fly.
func Load(path string, opts ...bytechan.Option) (*Matrix, error) {
	ch, err := bytechan.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	m, err := Read(ch)
	if cerr := ch.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Save writes m to path, compressing by suffix as Load does.
func Save(path string, m *Matrix, opts ...bytechan.Option) error {
	ch, err := bytechan.Create(path, opts...)
	if err != nil {
		return err
	}
	return errors.Join(Write(ch, m), ch.Close())
}

// MarshalPStream writes m as Matrix( rows = r ; cols = c ; data = n[ ... ] ; ).
func (m *Matrix) MarshalPStream(s *pstream.Stream) error {
	if err := s.BeginObject("Matrix"); err != nil {
		return err
	}
	if err := s.WriteField("rows", m.Rows); err != nil {
		return err
	}
	if err := s.WriteField("cols", m.Cols); err != nil {
		return err
	}
	if err := s.WriteField("data", m.Data); err != nil {
		return err
	}
	return s.EndObject()
}

// UnmarshalPStream reads what MarshalPStream wrote. The result is stored as
// native doubles.
func (m *Matrix) UnmarshalPStream(s *pstream.Stream) error {
	if _, err := s.ReadObjectHeader("Matrix"); err != nil {
		return err
	}
	m.Header = Header{Elem: typecode.Float64, Order: typecode.Native}
	for {
		name, ok, err := s.NextField()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		switch name {
		case "rows":
			err = s.Read(&m.Rows)
		case "cols":
			err = s.Read(&m.Cols)
		case "data":
			err = s.Read(&m.Data)
		default:
			err = s.SkipValue()
		}
		if err != nil {
			return err
		}
	}
	if len(m.Data) != m.Len() {
		return fmt.Errorf("vecfile: %d elements for a %dx%d matrix", len(m.Data), m.Rows, m.Cols)
	}
	return nil
}
