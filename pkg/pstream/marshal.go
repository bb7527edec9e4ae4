package pstream

import (
	"bytes"

	"github.com/plearn/pstream/pkg/bytechan"
)

// Marshal encodes v in mode.
func Marshal(v any, mode Mode, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	s := NewStream(bytechan.NewWriter(&buf), append(opts, WithOutputMode(mode))...)
	if err := s.Write(v); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data, encoded in mode, into the variable v points to.
func Unmarshal(data []byte, mode Mode, v any, opts ...Option) error {
	s := NewStream(bytechan.NewBytes(data), append(opts, WithInputMode(mode))...)
	defer s.Close()
	return s.Read(v)
}
