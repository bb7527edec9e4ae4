package bytechan

import (
	"bytes"
	"io"
	"strings"
)

// NewString creates a read-only channel over s.
func NewString(s string, opts ...Option) *Channel {
	return New(strings.NewReader(s), nil, append([]Option{Name("<string>")}, opts...)...)
}

// NewBytes creates a read-only channel over b. The slice is not copied.
func NewBytes(b []byte, opts ...Option) *Channel {
	return New(bytes.NewReader(b), nil, append([]Option{Name("<bytes>")}, opts...)...)
}

// NewBuffer creates a duplex channel over buf: output is appended to buf on
// flush and input is consumed from its front. Reaching the end of buf is not
// final: bytes flushed afterwards are read normally.
func NewBuffer(buf *bytes.Buffer, opts ...Option) *Channel {
	return New(buf, buf, append([]Option{Name("<buffer>"), sharedBuffer()}, opts...)...)
}

// NewReader creates a read-only channel over r. r is not closed.
func NewReader(r io.Reader, opts ...Option) *Channel {
	return New(r, nil, opts...)
}

// NewWriter creates a write-only channel over w.
func NewWriter(w io.Writer, opts ...Option) *Channel {
	return New(nil, w, opts...)
}

type nullDevice struct{}

func (nullDevice) Read([]byte) (int, error)    { return 0, io.EOF }
func (nullDevice) Write(p []byte) (int, error) { return len(p), nil }

// Null returns a channel that is always at end of stream and discards output.
func Null(opts ...Option) *Channel {
	return New(nullDevice{}, nullDevice{}, append([]Option{Name("<null>")}, opts...)...)
}
