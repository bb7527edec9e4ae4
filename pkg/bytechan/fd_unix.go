//go:build unix

package bytechan

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// fd is a raw file descriptor backend.
type fd int

func (d fd) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(int(d), p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 && len(p) > 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

func (d fd) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(int(d), p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func (d fd) Close() error {
	return unix.Close(int(d))
}

// NewFD creates a channel over raw descriptors. Pass -1 for a missing
// direction. in and out may be the same descriptor. When owned is true the
// descriptors are closed with the channel, once each.
func NewFD(in, out int, owned bool, opts ...Option) *Channel {
	var (
		src     io.Reader
		dst     io.Writer
		closers []io.Closer
	)
	if in >= 0 {
		src = fd(in)
		closers = append(closers, fd(in))
	}
	if out >= 0 {
		dst = fd(out)
		closers = append(closers, fd(out))
	}
	base := []Option{Name(fmt.Sprintf("fd(%d,%d)", in, out))}
	if owned {
		base = append(base, Owns(closers...))
	}
	return New(src, dst, append(base, opts...)...)
}
