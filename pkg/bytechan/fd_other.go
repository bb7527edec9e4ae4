//go:build !unix

package bytechan

import (
	"fmt"
	"io"
	"os"
)

// NewFD creates a channel over raw descriptors. Pass -1 for a missing
// direction. in and out may be the same descriptor. When owned is true the
// descriptors are closed with the channel, once each.
func NewFD(in, out int, owned bool, opts ...Option) *Channel {
	var (
		src     io.Reader
		dst     io.Writer
		closers []io.Closer
		inFile  *os.File
	)
	if in >= 0 {
		inFile = os.NewFile(uintptr(in), fmt.Sprintf("fd%d", in))
		src = inFile
		closers = append(closers, inFile)
	}
	if out >= 0 {
		outFile := inFile
		if in != out {
			outFile = os.NewFile(uintptr(out), fmt.Sprintf("fd%d", out))
		}
		dst = outFile
		closers = append(closers, outFile)
	}
	base := []Option{Name(fmt.Sprintf("fd(%d,%d)", in, out))}
	if owned {
		base = append(base, Owns(closers...))
	}
	return New(src, dst, append(base, opts...)...)
}
