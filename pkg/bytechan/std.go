package bytechan

import (
	"errors"
	"os"
)

// Std holds channels over the process standard streams. Build it once
// during startup and pass it to the components that need it; the
// underlying files are never closed by these channels.
type Std struct {
	In  *Channel
	Out *Channel
	Err *Channel
}

// NewStd wraps os.Stdin, os.Stdout and os.Stderr.
func NewStd(opts ...Option) *Std {
	return &Std{
		In:  New(os.Stdin, nil, append([]Option{Name("<stdin>")}, opts...)...),
		Out: New(nil, os.Stdout, append([]Option{Name("<stdout>")}, opts...)...),
		Err: New(nil, os.Stderr, append([]Option{Name("<stderr>"), OutputSize(1)}, opts...)...),
	}
}

// Flush flushes stdout and stderr.
func (s *Std) Flush() error {
	return errors.Join(s.Out.Flush(), s.Err.Flush())
}
