package bytechan

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Channel is a buffered byte source and/or sink.
//
// A Channel is not safe for concurrent use.
type Channel struct {
	name   string
	src    io.Reader
	dst    io.Writer
	logger *slog.Logger

	// in holds reserve bytes of pushback room followed by one chunk.
	// Unread input is in[pos:end].
	in      []byte
	reserve int
	pos     int
	end     int
	ungetOK bool
	eof     bool
	duplex  bool
	rerr    error
	off     int64

	out  []byte
	werr error

	closers []io.Closer
	refs    int
	closed  bool
}

var (
	_ io.ReadWriteCloser = (*Channel)(nil)
	_ io.ByteScanner     = (*Channel)(nil)
	_ io.ByteWriter      = (*Channel)(nil)
	_ io.StringWriter    = (*Channel)(nil)
)

// New creates a channel reading from src and writing to dst. Either may be
// nil. Resources are only closed if passed through Owns.
func New(src io.Reader, dst io.Writer, opts ...Option) *Channel {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	name := cfg.name
	if name == "" {
		name = "<channel>"
	}

	c := &Channel{
		name:    name,
		src:     src,
		dst:     dst,
		logger:  logger,
		reserve: cfg.reserve,
		duplex:  cfg.duplex,
		closers: cfg.closers,
		refs:    1,
	}
	if src != nil {
		c.in = make([]byte, cfg.reserve+cfg.chunkSize)
		c.pos, c.end = cfg.reserve, cfg.reserve
	}
	if dst != nil {
		c.out = make([]byte, 0, cfg.outputSize)
	}
	logger.Debug("channel opened", "name", name, "readable", src != nil, "writable", dst != nil)
	return c
}

// Name returns the name given at construction.
func (c *Channel) Name() string {
	return c.name
}

// Offset returns the number of input bytes consumed, net of pushback.
func (c *Channel) Offset() int64 {
	return c.off
}

// Readable reports whether the channel has a source.
func (c *Channel) Readable() bool {
	return c.src != nil
}

// Writable reports whether the channel has a sink.
func (c *Channel) Writable() bool {
	return c.dst != nil
}

// Good reports whether input has not reached end of stream (if readable) and
// the sink has not failed (if writable).
func (c *Channel) Good() bool {
	if c.closed {
		return false
	}
	if c.src != nil && (c.rerr != nil || (c.eof && c.pos == c.end)) {
		return false
	}
	if c.dst != nil && c.werr != nil {
		return false
	}
	return true
}

// Retain registers another holder of c and returns c. Each holder must call
// Close; the resources are released by the last one.
func (c *Channel) Retain() *Channel {
	c.refs++
	return c
}

// readRaw performs one unbuffered read from the source.
func (c *Channel) readRaw(p []byte) (int, error) {
	for {
		n, err := c.src.Read(p)
		if err == io.EOF {
			c.eof = true
			return n, nil
		}
		if err != nil {
			c.rerr = fmt.Errorf("bytechan: read %s: %w", c.name, err)
			return n, c.rerr
		}
		if n > 0 || len(p) == 0 {
			return n, nil
		}
	}
}

// refill reads the next chunk, keeping up to reserve consumed bytes in front
// of the cursor.
func (c *Channel) refill() error {
	if c.eof {
		return nil
	}
	keep := min(c.pos, c.reserve)
	copy(c.in[c.reserve-keep:c.reserve], c.in[c.pos-keep:c.pos])
	c.pos, c.end = c.reserve, c.reserve
	n, err := c.readRaw(c.in[c.reserve:])
	c.end += n
	return err
}

func (c *Channel) checkRead() error {
	if c.closed {
		return ErrClosed
	}
	if c.src == nil {
		return ErrNotReadable
	}
	return c.rerr
}

// Read reads up to len(p) bytes. It only returns fewer at end of stream or
// on a source error, and returns io.EOF when no byte was available.
// Requests of at least one chunk bypass the buffer once it is drained.
func (c *Channel) Read(p []byte) (int, error) {
	if err := c.checkRead(); err != nil {
		return 0, err
	}
	n := copy(p, c.in[c.pos:c.end])
	c.pos += n
	chunk := len(c.in) - c.reserve

	for n < len(p) && !c.eof {
		if len(p)-n >= chunk {
			m, err := c.readRaw(p[n:])
			n += m
			if err != nil {
				break
			}
			continue
		}
		if err := c.refill(); err != nil {
			break
		}
		m := copy(p[n:], c.in[c.pos:c.end])
		c.pos += m
		n += m
	}

	c.off += int64(n)
	c.ungetOK = false
	if n > 0 {
		return n, nil
	}
	if c.rerr != nil {
		return 0, c.rerr
	}
	return 0, io.EOF
}

// ReadByte consumes one byte. It returns io.EOF at end of stream.
func (c *Channel) ReadByte() (byte, error) {
	if err := c.checkRead(); err != nil {
		return 0, err
	}
	if c.pos == c.end {
		if err := c.refill(); err != nil {
			return 0, err
		}
		if c.pos == c.end {
			c.ungetOK = false
			return 0, io.EOF
		}
	}
	b := c.in[c.pos]
	c.pos++
	c.off++
	c.ungetOK = true
	return b, nil
}

// Peek returns the next byte without consuming it.
func (c *Channel) Peek() (byte, error) {
	if err := c.checkRead(); err != nil {
		return 0, err
	}
	if c.pos == c.end {
		if err := c.refill(); err != nil {
			return 0, err
		}
		if c.pos == c.end {
			return 0, io.EOF
		}
	}
	return c.in[c.pos], nil
}

// UnreadByte steps back over the byte returned by the last ReadByte.
// Calling it twice in a row returns ErrUngetTwice.
func (c *Channel) UnreadByte() error {
	if !c.ungetOK || c.pos == 0 {
		return ErrUngetTwice
	}
	c.pos--
	c.off--
	c.ungetOK = false
	return nil
}

// Putback pushes an arbitrary byte in front of the read cursor. The room
// available is the unget reserve plus the bytes already consumed from the
// current chunk; past that it returns ErrBufferBound.
func (c *Channel) Putback(b byte) error {
	if err := c.checkRead(); err != nil {
		return err
	}
	if c.pos == 0 {
		return ErrBufferBound
	}
	c.pos--
	c.in[c.pos] = b
	c.off--
	c.ungetOK = false
	return nil
}

// Unread pushes p back so that the next reads return p first. It shares the
// room of Putback.
func (c *Channel) Unread(p []byte) error {
	if err := c.checkRead(); err != nil {
		return err
	}
	if len(p) > c.pos {
		return ErrBufferBound
	}
	c.pos -= len(p)
	copy(c.in[c.pos:], p)
	c.off -= int64(len(p))
	c.ungetOK = false
	return nil
}

// Buffered returns the number of input bytes readable without touching the source.
func (c *Channel) Buffered() int {
	return c.end - c.pos
}

func (c *Channel) checkWrite() error {
	if c.closed {
		return ErrClosed
	}
	if c.dst == nil {
		return ErrNotWritable
	}
	return c.werr
}

// writeRaw hands p to the sink. A short write is an error.
func (c *Channel) writeRaw(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := c.dst.Write(p)
	if err != nil {
		c.werr = fmt.Errorf("bytechan: write %s: %w", c.name, err)
		return c.werr
	}
	if n < len(p) {
		c.werr = fmt.Errorf("bytechan: write %s: %w (%d of %d bytes)", c.name, ErrShortWrite, n, len(p))
		return c.werr
	}
	if c.duplex {
		c.eof = false
	}
	return nil
}

// Write buffers p. It either accepts all of p or returns an error.
func (c *Channel) Write(p []byte) (int, error) {
	if err := c.checkWrite(); err != nil {
		return 0, err
	}
	if len(c.out)+len(p) > cap(c.out) {
		if err := c.flushBuffer(); err != nil {
			return 0, err
		}
	}
	if len(p) >= cap(c.out) {
		if err := c.writeRaw(p); err != nil {
			return 0, err
		}
		return len(p), nil
	}
	c.out = append(c.out, p...)
	return len(p), nil
}

// WriteByte buffers one byte.
func (c *Channel) WriteByte(b byte) error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	if len(c.out) == cap(c.out) {
		if err := c.flushBuffer(); err != nil {
			return err
		}
	}
	c.out = append(c.out, b)
	return nil
}

// WriteString buffers s.
func (c *Channel) WriteString(s string) (int, error) {
	if err := c.checkWrite(); err != nil {
		return 0, err
	}
	if len(c.out)+len(s) > cap(c.out) {
		if err := c.flushBuffer(); err != nil {
			return 0, err
		}
	}
	if len(s) >= cap(c.out) {
		if err := c.writeRaw([]byte(s)); err != nil {
			return 0, err
		}
		return len(s), nil
	}
	c.out = append(c.out, s...)
	return len(s), nil
}

func (c *Channel) flushBuffer() error {
	err := c.writeRaw(c.out)
	c.out = c.out[:0]
	return err
}

// Flush writes buffered output to the sink, then flushes the sink itself if
// it buffers (compressors, bufio writers).
func (c *Channel) Flush() error {
	if err := c.checkWrite(); err != nil {
		return err
	}
	if err := c.flushBuffer(); err != nil {
		return err
	}
	if f, ok := c.dst.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			c.werr = fmt.Errorf("bytechan: flush %s: %w", c.name, err)
			return c.werr
		}
	}
	return nil
}

// Close releases one holder. The last holder flushes pending output and
// closes every owned resource exactly once.
func (c *Channel) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.refs--
	if c.refs > 0 {
		return nil
	}

	var errs []error
	if c.dst != nil && c.werr == nil {
		if err := c.flushBuffer(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closed = true

	var done []io.Closer
	for _, cl := range c.closers {
		if containsCloser(done, cl) {
			continue
		}
		done = append(done, cl)
		if err := cl.Close(); err != nil {
			errs = append(errs, fmt.Errorf("bytechan: close %s: %w", c.name, err))
		}
	}
	c.closers = nil
	c.logger.Debug("channel closed", "name", c.name, "offset", c.off)
	return errors.Join(errs...)
}

// containsCloser compares by identity; closers are pointers or small
// comparable values such as descriptors.
func containsCloser(list []io.Closer, cl io.Closer) bool {
	for _, d := range list {
		if d == cl {
			return true
		}
	}
	return false
}

// closerFunc adapts a cleanup function to io.Closer. It is used through a
// pointer so identity comparison in Close stays valid.
type closerFunc struct {
	fn func() error
}

func (c *closerFunc) Close() error {
	return c.fn()
}
