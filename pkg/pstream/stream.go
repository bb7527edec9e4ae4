package pstream

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/plearn/pstream/pkg/bytechan"
	"github.com/plearn/pstream/pkg/typecode"
)

// Stream formats values over a channel. Input and output modes are
// independent and may change between values.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	ch           *bytechan.Channel
	inMode       Mode
	outMode      Mode
	floatFormat  string
	doubleFormat string
	compression  Compression
	order        binary.ByteOrder
	logger       *slog.Logger

	outRefs map[any]int
	inRefs  map[int]any

	// Inside pretty_ascii sequences the blank after a token is held back so
	// that a following comma can replace it.
	seqDepth int
	held     bool

	scratch []byte
}

// NewStream wraps ch. The stream takes over one holder of ch: Close releases
// it. To share a channel between streams pass ch.Retain().
//
// Both modes default to plearn_ascii.
func NewStream(ch *bytechan.Channel, opts ...Option) *Stream {
	cfg := &config{
		inMode:  PlearnASCII,
		outMode: PlearnASCII,
		order:   typecode.Native,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	order := cfg.order
	if order == nil {
		order = typecode.Native
	}
	return &Stream{
		ch:           ch,
		inMode:       cfg.inMode,
		outMode:      cfg.outMode,
		floatFormat:  cfg.floatFormat,
		doubleFormat: cfg.doubleFormat,
		compression:  cfg.compression,
		order:        order,
		logger:       logger,
		outRefs:      make(map[any]int),
		inRefs:       make(map[int]any),
		scratch:      make([]byte, 0, 64),
	}
}

// Channel returns the underlying channel.
func (s *Stream) Channel() *bytechan.Channel {
	return s.ch
}

// InputMode returns the current read mode.
func (s *Stream) InputMode() Mode {
	return s.inMode
}

// OutputMode returns the current write mode.
func (s *Stream) OutputMode() Mode {
	return s.outMode
}

// SetInputMode switches the read mode. It takes effect at the next read.
func (s *Stream) SetInputMode(m Mode) {
	if m != s.inMode {
		s.logger.Debug("input mode changed", "channel", s.ch.Name(), "from", s.inMode, "to", m)
	}
	s.inMode = m
}

// SetOutputMode switches the write mode. It takes effect at the next write.
func (s *Stream) SetOutputMode(m Mode) {
	if m != s.outMode {
		s.logger.Debug("output mode changed", "channel", s.ch.Name(), "from", s.outMode, "to", m)
	}
	s.outMode = m
}

// ByteOrder returns the order binary values are written in.
func (s *Stream) ByteOrder() binary.ByteOrder {
	return s.order
}

// ResetReferences forgets every object seen or defined so far. The next
// shared object written is numbered 1 again.
func (s *Stream) ResetReferences() {
	s.logger.Debug("references reset", "channel", s.ch.Name(), "written", len(s.outRefs), "read", len(s.inRefs))
	clear(s.outRefs)
	clear(s.inRefs)
}

// Flush writes buffered output to the sink.
func (s *Stream) Flush() error {
	return s.ch.Flush()
}

// Close releases the stream's holder of the channel.
func (s *Stream) Close() error {
	return s.ch.Close()
}

// get consumes one byte; io.EOF is returned unchanged.
func (s *Stream) get() (byte, error) {
	return s.ch.ReadByte()
}

// mustGet consumes one byte that is required to complete the current value.
func (s *Stream) mustGet(what string) (byte, error) {
	c, err := s.ch.ReadByte()
	if err == io.EOF {
		return 0, s.formatError(io.ErrUnexpectedEOF, "unexpected end of input in %s", what)
	}
	return c, err
}

func (s *Stream) peek() (byte, error) {
	return s.ch.Peek()
}

// expect consumes one byte and fails unless it is want.
func (s *Stream) expect(want byte) error {
	c, err := s.mustGet("expecting " + describe(want))
	if err != nil {
		return err
	}
	if c != want {
		return s.formatError(nil, "expected %s, got %s", describe(want), describe(c))
	}
	return nil
}

// expectWord consumes the bytes of word exactly.
func (s *Stream) expectWord(word string) error {
	return s.matchWord(word, false)
}

// expectFold is expectWord ignoring ascii case.
func (s *Stream) expectFold(word string) error {
	return s.matchWord(word, true)
}

func (s *Stream) matchWord(word string, fold bool) error {
	for i := 0; i < len(word); i++ {
		c, err := s.mustGet("expecting " + strconv.Quote(word))
		if err != nil {
			return err
		}
		want := word[i]
		if fold {
			c, want = lower(c), lower(want)
		}
		if c != want {
			return s.formatError(nil, "expected %q, got %s", word, describe(c))
		}
	}
	return nil
}

// readFull reads exactly n bytes. Small reads reuse the scratch buffer, so
// the result is only valid until the next call. Larger reads grow a fresh
// buffer one maxPrealloc chunk at a time as the input arrives.
func (s *Stream) readFull(n int, what string) ([]byte, error) {
	if n <= maxPrealloc {
		if n > cap(s.scratch) {
			s.scratch = make([]byte, n)
		}
		buf := s.scratch[:n]
		if _, err := io.ReadFull(s.ch, buf); err != nil {
			return nil, s.truncated(err, what)
		}
		return buf, nil
	}
	var buf []byte
	for len(buf) < n {
		off := len(buf)
		m := min(n-off, maxPrealloc)
		buf = slices.Grow(buf, m)[:off+m]
		if _, err := io.ReadFull(s.ch, buf[off:]); err != nil {
			return nil, s.truncated(err, what)
		}
	}
	return buf, nil
}

func (s *Stream) truncated(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return s.formatError(io.ErrUnexpectedEOF, "unexpected end of input in %s", what)
	}
	return err
}

func (s *Stream) write(p []byte) error {
	if err := s.release(); err != nil {
		return err
	}
	_, err := s.ch.Write(p)
	return err
}

func (s *Stream) writeString(str string) error {
	if err := s.release(); err != nil {
		return err
	}
	_, err := s.ch.WriteString(str)
	return err
}

func (s *Stream) writeByte(c byte) error {
	if err := s.release(); err != nil {
		return err
	}
	return s.ch.WriteByte(c)
}

// WriteRaw writes text verbatim regardless of the output mode.
func (s *Stream) WriteRaw(text string) error {
	return s.writeString(text)
}

// sep writes the token separator of ascii modes.
func (s *Stream) sep() error {
	if !s.outMode.isASCII() {
		return nil
	}
	if s.seqDepth > 0 {
		s.held = true
		return nil
	}
	return s.ch.WriteByte(' ')
}

// release writes a held separator.
func (s *Stream) release() error {
	if !s.held {
		return nil
	}
	s.held = false
	return s.ch.WriteByte(' ')
}

// eofInside converts io.EOF met inside a bracketed group.
func (s *Stream) eofInside(err error, closer byte) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return s.formatError(ErrUnmatchedBracket, "end of input before %s", describe(closer))
	}
	return err
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
