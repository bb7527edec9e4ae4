package bytechan

import (
	"io"
	"log/slog"
)

const (
	// DefaultChunkSize is the number of bytes requested from a source per refill.
	DefaultChunkSize = 4096

	// DefaultUngetReserve is the pushback capacity in front of the read cursor.
	DefaultUngetReserve = 100

	// DefaultOutputSize is the output buffer size.
	DefaultOutputSize = 4096
)

// config holds channel configuration.
type config struct {
	name       string
	chunkSize  int
	reserve    int
	outputSize int
	closers    []io.Closer
	logger     *slog.Logger
	duplex     bool
}

func defaultConfig() *config {
	return &config{
		chunkSize:  DefaultChunkSize,
		reserve:    DefaultUngetReserve,
		outputSize: DefaultOutputSize,
	}
}

// Option configures a Channel.
type Option func(*config)

// Name sets the name reported in errors and log records.
func Name(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// ChunkSize sets how many bytes a refill requests from the source.
// Reads of at least this many bytes bypass the input buffer.
func ChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// UngetReserve sets how many bytes can be pushed back in front of a freshly
// refilled read cursor.
func UngetReserve(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.reserve = n
		}
	}
}

// OutputSize sets the output buffer size. Writes at least this large go
// straight to the sink.
func OutputSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.outputSize = n
		}
	}
}

// Owns hands resources to the channel. They are closed, in order, when the
// last holder closes the channel.
func Owns(closers ...io.Closer) Option {
	return func(c *config) {
		c.closers = append(c.closers, closers...)
	}
}

// WithLogger sets the logger for open/close debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// sharedBuffer marks a channel whose sink feeds its own source, so input
// written after end of stream becomes readable again.
func sharedBuffer() Option {
	return func(c *config) {
		c.duplex = true
	}
}
