package pstream

import (
	"encoding/binary"
	"log/slog"
)

// config holds stream configuration.
type config struct {
	inMode       Mode
	outMode      Mode
	floatFormat  string
	doubleFormat string
	compression  Compression
	order        binary.ByteOrder
	logger       *slog.Logger
}

// Option configures a Stream.
type Option func(*config)

// WithMode sets both the input and the output mode.
func WithMode(m Mode) Option {
	return func(c *config) {
		c.inMode, c.outMode = m, m
	}
}

// WithInputMode sets the mode used by reads.
func WithInputMode(m Mode) Option {
	return func(c *config) {
		c.inMode = m
	}
}

// WithOutputMode sets the mode used by writes.
func WithOutputMode(m Mode) Option {
	return func(c *config) {
		c.outMode = m
	}
}

// WithFloatFormat sets a printf format for float32 values in ascii modes.
// The default writes the shortest text that reads back exactly.
func WithFloatFormat(format string) Option {
	return func(c *config) {
		c.floatFormat = format
	}
}

// WithDoubleFormat sets a printf format for float64 values in ascii modes.
// The default writes the shortest text that reads back exactly.
func WithDoubleFormat(format string) Option {
	return func(c *config) {
		c.doubleFormat = format
	}
}

// WithCompression sets how float64 sequences are stored in plearn_binary.
func WithCompression(comp Compression) Option {
	return func(c *config) {
		c.compression = comp
	}
}

// WithByteOrder overrides the platform byte order the stream writes in and
// compares typecodes against. Useful to emulate data produced on, or read
// by, a machine of the other endianness.
func WithByteOrder(order binary.ByteOrder) Option {
	return func(c *config) {
		c.order = order
	}
}

// WithLogger sets the logger for debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
