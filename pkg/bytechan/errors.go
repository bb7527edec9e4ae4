package bytechan

import "errors"

// Sentinel errors
var (
	// ErrUngetTwice indicates UnreadByte was called without a preceding ReadByte.
	ErrUngetTwice = errors.New("bytechan: unget called twice without an intervening get")

	// ErrBufferBound indicates a pushback exceeded the space in front of the read cursor.
	ErrBufferBound = errors.New("bytechan: buffer bound reached, increase the unget reserve")

	// ErrShortWrite indicates the sink accepted fewer bytes than it was given.
	ErrShortWrite = errors.New("bytechan: short write")

	// ErrClosed indicates use of a channel after its last Close.
	ErrClosed = errors.New("bytechan: channel closed")

	// ErrNotReadable indicates a read on a channel without a source.
	ErrNotReadable = errors.New("bytechan: channel has no input source")

	// ErrNotWritable indicates a write on a channel without a sink.
	ErrNotWritable = errors.New("bytechan: channel has no output sink")
)
