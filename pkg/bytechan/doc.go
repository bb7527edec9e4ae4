// Package bytechan implements buffered byte channels over heterogeneous
// sources and sinks.
//
// A Channel wraps at most one raw source (an io.Reader) and at most one raw
// sink (an io.Writer). The two may be the same object for duplex use, such as
// a socket or a file opened read-write. Backends only provide unbuffered
// reads and writes; buffering, single byte pushback and flushing all live in
// Channel.
//
// # Input buffer
//
// The input buffer reserves a fixed region in front of the read cursor so
// that bytes can be pushed back without reallocating:
//
//	ch.ReadByte()      // consume
//	ch.UnreadByte()    // exactly one step back
//	ch.Putback('x')    // any byte, bounded by the reserve
//	ch.Unread(p)       // several bytes, bounded by the reserve
//
// When the buffer is refilled, the tail of already consumed input is kept in
// the reserve so that UnreadByte stays valid across refills.
//
// # Ownership
//
// Resources passed to Owns are closed exactly once when the last holder of
// the channel calls Close, after pending output is flushed. A resource that
// serves as both source and sink is closed once. Retain increments the holder
// count so several format streams can share one channel.
//
// # Errors
//
// Read and write errors of the backend are returned wrapped and are sticky;
// the channel does not retry. Misuse of the pushback protocol returns
// ErrUngetTwice or ErrBufferBound.
package bytechan
