// Package pstream reads and writes values over a bytechan.Channel in one of
// five wire modes.
//
// The raw modes carry no framing: raw_ascii writes space separated tokens and
// raw_binary writes the in-memory layout, so readers must know every length
// in advance. pretty_ascii is meant for people and frames sequences as
// [ a, b ]. The two plearn modes are self-describing:
//
//	3[ 1 2 3 ]            counted sequence
//	[ 1 2 3 ]             uncounted sequence
//	{ "a": 1, "b": 2 }    map
//	(1, 2)                pair
//	Node( name = "x"; )   object
//	*1-> Node( ... )      first occurrence of a shared object
//	*1                    back-reference
//	*0                    nil
//
// plearn_binary uses the same framing but encodes each number as a one byte
// typecode followed by its bytes, and numeric sequences as a sequence header,
// an element typecode, a 4-byte count and the packed elements (see package
// typecode). Readers in either plearn mode accept both encodings.
//
// A Stream keeps the identity tables of the pointer graph codec between
// calls; ResetReferences starts a new document.
package pstream
