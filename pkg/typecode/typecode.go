// Package typecode defines the binary numeric codec shared by the plearn_binary
// wire format and the flat vector/matrix files.
//
// Every numeric primitive written in plearn_binary mode is preceded by a single
// control byte (the typecode) that names both the element kind and the byte
// order the value was written in. A reader compares that byte order with its
// own platform order and swaps bytes when they disagree.
//
// # Typecode table
//
//	kind      little  big
//	int8      0x01    0x01
//	uint8     0x02    0x02
//	int16     0x03    0x04
//	uint16    0x05    0x06
//	int32     0x07    0x08
//	uint32    0x0B    0x0C
//	float32   0x0E    0x0F
//	float64   0x10    0x11
//	int64     0x16    0x17
//	uint64    0x18    0x19
//
// Sequence headers (1-D, followed by an element typecode and a 4-byte count)
// use 0x12 (little endian) and 0x13 (big endian).
//
// The values 0x09, 0x0A and 0x0D are never assigned: they are blank characters
// and would be swallowed by the ascii blank skipper that precedes every read.
package typecode

import (
	"encoding/binary"
	"fmt"
)

// Kind identifies the in-memory or on-wire representation of a numeric element.
type Kind uint8

const (
	Invalid Kind = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

// Size returns the number of bytes one element of kind k occupies.
func (k Kind) Size() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// IsFloat reports whether k is a floating point kind.
func (k Kind) IsFloat() bool {
	return k == Float32 || k == Float64
}

// IsSigned reports whether k can hold negative values.
func (k Kind) IsSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64, Float32, Float64:
		return true
	}
	return false
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(k))
	}
}

// Typecodes for plearn_binary primitives.
const (
	TagInt8      byte = 0x01
	TagUint8     byte = 0x02
	TagInt16LE   byte = 0x03
	TagInt16BE   byte = 0x04
	TagUint16LE  byte = 0x05
	TagUint16BE  byte = 0x06
	TagInt32LE   byte = 0x07
	TagInt32BE   byte = 0x08
	TagUint32LE  byte = 0x0B
	TagUint32BE  byte = 0x0C
	TagFloat32LE byte = 0x0E
	TagFloat32BE byte = 0x0F
	TagFloat64LE byte = 0x10
	TagFloat64BE byte = 0x11
	TagSeqLE     byte = 0x12
	TagSeqBE     byte = 0x13
	TagInt64LE   byte = 0x16
	TagInt64BE   byte = 0x17
	TagUint64LE  byte = 0x18
	TagUint64BE  byte = 0x19
)

type tagPair struct {
	little, big byte
}

var tags = [...]tagPair{
	Int8:    {TagInt8, TagInt8},
	Uint8:   {TagUint8, TagUint8},
	Int16:   {TagInt16LE, TagInt16BE},
	Uint16:  {TagUint16LE, TagUint16BE},
	Int32:   {TagInt32LE, TagInt32BE},
	Uint32:  {TagUint32LE, TagUint32BE},
	Int64:   {TagInt64LE, TagInt64BE},
	Uint64:  {TagUint64LE, TagUint64BE},
	Float32: {TagFloat32LE, TagFloat32BE},
	Float64: {TagFloat64LE, TagFloat64BE},
}

type tagInfo struct {
	kind Kind
	big  bool
}

var lookup [256]tagInfo

func init() {
	for k := Int8; k <= Float64; k++ {
		p := tags[k]
		lookup[p.little] = tagInfo{kind: k}
		if p.big != p.little {
			lookup[p.big] = tagInfo{kind: k, big: true}
		}
	}
}

// Tag returns the typecode for kind k written in the given byte order.
// It returns 0 for Invalid.
func Tag(k Kind, order binary.ByteOrder) byte {
	if k == Invalid || int(k) >= len(tags) {
		return 0
	}
	if IsBigEndian(order) {
		return tags[k].big
	}
	return tags[k].little
}

// Lookup decodes a primitive typecode. The returned order is the byte order
// the value that follows was written in; for single byte kinds it is
// little endian by convention.
func Lookup(tag byte) (Kind, binary.ByteOrder, bool) {
	info := lookup[tag]
	if info.kind == Invalid {
		return Invalid, nil, false
	}
	if info.big {
		return info.kind, binary.BigEndian, true
	}
	return info.kind, binary.LittleEndian, true
}

// IsTag reports whether b is a primitive typecode.
func IsTag(b byte) bool {
	return lookup[b].kind != Invalid
}

// SeqTag returns the 1-D sequence header for the given byte order.
func SeqTag(order binary.ByteOrder) byte {
	if IsBigEndian(order) {
		return TagSeqBE
	}
	return TagSeqLE
}

// LookupSeq decodes a sequence header byte.
func LookupSeq(b byte) (binary.ByteOrder, bool) {
	switch b {
	case TagSeqLE:
		return binary.LittleEndian, true
	case TagSeqBE:
		return binary.BigEndian, true
	}
	return nil, false
}
