package typecode

import (
	"encoding/binary"
	"math"
	"reflect"
	"slices"
	"strconv"
	"unsafe"
)

// Number is the set of element types the codec can move in bulk.
type Number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 |
		~int | ~uint | ~float32 | ~float64
}

// KindOf returns the wire kind matching the in-memory layout of T.
// int and uint map to the 32 or 64 bit kind of the platform word size.
func KindOf[T Number]() Kind {
	return KindOfReflect(reflect.TypeFor[T]().Kind())
}

// KindOfReflect maps a reflect.Kind to a wire kind, or Invalid.
func KindOfReflect(rk reflect.Kind) Kind {
	switch rk {
	case reflect.Int8:
		return Int8
	case reflect.Uint8:
		return Uint8
	case reflect.Int16:
		return Int16
	case reflect.Uint16:
		return Uint16
	case reflect.Int32:
		return Int32
	case reflect.Uint32:
		return Uint32
	case reflect.Int64:
		return Int64
	case reflect.Uint64:
		return Uint64
	case reflect.Int:
		if strconv.IntSize == 64 {
			return Int64
		}
		return Int32
	case reflect.Uint:
		if strconv.IntSize == 64 {
			return Uint64
		}
		return Uint32
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	}
	return Invalid
}

// Put stores v into b as an element of kind k in the given order.
// b must hold at least k.Size() bytes.
func Put[T Number](b []byte, k Kind, order binary.ByteOrder, v T) {
	switch k {
	case Int8:
		b[0] = byte(int8(v))
	case Uint8:
		b[0] = uint8(v)
	case Int16:
		order.PutUint16(b, uint16(int16(v)))
	case Uint16:
		order.PutUint16(b, uint16(v))
	case Int32:
		order.PutUint32(b, uint32(int32(v)))
	case Uint32:
		order.PutUint32(b, uint32(v))
	case Int64:
		order.PutUint64(b, uint64(int64(v)))
	case Uint64:
		order.PutUint64(b, uint64(v))
	case Float32:
		order.PutUint32(b, math.Float32bits(float32(v)))
	case Float64:
		order.PutUint64(b, math.Float64bits(float64(v)))
	}
}

// Get loads an element of kind k from b and converts it to T.
func Get[T Number](b []byte, k Kind, order binary.ByteOrder) T {
	switch k {
	case Int8:
		return T(int8(b[0]))
	case Uint8:
		return T(b[0])
	case Int16:
		return T(int16(order.Uint16(b)))
	case Uint16:
		return T(order.Uint16(b))
	case Int32:
		return T(int32(order.Uint32(b)))
	case Uint32:
		return T(order.Uint32(b))
	case Int64:
		return T(int64(order.Uint64(b)))
	case Uint64:
		return T(order.Uint64(b))
	case Float32:
		return T(math.Float32frombits(order.Uint32(b)))
	case Float64:
		return T(math.Float64frombits(order.Uint64(b)))
	}
	return 0
}

// Bytes returns the in-memory bytes of xs without copying.
func Bytes[T Number](xs []T) []byte {
	if len(xs) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(xs[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&xs[0])), len(xs)*size)
}

func direct[T Number](k Kind, order binary.ByteOrder) bool {
	var zero T
	return k == KindOf[T]() && int(unsafe.Sizeof(zero)) == k.Size() && SameOrder(order, Native)
}

// Encode appends xs to dst as elements of kind k in the given order. When
// the in-memory layout already matches, the bytes are copied in one step;
// otherwise each element is converted (for example float64 narrowed to
// float32).
func Encode[T Number](dst []byte, k Kind, order binary.ByteOrder, xs []T) []byte {
	if direct[T](k, order) {
		return append(dst, Bytes(xs)...)
	}
	size := k.Size()
	off := len(dst)
	dst = slices.Grow(dst, len(xs)*size)[:off+len(xs)*size]
	for i, v := range xs {
		Put(dst[off+i*size:], k, order, v)
	}
	return dst
}

// Decode fills dst from src, which holds len(dst) elements of kind k in the
// given order.
func Decode[T Number](dst []T, src []byte, k Kind, order binary.ByteOrder) {
	if direct[T](k, order) {
		copy(Bytes(dst), src)
		return
	}
	size := k.Size()
	for i := range dst {
		dst[i] = Get[T](src[i*size:], k, order)
	}
}
