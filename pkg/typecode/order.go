package typecode

import "encoding/binary"

// Native is the byte order of the running platform.
var Native = detectNative()

func detectNative() binary.ByteOrder {
	if binary.NativeEndian.Uint16([]byte{1, 0}) == 1 {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// IsBigEndian reports whether order stores the most significant byte first.
// A nil order means Native.
func IsBigEndian(order binary.ByteOrder) bool {
	if order == nil {
		order = Native
	}
	return order.Uint16([]byte{0, 1}) == 1
}

// SameOrder reports whether a and b lay out bytes identically.
func SameOrder(a, b binary.ByteOrder) bool {
	return IsBigEndian(a) == IsBigEndian(b)
}

// OrderName returns "LITTLE_ENDIAN" or "BIG_ENDIAN".
func OrderName(order binary.ByteOrder) string {
	if IsBigEndian(order) {
		return "BIG_ENDIAN"
	}
	return "LITTLE_ENDIAN"
}

// Swap reverses the bytes of every size-byte element of b in place.
// len(b) must be a multiple of size.
func Swap(b []byte, size int) {
	if size <= 1 {
		return
	}
	for off := 0; off+size <= len(b); off += size {
		e := b[off : off+size]
		for i, j := 0, size-1; i < j; i, j = i+1, j-1 {
			e[i], e[j] = e[j], e[i]
		}
	}
}
