package pstream

import "fmt"

// Mode selects the wire encoding of a stream direction.
type Mode uint8

const (
	// RawASCII writes bare whitespace separated tokens without framing.
	RawASCII Mode = iota
	// RawBinary writes the in-memory byte layout with no tags or separators.
	RawBinary
	// PrettyASCII writes human oriented output; sequences look like [ a, b ].
	PrettyASCII
	// PlearnASCII writes self-describing text with counted sequences.
	PlearnASCII
	// PlearnBinary writes typecode tagged binary numbers inside plearn framing.
	PlearnBinary
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case RawASCII:
		return "raw_ascii"
	case RawBinary:
		return "raw_binary"
	case PrettyASCII:
		return "pretty_ascii"
	case PlearnASCII:
		return "plearn_ascii"
	case PlearnBinary:
		return "plearn_binary"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "raw_ascii":
		return RawASCII, nil
	case "raw_binary":
		return RawBinary, nil
	case "pretty_ascii":
		return PrettyASCII, nil
	case "plearn_ascii":
		return PlearnASCII, nil
	case "plearn_binary":
		return PlearnBinary, nil
	}
	return 0, fmt.Errorf("pstream: unknown mode %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// isPlearn reports whether m is one of the self-describing modes. Readers in
// either plearn mode accept both ascii and binary tokens.
func (m Mode) isPlearn() bool {
	return m == PlearnASCII || m == PlearnBinary
}

// isASCII reports whether m writes text tokens.
func (m Mode) isASCII() bool {
	return m == RawASCII || m == PrettyASCII || m == PlearnASCII
}

// Compression controls how float64 sequences are stored in plearn_binary.
type Compression uint8

const (
	// CompressNone stores elements at full width.
	CompressNone Compression = iota
	// CompressFloat narrows float64 sequence elements to float32.
	CompressFloat
)

// String returns "none" or "float".
func (c Compression) String() string {
	if c == CompressFloat {
		return "float"
	}
	return "none"
}

// ParseCompression parses "none" or "float".
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressNone, nil
	case "float":
		return CompressFloat, nil
	}
	return 0, fmt.Errorf("pstream: unknown compression %q", s)
}
