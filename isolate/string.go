package isolate

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// String is an immutable sequence of UTF-16 code units, the way script code
// sees text. Length counts code units, not runes.
type String struct {
	primitive
	data []byte // UTF-16LE
}

func (*String) TypeOf() string { return "string" }
func (*String) IsString() bool { return true }

func newString(s string) *String {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		// The encoder replaces invalid UTF-8 instead of failing.
		panic(fmt.Errorf("failed to encode utf16 string: %w", err))
	}
	return &String{data: encoded}
}

// NewStringFromUTF16 creates a string from little-endian UTF-16 code units.
func NewStringFromUTF16(data []byte) (*String, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("utf16 data has odd length %d", len(data))
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return &String{data: copied}, nil
}

// NewStringFromLatin1 creates a string from ISO-8859-1 bytes.
func NewStringFromLatin1(data []byte) (*String, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode latin1 string: %w", err)
	}
	return newString(string(decoded)), nil
}

func (s *String) Length() int {
	return len(s.data) / 2
}

// CodeUnitAt returns the UTF-16 code unit at index i.
func (s *String) CodeUnitAt(i int) uint16 {
	return binary.LittleEndian.Uint16(s.data[i*2:])
}

func (s *String) UTF16() []byte {
	return s.data
}

func (s *String) String() string {
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(s.data)
	if err != nil {
		panic(fmt.Errorf("failed to decode utf16 string: %w", err))
	}
	return string(decoded)
}
