// package hex implements a hex parser that decodes straight into
// fixed-size buffers.
package hex

import (
	"fmt"

	"fxchg.org/fx-go/pkg/repr"
)

const (
	language = "0123456789abcdef"
)

// Serialize serializes a buffer as lower-case hex
func Serialize(buf []byte) string {
	out := make([]byte, len(buf)*2)
	for i, b := range buf {
		offset := i * 2
		out[offset] = language[b>>4]
		out[offset+1] = language[b&0x0f]
	}
	return string(out)
}

// Deserialize tries to deserialize a lower-case hex string
func Deserialize(str string) ([]byte, error) {
	if len(str)%2 != 0 {
		return nil, fmt.Errorf("hex: string must have even length")
	}
	buf := make([]byte, len(str)/2)
	if err := decodeInto(buf, str, false); err != nil {
		return nil, err
	}
	return buf, nil
}

// Filler returns a repr.Filler that decodes str into the buffer. Both
// lower- and upper-case digits are accepted, and str must encode
// exactly the size of the buffer.
func Filler[B repr.Array](str string) repr.Filler[B] {
	return func(buf *B) error {
		dst := repr.Slice(buf)
		if len(str) != 2*len(dst) {
			return fmt.Errorf("unexpected length of hex data, expected %d, got %d", 2*len(dst), len(str))
		}
		return decodeInto(dst, str, true)
	}
}

// Requires len(str) == 2*len(dst).
func decodeInto(dst []byte, str string, upper bool) error {
	for i := range dst {
		offset := i * 2
		first, ok := deserializeOne(str[offset], upper)
		if !ok {
			return fmt.Errorf("hex: invalid character at index %d: %d", offset, str[offset])
		}
		second, ok := deserializeOne(str[offset+1], upper)
		if !ok {
			return fmt.Errorf("hex: invalid character at index %d: %d", offset+1, str[offset+1])
		}
		dst[i] = first<<4 | second
	}
	return nil
}

func deserializeOne(b byte, upper bool) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case upper && b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
