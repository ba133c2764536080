// The ssh package implements utilities for ssh wire format, key files
// and signatures. Fixed-size keys and signatures embedded in ssh blobs
// are decoded through the repr codecs, so a public key blob carrying
// an invalid curve point is rejected like any other malformed input.
package ssh

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"

	"fxchg.org/fx-go/pkg/crypto"
	"fxchg.org/fx-go/pkg/repr"
)

const (
	int32Max = (1 << 31) - 1
)

func serializeUint32(x uint32) []byte {
	buffer := make([]byte, 4)
	binary.BigEndian.PutUint32(buffer, x)
	return buffer
}

func serializeString[T string | []byte](s T) []byte {
	if len(s) > int32Max {
		log.Panicf("string too large for ssh, length %d", len(s))
	}
	buffer := make([]byte, 4+len(s))
	binary.BigEndian.PutUint32(buffer, uint32(len(s)))
	copy(buffer[4:], s)
	return buffer
}

func SignedDataFromHash(namespace string, hash *crypto.Hash) []byte {
	return bytes.Join([][]byte{
		[]byte("SSHSIG"),
		serializeString(namespace),
		serializeString(""), // Empty reserved string
		serializeString("sha256"),
		serializeString(hash[:])}, nil)
}

func SignedData(namespace string, msg []byte) []byte {
	hash := crypto.HashBytes(msg)
	return SignedDataFromHash(namespace, &hash)
}

// Skips prefix, if present, otherwise return nil.
func skipPrefix(buffer []byte, prefix []byte) []byte {
	if !bytes.HasPrefix(buffer, prefix) {
		return nil
	}
	return buffer[len(prefix):]
}

func skipPrefixString[T string | []byte](buffer []byte, s T) []byte {
	return skipPrefix(buffer, serializeString(s))
}

// On failure, returns a nil rest.
func parseUint32(buffer []byte) (uint32, []byte) {
	if len(buffer) < 4 {
		return 0, nil
	}
	return binary.BigEndian.Uint32(buffer[:4]), buffer[4:]
}

// On failure, returns a nil rest.
func parseString(buffer []byte) ([]byte, []byte) {
	length, buffer := parseUint32(buffer)
	if buffer == nil || int64(length) > int64(len(buffer)) {
		return nil, nil
	}
	return buffer[:length], buffer[length:]
}

// stringFiller fills the buffer from an ssh string at the start of
// *blob, which must have exactly the buffer's size. On success, *blob
// is advanced past the string.
func stringFiller[B repr.Array](blob *[]byte) repr.Filler[B] {
	return func(buf *B) error {
		s, rest := parseString(*blob)
		if rest == nil {
			return fmt.Errorf("truncated ssh string")
		}
		dst := repr.Slice(buf)
		if len(s) != len(dst) {
			return fmt.Errorf("unexpected ssh string length %d, expected %d", len(s), len(dst))
		}
		copy(dst, s)
		*blob = rest
		return nil
	}
}
