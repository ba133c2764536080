package ssh

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"fxchg.org/fx-go/pkg/crypto"
	"fxchg.org/fx-go/pkg/repr"
)

const keyTypeEd25519 = "ssh-ed25519"

func serializePublicEd25519(pub *crypto.PublicKey) []byte {
	return bytes.Join([][]byte{
		serializeString(keyTypeEd25519),
		serializeString(pub[:])},
		nil)
}

// Parses a public key blob, which must not have any trailing data.
func parsePublicEd25519(blob []byte) (crypto.PublicKey, error) {
	blob = skipPrefixString(blob, keyTypeEd25519)
	if blob == nil {
		return crypto.PublicKey{}, fmt.Errorf("invalid public key blob prefix")
	}
	pub, ok, err := crypto.PublicKeyFromBytes(stringFiller[[crypto.PublicKeySize]byte](&blob))
	if err != nil {
		return crypto.PublicKey{}, fmt.Errorf("invalid public key blob: %v", err)
	}
	if !ok {
		return crypto.PublicKey{}, &repr.RejectedError{What: "ed25519 public key"}
	}
	if len(blob) != 0 {
		return crypto.PublicKey{}, fmt.Errorf("invalid public key blob, %d bytes of trailing data", len(blob))
	}
	return pub, nil
}

// Expects the openssh single-line format, "ssh-ed25519 <base64> [comment]".
func ParsePublicEd25519(asciiKey string) (crypto.PublicKey, error) {
	// Split into fields, recognizing exclusively ascii space and TAB
	fields := strings.FieldsFunc(asciiKey, func(c rune) bool {
		return c == ' ' || c == '\t'
	})
	if len(fields) < 2 {
		return crypto.PublicKey{}, fmt.Errorf("invalid public key, splitting line failed")
	}
	if fields[0] != keyTypeEd25519 {
		return crypto.PublicKey{}, fmt.Errorf("unsupported public key type: %v", fields[0])
	}
	blob, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return crypto.PublicKey{}, err
	}
	return parsePublicEd25519(blob)
}

func FormatPublicEd25519(pub *crypto.PublicKey) string {
	return keyTypeEd25519 + " " +
		base64.StdEncoding.EncodeToString(serializePublicEd25519(pub)) +
		" fx key\n"
}
