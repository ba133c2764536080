package key

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"fxchg.org/fx-go/pkg/crypto"
	"fxchg.org/fx-go/pkg/repr"
)

// FormatMnemonic returns the 24-word BIP-39 mnemonic for a private
// key seed. The seed is used as entropy, not derived from the words.
func FormatMnemonic(secret *crypto.PrivateKey) (string, error) {
	raw := secret.ToBytes()
	return bip39.NewMnemonic(raw[:])
}

// ParseMnemonic is the inverse of FormatMnemonic. Word separators are
// normalized, and the mnemonic checksum must be valid.
func ParseMnemonic(mnemonic string) (crypto.PrivateKey, error) {
	mnemonic = strings.ToLower(strings.Join(strings.Fields(mnemonic), " "))
	fill := func(buf *[crypto.PrivateKeySize]byte) error {
		entropy, err := bip39.EntropyFromMnemonic(mnemonic)
		if err != nil {
			return fmt.Errorf("invalid mnemonic: %v", err)
		}
		return repr.FromSlice[[crypto.PrivateKeySize]byte](entropy)(buf)
	}
	secret, _, err := crypto.PrivateKeyFromBytes(fill)
	return secret, err
}
