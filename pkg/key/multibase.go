package key

import (
	"fmt"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"

	"fxchg.org/fx-go/pkg/crypto"
	"fxchg.org/fx-go/pkg/repr"
)

// Multicodec code for a raw ed25519 public key, as used in did:key.
const ed25519PubCodec = 0xed

// Public keys in multibase form always use base58btc.
const multibasePrefix = "z"

// FormatMultibase returns the base58btc multibase encoding of the
// multicodec-tagged key, e.g., "z6Mk...".
func FormatMultibase(pub *crypto.PublicKey) string {
	raw := pub.ToBytes()
	data := append(varint.ToUvarint(ed25519PubCodec), raw[:]...)
	s, err := multibase.Encode(multibase.Base58BTC, data)
	if err != nil {
		// Only fails for unknown encodings.
		panic(fmt.Sprintf("multibase encoding failed: %v", err))
	}
	return s
}

func ParseMultibase(s string) (crypto.PublicKey, error) {
	enc, data, err := multibase.Decode(s)
	if err != nil {
		return crypto.PublicKey{}, fmt.Errorf("invalid multibase key: %v", err)
	}
	if enc != multibase.Base58BTC {
		return crypto.PublicKey{}, fmt.Errorf("unsupported multibase encoding %q", string(rune(enc)))
	}
	code, n, err := varint.FromUvarint(data)
	if err != nil {
		return crypto.PublicKey{}, fmt.Errorf("invalid multicodec prefix: %v", err)
	}
	if code != ed25519PubCodec {
		return crypto.PublicKey{}, fmt.Errorf("unsupported key type, multicodec 0x%x", code)
	}
	return repr.Decode(crypto.PublicKeyRepr, repr.FromSlice[[crypto.PublicKeySize]byte](data[n:]), "ed25519 public key")
}
