package key

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"fxchg.org/fx-go/pkg/crypto"
	"fxchg.org/fx-go/pkg/hex"
)

// FormatKeyHash returns the hex-encoded sha256 hash of the raw public
// key. This is the key identifier used in public keys files.
func FormatKeyHash(pub *crypto.PublicKey) string {
	hash := crypto.HashBytes(pub[:])
	return hex.Serialize(hash[:])
}

// FormatKeyCID returns the key hash as a CIDv1 with the raw codec and
// a sha2-256 multihash, the same digest as FormatKeyHash.
func FormatKeyCID(pub *crypto.PublicKey) string {
	hash := crypto.HashBytes(pub[:])
	mh, err := multihash.Encode(hash[:], multihash.SHA2_256)
	if err != nil {
		// Only fails for unknown codes or bad digest length.
		panic(err)
	}
	return cid.NewCidV1(cid.Raw, mh).String()
}
