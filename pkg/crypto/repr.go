package crypto

import (
	"filippo.io/edwards25519"

	"fxchg.org/fx-go/pkg/repr"
)

// Codecs for the three fixed-size types. Only public keys can be
// rejected on decoding; any 32 bytes are a valid seed and any 64 bytes
// are accepted as a signature, whether or not it verifies.
var (
	PublicKeyRepr  repr.Codec[PublicKey, [PublicKeySize]byte]   = publicKeyRepr{}
	PrivateKeyRepr repr.Codec[PrivateKey, [PrivateKeySize]byte] = privateKeyRepr{}
	SignatureRepr  repr.Codec[Signature, [SignatureSize]byte]   = signatureRepr{}
)

type publicKeyRepr struct{}

func (publicKeyRepr) ToBytes(pub *PublicKey) [PublicKeySize]byte {
	return *pub
}

// FromBytes accepts the same encodings as ed25519 point decompression:
// y must be on the curve, non-canonical y >= p is tolerated.
func (publicKeyRepr) FromBytes(fill repr.Filler[[PublicKeySize]byte]) (PublicKey, bool, error) {
	var b [PublicKeySize]byte
	if err := fill(&b); err != nil {
		return PublicKey{}, false, err
	}
	if _, err := new(edwards25519.Point).SetBytes(b[:]); err != nil {
		return PublicKey{}, false, nil
	}
	return PublicKey(b), true, nil
}

type privateKeyRepr struct{}

func (privateKeyRepr) ToBytes(key *PrivateKey) [PrivateKeySize]byte {
	return *key
}

func (privateKeyRepr) FromBytes(fill repr.Filler[[PrivateKeySize]byte]) (PrivateKey, bool, error) {
	var b [PrivateKeySize]byte
	if err := fill(&b); err != nil {
		return PrivateKey{}, false, err
	}
	return PrivateKey(b), true, nil
}

type signatureRepr struct{}

func (signatureRepr) ToBytes(sig *Signature) [SignatureSize]byte {
	return *sig
}

func (signatureRepr) FromBytes(fill repr.Filler[[SignatureSize]byte]) (Signature, bool, error) {
	var b [SignatureSize]byte
	if err := fill(&b); err != nil {
		return Signature{}, false, err
	}
	return Signature(b), true, nil
}

// ToBytes returns the 32-byte compressed point.
func (pub *PublicKey) ToBytes() [PublicKeySize]byte {
	return PublicKeyRepr.ToBytes(pub)
}

// ToBytes returns the 32-byte seed.
func (key *PrivateKey) ToBytes() [PrivateKeySize]byte {
	return PrivateKeyRepr.ToBytes(key)
}

// ToBytes returns the 64-byte R || S encoding.
func (sig *Signature) ToBytes() [SignatureSize]byte {
	return SignatureRepr.ToBytes(sig)
}

// PublicKeyFromBytes returns ok == false, with a nil error, when the
// filled bytes are not a point on the curve. Errors from fill are
// returned unchanged.
func PublicKeyFromBytes(fill repr.Filler[[PublicKeySize]byte]) (PublicKey, bool, error) {
	return PublicKeyRepr.FromBytes(fill)
}

// PrivateKeyFromBytes accepts any 32 bytes; it fails only if fill does.
func PrivateKeyFromBytes(fill repr.Filler[[PrivateKeySize]byte]) (PrivateKey, bool, error) {
	return PrivateKeyRepr.FromBytes(fill)
}

// SignatureFromBytes accepts any 64 bytes; it fails only if fill does.
func SignatureFromBytes(fill repr.Filler[[SignatureSize]byte]) (Signature, bool, error) {
	return SignatureRepr.FromBytes(fill)
}
