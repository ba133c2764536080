// package crypto provides the lowest-level key and signature types used
// by fx, and their conversions to and from fixed-size byte arrays.
package crypto

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"fxchg.org/fx-go/pkg/hex"
	"fxchg.org/fx-go/pkg/repr"
)

const (
	HashSize       = sha256.Size
	SignatureSize  = ed25519.SignatureSize
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.SeedSize
)

type (
	Hash      [HashSize]byte
	Signature [SignatureSize]byte
	PublicKey [PublicKeySize]byte
	// PrivateKey is the seed form of an ed25519 signing key.
	PrivateKey [PrivateKeySize]byte
)

func HashBytes(b []byte) Hash {
	return sha256.Sum256(b)
}

func HashFile(f io.Reader) (digest Hash, err error) {
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return digest, err
	}
	copy(digest[:], h.Sum(nil))
	return
}

// Verify reports whether sig is a valid signature on msg. It does not
// require pub to have passed PublicKeyFromBytes; an invalid point
// just fails verification.
func Verify(pub *PublicKey, msg []byte, sig *Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig[:])
}

type Signer interface {
	Sign(msg []byte) (Signature, error)
	Public() PublicKey
}

// Ed25519Signer is a Signer holding the expanded private key in memory.
type Ed25519Signer struct {
	secret ed25519.PrivateKey
}

func NewEd25519Signer(key *PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{secret: ed25519.NewKeyFromSeed(key[:])}
}

func (s *Ed25519Signer) Sign(msg []byte) (Signature, error) {
	var ret Signature
	sig, err := s.secret.Sign(nil, msg, crypto.Hash(0))
	if err != nil {
		return ret, err
	}
	if len(sig) != SignatureSize {
		return ret, fmt.Errorf("internal error, unexpected signature size %d: ", len(sig))
	}
	copy(ret[:], sig)
	return ret, nil
}

func (s *Ed25519Signer) Public() (ret PublicKey) {
	copy(ret[:], s.secret.Public().(ed25519.PublicKey))
	return
}

func (s *Ed25519Signer) Private() (ret PrivateKey) {
	copy(ret[:], s.secret.Seed())
	return
}

func NewKeyPair() (PublicKey, *Ed25519Signer, error) {
	var secret PrivateKey
	if _, err := rand.Read(secret[:]); err != nil {
		return PublicKey{}, nil, err
	}
	signer := NewEd25519Signer(&secret)
	return signer.Public(), signer, nil
}

func HashFromHex(s string) (h Hash, err error) {
	err = hex.Filler[[HashSize]byte](s)((*[HashSize]byte)(&h))
	return
}

// PublicKeyFromHex parses a hex-encoded public key. Strings of the
// right length that do not encode a valid point are rejected.
func PublicKeyFromHex(s string) (PublicKey, error) {
	return repr.Decode(PublicKeyRepr, hex.Filler[[PublicKeySize]byte](s), "public key")
}

func PrivateKeyFromHex(s string) (PrivateKey, error) {
	return repr.Decode(PrivateKeyRepr, hex.Filler[[PrivateKeySize]byte](s), "private key")
}

func SignatureFromHex(s string) (Signature, error) {
	return repr.Decode(SignatureRepr, hex.Filler[[SignatureSize]byte](s), "signature")
}

func SignerFromHex(s string) (*Ed25519Signer, error) {
	secret, err := PrivateKeyFromHex(s)
	if err != nil {
		return nil, err
	}
	return NewEd25519Signer(&secret), nil
}
