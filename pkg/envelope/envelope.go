// package envelope implements signed messages: a payload together
// with the signer's public key and an ed25519 signature over it.
//
// The binary layout is
//
//	struct envelope {
//	    u8  public_key[32];
//	    u8  signature[64];
//	    u64 length;
//	    u8  payload[length];
//	};
//
// The signature covers the ssh signed-data blob for the payload and a
// caller-chosen namespace, so that an envelope made for one purpose
// does not verify for another.
package envelope

import (
	"fmt"

	"fxchg.org/fx-go/internal/ssh"
	"fxchg.org/fx-go/pkg/crypto"
	"fxchg.org/fx-go/pkg/repr"
	"fxchg.org/fx-go/pkg/wire"
)

// HeaderSize is the size of an envelope with an empty payload.
const HeaderSize = crypto.PublicKeySize + crypto.SignatureSize + 8

type Envelope struct {
	PublicKey crypto.PublicKey
	Signature crypto.Signature
	Payload   []byte
}

func Seal(signer crypto.Signer, namespace string, payload []byte) (*Envelope, error) {
	sig, err := signer.Sign(ssh.SignedData(namespace, payload))
	if err != nil {
		return nil, fmt.Errorf("signing envelope failed: %w", err)
	}
	return &Envelope{PublicKey: signer.Public(), Signature: sig, Payload: payload}, nil
}

func (e *Envelope) Verify(namespace string) error {
	if !crypto.Verify(&e.PublicKey, ssh.SignedData(namespace, e.Payload), &e.Signature) {
		return fmt.Errorf("invalid envelope signature")
	}
	return nil
}

func (e *Envelope) Marshal() []byte {
	pub, sig := e.PublicKey.ToBytes(), e.Signature.ToBytes()

	w := wire.NewWriter(HeaderSize + len(e.Payload))
	w.AddArray(pub[:])
	w.AddArray(sig[:])
	w.AddUint64(uint64(len(e.Payload)))
	w.AddArray(e.Payload)
	return w.Bytes()
}

// Unmarshal parses msg, which must hold exactly one envelope. The
// returned Payload shares storage with msg. A truncated message gives
// a *wire.ShortError, and a public key that is not a valid curve point
// a *repr.RejectedError. The signature is not verified.
func Unmarshal(msg []byte) (*Envelope, error) {
	r := wire.NewReader(msg)
	pub, ok, err := crypto.PublicKeyFromBytes(wire.Fill[[crypto.PublicKeySize]byte](r, "public_key"))
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	if !ok {
		return nil, &repr.RejectedError{What: "envelope public key"}
	}
	sig, _, err := crypto.SignatureFromBytes(wire.Fill[[crypto.SignatureSize]byte](r, "signature"))
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	var length uint64
	if err := r.Uint64("length", &length); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	payload, err := r.Bytes("payload", length)
	if err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	if err := r.Done(); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	return &Envelope{PublicKey: pub, Signature: sig, Payload: payload}, nil
}
