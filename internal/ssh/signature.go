package ssh

import (
	"bytes"
	"encoding/pem"
	"fmt"
	"io"

	"fxchg.org/fx-go/pkg/crypto"
)

const pemSignatureTag = "SSH SIGNATURE"

func serializeSignature(signature *crypto.Signature) []byte {
	return serializeString(bytes.Join([][]byte{
		serializeString(keyTypeEd25519),
		serializeString(signature[:]),
	}, nil))
}

func WriteSignatureFile(w io.Writer, publicKey *crypto.PublicKey, namespace string, signature *crypto.Signature) error {
	blob := bytes.Join([][]byte{
		[]byte("SSHSIG"),
		serializeUint32(1), // version 1
		serializeString(serializePublicEd25519(publicKey)),
		serializeString(namespace),
		serializeUint32(0), // Empty reserved string
		serializeString("sha256"),
		serializeSignature(signature),
	}, nil)
	return pem.Encode(w, &pem.Block{Type: pemSignatureTag, Bytes: blob})
}

// Parses a signature string, which must not have any trailing data.
func parseSignature(blob []byte) (crypto.Signature, error) {
	blob = skipPrefix(blob, bytes.Join([][]byte{
		serializeUint32(83), // length of signature
		serializeString(keyTypeEd25519)}, nil))
	if blob == nil {
		return crypto.Signature{}, fmt.Errorf("invalid signature blob")
	}
	signature, _, err := crypto.SignatureFromBytes(stringFiller[[crypto.SignatureSize]byte](&blob))
	if err != nil {
		return crypto.Signature{}, fmt.Errorf("bad signature: %v", err)
	}
	if len(blob) != 0 {
		return crypto.Signature{}, fmt.Errorf("bad signature, %d bytes of trailing data", len(blob))
	}
	return signature, nil
}

func ParseSignatureFile(ascii []byte, pub *crypto.PublicKey, namespace string) (crypto.Signature, error) {
	block, _ := pem.Decode(ascii)
	if block == nil {
		return crypto.Signature{}, NoPEMError
	}
	if block.Type != pemSignatureTag {
		return crypto.Signature{}, fmt.Errorf("unexpected PEM tag: %q", block.Type)
	}
	blob := skipPrefix(block.Bytes, bytes.Join([][]byte{
		[]byte("SSHSIG"),
		serializeUint32(1), // version 1
	}, nil))
	if blob == nil {
		return crypto.Signature{}, fmt.Errorf("invalid signature prefix")
	}
	blob = skipPrefixString(blob, serializePublicEd25519(pub))
	if blob == nil {
		return crypto.Signature{}, fmt.Errorf("signature public key not as expected")
	}
	blob = skipPrefixString(blob, namespace)
	if blob == nil {
		return crypto.Signature{}, fmt.Errorf("signature namespace not as expected")
	}
	blob = skipPrefix(blob, bytes.Join([][]byte{
		serializeUint32(0), // Empty reserved string
		serializeString("sha256"),
	}, nil))
	if blob == nil {
		return crypto.Signature{}, fmt.Errorf("signature hash not as expected")
	}
	return parseSignature(blob)
}
