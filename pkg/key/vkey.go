package key

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/mod/sumdb/note"
	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"

	"fxchg.org/fx-go/pkg/crypto"
	"fxchg.org/fx-go/pkg/repr"
)

// Key type byte for ed25519 note verifier keys.
const noteTypeEd25519 = 1

// NormalizeName normalizes a key name of the form host[/path]. The
// host part is normalized as a domain name, the path with NFKC only.
func NormalizeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty key name")
	}
	if strings.ContainsAny(name, "+ \t\n") {
		return "", fmt.Errorf("invalid key name %q, must not contain '+' or white space", name)
	}
	host, path := name, ""
	if i := strings.IndexByte(name, '/'); i >= 0 {
		host, path = name[:i], norm.NFKC.String(name[i:])
	}
	n := norm.NFKC.String(host) // Unicode normalization
	l := strings.ToLower(n)     // Unicode lowercase
	a, err := idna.ToASCII(l)   // A-label form (no-op for all-ascii labels)
	if err != nil {
		return "", fmt.Errorf("failed converting domain %q to a-label form: %v", l, err)
	}
	u, err := idna.ToUnicode(a)
	if err != nil {
		return "", fmt.Errorf("failed converting domain %q to u-label form: %v", a, err)
	}
	if !norm.NFKC.IsNormalString(u) {
		return "", fmt.Errorf("a-label domain %q was decoded to un-normalized unicode %q",
			a, u)
	}
	if strings.ToLower(u) != u {
		return "", fmt.Errorf("a-label domain %q was decoded to not all-lowercase unicode %q",
			a, u)
	}
	return u + path, nil
}

// FormatVerifierKey returns the note verifier key, <name>+<hash>+<keydata>,
// see https://pkg.go.dev/golang.org/x/mod/sumdb/note.
func FormatVerifierKey(name string, pub *crypto.PublicKey) (string, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return "", err
	}
	keyData := append([]byte{noteTypeEd25519}, pub[:]...)
	vkey := fmt.Sprintf("%s+%08x+%s", name, noteKeyHash(name, keyData),
		base64.StdEncoding.EncodeToString(keyData))
	// Sanity check.
	if _, err := note.NewVerifier(vkey); err != nil {
		return "", fmt.Errorf("internal error, invalid verifier key: %v", err)
	}
	return vkey, nil
}

// The key hash is the first 4 bytes of sha256(name || "\n" || keydata).
func noteKeyHash(name string, keyData []byte) uint32 {
	hash := crypto.HashBytes(append([]byte(name+"\n"), keyData...))
	return binary.BigEndian.Uint32(hash[:4])
}

// ParseVerifierKey parses an ed25519 note verifier key, checking that
// the key hash is consistent with the name and key.
func ParseVerifierKey(vkey string) (string, crypto.PublicKey, error) {
	vkey = strings.TrimSpace(vkey)
	verifier, err := note.NewVerifier(vkey)
	if err != nil {
		return "", crypto.PublicKey{}, fmt.Errorf("invalid verifier key: %v", err)
	}
	fields := strings.SplitN(vkey, "+", 3)
	if len(fields) != 3 {
		return "", crypto.PublicKey{}, fmt.Errorf("invalid verifier key, too few fields")
	}
	blob, err := base64.StdEncoding.DecodeString(fields[2])
	if err != nil {
		return "", crypto.PublicKey{}, fmt.Errorf("invalid verifier key: %v", err)
	}
	if len(blob) == 0 || blob[0] != noteTypeEd25519 {
		return "", crypto.PublicKey{}, fmt.Errorf("unsupported verifier key type")
	}
	pub, err := repr.Decode(crypto.PublicKeyRepr, repr.FromSlice[[crypto.PublicKeySize]byte](blob[1:]), "ed25519 public key")
	if err != nil {
		return "", crypto.PublicKey{}, err
	}
	return verifier.Name(), pub, nil
}
