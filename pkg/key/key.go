package key

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dchest/safefile"

	"fxchg.org/fx-go/internal/ssh"
	"fxchg.org/fx-go/pkg/crypto"
)

// Accepts three formats:
//   - Openssh public key (single-line format)
//   - Multibase, see ParseMultibase
//   - Raw hex-encoded public key
//
// In all cases, keys that are not valid curve points are rejected.
func ParsePublicKey(ascii string) (crypto.PublicKey, error) {
	ascii = strings.TrimSpace(ascii)
	switch {
	case strings.HasPrefix(ascii, "ssh-ed25519 "), strings.HasPrefix(ascii, "ssh-ed25519\t"):
		return ssh.ParsePublicEd25519(ascii)
	case strings.HasPrefix(ascii, multibasePrefix):
		return ParseMultibase(ascii)
	}
	return crypto.PublicKeyFromHex(ascii)
}

// Supports four formats:
//   - Openssh private key
//   - Openssh public key, in which case ssh-agent is used to
//     access the corresponding private key.
//   - BIP-39 mnemonic of the private key seed
//   - Raw hex-encoded private key (RFC 8032)
func ParsePrivateKey(ascii string) (crypto.Signer, error) {
	ascii = strings.TrimSpace(ascii)
	// Accepts public keys only in openssh format, since with raw
	// hex-encoded keys, we can't distinguish between public and
	// private keys.
	if strings.HasPrefix(ascii, "ssh-ed25519 ") {
		key, err := ssh.ParsePublicEd25519(ascii)
		if err != nil {
			return nil, err
		}
		c, err := ssh.Connect()
		if err != nil {
			return nil, fmt.Errorf("only public key available, and no ssh-agent: %v", err)
		}
		return c.NewSigner(&key), nil
	}
	_, signer, err := ssh.ParsePrivateKeyFile([]byte(ascii))
	if err != ssh.NoPEMError {
		return signer, err
	}
	if strings.ContainsAny(ascii, " \t\n") {
		secret, err := ParseMnemonic(ascii)
		if err != nil {
			return nil, err
		}
		return crypto.NewEd25519Signer(&secret), nil
	}
	return crypto.SignerFromHex(ascii)
}

func ReadPublicKeyFile(fileName string) (crypto.PublicKey, error) {
	contents, err := os.ReadFile(fileName)
	if err != nil {
		return crypto.PublicKey{}, err
	}
	key, err := ParsePublicKey(string(contents))
	if err != nil {
		return crypto.PublicKey{}, fmt.Errorf("parsing public key file %q failed: %v",
			fileName, err)
	}
	return key, nil
}

func ReadPrivateKeyFile(fileName string) (crypto.Signer, error) {
	contents, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	signer, err := ParsePrivateKey(string(contents))
	if err != nil {
		return nil, fmt.Errorf("parsing private key file %q failed: %v",
			fileName, err)
	}
	return signer, nil
}

func parsePublicKeysFile(f io.Reader, fileName string) (map[crypto.Hash]crypto.PublicKey, error) {
	keys := make(map[crypto.Hash]crypto.PublicKey)
	scanner := bufio.NewScanner(f)
	var n int
	for scanner.Scan() {
		n++
		line := scanner.Text()
		// Mirror openssh implementation. Skip lines that
		// start with '#', or are completely empty. All other
		// lines must be valid key lines.
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		key, err := ParsePublicKey(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse public key on line %d of file %q: %v", n, fileName, err)
		}
		keyHash := crypto.HashBytes(key[:])
		if _, has := keys[keyHash]; has {
			return nil, fmt.Errorf("duplicate public key on line %d of file %q", n, fileName)
		}
		keys[keyHash] = key
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read public keys file %q: %v", fileName, err)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no public keys found in file %q", fileName)
	}
	return keys, nil
}

// ReadPublicKeysFile reads a file with one public key per line, in
// any format accepted by ParsePublicKey. The keys are indexed by
// their hash.
func ReadPublicKeysFile(fileName string) (map[crypto.Hash]crypto.PublicKey, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open public keys file %q: %v", fileName, err)
	}
	defer f.Close()
	return parsePublicKeysFile(f, fileName)
}

// WriteKeyFiles stores the private key in fileName, in openssh format,
// and the public key in fileName + ".pub". Each file is replaced
// atomically.
func WriteKeyFiles(fileName string, signer *crypto.Ed25519Signer) error {
	pub := signer.Public()
	if err := writeFile(fileName, func(w io.Writer) error {
		return ssh.WritePrivateKeyFile(w, signer)
	}); err != nil {
		return err
	}
	// Openssh insists that also public key files have
	// restrictive permissions.
	return writeFile(fileName+".pub", func(w io.Writer) error {
		_, err := io.WriteString(w, ssh.FormatPublicEd25519(&pub))
		return err
	})
}

func writeFile(fileName string, write func(io.Writer) error) error {
	f, err := safefile.Create(fileName, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %q failed: %v", fileName, err)
	}
	// Atomically replace old file with new.
	return f.Commit()
}
