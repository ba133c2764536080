package key

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"

	"fxchg.org/fx-go/internal/ssh"
	"fxchg.org/fx-go/pkg/crypto"
	"fxchg.org/fx-go/pkg/repr"
)

const (
	// Test vector from RFC 8032, section 7.1, test 1.
	rfcSecretHex = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	rfcPublicHex = "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a"
	// y = 2, not a valid point.
	offCurveHex = "0200000000000000000000000000000000000000000000000000000000000000"
)

func mustPublicKey(t *testing.T, s string) crypto.PublicKey {
	pub, err := crypto.PublicKeyFromHex(s)
	if err != nil {
		t.Fatal(err)
	}
	return pub
}

func TestParsePublicKeysFile(t *testing.T) {
	for _, table := range []struct {
		desc, input string
		expCount    int // expCount > 0 means expected success
	}{
		{"empty", "", 0},
		{"comment only", "# no keys\n", 0},
		{"single-key",
			`ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLym
`, 1},
		{"two-keys",
			`ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLym
ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLyn
`, 2},
		{"two-keys-comments",
			`# a key
ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLym key 1

# some empty lines
ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLyn key 2

`, 2},
		{"mixed-formats",
			`ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLym
` + rfcPublicHex + "\n", 2},
		{"line-with-garbage",
			`ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLym
xxx
ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLyn
`, 0},
		{"line-with-bad-comment",
			`ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLym
  # xxx
ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLyn
`, 0},
		{"invalid-point",
			`ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLym
` + offCurveHex + "\n", 0},
		{"duplicate-key",
			`ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLym key 1
ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLyn key 2
ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIDFMuCrItf6Qzxi/GQr6R1m4B3lwn5kfc28ETV4TvLym same as key 1`, 0},
	} {
		buf := bytes.NewBufferString(table.input)
		keys, err := parsePublicKeysFile(buf, table.desc)
		got := len(keys)
		if table.expCount > 0 {
			if err != nil {
				t.Errorf("%s: unexpected failure: %v", table.desc, err)
			} else if got != table.expCount {
				t.Errorf("%s: unexpected number of keys, got %d, want %d", table.desc, got, table.expCount)
			}
		} else {
			if err == nil {
				t.Errorf("%s: expected failure, but got %d keys", table.desc, got)
			}
		}
	}
}

func TestParsePublicKey(t *testing.T) {
	want := mustPublicKey(t, rfcPublicHex)
	for _, in := range []string{
		rfcPublicHex,
		strings.ToUpper(rfcPublicHex),
		"  " + rfcPublicHex + "\n",
		ssh.FormatPublicEd25519(&want),
		FormatMultibase(&want),
	} {
		pub, err := ParsePublicKey(in)
		if err != nil {
			t.Errorf("parsing %q failed: %v", in, err)
		} else if pub != want {
			t.Errorf("parsing %q gave %x, want %x", in, pub, want)
		}
	}
}

func TestParsePublicKeyInvalidPoint(t *testing.T) {
	var rejected *repr.RejectedError
	if _, err := ParsePublicKey(offCurveHex); !errors.As(err, &rejected) {
		t.Errorf("hex: expected rejection, got %v", err)
	}

	data := append(varint.ToUvarint(ed25519PubCodec), make([]byte, crypto.PublicKeySize)...)
	data[2] = 2
	mb, err := multibase.Encode(multibase.Base58BTC, data)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParsePublicKey(mb); !errors.As(err, &rejected) {
		t.Errorf("multibase: expected rejection, got %v", err)
	}
}

func TestMultibase(t *testing.T) {
	pub, _, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	s := FormatMultibase(&pub)
	// Base58btc of the ed25519-pub multicodec prefix.
	if !strings.HasPrefix(s, "z6Mk") {
		t.Errorf("unexpected multibase prefix: %q", s)
	}
	got, err := ParseMultibase(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != pub {
		t.Errorf("round trip failed, got %x, want %x", got, pub)
	}
}

func TestParseMultibaseInvalid(t *testing.T) {
	pub := mustPublicKey(t, rfcPublicHex)
	raw := pub.ToBytes()
	encode := func(enc multibase.Encoding, data []byte) string {
		s, err := multibase.Encode(enc, data)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	for _, table := range []struct {
		desc, input string
	}{
		{"not multibase", "z0OIl"},
		{"wrong base", encode(multibase.Base32, append(varint.ToUvarint(ed25519PubCodec), raw[:]...))},
		// 0xec is the x25519 public key codec.
		{"wrong codec", encode(multibase.Base58BTC, append(varint.ToUvarint(0xec), raw[:]...))},
		{"truncated", encode(multibase.Base58BTC, append(varint.ToUvarint(ed25519PubCodec), raw[:31]...))},
		{"trailing", encode(multibase.Base58BTC, append(varint.ToUvarint(ed25519PubCodec), append(raw[:], 0)...))},
	} {
		if pub, err := ParseMultibase(table.input); err == nil {
			t.Errorf("%s: expected failure, got %x", table.desc, pub)
		}
	}
}

func TestParsePrivateKey(t *testing.T) {
	want := mustPublicKey(t, rfcPublicHex)
	secret, err := crypto.PrivateKeyFromHex(rfcSecretHex)
	if err != nil {
		t.Fatal(err)
	}
	mnemonic, err := FormatMnemonic(&secret)
	if err != nil {
		t.Fatal(err)
	}
	var pemBuf bytes.Buffer
	if err := ssh.WritePrivateKeyFile(&pemBuf, crypto.NewEd25519Signer(&secret)); err != nil {
		t.Fatal(err)
	}
	for _, table := range []struct {
		desc, input string
	}{
		{"hex", rfcSecretHex},
		{"hex with newline", rfcSecretHex + "\n"},
		{"openssh", pemBuf.String()},
		{"mnemonic", mnemonic},
		{"mnemonic, odd spacing", "  " + strings.ReplaceAll(strings.ToUpper(mnemonic), " ", " \t ") + "\n"},
	} {
		signer, err := ParsePrivateKey(table.input)
		if err != nil {
			t.Errorf("%s: failed: %v", table.desc, err)
			continue
		}
		if got := signer.Public(); got != want {
			t.Errorf("%s: unexpected public key %x, want %x", table.desc, got, want)
		}
	}
}

func TestMnemonic(t *testing.T) {
	_, signer, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	secret := signer.Private()
	mnemonic, err := FormatMnemonic(&secret)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(strings.Fields(mnemonic)); got != 24 {
		t.Errorf("unexpected number of words %d", got)
	}
	got, err := ParseMnemonic(mnemonic)
	if err != nil {
		t.Fatal(err)
	}
	if got != secret {
		t.Errorf("round trip failed")
	}

	// Swapping two distinct words breaks the checksum, except with
	// negligible probability.
	words := strings.Fields(mnemonic)
	for i := 1; i < len(words); i++ {
		if words[i] != words[0] {
			words[0], words[i] = words[i], words[0]
			break
		}
	}
	if _, err := ParseMnemonic(strings.Join(words, " ")); err == nil {
		t.Errorf("accepted mnemonic with bad checksum")
	}
	if _, err := ParseMnemonic("abandon abandon xyzzy"); err == nil {
		t.Errorf("accepted invalid mnemonic")
	}
}

func TestNormalizeName(t *testing.T) {
	for _, table := range []struct {
		in, want string // empty want means expected failure
	}{
		{"example.org", "example.org"},
		{"Example.ORG", "example.org"},
		{"example.org/Log/1", "example.org/Log/1"},
		{"xn--bcher-kva.example", "bücher.example"},
		{"BÜCHER.example", "bücher.example"},
		{"", ""},
		{"example.org+1", ""},
		{"example org", ""},
	} {
		got, err := NormalizeName(table.in)
		if table.want == "" {
			if err == nil {
				t.Errorf("%q: expected failure, got %q", table.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: failed: %v", table.in, err)
		} else if got != table.want {
			t.Errorf("%q: got %q, want %q", table.in, got, table.want)
		}
	}
}

func TestVerifierKey(t *testing.T) {
	pub := mustPublicKey(t, rfcPublicHex)
	vkey, err := FormatVerifierKey("Example.ORG/test", &pub)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(vkey, "example.org/test+") {
		t.Errorf("unexpected verifier key %q", vkey)
	}
	name, got, err := ParseVerifierKey(vkey + "\n")
	if err != nil {
		t.Fatal(err)
	}
	if name != "example.org/test" || got != pub {
		t.Errorf("round trip failed, got %q, %x", name, got)
	}

	// Changing the name invalidates the key hash.
	if _, _, err := ParseVerifierKey("example.com" + strings.TrimPrefix(vkey, "example.org/test")); err == nil {
		t.Errorf("accepted verifier key with inconsistent hash")
	}
	if _, _, err := ParseVerifierKey("example.org"); err == nil {
		t.Errorf("accepted verifier key without key data")
	}
}

func TestWriteKeyFiles(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "key")
	pub, signer, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteKeyFiles(fileName, signer); err != nil {
		t.Fatal(err)
	}
	for _, f := range []string{fileName, fileName + ".pub"} {
		info, err := os.Stat(f)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("unexpected permissions %o on %q", perm, f)
		}
	}
	gotPub, err := ReadPublicKeyFile(fileName + ".pub")
	if err != nil {
		t.Fatal(err)
	}
	if gotPub != pub {
		t.Errorf("unexpected public key %x, want %x", gotPub, pub)
	}
	gotSigner, err := ReadPrivateKeyFile(fileName)
	if err != nil {
		t.Fatal(err)
	}
	if gotSigner.Public() != pub {
		t.Errorf("unexpected private key")
	}
	keys, err := ReadPublicKeysFile(fileName + ".pub")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := keys[crypto.HashBytes(pub[:])]; !ok || len(keys) != 1 {
		t.Errorf("unexpected keys map: %v", keys)
	}
}

func TestFingerprint(t *testing.T) {
	pub := mustPublicKey(t, rfcPublicHex)
	hash := crypto.HashBytes(pub[:])

	if got, want := FormatKeyHash(&pub), fmt.Sprintf("%x", hash[:]); got != want {
		t.Errorf("unexpected key hash %q, want %q", got, want)
	}

	s := FormatKeyCID(&pub)
	c, err := cid.Decode(s)
	if err != nil {
		t.Fatalf("invalid cid %q: %v", s, err)
	}
	if c.Version() != 1 || c.Type() != cid.Raw {
		t.Errorf("unexpected cid version %d, codec 0x%x", c.Version(), c.Type())
	}
	decoded, err := multihash.Decode(c.Hash())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Code != multihash.SHA2_256 || !bytes.Equal(decoded.Digest, hash[:]) {
		t.Errorf("unexpected multihash %v", decoded)
	}
}
