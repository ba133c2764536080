package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fxchg.org/fx-go/internal/fmtio"
	"fxchg.org/fx-go/internal/ssh"
	"fxchg.org/fx-go/internal/version"
	"fxchg.org/fx-go/pkg/crypto"
	"fxchg.org/fx-go/pkg/envelope"
	"fxchg.org/fx-go/pkg/key"
	"fxchg.org/fx-go/pkg/log"
	"fxchg.org/fx-go/pkg/repr"
)

// Exit status of the check command: 1 when the key bytes are
// rejected, 2 when the input can't be read or is not 32 hex-encoded
// bytes.
const (
	exitRejected    = 1
	exitReadFailure = 2
)

func main() {
	const usage = `
Generate ed25519 key pairs in OpenSSH format, sign and verify
messages, and convert keys between formats.

Usage: fx-key [--help|help] [--version|version]
   or: fx-key check [options]
   or: fx-key from-hex [options]
   or: fx-key from-mnemonic [options]
   or: fx-key from-vkey [options]
   or: fx-key generate [options]
   or: fx-key open [options]
   or: fx-key seal [options]
   or: fx-key sign [options]
   or: fx-key to-hash [options]
   or: fx-key to-hex [options]
   or: fx-key to-mnemonic [options]
   or: fx-key to-multibase [options]
   or: fx-key to-vkey [options]
   or: fx-key verify [options]

Options:
      --help     Show usage message and exit
  -v, --version  Show program version and exit
`
	log.SetDate(false)
	if len(os.Args) < 2 {
		log.Fatal("%s", usage[1:])
	}

	switch os.Args[1] {
	default:
		log.Fatal("%s", usage[1:])
	case "help", "--help":
		fmt.Print(usage[1:])
		os.Exit(0)
	case "version", "--version", "-v":
		version.DisplayVersion(os.Stdout, "fx-key")
		os.Exit(0)
	case "generate", "gen":
		var settings GenSettings
		settings.parse(os.Args)
		_, signer, err := crypto.NewKeyPair()
		if err != nil {
			log.Fatal("generating key failed: %v", err)
		}
		if err := key.WriteKeyFiles(settings.outputFile, signer); err != nil {
			log.Fatal("%v", err)
		}
		log.Info("wrote key files %q and %q", settings.outputFile, settings.outputFile+".pub")
	case "sign":
		var settings SignSettings
		settings.parse(os.Args)
		signer, err := key.ReadPrivateKeyFile(settings.keyFile)
		if err != nil {
			log.Fatal("%v", err)
		}
		hash, err := crypto.HashFile(os.Stdin)
		if err != nil {
			log.Fatal("failed to read stdin: %v", err)
		}
		signature, err := signer.Sign(ssh.SignedDataFromHash(settings.namespace, &hash))
		if err != nil {
			log.Fatal("signing failed: %v", err)
		}
		public := signer.Public()
		withOutput(settings.outputFile, 0644, func(w io.Writer) error {
			if settings.sshFormat {
				return ssh.WriteSignatureFile(w, &public, settings.namespace, &signature)
			}
			_, err := fmt.Fprintf(w, "%x\n", signature[:])
			return err
		})
	case "verify":
		var settings VerifySettings
		settings.parse(os.Args)
		publicKey, err := key.ReadPublicKeyFile(settings.keyFile)
		if err != nil {
			log.Fatal("%v", err)
		}
		contents, err := os.ReadFile(settings.signatureFile)
		if err != nil {
			log.Fatal("reading file %q failed: %v", settings.signatureFile, err)
		}
		signature, err := parseSignature(contents, &publicKey, settings.namespace)
		if err != nil {
			log.Fatal("%v", err)
		}
		hash, err := crypto.HashFile(os.Stdin)
		if err != nil {
			log.Fatal("failed to read stdin: %v", err)
		}
		if !crypto.Verify(&publicKey,
			ssh.SignedDataFromHash(settings.namespace, &hash),
			&signature) {
			log.Fatal("signature is not valid")
		}
		log.Debug("signature is valid")
	case "check":
		var settings CheckSettings
		settings.parse(os.Args)
		input, err := fmtio.ReadInput(os.Stdin, settings.keyFile)
		if err != nil {
			log.Error("reading input failed: %v", err)
			os.Exit(exitReadFailure)
		}
		if err := checkPublicKey(string(input)); err != nil {
			log.Error("%v", err)
			os.Exit(checkExitStatus(err))
		}
		if settings.verbose {
			fmt.Println("valid")
		}
	case "to-hash":
		var settings HashSettings
		settings.parse(os.Args)
		publicKey := readPublicKey(settings.keyFile)
		withOutput(settings.outputFile, 0660, func(w io.Writer) error {
			if settings.cid {
				_, err := fmt.Fprintln(w, key.FormatKeyCID(&publicKey))
				return err
			}
			_, err := fmt.Fprintln(w, key.FormatKeyHash(&publicKey))
			return err
		})
	case "to-hex":
		const usage = `
Read a public key in any supported format and output it in hex
format.  The public key is read on stdin and output is written on
stdout.  Override the default behavior using the -k and -o options.
`
		var settings ExportSettings
		settings.parse(os.Args, "Public key", "Public key in hex format", usage)
		publicKey := readPublicKey(settings.keyFile)
		withOutput(settings.outputFile, 0660, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "%x\n", publicKey[:])
			return err
		})
	case "from-hex":
		const usage = `
Read a public key in hex format and output it in OpenSSH format.  The
public key is read on stdin and output is written on stdout.  Override
the default behavior using the -k and -o options.
`
		var settings ExportSettings
		settings.parse(os.Args, "Public key in hex format", "Public key in OpenSSH format", usage)
		pub, err := crypto.PublicKeyFromHex(strings.TrimSpace(readInput(settings.keyFile)))
		if err != nil {
			log.Fatal("invalid key: %v", err)
		}
		withOutput(settings.outputFile, 0660, func(w io.Writer) error {
			_, err := io.WriteString(w, ssh.FormatPublicEd25519(&pub))
			return err
		})
	case "to-multibase":
		const usage = `
Read a public key in any supported format and output it in multibase
format, base58btc of the multicodec-tagged key, as used in did:key
identifiers.  The public key is read on stdin and output is written on
stdout.  Override the default behavior using the -k and -o options.
`
		var settings ExportSettings
		settings.parse(os.Args, "Public key", "Public key in multibase format", usage)
		publicKey := readPublicKey(settings.keyFile)
		withOutput(settings.outputFile, 0660, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, key.FormatMultibase(&publicKey))
			return err
		})
	case "to-mnemonic":
		const usage = `
Read a private key and output it as a 24-word BIP-39 mnemonic, for
backup on paper.  The private key is read on stdin and output is
written on stdout.  Override the default behavior using the -k and -o
options.
`
		var settings ExportSettings
		settings.parse(os.Args, "Private key", "Mnemonic", usage)
		signer, err := key.ParsePrivateKey(readInput(settings.keyFile))
		if err != nil {
			log.Fatal("invalid key: %v", err)
		}
		ed25519Signer, ok := signer.(*crypto.Ed25519Signer)
		if !ok {
			log.Fatal("private key not available, only ssh-agent access")
		}
		secret := ed25519Signer.Private()
		mnemonic, err := key.FormatMnemonic(&secret)
		if err != nil {
			log.Fatal("%v", err)
		}
		withOutput(settings.outputFile, 0600, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, mnemonic)
			return err
		})
	case "from-mnemonic":
		var settings MnemonicImportSettings
		settings.parse(os.Args)
		secret, err := key.ParseMnemonic(readInput(settings.inputFile))
		if err != nil {
			log.Fatal("%v", err)
		}
		if err := key.WriteKeyFiles(settings.outputFile, crypto.NewEd25519Signer(&secret)); err != nil {
			log.Fatal("%v", err)
		}
	case "to-vkey":
		var settings VkeyExportSettings
		settings.parse(os.Args)
		publicKey := readPublicKey(settings.keyFile)
		vkey, err := key.FormatVerifierKey(settings.name, &publicKey)
		if err != nil {
			log.Fatal("%v", err)
		}
		withOutput(settings.outputFile, 0660, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, vkey)
			return err
		})
	case "from-vkey":
		var settings VkeyImportSettings
		settings.parse(os.Args)
		name, publicKey, err := key.ParseVerifierKey(readInput(settings.keyFile))
		if err != nil {
			log.Fatal("%v", err)
		}
		if settings.verbose {
			log.Info("Key name %q", name)
		}
		withOutput(settings.outputFile, 0660, func(w io.Writer) error {
			_, err := io.WriteString(w, ssh.FormatPublicEd25519(&publicKey))
			return err
		})
	case "seal":
		var settings SealSettings
		settings.parse(os.Args)
		signer, err := key.ReadPrivateKeyFile(settings.keyFile)
		if err != nil {
			log.Fatal("%v", err)
		}
		payload, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal("failed to read stdin: %v", err)
		}
		env, err := envelope.Seal(signer, settings.namespace, payload)
		if err != nil {
			log.Fatal("%v", err)
		}
		withOutput(settings.outputFile, 0644, func(w io.Writer) error {
			_, err := w.Write(env.Marshal())
			return err
		})
	case "open":
		var settings OpenSettings
		settings.parse(os.Args)
		msg, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal("failed to read stdin: %v", err)
		}
		env, err := openEnvelope(msg, settings.namespace, settings.keysFile)
		if err != nil {
			log.Fatal("%v", err)
		}
		log.Debug("envelope signed by %x", env.PublicKey[:])
		withOutput(settings.outputFile, 0644, func(w io.Writer) error {
			_, err := w.Write(env.Payload)
			return err
		})
	}
}

// Accepts ssh signature files and raw hex signatures.
func parseSignature(contents []byte, pub *crypto.PublicKey, namespace string) (crypto.Signature, error) {
	signature, err := ssh.ParseSignatureFile(contents, pub, namespace)
	if err == ssh.NoPEMError {
		return crypto.SignatureFromHex(strings.TrimSpace(string(contents)))
	}
	return signature, err
}

func checkPublicKey(ascii string) error {
	_, err := crypto.PublicKeyFromHex(strings.TrimSpace(ascii))
	if err != nil {
		return fmt.Errorf("invalid verification key: %w", err)
	}
	return nil
}

func checkExitStatus(err error) int {
	var rejected *repr.RejectedError
	if errors.As(err, &rejected) {
		return exitRejected
	}
	return exitReadFailure
}

// If keysFile is non-empty, the envelope's key must be listed there.
func openEnvelope(msg []byte, namespace, keysFile string) (*envelope.Envelope, error) {
	env, err := envelope.Unmarshal(msg)
	if err != nil {
		return nil, err
	}
	if len(keysFile) > 0 {
		keys, err := key.ReadPublicKeysFile(keysFile)
		if err != nil {
			return nil, err
		}
		if _, ok := keys[crypto.HashBytes(env.PublicKey[:])]; !ok {
			return nil, fmt.Errorf("envelope signed by unknown key %x", env.PublicKey[:])
		}
	}
	if err := env.Verify(namespace); err != nil {
		return nil, err
	}
	return env, nil
}

func withOutput(outputFile string, mode os.FileMode, f func(io.Writer) error) {
	if err := fmtio.WithOutput(os.Stdout, outputFile, mode, f); err != nil {
		log.Fatal("writing output failed: %v", err)
	}
}

// Reads given file, or stdin.
func readInput(fileName string) string {
	contents, err := fmtio.ReadInput(os.Stdin, fileName)
	if err != nil {
		log.Fatal("Reading input failed: %v", err)
	}
	return string(contents)
}

func readPublicKey(fileName string) crypto.PublicKey {
	publicKey, err := key.ParsePublicKey(readInput(fileName))
	if err != nil {
		log.Fatal("invalid key: %v", err)
	}
	return publicKey
}
