package main

import (
	"fmt"
	"os"

	"github.com/pborman/getopt/v2"

	"fxchg.org/fx-go/pkg/log"
)

type GenSettings struct {
	outputFile string
}

type SignSettings struct {
	keyFile    string
	outputFile string
	namespace  string
	sshFormat  bool
}

type VerifySettings struct {
	keyFile       string
	signatureFile string
	namespace     string
}

type CheckSettings struct {
	keyFile string
	verbose bool
}

type ExportSettings struct {
	keyFile    string
	outputFile string
}

type HashSettings struct {
	keyFile    string
	outputFile string
	cid        bool
}

type MnemonicImportSettings struct {
	inputFile  string
	outputFile string
}

type VkeyExportSettings struct {
	keyFile    string
	outputFile string
	name       string
}

type VkeyImportSettings struct {
	keyFile    string
	outputFile string
	verbose    bool
}

type SealSettings struct {
	keyFile    string
	outputFile string
	namespace  string
}

type OpenSettings struct {
	keysFile   string
	outputFile string
	namespace  string
}

func newOptionSet(args []string, params string) *getopt.Set {
	set := getopt.New()
	set.SetProgram(args[0] + " " + args[1])
	set.SetParameters(params)
	return set
}

// Also adds and processes the help and log-level options.
func parseArgs(set *getopt.Set, args []string, maxArgs int, usage string) {
	help := false
	logLevel := "info"
	set.FlagLong(&help, "help", 0, "Show usage message and exit")
	set.FlagLong(&logLevel, "log-level", 0, "One of debug, info, warning, error", "level")
	err := set.Getopt(args[1:], nil)
	// Check help first; if seen, ignore errors about missing mandatory arguments.
	if help {
		fmt.Print(usage[1:] + "\n")
		set.PrintUsage(os.Stdout)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "err: %v\n", err)
		set.PrintUsage(os.Stderr)
		os.Exit(1)
	}
	if set.NArgs() > maxArgs {
		log.Fatal("Too many arguments.")
	}
	if err := log.SetLevelFromString(logLevel); err != nil {
		log.Fatal("%v", err)
	}
}

func parseNoArgs(set *getopt.Set, args []string, usage string) {
	parseArgs(set, args, 0, usage)
}

func (s *GenSettings) parse(args []string) {
	const usage = `
Create a new key pair. The private key is stored in the given file
in OpenSSH private-key format. The corresponding public-key file gets
a ".pub" suffix and is written in OpenSSH public-key format.
`
	set := newOptionSet(args, "")
	set.FlagLong(&s.outputFile, "output", 'o', "File to store the private key in", "key-file").Mandatory()
	parseNoArgs(set, args, usage)
}

func (s *SignSettings) parse(args []string) {
	const usage = `
Create an Ed25519 signature over the ssh signed-data blob for the
message and the given namespace.  The default behavior is to use an
empty namespace.

The message to sign is provided on stdin.
`
	set := newOptionSet(args, "< msg")
	set.FlagLong(&s.keyFile, "signing-key", 'k', "Private key; or a corresponding OpenSSH public key where the private part is accessed using the SSH agent protocol", "key-file").Mandatory()
	set.FlagLong(&s.outputFile, "output", 'o', "Signature output file", "output-file")
	set.FlagLong(&s.namespace, "namespace", 'n', "Signature namespace to ensure domain separation", "namespace")
	set.FlagLong(&s.sshFormat, "ssh", 0, "Write an OpenSSH signature file, rather than raw hex")
	parseNoArgs(set, args, usage)
}

func (s *VerifySettings) parse(args []string) {
	const usage = `
Verify an Ed25519 signature with a given namespace.  The signature
file may be in OpenSSH signature format, or raw hex.

The message to verify is provided on stdin.
`
	set := newOptionSet(args, "< msg")
	set.FlagLong(&s.keyFile, "key", 'k', "Public key", "key-file").Mandatory()
	set.FlagLong(&s.signatureFile, "signature", 's', "Signature file", "sig-file").Mandatory()
	set.FlagLong(&s.namespace, "namespace", 'n', "Signature namespace to ensure domain separation", "namespace")
	parseNoArgs(set, args, usage)
}

func (s *CheckSettings) parse(args []string) {
	const usage = `
Check that a hex-encoded public key is a valid Ed25519 verification
key, i.e., a point on the curve.  The key is read on stdin unless the
-k option is used.  Exit status is 1 if the key is rejected, and 2 if
it could not be read or is not 64 hex digits.
`
	set := newOptionSet(args, "")
	set.FlagLong(&s.keyFile, "key", 'k', "Public key in hex format", "key-file")
	set.FlagLong(&s.verbose, "verbose", 'v', "Print \"valid\" on success")
	parseNoArgs(set, args, usage)
}

func (s *ExportSettings) parse(args []string, keyHelp, outputHelp, usage string) {
	set := newOptionSet(args, "")
	set.FlagLong(&s.keyFile, "key", 'k', keyHelp, "key-file")
	set.FlagLong(&s.outputFile, "output", 'o', outputHelp, "output-file")
	parseNoArgs(set, args, usage)
}

func (s *HashSettings) parse(args []string) {
	const usage = `
Read a public key in any supported format and output its hash in hex
format, or with --cid, as a CIDv1 of the same sha256 digest.  The
public key is read on stdin and output is written on stdout.  Override
the default behavior using the -k and -o options.
`
	set := newOptionSet(args, "")
	set.FlagLong(&s.keyFile, "key", 'k', "Public key", "key-file")
	set.FlagLong(&s.outputFile, "output", 'o', "Hashed public key", "output-file")
	set.FlagLong(&s.cid, "cid", 0, "Output a CIDv1 instead of hex")
	parseNoArgs(set, args, usage)
}

func (s *MnemonicImportSettings) parse(args []string) {
	const usage = `
Read a BIP-39 mnemonic, as produced by to-mnemonic, and recreate the
key pair.  The mnemonic is read on stdin unless the -i option is used.
Key files are written as for the generate command.
`
	set := newOptionSet(args, "")
	set.FlagLong(&s.inputFile, "input", 'i', "Mnemonic file", "input-file")
	set.FlagLong(&s.outputFile, "output", 'o', "File to store the private key in", "key-file").Mandatory()
	parseNoArgs(set, args, usage)
}

func (s *VkeyExportSettings) parse(args []string) {
	const usage = `
Read a public key in any supported format and output it in vkey
format, as used for signed notes.  The public key is read on stdin and
output is written on stdout.  Override the default behavior using the
-k and -o options.

The best practice is to use a schemaless URL for the name, e.g.,
foo.example.org and example.org/bar would be two good examples.
`
	set := newOptionSet(args, "")
	set.FlagLong(&s.keyFile, "key", 'k', "Public key", "key-file")
	set.FlagLong(&s.outputFile, "output", 'o', "Public key in vkey format", "output-file")
	set.FlagLong(&s.name, "name", 'n', "Name of the public key", "key-name").Mandatory()
	parseNoArgs(set, args, usage)
}

func (s *VkeyImportSettings) parse(args []string) {
	const usage = `
Read a public key in vkey format and output it in OpenSSH format.  The
public key is read on stdin and output is written on stdout.  Override
the default behavior using the -k and -o options.
`
	set := newOptionSet(args, "")
	set.FlagLong(&s.keyFile, "key", 'k', "Public key in vkey format", "key-file")
	set.FlagLong(&s.outputFile, "output", 'o', "Public key in OpenSSH format", "output-file")
	set.FlagLong(&s.verbose, "verbose", 'v', "Display name of the key")
	parseNoArgs(set, args, usage)
}

func (s *SealSettings) parse(args []string) {
	const usage = `
Wrap the payload read on stdin in a signed envelope, carrying the
signer's public key and a signature bound to the namespace.
`
	set := newOptionSet(args, "< payload")
	set.FlagLong(&s.keyFile, "signing-key", 'k', "Private key, or public key for ssh-agent access", "key-file").Mandatory()
	set.FlagLong(&s.outputFile, "output", 'o', "Envelope output file", "output-file")
	set.FlagLong(&s.namespace, "namespace", 'n', "Signature namespace to ensure domain separation", "namespace")
	parseNoArgs(set, args, usage)
}

func (s *OpenSettings) parse(args []string) {
	const usage = `
Verify the signed envelope read on stdin and output its payload.  If
the -k option is used, the signer must be one of the listed keys.
`
	set := newOptionSet(args, "< envelope")
	set.FlagLong(&s.keysFile, "keys", 'k', "File with one trusted public key per line", "keys-file")
	set.FlagLong(&s.outputFile, "output", 'o', "Payload output file", "output-file")
	set.FlagLong(&s.namespace, "namespace", 'n', "Signature namespace to ensure domain separation", "namespace")
	parseNoArgs(set, args, usage)
}
