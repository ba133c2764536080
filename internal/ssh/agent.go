package ssh

import (
	"fmt"
	"io"
	"net"
	"os"

	"fxchg.org/fx-go/pkg/crypto"
	"fxchg.org/fx-go/pkg/wire"
)

const (
	sshAgentEnv          = "SSH_AUTH_SOCK"
	sshAgentFailure      = 5
	sshAgentSignRequest  = 13
	sshAgentSignResponse = 14

	// Responses we expect are a single signature.
	maxResponseLength = 1000
)

type Connection struct {
	conn io.ReadWriter
}

type Signer struct {
	publicKey crypto.PublicKey
	conn      *Connection
}

func ConnectTo(sockName string) (*Connection, error) {
	conn, err := net.Dial("unix", sockName)
	if err != nil {
		return nil, err
	}
	return &Connection{conn: conn}, nil
}

func Connect() (*Connection, error) {
	if sockName := os.Getenv(sshAgentEnv); len(sockName) > 0 {
		return ConnectTo(sockName)
	}
	return nil, fmt.Errorf("no ssh-agent available")
}

// Messages in both directions are framed as an ssh string, a uint32
// length followed by the body.
func (c *Connection) request(msg []byte) ([]byte, error) {
	if len(msg) > int32Max {
		return nil, fmt.Errorf("agent request too large: %d bytes", len(msg))
	}
	w := wire.NewWriter(4 + len(msg))
	w.AddUint32(uint32(len(msg)))
	w.AddArray(msg)
	if _, err := c.conn.Write(w.Bytes()); err != nil {
		return nil, err
	}

	var header [4]byte
	if _, err := io.ReadFull(c.conn, header[:]); err != nil {
		return nil, err
	}
	var length uint32
	if err := wire.NewReader(header[:]).Uint32("length", &length); err != nil {
		return nil, err
	}
	if length == 0 || length > maxResponseLength {
		return nil, fmt.Errorf("read from agent gave unexpected length: %d", length)
	}
	buffer := make([]byte, length)
	if _, err := io.ReadFull(c.conn, buffer); err != nil {
		return nil, err
	}
	return buffer, nil
}

func (c *Connection) SignEd25519(publicKey *crypto.PublicKey, msg []byte) (crypto.Signature, error) {
	w := wire.NewWriter(0)
	w.AddArray([]byte{sshAgentSignRequest})
	w.AddArray(serializeString(serializePublicEd25519(publicKey)))
	w.AddArray(serializeString(msg))
	w.AddUint32(0) // flags
	buffer, err := c.request(w.Bytes())
	if err != nil {
		return crypto.Signature{}, err
	}

	r := wire.NewReader(buffer)
	var msgType [1]byte
	if err := r.Array("type", msgType[:]); err != nil {
		return crypto.Signature{}, err
	}
	switch msgType[0] {
	case sshAgentFailure:
		return crypto.Signature{}, fmt.Errorf("ssh-agent refused signature request")
	case sshAgentSignResponse:
		return parseSignature(r.Rest())
	default:
		return crypto.Signature{}, fmt.Errorf("unexpected ssh-agent response, type %d", msgType[0])
	}
}

// NewSigner returns a crypto.Signer for a key held by the agent. The
// key is not checked against the agent's identities; a missing key
// makes Sign fail.
func (c *Connection) NewSigner(publicKey *crypto.PublicKey) *Signer {
	return &Signer{publicKey: *publicKey, conn: c}
}

func (s *Signer) Sign(message []byte) (crypto.Signature, error) {
	return s.conn.SignEd25519(&s.publicKey, message)
}

func (s *Signer) Public() crypto.PublicKey {
	return s.publicKey
}
