// Package wallet connects a player identity to the ledger.
//
// An address is derived from an SSH public key, so the same key always maps
// to the same ledger account whether the player runs locally or over SSH.
package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/ssh"
)

var (
	// ErrNoKey is returned by Connect when no public key is available.
	ErrNoKey = errors.New("wallet: no public key")
	// ErrNotConnected is returned by operations that need a connected wallet.
	ErrNotConnected = errors.New("wallet: not connected")
)

// Address identifies a player on the ledger.
type Address string

// String returns the full address.
func (a Address) String() string {
	return string(a)
}

// Short returns an abbreviated form like 0x1234…abcd for status lines.
func (a Address) Short() string {
	s := string(a)
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

// Valid reports whether a looks like a derived address.
func (a Address) Valid() bool {
	s := string(a)
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

// Connector is the wallet boundary used by the game.
type Connector interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	// Address returns the connected address, or false when disconnected.
	Address() (Address, bool)
	Username(ctx context.Context) (string, error)
}

// AddressFromKey derives an address: 0x followed by the first 20 bytes of
// the SHA-256 of the key's wire encoding.
func AddressFromKey(key ssh.PublicKey) Address {
	sum := sha256.Sum256(key.Marshal())
	return Address("0x" + hex.EncodeToString(sum[:20]))
}

// KeyConnector is a Connector backed by an SSH public key.
type KeyConnector struct {
	key  ssh.PublicKey
	user string

	mu        sync.RWMutex
	connected bool
}

// NewKeyConnector creates a disconnected connector. key may be nil, in which
// case Connect always fails with ErrNoKey.
func NewKeyConnector(key ssh.PublicKey, user string) *KeyConnector {
	return &KeyConnector{key: key, user: user}
}

// Connect marks the wallet connected.
func (c *KeyConnector) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("wallet: connect: %w", err)
	}
	if c.key == nil {
		return ErrNoKey
	}
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	return nil
}

// Disconnect marks the wallet disconnected. Disconnecting twice is not an error.
func (c *KeyConnector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

// Address returns the derived address while connected.
func (c *KeyConnector) Address() (Address, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.key == nil {
		return "", false
	}
	return AddressFromKey(c.key), true
}

// Username returns the SSH user name, falling back to $USER.
func (c *KeyConnector) Username(ctx context.Context) (string, error) {
	if _, ok := c.Address(); !ok {
		return "", ErrNotConnected
	}
	if c.user != "" {
		return c.user, nil
	}
	if u := os.Getenv("USER"); u != "" {
		return u, nil
	}
	return "", errors.New("wallet: username unknown")
}

// ParseKey parses a public key in authorized_keys format.
func ParseKey(data []byte) (ssh.PublicKey, error) {
	key, _, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, fmt.Errorf("wallet: parse key: %w", err)
	}
	return key, nil
}

// LoadKey reads a public key file. An empty path tries the usual keys in
// ~/.ssh and returns ErrNoKey when none exists.
func LoadKey(path string) (ssh.PublicKey, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("wallet: read key: %w", err)
		}
		return ParseKey(data)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, ErrNoKey
	}
	for _, name := range []string{"id_ed25519.pub", "id_ecdsa.pub", "id_rsa.pub"} {
		data, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		if key, err := ParseKey(data); err == nil {
			return key, nil
		}
	}
	return nil, ErrNoKey
}
