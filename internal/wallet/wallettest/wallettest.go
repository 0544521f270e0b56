// Package wallettest provides an in-memory wallet connector for tests.
package wallettest

import (
	"context"
	"sync"

	"github.com/vovakirdan/flappychain/internal/wallet"
)

// Connector is a scriptable wallet.Connector.
type Connector struct {
	mu         sync.Mutex
	addr       wallet.Address
	name       string
	connected  bool
	connectErr error
	connects   int
}

// New returns a disconnected connector that will connect as addr.
func New(addr wallet.Address, name string) *Connector {
	return &Connector{addr: addr, name: name}
}

// Connected returns a connector that is already connected.
func Connected(addr wallet.Address, name string) *Connector {
	c := New(addr, name)
	c.connected = true
	return c
}

// FailConnect makes every later Connect return err.
func (c *Connector) FailConnect(err error) {
	c.mu.Lock()
	c.connectErr = err
	c.mu.Unlock()
}

// Connects returns how many times Connect was called.
func (c *Connector) Connects() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

func (c *Connector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *Connector) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	return nil
}

func (c *Connector) Address() (wallet.Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return "", false
	}
	return c.addr, true
}

func (c *Connector) Username(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return "", wallet.ErrNotConnected
	}
	return c.name, nil
}
