package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/flappychain/internal/ledger"
)

// walletTimeout bounds connect and disconnect calls.
const walletTimeout = 10 * time.Second

func (c *Controller) walletConnected() bool {
	if c.wallet == nil {
		return false
	}
	_, ok := c.wallet.Address()
	return ok
}

// ToggleWallet connects a disconnected wallet or disconnects a connected
// one. Connector errors leave the wallet "not connected" and are only logged.
func (c *Controller) ToggleWallet() {
	if c.wallet == nil || c.walletSt.busy {
		return
	}
	c.walletSt.busy = true
	c.walletSt.err = ""
	c.walletSt.gen++
	gen := c.walletSt.gen

	if c.walletConnected() {
		c.closeOnDisconnect(func() {
			ctx, cancel := context.WithTimeout(context.Background(), walletTimeout)
			defer cancel()
			err := c.wallet.Disconnect(ctx)
			c.post(uuid.Nil, func() { c.walletDisconnected(gen, err) })
		})
		return
	}

	c.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), walletTimeout)
		defer cancel()
		err := c.wallet.Connect(ctx)
		c.post(uuid.Nil, func() { c.walletConnectDone(gen, err) })
	})
}

func (c *Controller) walletConnectDone(gen int, err error) {
	if gen != c.walletSt.gen {
		return
	}
	c.walletSt.busy = false
	if err != nil {
		c.logger.Warn("wallet connection error", "err", err)
		c.walletSt.err = "not connected"
		return
	}
	addr, _ := c.wallet.Address()
	c.logger.Info("wallet connected", "address", addr.Short())
	c.refreshWallet()
}

func (c *Controller) walletDisconnected(gen int, err error) {
	if gen != c.walletSt.gen {
		return
	}
	c.walletSt.busy = false
	if err != nil {
		c.logger.Warn("wallet disconnect error", "err", err)
	}
	c.walletSt.username = ""
	c.ledgerBest = ledger.Read[int]{Status: ledger.StatusSkipped}
	c.logger.Info("wallet disconnected")
}

// refreshWallet fetches the username and the ledger high score.
func (c *Controller) refreshWallet() {
	gen := c.walletSt.gen
	c.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), walletTimeout)
		defer cancel()
		name, err := c.wallet.Username(ctx)
		c.post(uuid.Nil, func() {
			if gen != c.walletSt.gen {
				return
			}
			if err != nil {
				c.logger.Debug("username lookup failed", "err", err)
				return
			}
			c.walletSt.username = name
		})
	})
	c.refreshHighScore()
}

// refreshHighScore reads the ledger high score in the background.
func (c *Controller) refreshHighScore() {
	gen := c.walletSt.gen
	c.spawn(func() {
		read := c.gateway.HighScore(context.Background())
		c.post(uuid.Nil, func() {
			if gen != c.walletSt.gen {
				return
			}
			c.ledgerBest = read
		})
	})
}
