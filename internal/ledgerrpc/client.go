package ledgerrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/registry"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

// Client is a ledger.Ledger backed by a remote ledger node.
type Client struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan response
	err     error // Set once the connection is gone
	done    chan struct{}
}

// Dial connects to a ledger node at url (ws:// or wss://).
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("ledgerrpc: dial %s: %w", url, err)
	}

	c := &Client{
		conn:    conn,
		pending: make(map[string]chan response),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// readLoop delivers responses to waiting calls until the connection fails.
func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(fmt.Errorf("%w: %v", ledger.ErrUnavailable, err))
			return
		}

		var resp response
		if err := json.Unmarshal(payload, &resp); err != nil {
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

// fail records err and releases every waiting call.
func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

func (c *Client) call(ctx context.Context, method string, p params, out any) error {
	id := uuid.NewString()
	ch := make(chan response, 1)

	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return err
	}
	c.pending[id] = ch
	c.mu.Unlock()

	data, err := json.Marshal(request{Ver: ProtocolVersion, ID: id, Method: method, Params: p})
	if err != nil {
		c.forget(id)
		return fmt.Errorf("ledgerrpc: marshal %s: %w", method, err)
	}

	c.writeMu.Lock()
	err = c.conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return fmt.Errorf("%w: write %s: %v", ledger.ErrUnavailable, method, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			c.mu.Lock()
			err := c.err
			c.mu.Unlock()
			return err
		}
		if resp.Error != nil {
			return resp.Error.decode()
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("ledgerrpc: decode %s result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	}
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) StartSession(ctx context.Context, player wallet.Address, session, username string) (ledger.Receipt, error) {
	var r ledger.Receipt
	err := c.call(ctx, ledger.OpStartSession, params{Player: player, Session: session, Username: username}, &r)
	return r, err
}

func (c *Client) IncrementScore(ctx context.Context, player wallet.Address, session string, delta int) (ledger.Receipt, error) {
	var r ledger.Receipt
	err := c.call(ctx, ledger.OpIncrementScore, params{Player: player, Session: session, Delta: delta}, &r)
	return r, err
}

func (c *Client) EndSession(ctx context.Context, player wallet.Address, session string, finalScore int) (ledger.Receipt, error) {
	var r ledger.Receipt
	err := c.call(ctx, ledger.OpEndSession, params{Player: player, Session: session, Score: finalScore}, &r)
	return r, err
}

func (c *Client) HighScore(ctx context.Context, player wallet.Address) (int, error) {
	var score int
	err := c.call(ctx, ledger.OpHighScore, params{Player: player}, &score)
	return score, err
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]ledger.LeaderboardEntry, error) {
	var entries []ledger.LeaderboardEntry
	err := c.call(ctx, ledger.OpLeaderboard, params{Limit: limit}, &entries)
	return entries, err
}

// Close closes the connection. Calls still waiting fail with ledger.ErrUnavailable.
func (c *Client) Close() error {
	c.writeMu.Lock()
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	err := c.conn.Close()
	<-c.done
	return err
}

// Ensure Client implements ledger.Ledger
var _ ledger.Ledger = (*Client)(nil)

func init() {
	open := func(ctx context.Context, dsn registry.DSN) (ledger.Ledger, error) {
		return Dial(ctx, dsn.Raw)
	}
	registry.Register("ws", "Remote ledger node", open)
	registry.Register("wss", "Remote ledger node (TLS)", open)
}
