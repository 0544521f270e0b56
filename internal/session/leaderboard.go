package session

import (
	"context"

	"github.com/google/uuid"
)

// OpenLeaderboard shows the leaderboard overlay and fetches its entries.
// Gameplay keeps running underneath.
func (c *Controller) OpenLeaderboard() {
	c.board.open = true
	c.board.loading = true
	c.board.gen++
	gen := c.board.gen
	limit := c.cfg.Ledger.LeaderboardSize

	c.spawn(func() {
		read := c.gateway.Leaderboard(context.Background(), limit)
		c.post(uuid.Nil, func() {
			if gen != c.board.gen || !c.board.open {
				return
			}
			c.board.loading = false
			c.board.read = read
		})
	})
}

// CloseLeaderboard hides the overlay. A fetch still in flight is ignored.
func (c *Controller) CloseLeaderboard() {
	c.board.open = false
	c.board.loading = false
	c.board.gen++
}

// LeaderboardOpen reports whether the overlay is shown.
func (c *Controller) LeaderboardOpen() bool {
	return c.board.open
}
