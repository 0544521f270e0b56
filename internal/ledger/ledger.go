// Package ledger defines the contract of the score ledger and the gateway
// the game uses to talk to it.
//
// The ledger is slow and fallible. Nothing in gameplay waits on it: the
// gateway turns every call into an explicit status that callers can show
// or ignore.
package ledger

import (
	"context"
	"errors"

	"github.com/vovakirdan/flappychain/internal/wallet"
)

// Ledger errors shared by every backend.
var (
	ErrUnknownSession = errors.New("ledger: unknown session")
	ErrSessionExists  = errors.New("ledger: session already exists")
	ErrSessionEnded   = errors.New("ledger: session already ended")
	ErrNotOwner       = errors.New("ledger: session belongs to another player")
	ErrInvalidDelta   = errors.New("ledger: score delta must be positive")
	ErrInvalidScore   = errors.New("ledger: score must not be negative")
	ErrUnavailable    = errors.New("ledger: unavailable")
)

// Operation names, also used as RPC method names.
const (
	OpStartSession   = "start_session"
	OpIncrementScore = "increment_score"
	OpEndSession     = "end_session"
	OpHighScore      = "high_score"
	OpLeaderboard    = "leaderboard"
)

// Receipt identifies an accepted write.
type Receipt struct {
	TxHash string `json:"tx_hash"`
	Height int64  `json:"height"`
}

// LeaderboardEntry is one row of the leaderboard: a player's best score.
type LeaderboardEntry struct {
	Player   wallet.Address `json:"player"`
	Score    int            `json:"score"`
	Username string         `json:"username,omitempty"`
}

// Ledger is implemented by every backend (local SQLite, remote node, fakes).
type Ledger interface {
	// StartSession opens a session for player. username is informational.
	StartSession(ctx context.Context, player wallet.Address, session, username string) (Receipt, error)
	// IncrementScore adds delta (> 0) to an open session.
	IncrementScore(ctx context.Context, player wallet.Address, session string, delta int) (Receipt, error)
	// EndSession closes a session with its final score. A session ends once.
	EndSession(ctx context.Context, player wallet.Address, session string, finalScore int) (Receipt, error)
	// HighScore returns the player's best final score, 0 if none.
	HighScore(ctx context.Context, player wallet.Address) (int, error)
	// Leaderboard returns the best score per player, highest first.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	Close() error
}
