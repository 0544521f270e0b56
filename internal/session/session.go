// Package session ties one player's game together: it owns the physics
// engine, the state machine, the input dispatcher, the audio registry and
// the wallet, and bridges score events to the ledger gateway without ever
// letting the ledger block a frame.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

// Session is one Playing round, from start to its submitted final score.
// It is created when Splash moves to Playing and discarded when the player
// replays.
type Session struct {
	ID                 uuid.UUID
	Active             bool // True while the round is being played
	StartedAt          time.Time
	CurrentScore       int
	SubmissionInFlight bool // An end-of-session call is pending
	Finalized          bool // The end-of-session call returned (any status)
	StartResult        ledger.Result
	EndResult          ledger.Result

	// writes chains ledger writes so they reach the ledger in order.
	writes chan struct{}
	// chain is only touched by the session's ledger writes.
	chain *ledgerSession
	// closing is set once a disconnect ended the ledger session mid-round.
	closing bool
	// submitted is the score sent with the last end-of-session call.
	submitted int
}

// ledgerSession is the ledger side of a session, as seen by its write
// chain. A session takes part in the ledger only if StartSession succeeded,
// and only for the wallet that started it.
type ledgerSession struct {
	player wallet.Address // Empty: not on the ledger
	ended  bool
}

// CanRetry reports whether a manual end-of-session retry is possible.
// Sessions that never started on the ledger have nothing to retry.
func (s *Session) CanRetry() bool {
	return s.StartResult.OK() && s.Finalized && !s.SubmissionInFlight &&
		s.EndResult.Status == ledger.StatusFailed
}

// snapshot returns a copy safe to hand to the view.
func (s *Session) snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.writes = nil
	cp.chain = nil
	return &cp
}
