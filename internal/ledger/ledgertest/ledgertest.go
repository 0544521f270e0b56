// Package ledgertest provides an in-memory ledger with failure injection.
package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

type session struct {
	player wallet.Address
	score  int
	ended  bool
	final  int
}

type best struct {
	score    int
	username string
}

// Ledger is an in-memory ledger.Ledger. Operations can be made to fail or
// to block until released, and every call is counted.
type Ledger struct {
	mu       sync.Mutex
	sessions map[string]*session
	names    map[wallet.Address]string
	best     map[wallet.Address]best
	height   int64
	calls    map[string]int
	errs     map[string]error
	gate     chan struct{}
	closed   bool
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		sessions: make(map[string]*session),
		names:    make(map[wallet.Address]string),
		best:     make(map[wallet.Address]best),
		calls:    make(map[string]int),
		errs:     make(map[string]error),
	}
}

// Fail makes op return err until cleared with Fail(op, nil).
func (l *Ledger) Fail(op string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err == nil {
		delete(l.errs, op)
		return
	}
	l.errs[op] = err
}

// Block makes every call wait until the returned release func is called
// or the call's context is done.
func (l *Ledger) Block() (release func()) {
	gate := make(chan struct{})
	l.mu.Lock()
	l.gate = gate
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			if l.gate == gate {
				l.gate = nil
			}
			l.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many times op was invoked.
func (l *Ledger) Calls(op string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[op]
}

// SessionScore returns the tallied score of a session and whether it ended.
func (l *Ledger) SessionScore(id string) (score int, ended bool, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[id]
	if !ok {
		return 0, false, false
	}
	return s.score, s.ended, true
}

// SetHighScore seeds a player's best score.
func (l *Ledger) SetHighScore(player wallet.Address, score int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.best[player] = best{score: score, username: l.names[player]}
}

// enter counts the call, waits on the gate and returns the injected error.
func (l *Ledger) enter(ctx context.Context, op string) error {
	l.mu.Lock()
	l.calls[op]++
	gate := l.gate
	err := l.errs[op]
	closed := l.closed
	l.mu.Unlock()

	if closed {
		return ledger.ErrUnavailable
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (l *Ledger) receipt(op string) ledger.Receipt {
	l.height++
	return ledger.Receipt{TxHash: fmt.Sprintf("0x%s%06d", op[:3], l.height), Height: l.height}
}

func (l *Ledger) StartSession(ctx context.Context, player wallet.Address, id, username string) (ledger.Receipt, error) {
	if err := l.enter(ctx, ledger.OpStartSession); err != nil {
		return ledger.Receipt{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.sessions[id]; ok {
		return ledger.Receipt{}, ledger.ErrSessionExists
	}
	l.sessions[id] = &session{player: player}
	if username != "" {
		l.names[player] = username
	}
	return l.receipt(ledger.OpStartSession), nil
}

func (l *Ledger) IncrementScore(ctx context.Context, player wallet.Address, id string, delta int) (ledger.Receipt, error) {
	if err := l.enter(ctx, ledger.OpIncrementScore); err != nil {
		return ledger.Receipt{}, err
	}
	if delta <= 0 {
		return ledger.Receipt{}, ledger.ErrInvalidDelta
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.open(player, id)
	if err != nil {
		return ledger.Receipt{}, err
	}
	s.score += delta
	return l.receipt(ledger.OpIncrementScore), nil
}

func (l *Ledger) EndSession(ctx context.Context, player wallet.Address, id string, finalScore int) (ledger.Receipt, error) {
	if err := l.enter(ctx, ledger.OpEndSession); err != nil {
		return ledger.Receipt{}, err
	}
	if finalScore < 0 {
		return ledger.Receipt{}, ledger.ErrInvalidScore
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	s, err := l.open(player, id)
	if err != nil {
		return ledger.Receipt{}, err
	}
	s.ended = true
	s.final = finalScore
	if b := l.best[player]; finalScore > b.score {
		l.best[player] = best{score: finalScore, username: l.names[player]}
	}
	return l.receipt(ledger.OpEndSession), nil
}

// open returns an open session owned by player. Callers hold l.mu.
func (l *Ledger) open(player wallet.Address, id string) (*session, error) {
	s, ok := l.sessions[id]
	if !ok {
		return nil, ledger.ErrUnknownSession
	}
	if s.player != player {
		return nil, ledger.ErrNotOwner
	}
	if s.ended {
		return nil, ledger.ErrSessionEnded
	}
	return s, nil
}

func (l *Ledger) HighScore(ctx context.Context, player wallet.Address) (int, error) {
	if err := l.enter(ctx, ledger.OpHighScore); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.best[player].score, nil
}

func (l *Ledger) Leaderboard(ctx context.Context, limit int) ([]ledger.LeaderboardEntry, error) {
	if err := l.enter(ctx, ledger.OpLeaderboard); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]ledger.LeaderboardEntry, 0, len(l.best))
	for player, b := range l.best {
		if b.score <= 0 {
			continue
		}
		entries = append(entries, ledger.LeaderboardEntry{Player: player, Score: b.score, Username: b.username})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Player < entries[j].Player
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Close makes every later call fail with ledger.ErrUnavailable.
func (l *Ledger) Close() error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return nil
}
