package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappychain/internal/wallet"
)

// ErrRetryNotAllowed is returned when a manual retry is requested for a
// session whose end has not failed.
var ErrRetryNotAllowed = errors.New("ledger: retry allowed only after a failed end")

// DefaultTimeout bounds every ledger call when GatewayConfig.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// GatewayConfig holds gateway settings.
type GatewayConfig struct {
	Timeout time.Duration
	Logger  *log.Logger
}

// endAttempt tracks the end-of-session submission of one session.
type endAttempt struct {
	inFlight bool
	failed   bool
	attempts int
}

// Gateway wraps a Ledger with the submission rules of the game:
//   - nothing reaches the ledger without a connected wallet (StatusSkipped)
//   - every call is bounded by a timeout
//   - EndSession is attempted at most once per session; after a failure only
//     an explicit RetryEndSession may try again
//   - errors become statuses and are logged, never returned as panics
//
// A nil Ledger means "no ledger configured": writes are skipped and reads
// are unavailable.
//
// Gateway methods block for up to the timeout and are meant to be called
// off the frame loop. They are safe for concurrent use.
type Gateway struct {
	ledger  Ledger
	wallet  wallet.Connector
	timeout time.Duration
	logger  *log.Logger

	mu   sync.Mutex
	ends map[string]*endAttempt
}

// NewGateway creates a gateway.
func NewGateway(l Ledger, w wallet.Connector, cfg GatewayConfig) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Gateway{
		ledger:  l,
		wallet:  w,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
		ends:    make(map[string]*endAttempt),
	}
}

// Player returns the connected wallet address.
func (g *Gateway) Player() (wallet.Address, bool) {
	if g.wallet == nil {
		return "", false
	}
	return g.wallet.Address()
}

// Enabled reports whether calls would reach a ledger right now.
func (g *Gateway) Enabled() bool {
	_, ok := g.Player()
	return ok && g.ledger != nil
}

// StartSession opens a ledger session for the connected player.
func (g *Gateway) StartSession(ctx context.Context, session string) Result {
	player, ok := g.Player()
	if !ok || g.ledger == nil {
		return Result{Status: StatusSkipped}
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	username, err := g.wallet.Username(ctx)
	if err != nil {
		g.logger.Debug("username lookup failed", "player", player.Short(), "err", err)
		username = ""
	}

	receipt, err := g.ledger.StartSession(ctx, player, session, username)
	return g.write(OpStartSession, session, receipt, err)
}

// IncrementScore records delta points for the session. Failures never
// affect the local score.
func (g *Gateway) IncrementScore(ctx context.Context, session string, delta int) Result {
	player, ok := g.Player()
	if !ok || g.ledger == nil {
		return Result{Status: StatusSkipped}
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	receipt, err := g.ledger.IncrementScore(ctx, player, session, delta)
	return g.write(OpIncrementScore, session, receipt, err)
}

// EndSession submits the final score. Only the first call per session
// reaches the ledger; later calls return StatusDuplicate.
func (g *Gateway) EndSession(ctx context.Context, session string, finalScore int) Result {
	player, ok := g.Player()
	if !ok || g.ledger == nil {
		return Result{Status: StatusSkipped}
	}

	g.mu.Lock()
	if _, seen := g.ends[session]; seen {
		g.mu.Unlock()
		g.logger.Debug("duplicate end session ignored", "session", session)
		return Result{Status: StatusDuplicate}
	}
	attempt := &endAttempt{inFlight: true, attempts: 1}
	g.ends[session] = attempt
	g.mu.Unlock()

	return g.end(ctx, player, session, finalScore, attempt)
}

// RetryEndSession re-submits a final score after a failed EndSession.
// It is never called automatically.
func (g *Gateway) RetryEndSession(ctx context.Context, session string, finalScore int) Result {
	player, ok := g.Player()
	if !ok || g.ledger == nil {
		return Result{Status: StatusSkipped}
	}

	g.mu.Lock()
	attempt, seen := g.ends[session]
	if !seen || attempt.inFlight || !attempt.failed {
		g.mu.Unlock()
		return Result{Status: StatusDuplicate, Err: ErrRetryNotAllowed}
	}
	attempt.inFlight = true
	attempt.attempts++
	g.mu.Unlock()

	g.logger.Info("retrying end session", "session", session, "attempt", attempt.attempts)
	return g.end(ctx, player, session, finalScore, attempt)
}

func (g *Gateway) end(ctx context.Context, player wallet.Address, session string, finalScore int, attempt *endAttempt) Result {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	receipt, err := g.ledger.EndSession(ctx, player, session, finalScore)

	g.mu.Lock()
	attempt.inFlight = false
	attempt.failed = err != nil
	g.mu.Unlock()

	return g.write(OpEndSession, session, receipt, err)
}

// HighScore reads the connected player's best score.
func (g *Gateway) HighScore(ctx context.Context) Read[int] {
	player, ok := g.Player()
	if !ok {
		return Read[int]{Status: StatusSkipped}
	}
	if g.ledger == nil {
		return Read[int]{Status: StatusUnavailable, Err: ErrUnavailable}
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	score, err := g.ledger.HighScore(ctx, player)
	if err != nil {
		g.logger.Warn("high score unavailable", "player", player.Short(), "err", err)
		return Read[int]{Status: StatusUnavailable, Err: err}
	}
	return Read[int]{Status: StatusOK, Value: score}
}

// Leaderboard reads the top entries. It needs a connected wallet like every
// other call.
func (g *Gateway) Leaderboard(ctx context.Context, limit int) Read[[]LeaderboardEntry] {
	if _, ok := g.Player(); !ok {
		return Read[[]LeaderboardEntry]{Status: StatusSkipped}
	}
	if g.ledger == nil {
		return Read[[]LeaderboardEntry]{Status: StatusUnavailable, Err: ErrUnavailable}
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	entries, err := g.ledger.Leaderboard(ctx, limit)
	if err != nil {
		g.logger.Warn("leaderboard unavailable", "err", err)
		return Read[[]LeaderboardEntry]{Status: StatusUnavailable, Err: err}
	}
	return Read[[]LeaderboardEntry]{Status: StatusOK, Value: entries}
}

func (g *Gateway) write(op, session string, receipt Receipt, err error) Result {
	if err != nil {
		g.logger.Warn("ledger write failed", "op", op, "session", session, "err", err)
		return Result{Status: StatusFailed, Err: err}
	}
	g.logger.Debug("ledger write", "op", op, "session", session, "tx", receipt.TxHash, "height", receipt.Height)
	return Result{Status: StatusOK, Receipt: receipt}
}
