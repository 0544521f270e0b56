package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/flappychain/internal/audio"
	"github.com/vovakirdan/flappychain/internal/config"
	"github.com/vovakirdan/flappychain/internal/core"
	"github.com/vovakirdan/flappychain/internal/game"
	"github.com/vovakirdan/flappychain/internal/input"
	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/physics"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

// Options configures a Controller.
type Options struct {
	Config  config.Config
	Seed    int64
	Gateway *ledger.Gateway  // Defaults to a gateway without a ledger
	Wallet  wallet.Connector // May be nil: always disconnected
	Audio   *audio.Registry  // May be nil: silent
	Logger  *log.Logger      // Defaults to log.Default()
	Clock   core.Clock       // Defaults to core.RealClock
	Spawn   func(func())     // Runs async work; defaults to a goroutine
}

// completion is the result of async work, applied on the next Tick.
type completion struct {
	session uuid.UUID // uuid.Nil: not tied to a session
	apply   func()
}

// walletState is what the controller knows about the wallet.
type walletState struct {
	busy     bool
	username string
	err      string
	gen      int
}

// boardState is the leaderboard overlay.
type boardState struct {
	open    bool
	loading bool
	read    ledger.Read[[]ledger.LeaderboardEntry]
	gen     int
}

// Controller runs the game for one player.
//
// All methods except the completion callbacks run on one goroutine (the
// frame loop). Async ledger and wallet work posts completions that Tick
// applies; completions for a session that is no longer current, or arriving
// after Close, are dropped.
type Controller struct {
	cfg        config.Config
	seed       int64
	round      int64
	engine     *physics.Engine
	machine    *game.Machine
	dispatcher *input.Dispatcher
	gateway    *ledger.Gateway
	wallet     wallet.Connector
	audio      *audio.Registry
	logger     *log.Logger
	clock      core.Clock
	spawn      func(func())

	input   core.InputFrame
	session *Session

	localBest  int
	ledgerBest ledger.Read[int]
	walletSt   walletState
	board      boardState

	mounted bool

	mu     sync.Mutex
	inbox  []completion
	closed bool
}

// New creates a controller. Call Mount before the first Tick.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = core.RealClock{}
	}
	if opts.Spawn == nil {
		opts.Spawn = func(f func()) { go f() }
	}
	if opts.Audio == nil {
		opts.Audio = audio.NewRegistry(nil, opts.Logger)
	}
	if opts.Gateway == nil {
		opts.Gateway = ledger.NewGateway(nil, opts.Wallet, ledger.GatewayConfig{Logger: opts.Logger})
	}

	return &Controller{
		cfg:        opts.Config,
		seed:       opts.Seed,
		engine:     physics.NewEngine(opts.Config, opts.Seed),
		machine:    game.NewMachine(opts.Config.SplashFade(), opts.Config.ScoreReveal()),
		dispatcher: input.NewDispatcher(opts.Config.Input.PrimaryKey),
		gateway:    opts.Gateway,
		wallet:     opts.Wallet,
		audio:      opts.Audio,
		logger:     opts.Logger,
		clock:      opts.Clock,
		spawn:      opts.Spawn,
		input:      core.NewInputFrame(),
		ledgerBest: ledger.Read[int]{Status: ledger.StatusSkipped},
		board:      boardState{read: ledger.Read[[]ledger.LeaderboardEntry]{Status: ledger.StatusSkipped}},
	}
}

// Mount loads audio and, if a wallet is already connected, fetches the
// player's name and best score.
func (c *Controller) Mount() {
	if c.mounted || c.isClosed() {
		return
	}
	c.mounted = true
	if err := c.audio.LoadAll(audio.AllCues...); err != nil {
		c.logger.Debug("some audio cues unavailable", "err", err)
	}
	if c.walletConnected() {
		c.refreshWallet()
	}
	c.logger.Debug("controller mounted", "seed", c.seed)
}

// Close releases audio and drops every pending and future completion.
// In-flight ledger calls run to completion but their results are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.inbox = nil
	c.mu.Unlock()

	if err := c.audio.Close(); err != nil {
		c.logger.Debug("audio close failed", "err", err)
	}
	c.logger.Debug("controller closed")
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// post queues a completion. Safe for concurrent use.
func (c *Controller) post(session uuid.UUID, apply func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.inbox = append(c.inbox, completion{session: session, apply: apply})
}

// drain applies queued completions in arrival order.
func (c *Controller) drain() {
	c.mu.Lock()
	pending := c.inbox
	c.inbox = nil
	c.mu.Unlock()

	for _, done := range pending {
		if done.session != uuid.Nil && (c.session == nil || c.session.ID != done.session) {
			c.logger.Debug("discarding stale completion", "session", done.session)
			continue
		}
		done.apply()
	}
}

// Tick advances the game by dt: completions first, then queued input, then
// the state machine's timers, then physics while Playing.
func (c *Controller) Tick(dt time.Duration) {
	if c.isClosed() {
		return
	}
	c.drain()

	for _, a := range c.input.Actions() {
		c.apply(a)
	}
	c.input.Clear()

	c.machine.Update(dt)

	if c.machine.State() != game.StatePlaying {
		return
	}

	res := c.engine.Step(dt)
	if res.Scored > 0 {
		c.scored(res.Scored)
	}
	if res.Collided() {
		c.collided(res.Collision)
	}
}

// HandleKey routes a key press. It returns true if the key meant something.
func (c *Controller) HandleKey(ev input.KeyEvent) bool {
	d := c.dispatcher.Key(c.machine.State(), ev)
	if d.Action == core.ActionNone {
		return false
	}
	c.input.Push(d.Action)
	return true
}

// HandleClick routes a click to a UI control or to gameplay.
func (c *Controller) HandleClick(ev input.ClickEvent) input.Decision {
	d := c.dispatcher.Click(c.machine.State(), ev)
	switch d.Region {
	case input.RegionNone:
		c.input.Push(d.Action)
	case input.RegionWallet:
		c.ToggleWallet()
	case input.RegionLeaderboard:
		c.OpenLeaderboard()
	case input.RegionModalClose:
		c.CloseLeaderboard()
	case input.RegionRetrySubmit:
		c.RetrySubmission()
	}
	return d
}

// SetRegions updates where the UI controls are drawn.
func (c *Controller) SetRegions(regions []input.Region) {
	c.dispatcher.SetRegions(regions)
}

func (c *Controller) apply(a core.Action) {
	switch a {
	case core.ActionPrimary:
		switch c.machine.Primary() {
		case game.OutcomeStarted:
			c.begin()
		case game.OutcomeJump:
			if c.engine.Jump() {
				c.audio.Play(audio.Wing)
			}
		}
	case core.ActionReplay:
		if c.machine.Replay() {
			c.replay()
		}
	}
}

// begin starts a new session on entering Playing.
func (c *Controller) begin() {
	c.round++
	c.engine.Reset(c.seed + c.round)

	s := &Session{
		ID:        uuid.New(),
		Active:    true,
		StartedAt: c.clock.Now(),
		chain:     &ledgerSession{},
	}
	c.session = s
	c.audio.Play(audio.Swooshing)
	c.logger.Info("session started", "session", s.ID, "round", c.round)

	c.write(s, func(ctx context.Context) {
		res := c.gateway.StartSession(ctx, s.ID.String())
		if res.OK() {
			s.chain.player, _ = c.gateway.Player()
		}
		c.post(s.ID, func() { s.StartResult = res })
	})
}

// scored mirrors the engine score into the session and reports each point.
func (c *Controller) scored(n int) {
	s := c.session
	score := c.engine.Score()
	s.CurrentScore = score
	if score > c.localBest {
		c.localBest = score
	}
	c.audio.Play(audio.Point)

	for i := 0; i < n; i++ {
		c.write(s, func(ctx context.Context) {
			if c.onLedger(s) {
				c.gateway.IncrementScore(ctx, s.ID.String(), 1)
			}
		})
	}
}

// collided moves to ScoreDisplay and submits the final score once.
func (c *Controller) collided(hit physics.Collision) {
	c.audio.Play(audio.Hit)
	if hit != physics.CollisionGround {
		c.audio.Play(audio.Die)
	}
	if !c.machine.Collide() {
		return
	}
	s := c.session
	s.Active = false
	c.logger.Info("session over", "session", s.ID, "score", s.CurrentScore, "hit", hit)

	if !c.machine.BeginFinalization() {
		return
	}
	if s.closing {
		// The ledger session was ended when the wallet disconnected.
		return
	}
	s.SubmissionInFlight = true
	final := s.CurrentScore
	s.submitted = final
	c.write(s, func(ctx context.Context) {
		res := ledger.Result{Status: ledger.StatusSkipped}
		if c.onLedger(s) {
			res = c.gateway.EndSession(ctx, s.ID.String(), final)
			s.chain.ended = true
		}
		c.post(s.ID, func() { c.ended(s, res) })
	})
}

// onLedger reports whether s has an open ledger session owned by the
// wallet connected now. Only called from s's write chain.
func (c *Controller) onLedger(s *Session) bool {
	if s.chain.player == "" || s.chain.ended {
		return false
	}
	player, ok := c.gateway.Player()
	return ok && player == s.chain.player
}

// closeOnDisconnect runs before a wallet disconnect. It waits for every
// queued write of the current session and, if the round is still being
// played on the ledger, ends the ledger session with the score so far.
// The rest of the round is played off the ledger.
func (c *Controller) closeOnDisconnect(disconnect func()) {
	s := c.session
	if s == nil {
		c.spawn(disconnect)
		return
	}
	if !s.Active || s.closing {
		c.write(s, func(context.Context) { disconnect() })
		return
	}

	s.closing = true
	s.SubmissionInFlight = true
	score := s.CurrentScore
	s.submitted = score
	c.logger.Info("wallet disconnecting mid-round, ending ledger session", "session", s.ID, "score", score)
	c.write(s, func(ctx context.Context) {
		res := ledger.Result{Status: ledger.StatusSkipped}
		if c.onLedger(s) {
			res = c.gateway.EndSession(ctx, s.ID.String(), score)
			s.chain.ended = true
		}
		c.post(s.ID, func() { c.ended(s, res) })
		disconnect()
	})
}

// ended records the end-of-session result.
func (c *Controller) ended(s *Session, res ledger.Result) {
	s.SubmissionInFlight = false
	s.Finalized = true
	s.EndResult = res
	switch res.Status {
	case ledger.StatusOK:
		c.logger.Info("score submitted", "session", s.ID, "tx", res.Receipt.TxHash)
		c.refreshHighScore()
	case ledger.StatusFailed:
		c.logger.Warn("score submission failed", "session", s.ID, "err", res.Err)
	}
}

// replay discards the finished session and shows the splash again.
func (c *Controller) replay() {
	if c.session != nil {
		c.logger.Debug("session discarded", "session", c.session.ID)
	}
	c.session = nil
	c.engine.Reset(c.seed + c.round + 1)
	c.audio.Play(audio.Swooshing)
}

// write runs a ledger write for s after every earlier write of s finished.
func (c *Controller) write(s *Session, call func(ctx context.Context)) {
	prev := s.writes
	done := make(chan struct{})
	s.writes = done
	c.spawn(func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		call(context.Background())
	})
}

// RetrySubmission re-submits a failed final score. It returns false when
// there is nothing to retry.
func (c *Controller) RetrySubmission() bool {
	s := c.session
	if s == nil || !s.CanRetry() {
		return false
	}
	s.SubmissionInFlight = true
	final := s.submitted
	c.logger.Info("retrying score submission", "session", s.ID)
	c.write(s, func(ctx context.Context) {
		res := ledger.Result{Status: ledger.StatusSkipped}
		if s.chain.player != "" {
			if player, ok := c.gateway.Player(); ok && player == s.chain.player {
				res = c.gateway.RetryEndSession(ctx, s.ID.String(), final)
			}
		}
		c.post(s.ID, func() { c.ended(s, res) })
	})
	return true
}
