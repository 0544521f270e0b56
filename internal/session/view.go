package session

import (
	"github.com/vovakirdan/flappychain/internal/game"
	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/physics"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

// Geometry is the fixed layout of the world, for renderers.
type Geometry struct {
	Width, Height float64
	GroundY       float64
	BirdX         float64
	BirdWidth     float64
	BirdHeight    float64
	PipeWidth     float64
}

// WalletView is the wallet status control.
type WalletView struct {
	Connected bool
	Busy      bool
	Address   wallet.Address
	Username  string
	Error     string
}

// LeaderboardView is the leaderboard overlay.
type LeaderboardView struct {
	Open    bool
	Loading bool
	Status  ledger.Status
	Entries []ledger.LeaderboardEntry
}

// ViewModel is a read-only snapshot for presentation. Mutating it has no
// effect on the controller.
type ViewModel struct {
	State           game.State
	Frame           physics.Frame
	Geometry        Geometry
	SplashOpacity   float64
	SplashReady     bool
	ReplayAvailable bool

	Score     int
	HighScore int
	// LedgerHighScore is true when HighScore includes the ledger's value.
	LedgerHighScore bool

	Session     *Session
	Wallet      WalletView
	Leaderboard LeaderboardView
}

// View returns the current view model.
func (c *Controller) View() ViewModel {
	frame := c.engine.Frame()

	high := c.localBest
	ledgerBest, fromLedger := c.ledgerBest.Get()
	if fromLedger && ledgerBest > high {
		high = ledgerBest
	}

	vm := ViewModel{
		State:           c.machine.State(),
		Frame:           frame,
		SplashOpacity:   c.machine.SplashOpacity(),
		SplashReady:     c.machine.SplashReady(),
		ReplayAvailable: c.machine.ReplayAvailable(),
		Score:           frame.Score,
		HighScore:       high,
		LedgerHighScore: fromLedger,
		Session:         c.session.snapshot(),
		Geometry: Geometry{
			Width:      c.cfg.World.Width,
			Height:     c.cfg.World.Height,
			GroundY:    c.cfg.GroundY(),
			BirdX:      c.cfg.Bird.X,
			BirdWidth:  c.cfg.Bird.Width,
			BirdHeight: c.cfg.Bird.Height,
			PipeWidth:  c.cfg.Pipes.Width,
		},
		Wallet: WalletView{
			Busy:     c.walletSt.busy,
			Username: c.walletSt.username,
			Error:    c.walletSt.err,
		},
		Leaderboard: LeaderboardView{
			Open:    c.board.open,
			Loading: c.board.loading,
			Status:  c.board.read.Status,
		},
	}
	if c.wallet != nil {
		vm.Wallet.Address, vm.Wallet.Connected = c.wallet.Address()
	}
	if entries, ok := c.board.read.Get(); ok {
		vm.Leaderboard.Entries = append([]ledger.LeaderboardEntry(nil), entries...)
	}
	return vm
}
