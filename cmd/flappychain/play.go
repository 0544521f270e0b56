package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/flappychain/internal/audio"
	"github.com/vovakirdan/flappychain/internal/config"
	"github.com/vovakirdan/flappychain/internal/core"
	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/platform/tui"
	"github.com/vovakirdan/flappychain/internal/registry"
	"github.com/vovakirdan/flappychain/internal/session"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in this terminal",
	Long: `Start a game in this terminal.

Controls:
  Space        - Start, flap, play again
  Tab          - Move focus between wallet and leaderboard buttons
  Enter        - Press the focused button
  Esc          - Close the leaderboard
  Mouse click  - Flap, or press a button
  Q/Ctrl+C     - Quit

Your wallet is your SSH public key. Press the wallet button to connect it;
while connected, every round is recorded on the ledger.

Difficulty options:
  easy   - Start at lowest difficulty, progresses to max
  normal - Start at 30% difficulty, progresses to max
  hard   - Start at 70% difficulty, progresses to max
  fixed  - No progression, stays at config's initial level

Examples:
  flappychain play
  flappychain play --difficulty hard
  flappychain play --ledger none
  flappychain play --wallet-key ~/.ssh/id_ed25519.pub --log play.log`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The game owns the terminal, so logs only go to --log
	logger, closeLog, err := newLogger("flappychain", io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	l := openLedger(cmd.Context(), cfg, logger)
	if l != nil {
		defer l.Close()
	}

	conn := loadWallet(logger)

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var sink audio.Sink
	if cfg.Audio.Enabled {
		sink = audio.NewBellSink(os.Stderr, cfg.Audio.Bell)
	}

	ctrl := session.New(session.Options{
		Config: cfg,
		Seed:   seed,
		Gateway: ledger.NewGateway(l, conn, ledger.GatewayConfig{
			Timeout: cfg.LedgerTimeout(),
			Logger:  logger,
		}),
		Wallet: conn,
		Audio:  audio.NewRegistry(sink, logger),
		Logger: logger,
	})
	defer ctrl.Close()

	rc := core.DefaultConfig()
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		rc.ScreenW = w
		rc.ScreenH = h
	}
	rc.TickRate = flagFPS
	rc.Seed = seed

	return tui.Run(tui.NewModel(ctrl, rc, cfg.Input.PrimaryKey, nil))
}

// openLedger opens the configured ledger. A ledger that cannot be opened
// is logged and the game runs without one.
func openLedger(ctx context.Context, cfg config.Config, logger *log.Logger) ledger.Ledger {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.LedgerTimeout())
	defer cancel()

	dsn := ledgerDSN(cfg)
	l, err := registry.Open(ctx, dsn)
	if err != nil {
		logger.Warn("ledger unavailable, playing offline", "dsn", dsn, "err", err)
		fmt.Fprintf(os.Stderr, "Warning: ledger unavailable (%v), scores will not be saved\n", err)
		return nil
	}
	if l != nil {
		logger.Info("ledger opened", "dsn", dsn)
	}
	return l
}

// loadWallet builds a connector from the --wallet-key flag or the default
// SSH keys. Without a key the game runs without a wallet.
func loadWallet(logger *log.Logger) wallet.Connector {
	key, err := wallet.LoadKey(flagWalletKey)
	if err != nil {
		logger.Warn("no wallet key", "err", err)
		return nil
	}
	user := os.Getenv("USER")
	conn := wallet.NewKeyConnector(key, user)
	logger.Info("wallet key loaded", "address", wallet.AddressFromKey(key).Short())
	return conn
}
