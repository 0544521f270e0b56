package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/flappychain/internal/audio"
	"github.com/vovakirdan/flappychain/internal/config"
	"github.com/vovakirdan/flappychain/internal/core"
	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/session"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.flappychain/host_key.
	HostKeyPath string

	// Game is the game configuration every session plays with.
	Game config.Config

	// TickRate is the number of frames per second.
	TickRate int

	// Seed is the base pipe seed; 0 derives one per session from the clock.
	Seed int64

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		Game:        config.DefaultConfig(),
		TickRate:    60,
		IdleTimeout: 30 * time.Minute,
	}
}

// SSHServer hosts the game over SSH with Wish. A player's SSH public key
// is their wallet; password logins play without one.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	ledger ledger.Ledger
	logger *log.Logger
}

// NewSSHServer creates a new SSH server. l may be nil to play without a
// ledger; the server closes it on Shutdown.
func NewSSHServer(cfg SSHServerConfig, l ledger.Ledger) (*SSHServer, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "flappychain-ssh",
	})

	srv := &SSHServer{
		config: cfg,
		ledger: l,
		logger: logger,
	}

	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".flappychain", "host_key")
	}

	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("cannot create host key directory: %w", err)
	}

	opts := []ssh.Option{
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithPublicKeyAuth(func(ssh.Context, ssh.PublicKey) bool { return true }),
		wish.WithPasswordAuth(func(ssh.Context, string) bool { return true }),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	}

	server, err := wish.NewServer(opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a controller and a Bubble Tea program for each SSH session.
func (s *SSHServer) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sess.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sess.User())
		return nil, nil
	}

	logger := s.logger.WithPrefix("flappychain-ssh/" + sess.User())

	var conn wallet.Connector
	if key := sess.PublicKey(); key != nil {
		conn = wallet.NewKeyConnector(key, sess.User())
	}

	seed := s.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var sink audio.Sink
	if s.config.Game.Audio.Enabled {
		sink = audio.NewBellSink(sess.Stderr(), s.config.Game.Audio.Bell)
	}

	ctrl := session.New(session.Options{
		Config: s.config.Game,
		Seed:   seed,
		Gateway: ledger.NewGateway(s.ledger, conn, ledger.GatewayConfig{
			Timeout: s.config.Game.LedgerTimeout(),
			Logger:  logger,
		}),
		Wallet: conn,
		Audio:  audio.NewRegistry(sink, logger),
		Logger: logger,
	})

	// The program is torn down without a quit key when the client drops
	go func() {
		<-sess.Context().Done()
		ctrl.Close()
	}()

	rc := core.RuntimeConfig{
		ScreenW:  pty.Window.Width,
		ScreenH:  pty.Window.Height,
		TickRate: s.config.TickRate,
		Seed:     seed,
	}
	model := NewModel(ctrl, rc, s.config.Game.Input.PrimaryKey, nil)

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
}

// loggingMiddleware logs SSH session events.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sess ssh.Session) {
		s.logger.Info("session started",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
			"wallet", sess.PublicKey() != nil,
		)
		next(sess)
		s.logger.Info("session ended",
			"user", sess.User(),
			"remote", sess.RemoteAddr().String(),
		)
	}
}

// ListenAndServe starts the SSH server and blocks until shutdown.
func (s *SSHServer) ListenAndServe() error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	<-done
	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server and closes the ledger.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if s.ledger != nil {
		if cerr := s.ledger.Close(); cerr != nil {
			s.logger.Warn("closing ledger", "error", cerr)
		}
	}
	return err
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}
