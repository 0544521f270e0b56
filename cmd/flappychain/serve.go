package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappychain/internal/platform/tui"
	"github.com/vovakirdan/flappychain/internal/registry"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the SSH server",
	Long: `Start an SSH server that allows users to connect and play.

Each SSH connection gets its own game. Players who log in with a public key
can connect it as their wallet; password logins play without one. All
sessions share the server's ledger.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.flappychain/host_key

Examples:
  flappychain serve                           # Listen on :23234 with auto-generated key
  flappychain serve --ssh :2222               # Listen on port 2222
  flappychain serve --host-key ./my_host_key  # Use specific host key
  flappychain serve --ledger sqlite://./ledger.db

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", ":23234", "SSH server address (host:port)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 30, "Idle timeout in minutes before disconnecting")
}

func runServe(cmd *cobra.Command, args []string) error {
	game, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), game.LedgerTimeout())
	l, err := registry.Open(ctx, ledgerDSN(game))
	cancel()
	if err != nil {
		return fmt.Errorf("cannot open ledger: %w", err)
	}

	cfg := tui.SSHServerConfig{
		Address:     flagSSHAddr,
		HostKeyPath: flagHostKey,
		Game:        game,
		TickRate:    flagFPS,
		Seed:        flagSeed,
		IdleTimeout: time.Duration(flagIdleTimeout) * time.Minute,
	}

	server, err := tui.NewSSHServer(cfg, l)
	if err != nil {
		if l != nil {
			l.Close()
		}
		return err
	}

	fmt.Printf("Starting flappychain SSH server on %s\n", cfg.Address)
	fmt.Println("Connect with: ssh localhost -p 23234")
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return err
	}
	return nil
}
