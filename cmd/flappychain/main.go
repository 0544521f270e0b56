// flappychain is a terminal Flappy Bird whose scores are written to a ledger
// through a wallet derived from your SSH key.
//
// Usage:
//
//	flappychain play            - Play in this terminal
//	flappychain scores          - Print the ledger leaderboard
//	flappychain serve           - Start SSH server for remote play
//	flappychain ledger serve    - Serve a SQLite ledger over WebSocket
//	flappychain ledger verify   - Check the ledger's hash chain
//	flappychain backends        - List ledger backends
//
// Global flags:
//
//	--fps <rate>          - Set tick rate (default: 60)
//	--seed <value>        - Set RNG seed for reproducible pipes
//	--ledger <dsn>        - Ledger DSN (sqlite://path, ws://host/rpc, none)
//	--config <path>       - Custom game config YAML
//	--difficulty <name>   - Difficulty preset: easy, normal, hard, fixed
//	--log <path>          - Write logs to a file
//	--wallet-key <path>   - SSH public key used as the wallet
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappychain/internal/config"

	// Import ledger backends to register them
	_ "github.com/vovakirdan/flappychain/internal/ledgerrpc"
	_ "github.com/vovakirdan/flappychain/internal/storage"
)

var (
	// Global flags
	flagFPS        int
	flagSeed       int64
	flagLedger     string
	flagConfig     string
	flagDifficulty string
	flagLog        string
	flagWalletKey  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flappychain",
	Short: "Flappy Bird in your terminal, scores on a ledger",
	Long: `flappychain is a terminal Flappy Bird. Connect a wallet (your SSH key)
and every round is recorded on a ledger: a local hash-chained SQLite file
or a remote ledger node.

Available commands:
  play      - Play in this terminal
  scores    - Print the leaderboard
  serve     - Start SSH server for remote play
  ledger    - Run or inspect a ledger node
  backends  - List ledger backends

Examples:
  flappychain play
  flappychain play --difficulty hard --ledger ws://localhost:8545/rpc
  flappychain serve --ssh :2222
  flappychain ledger serve --addr :8545
  flappychain scores`,
	SilenceUsage: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "Pipe RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagLedger, "ledger", "", "Ledger DSN (default from config; 'none' to play offline)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom game config YAML")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard, fixed")
	rootCmd.PersistentFlags().StringVar(&flagLog, "log", "", "Write logs to this file")
	rootCmd.PersistentFlags().StringVar(&flagWalletKey, "wallet-key", "", "SSH public key used as wallet (default ~/.ssh/id_*.pub)")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(backendsCmd)
}

// loadConfig reads the game config and applies the difficulty flag.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDifficulty != "" {
		preset, err := config.ParsePreset(flagDifficulty)
		if err != nil {
			return cfg, err
		}
		config.ApplyPreset(&cfg, preset)
	}
	return cfg, nil
}

// ledgerDSN is the --ledger flag, or the config's DSN.
func ledgerDSN(cfg config.Config) string {
	if flagLedger != "" {
		return flagLedger
	}
	return cfg.Ledger.DSN
}

// newLogger writes to the --log file, or to fallback when none is set.
// The returned func closes the file.
func newLogger(prefix string, fallback io.Writer) (*log.Logger, func(), error) {
	out := fallback
	closeFn := func() {}
	if flagLog != "" {
		f, err := os.OpenFile(flagLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot open log file: %w", err)
		}
		out = f
		closeFn = func() { f.Close() }
	}

	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	if os.Getenv("FLAPPYCHAIN_DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	}
	return logger, closeFn, nil
}
