package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappychain/internal/ledgerrpc"
	"github.com/vovakirdan/flappychain/internal/storage"
)

var (
	flagNodeAddr string
	flagNodeDB   string
	flagTxLimit  int
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Run or inspect a ledger node",
	Long: `A ledger node keeps a hash-chained SQLite ledger and serves it to
players over WebSocket at /rpc.

Examples:
  flappychain ledger serve --addr :8545 --db ./ledger.db
  flappychain ledger verify --db ./ledger.db
  flappychain ledger tx --limit 20`,
}

var ledgerServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a SQLite ledger over WebSocket",
	Args:  cobra.NoArgs,
	RunE:  runLedgerServe,
}

var ledgerVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every transaction hash of the ledger",
	Args:  cobra.NoArgs,
	RunE:  runLedgerVerify,
}

var ledgerTxCmd = &cobra.Command{
	Use:   "tx",
	Short: "Print the latest ledger transactions",
	Args:  cobra.NoArgs,
	RunE:  runLedgerTx,
}

func init() {
	ledgerCmd.PersistentFlags().StringVar(&flagNodeDB, "db", "~/.flappychain/ledger.db", "Path to the ledger database")
	ledgerServeCmd.Flags().StringVar(&flagNodeAddr, "addr", ":8545", "HTTP listen address (host:port)")
	ledgerTxCmd.Flags().IntVar(&flagTxLimit, "limit", 20, "Number of transactions to show")

	ledgerCmd.AddCommand(ledgerServeCmd)
	ledgerCmd.AddCommand(ledgerVerifyCmd)
	ledgerCmd.AddCommand(ledgerTxCmd)
}

func runLedgerServe(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger("flappychain-ledger", os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := storage.Open(flagNodeDB)
	if err != nil {
		return err
	}
	defer store.Close()

	mux := http.NewServeMux()
	mux.Handle("/rpc", ledgerrpc.NewHandler(store, ledgerrpc.HandlerConfig{
		Logger:      logger,
		CallTimeout: 10 * time.Second,
	}))

	srv := &http.Server{
		Addr:              flagNodeAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		logger.Info("ledger node listening", "address", flagNodeAddr, "db", flagNodeDB)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-done:
	}

	logger.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runLedgerVerify(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(flagNodeDB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	height, hash, err := store.Head(ctx)
	if err != nil {
		return err
	}
	if err := store.Verify(ctx); err != nil {
		return err
	}

	fmt.Printf("Ledger OK: %d transactions, head %s\n", height, hash)
	return nil
}

func runLedgerTx(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(flagNodeDB)
	if err != nil {
		return err
	}
	defer store.Close()

	txs, err := store.Transactions(context.Background(), flagTxLimit)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("No transactions yet.")
		return nil
	}

	fmt.Printf("  %-6s  %-16s  %-14s  %-8s  %-5s  %s\n", "Height", "Op", "Player", "Session", "Value", "Hash")
	fmt.Printf("  %-6s  %-16s  %-14s  %-8s  %-5s  %s\n", "------", "--", "------", "-------", "-----", "----")
	for _, tx := range txs {
		sess := tx.Session
		if len(sess) > 8 {
			sess = sess[:8]
		}
		fmt.Printf("  %-6d  %-16s  %-14s  %-8s  %-5d  %s\n",
			tx.Height, tx.Op, tx.Player.Short(), sess, tx.Value, shortHash(tx.Hash))
	}
	return nil
}

func shortHash(h string) string {
	if len(h) <= 14 {
		return h
	}
	return h[:10] + "…" + h[len(h)-4:]
}
