package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappychain/internal/registry"
	"github.com/vovakirdan/flappychain/internal/storage"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

var flagScoresLimit int

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Print the ledger leaderboard",
	Long: `Display the best score of each player on the ledger.

Reads go straight to the ledger; no wallet is needed.

Examples:
  flappychain scores
  flappychain scores --limit 25
  flappychain scores --ledger ws://localhost:8545/rpc`,
	Args: cobra.NoArgs,
	RunE: runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of players to show")
}

func runScores(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.LedgerTimeout())
	defer cancel()

	dsn := ledgerDSN(cfg)
	l, err := registry.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("cannot open ledger: %w", err)
	}
	if l == nil {
		fmt.Println("No ledger configured.")
		return nil
	}
	defer l.Close()

	entries, err := l.Leaderboard(ctx, flagScoresLimit)
	if err != nil {
		return fmt.Errorf("cannot read leaderboard: %w", err)
	}

	fmt.Printf("Leaderboard - %s\n", dsn)
	fmt.Println()

	if len(entries) == 0 {
		fmt.Println("No scores recorded yet.")
		fmt.Println()
		fmt.Println("Run 'flappychain play' and connect your wallet to set the first high score!")
		return nil
	}

	// Print header
	fmt.Printf("  %-4s  %-14s  %-12s  %s\n", "Rank", "Player", "Name", "Score")
	fmt.Printf("  %-4s  %-14s  %-12s  %s\n", "----", "------", "----", "-----")

	for i, e := range entries {
		fmt.Printf("  %-4d  %-14s  %-12s  %d\n", i+1, e.Player.Short(), e.Username, e.Score)
	}

	// Show the local wallet's best, when a key is around
	if key, err := wallet.LoadKey(flagWalletKey); err == nil {
		addr := wallet.AddressFromKey(key)
		if best, err := l.HighScore(ctx, addr); err == nil {
			fmt.Println()
			fmt.Printf("Your best (%s): %d\n", addr.Short(), best)
		}
		// A local ledger also knows how much you played
		if store, ok := l.(*storage.Store); ok {
			if stats, err := store.PlayerStats(ctx, addr); err == nil && stats.Games > 0 {
				fmt.Printf("Rounds: %d, points: %d, last played %s\n",
					stats.Games, stats.TotalScore, stats.LastPlayed.Format("2006-01-02 15:04"))
			}
		}
	}
	return nil
}
