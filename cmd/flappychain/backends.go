package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/flappychain/internal/registry"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List ledger backends",
	Long:  `Shows the DSN schemes the --ledger flag accepts.`,
	Run:   runBackends,
}

func runBackends(cmd *cobra.Command, args []string) {
	backends := registry.List()

	fmt.Println("Ledger backends:")
	fmt.Println()

	// Calculate column widths
	maxLen := len("Scheme")
	for _, b := range backends {
		if len(b.Scheme) > maxLen {
			maxLen = len(b.Scheme)
		}
	}

	// Print header
	fmt.Printf("  %-*s  %s\n", maxLen, "Scheme", "Title")
	fmt.Printf("  %-*s  %s\n", maxLen, "------", "-----")

	for _, b := range backends {
		fmt.Printf("  %-*s  %s\n", maxLen, b.Scheme, b.Title)
	}
	fmt.Printf("  %-*s  %s\n", maxLen, registry.NoneDSN, "No ledger, play offline")

	fmt.Println()
	fmt.Println("Use them as --ledger <scheme>://<target>, e.g. sqlite://~/.flappychain/ledger.db")
}
