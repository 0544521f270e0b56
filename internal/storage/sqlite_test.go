package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/registry"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

const (
	alice wallet.Address = "0x00000000000000000000000000000000000a11ce"
	bob   wallet.Address = "0x0000000000000000000000000000000000000b0b"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// play runs a complete session with the given number of points.
func play(t *testing.T, s *Store, player wallet.Address, session, name string, points int) ledger.Receipt {
	t.Helper()
	ctx := context.Background()
	if _, err := s.StartSession(ctx, player, session, name); err != nil {
		t.Fatalf("StartSession(%s) failed: %v", session, err)
	}
	for i := 0; i < points; i++ {
		if _, err := s.IncrementScore(ctx, player, session, 1); err != nil {
			t.Fatalf("IncrementScore(%s) failed: %v", session, err)
		}
	}
	r, err := s.EndSession(ctx, player, session, points)
	if err != nil {
		t.Fatalf("EndSession(%s) failed: %v", session, err)
	}
	return r
}

func TestStoreOpenClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "ledger.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreSessionLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	receipt := play(t, store, alice, "s1", "alice", 3)
	// start + 3 increments + end
	if receipt.Height != 5 {
		t.Errorf("end receipt height = %d, want 5", receipt.Height)
	}
	if len(receipt.TxHash) != 66 {
		t.Errorf("tx hash %q should be 0x + 64 hex chars", receipt.TxHash)
	}

	hs, err := store.HighScore(ctx, alice)
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if hs != 3 {
		t.Errorf("HighScore = %d, want 3", hs)
	}

	// Lower score does not replace the best
	play(t, store, alice, "s2", "alice", 1)
	if hs, _ := store.HighScore(ctx, alice); hs != 3 {
		t.Errorf("HighScore after a worse game = %d, want 3", hs)
	}

	stats, err := store.PlayerStats(ctx, alice)
	if err != nil {
		t.Fatalf("PlayerStats() failed: %v", err)
	}
	if stats.Games != 2 || stats.BestScore != 3 || stats.TotalScore != 4 || stats.Username != "alice" {
		t.Errorf("PlayerStats = %+v", stats)
	}
}

func TestStoreHighScoreUnknownPlayer(t *testing.T) {
	store := openTestStore(t)
	hs, err := store.HighScore(context.Background(), bob)
	if err != nil {
		t.Fatalf("HighScore() failed: %v", err)
	}
	if hs != 0 {
		t.Errorf("HighScore of unknown player = %d, want 0", hs)
	}
}

func TestStoreSessionErrors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.StartSession(ctx, alice, "s1", ""); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"duplicate start", func() error {
			_, err := store.StartSession(ctx, alice, "s1", "")
			return err
		}, ledger.ErrSessionExists},
		{"unknown session", func() error {
			_, err := store.IncrementScore(ctx, alice, "nope", 1)
			return err
		}, ledger.ErrUnknownSession},
		{"other player", func() error {
			_, err := store.IncrementScore(ctx, bob, "s1", 1)
			return err
		}, ledger.ErrNotOwner},
		{"zero delta", func() error {
			_, err := store.IncrementScore(ctx, alice, "s1", 0)
			return err
		}, ledger.ErrInvalidDelta},
		{"negative final", func() error {
			_, err := store.EndSession(ctx, alice, "s1", -1)
			return err
		}, ledger.ErrInvalidScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := store.EndSession(ctx, alice, "s1", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := store.EndSession(ctx, alice, "s1", 0); !errors.Is(err, ledger.ErrSessionEnded) {
		t.Errorf("second EndSession = %v, want ErrSessionEnded", err)
	}
	if _, err := store.IncrementScore(ctx, alice, "s1", 1); !errors.Is(err, ledger.ErrSessionEnded) {
		t.Errorf("IncrementScore after end = %v, want ErrSessionEnded", err)
	}

	// Rejected writes must not extend the chain
	height, _, err := store.Head(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if height != 2 {
		t.Errorf("chain height = %d, want 2", height)
	}
}

func TestStoreLeaderboard(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	play(t, store, alice, "a1", "alice", 5)
	play(t, store, bob, "b1", "bob", 8)
	play(t, store, alice, "a2", "alice", 2)
	play(t, store, "0x000000000000000000000000000000000000dead", "d1", "", 0)

	board, err := store.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard() failed: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %+v", len(board), board)
	}
	if board[0].Player != bob || board[0].Score != 8 || board[0].Username != "bob" {
		t.Errorf("first entry = %+v, want bob with 8", board[0])
	}
	if board[1].Player != alice || board[1].Score != 5 {
		t.Errorf("second entry = %+v, want alice with 5", board[1])
	}

	top, err := store.Leaderboard(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 1 {
		t.Errorf("limit 1 returned %d entries", len(top))
	}
}

func TestStoreChainVerifies(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Verify(ctx); err != nil {
		t.Fatalf("empty chain should verify: %v", err)
	}

	play(t, store, alice, "s1", "alice", 2)
	play(t, store, bob, "s2", "bob", 1)

	if err := store.Verify(ctx); err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}

	txs, err := store.Transactions(ctx, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(txs) != 7 {
		t.Fatalf("Expected 7 transactions, got %d", len(txs))
	}
	// Newest first, each linked to the one below it
	for i := 0; i < len(txs)-1; i++ {
		if txs[i].PrevHash != txs[i+1].Hash {
			t.Errorf("tx %d prev %s does not link to %s", txs[i].Height, txs[i].PrevHash, txs[i+1].Hash)
		}
	}
	if last := txs[len(txs)-1]; last.PrevHash != GenesisHash || last.Height != 1 {
		t.Errorf("first transaction = %+v, want genesis link", last)
	}
}

func TestStoreChainDetectsTampering(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	play(t, store, alice, "s1", "alice", 3)

	if _, err := store.db.Exec("UPDATE transactions SET value = 99 WHERE op = ?", ledger.OpEndSession); err != nil {
		t.Fatal(err)
	}
	if err := store.Verify(ctx); !errors.Is(err, ErrChainBroken) {
		t.Errorf("Verify() after tampering = %v, want ErrChainBroken", err)
	}
}

func TestStoreRegisteredInRegistry(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "reg.db")
	l, err := registry.Open(context.Background(), dsn)
	if err != nil {
		t.Fatalf("registry.Open(%q) failed: %v", dsn, err)
	}
	defer l.Close()
	if _, ok := l.(*Store); !ok {
		t.Errorf("registry returned %T, want *Store", l)
	}
}
