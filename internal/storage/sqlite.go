// Package storage provides a local, hash-chained score ledger on SQLite.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
//
// Every accepted write appends a transaction whose hash covers the previous
// transaction's hash, so rewriting history breaks the chain and Verify
// reports it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/registry"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

// Store manages the SQLite database connection of the ledger.
type Store struct {
	db *sql.DB
}

// PlayerStats contains aggregated statistics for one player.
type PlayerStats struct {
	Player     wallet.Address
	Username   string
	Games      int
	BestScore  int
	TotalScore int64
	LastPlayed time.Time
}

// Open creates or opens a ledger database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One connection serializes writers; the chain head must not race.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS transactions (
			height INTEGER PRIMARY KEY,
			op TEXT NOT NULL,
			player TEXT NOT NULL,
			session_id TEXT NOT NULL,
			value INTEGER NOT NULL DEFAULT 0,
			prev_hash TEXT NOT NULL,
			tx_hash TEXT NOT NULL UNIQUE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_session ON transactions(session_id);

		CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			player TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			final_score INTEGER,
			ended INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_player ON sessions(player);

		CREATE TABLE IF NOT EXISTS players (
			player TEXT PRIMARY KEY,
			username TEXT NOT NULL DEFAULT '',
			best_score INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_players_top ON players(best_score DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StartSession implements ledger.Ledger.
func (s *Store) StartSession(ctx context.Context, player wallet.Address, session, username string) (ledger.Receipt, error) {
	var receipt ledger.Receipt
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE session_id = ?", session).Scan(&exists)
		if err != nil {
			return fmt.Errorf("storage: cannot query session: %w", err)
		}
		if exists > 0 {
			return ledger.ErrSessionExists
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sessions (session_id, player) VALUES (?, ?)",
			session, string(player),
		); err != nil {
			return fmt.Errorf("storage: cannot save session: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players (player, username) VALUES (?, ?)
			 ON CONFLICT(player) DO UPDATE SET
			   username = CASE WHEN excluded.username != '' THEN excluded.username ELSE players.username END`,
			string(player), username,
		); err != nil {
			return fmt.Errorf("storage: cannot save player: %w", err)
		}

		receipt, err = appendTx(ctx, tx, txRecord{op: ledger.OpStartSession, player: player, session: session})
		return err
	})
	return receipt, err
}

// IncrementScore implements ledger.Ledger.
func (s *Store) IncrementScore(ctx context.Context, player wallet.Address, session string, delta int) (ledger.Receipt, error) {
	if delta <= 0 {
		return ledger.Receipt{}, ledger.ErrInvalidDelta
	}
	var receipt ledger.Receipt
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkOpen(ctx, tx, player, session); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE sessions SET score = score + ? WHERE session_id = ?",
			delta, session,
		); err != nil {
			return fmt.Errorf("storage: cannot update session score: %w", err)
		}

		var err error
		receipt, err = appendTx(ctx, tx, txRecord{op: ledger.OpIncrementScore, player: player, session: session, value: int64(delta)})
		return err
	})
	return receipt, err
}

// EndSession implements ledger.Ledger.
func (s *Store) EndSession(ctx context.Context, player wallet.Address, session string, finalScore int) (ledger.Receipt, error) {
	if finalScore < 0 {
		return ledger.Receipt{}, ledger.ErrInvalidScore
	}
	var receipt ledger.Receipt
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkOpen(ctx, tx, player, session); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE sessions SET ended = 1, final_score = ?, ended_at = CURRENT_TIMESTAMP WHERE session_id = ?",
			finalScore, session,
		); err != nil {
			return fmt.Errorf("storage: cannot end session: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE players SET best_score = MAX(best_score, ?), updated_at = CURRENT_TIMESTAMP
			 WHERE player = ?`,
			finalScore, string(player),
		); err != nil {
			return fmt.Errorf("storage: cannot update best score: %w", err)
		}

		var err error
		receipt, err = appendTx(ctx, tx, txRecord{op: ledger.OpEndSession, player: player, session: session, value: int64(finalScore)})
		return err
	})
	return receipt, err
}

// checkOpen verifies that session exists, belongs to player and has not ended.
func checkOpen(ctx context.Context, tx *sql.Tx, player wallet.Address, session string) error {
	var owner string
	var ended bool
	err := tx.QueryRowContext(ctx,
		"SELECT player, ended FROM sessions WHERE session_id = ?",
		session,
	).Scan(&owner, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ErrUnknownSession
	}
	if err != nil {
		return fmt.Errorf("storage: cannot query session: %w", err)
	}
	if owner != string(player) {
		return ledger.ErrNotOwner
	}
	if ended {
		return ledger.ErrSessionEnded
	}
	return nil
}

// HighScore implements ledger.Ledger. Returns 0 if the player has no
// finished sessions.
func (s *Store) HighScore(ctx context.Context, player wallet.Address) (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(best_score) FROM players WHERE player = ?",
		string(player),
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}
	if !score.Valid {
		return 0, nil
	}
	return int(score.Int64), nil
}

// Leaderboard implements ledger.Ledger.
// Results are ordered by score descending; players without points are omitted.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]ledger.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT player, best_score, username
		 FROM players
		 WHERE best_score > 0
		 ORDER BY best_score DESC, player ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []ledger.LeaderboardEntry
	for rows.Next() {
		var e ledger.LeaderboardEntry
		var player string
		if err := rows.Scan(&player, &e.Score, &e.Username); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Player = wallet.Address(player)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// PlayerStats retrieves aggregated statistics for a player.
func (s *Store) PlayerStats(ctx context.Context, player wallet.Address) (*PlayerStats, error) {
	stats := &PlayerStats{Player: player}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(MAX(final_score), 0), COALESCE(SUM(final_score), 0)
		 FROM sessions WHERE player = ? AND ended = 1`,
		string(player),
	).Scan(&stats.Games, &stats.BestScore, &stats.TotalScore)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get player stats: %w", err)
	}

	var lastPlayed any
	err = s.db.QueryRowContext(ctx,
		"SELECT username, updated_at FROM players WHERE player = ?",
		string(player),
	).Scan(&stats.Username, &lastPlayed)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: cannot get player: %w", err)
	}
	if err == nil {
		stats.LastPlayed = parseTime(lastPlayed)
	}

	return stats, nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit: %w", err)
	}
	return nil
}

// parseTime handles both time.Time and string datetimes returned by the driver.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// Ensure Store implements ledger.Ledger
var _ ledger.Ledger = (*Store)(nil)

func init() {
	registry.Register("sqlite", "Local SQLite ledger", func(ctx context.Context, dsn registry.DSN) (ledger.Ledger, error) {
		return Open(dsn.Target)
	})
}
