package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

// GenesisHash is the prev_hash of the first transaction.
const GenesisHash = "0x0000000000000000000000000000000000000000000000000000000000000000"

// ErrChainBroken is returned by Verify when a stored hash does not match.
var ErrChainBroken = errors.New("storage: transaction chain broken")

// Transaction is one entry of the chain.
type Transaction struct {
	Height    int64
	Op        string
	Player    wallet.Address
	Session   string
	Value     int64
	PrevHash  string
	Hash      string
	CreatedAt time.Time
}

type txRecord struct {
	op      string
	player  wallet.Address
	session string
	value   int64
}

// hashTx computes the hash of a transaction at height linked to prev.
func hashTx(height int64, prev string, r txRecord) string {
	h := sha256.New()
	for _, field := range []string{
		strconv.FormatInt(height, 10),
		prev,
		r.op,
		string(r.player),
		r.session,
		strconv.FormatInt(r.value, 10),
	} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

// appendTx links r to the current head inside tx.
func appendTx(ctx context.Context, tx *sql.Tx, r txRecord) (ledger.Receipt, error) {
	height, prev, err := head(ctx, tx)
	if err != nil {
		return ledger.Receipt{}, err
	}
	height++
	hash := hashTx(height, prev, r)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (height, op, player, session_id, value, prev_hash, tx_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		height, r.op, string(r.player), r.session, r.value, prev, hash,
	); err != nil {
		return ledger.Receipt{}, fmt.Errorf("storage: cannot append transaction: %w", err)
	}
	return ledger.Receipt{TxHash: hash, Height: height}, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// head returns the latest height and hash, or (0, GenesisHash) when empty.
func head(ctx context.Context, q querier) (int64, string, error) {
	var height int64
	var hash string
	err := q.QueryRowContext(ctx,
		"SELECT height, tx_hash FROM transactions ORDER BY height DESC LIMIT 1",
	).Scan(&height, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, GenesisHash, nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("storage: cannot read chain head: %w", err)
	}
	return height, hash, nil
}

// Head returns the latest transaction height and hash.
func (s *Store) Head(ctx context.Context) (int64, string, error) {
	return head(ctx, s.db)
}

// Transactions returns the most recent transactions, newest first.
func (s *Store) Transactions(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT height, op, player, session_id, value, prev_hash, tx_hash, created_at
		 FROM transactions
		 ORDER BY height DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// Verify walks the whole chain and recomputes every hash.
func (s *Store) Verify(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT height, op, player, session_id, value, prev_hash, tx_hash, created_at
		 FROM transactions
		 ORDER BY height ASC`,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot query transactions: %w", err)
	}
	defer rows.Close()

	txs, err := scanTransactions(rows)
	if err != nil {
		return err
	}

	prev := GenesisHash
	for i, t := range txs {
		if t.Height != int64(i+1) {
			return fmt.Errorf("%w: gap at height %d", ErrChainBroken, i+1)
		}
		if t.PrevHash != prev {
			return fmt.Errorf("%w: height %d links to %s, want %s", ErrChainBroken, t.Height, t.PrevHash, prev)
		}
		want := hashTx(t.Height, prev, txRecord{op: t.Op, player: t.Player, session: t.Session, value: t.Value})
		if t.Hash != want {
			return fmt.Errorf("%w: height %d hash mismatch", ErrChainBroken, t.Height)
		}
		prev = t.Hash
	}
	return nil
}

func scanTransactions(rows *sql.Rows) ([]Transaction, error) {
	var txs []Transaction
	for rows.Next() {
		var t Transaction
		var player string
		var createdAt any
		if err := rows.Scan(&t.Height, &t.Op, &player, &t.Session, &t.Value, &t.PrevHash, &t.Hash, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		t.Player = wallet.Address(player)
		t.CreatedAt = parseTime(createdAt)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return txs, nil
}
