package ledger_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/ledger/ledgertest"
	"github.com/vovakirdan/flappychain/internal/wallet"
	"github.com/vovakirdan/flappychain/internal/wallet/wallettest"
)

const alice wallet.Address = "0x00000000000000000000000000000000000a11ce"

var errRevert = errors.New("execution reverted")

func newGateway(l ledger.Ledger, w wallet.Connector) *ledger.Gateway {
	return ledger.NewGateway(l, w, ledger.GatewayConfig{
		Timeout: time.Second,
		Logger:  log.New(io.Discard),
	})
}

func TestGatewaySkipsWithoutWallet(t *testing.T) {
	ctx := context.Background()
	fake := ledgertest.New()
	g := newGateway(fake, wallettest.New(alice, "alice"))

	writes := map[string]ledger.Result{
		"start":     g.StartSession(ctx, "s1"),
		"increment": g.IncrementScore(ctx, "s1", 1),
		"end":       g.EndSession(ctx, "s1", 3),
	}
	for name, res := range writes {
		if res.Status != ledger.StatusSkipped {
			t.Errorf("%s status = %v, want skipped", name, res.Status)
		}
	}
	if res := g.HighScore(ctx); res.Status != ledger.StatusSkipped {
		t.Errorf("HighScore status = %v, want skipped", res.Status)
	}
	if res := g.Leaderboard(ctx, 10); res.Status != ledger.StatusSkipped {
		t.Errorf("Leaderboard status = %v, want skipped", res.Status)
	}

	for _, op := range []string{ledger.OpStartSession, ledger.OpIncrementScore, ledger.OpEndSession, ledger.OpHighScore, ledger.OpLeaderboard} {
		if n := fake.Calls(op); n != 0 {
			t.Errorf("%s reached the ledger %d times without a wallet", op, n)
		}
	}
	if g.EndAttempts("s1") != 0 {
		t.Error("skipped end must not count as an attempt")
	}
}

func TestGatewayFullSession(t *testing.T) {
	ctx := context.Background()
	fake := ledgertest.New()
	g := newGateway(fake, wallettest.Connected(alice, "alice"))

	if res := g.StartSession(ctx, "s1"); !res.OK() || res.Receipt.TxHash == "" {
		t.Fatalf("StartSession = %+v", res)
	}
	for i := 0; i < 3; i++ {
		if res := g.IncrementScore(ctx, "s1", 1); !res.OK() {
			t.Fatalf("IncrementScore = %+v", res)
		}
	}
	res := g.EndSession(ctx, "s1", 3)
	if !res.OK() {
		t.Fatalf("EndSession = %+v", res)
	}
	if res.Receipt.Height != 5 {
		t.Errorf("end receipt height = %d, want 5", res.Receipt.Height)
	}

	score, ended, ok := fake.SessionScore("s1")
	if !ok || !ended || score != 3 {
		t.Errorf("session on ledger = (%d, %v, %v), want (3, true, true)", score, ended, ok)
	}

	hs, available := g.HighScore(ctx).Get()
	if !available || hs != 3 {
		t.Errorf("HighScore = %d, %v; want 3, true", hs, available)
	}
	board, available := g.Leaderboard(ctx, 10).Get()
	if !available || len(board) != 1 || board[0].Player != alice || board[0].Username != "alice" {
		t.Errorf("Leaderboard = %+v, %v", board, available)
	}
}

func TestGatewayEndSessionAtMostOnce(t *testing.T) {
	ctx := context.Background()
	fake := ledgertest.New()
	g := newGateway(fake, wallettest.Connected(alice, "alice"))
	g.StartSession(ctx, "s1")

	var wg sync.WaitGroup
	results := make([]ledger.Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.EndSession(ctx, "s1", 2)
		}(i)
	}
	wg.Wait()

	ok, dup := 0, 0
	for _, r := range results {
		switch r.Status {
		case ledger.StatusOK:
			ok++
		case ledger.StatusDuplicate:
			dup++
		default:
			t.Errorf("unexpected status %v", r.Status)
		}
	}
	if ok != 1 || dup != len(results)-1 {
		t.Errorf("ok=%d dup=%d, want 1 and %d", ok, dup, len(results)-1)
	}
	if n := fake.Calls(ledger.OpEndSession); n != 1 {
		t.Errorf("EndSession reached the ledger %d times, want 1", n)
	}
}

func TestGatewayFailedEndIsNotRetried(t *testing.T) {
	ctx := context.Background()
	fake := ledgertest.New()
	g := newGateway(fake, wallettest.Connected(alice, "alice"))
	g.StartSession(ctx, "s1")

	fake.Fail(ledger.OpEndSession, errRevert)
	res := g.EndSession(ctx, "s1", 4)
	if res.Status != ledger.StatusFailed || !errors.Is(res.Err, errRevert) {
		t.Fatalf("EndSession = %+v, want failed with revert", res)
	}

	// A second plain call is a duplicate, not a hidden retry
	if res := g.EndSession(ctx, "s1", 4); res.Status != ledger.StatusDuplicate {
		t.Errorf("second EndSession = %v, want duplicate", res.Status)
	}
	if n := fake.Calls(ledger.OpEndSession); n != 1 {
		t.Fatalf("EndSession reached the ledger %d times, want 1", n)
	}

	fake.Fail(ledger.OpEndSession, nil)
	if res := g.RetryEndSession(ctx, "s1", 4); !res.OK() {
		t.Fatalf("RetryEndSession = %+v", res)
	}
	if g.EndAttempts("s1") != 2 {
		t.Errorf("EndAttempts = %d, want 2", g.EndAttempts("s1"))
	}

	// No retry after success
	res = g.RetryEndSession(ctx, "s1", 4)
	if res.Status != ledger.StatusDuplicate || !errors.Is(res.Err, ledger.ErrRetryNotAllowed) {
		t.Errorf("retry after success = %+v, want duplicate/ErrRetryNotAllowed", res)
	}
}

func TestGatewayRetryRequiresPriorAttempt(t *testing.T) {
	g := newGateway(ledgertest.New(), wallettest.Connected(alice, "alice"))
	res := g.RetryEndSession(context.Background(), "never-ended", 1)
	if !errors.Is(res.Err, ledger.ErrRetryNotAllowed) {
		t.Errorf("RetryEndSession = %+v, want ErrRetryNotAllowed", res)
	}
}

func TestGatewayReadFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()
	fake := ledgertest.New()
	fake.SetHighScore(alice, 0)
	g := newGateway(fake, wallettest.Connected(alice, "alice"))

	fake.Fail(ledger.OpHighScore, errRevert)
	read := g.HighScore(ctx)
	if read.Status != ledger.StatusUnavailable {
		t.Fatalf("HighScore status = %v, want unavailable", read.Status)
	}
	if _, ok := read.Get(); ok {
		t.Error("unavailable read must not report a value")
	}

	fake.Fail(ledger.OpHighScore, nil)
	hs, ok := g.HighScore(ctx).Get()
	if !ok || hs != 0 {
		t.Errorf("HighScore = %d, %v; want a real zero", hs, ok)
	}
}

func TestGatewayTimeout(t *testing.T) {
	fake := ledgertest.New()
	release := fake.Block()
	defer release()

	g := ledger.NewGateway(fake, wallettest.Connected(alice, "alice"), ledger.GatewayConfig{
		Timeout: 20 * time.Millisecond,
		Logger:  log.New(io.Discard),
	})

	start := time.Now()
	res := g.StartSession(context.Background(), "slow")
	if res.Status != ledger.StatusFailed || !errors.Is(res.Err, context.DeadlineExceeded) {
		t.Fatalf("StartSession = %+v, want deadline exceeded", res)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("timed out call took %v", elapsed)
	}
	if read := g.Leaderboard(context.Background(), 5); read.Status != ledger.StatusUnavailable {
		t.Errorf("Leaderboard status = %v, want unavailable", read.Status)
	}
}

func TestGatewayWithoutLedger(t *testing.T) {
	ctx := context.Background()
	g := newGateway(nil, wallettest.Connected(alice, "alice"))

	if g.Enabled() {
		t.Error("gateway without a ledger should not be enabled")
	}
	if res := g.EndSession(ctx, "s1", 1); res.Status != ledger.StatusSkipped {
		t.Errorf("EndSession status = %v, want skipped", res.Status)
	}
	if read := g.HighScore(ctx); read.Status != ledger.StatusUnavailable {
		t.Errorf("HighScore status = %v, want unavailable", read.Status)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    ledger.Status
		want string
	}{
		{ledger.StatusPending, "pending"},
		{ledger.StatusOK, "ok"},
		{ledger.StatusFailed, "failed"},
		{ledger.StatusSkipped, "skipped"},
		{ledger.StatusDuplicate, "duplicate"},
		{ledger.StatusUnavailable, "unavailable"},
		{ledger.Status(-1), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}
