package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/ledger/ledgertest"
)

func TestParseDSN(t *testing.T) {
	tests := []struct {
		raw     string
		scheme  string
		target  string
		wantErr bool
	}{
		{"sqlite://~/.flappychain/ledger.db", "sqlite", "~/.flappychain/ledger.db", false},
		{"sqlite:///tmp/ledger.db", "sqlite", "/tmp/ledger.db", false},
		{"WS://node:7777/rpc", "ws", "node:7777/rpc", false},
		{"ledger.db", "", "", true},
		{"://nothing", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			dsn, err := ParseDSN(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDSN(%q) should fail", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDSN(%q): %v", tt.raw, err)
			}
			if dsn.Scheme != tt.scheme || dsn.Target != tt.target {
				t.Errorf("ParseDSN(%q) = %+v, want scheme %q target %q", tt.raw, dsn, tt.scheme, tt.target)
			}
		})
	}
}

func TestRegisterAndOpen(t *testing.T) {
	fake := ledgertest.New()
	var got DSN
	Register("fake-open", "Fake", func(ctx context.Context, dsn DSN) (ledger.Ledger, error) {
		got = dsn
		return fake, nil
	})

	if !Exists("FAKE-OPEN") {
		t.Error("Exists should be case-insensitive")
	}

	l, err := Open(context.Background(), "fake-open://somewhere")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if l != fake {
		t.Error("Open should return the factory's ledger")
	}
	if got.Target != "somewhere" {
		t.Errorf("factory got target %q", got.Target)
	}

	found := false
	for _, info := range List() {
		if info.Scheme == "fake-open" && info.Title == "Fake" {
			found = true
		}
	}
	if !found {
		t.Error("List should include the registered backend")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	f := func(ctx context.Context, dsn DSN) (ledger.Ledger, error) { return nil, nil }
	Register("fake-dup", "Dup", f)

	defer func() {
		if recover() == nil {
			t.Error("second Register should panic")
		}
	}()
	Register("fake-dup", "Dup", f)
}

func TestOpenNone(t *testing.T) {
	for _, raw := range []string{"", "none", "NONE"} {
		l, err := Open(context.Background(), raw)
		if err != nil || l != nil {
			t.Errorf("Open(%q) = %v, %v; want nil, nil", raw, l, err)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(context.Background(), "nope://x"); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("Open(unknown) = %v, want ErrUnknownScheme", err)
	}

	boom := errors.New("boom")
	Register("fake-fail", "Failing", func(ctx context.Context, dsn DSN) (ledger.Ledger, error) {
		return nil, boom
	})
	if _, err := Open(context.Background(), "fake-fail://x"); !errors.Is(err, boom) {
		t.Errorf("Open(failing) = %v, want wrapped factory error", err)
	}
}
