// Package registry maps ledger DSN schemes to backend factories.
// Backends register themselves in init() functions, so the CLI can open any
// linked-in backend from a DSN such as sqlite://~/.flappychain/ledger.db or
// ws://node:7777/rpc without hardcoded dependencies.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vovakirdan/flappychain/internal/ledger"
)

// NoneDSN disables the ledger.
const NoneDSN = "none"

// ErrUnknownScheme is returned by Open for unregistered schemes.
var ErrUnknownScheme = errors.New("registry: unknown ledger scheme")

// DSN is a parsed ledger address.
type DSN struct {
	Raw    string // The full DSN as given
	Scheme string // Lower-cased, e.g. "sqlite"
	Target string // Everything after "scheme://"
}

// ParseDSN splits raw into scheme and target.
func ParseDSN(raw string) (DSN, error) {
	scheme, target, ok := strings.Cut(raw, "://")
	if !ok || scheme == "" {
		return DSN{}, fmt.Errorf("registry: malformed ledger DSN %q (want scheme://target)", raw)
	}
	return DSN{Raw: raw, Scheme: strings.ToLower(scheme), Target: target}, nil
}

// Factory opens a ledger backend.
type Factory func(ctx context.Context, dsn DSN) (ledger.Ledger, error)

// BackendInfo contains metadata about a registered backend.
type BackendInfo struct {
	Scheme string
	Title  string
}

type backend struct {
	title   string
	factory Factory
}

var (
	backends = make(map[string]backend)
	mu       sync.RWMutex
)

// Register adds a backend for scheme.
// Panics if the scheme is already registered.
func Register(scheme, title string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	scheme = strings.ToLower(scheme)
	if _, exists := backends[scheme]; exists {
		panic(fmt.Sprintf("registry: ledger scheme %q already registered", scheme))
	}
	backends[scheme] = backend{title: title, factory: f}
}

// List returns all registered backends, sorted by scheme.
func List() []BackendInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]BackendInfo, 0, len(backends))
	for scheme, b := range backends {
		result = append(result, BackendInfo{Scheme: scheme, Title: b.title})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Scheme < result[j].Scheme
	})
	return result
}

// Exists checks if a backend is registered for scheme.
func Exists(scheme string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := backends[strings.ToLower(scheme)]
	return ok
}

// Open opens the ledger named by raw. An empty DSN or "none" returns a nil
// Ledger and no error: the game then runs without a ledger.
func Open(ctx context.Context, raw string) (ledger.Ledger, error) {
	if raw == "" || strings.EqualFold(raw, NoneDSN) {
		return nil, nil
	}
	dsn, err := ParseDSN(raw)
	if err != nil {
		return nil, err
	}

	mu.RLock()
	b, ok := backends[dsn.Scheme]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownScheme, dsn.Scheme)
	}

	l, err := b.factory(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("registry: open %s ledger: %w", dsn.Scheme, err)
	}
	return l, nil
}
