// Package ledgerrpc exposes a ledger over WebSocket and provides the client
// that talks to it. Messages are JSON objects; requests carry an id that the
// matching response echoes, so a client may have many calls in flight on one
// connection.
package ledgerrpc

import (
	"encoding/json"
	"errors"

	"github.com/vovakirdan/flappychain/internal/ledger"
	"github.com/vovakirdan/flappychain/internal/wallet"
)

// ProtocolVersion is sent with every request.
const ProtocolVersion = 1

type request struct {
	Ver    int    `json:"ver"`
	ID     string `json:"id"`
	Method string `json:"method"`
	Params params `json:"params"`
}

type params struct {
	Player   wallet.Address `json:"player,omitempty"`
	Session  string         `json:"session,omitempty"`
	Username string         `json:"username,omitempty"`
	Delta    int            `json:"delta,omitempty"`
	Score    int            `json:"score,omitempty"`
	Limit    int            `json:"limit,omitempty"`
}

type response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorCodes maps ledger sentinels to stable wire codes so errors.Is keeps
// working across the connection.
var errorCodes = []struct {
	code string
	err  error
}{
	{"unknown_session", ledger.ErrUnknownSession},
	{"session_exists", ledger.ErrSessionExists},
	{"session_ended", ledger.ErrSessionEnded},
	{"not_owner", ledger.ErrNotOwner},
	{"invalid_delta", ledger.ErrInvalidDelta},
	{"invalid_score", ledger.ErrInvalidScore},
	{"unavailable", ledger.ErrUnavailable},
}

const (
	codeInternal      = "internal"
	codeUnknownMethod = "unknown_method"
)

// ErrRemote wraps errors reported by the node that have no ledger sentinel.
var ErrRemote = errors.New("ledgerrpc: remote error")

func encodeError(err error) *rpcError {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return &rpcError{Code: c.code, Message: err.Error()}
		}
	}
	return &rpcError{Code: codeInternal, Message: err.Error()}
}

func (e *rpcError) decode() error {
	for _, c := range errorCodes {
		if c.code == e.Code {
			return c.err
		}
	}
	return &remoteError{code: e.Code, msg: e.Message}
}

type remoteError struct {
	code, msg string
}

func (e *remoteError) Error() string {
	return "ledgerrpc: " + e.code + ": " + e.msg
}

func (e *remoteError) Unwrap() error {
	return ErrRemote
}
