package ledgerrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/flappychain/internal/ledger"
)

// HandlerConfig holds handler settings.
type HandlerConfig struct {
	Logger *log.Logger
	// CallTimeout bounds each ledger call. Zero means no extra bound.
	CallTimeout time.Duration
}

// Handler serves a ledger to WebSocket clients.
type Handler struct {
	ledger   ledger.Ledger
	logger   *log.Logger
	timeout  time.Duration
	upgrader websocket.Upgrader
}

// NewHandler creates a handler over l.
func NewHandler(l ledger.Ledger, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &Handler{
		ledger:   l,
		logger:   logger,
		timeout:  cfg.CallTimeout,
		upgrader: upgrader,
	}
}

// ServeHTTP upgrades the connection and serves requests until it closes.
// Requests on one connection are handled in order.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()

	h.logger.Info("client connected", "remote", r.RemoteAddr)
	defer h.logger.Info("client disconnected", "remote", r.RemoteAddr)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("read failed", "remote", r.RemoteAddr, "err", err)
			}
			return
		}

		var req request
		if err := json.Unmarshal(payload, &req); err != nil {
			h.logger.Warn("discarding malformed request", "remote", r.RemoteAddr, "err", err)
			continue
		}

		resp := h.dispatch(r.Context(), req)
		data, err := json.Marshal(resp)
		if err != nil {
			h.logger.Error("marshal response", "method", req.Method, "err", err)
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("write failed", "remote", r.RemoteAddr, "err", err)
			return
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, req request) response {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	p := req.Params
	var (
		result any
		err    error
	)
	switch req.Method {
	case ledger.OpStartSession:
		result, err = h.ledger.StartSession(ctx, p.Player, p.Session, p.Username)
	case ledger.OpIncrementScore:
		result, err = h.ledger.IncrementScore(ctx, p.Player, p.Session, p.Delta)
	case ledger.OpEndSession:
		result, err = h.ledger.EndSession(ctx, p.Player, p.Session, p.Score)
	case ledger.OpHighScore:
		result, err = h.ledger.HighScore(ctx, p.Player)
	case ledger.OpLeaderboard:
		result, err = h.ledger.Leaderboard(ctx, p.Limit)
	default:
		h.logger.Warn("unknown method", "method", req.Method)
		return response{ID: req.ID, Error: &rpcError{Code: codeUnknownMethod, Message: req.Method}}
	}

	if err != nil {
		h.logger.Debug("call failed", "method", req.Method, "session", p.Session, "err", err)
		return response{ID: req.ID, Error: encodeError(err)}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return response{ID: req.ID, Error: &rpcError{Code: codeInternal, Message: err.Error()}}
	}
	h.logger.Debug("call", "method", req.Method, "session", p.Session)
	return response{ID: req.ID, Result: data}
}
