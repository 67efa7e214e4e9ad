package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietcare/booking-assistant/internal/dialog"
	"github.com/vietcare/booking-assistant/internal/observability/metrics"
	"github.com/vietcare/booking-assistant/internal/session"
	"github.com/vietcare/booking-assistant/pkg/logging"
	"golang.org/x/net/websocket"
)

// msgOutOfScope answers idle messages that the classifier does not
// recognize as booking intent.
const msgOutOfScope = "Xin chào! Tôi là trợ lý đặt lịch khám. Bạn nhắn \"đặt lịch khám\" để bắt đầu đặt lịch nhé."

// ContextStore persists dialogue state between turns.
type ContextStore interface {
	Save(ctx context.Context, conversationID string, c dialog.Context) error
	Load(ctx context.Context, conversationID string) (*dialog.Context, error)
	Clear(ctx context.Context, conversationID string) error
}

// TranscriptStore records chat history.
type TranscriptStore interface {
	Append(ctx context.Context, conversationID string, msg session.Message) error
	List(ctx context.Context, conversationID string, limit int64) ([]session.Message, error)
}

// Handler manages web chat connections and messages.
type Handler struct {
	engine     *dialog.Engine
	contexts   ContextStore
	transcript TranscriptStore
	metrics    *metrics.ChatMetrics
	logger     *logging.Logger
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*wsConn // conversationID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
	done chan struct{}
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"` // "message", "typing", "history", "session", "error"
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"` // "assistant" or "user"
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Done      bool             `json:"done,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// Option customizes a Handler.
type Option func(*Handler)

// WithClock overrides the handler time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithMetrics attaches chat metrics.
func WithMetrics(m *metrics.ChatMetrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler creates a web chat handler.
func NewHandler(engine *dialog.Engine, contexts ContextStore, transcript TranscriptStore, logger *logging.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Handler{
		engine:     engine,
		contexts:   contexts,
		transcript: transcript,
		logger:     logger,
		now:        time.Now,
		sessions:   make(map[string]*wsConn),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ConversationID builds the canonical conversation ID for a webchat session.
func ConversationID(sessionID string) string {
	return "webchat:" + sessionID
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// processTurn runs one dialogue turn for a session and returns the reply.
func (h *Handler) processTurn(ctx context.Context, sessionID, text string) (reply string, done bool) {
	convID := ConversationID(sessionID)
	started := h.now()

	if h.transcript != nil {
		_ = h.transcript.Append(ctx, convID, session.Message{
			Role: "user",
			Body: text,
		})
	}

	var prior *dialog.Context
	if h.contexts != nil {
		loaded, err := h.contexts.Load(ctx, convID)
		if err != nil {
			h.logger.Error("webchat: failed to load context", "error", err, "session_id", sessionID)
		} else {
			prior = loaded
		}
	}

	active := prior != nil && prior.Flow == dialog.FlowCollecting && !prior.Expired(h.now())

	switch {
	case active, dialog.IsBookingQuery(text):
		res := h.engine.Respond(ctx, text, prior)
		reply, done = res.Response, res.Done
		if h.contexts != nil {
			if done {
				if err := h.contexts.Clear(ctx, convID); err != nil {
					h.logger.Error("webchat: failed to clear context", "error", err, "session_id", sessionID)
				}
			} else if err := h.contexts.Save(ctx, convID, res.Context); err != nil {
				h.logger.Error("webchat: failed to save context", "error", err, "session_id", sessionID)
			}
		}
		if h.metrics != nil {
			need := ""
			if prior != nil {
				need = string(prior.Need)
			}
			h.metrics.ObserveTurnLatency(need, h.now().Sub(started).Seconds())
		}
	default:
		reply = msgOutOfScope
	}

	if h.transcript != nil {
		_ = h.transcript.Append(ctx, convID, session.Message{
			Role: "assistant",
			Body: reply,
		})
	}
	return reply, done
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	convID := ConversationID(sessionID)

	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "session",
		SessionID: sessionID,
	})

	// Send history if available
	if h.transcript != nil {
		if msgs, err := h.transcript.List(r.Context(), convID, 50); err == nil && len(msgs) > 0 {
			history := make([]HistoryMessage, 0, len(msgs))
			for _, m := range msgs {
				history = append(history, HistoryMessage{
					Role:      m.Role,
					Text:      m.Body,
					Timestamp: m.Timestamp.Format(time.RFC3339),
				})
			}
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
		}
	}

	// Register connection
	wsc := &wsConn{conn: conn, done: make(chan struct{})}
	h.mu.Lock()
	h.sessions[convID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[convID] == wsc {
			delete(h.sessions, convID)
		}
		h.mu.Unlock()
		close(wsc.done)
	}()

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}

		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		h.SendToSession(convID, OutboundMessage{Type: "typing"})
		reply, done := h.processTurn(r.Context(), sessionID, msg.Text)
		h.SendToSession(convID, OutboundMessage{
			Type:      "message",
			Role:      "assistant",
			Text:      reply,
			Done:      done,
			Timestamp: h.now().UTC().Format(time.RFC3339),
		})
	}
}

// SendToSession sends a message to an active WebSocket session.
func (h *Handler) SendToSession(convID string, msg OutboundMessage) {
	h.mu.RLock()
	wsc, ok := h.sessions[convID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	_ = websocket.JSON.Send(wsc.conn, msg)
}

// HandleMessage is the HTTP endpoint for a single chat turn.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	reply, done := h.processTurn(r.Context(), req.SessionID, req.Text)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"reply":      reply,
		"session_id": req.SessionID,
		"done":       done,
	})
}

// HandleHistory returns chat history for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	convID := ConversationID(sessionID)

	if h.transcript == nil {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []HistoryMessage{}})
		return
	}

	msgs, err := h.transcript.List(r.Context(), convID, 100)
	if err != nil {
		h.logger.Error("webchat: failed to load history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	history := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, HistoryMessage{
			Role:      m.Role,
			Text:      m.Body,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": history})
}
