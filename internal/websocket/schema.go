package websocket

import (
	"encoding/json"
	"time"

	"github.com/omarrislam/Quiz-App/internal/model"
)

// ─── Actions (Companion → Server) ───────────────────────────────────

type Action string

const (
	ActionHeartbeat Action = "heartbeat"
	ActionPing      Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action          `json:"action"`
	Raw    json.RawMessage `json:"-"`
}

// HeartbeatRequest carries one companion capture. The credential comes
// from the connection, not the message.
type HeartbeatRequest struct {
	Action Action          `json:"action"`
	Mime   string          `json:"mime"`
	Data   string          `json:"data"`
	Width  model.Dimension `json:"width"`
	Height model.Dimension `json:"height"`
}

// ─── Events (Server → Companion) ────────────────────────────────────

type Event string

const (
	EventConnected Event = "connected"
	EventAck       Event = "ack"
	EventEnded     Event = "ended"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

type SessionResponse struct {
	Event      Event     `json:"event"`
	AttemptID  string    `json:"attempt_id"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// EndedResponse is sent before the server closes the stream because the
// attempt is no longer running.
type EndedResponse struct {
	Event  Event  `json:"event"`
	Reason string `json:"reason"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
