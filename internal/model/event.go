package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType tags a suspicious-activity signal reported by the exam client.
type EventType string

const (
	EventTabHidden       EventType = "tab_hidden"
	EventWindowBlur      EventType = "window_blur"
	EventFullscreenExit  EventType = "fullscreen_exit"
	EventClipboardBlock  EventType = "clipboard_block"
	EventDevtoolsAttempt EventType = "devtools_attempt"
	EventContextMenu     EventType = "context_menu"
	EventFaceOffCenter   EventType = "face_off_center"
	EventPageHide        EventType = "page_hide"
)

// Event is an append-only suspicious-activity log entry.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	AttemptID uuid.UUID       `json:"attempt_id"`
	Type      EventType       `json:"type"`
	Message   *string         `json:"message,omitempty"`
	Extra     json.RawMessage `json:"extra,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// RecordEventRequest is the payload for reporting a suspicious event.
type RecordEventRequest struct {
	Type    EventType       `json:"type" binding:"required,notblank,max=64"`
	Message *string         `json:"message" binding:"omitempty,max=1000"`
	Extra   json.RawMessage `json:"extra"`
}
