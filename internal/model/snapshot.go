package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SnapshotPhase marks when during an attempt a webcam capture was taken.
type SnapshotPhase string

const (
	SnapshotPhaseStart  SnapshotPhase = "start"
	SnapshotPhaseMiddle SnapshotPhase = "middle"
	SnapshotPhaseEnd    SnapshotPhase = "end"
)

// Valid reports whether p is one of the three capture phases.
func (p SnapshotPhase) Valid() bool {
	switch p {
	case SnapshotPhaseStart, SnapshotPhaseMiddle, SnapshotPhaseEnd:
		return true
	}
	return false
}

const (
	DefaultSnapshotWidth  = 320
	DefaultSnapshotHeight = 240
)

// Dimension is a pixel size that tolerates numbers, numeric strings or junk
// from the browser. Anything unusable decodes to 0.
type Dimension int

func (d *Dimension) UnmarshalJSON(b []byte) error {
	*d = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		if f > 0 {
			*d = Dimension(f)
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		*d = Dimension(f)
	}
	return nil
}

// OrDefault returns d, or fallback when d is not a positive size.
func (d Dimension) OrDefault(fallback int) int {
	if d <= 0 {
		return fallback
	}
	return int(d)
}

// Snapshot is a phase-tagged webcam capture.
type Snapshot struct {
	ID        uuid.UUID     `json:"id"`
	AttemptID uuid.UUID     `json:"attempt_id"`
	Phase     SnapshotPhase `json:"phase"`
	Mime      string        `json:"mime"`
	Data      string        `json:"data"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	CreatedAt time.Time     `json:"created_at"`
}

// SecondCamSnapshot is a periodic capture from the companion device.
type SecondCamSnapshot struct {
	ID        uuid.UUID `json:"id"`
	AttemptID uuid.UUID `json:"attempt_id"`
	Mime      string    `json:"mime"`
	Data      string    `json:"data"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

// SecondCamSession tracks companion-device liveness for one attempt.
type SecondCamSession struct {
	AttemptID   uuid.UUID `json:"attempt_id"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// SubmitSnapshotRequest carries a phase capture. Phase and image checks
// happen in the service so they map to their own error codes.
type SubmitSnapshotRequest struct {
	Phase  SnapshotPhase `json:"phase"`
	Mime   string        `json:"mime"`
	Data   string        `json:"data"`
	Width  Dimension     `json:"width"`
	Height Dimension     `json:"height"`
}

// SecondCamHeartbeatRequest carries an unphased companion capture.
type SecondCamHeartbeatRequest struct {
	Token  string    `json:"token"`
	Mime   string    `json:"mime"`
	Data   string    `json:"data"`
	Width  Dimension `json:"width"`
	Height Dimension `json:"height"`
}

// SecondCamConnectRequest registers the companion device.
type SecondCamConnectRequest struct {
	Token string `json:"token" binding:"required"`
}

// SecondCamStatus is the derived liveness view.
type SecondCamStatus struct {
	Enabled    bool       `json:"enabled"`
	Connected  bool       `json:"connected"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// SnapshotResult reports whether a phase capture was newly stored.
type SnapshotResult struct {
	Status string `json:"status"`
}

const (
	SnapshotSaved  = "saved"
	SnapshotExists = "exists"
)

// PurgeStats reports what a retention sweep removed.
type PurgeStats struct {
	Snapshots          int64
	SecondCamSnapshots int64
	Sessions           int64
}
