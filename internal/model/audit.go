package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditType tags an instructor-facing audit entry.
type AuditType string

const (
	AuditOTPSent           AuditType = "otp_sent"
	AuditOTPResend         AuditType = "otp_resend"
	AuditOTPDeliveryFailed AuditType = "otp_delivery_failed"
	AuditAttemptEnded      AuditType = "attempt_ended"
	AuditAttemptRemoved    AuditType = "attempt_removed"
	AuditQuizClosed        AuditType = "quiz_closed"
)

// AuditLog is an append-only entry on a quiz's audit trail.
type AuditLog struct {
	ID        uuid.UUID      `json:"id"`
	QuizID    uuid.UUID      `json:"quiz_id"`
	Type      AuditType      `json:"type"`
	Message   string         `json:"message"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAuditLog allocates an entry with a fresh ID.
func NewAuditLog(quizID uuid.UUID, typ AuditType, message string, meta map[string]any, at time.Time) *AuditLog {
	return &AuditLog{
		ID:        uuid.New(),
		QuizID:    quizID,
		Type:      typ,
		Message:   message,
		Meta:      meta,
		CreatedAt: at,
	}
}
