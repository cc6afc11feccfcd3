package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DashboardMetrics is the instructor's live overview of one quiz.
type DashboardMetrics struct {
	QuizID           uuid.UUID  `json:"quiz_id"`
	Status           QuizStatus `json:"status"`
	TotalAttempts    int        `json:"total_attempts"`
	ActiveAttempts   int        `json:"active_attempts"`
	CompletedCount   int        `json:"completed_attempts"`
	AverageScore     *float64   `json:"average_score"`
	LastSubmissionAt *time.Time `json:"last_submission_at"`
	EndAt            *time.Time `json:"end_at"`
	RemainingSeconds *int64     `json:"remaining_seconds"`
	InvitedCount     int        `json:"invited_count"`
}

// AttemptStats is the aggregate a metrics query returns.
type AttemptStats struct {
	Total            int
	Active           int
	Completed        int
	AverageCorrect   *float64
	LastSubmissionAt *time.Time
}

// TimelineSource distinguishes audit entries from suspicious events.
type TimelineSource string

const (
	TimelineAudit TimelineSource = "audit"
	TimelineEvent TimelineSource = "event"
)

// TimelineEntry is one row of the merged audit/event trail.
type TimelineEntry struct {
	Source       TimelineSource  `json:"source"`
	Type         string          `json:"type"`
	Message      string          `json:"message,omitempty"`
	AttemptID    *uuid.UUID      `json:"attempt_id,omitempty"`
	StudentEmail string          `json:"student_email,omitempty"`
	Meta         json.RawMessage `json:"meta,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// QuizEvent is an event joined with its attempt's student.
type QuizEvent struct {
	Event
	StudentEmail string `json:"student_email"`
	StudentName  string `json:"student_name"`
}

// AuditQuery bounds a timeline read.
type AuditQuery struct {
	Limit int        `form:"limit" binding:"omitempty,min=1,max=1000"`
	Since *time.Time `form:"since" time_format:"2006-01-02T15:04:05Z07:00"`
}
