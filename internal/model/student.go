package model

import (
	"time"

	"github.com/google/uuid"
)

// Student is an invitee on a quiz's roster.
type Student struct {
	ID         uuid.UUID `json:"id"`
	QuizID     uuid.UUID `json:"quiz_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	ExternalID string    `json:"student_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// UpdateStudentRequest edits a single roster entry.
type UpdateStudentRequest struct {
	Name       *string `json:"name" binding:"omitempty,notblank,max=255"`
	Email      *string `json:"email" binding:"omitempty,email"`
	ExternalID *string `json:"student_id" binding:"omitempty,notblank,max=64"`
}

// StudentSearchResult is the public autocomplete shape.
type StudentSearchResult struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
