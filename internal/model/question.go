package model

import (
	"time"

	"github.com/google/uuid"
)

// Question is a single-correct-answer multiple choice question.
type Question struct {
	ID           uuid.UUID `json:"id"`
	QuizID       uuid.UUID `json:"quiz_id"`
	Text         string    `json:"text"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correct_index"`
	Order        int       `json:"order"`
	CreatedAt    time.Time `json:"created_at"`
}

// QuestionForStudent is a question without the correct answer, sent to
// students. OptionIndexes[i] is the canonical index of Options[i]; answers
// are submitted with the canonical index.
type QuestionForStudent struct {
	ID            uuid.UUID `json:"id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	OptionIndexes []int     `json:"option_indexes"`
}

// UpdateQuestionRequest is the payload for editing a question.
type UpdateQuestionRequest struct {
	Text         *string  `json:"text" binding:"omitempty,notblank"`
	Options      []string `json:"options" binding:"omitempty,min=2,max=10,dive,notblank"`
	CorrectIndex *int     `json:"correct_index" binding:"omitempty,min=0"`
	Order        *int     `json:"order" binding:"omitempty,min=1"`
}
