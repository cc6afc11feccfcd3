package service

import (
	"time"

	"github.com/omarrislam/Quiz-App/internal/model"
)

// CheckJoinable reports why q cannot accept a new attempt at now, or nil.
// Checks run in a fixed order: status first, then the window.
func CheckJoinable(q *model.Quiz, now time.Time) error {
	if err := checkStatus(q); err != nil {
		return err
	}
	return checkWindow(q, now)
}

func checkStatus(q *model.Quiz) error {
	switch q.Status {
	case model.QuizStatusPublished:
		return nil
	case model.QuizStatusClosed:
		return ErrQuizClosed
	case model.QuizStatusDraft:
		return ErrQuizNotPublished
	}
	return ErrQuizNotPublished
}

func checkWindow(q *model.Quiz, now time.Time) error {
	if q.StartAt != nil && q.StartAt.After(now) {
		return ErrQuizNotStarted
	}
	if IsExpired(q, now) {
		return ErrQuizEnded
	}
	return nil
}

// IsExpired reports whether a published quiz's end time has passed.
func IsExpired(q *model.Quiz, now time.Time) bool {
	return q.EndAt != nil && q.EndAt.Before(now)
}

// ShouldAutoClose reports whether a read at now must flip q to closed.
func ShouldAutoClose(q *model.Quiz, now time.Time) bool {
	return q.Status == model.QuizStatusPublished && IsExpired(q, now)
}

// ExtendEnd returns the new end time and status after adding d to the
// window. A closed quiz whose new end lies in the future is republished.
func ExtendEnd(q *model.Quiz, d time.Duration, now time.Time) (time.Time, model.QuizStatus) {
	base := now
	if q.EndAt != nil {
		base = *q.EndAt
	}
	end := base.Add(d)
	status := q.Status
	if status == model.QuizStatusClosed && end.After(now) {
		status = model.QuizStatusPublished
	}
	return end, status
}

// RemainingSeconds is the whole seconds left until the end, floored at 0.
// Nil when the quiz has no end time.
func RemainingSeconds(q *model.Quiz, now time.Time) *int64 {
	if q.EndAt == nil {
		return nil
	}
	left := int64(q.EndAt.Sub(now) / time.Second)
	if left < 0 {
		left = 0
	}
	return &left
}
