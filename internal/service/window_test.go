package service

import (
	"errors"
	"testing"
	"time"

	"github.com/omarrislam/Quiz-App/internal/model"
)

func tp(t time.Time) *time.Time { return &t }

func TestCheckJoinable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		quiz model.Quiz
		want error
	}{
		{"closed", model.Quiz{Status: model.QuizStatusClosed}, ErrQuizClosed},
		{"draft", model.Quiz{Status: model.QuizStatusDraft}, ErrQuizNotPublished},
		{"not started", model.Quiz{Status: model.QuizStatusPublished, StartAt: tp(now.Add(time.Minute))}, ErrQuizNotStarted},
		{"ended", model.Quiz{Status: model.QuizStatusPublished, EndAt: tp(now.Add(-time.Second))}, ErrQuizEnded},
		{"open no window", model.Quiz{Status: model.QuizStatusPublished}, nil},
		{"open inside window", model.Quiz{
			Status:  model.QuizStatusPublished,
			StartAt: tp(now.Add(-time.Hour)),
			EndAt:   tp(now.Add(time.Hour)),
		}, nil},
		{"closed wins over window", model.Quiz{Status: model.QuizStatusClosed, StartAt: tp(now.Add(time.Hour))}, ErrQuizClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckJoinable(&tt.quiz, now)
			if !errors.Is(got, tt.want) {
				t.Fatalf("CheckJoinable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtendEnd_RepublishesClosedQuiz(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := &model.Quiz{Status: model.QuizStatusClosed, EndAt: tp(now.Add(-10 * time.Minute))}

	end, status := ExtendEnd(q, 30*time.Minute, now)
	if !end.Equal(now.Add(20 * time.Minute)) {
		t.Fatalf("end = %v", end)
	}
	if status != model.QuizStatusPublished {
		t.Fatalf("status = %s, want published", status)
	}
}

func TestExtendEnd_StaysClosedWhenStillPast(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := &model.Quiz{Status: model.QuizStatusClosed, EndAt: tp(now.Add(-2 * time.Hour))}

	_, status := ExtendEnd(q, 30*time.Minute, now)
	if status != model.QuizStatusClosed {
		t.Fatalf("status = %s, want closed", status)
	}
}

func TestExtendEnd_NoEndUsesNow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := &model.Quiz{Status: model.QuizStatusDraft}

	end, status := ExtendEnd(q, 15*time.Minute, now)
	if !end.Equal(now.Add(15*time.Minute)) || status != model.QuizStatusDraft {
		t.Fatalf("end = %v status = %s", end, status)
	}
}

func TestRemainingSeconds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if RemainingSeconds(&model.Quiz{}, now) != nil {
		t.Fatal("expected nil without end time")
	}
	if got := *RemainingSeconds(&model.Quiz{EndAt: tp(now.Add(90 * time.Second))}, now); got != 90 {
		t.Fatalf("remaining = %d, want 90", got)
	}
	if got := *RemainingSeconds(&model.Quiz{EndAt: tp(now.Add(-time.Minute))}, now); got != 0 {
		t.Fatalf("remaining = %d, want 0", got)
	}
}
