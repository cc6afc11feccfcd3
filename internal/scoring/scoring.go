// Package scoring tallies a submission against a quiz's question set.
package scoring

import (
	"github.com/google/uuid"
	"github.com/omarrislam/Quiz-App/internal/model"
)

// Score maps answers onto questions by ID and compares canonical option
// indices. The total is the size of the question set, not the number of
// answers. A repeated question ID keeps its first answer; an ID that is not
// in the set is recorded as incorrect.
func Score(questions []model.Question, answers []model.SubmittedAnswer) model.Score {
	correct := make(map[uuid.UUID]int, len(questions))
	for _, q := range questions {
		correct[q.ID] = q.CorrectIndex
	}

	seen := make(map[uuid.UUID]struct{}, len(answers))
	details := make([]model.AnswerDetail, 0, len(answers))
	count := 0

	for _, a := range answers {
		if _, dup := seen[a.QuestionID]; dup {
			continue
		}
		seen[a.QuestionID] = struct{}{}

		want, ok := correct[a.QuestionID]
		if !ok {
			want = -1
		}
		isCorrect := a.SelectedIndex != nil && *a.SelectedIndex == want
		if isCorrect {
			count++
		}
		details = append(details, model.AnswerDetail{
			QuestionID:    a.QuestionID,
			SelectedIndex: a.SelectedIndex,
			IsCorrect:     isCorrect,
		})
	}

	return model.Score{
		CorrectCount:   count,
		TotalQuestions: len(questions),
		Details:        details,
	}
}
