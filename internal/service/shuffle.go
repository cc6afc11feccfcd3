package service

import (
	"math/rand/v2"

	"github.com/omarrislam/Quiz-App/internal/model"
)

// shuffleFunc has the signature of rand.Shuffle: an unbiased in-place
// Fisher-Yates over n elements.
type shuffleFunc func(n int, swap func(i, j int))

// presentQuestions strips answers and applies the quiz's shuffle flags.
// Order is never persisted, so each call reshuffles.
func presentQuestions(qs []model.Question, settings model.QuizSettings, shuffle shuffleFunc) []model.QuestionForStudent {
	if shuffle == nil {
		shuffle = rand.Shuffle
	}

	out := make([]model.QuestionForStudent, len(qs))
	for i, q := range qs {
		opts := make([]string, len(q.Options))
		copy(opts, q.Options)
		order := make([]int, len(q.Options))
		for j := range order {
			order[j] = j
		}
		if settings.ShuffleOptions {
			shuffle(len(opts), func(a, b int) {
				opts[a], opts[b] = opts[b], opts[a]
				order[a], order[b] = order[b], order[a]
			})
		}
		out[i] = model.QuestionForStudent{ID: q.ID, Text: q.Text, Options: opts, OptionIndexes: order}
	}

	if settings.ShuffleQuestions {
		shuffle(len(out), func(a, b int) { out[a], out[b] = out[b], out[a] })
	}
	return out
}
