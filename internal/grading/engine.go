package grading

import (
	"github.com/mind-engage/mindengage-courses/internal/quiz"
)

// Answer is one submitted choice.
type Answer struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
}

// Result is the outcome of grading one answer set against a quiz.
type Result struct {
	Score          float64 `json:"score"` // 0..100
	CorrectCount   int     `json:"correctCount"`
	TotalQuestions int     `json:"totalQuestions"`
	AttemptedCount int     `json:"attemptedCount"` // distinct question ids submitted
}

// optionIndex maps question id -> option id -> option.
type optionIndex map[string]map[string]quiz.Option

func buildIndex(q quiz.Quiz) optionIndex {
	idx := make(optionIndex, len(q.Questions))
	for _, qu := range q.Questions {
		opts := make(map[string]quiz.Option, len(qu.Options))
		for _, o := range qu.Options {
			opts[o.ID] = o
		}
		idx[qu.ID] = opts
	}
	return idx
}

// Grade scores answers against q. Answers naming an unknown question or option
// are ignored. The denominator is the quiz's full question count, so
// unanswered questions lower the score. Only the first answer for a question
// is graded.
func Grade(q quiz.Quiz, answers []Answer) Result {
	idx := buildIndex(q)
	res := Result{TotalQuestions: len(q.Questions)}

	attempted := make(map[string]struct{}, len(answers))
	graded := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		attempted[a.QuestionID] = struct{}{}

		opts, ok := idx[a.QuestionID]
		if !ok {
			continue
		}
		if _, done := graded[a.QuestionID]; done {
			continue
		}
		graded[a.QuestionID] = struct{}{}
		if o, ok := opts[a.SelectedOptionID]; ok && o.IsCorrect {
			res.CorrectCount++
		}
	}
	res.AttemptedCount = len(attempted)

	if res.TotalQuestions == 0 {
		return res
	}
	res.Score = float64(res.CorrectCount) * 100 / float64(res.TotalQuestions)
	return res
}

// Passed applies the quiz threshold.
func Passed(score, passingScore float64) bool {
	return score >= passingScore
}
