package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/grading"
	"github.com/mind-engage/mindengage-courses/internal/ledger"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

func actor(r *http.Request) quiz.Actor {
	return quiz.Actor{ID: subject(r), Role: rbac.RoleFromContext(r.Context())}
}

// POST /quiz
func CreateQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.Input
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		q, err := svc.Create(r.Context(), actor(r), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		created(w, "quiz created", q)
	}
}

// PUT /quiz/{quizId}. The course is taken from the stored quiz.
func UpdateQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.Input
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		q, err := svc.Update(r.Context(), actor(r), chi.URLParam(r, "quizId"), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, "quiz updated", q)
	}
}

// GET /quiz/course/{courseId}
func GetCourseQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.ForTaking(r.Context(), actor(r), chi.URLParam(r, "courseId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, "", q)
	}
}

type submitRequest struct {
	QuizID    string           `json:"quizId" validate:"required"`
	Answers   []grading.Answer `json:"answers" validate:"dive"`
	TimeSpent int              `json:"timeSpent" validate:"gte=0"`
}

// POST /quiz/submit
func SubmitQuizHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		res, err := svc.SubmitAttempt(r.Context(), subject(r), req.QuizID, req.Answers, req.TimeSpent)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, res.Message, res)
	}
}

// GET /quiz/results/{courseId}
func QuizResultsHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.ResultsForCourse(r.Context(), subject(r), chi.URLParam(r, "courseId"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		ok(w, "", sum)
	}
}
