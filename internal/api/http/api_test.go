package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/mind-engage/mindengage-courses/internal/api/http"
	auth "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/jobs"
	"github.com/mind-engage/mindengage-courses/internal/ledger"
	"github.com/mind-engage/mindengage-courses/internal/payment"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
	"github.com/mind-engage/mindengage-courses/internal/render"
	"github.com/mind-engage/mindengage-courses/internal/storage"
)

type reply struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t   *testing.T
	srv *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(dir, "api.db")+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	blobs, err := storage.NewFSStore(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)

	cat := catalog.NewSQLStore(dbh)
	quizStore := quiz.NewSQLStore(dbh)
	subs := ledger.NewSQLStore(dbh)

	rr := render.New("https://courses.example.com")
	rr.Compress = false
	certs := certificate.NewService(certificate.Deps{
		Store:       certificate.NewSQLStore(dbh),
		Catalog:     cat,
		Submissions: subs,
		Quizzes:     quizStore,
		Blobs:       blobs,
		Renderer:    rr,
		Log:         log,
		PublicURL:   "https://courses.example.com",
	})
	queue := jobs.New(jobs.NewSQLStore(dbh), func(ctx context.Context, userID, courseID string) (string, error) {
		rec, err := certs.IssueOrFetch(ctx, userID, courseID)
		return rec.ID, err
	}, 3, log, nil)

	for _, u := range []catalog.User{
		{ID: "t1", Name: "R. Pike", Email: "rob@example.com", Role: "teacher"},
		{ID: "u1", Name: "Asha Rao", Email: "asha@example.com", Role: "student"},
	} {
		u.PasswordHash, err = auth.HashPassword("pw-" + u.ID)
		require.NoError(t, err)
		require.NoError(t, cat.PutUser(ctx, u))
	}
	require.NoError(t, cat.PutCourse(ctx, catalog.Course{ID: "c1", Title: "Concurrency in Go", InstructorID: "t1", CreatedAt: 1}))
	require.NoError(t, cat.PutCourse(ctx, catalog.Course{ID: "c2", Title: "Generics", InstructorID: "t1", CreatedAt: 1}))
	require.NoError(t, cat.PutCourse(ctx, catalog.Course{ID: "c3", Title: "Profiling Go", InstructorID: "t1", PricePaise: 49900, CreatedAt: 1}))

	r := chi.NewRouter()
	api.Mount(r, api.Deps{
		Auth:            auth.NewAuthService("test-secret"),
		Catalog:         cat,
		Quizzes:         quiz.NewService(quizStore, cat),
		Ledger:          ledger.NewService(subs, quizStore, cat, catalog.NewGate(cat), queue, log, nil),
		Certificates:    certs,
		Issuer:          queue,
		Payments:        payment.NewService("rzp_secret", cat),
		EnableLocalAuth: true,
		Ready:           map[string]api.Pinger{"db": dbh.PingContext},
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &harness{t: t, srv: srv}
}

func (h *harness) do(method, path, token string, body any) (int, reply, []byte) {
	h.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(h.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)

	var rep reply
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(h.t, json.Unmarshal(raw, &rep), string(raw))
	}
	return resp.StatusCode, rep, raw
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	code, rep, raw := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(h.t, http.StatusOK, code, string(raw))
	var data struct {
		Token string `json:"access_token"`
	}
	require.NoError(h.t, json.Unmarshal(rep.Data, &data))
	return data.Token
}

func fourQuestionQuiz(courseID string) map[string]any {
	var questions []map[string]any
	for _, q := range []string{"2+2?", "3*3?", "10/2?", "7-4?"} {
		questions = append(questions, map[string]any{
			"text": q,
			"options": []map[string]any{
				{"text": "right", "isCorrect": true},
				{"text": "wrong"},
			},
		})
	}
	return map[string]any{"courseId": courseID, "title": "Final quiz", "questions": questions}
}

func TestQuizToCertificateFlow(t *testing.T) {
	h := newHarness(t)
	teacher := h.login("rob@example.com", "pw-t1")
	student := h.login("ASHA@example.com", "pw-u1")

	// Authoring is owner-only.
	code, _, _ := h.do(http.MethodPost, "/quiz", student, fourQuestionQuiz("c1"))
	assert.Equal(t, http.StatusForbidden, code)

	code, rep, raw := h.do(http.MethodPost, "/quiz", teacher, fourQuestionQuiz("c1"))
	require.Equal(t, http.StatusCreated, code, string(raw))
	var authored quiz.Quiz
	require.NoError(t, json.Unmarshal(rep.Data, &authored))
	require.Len(t, authored.Questions, 4)

	code, _, _ = h.do(http.MethodPost, "/quiz", teacher, fourQuestionQuiz("c1"))
	assert.Equal(t, http.StatusConflict, code)

	// Students never see answer keys.
	code, _, raw = h.do(http.MethodGet, "/quiz/course/c1", student, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(raw), "isCorrect")

	// 3 of 4 correct: 75, passes at 70 and issues the certificate.
	var answers []map[string]string
	for i, q := range authored.Questions {
		opt := q.Options[0].ID // correct
		if i == 3 {
			opt = q.Options[1].ID
		}
		answers = append(answers, map[string]string{"questionId": q.ID, "selectedOptionId": opt})
	}
	code, rep, raw = h.do(http.MethodPost, "/quiz/submit", student, map[string]any{"quizId": authored.ID, "answers": answers, "timeSpent": 90})
	require.Equal(t, http.StatusOK, code, string(raw))
	var result ledger.Result
	require.NoError(t, json.Unmarshal(rep.Data, &result))
	assert.Equal(t, 75.0, result.Score)
	assert.True(t, result.IsPassed)
	require.NotEmpty(t, result.CertificateID)

	// Generating again returns the same certificate.
	code, rep, _ = h.do(http.MethodPost, "/certificates/c1/generate", student, nil)
	require.Equal(t, http.StatusOK, code)
	var rec certificate.Record
	require.NoError(t, json.Unmarshal(rep.Data, &rec))
	assert.Equal(t, result.CertificateID, rec.ID)

	code, rep, _ = h.do(http.MethodGet, "/certificates", student, nil)
	require.Equal(t, http.StatusOK, code)
	var listing []certificate.Listing
	require.NoError(t, json.Unmarshal(rep.Data, &listing))
	require.Len(t, listing, 1)

	// Public download and verification.
	code, _, raw = h.do(http.MethodGet, "/certificates/"+rec.ID+"/download", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))

	code, rep, raw = h.do(http.MethodGet, "/certificates/"+rec.ID+"/verify", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(raw), "Asha Rao")
	assert.NotContains(t, string(raw), `"u1"`)
	assert.True(t, rep.Success)

	code, rep, raw = h.do(http.MethodGet, "/certificates/0000000000000000/verify", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, rep.Success)
	assert.NotContains(t, string(raw), "u1")

	// Results and scorecards.
	code, rep, _ = h.do(http.MethodGet, "/quiz/results/c1", student, nil)
	require.Equal(t, http.StatusOK, code)
	var sum ledger.Summary
	require.NoError(t, json.Unmarshal(rep.Data, &sum))
	assert.Equal(t, 75.0, sum.BestScore)
	assert.True(t, sum.HasPassed)

	code, _, raw = h.do(http.MethodGet, "/quiz/scorecard/"+result.Submission.ID+"/download", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))

	code, _, raw = h.do(http.MethodGet, "/quiz/scorecard/"+result.Submission.ID+"/verify", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(raw), `"quizTitle":"Final quiz"`)
}

func TestPartialSubmissionFails(t *testing.T) {
	h := newHarness(t)
	teacher := h.login("rob@example.com", "pw-t1")
	student := h.login("asha@example.com", "pw-u1")

	_, rep, _ := h.do(http.MethodPost, "/quiz", teacher, fourQuestionQuiz("c1"))
	var authored quiz.Quiz
	require.NoError(t, json.Unmarshal(rep.Data, &authored))

	answers := []map[string]string{
		{"questionId": authored.Questions[0].ID, "selectedOptionId": authored.Questions[0].Options[0].ID},
		{"questionId": authored.Questions[1].ID, "selectedOptionId": authored.Questions[1].Options[0].ID},
	}
	code, rep, _ := h.do(http.MethodPost, "/quiz/submit", student, map[string]any{"quizId": authored.ID, "answers": answers})
	require.Equal(t, http.StatusOK, code)
	var result ledger.Result
	require.NoError(t, json.Unmarshal(rep.Data, &result))
	assert.Equal(t, 50.0, result.Score)
	assert.False(t, result.IsPassed)
	assert.Empty(t, result.CertificateID)

	// Not completed: no certificate.
	code, rep, _ = h.do(http.MethodPost, "/certificates/c1/generate", student, nil)
	assert.Equal(t, http.StatusPreconditionFailed, code)
	assert.Contains(t, rep.Message, "course not yet completed")
}

func TestCompleteCourseIssues(t *testing.T) {
	h := newHarness(t)
	student := h.login("asha@example.com", "pw-u1")

	code, _, _ := h.do(http.MethodPost, "/progress/c2/lectures/l1", student, nil)
	require.Equal(t, http.StatusOK, code)

	code, rep, raw := h.do(http.MethodPost, "/progress/c2/complete", student, nil)
	require.Equal(t, http.StatusOK, code, string(raw))
	var data struct {
		Progress      catalog.Progress `json:"progress"`
		CertificateID string           `json:"certificateId"`
	}
	require.NoError(t, json.Unmarshal(rep.Data, &data))
	assert.True(t, data.Progress.Completed)
	assert.Equal(t, []string{"l1"}, data.Progress.ViewedLectures)
	assert.Len(t, data.CertificateID, 16)

	code, _, _ = h.do(http.MethodPost, "/progress/missing/complete", student, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuthAndPayments(t *testing.T) {
	h := newHarness(t)

	code, _, _ := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "asha@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _, _ = h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _, _ = h.do(http.MethodGet, "/certificates", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	student := h.login("asha@example.com", "pw-u1")
	body := map[string]string{
		"courseId":            "c1",
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  payment.Sign("rzp_secret", "order_1", "pay_1"),
	}
	code, _, raw := h.do(http.MethodPost, "/payments/verify", student, body)
	assert.Equal(t, http.StatusOK, code, string(raw))

	body["razorpay_signature"] = payment.Sign("wrong", "order_1", "pay_1")
	code, _, _ = h.do(http.MethodPost, "/payments/verify", student, body)
	assert.Equal(t, http.StatusForbidden, code)

	code, _, _ = h.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _, _ = h.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestPaidCourseNeedsEnrollment(t *testing.T) {
	h := newHarness(t)
	teacher := h.login("rob@example.com", "pw-t1")
	student := h.login("asha@example.com", "pw-u1")

	code, rep, raw := h.do(http.MethodPost, "/quiz", teacher, fourQuestionQuiz("c3"))
	require.Equal(t, http.StatusCreated, code, string(raw))
	var authored quiz.Quiz
	require.NoError(t, json.Unmarshal(rep.Data, &authored))
	var answers []map[string]string
	for _, q := range authored.Questions {
		answers = append(answers, map[string]string{"questionId": q.ID, "selectedOptionId": q.Options[0].ID})
	}

	code, _, _ = h.do(http.MethodPost, "/progress/c3/lectures/l1", student, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _, _ = h.do(http.MethodPost, "/progress/c3/complete", student, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _, _ = h.do(http.MethodGet, "/quiz/course/c3", student, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _, _ = h.do(http.MethodPost, "/quiz/submit", student, map[string]any{"quizId": authored.ID, "answers": answers})
	assert.Equal(t, http.StatusForbidden, code)
	code, _, _ = h.do(http.MethodPost, "/certificates/c3/generate", student, nil)
	assert.Equal(t, http.StatusPreconditionFailed, code)

	code, _, raw = h.do(http.MethodPost, "/payments/verify", student, map[string]string{
		"courseId":            "c3",
		"razorpay_order_id":   "order_9",
		"razorpay_payment_id": "pay_9",
		"razorpay_signature":  payment.Sign("rzp_secret", "order_9", "pay_9"),
	})
	require.Equal(t, http.StatusOK, code, string(raw))

	code, rep, raw = h.do(http.MethodPost, "/quiz/submit", student, map[string]any{"quizId": authored.ID, "answers": answers})
	require.Equal(t, http.StatusOK, code, string(raw))
	var result ledger.Result
	require.NoError(t, json.Unmarshal(rep.Data, &result))
	assert.Equal(t, 100.0, result.Score)
	assert.NotEmpty(t, result.CertificateID)
}

func TestDuplicateQuestionIDsRejected(t *testing.T) {
	h := newHarness(t)
	teacher := h.login("rob@example.com", "pw-t1")

	body := fourQuestionQuiz("c1")
	questions := body["questions"].([]map[string]any)
	questions[0]["id"] = "q1"
	questions[1]["id"] = "q1"
	code, rep, _ := h.do(http.MethodPost, "/quiz", teacher, body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, rep.Success)
}
