package quiz_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
)

func setup(t *testing.T) (*quiz.Service, *quiz.SQLStore) {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "quiz.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	cat := catalog.NewSQLStore(dbh)
	require.NoError(t, cat.PutCourse(ctx, catalog.Course{ID: "c1", Title: "Go Basics", InstructorID: "teacher-1", CreatedAt: 1}))
	store := quiz.NewSQLStore(dbh)
	return quiz.NewService(store, cat), store
}

func sampleInput() quiz.Input {
	return quiz.Input{
		CourseID: "c1",
		Title:    "  Final quiz ",
		Questions: []quiz.Question{
			{Text: "2+2?", Options: []quiz.Option{{Text: "4", IsCorrect: true}, {Text: "5"}}, Explanation: "arithmetic"},
			{Text: "Go keyword for functions?", Options: []quiz.Option{{Text: "fn"}, {Text: "func", IsCorrect: true}}},
		},
	}
}

var owner = quiz.Actor{ID: "teacher-1", Role: "teacher"}

func TestCreateAssignsIDsAndDefaults(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	q, err := svc.Create(ctx, owner, sampleInput())
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, "Final quiz", q.Title)
	assert.Equal(t, quiz.DefaultPassingScore, q.PassingScore)
	assert.True(t, q.IsActive)
	for _, qu := range q.Questions {
		assert.NotEmpty(t, qu.ID)
		for _, o := range qu.Options {
			assert.NotEmpty(t, o.ID)
		}
	}

	got, err := store.GetByCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, q.Questions, got.Questions)
}

func TestCreateOnePerCourse(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner, sampleInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, sampleInput())
	assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)
}

func TestCreateRequiresOwner(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.Create(context.Background(), quiz.Actor{ID: "someone-else", Role: "teacher"}, sampleInput())
	assert.True(t, errors.Is(err, apperr.ErrForbidden), "got %v", err)

	_, err = svc.Create(context.Background(), quiz.Actor{ID: "root", Role: "admin"}, sampleInput())
	assert.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	noCorrect := sampleInput()
	noCorrect.Questions[1].Options[1].IsCorrect = false
	_, err := svc.Create(ctx, owner, noCorrect)
	assert.True(t, errors.Is(err, apperr.ErrInvalid))
	assert.Contains(t, err.Error(), "question 2")

	badScore := sampleInput()
	score := 120.0
	badScore.PassingScore = &score
	_, err = svc.Create(ctx, owner, badScore)
	assert.True(t, errors.Is(err, apperr.ErrInvalid))

	empty := sampleInput()
	empty.Questions = nil
	_, err = svc.Create(ctx, owner, empty)
	assert.True(t, errors.Is(err, apperr.ErrInvalid))

	dupQuestion := sampleInput()
	dupQuestion.Questions[0].ID = "q1"
	dupQuestion.Questions[1].ID = "q1"
	_, err = svc.Create(ctx, owner, dupQuestion)
	assert.True(t, errors.Is(err, apperr.ErrInvalid), "got %v", err)
	assert.Contains(t, err.Error(), "question 2")

	dupOption := sampleInput()
	dupOption.Questions[0].Options[0].ID = "o1"
	dupOption.Questions[0].Options[1].ID = "o1"
	_, err = svc.Create(ctx, owner, dupOption)
	assert.True(t, errors.Is(err, apperr.ErrInvalid), "got %v", err)

	// The same option id under different questions is fine.
	shared := sampleInput()
	shared.Questions[0].Options[0].ID = "a"
	shared.Questions[1].Options[0].ID = "a"
	_, err = svc.Create(ctx, owner, shared)
	assert.NoError(t, err)
}

func TestUpdateRejectsDuplicateQuestionIDs(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	q, err := svc.Create(ctx, owner, sampleInput())
	require.NoError(t, err)

	upd := sampleInput()
	upd.Questions[0].ID = q.Questions[0].ID
	upd.Questions[1].ID = q.Questions[0].ID
	_, err = svc.Update(ctx, owner, q.ID, upd)
	assert.True(t, errors.Is(err, apperr.ErrInvalid), "got %v", err)
}

func TestUpdateKeepsCourseAndPassingScore(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	in := sampleInput()
	score := 80.0
	in.PassingScore = &score
	q, err := svc.Create(ctx, owner, in)
	require.NoError(t, err)

	upd := sampleInput()
	upd.CourseID = "some-other-course"
	upd.Title = "Renamed"
	inactive := false
	upd.IsActive = &inactive
	got, err := svc.Update(ctx, owner, q.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.CourseID)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 80.0, got.PassingScore)
	assert.False(t, got.IsActive)

	_, err = svc.Update(ctx, owner, "missing", upd)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestForTakingStripsAnswersForStudents(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, owner, sampleInput())
	require.NoError(t, err)

	student, err := svc.ForTaking(ctx, quiz.Actor{ID: "u1", Role: "student"}, "c1")
	require.NoError(t, err)
	for _, qu := range student.Questions {
		assert.Empty(t, qu.Explanation)
		for _, o := range qu.Options {
			assert.False(t, o.IsCorrect)
		}
	}

	full, err := svc.ForTaking(ctx, owner, "c1")
	require.NoError(t, err)
	assert.True(t, full.Questions[0].Options[0].IsCorrect)
	assert.Equal(t, "arithmetic", full.Questions[0].Explanation)

	_, err = svc.ForTaking(ctx, quiz.Actor{ID: "u1"}, "no-such-course")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
