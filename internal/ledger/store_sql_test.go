package ledger_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-courses/internal/apperr"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/grading"
	"github.com/mind-engage/mindengage-courses/internal/ledger"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
)

func TestSQLStoreOrdersByRecency(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbh.Close() })

	require.NoError(t, catalog.NewSQLStore(dbh).PutCourse(ctx, catalog.Course{ID: "c1", Title: "Go", InstructorID: "t1", CreatedAt: 1}))
	require.NoError(t, quiz.NewSQLStore(dbh).Create(ctx, quiz.Quiz{
		ID: "z1", CourseID: "c1", Title: "Quiz", PassingScore: 70, IsActive: true, CreatedBy: "t1",
		Questions: []quiz.Question{{ID: "q1", Text: "?", Options: []quiz.Option{{ID: "o1", Text: "a", IsCorrect: true}}}},
	}))

	store := ledger.NewSQLStore(dbh)
	for i, score := range []float64{40, 100, 70} {
		require.NoError(t, store.Insert(ctx, ledger.Submission{
			ID: "s" + string(rune('a'+i)), UserID: "u1", QuizID: "z1", CourseID: "c1",
			Answers:        []grading.Answer{{QuestionID: "q1", SelectedOptionID: "o1"}},
			Score:          score,
			IsPassed:       score >= 70,
			TotalQuestions: 1,
			CompletedAt:    int64(100 + i),
		}))
	}

	all, err := store.ListByUserQuiz(ctx, "u1", "z1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"sc", "sb", "sa"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "o1", all[0].Answers[0].SelectedOptionID)

	limited, err := store.ListByUserQuiz(ctx, "u1", "z1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := store.ListByUserQuiz(ctx, "u2", "z1", 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	got, err := store.Get(ctx, "sb")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Score)
	assert.True(t, got.IsPassed)

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSQLStoreSurfacesDriverErrors(t *testing.T) {
	dbh, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer dbh.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM submissions`)).
		WithArgs("u1", "z1").
		WillReturnError(boom)

	_, err = ledger.NewSQLStore(dbh).ListByUserQuiz(context.Background(), "u1", "z1", 0)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
