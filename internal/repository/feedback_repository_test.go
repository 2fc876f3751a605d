package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godilite/feedback-insights/internal/analytics"
)

// TestFeedbackRepositoryDriverErrors tests that driver failures are wrapped
// with the failing operation.
func TestFeedbackRepositoryDriverErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	t.Run("GetByTraining query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery("SELECT training_id").WithArgs("T1").WillReturnError(boom)

		_, err = NewFeedbackRepository(db).GetByTraining(ctx, "T1")

		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "query GetByTraining")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByTrainer bound arguments", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery("created_at >= \\?").
			WithArgs("Alice", "2025-01-01 00:00:00.000000").
			WillReturnRows(sqlmock.NewRows([]string{"training_id", "trainer_name", "student_name", "subject_name", "ratings", "answers", "created_at"}))

		records, err := NewFeedbackRepository(db).GetByTrainer(ctx, "Alice", from, time.Time{})

		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt ratings column", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		rows := sqlmock.NewRows([]string{"training_id", "trainer_name", "student_name", "subject_name", "ratings", "answers", "created_at"}).
			AddRow("T1", "Alice", "", "Go", "{not json", "[]", "2025-01-01 00:00:00.000000")
		mock.ExpectQuery("SELECT training_id").WillReturnRows(rows)

		_, err = NewFeedbackRepository(db).GetByTraining(ctx, "T1")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode GetByTraining ratings")
	})

	t.Run("Insert exec", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectExec("INSERT INTO feedback").WillReturnError(boom)

		err = NewFeedbackRepository(db).Insert(ctx, analytics.Record{TrainingID: "T1", TrainerName: "Alice"})

		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "exec Insert")
	})

	t.Run("ListTrainers iterate", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		rows := sqlmock.NewRows([]string{"trainer_name", "sessions", "participants", "first_submission", "last_submission"}).
			AddRow("Alice", 1, 2, "2025-01-01 00:00:00.000000", "2025-01-02 00:00:00.000000").
			RowError(0, boom)
		mock.ExpectQuery("GROUP BY trainer_name").WillReturnRows(rows)

		_, err = NewFeedbackRepository(db).ListTrainers(ctx)

		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "iterate ListTrainers")
	})

	t.Run("Stats totals", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery("SELECT COUNT\\(id\\)").WillReturnError(boom)

		_, err = NewFeedbackRepository(db).Stats(ctx)

		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "query Stats")
	})

	t.Run("Stats training ids", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectQuery("SELECT COUNT\\(id\\)").
			WillReturnRows(sqlmock.NewRows([]string{"count", "first", "last"}).
				AddRow(1, "2025-01-01 00:00:00.000000", "2025-01-01 00:00:00.000000"))
		mock.ExpectQuery("SELECT DISTINCT training_id").WillReturnError(boom)

		_, err = NewFeedbackRepository(db).Stats(ctx)

		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "query Stats training ids")
	})
}
