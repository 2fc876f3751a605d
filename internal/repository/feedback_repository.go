package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mattn/go-sqlite3"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/repository/models"
)

// Schema creates the feedback table. Anonymous rows store a NULL student so
// the unique index only applies to named participants.
const Schema = `
CREATE TABLE IF NOT EXISTS feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	training_id TEXT NOT NULL,
	trainer_name TEXT NOT NULL,
	student_name TEXT,
	subject_name TEXT NOT NULL DEFAULT '',
	ratings TEXT NOT NULL DEFAULT '[]',
	answers TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_feedback_training_student ON feedback (training_id, student_name);
CREATE INDEX IF NOT EXISTS idx_feedback_trainer ON feedback (trainer_name COLLATE NOCASE, created_at);
`

// Fixed-width UTC layout so created_at compares correctly as text.
const timeLayout = "2006-01-02 15:04:05.000000"

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

const selectFeedback = `
	SELECT training_id, trainer_name, COALESCE(student_name, ''), subject_name, ratings, answers, created_at
	FROM feedback
`

// GetByTraining returns every record of one training session in submission order.
func (s *FeedbackRepository) GetByTraining(ctx context.Context, trainingID string) ([]analytics.Record, error) {
	query := selectFeedback + ` WHERE training_id = ? ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, trainingID)
	if err != nil {
		return nil, fmt.Errorf("query GetByTraining: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows, "GetByTraining")
}

// GetByTrainer returns a trainer's records, matching the name case-insensitively.
// A zero from or to leaves that side of the range open.
func (s *FeedbackRepository) GetByTrainer(ctx context.Context, trainerName string, from, to time.Time) ([]analytics.Record, error) {
	var b strings.Builder
	b.WriteString(selectFeedback)
	b.WriteString(` WHERE trainer_name = ? COLLATE NOCASE`)
	args := []any{trainerName}

	if !from.IsZero() {
		b.WriteString(` AND created_at >= ?`)
		args = append(args, formatTime(from))
	}
	if !to.IsZero() {
		b.WriteString(` AND created_at <= ?`)
		args = append(args, formatTime(to))
	}
	b.WriteString(` ORDER BY created_at, id`)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query GetByTrainer: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows, "GetByTrainer")
}

// Insert stores one record. A second submission by the same named student
// for the same training returns models.ErrDuplicateSubmission.
func (s *FeedbackRepository) Insert(ctx context.Context, rec analytics.Record) error {
	ratings, err := json.Marshal(nonNilRatings(rec.Quantitative))
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	answers, err := json.Marshal(nonNilAnswers(rec.Qualitative))
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}

	var student sql.NullString
	if rec.StudentName != "" {
		student = sql.NullString{String: rec.StudentName, Valid: true}
	}

	const query = `
		INSERT INTO feedback (training_id, trainer_name, student_name, subject_name, ratings, answers, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.TrainingID, rec.TrainerName, student, rec.SubjectName,
		string(ratings), string(answers), formatTime(rec.Timestamp))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return models.ErrDuplicateSubmission
		}
		return fmt.Errorf("exec Insert: %w", err)
	}
	return nil
}

// ListTrainers summarizes submissions per trainer, ordered by name. Names
// differing only in case are one trainer, matching GetByTrainer.
func (s *FeedbackRepository) ListTrainers(ctx context.Context) ([]models.TrainerSummary, error) {
	const query = `
		SELECT
			MIN(trainer_name) AS trainer_name,
			COUNT(DISTINCT training_id) AS sessions,
			COUNT(id) AS participants,
			MIN(created_at) AS first_submission,
			MAX(created_at) AS last_submission
		FROM feedback
		GROUP BY trainer_name COLLATE NOCASE
		ORDER BY trainer_name COLLATE NOCASE
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ListTrainers: %w", err)
	}
	defer rows.Close()

	var results []models.TrainerSummary
	for rows.Next() {
		var ts models.TrainerSummary
		var first, last string
		if err := rows.Scan(&ts.TrainerName, &ts.Sessions, &ts.Participants, &first, &last); err != nil {
			return nil, fmt.Errorf("scan ListTrainers row: %w", err)
		}
		if ts.FirstSubmission, err = parseTime(first); err != nil {
			return nil, fmt.Errorf("scan ListTrainers row: %w", err)
		}
		if ts.LastSubmission, err = parseTime(last); err != nil {
			return nil, fmt.Errorf("scan ListTrainers row: %w", err)
		}
		results = append(results, ts)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListTrainers: %w", err)
	}
	return results, nil
}

// Stats counts every stored submission and lists the training ids in order.
func (s *FeedbackRepository) Stats(ctx context.Context) (models.FeedbackStats, error) {
	const totals = `SELECT COUNT(id), MIN(created_at), MAX(created_at) FROM feedback`

	var stats models.FeedbackStats
	var first, last sql.NullString
	if err := s.db.QueryRowContext(ctx, totals).Scan(&stats.TotalFeedback, &first, &last); err != nil {
		return models.FeedbackStats{}, fmt.Errorf("query Stats: %w", err)
	}
	if first.Valid {
		t, err := parseTime(first.String)
		if err != nil {
			return models.FeedbackStats{}, fmt.Errorf("scan Stats: %w", err)
		}
		stats.EarliestFeedback = &t
	}
	if last.Valid {
		t, err := parseTime(last.String)
		if err != nil {
			return models.FeedbackStats{}, fmt.Errorf("scan Stats: %w", err)
		}
		stats.LatestFeedback = &t
	}

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT training_id FROM feedback ORDER BY training_id`)
	if err != nil {
		return models.FeedbackStats{}, fmt.Errorf("query Stats training ids: %w", err)
	}
	defer rows.Close()

	stats.TrainingIDs = []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return models.FeedbackStats{}, fmt.Errorf("scan Stats training id: %w", err)
		}
		stats.TrainingIDs = append(stats.TrainingIDs, id)
	}
	if err := rows.Err(); err != nil {
		return models.FeedbackStats{}, fmt.Errorf("iterate Stats: %w", err)
	}
	stats.UniqueTrainings = len(stats.TrainingIDs)
	return stats, nil
}

func scanRecords(rows *sql.Rows, op string) ([]analytics.Record, error) {
	var results []analytics.Record
	for rows.Next() {
		var rec analytics.Record
		var ratings, answers, created string
		if err := rows.Scan(&rec.TrainingID, &rec.TrainerName, &rec.StudentName, &rec.SubjectName, &ratings, &answers, &created); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", op, err)
		}
		if err := json.Unmarshal([]byte(ratings), &rec.Quantitative); err != nil {
			return nil, fmt.Errorf("decode %s ratings: %w", op, err)
		}
		if err := json.Unmarshal([]byte(answers), &rec.Qualitative); err != nil {
			return nil, fmt.Errorf("decode %s answers: %w", op, err)
		}
		ts, err := parseTime(created)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", op, err)
		}
		rec.Timestamp = ts
		results = append(results, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}
	return results, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nonNilRatings(r analytics.Ratings) analytics.Ratings {
	if r == nil {
		return analytics.Ratings{}
	}
	return r
}

func nonNilAnswers(a analytics.Answers) analytics.Answers {
	if a == nil {
		return analytics.Answers{}
	}
	return a
}
