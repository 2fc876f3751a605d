package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/repository"
	dbbuilder "github.com/godilite/feedback-insights/pkg/database"
)

func setupRealDB(tb testing.TB) *repository.FeedbackRepository {
	tb.Helper()

	db, err := dbbuilder.New(context.Background(),
		dbbuilder.WithDriver("sqlite3"),
		dbbuilder.WithDataSource(":memory:"),
		dbbuilder.WithMaxOpenConns(1),
		dbbuilder.WithSchema(repository.Schema),
	)
	if err != nil {
		tb.Fatalf("failed to create db pool via builder: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	repo := repository.NewFeedbackRepository(db)
	base := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)
	for session := range 10 {
		for student := range 20 {
			err := repo.Insert(context.Background(), analytics.Record{
				TrainingID:  fmt.Sprintf("T%02d", session),
				TrainerName: "Alice",
				StudentName: fmt.Sprintf("STUDENT %c", 'A'+student),
				SubjectName: "Go Basics",
				Quantitative: analytics.NewRatings(map[string]int{
					"quality": 1 + (session+student)%5,
					"clarity": 1 + (session*student)%5,
					"pace":    3,
				}),
				Qualitative: analytics.NewAnswers(map[string]string{
					"liked": "Great examples and helpful trainer",
				}),
				Timestamp: base.Add(time.Duration(session)*24*time.Hour + time.Duration(student)*time.Minute),
			})
			if err != nil {
				tb.Fatalf("failed to seed db: %v", err)
			}
		}
	}
	return repo
}

func BenchmarkAnalyzeTrainer(b *testing.B) {
	repo := setupRealDB(b)
	svc := NewInsightService(repo, nil, zap.NewNop())
	ctx := context.Background()

	for b.Loop() {
		if _, err := svc.AnalyzeTrainer(ctx, "Alice", time.Time{}, time.Time{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAnalyzeTraining(b *testing.B) {
	repo := setupRealDB(b)
	svc := NewInsightService(repo, nil, zap.NewNop())
	ctx := context.Background()

	for b.Loop() {
		if _, err := svc.AnalyzeTraining(ctx, "T05"); err != nil {
			b.Fatal(err)
		}
	}
}
