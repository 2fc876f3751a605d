package service

import (
	"context"
	"time"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/repository/models"
)

// FeedbackRepository defines the storage operations the service needs.
// A zero from or to in GetByTrainer means that side is unbounded.
type FeedbackRepository interface {
	GetByTraining(ctx context.Context, trainingID string) ([]analytics.Record, error)
	GetByTrainer(ctx context.Context, trainerName string, from, to time.Time) ([]analytics.Record, error)
	Insert(ctx context.Context, rec analytics.Record) error
	ListTrainers(ctx context.Context) ([]models.TrainerSummary, error)
	Stats(ctx context.Context) (models.FeedbackStats, error)
}

// TextInsighter turns combined free text into a structured insight.
type TextInsighter interface {
	Summarize(ctx context.Context, text string) (analytics.TextInsight, error)
}
