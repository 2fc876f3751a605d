package grpc

import (
	"context"
	"time"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/repository/models"
	"github.com/godilite/feedback-insights/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type InsightService interface {
	AnalyzeTraining(ctx context.Context, trainingID string) (analytics.Report, error)
	AnalyzeTrainer(ctx context.Context, trainerName string, from, to time.Time) (analytics.Report, error)
	SubmitFeedback(ctx context.Context, sub service.FeedbackSubmission) (analytics.Record, error)
	ListTrainers(ctx context.Context) ([]models.TrainerSummary, error)
	GetFeedback(ctx context.Context, trainingID string) ([]analytics.Record, error)
	FeedbackStats(ctx context.Context) (models.FeedbackStats, error)
}
