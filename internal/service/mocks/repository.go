package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/repository/models"
)

// MockFeedbackRepository is a mock implementation of the FeedbackRepository interface
// for testing the service layer.
type MockFeedbackRepository struct {
	GetByTrainingFunc func(ctx context.Context, trainingID string) ([]analytics.Record, error)
	GetByTrainerFunc  func(ctx context.Context, trainerName string, from, to time.Time) ([]analytics.Record, error)
	InsertFunc        func(ctx context.Context, rec analytics.Record) error
	ListTrainersFunc  func(ctx context.Context) ([]models.TrainerSummary, error)
	StatsFunc         func(ctx context.Context) (models.FeedbackStats, error)
}

// GetByTraining implements the FeedbackRepository interface
func (m *MockFeedbackRepository) GetByTraining(ctx context.Context, trainingID string) ([]analytics.Record, error) {
	if m.GetByTrainingFunc != nil {
		return m.GetByTrainingFunc(ctx, trainingID)
	}
	return nil, errors.New("GetByTrainingFunc not implemented")
}

// GetByTrainer implements the FeedbackRepository interface
func (m *MockFeedbackRepository) GetByTrainer(ctx context.Context, trainerName string, from, to time.Time) ([]analytics.Record, error) {
	if m.GetByTrainerFunc != nil {
		return m.GetByTrainerFunc(ctx, trainerName, from, to)
	}
	return nil, errors.New("GetByTrainerFunc not implemented")
}

// Insert implements the FeedbackRepository interface
func (m *MockFeedbackRepository) Insert(ctx context.Context, rec analytics.Record) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, rec)
	}
	return errors.New("InsertFunc not implemented")
}

// ListTrainers implements the FeedbackRepository interface
func (m *MockFeedbackRepository) ListTrainers(ctx context.Context) ([]models.TrainerSummary, error) {
	if m.ListTrainersFunc != nil {
		return m.ListTrainersFunc(ctx)
	}
	return nil, errors.New("ListTrainersFunc not implemented")
}

// Stats implements the FeedbackRepository interface
func (m *MockFeedbackRepository) Stats(ctx context.Context) (models.FeedbackStats, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx)
	}
	return models.FeedbackStats{}, errors.New("StatsFunc not implemented")
}
