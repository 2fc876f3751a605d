package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/repository/models"
	"github.com/godilite/feedback-insights/internal/service"
)

// MockInsightService is a mock implementation of the InsightService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockInsightService struct {
	AnalyzeTrainingFunc func(ctx context.Context, trainingID string) (analytics.Report, error)
	AnalyzeTrainerFunc  func(ctx context.Context, trainerName string, from, to time.Time) (analytics.Report, error)
	SubmitFeedbackFunc  func(ctx context.Context, sub service.FeedbackSubmission) (analytics.Record, error)
	ListTrainersFunc    func(ctx context.Context) ([]models.TrainerSummary, error)
	GetFeedbackFunc     func(ctx context.Context, trainingID string) ([]analytics.Record, error)
	FeedbackStatsFunc   func(ctx context.Context) (models.FeedbackStats, error)
}

// AnalyzeTraining implements the InsightService interface
func (m *MockInsightService) AnalyzeTraining(ctx context.Context, trainingID string) (analytics.Report, error) {
	if m.AnalyzeTrainingFunc != nil {
		return m.AnalyzeTrainingFunc(ctx, trainingID)
	}
	return analytics.Report{}, errors.New("AnalyzeTrainingFunc not implemented")
}

// AnalyzeTrainer implements the InsightService interface
func (m *MockInsightService) AnalyzeTrainer(ctx context.Context, trainerName string, from, to time.Time) (analytics.Report, error) {
	if m.AnalyzeTrainerFunc != nil {
		return m.AnalyzeTrainerFunc(ctx, trainerName, from, to)
	}
	return analytics.Report{}, errors.New("AnalyzeTrainerFunc not implemented")
}

// SubmitFeedback implements the InsightService interface
func (m *MockInsightService) SubmitFeedback(ctx context.Context, sub service.FeedbackSubmission) (analytics.Record, error) {
	if m.SubmitFeedbackFunc != nil {
		return m.SubmitFeedbackFunc(ctx, sub)
	}
	return analytics.Record{}, errors.New("SubmitFeedbackFunc not implemented")
}

// ListTrainers implements the InsightService interface
func (m *MockInsightService) ListTrainers(ctx context.Context) ([]models.TrainerSummary, error) {
	if m.ListTrainersFunc != nil {
		return m.ListTrainersFunc(ctx)
	}
	return nil, errors.New("ListTrainersFunc not implemented")
}

// GetFeedback implements the InsightService interface
func (m *MockInsightService) GetFeedback(ctx context.Context, trainingID string) ([]analytics.Record, error) {
	if m.GetFeedbackFunc != nil {
		return m.GetFeedbackFunc(ctx, trainingID)
	}
	return nil, errors.New("GetFeedbackFunc not implemented")
}

// FeedbackStats implements the InsightService interface
func (m *MockInsightService) FeedbackStats(ctx context.Context) (models.FeedbackStats, error) {
	if m.FeedbackStatsFunc != nil {
		return m.FeedbackStatsFunc(ctx)
	}
	return models.FeedbackStats{}, errors.New("FeedbackStatsFunc not implemented")
}
