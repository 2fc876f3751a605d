package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/service/mocks"
	"github.com/godilite/feedback-insights/internal/textinsight"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo FeedbackRepository, insighter TextInsighter, opts ...Option) *InsightService {
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDSource(func() string { return "report-1" }),
	}
	return NewInsightService(repo, insighter, zap.NewNop(), append(base, opts...)...)
}

func feedback(training string, ratings map[string]int, answers map[string]string) analytics.Record {
	return analytics.Record{
		TrainingID:   training,
		TrainerName:  "Alice",
		Quantitative: analytics.NewRatings(ratings),
		Qualitative:  analytics.NewAnswers(answers),
		Timestamp:    fixedNow,
	}
}

// TestNewInsightService tests the constructor
func TestNewInsightService(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{}

		service := NewInsightService(mockRepo, nil, zap.NewNop())

		assert.NotNil(t, service)
		assert.Equal(t, mockRepo, service.storage)
		assert.Nil(t, service.insighter)
		assert.Equal(t, defaultInsightTimeout, service.insightTimeout)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewInsightService(nil, nil, zap.NewNop())
		})
	})

	t.Run("nil logger gets default", func(t *testing.T) {
		service := NewInsightService(&mocks.MockFeedbackRepository{}, nil, nil)

		assert.NotNil(t, service.logger)
	})
}

// TestAnalyzeTraining tests report generation for one session
func TestAnalyzeTraining(t *testing.T) {
	ctx := context.Background()
	records := []analytics.Record{
		feedback("T1", map[string]int{"quality": 5, "clarity": 4}, map[string]string{"liked": "Great hands-on labs"}),
		feedback("T1", map[string]int{"quality": 4, "clarity": 4}, nil),
	}

	t.Run("service insight is used", func(t *testing.T) {
		var sentText string
		mockRepo := &mocks.MockFeedbackRepository{
			GetByTrainingFunc: func(ctx context.Context, id string) ([]analytics.Record, error) {
				assert.Equal(t, "T1", id)
				return records, nil
			},
		}
		insighter := &mocks.MockTextInsighter{
			SummarizeFunc: func(ctx context.Context, text string) (analytics.TextInsight, error) {
				sentText = text
				return analytics.TextInsight{
					Summary:   "Participants liked the labs.",
					Sentiment: analytics.SentimentNeutral,
					Source:    analytics.InsightSourceService,
				}, nil
			},
		}

		report, err := newTestService(mockRepo, insighter).AnalyzeTraining(ctx, " t1 ")

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sentText, "Training ID: T1\n"))
		assert.Contains(t, sentText, "Liked: Great hands-on labs")
		assert.Equal(t, "report-1", report.ReportID)
		assert.Equal(t, fixedNow, report.GeneratedAt)
		assert.Equal(t, 2, report.TotalParticipants)
		assert.Equal(t, analytics.SentimentNeutral, report.Sentiment)
		assert.Equal(t, analytics.InsightSourceService, report.Qualitative.Source)
		assert.False(t, report.ParsingError)
		assert.Nil(t, report.KPIs)
	})

	t.Run("insight timeout falls back", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			GetByTrainingFunc: func(ctx context.Context, id string) ([]analytics.Record, error) {
				return records, nil
			},
		}
		insighter := &mocks.MockTextInsighter{
			SummarizeFunc: func(ctx context.Context, text string) (analytics.TextInsight, error) {
				<-ctx.Done()
				return analytics.TextInsight{}, ctx.Err()
			},
		}

		service := newTestService(mockRepo, insighter, WithInsightTimeout(20*time.Millisecond))
		report, err := service.AnalyzeTraining(ctx, "T1")

		require.NoError(t, err)
		assert.True(t, report.ParsingError)
		assert.Equal(t, analytics.InsightSourceFallback, report.Qualitative.Source)
		assert.Equal(t, analytics.SentimentPositive, report.Sentiment)
		assert.Contains(t, report.Qualitative.Error, "deadline exceeded")
	})

	t.Run("no insight service configured", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			GetByTrainingFunc: func(ctx context.Context, id string) ([]analytics.Record, error) {
				return records, nil
			},
		}

		report, err := newTestService(mockRepo, nil).AnalyzeTraining(ctx, "T1")

		require.NoError(t, err)
		assert.True(t, report.ParsingError)
		assert.Equal(t, ErrInsightDisabled.Error(), report.Qualitative.Error)
	})

	t.Run("no free text skips the service", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			GetByTrainingFunc: func(ctx context.Context, id string) ([]analytics.Record, error) {
				return records[1:], nil
			},
		}
		insighter := &mocks.MockTextInsighter{
			SummarizeFunc: func(ctx context.Context, text string) (analytics.TextInsight, error) {
				t.Fatal("Summarize must not be called without free text")
				return analytics.TextInsight{}, nil
			},
		}

		report, err := newTestService(mockRepo, insighter).AnalyzeTraining(ctx, "T1")

		require.NoError(t, err)
		assert.False(t, report.ParsingError)
		assert.Equal(t, analytics.InsightSourceFallback, report.Qualitative.Source)
	})

	t.Run("unknown training gives zeroed report", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			GetByTrainingFunc: func(ctx context.Context, id string) ([]analytics.Record, error) {
				return nil, nil
			},
		}

		report, err := newTestService(mockRepo, nil).AnalyzeTraining(ctx, "NOPE")

		require.NoError(t, err)
		assert.Zero(t, report.TotalParticipants)
		assert.Empty(t, report.QuantitativeInsights)
		assert.Equal(t, analytics.LevelLow, report.Polarization.Level)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			GetByTrainingFunc: func(ctx context.Context, id string) ([]analytics.Record, error) {
				return nil, errors.New("database connection failed")
			},
		}

		_, err := newTestService(mockRepo, nil).AnalyzeTraining(ctx, "T1")

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Contains(t, err.Error(), "database connection failed")
	})
}

// TestAnalyzeTrainer tests trainer-level reports
func TestAnalyzeTrainer(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("passes bounds and adds trainer sections", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			GetByTrainerFunc: func(ctx context.Context, name string, f, to time.Time) ([]analytics.Record, error) {
				assert.Equal(t, "Alice", name)
				assert.Equal(t, from, f)
				assert.True(t, to.IsZero())
				return []analytics.Record{
					feedback("S1", map[string]int{"quality": 3}, nil),
					feedback("S2", map[string]int{"quality": 4}, nil),
				}, nil
			},
		}

		report, err := newTestService(mockRepo, nil).AnalyzeTrainer(ctx, " Alice ", from, time.Time{})

		require.NoError(t, err)
		assert.Equal(t, analytics.SubjectTrainer, report.Subject.Kind)
		require.NotNil(t, report.Subject.From)
		assert.Nil(t, report.Subject.To)
		require.NotNil(t, report.KPIs)
		assert.Equal(t, analytics.TrendInsufficientData, report.KPIs.ImprovementTrend)
		assert.Len(t, report.SessionTrends, 2)
		require.NotNil(t, report.Performance)
		assert.Equal(t, 2, report.Performance.TotalSessions)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			GetByTrainerFunc: func(ctx context.Context, name string, f, to time.Time) ([]analytics.Record, error) {
				return nil, errors.New("timeout")
			},
		}

		_, err := newTestService(mockRepo, nil).AnalyzeTrainer(ctx, "Alice", time.Time{}, time.Time{})

		assert.ErrorIs(t, err, ErrStorageFailure)
	})
}

// TestFallbackReason tests metric labels for fallback causes
func TestFallbackReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "no_text"},
		{ErrInsightDisabled, "disabled"},
		{context.DeadlineExceeded, "timeout"},
		{textinsight.ErrMalformedResponse, "malformed"},
		{textinsight.ErrUnavailable, "unavailable"},
		{errors.New("other"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackReason(tt.err))
		})
	}
}
