package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/metrics"
	"github.com/godilite/feedback-insights/internal/textinsight"
)

const (
	dbTimeout             = 2 * time.Second
	defaultInsightTimeout = 30 * time.Second
)

var (
	ErrStorageFailure    = errors.New("storage failure")
	ErrInvalidFeedback   = errors.New("invalid feedback")
	ErrDuplicateFeedback = errors.New("duplicate feedback")
	ErrInsightDisabled   = errors.New("text insight service not configured")
)

type Options struct {
	insightTimeout time.Duration
	now            func() time.Time
	newID          func() string
}

type Option func(*Options)

func WithInsightTimeout(d time.Duration) Option {
	return func(o *Options) { o.insightTimeout = d }
}

// WithClock fixes the time source used for report and submission timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Options) { o.now = now }
}

func WithIDSource(newID func() string) Option {
	return func(o *Options) { o.newID = newID }
}

// InsightService loads feedback and composes reports. insighter may be nil,
// in which case every report uses the local fallback.
type InsightService struct {
	storage        FeedbackRepository
	insighter      TextInsighter
	detector       analytics.Detector
	insightTimeout time.Duration
	now            func() time.Time
	newID          func() string
	validate       *validator.Validate
	logger         *zap.Logger
}

// NewInsightService creates a new InsightService instance.
func NewInsightService(storage FeedbackRepository, insighter TextInsighter, logger *zap.Logger, opts ...Option) *InsightService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}

	options := &Options{
		insightTimeout: defaultInsightTimeout,
		now:            time.Now,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &InsightService{
		storage:        storage,
		insighter:      insighter,
		detector:       analytics.DefaultDetector(),
		insightTimeout: options.insightTimeout,
		now:            options.now,
		newID:          options.newID,
		validate:       newValidator(),
		logger:         logger.Named("insight-service"),
	}
}

// AnalyzeTraining reports on every record of one training session.
// An unknown id yields a zeroed report, not an error.
func (s *InsightService) AnalyzeTraining(ctx context.Context, trainingID string) (analytics.Report, error) {
	trainingID = strings.ToUpper(strings.TrimSpace(trainingID))

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	records, err := s.storage.GetByTraining(dbCtx, trainingID)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("fetched training feedback",
		zap.String("training_id", trainingID),
		zap.Int("records", len(records)))

	return s.Analyze(ctx, analytics.TrainingSubject(trainingID), records), nil
}

// AnalyzeTrainer reports on a trainer's records within [from, to]; zero
// bounds are open.
func (s *InsightService) AnalyzeTrainer(ctx context.Context, trainerName string, from, to time.Time) (analytics.Report, error) {
	trainerName = strings.TrimSpace(trainerName)

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	records, err := s.storage.GetByTrainer(dbCtx, trainerName, from, to)
	if err != nil {
		return analytics.Report{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("fetched trainer feedback",
		zap.String("trainer", trainerName),
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("records", len(records)))

	return s.Analyze(ctx, analytics.TrainerSubject(trainerName, from, to), records), nil
}

// Analyze composes a report over records already loaded. It never fails:
// a missing or failing text insight service is replaced by the fallback.
func (s *InsightService) Analyze(ctx context.Context, subject analytics.Subject, records []analytics.Record) analytics.Report {
	start := time.Now()

	insight, insightErr := s.summarize(ctx, subject, records)

	report := analytics.Compose(analytics.Composition{
		Subject:     subject,
		Records:     records,
		Insight:     insight,
		InsightErr:  insightErr,
		Detector:    s.detector,
		ReportID:    s.newID(),
		GeneratedAt: s.now().UTC(),
	})

	metrics.RecordAnalysis(string(subject.Kind), string(report.Qualitative.Source), time.Since(start))
	metrics.RecordPolarization(string(report.Polarization.Level))
	if report.Qualitative.Source == analytics.InsightSourceFallback {
		metrics.RecordInsightFallback(fallbackReason(insightErr))
	}

	s.logger.Info("report composed",
		zap.String("report_id", report.ReportID),
		zap.String("subject_kind", string(subject.Kind)),
		zap.String("subject", subject.Name()),
		zap.Int("participants", report.TotalParticipants),
		zap.String("polarization", string(report.Polarization.Level)),
		zap.String("sentiment", string(report.Sentiment)),
		zap.Bool("parsing_error", report.ParsingError),
		zap.Duration("elapsed", time.Since(start)))

	return report
}

func (s *InsightService) summarize(ctx context.Context, subject analytics.Subject, records []analytics.Record) (*analytics.TextInsight, error) {
	text, blocks := analytics.CombinedText(subject, records)
	if blocks == 0 {
		return nil, nil
	}
	if s.insighter == nil {
		return nil, ErrInsightDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, s.insightTimeout)
	defer cancel()

	insight, err := s.insighter.Summarize(ctx, text)
	if err != nil {
		s.logger.Warn("text insight failed, using fallback",
			zap.String("subject_kind", string(subject.Kind)),
		zap.String("subject", subject.Name()),
			zap.Error(err))
		return nil, err
	}
	return &insight, nil
}

func fallbackReason(err error) string {
	switch {
	case err == nil:
		return "no_text"
	case errors.Is(err, ErrInsightDisabled):
		return "disabled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, textinsight.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, textinsight.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
