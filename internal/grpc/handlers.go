package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/godilite/feedback-insights/api/v1"
	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/service"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultGRPCTimeout   = 60 * time.Second
)

type CacheKeyType string

const (
	cacheKeyTrainingReport CacheKeyType = "grpc:report:training"
	cacheKeyTrainerReport  CacheKeyType = "grpc:report:trainer"
)

type GRPCHandlers struct {
	pb.UnimplementedFeedbackAnalyticsServer
	insights InsightService
	cache    Cacher
	logger   *zap.Logger
	sfGroup  singleflight.Group
	gens     Generations
	cacheTTL time.Duration
}

// NewGRPCHandlers initializes the gRPC handlers.
func NewGRPCHandlers(insights InsightService, cache Cacher, logger *zap.Logger, ttl time.Duration) *GRPCHandlers {
	if insights == nil {
		panic("nil InsightService provided to NewGRPCHandlers")
	}
	if cache == nil {
		panic("nil Cacher provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &GRPCHandlers{
		insights: insights,
		cache:    cache,
		logger:   logger.Named("grpc-handler"),
		cacheTTL: ttl,
	}
}

func trainingKey(trainingID string) string {
	return fmt.Sprintf("%s:%s", cacheKeyTrainingReport, strings.ToUpper(trainingID))
}

// trainerKey lower-cases the name because trainer lookups are case-insensitive.
// Open bounds are written as "*".
func trainerKey(trainerName string, from, to time.Time) string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return "*"
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s:%s:%s:%s", cacheKeyTrainerReport, strings.ToLower(trainerName), bound(from), bound(to))
}

// reportPolicy keeps fallback reports out of the cache so the next request
// retries the text insight service, and refreshes reports past half their TTL.
func (s *GRPCHandlers) reportPolicy() CachePolicy[analytics.Report] {
	ttl := s.cacheTTL
	return CachePolicy[analytics.Report]{
		Cacheable: func(r analytics.Report) bool { return !r.ParsingError },
		Stale:     func(r analytics.Report) bool { return time.Since(r.GeneratedAt) > ttl/2 },
	}
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrInvalidFeedback):
		s.logger.Info("invalid feedback", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrDuplicateFeedback):
		s.logger.Info("duplicate feedback", zap.String("op", op), zap.Error(err))
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) respond(op string, v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		s.logger.Error("response encoding failed", zap.String("op", op), zap.Error(err))
		return nil, status.Errorf(codes.Internal, "%s failed: could not encode response", op)
	}
	return out, nil
}

func (s *GRPCHandlers) AnalyzeTraining(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	trainingID, err := requiredString(req, "training_id")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	report, err := FindAndCache(ctx, s.cache, &s.sfGroup, &s.gens, trainingKey(trainingID), s.cacheTTL, s.reportPolicy(), s.logger,
		func(fetchCtx context.Context) (analytics.Report, error) {
			return s.insights.AnalyzeTraining(fetchCtx, trainingID)
		})
	if err != nil {
		return nil, s.handleError(ctx, "AnalyzeTraining", err)
	}

	return s.respond("AnalyzeTraining", report)
}

func (s *GRPCHandlers) AnalyzeTrainer(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	trainerName, err := requiredString(req, "trainer_name")
	if err != nil {
		return nil, err
	}
	from, to, err := parseTrainerRange(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	report, err := FindAndCache(ctx, s.cache, &s.sfGroup, &s.gens, trainerKey(trainerName, from, to), s.cacheTTL, s.reportPolicy(), s.logger,
		func(fetchCtx context.Context) (analytics.Report, error) {
			return s.insights.AnalyzeTrainer(fetchCtx, trainerName, from, to)
		})
	if err != nil {
		return nil, s.handleError(ctx, "AnalyzeTrainer", err)
	}

	return s.respond("AnalyzeTrainer", report)
}

// SubmitFeedback stores a submission and drops the cached session report and
// the unbounded trainer report. Date-bounded trainer reports expire by TTL.
// Fetches already in flight for those keys are detached so their results are
// neither shared with later callers nor stored.
func (s *GRPCHandlers) SubmitFeedback(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sub, err := parseSubmission(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	rec, err := s.insights.SubmitFeedback(ctx, sub)
	if err != nil {
		return nil, s.handleError(ctx, "SubmitFeedback", err)
	}

	keys := []string{trainingKey(rec.TrainingID), trainerKey(rec.TrainerName, time.Time{}, time.Time{})}
	s.gens.Invalidate(keys...)
	for _, k := range keys {
		s.sfGroup.Forget(k)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate cached reports", zap.Strings("keys", keys), zap.Error(err))
	}

	return s.respond("SubmitFeedback", map[string]any{
		"status": "accepted",
		"record": rec,
	})
}

func (s *GRPCHandlers) ListTrainers(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	trainers, err := s.insights.ListTrainers(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "ListTrainers", err)
	}

	return s.respond("ListTrainers", map[string]any{"trainers": trainers})
}

// GetFeedback returns the raw records of one training session, bypassing the
// report cache.
func (s *GRPCHandlers) GetFeedback(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	trainingID, err := requiredString(req, "training_id")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	records, err := s.insights.GetFeedback(ctx, trainingID)
	if err != nil {
		return nil, s.handleError(ctx, "GetFeedback", err)
	}

	return s.respond("GetFeedback", map[string]any{
		"records": records,
		"count":   len(records),
	})
}

func (s *GRPCHandlers) FeedbackStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	stats, err := s.insights.FeedbackStats(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "FeedbackStats", err)
	}

	return s.respond("FeedbackStats", stats)
}
