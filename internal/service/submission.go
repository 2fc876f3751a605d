package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/godilite/feedback-insights/internal/analytics"
	"github.com/godilite/feedback-insights/internal/metrics"
	"github.com/godilite/feedback-insights/internal/repository/models"
)

var studentNamePattern = regexp.MustCompile(`^[A-Z .'-]+$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("student_name", func(fl validator.FieldLevel) bool {
		return studentNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// SubmitFeedback normalizes, validates and stores one submission. Training
// ids and student names are upper-cased; ratings outside 1-5 and blank answers
// are dropped, and at least one valid rating must remain.
func (s *InsightService) SubmitFeedback(ctx context.Context, sub FeedbackSubmission) (analytics.Record, error) {
	sub = normalizeSubmission(sub)

	if err := s.validate.Struct(sub); err != nil {
		metrics.RecordSubmission("invalid")
		return analytics.Record{}, fmt.Errorf("%w: %s", ErrInvalidFeedback, describeValidation(err))
	}

	ratings := analytics.NewRatings(sub.Ratings).Valid()
	if len(ratings) == 0 {
		metrics.RecordSubmission("invalid")
		return analytics.Record{}, fmt.Errorf("%w: at least one rating between %d and %d is required",
			ErrInvalidFeedback, analytics.MinRating, analytics.MaxRating)
	}

	rec := analytics.Record{
		TrainingID:   sub.TrainingID,
		TrainerName:  sub.TrainerName,
		StudentName:  sub.StudentName,
		SubjectName:  sub.SubjectName,
		Quantitative: ratings,
		Qualitative:  analytics.NewAnswers(sub.Answers).NonEmpty(),
		Timestamp:    s.now().UTC(),
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := s.storage.Insert(dbCtx, rec); err != nil {
		if errors.Is(err, models.ErrDuplicateSubmission) {
			metrics.RecordSubmission("duplicate")
			return analytics.Record{}, fmt.Errorf("%w: %s already submitted feedback for %s",
				ErrDuplicateFeedback, rec.StudentName, rec.TrainingID)
		}
		metrics.RecordSubmission("error")
		return analytics.Record{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	metrics.RecordSubmission("accepted")
	s.logger.Info("feedback stored",
		zap.String("training_id", rec.TrainingID),
		zap.String("trainer", rec.TrainerName),
		zap.Int("ratings", len(rec.Quantitative)),
		zap.Int("answers", len(rec.Qualitative)))

	return rec, nil
}

// ListTrainers returns one summary per trainer, ordered by name.
func (s *InsightService) ListTrainers(ctx context.Context) ([]models.TrainerSummary, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	trainers, err := s.storage.ListTrainers(dbCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return trainers, nil
}

// GetFeedback returns the stored records of one training session in
// submission order. An unknown id yields an empty slice.
func (s *InsightService) GetFeedback(ctx context.Context, trainingID string) ([]analytics.Record, error) {
	trainingID = strings.ToUpper(strings.TrimSpace(trainingID))

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	records, err := s.storage.GetByTraining(dbCtx, trainingID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if records == nil {
		records = []analytics.Record{}
	}

	s.logger.Debug("fetched raw feedback",
		zap.String("training_id", trainingID),
		zap.Int("records", len(records)))
	return records, nil
}

func (s *InsightService) FeedbackStats(ctx context.Context) (models.FeedbackStats, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	stats, err := s.storage.Stats(dbCtx)
	if err != nil {
		return models.FeedbackStats{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return stats, nil
}

func normalizeSubmission(sub FeedbackSubmission) FeedbackSubmission {
	sub.TrainingID = strings.ToUpper(strings.TrimSpace(sub.TrainingID))
	sub.TrainerName = strings.TrimSpace(sub.TrainerName)
	sub.StudentName = strings.ToUpper(strings.TrimSpace(sub.StudentName))
	sub.SubjectName = strings.TrimSpace(sub.SubjectName)

	if sub.Answers != nil {
		answers := make(map[string]string, len(sub.Answers))
		for k, v := range sub.Answers {
			answers[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
		sub.Answers = answers
	}
	return sub
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "min":
			parts = append(parts, fe.Field()+" must have at least "+fe.Param()+" entry")
		case "max":
			parts = append(parts, fe.Field()+" must be at most "+fe.Param()+" characters")
		case "student_name":
			parts = append(parts, fe.Field()+" may only contain letters, spaces, dots, apostrophes and hyphens")
		default:
			parts = append(parts, fe.Field()+" failed "+fe.Tag())
		}
	}
	return strings.Join(parts, "; ")
}
