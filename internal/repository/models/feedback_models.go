package models

import (
	"errors"
	"time"
)

// ErrDuplicateSubmission is returned when a participant already submitted
// feedback for the same training session.
var ErrDuplicateSubmission = errors.New("feedback already submitted for this training and student")

type TrainerSummary struct {
	TrainerName     string    `json:"trainer_name"`
	Sessions        int       `json:"sessions"`
	Participants    int       `json:"participants"`
	FirstSubmission time.Time `json:"first_submission"`
	LastSubmission  time.Time `json:"last_submission"`
}

// FeedbackStats describes the whole feedback store. Earliest and latest are
// nil while it is empty.
type FeedbackStats struct {
	TotalFeedback    int        `json:"total_feedback"`
	UniqueTrainings  int        `json:"unique_trainings"`
	TrainingIDs      []string   `json:"training_ids"`
	EarliestFeedback *time.Time `json:"earliest_feedback,omitempty"`
	LatestFeedback   *time.Time `json:"latest_feedback,omitempty"`
}
