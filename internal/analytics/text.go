package analytics

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type SubjectKind string

const (
	SubjectTraining SubjectKind = "training"
	SubjectTrainer  SubjectKind = "trainer"
)

// Subject identifies what a report was computed for.
type Subject struct {
	Kind        SubjectKind `json:"kind"`
	TrainingID  string      `json:"training_id,omitempty"`
	TrainerName string      `json:"trainer_name,omitempty"`
	From        *time.Time  `json:"from,omitempty"`
	To          *time.Time  `json:"to,omitempty"`
}

func TrainingSubject(trainingID string) Subject {
	return Subject{Kind: SubjectTraining, TrainingID: trainingID}
}

func TrainerSubject(trainerName string, from, to time.Time) Subject {
	s := Subject{Kind: SubjectTrainer, TrainerName: trainerName}
	if !from.IsZero() {
		s.From = &from
	}
	if !to.IsZero() {
		s.To = &to
	}
	return s
}

// Label is the human-readable subject line used in narratives.
func (s Subject) Label() string {
	if s.Kind == SubjectTrainer {
		return "Trainer: " + s.TrainerName
	}
	return "Training ID: " + s.TrainingID
}

// Name is the bare identifier of the subject.
func (s Subject) Name() string {
	if s.Kind == SubjectTrainer {
		return s.TrainerName
	}
	return s.TrainingID
}

// CombinedText joins every non-empty answer into one blob, one block per
// participant with at least one answer. It returns the blob and the number
// of participant blocks written.
func CombinedText(subject Subject, records []Record) (string, int) {
	title := cases.Title(language.English)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nTotal Feedback Records: %d\n\n", subject.Label(), len(records))
	b.WriteString("QUALITATIVE FEEDBACK FROM ALL PARTICIPANTS:\n\n")

	blocks := 0
	for _, rec := range records {
		answers := rec.Qualitative.NonEmpty()
		if len(answers) == 0 {
			continue
		}
		blocks++
		fmt.Fprintf(&b, "--- Participant %d ---\n", blocks)
		for _, a := range answers {
			key := title.String(strings.ReplaceAll(a.Question, "_", " "))
			fmt.Fprintf(&b, "%s: %s\n", key, strings.TrimSpace(a.Text))
		}
		b.WriteString("\n")
	}
	return b.String(), blocks
}
