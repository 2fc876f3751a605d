package analytics

import (
	"sort"
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is one metric score inside a feedback record.
type Rating struct {
	Metric string `json:"metric"`
	Value  int    `json:"value"`
}

// Ratings is an ordered metric → rating mapping. Metric names are non-empty
// and unique within one record; iteration follows slice order.
type Ratings []Rating

// Answer is one free-text answer inside a feedback record.
type Answer struct {
	Question string `json:"question"`
	Text     string `json:"text"`
}

// Answers is an ordered question → answer mapping with the same key contract
// as Ratings.
type Answers []Answer

// Record is a single participant's feedback for one training session.
type Record struct {
	TrainingID   string    `json:"training_id"`
	TrainerName  string    `json:"trainer_name"`
	StudentName  string    `json:"student_name,omitempty"`
	SubjectName  string    `json:"subject_name,omitempty"`
	Quantitative Ratings   `json:"quantitative"`
	Qualitative  Answers   `json:"qualitative"`
	Timestamp    time.Time `json:"timestamp"`
}

// ValidRating reports whether v lies on the 1-5 scale.
func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}

// NewRatings builds Ratings from an unordered map, sorted by metric name.
func NewRatings(m map[string]int) Ratings {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make(Ratings, 0, len(keys))
	for _, k := range keys {
		out = append(out, Rating{Metric: k, Value: m[k]})
	}
	return out
}

// NewAnswers builds Answers from an unordered map, sorted by question key.
func NewAnswers(m map[string]string) Answers {
	keys := make([]string, 0, len(m))
	for k := range m {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make(Answers, 0, len(keys))
	for _, k := range keys {
		out = append(out, Answer{Question: k, Text: m[k]})
	}
	return out
}

// Valid returns only the ratings on the 1-5 scale, keeping order.
func (r Ratings) Valid() Ratings {
	out := make(Ratings, 0, len(r))
	for _, rt := range r {
		if rt.Metric != "" && ValidRating(rt.Value) {
			out = append(out, rt)
		}
	}
	return out
}

// NonEmpty returns the answers with non-blank text, keeping order.
func (a Answers) NonEmpty() Answers {
	out := make(Answers, 0, len(a))
	for _, ans := range a {
		if strings.TrimSpace(ans.Text) != "" {
			out = append(out, ans)
		}
	}
	return out
}
