package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestCombinedText tests the participant text blob.
func TestCombinedText(t *testing.T) {
	records := []Record{
		record("T1", nil, map[string]string{"what_went_well": "Great pace ", "improvements": "  "}),
		record("T1", map[string]int{"quality": 4}, nil),
		record("T1", nil, map[string]string{"improvements": "More labs"}),
	}

	text, blocks := CombinedText(TrainingSubject("T1"), records)

	want := "Training ID: T1\nTotal Feedback Records: 3\n\n" +
		"QUALITATIVE FEEDBACK FROM ALL PARTICIPANTS:\n\n" +
		"--- Participant 1 ---\nWhat Went Well: Great pace\n\n" +
		"--- Participant 2 ---\nImprovements: More labs\n\n"
	assert.Equal(t, want, text)
	assert.Equal(t, 2, blocks)
}

// TestSubject tests subject labels and optional date bounds.
func TestSubject(t *testing.T) {
	t.Run("training", func(t *testing.T) {
		s := TrainingSubject("T1")
		assert.Equal(t, "Training ID: T1", s.Label())
		assert.Equal(t, "T1", s.Name())
	})

	t.Run("trainer without range", func(t *testing.T) {
		s := TrainerSubject("ALICE", time.Time{}, time.Time{})
		assert.Equal(t, "Trainer: ALICE", s.Label())
		assert.Nil(t, s.From)
		assert.Nil(t, s.To)
	})

	t.Run("trainer with range", func(t *testing.T) {
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		s := TrainerSubject("ALICE", from, time.Time{})
		if assert.NotNil(t, s.From) {
			assert.Equal(t, from, *s.From)
		}
		assert.Nil(t, s.To)
	})
}
