package analytics

import (
	"fmt"
	"time"
)

var testTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func record(trainingID string, ratings map[string]int, answers map[string]string) Record {
	return Record{
		TrainingID:   trainingID,
		TrainerName:  "A",
		Quantitative: NewRatings(ratings),
		Qualitative:  NewAnswers(answers),
		Timestamp:    testTime,
	}
}

func lookup(stats MetricSet, metric string) (MetricStats, bool) {
	for _, st := range stats {
		if st.Metric == metric {
			return st, true
		}
	}
	return MetricStats{}, false
}

func repeat(n int, r Record) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = r
	}
	return out
}

// sessionsWithAverages builds one single-rating record per session, named
// S1..Sn. Keep n below 10 so string order matches slice order.
func sessionsWithAverages(avgs ...int) []Record {
	out := make([]Record, 0, len(avgs))
	for i, a := range avgs {
		out = append(out, record(fmt.Sprintf("S%d", i+1), map[string]int{"quality": a}, nil))
	}
	return out
}
