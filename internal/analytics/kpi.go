package analytics

import (
	"math"
	"sort"
)

type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient data"
	TrendError            Trend = "error"
)

const (
	trendWindow         = 5
	trendThreshold      = 0.2
	recentSessionWindow = 3
	targetSessionRating = 4.0
	stabilityBand       = 0.5
	consistencyPenalty  = 20.0
	satisfiedRating     = 4
	excellentRating     = 4.5
	poorRatingCeiling   = 3
)

// SessionRating is the flat mean of every valid rating submitted for one
// training id. Sessions are ordered by SessionID as a plain string, so ids
// that do not sort chronologically produce a misleading trend.
type SessionRating struct {
	SessionID        string  `json:"session_id"`
	AverageRating    float64 `json:"average_rating"`
	ParticipantCount int     `json:"participant_count"`
	RatingCount      int     `json:"rating_count"`
	Sum              int     `json:"-"`
}

func (s SessionRating) Mean() float64 {
	if s.RatingCount == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.RatingCount)
}

// Sessions groups records by training id. Sessions without a single valid
// rating are left out.
func Sessions(records []Record) []SessionRating {
	byID := make(map[string]*SessionRating)
	for _, rec := range records {
		s, ok := byID[rec.TrainingID]
		if !ok {
			s = &SessionRating{SessionID: rec.TrainingID}
			byID[rec.TrainingID] = s
		}
		s.ParticipantCount++
		for _, r := range rec.Quantitative.Valid() {
			s.Sum += r.Value
			s.RatingCount++
		}
	}

	out := make([]SessionRating, 0, len(byID))
	for _, s := range byID {
		if s.RatingCount == 0 {
			continue
		}
		s.AverageRating = round2(s.Mean())
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out
}

// KPISet is the fixed set of trainer performance indicators. Rates are
// percentages rounded to one decimal, ratings are rounded to two.
type KPISet struct {
	AvgRatingLast3Sessions    float64 `json:"avg_rating_last_3_sessions"`
	ConsistencyScore          float64 `json:"consistency_score"`
	ImprovementTrend          Trend   `json:"improvement_trend"`
	SatisfactionRate          float64 `json:"satisfaction_rate"`
	OverallAvgRating          float64 `json:"overall_avg_rating"`
	BestSessionRating         float64 `json:"best_session_rating"`
	WorstSessionRating        float64 `json:"worst_session_rating"`
	RatingImprovementRate     float64 `json:"rating_improvement_rate"`
	ExcellenceRate            float64 `json:"excellence_rate"`
	PoorRatingRate            float64 `json:"poor_rating_rate"`
	TargetAchievementRate     float64 `json:"target_achievement_rate"`
	MonthlyGrowthRate         float64 `json:"monthly_growth_rate"`
	AvgParticipantsPerSession float64 `json:"avg_participants_per_session"`
	PerformanceStability      float64 `json:"performance_stability"`
}

// CalculateKPIs derives the KPISet for one trainer's records. It never
// panics: an internal failure yields a zeroed set with TrendError.
func CalculateKPIs(records []Record) (kpis KPISet) {
	defer func() {
		if r := recover(); r != nil {
			kpis = KPISet{ImprovementTrend: TrendError}
		}
	}()

	sessions := Sessions(records)
	if len(sessions) == 0 {
		return KPISet{ImprovementTrend: TrendInsufficientData}
	}

	means := make([]float64, len(sessions))
	for i, s := range sessions {
		means[i] = s.Mean()
	}

	var satisfied, excellent, poor, total, sum int
	for _, rec := range records {
		for _, r := range rec.Quantitative.Valid() {
			total++
			sum += r.Value
			if r.Value >= satisfiedRating {
				satisfied++
			}
			if float64(r.Value) >= excellentRating {
				excellent++
			}
			if r.Value < poorRatingCeiling {
				poor++
			}
		}
	}

	best, worst := means[0], means[0]
	target := 0
	for _, m := range means {
		best = math.Max(best, m)
		worst = math.Min(worst, m)
		if m >= targetSessionRating {
			target++
		}
	}

	kpis = KPISet{
		AvgRatingLast3Sessions:    round2(mean(means[max(0, len(means)-recentSessionWindow):])),
		ConsistencyScore:          round1(consistency(means, ComputeSpread(Aggregate(records)).overall)),
		ImprovementTrend:          trend(means),
		SatisfactionRate:          round1(percent(satisfied, total)),
		OverallAvgRating:          round2(ratio(sum, total)),
		BestSessionRating:         round2(best),
		WorstSessionRating:        round2(worst),
		RatingImprovementRate:     round1(recentImprovement(means)),
		ExcellenceRate:            round1(percent(excellent, total)),
		PoorRatingRate:            round1(percent(poor, total)),
		TargetAchievementRate:     round1(percent(target, len(means))),
		MonthlyGrowthRate:         round1(halvesGrowth(means)),
		AvgParticipantsPerSession: round1(ratio(len(records), distinctSessions(records))),
		PerformanceStability:      round1(stability(means)),
	}
	if !kpis.finite() {
		return KPISet{ImprovementTrend: TrendError}
	}
	return kpis
}

func (k KPISet) finite() bool {
	for _, v := range []float64{
		k.AvgRatingLast3Sessions, k.ConsistencyScore, k.SatisfactionRate,
		k.OverallAvgRating, k.BestSessionRating, k.WorstSessionRating,
		k.RatingImprovementRate, k.ExcellenceRate, k.PoorRatingRate,
		k.TargetAchievementRate, k.MonthlyGrowthRate,
		k.AvgParticipantsPerSession, k.PerformanceStability,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// consistency penalizes the spread of session averages around centre, the
// mean of per-metric averages.
func consistency(means []float64, centre float64) float64 {
	if len(means) < 2 {
		return 100
	}
	var variance float64
	for _, m := range means {
		variance += (m - centre) * (m - centre)
	}
	variance /= float64(len(means))
	return math.Max(0, 100-variance*consistencyPenalty)
}

func trend(means []float64) Trend {
	if len(means) < trendWindow {
		return TrendInsufficientData
	}
	recent := means[len(means)-trendWindow:]
	delta := mean(recent[trendWindow-2:]) - mean(recent[:2])
	switch {
	case delta > trendThreshold:
		return TrendImproving
	case delta < -trendThreshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// recentImprovement compares the first two with the last two of the most
// recent five sessions.
func recentImprovement(means []float64) float64 {
	if len(means) < trendWindow {
		return 0
	}
	recent := means[len(means)-trendWindow:]
	return growth(mean(recent[:2]), mean(recent[trendWindow-2:]))
}

// halvesGrowth compares the two halves of the full series, split at len/2.
func halvesGrowth(means []float64) float64 {
	if len(means) < 2 {
		return 0
	}
	half := len(means) / 2
	return growth(mean(means[:half]), mean(means[half:]))
}

func growth(from, to float64) float64 {
	if from <= 0 {
		return 0
	}
	return (to - from) / from * 100
}

func stability(means []float64) float64 {
	switch len(means) {
	case 0:
		return 0
	case 1:
		return 100
	}
	avg := mean(means)
	stable := 0
	for _, m := range means {
		if math.Abs(m-avg) <= stabilityBand {
			stable++
		}
	}
	return percent(stable, len(means))
}

func distinctSessions(records []Record) int {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec.TrainingID] = struct{}{}
	}
	return len(seen)
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
