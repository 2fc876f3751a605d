package analytics

import (
	"fmt"
	"strings"
)

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentMixed    Sentiment = "mixed"
)

const (
	poorAverage        = 2.5
	fairAverage        = 3.5
	strongAverage      = 4.0
	excellentAverage   = 4.5
	highRiskPoorPct    = 40.0
	mediumRiskPoorPct  = 20.0
	fallbackConfidence = 0.7
	engagedGroupSize   = 5
)

// AssessRisk grades a feedback set from its overall average and poor share.
func AssessRisk(sp Spread) Level {
	switch {
	case sp.poor > highRiskPoorPct || sp.overall < poorAverage:
		return LevelHigh
	case sp.poor > mediumRiskPoorPct || sp.overall < fairAverage:
		return LevelMedium
	default:
		return LevelLow
	}
}

// QuantitativeSentiment maps the overall average onto a sentiment, or mixed
// when the set is polarized.
func QuantitativeSentiment(sp Spread, polarized bool) Sentiment {
	switch {
	case polarized:
		return SentimentMixed
	case sp.overall < poorAverage:
		return SentimentNegative
	case sp.overall < fairAverage:
		return SentimentNeutral
	default:
		return SentimentPositive
	}
}

// Narrative is the locally computed reading of a feedback set.
type Narrative struct {
	ExecutiveSummary     string    `json:"executive_summary"`
	Sentiment            Sentiment `json:"sentiment"`
	RiskLevel            Level     `json:"risk_level"`
	ConsensusAnalysis    string    `json:"consensus_analysis"`
	QuantitativeSummary  string    `json:"quantitative_summary"`
	KeyStrengths         []string  `json:"key_strengths"`
	CriticalImprovements []string  `json:"critical_improvements"`
	Recommendations      []string  `json:"recommendations"`
	PriorityAreas        []string  `json:"priority_areas"`
	SuccessIndicators    []string  `json:"success_indicators"`
}

// BuildNarrative derives the narrative from quantitative data only, so the
// same inputs always produce the same text.
func BuildNarrative(subject Subject, total int, sp Spread, polarized bool) Narrative {
	avg, poor, excellent := sp.overall, sp.poor, sp.excellent
	who := subjectPhrase(subject)

	n := Narrative{
		Sentiment: QuantitativeSentiment(sp, polarized),
		RiskLevel: AssessRisk(sp),
	}

	switch {
	case polarized:
		n.ExecutiveSummary = fmt.Sprintf("%s received polarized feedback from %d participants. Average rating: %.1f/5. %.1f%% gave poor ratings while %.1f%% gave excellent ratings, so participants disagree significantly.",
			who, total, avg, poor, excellent)
	case avg < poorAverage:
		n.ExecutiveSummary = fmt.Sprintf("%s received consistently poor feedback from %d participants. Average rating: %.1f/5 with %.1f%% poor ratings; the issues need immediate attention.",
			who, total, avg, poor)
	case avg > strongAverage:
		n.ExecutiveSummary = fmt.Sprintf("%s received consistently positive feedback from %d participants. Average rating: %.1f/5 with %.1f%% excellent ratings.",
			who, total, avg, excellent)
	default:
		n.ExecutiveSummary = fmt.Sprintf("%s received mixed feedback from %d participants. Average rating: %.1f/5, leaving room for improvement in several areas.",
			who, total, avg)
	}

	if polarized {
		n.ConsensusAnalysis = "Polarized responses detected - high variance in ratings"
	} else {
		n.ConsensusAnalysis = "Consistent feedback pattern - low variance in ratings"
	}

	pattern := "Consistent feedback pattern."
	if polarized {
		pattern = "High polarization detected."
	}
	n.QuantitativeSummary = fmt.Sprintf("Average rating: %.1f/5. %.1f%% poor ratings, %.1f%% excellent ratings. %s", avg, poor, excellent, pattern)

	if total > engagedGroupSize {
		n.KeyStrengths = []string{"High participant engagement", "Comprehensive feedback received"}
	} else {
		n.KeyStrengths = []string{"Multiple participants provided feedback"}
	}

	if avg < fairAverage {
		n.CriticalImprovements = []string{"Address low-rated areas", "Review training content and delivery"}
		n.PriorityAreas = []string{"Overall satisfaction", "Content quality", "Trainer effectiveness"}
		n.SuccessIndicators = []string{"Improved ratings in future sessions", "Current concerns addressed"}
	} else {
		n.CriticalImprovements = []string{"Continue monitoring feedback trends"}
		n.PriorityAreas = []string{"Overall satisfaction", "Content quality"}
		n.SuccessIndicators = []string{"Positive feedback trends", "High participation rates"}
	}

	if avg < poorAverage {
		n.Recommendations = []string{"Address low-rated areas immediately", "Conduct follow-up sessions"}
	} else {
		n.Recommendations = []string{"Continue monitoring feedback trends", "Address any low-rated areas"}
	}
	return n
}

func subjectPhrase(s Subject) string {
	if s.Kind == SubjectTrainer {
		return "Sessions delivered by " + s.TrainerName
	}
	return "Training session " + s.TrainingID
}

// FallbackInsight stands in for the text-insight service. cause is nil when
// there was no free text to send; otherwise the insight is tagged as a
// parsing error carrying the cause.
func FallbackInsight(n Narrative, stats MetricSet, cause error) TextInsight {
	keywords := make([]string, 0, len(stats))
	for _, st := range stats {
		keywords = append(keywords, st.Metric)
	}

	ti := TextInsight{
		Summary:     n.ExecutiveSummary,
		Sentiment:   n.Sentiment,
		Suggestions: append([]string(nil), n.Recommendations...),
		Keywords:    keywords,
		Strengths:   append([]string(nil), n.KeyStrengths...),
		Concerns:    append([]string(nil), n.CriticalImprovements...),
		Confidence:  fallbackConfidence,
		Source:      InsightSourceFallback,
	}
	if cause != nil {
		ti.ParsingError = true
		ti.Error = cause.Error()
	}
	return ti
}

// Solutions is the action plan attached to a polarized feedback set. Every
// list is built from the actual participant counts.
type Solutions struct {
	DissatisfiedCount       int      `json:"dissatisfied_count"`
	SatisfiedCount          int      `json:"satisfied_count"`
	ProblematicMetrics      []string `json:"problematic_metrics"`
	StrongMetrics           []string `json:"strong_metrics"`
	RootCauses              []string `json:"root_causes"`
	ImmediateActions        []string `json:"immediate_actions"`
	TrainingDesignChanges   []string `json:"training_design_changes"`
	CommunicationStrategies []string `json:"communication_strategies"`
	FollowUpActions         []string `json:"follow_up_actions"`
}

// BuildSolutions sizes the dissatisfied and satisfied groups as
// floor(total × share / 100) of the poor and excellent shares.
func BuildSolutions(stats MetricSet, sp Spread, total int) Solutions {
	s := Solutions{
		DissatisfiedCount:  int(float64(total) * sp.poor / 100),
		SatisfiedCount:     int(float64(total) * sp.excellent / 100),
		ProblematicMetrics: []string{},
		StrongMetrics:      []string{},
	}
	for _, st := range stats {
		switch m := st.Mean(); {
		case m < poorAverage:
			s.ProblematicMetrics = append(s.ProblematicMetrics, st.Metric)
		case m > strongAverage:
			s.StrongMetrics = append(s.StrongMetrics, st.Metric)
		}
	}

	low, high := s.DissatisfiedCount, s.SatisfiedCount
	weak := len(s.ProblematicMetrics)
	weakNames := "none"
	if weak > 0 {
		weakNames = strings.Join(s.ProblematicMetrics, ", ")
	}

	s.RootCauses = []string{
		fmt.Sprintf("Skill level mismatch: %d participants struggled while %d excelled", low, high),
		fmt.Sprintf("Pacing: an average rating of %.1f/5 points to uneven pacing", sp.overall),
		fmt.Sprintf("Content complexity: %d areas averaged below %.1f (%s)", weak, poorAverage, weakNames),
		"Learning style differences within the group",
		"Expectations differed across participant backgrounds and experience",
	}
	s.ImmediateActions = []string{
		fmt.Sprintf("Ask the %d dissatisfied participants which topics were unclear", low),
		fmt.Sprintf("Ask the %d satisfied participants what worked best for them", high),
		fmt.Sprintf("Build a skill-level assessment from the responses of all %d participants", total),
		fmt.Sprintf("Schedule targeted follow-up for the %d participants who struggled", low),
		fmt.Sprintf("Look for common themes across the %d low-rated areas", weak),
	}
	s.TrainingDesignChanges = []string{
		"Add adaptive learning paths driven by pre-assessment scores",
		fmt.Sprintf("Run parallel tracks: a beginner track for %d participants and an advanced track for %d participants", low, high),
		"Add short modules targeted at different skill levels",
		"Blend online material with hands-on practice and peer mentoring",
		"Collect feedback during the session, not only at the end",
		fmt.Sprintf("Offer basic, intermediate and advanced content depth for groups of %d", total),
	}
	s.CommunicationStrategies = []string{
		"Set expectations with a skill assessment before the training",
		fmt.Sprintf("Agree learning objectives with each of the %d participants", total),
		"Hold Q&A breakouts grouped by skill level",
		"Offer individual coaching after the training for participants who struggled",
		"Create a peer community for ongoing support",
		fmt.Sprintf("Define separate success measures for the %d dissatisfied and %d satisfied participants", low, high),
	}
	s.FollowUpActions = []string{
		fmt.Sprintf("Track learning outcomes at 30, 60 and 90 days for all %d participants", total),
		fmt.Sprintf("Compare progress of the %d struggling and %d excelling participants", low, high),
		fmt.Sprintf("Plan refresher sessions for the %d problematic areas", weak),
		"Pair advanced participants with those who struggled as peer mentors",
		"Monitor on-the-job application of the training",
		fmt.Sprintf("Re-survey the %d participants at 1, 3 and 6 months", total),
	}
	return s
}

// PerformanceSummary is the trainer-level headline view.
type PerformanceSummary struct {
	TotalSessions          int      `json:"total_sessions"`
	TotalParticipants      int      `json:"total_participants"`
	OverallAverageRating   float64  `json:"overall_average_rating"`
	BestPerformingMetric   string   `json:"best_performing_metric,omitempty"`
	NeedsImprovementMetric string   `json:"needs_improvement_metric,omitempty"`
	Consistency            string   `json:"consistency"`
	OverallSatisfaction    string   `json:"overall_satisfaction"`
	Recommendations        []string `json:"recommendations"`
}

// SummarizePerformance ranks metrics by mean. Ties go to the metric that
// sorts first.
func SummarizePerformance(records []Record, stats MetricSet) PerformanceSummary {
	sp := ComputeSpread(stats)
	ps := PerformanceSummary{
		TotalSessions:        distinctSessions(records),
		TotalParticipants:    len(records),
		OverallAverageRating: sp.OverallAverage,
		Consistency:          "Medium",
	}

	if len(stats) > 0 {
		best, worst := stats[0], stats[0]
		for _, st := range stats[1:] {
			if st.Mean() > best.Mean() {
				best = st
			}
			if st.Mean() < worst.Mean() {
				worst = st
			}
		}
		ps.BestPerformingMetric = best.Metric
		ps.NeedsImprovementMetric = worst.Metric
		if best.Mean()-worst.Mean() < 1.0 {
			ps.Consistency = "High"
		}
		ps.Recommendations = []string{
			"Focus on improving " + worst.Metric,
			"Maintain excellence in " + best.Metric,
			"Review qualitative feedback for specific improvement areas",
		}
	} else {
		ps.Recommendations = []string{
			"Continue current approach",
			"Focus on all areas",
			"Review qualitative feedback for specific improvement areas",
		}
	}

	switch {
	case sp.overall >= excellentAverage:
		ps.OverallSatisfaction = "Excellent"
	case sp.overall >= fairAverage:
		ps.OverallSatisfaction = "Good"
	default:
		ps.OverallSatisfaction = "Needs Improvement"
	}
	return ps
}
