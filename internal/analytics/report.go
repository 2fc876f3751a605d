package analytics

import (
	"time"
)

type InsightSource string

const (
	InsightSourceService  InsightSource = "service"
	InsightSourceFallback InsightSource = "fallback"
)

// TextInsight is the structured reading of the combined free text, either
// from the text-insight service or from FallbackInsight.
type TextInsight struct {
	Summary      string        `json:"summary"`
	Sentiment    Sentiment     `json:"sentiment"`
	Suggestions  []string      `json:"suggestions"`
	Keywords     []string      `json:"keywords"`
	Strengths    []string      `json:"strengths"`
	Concerns     []string      `json:"concerns"`
	Confidence   float64       `json:"confidence"`
	Source       InsightSource `json:"source"`
	ParsingError bool          `json:"parsing_error"`
	Error        string        `json:"error,omitempty"`
}

type DataSummary struct {
	QuantitativeResponses int     `json:"quantitative_responses"`
	QualitativeResponses  int     `json:"qualitative_responses"`
	OverallAverageRating  float64 `json:"overall_average_rating"`
}

// Report is the full analysis of one training session or trainer.
// GeneratedAt and ReportID are the only fields not derived from the inputs.
type Report struct {
	ReportID             string              `json:"report_id"`
	Subject              Subject             `json:"subject"`
	TotalParticipants    int                 `json:"total_participants"`
	QuantitativeInsights MetricSet           `json:"quantitative_insights"`
	Qualitative          TextInsight         `json:"qualitative_insights"`
	Narrative            Narrative           `json:"narrative"`
	Polarization         PolarizationResult  `json:"polarization"`
	Solutions            *Solutions          `json:"polarization_solutions,omitempty"`
	KPIs                 *KPISet             `json:"kpis,omitempty"`
	SessionTrends        []SessionRating     `json:"session_trends,omitempty"`
	Performance          *PerformanceSummary `json:"performance,omitempty"`
	DataSummary          DataSummary         `json:"data_summary"`
	Sentiment            Sentiment           `json:"sentiment"`
	RiskLevel            Level               `json:"risk_level"`
	ParsingError         bool                `json:"parsing_error"`
	Notes                []string            `json:"notes,omitempty"`
	GeneratedAt          time.Time           `json:"generated_at"`
}

// Composition is the input to Compose. Insight is nil when the service was
// not called or failed; InsightErr holds the failure, if any.
type Composition struct {
	Subject     Subject
	Records     []Record
	Insight     *TextInsight
	InsightErr  error
	Detector    Detector
	ReportID    string
	GeneratedAt time.Time
}

// Compose assembles a report. It never fails: missing data yields zeroed
// statistics plus a note, and a missing insight is replaced by the fallback.
func Compose(c Composition) Report {
	stats := Aggregate(c.Records)
	pol := c.Detector.Detect(c.Records, stats)
	narrative := BuildNarrative(c.Subject, len(c.Records), pol.Signal, pol.Detected)
	_, qualitative := CombinedText(c.Subject, c.Records)

	r := Report{
		ReportID:             c.ReportID,
		Subject:              c.Subject,
		TotalParticipants:    len(c.Records),
		QuantitativeInsights: stats,
		Narrative:            narrative,
		Polarization:         pol,
		DataSummary:          summarizeData(c.Records, qualitative),
		RiskLevel:            narrative.RiskLevel,
		GeneratedAt:          c.GeneratedAt,
	}

	switch {
	case len(c.Records) == 0:
		r.Notes = append(r.Notes, "no feedback records matched the request; statistics are zeroed")
	case len(stats) == 0:
		r.Notes = append(r.Notes, "no valid quantitative ratings (1-5) were found; statistics are zeroed")
	}

	if c.Insight != nil {
		r.Qualitative = *c.Insight
		r.Sentiment = c.Insight.Sentiment
	} else {
		r.Qualitative = FallbackInsight(narrative, stats, c.InsightErr)
		r.Sentiment = narrative.Sentiment
		if c.InsightErr != nil {
			r.Notes = append(r.Notes, "text insight service failed ("+c.InsightErr.Error()+"); fallback analysis used")
		} else {
			r.Notes = append(r.Notes, "no qualitative feedback to analyze; fallback analysis used")
		}
	}
	r.ParsingError = r.Qualitative.ParsingError

	if pol.Detected {
		sol := BuildSolutions(stats, pol.Signal, len(c.Records))
		r.Solutions = &sol
	}

	if c.Subject.Kind == SubjectTrainer {
		kpis := CalculateKPIs(c.Records)
		perf := SummarizePerformance(c.Records, stats)
		r.KPIs = &kpis
		r.Performance = &perf
		r.SessionTrends = Sessions(c.Records)
	}
	return r
}

// summarizeData averages per-record means over records with at least one
// valid rating.
func summarizeData(records []Record, qualitative int) DataSummary {
	ds := DataSummary{QualitativeResponses: qualitative}
	var total float64
	for _, rec := range records {
		valid := rec.Quantitative.Valid()
		if len(valid) == 0 {
			continue
		}
		sum := 0
		for _, r := range valid {
			sum += r.Value
		}
		total += float64(sum) / float64(len(valid))
		ds.QuantitativeResponses++
	}
	if ds.QuantitativeResponses > 0 {
		ds.OverallAverageRating = round2(total / float64(ds.QuantitativeResponses))
	}
	return ds
}
