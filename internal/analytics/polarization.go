package analytics

import (
	"fmt"
	"strings"
	"unicode"
)

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

const (
	highPolarizationScore   = 75.0
	mediumPolarizationScore = 50.0
	pairContradictionGap    = 3
	spanContradictionGap    = 3
	spanMinMetrics          = 3
	defaultMaxEvidence      = 10
)

// MetricPair names two metrics that should move together. A metric belongs to
// a side when its lowercased name contains any of that side's fragments.
type MetricPair struct {
	Name  string
	Left  []string
	Right []string
}

// Detector finds feedback sets where participants disagree rather than
// uniformly dislike or like a session. The zero value detects nothing from
// pairs or text; use DefaultDetector.
type Detector struct {
	Pairs       []MetricPair
	Positive    []string
	Negative    []string
	MaxEvidence int
}

// DefaultDetector returns the standard related pairs and keyword lexicon.
func DefaultDetector() Detector {
	return Detector{
		Pairs: []MetricPair{
			{Name: "content quality vs clarity", Left: []string{"quality", "content"}, Right: []string{"clarity", "clear", "understand"}},
			{Name: "trainer effectiveness vs engagement", Left: []string{"trainer", "instructor", "effective", "delivery"}, Right: []string{"engag", "interact", "interest"}},
			{Name: "relevance vs practical application", Left: []string{"relevan"}, Right: []string{"practical", "applica", "useful"}},
		},
		Positive: []string{
			"excellent", "great", "good", "helpful", "clear", "useful", "engaging",
			"informative", "amazing", "enjoyed", "loved", "valuable", "practical",
		},
		Negative: []string{
			"poor", "bad", "confusing", "boring", "unclear", "useless", "difficult",
			"slow", "rushed", "waste", "disappointing", "terrible", "irrelevant",
		},
		MaxEvidence: defaultMaxEvidence,
	}
}

// Contradiction is the evidence collected for one contradictory record.
type Contradiction struct {
	Participant string   `json:"participant"`
	TrainingID  string   `json:"training_id,omitempty"`
	Reasons     []string `json:"reasons"`
}

type PolarizationResult struct {
	Detected           bool            `json:"detected"`
	Score              float64         `json:"score"`
	Level              Level           `json:"level"`
	ContradictoryCount int             `json:"contradictory_count"`
	TotalCount         int             `json:"total_count"`
	Analysis           string          `json:"analysis"`
	Contradictions     []Contradiction `json:"contradictions"`
	Recommendations    []string        `json:"recommendations"`
	Signal             Spread          `json:"signal"`
}

// Detect combines the quantitative spread of stats with per-record
// contradictions. Detected is set when the spread is flagged or the
// contradiction level reaches medium.
func (d Detector) Detect(records []Record, stats MetricSet) PolarizationResult {
	res := PolarizationResult{
		Level:          LevelLow,
		TotalCount:     len(records),
		Contradictions: []Contradiction{},
		Signal:         ComputeSpread(stats),
	}

	if len(records) == 0 {
		res.Analysis = "No feedback data available for polarization analysis."
		res.Recommendations = recommendationsFor(LevelLow)
		return res
	}

	maxEvidence := d.MaxEvidence
	if maxEvidence <= 0 {
		maxEvidence = defaultMaxEvidence
	}

	for i, rec := range records {
		reasons := d.contradictions(rec)
		if len(reasons) == 0 {
			continue
		}
		res.ContradictoryCount++
		if len(res.Contradictions) < maxEvidence {
			res.Contradictions = append(res.Contradictions, Contradiction{
				Participant: participantLabel(rec, i),
				TrainingID:  rec.TrainingID,
				Reasons:     reasons,
			})
		}
	}

	score := percent(res.ContradictoryCount, res.TotalCount)
	res.Score = round1(score)
	res.Level = levelFor(score)
	res.Detected = res.Signal.Flagged || res.Level != LevelLow
	res.Analysis = describePolarization(res)
	res.Recommendations = recommendationsFor(res.Level)
	return res
}

func (d Detector) contradictions(rec Record) []string {
	var reasons []string
	valid := rec.Quantitative.Valid()

	for _, p := range d.Pairs {
		if reason, ok := pairGap(valid, p); ok {
			reasons = append(reasons, reason)
		}
	}

	if len(valid) >= spanMinMetrics {
		lo, hi := valid[0].Value, valid[0].Value
		for _, r := range valid[1:] {
			lo = min(lo, r.Value)
			hi = max(hi, r.Value)
		}
		if hi-lo >= spanContradictionGap {
			reasons = append(reasons, fmt.Sprintf("ratings span %d to %d across %d metrics", lo, hi, len(valid)))
		}
	}

	if pos, neg, ok := d.mixedLanguage(rec.Qualitative); ok {
		reasons = append(reasons, fmt.Sprintf("free text mixes positive (%s) and negative (%s) language", pos, neg))
	}
	return reasons
}

func pairGap(ratings Ratings, p MetricPair) (string, bool) {
	for _, l := range ratings {
		if !nameMatches(l.Metric, p.Left) {
			continue
		}
		for _, r := range ratings {
			if r.Metric == l.Metric || !nameMatches(r.Metric, p.Right) {
				continue
			}
			gap := l.Value - r.Value
			if gap < 0 {
				gap = -gap
			}
			if gap >= pairContradictionGap {
				return fmt.Sprintf("%s: %s rated %d but %s rated %d", p.Name, l.Metric, l.Value, r.Metric, r.Value), true
			}
		}
	}
	return "", false
}

func nameMatches(metric string, fragments []string) bool {
	m := strings.ToLower(metric)
	for _, f := range fragments {
		if f != "" && strings.Contains(m, f) {
			return true
		}
	}
	return false
}

func (d Detector) mixedLanguage(answers Answers) (string, string, bool) {
	if len(d.Positive) == 0 || len(d.Negative) == 0 {
		return "", "", false
	}

	var pos, neg string
	for _, a := range answers {
		words := strings.FieldsFunc(strings.ToLower(a.Text), func(r rune) bool {
			return !unicode.IsLetter(r)
		})
		for _, w := range words {
			if pos == "" && contains(d.Positive, w) {
				pos = w
			}
			if neg == "" && contains(d.Negative, w) {
				neg = w
			}
		}
	}
	return pos, neg, pos != "" && neg != ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func participantLabel(rec Record, i int) string {
	if rec.StudentName != "" {
		return rec.StudentName
	}
	return fmt.Sprintf("Participant %d", i+1)
}

func levelFor(score float64) Level {
	switch {
	case score >= highPolarizationScore:
		return LevelHigh
	case score >= mediumPolarizationScore:
		return LevelMedium
	default:
		return LevelLow
	}
}

func describePolarization(res PolarizationResult) string {
	var verdict string
	switch res.Level {
	case LevelHigh:
		verdict = "participants are strongly divided"
	case LevelMedium:
		verdict = "opinions are noticeably split"
	default:
		verdict = "feedback is broadly consistent"
	}

	out := fmt.Sprintf("%d of %d responses (%.1f%%) contain contradictory signals; %s.",
		res.ContradictoryCount, res.TotalCount, res.Score, verdict)
	if res.Signal.Flagged {
		out += fmt.Sprintf(" Ratings split between %.1f%% poor and %.1f%% excellent.",
			res.Signal.PoorPercentage, res.Signal.ExcellentPercentage)
	}
	return out
}

func recommendationsFor(level Level) []string {
	switch level {
	case LevelHigh:
		return []string{
			"Interview both satisfied and dissatisfied participants to locate the split",
			"Add a pre-training skill assessment and group participants by level",
			"Offer separate beginner and advanced tracks in future sessions",
			"Review pacing and content depth with the trainer",
		}
	case LevelMedium:
		return []string{
			"Survey participants on the topics that divided opinion",
			"Add checkpoints during the session to gauge understanding",
			"Share supplementary material for participants who struggled",
		}
	default:
		return []string{"Feedback is consistent; keep monitoring future sessions"}
	}
}
