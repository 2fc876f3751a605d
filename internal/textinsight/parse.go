package textinsight

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/godilite/feedback-insights/internal/analytics"
)

const promptTemplate = `Analyze the following training feedback and return a structured analysis.

FEEDBACK TEXT:
<<<
%s
>>>

Respond with a JSON object containing exactly these fields:
- "summary": two or three sentences on what participants are saying, including their main praise and concerns.
- "sentiment": one of "positive", "neutral" or "negative" for the overall tone.
- "suggestions": actionable improvement points mentioned, as an array of strings (empty if none).
- "keywords": three to five key themes, as an array of strings.
- "strengths": what participants liked or found valuable, as an array of strings.
- "concerns": problems or dissatisfaction mentioned, as an array of strings.

Report only what participants actually said. Respond with valid JSON only, no other text.`

func buildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// rawInsight uses pointers so absent keys can be told apart from empty ones.
type rawInsight struct {
	Summary     *string   `json:"summary"`
	Sentiment   *string   `json:"sentiment"`
	Suggestions *[]string `json:"suggestions"`
	Keywords    *[]string `json:"keywords"`
	Strengths   *[]string `json:"strengths"`
	Concerns    *[]string `json:"concerns"`
}

// parseInsight decodes a model reply, tolerating a markdown code fence.
// Every field is required; an unknown sentiment becomes neutral.
func parseInsight(content string) (analytics.TextInsight, error) {
	var raw rawInsight
	if err := json.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		return analytics.TextInsight{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	var missing []string
	if raw.Summary == nil {
		missing = append(missing, "summary")
	}
	if raw.Sentiment == nil {
		missing = append(missing, "sentiment")
	}
	if raw.Suggestions == nil {
		missing = append(missing, "suggestions")
	}
	if raw.Keywords == nil {
		missing = append(missing, "keywords")
	}
	if raw.Strengths == nil {
		missing = append(missing, "strengths")
	}
	if raw.Concerns == nil {
		missing = append(missing, "concerns")
	}
	if len(missing) > 0 {
		return analytics.TextInsight{}, fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	return analytics.TextInsight{
		Summary:     strings.TrimSpace(*raw.Summary),
		Sentiment:   normalizeSentiment(*raw.Sentiment),
		Suggestions: *raw.Suggestions,
		Keywords:    *raw.Keywords,
		Strengths:   *raw.Strengths,
		Concerns:    *raw.Concerns,
	}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = strings.TrimPrefix(s, "```json")
	case strings.HasPrefix(s, "```"):
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func normalizeSentiment(s string) analytics.Sentiment {
	switch v := analytics.Sentiment(strings.ToLower(strings.TrimSpace(s))); v {
	case analytics.SentimentPositive, analytics.SentimentNeutral, analytics.SentimentNegative:
		return v
	default:
		return analytics.SentimentNeutral
	}
}

// confidence scores how much there was to work with: longer input, a real
// summary, suggestions and keywords each add to a 0.5 base, capped at 1.
func confidence(text string, ti analytics.TextInsight) float64 {
	score := 0.5
	if len(text) > 100 {
		score += 0.2
	}
	if len(text) > 300 {
		score += 0.1
	}
	if len(ti.Summary) > 20 {
		score += 0.1
	}
	if len(ti.Suggestions) > 0 {
		score += 0.1
	}
	if len(ti.Keywords) > 0 {
		score += 0.1
	}
	return min(score, 1.0)
}
