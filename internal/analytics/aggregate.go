package analytics

import (
	"math"
	"sort"
)

// Distribution counts ratings at each level of the 1-5 scale.
type Distribution struct {
	Excellent5 int `json:"excellent_5"`
	VeryGood4  int `json:"very_good_4"`
	Good3      int `json:"good_3"`
	Fair2      int `json:"fair_2"`
	Poor1      int `json:"poor_1"`
}

func (d *Distribution) add(v int) {
	switch v {
	case 5:
		d.Excellent5++
	case 4:
		d.VeryGood4++
	case 3:
		d.Good3++
	case 2:
		d.Fair2++
	case 1:
		d.Poor1++
	}
}

// MetricStats summarizes every valid rating given for one metric.
// Average is rounded for display; Mean returns full precision.
type MetricStats struct {
	Metric       string       `json:"metric"`
	Average      float64      `json:"average"`
	Min          int          `json:"min"`
	Max          int          `json:"max"`
	Count        int          `json:"count"`
	Sum          int          `json:"sum"`
	Distribution Distribution `json:"distribution"`
}

// Mean is Sum/Count, or 0 for an empty metric.
func (m MetricStats) Mean() float64 {
	if m.Count == 0 {
		return 0
	}
	return float64(m.Sum) / float64(m.Count)
}

// MetricSet holds one MetricStats per metric, sorted by metric name.
type MetricSet []MetricStats

// Aggregate reduces the records' quantitative ratings into per-metric stats.
// Out-of-range values are skipped and metrics left with no valid value are
// omitted.
func Aggregate(records []Record) MetricSet {
	byMetric := make(map[string]*MetricStats)

	for _, rec := range records {
		for _, r := range rec.Quantitative.Valid() {
			st, ok := byMetric[r.Metric]
			if !ok {
				st = &MetricStats{Metric: r.Metric, Min: r.Value, Max: r.Value}
				byMetric[r.Metric] = st
			}
			st.Count++
			st.Sum += r.Value
			st.Min = min(st.Min, r.Value)
			st.Max = max(st.Max, r.Value)
			st.Distribution.add(r.Value)
		}
	}

	out := make(MetricSet, 0, len(byMetric))
	for _, st := range byMetric {
		st.Average = round2(st.Mean())
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metric < out[j].Metric })
	return out
}

// Spread is the quantitative polarization signal averaged across metrics.
type Spread struct {
	OverallAverage      float64 `json:"overall_average"`
	PoorPercentage      float64 `json:"poor_percentage"`
	ExcellentPercentage float64 `json:"excellent_percentage"`
	AverageVariance     float64 `json:"average_variance"`
	Flagged             bool    `json:"flagged"`

	overall   float64
	poor      float64
	excellent float64
}

// ComputeSpread averages per-metric poor share (ratings 1-2), excellent share
// (rating 5) and max-min variance. It flags polarization when the average
// variance exceeds 3 or both shares exceed 20%.
func ComputeSpread(stats MetricSet) Spread {
	var sp Spread
	var variance float64
	n := 0

	for _, st := range stats {
		if st.Count == 0 {
			continue
		}
		c := float64(st.Count)
		sp.overall += st.Mean()
		sp.poor += float64(st.Distribution.Poor1+st.Distribution.Fair2) / c * 100
		sp.excellent += float64(st.Distribution.Excellent5) / c * 100
		variance += float64(st.Max - st.Min)
		n++
	}
	if n == 0 {
		return sp
	}

	sp.overall /= float64(n)
	sp.poor /= float64(n)
	sp.excellent /= float64(n)
	variance /= float64(n)

	sp.OverallAverage = round2(sp.overall)
	sp.PoorPercentage = round1(sp.poor)
	sp.ExcellentPercentage = round1(sp.excellent)
	sp.AverageVariance = round2(variance)
	sp.Flagged = variance > 3 || (sp.poor > 20 && sp.excellent > 20)
	return sp
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
