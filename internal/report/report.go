// Package report computes the aggregate views downstream consumers
// build from an analyzed batch: summary figures, chart series, and the
// high-risk transaction list.
package report

import (
	"sort"

	"github.com/opensource-risk/kestrel/internal/domain"
)

// Summary holds batch-level aggregate figures.
type Summary struct {
	Rows           int     `json:"rows"`
	TotalAmount    float64 `json:"totalAmount"`
	MeanScore      float64 `json:"meanScore"`
	MaxScore       int     `json:"maxScore"`
	SafeCount      int     `json:"safeCount"`
	WatchCount     int     `json:"watchCount"`
	AttentionCount int     `json:"attentionCount"`
	FlaggedRows    int     `json:"flaggedRows"`
}

// ScoreBucket is one bar of the risk-score histogram.
type ScoreBucket struct {
	Label string `json:"label"` // e.g. "20-39"
	From  int    `json:"from"`
	To    int    `json:"to"` // inclusive
	Count int    `json:"count"`
}

// Charts holds the series the dashboard renders.
type Charts struct {
	ScoreHistogram []ScoreBucket           `json:"scoreHistogram"`
	HourlyVolume   [24]int                 `json:"hourlyVolume"`
	IndustryCounts map[domain.Industry]int `json:"industryCounts"`
}

// Summarize computes batch-level aggregates.
func Summarize(rows []domain.AnalyzedTransaction) Summary {
	s := Summary{Rows: len(rows)}
	if len(rows) == 0 {
		return s
	}

	scoreSum := 0
	for _, r := range rows {
		s.TotalAmount += r.Amount
		scoreSum += r.RiskScore
		if r.RiskScore > s.MaxScore {
			s.MaxScore = r.RiskScore
		}
		switch r.SafetyLevel {
		case domain.LevelSafe:
			s.SafeCount++
		case domain.LevelWatch:
			s.WatchCount++
		case domain.LevelAttention:
			s.AttentionCount++
		}
		if r.AnomalyFlags != domain.NoAnomalies {
			s.FlaggedRows++
		}
	}
	s.MeanScore = float64(scoreSum) / float64(len(rows))
	return s
}

// histogramBuckets are the fixed score bands the dashboard charts.
var histogramBuckets = []ScoreBucket{
	{Label: "0-19", From: 0, To: 19},
	{Label: "20-39", From: 20, To: 39},
	{Label: "40-59", From: 40, To: 59},
	{Label: "60-79", From: 60, To: 79},
	{Label: "80-100", From: 80, To: 100},
}

// BuildCharts computes the chart series for an analyzed batch.
func BuildCharts(rows []domain.AnalyzedTransaction) Charts {
	c := Charts{
		ScoreHistogram: make([]ScoreBucket, len(histogramBuckets)),
		IndustryCounts: make(map[domain.Industry]int),
	}
	copy(c.ScoreHistogram, histogramBuckets)

	for _, r := range rows {
		for i := range c.ScoreHistogram {
			b := &c.ScoreHistogram[i]
			if r.RiskScore >= b.From && r.RiskScore <= b.To {
				b.Count++
				break
			}
		}
		if r.Hour >= 0 && r.Hour < 24 {
			c.HourlyVolume[r.Hour]++
		}
		c.IndustryCounts[r.IndustryType]++
	}
	return c
}

// HighRisk returns the rows whose score exceeds their industry's
// attention cutoff, highest score first. The sort is stable so rows with
// equal scores keep input order.
func HighRisk(rows []domain.AnalyzedTransaction, profiles domain.ProfileSet) []domain.AnalyzedTransaction {
	var out []domain.AnalyzedTransaction
	for _, r := range rows {
		p, ok := profiles[r.IndustryType]
		if !ok {
			p = profiles[domain.IndustryGeneral]
		}
		if r.RiskScore > p.AttentionAbove {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RiskScore > out[j].RiskScore })
	return out
}
