package report

import (
	"testing"

	"github.com/opensource-risk/kestrel/internal/domain"
)

func analyzed(id string, score int, level domain.SafetyLevel, industry domain.Industry, hour int, amount float64, flags string) domain.AnalyzedTransaction {
	return domain.AnalyzedTransaction{
		Transaction:  domain.Transaction{TransactionID: id, Amount: amount},
		RiskScore:    score,
		SafetyLevel:  level,
		AnomalyFlags: flags,
		IndustryType: industry,
		Hour:         hour,
	}
}

func TestSummarize(t *testing.T) {
	rows := []domain.AnalyzedTransaction{
		analyzed("t1", 10, domain.LevelSafe, domain.IndustryGeneral, 9, 100, domain.NoAnomalies),
		analyzed("t2", 50, domain.LevelWatch, domain.IndustryGeneral, 10, 200, "High transaction amount"),
		analyzed("t3", 90, domain.LevelAttention, domain.IndustryFinancial, 3, 700, "Declined transaction"),
	}

	s := Summarize(rows)
	if s.Rows != 3 {
		t.Errorf("rows = %d, want 3", s.Rows)
	}
	if s.TotalAmount != 1000 {
		t.Errorf("total amount = %.2f, want 1000", s.TotalAmount)
	}
	if s.MeanScore != 50 {
		t.Errorf("mean score = %.2f, want 50", s.MeanScore)
	}
	if s.MaxScore != 90 {
		t.Errorf("max score = %d, want 90", s.MaxScore)
	}
	if s.SafeCount != 1 || s.WatchCount != 1 || s.AttentionCount != 1 {
		t.Errorf("level counts = %d/%d/%d, want 1/1/1", s.SafeCount, s.WatchCount, s.AttentionCount)
	}
	if s.FlaggedRows != 2 {
		t.Errorf("flagged rows = %d, want 2", s.FlaggedRows)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.Rows != 0 || s.MeanScore != 0 {
		t.Errorf("empty summary = %+v", s)
	}
}

func TestBuildCharts(t *testing.T) {
	rows := []domain.AnalyzedTransaction{
		analyzed("t1", 5, domain.LevelSafe, domain.IndustryGeneral, 9, 10, domain.NoAnomalies),
		analyzed("t2", 19, domain.LevelSafe, domain.IndustryGeneral, 9, 10, domain.NoAnomalies),
		analyzed("t3", 20, domain.LevelSafe, domain.IndustryGaming, 22, 10, domain.NoAnomalies),
		analyzed("t4", 100, domain.LevelAttention, domain.IndustryGeneral, 9, 10, "x"),
	}

	c := BuildCharts(rows)

	if c.ScoreHistogram[0].Count != 2 {
		t.Errorf("bucket 0-19 = %d, want 2", c.ScoreHistogram[0].Count)
	}
	if c.ScoreHistogram[1].Count != 1 {
		t.Errorf("bucket 20-39 = %d, want 1", c.ScoreHistogram[1].Count)
	}
	if c.ScoreHistogram[4].Count != 1 {
		t.Errorf("bucket 80-100 = %d, want 1", c.ScoreHistogram[4].Count)
	}
	if c.HourlyVolume[9] != 3 || c.HourlyVolume[22] != 1 {
		t.Errorf("hourly volume = %v", c.HourlyVolume)
	}
	if c.IndustryCounts[domain.IndustryGeneral] != 3 || c.IndustryCounts[domain.IndustryGaming] != 1 {
		t.Errorf("industry counts = %v", c.IndustryCounts)
	}
}

func TestHighRisk(t *testing.T) {
	profiles := domain.DefaultProfiles()

	rows := []domain.AnalyzedTransaction{
		analyzed("safe", 30, domain.LevelSafe, domain.IndustryGeneral, 9, 10, domain.NoAnomalies),
		analyzed("general-edge", 70, domain.LevelWatch, domain.IndustryGeneral, 9, 10, "x"),
		analyzed("general-high", 71, domain.LevelAttention, domain.IndustryGeneral, 9, 10, "x"),
		analyzed("fin-high", 55, domain.LevelAttention, domain.IndustryFinancial, 9, 10, "x"),
		analyzed("top", 95, domain.LevelAttention, domain.IndustryGeneral, 9, 10, "x"),
	}

	high := HighRisk(rows, profiles)

	if len(high) != 3 {
		t.Fatalf("high risk rows = %d, want 3", len(high))
	}
	if high[0].TransactionID != "top" {
		t.Errorf("first = %q, want top (sorted by score desc)", high[0].TransactionID)
	}
	// 55 exceeds the financial cutoff of 50 even though it is far below
	// the general one.
	found := false
	for _, r := range high {
		if r.TransactionID == "fin-high" {
			found = true
		}
		if r.TransactionID == "general-edge" {
			t.Error("score exactly at cutoff included; cutoff is strict")
		}
	}
	if !found {
		t.Error("financial row above its industry cutoff missing")
	}
}
