//go:build integration
// +build integration

// Package integration provides end-to-end tests for the Kestrel batch
// scoring pipeline.
//
// These tests verify the COMPLETE flow against a running server:
//
//	CSV upload → ingest → scoring → persistence → reports
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// Start the server first:
//
//	KESTREL_SEED=42 go run cmd/kestrel/main.go
//
// The seed pins the jitter so score assertions hold across runs.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if url := os.Getenv("KESTREL_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func waitForServer(t *testing.T) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL() + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Skipf("kestrel not reachable at %s; start it before running integration tests", baseURL())
}

type analyzeResponse struct {
	BatchID string `json:"batchId"`
	Rows    []struct {
		TransactionID string `json:"transaction_id"`
		RiskScore     int    `json:"risk_score"`
		SafetyLevel   string `json:"safety_level"`
		AnomalyFlags  string `json:"anomaly_flags"`
		IndustryType  string `json:"industry_type"`
	} `json:"rows"`
	Summary struct {
		Rows           int `json:"rows"`
		AttentionCount int `json:"attentionCount"`
	} `json:"summary"`
	Skipped []struct {
		Line   int    `json:"line"`
		Reason string `json:"reason"`
	} `json:"skipped"`
}

func TestUploadPipeline(t *testing.T) {
	waitForServer(t)

	csvBody := strings.Join([]string{
		"transaction_id,customer_id,amount,transaction_date,transaction_time,merchant_name,merchant_category,customer_name,customer_email,customer_state,customer_zip_code,card_last4,response_code",
		"TXN_IT_1,SHOPPER_1,47.13,2026-08-01,14:30:00,Corner Bakery,retail,Avery Collins,avery@gmail.com,CA,90210,8841,00",
		"TXN_IT_2,SHOPPER_2,1000.00,2026-08-01,02:15:00,Wire Direct,financial,Test User,u@tempmail.com,NY,90210,1234,05",
		"TXN_IT_3,SHOPPER_3,bad-amount,,,,,,,,,",
	}, "\n")

	resp, err := http.Post(baseURL()+"/upload", "text/csv", strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status = %d, want 200", resp.StatusCode)
	}

	var result analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(result.Rows))
	}
	if len(result.Skipped) != 1 {
		t.Errorf("skipped = %d, want 1", len(result.Skipped))
	}

	clean, hot := result.Rows[0], result.Rows[1]
	if clean.SafetyLevel != "Safe" {
		t.Errorf("TXN_IT_1 level = %q, want Safe (flags: %s)", clean.SafetyLevel, clean.AnomalyFlags)
	}
	if hot.SafetyLevel != "Needs Your Attention" {
		t.Errorf("TXN_IT_2 level = %q, want Needs Your Attention (score %d)", hot.SafetyLevel, hot.RiskScore)
	}
	if hot.IndustryType != "financial" {
		t.Errorf("TXN_IT_2 industry = %q, want financial", hot.IndustryType)
	}

	t.Run("StoredAnalysisRetrievable", func(t *testing.T) {
		resp, err := http.Get(baseURL() + "/transactions/TXN_IT_2")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("SummaryMatchesUpload", func(t *testing.T) {
		resp, err := http.Get(baseURL() + "/reports/summary?batch=" + result.BatchID)
		if err != nil {
			t.Fatalf("summary failed: %v", err)
		}
		defer resp.Body.Close()

		var summary struct {
			Rows           int `json:"rows"`
			AttentionCount int `json:"attentionCount"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
			t.Fatalf("failed to decode summary: %v", err)
		}
		if summary.Rows != 2 {
			t.Errorf("summary rows = %d, want 2", summary.Rows)
		}
		if summary.AttentionCount != 1 {
			t.Errorf("attention count = %d, want 1", summary.AttentionCount)
		}
	})

	t.Run("HighRiskListing", func(t *testing.T) {
		resp, err := http.Get(baseURL() + "/reports/high-risk?min-score=70")
		if err != nil {
			t.Fatalf("high-risk failed: %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if body.Count < 1 {
			t.Errorf("high risk count = %d, want >= 1", body.Count)
		}
	})
}

func TestCustomRuleLifecycle(t *testing.T) {
	waitForServer(t)

	ruleID := fmt.Sprintf("it-rule-%d", time.Now().UnixNano())

	rule := map[string]any{
		"id":         ruleID,
		"name":       "Integration High Amount",
		"expression": "amount > 9999.0",
		"delta":      20,
		"flag":       "Very large transaction",
		"enabled":    true,
	}
	body, _ := json.Marshal(rule)

	resp, err := http.Post(baseURL()+"/rules", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}

	resp, err = http.Post(baseURL()+"/rules/reload", "application/json", nil)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reload status = %d, want 200", resp.StatusCode)
	}

	// A 12k row should now pick up the custom flag
	payload, _ := json.Marshal(map[string]any{
		"transactions": []map[string]any{
			{"transaction_id": "TXN_IT_RULE", "amount": 12000.0},
		},
	})
	resp, err = http.Post(baseURL()+"/analyze", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	defer resp.Body.Close()

	var result analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(result.Rows))
	}
	if !strings.Contains(result.Rows[0].AnomalyFlags, "Very large transaction") {
		t.Errorf("flags = %q, want custom rule flag", result.Rows[0].AnomalyFlags)
	}

	// Cleanup: disable the rule and reload
	req, _ := http.NewRequest(http.MethodDelete, baseURL()+"/rules/"+ruleID, nil)
	if resp, err := http.DefaultClient.Do(req); err == nil {
		resp.Body.Close()
	}
	if resp, err := http.Post(baseURL()+"/rules/reload", "application/json", nil); err == nil {
		resp.Body.Close()
	}
}
