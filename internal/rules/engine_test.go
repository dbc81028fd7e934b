package rules

import (
	"context"
	"fmt"
	"testing"

	"github.com/opensource-risk/kestrel/internal/domain"
)

func TestEngineCreation(t *testing.T) {
	engine, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	defer engine.Close()

	if engine.RulesCount() != 0 {
		t.Errorf("expected 0 rules, got %d", engine.RulesCount())
	}
}

func TestLoadRule(t *testing.T) {
	engine, _ := NewEngine(nil)
	defer engine.Close()

	rule := &domain.CustomRule{
		ID:         "rule-001",
		Name:       "Large gift card",
		Expression: `amount > 200.0 && payment_method == "gift_card"`,
		Delta:      40,
		Flag:       "Large gift card purchase",
		Enabled:    true,
	}

	if err := engine.LoadRule(rule); err != nil {
		t.Fatalf("failed to load rule: %v", err)
	}
	if engine.RulesCount() != 1 {
		t.Errorf("expected 1 rule, got %d", engine.RulesCount())
	}
}

func TestLoadInvalidRule(t *testing.T) {
	engine, _ := NewEngine(nil)
	defer engine.Close()

	rule := &domain.CustomRule{
		ID:         "invalid-rule",
		Expression: "this is not valid CEL !!!",
		Enabled:    true,
	}

	if err := engine.LoadRule(rule); err == nil {
		t.Error("expected error for invalid CEL expression")
	}
}

func TestNonBooleanRuleRejected(t *testing.T) {
	engine, _ := NewEngine(nil)
	defer engine.Close()

	rule := &domain.CustomRule{
		ID:         "numeric-rule",
		Expression: "amount * 2.0",
		Enabled:    true,
	}

	if err := engine.LoadRule(rule); err == nil {
		t.Error("expected error for non-boolean expression")
	}
}

func TestEvaluateTriggersAndSkips(t *testing.T) {
	engine, _ := NewEngine(nil)
	defer engine.Close()

	err := engine.LoadRules([]*domain.CustomRule{
		{
			ID:         "rule-amount",
			Expression: "amount > 1000.0",
			Delta:      25,
			Flag:       "Amount over limit",
			Enabled:    true,
		},
		{
			ID:         "rule-night-state",
			Expression: `hour >= 22 && customer_state == "AK"`,
			Delta:      15,
			Flag:       "Night purchase from Alaska",
			Enabled:    true,
		},
		{
			ID:         "rule-disabled",
			Expression: "true",
			Delta:      99,
			Flag:       "Should never appear",
			Enabled:    false,
		},
	})
	if err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}
	if engine.RulesCount() != 2 {
		t.Fatalf("expected 2 loaded rules, got %d", engine.RulesCount())
	}

	tx := &domain.Transaction{Amount: 2500, CustomerState: "CA"}
	findings := engine.Evaluate(context.Background(), tx, domain.IndustryGeneral, 14)

	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %v", findings)
	}
	if findings[0].Flag != "Amount over limit" || findings[0].Delta != 25 {
		t.Errorf("unexpected finding: %+v", findings[0])
	}
}

func TestEvaluateDeterministicOrder(t *testing.T) {
	engine, _ := NewEngine(nil)
	defer engine.Close()

	for i := 0; i < 5; i++ {
		engine.LoadRule(&domain.CustomRule{
			ID:         fmt.Sprintf("rule-%d", i),
			Expression: "true",
			Delta:      i,
			Flag:       fmt.Sprintf("flag-%d", i),
			Enabled:    true,
		})
	}

	tx := &domain.Transaction{Amount: 1}
	first := engine.Evaluate(context.Background(), tx, domain.IndustryGeneral, 10)

	for run := 0; run < 10; run++ {
		got := engine.Evaluate(context.Background(), tx, domain.IndustryGeneral, 10)
		for i := range got {
			if got[i] != first[i] {
				t.Fatalf("run %d: findings order changed: %v vs %v", run, got, first)
			}
		}
	}
}

func TestVelocityCountVariable(t *testing.T) {
	getter := func(ctx context.Context, customerID string, windowSecs int) (int64, error) {
		if customerID == "busy" {
			return 12, nil
		}
		return 0, nil
	}

	engine, _ := NewEngine(getter)
	defer engine.Close()

	engine.LoadRule(&domain.CustomRule{
		ID:                 "rule-velocity",
		Expression:         "velocity_count > 10",
		Delta:              30,
		Flag:               "High customer velocity",
		VelocityWindowSecs: 3600,
		Enabled:            true,
	})

	busy := &domain.Transaction{CustomerID: "busy", Amount: 10}
	if fs := engine.Evaluate(context.Background(), busy, domain.IndustryGeneral, 10); len(fs) != 1 {
		t.Errorf("busy customer: expected 1 finding, got %v", fs)
	}

	quiet := &domain.Transaction{CustomerID: "quiet", Amount: 10}
	if fs := engine.Evaluate(context.Background(), quiet, domain.IndustryGeneral, 10); len(fs) != 0 {
		t.Errorf("quiet customer: expected no findings, got %v", fs)
	}
}

func TestVelocityGetterErrorContributesNothing(t *testing.T) {
	getter := func(ctx context.Context, customerID string, windowSecs int) (int64, error) {
		return 0, fmt.Errorf("backend down")
	}

	engine, _ := NewEngine(getter)
	defer engine.Close()

	engine.LoadRule(&domain.CustomRule{
		ID:                 "rule-velocity",
		Expression:         "velocity_count > 0",
		Delta:              30,
		Flag:               "velocity",
		VelocityWindowSecs: 3600,
		Enabled:            true,
	})

	tx := &domain.Transaction{CustomerID: "cust", Amount: 10}
	if fs := engine.Evaluate(context.Background(), tx, domain.IndustryGeneral, 10); len(fs) != 0 {
		t.Errorf("expected no findings on getter failure, got %v", fs)
	}
}

func TestReloadRules(t *testing.T) {
	engine, _ := NewEngine(nil)
	defer engine.Close()

	engine.LoadRule(&domain.CustomRule{ID: "old", Expression: "true", Flag: "old", Enabled: true})

	err := engine.ReloadRules([]*domain.CustomRule{
		{ID: "new-1", Expression: "amount > 0.0", Flag: "new", Enabled: true},
		{ID: "new-2", Expression: "false", Flag: "never", Enabled: true},
	})
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if engine.RulesCount() != 2 {
		t.Errorf("expected 2 rules after reload, got %d", engine.RulesCount())
	}

	tx := &domain.Transaction{Amount: 5}
	fs := engine.Evaluate(context.Background(), tx, domain.IndustryGeneral, 10)
	if len(fs) != 1 || fs[0].Flag != "new" {
		t.Errorf("expected only the new rule to fire, got %v", fs)
	}
}

func TestValidateRule(t *testing.T) {
	engine, _ := NewEngine(nil)
	defer engine.Close()

	good := &domain.CustomRule{ID: "ok", Expression: `industry == "gaming"`}
	if err := engine.ValidateRule(good); err != nil {
		t.Errorf("valid rule rejected: %v", err)
	}
	if engine.RulesCount() != 0 {
		t.Errorf("validation must not load rules, count=%d", engine.RulesCount())
	}

	if err := engine.ValidateRule(nil); err == nil {
		t.Error("nil rule accepted")
	}
}
