// Package rules provides the CEL-based custom scoring rule engine.
// Custom rules let operators add their own anomaly conditions next to
// the built-in detectors; a rule that evaluates true contributes its
// configured delta and flag to the transaction's findings.
package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/opensource-risk/kestrel/internal/domain"
)

// VelocityGetter returns the number of stored transactions for a
// customer within a trailing time window, for the velocity_count
// variable. Cross-batch, unlike the engine's in-batch window.
type VelocityGetter func(ctx context.Context, customerID string, windowSecs int) (int64, error)

// Engine compiles and evaluates custom rules. It implements
// scoring.CustomScorer.
type Engine struct {
	mu             sync.RWMutex
	env            *cel.Env
	compiledRules  map[string]*CompiledRule
	velocityGetter VelocityGetter
}

// CompiledRule holds a pre-compiled CEL program.
type CompiledRule struct {
	Config  *domain.CustomRule
	Program cel.Program
}

// NewEngine creates a custom rule engine. The velocity getter may be nil
// when no cross-batch counting backend is available.
func NewEngine(velocityGetter VelocityGetter) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("hour", cel.IntType),
		cel.Variable("industry", cel.StringType),
		cel.Variable("customer_id", cel.StringType),
		cel.Variable("customer_state", cel.StringType),
		cel.Variable("merchant_name", cel.StringType),
		cel.Variable("merchant_category", cel.StringType),
		cel.Variable("payment_method", cel.StringType),
		cel.Variable("response_code", cel.StringType),
		cel.Variable("card_last4", cel.StringType),
		cel.Variable("velocity_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Engine{
		env:            env,
		compiledRules:  make(map[string]*CompiledRule),
		velocityGetter: velocityGetter,
	}, nil
}

// ValidateRule compiles a rule without loading it.
func (e *Engine) ValidateRule(cfg *domain.CustomRule) error {
	if cfg == nil {
		return fmt.Errorf("rule config is required")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, err := e.compileRule(cfg)
	return err
}

// LoadRule compiles and loads a rule into the engine.
func (e *Engine) LoadRule(cfg *domain.CustomRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	compiled, err := e.compileRule(cfg)
	if err != nil {
		return err
	}

	e.compiledRules[cfg.ID] = compiled
	return nil
}

// LoadRules compiles and loads every enabled rule.
func (e *Engine) LoadRules(configs []*domain.CustomRule) error {
	for _, cfg := range configs {
		if cfg.Enabled {
			if err := e.LoadRule(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReloadRules atomically replaces all loaded rules.
func (e *Engine) ReloadRules(configs []*domain.CustomRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newRules := make(map[string]*CompiledRule)
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		compiled, err := e.compileRule(cfg)
		if err != nil {
			return err
		}
		newRules[cfg.ID] = compiled
	}

	e.compiledRules = newRules
	return nil
}

// Evaluate runs every loaded rule against a transaction and returns the
// findings of the rules that triggered. Rules run in ID order so that
// flag output is deterministic. A rule that fails to evaluate
// contributes nothing.
func (e *Engine) Evaluate(ctx context.Context, tx *domain.Transaction, industry domain.Industry, hour int) []domain.Finding {
	e.mu.RLock()
	rules := make([]*CompiledRule, 0, len(e.compiledRules))
	for _, rule := range e.compiledRules {
		rules = append(rules, rule)
	}
	e.mu.RUnlock()

	if len(rules) == 0 {
		return nil
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Config.ID < rules[j].Config.ID })

	activation := map[string]any{
		"amount":            tx.Amount,
		"hour":              int64(hour),
		"industry":          string(industry),
		"customer_id":       tx.CustomerID,
		"customer_state":    tx.CustomerState,
		"merchant_name":     tx.MerchantName,
		"merchant_category": tx.MerchantCategory,
		"payment_method":    tx.PaymentMethod,
		"response_code":     tx.ResponseCode,
		"card_last4":        tx.CardLast4,
		"velocity_count":    int64(0),
	}

	var findings []domain.Finding
	for _, rule := range rules {
		if rule.Config.VelocityWindowSecs > 0 && e.velocityGetter != nil && tx.CustomerID != "" {
			count, err := e.velocityGetter(ctx, tx.CustomerID, rule.Config.VelocityWindowSecs)
			if err != nil {
				slog.Warn("velocity lookup failed",
					"rule_id", rule.Config.ID,
					"customer_id", tx.CustomerID,
					"error", err,
				)
				count = 0
			}
			activation["velocity_count"] = count
		} else {
			activation["velocity_count"] = int64(0)
		}

		out, _, err := rule.Program.Eval(activation)
		if err != nil {
			slog.Warn("custom rule evaluation failed",
				"rule_id", rule.Config.ID,
				"error", err,
			)
			continue
		}

		if triggered(out) {
			findings = append(findings, domain.Finding{
				Delta: rule.Config.Delta,
				Flag:  rule.Config.Flag,
			})
		}
	}

	return findings
}

// RulesCount returns the number of loaded rules.
func (e *Engine) RulesCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.compiledRules)
}

// GetLoadedRules returns the currently loaded rule configurations.
func (e *Engine) GetLoadedRules() []*domain.CustomRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rules := make([]*domain.CustomRule, 0, len(e.compiledRules))
	for _, compiled := range e.compiledRules {
		rules = append(rules, compiled.Config)
	}
	return rules
}

// Close cleans up the engine.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiledRules = make(map[string]*CompiledRule)
	return nil
}

func triggered(val ref.Val) bool {
	b, ok := val.(types.Bool)
	return ok && bool(b)
}

func (e *Engine) compileRule(cfg *domain.CustomRule) (*CompiledRule, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile rule %s: %w", cfg.ID, issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: expression must return bool, got %s", cfg.ID, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", cfg.ID, err)
	}

	return &CompiledRule{
		Config:  cfg,
		Program: program,
	}, nil
}
