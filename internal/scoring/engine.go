// Package scoring implements the transaction risk-scoring engine: six
// anomaly detectors, industry-adaptive base rules, and the aggregation
// and classification pass that turns a batch of transactions into scored
// rows with human-readable anomaly flags.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/opensource-risk/kestrel/internal/domain"
)

// CustomScorer supplies extra findings for a transaction, evaluated
// alongside the built-in detectors. Implemented by the CEL rule engine.
type CustomScorer interface {
	Evaluate(ctx context.Context, tx *domain.Transaction, industry domain.Industry, hour int) []domain.Finding
}

// Engine scores batches of transactions. It is deterministic for a given
// random source: seed the injected *rand.Rand to make runs reproducible.
// An Engine is not safe for concurrent use of a single AnalyzeBatch call
// but carries no state between calls.
type Engine struct {
	profiles domain.ProfileSet
	rng      *rand.Rand
	custom   CustomScorer
}

// NewEngine creates a scoring engine. A nil profile set selects the
// built-in industry tables; a nil rng gets a time-seeded source.
func NewEngine(profiles domain.ProfileSet, rng *rand.Rand) *Engine {
	if profiles == nil {
		profiles = domain.DefaultProfiles()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{profiles: profiles, rng: rng}
}

// SetCustomScorer attaches an optional custom rule scorer. Must be called
// before AnalyzeBatch.
func (e *Engine) SetCustomScorer(cs CustomScorer) {
	e.custom = cs
}

// AnalyzeBatch scores every transaction in input order. Output rows map
// one-to-one onto input rows. Per-customer history windows grow during
// the single forward pass, so a row's velocity and behavioral results
// depend on the input order of earlier same-customer rows, never on
// later ones. Malformed fields never fail a row; the owning check just
// contributes nothing. The only error paths are context cancellation and
// custom-rule infrastructure failures.
func (e *Engine) AnalyzeBatch(ctx context.Context, txs []domain.Transaction) ([]domain.AnalyzedTransaction, error) {
	start := time.Now()
	out := make([]domain.AnalyzedTransaction, 0, len(txs))
	history := newCustomerHistory()

	for i := range txs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("batch aborted at row %d of %d: %w", i, len(txs), err)
		}
		out = append(out, e.analyzeRow(ctx, &txs[i], history))
	}

	slog.Debug("batch analyzed",
		"rows", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (e *Engine) analyzeRow(ctx context.Context, tx *domain.Transaction, history *customerHistory) domain.AnalyzedTransaction {
	industry := ClassifyIndustry(tx)
	profile := e.profile(industry)
	hour := outputHour(tx.TransactionTime)

	findings := make([]domain.Finding, 0, 8)
	findings = append(findings, baseAmountRisk(tx.Amount, profile))
	findings = append(findings, temporalRisk(tx.TransactionTime, profile))

	// First-seen customers in the CUST_ namespace occasionally get a
	// small extra nudge. The draw happens only when the prefix matches,
	// keeping the rng stream stable for other inputs.
	if strings.HasPrefix(tx.CustomerID, "CUST_") && e.rng.Float64() < 0.1 {
		findings = append(findings, domain.Finding{Delta: 15, Flag: "New customer pattern"})
	}

	prior := history.window(tx.CustomerID)
	cur := historyRow{
		amount:   tx.Amount,
		category: tx.MerchantCategory,
		ts:       parseClock(tx.TransactionDate, tx.TransactionTime),
	}

	findings = append(findings, geographicFindings(tx)...)
	findings = append(findings, velocityFindings(cur, prior)...)
	findings = append(findings, paymentFindings(tx)...)
	findings = append(findings, behavioralFindings(tx, prior)...)
	findings = append(findings, dataQualityFindings(tx)...)

	if e.custom != nil {
		findings = append(findings, e.custom.Evaluate(ctx, tx, industry, hour)...)
	}

	history.append(tx.CustomerID, cur)

	total := 0
	flags := make([]string, 0, len(findings))
	for _, f := range findings {
		total += f.Delta
		if f.Flag != "" {
			flags = append(flags, f.Flag)
		}
	}

	score := int(float64(total)*profile.Multiplier) + e.rng.Intn(3)
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	flagText := domain.NoAnomalies
	if len(flags) > 0 {
		flagText = strings.Join(flags, "; ")
	}

	return domain.AnalyzedTransaction{
		Transaction:  *tx,
		RiskScore:    score,
		SafetyLevel:  classify(score, profile),
		AnomalyFlags: flagText,
		IndustryType: industry,
		Hour:         hour,
	}
}

// profile resolves an industry's tables, falling back to general for
// industries absent from a caller-supplied profile set.
func (e *Engine) profile(industry domain.Industry) domain.IndustryProfile {
	if p, ok := e.profiles[industry]; ok {
		return p
	}
	return e.profiles[domain.IndustryGeneral]
}

// classify maps a final score to a safety level. Both cutoffs are strict:
// a score exactly at the attention threshold is still Watch Closely.
func classify(score int, p domain.IndustryProfile) domain.SafetyLevel {
	switch {
	case score > p.AttentionAbove:
		return domain.LevelAttention
	case score > p.WatchAbove:
		return domain.LevelWatch
	default:
		return domain.LevelSafe
	}
}
