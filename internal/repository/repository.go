// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-risk/kestrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

const analysisColumns = `
	transaction_id, batch_id, customer_id, amount,
	transaction_date, transaction_time,
	merchant_name, merchant_category,
	customer_name, customer_email, customer_phone,
	customer_state, customer_zip_code, customer_ip_address,
	payment_method, card_last4, response_code,
	risk_score, safety_level, anomaly_flags, industry_type, hour
`

// SaveAnalysis stores one analyzed transaction.
func (r *SQLRepository) SaveAnalysis(ctx context.Context, batchID string, row *domain.AnalyzedTransaction) error {
	if row == nil || row.TransactionID == "" {
		return fmt.Errorf("%w: transaction_id is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO transactions (` + analysisColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		row.TransactionID, batchID, row.CustomerID, row.Amount,
		row.TransactionDate, row.TransactionTime,
		row.MerchantName, row.MerchantCategory,
		row.CustomerName, row.CustomerEmail, row.CustomerPhone,
		row.CustomerState, row.CustomerZip, row.CustomerIP,
		row.PaymentMethod, row.CardLast4, row.ResponseCode,
		row.RiskScore, string(row.SafetyLevel), row.AnomalyFlags, string(row.IndustryType), row.Hour,
		time.Now().UTC(),
	)
	return err
}

// SaveBatch stores an analyzed batch inside a single database
// transaction so that a partially written batch never persists.
func (r *SQLRepository) SaveBatch(ctx context.Context, batchID string, rows []domain.AnalyzedTransaction) error {
	if batchID == "" {
		return fmt.Errorf("%w: batchID is required", ErrInvalidInput)
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := r.rebind(`
		INSERT INTO transactions (` + analysisColumns + `, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	now := time.Now().UTC()
	for i := range rows {
		row := &rows[i]
		if _, err := dbTx.ExecContext(ctx, query,
			row.TransactionID, batchID, row.CustomerID, row.Amount,
			row.TransactionDate, row.TransactionTime,
			row.MerchantName, row.MerchantCategory,
			row.CustomerName, row.CustomerEmail, row.CustomerPhone,
			row.CustomerState, row.CustomerZip, row.CustomerIP,
			row.PaymentMethod, row.CardLast4, row.ResponseCode,
			row.RiskScore, string(row.SafetyLevel), row.AnomalyFlags, string(row.IndustryType), row.Hour,
			now,
		); err != nil {
			return fmt.Errorf("failed to save row %s: %w", row.TransactionID, err)
		}
	}

	return dbTx.Commit()
}

func scanAnalysis(scan func(dest ...any) error) (*domain.AnalyzedTransaction, error) {
	var row domain.AnalyzedTransaction
	var batchID, level, industry string

	err := scan(
		&row.TransactionID, &batchID, &row.CustomerID, &row.Amount,
		&row.TransactionDate, &row.TransactionTime,
		&row.MerchantName, &row.MerchantCategory,
		&row.CustomerName, &row.CustomerEmail, &row.CustomerPhone,
		&row.CustomerState, &row.CustomerZip, &row.CustomerIP,
		&row.PaymentMethod, &row.CardLast4, &row.ResponseCode,
		&row.RiskScore, &level, &row.AnomalyFlags, &industry, &row.Hour,
	)
	if err != nil {
		return nil, err
	}

	row.SafetyLevel = domain.SafetyLevel(level)
	row.IndustryType = domain.Industry(industry)
	return &row, nil
}

// GetAnalysis retrieves an analyzed transaction by ID.
func (r *SQLRepository) GetAnalysis(ctx context.Context, txID string) (*domain.AnalyzedTransaction, error) {
	query := `SELECT ` + analysisColumns + ` FROM transactions WHERE transaction_id = ?`

	row, err := scanAnalysis(r.db.QueryRowContext(ctx, r.rebind(query), txID).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ListBatch retrieves every analyzed row of a batch in insertion order.
func (r *SQLRepository) ListBatch(ctx context.Context, batchID string) ([]*domain.AnalyzedTransaction, error) {
	query := `SELECT ` + analysisColumns + ` FROM transactions WHERE batch_id = ? ORDER BY rowid`
	if r.driver == "postgres" {
		query = `SELECT ` + analysisColumns + ` FROM transactions WHERE batch_id = ? ORDER BY created_at`
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AnalyzedTransaction
	for rows.Next() {
		row, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountByCustomerSince counts a customer's stored transactions ingested
// after the given instant. Backs the cross-batch velocity variable.
func (r *SQLRepository) CountByCustomerSince(ctx context.Context, customerID string, since time.Time) (int64, error) {
	if customerID == "" {
		return 0, fmt.Errorf("%w: customerID is required", ErrInvalidInput)
	}

	query := `SELECT COUNT(*) FROM transactions WHERE customer_id = ? AND created_at >= ?`

	var count int64
	if err := r.db.QueryRowContext(ctx, r.rebind(query), customerID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// ListHighRisk retrieves stored rows at or above a minimum score,
// highest first.
func (r *SQLRepository) ListHighRisk(ctx context.Context, minScore int, limit int) ([]*domain.AnalyzedTransaction, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + analysisColumns + ` FROM transactions WHERE risk_score >= ? ORDER BY risk_score DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), minScore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AnalyzedTransaction
	for rows.Next() {
		row, err := scanAnalysis(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SaveRuleConfig stores a custom rule configuration, upserting on ID.
func (r *SQLRepository) SaveRuleConfig(ctx context.Context, rule *domain.CustomRule) error {
	if rule == nil || rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidInput)
	}

	enabled := 0
	if rule.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO rule_configs (
			id, name, description, version, expression, delta, flag, velocity_window_secs, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			version = excluded.version,
			expression = excluded.expression,
			delta = excluded.delta,
			flag = excluded.flag,
			velocity_window_secs = excluded.velocity_window_secs,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		rule.ID, rule.Name, rule.Description, rule.Version,
		rule.Expression, rule.Delta, rule.Flag, rule.VelocityWindowSecs, enabled,
		now, now,
	)
	return err
}

// GetRuleConfig retrieves a rule configuration by ID.
func (r *SQLRepository) GetRuleConfig(ctx context.Context, ruleID string) (*domain.CustomRule, error) {
	query := `
		SELECT id, name, description, version, expression, delta, flag, velocity_window_secs, enabled
		FROM rule_configs
		WHERE id = ?
	`

	var cfg domain.CustomRule
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), ruleID).Scan(
		&cfg.ID, &cfg.Name, &cfg.Description, &cfg.Version,
		&cfg.Expression, &cfg.Delta, &cfg.Flag, &cfg.VelocityWindowSecs, &enabled,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	cfg.Enabled = enabled == 1
	return &cfg, nil
}

// ListRuleConfigs retrieves all enabled rule configurations.
func (r *SQLRepository) ListRuleConfigs(ctx context.Context) ([]*domain.CustomRule, error) {
	query := `
		SELECT id, name, description, version, expression, delta, flag, velocity_window_secs, enabled
		FROM rule_configs
		WHERE enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.CustomRule
	for rows.Next() {
		var cfg domain.CustomRule
		var enabled int

		if err := rows.Scan(
			&cfg.ID, &cfg.Name, &cfg.Description, &cfg.Version,
			&cfg.Expression, &cfg.Delta, &cfg.Flag, &cfg.VelocityWindowSecs, &enabled,
		); err != nil {
			return nil, err
		}

		cfg.Enabled = enabled == 1
		configs = append(configs, &cfg)
	}

	return configs, rows.Err()
}

// DeleteRuleConfig soft-deletes a rule by setting enabled = 0.
func (r *SQLRepository) DeleteRuleConfig(ctx context.Context, ruleID string) error {
	query := `UPDATE rule_configs SET enabled = 0, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), ruleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
