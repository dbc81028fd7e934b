package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
type Repository interface {
	// Analyzed transaction operations
	SaveAnalysis(ctx context.Context, batchID string, row *AnalyzedTransaction) error
	SaveBatch(ctx context.Context, batchID string, rows []AnalyzedTransaction) error
	GetAnalysis(ctx context.Context, txID string) (*AnalyzedTransaction, error)
	ListBatch(ctx context.Context, batchID string) ([]*AnalyzedTransaction, error)
	CountByCustomerSince(ctx context.Context, customerID string, since time.Time) (int64, error)
	ListHighRisk(ctx context.Context, minScore int, limit int) ([]*AnalyzedTransaction, error)

	// Custom rule configuration operations
	SaveRuleConfig(ctx context.Context, rule *CustomRule) error
	GetRuleConfig(ctx context.Context, ruleID string) (*CustomRule, error)
	ListRuleConfigs(ctx context.Context) ([]*CustomRule, error)
	DeleteRuleConfig(ctx context.Context, ruleID string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
