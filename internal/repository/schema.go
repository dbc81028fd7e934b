package repository

// Schema definitions for the Kestrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    transaction_id TEXT PRIMARY KEY,
    batch_id TEXT NOT NULL,
    customer_id TEXT,
    amount REAL NOT NULL,
    transaction_date TEXT,
    transaction_time TEXT,
    merchant_name TEXT,
    merchant_category TEXT,
    customer_name TEXT,
    customer_email TEXT,
    customer_phone TEXT,
    customer_state TEXT,
    customer_zip_code TEXT,
    customer_ip_address TEXT,
    payment_method TEXT,
    card_last4 TEXT,
    response_code TEXT,
    risk_score INTEGER NOT NULL,
    safety_level TEXT NOT NULL,
    anomaly_flags TEXT NOT NULL,
    industry_type TEXT NOT NULL,
    hour INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_batch ON transactions(batch_id);
CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions(customer_id, created_at);
CREATE INDEX IF NOT EXISTS idx_transactions_score ON transactions(risk_score);
`

const schemaRuleConfigs = `
CREATE TABLE IF NOT EXISTS rule_configs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    version TEXT,
    expression TEXT NOT NULL,
    delta INTEGER NOT NULL DEFAULT 0,
    flag TEXT NOT NULL,
    velocity_window_secs INTEGER NOT NULL DEFAULT 0,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rule_configs_enabled ON rule_configs(enabled);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaTransactions,
		schemaRuleConfigs,
	}
}
