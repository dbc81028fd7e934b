// Package domain defines the core interfaces and types for Kestrel.
package domain

// Transaction represents a single payment transaction to be scored.
// Only TransactionID and Amount are required; every other field may be
// empty, and detectors treat empty values as missing rather than invalid.
type Transaction struct {
	TransactionID    string  `json:"transaction_id"`
	CustomerID       string  `json:"customer_id"`
	Amount           float64 `json:"amount"`
	TransactionDate  string  `json:"transaction_date"`
	TransactionTime  string  `json:"transaction_time"` // HH:MM:SS
	MerchantName     string  `json:"merchant_name"`
	MerchantCategory string  `json:"merchant_category"`
	CustomerName     string  `json:"customer_name"`
	CustomerEmail    string  `json:"customer_email"`
	CustomerPhone    string  `json:"customer_phone"`
	CustomerState    string  `json:"customer_state"`
	CustomerZip      string  `json:"customer_zip_code"`
	CustomerIP       string  `json:"customer_ip_address"`
	PaymentMethod    string  `json:"payment_method"`
	CardLast4        string  `json:"card_last4"`
	ResponseCode     string  `json:"response_code"`
}

// SafetyLevel is the three-tier classification derived from the risk score.
type SafetyLevel string

const (
	LevelSafe      SafetyLevel = "Safe"
	LevelWatch     SafetyLevel = "Watch Closely"
	LevelAttention SafetyLevel = "Needs Your Attention"
)

// NoAnomalies is the flag text used when no detector triggered.
const NoAnomalies = "None detected"

// AnalyzedTransaction is a Transaction plus the fields added by the
// scoring engine. Output rows match input rows one-to-one, in order.
type AnalyzedTransaction struct {
	Transaction

	RiskScore    int         `json:"risk_score"`
	SafetyLevel  SafetyLevel `json:"safety_level"`
	AnomalyFlags string      `json:"anomaly_flags"`
	IndustryType Industry    `json:"industry_type"`
	Hour         int         `json:"hour"`
}

// Finding is one triggered anomaly condition: a human-readable flag and
// the score points it contributes. Findings are ephemeral; the batch
// driver joins flags with "; " into AnomalyFlags.
type Finding struct {
	Flag  string
	Delta int
}
