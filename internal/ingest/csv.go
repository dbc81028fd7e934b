// Package ingest parses transaction CSV uploads into domain rows.
// It owns the upstream contract of the scoring engine: column
// defaulting, numeric coercion of amount, and deduplication all happen
// here so the engine can assume amounts are already numeric.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/opensource-risk/kestrel/internal/domain"
)

// RowError describes a rejected CSV row. Line numbers are 1-based and
// include the header line.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Result is the outcome of parsing one CSV upload. Rows that fail
// coercion are reported in Skipped rather than aborting the upload.
type Result struct {
	Transactions []domain.Transaction `json:"transactions"`
	Skipped      []RowError           `json:"skipped,omitempty"`
	Duplicates   int                  `json:"duplicates"`
}

// requiredColumns must be present in the header; every other column is
// optional and defaults to the empty string.
var requiredColumns = []string{"transaction_id", "amount"}

// ReadCSV parses a transaction CSV stream. It returns an error only for
// stream-level problems (unreadable header, missing required columns);
// individual malformed rows are skipped and reported.
func ReadCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // rows may be ragged; missing cells default

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	result := &Result{}
	seen := make(map[string]bool)
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Reason: "malformed CSV row"})
			continue
		}

		cell := func(name string) string {
			idx, ok := colIndex[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		txID := cell("transaction_id")
		if txID == "" {
			result.Skipped = append(result.Skipped, RowError{Line: line, Reason: "empty transaction_id"})
			continue
		}
		if seen[txID] {
			result.Duplicates++
			continue
		}

		amount, err := strconv.ParseFloat(cell("amount"), 64)
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Reason: fmt.Sprintf("non-numeric amount %q", cell("amount"))})
			continue
		}
		if amount < 0 {
			result.Skipped = append(result.Skipped, RowError{Line: line, Reason: fmt.Sprintf("negative amount %.2f", amount)})
			continue
		}

		seen[txID] = true
		result.Transactions = append(result.Transactions, domain.Transaction{
			TransactionID:    txID,
			CustomerID:       cell("customer_id"),
			Amount:           amount,
			TransactionDate:  cell("transaction_date"),
			TransactionTime:  cell("transaction_time"),
			MerchantName:     cell("merchant_name"),
			MerchantCategory: cell("merchant_category"),
			CustomerName:     cell("customer_name"),
			CustomerEmail:    cell("customer_email"),
			CustomerPhone:    cell("customer_phone"),
			CustomerState:    cell("customer_state"),
			CustomerZip:      cell("customer_zip_code"),
			CustomerIP:       cell("customer_ip_address"),
			PaymentMethod:    cell("payment_method"),
			CardLast4:        cell("card_last4"),
			ResponseCode:     cell("response_code"),
		})
	}

	return result, nil
}
