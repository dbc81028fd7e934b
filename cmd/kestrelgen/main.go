// Kestrel - Batch risk scoring for payment transactions.
// Copyright (c) 2026 opensource.risk
// Licensed under the Apache License 2.0

// kestrelgen produces synthetic transaction batches for demos and
// benchmarking.
//
// Usage:
//
//	go run cmd/kestrelgen/main.go -count 1000 -fraud-rate 0.05 -format csv -out batch.csv
//
// Clean rows look like ordinary daytime retail purchases; fraudulent
// rows carry one or more anomaly patterns (card testing amounts,
// sequential card digits, decline codes, disposable emails, late-night
// bursts, mismatched geography).
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/opensource-risk/kestrel/internal/domain"
)

var csvHeader = []string{
	"transaction_id", "customer_id", "amount",
	"transaction_date", "transaction_time",
	"merchant_name", "merchant_category",
	"customer_name", "customer_email", "customer_phone",
	"customer_state", "customer_zip_code", "customer_ip_address",
	"payment_method", "card_last4", "response_code",
}

var merchants = []struct {
	name     string
	category string
}{
	{"QuickPay App Store", "mobile"},
	{"Sunrise Medical Clinic", "healthcare"},
	{"Pixel Forge Gaming", "gaming"},
	{"Meridian Wealth Advisors", "financial"},
	{"StreamBox Monthly", "subscription"},
	{"Corner Bakery", "retail"},
	{"Harbor Hardware", "retail"},
	{"Bluebird Books", "retail"},
}

var states = []struct {
	state string
	zip   string
}{
	{"CA", "90210"},
	{"NY", "10001"},
	{"TX", "75001"},
	{"FL", "33101"},
	{"IL", "60601"},
	{"WA", "98101"},
}

var names = []string{
	"Avery Collins", "Jordan Reyes", "Sam Whitfield", "Riley Nakamura",
	"Casey Lindqvist", "Morgan Abara", "Drew Castellano", "Quinn Osei",
}

func main() {
	count := flag.Int("count", 100, "Number of transactions to generate")
	fraudRate := flag.Float64("fraud-rate", 0.1, "Fraction of fraudulent rows (0.0-1.0)")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	format := flag.String("format", "csv", "Output format: csv or json")
	out := flag.String("out", "", "Output file (default stdout)")
	flag.Parse()

	if *count <= 0 {
		fmt.Fprintln(os.Stderr, "count must be positive")
		os.Exit(1)
	}
	if *fraudRate < 0 || *fraudRate > 1 {
		fmt.Fprintln(os.Stderr, "fraud-rate must be between 0.0 and 1.0")
		os.Exit(1)
	}
	if *format != "csv" && *format != "json" {
		fmt.Fprintln(os.Stderr, "format must be csv or json")
		os.Exit(1)
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	txs := generate(rng, *count, *fraudRate)

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create output file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	var err error
	switch *format {
	case "csv":
		err = writeCSV(w, txs)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(txs)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write output: %v\n", err)
		os.Exit(1)
	}

	if *out != "" {
		fmt.Fprintf(os.Stderr, "wrote %d transactions (seed %d) to %s\n", len(txs), s, *out)
	}
}

func generate(rng *rand.Rand, count int, fraudRate float64) []domain.Transaction {
	txs := make([]domain.Transaction, 0, count)
	day := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		if rng.Float64() < fraudRate {
			txs = append(txs, fraudulent(rng, i, day))
		} else {
			txs = append(txs, clean(rng, i, day))
		}
	}
	return txs
}

func clean(rng *rand.Rand, i int, day time.Time) domain.Transaction {
	m := merchants[rng.Intn(len(merchants))]
	loc := states[rng.Intn(len(states))]
	name := names[rng.Intn(len(names))]

	// Daytime, non-round amounts
	hour := 9 + rng.Intn(9)
	amount := 5 + rng.Float64()*240
	amount = float64(int(amount*100)) / 100
	if int(amount)%100 == 0 {
		amount += 0.37
	}

	return domain.Transaction{
		TransactionID:    fmt.Sprintf("TXN_%06d", i+1),
		CustomerID:       fmt.Sprintf("SHOPPER_%04d", rng.Intn(2000)),
		Amount:           amount,
		TransactionDate:  day.Format("2006-01-02"),
		TransactionTime:  fmt.Sprintf("%02d:%02d:%02d", hour, rng.Intn(60), rng.Intn(60)),
		MerchantName:     m.name,
		MerchantCategory: m.category,
		CustomerName:     name,
		CustomerEmail:    emailFor(name, rng),
		CustomerState:    loc.state,
		CustomerZip:      loc.zip,
		PaymentMethod:    "credit_card",
		CardLast4:        fmt.Sprintf("%04d", rng.Intn(10000)),
		ResponseCode:     "00",
	}
}

func fraudulent(rng *rand.Rand, i int, day time.Time) domain.Transaction {
	tx := clean(rng, i, day)
	tx.CustomerID = fmt.Sprintf("CUST_%04d", rng.Intn(500))

	// Stack one to three anomaly patterns
	patterns := 1 + rng.Intn(3)
	for p := 0; p < patterns; p++ {
		switch rng.Intn(6) {
		case 0:
			// Card testing amount
			amounts := []float64{1.00, 5.00, 10.00, 100.00, 500.00, 1000.00}
			tx.Amount = amounts[rng.Intn(len(amounts))]
		case 1:
			// Sequential / repeated card digits
			last4s := []string{"1234", "4321", "1111", "9999", "2345"}
			tx.CardLast4 = last4s[rng.Intn(len(last4s))]
		case 2:
			// Decline codes
			codes := []string{"05", "51", "14", "61"}
			tx.ResponseCode = codes[rng.Intn(len(codes))]
		case 3:
			// Disposable email and placeholder name
			tx.CustomerName = "Test User"
			tx.CustomerEmail = "user" + strconv.Itoa(rng.Intn(1000)) + "@tempmail.com"
		case 4:
			// Late night
			tx.TransactionTime = fmt.Sprintf("%02d:%02d:%02d", []int{23, 0, 2, 3}[rng.Intn(4)], rng.Intn(60), rng.Intn(60))
		case 5:
			// Geography mismatch
			tx.CustomerState = "NY"
			tx.CustomerZip = "90210"
			tx.CustomerIP = "192.168.1." + strconv.Itoa(1+rng.Intn(250))
		}
	}
	return tx
}

func emailFor(name string, rng *rand.Rand) string {
	domains := []string{"gmail.com", "yahoo.com", "outlook.com"}
	return fmt.Sprintf("user%d@%s", rng.Intn(100000), domains[rng.Intn(len(domains))])
}

func writeCSV(w io.Writer, txs []domain.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for i := range txs {
		tx := &txs[i]
		record := []string{
			tx.TransactionID, tx.CustomerID, strconv.FormatFloat(tx.Amount, 'f', 2, 64),
			tx.TransactionDate, tx.TransactionTime,
			tx.MerchantName, tx.MerchantCategory,
			tx.CustomerName, tx.CustomerEmail, tx.CustomerPhone,
			tx.CustomerState, tx.CustomerZip, tx.CustomerIP,
			tx.PaymentMethod, tx.CardLast4, tx.ResponseCode,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
