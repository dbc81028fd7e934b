package scoring

import (
	"fmt"
	"math"

	"github.com/opensource-risk/kestrel/internal/domain"
)

// fraudTestAmounts are exact amounts commonly used to probe whether a
// stolen card is live.
var fraudTestAmounts = []float64{1.00, 5.00, 10.00, 100.00, 500.00, 1000.00}

// behavioralFindings checks the transaction against the customer's prior
// rows and against known fraud-probe amount patterns.
func behavioralFindings(tx *domain.Transaction, prior []historyRow) []domain.Finding {
	var out []domain.Finding

	// A returning customer suddenly buying in a category they have never
	// touched. Requires enough history to call them returning.
	if len(prior) >= 3 && tx.MerchantCategory != "" {
		seen := false
		for _, r := range prior {
			if r.category == tx.MerchantCategory {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, domain.Finding{
				Delta: 20,
				Flag:  "New merchant category for returning customer",
			})
		}
	}

	if tx.Amount >= 500 && math.Mod(tx.Amount, 100) == 0 {
		out = append(out, domain.Finding{
			Delta: 25,
			Flag:  fmt.Sprintf("Round amount pattern ($%.0f)", tx.Amount),
		})
	}

	for _, a := range fraudTestAmounts {
		if tx.Amount == a {
			out = append(out, domain.Finding{
				Delta: 30,
				Flag:  fmt.Sprintf("Common fraud testing amount ($%.2f)", tx.Amount),
			})
			break
		}
	}

	return out
}
