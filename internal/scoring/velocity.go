package scoring

import (
	"github.com/opensource-risk/kestrel/internal/domain"
)

// historyRow is the per-row view the order-dependent detectors keep of a
// processed transaction.
type historyRow struct {
	amount   float64
	category string
	ts       clockstamp
}

// customerHistory is an incrementally maintained index from customer ID
// to that customer's prior rows, in input order. It is built during the
// batch driver's single forward pass and never looks ahead: the window a
// detector sees for row i covers only rows 0..i-1 of the same customer.
type customerHistory struct {
	rows map[string][]historyRow
}

func newCustomerHistory() *customerHistory {
	return &customerHistory{rows: make(map[string][]historyRow)}
}

// window returns the customer's prior rows. The returned slice is shared
// with the index; callers must not mutate it.
func (h *customerHistory) window(customerID string) []historyRow {
	return h.rows[customerID]
}

func (h *customerHistory) append(customerID string, r historyRow) {
	h.rows[customerID] = append(h.rows[customerID], r)
}

const velocityWindowSecs = 3600

// velocityFindings runs the two in-batch velocity checks over the
// customer's window including the current row.
func velocityFindings(cur historyRow, prior []historyRow) []domain.Finding {
	var out []domain.Finding

	window := make([]historyRow, 0, len(prior)+1)
	window = append(window, prior...)
	window = append(window, cur)

	if len(window) >= 3 && cur.ts.ok {
		near := 0
		for _, r := range window {
			if r.ts.ok && secondsApart(r.ts, cur.ts) <= velocityWindowSecs {
				near++
			}
		}
		if near >= 3 {
			out = append(out, domain.Finding{
				Delta: 35,
				Flag:  "Multiple transactions within 1 hour",
			})
		}
	}

	if len(window) >= 3 {
		a1 := window[len(window)-1].amount
		a2 := window[len(window)-2].amount
		a3 := window[len(window)-3].amount
		if a1 > 3*a2 && a2 > 2*a3 {
			out = append(out, domain.Finding{
				Delta: 40,
				Flag:  "Rapid amount escalation (card testing pattern)",
			})
		}
	}

	return out
}
