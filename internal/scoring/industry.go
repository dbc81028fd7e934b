package scoring

import (
	"strings"

	"github.com/opensource-risk/kestrel/internal/domain"
)

// industryKeywords maps each industry to its trigger keywords. Order
// matters: keyword sets overlap (e.g. "gaming" appears in both the
// mobile_app and gaming sets), so classification walks industryOrder and
// the first match wins.
var industryKeywords = map[domain.Industry][]string{
	domain.IndustryMobileApp:    {"mobile", "gaming", "app"},
	domain.IndustryHealthcare:   {"health", "medical", "clinic", "telehealth"},
	domain.IndustryGaming:       {"gaming", "entertainment"},
	domain.IndustryFinancial:    {"financial", "payment", "bank", "finance"},
	domain.IndustrySubscription: {"subscription", "saas", "software"},
}

var industryOrder = []domain.Industry{
	domain.IndustryMobileApp,
	domain.IndustryHealthcare,
	domain.IndustryGaming,
	domain.IndustryFinancial,
	domain.IndustrySubscription,
}

// ClassifyIndustry infers a transaction's industry from its merchant
// category and name. Unmatched merchants fall back to general.
func ClassifyIndustry(tx *domain.Transaction) domain.Industry {
	text := strings.ToLower(tx.MerchantCategory + " " + tx.MerchantName)

	for _, industry := range industryOrder {
		for _, kw := range industryKeywords[industry] {
			if strings.Contains(text, kw) {
				return industry
			}
		}
	}
	return domain.IndustryGeneral
}
