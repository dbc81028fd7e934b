package scoring

import (
	"strings"

	"github.com/opensource-risk/kestrel/internal/domain"
)

var placeholderNames = []string{"test", "demo", "fake", "admin", "null", "none"}

var disposableEmailDomains = []string{
	"10minutemail",
	"tempmail",
	"guerrillamail",
	"mailinator",
}

// dataQualityFindings flags customer identity fields that look like
// placeholders or throwaways. Empty fields are treated as missing and
// contribute nothing.
func dataQualityFindings(tx *domain.Transaction) []domain.Finding {
	var out []domain.Finding

	name := strings.ToLower(strings.TrimSpace(tx.CustomerName))
	if name != "" {
		for _, p := range placeholderNames {
			if strings.Contains(name, p) {
				out = append(out, domain.Finding{
					Delta: 30,
					Flag:  "Suspicious test/placeholder customer name",
				})
				break
			}
		}
		if len(strings.ReplaceAll(name, " ", "")) < 3 {
			out = append(out, domain.Finding{
				Delta: 25,
				Flag:  "Customer name too short",
			})
		}
	}

	email := strings.ToLower(strings.TrimSpace(tx.CustomerEmail))
	if email != "" {
		if _, dom, ok := strings.Cut(email, "@"); ok {
			for _, d := range disposableEmailDomains {
				if strings.Contains(dom, d) {
					out = append(out, domain.Finding{
						Delta: 35,
						Flag:  "Disposable email domain",
					})
					break
				}
			}
		}

		if digits := extractDigits(email); len(digits) >= 4 && isNonDecreasing(digits) {
			out = append(out, domain.Finding{
				Delta: 20,
				Flag:  "Sequential digits in email",
			})
		}
	}

	return out
}

func extractDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isNonDecreasing(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] < digits[i-1] {
			return false
		}
	}
	return true
}
