package scoring

import (
	"fmt"
	"strings"

	"github.com/opensource-risk/kestrel/internal/domain"
)

// declineCodes are issuer response codes worth flagging: do-not-honor,
// insufficient funds, invalid card number, exceeds withdrawal limit.
var declineCodes = map[string]bool{
	"05": true,
	"51": true,
	"14": true,
	"61": true,
}

// sequentialLast4 are ascending four-digit runs seen in enumeration
// attacks against card number space.
var sequentialLast4 = map[string]bool{
	"1234": true,
	"2345": true,
	"3456": true,
	"4567": true,
	"5678": true,
	"6789": true,
	"7890": true,
}

// paymentFindings checks the issuer response code and the card's last
// four digits. The two card checks are independent.
func paymentFindings(tx *domain.Transaction) []domain.Finding {
	var out []domain.Finding

	code := strings.TrimSpace(tx.ResponseCode)
	if code != "" && code != "00" && declineCodes[code] {
		out = append(out, domain.Finding{
			Delta: 30,
			Flag:  fmt.Sprintf("Declined transaction (response code %s)", code),
		})
	}

	last4 := strings.TrimSpace(tx.CardLast4)
	if len(last4) == 4 {
		if sequentialLast4[last4] {
			out = append(out, domain.Finding{
				Delta: 45,
				Flag:  "Card number sequential pattern",
			})
		}
		if last4[0] == last4[1] && last4[1] == last4[2] && last4[2] == last4[3] {
			out = append(out, domain.Finding{
				Delta: 35,
				Flag:  "Card number repeated digits",
			})
		}
	}

	return out
}
