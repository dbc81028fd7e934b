package scoring

import (
	"fmt"
	"strings"

	"github.com/opensource-risk/kestrel/internal/domain"
)

// zipToState is the known ZIP-prefix sample used for exact
// mismatch detection. ZIPs outside this table fall through to the
// cruder per-state prefix heuristics.
var zipToState = map[string]string{
	"90210": "CA",
	"10001": "NY",
	"60601": "IL",
	"33101": "FL",
	"77001": "TX",
	"30301": "GA",
	"02101": "MA",
	"98101": "WA",
	"80201": "CO",
	"85001": "AZ",
	"97201": "OR",
	"89101": "NV",
}

// statePrefixes are first-digit heuristics for a handful of large states.
var statePrefixes = map[string][]string{
	"CA": {"8", "9"},
	"NY": {"1", "0"},
	"TX": {"7"},
	"FL": {"3"},
}

// IP prefix groups. The three groups are independent checks and can
// stack on a single transaction.
var (
	privateIPPrefixes = []string{"192.168.", "10.", "172."}
	vpnIPPrefixes     = []string{"45.", "103.", "185.", "198."}
	intlIPPrefixes    = []string{"41.", "103.", "115.", "200."}
)

// geographicFindings checks ZIP/state consistency and IP address origin.
func geographicFindings(tx *domain.Transaction) []domain.Finding {
	var out []domain.Finding

	state := strings.ToUpper(strings.TrimSpace(tx.CustomerState))
	zip := strings.TrimSpace(tx.CustomerZip)
	if len(zip) > 5 {
		zip = zip[:5]
	}

	if zip != "" && state != "" {
		if want, known := zipToState[zip]; known {
			if want != state {
				out = append(out, domain.Finding{
					Delta: 35,
					Flag:  fmt.Sprintf("ZIP %s doesn't match state %s", zip, state),
				})
			}
		} else if prefixes, ok := statePrefixes[state]; ok && !hasAnyPrefix(zip, prefixes) {
			out = append(out, domain.Finding{
				Delta: 25,
				Flag:  fmt.Sprintf("ZIP %s unusual for state %s", zip, state),
			})
		}
	}

	ip := strings.TrimSpace(tx.CustomerIP)
	if ip != "" {
		if hasAnyPrefix(ip, privateIPPrefixes) {
			out = append(out, domain.Finding{Delta: 20, Flag: "Private/local IP address"})
		}
		if hasAnyPrefix(ip, vpnIPPrefixes) {
			out = append(out, domain.Finding{Delta: 30, Flag: "IP address associated with VPN/proxy"})
		}
		if state != "" && hasAnyPrefix(ip, intlIPPrefixes) {
			out = append(out, domain.Finding{Delta: 40, Flag: "International IP with US address"})
		}
	}

	return out
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
