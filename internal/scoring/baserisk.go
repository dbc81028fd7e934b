package scoring

import (
	"fmt"

	"github.com/opensource-risk/kestrel/internal/domain"
)

// baseAmountRisk applies the industry's amount bands to the transaction
// amount. Bands are checked in profile order, first match wins; when no
// band matches the profile's baseline delta applies with no flag.
func baseAmountRisk(amount float64, p domain.IndustryProfile) domain.Finding {
	for _, band := range p.AmountBands {
		matched := amount > band.Threshold
		if band.Below {
			matched = amount < band.Threshold
		}
		if !matched {
			continue
		}

		f := domain.Finding{Delta: band.Delta}
		if band.Flag != "" {
			f.Flag = fmt.Sprintf(band.Flag, amount)
		}
		return f
	}
	return domain.Finding{Delta: p.BaselineDelta}
}

// temporalRisk scores the transaction's hour of day against the
// industry's peak-hour set. Unparseable times contribute nothing.
func temporalRisk(tod string, p domain.IndustryProfile) domain.Finding {
	h, ok := parseHour(tod)
	if !ok {
		return domain.Finding{}
	}

	for _, peak := range p.PeakHours {
		if h == peak {
			return domain.Finding{}
		}
	}

	// 22:00 through 06:59 counts as late night / early morning.
	if h == 22 || h == 23 || (h >= 0 && h <= 6) {
		return domain.Finding{
			Delta: 25,
			Flag:  fmt.Sprintf("Late night/early morning transaction (hour %d)", h),
		}
	}
	return domain.Finding{Delta: 10}
}
