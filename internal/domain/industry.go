package domain

// Industry is the coarse business-category tag used to select amount,
// peak-hour, and classification tables.
type Industry string

const (
	IndustryMobileApp    Industry = "mobile_app"
	IndustryHealthcare   Industry = "healthcare"
	IndustryGaming       Industry = "gaming"
	IndustryFinancial    Industry = "financial"
	IndustrySubscription Industry = "subscription"
	IndustryGeneral      Industry = "general"
)

// AmountBand is one amount-based scoring rule. Bands are evaluated in
// order and the first matching band wins. When Below is true the band
// matches amounts strictly under Threshold, otherwise strictly over it.
type AmountBand struct {
	Threshold float64 `json:"threshold"`
	Below     bool    `json:"below,omitempty"`
	Delta     int     `json:"delta"`
	// Flag, when non-empty, is a format string receiving the amount.
	Flag string `json:"flag,omitempty"`
}

// IndustryProfile holds the per-industry reference tables: amount bands,
// peak hours, risk multiplier, and classification cutoffs. Profiles are
// loaded once at engine construction and never mutated.
type IndustryProfile struct {
	AmountBands []AmountBand `json:"amountBands"`
	// BaselineDelta is contributed when no amount band matches.
	BaselineDelta int `json:"baselineDelta"`

	// PeakHours are hours-of-day considered normal activity time.
	PeakHours []int `json:"peakHours"`

	// Multiplier scales the aggregated raw score before jitter.
	Multiplier float64 `json:"multiplier"`

	// Classification cutoffs, both strict greater-than.
	AttentionAbove int `json:"attentionAbove"`
	WatchAbove     int `json:"watchAbove"`
}

// ProfileSet maps every industry to its profile.
type ProfileSet map[Industry]IndustryProfile

// defaultPeakHours is the business-hours set used by industries without
// a more specific schedule.
var defaultPeakHours = []int{9, 10, 11, 14, 15, 16}

// DefaultProfiles returns the built-in industry reference tables.
func DefaultProfiles() ProfileSet {
	return ProfileSet{
		IndustryHealthcare: {
			AmountBands: []AmountBand{
				{Threshold: 2000, Delta: 50, Flag: "Unusually high amount for healthcare ($%.2f)"},
				{Threshold: 500, Delta: 25},
			},
			PeakHours:      []int{8, 9, 10, 11, 14, 15, 16, 17},
			Multiplier:     1.1,
			AttentionAbove: 60,
			WatchAbove:     30,
		},
		IndustryMobileApp: {
			AmountBands: []AmountBand{
				{Threshold: 100, Delta: 45, Flag: "High amount for mobile app purchase ($%.2f)"},
				{Threshold: 1, Below: true, Delta: 35, Flag: "Micro-transaction possible card testing ($%.2f)"},
			},
			PeakHours:      []int{10, 11, 12, 19, 20, 21},
			Multiplier:     1.2,
			AttentionAbove: 75,
			WatchAbove:     45,
		},
		IndustryFinancial: {
			AmountBands: []AmountBand{
				{Threshold: 5000, Delta: 60, Flag: "Very high amount for financial services ($%.2f)"},
				{Threshold: 1000, Delta: 30},
			},
			PeakHours:      defaultPeakHours,
			Multiplier:     1.15,
			AttentionAbove: 50,
			WatchAbove:     25,
		},
		IndustryGaming: {
			AmountBands:    defaultAmountBands(),
			BaselineDelta:  5,
			PeakHours:      []int{18, 19, 20, 21, 22, 23},
			Multiplier:     1.0,
			AttentionAbove: 70,
			WatchAbove:     40,
		},
		IndustrySubscription: {
			AmountBands:    defaultAmountBands(),
			BaselineDelta:  5,
			PeakHours:      defaultPeakHours,
			Multiplier:     1.0,
			AttentionAbove: 70,
			WatchAbove:     40,
		},
		IndustryGeneral: {
			AmountBands:    defaultAmountBands(),
			BaselineDelta:  5,
			PeakHours:      defaultPeakHours,
			Multiplier:     1.0,
			AttentionAbove: 70,
			WatchAbove:     40,
		},
	}
}

func defaultAmountBands() []AmountBand {
	return []AmountBand{
		{Threshold: 1000, Delta: 40, Flag: "High transaction amount ($%.2f)"},
		{Threshold: 500, Delta: 20},
		{Threshold: 5, Below: true, Delta: 30, Flag: "Suspiciously small amount possible card testing ($%.2f)"},
	}
}
