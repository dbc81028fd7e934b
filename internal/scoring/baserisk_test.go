package scoring

import (
	"testing"

	"github.com/opensource-risk/kestrel/internal/domain"
)

func TestBaseAmountRisk(t *testing.T) {
	profiles := domain.DefaultProfiles()

	tests := []struct {
		name      string
		industry  domain.Industry
		amount    float64
		wantDelta int
		wantFlag  bool
	}{
		{"healthcare high", domain.IndustryHealthcare, 2500, 50, true},
		{"healthcare mid", domain.IndustryHealthcare, 800, 25, false},
		{"healthcare low", domain.IndustryHealthcare, 100, 0, false},
		{"mobile high", domain.IndustryMobileApp, 150, 45, true},
		{"mobile card testing", domain.IndustryMobileApp, 0.50, 35, true},
		{"mobile normal", domain.IndustryMobileApp, 20, 0, false},
		{"financial very high", domain.IndustryFinancial, 6000, 60, true},
		{"financial high", domain.IndustryFinancial, 2000, 30, false},
		{"financial normal", domain.IndustryFinancial, 200, 0, false},
		{"general high", domain.IndustryGeneral, 5000, 40, true},
		{"general mid", domain.IndustryGeneral, 600, 20, false},
		{"general tiny", domain.IndustryGeneral, 1.50, 30, true},
		{"general baseline", domain.IndustryGeneral, 50, 5, false},
		{"gaming uses default bands", domain.IndustryGaming, 1200, 40, true},
		{"subscription baseline", domain.IndustrySubscription, 100, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := baseAmountRisk(tt.amount, profiles[tt.industry])
			if f.Delta != tt.wantDelta {
				t.Errorf("delta = %d, want %d", f.Delta, tt.wantDelta)
			}
			if (f.Flag != "") != tt.wantFlag {
				t.Errorf("flag = %q, wantFlag=%v", f.Flag, tt.wantFlag)
			}
		})
	}
}

func TestBaseAmountFirstMatchWins(t *testing.T) {
	// 2000 exceeds both the >1000 and >500 general bands; only the first
	// may apply.
	f := baseAmountRisk(2000, domain.DefaultProfiles()[domain.IndustryGeneral])
	if f.Delta != 40 {
		t.Errorf("delta = %d, want 40 (first matching band only)", f.Delta)
	}
}

func TestTemporalRisk(t *testing.T) {
	general := domain.DefaultProfiles()[domain.IndustryGeneral]

	tests := []struct {
		name      string
		tod       string
		wantDelta int
		wantFlag  bool
	}{
		{"peak hour", "10:30:00", 0, false},
		{"peak hour afternoon", "15:00:00", 0, false},
		{"late night", "23:15:00", 25, true},
		{"early morning", "03:00:00", 25, true},
		{"boundary hour six", "06:59:59", 25, true},
		{"hour seven is only off-peak", "07:00:00", 10, false},
		{"off peak daytime", "12:00:00", 10, false},
		{"unparseable", "not a time", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := temporalRisk(tt.tod, general)
			if f.Delta != tt.wantDelta {
				t.Errorf("temporalRisk(%q) delta = %d, want %d", tt.tod, f.Delta, tt.wantDelta)
			}
			if (f.Flag != "") != tt.wantFlag {
				t.Errorf("temporalRisk(%q) flag = %q, wantFlag=%v", tt.tod, f.Flag, tt.wantFlag)
			}
		})
	}
}

func TestTemporalRiskIndustryPeaks(t *testing.T) {
	// Gaming peaks run into the late evening; 22:00 is normal there but
	// late-night for general.
	gaming := domain.DefaultProfiles()[domain.IndustryGaming]
	if f := temporalRisk("22:00:00", gaming); f.Delta != 0 {
		t.Errorf("gaming at 22:00 delta = %d, want 0", f.Delta)
	}
	general := domain.DefaultProfiles()[domain.IndustryGeneral]
	if f := temporalRisk("22:00:00", general); f.Delta != 25 {
		t.Errorf("general at 22:00 delta = %d, want 25", f.Delta)
	}
}
