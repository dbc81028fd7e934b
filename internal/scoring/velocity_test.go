package scoring

import (
	"testing"
)

func row(amount float64, category, date, tod string) historyRow {
	return historyRow{amount: amount, category: category, ts: parseClock(date, tod)}
}

func TestVelocityBurstWithinHour(t *testing.T) {
	// Scenario: four same-customer transactions at most an hour apart.
	// Rows three and four see a window of >=3 rows within 3600s and
	// carry the flag; rows one and two do not.
	times := []string{"10:00:00", "10:20:00", "10:40:00", "11:00:00"}

	var prior []historyRow
	for i, tod := range times {
		cur := row(50, "retail", "2024-03-01", tod)
		fs := velocityFindings(cur, prior)
		flagged := findingWith(fs, "Multiple transactions within 1 hour") != nil

		wantFlagged := i >= 2
		if flagged != wantFlagged {
			t.Errorf("row %d flagged=%v, want %v", i+1, flagged, wantFlagged)
		}
		prior = append(prior, cur)
	}
}

func TestVelocitySparseTimesNotFlagged(t *testing.T) {
	prior := []historyRow{
		row(50, "retail", "2024-03-01", "01:00:00"),
		row(50, "retail", "2024-03-01", "05:00:00"),
		row(50, "retail", "2024-03-01", "09:00:00"),
	}
	cur := row(50, "retail", "2024-03-01", "13:00:00")

	fs := velocityFindings(cur, prior)
	if findingWith(fs, "Multiple transactions") != nil {
		t.Errorf("spread-out transactions flagged: %v", fs)
	}
}

func TestVelocityUsesDatesWhenPresent(t *testing.T) {
	// Same clock time on consecutive days is 24h apart, not 0s, when
	// both rows carry a parseable date.
	prior := []historyRow{
		row(50, "retail", "2024-03-01", "10:00:00"),
		row(50, "retail", "2024-03-02", "10:00:00"),
	}
	cur := row(50, "retail", "2024-03-03", "10:00:00")

	fs := velocityFindings(cur, prior)
	if findingWith(fs, "Multiple transactions") != nil {
		t.Errorf("cross-day transactions flagged as within one hour: %v", fs)
	}
}

func TestVelocityTimeOnlyFallback(t *testing.T) {
	// With no dates at all, time-of-day distances apply.
	prior := []historyRow{
		row(50, "retail", "", "10:00:00"),
		row(50, "retail", "", "10:30:00"),
	}
	cur := row(50, "retail", "", "10:45:00")

	fs := velocityFindings(cur, prior)
	if findingWith(fs, "Multiple transactions within 1 hour") == nil {
		t.Errorf("dateless burst not flagged: %v", fs)
	}
}

func TestVelocityAmountEscalation(t *testing.T) {
	// a3=10, a2=25 (>2*10), a1=100 (>3*25): card-testing escalation.
	prior := []historyRow{
		row(10, "retail", "", "01:00:00"),
		row(25, "retail", "", "05:00:00"),
	}
	cur := row(100, "retail", "", "09:00:00")

	fs := velocityFindings(cur, prior)
	f := findingWith(fs, "Rapid amount escalation")
	if f == nil {
		t.Fatalf("escalation not flagged: %v", fs)
	}
	if f.Delta != 40 {
		t.Errorf("delta = %d, want 40", f.Delta)
	}
}

func TestVelocityNoEscalationOnFlatAmounts(t *testing.T) {
	prior := []historyRow{
		row(100, "retail", "", "01:00:00"),
		row(100, "retail", "", "05:00:00"),
	}
	cur := row(100, "retail", "", "09:00:00")

	if fs := velocityFindings(cur, prior); findingWith(fs, "escalation") != nil {
		t.Errorf("flat amounts flagged: %v", fs)
	}
}

func TestVelocityEscalationUsesLastThree(t *testing.T) {
	// Early history is irrelevant; only the trailing three amounts count.
	prior := []historyRow{
		row(5000, "retail", "", "01:00:00"),
		row(10, "retail", "", "03:00:00"),
		row(25, "retail", "", "05:00:00"),
	}
	cur := row(100, "retail", "", "09:00:00")

	if fs := velocityFindings(cur, prior); findingWith(fs, "Rapid amount escalation") == nil {
		t.Errorf("trailing escalation not flagged: %v", fs)
	}
}

func TestVelocitySmallWindowSkipped(t *testing.T) {
	cur := row(100, "retail", "", "10:00:00")
	if fs := velocityFindings(cur, nil); len(fs) != 0 {
		t.Errorf("single-row window produced findings: %v", fs)
	}

	prior := []historyRow{row(10, "retail", "", "10:00:00")}
	if fs := velocityFindings(cur, prior); len(fs) != 0 {
		t.Errorf("two-row window produced findings: %v", fs)
	}
}

func TestVelocityUnparseableCurrentTime(t *testing.T) {
	prior := []historyRow{
		row(50, "retail", "", "10:00:00"),
		row(50, "retail", "", "10:10:00"),
	}
	cur := row(50, "retail", "", "garbage")

	fs := velocityFindings(cur, prior)
	if findingWith(fs, "Multiple transactions") != nil {
		t.Errorf("unparseable current time still flagged: %v", fs)
	}
}
