package scoring

import (
	"strconv"
	"strings"
	"time"
)

// clockstamp is a parsed transaction timestamp. The time-of-day part and
// the date part are parsed independently; either may be missing.
type clockstamp struct {
	ok      bool // time-of-day parsed
	seconds int  // seconds since midnight, valid when ok
	hasDate bool
	day     int64 // days since Unix epoch, valid when hasDate
}

var timeLayouts = []string{"15:04:05", "15:04"}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006"}

// parseClock parses a transaction_date / transaction_time pair. A field
// that fails to parse is simply absent from the result and callers fall
// back to whatever partial data remains.
func parseClock(date, tod string) clockstamp {
	var cs clockstamp

	tod = strings.TrimSpace(tod)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, tod); err == nil {
			cs.ok = true
			cs.seconds = t.Hour()*3600 + t.Minute()*60 + t.Second()
			break
		}
	}

	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, date); err == nil {
			cs.hasDate = true
			cs.day = d.Unix() / 86400
			break
		}
	}

	return cs
}

// secondsApart returns the absolute distance between two timestamps.
// Dates are only combined when both sides carry one; otherwise the
// comparison is time-of-day only.
func secondsApart(a, b clockstamp) int64 {
	sa, sb := int64(a.seconds), int64(b.seconds)
	if a.hasDate && b.hasDate {
		sa += a.day * 86400
		sb += b.day * 86400
	}
	if sa > sb {
		return sa - sb
	}
	return sb - sa
}

// parseHour extracts the hour as the first colon-delimited token of a
// time string. It deliberately does no range validation.
func parseHour(tod string) (int, bool) {
	head, _, _ := strings.Cut(tod, ":")
	h, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, false
	}
	return h, true
}

// outputHour is the hour recorded on the output row, re-derived
// independently of the temporal risk rule. Defaults to midday when the
// time cannot be parsed.
func outputHour(tod string) int {
	if h, ok := parseHour(tod); ok && h >= 0 && h <= 23 {
		return h
	}
	return 12
}
