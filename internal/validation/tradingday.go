package validation

import "time"

// IsTradingDay reports whether t falls on Monday to Friday.
// There is no holiday calendar.
func IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddTradingDays advances from by n trading days, one calendar day at a time.
// n <= 0 returns from unchanged.
func AddTradingDays(from time.Time, n int) time.Time {
	d := from
	for count := 0; count < n; {
		d = d.AddDate(0, 0, 1)
		if IsTradingDay(d) {
			count++
		}
	}
	return d
}
