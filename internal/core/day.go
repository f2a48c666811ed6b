package core

import "time"

// Day identifies a calendar day in the ledger's location. Two timestamps on
// the same Day bucket together regardless of their time of day.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar day of t as observed in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// SameDay reports whether a and b fall on the same calendar day in loc.
// This is a calendar comparison, not a 24-hour-window comparison: day
// boundaries follow loc, including DST transitions.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayOf(a, loc) == DayOf(b, loc)
}

// MonthRange returns the half-open interval [start, end) covering the whole
// calendar month of t in loc, from the first day at midnight to the first
// day of the following month. time.Date normalizes month overflow, so
// December rolls into January of the next year.
func MonthRange(t time.Time, loc *time.Location) (start, end time.Time) {
	y, m, _ := t.In(loc).Date()
	start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
	end = time.Date(y, m+1, 1, 0, 0, 0, 0, loc)
	return start, end
}

// InMonth reports whether t falls within the calendar month of ref in loc.
func InMonth(t, ref time.Time, loc *time.Location) bool {
	start, end := MonthRange(ref, loc)
	tt := t.In(loc)
	return !tt.Before(start) && tt.Before(end)
}
