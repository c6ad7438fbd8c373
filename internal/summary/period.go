// Package summary computes dashboard figures from a list of transactions.
//
// Everything here is pure: no I/O, no shared state, safe for concurrent use.
// Callers fetch the transactions and decide when to recompute.
package summary

import (
	"time"

	"fintrack/internal/core"
)

const secondsPerDay = 24 * 60 * 60

// DateRange is an inclusive [From, To] span of calendar days. A range with
// either bound zero is absent.
type DateRange struct {
	From core.Date
	To   core.Date
}

// NewDateRange normalises both bounds to calendar days.
func NewDateRange(from, to core.Date) DateRange {
	return DateRange{From: core.DateOf(from.Time), To: core.DateOf(to.Time)}
}

// ParseDateRange builds a range from two YYYY-MM-DD strings. Missing or
// unparseable bounds yield an absent range rather than an error.
func ParseDateRange(from, to string) DateRange {
	f, err := core.ParseDate(from)
	if err != nil {
		return DateRange{}
	}
	t, err := core.ParseDate(to)
	if err != nil {
		return DateRange{}
	}
	return DateRange{From: f, To: t}
}

// Present reports whether both bounds are set and ordered by calendar day.
func (r DateRange) Present() bool {
	r = r.days()
	return !r.From.IsZero() && !r.To.IsZero() && !r.To.Before(r.From.Time)
}

// Days is the inclusive length of the range in calendar days.
func (r DateRange) Days() int {
	if !r.Present() {
		return 0
	}
	r = r.days()
	return int((r.To.Unix()-r.From.Unix())/secondsPerDay) + 1
}

// Contains reports whether d falls within [From, To]. Zero dates never match.
func (r DateRange) Contains(d core.Date) bool {
	if !r.Present() || d.IsZero() {
		return false
	}
	r = r.days()
	day := core.DateOf(d.Time)
	return !day.Before(r.From.Time) && !day.After(r.To.Time)
}

// Previous returns the period of equal length ending the day before From.
func (r DateRange) Previous() DateRange {
	if !r.Present() {
		return DateRange{}
	}
	n := r.Days()
	r = r.days()
	return DateRange{
		From: r.From.AddDays(-n),
		To:   r.From.AddDays(-1),
	}
}

// days drops any clock part from the bounds. Both bounds end up at UTC
// midnight, so their Unix difference is a whole number of days.
func (r DateRange) days() DateRange {
	return NewDateRange(r.From, r.To)
}

// Month returns the range covering the given calendar month.
func Month(year int, month time.Month) DateRange {
	first := core.NewDate(year, int(month), 1)
	return DateRange{From: first, To: core.Date{Time: first.AddDate(0, 1, -1)}}
}

func (r DateRange) String() string {
	if !r.Present() {
		return "(none)"
	}
	return r.From.String() + ".." + r.To.String()
}
