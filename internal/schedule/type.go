package schedule

import (
	"fmt"
	"time"

	"github.com/hostelops/turnkey/pkg/cerr"
)

// Type identifies a recurrence policy that turns a stay into task due dates.
type Type string

const (
	TypeTurnover   Type = "turnover"
	TypePreArrival Type = "pre_arrival"
	TypeDaily      Type = "daily"
	TypeEvery2     Type = "every2"
	TypeEvery3     Type = "every3"
	TypeWeekly     Type = "weekly"
	TypeMonthly    Type = "monthly"
)

type spec struct {
	label string
	// ordering is a fixed display/tie-break weight. When two types produce
	// a date on the same calendar day, the lower ordering wins.
	ordering int
	// intervalDays is the walk step for recurring types; 0 marks the
	// single-instant types (turnover, pre-arrival).
	intervalDays int
	// minNights is the threshold below which a recurring type schedules
	// nothing. The stay must exceed the interval by at least one night,
	// except monthly where a 28-night stay is exactly schedulable.
	minNights int
	// includeCheckOut widens the walk to the check-out day. Only monthly
	// does this; the other recurring types stop at the last night.
	includeCheckOut bool
}

var specs = map[Type]spec{
	TypeTurnover:   {label: "Turnover", ordering: 365},
	TypePreArrival: {label: "Pre-arrival", ordering: 0},
	TypeDaily:      {label: "Daily", ordering: 1, intervalDays: 1, minNights: 2},
	TypeEvery2:     {label: "Every 2 days", ordering: 2, intervalDays: 2, minNights: 3},
	TypeEvery3:     {label: "Every 3 days", ordering: 3, intervalDays: 3, minNights: 4},
	TypeWeekly:     {label: "Weekly", ordering: 7, intervalDays: 7, minNights: 8},
	TypeMonthly:    {label: "Monthly", ordering: 28, intervalDays: 28, minNights: 28, includeCheckOut: true},
}

// All returns every known schedule type.
func All() []Type {
	return []Type{
		TypeTurnover,
		TypePreArrival,
		TypeDaily,
		TypeEvery2,
		TypeEvery3,
		TypeWeekly,
		TypeMonthly,
	}
}

// Parse validates a schedule type name.
func Parse(s string) (Type, error) {
	t := Type(s)
	if _, ok := specs[t]; !ok {
		return "", cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown schedule type %q", s), nil)
	}
	return t, nil
}

func (t Type) Valid() bool {
	_, ok := specs[t]
	return ok
}

func (t Type) Label() string {
	return specs[t].label
}

// Ordering returns the fixed tie-break weight for the type. It is used only
// for sorting and same-day collision resolution, never for date math.
func (t Type) Ordering() int {
	return specs[t].ordering
}

// Dates returns the ordered due instants the type produces for a stay.
//
// Single-instant types return exactly one date regardless of stay length:
// check-out for turnover, check-in for pre-arrival. Recurring types return
// nothing when the stay is below their minimum-nights threshold; otherwise
// they walk the stay at their interval and exclude the first occurrence, so
// the check-in day itself never gets an automatic task.
func (t Type) Dates(stay Stay) []time.Time {
	sp, ok := specs[t]
	if !ok {
		return nil
	}
	if sp.intervalDays == 0 {
		if t == TypePreArrival {
			return []time.Time{stay.CheckIn}
		}
		return []time.Time{stay.CheckOut}
	}

	if stay.Nights < sp.minNights {
		return nil
	}

	end := stay.LastNight()
	if sp.includeCheckOut {
		end = stay.CheckOut
	}

	var dates []time.Time
	first := true
	for d := range NewPeriod(stay.CheckIn, end, sp.intervalDays).All() {
		if first {
			first = false
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// Describe renders the task title for one occurrence. A nonzero counter
// disambiguates repeated occurrences within one booking, e.g. "Daily
// Cleaning #2".
func (t Type) Describe(info string, counter int) string {
	label := specs[t].label
	if info != "" {
		label = fmt.Sprintf("%s %s", label, info)
	}
	if counter != 0 {
		label = fmt.Sprintf("%s #%d", label, counter)
	}
	return label
}
