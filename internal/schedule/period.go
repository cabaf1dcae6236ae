package schedule

import (
	"iter"
	"time"
)

// Stay is the slice of a booking the scheduler works from: the check-in and
// check-out instants and the number of nights between them.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
	Nights   int
}

// LastNight returns the instant of the final night of the stay, one day
// before check-out.
func (s Stay) LastNight() time.Time {
	return s.CheckOut.AddDate(0, 0, -1)
}

// Period is a lazy, restartable walk over calendar instants from start to end
// (both inclusive when aligned), stepping forward a fixed number of days per
// iteration. The first produced instant always equals start; callers that
// want to skip the check-in date drop the first element explicitly.
type Period struct {
	start    time.Time
	end      time.Time
	stepDays int
}

func NewPeriod(start, end time.Time, stepDays int) Period {
	if stepDays < 1 {
		stepDays = 1
	}
	return Period{start: start, end: end, stepDays: stepDays}
}

// All iterates the period. The sequence can be ranged over multiple times.
func (p Period) All() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for t := p.start; !t.After(p.end); t = t.AddDate(0, 0, p.stepDays) {
			if !yield(t) {
				return
			}
		}
	}
}

// Instants materializes the walk into a slice.
func (p Period) Instants() []time.Time {
	var out []time.Time
	for t := range p.All() {
		out = append(out, t)
	}
	return out
}
