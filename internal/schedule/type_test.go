package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stayOf(nights int) Stay {
	checkIn := day(1)
	return Stay{
		CheckIn:  checkIn,
		CheckOut: checkIn.AddDate(0, 0, nights),
		Nights:   nights,
	}
}

func TestParse(t *testing.T) {
	for _, typ := range All() {
		parsed, err := Parse(string(typ))
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	_, err := Parse("fortnightly")
	assert.Error(t, err)
	assert.False(t, Type("fortnightly").Valid())
}

func TestSingleInstantDates(t *testing.T) {
	stay := stayOf(1)

	turnover := TypeTurnover.Dates(stay)
	require.Len(t, turnover, 1)
	assert.Equal(t, stay.CheckOut, turnover[0])

	preArrival := TypePreArrival.Dates(stay)
	require.Len(t, preArrival, 1)
	assert.Equal(t, stay.CheckIn, preArrival[0])

	// A long stay still produces exactly one instant per type.
	long := stayOf(90)
	assert.Len(t, TypeTurnover.Dates(long), 1)
	assert.Len(t, TypePreArrival.Dates(long), 1)
}

func TestRecurringDatesCount(t *testing.T) {
	tests := []struct {
		name     string
		typ      Type
		nights   int
		expected int
	}{
		{name: "daily below threshold", typ: TypeDaily, nights: 1, expected: 0},
		{name: "daily 2 nights", typ: TypeDaily, nights: 2, expected: 1},
		{name: "daily 5 nights", typ: TypeDaily, nights: 5, expected: 4},
		{name: "every2 below threshold", typ: TypeEvery2, nights: 2, expected: 0},
		{name: "every2 3 nights", typ: TypeEvery2, nights: 3, expected: 1},
		{name: "every2 10 nights", typ: TypeEvery2, nights: 10, expected: 4},
		{name: "every3 below threshold", typ: TypeEvery3, nights: 3, expected: 0},
		{name: "every3 7 nights", typ: TypeEvery3, nights: 7, expected: 2},
		{name: "weekly below threshold", typ: TypeWeekly, nights: 7, expected: 0},
		{name: "weekly 8 nights", typ: TypeWeekly, nights: 8, expected: 1},
		{name: "weekly 21 nights", typ: TypeWeekly, nights: 21, expected: 2},
		{name: "monthly below threshold", typ: TypeMonthly, nights: 27, expected: 0},
		{name: "monthly 28 nights exactly", typ: TypeMonthly, nights: 28, expected: 1},
		{name: "monthly 60 nights", typ: TypeMonthly, nights: 60, expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.typ.Dates(stayOf(tt.nights)), tt.expected)
		})
	}
}

func TestRecurringDatesNeverIncludeCheckIn(t *testing.T) {
	for _, typ := range []Type{TypeDaily, TypeEvery2, TypeEvery3, TypeWeekly, TypeMonthly} {
		stay := stayOf(40)
		for _, d := range typ.Dates(stay) {
			assert.True(t, d.After(stay.CheckIn), "%s produced a check-in date", typ)
		}
	}
}

func TestRecurringDatesStayInsideStay(t *testing.T) {
	stay := stayOf(10)
	for _, typ := range []Type{TypeDaily, TypeEvery2, TypeEvery3, TypeWeekly} {
		for _, d := range typ.Dates(stay) {
			assert.True(t, d.Before(stay.CheckOut), "%s passed check-out", typ)
		}
	}
	// Monthly alone may land on the check-out day.
	monthlyStay := stayOf(56)
	for _, d := range TypeMonthly.Dates(monthlyStay) {
		assert.False(t, d.After(monthlyStay.CheckOut))
	}
}

func TestRecurringDatesAreOrderedAndSpaced(t *testing.T) {
	dates := TypeEvery3.Dates(stayOf(14))
	require.Len(t, dates, 4)
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, 3*24*time.Hour, dates[i].Sub(dates[i-1]))
	}
}

func TestOrderingWeights(t *testing.T) {
	assert.Greater(t, TypeTurnover.Ordering(), TypeMonthly.Ordering())
	assert.Greater(t, TypeMonthly.Ordering(), TypeWeekly.Ordering())
	assert.Greater(t, TypeWeekly.Ordering(), TypeEvery3.Ordering())
	assert.Greater(t, TypeEvery3.Ordering(), TypeEvery2.Ordering())
	assert.Greater(t, TypeEvery2.Ordering(), TypeDaily.Ordering())
	assert.Greater(t, TypeDaily.Ordering(), TypePreArrival.Ordering())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Daily Cleaning", TypeDaily.Describe("Cleaning", 0))
	assert.Equal(t, "Daily Cleaning #2", TypeDaily.Describe("Cleaning", 2))
	assert.Equal(t, "Turnover", TypeTurnover.Describe("", 0))
}
